package bus

import "errors"

// Domain errors for the bus package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, bus.ErrUnknownSender) {
//	    // reject the request
//	}
var (
	// ErrUnknownSender is returned when a message's sender is not a
	// currently registered device.
	ErrUnknownSender = errors.New("bus: unknown sender")

	// ErrUnknownReceiver is returned when a message names a receiver
	// that is not a currently registered device.
	ErrUnknownReceiver = errors.New("bus: unknown receiver")
)
