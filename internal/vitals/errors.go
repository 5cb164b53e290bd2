package vitals

import "errors"

var (
	// ErrUnknownReading is returned when setting a threshold for a
	// reading name the monitor does not track.
	ErrUnknownReading = errors.New("vitals: unknown reading")

	// ErrMonitorNotFound is returned by manager lookups for an unknown
	// monitor id.
	ErrMonitorNotFound = errors.New("vitals: monitor not found")
)
