package device

import "errors"

// Sentinel errors for registry operations. Callers check with
// errors.Is; these are normal control flow, not faults.
var (
	// ErrAlreadyRegistered is returned when registering a device id
	// that is already present. The existing entry is left untouched.
	ErrAlreadyRegistered = errors.New("device: already registered")

	// ErrNotFound is returned by lookups, unregister, and status
	// updates for an unknown device id.
	ErrNotFound = errors.New("device: not found")
)
