// Package logging provides structured logging for VitalMesh Core.
//
// It wraps the standard library slog package with configuration-driven
// setup (level, format, output destination) and default attributes
// identifying the service and build version.
//
// Components that should not depend on this package directly (the device
// registry, message bus, and broadcast hub) declare their own minimal
// Logger interface that *logging.Logger satisfies.
//
// Usage:
//
//	log := logging.New(cfg.Logging, version)
//	log.Info("device registered", "device_id", id)
package logging
