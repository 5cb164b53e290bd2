package device

import (
	"sync"
	"time"
)

// Logger defines the logging interface used by the Registry.
// This allows different logging implementations to be used.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Registry is the authoritative set of known devices, keyed by device
// id. All state lives in memory for the process lifetime.
//
// All public methods are thread-safe. Reads proceed concurrently;
// mutations are mutually exclusive.
type Registry struct {
	mu      sync.RWMutex
	devices map[string]*Info
	logger  Logger
}

// NewRegistry creates an empty device registry.
func NewRegistry() *Registry {
	return &Registry{
		devices: make(map[string]*Info),
		logger:  noopLogger{},
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger Logger) {
	r.logger = logger
}

// Register inserts a device iff its id is absent.
// Returns ErrAlreadyRegistered, with no mutation, if the id is taken.
func (r *Registry) Register(info Info) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.devices[info.DeviceID]; exists {
		return ErrAlreadyRegistered
	}

	stored := info.DeepCopy()
	if stored.LastHeartbeat.IsZero() {
		stored.LastHeartbeat = time.Now().UTC()
	}
	r.devices[info.DeviceID] = stored

	r.logger.Info("device registered", "id", info.DeviceID, "type", info.DeviceType)
	return nil
}

// Unregister removes a device entry.
// Returns ErrNotFound if the id is unknown.
func (r *Registry) Unregister(deviceID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.devices[deviceID]; !exists {
		return ErrNotFound
	}
	delete(r.devices, deviceID)

	r.logger.Info("device unregistered", "id", deviceID)
	return nil
}

// Discover returns a snapshot of registered devices. An empty
// deviceType matches everything. The returned Infos are copies.
func (r *Registry) Discover(deviceType string) []Info {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Info, 0, len(r.devices))
	for _, d := range r.devices {
		if deviceType != "" && d.DeviceType != deviceType {
			continue
		}
		out = append(out, *d.DeepCopy())
	}
	return out
}

// UpdateStatus sets the device status and refreshes its heartbeat.
// Returns ErrNotFound if the id is unknown.
func (r *Registry) UpdateStatus(deviceID, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, exists := r.devices[deviceID]
	if !exists {
		return ErrNotFound
	}
	d.Status = status
	d.LastHeartbeat = time.Now().UTC()

	r.logger.Debug("device status updated", "id", deviceID, "status", status)
	return nil
}

// Get retrieves a device by id. The returned Info is a copy.
func (r *Registry) Get(deviceID string) (Info, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, exists := r.devices[deviceID]
	if !exists {
		return Info{}, ErrNotFound
	}
	return *d.DeepCopy(), nil
}

// Contains reports whether the device id is currently registered.
// Satisfies the bus's registry dependency.
func (r *Registry) Contains(deviceID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.devices[deviceID]
	return exists
}

// Count returns the number of registered devices.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.devices)
}
