package vitals

import (
	"sync"

	"github.com/vitalmesh/vitalmesh-core/internal/bus"
	"github.com/vitalmesh/vitalmesh-core/internal/device"
)

// Manager owns the live patient monitors, keyed by device id. It
// creates them on the shared registry and bus and tears them down on
// removal.
type Manager struct {
	registry *device.Registry
	bus      *bus.Bus
	metrics  Metrics

	mu       sync.RWMutex
	monitors map[string]*Monitor
}

// NewManager creates an empty monitor manager. metrics may be nil.
func NewManager(registry *device.Registry, b *bus.Bus, metrics Metrics) *Manager {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &Manager{
		registry: registry,
		bus:      b,
		metrics:  metrics,
		monitors: make(map[string]*Monitor),
	}
}

// Create registers a new patient monitor and tracks it.
func (mg *Manager) Create(patientID string) (*Monitor, error) {
	m, err := NewMonitor(mg.registry, mg.bus, patientID)
	if err != nil {
		return nil, err
	}
	m.SetMetrics(mg.metrics)

	mg.mu.Lock()
	mg.monitors[m.ID()] = m
	mg.mu.Unlock()
	return m, nil
}

// Get returns the monitor with the given device id.
func (mg *Manager) Get(deviceID string) (*Monitor, error) {
	mg.mu.RLock()
	defer mg.mu.RUnlock()
	m, ok := mg.monitors[deviceID]
	if !ok {
		return nil, ErrMonitorNotFound
	}
	return m, nil
}

// List returns the tracked monitors in unspecified order.
func (mg *Manager) List() []*Monitor {
	mg.mu.RLock()
	defer mg.mu.RUnlock()
	out := make([]*Monitor, 0, len(mg.monitors))
	for _, m := range mg.monitors {
		out = append(out, m)
	}
	return out
}

// Remove tears a monitor down: it leaves the network and is dropped
// from the manager.
func (mg *Manager) Remove(deviceID string) error {
	mg.mu.Lock()
	m, ok := mg.monitors[deviceID]
	if ok {
		delete(mg.monitors, deviceID)
	}
	mg.mu.Unlock()

	if !ok {
		return ErrMonitorNotFound
	}
	return m.Cleanup()
}

// Count returns the number of tracked monitors.
func (mg *Manager) Count() int {
	mg.mu.RLock()
	defer mg.mu.RUnlock()
	return len(mg.monitors)
}
