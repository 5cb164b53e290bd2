package vitals

import (
	"sync"

	"github.com/vitalmesh/vitalmesh-core/internal/bus"
	"github.com/vitalmesh/vitalmesh-core/internal/device"
)

// DeviceType is the registry type tag for patient monitors.
const DeviceType = "patient_monitor"

// AlertPriority is the bus priority assigned to threshold alerts.
const AlertPriority = 1

// Metrics receives telemetry for readings and alerts. Satisfied by
// the influxdb client; a nil-safe noop is used when telemetry is off.
type Metrics interface {
	WriteReadingMetric(deviceID, reading string, value float64)
	WriteAlertMetric(deviceID, alertType, reading string, value float64)
}

type noopMetrics struct{}

func (noopMetrics) WriteReadingMetric(string, string, float64)        {}
func (noopMetrics) WriteAlertMetric(string, string, string, float64) {}

// defaultOrder fixes the evaluation order of the stock vital signs.
var defaultOrder = []string{
	"heart_rate",
	"systolic_bp",
	"diastolic_bp",
	"oxygen_saturation",
	"temperature",
}

// DefaultThresholds returns the stock normal ranges for adult vitals.
func DefaultThresholds() map[string]Threshold {
	return map[string]Threshold{
		"heart_rate":        {Min: 60, Max: 100},
		"systolic_bp":       {Min: 90, Max: 140},
		"diastolic_bp":      {Min: 60, Max: 90},
		"oxygen_saturation": {Min: 95, Max: 100},
		"temperature":       {Min: 36.1, Max: 37.2},
	}
}

// Monitor is a patient monitor device: an actor on the network whose
// reading updates are evaluated against per-reading thresholds.
// Out-of-range readings produce broadcast alert messages; every update
// also broadcasts the merged reading set as a data message.
type Monitor struct {
	actor *device.Actor

	mu         sync.Mutex
	order      []string
	readings   map[string]float64
	thresholds map[string]Threshold

	metrics Metrics
}

// NewMonitor registers a fresh patient monitor on the network.
func NewMonitor(registry *device.Registry, b *bus.Bus, patientID string) (*Monitor, error) {
	actor, err := device.NewActor(registry, b, DeviceType,
		[]string{"vitals_monitoring", "alert_generation"},
		map[string]string{
			"patient_id":   patientID,
			"manufacturer": "VitalMesh Medical",
			"model":        "PM-2024",
		})
	if err != nil {
		return nil, err
	}
	if err := actor.UpdateStatus(device.StatusMonitoring); err != nil {
		return nil, err
	}

	order := make([]string, len(defaultOrder))
	copy(order, defaultOrder)

	return &Monitor{
		actor:      actor,
		order:      order,
		readings:   make(map[string]float64),
		thresholds: DefaultThresholds(),
		metrics:    noopMetrics{},
	}, nil
}

// SetMetrics attaches a telemetry sink. Call before the monitor starts
// receiving readings.
func (m *Monitor) SetMetrics(metrics Metrics) {
	m.metrics = metrics
}

// ID returns the monitor's device id.
func (m *Monitor) ID() string {
	return m.actor.ID()
}

// Info returns the monitor's registry entry.
func (m *Monitor) Info() (device.Info, error) {
	return m.actor.Info()
}

// PatientID returns the associated patient id.
func (m *Monitor) PatientID() string {
	info, err := m.actor.Info()
	if err != nil {
		return ""
	}
	return info.Metadata["patient_id"]
}

// UpdateReadings merges the given readings into the current set,
// evaluates thresholds, and broadcasts one alert message per
// out-of-range reading followed by a vitals_update data message.
// Reading names not seen before join the evaluation order at the end.
// Returns the alert events raised by this update.
func (m *Monitor) UpdateReadings(update map[string]float64) ([]AlertEvent, error) {
	m.mu.Lock()
	for name, value := range update {
		if _, known := m.readings[name]; !known {
			if _, hasThreshold := m.thresholds[name]; !hasThreshold {
				m.order = append(m.order, name)
			}
		}
		m.readings[name] = value
	}

	updated := make([]string, 0, len(update))
	for _, name := range m.order {
		if _, ok := update[name]; ok {
			updated = append(updated, name)
		}
	}
	events := Evaluate(updated, m.readings, m.thresholds)
	snapshot := m.snapshotLocked()
	m.mu.Unlock()

	for name, value := range update {
		m.metrics.WriteReadingMetric(m.actor.ID(), name, value)
	}

	for _, ev := range events {
		_, err := m.actor.SendAlert(map[string]any{
			"alert_type": ev.Kind,
			"message":    ev.Message(),
			"reading":    ev.Name,
			"value":      ev.Value,
			"min":        ev.Min,
			"max":        ev.Max,
		}, AlertPriority)
		if err != nil {
			return events, err
		}
		m.metrics.WriteAlertMetric(m.actor.ID(), ev.Kind, ev.Name, ev.Value)
	}

	readings := make(map[string]any, len(snapshot))
	for name, value := range snapshot {
		readings[name] = value
	}
	if _, err := m.actor.SendData(nil, map[string]any{
		"event":    "vitals_update",
		"readings": readings,
	}); err != nil {
		return events, err
	}

	return events, nil
}

// SetThreshold replaces the normal range for an already-tracked
// reading name and re-evaluates the current reading against it,
// broadcasting an alert if it is now out of range. Unknown names are
// rejected with ErrUnknownReading.
func (m *Monitor) SetThreshold(name string, th Threshold) ([]AlertEvent, error) {
	m.mu.Lock()
	if _, ok := m.thresholds[name]; !ok {
		m.mu.Unlock()
		return nil, ErrUnknownReading
	}
	m.thresholds[name] = th
	events := Evaluate([]string{name}, m.readings, m.thresholds)
	m.mu.Unlock()

	for _, ev := range events {
		_, err := m.actor.SendAlert(map[string]any{
			"alert_type": ev.Kind,
			"message":    ev.Message(),
			"reading":    ev.Name,
			"value":      ev.Value,
			"min":        ev.Min,
			"max":        ev.Max,
		}, AlertPriority)
		if err != nil {
			return events, err
		}
		m.metrics.WriteAlertMetric(m.actor.ID(), ev.Kind, ev.Name, ev.Value)
	}
	return events, nil
}

// Readings returns a copy of the current reading set.
func (m *Monitor) Readings() map[string]float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

// Thresholds returns a copy of the current threshold set.
func (m *Monitor) Thresholds() map[string]Threshold {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]Threshold, len(m.thresholds))
	for name, th := range m.thresholds {
		out[name] = th
	}
	return out
}

// Receive returns the bus messages currently visible to this monitor.
func (m *Monitor) Receive() []bus.Message {
	return m.actor.Receive()
}

// UpdateStatus sets the monitor's registry status.
func (m *Monitor) UpdateStatus(status string) error {
	return m.actor.UpdateStatus(status)
}

// Cleanup removes the monitor from the network.
func (m *Monitor) Cleanup() error {
	return m.actor.Cleanup()
}

func (m *Monitor) snapshotLocked() map[string]float64 {
	out := make(map[string]float64, len(m.readings))
	for name, value := range m.readings {
		out[name] = value
	}
	return out
}
