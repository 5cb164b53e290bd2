package hub

import (
	"encoding/json"
	"sync"

	"github.com/vitalmesh/vitalmesh-core/internal/bus"
)

// Sink is a send handle for one observer connection. Send must
// enqueue without blocking; a full buffer or dead connection is
// reported as an error and the sink is dropped.
type Sink interface {
	Send(data []byte) error
}

// Logger defines the logging interface used by the Hub.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Hub fans messages out to live observers: dashboards receive device
// state and alert frames, device channels receive raw bus messages
// addressed to (or broadcast at) their device.
//
// All public methods are thread-safe. Sends happen on snapshots of
// the subscription sets, never while holding the lock across a
// network write.
type Hub struct {
	mu         sync.RWMutex
	dashboards map[Sink]struct{}
	devices    map[string]map[Sink]struct{}
	logger     Logger
}

// New creates an empty hub.
func New() *Hub {
	return &Hub{
		dashboards: make(map[Sink]struct{}),
		devices:    make(map[string]map[Sink]struct{}),
		logger:     noopLogger{},
	}
}

// SetLogger sets the logger for the hub.
func (h *Hub) SetLogger(logger Logger) {
	h.logger = logger
}

// SubscribeDashboard adds a dashboard sink. The catch-up snapshots are
// enqueued before the sink joins the live set, so the observer sees
// one device_update per known device ahead of any new live frame.
func (h *Hub) SubscribeDashboard(s Sink, catchUp []DeviceSnapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, snap := range catchUp {
		data, err := json.Marshal(deviceUpdateFrame{Type: "device_update", Device: snap})
		if err != nil {
			h.logger.Error("marshal catch-up frame", "device", snap.DeviceID, "error", err)
			continue
		}
		if err := s.Send(data); err != nil {
			// The sink died before it finished joining. Don't add it.
			h.logger.Debug("dashboard sink rejected catch-up", "error", err)
			return
		}
	}
	h.dashboards[s] = struct{}{}
	h.logger.Debug("dashboard subscribed", "total", len(h.dashboards))
}

// UnsubscribeDashboard removes a dashboard sink. Idempotent.
func (h *Hub) UnsubscribeDashboard(s Sink) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.dashboards, s)
}

// SubscribeDevice adds a sink for one device's channel. The catch-up
// frames carry messages already queued for the device; they are
// enqueued before the sink joins the live set, so the observer sees
// its backlog once ahead of any new live frame.
func (h *Hub) SubscribeDevice(deviceID string, s Sink, catchUp [][]byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, data := range catchUp {
		if err := s.Send(data); err != nil {
			h.logger.Debug("device sink rejected catch-up", "device", deviceID, "error", err)
			return
		}
	}

	sinks, ok := h.devices[deviceID]
	if !ok {
		sinks = make(map[Sink]struct{})
		h.devices[deviceID] = sinks
	}
	sinks[s] = struct{}{}
	h.logger.Debug("device channel subscribed", "device", deviceID)
}

// UnsubscribeDevice removes a sink from one device's channel.
// Idempotent; the channel entry is dropped when its last sink leaves.
func (h *Hub) UnsubscribeDevice(deviceID string, s Sink) {
	h.mu.Lock()
	defer h.mu.Unlock()

	sinks, ok := h.devices[deviceID]
	if !ok {
		return
	}
	delete(sinks, s)
	if len(sinks) == 0 {
		delete(h.devices, deviceID)
	}
}

// PushDeviceUpdate sends a device_update frame to every dashboard.
func (h *Hub) PushDeviceUpdate(snap DeviceSnapshot) {
	data, err := json.Marshal(deviceUpdateFrame{Type: "device_update", Device: snap})
	if err != nil {
		h.logger.Error("marshal device update", "device", snap.DeviceID, "error", err)
		return
	}
	h.sendToDashboards(data)
}

// PushAlert sends an alert frame to every dashboard.
func (h *Hub) PushAlert(a Alert) {
	data, err := json.Marshal(alertFrame{Type: "alert", Alert: a})
	if err != nil {
		h.logger.Error("marshal alert", "device", a.DeviceID, "error", err)
		return
	}
	h.sendToDashboards(data)
}

// MessageAccepted implements the bus notifier. Directed messages go to
// the receiver's channel sinks; broadcasts go to every device channel.
// Dashboards are not notified here: alert routing to dashboards is a
// policy of the layer that inspects message types.
func (h *Hub) MessageAccepted(msg bus.Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("marshal bus message", "message_id", msg.MessageID, "error", err)
		return
	}

	h.mu.RLock()
	var targets []Sink
	if msg.ReceiverID != nil {
		for s := range h.devices[*msg.ReceiverID] {
			targets = append(targets, s)
		}
	} else {
		for _, sinks := range h.devices {
			for s := range sinks {
				targets = append(targets, s)
			}
		}
	}
	h.mu.RUnlock()

	h.deliver(targets, data)
}

// sendToDashboards delivers one frame to a snapshot of the dashboard
// set, dropping sinks that fail.
func (h *Hub) sendToDashboards(data []byte) {
	h.mu.RLock()
	targets := make([]Sink, 0, len(h.dashboards))
	for s := range h.dashboards {
		targets = append(targets, s)
	}
	h.mu.RUnlock()

	h.deliver(targets, data)
}

// deliver sends outside the lock and removes any sink whose Send
// fails from every subscription set.
func (h *Hub) deliver(targets []Sink, data []byte) {
	var dead []Sink
	for _, s := range targets {
		if err := s.Send(data); err != nil {
			dead = append(dead, s)
		}
	}
	if len(dead) == 0 {
		return
	}

	h.mu.Lock()
	for _, s := range dead {
		delete(h.dashboards, s)
		for id, sinks := range h.devices {
			delete(sinks, s)
			if len(sinks) == 0 {
				delete(h.devices, id)
			}
		}
	}
	h.mu.Unlock()

	h.logger.Debug("removed dead sinks", "count", len(dead))
}

// DashboardCount returns the number of live dashboard sinks.
func (h *Hub) DashboardCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.dashboards)
}

// DeviceChannelCount returns the number of device channels with at
// least one live sink.
func (h *Hub) DeviceChannelCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.devices)
}
