package device

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/vitalmesh/vitalmesh-core/internal/bus"
)

// Actor binds one registry entry to the message bus. It is the
// composition root for a participating device: identity plus send,
// receive, status, and discovery operations scoped to that identity.
//
// Device-kind behaviour (e.g. vitals evaluation) composes on top of an
// Actor rather than extending it.
type Actor struct {
	id       string
	registry *Registry
	bus      *bus.Bus
}

// NewActor registers a fresh device and attaches it to the bus.
// The device id is generated from the type and a random suffix, so
// registration cannot collide with an existing entry.
func NewActor(registry *Registry, b *bus.Bus, deviceType string, capabilities []string, metadata map[string]string) (*Actor, error) {
	id := fmt.Sprintf("%s-%s", deviceType, uuid.NewString())

	err := registry.Register(Info{
		DeviceID:     id,
		DeviceType:   deviceType,
		Status:       StatusInitializing,
		Capabilities: capabilities,
		Metadata:     metadata,
	})
	if err != nil {
		return nil, fmt.Errorf("registering device: %w", err)
	}
	b.Attach(id)

	return &Actor{id: id, registry: registry, bus: b}, nil
}

// ID returns the device id.
func (a *Actor) ID() string {
	return a.id
}

// Info returns the current registry entry for this device.
func (a *Actor) Info() (Info, error) {
	return a.registry.Get(a.id)
}

// SendAlert broadcasts an alert message with the given payload and
// priority. Returns the assigned message id.
func (a *Actor) SendAlert(payload map[string]any, priority int) (string, error) {
	return a.bus.Send(bus.Message{
		SenderID:    a.id,
		MessageType: bus.MessageTypeAlert,
		Payload:     payload,
		Priority:    priority,
	})
}

// SendData sends a data message. A nil receiverID broadcasts to every
// registered device. Returns the assigned message id.
func (a *Actor) SendData(receiverID *string, payload map[string]any) (string, error) {
	return a.bus.Send(bus.Message{
		SenderID:    a.id,
		ReceiverID:  receiverID,
		MessageType: bus.MessageTypeData,
		Payload:     payload,
	})
}

// Receive returns the messages currently visible to this device:
// everything addressed to it plus broadcasts sent since it attached.
// Reads are non-destructive.
func (a *Actor) Receive() []bus.Message {
	return a.bus.ReceiveFor(a.id)
}

// UpdateStatus sets this device's status and refreshes its heartbeat.
func (a *Actor) UpdateStatus(status string) error {
	return a.registry.UpdateStatus(a.id, status)
}

// Discover lists registered devices, optionally filtered by type.
func (a *Actor) Discover(deviceType string) []Info {
	return a.registry.Discover(deviceType)
}

// Cleanup detaches the device from the bus and removes its registry
// entry. Safe to call once at end of life; a second call returns
// ErrNotFound.
func (a *Actor) Cleanup() error {
	a.bus.Detach(a.id)
	return a.registry.Unregister(a.id)
}
