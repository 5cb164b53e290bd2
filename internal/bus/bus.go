package bus

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Registry is the narrow view of the device registry the bus needs to
// validate senders and receivers.
type Registry interface {
	Contains(deviceID string) bool
}

// Notifier receives every message the bus accepts, immediately after it
// is appended to the log. The broadcast hub implements this to push
// messages to live device connections. The notifier is invoked outside
// the bus lock and must not call back into the bus log.
type Notifier interface {
	MessageAccepted(msg Message)
}

// Archiver persists an audit copy of accepted messages. Archive failure
// is logged and never fails the send.
type Archiver interface {
	Archive(ctx context.Context, msg Message) error
}

// Logger defines the logging interface used by the Bus.
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

// archiveTimeout bounds the best-effort archive write per message.
const archiveTimeout = 2 * time.Second

// Bus is the message store and delivery trigger for the device network.
//
// Messages are validated against the registry at send time, assigned a
// fresh id and timestamp, and appended to an in-process log that lives
// for the lifetime of the process. Retrieval is a non-destructive query:
// reading never removes messages, so a reader polling ReceiveFor sees
// previously read messages again alongside new arrivals.
//
// All public methods are thread-safe. A single mutex guards the log and
// the attach index; delivery to observers happens outside the lock.
type Bus struct {
	registry Registry

	mu       sync.RWMutex
	log      []Message
	attached map[string]int // device id -> log length at attach time

	notifier Notifier
	archiver Archiver
	logger   Logger
}

// New creates a message bus validating against the given registry.
func New(registry Registry) *Bus {
	return &Bus{
		registry: registry,
		attached: make(map[string]int),
		logger:   noopLogger{},
	}
}

// SetNotifier sets the push-delivery notifier (typically the hub).
func (b *Bus) SetNotifier(n Notifier) {
	b.mu.Lock()
	b.notifier = n
	b.mu.Unlock()
}

// SetArchiver sets the audit archiver.
func (b *Bus) SetArchiver(a Archiver) {
	b.mu.Lock()
	b.archiver = a
	b.mu.Unlock()
}

// SetLogger sets the logger for the bus.
func (b *Bus) SetLogger(logger Logger) {
	b.logger = logger
}

// Send validates and accepts a message.
//
// The sender must be a currently registered device; the receiver, when
// set, must be too. On acceptance the bus assigns a fresh message id and
// the current UTC timestamp (overwriting caller-supplied values),
// appends the message to the log, archives a copy, and notifies the
// delivery notifier. A rejected send mutates nothing.
//
// Returns the assigned message id.
func (b *Bus) Send(msg Message) (string, error) {
	if !b.registry.Contains(msg.SenderID) {
		return "", ErrUnknownSender
	}
	if msg.ReceiverID != nil && !b.registry.Contains(*msg.ReceiverID) {
		return "", ErrUnknownReceiver
	}

	msg.MessageID = uuid.NewString()
	msg.Timestamp = time.Now().UTC()

	// Store our own copy so later caller mutation of the payload cannot
	// alter the log.
	stored := copyMessage(msg)

	b.mu.Lock()
	b.log = append(b.log, stored)
	notifier := b.notifier
	archiver := b.archiver
	b.mu.Unlock()

	if archiver != nil {
		ctx, cancel := context.WithTimeout(context.Background(), archiveTimeout)
		if err := archiver.Archive(ctx, stored); err != nil {
			b.logger.Warn("message archive failed", "message_id", stored.MessageID, "error", err)
		}
		cancel()
	}

	// Deliver outside the lock: the notifier may fan out to many
	// observers and must not stall concurrent sends or reads.
	if notifier != nil {
		notifier.MessageAccepted(copyMessage(stored))
	}

	b.logger.Debug("message accepted",
		"message_id", stored.MessageID,
		"sender_id", stored.SenderID,
		"type", stored.MessageType,
		"broadcast", stored.IsBroadcast(),
	)

	return stored.MessageID, nil
}

// ReceiveFor returns the messages visible to a device: every message
// addressed to it, plus every broadcast appended since the device
// attached. The result is a snapshot of copies; reading is
// non-destructive and repeated calls return previously seen messages
// again.
func (b *Bus) ReceiveFor(deviceID string) []Message {
	b.mu.RLock()
	defer b.mu.RUnlock()

	// A device that never attached (or has detached) sees no
	// broadcasts; directed messages remain visible regardless.
	cutoff, ok := b.attached[deviceID]
	if !ok {
		cutoff = len(b.log)
	}

	var out []Message
	for i, m := range b.log {
		switch {
		case m.ReceiverID != nil && *m.ReceiverID == deviceID:
			out = append(out, copyMessage(m))
		case m.ReceiverID == nil && i >= cutoff:
			out = append(out, copyMessage(m))
		}
	}
	return out
}

// Attach records a device's join point in the log. Broadcasts appended
// before the attach point are not visible to the device; a device that
// joins the network does not retroactively receive earlier broadcasts.
func (b *Bus) Attach(deviceID string) {
	b.mu.Lock()
	b.attached[deviceID] = len(b.log)
	b.mu.Unlock()
}

// Detach forgets a device's join point. A detached device no longer
// sees broadcasts; messages directed at its id stay retrievable.
func (b *Bus) Detach(deviceID string) {
	b.mu.Lock()
	delete(b.attached, deviceID)
	b.mu.Unlock()
}

// Len returns the number of messages in the log.
func (b *Bus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.log)
}
