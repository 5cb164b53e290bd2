package bus

import "time"

// Message types carried on the bus. The set is extensible; these are the
// two types the core itself produces.
const (
	// MessageTypeAlert marks a threshold violation broadcast.
	MessageTypeAlert = "alert"

	// MessageTypeData marks a readings or application data message.
	MessageTypeData = "data"
)

// Message is a single bus message.
//
// MessageID and Timestamp are assigned by the bus at send time; values
// supplied by the caller are overwritten. ReceiverID is nil for
// broadcast messages. Once accepted by the bus a message is immutable.
//
// The JSON field names are the wire contract for the per-device
// streaming channel and must not change.
type Message struct {
	MessageID   string         `json:"message_id"`
	SenderID    string         `json:"sender_id"`
	ReceiverID  *string        `json:"receiver_id"`
	MessageType string         `json:"message_type"`
	Timestamp   time.Time      `json:"timestamp"`
	Payload     map[string]any `json:"payload"`
	Priority    int            `json:"priority"`
}

// IsBroadcast reports whether the message has no specific receiver.
func (m Message) IsBroadcast() bool {
	return m.ReceiverID == nil
}

// copyMessage returns a copy of the message with its own payload map,
// so callers cannot mutate the stored log entry.
func copyMessage(m Message) Message {
	out := m
	if m.Payload != nil {
		out.Payload = make(map[string]any, len(m.Payload))
		for k, v := range m.Payload {
			out.Payload[k] = v
		}
	}
	if m.ReceiverID != nil {
		id := *m.ReceiverID
		out.ReceiverID = &id
	}
	return out
}
