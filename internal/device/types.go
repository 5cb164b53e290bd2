package device

import "time"

// Info describes one registered device. The registry stores and hands
// out copies; mutating a returned Info never affects registry state.
type Info struct {
	DeviceID      string            `json:"device_id"`
	DeviceType    string            `json:"device_type"`
	Status        string            `json:"status"`
	LastHeartbeat time.Time         `json:"last_heartbeat"`
	Capabilities  []string          `json:"capabilities"`
	Metadata      map[string]string `json:"metadata"`
}

// Common status labels. Status is a free-form string; these are the
// values the system itself assigns.
const (
	StatusInitializing = "initializing"
	StatusActive       = "active"
	StatusMonitoring   = "monitoring"
	StatusOffline      = "offline"
)

// DeepCopy returns a copy of the Info with its own capability slice
// and metadata map.
func (i *Info) DeepCopy() *Info {
	out := *i
	if i.Capabilities != nil {
		out.Capabilities = make([]string, len(i.Capabilities))
		copy(out.Capabilities, i.Capabilities)
	}
	if i.Metadata != nil {
		out.Metadata = make(map[string]string, len(i.Metadata))
		for k, v := range i.Metadata {
			out.Metadata[k] = v
		}
	}
	return &out
}

// HasCapability reports whether the device advertises the given
// capability tag.
func (i *Info) HasCapability(cap string) bool {
	for _, c := range i.Capabilities {
		if c == cap {
			return true
		}
	}
	return false
}
