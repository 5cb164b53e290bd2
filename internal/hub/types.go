package hub

// DeviceSnapshot is the dashboard-facing view of one device's current
// state. The api layer composes these from the registry and vitals
// readings.
type DeviceSnapshot struct {
	DeviceID   string             `json:"device_id"`
	DeviceType string             `json:"device_type"`
	Status     string             `json:"status"`
	Vitals     map[string]float64 `json:"vitals,omitempty"`
	Metadata   map[string]string  `json:"metadata,omitempty"`
}

// Alert is the dashboard-facing alert notification.
type Alert struct {
	AlertType string `json:"alert_type"`
	Message   string `json:"message"`
	DeviceID  string `json:"device_id"`
	Priority  int    `json:"priority"`
}

// deviceUpdateFrame is the wire envelope for device state pushes.
type deviceUpdateFrame struct {
	Type   string         `json:"type"`
	Device DeviceSnapshot `json:"device"`
}

// alertFrame is the wire envelope for alert pushes. Alert fields are
// flattened alongside the type discriminator.
type alertFrame struct {
	Type string `json:"type"`
	Alert
}
