package mqtt

import (
	"fmt"
	"strings"
)

// Topic prefixes for the VitalMesh MQTT namespace.
//
// Readings topics use the flat scheme: vitalmesh/readings/{device_id}
const (
	// TopicPrefix is the base for all VitalMesh topics.
	TopicPrefix = "vitalmesh"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = "vitalmesh/system"
)

// Topics provides builders for VitalMesh MQTT topics.
// Using these helpers ensures consistent topic naming across the codebase.
//
//	topics := mqtt.Topics{}
//	readings := topics.DeviceReadings("patient_monitor-42")
//	// Returns: "vitalmesh/readings/patient_monitor-42"
type Topics struct{}

// DeviceReadings returns the topic a device publishes its readings to.
//
// Example: vitalmesh/readings/patient_monitor-42
func (Topics) DeviceReadings(deviceID string) string {
	return fmt.Sprintf("%s/readings/%s", TopicPrefix, deviceID)
}

// AllDeviceReadings returns the wildcard pattern matching every device's
// readings topic.
//
// Example: vitalmesh/readings/+
func (Topics) AllDeviceReadings() string {
	return TopicPrefix + "/readings/+"
}

// SystemStatus returns the topic for core online/offline status.
//
// Example: vitalmesh/system/status
func (Topics) SystemStatus() string {
	return TopicPrefixSystem + "/status"
}

// DeviceIDFromReadingsTopic extracts the device id from a readings topic.
// Returns an empty string if the topic does not match the readings scheme.
func (Topics) DeviceIDFromReadingsTopic(topic string) string {
	prefix := TopicPrefix + "/readings/"
	if !strings.HasPrefix(topic, prefix) {
		return ""
	}
	id := strings.TrimPrefix(topic, prefix)
	if id == "" || strings.Contains(id, "/") {
		return ""
	}
	return id
}
