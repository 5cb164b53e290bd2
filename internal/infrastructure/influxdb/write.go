package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteReadingMetric records a single device reading.
//
// This is the primary method for recording readings telemetry. The write
// is non-blocking; data is batched and sent asynchronously.
//
// Example:
//
//	client.WriteReadingMetric("patient_monitor-42", "heart_rate", 72)
//	client.WriteReadingMetric("patient_monitor-42", "temperature", 36.8)
func (c *Client) WriteReadingMetric(deviceID string, reading string, value float64) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"device_reading",
		map[string]string{
			"device_id": deviceID,
			"reading":   reading,
		},
		map[string]interface{}{
			"value": value,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteAlertMetric records an alert occurrence for a device.
//
// Useful for alert-rate dashboards and for correlating alert bursts with
// the underlying readings.
func (c *Client) WriteAlertMetric(deviceID string, alertType string, reading string, value float64) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"device_alert",
		map[string]string{
			"device_id":  deviceID,
			"alert_type": alertType,
			"reading":    reading,
		},
		map[string]interface{}{
			"value": value,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WritePoint writes a custom point with full control over tags and fields.
//
// Use this for custom measurements that don't fit the helper methods.
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	c.writeAPI.WritePoint(write.NewPoint(measurement, tags, fields, time.Now()))
}

// Flush forces any batched writes to be sent immediately.
//
// Normally unnecessary (the write API flushes on its own schedule), but
// useful before shutdown or in tests.
func (c *Client) Flush() {
	if c.writeAPI != nil {
		c.writeAPI.Flush()
	}
}
