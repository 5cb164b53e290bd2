// Package mqtt provides the MQTT client used by the readings ingest
// bridge.
//
// Devices that cannot speak HTTP can publish readings as JSON to
// vitalmesh/readings/{device_id}; the API server subscribes to the
// wildcard pattern and routes each payload through the same readings
// path as the REST endpoint (threshold evaluation, alert generation,
// dashboard push, telemetry).
//
// The client handles connection lifecycle, automatic reconnection with
// subscription restoration, Last Will and Testament for offline
// detection, and panic recovery around message handlers.
//
// The integration is optional. When disabled in configuration, Connect
// returns ErrDisabled and the REST surface remains the only ingest path.
package mqtt
