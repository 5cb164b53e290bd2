// Package influxdb provides readings telemetry for VitalMesh Core.
//
// Every numeric reading accepted through the REST surface or the MQTT
// ingest bridge can be recorded as a time-series point, giving
// dashboards history beyond the live WebSocket stream. Telemetry is
// strictly fire-and-forget: writes are batched and flushed
// asynchronously, and a telemetry failure never affects message
// delivery or alert generation.
//
// The integration is optional. When disabled in configuration, Connect
// returns ErrDisabled and the rest of the system runs without it.
package influxdb
