package api

import (
	"encoding/json"
	"errors"

	"github.com/vitalmesh/vitalmesh-core/internal/infrastructure/mqtt"
	"github.com/vitalmesh/vitalmesh-core/internal/vitals"
)

// subscribeReadings wires the MQTT ingest bridge: readings published to
// vitalmesh/readings/{device_id} flow through the same update path as
// the HTTP vitals endpoint, so alerts and dashboard pushes behave
// identically regardless of transport.
func (s *Server) subscribeReadings() error {
	if s.mqtt == nil {
		return nil // ingest bridge not configured
	}

	var topics mqtt.Topics
	topic := topics.AllDeviceReadings()
	s.logger.Info("subscribing to readings ingest", "topic", topic)

	return s.mqtt.Subscribe(topic, 1, func(t string, payload []byte) error {
		deviceID := topics.DeviceIDFromReadingsTopic(t)
		if deviceID == "" {
			s.logger.Warn("readings message on unexpected topic", "topic", t)
			return nil
		}

		var readings map[string]float64
		if err := json.Unmarshal(payload, &readings); err != nil {
			s.logger.Warn("invalid readings payload", "device_id", deviceID, "error", err)
			return nil
		}
		if len(readings) == 0 {
			return nil
		}

		if _, err := s.applyReadings(deviceID, readings); err != nil {
			if errors.Is(err, vitals.ErrMonitorNotFound) {
				s.logger.Debug("readings for unmanaged device", "device_id", deviceID)
				return nil
			}
			s.logger.Warn("failed to apply ingested readings", "device_id", deviceID, "error", err)
		}
		return nil
	})
}
