package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vitalmesh/vitalmesh-core/internal/hub"
	"github.com/vitalmesh/vitalmesh-core/internal/vitals"
)

// handleGetVitals returns the current readings and thresholds of a
// managed patient monitor.
func (s *Server) handleGetVitals(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	monitor, err := s.monitors.Get(id)
	if err != nil {
		writeNotFound(w, "patient monitor not found")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"device_id":  id,
		"readings":   monitor.Readings(),
		"thresholds": monitor.Thresholds(),
	})
}

// handleUpdateVitals applies a reading update to a patient monitor.
// The body is a JSON object of reading name to numeric value, e.g.
// {"heart_rate": 45, "temperature": 36.8}.
func (s *Server) handleUpdateVitals(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var readings map[string]float64
	if err := json.NewDecoder(r.Body).Decode(&readings); err != nil {
		writeBadRequest(w, "body must be an object of reading name to number")
		return
	}
	if len(readings) == 0 {
		writeBadRequest(w, "at least one reading is required")
		return
	}

	events, err := s.applyReadings(id, readings)
	if err != nil {
		if errors.Is(err, vitals.ErrMonitorNotFound) {
			writeNotFound(w, "patient monitor not found")
			return
		}
		s.logger.Error("failed to apply readings", "device_id", id, "error", err)
		writeInternalError(w, "failed to apply readings")
		return
	}

	monitor, err := s.monitors.Get(id)
	if err != nil {
		writeInternalError(w, "failed to read monitor state")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"device_id": id,
		"status":    "updated",
		"readings":  monitor.Readings(),
		"alerts":    alertMessages(events),
	})
}

// handleSetThreshold replaces the normal range for one reading name.
// The body is {"min": 40, "max": 50}.
func (s *Server) handleSetThreshold(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	name := chi.URLParam(r, "name")

	monitor, err := s.monitors.Get(id)
	if err != nil {
		writeNotFound(w, "patient monitor not found")
		return
	}

	var th vitals.Threshold
	if err := json.NewDecoder(r.Body).Decode(&th); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if th.Min > th.Max {
		writeBadRequest(w, "min must not exceed max")
		return
	}

	events, err := monitor.SetThreshold(name, th)
	if err != nil {
		if errors.Is(err, vitals.ErrUnknownReading) {
			writeNotFound(w, "unknown reading name")
			return
		}
		s.logger.Error("failed to set threshold", "device_id", id, "reading", name, "error", err)
		writeInternalError(w, "failed to set threshold")
		return
	}
	s.pushAlerts(id, events)

	writeJSON(w, http.StatusOK, map[string]any{
		"device_id": id,
		"reading":   name,
		"threshold": th,
		"alerts":    alertMessages(events),
	})
}

// applyReadings is the shared update path for HTTP and MQTT ingest:
// it feeds the monitor, then notifies dashboards of any alerts and the
// new device state.
func (s *Server) applyReadings(deviceID string, readings map[string]float64) ([]vitals.AlertEvent, error) {
	monitor, err := s.monitors.Get(deviceID)
	if err != nil {
		return nil, err
	}

	events, err := monitor.UpdateReadings(readings)
	if err != nil {
		return events, err
	}

	s.pushAlerts(deviceID, events)

	info, err := monitor.Info()
	if err == nil {
		s.hub.PushDeviceUpdate(s.snapshotFor(info))
	}

	return events, nil
}

// pushAlerts forwards alert events to the dashboard channels.
func (s *Server) pushAlerts(deviceID string, events []vitals.AlertEvent) {
	for _, ev := range events {
		s.hub.PushAlert(hub.Alert{
			AlertType: ev.Kind,
			Message:   ev.Message(),
			DeviceID:  deviceID,
			Priority:  vitals.AlertPriority,
		})
	}
}

// alertMessages renders events as response strings, never null.
func alertMessages(events []vitals.AlertEvent) []string {
	out := make([]string, 0, len(events))
	for _, ev := range events {
		out = append(out, ev.Message())
	}
	return out
}
