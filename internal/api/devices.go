package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vitalmesh/vitalmesh-core/internal/device"
	"github.com/vitalmesh/vitalmesh-core/internal/hub"
	"github.com/vitalmesh/vitalmesh-core/internal/vitals"
)

// handleCreateMonitor provisions a new patient monitor bound to the
// given patient id and announces it to dashboards.
func (s *Server) handleCreateMonitor(w http.ResponseWriter, r *http.Request) {
	patientID := chi.URLParam(r, "patient_id")
	if patientID == "" {
		writeBadRequest(w, "patient_id is required")
		return
	}

	monitor, err := s.monitors.Create(patientID)
	if err != nil {
		s.logger.Error("failed to create patient monitor", "patient_id", patientID, "error", err)
		writeInternalError(w, "failed to create patient monitor")
		return
	}

	info, err := monitor.Info()
	if err != nil {
		writeInternalError(w, "failed to read device info")
		return
	}

	s.hub.PushDeviceUpdate(s.snapshotFor(info))

	writeJSON(w, http.StatusCreated, map[string]any{
		"device_id":  info.DeviceID,
		"status":     "created",
		"device":     info,
		"thresholds": monitor.Thresholds(),
	})
}

// handleListDevices returns registered devices, optionally filtered by type.
//
// Query parameters:
//   - type: filter by device type (e.g. patient_monitor)
func (s *Server) handleListDevices(w http.ResponseWriter, r *http.Request) {
	devices := s.registry.Discover(r.URL.Query().Get("type"))
	writeJSON(w, http.StatusOK, map[string]any{"devices": devices, "count": len(devices)})
}

// handleGetDevice returns a single device by ID, including current
// vitals when the device is a managed patient monitor.
func (s *Server) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	info, err := s.registry.Get(id)
	if err != nil {
		if errors.Is(err, device.ErrNotFound) {
			writeNotFound(w, "device not found")
			return
		}
		writeInternalError(w, "failed to get device")
		return
	}

	resp := map[string]any{"device": info}
	if monitor, err := s.monitors.Get(id); err == nil {
		resp["vitals"] = monitor.Readings()
		resp["thresholds"] = monitor.Thresholds()
	}

	writeJSON(w, http.StatusOK, resp)
}

// handleDeleteDevice removes a device from the network. Managed
// monitors are torn down through the manager; any other registered
// device is detached from the bus and unregistered directly.
func (s *Server) handleDeleteDevice(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	info, err := s.registry.Get(id)
	if err != nil {
		if errors.Is(err, device.ErrNotFound) {
			writeNotFound(w, "device not found")
			return
		}
		writeInternalError(w, "failed to get device")
		return
	}

	if err := s.monitors.Remove(id); err != nil {
		if !errors.Is(err, vitals.ErrMonitorNotFound) {
			s.logger.Error("failed to remove monitor", "device_id", id, "error", err)
			writeInternalError(w, "failed to remove device")
			return
		}
		// Not a managed monitor; remove the bare registration.
		s.bus.Detach(id)
		if err := s.registry.Unregister(id); err != nil && !errors.Is(err, device.ErrNotFound) {
			writeInternalError(w, "failed to remove device")
			return
		}
	}

	info.Status = device.StatusOffline
	s.hub.PushDeviceUpdate(s.snapshotFor(info))

	w.WriteHeader(http.StatusNoContent)
}

// snapshotFor builds the dashboard view of a device, attaching current
// vitals for managed monitors.
func (s *Server) snapshotFor(info device.Info) hub.DeviceSnapshot {
	snap := hub.DeviceSnapshot{
		DeviceID:   info.DeviceID,
		DeviceType: info.DeviceType,
		Status:     info.Status,
		Metadata:   info.Metadata,
	}
	if monitor, err := s.monitors.Get(info.DeviceID); err == nil {
		snap.Vitals = monitor.Readings()
	}
	return snap
}
