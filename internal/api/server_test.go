package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/vitalmesh/vitalmesh-core/internal/bus"
	"github.com/vitalmesh/vitalmesh-core/internal/device"
	"github.com/vitalmesh/vitalmesh-core/internal/hub"
	"github.com/vitalmesh/vitalmesh-core/internal/infrastructure/config"
	"github.com/vitalmesh/vitalmesh-core/internal/infrastructure/logging"
	"github.com/vitalmesh/vitalmesh-core/internal/vitals"
)

// testServer creates a Server wired to a fresh registry, bus, and hub.
func testServer(t *testing.T) *Server {
	t.Helper()

	registry := device.NewRegistry()
	b := bus.New(registry)
	h := hub.New()
	b.SetNotifier(h)
	monitors := vitals.NewManager(registry, b, nil)

	log := logging.New(config.LoggingConfig{Level: "error", Format: "text", Output: "stdout"}, "test")

	srv, err := New(Deps{
		Config: config.APIConfig{
			Host: "127.0.0.1",
			Port: 0,
			Timeouts: config.APITimeoutConfig{
				Read:  5,
				Write: 5,
				Idle:  5,
			},
		},
		WS: config.WebSocketConfig{
			MaxMessageSize: 8192,
			PingInterval:   30,
			PongTimeout:    10,
			SendBufferSize: 64,
		},
		Logger:   log,
		Registry: registry,
		Bus:      b,
		Hub:      h,
		Monitors: monitors,
		Version:  "test",
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return srv
}

// createMonitor provisions a patient monitor through the API and
// returns its device id.
func createMonitor(t *testing.T, router http.Handler, patientID string) string {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/devices/patient-monitor/"+patientID, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("create monitor status = %d, body: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Device device.Info `json:"device"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	return resp.Device.DeviceID
}

// ─── Health Endpoint Tests ─────────────────────────────────────────

func TestHealth(t *testing.T) {
	srv := testServer(t)
	router := srv.buildRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("health status = %d, want %d", w.Code, http.StatusOK)
	}

	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if resp["status"] != "ok" {
		t.Errorf("status = %v, want ok", resp["status"])
	}
	if resp["version"] != "test" {
		t.Errorf("version = %v, want test", resp["version"])
	}
}

// ─── Middleware Tests ──────────────────────────────────────────────

func TestRequestID_Generated(t *testing.T) {
	srv := testServer(t)
	router := srv.buildRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Header().Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID header to be set")
	}
}

func TestCORS_Preflight(t *testing.T) {
	srv := testServer(t)
	router := srv.buildRouter()

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/health", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("preflight status = %d, want %d", w.Code, http.StatusNoContent)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("ACAO = %q, want %q", got, "http://localhost:3000")
	}
}

func TestStatusWriter_HijackDelegation(t *testing.T) {
	// WebSocket upgrades go through the logging middleware, so the
	// wrapped writer must expose Hijack.
	var sw http.Hijacker = &statusWriter{ResponseWriter: httptest.NewRecorder(), status: http.StatusOK}

	// A recorder cannot be hijacked; the delegation must surface that
	// as an error rather than panic.
	if _, _, err := sw.Hijack(); err == nil {
		t.Error("Hijack on a non-hijackable writer should return an error")
	}
}

// ─── Device Endpoint Tests ─────────────────────────────────────────

func TestCreateMonitor(t *testing.T) {
	srv := testServer(t)
	router := srv.buildRouter()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/devices/patient-monitor/P-001", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d; body: %s", w.Code, http.StatusCreated, w.Body.String())
	}

	var resp struct {
		DeviceID   string                      `json:"device_id"`
		Status     string                      `json:"status"`
		Device     device.Info                 `json:"device"`
		Thresholds map[string]vitals.Threshold `json:"thresholds"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if resp.Status != "created" {
		t.Errorf("status = %q, want created", resp.Status)
	}
	if resp.DeviceID == "" || resp.DeviceID != resp.Device.DeviceID {
		t.Errorf("device_id = %q, device.device_id = %q", resp.DeviceID, resp.Device.DeviceID)
	}
	if resp.Device.DeviceType != vitals.DeviceType {
		t.Errorf("device type = %q, want %q", resp.Device.DeviceType, vitals.DeviceType)
	}
	if resp.Device.Metadata["patient_id"] != "P-001" {
		t.Errorf("patient_id = %q, want P-001", resp.Device.Metadata["patient_id"])
	}
	if th, ok := resp.Thresholds["heart_rate"]; !ok || th.Min != 60 || th.Max != 100 {
		t.Errorf("heart_rate threshold = %+v", th)
	}
}

func TestListDevices_TypeFilter(t *testing.T) {
	srv := testServer(t)
	router := srv.buildRouter()

	createMonitor(t, router, "P-001")
	createMonitor(t, router, "P-002")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/devices?type=patient_monitor", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if int(resp["count"].(float64)) != 2 {
		t.Errorf("count = %v, want 2", resp["count"])
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/devices?type=ventilator", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if int(resp["count"].(float64)) != 0 {
		t.Errorf("filtered count = %v, want 0", resp["count"])
	}
}

func TestGetDevice_NotFound(t *testing.T) {
	srv := testServer(t)
	router := srv.buildRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/devices/ghost", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestDeleteDevice(t *testing.T) {
	srv := testServer(t)
	router := srv.buildRouter()
	id := createMonitor(t, router, "P-001")

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/devices/"+id, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d, want %d", w.Code, http.StatusNoContent)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/devices/"+id, nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("get after delete status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

// ─── Vitals Endpoint Tests ─────────────────────────────────────────

func TestUpdateVitals_RaisesAlert(t *testing.T) {
	srv := testServer(t)
	router := srv.buildRouter()
	id := createMonitor(t, router, "P-001")

	body := strings.NewReader(`{"heart_rate": 45}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/devices/"+id+"/vitals", body)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Status   string             `json:"status"`
		Readings map[string]float64 `json:"readings"`
		Alerts   []string           `json:"alerts"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if resp.Status != "updated" {
		t.Errorf("status = %q, want updated", resp.Status)
	}
	if len(resp.Alerts) != 1 {
		t.Fatalf("alerts = %v, want one", resp.Alerts)
	}
	if resp.Alerts[0] != "Low heart_rate: 45 (Normal range: 60-100)" {
		t.Errorf("alert text = %q", resp.Alerts[0])
	}
	if resp.Readings["heart_rate"] != 45 {
		t.Errorf("readings = %v", resp.Readings)
	}
}

func TestUpdateVitals_InRange(t *testing.T) {
	srv := testServer(t)
	router := srv.buildRouter()
	id := createMonitor(t, router, "P-001")

	body := strings.NewReader(`{"heart_rate": 80}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/devices/"+id+"/vitals", body)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var resp struct {
		Alerts []string `json:"alerts"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(resp.Alerts) != 0 {
		t.Errorf("in-range update produced alerts: %v", resp.Alerts)
	}
}

func TestUpdateVitals_UnknownDevice(t *testing.T) {
	srv := testServer(t)
	router := srv.buildRouter()

	body := strings.NewReader(`{"heart_rate": 45}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/devices/ghost/vitals", body)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestUpdateVitals_InvalidBody(t *testing.T) {
	srv := testServer(t)
	router := srv.buildRouter()
	id := createMonitor(t, router, "P-001")

	body := strings.NewReader(`{"heart_rate": "fast"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/devices/"+id+"/vitals", body)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestSetThreshold_SuppressesAlert(t *testing.T) {
	srv := testServer(t)
	router := srv.buildRouter()
	id := createMonitor(t, router, "P-001")

	body := strings.NewReader(`{"min": 40, "max": 50}`)
	req := httptest.NewRequest(http.MethodPut, "/api/v1/devices/"+id+"/thresholds/heart_rate", body)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("set threshold status = %d, body: %s", w.Code, w.Body.String())
	}

	body = strings.NewReader(`{"heart_rate": 45}`)
	req = httptest.NewRequest(http.MethodPost, "/api/v1/devices/"+id+"/vitals", body)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var resp struct {
		Alerts []string `json:"alerts"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(resp.Alerts) != 0 {
		t.Errorf("custom range still produced alerts: %v", resp.Alerts)
	}
}

func TestSetThreshold_UnknownReading(t *testing.T) {
	srv := testServer(t)
	router := srv.buildRouter()
	id := createMonitor(t, router, "P-001")

	body := strings.NewReader(`{"min": 10, "max": 20}`)
	req := httptest.NewRequest(http.MethodPut, "/api/v1/devices/"+id+"/thresholds/respiration_rate", body)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestSetThreshold_InvalidRange(t *testing.T) {
	srv := testServer(t)
	router := srv.buildRouter()
	id := createMonitor(t, router, "P-001")

	body := strings.NewReader(`{"min": 100, "max": 50}`)
	req := httptest.NewRequest(http.MethodPut, "/api/v1/devices/"+id+"/thresholds/heart_rate", body)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

// ─── Message Endpoint Tests ────────────────────────────────────────

func TestGetMessages(t *testing.T) {
	srv := testServer(t)
	router := srv.buildRouter()
	id1 := createMonitor(t, router, "P-001")
	id2 := createMonitor(t, router, "P-002")

	// An out-of-range update on monitor 1 broadcasts an alert and a
	// vitals_update, both visible to monitor 2.
	body := strings.NewReader(`{"heart_rate": 45}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/devices/"+id1+"/vitals", body)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/devices/"+id2+"/messages", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Messages []bus.Message `json:"messages"`
		Count    int           `json:"count"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if resp.Count != 2 {
		t.Fatalf("count = %d, want 2", resp.Count)
	}
	if resp.Messages[0].MessageType != bus.MessageTypeAlert {
		t.Errorf("first message type = %q, want alert", resp.Messages[0].MessageType)
	}
	if resp.Messages[0].SenderID != id1 {
		t.Errorf("sender = %q, want %q", resp.Messages[0].SenderID, id1)
	}
	if resp.Messages[0].MessageID == "" {
		t.Error("message id not assigned")
	}
}

func TestGetMessages_UnknownDevice(t *testing.T) {
	srv := testServer(t)
	router := srv.buildRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/devices/ghost/messages", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}
