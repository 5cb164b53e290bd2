package device

import (
	"errors"
	"strings"
	"testing"

	"github.com/vitalmesh/vitalmesh-core/internal/bus"
)

func newActorFixture(t *testing.T) (*Registry, *bus.Bus) {
	t.Helper()
	r := NewRegistry()
	return r, bus.New(r)
}

func TestNewActorRegisters(t *testing.T) {
	r, b := newActorFixture(t)

	a, err := NewActor(r, b, "patient_monitor", []string{"vitals_monitoring"}, map[string]string{"patient_id": "P-001"})
	if err != nil {
		t.Fatalf("NewActor failed: %v", err)
	}

	if !strings.HasPrefix(a.ID(), "patient_monitor-") {
		t.Errorf("unexpected id format %q", a.ID())
	}
	info, err := a.Info()
	if err != nil {
		t.Fatalf("Info failed: %v", err)
	}
	if info.Status != StatusInitializing {
		t.Errorf("initial status %q, want %q", info.Status, StatusInitializing)
	}
	if !info.HasCapability("vitals_monitoring") {
		t.Error("capability not registered")
	}
}

func TestActorSendAndReceive(t *testing.T) {
	r, b := newActorFixture(t)

	a1, err := NewActor(r, b, "patient_monitor", nil, nil)
	if err != nil {
		t.Fatalf("NewActor failed: %v", err)
	}
	a2, err := NewActor(r, b, "patient_monitor", nil, nil)
	if err != nil {
		t.Fatalf("NewActor failed: %v", err)
	}

	id2 := a2.ID()
	if _, err := a1.SendData(&id2, map[string]any{"heart_rate": 72.0}); err != nil {
		t.Fatalf("SendData failed: %v", err)
	}
	if _, err := a1.SendAlert(map[string]any{"message": "Low heart_rate"}, 1); err != nil {
		t.Fatalf("SendAlert failed: %v", err)
	}

	// a2 sees the directed data message and the broadcast alert.
	got := a2.Receive()
	if len(got) != 2 {
		t.Fatalf("a2 received %d messages, want 2", len(got))
	}

	// a1 sees only its own broadcast, not the directed message.
	got = a1.Receive()
	if len(got) != 1 {
		t.Fatalf("a1 received %d messages, want 1", len(got))
	}
	if got[0].MessageType != bus.MessageTypeAlert {
		t.Errorf("a1 received %q, want alert", got[0].MessageType)
	}
}

func TestActorBroadcastNotRetroactive(t *testing.T) {
	r, b := newActorFixture(t)

	a1, err := NewActor(r, b, "patient_monitor", nil, nil)
	if err != nil {
		t.Fatalf("NewActor failed: %v", err)
	}
	if _, err := a1.SendAlert(map[string]any{"message": "early"}, 1); err != nil {
		t.Fatalf("SendAlert failed: %v", err)
	}

	late, err := NewActor(r, b, "patient_monitor", nil, nil)
	if err != nil {
		t.Fatalf("NewActor failed: %v", err)
	}
	if got := late.Receive(); len(got) != 0 {
		t.Errorf("late device sees %d pre-registration broadcasts, want 0", len(got))
	}
}

func TestActorCleanup(t *testing.T) {
	r, b := newActorFixture(t)

	a, err := NewActor(r, b, "patient_monitor", nil, nil)
	if err != nil {
		t.Fatalf("NewActor failed: %v", err)
	}
	id := a.ID()

	if err := a.Cleanup(); err != nil {
		t.Fatalf("Cleanup failed: %v", err)
	}
	if r.Contains(id) {
		t.Error("device still registered after cleanup")
	}
	if err := a.Cleanup(); !errors.Is(err, ErrNotFound) {
		t.Errorf("second cleanup: expected ErrNotFound, got %v", err)
	}

	// A cleaned-up device can no longer send.
	if _, err := a.SendData(nil, nil); !errors.Is(err, bus.ErrUnknownSender) {
		t.Errorf("expected ErrUnknownSender after cleanup, got %v", err)
	}
}
