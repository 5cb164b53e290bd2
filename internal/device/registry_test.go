package device

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestRegisterAndGet(t *testing.T) {
	r := NewRegistry()

	err := r.Register(Info{
		DeviceID:     "monitor-1",
		DeviceType:   "patient_monitor",
		Status:       StatusInitializing,
		Capabilities: []string{"vitals_monitoring"},
		Metadata:     map[string]string{"patient_id": "P-001"},
	})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	got, err := r.Get("monitor-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.DeviceType != "patient_monitor" {
		t.Errorf("device type %q, want patient_monitor", got.DeviceType)
	}
	if got.Metadata["patient_id"] != "P-001" {
		t.Errorf("metadata not stored: %v", got.Metadata)
	}
	if got.LastHeartbeat.IsZero() {
		t.Error("heartbeat not initialised on register")
	}
}

func TestRegisterDuplicate(t *testing.T) {
	r := NewRegistry()

	first := Info{DeviceID: "monitor-1", DeviceType: "patient_monitor", Status: StatusActive}
	if err := r.Register(first); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	dup := Info{DeviceID: "monitor-1", DeviceType: "imposter", Status: StatusOffline}
	if err := r.Register(dup); !errors.Is(err, ErrAlreadyRegistered) {
		t.Fatalf("expected ErrAlreadyRegistered, got %v", err)
	}

	// The original entry must be untouched.
	got, err := r.Get("monitor-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.DeviceType != "patient_monitor" {
		t.Errorf("duplicate register mutated entry: type %q", got.DeviceType)
	}
	if r.Count() != 1 {
		t.Errorf("registry size %d, want 1", r.Count())
	}
}

func TestUnregisterThenDiscover(t *testing.T) {
	r := NewRegistry()

	if err := r.Register(Info{DeviceID: "monitor-1", DeviceType: "patient_monitor"}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if err := r.Unregister("monitor-1"); err != nil {
		t.Fatalf("Unregister failed: %v", err)
	}

	if got := r.Discover(""); len(got) != 0 {
		t.Errorf("unregistered device still discoverable: %v", got)
	}
	if r.Contains("monitor-1") {
		t.Error("Contains true after unregister")
	}
	if err := r.Unregister("monitor-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second unregister: expected ErrNotFound, got %v", err)
	}
}

func TestDiscoverFilter(t *testing.T) {
	r := NewRegistry()

	for i, typ := range []string{"patient_monitor", "patient_monitor", "infusion_pump"} {
		info := Info{DeviceID: fmt.Sprintf("dev-%d", i), DeviceType: typ}
		if err := r.Register(info); err != nil {
			t.Fatalf("Register failed: %v", err)
		}
	}

	if got := r.Discover("patient_monitor"); len(got) != 2 {
		t.Errorf("filtered discover returned %d, want 2", len(got))
	}
	if got := r.Discover(""); len(got) != 3 {
		t.Errorf("unfiltered discover returned %d, want 3", len(got))
	}
	if got := r.Discover("ventilator"); len(got) != 0 {
		t.Errorf("discover of unknown type returned %d, want 0", len(got))
	}
}

func TestUpdateStatusRefreshesHeartbeat(t *testing.T) {
	r := NewRegistry()

	if err := r.Register(Info{DeviceID: "monitor-1", DeviceType: "patient_monitor", Status: StatusInitializing}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	before, _ := r.Get("monitor-1")

	time.Sleep(5 * time.Millisecond)
	if err := r.UpdateStatus("monitor-1", StatusMonitoring); err != nil {
		t.Fatalf("UpdateStatus failed: %v", err)
	}

	after, _ := r.Get("monitor-1")
	if after.Status != StatusMonitoring {
		t.Errorf("status %q, want %q", after.Status, StatusMonitoring)
	}
	if !after.LastHeartbeat.After(before.LastHeartbeat) {
		t.Error("heartbeat not refreshed on status update")
	}

	if err := r.UpdateStatus("ghost", StatusActive); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown device, got %v", err)
	}
}

func TestDiscoverReturnsCopies(t *testing.T) {
	r := NewRegistry()

	if err := r.Register(Info{
		DeviceID:   "monitor-1",
		DeviceType: "patient_monitor",
		Metadata:   map[string]string{"patient_id": "P-001"},
	}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	got := r.Discover("")
	got[0].Metadata["patient_id"] = "tampered"

	again, _ := r.Get("monitor-1")
	if again.Metadata["patient_id"] != "P-001" {
		t.Error("caller mutation leaked into registry state")
	}
}

func TestConcurrentRegisterUnique(t *testing.T) {
	r := NewRegistry()

	const workers = 16
	var wg sync.WaitGroup
	errs := make([]error, workers)

	// All workers race to register the same id; exactly one wins.
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			errs[n] = r.Register(Info{DeviceID: "contested", DeviceType: "patient_monitor"})
		}(i)
	}
	wg.Wait()

	var ok int
	for _, err := range errs {
		if err == nil {
			ok++
		} else if !errors.Is(err, ErrAlreadyRegistered) {
			t.Errorf("unexpected error: %v", err)
		}
	}
	if ok != 1 {
		t.Errorf("%d registrations succeeded, want exactly 1", ok)
	}
	if r.Count() != 1 {
		t.Errorf("registry size %d, want 1", r.Count())
	}
}

func TestConcurrentMixedOperations(t *testing.T) {
	r := NewRegistry()

	const devices = 32
	var wg sync.WaitGroup

	for i := 0; i < devices; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			id := fmt.Sprintf("dev-%d", n)
			if err := r.Register(Info{DeviceID: id, DeviceType: "patient_monitor"}); err != nil {
				t.Errorf("Register %s: %v", id, err)
				return
			}
			if err := r.UpdateStatus(id, StatusActive); err != nil {
				t.Errorf("UpdateStatus %s: %v", id, err)
			}
		}(i)
		go func() {
			defer wg.Done()
			r.Discover("patient_monitor")
			r.Count()
		}()
	}
	wg.Wait()

	if r.Count() != devices {
		t.Errorf("registry size %d, want %d", r.Count(), devices)
	}
}
