package vitals

import (
	"reflect"
	"testing"
)

func TestEvaluateInRange(t *testing.T) {
	readings := map[string]float64{"heart_rate": 80}
	events := Evaluate([]string{"heart_rate"}, readings, DefaultThresholds())
	if len(events) != 0 {
		t.Errorf("in-range reading raised %d alerts: %v", len(events), events)
	}
}

func TestEvaluateLowVital(t *testing.T) {
	readings := map[string]float64{"heart_rate": 45}
	events := Evaluate([]string{"heart_rate"}, readings, DefaultThresholds())
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}

	want := AlertEvent{Kind: KindLowVital, Name: "heart_rate", Value: 45, Min: 60, Max: 100}
	if events[0] != want {
		t.Errorf("event %+v, want %+v", events[0], want)
	}
	if got := events[0].Message(); got != "Low heart_rate: 45 (Normal range: 60-100)" {
		t.Errorf("message %q", got)
	}
}

func TestEvaluateHighVital(t *testing.T) {
	readings := map[string]float64{"temperature": 38.5}
	events := Evaluate([]string{"temperature"}, readings, DefaultThresholds())
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	if events[0].Kind != KindHighVital {
		t.Errorf("kind %q, want %q", events[0].Kind, KindHighVital)
	}
	if got := events[0].Message(); got != "High temperature: 38.5 (Normal range: 36.1-37.2)" {
		t.Errorf("message %q", got)
	}
}

func TestEvaluateBoundariesInclusive(t *testing.T) {
	th := DefaultThresholds()
	for _, v := range []float64{60, 100} {
		events := Evaluate([]string{"heart_rate"}, map[string]float64{"heart_rate": v}, th)
		if len(events) != 0 {
			t.Errorf("boundary value %v raised alert: %v", v, events)
		}
	}
}

func TestEvaluateOrderDeterministic(t *testing.T) {
	order := []string{"heart_rate", "oxygen_saturation", "temperature"}
	readings := map[string]float64{
		"heart_rate":        45,
		"oxygen_saturation": 88,
		"temperature":       39,
	}
	th := DefaultThresholds()

	first := Evaluate(order, readings, th)
	if len(first) != 3 {
		t.Fatalf("got %d events, want 3", len(first))
	}
	names := []string{first[0].Name, first[1].Name, first[2].Name}
	if !reflect.DeepEqual(names, order) {
		t.Errorf("event order %v, want %v", names, order)
	}

	for i := 0; i < 10; i++ {
		if again := Evaluate(order, readings, th); !reflect.DeepEqual(again, first) {
			t.Fatalf("evaluation not deterministic: %v vs %v", again, first)
		}
	}
}

func TestEvaluateSkipsUntrackedReadings(t *testing.T) {
	readings := map[string]float64{"respiration_rate": 4}
	events := Evaluate([]string{"respiration_rate"}, readings, DefaultThresholds())
	if len(events) != 0 {
		t.Errorf("reading without threshold raised alert: %v", events)
	}
}

func TestCustomThresholdSuppressesAlert(t *testing.T) {
	th := map[string]Threshold{"heart_rate": {Min: 40, Max: 50}}
	events := Evaluate([]string{"heart_rate"}, map[string]float64{"heart_rate": 45}, th)
	if len(events) != 0 {
		t.Errorf("value inside custom range raised alert: %v", events)
	}
}
