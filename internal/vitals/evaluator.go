package vitals

import (
	"fmt"
	"strconv"
)

// Threshold is an inclusive normal range for one reading.
// Values inside [Min, Max] raise no alert.
type Threshold struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Contains reports whether the value lies inside the normal range.
func (t Threshold) Contains(v float64) bool {
	return v >= t.Min && v <= t.Max
}

// Alert kinds produced by evaluation.
const (
	KindLowVital  = "low_vital"
	KindHighVital = "high_vital"
)

// AlertEvent is one out-of-range finding.
type AlertEvent struct {
	Kind  string  `json:"kind"`
	Name  string  `json:"name"`
	Value float64 `json:"value"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
}

// Message renders the human-readable alert text, e.g.
// "Low heart_rate: 45 (Normal range: 60-100)".
func (e AlertEvent) Message() string {
	word := "Low"
	if e.Kind == KindHighVital {
		word = "High"
	}
	return fmt.Sprintf("%s %s: %s (Normal range: %s-%s)",
		word, e.Name, formatValue(e.Value), formatValue(e.Min), formatValue(e.Max))
}

// formatValue prints floats without trailing zeros (45, 36.1).
func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Evaluate checks each reading in order against its threshold and
// returns one AlertEvent per out-of-range value. Readings without a
// threshold, and thresholds without a reading, are skipped. Evaluate
// never mutates its inputs; identical inputs yield identical output.
func Evaluate(order []string, readings map[string]float64, thresholds map[string]Threshold) []AlertEvent {
	var events []AlertEvent
	for _, name := range order {
		value, ok := readings[name]
		if !ok {
			continue
		}
		th, ok := thresholds[name]
		if !ok {
			continue
		}
		switch {
		case value < th.Min:
			events = append(events, AlertEvent{Kind: KindLowVital, Name: name, Value: value, Min: th.Min, Max: th.Max})
		case value > th.Max:
			events = append(events, AlertEvent{Kind: KindHighVital, Name: name, Value: value, Min: th.Min, Max: th.Max})
		}
	}
	return events
}
