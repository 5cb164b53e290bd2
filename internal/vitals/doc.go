// Package vitals implements threshold-driven alert generation for
// patient monitors.
//
// Evaluate is a pure function over a reading set and its thresholds;
// the Monitor composes it with a device actor so that reading updates
// produce alert and data messages on the bus. Evaluation order follows
// the order readings were first introduced, so identical inputs always
// yield alerts in the same sequence.
package vitals
