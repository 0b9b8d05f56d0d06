// Package ruox converts the cold-stage RuOx thermometer reading into a
// resistance and a temperature.
//
// The thermometer voltage is read from one channel of the temperature
// bridge. A per-range scale factor, selected by the bridge range switch,
// turns the voltage into a resistance, and one of two closed-form
// calibration curves turns the resistance into a temperature:
//
//	R <  cutoff: T = 1 / (a + b·R²·ln R + c·R³)        (high temperature, 2 to 20 K)
//	R >= cutoff: T = 1 / (a + b·R·ln R + c·R²·ln R)    (low temperature, 0.05 to 2 K)
//
// Convert is a pure function: it performs no I/O and is safe for
// concurrent use.
package ruox
