// Package instrument is the typed command surface the ADR controller uses
// to reach its hardware.
//
// Facade is the contract: temperature and voltage reads from the
// temperature bridge, magnet supply reads and writes, heat switch and
// compressor commands. Every method takes a context and fails with
// ErrUnavailable when the peripheral that provides it is not connected.
//
// Implementations:
//
//	Remote    requests over the message bus to the bound instrument services
//	HandsOff  wraps a Facade, passes reads through and logs writes instead
//	          of sending them
//	Fake      in-memory instruments for tests and simulations
package instrument
