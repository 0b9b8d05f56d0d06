// Package recording samples an ADR unit's thermometry into datasets on an
// independent timer.
//
// A Scheduler runs at most one session at a time. A session samples once
// per record interval, creating its dataset on the first successful
// sample, and ends when Stop is called, when its context is cancelled or,
// with auto-record enabled, when the monitored stage warms past the stop
// temperature or the temperature bridge disappears. The inter-sample wait
// is a timer that Stop interrupts, so a stopped session never takes
// another sample.
//
// ShouldStart and ShouldStop are the pure start and stop predicates; the
// cycle loop evaluates ShouldStart on every tick.
package recording
