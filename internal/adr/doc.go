// Package adr runs the refrigeration cycle of one ADR unit.
//
// A Controller is built per configured unit. It owns the unit's parameter
// store, its bounded log, its peripheral registry, its recording scheduler
// and two goroutines:
//
//   - the cycle loop, which waits one tick (the sleep interval, or the
//     ramp wait time while magging), checks the alive flag and advances
//     the state machine
//   - the reconcile loop, which retries orphaned peripherals on a timer
//     and whenever a service announces itself
//
// The recording scheduler runs its own session goroutine and is stopped
// independently of the cycle.
//
// # Cycle
//
//	cooling down ──at base──▶ ready ──scheduling active──▶ waiting to mag up
//	      ▲                                                     │ time passed, at base
//	      │ quench                                              ▼
//	      ├──────────────────────────────────────────────── magging up
//	      │                                                     │ target current
//	      │                                                     ▼
//	      │             ready to mag down ◀──not scheduled── waiting at field
//	      │                     │ scheduling resumed            │ scheduled
//	      │                     ▼                               ▼
//	      └──────────────────────────────────────────────── magging down ──zero current──▶ ready
//
// Entering magging up drives the heat switch (under auto control) and
// energises the magnet supply; entering magging down drives the heat
// switch the other way. Entry actions fire only on an actual change of
// status.
//
// No instrument error ends the cycle. A missing temperature bridge reads
// as "not at base"; any other failure is logged and the tick ends with
// the status unchanged. Clearing the alive flag (Stop) lets the current
// tick finish and then ends the loop.
package adr
