// Package state holds the shared state of one ADR unit: its parameter
// set, its cycle status and its controller log.
//
// Parameters are addressed by a closed set of keys (Key). Each key
// declares the kind of value it holds and every Value is a tagged union of
// unset, number, bool, timestamp, duration, string and vector. External
// callers resolve names with ParseKey and decode payloads with ParseValue;
// internal code uses the Key constants directly.
//
// The Store is shared by the cycle loop, the recording loop and API
// handlers. Single-key operations are atomic; there are no transactions.
// Hooks registered with OnChange implement derived updates, such as
// recomputing the mag-down time when the field wait time changes.
//
// The Log keeps the most recent entries in memory; a LogSink such as
// SQLiteLogRepository keeps all of them.
package state
