// Package dataset stores recorded temperature datasets.
//
// SQLiteStore keeps every dataset and its rows in the core database and is
// the record of truth. Tee fans the same calls out to secondary sinks such
// as the InfluxDB mirror, whose failures are logged and never stop a
// recording.
package dataset
