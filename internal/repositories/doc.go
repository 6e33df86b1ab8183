// Package repositories implements SQLite persistence for the conversion history.
//
// [ConversionRepository] stores one audit row per conversion attempt: which playlist, which layout,
// how many tracks and warnings, and whether it failed. CSV bodies and track data are never stored.
//
// Sequence numbers provide stable, human-readable ordering independent of UUIDs and creation timestamps.
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
package repositories
