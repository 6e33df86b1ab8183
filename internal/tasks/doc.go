// Package tasks turns a playlist link into a playlist editor CSV, with real-time progress reporting.
//
// # Core Operations
//
//  1. [Assembler.Assemble] : Build a show playlist
//     - Fetches playlist metadata (a 404 only loses the name)
//     - Pages through the playlist's tracks (a 404 means missing or private)
//     - Resolves every catalog album in batches and pairs each track with its album
//
//  2. [Converter.Convert] : Validate, assemble and format one request
//     - Rejects bad links, formats and show dates before any network call
//     - Renders the CSV into memory and returns it with the formatter's warnings
//     - Optionally records an audit row through a [HistoryRecorder]
//
//  3. [Converter.BatchConvert] : Convert several playlists into a directory
//     - Bounded worker pool with an optional start rate
//     - One CSV per playlist plus a batch_manifest.json summary
//
// # Progress Reporting
//
// All operations use non-blocking channels for progress updates.
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data.
// Updates use select with default so a slow consumer never stalls a conversion.
package tasks
