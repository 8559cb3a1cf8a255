// Package export writes the reconciled roster to object storage.
//
// Exports land at {bucket}/{prefix}/players.json as a Document carrying the
// view version and timestamp. The bucket is created on first use.
//
// # Modes
//
//   - One-shot: Export a single view (the `export` command).
//   - Continuous: Follow a view channel and export every settled change
//     (`start` with STORAGE_EXPORT_ENABLED=true).
//
// # HTTP Endpoints
//
//   - GET /export/latest : Reads the last export back from storage.
package export
