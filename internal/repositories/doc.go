// Package repositories implements SQLite persistence for sessions and uploads.
//
// Key Implementations:
//   - [SessionRepository] : session lifecycle and tool run status
//   - [UploadRepository] : files accepted into a session workspace
//
// Sequence numbers provide stable, human-readable ordering (e.g., session #42) independent of UUIDs and creation timestamps.
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
package repositories
