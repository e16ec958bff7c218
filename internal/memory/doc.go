// Package memory persists per-user session history and derives
// session-over-session progress.
//
// Stores are append-only. Recorder serializes the latest-then-append
// sequence per user so that concurrent sessions of one user never observe
// the same prior snapshot.
package memory
