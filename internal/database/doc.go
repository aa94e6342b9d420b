// Package database provides the SQLite attempt journal.
//
// The journal keeps one row per login attempt made by the monitor: when it
// started, how long it took, how it ended and which signal verified it.
// The `history` command reads it back. Raw usernames and passwords are never
// stored; attempts carry only an account fingerprint.
//
// SQLite (via modernc.org/sqlite) keeps the journal a single CGO-free file.
// WAL mode lets `history` read while a daemon is writing.
package database
