// Package database provides the SQLite connection used by the message
// archive.
//
// The archive is an audit copy of the in-process message log. It is
// optional: the core runs fully in memory when the database is disabled
// in configuration, and a process restart always begins with an empty
// message log regardless.
//
// The connection is configured for SQLite's single-writer model: one
// open connection, WAL journalling, and a busy timeout to ride out
// short lock contention.
package database
