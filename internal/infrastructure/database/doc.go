// Package database manages the SQLite connection for SenseWear Core.
//
// It opens the database with WAL and busy-timeout pragmas, restricts the
// connection pool to SQLite's single-writer model, and applies embedded
// schema migrations at startup. Repositories in the domain packages
// receive the underlying *sql.DB.
package database
