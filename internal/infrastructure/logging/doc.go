// Package logging provides structured logging for SenseWear Core.
//
// It wraps log/slog with configuration-driven level, format and output
// selection, and stamps every record with the service name and version.
// Components derive their own loggers with With("component", ...) so log
// lines can be filtered per subsystem.
package logging
