// Package sensor serves the sensor data surface: ingesting agent
// telemetry into the analytics store and planning queries over it.
//
// Public sensor type names are decoupled from stored measurement names
// through a fixed mapping; a type without a mapping is rejected as
// unsupported rather than passed through, so the query surface never
// exposes raw measurement names.
package sensor
