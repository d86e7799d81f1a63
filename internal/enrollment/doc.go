// Package enrollment manages the device registry: wearable enrollment
// records, their lifecycle status, and the sensor-to-wearable pairings
// that drive proximity alerts.
//
// The Registrar provides idempotent registration: enrolling the same
// identity twice reports AlreadyRegistered without mutating the record,
// which makes provisioning retries safe. Devices are keyed by
// (id, type), so identifiers only need to be unique within a type.
//
// Persistence is split into two repositories backed by SQLite:
// Repository for device records and PairingRepository for the
// sense-to-alert pairings. Both are defined as interfaces so callers
// can substitute mocks in tests.
package enrollment
