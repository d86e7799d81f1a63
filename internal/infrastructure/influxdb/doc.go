// Package influxdb provides time-series storage for SenseWear Core.
//
// Sensor readings published by wearable agents are written here with
// non-blocking batched writes, and the sensor query surface reads them
// back with Flux. Writes tag every point with tenant, device_id, and
// device_type so queries stay cheap without high-cardinality fields.
//
// The client is optional: when influxdb.enabled is false in config the
// service runs without analytics, and Connect returns ErrDisabled.
package influxdb
