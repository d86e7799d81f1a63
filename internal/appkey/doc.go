// Package appkey caches the per-device-type application key that the
// credential exchange requires. Minting a key is an expensive external
// round trip, so the Cache guarantees it happens once per device type
// per process, with concurrent first requests for a type collapsing
// into a single issue call.
package appkey
