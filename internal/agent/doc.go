// Package agent packages the downloadable wearable agent: the static
// firmware template zipped together with a generated per-device
// credential file.
//
// Bundles carry live credentials, so they are written with restrictive
// permissions, staged only for the duration of one download, and
// removed on every exit path — including packaging failures, where any
// partial archive is deleted before the error is returned.
package agent
