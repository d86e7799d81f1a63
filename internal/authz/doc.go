// Package authz enforces device-level access control: a caller may act
// on a device only if they enrolled it or hold the admin role.
//
// The Gate deliberately distinguishes a denial from a failed check.
// ErrAccessDenied is an answer; ErrAuthorizationFailed means the
// enrollment store could not be consulted and the request must be
// rejected without concluding anything about ownership.
package authz
