// Package auth provides caller authentication for the REST API:
// JWT access token generation and validation, caller roles, and the
// Caller principal that downstream authorization decisions consume.
//
// Tokens are HS256-signed with a shared secret from configuration and
// validated by signature alone, keeping request handling free of
// database lookups.
package auth
