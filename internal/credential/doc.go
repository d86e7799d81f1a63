// Package credential mints the per-device access credential a wearable
// agent ships with: an access token confined by scope to exactly one
// device, a refresh token, and the expiry.
//
// Scopes follow the device_type_<type> device_<id> convention. The
// Issuer validates that whatever the TokenIssuer grants covers the
// requested device before handing the credential out.
package credential
