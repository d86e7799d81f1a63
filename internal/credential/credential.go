package credential

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sensewear/sensewear-core/internal/appkey"
	"github.com/sensewear/sensewear-core/internal/enrollment"
)

// ErrIssuanceFailed is returned when a device credential cannot be minted.
var ErrIssuanceFailed = errors.New("credential: issuance failed")

// AccessCredential is the per-device token pair a wearable agent uses
// to authenticate against the platform.
type AccessCredential struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	Scope        string    `json:"scope"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Request carries everything needed to mint a device credential.
type Request struct {
	Identity enrollment.Identity
	Owner    string
	Tenant   string
	Key      appkey.ApplicationKey
	Validity time.Duration
}

// Subject returns the token subject, owner@tenant.
func (r Request) Subject() string {
	return r.Owner + "@" + r.Tenant
}

// TokenIssuer exchanges an application key for a device-scoped token
// pair. Implementations decide where tokens come from; the local JWT
// issuer signs them itself.
type TokenIssuer interface {
	IssueToken(ctx context.Context, req Request) (AccessCredential, error)
}

// DeviceScope builds the space-separated scope string that confines a
// token to one device: the type scope first, then the instance scope.
func DeviceScope(identity enrollment.Identity) string {
	return "device_type_" + identity.Type + " device_" + identity.ID
}

// ScopeCovers reports whether the granted scope string includes every
// scope the required string names. Order does not matter.
func ScopeCovers(granted, required string) bool {
	have := make(map[string]bool)
	for _, s := range strings.Fields(granted) {
		have[s] = true
	}
	for _, s := range strings.Fields(required) {
		if !have[s] {
			return false
		}
	}
	return true
}

// Issuer mints device credentials through a TokenIssuer, validating
// inputs and normalising errors to ErrIssuanceFailed.
type Issuer struct {
	tokens TokenIssuer
}

// NewIssuer creates an Issuer backed by the given token source.
func NewIssuer(tokens TokenIssuer) *Issuer {
	return &Issuer{tokens: tokens}
}

// Issue mints an access credential scoped to the requested device.
//
// The application key must be present and valid: the token exchange is
// performed on behalf of the device type's application, never with
// bare user credentials.
func (i *Issuer) Issue(ctx context.Context, req Request) (AccessCredential, error) {
	if !req.Identity.Valid() {
		return AccessCredential{}, fmt.Errorf("%w: incomplete device identity", ErrIssuanceFailed)
	}
	if !req.Key.Valid() {
		return AccessCredential{}, fmt.Errorf("%w: missing application key", ErrIssuanceFailed)
	}
	if req.Owner == "" || req.Tenant == "" {
		return AccessCredential{}, fmt.Errorf("%w: missing owner or tenant", ErrIssuanceFailed)
	}

	cred, err := i.tokens.IssueToken(ctx, req)
	if err != nil {
		return AccessCredential{}, fmt.Errorf("%w: %w", ErrIssuanceFailed, err)
	}

	// The exchange may grant broader scopes; it must at least cover the
	// device it was asked for.
	if !ScopeCovers(cred.Scope, DeviceScope(req.Identity)) {
		return AccessCredential{}, fmt.Errorf("%w: granted scope %q does not cover device", ErrIssuanceFailed, cred.Scope)
	}

	return cred, nil
}
