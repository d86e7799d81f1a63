package credential

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/sensewear/sensewear-core/internal/appkey"
	"github.com/sensewear/sensewear-core/internal/enrollment"
)

const testSecret = "credential-test-secret-long-enough"

func testRequest() Request {
	return Request{
		Identity: enrollment.Identity{ID: "k3x9p2q", Type: "alertme"},
		Owner:    "admin",
		Tenant:   "carbon.super",
		Key:      appkey.ApplicationKey{ClientID: "alertme_abc", ClientSecret: "shh"},
		Validity: time.Hour,
	}
}

func TestDeviceScope(t *testing.T) {
	got := DeviceScope(enrollment.Identity{ID: "k3x9p2q", Type: "alertme"})
	want := "device_type_alertme device_k3x9p2q"
	if got != want {
		t.Errorf("DeviceScope() = %q, want %q", got, want)
	}
}

func TestScopeCovers(t *testing.T) {
	tests := []struct {
		name     string
		granted  string
		required string
		want     bool
	}{
		{"exact", "device_type_alertme device_k3x9p2q", "device_type_alertme device_k3x9p2q", true},
		{"reordered", "device_k3x9p2q device_type_alertme", "device_type_alertme device_k3x9p2q", true},
		{"superset", "openid device_type_alertme device_k3x9p2q", "device_type_alertme device_k3x9p2q", true},
		{"missing instance", "device_type_alertme", "device_type_alertme device_k3x9p2q", false},
		{"wrong device", "device_type_alertme device_other", "device_type_alertme device_k3x9p2q", false},
		{"empty grant", "", "device_k3x9p2q", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ScopeCovers(tt.granted, tt.required); got != tt.want {
				t.Errorf("ScopeCovers(%q, %q) = %v, want %v", tt.granted, tt.required, got, tt.want)
			}
		})
	}
}

func TestIssuerValidation(t *testing.T) {
	issuer := NewIssuer(NewJWTIssuer(testSecret))

	tests := []struct {
		name   string
		mutate func(*Request)
	}{
		{"missing identity", func(r *Request) { r.Identity = enrollment.Identity{} }},
		{"missing key", func(r *Request) { r.Key = appkey.ApplicationKey{} }},
		{"missing owner", func(r *Request) { r.Owner = "" }},
		{"missing tenant", func(r *Request) { r.Tenant = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testRequest()
			tt.mutate(&req)
			_, err := issuer.Issue(context.Background(), req)
			if !errors.Is(err, ErrIssuanceFailed) {
				t.Errorf("Issue() error = %v, want ErrIssuanceFailed", err)
			}
		})
	}
}

// narrowIssuer grants a scope that does not cover the device.
type narrowIssuer struct{}

func (narrowIssuer) IssueToken(_ context.Context, _ Request) (AccessCredential, error) {
	return AccessCredential{
		AccessToken:  "token",
		RefreshToken: "refresh",
		Scope:        "device_type_alertme",
		ExpiresAt:    time.Now().Add(time.Hour),
	}, nil
}

func TestIssuerRejectsNarrowScope(t *testing.T) {
	issuer := NewIssuer(narrowIssuer{})

	_, err := issuer.Issue(context.Background(), testRequest())
	if !errors.Is(err, ErrIssuanceFailed) {
		t.Errorf("Issue() error = %v, want ErrIssuanceFailed for uncovered scope", err)
	}
}

// failingIssuer always errors.
type failingIssuer struct{}

func (failingIssuer) IssueToken(_ context.Context, _ Request) (AccessCredential, error) {
	return AccessCredential{}, fmt.Errorf("token endpoint unreachable")
}

func TestIssuerWrapsTokenFailure(t *testing.T) {
	issuer := NewIssuer(failingIssuer{})

	_, err := issuer.Issue(context.Background(), testRequest())
	if !errors.Is(err, ErrIssuanceFailed) {
		t.Errorf("Issue() error = %v, want ErrIssuanceFailed", err)
	}
}

func TestJWTIssuerRoundTrip(t *testing.T) {
	jwtIssuer := NewJWTIssuer(testSecret)
	issuer := NewIssuer(jwtIssuer)

	cred, err := issuer.Issue(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	if cred.Scope != "device_type_alertme device_k3x9p2q" {
		t.Errorf("scope = %q, want device scope", cred.Scope)
	}
	if len(cred.RefreshToken) != 64 {
		t.Errorf("refresh token length = %d, want 64 hex chars", len(cred.RefreshToken))
	}
	if !cred.ExpiresAt.After(time.Now()) {
		t.Errorf("expires_at = %v, want in the future", cred.ExpiresAt)
	}

	claims, err := ParseDeviceToken(cred.AccessToken, testSecret)
	if err != nil {
		t.Fatalf("ParseDeviceToken() error = %v", err)
	}
	if claims.Subject != "admin@carbon.super" {
		t.Errorf("subject = %q, want %q", claims.Subject, "admin@carbon.super")
	}
	if claims.Scope != cred.Scope {
		t.Errorf("claims scope = %q, want %q", claims.Scope, cred.Scope)
	}
	if claims.ClientID != "alertme_abc" {
		t.Errorf("client id = %q, want %q", claims.ClientID, "alertme_abc")
	}
}

func TestJWTIssuerDefaultValidity(t *testing.T) {
	jwtIssuer := NewJWTIssuer(testSecret)
	fixed := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	jwtIssuer.now = func() time.Time { return fixed }

	req := testRequest()
	req.Validity = 0
	cred, err := jwtIssuer.IssueToken(context.Background(), req)
	if err != nil {
		t.Fatalf("IssueToken() error = %v", err)
	}
	if want := fixed.Add(time.Hour); !cred.ExpiresAt.Equal(want) {
		t.Errorf("expires_at = %v, want default validity %v", cred.ExpiresAt, want)
	}
}

func TestParseDeviceTokenWrongSecret(t *testing.T) {
	cred, err := NewJWTIssuer(testSecret).IssueToken(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("IssueToken() error = %v", err)
	}

	if _, err := ParseDeviceToken(cred.AccessToken, "some-other-secret-entirely-here"); err == nil {
		t.Error("ParseDeviceToken() with wrong secret succeeded")
	}
}
