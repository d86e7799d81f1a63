package credential

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// defaultValidity applies when a request does not set one.
const defaultValidity = time.Hour

// DeviceClaims are the JWT claims carried by a device access token.
type DeviceClaims struct {
	jwt.RegisteredClaims
	Scope    string `json:"scope"`
	ClientID string `json:"cid"`
}

// JWTIssuer signs device access tokens locally with a shared secret.
// The refresh token is an opaque 256-bit random value.
type JWTIssuer struct {
	secret string
	now    func() time.Time
}

// NewJWTIssuer creates a JWTIssuer signing with the given secret.
func NewJWTIssuer(secret string) *JWTIssuer {
	return &JWTIssuer{
		secret: secret,
		now:    time.Now,
	}
}

// IssueToken signs a device-scoped HS256 token pair.
func (j *JWTIssuer) IssueToken(_ context.Context, req Request) (AccessCredential, error) {
	validity := req.Validity
	if validity <= 0 {
		validity = defaultValidity
	}

	now := j.now()
	expiresAt := now.Add(validity)
	scope := DeviceScope(req.Identity)

	claims := DeviceClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   req.Subject(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.NewString(),
		},
		Scope:    scope,
		ClientID: req.Key.ClientID,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(j.secret))
	if err != nil {
		return AccessCredential{}, fmt.Errorf("signing device token: %w", err)
	}

	refresh, err := randomToken()
	if err != nil {
		return AccessCredential{}, err
	}

	return AccessCredential{
		AccessToken:  signed,
		RefreshToken: refresh,
		Scope:        scope,
		ExpiresAt:    expiresAt,
	}, nil
}

// ParseDeviceToken validates a device access token and returns its claims.
func ParseDeviceToken(tokenString, secret string) (*DeviceClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &DeviceClaims{}, func(_ *jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("parsing device token: %w", err)
	}

	claims, ok := token.Claims.(*DeviceClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid device token")
	}
	return claims, nil
}

// randomToken returns a 256-bit hex-encoded random value.
func randomToken() (string, error) {
	b := make([]byte, 32) //nolint:mnd // 256-bit token
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating refresh token: %w", err)
	}
	return hex.EncodeToString(b), nil
}
