package appkey

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrIssueFailed is returned when the backing issuer cannot mint a key.
var ErrIssueFailed = errors.New("appkey: application key issue failed")

// ApplicationKey is the client credential pair registered for one
// device type. All devices of a type share it; the per-device secret
// comes later, from the credential exchange.
type ApplicationKey struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
}

// Valid reports whether both halves of the key are present.
func (k ApplicationKey) Valid() bool {
	return k.ClientID != "" && k.ClientSecret != ""
}

// Issuer mints an application key for a device type. Implementations
// talk to whatever registers OAuth applications; the cache only cares
// that the round trip is expensive enough to be worth doing once.
type Issuer interface {
	Issue(ctx context.Context, deviceType string) (ApplicationKey, error)
}

// Cache hands out one application key per device type, minting it on
// first use and reusing it for the life of the process.
//
// Requests for the same type serialize on a per-type entry, so a burst
// of first provisions performs exactly one issuer round trip; requests
// for different types never block each other. A failed mint leaves no
// entry behind and the next request retries.
type Cache struct {
	issuer Issuer

	mu      sync.Mutex
	entries map[string]*entry
}

// entry is the per-type slot. The once-style done channel lets waiters
// block without holding the cache lock.
type entry struct {
	mu  sync.Mutex
	key ApplicationKey
	set bool
}

// NewCache creates a Cache backed by the given issuer.
func NewCache(issuer Issuer) *Cache {
	return &Cache{
		issuer:  issuer,
		entries: make(map[string]*entry),
	}
}

// GetOrCreate returns the application key for the device type, minting
// it via the issuer on first call.
//
// Returns ErrIssueFailed wrapping the issuer error when minting fails;
// the failure is not cached.
func (c *Cache) GetOrCreate(ctx context.Context, deviceType string) (ApplicationKey, error) {
	c.mu.Lock()
	e, ok := c.entries[deviceType]
	if !ok {
		e = &entry{}
		c.entries[deviceType] = e
	}
	c.mu.Unlock()

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.set {
		return e.key, nil
	}

	key, err := c.issuer.Issue(ctx, deviceType)
	if err != nil {
		return ApplicationKey{}, fmt.Errorf("%w: device type %s: %w", ErrIssueFailed, deviceType, err)
	}
	if !key.Valid() {
		return ApplicationKey{}, fmt.Errorf("%w: issuer returned incomplete key for device type %s", ErrIssueFailed, deviceType)
	}

	e.key = key
	e.set = true
	return key, nil
}

// Peek returns the cached key for a device type without minting.
// The second return is false when no key has been issued yet.
func (c *Cache) Peek(deviceType string) (ApplicationKey, bool) {
	c.mu.Lock()
	e, ok := c.entries[deviceType]
	c.mu.Unlock()
	if !ok {
		return ApplicationKey{}, false
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.key, e.set
}
