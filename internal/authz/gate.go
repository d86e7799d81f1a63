package authz

import (
	"context"
	"errors"
	"fmt"

	"github.com/sensewear/sensewear-core/internal/auth"
	"github.com/sensewear/sensewear-core/internal/enrollment"
)

// Sentinel errors for authorization decisions.
var (
	// ErrAccessDenied means the check completed and the answer is no.
	ErrAccessDenied = errors.New("authz: access denied")

	// ErrAuthorizationFailed means the check itself could not be carried
	// out, for example the enrollment store was unreachable. Callers must
	// not treat this as a grant.
	ErrAuthorizationFailed = errors.New("authz: authorization check failed")
)

// DeviceReader is the slice of the enrollment store the gate needs.
type DeviceReader interface {
	GetByIdentity(ctx context.Context, identity enrollment.Identity) (*enrollment.Device, error)
}

// Gate decides whether a caller may act on a device.
//
// The rule is owner-or-admin: admins may touch any device in the
// tenant, everyone else only devices they enrolled. The decision is
// tri-state — granted, denied (ErrAccessDenied), or unknown
// (ErrAuthorizationFailed when the record cannot be read) — so a store
// outage never silently widens access.
type Gate struct {
	devices DeviceReader
}

// NewGate creates a Gate backed by the given device reader.
func NewGate(devices DeviceReader) *Gate {
	return &Gate{devices: devices}
}

// Authorize checks that the caller may act on the identified device.
//
// Returns nil when access is granted. A device that is not enrolled is
// denied rather than not-found: the gate does not reveal registry
// contents to callers who hold no claim on the device.
func (g *Gate) Authorize(ctx context.Context, caller auth.Caller, identity enrollment.Identity) error {
	if caller.IsAdmin() {
		return nil
	}

	device, err := g.devices.GetByIdentity(ctx, identity)
	if err != nil {
		if errors.Is(err, enrollment.ErrDeviceNotFound) {
			return fmt.Errorf("%w: no claim on device %s", ErrAccessDenied, identity.ID)
		}
		return fmt.Errorf("%w: %w", ErrAuthorizationFailed, err)
	}

	if device.Enrollment.Owner != caller.Username {
		return fmt.Errorf("%w: device %s belongs to another owner", ErrAccessDenied, identity.ID)
	}
	return nil
}
