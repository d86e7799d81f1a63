package enrollment

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Result reports the outcome of a registration attempt.
type Result string

// Registration outcomes.
const (
	// Registered means a new device record was created.
	Registered Result = "registered"

	// AlreadyRegistered means the identity was enrolled previously and
	// nothing was mutated. This is a benign outcome, not an error.
	AlreadyRegistered Result = "already_registered"
)

// Logger is the minimal logging interface the registrar needs.
type Logger interface {
	Info(msg string, args ...any)
	Error(msg string, args ...any)
}

// Registrar idempotently enrolls devices.
//
// Registration checks enrollment state first: a second call for the same
// identity reports AlreadyRegistered and performs no mutation, so a
// provisioning retry or a duplicate agent request never double-enrolls.
type Registrar struct {
	repo   Repository
	logger Logger
	now    func() time.Time
}

// NewRegistrar creates a Registrar backed by the given repository.
func NewRegistrar(repo Repository) *Registrar {
	return &Registrar{
		repo: repo,
		now:  time.Now,
	}
}

// SetLogger sets an optional logger for registration events.
func (r *Registrar) SetLogger(logger Logger) {
	r.logger = logger
}

// Register enrolls a device if it is not already enrolled.
//
// A fresh registration persists a Device with status ACTIVE, ownership
// BYOD, and both enrollment timestamps set to now. An identity that is
// already enrolled yields AlreadyRegistered with no write.
//
// Parameters:
//   - ctx: Context for the persistence calls
//   - identity: The device identity to enroll
//   - name: Human-readable device name
//   - owner: Username of the enrolling owner
//
// Returns:
//   - Result: Registered or AlreadyRegistered
//   - error: ErrInvalidIdentity for a malformed identity, or
//     ErrRegistrationFailed wrapping the persistence failure
func (r *Registrar) Register(ctx context.Context, identity Identity, name, owner string) (Result, error) {
	if !identity.Valid() {
		return "", ErrInvalidIdentity
	}

	enrolled, err := r.IsEnrolled(ctx, identity)
	if err != nil {
		return "", fmt.Errorf("%w: checking enrollment state: %w", ErrRegistrationFailed, err)
	}
	if enrolled {
		return AlreadyRegistered, nil
	}

	now := r.now().UTC()
	device := &Device{
		Identity: identity,
		Name:     name,
		Enrollment: EnrollmentInfo{
			EnrolledAt:    now,
			LastUpdatedAt: now,
			Status:        StatusActive,
			Ownership:     OwnershipBYOD,
			Owner:         owner,
		},
	}

	if err := r.repo.Create(ctx, device); err != nil {
		// A concurrent registration can win the race between the enrollment
		// check and the insert; the store's uniqueness makes that benign.
		if errors.Is(err, ErrDeviceExists) {
			return AlreadyRegistered, nil
		}
		if r.logger != nil {
			r.logger.Error("device registration failed",
				"device_id", identity.ID,
				"device_type", identity.Type,
				"owner", owner,
				"error", err,
			)
		}
		return "", fmt.Errorf("%w: %w", ErrRegistrationFailed, err)
	}

	if r.logger != nil {
		r.logger.Info("device registered",
			"device_id", identity.ID,
			"device_type", identity.Type,
			"owner", owner,
		)
	}
	return Registered, nil
}

// IsEnrolled reports whether the identity has a device record, whatever
// its status.
func (r *Registrar) IsEnrolled(ctx context.Context, identity Identity) (bool, error) {
	_, err := r.repo.GetByIdentity(ctx, identity)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, ErrDeviceNotFound) {
		return false, nil
	}
	return false, err
}
