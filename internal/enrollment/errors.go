package enrollment

import "errors"

// Domain errors for the enrollment package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, enrollment.ErrDeviceNotFound) {
//	    // handle not found case
//	}
var (
	// ErrDeviceNotFound is returned when a device identity does not exist.
	ErrDeviceNotFound = errors.New("enrollment: device not found")

	// ErrDeviceExists is returned when creating a device that is already enrolled.
	ErrDeviceExists = errors.New("enrollment: device already enrolled")

	// ErrInvalidIdentity is returned when a device identity is missing its
	// id or type.
	ErrInvalidIdentity = errors.New("enrollment: invalid device identity")

	// ErrRegistrationFailed is returned when persisting a new device fails.
	ErrRegistrationFailed = errors.New("enrollment: registration failed")

	// ErrPairingNotFound is returned when no pairing exists for the given keys.
	ErrPairingNotFound = errors.New("enrollment: pairing not found")
)
