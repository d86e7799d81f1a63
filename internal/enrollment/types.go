package enrollment

import "time"

// Identity addresses one device instance: the generated short id plus
// the device type it belongs to. Identifiers are unique within a type.
type Identity struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

// Valid reports whether the identity has both parts set.
func (i Identity) Valid() bool {
	return i.ID != "" && i.Type != ""
}

// Device is an enrolled wearable known to the platform.
type Device struct {
	Identity   Identity       `json:"identity"`
	Name       string         `json:"name"`
	Enrollment EnrollmentInfo `json:"enrollment"`
}

// EnrollmentInfo holds the enrollment metadata for a device.
// It is created once at registration; only status changes mutate it
// afterwards, never the provisioning path.
type EnrollmentInfo struct {
	EnrolledAt    time.Time `json:"enrolled_at"`
	LastUpdatedAt time.Time `json:"last_updated_at"`
	Status        Status    `json:"status"`
	Ownership     Ownership `json:"ownership"`
	Owner         string    `json:"owner"`
}

// Status represents the enrollment state of a device.
type Status string

// Status constants.
const (
	StatusActive   Status = "ACTIVE"
	StatusInactive Status = "INACTIVE"
	StatusRemoved  Status = "REMOVED"
	StatusBlocked  Status = "BLOCKED"
)

// AllStatuses returns all valid status values.
func AllStatuses() []Status {
	return []Status{StatusActive, StatusInactive, StatusRemoved, StatusBlocked}
}

// Ownership represents who owns the physical device.
type Ownership string

// Ownership constants.
const (
	OwnershipBYOD Ownership = "BYOD"
	OwnershipCOPE Ownership = "COPE"
)

// Pairing links a senseme proximity sensor to an alertme wearable within
// a tenant: when the sensor trips, the paired wearable is alerted.
type Pairing struct {
	SenseDeviceID string    `json:"sense_device_id"`
	AlertDeviceID string    `json:"alert_device_id"`
	Tenant        string    `json:"tenant"`
	TriggerRange  int       `json:"trigger_range"`
	AlertDuration int       `json:"alert_duration"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
