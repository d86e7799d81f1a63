package auth

import (
	"errors"
	"regexp"
)

// usernamePattern defines the valid format for usernames:
// alphanumeric, dots, hyphens, underscores, 1-64 characters.
var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9._-]{1,64}$`)

// maxUsernameLength is the maximum allowed username length.
const maxUsernameLength = 64

// IsValidUsername checks if a username meets format requirements.
// Usernames must be 1-64 characters, alphanumeric with dots, hyphens, underscores.
func IsValidUsername(username string) bool {
	return len(username) <= maxUsernameLength && usernamePattern.MatchString(username)
}

// Role represents an authorisation tier in the system.
type Role string

const (
	// RoleUser is a device owner: may provision wearables, pair sensors,
	// and query data for devices they enrolled.
	RoleUser Role = "user"

	// RoleAdmin has full control across the tenant: any device, any
	// owner, enrollment removal. Bypasses ownership scoping.
	RoleAdmin Role = "admin"
)

// ValidRoles is the set of valid caller roles.
var ValidRoles = []Role{RoleUser, RoleAdmin}

// IsValidRole returns true if the role is a recognised caller role.
func IsValidRole(r Role) bool {
	for _, v := range ValidRoles {
		if r == v {
			return true
		}
	}
	return false
}

// Caller identifies the authenticated principal behind a request.
// Subject renders as owner@tenant when addressing platform services.
type Caller struct {
	Username string `json:"username"`
	Tenant   string `json:"tenant"`
	Role     Role   `json:"role"`
}

// Subject returns the fully qualified principal name, owner@tenant.
func (c Caller) Subject() string {
	return c.Username + "@" + c.Tenant
}

// IsAdmin reports whether the caller holds the admin role.
func (c Caller) IsAdmin() bool {
	return c.Role == RoleAdmin
}

// Sentinel errors for auth operations.
var (
	ErrTokenExpired = errors.New("auth: token has expired")
	ErrTokenInvalid = errors.New("auth: invalid token")
)
