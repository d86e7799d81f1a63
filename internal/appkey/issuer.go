package appkey

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

// LocalIssuer mints application keys locally instead of registering an
// application with an external OAuth provider. Suitable for standalone
// deployments where this service is itself the token authority.
type LocalIssuer struct{}

// NewLocalIssuer creates a LocalIssuer.
func NewLocalIssuer() *LocalIssuer {
	return &LocalIssuer{}
}

// Issue mints a random client id and secret for the device type. The
// id carries the device type prefix so keys are recognisable in logs.
func (i *LocalIssuer) Issue(_ context.Context, deviceType string) (ApplicationKey, error) {
	return ApplicationKey{
		ClientID:     deviceType + "_" + strings.ReplaceAll(uuid.NewString(), "-", ""),
		ClientSecret: strings.ReplaceAll(uuid.NewString(), "-", ""),
	}, nil
}
