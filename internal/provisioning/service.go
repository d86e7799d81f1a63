package provisioning

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sensewear/sensewear-core/internal/agent"
	"github.com/sensewear/sensewear-core/internal/appkey"
	"github.com/sensewear/sensewear-core/internal/credential"
	"github.com/sensewear/sensewear-core/internal/enrollment"
	"github.com/sensewear/sensewear-core/internal/identity"
)

// ErrProvisioningFailed is returned when the provisioning chain cannot
// complete.
var ErrProvisioningFailed = errors.New("provisioning: provisioning failed")

// maxIdentityAttempts bounds regeneration when a generated identifier
// collides with an enrolled device. Collisions on a 64-bit space are
// vanishingly rare; more than a couple in a row means something else
// is wrong.
const maxIdentityAttempts = 3

// Registrar is the enrollment surface the service needs.
type Registrar interface {
	Register(ctx context.Context, identity enrollment.Identity, name, owner string) (enrollment.Result, error)
	IsEnrolled(ctx context.Context, identity enrollment.Identity) (bool, error)
}

// KeySource mints or returns the cached application key for a type.
type KeySource interface {
	GetOrCreate(ctx context.Context, deviceType string) (appkey.ApplicationKey, error)
}

// CredentialIssuer mints device credentials.
type CredentialIssuer interface {
	Issue(ctx context.Context, req credential.Request) (credential.AccessCredential, error)
}

// Packager builds downloadable agent bundles.
type Packager interface {
	Package(identity enrollment.Identity, owner, tenant, broker string, cred credential.AccessCredential) (*agent.Bundle, error)
}

// Logger is the minimal logging interface the service needs.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

// Config carries the fixed provisioning parameters.
type Config struct {
	DeviceType  string
	Tenant      string
	MQTTBroker  string
	KeyValidity time.Duration
}

// Result is the outcome of one provisioning run.
type Result struct {
	Identity   enrollment.Identity
	Credential credential.AccessCredential
}

// Service runs the provisioning chain for new wearables:
// generate identity, obtain the type's application key, mint the
// device credential, then enroll.
//
// The credential is minted before enrollment so a device is never
// enrolled without a working credential path; if enrollment then
// fails, the minted credential is abandoned — it was never delivered
// anywhere and expires on its own.
type Service struct {
	registrar Registrar
	keys      KeySource
	creds     CredentialIssuer
	packager  Packager
	cfg       Config
	logger    Logger

	// generate produces device identifiers; swapped in tests.
	generate func() string
}

// NewService creates a provisioning Service.
func NewService(registrar Registrar, keys KeySource, creds CredentialIssuer, packager Packager, cfg Config) *Service {
	return &Service{
		registrar: registrar,
		keys:      keys,
		creds:     creds,
		packager:  packager,
		cfg:       cfg,
		generate:  identity.Generate,
	}
}

// SetLogger sets an optional logger for provisioning events.
func (s *Service) SetLogger(logger Logger) {
	s.logger = logger
}

// Provision enrolls a new wearable for the owner and returns its
// identity and credential.
//
// A generated identifier that happens to collide with an enrolled
// device is regenerated rather than reported: the caller asked for a
// new device, so AlreadyRegistered can only mean a collision here.
func (s *Service) Provision(ctx context.Context, owner, name string) (*Result, error) {
	key, err := s.keys.GetOrCreate(ctx, s.cfg.DeviceType)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrProvisioningFailed, err)
	}

	for attempt := 0; attempt < maxIdentityAttempts; attempt++ {
		id := enrollment.Identity{ID: s.generate(), Type: s.cfg.DeviceType}

		cred, err := s.creds.Issue(ctx, credential.Request{
			Identity: id,
			Owner:    owner,
			Tenant:   s.cfg.Tenant,
			Key:      key,
			Validity: s.cfg.KeyValidity,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrProvisioningFailed, err)
		}

		result, err := s.registrar.Register(ctx, id, name, owner)
		if err != nil {
			if s.logger != nil {
				s.logger.Warn("enrollment failed, abandoning minted credential",
					"device_id", id.ID,
					"owner", owner,
				)
			}
			return nil, fmt.Errorf("%w: %w", ErrProvisioningFailed, err)
		}
		if result == enrollment.AlreadyRegistered {
			// Identifier collision. The credential scoped to it is
			// abandoned with it; retry with a fresh identifier.
			if s.logger != nil {
				s.logger.Warn("generated identifier collided with enrolled device",
					"device_id", id.ID,
					"attempt", attempt+1,
				)
			}
			continue
		}

		if s.logger != nil {
			s.logger.Info("device provisioned",
				"device_id", id.ID,
				"device_type", id.Type,
				"owner", owner,
			)
		}
		return &Result{Identity: id, Credential: cred}, nil
	}

	return nil, fmt.Errorf("%w: identifier collisions on %d consecutive attempts", ErrProvisioningFailed, maxIdentityAttempts)
}

// PackageAgent builds the downloadable agent bundle for an enrolled
// device, minting a fresh credential for it.
//
// Each download carries its own credential; bundles are never reused,
// so a re-download after expiry simply mints again.
func (s *Service) PackageAgent(ctx context.Context, id enrollment.Identity, owner string) (*agent.Bundle, error) {
	enrolled, err := s.registrar.IsEnrolled(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrProvisioningFailed, err)
	}
	if !enrolled {
		return nil, fmt.Errorf("%w: %w", ErrProvisioningFailed, enrollment.ErrDeviceNotFound)
	}

	key, err := s.keys.GetOrCreate(ctx, id.Type)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrProvisioningFailed, err)
	}

	cred, err := s.creds.Issue(ctx, credential.Request{
		Identity: id,
		Owner:    owner,
		Tenant:   s.cfg.Tenant,
		Key:      key,
		Validity: s.cfg.KeyValidity,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrProvisioningFailed, err)
	}

	bundle, err := s.packager.Package(id, owner, s.cfg.Tenant, s.cfg.MQTTBroker, cred)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrProvisioningFailed, err)
	}
	return bundle, nil
}
