// Package api provides the HTTP REST API server for SenseWear Core.
//
// It exposes wearable provisioning, sensor pairing, proximity alert
// dispatch, and sensor history endpoints to care-home dashboards and
// operator tooling.
//
// The server follows the same lifecycle pattern as other infrastructure components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
//
// Thread Safety: All methods are safe for concurrent use from multiple goroutines.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sensewear/sensewear-core/internal/agent"
	"github.com/sensewear/sensewear-core/internal/auth"
	"github.com/sensewear/sensewear-core/internal/enrollment"
	"github.com/sensewear/sensewear-core/internal/infrastructure/config"
	"github.com/sensewear/sensewear-core/internal/infrastructure/logging"
	"github.com/sensewear/sensewear-core/internal/operation"
	"github.com/sensewear/sensewear-core/internal/provisioning"
	"github.com/sensewear/sensewear-core/internal/sensor"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// Provisioner runs the wearable provisioning chain and builds agent
// bundles. Satisfied by *provisioning.Service.
type Provisioner interface {
	Provision(ctx context.Context, owner, name string) (*provisioning.Result, error)
	PackageAgent(ctx context.Context, id enrollment.Identity, owner string) (*agent.Bundle, error)
}

// Authorizer decides whether a caller may act on a device.
// Satisfied by *authz.Gate.
type Authorizer interface {
	Authorize(ctx context.Context, caller auth.Caller, identity enrollment.Identity) error
}

// AlertDispatcher delivers proximity alert commands to wearables.
// Satisfied by *operation.Dispatcher.
type AlertDispatcher interface {
	DispatchAlert(ctx context.Context, identity enrollment.Identity, durationSeconds int) (*operation.Command, error)
}

// ReadingsPlanner serves sensor history queries.
// Satisfied by *sensor.Planner.
type ReadingsPlanner interface {
	Run(ctx context.Context, q sensor.Query) ([]sensor.Record, error)
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config       config.APIConfig
	Security     config.SecurityConfig
	Provisioning config.ProvisioningConfig
	Logger       *logging.Logger
	Devices      enrollment.Repository
	Pairings     enrollment.PairingRepository
	Provisioner  Provisioner
	Gate         Authorizer
	Dispatcher   AlertDispatcher
	Operations   operation.Repository
	Planner      ReadingsPlanner
	Version      string
}

// Server is the HTTP API server for SenseWear Core.
//
// It manages the HTTP listener, routes, and middleware. The server is
// created with New() and started with Start().
type Server struct {
	cfg         config.APIConfig
	secCfg      config.SecurityConfig
	provCfg     config.ProvisioningConfig
	logger      *logging.Logger
	devices     enrollment.Repository
	pairings    enrollment.PairingRepository
	provisioner Provisioner
	gate        Authorizer
	dispatcher  AlertDispatcher
	operations  operation.Repository
	planner     ReadingsPlanner
	version     string
	server      *http.Server
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called.
//
// Parameters:
//   - deps: Required dependencies (config, logger, stores, services)
//
// Returns:
//   - *Server: Configured server ready to start
//   - error: If required dependencies are missing
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Devices == nil {
		return nil, fmt.Errorf("device repository is required")
	}
	if deps.Provisioner == nil {
		return nil, fmt.Errorf("provisioner is required")
	}
	if deps.Gate == nil {
		return nil, fmt.Errorf("authorization gate is required")
	}
	// Dispatcher and Planner are optional — their routes answer 500 when
	// the backing infrastructure is not configured, everything else works.

	return &Server{
		cfg:         deps.Config,
		secCfg:      deps.Security,
		provCfg:     deps.Provisioning,
		logger:      deps.Logger,
		devices:     deps.Devices,
		pairings:    deps.Pairings,
		provisioner: deps.Provisioner,
		gate:        deps.Gate,
		dispatcher:  deps.Dispatcher,
		operations:  deps.Operations,
		planner:     deps.Planner,
		version:     deps.Version,
	}, nil
}

// Start begins listening for HTTP connections.
//
// It builds the router and launches the HTTP listener in a background
// goroutine. The server can be stopped with Close().
//
// Parameters:
//   - ctx: Context for cancellation (not used for listener lifetime)
//
// Returns:
//   - error: If the server fails to start (port in use, etc.)
func (s *Server) Start(_ context.Context) error {
	router := s.buildRouter()

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           router,
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	go func() {
		var err error
		if s.cfg.TLS.Enabled {
			s.logger.Info("API server starting with TLS",
				"address", s.server.Addr,
				"cert", s.cfg.TLS.CertFile,
			)
			err = s.server.ListenAndServeTLS(s.cfg.TLS.CertFile, s.cfg.TLS.KeyFile)
		} else {
			err = s.server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Close gracefully shuts down the API server.
//
// It waits up to 10 seconds for in-flight requests to complete,
// then forcefully closes remaining connections.
//
// Returns:
//   - error: If shutdown encounters an error
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck verifies the API server is running and responsive.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//
// Returns:
//   - error: nil if healthy, error describing the issue otherwise
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	if s.server == nil {
		return fmt.Errorf("api server not started")
	}

	return nil
}
