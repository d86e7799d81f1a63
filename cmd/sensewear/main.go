// SenseWear Core - Wearable Fleet Platform
//
// This is the main entry point for the SenseWear Core application, the
// backend for a fleet of alertme wearables and senseme proximity
// sensors: provisioning, credentials, proximity alert dispatch, and
// sensor telemetry.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/sensewear/sensewear-core/migrations"

	"github.com/sensewear/sensewear-core/internal/agent"
	"github.com/sensewear/sensewear-core/internal/api"
	"github.com/sensewear/sensewear-core/internal/appkey"
	"github.com/sensewear/sensewear-core/internal/auth"
	"github.com/sensewear/sensewear-core/internal/authz"
	"github.com/sensewear/sensewear-core/internal/credential"
	"github.com/sensewear/sensewear-core/internal/enrollment"
	"github.com/sensewear/sensewear-core/internal/infrastructure/config"
	"github.com/sensewear/sensewear-core/internal/infrastructure/database"
	"github.com/sensewear/sensewear-core/internal/infrastructure/influxdb"
	"github.com/sensewear/sensewear-core/internal/infrastructure/logging"
	"github.com/sensewear/sensewear-core/internal/infrastructure/mqtt"
	"github.com/sensewear/sensewear-core/internal/operation"
	"github.com/sensewear/sensewear-core/internal/provisioning"
	"github.com/sensewear/sensewear-core/internal/sensor"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

// senseDeviceType is the device type of the proximity sensors whose
// telemetry the core ingests alongside the wearables'.
const senseDeviceType = "senseme"

func main() {
	issueToken := flag.Bool("token", false, "issue an API access token and exit")
	tokenUser := flag.String("user", "", "username for -token")
	tokenRole := flag.String("role", "user", "role for -token (user or admin)")
	flag.Parse()

	if *issueToken {
		if err := runTokenCommand(*tokenUser, *tokenRole); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// runTokenCommand mints an API access token for operator tooling.
// Tokens are signed with the deployment's JWT secret, so they are only
// valid against the instance sharing this configuration.
func runTokenCommand(username, role string) error {
	if !auth.IsValidUsername(username) {
		return fmt.Errorf("invalid username %q", username)
	}
	callerRole := auth.Role(role)
	if !auth.IsValidRole(callerRole) {
		return fmt.Errorf("invalid role %q (want user or admin)", role)
	}

	cfg, err := config.Load(getConfigPath())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	token, err := auth.GenerateAccessToken(auth.Caller{
		Username: username,
		Tenant:   cfg.Provisioning.Tenant,
		Role:     callerRole,
	}, cfg.Security.JWT.Secret, cfg.Security.JWT.AccessTokenTTL)
	if err != nil {
		return fmt.Errorf("issuing token: %w", err)
	}

	fmt.Println(token)
	return nil
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting SenseWear Core",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Open database
	db, err := database.Open(ctx, database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "path", cfg.Database.Path)

	// Run migrations
	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	// Enrollment stores and registrar
	deviceRepo := enrollment.NewSQLiteRepository(db.DB)
	pairingRepo := enrollment.NewSQLitePairingRepository(db.DB)
	operationRepo := operation.NewSQLiteRepository(db.DB)

	registrar := enrollment.NewRegistrar(deviceRepo)
	registrar.SetLogger(log)

	// Connect to MQTT broker
	mqttClient, err := mqtt.Connect(cfg.MQTT)
	if err != nil {
		return fmt.Errorf("connecting to MQTT: %w", err)
	}
	defer func() {
		log.Info("disconnecting from MQTT")
		if closeErr := mqttClient.Close(); closeErr != nil {
			log.Error("error closing MQTT", "error", closeErr)
		}
	}()
	mqttClient.SetLogger(log)
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"client_id", cfg.MQTT.Broker.ClientID,
	)

	mqttClient.SetOnConnect(func() {
		log.Info("MQTT reconnected")
	})
	mqttClient.SetOnDisconnect(func(err error) {
		log.Warn("MQTT disconnected", "error", err)
	})

	// Connect to InfluxDB (optional); without it the core still
	// provisions and dispatches, but serves no sensor history.
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)

		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
	} else {
		log.Info("InfluxDB disabled")
	}

	// Telemetry ingestion: agents publish readings to
	// {tenant}/{device_type}/{device_id}/{sensor_type}.
	var planner api.ReadingsPlanner
	if influxClient != nil {
		ingestor := sensor.NewIngestor(influxClient)
		ingestor.SetLogger(log)

		qos := byte(cfg.MQTT.QoS)
		tenant := cfg.Provisioning.Tenant
		for _, deviceType := range []string{cfg.Provisioning.DeviceType, senseDeviceType} {
			topic := mqtt.Topics{}.AllDeviceData(tenant, deviceType)
			if subErr := mqttClient.Subscribe(topic, qos, ingestor.Handle); subErr != nil {
				return fmt.Errorf("subscribing to telemetry: %w", subErr)
			}
			log.Info("telemetry subscription active", "topic", topic)
		}

		planner = sensor.NewPlanner(influxClient)
	}

	// Provisioning chain: application keys, device credentials, agent
	// bundles.
	keyCache := appkey.NewCache(appkey.NewLocalIssuer())
	creds := credential.NewIssuer(credential.NewJWTIssuer(cfg.Security.JWT.Secret))
	packager := agent.NewPackager(cfg.Provisioning.AgentTemplateDir, cfg.Provisioning.BundleWorkDir)

	brokerURL := fmt.Sprintf("tcp://%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port)
	provisioner := provisioning.NewService(registrar, keyCache, creds, packager, provisioning.Config{
		DeviceType:  cfg.Provisioning.DeviceType,
		Tenant:      cfg.Provisioning.Tenant,
		MQTTBroker:  brokerURL,
		KeyValidity: cfg.KeyValidity(),
	})
	provisioner.SetLogger(log)

	// Command dispatch
	channel := operation.NewMQTTChannel(mqttClient, byte(cfg.MQTT.QoS))
	dispatcher := operation.NewDispatcher(deviceRepo, channel, operationRepo, cfg.Provisioning.Tenant)
	dispatcher.SetLogger(log)

	// API server
	apiServer, err := api.New(api.Deps{
		Config:       cfg.API,
		Security:     cfg.Security,
		Provisioning: cfg.Provisioning,
		Logger:       log,
		Devices:      deviceRepo,
		Pairings:     pairingRepo,
		Provisioner:  provisioner,
		Gate:         authz.NewGate(deviceRepo),
		Dispatcher:   dispatcher,
		Operations:   operationRepo,
		Planner:      planner,
		Version:      version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if startErr := apiServer.Start(ctx); startErr != nil {
		return fmt.Errorf("starting API server: %w", startErr)
	}
	defer func() {
		if closeErr := apiServer.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()
	log.Info("API server started", "address", fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port))

	// Verify all connections are healthy
	if err := healthCheck(ctx, db, mqttClient, influxClient, apiServer); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal")

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls will run in reverse order:
	// 1. API server
	// 2. InfluxDB (if enabled)
	// 3. MQTT
	// 4. Database

	log.Info("SenseWear Core stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses SENSEWEAR_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("SENSEWEAR_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthCheck verifies all infrastructure connections are healthy.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - db: Database connection to check
//   - mqttClient: MQTT client to check
//   - influxClient: InfluxDB client to check (may be nil if disabled)
//   - apiServer: API server to check
//
// Returns:
//   - error: First health check failure, or nil if all healthy
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client, apiServer *api.Server) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	if err := mqttClient.HealthCheck(ctx); err != nil {
		return fmt.Errorf("mqtt: %w", err)
	}

	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	if err := apiServer.HealthCheck(ctx); err != nil {
		return fmt.Errorf("api: %w", err)
	}

	return nil
}
