// Device Catalogue
//
// devicecatalog loads a JSON catalogue of mobile devices once, validates
// every record against the catalogue rules and serves the valid subset over
// a read-only HTTP API. Load outcomes are optionally recorded in a SQLite
// audit log, published over MQTT and written to InfluxDB.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/nerrad567/device-catalog/internal/api"
	"github.com/nerrad567/device-catalog/internal/audit"
	"github.com/nerrad567/device-catalog/internal/device"
	"github.com/nerrad567/device-catalog/internal/infrastructure/config"
	"github.com/nerrad567/device-catalog/internal/infrastructure/database"
	"github.com/nerrad567/device-catalog/internal/infrastructure/influxdb"
	"github.com/nerrad567/device-catalog/internal/infrastructure/logging"
	"github.com/nerrad567/device-catalog/internal/infrastructure/mqtt"
	"github.com/nerrad567/device-catalog/internal/reporting"
	"github.com/nerrad567/device-catalog/migrations"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

// configPathEnv overrides defaultConfigPath.
const configPathEnv = "DEVICECATALOG_CONFIG"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the application logic, separated from main for testability.
// It returns nil on clean shutdown.
func run(ctx context.Context) error { //nolint:gocognit,gocyclo // linear startup sequence
	log := logging.Default()
	log.Info("starting device catalogue",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Optional audit database
	var db *database.DB
	var auditRepo *audit.SQLiteRepository
	if cfg.Database.Enabled {
		db, err = database.Open(ctx, database.Config{
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

		if migrateErr := db.Migrate(ctx, migrations.FS); migrateErr != nil {
			return fmt.Errorf("running migrations: %w", migrateErr)
		}
		log.Info("database migrations complete")

		auditRepo = audit.NewSQLiteRepository(db.DB)
	} else {
		log.Info("audit database disabled")
	}

	// Optional MQTT
	var mqttClient *mqtt.Client
	if cfg.MQTT.Enabled {
		mqttClient, err = mqtt.Connect(cfg.MQTT)
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
			"topic_prefix", mqttClient.Topics().Prefix(),
		)

		mqttClient.SetOnConnect(func() {
			log.Info("MQTT reconnected")
		})
		mqttClient.SetOnDisconnect(func(err error) {
			log.Warn("MQTT disconnected", "error", err)
		})
	} else {
		log.Info("MQTT disabled")
	}

	// Optional InfluxDB
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(ctx, cfg.InfluxDB)
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

	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}

	// Catalogue
	store := device.NewStore(device.FileSource{Path: cfg.Catalog.SourcePath})
	store.SetLogger(log.With("component", "store"))

	reporter := reporting.New(reportingDeps(log, auditRepo, mqttClient, influxClient))
	preloadCatalog(ctx, store, reporter, log)

	// HTTP API
	server, err := api.New(apiDeps(cfg, log, store, auditRepo, mqttClient, db))
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	log.Info("initialisation complete, waiting for shutdown signal")

	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls run in reverse order:
	// API server, InfluxDB, MQTT, database.

	log.Info("device catalogue stopped")
	return nil
}

// preloadCatalog performs the one-time load at startup and reports the
// outcome. A failed load is not fatal: the API answers 503 for catalogue
// routes and the error is recorded.
func preloadCatalog(ctx context.Context, store *device.Store, reporter *reporting.Reporter, log *logging.Logger) {
	if err := store.Preload(ctx); err != nil {
		log.Error("device catalogue unavailable", "source", store.SourceName(), "error", err)
		_ = reporter.PublishFailed(ctx, store.SourceName(), err) //nolint:errcheck // Reporter logs sink failures
		return
	}

	rep, err := store.Report(ctx)
	if err != nil {
		log.Error("building catalogue report", "error", err)
		return
	}
	if len(rep.Invalid) > 0 {
		log.Warn("invalid device records excluded",
			"count", len(rep.Invalid),
			"violations", rep.ViolationCounts(),
		)
	}
	_ = reporter.PublishLoaded(ctx, rep) //nolint:errcheck // Reporter logs sink failures
}

// reportingDeps wires only the sinks that are configured, so no typed nil
// pointer ends up behind a non-nil interface.
func reportingDeps(log *logging.Logger, auditRepo *audit.SQLiteRepository, mqttClient *mqtt.Client, influxClient *influxdb.Client) reporting.Deps {
	deps := reporting.Deps{Logger: log.With("component", "reporting")}
	if auditRepo != nil {
		deps.Audit = auditRepo
	}
	if mqttClient != nil {
		deps.Events = mqttClient
		deps.Topics = mqttClient.Topics()
	}
	if influxClient != nil {
		deps.Metrics = influxClient
	}
	return deps
}

// apiDeps builds the API dependencies, again leaving unconfigured
// interfaces nil.
func apiDeps(cfg *config.Config, log *logging.Logger, store *device.Store, auditRepo *audit.SQLiteRepository, mqttClient *mqtt.Client, db *database.DB) api.Deps {
	deps := api.Deps{
		Config:  cfg.API,
		Logger:  log.With("component", "api"),
		Catalog: store,
		Version: version,
	}
	if auditRepo != nil {
		deps.Audit = auditRepo
	}
	if mqttClient != nil {
		deps.MQTT = mqttClient
	}
	if db != nil {
		deps.DB = db
	}
	return deps
}

// getConfigPath returns the configuration file path.
// Uses DEVICECATALOG_CONFIG if set, otherwise the default.
func getConfigPath() string {
	if path := os.Getenv(configPathEnv); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthCheck verifies every enabled infrastructure connection.
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if db != nil {
		if err := db.HealthCheck(ctx); err != nil {
			return fmt.Errorf("database: %w", err)
		}
	}
	if mqttClient != nil {
		if err := mqttClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("mqtt: %w", err)
		}
	}
	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}
	return nil
}
