// ledd exposes a single GPIO-driven LED as a device node on the MQTT bus
// and, optionally, over HTTP.
//
// Writing "1" to the node's write topic lights the LED, "0" turns it off,
// and reads report "ON\n" or "OFF\n". On shutdown the LED is forced off
// and every resource is handed back in reverse order of acquisition.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/nerrad567/gray-logic-ledd/migrations"

	"github.com/nerrad567/gray-logic-ledd/internal/api"
	"github.com/nerrad567/gray-logic-ledd/internal/audit"
	"github.com/nerrad567/gray-logic-ledd/internal/devnode"
	"github.com/nerrad567/gray-logic-ledd/internal/endpoint"
	"github.com/nerrad567/gray-logic-ledd/internal/gpio"
	"github.com/nerrad567/gray-logic-ledd/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-ledd/internal/infrastructure/database"
	"github.com/nerrad567/gray-logic-ledd/internal/infrastructure/influxdb"
	"github.com/nerrad567/gray-logic-ledd/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-ledd/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-logic-ledd/internal/led"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

const defaultConfigPath = "configs/config.yaml"

// finalizeTimeout bounds teardown once the shutdown signal arrives.
const finalizeTimeout = 10 * time.Second

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run wires the daemon together and blocks until ctx is cancelled.
func run(ctx context.Context) error {
	log := logging.Default()
	log.Info("starting ledd",
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

	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database ready", "path", cfg.Database.Path)

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
	mqttClient.SetLogger(log.Component("mqtt"))
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"client_id", cfg.MQTT.Broker.ClientID,
	)

	influxClient, err := connectInflux(ctx, cfg, log)
	if err != nil {
		return err
	}
	if influxClient != nil {
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
	}

	dev := cfg.Device
	pin := gpio.Pin{Chip: dev.Chip, Offset: dev.Pin}
	events := audit.NewSQLiteRepository(db.DB)
	recorder := audit.NewRecorder(events, dev.Name, "ledd", log.Component("audit"))

	line := gpio.NewCdev(dev.Consumer)
	ctrl := led.NewController(line)
	observeLevel(ctrl, cfg, pin, mqttClient, influxClient, recorder, log)

	registry := devnode.NewRegistry(
		devnode.NewNumberStore(db, dev.Major),
		mqttClient,
		devnode.Options{
			Topics:   mqttClient.Topics(),
			QoS:      byte(cfg.MQTT.QoS), //nolint:gosec // validated to 0-2
			ReadSize: dev.ReadSize,
		},
	)
	registry.SetLogger(log.Component("devnode"))

	manager := endpoint.NewManager(endpoint.Config{
		Name:   dev.Name,
		Driver: dev.Driver,
		Class:  dev.Class,
		Pin:    pin,
	}, registry, line, ctrl)
	manager.SetLogger(log.Component("endpoint"))

	if err := manager.Initialize(ctx); err != nil {
		return fmt.Errorf("initialising endpoint: %w", err)
	}
	recorder.Lifecycle(ctx, audit.ActionInitialized, map[string]any{
		"chip":   dev.Chip,
		"offset": dev.Pin,
	})
	defer finalize(manager, recorder, log)

	if cfg.API.Enabled {
		checks := map[string]api.HealthChecker{
			"database": db,
			"mqtt":     mqttClient,
		}
		if influxClient != nil {
			checks["influxdb"] = influxClient
		}

		server, err := api.New(api.Deps{
			Config:   cfg.API,
			Logger:   log.Component("api"),
			Endpoint: manager,
			Events:   events,
			Checks:   checks,
			MQTT:     mqttClient,
			DB:       db,
			ReadSize: dev.ReadSize,
			Version:  version,
		})
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
	} else {
		log.Info("API disabled")
	}

	log.Info("initialisation complete, waiting for shutdown signal",
		"device", dev.Name,
		"pin", pin.String(),
	)

	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred calls run in reverse order: API, endpoint finalize,
	// InfluxDB, MQTT, database.
	return nil
}

// connectInflux returns nil without error when InfluxDB is disabled.
func connectInflux(ctx context.Context, cfg *config.Config, log *logging.Logger) (*influxdb.Client, error) {
	client, err := influxdb.Connect(ctx, cfg.InfluxDB)
	if errors.Is(err, influxdb.ErrDisabled) {
		log.Info("InfluxDB disabled")
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("connecting to InfluxDB: %w", err)
	}

	client.SetOnError(func(err error) {
		log.Error("InfluxDB write error", "error", err)
	})
	log.Info("InfluxDB connected",
		"url", cfg.InfluxDB.URL,
		"org", cfg.InfluxDB.Org,
		"bucket", cfg.InfluxDB.Bucket,
	)
	return client, nil
}

// observeLevel fans every accepted level change out to the retained MQTT
// state topic, the event history and, when enabled, InfluxDB.
func observeLevel(
	ctrl *led.Controller,
	cfg *config.Config,
	pin gpio.Pin,
	mqttClient *mqtt.Client,
	influxClient *influxdb.Client,
	recorder *audit.Recorder,
	log *logging.Logger,
) {
	stateTopic := mqttClient.Topics().State(cfg.Device.Name)
	ctrl.OnChange(func(on bool) {
		if err := mqttClient.PublishRetained(stateTopic, []byte(endpoint.StatusText(on))); err != nil {
			log.Warn("publishing LED state failed", "topic", stateTopic, "error", err)
		}
	})

	ctrl.OnChange(recorder.LevelChanged)

	if influxClient != nil {
		ctrl.OnChange(func(on bool) {
			influxClient.WriteLevel(influxdb.LevelSample{
				Device: cfg.Device.Name,
				Chip:   pin.Chip,
				Offset: pin.Offset,
				On:     on,
				At:     time.Now(),
			})
		})
	}
}

// finalize tears the endpoint down on a fresh context; the run context is
// already cancelled by the time it is called.
func finalize(manager *endpoint.Manager, recorder *audit.Recorder, log *logging.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), finalizeTimeout)
	defer cancel()

	log.Info("finalising endpoint")
	err := manager.Finalize(ctx)
	details := map[string]any{}
	if err != nil {
		log.Error("endpoint teardown incomplete", "error", err)
		details["error"] = err.Error()
	}
	recorder.Lifecycle(ctx, audit.ActionFinalized, details)
}

// getConfigPath returns LEDD_CONFIG if set, otherwise the default path.
func getConfigPath() string {
	if path := os.Getenv("LEDD_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}
