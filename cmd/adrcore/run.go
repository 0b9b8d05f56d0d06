package main

import (
	"context"
	"fmt"

	"github.com/nerrad567/adr-core/migrations"

	"github.com/nerrad567/adr-core/internal/adr"
	"github.com/nerrad567/adr-core/internal/api"
	"github.com/nerrad567/adr-core/internal/dataset"
	"github.com/nerrad567/adr-core/internal/infrastructure/config"
	"github.com/nerrad567/adr-core/internal/infrastructure/database"
	"github.com/nerrad567/adr-core/internal/infrastructure/influxdb"
	"github.com/nerrad567/adr-core/internal/infrastructure/logging"
	"github.com/nerrad567/adr-core/internal/infrastructure/metrics"
	"github.com/nerrad567/adr-core/internal/infrastructure/mqtt"
	"github.com/nerrad567/adr-core/internal/instrument"
	"github.com/nerrad567/adr-core/internal/peripheral"
	"github.com/nerrad567/adr-core/internal/state"
)

// run is the application logic of the run command, separated from main
// for testability.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//   - configPath: YAML configuration file
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context, configPath string) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting ADR core",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath, "units", len(cfg.Units))

	log = logging.New(cfg.Logging, version)
	defer log.Close() //nolint:errcheck // best effort on exit
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	db, err := database.Open(ctx, cfg.Database)
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

	mqttClient, err := mqtt.Connect(ctx, cfg.MQTT)
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
	mqttClient.OnConnect(func() {
		log.Info("MQTT reconnected")
	})
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"client_id", cfg.MQTT.Broker.ClientID,
	)

	qos := byte(cfg.MQTT.QoS)
	requester, err := mqtt.NewRequester(mqttClient, qos)
	if err != nil {
		return fmt.Errorf("creating MQTT requester: %w", err)
	}
	defer requester.Close()

	directory, err := peripheral.NewMQTTDirectory(mqttClient, qos, requester)
	if err != nil {
		return fmt.Errorf("creating peripheral directory: %w", err)
	}
	directory.SetLogger(log)

	// InfluxDB (optional) mirrors every recorded sample.
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
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)
	} else {
		log.Info("InfluxDB disabled")
	}

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}

	hub := api.NewHub(cfg.WebSocket, log)
	go hub.Run(ctx)

	units := adr.NewManager()
	defer func() {
		log.Info("stopping controllers")
		if closeErr := units.Close(); closeErr != nil {
			log.Error("error stopping controllers", "error", closeErr)
		}
	}()

	w := wiring{
		source:    config.NewFileSource(configPath, cfg),
		directory: directory,
		caller:    requester,
		db:        db,
		influx:    influxClient,
		logSink:   state.NewSQLiteLogRepository(db.DB),
		notifiers: []adr.Notifier{adr.NewMQTTNotifier(mqttClient, log), hub},
		metrics:   m,
		log:       log,
	}
	for _, u := range cfg.Units {
		c, buildErr := w.controller(u)
		if buildErr != nil {
			return fmt.Errorf("unit %s: %w", u.Name, buildErr)
		}
		if addErr := units.Add(c); addErr != nil {
			return addErr
		}
	}

	// A newly announced service may provide an orphaned peripheral.
	directory.OnAnnounce(func(service string) {
		log.Debug("service announced", "service", service)
		units.TriggerReconcile()
	})

	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	if cfg.API.Enabled {
		deps := api.Deps{
			Config:      cfg.API,
			WS:          cfg.WebSocket,
			Security:    cfg.Security,
			Metrics:     cfg.Metrics,
			Logger:      log,
			Units:       units,
			ExternalHub: hub,
			Version:     version,
		}
		if m != nil {
			deps.MetricsHandler = m.Handler()
		}
		srv, srvErr := api.New(deps)
		if srvErr != nil {
			return fmt.Errorf("creating API server: %w", srvErr)
		}
		if startErr := srv.Start(ctx); startErr != nil {
			return fmt.Errorf("starting API server: %w", startErr)
		}
		defer func() {
			if closeErr := srv.Close(); closeErr != nil {
				log.Error("error closing API server", "error", closeErr)
			}
		}()
	} else {
		log.Info("API disabled")
	}

	if err := units.Start(ctx); err != nil {
		return err
	}
	log.Info("initialisation complete, waiting for shutdown signal", "units", units.Names())

	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")
	return nil
}

// wiring holds the process-wide dependencies every controller shares.
type wiring struct {
	source    config.Source
	directory peripheral.Directory
	caller    instrument.Caller
	db        *database.DB
	influx    *influxdb.Client
	logSink   state.LogSink
	notifiers []adr.Notifier
	metrics   *metrics.Metrics
	log       *logging.Logger
}

// controller builds the controller of one unit: its peripheral registry,
// the remote facade resolving through it and its dataset sink.
func (w wiring) controller(u config.UnitConfig) (*adr.Controller, error) {
	log := w.log.With("unit", u.Name)

	registry := peripheral.NewRegistry(u.Name, w.source, w.directory)
	registry.SetLogger(log)

	var mirrors []dataset.Sink
	if w.influx != nil {
		mirrors = append(mirrors, influxdb.NewDatasetMirror(w.influx, u.Name))
	}
	sink := dataset.NewTee(dataset.NewSQLiteStore(w.db.DB, u.Name), mirrors...)
	sink.SetLogger(log)

	return adr.New(adr.Deps{
		Unit:        u,
		Source:      w.source,
		Facade:      instrument.NewRemote(registry, w.caller, u.CallTimeout),
		Peripherals: registry,
		Sink:        sink,
		LogSink:     w.logSink,
		Notifiers:   w.notifiers,
		Metrics:     w.metrics,
		Logger:      log,
	})
}

// healthCheck verifies all infrastructure connections are healthy.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - db: Database connection to check
//   - mqttClient: MQTT client to check
//   - influxClient: InfluxDB client to check (may be nil if disabled)
//
// Returns:
//   - error: First health check failure, or nil if all healthy
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
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

	return nil
}
