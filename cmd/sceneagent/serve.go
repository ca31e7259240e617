package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/nerrad567/sceneagent/internal/agent"
	"github.com/nerrad567/sceneagent/internal/api"
	"github.com/nerrad567/sceneagent/internal/audit"
	"github.com/nerrad567/sceneagent/internal/bridge"
	"github.com/nerrad567/sceneagent/internal/directive"
	"github.com/nerrad567/sceneagent/internal/infrastructure/config"
	"github.com/nerrad567/sceneagent/internal/infrastructure/database"
	"github.com/nerrad567/sceneagent/internal/infrastructure/influxdb"
	"github.com/nerrad567/sceneagent/internal/infrastructure/logging"
	"github.com/nerrad567/sceneagent/internal/infrastructure/mqtt"
	"github.com/nerrad567/sceneagent/internal/ledger"
	"github.com/nerrad567/sceneagent/internal/process"
	"github.com/nerrad567/sceneagent/internal/queue"
	"github.com/nerrad567/sceneagent/internal/snapshot"
	"github.com/nerrad567/sceneagent/migrations"
)

// runCmd is the long-running agent.
func runCmd(ctx context.Context, args []string, stdout io.Writer) error {
	cmd := newCommand("run", stdout)
	if err := cmd.parse(args); err != nil {
		return err
	}

	log := logging.Default()
	log.Info("starting sceneagent", "version", version, "commit", commit, "build_date", date)

	cfg, path, err := cmd.load()
	if err != nil {
		return err
	}
	log = logging.New(cfg.Logging, version)
	defer log.Close()
	log.Info("configuration loaded", "path", path, "bridge", cfg.Bridge.Dir)

	return serve(ctx, cfg, log)
}

// serve wires every component and runs the orchestration loop until ctx
// is cancelled or a STOP signal arrives. Deferred closes run in reverse
// start order.
func serve(ctx context.Context, cfg *config.Config, log *logging.Logger) error { //nolint:gocognit,gocyclo // linear wiring of optional components
	transport := bridge.New(cfg.Bridge)
	paths := transport.Paths()
	blocks := queue.New(paths.Queue)
	reader := snapshot.NewReader(paths.Scene, paths.Selection)
	reader.SetLogger(log)
	compiler := directive.NewCompiler(log)

	orch, err := agent.New(transport, blocks, reader, compiler, agent.OptionsFrom(cfg), log)
	if err != nil {
		return fmt.Errorf("creating orchestrator: %w", err)
	}

	checks := map[string]api.HealthChecker{}

	// Engine supervisor (optional)
	var engine *process.Supervisor
	if cfg.Engine.Managed {
		engine = process.NewSupervisor(process.FromEngine(cfg.Engine))
		engine.SetLogger(log)
		if startErr := engine.Start(ctx); startErr != nil {
			return fmt.Errorf("starting engine: %w", startErr)
		}
		defer func() {
			log.Info("stopping engine")
			if stopErr := engine.Stop(); stopErr != nil {
				log.Error("error stopping engine", "error", stopErr)
			}
		}()
	}

	// Dispatch ledger and audit trail (optional)
	var repo ledger.Repository
	var auditLog audit.Repository
	var recorder *audit.Recorder
	if cfg.Database.Enabled {
		db, openErr := database.Open(ctx, cfg.Database)
		if openErr != nil {
			return fmt.Errorf("opening database: %w", openErr)
		}
		defer func() {
			log.Info("closing database")
			if closeErr := db.Close(); closeErr != nil {
				log.Error("error closing database", "error", closeErr)
			}
		}()
		if migrateErr := db.Migrate(ctx, migrations.FS); migrateErr != nil {
			return fmt.Errorf("running migrations: %w", migrateErr)
		}
		repo = ledger.NewSQLiteRepository(db.DB)
		orch.SetLedger(repo)
		checks["database"] = db

		auditLog = audit.NewSQLiteRepository(db.DB)
		recorder = audit.NewRecorder(auditLog, log)
		auditCtx, stopAudit := context.WithCancel(context.Background())
		auditDone := make(chan struct{})
		go func() {
			recorder.Run(auditCtx)
			close(auditDone)
		}()
		// Runs before the database close above.
		defer func() {
			stopAudit()
			<-auditDone
		}()
		log.Info("dispatch ledger ready", "path", db.Path())
	}

	// MQTT events and remote control (optional, degrades on failure)
	if cfg.MQTT.Enabled {
		client, connErr := mqtt.Connect(cfg.MQTT)
		if connErr != nil {
			log.Warn("MQTT unavailable, continuing without events", "error", connErr)
		} else {
			client.SetLogger(log)
			defer func() {
				log.Info("disconnecting from MQTT")
				if closeErr := client.Close(); closeErr != nil {
					log.Error("error closing MQTT", "error", closeErr)
				}
			}()
			orch.SetPublisher(client)
			checks["mqtt"] = client
			if cfg.MQTT.RemoteControl {
				if subErr := client.ForwardControl(recorder.Signals(transport, audit.SourceMQTT)); subErr != nil {
					log.Warn("remote control subscription failed", "error", subErr)
				}
			}
			log.Info("MQTT connected", "broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
				"prefix", client.Topics().Prefix())
		}
	}

	// InfluxDB metrics (optional, degrades on failure)
	if cfg.InfluxDB.Enabled {
		influx, connErr := influxdb.Connect(cfg.InfluxDB)
		switch {
		case connErr != nil:
			log.Warn("InfluxDB unavailable, continuing without metrics", "error", connErr)
		default:
			influx.SetOnError(func(err error) {
				log.Error("InfluxDB write error", "error", err)
			})
			defer func() {
				log.Info("closing InfluxDB connection")
				if closeErr := influx.Close(); closeErr != nil {
					log.Error("error closing InfluxDB", "error", closeErr)
				}
			}()
			orch.SetMetrics(influx)
			checks["influxdb"] = influx
			log.Info("InfluxDB connected", "url", cfg.InfluxDB.URL, "bucket", cfg.InfluxDB.Bucket)
		}
	}

	// HTTP API and WebSocket events (optional)
	if cfg.API.Enabled {
		hub := api.NewHub(cfg.WebSocket, log)
		go hub.Run(ctx)
		orch.SetHub(hub)

		deps := api.Deps{
			Config:    cfg.API,
			WS:        cfg.WebSocket,
			Logger:    log,
			Agent:     orch,
			Queue:     blocks,
			Control:   transport,
			Compiler:  compiler,
			Snapshots: reader,
			Channel:   transport,
			Audit:     recorder,
			Checks:    checks,
			Hub:       hub,
			Version:   version,
		}
		if repo != nil {
			deps.Ledger = repo
		}
		if auditLog != nil {
			deps.AuditLog = auditLog
		}
		if engine != nil {
			deps.Engine = engine
		}
		srv, newErr := api.New(deps)
		if newErr != nil {
			return fmt.Errorf("creating API server: %w", newErr)
		}
		if startErr := srv.Start(ctx); startErr != nil {
			return fmt.Errorf("starting API server: %w", startErr)
		}
		defer func() {
			if closeErr := srv.Close(); closeErr != nil {
				log.Error("error closing API server", "error", closeErr)
			}
		}()
	}

	log.Info("initialisation complete", "queue", paths.Queue, "control", paths.Control)
	if err := orch.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("orchestrator: %w", err)
	}

	st := orch.Status()
	log.Info("sceneagent stopped", "state", st.State, "sent", st.Sent, "discarded", st.Discarded, "timeouts", st.Timeouts)
	return nil
}
