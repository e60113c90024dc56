/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the obligation engine server. Handles
  configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Parse command-line flags, load YAML config if given
  2. Initialize SQLite store and the holiday policy
  3. Wire the sync coordinator, reconciler, and trigger queue
  4. Apply a replicated policy document from sync settings, if any
  5. Run the startup sync pass and enqueue the startup reconciliation
  6. Start the nightly maintenance cron and the config file watcher
  7. Start the HTTP server with graceful shutdown

COMMAND-LINE FLAGS:
  -port    HTTP server port (default: 8080, config file overrides)
  -db      SQLite database path (default: obligations.db)
           Use ":memory:" for an in-memory database
  -config  Optional YAML config path, watched for live edits

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections (30s drain)
  2. Stop the cron, the config watcher, and the reconcile queue
  3. Close the database connection
  4. Exit

SEE ALSO:
  - config/config.go: YAML config shape and live reload
  - api/server.go: Router configuration
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/paywarden/obligation-engine/api"
	"github.com/paywarden/obligation-engine/config"
	"github.com/paywarden/obligation-engine/factory"
	"github.com/paywarden/obligation-engine/reconcile"
	reconcilemem "github.com/paywarden/obligation-engine/reconcile/memory"
	"github.com/paywarden/obligation-engine/schedule"
	"github.com/paywarden/obligation-engine/store/sqlite"
	"github.com/paywarden/obligation-engine/syncer"
	remotemem "github.com/paywarden/obligation-engine/syncer/remote"
)

func main() {
	// Flags
	port := flag.Int("port", 0, "HTTP server port (overrides config)")
	dbPath := flag.String("db", "", "SQLite database path (overrides config)")
	configPath := flag.String("config", "", "YAML config file, watched for changes")
	flag.Parse()

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Fatal().Err(err).Str("path", *configPath).Msg("failed to load config")
		}
		cfg = loaded
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *dbPath != "" {
		cfg.Database.Path = *dbPath
	}
	zerolog.SetGlobalLevel(cfg.LogLevel())

	// Store
	store, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize database")
	}
	defer store.Close()

	// Holiday policy
	policyCfg, err := cfg.PolicyConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid holiday policy")
	}
	policies := schedule.NewPolicyHolder(schedule.NewHolidayPolicy(policyCfg, schedule.WithLogger(log)))

	// Sync coordinator. The in-memory remote stands in until a real
	// backend is configured; the coordinator degrades to local-only
	// when remote is nil.
	remote := remotemem.NewMemory()
	coord := syncer.New(store, remote, log)

	// Calendar and notification stores. In-process fakes until platform
	// integrations are plugged in; reconciliation logic is identical.
	calendar := reconcilemem.NewCalendar()
	calendar.SetGranted(true)
	notifier := reconcilemem.NewNotifier()
	notifier.SetGranted(true)

	reconciler := reconcile.New(store, calendar, notifier, policies.Current, log)
	queue := reconcile.NewQueue(reconciler, log)
	queue.Start()
	defer queue.Stop()

	coord.OnChange(func() { queue.Enqueue(reconcile.TriggerDataChange) })

	// A policy document replicated from another device wins over the
	// local config file.
	applyReplicatedPolicy(context.Background(), coord, policies, log)

	if err := coord.SyncPass(context.Background()); err != nil {
		log.Warn().Err(err).Msg("startup sync pass failed")
	}
	queue.Enqueue(reconcile.TriggerStartup)

	// Nightly maintenance: recount installments and regenerate artifacts
	// so date-relative state rolls over without user activity.
	nightly := cron.New()
	if _, err := nightly.AddFunc(cfg.NightlySchedule, func() {
		if err := coord.SyncPass(context.Background()); err != nil {
			log.Warn().Err(err).Msg("nightly sync pass failed")
		}
		queue.Enqueue(reconcile.TriggerNightly)
	}); err != nil {
		log.Fatal().Err(err).Str("schedule", cfg.NightlySchedule).Msg("invalid nightly schedule")
	}
	nightly.Start()
	defer nightly.Stop()

	// Config live reload
	stopWatch := make(chan struct{})
	defer close(stopWatch)
	if *configPath != "" {
		go func() {
			err := config.Watch(*configPath, log, stopWatch, func(fresh config.Config) {
				freshPolicy, err := fresh.PolicyConfig()
				if err != nil {
					log.Warn().Err(err).Msg("reloaded config has invalid policy, keeping previous")
					return
				}
				policies.Swap(schedule.NewHolidayPolicy(freshPolicy, schedule.WithLogger(log)))
				queue.Enqueue(reconcile.TriggerPolicyChange)
			})
			if err != nil {
				log.Warn().Err(err).Msg("config watcher stopped")
			}
		}()
	}

	// HTTP server
	handler := api.NewHandler(store, coord, queue, policies, log)
	router := api.NewRouter(handler)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

// applyReplicatedPolicy adopts the holiday policy document pushed by
// another device through the sync settings channel.
func applyReplicatedPolicy(ctx context.Context, coord *syncer.Coordinator, policies *schedule.PolicyHolder, log zerolog.Logger) {
	settings, err := coord.PullSettings(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("settings pull failed")
		return
	}
	raw, ok := settings[api.SettingsKeyHolidayPolicy]
	if !ok || raw == "" {
		return
	}
	cfg, err := factory.ParsePolicy([]byte(raw))
	if err != nil {
		log.Warn().Err(err).Msg("replicated policy document invalid, keeping local")
		return
	}
	policies.Swap(schedule.NewHolidayPolicy(cfg, schedule.WithLogger(log)))
	log.Info().Msg("adopted replicated holiday policy")
}
