package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"dronesim/internal/api"
	"dronesim/pkg/airport"
	"dronesim/pkg/config"
	"dronesim/pkg/core"
	"dronesim/pkg/logging"
	"dronesim/pkg/probe"
	"dronesim/pkg/version"
)

const defaultConfigPath = "configs/dronesim.yaml"

func main() {
	// A missing .env is normal.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Failed to read .env: %v\n", err)
	}

	configPath := flag.String("config", envOr("DRONESIM_CONFIG", defaultConfigPath), "path to the YAML config")
	initConfig := flag.Bool("init-config", false, "write the default config and exit")
	headless := flag.Bool("headless", false, "run without the HTTP server")
	replay := flag.String("replay", "", "summarise a msgpack recording and exit")
	showVersion := flag.Bool("version", false, "print the version and exit")
	flag.Parse()

	switch {
	case *showVersion:
		fmt.Println(version.Version)
		return
	case *initConfig:
		if err := writeDefaultConfig(*configPath); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to generate config: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Config file generated: %s\n", *configPath)
		return
	case *replay != "":
		if err := printReplay(os.Stdout, *replay); err != nil {
			fmt.Fprintf(os.Stderr, "Replay failed: %v\n", err)
			os.Exit(1)
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *configPath, *headless); err != nil {
		fmt.Fprintf(os.Stderr, "CRITICAL ERROR: %v\n", err)
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func writeDefaultConfig(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return config.Save(path, config.DefaultConfig())
}

// app is the wired simulation.
type app struct {
	cfg        *config.Config
	fleet      *core.Fleet
	dispatcher *core.Dispatcher
	landings   *core.LandingJob
	sched      *core.Scheduler
	bus        *busExporter
}

// build spawns the fleet and registers the scheduler jobs.
func build(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app, error) {
	airports := airport.Set(airport.FromConfig(&cfg.World))
	registry := airport.NewRegistry(airports)
	fleet := core.NewFleet(cfg, registry, logger.With("component", "fleet"))
	for i, s := range cfg.World.Drones {
		if _, err := fleet.Spawn(s); err != nil {
			return nil, fmt.Errorf("drone %d: %w", i, err)
		}
	}

	dispatcher := core.NewDispatcher(fleet, cfg.Guidance, logger.With("component", "dispatcher"))
	for _, m := range cfg.World.Missions {
		dispatcher.Enqueue(m)
	}

	sched := core.NewScheduler(cfg.Sim, fleet, logger.With("component", "scheduler"))
	sched.AddJob(dispatcher.Job(cfg.Sim.DispatchInterval.Seconds()))
	landings := core.NewLandingJob(fleet, airports, cfg.Guidance.TaxiNearSpeed, logger.With("component", "landings"))
	sched.AddJob(landings)

	a := &app{cfg: cfg, fleet: fleet, dispatcher: dispatcher, landings: landings, sched: sched}
	bus, err := newBusExporter(ctx, &cfg.Bus, fleet, logger.With("component", "bus"))
	if err != nil {
		return nil, err
	}
	if bus != nil {
		sched.AddJob(bus.Job())
		a.bus = bus
	}
	return a, nil
}

func (a *app) Close() error {
	if a.bus == nil {
		return nil
	}
	return a.bus.Close()
}

func run(ctx context.Context, configPath string, headless bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, cleanupLogs, err := logging.Init(&cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer cleanupLogs()

	logger.Info("dronesim started", "version", version.Version, "config", configPath)

	if err := probe.AnalyzeResults(probe.Run(ctx, probe.Preflight(cfg)), logger); err != nil {
		return fmt.Errorf("pre-flight checks failed: %w", err)
	}

	a, err := build(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Error("Failed to close bus", "error", err)
		}
	}()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := a.sched.Run(gctx)
		logger.Info("Simulation ended",
			"ticks", a.sched.Ticks(),
			"elapsed", a.sched.Elapsed(),
			"flights", len(a.landings.Flights()),
			"failures", len(a.fleet.Failures()),
			"pending_missions", len(a.dispatcher.Pending()))
		return err
	})

	if !headless {
		srv := api.NewServer(cfg.Server.Address,
			api.NewDronesHandler(a.fleet),
			api.NewFlightsHandler(a.landings),
			api.NewMissionsHandler(a.dispatcher, len(cfg.World.Airports)),
			api.NewStreamHandler(a.fleet, time.Duration(cfg.Server.StreamInterval), logger.With("component", "stream")),
			logger.With("component", "api"))
		g.Go(func() error { return serve(gctx, srv, logger) })
	}

	return g.Wait()
}

// serve runs srv until ctx is done.
func serve(ctx context.Context, srv *http.Server, logger *slog.Logger) error {
	logger.Info("Starting server", "addr", srv.Addr)
	serverErrors := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutting down server...")
	case err := <-serverErrors:
		return fmt.Errorf("server failed: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
