package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/udisondev/deepwatch/internal/ai"
	"github.com/udisondev/deepwatch/internal/config"
	"github.com/udisondev/deepwatch/internal/db"
	"github.com/udisondev/deepwatch/internal/game"
	"github.com/udisondev/deepwatch/internal/gateway"
	"github.com/udisondev/deepwatch/internal/maprender"
	"github.com/udisondev/deepwatch/internal/model"
	"github.com/udisondev/deepwatch/internal/notify"
	"github.com/udisondev/deepwatch/internal/persistence/filestore"
	"github.com/udisondev/deepwatch/internal/persistence/indexdb"
	"github.com/udisondev/deepwatch/internal/persistence/snapshot"
	"github.com/udisondev/deepwatch/internal/world"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("shutting down", "signal", sig)
		cancel()
	}()

	if err := run(ctx); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// Load config FIRST to determine log level
	cfgPath := config.Path()
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logLevel := parseLogLevel(cfg.LogLevel)
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})))
	ai.EnableDebugLogging(logLevel == slog.LevelDebug)

	slog.Info("deepwatch server starting",
		"config", cfgPath,
		"log_level", cfg.LogLevel,
		"world", fmt.Sprintf("%dx%d", cfg.World.XLimit, cfg.World.YLimit),
		"tick_interval", cfg.TickInterval)

	seed := cfg.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	rng := rand.New(rand.NewPCG(seed, seed>>1))

	puzzles := make([]model.Puzzle, 0, len(cfg.Puzzles))
	for _, p := range cfg.Puzzles {
		puzzles = append(puzzles, model.Puzzle{Name: p.Name, Answers: p.Answers})
	}
	state := game.NewState(
		world.NewGrid(cfg.World.XLimit, cfg.World.YLimit, rng),
		ai.Standard(),
		model.NewPuzzleBank(puzzles),
		rng,
	)

	store, closeStore, err := openStore(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	defer closeStore()

	var index game.Index
	if cfg.IndexDB != "" {
		idx, err := indexdb.OpenSQLite(cfg.IndexDB)
		if err != nil {
			return fmt.Errorf("opening tick index: %w", err)
		}
		defer func() {
			if err := idx.Close(); err != nil {
				slog.Warn("closing tick index", "error", err)
			}
		}()
		index = idx
		slog.Info("tick index opened", "path", cfg.IndexDB)
	}

	var hub *gateway.Hub
	notifiers := notify.Multi{notify.NewLog(nil)}
	if cfg.Gateway.Enabled {
		hub = gateway.NewHub(nil, gateway.Options{
			ControlToken: cfg.Gateway.ControlToken,
			QueueSize:    cfg.Gateway.QueueSize,
		})
		notifiers = append(notifiers, notify.NewLimited(hub, cfg.Notify.RatePerSecond, cfg.Notify.Burst))
	}

	opts := game.Options{
		Interval:      cfg.TickInterval,
		CommsCooldown: cfg.Comms.Cooldown,
		Garble:        cfg.Comms.Garble,
		Backend:       cfg.Storage.Backend,
	}
	engine := game.NewEngine(state, opts, notifiers, store, index)

	var maps game.MapPublisher
	if cfg.MapService.Domain != "" {
		maps = maprender.NewClient(cfg.MapService.Domain, cfg.MapService.Token, cfg.MapService.Timeout)
	}
	service := game.NewService(engine, maps)

	switch err := engine.Load(ctx, snapshot.PartAll, 0); {
	case err == nil:
		slog.Info("resumed from latest save", "tick", engine.Tick())
	case errors.Is(err, game.ErrNoSave):
		slog.Info("no save found, starting a fresh world")
	default:
		return fmt.Errorf("loading latest save: %w", err)
	}

	if cfg.AutoStart {
		engine.Start()
		slog.Info("game loop started")
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("starting turn loop", "interval", cfg.TickInterval)
		if err := engine.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("turn loop: %w", err)
		}
		return nil
	})

	if hub != nil {
		hub.SetService(service)
		srv := gateway.NewServer(hub, cfg.Gateway.Addr())
		g.Go(func() error {
			slog.Info("starting gateway", "address", cfg.Gateway.Addr())
			if err := srv.Run(gctx); err != nil {
				return fmt.Errorf("gateway: %w", err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	// Final save so a restart resumes where we stopped.
	saveCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := engine.Save(saveCtx); err != nil {
		slog.Warn("final save", "error", err)
	}
	return nil
}

// openStore opens the configured snapshot backend. The returned func
// releases it.
func openStore(ctx context.Context, cfg config.StorageConfig) (game.Store, func(), error) {
	switch cfg.Backend {
	case config.BackendPostgres:
		dsn := cfg.Database.DSN()
		database, err := db.New(ctx, dsn)
		if err != nil {
			return nil, nil, fmt.Errorf("connecting to database: %w", err)
		}
		slog.Info("database connected")

		if err := db.RunMigrations(ctx, dsn); err != nil {
			database.Close()
			return nil, nil, fmt.Errorf("running migrations: %w", err)
		}
		slog.Info("database migrations applied")
		return db.NewSnapshotRepository(database.Pool()), database.Close, nil

	default:
		fs, err := filestore.New(cfg.SaveDir)
		if err != nil {
			return nil, nil, fmt.Errorf("opening save dir: %w", err)
		}
		slog.Info("file store opened", "dir", fs.Dir())
		return fs, func() {}, nil
	}
}

// parseLogLevel converts string log level to slog.Level.
// Defaults to Info if invalid or empty.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
