package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/udisondev/soundzones/internal/config"
	"github.com/udisondev/soundzones/internal/db"
	"github.com/udisondev/soundzones/internal/engine"
	"github.com/udisondev/soundzones/internal/region"
	"github.com/udisondev/soundzones/internal/tick"
	"github.com/udisondev/soundzones/internal/toggle"
)

const ConfigPath = "config/soundzones.yaml"

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
	cfgPath := ConfigPath
	if p := os.Getenv("SOUNDZONES_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.LoadServer(cfgPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Логи в stderr: stdin/stdout заняты протоколом событий
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	})))

	slog.Info("soundzones starting",
		"log_level", cfg.LogLevel,
		"tick_rate", cfg.TickRate,
		"driver", cfg.Database.Driver,
		"sounds", cfg.SoundsPath)

	stores, err := db.Open(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer stores.Close()

	state, err := stores.LoadState(ctx)
	if err != nil {
		return err
	}

	toggles := toggle.NewCache(stores.Toggles)
	toggles.Prime(state.OptedOut)

	loop := tick.NewLoop(cfg.TickRate)
	players := newDirectory()
	out := newOutput(os.Stdout)
	eng := engine.New(engine.Options{
		Scheduler:   loop,
		Sink:        newLogSink(out),
		Directory:   players,
		Permissions: players,
		Toggles:     toggles,
		Store:       stores.Regions,
		Limits: region.Limits{
			MaxNameLength: cfg.Regions.MaxNameLength,
			MaxPerCreator: cfg.Regions.MaxPerCreator,
			MaxVolume:     cfg.Regions.MaxVolume,
			GridSize:      cfg.Regions.GridSize,
		},
	})
	eng.LoadRegions(state.Regions)

	if err := reloadSounds(eng, cfg.SoundsPath); err != nil {
		return err
	}

	h := &host{engine: eng, loop: loop, players: players, toggles: toggles, out: out}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := loop.Run(gctx); err != nil && gctx.Err() == nil {
			return fmt.Errorf("tick loop: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		slog.Info("reading events from stdin")
		if err := h.feed(gctx, os.Stdin); err != nil {
			return fmt.Errorf("event feed: %w", err)
		}
		return nil
	})

	if cfg.ReloadInterval > 0 {
		g.Go(func() error {
			watchSounds(gctx, loop, eng, cfg.SoundsPath, cfg.ReloadInterval)
			return nil
		})
	}

	if err := g.Wait(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// reloadSounds reads the sound file and swaps the catalog if it changed.
// A missing file leaves the catalog empty.
func reloadSounds(eng *engine.Engine, path string) error {
	tree, digest, err := config.LoadTree(path)
	if errors.Is(err, fs.ErrNotExist) {
		slog.Warn("sound file not found, no sounds configured", "path", path)
		return nil
	}
	if err != nil {
		return fmt.Errorf("loading sounds: %w", err)
	}
	eng.Reload(tree, digest)
	return nil
}

// watchSounds polls the sound file; the swap itself runs on the tick timeline.
func watchSounds(ctx context.Context, loop *tick.Loop, eng *engine.Engine, path string, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			tree, digest, err := config.LoadTree(path)
			if err != nil {
				slog.Warn("sound reload failed, keeping previous catalog", "err", err)
				continue
			}
			loop.Submit(func() { eng.Reload(tree, digest) })
		}
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
