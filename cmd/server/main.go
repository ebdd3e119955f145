package main

import (
	"context"
	"errors"
	"image"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/jo-hoe/pixelframe/internal/api"
	"github.com/jo-hoe/pixelframe/internal/blacklist"
	"github.com/jo-hoe/pixelframe/internal/config"
	"github.com/jo-hoe/pixelframe/internal/cursorstore"
	"github.com/jo-hoe/pixelframe/internal/framestate"
	"github.com/jo-hoe/pixelframe/internal/orchestrator"
	"github.com/jo-hoe/pixelframe/internal/palette"
	"github.com/jo-hoe/pixelframe/internal/scheduler"
	"github.com/jo-hoe/pixelframe/internal/source"
	"github.com/jo-hoe/pixelframe/internal/transform"
)

func getConfigPath() string {
	if configPath := os.Getenv("CONFIG_PATH"); configPath != "" {
		return configPath
	}
	cwd, err := os.Getwd()
	if err != nil {
		panic(err)
	}
	return filepath.Join(cwd, "config.toml")
}

func main() {
	configPath := getConfigPath()
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		slog.Error("failed to load config", "path", configPath, "error", err)
		os.Exit(1)
	}

	cursorStore, err := cursorstore.Open(cfg.CursorDatabase)
	if err != nil {
		slog.Error("failed to open cursor store", "error", err)
		os.Exit(1)
	}

	// blacklistStore is nil-able: a nil *blacklist.Store must never be
	// handed to a consumer as a non-nil source.Blacklist/api.BlacklistAdder,
	// so the interfaces below are only populated when Redis is configured.
	var blacklistStore *blacklist.Store
	var sourceBlacklist source.Blacklist
	var blacklistAdder api.BlacklistAdder
	if cfg.BlacklistRedisAddr != "" {
		blacklistStore = blacklist.NewStore(cfg.BlacklistRedisAddr)
		sourceBlacklist = blacklistStore
		blacklistAdder = blacklistStore
	}

	store := config.NewStore(configPath, cfg)
	binder := orchestrator.NewBinder(sourceBlacklist)
	orch := orchestrator.New(store, binder, cursorStore, sourceBlacklist)

	reconciler := &scheduler.Reconciler{Renderer: orch, Gate: orch, Locker: orch}
	sched := scheduler.New(reconciler)
	for id, frame := range cfg.Frames {
		if frame.Cron == "" {
			continue
		}
		if err := sched.AddFrame(id, frame.Cron); err != nil {
			slog.Error("failed to schedule frame", "frame", id, "cron", frame.Cron, "error", err)
			os.Exit(1)
		}
	}
	sched.Start()

	svc := api.NewService(
		cfg.Port,
		store,
		orch,
		&schedulerTrigger{scheduler: sched},
		&stateReader{states: orch.States, placeholders: orch},
		binder,
		blacklistAdder,
	)

	errCh := make(chan error, 1)
	go func() {
		if err := svc.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		slog.Error("http server error", "error", err)
	case <-quit:
		slog.Info("shutdown signal received")
	}

	<-sched.Stop().Done()

	if err := cursorStore.Close(); err != nil {
		slog.Error("cursor store close error", "error", err)
	}
	if blacklistStore != nil {
		if err := blacklistStore.Close(); err != nil {
			slog.Error("blacklist store close error", "error", err)
		}
	}
}

// schedulerTrigger adapts scheduler.Scheduler.Trigger's (reconcile.Result,
// error) return to the plain error the api.Scheduler interface wants, so
// the API layer never needs to import controller-runtime's reconcile
// package.
type schedulerTrigger struct {
	scheduler *scheduler.Scheduler
}

func (s *schedulerTrigger) Trigger(ctx context.Context, frameID string) error {
	_, err := s.scheduler.Trigger(ctx, frameID)
	return err
}

// placeholderSource computes the never-rendered-yet picture for a frame,
// without publishing it to framestate.
type placeholderSource interface {
	Placeholder(frameID string) (*image.RGBA, *palette.Resolved, error)
}

// stateReader bridges framestate.Manager's published State into the wire
// shapes api.Service reads for /intermediate, /palette, and /metadata. A
// frame that has never rendered still answers with its placeholder card
// instead of 404ing, computed on demand via placeholders.
type stateReader struct {
	states       *framestate.Manager
	placeholders placeholderSource
}

func (r *stateReader) Snapshot(frameID string) (api.FrameSnapshot, bool) {
	frame := r.states.Get(frameID)
	state := frame.Snapshot()
	if !state.EverRendered {
		return r.placeholderSnapshot(frameID)
	}

	snap := api.FrameSnapshot{}
	if state.Intermediate != nil {
		png, err := encodeIntermediatePNG(state.Intermediate)
		if err == nil {
			snap.Intermediate = png
		}
	}
	if state.Palette != nil {
		snap.Palette = paletteEntries(state.Palette)
	}
	if state.CurrentAsset != nil {
		snap.CurrentAsset = map[string]any{
			"sourceId": state.CurrentAsset.SourceID,
			"assetId":  state.CurrentAsset.AssetID,
			"metadata": state.CurrentAsset.Metadata,
		}
	}
	return snap, true
}

func (r *stateReader) placeholderSnapshot(frameID string) (api.FrameSnapshot, bool) {
	img, pal, err := r.placeholders.Placeholder(frameID)
	if err != nil {
		return api.FrameSnapshot{}, false
	}
	snap := api.FrameSnapshot{}
	if png, err := encodeIntermediatePNG(img); err == nil {
		snap.Intermediate = png
	}
	snap.Palette = paletteEntries(pal)
	return snap, true
}

func encodeIntermediatePNG(img *image.RGBA) ([]byte, error) {
	return transform.EncodePNG(img)
}

func paletteEntries(pal *palette.Resolved) []api.PaletteEntry {
	entries := make([]api.PaletteEntry, len(pal.Entries))
	for i, e := range pal.Entries {
		entries[i] = api.PaletteEntry{Input: e.Input, Hex: e.Hex, RGB: [3]int{int(e.R), int(e.G), int(e.B)}}
	}
	return entries
}
