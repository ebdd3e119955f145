// Package api exposes the control plane (C9, §6): config read, per-frame
// patch/trigger/next/preview/upload/clear, and per-source refresh/
// credentials/filters/blacklist, over echo.
package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-playground/validator"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/jo-hoe/pixelframe/internal/common"
	"github.com/jo-hoe/pixelframe/internal/config"
	"github.com/jo-hoe/pixelframe/internal/orchestrator"
)

// Orchestrator is the subset of orchestrator.Orchestrator the API drives.
// TryLock/Unlock let /next take the same single-flight lock the scheduler
// takes before a tick, rather than calling Render unsynchronized.
type Orchestrator interface {
	Render(ctx context.Context, frameID string) error
	Push(ctx context.Context, frameID string) error
	Upload(ctx context.Context, frameID string, data []byte) error
	Clear(ctx context.Context, frameID string) error
	Preview(ctx context.Context, frameID string, overrides orchestrator.Overrides) ([]byte, error)
	TryLock(frameID string) bool
	Unlock(frameID string)
}

// Scheduler is the subset of scheduler.Scheduler a manual trigger drives,
// narrowed to a plain error so the API layer need not import
// controller-runtime's reconcile.Result.
type Scheduler interface {
	Trigger(ctx context.Context, frameID string) error
}

// Service wires the config store, orchestrator, and frame-state reader
// behind the HTTP routes described in §6.
type Service struct {
	port         int
	store        *config.Store
	orchestrator Orchestrator
	scheduler    Scheduler
	states       FrameStateReader
	binderNotify SourceMutated
	blacklist    BlacklistAdder
}

// FrameStateReader exposes read-only access to a frame's published state
// for /intermediate, /palette, and /metadata.
type FrameStateReader interface {
	Snapshot(frameID string) (FrameSnapshot, bool)
}

// FrameSnapshot is the subset of framestate.State the API serializes.
type FrameSnapshot struct {
	CurrentAsset map[string]any
	Intermediate []byte // pre-encoded PNG bytes
	Palette      []PaletteEntry
}

// PaletteEntry mirrors the wire shape of /frames/{id}/palette entries.
type PaletteEntry struct {
	Input string `json:"input"`
	Hex   string `json:"hex"`
	RGB   [3]int `json:"rgb"`
}

// SourceMutated is invoked after a credentials/filters/refresh write so the
// orchestrator's cached adapter for that source is dropped and rebuilt.
type SourceMutated interface {
	Invalidate(sourceID string)
}

// BlacklistAdder records a blacklisted asset ID for a source (§6
// POST /sources/{id}/blacklist).
type BlacklistAdder interface {
	Add(ctx context.Context, sourceID, assetID string) error
}

// NewService builds the control-plane HTTP service.
func NewService(port int, store *config.Store, orchestrator Orchestrator, scheduler Scheduler, states FrameStateReader, mutated SourceMutated, blacklist BlacklistAdder) *Service {
	return &Service{port: port, store: store, orchestrator: orchestrator, scheduler: scheduler, states: states, binderNotify: mutated, blacklist: blacklist}
}

// Start blocks serving the control plane on s.port.
func (s *Service) Start() error {
	e := echo.New()
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Pre(middleware.RemoveTrailingSlash())
	e.Validator = &common.GenericEchoValidator{Validator: validator.New()}

	s.setRoutes(e)
	return e.Start(portAddr(s.port))
}

func (s *Service) setRoutes(e *echo.Echo) {
	e.GET("/config", s.getConfig)

	e.PATCH("/frames/:id", s.patchFrame)
	e.POST("/frames/:id/trigger", s.triggerFrame)
	e.POST("/frames/:id/next", s.nextFrame)
	e.POST("/frames/:id/preview", s.previewFrame)
	e.POST("/frames/:id/upload", s.uploadFrame)
	e.POST("/frames/:id/clear", s.clearFrame)
	e.GET("/frames/:id/intermediate", s.getIntermediate)
	e.GET("/frames/:id/palette", s.getPalette)
	e.GET("/frames/:id/metadata", s.getMetadata)

	e.POST("/sources/:id/refresh", s.refreshSource)
	e.POST("/sources/:id/:kind/credentials", s.setSourceCredentials)
	e.POST("/sources/:id/:kind/filters", s.setSourceFilters)
	e.POST("/sources/:id/blacklist", s.blacklistAsset)
}

func portAddr(port int) string {
	return ":" + strconv.Itoa(port)
}

func frameNotFound(id string) error {
	return echo.NewHTTPError(http.StatusNotFound, "unknown frame: "+id)
}

func sourceNotFound(id string) error {
	return echo.NewHTTPError(http.StatusNotFound, "unknown source: "+id)
}
