// Package orchestrator wires C1-C6 and C8 together behind the operations
// the scheduler (C7) and HTTP API (C9) call: render_for_device, preview,
// and upload (§4.6), plus the gates the scheduler checks each tick.
package orchestrator

import (
	"context"
	"fmt"
	"image"
	"time"

	"github.com/jo-hoe/pixelframe/internal/config"
	"github.com/jo-hoe/pixelframe/internal/dither"
	"github.com/jo-hoe/pixelframe/internal/framestate"
	"github.com/jo-hoe/pixelframe/internal/palette"
	"github.com/jo-hoe/pixelframe/internal/placeholder"
	"github.com/jo-hoe/pixelframe/internal/selection"
	"github.com/jo-hoe/pixelframe/internal/source"
	"github.com/jo-hoe/pixelframe/internal/transform"
	"github.com/jo-hoe/pixelframe/internal/transport"
)

// SourceBinder resolves a frame's bound source IDs into selection.BoundSource
// values, instantiating adapters from the live config snapshot.
type SourceBinder interface {
	Bind(cfg *config.Config, frame *config.FrameConfig) ([]selection.BoundSource, error)
}

// Orchestrator holds everything render_for_device/preview/upload need: the
// config store, per-frame state, the selection loop, a cursor-backed
// sequential order, a blacklist, and a device pusher.
type Orchestrator struct {
	Store     *config.Store
	States    *framestate.Manager
	Selection *selection.Loop
	Blacklist source.Blacklist
	Binder    SourceBinder
	Pusher    *transport.Pusher
	Now       func() time.Time
}

// New builds an Orchestrator with a real wall clock.
func New(store *config.Store, binder SourceBinder, cursor selection.Cursor, blacklist source.Blacklist) *Orchestrator {
	return &Orchestrator{
		Store:     store,
		States:    framestate.NewManager(),
		Selection: selection.NewLoop(cursor),
		Blacklist: blacklist,
		Binder:    binder,
		Pusher:    transport.NewPusher(),
		Now:       time.Now,
	}
}

// Paused implements scheduler.FrameGate.
func (o *Orchestrator) Paused(frameID string) bool {
	frame := o.Store.Snapshot().Frames[frameID]
	return frame != nil && frame.Paused
}

// Dummy implements scheduler.FrameGate.
func (o *Orchestrator) Dummy(frameID string) bool {
	frame := o.Store.Snapshot().Frames[frameID]
	return frame != nil && frame.Dummy
}

// TryLock implements scheduler.Locker.
func (o *Orchestrator) TryLock(frameID string) bool {
	return o.States.Get(frameID).TryLock()
}

// Unlock implements scheduler.Locker.
func (o *Orchestrator) Unlock(frameID string) {
	o.States.Get(frameID).Unlock()
}

// Render implements scheduler.Renderer: runs selection, transform, and
// dither, publishing intermediate and encoded. Callers must already hold
// the frame's lock (the scheduler's or the /next handler's TryLock).
func (o *Orchestrator) Render(ctx context.Context, frameID string) error {
	cfg := o.Store.Snapshot()
	frameCfg := cfg.Frames[frameID]
	if frameCfg == nil {
		return fmt.Errorf("orchestrator: unknown frame %q", frameID)
	}

	bound, err := o.Binder.Bind(cfg, frameCfg)
	if err != nil {
		return fmt.Errorf("orchestrator: bind sources: %w", err)
	}

	result, err := o.Selection.Select(ctx, frameID, bound, selection.Policy(frameCfg.Orientation), o.Blacklist, 0)
	if err != nil {
		return fmt.Errorf("orchestrator: selection: %w", err)
	}

	frame := o.States.Get(frameID)
	frame.SetSourceBytes(&framestate.CurrentAsset{SourceID: result.SourceID, AssetID: result.AssetID}, result.Bytes)

	return o.renderFromSourceBytes(frameCfg, frame)
}

// buildSettings derives the transform pipeline's settings and resolved
// palette from a frame's current config, applying the overscan override
// if one is set.
func buildSettings(frameCfg *config.FrameConfig) (transform.Settings, *palette.Resolved) {
	pal := palette.Resolve(frameCfg.Palette)
	whiteIdx := pal.WhiteIndex()
	whiteR, whiteG, whiteB := uint8(255), uint8(255), uint8(255)
	if whiteIdx >= 0 && whiteIdx < len(pal.Entries) {
		e := pal.Entries[whiteIdx]
		whiteR, whiteG, whiteB = e.R, e.G, e.B
	}

	overscan := frameCfg.Overscan
	if frameCfg.OverscanOverride != nil {
		overscan = *frameCfg.OverscanOverride
	}
	visible := transform.Visible{
		X: overscan.Left,
		Y: overscan.Top,
		W: frameCfg.PanelWidth - overscan.Left - overscan.Right,
		H: frameCfg.PanelHeight - overscan.Top - overscan.Bottom,
	}

	settings := transform.Settings{
		PanelWidth:  frameCfg.PanelWidth,
		PanelHeight: frameCfg.PanelHeight,
		Overscan:    visible,
		FitMode:     frameCfg.FitMode,
		Flip180:     frameCfg.Flip180,
		Adjustments: transform.Adjustments{
			Brightness: frameCfg.Brightness,
			Contrast:   frameCfg.Contrast,
			Saturation: frameCfg.Saturation,
			Sharpness:  frameCfg.Sharpness,
		},
		Timestamp: transform.TimestampConfig{
			Enabled:         frameCfg.Timestamp.Enabled,
			Position:        frameCfg.Timestamp.Position,
			ColorMode:       frameCfg.Timestamp.ColorMode,
			FullWidthBanner: frameCfg.Timestamp.FullWidthBanner,
			BannerHeight:    frameCfg.Timestamp.BannerHeight,
			PaddingH:        frameCfg.Timestamp.PaddingH,
			PaddingV:        frameCfg.Timestamp.PaddingV,
			StrokeEnabled:   frameCfg.Timestamp.StrokeEnabled,
			StrokeWidth:     frameCfg.Timestamp.StrokeWidth,
			StrokeColor:     frameCfg.Timestamp.StrokeColor,
			Format:          frameCfg.Timestamp.Format,
		},
		WhiteR: whiteR, WhiteG: whiteG, WhiteB: whiteB,
	}
	return settings, pal
}

// renderFromSourceBytes re-runs transform+dither against the frame's
// current source_bytes, publishing intermediate and encoded. Callers must
// hold the frame's lock.
func (o *Orchestrator) renderFromSourceBytes(frameCfg *config.FrameConfig, frame *framestate.Frame) error {
	settings, pal := buildSettings(frameCfg)

	snap := frame.Snapshot()
	if len(snap.SourceBytes) == 0 {
		return o.renderPlaceholder(frameCfg, frame, pal)
	}
	settings.ExifRotation = source.DecodeExifRotation(snap.SourceBytes)

	intermediate, err := transform.Run(snap.SourceBytes, settings, o.now())
	if err != nil {
		return fmt.Errorf("orchestrator: transform: %w", err)
	}
	frame.SetIntermediate(intermediate)

	encoded, err := dither.Dither(frameCfg.Dither, intermediate, pal)
	if err != nil {
		return fmt.Errorf("orchestrator: dither: %w", err)
	}
	frame.SetEncoded(encoded, pal)
	return nil
}

// Overrides is the subset of FrameSettings a preview request may overlay
// onto the frame's persisted settings without committing them (§4.6).
type Overrides struct {
	Dither     *string
	Brightness *float64
	Contrast   *float64
	Saturation *float64
	Sharpness  *float64
	Flip180    *bool
}

// Preview re-runs transform+dither against the frame's cached source_bytes
// with overrides applied, returning the encoded BMP bytes without
// publishing intermediate/encoded or touching the persisted config. The
// frame's generation at snapshot time is its sequence number (§5): if a
// concurrent render_for_device or upload advances the generation before
// this preview finishes computing, the result is discarded rather than
// returned, since it was computed against source_bytes that no longer
// reflect the frame's published state.
func (o *Orchestrator) Preview(ctx context.Context, frameID string, overrides Overrides) ([]byte, error) {
	cfg := o.Store.Snapshot()
	frameCfg := cfg.Frames[frameID]
	if frameCfg == nil {
		return nil, fmt.Errorf("orchestrator: unknown frame %q", frameID)
	}

	overlaid := *frameCfg
	applyOverrides(&overlaid, overrides)
	settings, pal := buildSettings(&overlaid)

	frame := o.States.Get(frameID)
	frame.Lock()
	snap := frame.Snapshot()
	frame.Unlock()
	sequence := snap.Generation

	var intermediate *image.RGBA
	var err error
	if len(snap.SourceBytes) == 0 {
		intermediate, err = buildPlaceholderImage(&overlaid, pal)
		if err != nil {
			return nil, err
		}
	} else {
		settings.ExifRotation = source.DecodeExifRotation(snap.SourceBytes)
		intermediate, err = transform.Run(snap.SourceBytes, settings, o.now())
		if err != nil {
			return nil, fmt.Errorf("orchestrator: preview transform: %w", err)
		}
	}

	encoded, err := dither.Dither(overlaid.Dither, intermediate, pal)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: preview dither: %w", err)
	}

	if frame.Snapshot().Generation != sequence {
		return nil, fmt.Errorf("orchestrator: preview for frame %q superseded by a concurrent render", frameID)
	}
	return transport.EncodeBMP(encoded)
}

// Placeholder computes the intermediate image and resolved palette a
// never-rendered frame shows on /intermediate and /palette, without
// touching framestate: it is the read-path counterpart to renderPlaceholder,
// which publishes the same picture once a frame is actually ticked.
func (o *Orchestrator) Placeholder(frameID string) (*image.RGBA, *palette.Resolved, error) {
	cfg := o.Store.Snapshot()
	frameCfg := cfg.Frames[frameID]
	if frameCfg == nil {
		return nil, nil, fmt.Errorf("orchestrator: unknown frame %q", frameID)
	}
	_, pal := buildSettings(frameCfg)
	img, err := buildPlaceholderImage(frameCfg, pal)
	if err != nil {
		return nil, nil, err
	}
	return img, pal, nil
}

func applyOverrides(frameCfg *config.FrameConfig, o Overrides) {
	if o.Dither != nil {
		frameCfg.Dither = *o.Dither
	}
	if o.Brightness != nil {
		frameCfg.Brightness = *o.Brightness
	}
	if o.Contrast != nil {
		frameCfg.Contrast = *o.Contrast
	}
	if o.Saturation != nil {
		frameCfg.Saturation = *o.Saturation
	}
	if o.Sharpness != nil {
		frameCfg.Sharpness = *o.Sharpness
	}
	if o.Flip180 != nil {
		frameCfg.Flip180 = *o.Flip180
	}
}

func (o *Orchestrator) renderPlaceholder(frameCfg *config.FrameConfig, frame *framestate.Frame, pal *palette.Resolved) error {
	img, err := buildPlaceholderImage(frameCfg, pal)
	if err != nil {
		return err
	}
	frame.SetIntermediate(img)

	encoded, err := dither.Dither(frameCfg.Dither, img, pal)
	if err != nil {
		return fmt.Errorf("orchestrator: placeholder dither: %w", err)
	}
	frame.SetEncoded(encoded, pal)
	return nil
}

// buildPlaceholderImage renders the "no photo selected yet" card for a
// frame's panel, tinted with its nearest-to-black palette entry. Shared by
// renderPlaceholder (which publishes it) and Placeholder/Preview (which
// don't).
func buildPlaceholderImage(frameCfg *config.FrameConfig, pal *palette.Resolved) (*image.RGBA, error) {
	accent := "#808080"
	if idx := pal.BlackIndex(); idx >= 0 {
		e := pal.Entries[idx]
		accent = fmt.Sprintf("#%02x%02x%02x", e.R, e.G, e.B)
	}
	img, err := placeholder.Render(frameCfg.PanelWidth, frameCfg.PanelHeight, accent)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: placeholder: %w", err)
	}
	return img, nil
}

// Push implements scheduler.Renderer: POSTs the frame's encoded output to
// its device endpoint.
func (o *Orchestrator) Push(ctx context.Context, frameID string) error {
	cfg := o.Store.Snapshot()
	frameCfg := cfg.Frames[frameID]
	if frameCfg == nil {
		return fmt.Errorf("orchestrator: unknown frame %q", frameID)
	}
	snap := o.States.Get(frameID).Snapshot()
	if snap.Encoded == nil {
		return fmt.Errorf("orchestrator: frame %q has no encoded output to push", frameID)
	}
	timeout := time.Duration(frameCfg.PushTimeoutMS) * time.Millisecond
	pusher := o.Pusher
	if timeout > 0 {
		pusher = pusher.WithTimeout(timeout)
	}
	return pusher.Push(ctx, frameCfg.DeviceEndpoint, snap.Encoded)
}

// Upload treats bytes as a synthetic asset (§4.6 upload): pauses the
// frame atomically, replaces source_bytes, and re-renders without pushing.
func (o *Orchestrator) Upload(ctx context.Context, frameID string, data []byte) error {
	if err := o.Store.Update(func(cfg *config.Config) error {
		frameCfg := cfg.Frames[frameID]
		if frameCfg == nil {
			return fmt.Errorf("orchestrator: unknown frame %q", frameID)
		}
		frameCfg.Paused = true
		return nil
	}); err != nil {
		return err
	}

	frame := o.States.Get(frameID)
	frame.Lock()
	defer frame.Unlock()

	frameCfg := o.Store.Snapshot().Frames[frameID]
	frame.SetSourceBytes(&framestate.CurrentAsset{SourceID: "upload", AssetID: "upload"}, data)
	return o.renderFromSourceBytes(frameCfg, frame)
}

// Clear pushes an all-white frame (§6 /clear) without altering current_asset.
func (o *Orchestrator) Clear(ctx context.Context, frameID string) error {
	cfg := o.Store.Snapshot()
	frameCfg := cfg.Frames[frameID]
	if frameCfg == nil {
		return fmt.Errorf("orchestrator: unknown frame %q", frameID)
	}
	pal := palette.Resolve(frameCfg.Palette)
	whiteIdx := pal.WhiteIndex()

	pixels := make([]int, frameCfg.PanelWidth*frameCfg.PanelHeight)
	for i := range pixels {
		pixels[i] = whiteIdx
	}
	blank := &dither.Indexed{Width: frameCfg.PanelWidth, Height: frameCfg.PanelHeight, Pixels: pixels, Palette: pal}

	timeout := time.Duration(frameCfg.PushTimeoutMS) * time.Millisecond
	pusher := o.Pusher
	if timeout > 0 {
		pusher = pusher.WithTimeout(timeout)
	}
	return pusher.Push(ctx, frameCfg.DeviceEndpoint, blank)
}

func (o *Orchestrator) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}
