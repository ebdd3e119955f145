// Package framestate holds the per-frame in-memory triple (C6): the
// selected asset's raw bytes, the post-transform pre-dither intermediate,
// and the post-dither encoded output, plus the resolved palette. It is a
// monotonic state machine: mutating an upstream tier invalidates every
// downstream tier, never the other way around.
package framestate

import (
	"image"
	"sync"

	"github.com/jo-hoe/pixelframe/internal/dither"
	"github.com/jo-hoe/pixelframe/internal/palette"
)

// CurrentAsset identifies the asset currently backing a frame's state.
type CurrentAsset struct {
	SourceID string
	AssetID  string
	Metadata map[string]any
}

// State is the per-frame triple plus bookkeeping. Zero value is a frame
// that has never rendered.
type State struct {
	CurrentAsset *CurrentAsset
	SourceBytes  []byte
	Intermediate *image.RGBA
	Encoded      *dither.Indexed
	Palette      *palette.Resolved

	// Generation bumps on every Set* call. It is the frame's sequence
	// number (§5): orchestrator.Preview reads it before computing and
	// compares again before returning, discarding its result if a
	// concurrent render advanced the generation in between.
	Generation uint64

	// EverRendered distinguishes "never selected anything yet" (placeholder
	// should be shown) from "rendered, possibly stale".
	EverRendered bool
}

// Frame owns one frame's State behind a single-flight lock. render_for_device
// and upload are totally ordered by Lock/Unlock; preview may run
// concurrently with reads but must not race a concurrent writer, so it also
// takes the lock — callers needing read-only snapshots use Snapshot.
type Frame struct {
	mu sync.Mutex
	// stateMu guards state alone, so Snapshot can be called by the holder
	// of the single-flight lock as well as by concurrent readers.
	stateMu sync.RWMutex
	state   State
}

// NewFrame returns an unrendered frame (placeholder state).
func NewFrame() *Frame {
	return &Frame{}
}

// TryLock attempts to acquire the single-flight lock without blocking,
// implementing the scheduler's try_acquire semantics (§4.7 step 2).
func (f *Frame) TryLock() bool {
	return f.mu.TryLock()
}

// Lock blocks until the single-flight lock is acquired, used by uploads and
// previews which wait for an in-flight render instead of skipping.
func (f *Frame) Lock() {
	f.mu.Lock()
}

// Unlock releases the single-flight lock.
func (f *Frame) Unlock() {
	f.mu.Unlock()
}

// Snapshot returns a shallow copy of the current state for read-only
// access (e.g. serving /metadata, /palette). It does not take the
// single-flight lock, so it neither blocks on nor deadlocks a lock holder.
func (f *Frame) Snapshot() State {
	f.stateMu.RLock()
	defer f.stateMu.RUnlock()
	return f.state
}

// SetSourceBytes replaces source_bytes (selection or upload), invalidating
// intermediate, encoded, and the current asset pointer downstream of it.
// Callers must hold the lock.
func (f *Frame) SetSourceBytes(asset *CurrentAsset, data []byte) {
	f.stateMu.Lock()
	defer f.stateMu.Unlock()
	f.state.CurrentAsset = asset
	f.state.SourceBytes = data
	f.state.Intermediate = nil
	f.state.Encoded = nil
	f.state.Generation++
	f.state.EverRendered = true
}

// SetIntermediate replaces the post-transform intermediate, invalidating
// encoded. Callers must hold the lock.
func (f *Frame) SetIntermediate(img *image.RGBA) {
	f.stateMu.Lock()
	defer f.stateMu.Unlock()
	f.state.Intermediate = img
	f.state.Encoded = nil
	f.state.Generation++
}

// SetEncoded replaces the post-dither encoded output and the palette it was
// resolved against. Callers must hold the lock.
func (f *Frame) SetEncoded(encoded *dither.Indexed, pal *palette.Resolved) {
	f.stateMu.Lock()
	defer f.stateMu.Unlock()
	f.state.Encoded = encoded
	f.state.Palette = pal
	f.state.Generation++
}

// Manager owns one Frame per configured frame ID.
type Manager struct {
	mu     sync.RWMutex
	frames map[string]*Frame
}

// NewManager builds an empty frame-state manager.
func NewManager() *Manager {
	return &Manager{frames: make(map[string]*Frame)}
}

// Get returns the Frame for frameID, creating an unrendered one on first
// access.
func (m *Manager) Get(frameID string) *Frame {
	m.mu.RLock()
	f, ok := m.frames[frameID]
	m.mu.RUnlock()
	if ok {
		return f
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if f, ok := m.frames[frameID]; ok {
		return f
	}
	f = NewFrame()
	m.frames[frameID] = f
	return f
}
