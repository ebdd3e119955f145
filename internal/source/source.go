// Package source implements the uniform capability set over photo sources
// (C4): list, fetch, orientation hint, and blacklist.
package source

import (
	"context"
	"fmt"
)

// Orientation is the declared or resolved orientation of an asset.
type Orientation string

const (
	OrientationLandscape Orientation = "landscape"
	OrientationPortrait  Orientation = "portrait"
	OrientationUnknown   Orientation = "unknown"
)

// Asset is one listable item from a source: a stable ID and a declared
// orientation hint. Its bytes are fetched separately through Adapter.Fetch.
type Asset struct {
	ID          string
	Orientation Orientation
}

// Blacklist is the adapter-specific store interface; an adapter persists
// blacklisted asset IDs across restarts through it (§4.4: "out of scope"
// as a component to design, but required to persist).
type Blacklist interface {
	Contains(ctx context.Context, sourceID, assetID string) (bool, error)
	Add(ctx context.Context, sourceID, assetID string) error
}

// Adapter is the sealed capability set every source kind implements.
type Adapter interface {
	List(ctx context.Context) ([]Asset, error)
	Fetch(ctx context.Context, assetID string) ([]byte, Orientation, error)
	HintOrientation(ctx context.Context, assetID string) (Orientation, error)
	BlacklistAdd(ctx context.Context, assetID string) error
}

// Factory builds an Adapter from its configured parameters.
type Factory func(params map[string]any, blacklist Blacklist, sourceID string) (Adapter, error)

// Registry dispatches source kinds to their adapter factories (§9: "sealed
// capability set... avoid dynamic plug-in loading").
type Registry struct {
	factories map[string]Factory
}

// NewRegistry creates an empty source-kind registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a factory under the given kind name.
func (r *Registry) Register(kind string, factory Factory) error {
	if kind == "" {
		return fmt.Errorf("source kind cannot be empty")
	}
	if factory == nil {
		return fmt.Errorf("source factory cannot be nil")
	}
	if _, exists := r.factories[kind]; exists {
		return fmt.Errorf("source kind %s is already registered", kind)
	}
	r.factories[kind] = factory
	return nil
}

// Create instantiates an adapter of the given kind.
func (r *Registry) Create(kind string, params map[string]any, blacklist Blacklist, sourceID string) (Adapter, error) {
	factory, exists := r.factories[kind]
	if !exists {
		return nil, fmt.Errorf("unknown source kind: %s", kind)
	}
	adapter, err := factory(params, blacklist, sourceID)
	if err != nil {
		return nil, fmt.Errorf("failed to create source %s: %w", kind, err)
	}
	return adapter, nil
}

// DefaultRegistry is the process-wide registry that source kinds
// self-register into via init().
var DefaultRegistry = NewRegistry()
