package orchestrator

import (
	"fmt"
	"sync"

	"github.com/jo-hoe/pixelframe/internal/config"
	"github.com/jo-hoe/pixelframe/internal/selection"
	"github.com/jo-hoe/pixelframe/internal/source"
)

// Binder instantiates and caches one adapter per configured source ID,
// dispatching on SourceConfig.Kind through the source package's registry
// (§9: "tagged variant over adapter kinds").
type Binder struct {
	registry  *source.Registry
	blacklist source.Blacklist

	mu       sync.Mutex
	adapters map[string]source.Adapter
}

// NewBinder builds a binder against the process-wide source registry.
func NewBinder(blacklist source.Blacklist) *Binder {
	return &Binder{
		registry:  source.DefaultRegistry,
		blacklist: blacklist,
		adapters:  make(map[string]source.Adapter),
	}
}

// Bind resolves frame's bound source IDs into selection.BoundSource values,
// creating adapters lazily and reusing them across calls.
func (b *Binder) Bind(cfg *config.Config, frame *config.FrameConfig) ([]selection.BoundSource, error) {
	bound := make([]selection.BoundSource, 0, len(frame.SourceIDs))
	for _, sourceID := range frame.SourceIDs {
		sourceCfg := cfg.Sources[sourceID]
		if sourceCfg == nil {
			return nil, fmt.Errorf("orchestrator: frame %q references unknown source %q", frame.ID, sourceID)
		}

		adapter, err := b.adapter(sourceID, sourceCfg)
		if err != nil {
			return nil, err
		}

		order := selection.OrderSequential
		if sourceCfg.Order == string(selection.OrderRandom) {
			order = selection.OrderRandom
		}
		bound = append(bound, selection.BoundSource{ID: sourceID, Adapter: adapter, Order: order})
	}
	return bound, nil
}

func (b *Binder) adapter(sourceID string, cfg *config.SourceConfig) (source.Adapter, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if a, ok := b.adapters[sourceID]; ok {
		return a, nil
	}
	a, err := b.registry.Create(cfg.Kind, cfg.Params, b.blacklist, sourceID)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: create source %q: %w", sourceID, err)
	}
	b.adapters[sourceID] = a
	return a, nil
}

// Invalidate drops a cached adapter so the next Bind re-creates it, used
// after a credentials or filters write changes a source's parameters.
func (b *Binder) Invalidate(sourceID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.adapters, sourceID)
}
