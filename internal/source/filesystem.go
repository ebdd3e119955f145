package source

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// filesystemAdapter expands a glob pattern once at startup and probes each
// file's header (dimensions only, no full decode) to infer orientation.
type filesystemAdapter struct {
	sourceID  string
	glob      string
	blacklist Blacklist

	mu     sync.Mutex
	assets []Asset
}

// NewFilesystemAdapter builds a filesystem-glob source.
func NewFilesystemAdapter(params map[string]any, blacklist Blacklist, sourceID string) (Adapter, error) {
	glob, _ := params["glob"].(string)
	if glob == "" {
		return nil, fmt.Errorf("filesystem source requires a non-empty 'glob' parameter")
	}
	a := &filesystemAdapter{sourceID: sourceID, glob: glob, blacklist: blacklist}
	if err := a.expand(); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *filesystemAdapter) expand() error {
	matches, err := filepath.Glob(a.glob)
	if err != nil {
		return fmt.Errorf("invalid glob pattern %q: %w", a.glob, err)
	}
	sort.Strings(matches)

	a.mu.Lock()
	defer a.mu.Unlock()
	a.assets = a.assets[:0]
	for _, path := range matches {
		orientation := probeOrientation(path)
		a.assets = append(a.assets, Asset{ID: path, Orientation: orientation})
	}
	return nil
}

func (a *filesystemAdapter) List(ctx context.Context) ([]Asset, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]Asset, len(a.assets))
	copy(out, a.assets)
	return out, nil
}

func (a *filesystemAdapter) Fetch(ctx context.Context, assetID string) ([]byte, Orientation, error) {
	// #nosec G304 -- assetID is a path produced by our own glob expansion, not arbitrary user input
	data, err := os.ReadFile(assetID)
	if err != nil {
		return nil, OrientationUnknown, fmt.Errorf("filesystem source: failed to read %s: %w", assetID, err)
	}
	return data, probeOrientation(assetID), nil
}

func (a *filesystemAdapter) HintOrientation(ctx context.Context, assetID string) (Orientation, error) {
	return probeOrientation(assetID), nil
}

func (a *filesystemAdapter) BlacklistAdd(ctx context.Context, assetID string) error {
	if a.blacklist == nil {
		return nil
	}
	return a.blacklist.Add(ctx, a.sourceID, assetID)
}

// probeOrientation reads only the image header to get dimensions, never a
// full decode.
func probeOrientation(path string) Orientation {
	// #nosec G304 -- path comes from our own glob expansion
	f, err := os.Open(path)
	if err != nil {
		return OrientationUnknown
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return OrientationUnknown
	}
	return orientationFromDims(cfg.Width, cfg.Height)
}

func orientationFromDims(w, h int) Orientation {
	switch {
	case w > h:
		return OrientationLandscape
	case h > w:
		return OrientationPortrait
	default:
		return OrientationUnknown
	}
}

func init() {
	if err := DefaultRegistry.Register("filesystem", NewFilesystemAdapter); err != nil {
		panic(fmt.Sprintf("failed to register filesystem source: %v", err))
	}
}
