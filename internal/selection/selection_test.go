package selection

import (
	"context"
	"testing"

	"github.com/jo-hoe/pixelframe/internal/source"
)

type memCursor struct {
	values map[string]int
}

func newMemCursor() *memCursor { return &memCursor{values: make(map[string]int)} }

func (c *memCursor) Get(frameID, sourceID string) (int, bool, error) {
	v, ok := c.values[frameID+"|"+sourceID]
	return v, ok, nil
}

func (c *memCursor) Set(frameID, sourceID string, index int) error {
	c.values[frameID+"|"+sourceID] = index
	return nil
}

type fakeAdapter struct {
	assets     []source.Asset
	fetchCalls []string
}

func (f *fakeAdapter) List(ctx context.Context) ([]source.Asset, error) {
	return f.assets, nil
}

func (f *fakeAdapter) Fetch(ctx context.Context, assetID string) ([]byte, source.Orientation, error) {
	f.fetchCalls = append(f.fetchCalls, assetID)
	for _, a := range f.assets {
		if a.ID == assetID {
			return []byte("bytes-" + assetID), a.Orientation, nil
		}
	}
	return nil, source.OrientationUnknown, nil
}

func (f *fakeAdapter) HintOrientation(ctx context.Context, assetID string) (source.Orientation, error) {
	for _, a := range f.assets {
		if a.ID == assetID {
			return a.Orientation, nil
		}
	}
	return source.OrientationUnknown, nil
}

func (f *fakeAdapter) BlacklistAdd(ctx context.Context, assetID string) error { return nil }

type fakeBlacklist struct {
	blocked map[string]bool
}

func (b *fakeBlacklist) Contains(ctx context.Context, sourceID, assetID string) (bool, error) {
	return b.blocked[sourceID+"|"+assetID], nil
}

func (b *fakeBlacklist) Add(ctx context.Context, sourceID, assetID string) error {
	if b.blocked == nil {
		b.blocked = make(map[string]bool)
	}
	b.blocked[sourceID+"|"+assetID] = true
	return nil
}

func TestSelectSequentialAdvancesCursorAndSkipsOrientationMismatch(t *testing.T) {
	adapter := &fakeAdapter{assets: []source.Asset{
		{ID: "landscape-A", Orientation: source.OrientationLandscape},
		{ID: "landscape-B", Orientation: source.OrientationLandscape},
		{ID: "portrait-C", Orientation: source.OrientationPortrait},
	}}
	loop := NewLoop(newMemCursor())
	sources := []BoundSource{{ID: "src-1", Adapter: adapter, Order: OrderSequential}}

	result, err := loop.Select(context.Background(), "frame-1", sources, PolicyPortrait, nil, 0)
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if result.AssetID != "portrait-C" {
		t.Fatalf("expected portrait-C, got %s", result.AssetID)
	}
	if len(adapter.fetchCalls) != 1 || adapter.fetchCalls[0] != "portrait-C" {
		t.Fatalf("expected only portrait-C to be fetched (skip-without-fetch for mismatches), got %v", adapter.fetchCalls)
	}
}

func TestSelectSkipsBlacklistedAsset(t *testing.T) {
	adapter := &fakeAdapter{assets: []source.Asset{
		{ID: "asset-1", Orientation: source.OrientationLandscape},
		{ID: "asset-2", Orientation: source.OrientationLandscape},
	}}
	bl := &fakeBlacklist{blocked: map[string]bool{"src-1|asset-1": true}}
	loop := NewLoop(newMemCursor())
	sources := []BoundSource{{ID: "src-1", Adapter: adapter, Order: OrderSequential}}

	result, err := loop.Select(context.Background(), "frame-1", sources, PolicyAny, bl, 0)
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if result.AssetID != "asset-2" {
		t.Fatalf("expected asset-2 (asset-1 is blacklisted), got %s", result.AssetID)
	}
}

func TestSelectReturnsNoMatchWhenExhausted(t *testing.T) {
	adapter := &fakeAdapter{assets: []source.Asset{
		{ID: "portrait-only", Orientation: source.OrientationPortrait},
	}}
	loop := NewLoop(newMemCursor())
	sources := []BoundSource{{ID: "src-1", Adapter: adapter, Order: OrderSequential}}

	_, err := loop.Select(context.Background(), "frame-1", sources, PolicyLandscape, nil, 4)
	if err == nil {
		t.Fatal("expected NoMatch error")
	}
}

func TestSelectRandomDrawsWithoutRepeatUntilExhausted(t *testing.T) {
	adapter := &fakeAdapter{assets: []source.Asset{
		{ID: "a", Orientation: source.OrientationUnknown},
		{ID: "b", Orientation: source.OrientationUnknown},
	}}
	loop := NewLoop(newMemCursor())
	sources := []BoundSource{{ID: "src-1", Adapter: adapter, Order: OrderRandom}}

	seen := make(map[string]int)
	for i := 0; i < 4; i++ {
		result, err := loop.Select(context.Background(), "frame-1", sources, PolicyAny, nil, 0)
		if err != nil {
			t.Fatalf("Select: %v", err)
		}
		seen[result.AssetID]++
	}
	if seen["a"] != 2 || seen["b"] != 2 {
		t.Fatalf("expected each asset drawn exactly twice across two full passes, got %v", seen)
	}
}
