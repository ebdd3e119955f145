// Package selection implements the selection loop (C5): round-robin across
// a frame's bound sources, honoring per-source order policy, blacklist, and
// orientation policy, with a bounded retry budget.
package selection

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"

	"github.com/jo-hoe/pixelframe/internal/source"
)

// ErrNoMatch is returned when the loop exhausts its attempt budget without
// finding an asset that satisfies blacklist and orientation constraints.
var ErrNoMatch = errors.New("selection: no matching asset found")

// DefaultMaxAttempts bounds the retry loop to prevent runaway scanning on
// pathologically filtered sources.
const DefaultMaxAttempts = 32

// Order is a source's pick policy.
type Order string

const (
	OrderSequential Order = "sequential"
	OrderRandom     Order = "random"
)

// Policy is a frame's orientation requirement for selected assets.
type Policy string

const (
	PolicyLandscape Policy = "landscape"
	PolicyPortrait  Policy = "portrait"
	PolicyAny       Policy = "any"
)

// Result is a winning selection: the source and asset it came from, the
// fetched bytes, and the resolved orientation.
type Result struct {
	SourceID    string
	AssetID     string
	Bytes       []byte
	Orientation source.Orientation
}

// BoundSource pairs a source adapter with the order policy configured for
// it on a given frame.
type BoundSource struct {
	ID      string
	Adapter source.Adapter
	Order   Order
}

// Cursor persists and advances the sequential index per (frameID, sourceID).
type Cursor interface {
	Get(frameID, sourceID string) (index int, ok bool, err error)
	Set(frameID, sourceID string, index int) error
}

// Loop runs the round-robin selection algorithm for one frame.
type Loop struct {
	cursor Cursor
	rand   *rand.Rand

	mu         sync.Mutex
	shuffle    map[string][]int // sourceID -> remaining shuffled indices, for random-without-repeat
	bagPoolLen map[string]int   // sourceID -> asset count the current bag was built against
}

// NewLoop builds a selection loop backed by the given cursor store.
func NewLoop(cursor Cursor) *Loop {
	return &Loop{
		cursor:     cursor,
		rand:       rand.New(rand.NewSource(1)),
		shuffle:    make(map[string][]int),
		bagPoolLen: make(map[string]int),
	}
}

// Select runs the round-robin algorithm across sources in order, honoring
// blacklist and orientation policy, up to maxAttempts candidates total.
func (l *Loop) Select(ctx context.Context, frameID string, sources []BoundSource, policy Policy, blacklist source.Blacklist, maxAttempts int) (*Result, error) {
	if len(sources) == 0 {
		return nil, ErrNoMatch
	}
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}

	attempts := 0
	sourceIdx := 0
	for attempts < maxAttempts {
		bound := sources[sourceIdx%len(sources)]
		sourceIdx++

		assets, err := bound.Adapter.List(ctx)
		if err != nil || len(assets) == 0 {
			attempts++
			continue
		}

		candidate, ok := l.next(frameID, bound, assets)
		if !ok {
			attempts++
			continue
		}
		attempts++

		if blacklist != nil {
			blacklisted, err := blacklist.Contains(ctx, bound.ID, candidate.ID)
			if err == nil && blacklisted {
				continue
			}
		}

		if candidate.Orientation != source.OrientationUnknown && !matchesPolicy(candidate.Orientation, policy) {
			continue
		}

		data, orientation, err := bound.Adapter.Fetch(ctx, candidate.ID)
		if err != nil {
			continue
		}
		if candidate.Orientation == source.OrientationUnknown && orientation != source.OrientationUnknown && !matchesPolicy(orientation, policy) {
			continue
		}

		return &Result{SourceID: bound.ID, AssetID: candidate.ID, Bytes: data, Orientation: orientation}, nil
	}

	return nil, fmt.Errorf("%w: after %d attempts", ErrNoMatch, attempts)
}

// next picks the next candidate asset for bound according to its order
// policy, advancing the sequential cursor or drawing from the
// random-without-repeat shuffle bag.
func (l *Loop) next(frameID string, bound BoundSource, assets []source.Asset) (source.Asset, bool) {
	if len(assets) == 0 {
		return source.Asset{}, false
	}
	switch bound.Order {
	case OrderRandom:
		return l.nextRandom(bound.ID, assets), true
	default:
		return l.nextSequential(frameID, bound.ID, assets), true
	}
}

func (l *Loop) nextSequential(frameID, sourceID string, assets []source.Asset) source.Asset {
	index, ok, err := l.cursor.Get(frameID, sourceID)
	if err != nil || !ok {
		index = 0
	}
	index = index % len(assets)
	asset := assets[index]
	_ = l.cursor.Set(frameID, sourceID, (index+1)%len(assets))
	return asset
}

func (l *Loop) nextRandom(sourceID string, assets []source.Asset) source.Asset {
	l.mu.Lock()
	defer l.mu.Unlock()

	bag, ok := l.shuffle[sourceID]
	if !ok || len(bag) == 0 || l.bagPoolLen[sourceID] != len(assets) {
		bag = l.freshBag(len(assets))
		l.bagPoolLen[sourceID] = len(assets)
	}

	pick := bag[len(bag)-1]
	l.shuffle[sourceID] = bag[:len(bag)-1]
	return assets[pick]
}

func (l *Loop) freshBag(n int) []int {
	bag := make([]int, n)
	for i := range bag {
		bag[i] = i
	}
	l.rand.Shuffle(len(bag), func(i, j int) { bag[i], bag[j] = bag[j], bag[i] })
	return bag
}

func matchesPolicy(orientation source.Orientation, policy Policy) bool {
	switch policy {
	case PolicyLandscape:
		return orientation == source.OrientationLandscape
	case PolicyPortrait:
		return orientation == source.OrientationPortrait
	default:
		return true
	}
}
