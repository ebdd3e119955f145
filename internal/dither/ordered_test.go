package dither

import (
	"math"
	"testing"

	"github.com/jo-hoe/pixelframe/internal/palette"
)

func TestPaletteSpreadUsesNearestNeighborMedianNotAllPairsMedian(t *testing.T) {
	// Two entries sit close together (distance 10 apart on R) and one sits
	// far away (distance 200). The nearest-neighbor-then-median statistic
	// should track the tight cluster (~10); the all-pairs median would be
	// pulled toward the far outlier instead.
	pal := palette.Resolve([]string{"#000000", "#0a0000", "#c80000"})

	got := paletteSpread(pal)
	wantApprox := math.Sqrt(10*10) / 2

	if got > wantApprox*2 {
		t.Fatalf("expected spread close to the clustered pair's distance (~%.1f), got %.1f — looks like the all-pairs median statistic", wantApprox, got)
	}
}

func TestPaletteSpreadDefaultsForSingleEntryPalette(t *testing.T) {
	pal := palette.Resolve([]string{"#000000"})
	if got := paletteSpread(pal); got != 32 {
		t.Fatalf("expected default spread 32 for a palette with <2 valid entries, got %v", got)
	}
}
