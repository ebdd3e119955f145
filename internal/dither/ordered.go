package dither

import (
	"image"
	"math"
	"sort"

	"github.com/jo-hoe/pixelframe/internal/palette"
)

// ditherOrdered applies an ordered-matrix threshold dither: for each pixel
// p at (x,y), p' = p + s*(M[y%N][x%N] - 0.5), then maps via nearest. s is a
// per-palette spread proportional to the median nearest-neighbor distance
// between palette entries. Ordered methods never propagate error.
func ditherOrdered(src image.Image, pal *palette.Resolved, out *Indexed, matrix [][]float64) {
	spread := paletteSpread(pal)
	n := len(matrix)
	bounds := src.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b := rgb8(src.At(x, y))
			m := matrix[(y-bounds.Min.Y)%n][(x-bounds.Min.X)%n]
			offset := spread * (m - 0.5)
			out.set(x-bounds.Min.X, y-bounds.Min.Y, pal.Nearest(
				clamp255(float64(r)+offset),
				clamp255(float64(g)+offset),
				clamp255(float64(b)+offset),
			))
		}
	}
}

// paletteSpread estimates a reasonable dither amplitude from the median of
// each palette entry's nearest-neighbor distance: for every valid entry,
// find the single closest other entry, then take the median across those
// per-entry minima. This is deliberately not the median over every
// pairwise distance, which overstates the spread for a palette with a
// tight cluster plus a far outlier.
func paletteSpread(pal *palette.Resolved) float64 {
	var valid []palette.Entry
	for _, e := range pal.Entries {
		if e.Valid {
			valid = append(valid, e)
		}
	}
	if len(valid) < 2 {
		return 32
	}
	nearest := make([]float64, len(valid))
	for i := range valid {
		best := math.MaxFloat64
		for j := range valid {
			if i == j {
				continue
			}
			dr := float64(valid[i].R) - float64(valid[j].R)
			dg := float64(valid[i].G) - float64(valid[j].G)
			db := float64(valid[i].B) - float64(valid[j].B)
			if d := dr*dr + dg*dg + db*db; d < best {
				best = d
			}
		}
		nearest[i] = best
	}
	sort.Float64s(nearest)
	median := nearest[len(nearest)/2]
	// nearest holds squared distances; take sqrt and halve, since the
	// spread should be roughly one quantization step's worth of channel
	// offset.
	d := math.Sqrt(median) / 2
	if d < 1 {
		d = 1
	}
	return d
}

func clamp255(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
