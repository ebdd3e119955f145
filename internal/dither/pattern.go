package dither

import (
	"image"
	"math"

	"github.com/jo-hoe/pixelframe/internal/palette"
)

// ditherPatternSearch implements the pair-candidate pattern-search
// algorithms (stark, yliluoma1): for each pixel, search the small candidate
// set of palette pairs whose blend best approximates the target color,
// then choose between the pair members using an 8x8 ordered threshold
// matrix so that the mix ratio is realized spatially instead of by
// diffusion. Ties in the search (gammaAware selects the Yliluoma variant's
// linear-RGB metric vs stark's plain sRGB metric) break on lowest palette
// index, per the published tie-break rule. yliluoma2 uses a distinct
// triple-candidate search, ditherPatternSearchTriple, below.
func ditherPatternSearch(src image.Image, pal *palette.Resolved, out *Indexed, gammaAware bool) {
	matrix := bayerMatrix(8)
	bounds := src.Bounds()

	var valid []int
	for i, e := range pal.Entries {
		if e.Valid {
			valid = append(valid, i)
		}
	}
	if len(valid) == 0 {
		return
	}

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b := rgb8(src.At(x, y))
			c1, c2, ratio := bestPair(pal, valid, r, g, b, gammaAware)
			threshold := matrix[(y-bounds.Min.Y)%8][(x-bounds.Min.X)%8]
			chosen := c1
			if threshold < ratio {
				chosen = c2
			}
			out.set(x-bounds.Min.X, y-bounds.Min.Y, chosen)
		}
	}
}

// bestPair finds, among all ordered pairs of valid palette indices, the one
// whose convex combination c1*(1-t) + c2*t minimizes distance to the
// target at the best t in {0, 1/8, ..., 1}, and returns (c1, c2, t). Lowest
// indices win ties, since the pair list is walked in ascending order and
// only strictly-better candidates replace the incumbent.
func bestPair(pal *palette.Resolved, valid []int, r, g, b uint8, gammaAware bool) (int, int, float64) {
	bestC1, bestC2 := valid[0], valid[0]
	bestRatio := 0.0
	bestDist := math.MaxFloat64

	const steps = 8
	for _, c1 := range valid {
		e1 := pal.Entries[c1]
		for _, c2 := range valid {
			e2 := pal.Entries[c2]
			for step := 0; step <= steps; step++ {
				t := float64(step) / steps
				mr := float64(e1.R)*(1-t) + float64(e2.R)*t
				mg := float64(e1.G)*(1-t) + float64(e2.G)*t
				mb := float64(e1.B)*(1-t) + float64(e2.B)*t

				var d float64
				if gammaAware {
					d = gammaDist(mr, mg, mb, r, g, b)
				} else {
					dr := mr - float64(r)
					dg := mg - float64(g)
					db := mb - float64(b)
					d = dr*dr + dg*dg + db*db
				}

				if d < bestDist {
					bestDist = d
					bestC1, bestC2, bestRatio = c1, c2, t
				}
			}
		}
	}
	return bestC1, bestC2, bestRatio
}

// ditherPatternSearchTriple is yliluoma2's own candidate search: instead of
// the pair+9-step search shared by stark/yliluoma1, it searches ordered
// triples of valid palette indices at discrete integer weight splits and
// realizes the mix with two threshold cut points instead of one, letting
// three colors share a cell rather than two.
func ditherPatternSearchTriple(src image.Image, pal *palette.Resolved, out *Indexed) {
	matrix := bayerMatrix(8)
	bounds := src.Bounds()

	var valid []int
	for i, e := range pal.Entries {
		if e.Valid {
			valid = append(valid, i)
		}
	}
	if len(valid) == 0 {
		return
	}

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b := rgb8(src.At(x, y))
			c1, c2, c3, w1, w2 := bestTriple(pal, valid, r, g, b)
			threshold := matrix[(y-bounds.Min.Y)%8][(x-bounds.Min.X)%8]
			chosen := c1
			switch {
			case threshold < w1:
				chosen = c1
			case threshold < w1+w2:
				chosen = c2
			default:
				chosen = c3
			}
			out.set(x-bounds.Min.X, y-bounds.Min.Y, chosen)
		}
	}
}

// tripleSteps is the denominator used for integer weight splits over three
// candidates: each of (i, j, k) with i+j+k == tripleSteps and i,j,k >= 0
// gives a weight combination (i,j,k)/tripleSteps.
const tripleSteps = 4

// bestTriple finds, among ordered triples of valid palette indices and
// their integer-weighted convex combinations, the one closest to the
// target color. It returns the three candidates and the weights of the
// first two (c2 takes over at w1, c3 at w1+w2); ties favor the
// first triple/weight-split found while walking the candidates in
// ascending index order, matching bestPair's tie-break rule.
func bestTriple(pal *palette.Resolved, valid []int, r, g, b uint8) (c1, c2, c3 int, w1, w2 float64) {
	c1, c2, c3 = valid[0], valid[0], valid[0]
	bestDist := math.MaxFloat64

	for _, a := range valid {
		ea := pal.Entries[a]
		for _, bb := range valid {
			eb := pal.Entries[bb]
			for _, cc := range valid {
				ec := pal.Entries[cc]
				for i := 0; i <= tripleSteps; i++ {
					for j := 0; i+j <= tripleSteps; j++ {
						k := tripleSteps - i - j
						fi, fj, fk := float64(i)/tripleSteps, float64(j)/tripleSteps, float64(k)/tripleSteps

						mr := float64(ea.R)*fi + float64(eb.R)*fj + float64(ec.R)*fk
						mg := float64(ea.G)*fi + float64(eb.G)*fj + float64(ec.G)*fk
						mb := float64(ea.B)*fi + float64(eb.B)*fj + float64(ec.B)*fk

						d := gammaDist(mr, mg, mb, r, g, b)
						if d < bestDist {
							bestDist = d
							c1, c2, c3 = a, bb, cc
							w1, w2 = fi, fj
						}
					}
				}
			}
		}
	}
	return c1, c2, c3, w1, w2
}

func gammaDist(mr, mg, mb float64, r, g, b uint8) float64 {
	lr1, lg1, lb1 := linExpand(mr), linExpand(mg), linExpand(mb)
	lr2, lg2, lb2 := linExpand(float64(r)), linExpand(float64(g)), linExpand(float64(b))
	dr := lr1 - lr2
	dg := lg1 - lg2
	db := lb1 - lb2
	return dr*dr + dg*dg + db*db
}

func linExpand(c float64) float64 {
	v := c / 255
	if v <= 0.04045 {
		return v / 12.92
	}
	return math.Pow((v+0.055)/1.055, 2.4)
}
