// Package dither implements the 17 dithering algorithms of the pipeline's
// quantization stage (C2): a pure function of (pixels, palette,
// algorithm-ID) with no wall-clock or RNG dependence, ported from the
// published weight tables used throughout the e-ink/pixel-art ecosystem.
package dither

import (
	"fmt"
	"image"
	"image/color"

	"github.com/jo-hoe/pixelframe/internal/palette"
)

// Indexed is a palette-quantized image: one palette index per pixel, plus
// the resolved palette it was quantized against.
type Indexed struct {
	Width, Height int
	Pixels        []int // len == Width*Height, row-major
	Palette       *palette.Resolved
}

// Dither quantizes src against pal using the named algorithm. Serpentine
// scanning is intentionally never used (kept left-to-right on every row)
// so that repeated calls are byte-identical, per the documented open
// question on preview reproducibility.
func Dither(algorithm string, src image.Image, pal *palette.Resolved) (*Indexed, error) {
	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	out := &Indexed{Width: w, Height: h, Pixels: make([]int, w*h), Palette: pal}

	switch algorithm {
	case "none", "":
		ditherNearest(src, pal, out)
	case "ordered_bayer_2":
		ditherOrdered(src, pal, out, bayerMatrix(2))
	case "ordered_bayer_4":
		ditherOrdered(src, pal, out, bayerMatrix(4))
	case "ordered_bayer_8":
		ditherOrdered(src, pal, out, bayerMatrix(8))
	case "ordered_blue_256":
		ditherOrdered(src, pal, out, blueNoise256())
	case "floyd_steinberg":
		ditherErrorDiffusion(src, pal, out, floydSteinberg)
	case "jarvis_judice_ninke":
		ditherErrorDiffusion(src, pal, out, jarvisJudiceNinke)
	case "stucki":
		ditherErrorDiffusion(src, pal, out, stucki)
	case "burkes":
		ditherErrorDiffusion(src, pal, out, burkes)
	case "sierra_3":
		ditherErrorDiffusion(src, pal, out, sierra3)
	case "sierra_2":
		ditherErrorDiffusion(src, pal, out, sierra2)
	case "sierra_1":
		ditherErrorDiffusion(src, pal, out, sierraLite)
	case "atkinson":
		ditherErrorDiffusion(src, pal, out, atkinson)
	case "reduced_atkinson":
		ditherErrorDiffusion(src, pal, out, reducedAtkinson)
	case "stark":
		ditherPatternSearch(src, pal, out, false)
	case "yliluoma1":
		ditherPatternSearch(src, pal, out, true)
	case "yliluoma2":
		ditherPatternSearchTriple(src, pal, out)
	default:
		return nil, fmt.Errorf("dither: unknown algorithm %q", algorithm)
	}
	return out, nil
}

func ditherNearest(src image.Image, pal *palette.Resolved, out *Indexed) {
	bounds := src.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b := rgb8(src.At(x, y))
			out.set(x-bounds.Min.X, y-bounds.Min.Y, pal.Nearest(r, g, b))
		}
	}
}

func rgb8(c color.Color) (uint8, uint8, uint8) {
	r, g, b, _ := c.RGBA()
	return uint8(r >> 8), uint8(g >> 8), uint8(b >> 8)
}

func (idx *Indexed) set(x, y, v int) {
	idx.Pixels[y*idx.Width+x] = v
}

func (idx *Indexed) get(x, y int) int {
	return idx.Pixels[y*idx.Width+x]
}
