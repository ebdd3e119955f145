package dither

import (
	"image"

	"github.com/jo-hoe/pixelframe/internal/palette"
)

// ditherErrorDiffusion runs classic left-to-right, top-to-bottom error
// diffusion: for each pixel, find the nearest palette color, push the
// quantization error forward to neighbors per k's weight table, and clamp
// downstream accumulation to keep colors in range. Matches the row-buffer
// accumulation shape of the original image pipeline's Floyd-Steinberg
// stage, generalized to an arbitrary kernel and a resolved palette.
func ditherErrorDiffusion(src image.Image, pal *palette.Resolved, out *Indexed, k kernel) {
	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	curPx := k.currentPixel()

	// errR/G/B[row][x] accumulates pending error for pixels not yet visited.
	rows := len(k)
	errR := make([][]float64, rows)
	errG := make([][]float64, rows)
	errB := make([][]float64, rows)
	for i := range errR {
		errR[i] = make([]float64, w)
		errG[i] = make([]float64, w)
		errB[i] = make([]float64, w)
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, b := rgb8(src.At(bounds.Min.X+x, bounds.Min.Y+y))
			pr := clampF(float64(r) + errR[0][x])
			pg := clampF(float64(g) + errG[0][x])
			pb := clampF(float64(b) + errB[0][x])

			idx := pal.Nearest(uint8(pr+0.5), uint8(pg+0.5), uint8(pb+0.5))
			out.set(x, y, idx)

			e := pal.Entries[idx]
			er := pr - float64(e.R)
			eg := pg - float64(e.G)
			eb := pb - float64(e.B)

			for ky, row := range k {
				for kx, weight := range row {
					if weight == 0 {
						continue
					}
					nx := x + (kx - curPx)
					if nx < 0 || nx >= w {
						continue
					}
					errR[ky][nx] += er * weight
					errG[ky][nx] += eg * weight
					errB[ky][nx] += eb * weight
				}
			}
		}

		// Shift rows up: row 0 is consumed, row i becomes row i-1.
		errR = append(errR[1:], make([]float64, w))
		errG = append(errG[1:], make([]float64, w))
		errB = append(errB[1:], make([]float64, w))
	}
}

func clampF(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return v
}
