package transform

import (
	"image"
	"image/color"
	"math"
)

// Adjustments are the four tonal knobs applied in fixed order: brightness,
// contrast, saturation, sharpness.
type Adjustments struct {
	Brightness float64 // [-50, 50], linear shift per channel
	Contrast   float64 // [-50, 50], slope = 1 + contrast/50 around center 128
	Saturation float64 // [-0.25, 0.25], blend toward luminance
	Sharpness  float64 // [-5, 5], unsharp mask radius 1.0; negative = gaussian soften
}

// Apply runs the four adjustments in order over img, returning a new RGBA.
func Apply(img *image.RGBA, adj Adjustments) *image.RGBA {
	out := brightnessContrast(img, adj.Brightness, adj.Contrast)
	out = saturate(out, adj.Saturation)
	out = sharpen(out, adj.Sharpness)
	return out
}

func brightnessContrast(img *image.RGBA, brightness, contrast float64) *image.RGBA {
	if brightness == 0 && contrast == 0 {
		return img
	}
	slope := 1 + contrast/50
	b := img.Bounds()
	out := image.NewRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := img.RGBAAt(x, y)
			out.SetRGBA(x, y, color.RGBA{
				R: clampChannel(slope*(float64(c.R)-128) + 128 + brightness),
				G: clampChannel(slope*(float64(c.G)-128) + 128 + brightness),
				B: clampChannel(slope*(float64(c.B)-128) + 128 + brightness),
				A: c.A,
			})
		}
	}
	return out
}

func saturate(img *image.RGBA, saturation float64) *image.RGBA {
	if saturation == 0 {
		return img
	}
	b := img.Bounds()
	out := image.NewRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := img.RGBAAt(x, y)
			lum := 0.299*float64(c.R) + 0.587*float64(c.G) + 0.114*float64(c.B)
			mix := func(v float64) uint8 {
				return clampChannel(lum + (1+saturation)*(v-lum))
			}
			out.SetRGBA(x, y, color.RGBA{
				R: mix(float64(c.R)),
				G: mix(float64(c.G)),
				B: mix(float64(c.B)),
				A: c.A,
			})
		}
	}
	return out
}

// sharpen applies an unsharp mask with a fixed radius of 1.0. Negative
// values perform gaussian softening instead (blend toward the blurred
// image rather than away from it).
func sharpen(img *image.RGBA, amount float64) *image.RGBA {
	if amount == 0 {
		return img
	}
	blurred := gaussianBlur(img, 1.0)
	b := img.Bounds()
	out := image.NewRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			orig := img.RGBAAt(x, y)
			blur := blurred.RGBAAt(x, y)
			mix := func(o, bl uint8) uint8 {
				return clampChannel(float64(o) + amount*(float64(o)-float64(bl)))
			}
			out.SetRGBA(x, y, color.RGBA{
				R: mix(orig.R, blur.R),
				G: mix(orig.G, blur.G),
				B: mix(orig.B, blur.B),
				A: orig.A,
			})
		}
	}
	return out
}

// gaussianBlur applies a separable gaussian blur with the given radius
// (standard deviation), used both as the unsharp mask's low-pass and as
// the direct "soften" path for negative sharpness values.
func gaussianBlur(img *image.RGBA, radius float64) *image.RGBA {
	kernel := gaussianKernel(radius)
	b := img.Bounds()
	tmp := image.NewRGBA(b)
	out := image.NewRGBA(b)

	half := len(kernel) / 2
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			var r, g, bl, a float64
			for k, w := range kernel {
				sx := clampInt(x+k-half, b.Min.X, b.Max.X-1)
				c := img.RGBAAt(sx, y)
				r += float64(c.R) * w
				g += float64(c.G) * w
				bl += float64(c.B) * w
				a += float64(c.A) * w
			}
			tmp.SetRGBA(x, y, color.RGBA{clampChannel(r), clampChannel(g), clampChannel(bl), clampChannel(a)})
		}
	}
	for x := b.Min.X; x < b.Max.X; x++ {
		for y := b.Min.Y; y < b.Max.Y; y++ {
			var r, g, bl, a float64
			for k, w := range kernel {
				sy := clampInt(y+k-half, b.Min.Y, b.Max.Y-1)
				c := tmp.RGBAAt(x, sy)
				r += float64(c.R) * w
				g += float64(c.G) * w
				bl += float64(c.B) * w
				a += float64(c.A) * w
			}
			out.SetRGBA(x, y, color.RGBA{clampChannel(r), clampChannel(g), clampChannel(bl), clampChannel(a)})
		}
	}
	return out
}

func gaussianKernel(sigma float64) []float64 {
	if sigma <= 0 {
		sigma = 0.5
	}
	radius := int(math.Ceil(sigma * 3))
	size := radius*2 + 1
	kernel := make([]float64, size)
	sum := 0.0
	for i := range kernel {
		d := float64(i - radius)
		v := math.Exp(-(d * d) / (2 * sigma * sigma))
		kernel[i] = v
		sum += v
	}
	for i := range kernel {
		kernel[i] /= sum
	}
	return kernel
}

func clampChannel(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
