package transform

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	xdraw "golang.org/x/image/draw"
)

// Visible is the visible pixel rectangle inside the panel: offset (X, Y)
// from the panel's top-left, with dimensions (W, H) equal to the panel
// size minus overscan on each side.
type Visible struct {
	X, Y, W, H int
}

// lanczos3Kernel is the Lanczos-3 resampling filter used for downscaling.
var lanczos3Kernel = xdraw.Kernel{
	Support: 3,
	At: func(t float64) float64 {
		if t == 0 {
			return 1
		}
		if t < -3 || t > 3 {
			return 0
		}
		piT := math.Pi * t
		return 3 * math.Sin(piT) * math.Sin(piT/3) / (piT * piT)
	},
}

// FitAndPad scales src to fit the visible area per fitMode ("cover" or
// "contain") and places it onto a panelW x panelH canvas initialized to
// the palette-white color, offset by the visible rectangle. Downscales use
// Lanczos-3; upscales use Catmull-Rom.
func FitAndPad(src image.Image, panelW, panelH int, visible Visible, fitMode string, whiteR, whiteG, whiteB uint8) *image.RGBA {
	canvas := image.NewRGBA(image.Rect(0, 0, panelW, panelH))
	draw.Draw(canvas, canvas.Bounds(), &image.Uniform{C: color.RGBA{whiteR, whiteG, whiteB, 255}}, image.Point{}, draw.Src)

	sb := src.Bounds()
	sw, sh := sb.Dx(), sb.Dy()
	if sw == 0 || sh == 0 || visible.W <= 0 || visible.H <= 0 {
		return canvas
	}

	vw, vh := visible.W, visible.H
	switch fitMode {
	case "contain":
		scale := math.Min(float64(vw)/float64(sw), float64(vh)/float64(sh))
		dw, dh := scaledDim(sw, scale), scaledDim(sh, scale)
		scaled := resize(src, dw, dh)
		ox := visible.X + (vw-dw)/2
		oy := visible.Y + (vh-dh)/2
		draw.Draw(canvas, image.Rect(ox, oy, ox+dw, oy+dh), scaled, image.Point{}, draw.Over)
	default: // "cover"
		scale := math.Max(float64(vw)/float64(sw), float64(vh)/float64(sh))
		dw, dh := scaledDim(sw, scale), scaledDim(sh, scale)
		scaled := resize(src, dw, dh)
		cropX := (dw - vw) / 2
		cropY := (dh - vh) / 2
		srcRect := image.Rect(cropX, cropY, cropX+vw, cropY+vh)
		dstRect := image.Rect(visible.X, visible.Y, visible.X+vw, visible.Y+vh)
		draw.Draw(canvas, dstRect, scaled, srcRect.Min, draw.Over)
	}

	return canvas
}

func scaledDim(n int, scale float64) int {
	v := int(float64(n)*scale + 0.5)
	if v < 1 {
		v = 1
	}
	return v
}

func resize(src image.Image, w, h int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	sb := src.Bounds()
	filter := xdraw.CatmullRom
	upscaling := w >= sb.Dx() && h >= sb.Dy()
	if upscaling {
		filter.Scale(dst, dst.Bounds(), src, sb, xdraw.Over, nil)
	} else {
		lanczos3Kernel.Scale(dst, dst.Bounds(), src, sb, xdraw.Over, nil)
	}
	return dst
}
