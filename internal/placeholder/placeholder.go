// Package placeholder rasterizes a bundled "no photo selected yet" card for
// frames whose FrameState has never rendered (framestate.State.EverRendered
// == false), so a newly configured frame has something coherent to preview
// or push before its first selection completes.
package placeholder

import (
	"bytes"
	"fmt"
	"image"
	"strings"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
)

// cardSVG is a minimal vector card: a palette-white background, a centered
// rectangle outline, and a cross inside it; it carries no text. Each %s is
// substituted with a hex stroke color so the card can be tinted to match the
// frame's palette.
const cardSVG = `<?xml version="1.0"?>
<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 800 480">
  <rect x="0" y="0" width="800" height="480" fill="#ffffff"/>
  <rect x="260" y="180" width="280" height="120" rx="8" fill="none" stroke="%s" stroke-width="4"/>
  <line x1="300" y1="220" x2="500" y2="260" stroke="%s" stroke-width="4"/>
  <line x1="500" y1="220" x2="300" y2="260" stroke="%s" stroke-width="4"/>
</svg>`

// Render rasterizes the placeholder card at the given pixel dimensions,
// tinted with accentHex (e.g. the frame's nearest-to-black palette entry).
func Render(width, height int, accentHex string) (*image.RGBA, error) {
	if accentHex == "" {
		accentHex = "#808080"
	}
	if !strings.HasPrefix(accentHex, "#") {
		accentHex = "#" + accentHex
	}

	svg := fmt.Sprintf(cardSVG, accentHex, accentHex, accentHex)
	icon, err := oksvg.ReadIconStream(bytes.NewReader([]byte(svg)))
	if err != nil {
		return nil, fmt.Errorf("placeholder: parse card: %w", err)
	}
	icon.SetTarget(0, 0, float64(width), float64(height))

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	scanner := rasterx.NewScannerGV(width, height, img, img.Bounds())
	raster := rasterx.NewDasher(width, height, scanner)
	icon.Draw(raster, 1.0)

	return img, nil
}
