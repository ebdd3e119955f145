package transform

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"time"
)

// Settings bundles everything the pipeline's geometric and tonal stages
// need, independent of how the caller's config package models it.
type Settings struct {
	PanelWidth, PanelHeight int
	Overscan                Visible // overscan folded directly into the visible rect
	FitMode                 string
	ExifRotation            int
	Flip180                 bool
	Adjustments              Adjustments
	Timestamp                TimestampConfig
	WhiteR, WhiteG, WhiteB  uint8
}

// Run executes orient -> fit -> pad -> adjust -> overlay, in that fixed
// order, and returns the panel-sized RGB intermediate image.
func Run(sourceBytes []byte, settings Settings, now time.Time) (*image.RGBA, error) {
	src, _, err := image.Decode(bytes.NewReader(sourceBytes))
	if err != nil {
		return nil, fmt.Errorf("transform: failed to decode source image: %w", err)
	}

	oriented := Orient(src, settings.ExifRotation, settings.Flip180)

	canvas := FitAndPad(oriented, settings.PanelWidth, settings.PanelHeight, settings.Overscan, settings.FitMode,
		settings.WhiteR, settings.WhiteG, settings.WhiteB)

	adjusted := Apply(canvas, settings.Adjustments)

	Overlay(adjusted, settings.Overscan, settings.Timestamp, now)

	return adjusted, nil
}

// EncodePNG is a small convenience used by the /intermediate HTTP handler.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("transform: failed to encode PNG: %w", err)
	}
	return buf.Bytes(), nil
}
