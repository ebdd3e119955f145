package transform

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"
	"time"
)

func encodeTestPNG(t *testing.T, w, h int, c color.RGBA) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode fixture PNG: %v", err)
	}
	return buf.Bytes()
}

func TestRunProducesPanelSizedIntermediate(t *testing.T) {
	src := encodeTestPNG(t, 1600, 900, color.RGBA{200, 50, 50, 255})
	settings := Settings{
		PanelWidth: 800, PanelHeight: 480,
		Overscan: Visible{X: 10, Y: 10, W: 780, H: 460},
		FitMode:  "cover",
		WhiteR:   255, WhiteG: 255, WhiteB: 255,
	}
	out, err := Run(src, settings, time.Unix(0, 0))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out.Bounds().Dx() != 800 || out.Bounds().Dy() != 480 {
		t.Fatalf("expected 800x480, got %dx%d", out.Bounds().Dx(), out.Bounds().Dy())
	}
}

func TestContainLetterboxIsPaletteWhite(t *testing.T) {
	src := encodeTestPNG(t, 100, 100, color.RGBA{10, 10, 10, 255})
	settings := Settings{
		PanelWidth: 600, PanelHeight: 448,
		Overscan: Visible{X: 0, Y: 0, W: 600, H: 448},
		FitMode:  "contain",
		WhiteR:   255, WhiteG: 255, WhiteB: 255,
	}
	out, err := Run(src, settings, time.Unix(0, 0))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	corner := out.RGBAAt(0, 0)
	if corner.R != 255 || corner.G != 255 || corner.B != 255 {
		t.Fatalf("expected palette-white corner, got %+v", corner)
	}
}
