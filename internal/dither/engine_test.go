package dither

import (
	"image"
	"image/color"
	"testing"

	"github.com/jo-hoe/pixelframe/internal/palette"
)

func gradientImage(t *testing.T, w, h int) image.Image {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := uint8(255 * x / w)
			img.Set(x, y, color.RGBA{v, v, v, 255})
		}
	}
	return img
}

func TestDitherDeterministic(t *testing.T) {
	pal := palette.Resolve([]string{"#000000", "#ffffff", "#ff0000", "#00ff00", "#0000ff", "#ffff00", "#00ffff"})
	img := gradientImage(t, 32, 32)

	algorithms := []string{
		"none", "ordered_bayer_2", "ordered_bayer_4", "ordered_bayer_8", "ordered_blue_256",
		"floyd_steinberg", "jarvis_judice_ninke", "stucki", "burkes",
		"sierra_3", "sierra_2", "sierra_1", "atkinson", "reduced_atkinson",
		"stark", "yliluoma1", "yliluoma2",
	}

	for _, alg := range algorithms {
		alg := alg
		t.Run(alg, func(t *testing.T) {
			first, err := Dither(alg, img, pal)
			if err != nil {
				t.Fatalf("Dither(%s) error: %v", alg, err)
			}
			second, err := Dither(alg, img, pal)
			if err != nil {
				t.Fatalf("Dither(%s) second call error: %v", alg, err)
			}
			if len(first.Pixels) != len(second.Pixels) {
				t.Fatalf("pixel count mismatch")
			}
			for i := range first.Pixels {
				if first.Pixels[i] != second.Pixels[i] {
					t.Fatalf("%s: non-deterministic at pixel %d: %d != %d", alg, i, first.Pixels[i], second.Pixels[i])
				}
			}
			for _, idx := range first.Pixels {
				if idx < 0 || idx >= len(pal.Entries) {
					t.Fatalf("%s: pixel index %d out of palette range", alg, idx)
				}
			}
		})
	}
}

func TestYliluoma1And2ProduceDifferentOutput(t *testing.T) {
	pal := palette.Resolve([]string{"#000000", "#ffffff", "#ff0000", "#00ff00", "#0000ff"})
	img := gradientImage(t, 32, 32)

	one, err := Dither("yliluoma1", img, pal)
	if err != nil {
		t.Fatalf("Dither(yliluoma1): %v", err)
	}
	two, err := Dither("yliluoma2", img, pal)
	if err != nil {
		t.Fatalf("Dither(yliluoma2): %v", err)
	}

	differs := false
	for i := range one.Pixels {
		if one.Pixels[i] != two.Pixels[i] {
			differs = true
			break
		}
	}
	if !differs {
		t.Fatal("expected yliluoma1 (pair search) and yliluoma2 (triple search) to diverge on a gradient with >=3 palette colors")
	}
}

func TestDitherUnknownAlgorithm(t *testing.T) {
	pal := palette.Resolve([]string{"#000000", "#ffffff"})
	img := gradientImage(t, 4, 4)
	if _, err := Dither("not-a-real-algorithm", img, pal); err == nil {
		t.Fatal("expected error for unknown algorithm")
	}
}

func TestPaletteInvalidEntryExcluded(t *testing.T) {
	pal := palette.Resolve([]string{"#000000", "not-a-color", "#ffffff"})
	if pal.Entries[1].Valid {
		t.Fatal("expected malformed entry to be marked invalid")
	}
	if pal.Entries[1].Hex != "invalid" {
		t.Fatalf("expected hex=invalid, got %s", pal.Entries[1].Hex)
	}
	idx := pal.Nearest(10, 10, 10)
	if idx == 1 {
		t.Fatal("nearest() must never select an invalid palette entry")
	}
}
