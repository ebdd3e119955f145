package transport

import (
	"testing"

	"github.com/jo-hoe/pixelframe/internal/dither"
	"github.com/jo-hoe/pixelframe/internal/palette"
)

func TestEncodeBMPHeaderAndDimensions(t *testing.T) {
	pal := palette.Resolve([]string{"#ffffff", "#000000", "#ff0000"})
	img := &dither.Indexed{
		Width: 4, Height: 2,
		Pixels:  []int{0, 1, 2, 0, 1, 2, 0, 1},
		Palette: pal,
	}

	data, err := EncodeBMP(img)
	if err != nil {
		t.Fatalf("EncodeBMP: %v", err)
	}
	if string(data[0:2]) != "BM" {
		t.Fatalf("expected BM magic, got %q", data[0:2])
	}
	if len(data) == 0 {
		t.Fatal("expected non-empty output")
	}

	bitsPerPixel := int(data[28]) | int(data[29])<<8
	if bitsPerPixel != 8 {
		t.Fatalf("expected 8 bits per pixel, got %d", bitsPerPixel)
	}
}

func TestEncodeBMPRejectsNil(t *testing.T) {
	if _, err := EncodeBMP(nil); err == nil {
		t.Fatal("expected error encoding nil image")
	}
}
