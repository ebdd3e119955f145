// Package transform implements the per-frame image pipeline's geometric
// and tonal stages (C3): orient, fit, pad, adjust, overlay.
package transform

import "image"

// Orient rotates img to correct for the EXIF orientation hint (0, 90, 180,
// or 270 clockwise, as resolved by source.DecodeExifRotation) and then
// applies the user's 180-degree flip override if set. Ported from the
// teacher's manual pixel-remapping rotation; orient itself has no EXIF
// parsing responsibility, it only applies the already-decoded degrees.
func Orient(img image.Image, exifRotation int, flip180 bool) image.Image {
	out := img
	switch exifRotation {
	case 90:
		out = rotate90(out, true)
	case 180:
		out = rotate180(out)
	case 270:
		out = rotate90(out, false)
	}
	if flip180 {
		out = rotate180(out)
	}
	return out
}

func rotate90(img image.Image, clockwise bool) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	dst := image.NewRGBA(image.Rect(0, 0, h, w))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := img.At(b.Min.X+x, b.Min.Y+y)
			if clockwise {
				dst.Set(h-1-y, x, c)
			} else {
				dst.Set(y, w-1-x, c)
			}
		}
	}
	return dst
}

func rotate180(img image.Image) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := img.At(b.Min.X+x, b.Min.Y+y)
			dst.Set(w-1-x, h-1-y, c)
		}
	}
	return dst
}
