package transform

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"strings"
	"time"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// TimestampConfig mirrors the persisted overlay settings (config.TimestampConfig)
// without importing the config package, keeping transform dependency-free of
// the persistence layer. It has no font size: glyphs are always drawn with
// the fixed 7x13 basicfont face, and config's FontSize is not used.
type TimestampConfig struct {
	Enabled         bool
	Position        string // "{top,bottom}-{left,center,right}"
	ColorMode       string // auto | white | black | transparent_white_text | transparent_black_text | white_background | black_background
	FullWidthBanner bool
	BannerHeight    int
	PaddingH        int
	PaddingV        int
	StrokeEnabled   bool
	StrokeWidth     int
	StrokeColor     string // "auto" or "#rrggbb"
	Format          string // strftime-style
}

// Overlay draws the current time onto canvas within the visible rectangle,
// per the configured position, color mode, and optional banner/stroke.
func Overlay(canvas *image.RGBA, visible Visible, cfg TimestampConfig, now time.Time) {
	if !cfg.Enabled {
		return
	}
	text := strftime(cfg.Format, now)
	if text == "" {
		return
	}

	face := basicfont.Face7x13
	textW := font.MeasureString(face, text).Ceil()
	textH := face.Metrics().Height.Ceil()

	var boxX, boxY, boxW, boxH int
	if cfg.FullWidthBanner {
		boxW = visible.W
		boxH = cfg.BannerHeight
		if boxH <= 0 {
			boxH = textH + 2*cfg.PaddingV
		}
		boxX = visible.X
		if strings.HasPrefix(cfg.Position, "top") {
			boxY = visible.Y
		} else {
			boxY = visible.Y + visible.H - boxH
		}
	} else {
		boxW = textW + 2*cfg.PaddingH
		boxH = textH + 2*cfg.PaddingV
		boxX, boxY = positionBox(cfg.Position, visible, boxW, boxH, cfg.PaddingH, cfg.PaddingV)
	}

	textColor, bg, paintBG := resolveColors(canvas, boxX, boxY, boxW, boxH, cfg.ColorMode)
	if paintBG {
		draw.Draw(canvas, image.Rect(boxX, boxY, boxX+boxW, boxY+boxH), &image.Uniform{C: bg}, image.Point{}, draw.Over)
	}

	textX := boxX + (boxW-textW)/2
	textY := boxY + (boxH-textH)/2 + face.Metrics().Ascent.Ceil()

	if cfg.StrokeEnabled {
		stroke := strokeColorFor(cfg.StrokeColor, textColor)
		for dx := -cfg.StrokeWidth; dx <= cfg.StrokeWidth; dx++ {
			for dy := -cfg.StrokeWidth; dy <= cfg.StrokeWidth; dy++ {
				if dx == 0 && dy == 0 {
					continue
				}
				drawText(canvas, face, text, textX+dx, textY+dy, stroke)
			}
		}
	}
	drawText(canvas, face, text, textX, textY, textColor)
}

func drawText(canvas *image.RGBA, face font.Face, text string, x, y int, c color.Color) {
	d := &font.Drawer{
		Dst:  canvas,
		Src:  &image.Uniform{C: c},
		Face: face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(text)
}

func positionBox(position string, visible Visible, boxW, boxH, padH, padV int) (int, int) {
	var x, y int
	switch {
	case strings.Contains(position, "left"):
		x = visible.X + padH
	case strings.Contains(position, "right"):
		x = visible.X + visible.W - boxW - padH
	default:
		x = visible.X + (visible.W-boxW)/2
	}
	if strings.HasPrefix(position, "top") {
		y = visible.Y + padV
	} else {
		y = visible.Y + visible.H - boxH - padV
	}
	return x, y
}

// resolveColors decides the text color and whether a background rectangle
// must be painted, based on the configured color mode. "auto" samples the
// mean luminance of the underlying region: below 128 picks white text.
func resolveColors(canvas *image.RGBA, x, y, w, h int, mode string) (textColor color.Color, bg color.Color, paintBG bool) {
	switch mode {
	case "white":
		return color.White, nil, false
	case "black":
		return color.Black, nil, false
	case "transparent_white_text":
		return color.White, nil, false
	case "transparent_black_text":
		return color.Black, nil, false
	case "white_background":
		return color.Black, color.White, true
	case "black_background":
		return color.White, color.Black, true
	default: // "auto"
		if meanLuminance(canvas, x, y, w, h) < 128 {
			return color.White, nil, false
		}
		return color.Black, nil, false
	}
}

func meanLuminance(canvas *image.RGBA, x, y, w, h int) float64 {
	b := canvas.Bounds()
	var sum float64
	var n int
	for yy := y; yy < y+h; yy++ {
		if yy < b.Min.Y || yy >= b.Max.Y {
			continue
		}
		for xx := x; xx < x+w; xx++ {
			if xx < b.Min.X || xx >= b.Max.X {
				continue
			}
			c := canvas.RGBAAt(xx, yy)
			sum += 0.299*float64(c.R) + 0.587*float64(c.G) + 0.114*float64(c.B)
			n++
		}
	}
	if n == 0 {
		return 255
	}
	return sum / float64(n)
}

func strokeColorFor(configured string, textColor color.Color) color.Color {
	if configured == "" || configured == "auto" {
		if textColor == color.White {
			return color.Black
		}
		return color.White
	}
	r, g, bl, ok := parseHexColor(configured)
	if !ok {
		return color.Black
	}
	return color.RGBA{r, g, bl, 255}
}

func parseHexColor(s string) (uint8, uint8, uint8, bool) {
	s = strings.TrimPrefix(s, "#")
	if len(s) != 6 {
		return 0, 0, 0, false
	}
	var v [3]uint8
	for i := 0; i < 3; i++ {
		n, err := hexByte(s[i*2 : i*2+2])
		if err != nil {
			return 0, 0, 0, false
		}
		v[i] = n
	}
	return v[0], v[1], v[2], true
}

func hexByte(s string) (uint8, error) {
	var v uint8
	for _, c := range []byte(s) {
		var d uint8
		switch {
		case c >= '0' && c <= '9':
			d = c - '0'
		case c >= 'a' && c <= 'f':
			d = c - 'a' + 10
		case c >= 'A' && c <= 'F':
			d = c - 'A' + 10
		default:
			return 0, errInvalidHex
		}
		v = v*16 + d
	}
	return v, nil
}

// strftime implements the small subset of strftime directives the overlay
// format needs: %Y %m %d %H %M %S.
func strftime(format string, t time.Time) string {
	replacer := strings.NewReplacer(
		"%Y", pad4(t.Year()),
		"%m", pad2(int(t.Month())),
		"%d", pad2(t.Day()),
		"%H", pad2(t.Hour()),
		"%M", pad2(t.Minute()),
		"%S", pad2(t.Second()),
	)
	return replacer.Replace(format)
}

func pad2(v int) string {
	return fmt.Sprintf("%02d", v)
}

func pad4(v int) string {
	return fmt.Sprintf("%04d", v)
}

var errInvalidHex = fmt.Errorf("transform: invalid hex color")
