// Package palette resolves a frame's declared hex colors into RGB triples
// and exposes deterministic nearest-color search (C1).
package palette

import (
	"fmt"
	"math"
	"strconv"
)

// Entry is one resolved palette color, matching the /frames/{id}/palette
// wire shape.
type Entry struct {
	Input   string
	Hex     string // "invalid" if Input could not be parsed
	R, G, B uint8
	Valid   bool
}

// Resolved is a frame's fully-parsed palette: the declared entries in
// order, plus a nearest-color index built only over the valid ones.
type Resolved struct {
	Entries []Entry
	valid   []int // indices into Entries that are Valid, in declared order
	tree    *kdNode
}

// Resolve parses each declared hex color. Malformed entries are marked
// invalid and excluded from quantization rather than failing the frame.
func Resolve(declared []string) *Resolved {
	r := &Resolved{Entries: make([]Entry, len(declared))}
	for i, raw := range declared {
		red, green, blue, err := parseHex(raw)
		if err != nil {
			r.Entries[i] = Entry{Input: raw, Hex: "invalid", Valid: false}
			continue
		}
		r.Entries[i] = Entry{
			Input: raw,
			Hex:   fmt.Sprintf("#%02x%02x%02x", red, green, blue),
			R:     red, G: green, B: blue,
			Valid: true,
		}
		r.valid = append(r.valid, i)
	}

	if len(r.valid) >= 16 {
		r.tree = buildKDTree(r.valid, r.Entries, 0)
	}
	return r
}

// parseHex accepts hex with or without a leading '#', 3- or 6-digit.
func parseHex(s string) (uint8, uint8, uint8, error) {
	if len(s) > 0 && s[0] == '#' {
		s = s[1:]
	}
	switch len(s) {
	case 3:
		r, err := strconv.ParseUint(string([]byte{s[0], s[0]}), 16, 8)
		if err != nil {
			return 0, 0, 0, err
		}
		g, err := strconv.ParseUint(string([]byte{s[1], s[1]}), 16, 8)
		if err != nil {
			return 0, 0, 0, err
		}
		b, err := strconv.ParseUint(string([]byte{s[2], s[2]}), 16, 8)
		if err != nil {
			return 0, 0, 0, err
		}
		return uint8(r), uint8(g), uint8(b), nil
	case 6:
		v, err := strconv.ParseUint(s, 16, 32)
		if err != nil {
			return 0, 0, 0, err
		}
		return uint8(v >> 16), uint8(v >> 8), uint8(v), nil
	default:
		return 0, 0, 0, fmt.Errorf("palette: malformed hex color %q", s)
	}
}

// Nearest returns the index into Entries of the closest valid palette
// color to (r,g,b), measured as squared Euclidean distance in
// linear-premultiplied sRGB space. Ties resolve to the lowest index, i.e.
// first occurrence in declaration order.
func (r *Resolved) Nearest(red, green, blue uint8) int {
	if len(r.valid) == 0 {
		return -1
	}
	target := toLinear(red, green, blue)
	if r.tree != nil {
		return r.tree.nearest(target, r.Entries)
	}
	best := r.valid[0]
	bestDist := sqDist(target, toLinear(r.Entries[best].R, r.Entries[best].G, r.Entries[best].B))
	for _, idx := range r.valid[1:] {
		e := r.Entries[idx]
		d := sqDist(target, toLinear(e.R, e.G, e.B))
		if d < bestDist {
			best, bestDist = idx, d
		}
	}
	return best
}

// WhiteIndex returns the palette entry with minimum squared distance to
// pure white, used to fill overscan and letterbox regions.
func (r *Resolved) WhiteIndex() int {
	return r.Nearest(255, 255, 255)
}

// BlackIndex returns the palette entry with minimum squared distance to
// pure black, used to tint the placeholder card before any asset has
// rendered.
func (r *Resolved) BlackIndex() int {
	return r.Nearest(0, 0, 0)
}

type linearRGB struct{ r, g, b float64 }

func toLinear(r, g, b uint8) linearRGB {
	return linearRGB{expand(r), expand(g), expand(b)}
}

func expand(c uint8) float64 {
	v := float64(c) / 255
	if v <= 0.04045 {
		return v / 12.92
	}
	return math.Pow((v+0.055)/1.055, 2.4)
}

func sqDist(a, b linearRGB) float64 {
	dr := a.r - b.r
	dg := a.g - b.g
	db := a.b - b.b
	return dr*dr + dg*dg + db*db
}
