package palette

import "testing"

func TestResolveParsesHexVariants(t *testing.T) {
	r := Resolve([]string{"#fff", "#000000", "not-a-color", "08f"})

	if !r.Entries[0].Valid || r.Entries[0].Hex != "#ffffff" {
		t.Fatalf("expected 3-digit hex expansion, got %+v", r.Entries[0])
	}
	if !r.Entries[1].Valid || r.Entries[1].R != 0 || r.Entries[1].G != 0 || r.Entries[1].B != 0 {
		t.Fatalf("expected black, got %+v", r.Entries[1])
	}
	if r.Entries[2].Valid || r.Entries[2].Hex != "invalid" {
		t.Fatalf("expected malformed entry marked invalid, got %+v", r.Entries[2])
	}
	if !r.Entries[3].Valid || r.Entries[3].R != 0 || r.Entries[3].G != 0x88 || r.Entries[3].B != 0xff {
		t.Fatalf("expected 3-digit hex without leading #, got %+v", r.Entries[3])
	}
}

func TestNearestPicksClosestValidEntryAndSkipsInvalid(t *testing.T) {
	r := Resolve([]string{"#ffffff", "#000000", "bogus"})

	idx := r.Nearest(10, 10, 10)
	if idx != 1 {
		t.Fatalf("expected near-black to resolve to black entry (1), got %d", idx)
	}

	idx = r.Nearest(250, 250, 250)
	if idx != 0 {
		t.Fatalf("expected near-white to resolve to white entry (0), got %d", idx)
	}
}

func TestNearestTiesResolveToLowestIndex(t *testing.T) {
	r := Resolve([]string{"#808080", "#808080"})
	if idx := r.Nearest(128, 128, 128); idx != 0 {
		t.Fatalf("expected tie to resolve to first declared entry, got %d", idx)
	}
}

func TestWhiteAndBlackIndex(t *testing.T) {
	r := Resolve([]string{"#ff0000", "#ffffff", "#000000", "#00ff00"})
	if r.WhiteIndex() != 1 {
		t.Fatalf("expected WhiteIndex 1, got %d", r.WhiteIndex())
	}
	if r.BlackIndex() != 2 {
		t.Fatalf("expected BlackIndex 2, got %d", r.BlackIndex())
	}
}

func TestNearestOnAllInvalidPaletteReturnsNegativeOne(t *testing.T) {
	r := Resolve([]string{"nope", "still-nope"})
	if idx := r.Nearest(1, 2, 3); idx != -1 {
		t.Fatalf("expected -1 for a palette with no valid entries, got %d", idx)
	}
}

func TestResolveLargePaletteUsesKDTreeAndAgreesWithLinearScan(t *testing.T) {
	declared := make([]string, 0, 20)
	for i := 0; i < 20; i++ {
		v := uint8(i * 12)
		declared = append(declared, rgbHex(v, 255-v, v/2))
	}
	r := Resolve(declared)
	if r.tree == nil {
		t.Fatal("expected a k-d tree to be built for a 20-entry palette")
	}

	for _, probe := range [][3]uint8{{10, 200, 5}, {128, 128, 128}, {250, 10, 250}} {
		got := r.Nearest(probe[0], probe[1], probe[2])

		// Build an un-treed resolver over the same entries to cross-check.
		flat := &Resolved{Entries: r.Entries, valid: r.valid}
		want := flat.Nearest(probe[0], probe[1], probe[2])
		if got != want {
			t.Fatalf("k-d tree result %d disagrees with linear scan %d for probe %v", got, want, probe)
		}
	}
}

func rgbHex(r, g, b uint8) string {
	const hex = "0123456789abcdef"
	buf := make([]byte, 7)
	buf[0] = '#'
	buf[1], buf[2] = hex[r>>4], hex[r&0xf]
	buf[3], buf[4] = hex[g>>4], hex[g&0xf]
	buf[5], buf[6] = hex[b>>4], hex[b&0xf]
	return string(buf)
}
