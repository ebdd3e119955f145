package config

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleTOML = `
port = 8080

[photoframes.living-room]
deviceEndpoint = "http://192.168.1.50/upload"
panelWidth = 800
panelHeight = 480
palette = ["#ffffff", "#000000"]
cron = "*/30 * * * *"
sourceIds = ["photos"]

[photoframes.living-room.overscan]
left = 2
right = 2
top = 2
bottom = 2

[sources.photos]
kind = "filesystem"
params = { glob = "/photos/*.jpg" }
`

func writeSampleConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(sampleTOML), 0o644); err != nil {
		t.Fatalf("write sample config: %v", err)
	}
	return path
}

func TestLoadConfigParsesAndStampsIDs(t *testing.T) {
	cfg, err := LoadConfig(writeSampleConfig(t))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	frame, ok := cfg.Frames["living-room"]
	if !ok {
		t.Fatal("expected living-room frame")
	}
	if frame.ID != "living-room" {
		t.Fatalf("expected frame ID stamped from map key, got %q", frame.ID)
	}
	src, ok := cfg.Sources["photos"]
	if !ok {
		t.Fatal("expected photos source")
	}
	if src.ID != "photos" {
		t.Fatalf("expected source ID stamped from map key, got %q", src.ID)
	}
}

func TestLoadConfigAppliesDefaults(t *testing.T) {
	cfg, err := LoadConfig(writeSampleConfig(t))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	frame := cfg.Frames["living-room"]
	if frame.Dither != "floyd_steinberg" {
		t.Fatalf("expected default dither, got %q", frame.Dither)
	}
	if frame.FitMode != "cover" {
		t.Fatalf("expected default fit mode, got %q", frame.FitMode)
	}
	if frame.Orientation != "landscape" {
		t.Fatalf("expected default orientation, got %q", frame.Orientation)
	}
	if frame.PushTimeoutMS != 30_000 {
		t.Fatalf("expected default push timeout, got %d", frame.PushTimeoutMS)
	}
	if cfg.Sources["photos"].Order != "sequential" {
		t.Fatalf("expected default source order, got %q", cfg.Sources["photos"].Order)
	}
	if cfg.RotationTimezone != "UTC" || cfg.LogLevel != "info" || cfg.CursorDatabase != "cursor.db" {
		t.Fatalf("expected root-level defaults applied, got %+v", cfg)
	}
}

func TestLoadConfigRejectsMissingPalette(t *testing.T) {
	bad := `
[photoframes.f1]
panelWidth = 100
panelHeight = 100
cron = "* * * * *"
sourceIds = ["s1"]

[sources.s1]
kind = "filesystem"
`
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(bad), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("expected an error for a frame with an empty palette")
	}
}

func TestLoadConfigRejectsUnknownSourceKind(t *testing.T) {
	bad := `
[photoframes.f1]
panelWidth = 100
panelHeight = 100
palette = ["#fff"]
cron = "* * * * *"
sourceIds = ["s1"]

[sources.s1]
kind = "carrier-pigeon"
`
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(bad), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("expected an error for an unknown source kind")
	}
}

func TestStoreUpdatePersistsAndSnapshotIsolatesReaders(t *testing.T) {
	path := writeSampleConfig(t)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	store := NewStore(path, cfg)

	before := store.Snapshot()
	if err := store.Update(func(c *Config) error {
		c.Frames["living-room"].Paused = true
		return nil
	}); err != nil {
		t.Fatalf("Update: %v", err)
	}

	if before.Frames["living-room"].Paused {
		t.Fatal("expected snapshot taken before Update to remain unmutated")
	}
	after := store.Snapshot()
	if !after.Frames["living-room"].Paused {
		t.Fatal("expected new snapshot to reflect the update")
	}

	reloaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("reload after persist: %v", err)
	}
	if !reloaded.Frames["living-room"].Paused {
		t.Fatal("expected Update to have persisted to disk")
	}
}

func TestStoreUpdateRollsBackOnError(t *testing.T) {
	path := writeSampleConfig(t)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	store := NewStore(path, cfg)

	sentinel := os.ErrInvalid
	err = store.Update(func(c *Config) error {
		c.Frames["living-room"].Paused = true
		return sentinel
	})
	if err != sentinel {
		t.Fatalf("expected mutate's error to propagate, got %v", err)
	}
	if store.Snapshot().Frames["living-room"].Paused {
		t.Fatal("expected failed Update not to publish its mutation")
	}
}
