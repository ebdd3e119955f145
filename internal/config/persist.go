package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/BurntSushi/toml"
)

// Store wraps a Config snapshot in a read-mostly, copy-on-write container
// as described for "global mutable config": PATCH-style writers build a new
// snapshot and atomically publish it; readers in flight keep observing the
// snapshot they already took.
type Store struct {
	path string
	mu   sync.RWMutex
	cfg  *Config
}

// NewStore wraps an already-loaded config for a given backing file path.
func NewStore(path string, cfg *Config) *Store {
	return &Store{path: path, cfg: cfg}
}

// Snapshot returns the currently published config. Callers must not mutate
// the returned value; use Update to publish changes.
func (s *Store) Snapshot() *Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// Update runs mutate against a copy of the currently published config and,
// on success, publishes the mutated copy and persists it to disk.
func (s *Store) Update(mutate func(*Config) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := cloneConfig(s.cfg)
	if err := mutate(next); err != nil {
		return err
	}
	if err := persist(s.path, next); err != nil {
		return fmt.Errorf("failed to persist config: %w", err)
	}
	s.cfg = next
	return nil
}

func cloneConfig(cfg *Config) *Config {
	next := *cfg
	next.Frames = make(map[string]*FrameConfig, len(cfg.Frames))
	for id, frame := range cfg.Frames {
		f := *frame
		next.Frames[id] = &f
	}
	next.Sources = make(map[string]*SourceConfig, len(cfg.Sources))
	for id, src := range cfg.Sources {
		s := *src
		s.Blacklist = append([]string(nil), src.Blacklist...)
		next.Sources[id] = &s
	}
	return &next
}

// persist writes cfg to path atomically: encode to a temp file in the same
// directory, then rename over the target so readers never observe a
// partially-written document.
func persist(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".config-*.toml.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf)
	if err := enc.Encode(cfg); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
