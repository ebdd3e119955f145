package orchestrator

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jo-hoe/pixelframe/internal/config"
	"github.com/jo-hoe/pixelframe/internal/framestate"
)

type memCursor struct{ values map[string]int }

func newMemCursor() *memCursor { return &memCursor{values: make(map[string]int)} }

func (c *memCursor) Get(frameID, sourceID string) (int, bool, error) {
	v, ok := c.values[frameID+"|"+sourceID]
	return v, ok, nil
}

func (c *memCursor) Set(frameID, sourceID string, index int) error {
	c.values[frameID+"|"+sourceID] = index
	return nil
}

func writeFixturePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{120, 80, 200, 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode fixture: %v", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
}

func testConfig(dir, deviceEndpoint string) *config.Config {
	return &config.Config{
		Frames: map[string]*config.FrameConfig{
			"f1": {
				FrameDescriptor: config.FrameDescriptor{
					ID:             "f1",
					DeviceEndpoint: deviceEndpoint,
					PanelWidth:     200,
					PanelHeight:    100,
					Orientation:    "landscape",
					FitMode:        "cover",
					Palette:        []string{"#ffffff", "#000000"},
					SourceIDs:      []string{"s1"},
					PushTimeoutMS:  30000,
				},
				FrameSettings: config.FrameSettings{Dither: "none"},
			},
		},
		Sources: map[string]*config.SourceConfig{
			"s1": {ID: "s1", Kind: "filesystem", Order: "sequential", Params: map[string]any{"glob": filepath.Join(dir, "*.png")}},
		},
	}
}

func newTestOrchestrator(t *testing.T, deviceEndpoint string) *Orchestrator {
	t.Helper()
	dir := t.TempDir()
	writeFixturePNG(t, filepath.Join(dir, "a.png"), 400, 200)

	store := config.NewStore(filepath.Join(t.TempDir(), "config.toml"), testConfig(dir, deviceEndpoint))
	return New(store, NewBinder(nil), newMemCursor(), nil)
}

func TestRenderPublishesIntermediateAndEncoded(t *testing.T) {
	o := newTestOrchestrator(t, "http://unused.invalid")
	if err := o.Render(context.Background(), "f1"); err != nil {
		t.Fatalf("Render: %v", err)
	}
	snap := o.States.Get("f1").Snapshot()
	if snap.Intermediate == nil {
		t.Fatal("expected intermediate to be published")
	}
	if snap.Encoded == nil {
		t.Fatal("expected encoded to be published")
	}
	if snap.Intermediate.Bounds().Dx() != 200 || snap.Intermediate.Bounds().Dy() != 100 {
		t.Fatalf("expected panel-sized intermediate, got %dx%d", snap.Intermediate.Bounds().Dx(), snap.Intermediate.Bounds().Dy())
	}
}

func TestPreviewReturnsBMPWithoutPublishingState(t *testing.T) {
	o := newTestOrchestrator(t, "http://unused.invalid")
	if err := o.Render(context.Background(), "f1"); err != nil {
		t.Fatalf("Render: %v", err)
	}
	before := o.States.Get("f1").Snapshot().Generation

	brightness := 20.0
	bmp, err := o.Preview(context.Background(), "f1", Overrides{Brightness: &brightness})
	if err != nil {
		t.Fatalf("Preview: %v", err)
	}
	if len(bmp) == 0 {
		t.Fatal("expected non-empty BMP payload")
	}

	after := o.States.Get("f1").Snapshot().Generation
	if before != after {
		t.Fatalf("expected preview not to mutate published state, generation %d -> %d", before, after)
	}
}

func TestPreviewDiscardsResultWhenGenerationAdvancesMidComputation(t *testing.T) {
	o := newTestOrchestrator(t, "http://unused.invalid")
	if err := o.Render(context.Background(), "f1"); err != nil {
		t.Fatalf("Render: %v", err)
	}

	frame := o.States.Get("f1")
	// o.Now is called once Preview has snapshotted source_bytes and is
	// about to transform them; hijacking it to advance the frame's
	// generation right there deterministically reproduces "a concurrent
	// render completed while this preview was computing".
	o.Now = func() time.Time {
		frame.Lock()
		frame.SetSourceBytes(&framestate.CurrentAsset{SourceID: "s1", AssetID: "racing"}, []byte("new-bytes"))
		frame.Unlock()
		return time.Now()
	}

	if _, err := o.Preview(context.Background(), "f1", Overrides{}); err == nil {
		t.Fatal("expected preview to be discarded when the generation advances mid-computation")
	}
}

func TestPreviewOnNeverRenderedFrameReturnsPlaceholderBMP(t *testing.T) {
	o := newTestOrchestrator(t, "http://unused.invalid")

	bmp, err := o.Preview(context.Background(), "f1", Overrides{})
	if err != nil {
		t.Fatalf("Preview: %v", err)
	}
	if len(bmp) == 0 {
		t.Fatal("expected a non-empty placeholder BMP for a never-rendered frame")
	}
}

func TestPlaceholderReturnsPanelSizedImageWithoutTouchingFramestate(t *testing.T) {
	o := newTestOrchestrator(t, "http://unused.invalid")

	img, pal, err := o.Placeholder("f1")
	if err != nil {
		t.Fatalf("Placeholder: %v", err)
	}
	if img.Bounds().Dx() != 200 || img.Bounds().Dy() != 100 {
		t.Fatalf("expected panel-sized placeholder, got %dx%d", img.Bounds().Dx(), img.Bounds().Dy())
	}
	if pal == nil {
		t.Fatal("expected a resolved palette")
	}
	if o.States.Get("f1").Snapshot().EverRendered {
		t.Fatal("expected Placeholder not to mark the frame as rendered")
	}
}

func TestRenderThenPushPostsBMP(t *testing.T) {
	var gotContentType string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	o := newTestOrchestrator(t, server.URL)
	if err := o.Render(context.Background(), "f1"); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if err := o.Push(context.Background(), "f1"); err != nil {
		t.Fatalf("Push: %v", err)
	}
	if gotContentType != "image/bmp" {
		t.Fatalf("expected image/bmp, got %q", gotContentType)
	}
}

func TestUploadPausesFrame(t *testing.T) {
	o := newTestOrchestrator(t, "http://unused.invalid")

	var buf bytes.Buffer
	img := image.NewRGBA(image.Rect(0, 0, 50, 50))
	_ = png.Encode(&buf, img)

	if err := o.Upload(context.Background(), "f1", buf.Bytes()); err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if !o.Store.Snapshot().Frames["f1"].Paused {
		t.Fatal("expected frame to be paused after upload")
	}
	snap := o.States.Get("f1").Snapshot()
	if snap.CurrentAsset == nil || snap.CurrentAsset.SourceID != "upload" {
		t.Fatalf("expected synthetic upload asset, got %+v", snap.CurrentAsset)
	}
}

func TestClearPushesAllWhiteWithoutTouchingCurrentAsset(t *testing.T) {
	var pushed []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf := new(bytes.Buffer)
		buf.ReadFrom(r.Body)
		pushed = buf.Bytes()
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	o := newTestOrchestrator(t, server.URL)
	if err := o.Render(context.Background(), "f1"); err != nil {
		t.Fatalf("Render: %v", err)
	}
	before := o.States.Get("f1").Snapshot().CurrentAsset

	if err := o.Clear(context.Background(), "f1"); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if len(pushed) == 0 {
		t.Fatal("expected clear to push a payload")
	}

	after := o.States.Get("f1").Snapshot().CurrentAsset
	if before.AssetID != after.AssetID {
		t.Fatalf("expected current_asset unchanged by clear, got %+v -> %+v", before, after)
	}
}
