package api

import (
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/jo-hoe/pixelframe/internal/config"
	"github.com/jo-hoe/pixelframe/internal/orchestrator"
)

// configView is the wire shape of GET /config (§6), keyed the same way the
// TOML document is. Only the two top-level keys carry json tags; the fields
// of FrameConfig and SourceConfig have toml tags alone, so they are encoded
// under their Go field names (e.g. "PanelWidth"), not in camelCase.
type configView struct {
	PhotoFrames map[string]*config.FrameConfig  `json:"photoframes"`
	Sources     map[string]*config.SourceConfig `json:"sources"`
}

func (s *Service) getConfig(c echo.Context) error {
	cfg := s.store.Snapshot()
	return c.JSON(http.StatusOK, configView{PhotoFrames: cfg.Frames, Sources: cfg.Sources})
}

// patchPayload is the settable subset of FrameSettings a PATCH may supply;
// pointer fields distinguish "omitted" from "explicitly zero".
type patchPayload struct {
	Dither           *string                 `json:"dither"`
	Brightness       *float64                `json:"brightness" validate:"omitempty,gte=-50,lte=50"`
	Contrast         *float64                `json:"contrast" validate:"omitempty,gte=-50,lte=50"`
	Saturation       *float64                `json:"saturation" validate:"omitempty,gte=-0.25,lte=0.25"`
	Sharpness        *float64                `json:"sharpness" validate:"omitempty,gte=-5,lte=5"`
	OverscanOverride *config.Overscan        `json:"overscanOverride"`
	Paused           *bool                   `json:"paused"`
	Dummy            *bool                   `json:"dummy"`
	Flip180          *bool                   `json:"flip180"`
	Timestamp        *config.TimestampConfig `json:"timestamp"`
}

func (s *Service) patchFrame(c echo.Context) error {
	frameID := c.Param("id")
	var payload patchPayload
	if err := c.Bind(&payload); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&payload); err != nil {
		return err
	}

	err := s.store.Update(func(cfg *config.Config) error {
		frame := cfg.Frames[frameID]
		if frame == nil {
			return frameNotFound(frameID)
		}
		applyPatch(frame, payload)
		return nil
	})
	if err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func applyPatch(frame *config.FrameConfig, p patchPayload) {
	if p.Dither != nil {
		frame.Dither = *p.Dither
	}
	if p.Brightness != nil {
		frame.Brightness = *p.Brightness
	}
	if p.Contrast != nil {
		frame.Contrast = *p.Contrast
	}
	if p.Saturation != nil {
		frame.Saturation = *p.Saturation
	}
	if p.Sharpness != nil {
		frame.Sharpness = *p.Sharpness
	}
	if p.OverscanOverride != nil {
		frame.OverscanOverride = p.OverscanOverride
	}
	if p.Paused != nil {
		frame.Paused = *p.Paused
	}
	if p.Dummy != nil {
		frame.Dummy = *p.Dummy
	}
	if p.Flip180 != nil {
		frame.Flip180 = *p.Flip180
	}
	if p.Timestamp != nil {
		frame.Timestamp = *p.Timestamp
	}
}

func (s *Service) triggerFrame(c echo.Context) error {
	frameID := c.Param("id")
	if s.store.Snapshot().Frames[frameID] == nil {
		return frameNotFound(frameID)
	}
	if err := s.scheduler.Trigger(c.Request().Context(), frameID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusAccepted)
}

// nextFrame takes the frame's single-flight lock before rendering, the
// same discipline the scheduler's reconcile loop uses, so a manual /next
// can never run concurrently with a cron tick or another /next/upload on
// the same frame.
func (s *Service) nextFrame(c echo.Context) error {
	frameID := c.Param("id")
	if s.store.Snapshot().Frames[frameID] == nil {
		return frameNotFound(frameID)
	}
	if !s.orchestrator.TryLock(frameID) {
		return echo.NewHTTPError(http.StatusConflict, "frame is busy")
	}
	defer s.orchestrator.Unlock(frameID)

	if err := s.orchestrator.Render(c.Request().Context(), frameID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusAccepted)
}

func (s *Service) previewFrame(c echo.Context) error {
	frameID := c.Param("id")
	if s.store.Snapshot().Frames[frameID] == nil {
		return frameNotFound(frameID)
	}
	// Preview overlays settings onto the cached source_bytes without
	// committing them to the persisted config or publishing frame state;
	// the caller's body shares patchPayload's shape, but only its dither,
	// adjustment and flip180 fields are applied: overscanOverride and
	// timestamp are accepted and ignored.
	var payload patchPayload
	if err := c.Bind(&payload); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&payload); err != nil {
		return err
	}

	bmp, err := s.orchestrator.Preview(c.Request().Context(), frameID, orchestrator.Overrides{
		Dither:     payload.Dither,
		Brightness: payload.Brightness,
		Contrast:   payload.Contrast,
		Saturation: payload.Saturation,
		Sharpness:  payload.Sharpness,
		Flip180:    payload.Flip180,
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	return c.Blob(http.StatusOK, "image/bmp", bmp)
}

func (s *Service) uploadFrame(c echo.Context) error {
	frameID := c.Param("id")
	if s.store.Snapshot().Frames[frameID] == nil {
		return frameNotFound(frameID)
	}
	file, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "missing multipart field \"file\"")
	}
	src, err := file.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := s.orchestrator.Upload(c.Request().Context(), frameID, data); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Service) clearFrame(c echo.Context) error {
	frameID := c.Param("id")
	if s.store.Snapshot().Frames[frameID] == nil {
		return frameNotFound(frameID)
	}
	if err := s.orchestrator.Clear(c.Request().Context(), frameID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Service) getIntermediate(c echo.Context) error {
	frameID := c.Param("id")
	snap, ok := s.states.Snapshot(frameID)
	if !ok {
		return frameNotFound(frameID)
	}
	if snap.Intermediate == nil {
		return echo.NewHTTPError(http.StatusNotFound, "frame has not rendered yet")
	}
	return c.Blob(http.StatusOK, "image/png", snap.Intermediate)
}

type paletteView struct {
	FrameID string         `json:"frameId"`
	Palette []PaletteEntry `json:"palette"`
}

func (s *Service) getPalette(c echo.Context) error {
	frameID := c.Param("id")
	snap, ok := s.states.Snapshot(frameID)
	if !ok {
		return frameNotFound(frameID)
	}
	return c.JSON(http.StatusOK, paletteView{FrameID: frameID, Palette: snap.Palette})
}

func (s *Service) getMetadata(c echo.Context) error {
	frameID := c.Param("id")
	snap, ok := s.states.Snapshot(frameID)
	if !ok {
		return frameNotFound(frameID)
	}
	if snap.CurrentAsset == nil {
		return c.JSON(http.StatusOK, map[string]any{})
	}
	return c.JSON(http.StatusOK, snap.CurrentAsset)
}

func (s *Service) refreshSource(c echo.Context) error {
	sourceID := c.Param("id")
	if s.store.Snapshot().Sources[sourceID] == nil {
		return sourceNotFound(sourceID)
	}
	s.binderNotify.Invalidate(sourceID)
	return c.NoContent(http.StatusNoContent)
}

func (s *Service) setSourceCredentials(c echo.Context) error {
	sourceID := c.Param("id")
	var params map[string]any
	if err := c.Bind(&params); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := s.mergeSourceParams(sourceID, params); err != nil {
		return err
	}
	s.binderNotify.Invalidate(sourceID)
	return c.NoContent(http.StatusNoContent)
}

func (s *Service) setSourceFilters(c echo.Context) error {
	sourceID := c.Param("id")
	var params map[string]any
	if err := c.Bind(&params); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := s.mergeSourceParams(sourceID, params); err != nil {
		return err
	}
	s.binderNotify.Invalidate(sourceID)
	return c.NoContent(http.StatusNoContent)
}

func (s *Service) mergeSourceParams(sourceID string, params map[string]any) error {
	return s.store.Update(func(cfg *config.Config) error {
		src := cfg.Sources[sourceID]
		if src == nil {
			return sourceNotFound(sourceID)
		}
		if src.Params == nil {
			src.Params = make(map[string]any, len(params))
		}
		for k, v := range params {
			src.Params[k] = v
		}
		return nil
	})
}

type blacklistPayload struct {
	AssetID string `json:"assetId" validate:"required"`
}

func (s *Service) blacklistAsset(c echo.Context) error {
	sourceID := c.Param("id")
	if s.store.Snapshot().Sources[sourceID] == nil {
		return sourceNotFound(sourceID)
	}
	var payload blacklistPayload
	if err := c.Bind(&payload); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&payload); err != nil {
		return err
	}
	if s.blacklist != nil {
		if err := s.blacklist.Add(c.Request().Context(), sourceID, payload.AssetID); err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}
	return c.NoContent(http.StatusNoContent)
}
