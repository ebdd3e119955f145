// Package config holds the frame/source configuration model and its
// TOML load/persist cycle.
package config

// Overscan is a fixed border of the panel occluded by the physical frame.
type Overscan struct {
	Left   int `toml:"left"`
	Right  int `toml:"right"`
	Top    int `toml:"top"`
	Bottom int `toml:"bottom"`
}

// TimestampConfig controls the optional timestamp overlay stage.
type TimestampConfig struct {
	Enabled          bool   `toml:"enabled"`
	Position         string `toml:"position"` // "bottom-left", "bottom-center", "bottom-right", "top-left", "top-center", "top-right"
	FontSize         int    `toml:"fontSize"`
	ColorMode        string `toml:"colorMode"` // "auto", "white", "black", "transparent_white_text", "transparent_black_text", "white_background", "black_background"
	FullWidthBanner  bool   `toml:"fullWidthBanner"`
	BannerHeight     int    `toml:"bannerHeight"`
	PaddingH         int    `toml:"paddingH"`
	PaddingV         int    `toml:"paddingV"`
	StrokeEnabled    bool   `toml:"strokeEnabled"`
	StrokeWidth      int    `toml:"strokeWidth"`
	StrokeColor      string `toml:"strokeColor"` // "auto" or explicit hex
	Format           string `toml:"format"`      // strftime-style, e.g. "%Y-%m-%d %H:%M"
}

// FrameDescriptor is the immutable-per-config-load identity and device shape
// of a frame.
type FrameDescriptor struct {
	ID               string   `toml:"-"`
	DeviceEndpoint   string   `toml:"deviceEndpoint"`
	PanelWidth       int      `toml:"panelWidth"`
	PanelHeight      int      `toml:"panelHeight"`
	Orientation      string   `toml:"orientation"` // "landscape" | "portrait"
	FitMode          string   `toml:"fitMode"`     // "cover" | "contain"
	Palette          []string `toml:"palette"`
	Cron             string   `toml:"cron"`
	SourceIDs        []string `toml:"sourceIds"`
	PushTimeoutMS    int      `toml:"pushTimeoutMs"`
}

// FrameSettings is mutable, persisted on every PATCH.
type FrameSettings struct {
	Dither          string          `toml:"dither"`
	Brightness      float64         `toml:"brightness" validate:"gte=-50,lte=50"`
	Contrast        float64         `toml:"contrast" validate:"gte=-50,lte=50"`
	Saturation      float64         `toml:"saturation" validate:"gte=-0.25,lte=0.25"`
	Sharpness       float64         `toml:"sharpness" validate:"gte=-5,lte=5"`
	OverscanOverride *Overscan      `toml:"overscanOverride,omitempty"`
	Paused          bool            `toml:"paused"`
	Dummy           bool            `toml:"dummy"`
	Flip180         bool            `toml:"flip180"`
	Timestamp       TimestampConfig `toml:"timestamp"`
}

// FrameConfig is the persisted union of a frame's descriptor and its
// mutable settings, plus the frame's baseline overscan.
type FrameConfig struct {
	FrameDescriptor
	Overscan Overscan `toml:"overscan"`
	FrameSettings
}

// SourceConfig describes one bound photo source.
type SourceConfig struct {
	ID         string         `toml:"-"`
	Kind       string         `toml:"kind"` // "filesystem" | "remote-photo-api"
	Order      string         `toml:"order"` // "random" | "sequential"
	Params     map[string]any `toml:"params"`
	Blacklist  []string       `toml:"blacklist"`
}

// Config is the root of the on-disk TOML document.
type Config struct {
	Port             int                     `toml:"port"`
	RotationTimezone string                  `toml:"rotationTimezone"`
	LogLevel         string                  `toml:"logLevel"`
	CursorDatabase   string                  `toml:"cursorDatabase"`
	BlacklistRedisAddr string                `toml:"blacklistRedisAddr"`
	Frames           map[string]*FrameConfig  `toml:"photoframes"`
	Sources          map[string]*SourceConfig `toml:"sources"`
}
