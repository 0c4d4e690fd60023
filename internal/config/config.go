package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/1broseidon/winbridge/internal/host"
	"github.com/1broseidon/winbridge/internal/pixelformat"
	"github.com/1broseidon/winbridge/internal/window"
)

// Config is the effective bridge configuration after defaults and file
// overrides have been merged.
type Config struct {
	Title          string         `yaml:"title"`
	Width          int            `yaml:"width"`
	Height         int            `yaml:"height"`
	Fullscreen     bool           `yaml:"fullscreen"`
	PixelFormat    PixelFormat    `yaml:"pixel_format"`
	PreferRawInput bool           `yaml:"prefer_raw_input"`
	QueueCapacity  int            `yaml:"queue_capacity"`
	ClassName      string         `yaml:"class_name"`
	LogLevel       string         `yaml:"log_level"`
	FullscreenMode FullscreenMode `yaml:"fullscreen_mode"`
}

// PixelFormat mirrors pixelformat.Request with yaml keys.
type PixelFormat struct {
	ColorBits      int  `yaml:"color_bits"`
	DepthBits      int  `yaml:"depth_bits"`
	StencilBits    int  `yaml:"stencil_bits"`
	Samples        int  `yaml:"samples"`
	DoubleBuffered bool `yaml:"double_buffered"`
	Accelerated    bool `yaml:"accelerated"`
}

// FullscreenMode pins the color depth and refresh rate used when entering
// fullscreen. Zero values mean "keep the current display mode's value".
type FullscreenMode struct {
	BitsPerPixel int `yaml:"bits_per_pixel"`
	RefreshHz    int `yaml:"refresh_hz"`
}

// MaxDimension bounds the configured client size; window systems carry
// sizes in signed 16-bit fields.
const MaxDimension = 32767

var validLogLevels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// Default returns the configuration used when no file overrides a field.
func Default() *Config {
	return &Config{
		Title:  "winbridge",
		Width:  800,
		Height: 600,
		PixelFormat: PixelFormat{
			ColorBits:      32,
			DepthBits:      24,
			StencilBits:    8,
			DoubleBuffered: true,
			Accelerated:    true,
		},
		PreferRawInput: true,
		QueueCapacity:  256,
		ClassName:      window.DefaultClassName,
		LogLevel:       "info",
	}
}

// Validate reports the first invalid field, keyed by its yaml path.
func (c *Config) Validate() error {
	if c.Width <= 0 || c.Width > MaxDimension {
		return &ValidationError{Path: "width", Err: fmt.Errorf("must be in 1..%d, got %d", MaxDimension, c.Width)}
	}
	if c.Height <= 0 || c.Height > MaxDimension {
		return &ValidationError{Path: "height", Err: fmt.Errorf("must be in 1..%d, got %d", MaxDimension, c.Height)}
	}
	if c.QueueCapacity < 0 {
		return &ValidationError{Path: "queue_capacity", Err: fmt.Errorf("must be >= 0, got %d", c.QueueCapacity)}
	}
	if strings.TrimSpace(c.ClassName) == "" {
		return &ValidationError{Path: "class_name", Err: errors.New("must not be empty")}
	}
	if _, ok := validLogLevels[strings.ToLower(c.LogLevel)]; !ok {
		return &ValidationError{Path: "log_level", Err: fmt.Errorf("unknown level %q (want debug, info, warn or error)", c.LogLevel)}
	}

	bits := []struct {
		path  string
		value int
	}{
		{"pixel_format.color_bits", c.PixelFormat.ColorBits},
		{"pixel_format.depth_bits", c.PixelFormat.DepthBits},
		{"pixel_format.stencil_bits", c.PixelFormat.StencilBits},
		{"pixel_format.samples", c.PixelFormat.Samples},
		{"fullscreen_mode.bits_per_pixel", c.FullscreenMode.BitsPerPixel},
		{"fullscreen_mode.refresh_hz", c.FullscreenMode.RefreshHz},
	}
	for _, b := range bits {
		if b.value < 0 {
			return &ValidationError{Path: b.path, Err: fmt.Errorf("must be >= 0, got %d", b.value)}
		}
	}
	return nil
}

// Level returns the slog level for log_level. Unknown names map to info.
func (c *Config) Level() slog.Level {
	if lvl, ok := validLogLevels[strings.ToLower(c.LogLevel)]; ok {
		return lvl
	}
	return slog.LevelInfo
}

// PixelRequest converts the pixel_format section into a negotiation request.
func (c *Config) PixelRequest() pixelformat.Request {
	return pixelformat.Request{
		ColorBits:      c.PixelFormat.ColorBits,
		DepthBits:      c.PixelFormat.DepthBits,
		StencilBits:    c.PixelFormat.StencilBits,
		SampleCount:    c.PixelFormat.Samples,
		DoubleBuffered: c.PixelFormat.DoubleBuffered,
		Accelerated:    c.PixelFormat.Accelerated,
	}
}

// FullscreenTemplate returns the partial display mode applied on fullscreen
// entry. Width and height are filled in from the window at transition time.
func (c *Config) FullscreenTemplate() host.DisplayMode {
	return host.DisplayMode{
		BitsPerPixel: c.FullscreenMode.BitsPerPixel,
		RefreshHz:    c.FullscreenMode.RefreshHz,
	}
}
