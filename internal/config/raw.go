package config

// RawConfig is the on-disk shape. Pointer fields distinguish "unset" from a
// zero value so that defaults survive partial files.
type RawConfig struct {
	Title          *string            `yaml:"title"`
	Width          *int               `yaml:"width"`
	Height         *int               `yaml:"height"`
	Fullscreen     *bool              `yaml:"fullscreen"`
	PixelFormat    *RawPixelFormat    `yaml:"pixel_format"`
	PreferRawInput *bool              `yaml:"prefer_raw_input"`
	QueueCapacity  *int               `yaml:"queue_capacity"`
	ClassName      *string            `yaml:"class_name"`
	LogLevel       *string            `yaml:"log_level"`
	FullscreenMode *RawFullscreenMode `yaml:"fullscreen_mode"`
}

type RawPixelFormat struct {
	ColorBits      *int  `yaml:"color_bits"`
	DepthBits      *int  `yaml:"depth_bits"`
	StencilBits    *int  `yaml:"stencil_bits"`
	Samples        *int  `yaml:"samples"`
	DoubleBuffered *bool `yaml:"double_buffered"`
	Accelerated    *bool `yaml:"accelerated"`
}

type RawFullscreenMode struct {
	BitsPerPixel *int `yaml:"bits_per_pixel"`
	RefreshHz    *int `yaml:"refresh_hz"`
}

func setIf[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

// apply overlays the set fields of r onto cfg and returns cfg.
func (r RawConfig) apply(cfg *Config) *Config {
	setIf(&cfg.Title, r.Title)
	setIf(&cfg.Width, r.Width)
	setIf(&cfg.Height, r.Height)
	setIf(&cfg.Fullscreen, r.Fullscreen)
	setIf(&cfg.PreferRawInput, r.PreferRawInput)
	setIf(&cfg.QueueCapacity, r.QueueCapacity)
	setIf(&cfg.ClassName, r.ClassName)
	setIf(&cfg.LogLevel, r.LogLevel)

	if pf := r.PixelFormat; pf != nil {
		setIf(&cfg.PixelFormat.ColorBits, pf.ColorBits)
		setIf(&cfg.PixelFormat.DepthBits, pf.DepthBits)
		setIf(&cfg.PixelFormat.StencilBits, pf.StencilBits)
		setIf(&cfg.PixelFormat.Samples, pf.Samples)
		setIf(&cfg.PixelFormat.DoubleBuffered, pf.DoubleBuffered)
		setIf(&cfg.PixelFormat.Accelerated, pf.Accelerated)
	}
	if fm := r.FullscreenMode; fm != nil {
		setIf(&cfg.FullscreenMode.BitsPerPixel, fm.BitsPerPixel)
		setIf(&cfg.FullscreenMode.RefreshHz, fm.RefreshHz)
	}
	return cfg
}
