package mandel

// Config holds the startup parameters of a viewer. There is no flag or
// file parsing; callers start from DefaultConfig and override fields.
type Config struct {
	// Width and Height are the initial surface and compute output size
	// in pixels.
	Width  uint32
	Height uint32

	// MaxIterations is the escape-time iteration budget per pixel.
	MaxIterations int32

	// Center, Zoom and PanSpeed seed the initial viewport.
	Center   Vec2
	Zoom     float32
	PanSpeed float32
}

// DefaultConfig returns the standard startup configuration: a
// 1024x1024 view of the full set at 180 iterations.
func DefaultConfig() Config {
	return Config{
		Width:         1024,
		Height:        1024,
		MaxIterations: 180,
		Zoom:          1.0,
		PanSpeed:      0.05,
	}
}

// Viewport builds the initial viewport described by the config.
func (c Config) Viewport() Viewport {
	return Viewport{Center: c.Center, Zoom: c.Zoom, PanSpeed: c.PanSpeed}
}
