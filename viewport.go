package mandel

// Vec2 is a point in the complex plane: X is the real axis, Y the
// imaginary axis. Y grows downward on screen.
type Vec2 struct {
	X, Y float32
}

// Viewport is the navigable view of the complex plane: a center point
// and a zoom value that doubles as the half-extent of the visible
// square. Pan steps move the center by PanSpeed*Zoom, so navigation
// covers the same on-screen distance at every depth.
//
// All operations are plain arithmetic on the three fields. Between
// mutations the viewport is an immutable value; Params can be called
// any number of times and returns the same block.
type Viewport struct {
	Center   Vec2
	Zoom     float32
	PanSpeed float32
}

// NewViewport returns the startup view: origin-centered, zoom 1,
// pan speed 0.05.
func NewViewport() Viewport {
	return Viewport{Zoom: 1, PanSpeed: 0.05}
}

// PanLeft moves the view toward negative real values.
func (v *Viewport) PanLeft() {
	v.Center.X -= v.Zoom * v.PanSpeed
}

// PanRight moves the view toward positive real values.
func (v *Viewport) PanRight() {
	v.Center.X += v.Zoom * v.PanSpeed
}

// PanUp moves the view up on screen, toward negative imaginary values.
func (v *Viewport) PanUp() {
	v.Center.Y -= v.Zoom * v.PanSpeed
}

// PanDown moves the view down on screen, toward positive imaginary values.
func (v *Viewport) PanDown() {
	v.Center.Y += v.Zoom * v.PanSpeed
}

// ZoomIn halves the visible extent. Zoom is not clamped: float32
// precision runs out around 1e-6, after which the image stops changing.
func (v *Viewport) ZoomIn() {
	v.Zoom *= 0.5
}

// ZoomOut doubles the visible extent.
func (v *Viewport) ZoomOut() {
	v.Zoom *= 2.0
}

// Params derives the kernel parameter block for the current view:
// center +- zoom on both axes plus the iteration budget.
func (v Viewport) Params(maxIterations int32) Params {
	return Params{
		XMin:          v.Center.X - v.Zoom,
		XMax:          v.Center.X + v.Zoom,
		YMin:          v.Center.Y - v.Zoom,
		YMax:          v.Center.Y + v.Zoom,
		MaxIterations: maxIterations,
	}
}
