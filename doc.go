// Package mandel implements an interactively navigable Mandelbrot set
// viewer rendered entirely on the GPU.
//
// Each frame a compute pass evaluates the escape-time iteration for
// every pixel of an rgba8unorm storage texture, and a render pass
// samples that texture onto a fullscreen quad on the window surface.
// Both passes share one queue; submission order is the only
// synchronization between them.
//
// This package holds the pure state: the viewport (pan/zoom navigation
// over the complex plane), the kernel parameter block and its wire
// layout, and the startup configuration. The GPU engines live in
// internal/gpu and the windowed frame driver in cmd/mandel.
package mandel
