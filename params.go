package mandel

import (
	"encoding/binary"
	"math"
)

// ParamsSize is the byte size of the packed parameter block:
// four f32 bounds plus one i32 iteration count.
const ParamsSize = 20

// Params is the per-frame uniform block consumed by the escape-time
// kernel. Field order matches the MandelParams struct in
// internal/gpu/shaders/mandelbrot.wgsl.
type Params struct {
	XMin, XMax    float32
	YMin, YMax    float32
	MaxIterations int32
}

// Pack serializes the block to its 20-byte little-endian wire layout:
// five 4-byte fields in declaration order, the last a signed 32-bit
// integer.
func (p Params) Pack() []byte {
	buf := make([]byte, ParamsSize)
	le := binary.LittleEndian
	le.PutUint32(buf[0:4], math.Float32bits(p.XMin))
	le.PutUint32(buf[4:8], math.Float32bits(p.XMax))
	le.PutUint32(buf[8:12], math.Float32bits(p.YMin))
	le.PutUint32(buf[12:16], math.Float32bits(p.YMax))
	le.PutUint32(buf[16:20], uint32(p.MaxIterations))
	return buf
}
