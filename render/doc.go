// Package render provides the rendering contract consumed by the playback
// core, the bounded planar texture pool, and the YUV to RGB converter.
//
// The Backend interface stands in for whatever actually owns GPU (or CPU)
// images. The core allocates three single-channel planar textures plus one
// RGBA render target through it, uploads decoded planes with full-region
// sub-uploads, and composes the presented frame with a single quad pass.
//
// # Conversion
//
// Source material is limited-range planar YUV420: luma in [16,235] and
// chroma in [16,240] of the byte scale. The conversion program removes the
// range offsets and applies the BT.601-derived matrix
//
//	R = 1.164*y + 1.596*cr
//	G = 1.164*y - 0.391*cb - 0.813*cr
//	B = 1.164*y + 2.018*cb
//
// with brightness, contrast and gamma hooks held at neutral defaults.
//
// A SoftwareBackend implements the whole contract on the CPU with the same
// arithmetic, which is what the tests and headless hosts run against.
package render
