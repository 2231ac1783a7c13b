package render

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/playback/media"
)

// PlaneGeometry describes the planar texture set a frame requires.
type PlaneGeometry struct {
	Width   int
	Height  int
	YStride int
	UStride int
	VStride int
}

func geometryOf(frame *media.VideoFrame) PlaneGeometry {
	return PlaneGeometry{
		Width:   int(frame.Width),
		Height:  int(frame.Height),
		YStride: frame.YStride,
		UStride: frame.UStride,
		VStride: frame.VStride,
	}
}

// TexturePool owns the three planar textures and the composed render
// target.
//
// The set is reallocated only when the incoming geometry differs from the
// cached one, and always as a unit: either all four resources are replaced
// or none are. When allocation fails mid-rebuild the previous set is kept,
// so the last presented image survives the failure.
type TexturePool struct {
	backend Backend

	geom  PlaneGeometry
	yTex  Texture
	uTex  Texture
	vTex  Texture
	tgt   Target
	valid bool

	allocations int
}

// NewTexturePool creates an empty pool over the given backend.
func NewTexturePool(backend Backend) *TexturePool {
	return &TexturePool{backend: backend}
}

// Ensure makes the pool's texture set match the requested geometry,
// reallocating the whole set when it differs from the cached one.
func (p *TexturePool) Ensure(geom PlaneGeometry) error {
	if p.valid && geom == p.geom {
		return nil
	}

	logrus.WithFields(logrus.Fields{
		"function": "TexturePool.Ensure",
		"width":    geom.Width,
		"height":   geom.Height,
		"y_stride": geom.YStride,
	}).Debug("Reallocating planar texture set")

	if geom.Width <= 0 || geom.Height <= 0 || geom.YStride <= 0 ||
		geom.UStride <= 0 || geom.VStride <= 0 {
		return fmt.Errorf("invalid plane geometry: %+v", geom)
	}

	chromaHeight := (geom.Height + 1) / 2

	// Build the replacement set fully before releasing the old one, so a
	// failed allocation leaves the current set (and the presented image
	// derived from it) intact.
	yTex, err := p.backend.NewTexture(geom.YStride, geom.Height)
	if err != nil {
		return fmt.Errorf("luma plane allocation failed: %w", err)
	}
	uTex, err := p.backend.NewTexture(geom.UStride, chromaHeight)
	if err != nil {
		yTex.Release()
		return fmt.Errorf("chroma U plane allocation failed: %w", err)
	}
	vTex, err := p.backend.NewTexture(geom.VStride, chromaHeight)
	if err != nil {
		yTex.Release()
		uTex.Release()
		return fmt.Errorf("chroma V plane allocation failed: %w", err)
	}
	tgt, err := p.backend.NewTarget(geom.Width, geom.Height)
	if err != nil {
		yTex.Release()
		uTex.Release()
		vTex.Release()
		return fmt.Errorf("render target allocation failed: %w", err)
	}

	p.release()
	p.yTex, p.uTex, p.vTex, p.tgt = yTex, uTex, vTex, tgt
	p.geom = geom
	p.valid = true
	p.allocations++
	return nil
}

// Upload writes the frame's three byte planes into the existing texture
// set via full-region sub-uploads. The set must match the frame geometry;
// call Ensure first.
func (p *TexturePool) Upload(frame *media.VideoFrame) error {
	if !p.valid {
		return fmt.Errorf("texture pool has no allocated set")
	}
	if geometryOf(frame) != p.geom {
		return fmt.Errorf("frame geometry %+v does not match pool %+v",
			geometryOf(frame), p.geom)
	}

	if err := p.yTex.SubImage(frame.Y, frame.YStride); err != nil {
		return fmt.Errorf("luma upload failed: %w", err)
	}
	if err := p.uTex.SubImage(frame.U, frame.UStride); err != nil {
		return fmt.Errorf("chroma U upload failed: %w", err)
	}
	if err := p.vTex.SubImage(frame.V, frame.VStride); err != nil {
		return fmt.Errorf("chroma V upload failed: %w", err)
	}
	return nil
}

// Planes returns the current planar textures.
func (p *TexturePool) Planes() (y, u, v Texture) {
	return p.yTex, p.uTex, p.vTex
}

// Target returns the current render target, or nil before the first
// successful Ensure.
func (p *TexturePool) Target() Target {
	return p.tgt
}

// Geometry returns the cached plane geometry.
func (p *TexturePool) Geometry() PlaneGeometry {
	return p.geom
}

// Allocations returns how many times the set has been (re)built.
func (p *TexturePool) Allocations() int {
	return p.allocations
}

// Release frees the texture set. The pool can be reused; the next Ensure
// allocates a fresh set.
func (p *TexturePool) Release() {
	p.release()
	p.valid = false
}

func (p *TexturePool) release() {
	if p.yTex != nil {
		p.yTex.Release()
		p.yTex = nil
	}
	if p.uTex != nil {
		p.uTex.Release()
		p.uTex = nil
	}
	if p.vTex != nil {
		p.vTex.Release()
		p.vTex = nil
	}
	if p.tgt != nil {
		p.tgt.Release()
		p.tgt = nil
	}
}
