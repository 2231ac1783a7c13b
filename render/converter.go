package render

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
)

// Converter composes the presented RGB frame from the pool's planar
// textures with a single quad pass.
//
// The horizontal texture coordinate's upper bound is scaled by the ratio
// of logical width to luma texture width, excluding any line padding the
// decoder added. The vertical axis is flipped to reconcile the decoder's
// top-down rows with the render surface's bottom-up convention.
type Converter struct {
	program Program

	brightness float64
	contrast   float64
	gamma      [3]float64
}

// NewConverter builds the conversion program on the given backend.
//
// On compile failure the returned Converter is usable as a value but every
// Compose reports ErrProgramMissing; the caller decides whether that is
// fatal.
func NewConverter(backend Backend) (*Converter, error) {
	conv := &Converter{
		contrast: 1,
		gamma:    [3]float64{1, 1, 1},
	}

	program, err := backend.NewProgram()
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "NewConverter",
			"error":    err.Error(),
		}).Error("Conversion program build failed")
		return conv, fmt.Errorf("conversion program build failed: %w", err)
	}
	conv.program = program
	return conv, nil
}

// ErrProgramMissing is returned by Compose when the conversion program
// failed to build.
var ErrProgramMissing = errors.New("conversion program unavailable")

// SetBrightness sets the additive luma adjustment. Neutral is 0.
func (c *Converter) SetBrightness(v float64) { c.brightness = v }

// SetContrast sets the multiplicative adjustment around mid-gray.
// Neutral is 1.
func (c *Converter) SetContrast(v float64) { c.contrast = v }

// SetGamma sets the per-channel power correction. Neutral is (1,1,1).
func (c *Converter) SetGamma(v [3]float64) { c.gamma = v }

// Compose runs the conversion pass over the pool's current planes and
// returns the target's color attachment. srcWidth and srcHeight are the
// logical frame dimensions; the luma texture may be wider due to padding.
func (c *Converter) Compose(pool *TexturePool, srcWidth, srcHeight int) (Texture, error) {
	if c.program == nil {
		return nil, ErrProgramMissing
	}

	y, u, v := pool.Planes()
	tgt := pool.Target()
	if y == nil || u == nil || v == nil || tgt == nil {
		return nil, fmt.Errorf("texture pool has no allocated set")
	}

	c.program.SetFloat("brightness", c.brightness)
	c.program.SetFloat("contrast", c.contrast)
	c.program.SetVec3("gamma", c.gamma)

	// Upper-left (0,1) to lower-right (w/yw, 0): crop the padding on the
	// right, flip vertically.
	uv := UVRect{
		U0: 0,
		V0: 1,
		U1: float64(srcWidth) / float64(y.Width()),
		V1: 0,
	}
	if err := c.program.Draw(tgt, y, u, v, uv); err != nil {
		return nil, fmt.Errorf("conversion pass failed: %w", err)
	}
	return tgt.ColorTexture(), nil
}

// Release frees the conversion program.
func (c *Converter) Release() {
	if c.program != nil {
		c.program.Release()
		c.program = nil
	}
}
