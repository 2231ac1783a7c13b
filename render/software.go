package render

import (
	"fmt"
	"math"
)

// SoftwareBackend implements Backend entirely on the CPU. Textures are
// plain byte slices and the conversion program is the same arithmetic a
// GPU implementation would run per fragment.
//
// It exists for tests and for headless hosts; it is not optimized for
// large frames.
type SoftwareBackend struct{}

// NewSoftwareBackend creates a CPU-only backend.
func NewSoftwareBackend() *SoftwareBackend {
	return &SoftwareBackend{}
}

// NewTexture allocates a single-channel byte image.
func (b *SoftwareBackend) NewTexture(width, height int) (Texture, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid texture size %dx%d", width, height)
	}
	return &softTexture{
		width:  width,
		height: height,
		pix:    make([]byte, width*height),
	}, nil
}

// NewTarget allocates an RGBA surface.
func (b *SoftwareBackend) NewTarget(width, height int) (Target, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid target size %dx%d", width, height)
	}
	return &softTarget{
		color: &softTexture{
			width:    width,
			height:   height,
			pix:      make([]byte, width*height*4),
			channels: 4,
		},
	}, nil
}

// NewProgram returns the CPU conversion pass.
func (b *SoftwareBackend) NewProgram() (Program, error) {
	return &softProgram{
		floats: map[string]float64{},
		vecs:   map[string][3]float64{},
	}, nil
}

type softTexture struct {
	width    int
	height   int
	channels int // 0 or 1: single channel; 4: RGBA
	pix      []byte
	released bool
}

func (t *softTexture) Width() int  { return t.width }
func (t *softTexture) Height() int { return t.height }

func (t *softTexture) SubImage(data []byte, stride int) error {
	if t.released {
		return fmt.Errorf("texture already released")
	}
	if t.channels == 4 {
		return fmt.Errorf("cannot sub-upload into a color attachment")
	}
	if stride < t.width {
		return fmt.Errorf("stride %d smaller than texture width %d", stride, t.width)
	}
	if len(data) < stride*t.height {
		return fmt.Errorf("plane has %d bytes, need %d", len(data), stride*t.height)
	}
	for row := 0; row < t.height; row++ {
		copy(t.pix[row*t.width:(row+1)*t.width], data[row*stride:row*stride+t.width])
	}
	return nil
}

func (t *softTexture) Release() {
	t.released = true
	t.pix = nil
}

// sample returns the single-channel texel at (x, y) in [0,1], clamping
// coordinates to the edges.
func (t *softTexture) sample(x, y int) float64 {
	if x < 0 {
		x = 0
	}
	if x >= t.width {
		x = t.width - 1
	}
	if y < 0 {
		y = 0
	}
	if y >= t.height {
		y = t.height - 1
	}
	return float64(t.pix[y*t.width+x]) / 256.0
}

// RGBA returns the texel of a 4-channel texture. Test helper surface.
func (t *softTexture) RGBA(x, y int) (r, g, b, a byte) {
	i := (y*t.width + x) * 4
	return t.pix[i], t.pix[i+1], t.pix[i+2], t.pix[i+3]
}

type softTarget struct {
	color    *softTexture
	released bool
}

func (t *softTarget) Width() int            { return t.color.width }
func (t *softTarget) Height() int           { return t.color.height }
func (t *softTarget) ColorTexture() Texture { return t.color }

func (t *softTarget) Release() {
	t.released = true
	t.color.Release()
}

type softProgram struct {
	floats map[string]float64
	vecs   map[string][3]float64
}

func (p *softProgram) SetFloat(name string, value float64) {
	p.floats[name] = value
}

func (p *softProgram) SetVec3(name string, value [3]float64) {
	p.vecs[name] = value
}

// Draw rasterizes the quad pass: for every target pixel it samples the
// three planes at the interpolated UV coordinate and applies the
// limited-range conversion matrix with the brightness, contrast and gamma
// parameters.
func (p *softProgram) Draw(target Target, y, u, v Texture, uv UVRect) error {
	tgt, ok := target.(*softTarget)
	if !ok {
		return fmt.Errorf("target does not belong to the software backend")
	}
	yt, ok1 := y.(*softTexture)
	ut, ok2 := u.(*softTexture)
	vt, ok3 := v.(*softTexture)
	if !ok1 || !ok2 || !ok3 {
		return fmt.Errorf("texture does not belong to the software backend")
	}
	if tgt.released {
		return fmt.Errorf("target already released")
	}

	brightness := p.floats["brightness"]
	contrast := p.floats["contrast"]
	gamma, hasGamma := p.vecs["gamma"]
	if !hasGamma {
		gamma = [3]float64{1, 1, 1}
	}

	w := tgt.Width()
	h := tgt.Height()
	for py := 0; py < h; py++ {
		// Interpolate the V coordinate top to bottom; a flipped rect
		// (V0 > V1) reads the source bottom-up.
		fy := (float64(py) + 0.5) / float64(h)
		tv := uv.V0 + (uv.V1-uv.V0)*fy
		for px := 0; px < w; px++ {
			fx := (float64(px) + 0.5) / float64(w)
			tu := uv.U0 + (uv.U1-uv.U0)*fx

			s := yt.sample(int(tu*float64(yt.width)), int((1-tv)*float64(yt.height)))
			cb := ut.sample(int(tu*float64(ut.width)), int((1-tv)*float64(ut.height)))
			cr := vt.sample(int(tu*float64(vt.width)), int((1-tv)*float64(vt.height)))

			yy := s - 16.0/256.0 + brightness
			cb -= 128.0 / 256.0
			cr -= 128.0 / 256.0

			r := 1.164*yy + 1.596*cr - 0.5
			g := 1.164*yy - 0.391*cb - 0.813*cr - 0.5
			b := 1.164*yy + 2.018*cb - 0.5

			r = clamp01(math.Pow(clamp01(r*contrast+0.5), gamma[0]))
			g = clamp01(math.Pow(clamp01(g*contrast+0.5), gamma[1]))
			b = clamp01(math.Pow(clamp01(b*contrast+0.5), gamma[2]))

			i := (py*w + px) * 4
			tgt.color.pix[i] = byte(math.Round(r * 255))
			tgt.color.pix[i+1] = byte(math.Round(g * 255))
			tgt.color.pix[i+2] = byte(math.Round(b * 255))
			tgt.color.pix[i+3] = 255
		}
	}
	return nil
}

func (p *softProgram) Release() {}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
