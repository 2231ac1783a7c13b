package render

// Backend abstracts the image and draw machinery the playback core renders
// through. Implementations wrap a GPU context; SoftwareBackend runs the
// same contract on the CPU.
//
// All methods are called from the single thread that drives playback.
type Backend interface {
	// NewTexture allocates a single-channel image of the given size, one
	// byte per texel, displayed with the channel replicated to R, G and B.
	NewTexture(width, height int) (Texture, error)

	// NewTarget allocates an RGBA render surface of the given size.
	NewTarget(width, height int) (Target, error)

	// NewProgram builds the YUV to RGB conversion program. A backend that
	// cannot compile it returns an error; the converter then reports
	// itself unusable rather than composing garbage.
	NewProgram() (Program, error)
}

// Texture is a single-channel image handle owned by the texture pool.
type Texture interface {
	// Width returns the texture width in texels.
	Width() int

	// Height returns the texture height in texels.
	Height() int

	// SubImage replaces the full texture contents from a byte plane with
	// the given line stride. No reallocation takes place.
	SubImage(data []byte, stride int) error

	// Release frees the underlying image. The handle must not be used
	// afterwards.
	Release()
}

// Target is an offscreen render surface whose color attachment is exposed
// as the presented frame.
type Target interface {
	// Width returns the surface width in pixels.
	Width() int

	// Height returns the surface height in pixels.
	Height() int

	// ColorTexture returns the surface's color attachment. The handle
	// aliases the target: it changes whenever the target is drawn to.
	ColorTexture() Texture

	// Release frees the surface and its color attachment.
	Release()
}

// UVRect is an explicit texture-coordinate rectangle for a quad draw.
// (U0,V0) maps to the target's upper-left corner and (U1,V1) to the
// lower-right one, so a vertical flip is expressed as V0 > V1.
type UVRect struct {
	U0, V0 float64
	U1, V1 float64
}

// Program is a compiled conversion pass with named scalar and vector
// parameters.
type Program interface {
	// SetFloat sets a named scalar parameter.
	SetFloat(name string, value float64)

	// SetVec3 sets a named three-component parameter.
	SetVec3(name string, value [3]float64)

	// Draw runs a full-target quad pass sampling the three planar
	// textures over the given UV rectangle.
	Draw(target Target, y, u, v Texture, uv UVRect) error

	// Release frees the program.
	Release()
}
