package media

// VideoFrame is a single decoded planar YUV420 video frame.
//
// The frame is transient: it is produced by a Decoder and consumed by the
// presentation pipeline within the same tick. Consumers must not retain the
// plane slices past the call that received them; decoders are free to reuse
// the backing arrays for the next frame.
type VideoFrame struct {
	// Width and Height are the logical frame dimensions in pixels.
	Width  uint16
	Height uint16

	// YStride, UStride and VStride are the byte widths of one scan line in
	// each plane. They are at least Width (resp. Width/2) and may be larger
	// when the decoder pads lines for alignment.
	YStride int
	UStride int
	VStride int

	// Y, U and V are the plane buffers. Y holds YStride*Height bytes,
	// U and V hold UStride*Height/2 and VStride*Height/2 bytes.
	Y []byte
	U []byte
	V []byte

	// PTS is the presentation timestamp in seconds from stream start.
	PTS float64
}

// YPlaneWidth returns the padded luma line width in pixels.
func (f *VideoFrame) YPlaneWidth() int {
	return f.YStride
}

// ChromaHeight returns the height of the chroma planes (half the luma
// height, rounded up for odd frame heights).
func (f *VideoFrame) ChromaHeight() int {
	return (int(f.Height) + 1) / 2
}

// AudioFrame is a chunk of decoded interleaved 16-bit PCM audio.
type AudioFrame struct {
	// PCM holds interleaved signed 16-bit samples. For stereo the layout
	// is L0 R0 L1 R1 ...
	PCM []int16

	// Format describes the sample rate and channel count of PCM.
	Format AudioFormat

	// PTS is the presentation timestamp of the first sample, in seconds.
	PTS float64
}

// SampleCount returns the number of per-channel sample frames in PCM.
func (f *AudioFrame) SampleCount() int {
	if f.Format.Channels == 0 {
		return 0
	}
	return len(f.PCM) / int(f.Format.Channels)
}

// Duration returns the audible length of the frame in seconds.
func (f *AudioFrame) Duration() float64 {
	if f.Format.SampleRate == 0 {
		return 0
	}
	return float64(f.SampleCount()) / float64(f.Format.SampleRate)
}

// AudioFormat describes a PCM stream configuration.
type AudioFormat struct {
	SampleRate uint32
	Channels   uint8
}

// Geometry is the static description of a video stream, snapshotted from
// the decoder when playback starts.
type Geometry struct {
	Width      uint16
	Height     uint16
	FrameRate  float64
	Duration   float64
	FrameCount uint64
}
