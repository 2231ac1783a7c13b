// Package synth provides a synthetic, fully deterministic media.Decoder.
//
// Frames are generated procedurally (a moving luma gradient with slowly
// rotating chroma), so playback behavior can be exercised end to end
// without media files, codecs, or timing dependence. The decoder produces
// its frames instantly; pacing comes entirely from the playback core's
// admission window.
package synth

import (
	"math"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/playback/media"
)

// Config describes the synthetic stream.
type Config struct {
	// Width and Height are the frame dimensions. Both must be even.
	// Defaults: 320x240.
	Width  uint16
	Height uint16

	// FrameRate is the video frame rate. Default: 30.
	FrameRate float64

	// Duration is the stream length in seconds. Default: 10.
	Duration float64

	// Audio enables the synthetic sine-tone audio track.
	Audio bool

	// AudioFormat is the PCM format of the tone. Default: 48kHz mono.
	AudioFormat media.AudioFormat

	// LinePadding adds this many bytes of stride padding to the luma plane
	// (and half to each chroma plane), to exercise padded uploads.
	LinePadding int
}

func (c *Config) applyDefaults() {
	if c.Width == 0 {
		c.Width = 320
	}
	if c.Height == 0 {
		c.Height = 240
	}
	if c.FrameRate <= 0 {
		c.FrameRate = 30
	}
	if c.Duration <= 0 {
		c.Duration = 10
	}
	if c.AudioFormat.SampleRate == 0 {
		c.AudioFormat.SampleRate = 48000
	}
	if c.AudioFormat.Channels == 0 {
		c.AudioFormat.Channels = 1
	}
}

// Decoder is a deterministic synthetic source implementing media.Decoder.
type Decoder struct {
	mu sync.Mutex

	cfg         Config
	totalFrames uint64

	playing    bool
	paused     bool
	loop       bool
	done       bool
	nextFrame  uint64
	videoClock float64
	audioClock float64
}

// New creates a synthetic decoder for the given configuration.
func New(cfg Config) *Decoder {
	cfg.applyDefaults()
	d := &Decoder{
		cfg:         cfg,
		totalFrames: uint64(cfg.Duration * cfg.FrameRate),
	}
	logrus.WithFields(logrus.Fields{
		"function":   "synth.New",
		"width":      cfg.Width,
		"height":     cfg.Height,
		"frame_rate": cfg.FrameRate,
		"duration":   cfg.Duration,
		"audio":      cfg.Audio,
	}).Debug("Synthetic decoder created")
	return d
}

// IsInitialized always reports true; a synthetic source cannot fail to
// open.
func (d *Decoder) IsInitialized() bool { return true }

// HasAudio reports whether the tone track is enabled.
func (d *Decoder) HasAudio() bool { return d.cfg.Audio }

// AudioFormat returns the tone track's PCM format.
func (d *Decoder) AudioFormat() media.AudioFormat { return d.cfg.AudioFormat }

// Start begins producing frames from the current position.
func (d *Decoder) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.playing = true
	d.paused = false
	d.done = false
}

// Stop halts production and rewinds to the beginning.
func (d *Decoder) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.playing = false
	d.paused = false
	d.nextFrame = 0
	d.videoClock = 0
	d.audioClock = 0
}

// Pause suspends production without losing position.
func (d *Decoder) Pause() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.playing {
		d.paused = true
	}
}

// Resume continues production after a Pause.
func (d *Decoder) Resume() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.paused = false
}

// SeekToTime repositions the stream. Times beyond the end clamp to the
// last frame.
func (d *Decoder) SeekToTime(seconds float64) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if seconds < 0 {
		seconds = 0
	}
	frame := uint64(seconds * d.cfg.FrameRate)
	if d.totalFrames > 0 && frame >= d.totalFrames {
		frame = d.totalFrames - 1
	}
	d.nextFrame = frame
	d.videoClock = float64(frame) / d.cfg.FrameRate
	d.audioClock = d.videoClock
	d.done = false
	return nil
}

// SetLoop controls restart-at-end behavior.
func (d *Decoder) SetLoop(loop bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.loop = loop
}

// DecodeVideoFrame produces the next frame, or returns false at end of
// stream (when not looping) and while stopped or paused.
func (d *Decoder) DecodeVideoFrame(out *media.VideoFrame) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.playing || d.paused {
		return false
	}
	if d.nextFrame >= d.totalFrames {
		if !d.loop {
			d.done = true
			return false
		}
		// The whole stream restarts, audio included.
		d.nextFrame = 0
		d.audioClock = 0
	}

	pts := float64(d.nextFrame) / d.cfg.FrameRate
	d.fillFrame(out, d.nextFrame, pts)
	d.videoClock = pts
	d.nextFrame++
	return true
}

// DecodeAudioFrame produces the next 20ms tone chunk. Audio availability
// tracks the video clock so a drain loop terminates once audio decode has
// caught up with video decode.
func (d *Decoder) DecodeAudioFrame(out *media.AudioFrame) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.cfg.Audio || !d.playing || d.paused {
		return false
	}
	if d.audioClock >= d.videoClock+0.2 {
		return false
	}

	const chunk = 0.020
	rate := d.cfg.AudioFormat.SampleRate
	channels := int(d.cfg.AudioFormat.Channels)
	samples := int(chunk * float64(rate))

	pcm := make([]int16, samples*channels)
	for i := 0; i < samples; i++ {
		t := d.audioClock + float64(i)/float64(rate)
		v := int16(8000 * math.Sin(2*math.Pi*440*t))
		for ch := 0; ch < channels; ch++ {
			pcm[i*channels+ch] = v
		}
	}

	out.PCM = pcm
	out.Format = d.cfg.AudioFormat
	out.PTS = d.audioClock
	d.audioClock += chunk
	return true
}

// fillFrame paints a moving gradient. Caller must hold d.mu.
func (d *Decoder) fillFrame(out *media.VideoFrame, index uint64, pts float64) {
	w := int(d.cfg.Width)
	h := int(d.cfg.Height)
	yStride := w + d.cfg.LinePadding
	cStride := w/2 + d.cfg.LinePadding/2
	ch := (h + 1) / 2

	if len(out.Y) != yStride*h {
		out.Y = make([]byte, yStride*h)
		out.U = make([]byte, cStride*ch)
		out.V = make([]byte, cStride*ch)
	}

	phase := int(index)
	for row := 0; row < h; row++ {
		base := row * yStride
		for col := 0; col < w; col++ {
			// Limited-range luma ramp scrolling horizontally per frame.
			out.Y[base+col] = byte(16 + (col+row+phase*4)%220)
		}
	}
	cu := byte(128 + 64*math.Sin(pts))
	cv := byte(128 + 64*math.Cos(pts))
	for row := 0; row < ch; row++ {
		base := row * cStride
		for col := 0; col < w/2; col++ {
			out.U[base+col] = cu
			out.V[base+col] = cv
		}
	}

	out.Width = d.cfg.Width
	out.Height = d.cfg.Height
	out.YStride = yStride
	out.UStride = cStride
	out.VStride = cStride
	out.PTS = pts
}

// VideoClock returns the pts of the most recently decoded frame.
func (d *Decoder) VideoClock() float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.videoClock
}

// FramesPerSecond returns the configured frame rate.
func (d *Decoder) FramesPerSecond() float64 { return d.cfg.FrameRate }

// FrameWidth returns the configured frame width.
func (d *Decoder) FrameWidth() uint16 { return d.cfg.Width }

// FrameHeight returns the configured frame height.
func (d *Decoder) FrameHeight() uint16 { return d.cfg.Height }

// Duration returns the configured stream length in seconds.
func (d *Decoder) Duration() float64 { return d.cfg.Duration }

// NumberOfFrames returns the total frame count.
func (d *Decoder) NumberOfFrames() uint64 { return d.totalFrames }

// IsPlaying reports whether the decoder is producing frames.
func (d *Decoder) IsPlaying() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.playing && !d.paused
}

// IsDone reports whether the stream ran to its end without looping.
func (d *Decoder) IsDone() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.done
}
