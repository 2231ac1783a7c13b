package y4m

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/playback/media"
)

const y4mMagic = "YUV4MPEG2"

// audioAheadLimit is how far the audio sidecar may decode ahead of the
// video clock. It reproduces demuxer pacing: a container interleaves audio
// with video, so audio "availability" tracks video progress instead of the
// whole file being ready at once.
const audioAheadLimit = 1.0

// audioSource is the sidecar contract shared by the WAV and Opus readers.
type audioSource interface {
	format() media.AudioFormat
	decode(out *media.AudioFrame) bool
	seek(seconds float64) error
	clock() float64
	close() error
}

// Decoder reads a YUV4MPEG2 file, implementing media.Decoder.
type Decoder struct {
	mu sync.Mutex

	path string
	file *os.File

	width     int
	height    int
	fpsNum    int
	fpsDen    int
	frameSize int
	offsets   []int64

	audio audioSource

	initialized bool
	playing     bool
	paused      bool
	loop        bool
	done        bool
	nextFrame   int
	videoClock  float64
}

type options struct {
	wavPath  string
	opusPath string
}

// Option configures a Decoder.
type Option func(*options)

// WithWAVAudio attaches a 16-bit PCM WAV file as the audio track.
func WithWAVAudio(path string) Option {
	return func(o *options) { o.wavPath = path }
}

// WithOpusAudio attaches an Ogg Opus file as the audio track.
func WithOpusAudio(path string) Option {
	return func(o *options) { o.opusPath = path }
}

// Open parses the file header, indexes every frame for exact seeking, and
// opens the audio sidecar when one is configured.
func Open(path string, opts ...Option) (*Decoder, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	logrus.WithFields(logrus.Fields{
		"function": "y4m.Open",
		"path":     path,
	}).Info("Opening YUV4MPEG2 file")

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}

	d := &Decoder{path: path, file: f, fpsNum: 30, fpsDen: 1}
	if err := d.parseHeaderAndIndex(); err != nil {
		f.Close()
		return nil, err
	}

	switch {
	case o.wavPath != "":
		src, err := openWAV(o.wavPath)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to open audio sidecar: %w", err)
		}
		d.audio = src
	case o.opusPath != "":
		src, err := openOpus(o.opusPath)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to open audio sidecar: %w", err)
		}
		d.audio = src
	}

	d.initialized = true

	logrus.WithFields(logrus.Fields{
		"function":   "y4m.Open",
		"width":      d.width,
		"height":     d.height,
		"frames":     len(d.offsets),
		"frame_rate": d.fps(),
		"has_audio":  d.audio != nil,
	}).Info("YUV4MPEG2 file opened")

	return d, nil
}

// parseHeaderAndIndex reads the stream header and records the byte offset
// of every frame's plane data.
func (d *Decoder) parseHeaderAndIndex() error {
	r := bufio.NewReader(d.file)
	var pos int64

	header, err := r.ReadString('\n')
	if err != nil {
		return fmt.Errorf("failed to read stream header: %w", err)
	}
	pos += int64(len(header))

	if err := d.parseHeader(strings.TrimRight(header, "\n")); err != nil {
		return err
	}
	d.frameSize = d.width*d.height + 2*((d.width/2)*((d.height+1)/2))

	for {
		line, err := r.ReadString('\n')
		if err == io.EOF && line == "" {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read frame header: %w", err)
		}
		pos += int64(len(line))
		if !strings.HasPrefix(line, "FRAME") {
			return fmt.Errorf("malformed frame header at offset %d", pos-int64(len(line)))
		}
		d.offsets = append(d.offsets, pos)
		if _, err := r.Discard(d.frameSize); err != nil {
			return fmt.Errorf("truncated frame %d: %w", len(d.offsets)-1, err)
		}
		pos += int64(d.frameSize)
	}

	if len(d.offsets) == 0 {
		return fmt.Errorf("stream contains no frames")
	}
	return nil
}

func (d *Decoder) parseHeader(line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 || fields[0] != y4mMagic {
		return fmt.Errorf("not a YUV4MPEG2 stream")
	}
	for _, tag := range fields[1:] {
		if len(tag) < 2 {
			continue
		}
		value := tag[1:]
		switch tag[0] {
		case 'W':
			w, err := strconv.Atoi(value)
			if err != nil || w <= 0 {
				return fmt.Errorf("invalid width tag %q", tag)
			}
			d.width = w
		case 'H':
			h, err := strconv.Atoi(value)
			if err != nil || h <= 0 {
				return fmt.Errorf("invalid height tag %q", tag)
			}
			d.height = h
		case 'F':
			num, den, ok := strings.Cut(value, ":")
			n, errN := strconv.Atoi(num)
			dd, errD := strconv.Atoi(den)
			if !ok || errN != nil || errD != nil || n <= 0 || dd <= 0 {
				return fmt.Errorf("invalid frame rate tag %q", tag)
			}
			d.fpsNum, d.fpsDen = n, dd
		case 'C':
			if !strings.HasPrefix(value, "420") {
				return fmt.Errorf("unsupported chroma subsampling %q (only 4:2:0)", value)
			}
		}
	}
	if d.width == 0 || d.height == 0 {
		return fmt.Errorf("stream header missing dimensions")
	}
	return nil
}

func (d *Decoder) fps() float64 {
	return float64(d.fpsNum) / float64(d.fpsDen)
}

// IsInitialized reports whether Open completed.
func (d *Decoder) IsInitialized() bool { return d.initialized }

// HasAudio reports whether an audio sidecar is attached.
func (d *Decoder) HasAudio() bool { return d.audio != nil }

// AudioFormat returns the sidecar's PCM format.
func (d *Decoder) AudioFormat() media.AudioFormat {
	if d.audio == nil {
		return media.AudioFormat{}
	}
	return d.audio.format()
}

// Start begins producing frames from the current position.
func (d *Decoder) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.playing = true
	d.paused = false
	d.done = false
}

// Stop halts production and rewinds.
func (d *Decoder) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.playing = false
	d.paused = false
	d.nextFrame = 0
	d.videoClock = 0
	if d.audio != nil {
		_ = d.audio.seek(0)
	}
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

// SeekToTime repositions video and audio to the given time.
func (d *Decoder) SeekToTime(seconds float64) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if seconds < 0 {
		seconds = 0
	}
	frame := int(seconds * d.fps())
	if frame >= len(d.offsets) {
		frame = len(d.offsets) - 1
	}
	d.nextFrame = frame
	d.videoClock = float64(frame) * float64(d.fpsDen) / float64(d.fpsNum)
	d.done = false

	if d.audio != nil {
		if err := d.audio.seek(d.videoClock); err != nil {
			return fmt.Errorf("audio seek failed: %w", err)
		}
	}
	return nil
}

// SetLoop controls restart-at-end behavior.
func (d *Decoder) SetLoop(loop bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.loop = loop
}

// DecodeVideoFrame reads the next frame's planes from the file.
func (d *Decoder) DecodeVideoFrame(out *media.VideoFrame) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.initialized || !d.playing || d.paused {
		return false
	}
	if d.nextFrame >= len(d.offsets) {
		if !d.loop {
			d.done = true
			return false
		}
		d.nextFrame = 0
		if d.audio != nil {
			_ = d.audio.seek(0)
		}
	}

	if err := d.readFrame(out, d.nextFrame); err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "Decoder.DecodeVideoFrame",
			"frame":    d.nextFrame,
			"error":    err.Error(),
		}).Error("Frame read failed")
		return false
	}
	d.videoClock = out.PTS
	d.nextFrame++
	return true
}

// readFrame loads plane data for the given frame index. Caller must hold
// d.mu.
func (d *Decoder) readFrame(out *media.VideoFrame, index int) error {
	if len(out.Y) != d.width*d.height {
		out.Y = make([]byte, d.width*d.height)
		out.U = make([]byte, d.chromaSize())
		out.V = make([]byte, d.chromaSize())
	}

	off := d.offsets[index]
	if _, err := d.file.ReadAt(out.Y, off); err != nil {
		return err
	}
	off += int64(len(out.Y))
	if _, err := d.file.ReadAt(out.U, off); err != nil {
		return err
	}
	off += int64(len(out.U))
	if _, err := d.file.ReadAt(out.V, off); err != nil {
		return err
	}

	out.Width = uint16(d.width)
	out.Height = uint16(d.height)
	out.YStride = d.width
	out.UStride = d.width / 2
	out.VStride = d.width / 2
	out.PTS = float64(index) * float64(d.fpsDen) / float64(d.fpsNum)
	return nil
}

func (d *Decoder) chromaSize() int {
	return (d.width / 2) * ((d.height + 1) / 2)
}

// DecodeAudioFrame produces the next sidecar chunk, pacing availability
// against the video clock the way an interleaved demuxer would.
func (d *Decoder) DecodeAudioFrame(out *media.AudioFrame) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.audio == nil || !d.playing || d.paused {
		return false
	}
	if d.audio.clock() >= d.videoClock+audioAheadLimit {
		return false
	}
	return d.audio.decode(out)
}

// VideoClock returns the pts of the most recently decoded frame.
func (d *Decoder) VideoClock() float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.videoClock
}

// FramesPerSecond returns the stream frame rate.
func (d *Decoder) FramesPerSecond() float64 { return d.fps() }

// FrameWidth returns the frame width in pixels.
func (d *Decoder) FrameWidth() uint16 { return uint16(d.width) }

// FrameHeight returns the frame height in pixels.
func (d *Decoder) FrameHeight() uint16 { return uint16(d.height) }

// Duration returns the stream length in seconds.
func (d *Decoder) Duration() float64 {
	return float64(len(d.offsets)) * float64(d.fpsDen) / float64(d.fpsNum)
}

// NumberOfFrames returns the indexed frame count.
func (d *Decoder) NumberOfFrames() uint64 { return uint64(len(d.offsets)) }

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

// Close releases the file handles.
func (d *Decoder) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.initialized = false
	d.playing = false
	if d.audio != nil {
		_ = d.audio.close()
	}
	return d.file.Close()
}
