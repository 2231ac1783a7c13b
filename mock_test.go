package playback

import (
	"sync"
	"time"

	"github.com/opd-ai/playback/media"
)

// fakeTimeProvider is a manually advanced clock for deterministic tests.
type fakeTimeProvider struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeTime() *fakeTimeProvider {
	return &fakeTimeProvider{now: time.Unix(1000, 0)}
}

func (f *fakeTimeProvider) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeTimeProvider) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

// scriptedDecoder implements media.Decoder over a fixed list of video
// frame timestamps. Each successful decode pops the next pts and becomes
// the decoder's video clock, which is exactly the contract the pump's
// catch-up loop depends on.
type scriptedDecoder struct {
	uninitialized bool
	hasAudio      bool
	fps           float64
	width         uint16
	height        uint16
	duration      float64

	clock       float64
	videoPTS    []float64
	audioFrames int

	playing bool
	paused  bool
	loop    bool
	done    bool

	videoDecodeCalls int
	audioDecodeCalls int
	seekedTo         []float64
	loopSet          []bool
}

func newScriptedDecoder(pts ...float64) *scriptedDecoder {
	return &scriptedDecoder{
		fps:      10,
		width:    32,
		height:   16,
		duration: 10,
		videoPTS: pts,
	}
}

func (d *scriptedDecoder) IsInitialized() bool { return !d.uninitialized }
func (d *scriptedDecoder) HasAudio() bool      { return d.hasAudio }

func (d *scriptedDecoder) AudioFormat() media.AudioFormat {
	return media.AudioFormat{SampleRate: 48000, Channels: 1}
}

func (d *scriptedDecoder) Start()  { d.playing = true }
func (d *scriptedDecoder) Stop()   { d.playing = false }
func (d *scriptedDecoder) Pause()  { d.paused = true }
func (d *scriptedDecoder) Resume() { d.paused = false }

func (d *scriptedDecoder) SeekToTime(seconds float64) error {
	d.seekedTo = append(d.seekedTo, seconds)
	d.clock = seconds
	return nil
}

func (d *scriptedDecoder) SetLoop(loop bool) {
	d.loop = loop
	d.loopSet = append(d.loopSet, loop)
}

func (d *scriptedDecoder) DecodeAudioFrame(out *media.AudioFrame) bool {
	d.audioDecodeCalls++
	if d.audioFrames <= 0 {
		return false
	}
	d.audioFrames--
	out.PCM = make([]int16, 960)
	out.Format = d.AudioFormat()
	return true
}

func (d *scriptedDecoder) DecodeVideoFrame(out *media.VideoFrame) bool {
	d.videoDecodeCalls++
	if len(d.videoPTS) == 0 {
		return false
	}
	pts := d.videoPTS[0]
	d.videoPTS = d.videoPTS[1:]
	d.clock = pts

	w, h := int(d.width), int(d.height)
	out.Width = d.width
	out.Height = d.height
	out.YStride = w
	out.UStride = w / 2
	out.VStride = w / 2
	out.Y = make([]byte, w*h)
	out.U = make([]byte, (w/2)*(h/2))
	out.V = make([]byte, (w/2)*(h/2))
	out.PTS = pts
	return true
}

func (d *scriptedDecoder) VideoClock() float64      { return d.clock }
func (d *scriptedDecoder) FramesPerSecond() float64 { return d.fps }
func (d *scriptedDecoder) FrameWidth() uint16       { return d.width }
func (d *scriptedDecoder) FrameHeight() uint16      { return d.height }
func (d *scriptedDecoder) Duration() float64        { return d.duration }
func (d *scriptedDecoder) NumberOfFrames() uint64   { return uint64(d.duration * d.fps) }
func (d *scriptedDecoder) IsPlaying() bool          { return d.playing && !d.paused }
func (d *scriptedDecoder) IsDone() bool             { return d.done }

// greedyDecoder always has another video frame, each a hair later than
// the previous one. Used to verify the catch-up iteration cap.
type greedyDecoder struct {
	scriptedDecoder
	step float64
}

func (d *greedyDecoder) DecodeVideoFrame(out *media.VideoFrame) bool {
	d.videoDecodeCalls++
	d.clock += d.step
	out.Width = d.width
	out.Height = d.height
	out.YStride = int(d.width)
	out.UStride = int(d.width) / 2
	out.VStride = int(d.width) / 2
	out.PTS = d.clock
	return true
}

// recordingSink implements audio.Sink for pump and player tests.
type recordingSink struct {
	capacity int
	queued   int
	flushes  int
	clears   int
	pts      float64
	playing  bool
	stopped  bool
}

func (s *recordingSink) HasBufferSpace() bool {
	return s.queued < s.capacity
}

func (s *recordingSink) QueueFrame(frame *media.AudioFrame) error {
	s.queued++
	return nil
}

func (s *recordingSink) FlushBuffers()       { s.flushes++ }
func (s *recordingSink) CurrentPts() float64 { return s.pts }
func (s *recordingSink) ClearBuffers()       { s.clears++ }
func (s *recordingSink) Play()               { s.playing = true }
func (s *recordingSink) Pause()              { s.playing = false }
func (s *recordingSink) Stop()               { s.playing = false; s.stopped = true }

// recordingDiag captures diagnostic events.
type recordingDiag struct {
	skipped []float64
	wrapped []float64
	failed  []error
}

func (d *recordingDiag) FrameSkipped(clock float64) { d.skipped = append(d.skipped, clock) }
func (d *recordingDiag) LoopWrapped(clock float64)  { d.wrapped = append(d.wrapped, clock) }
func (d *recordingDiag) ComposeFailed(err error)    { d.failed = append(d.failed, err) }
