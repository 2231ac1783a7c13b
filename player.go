package playback

import (
	"fmt"
	"math"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/opd-ai/playback/audio"
	"github.com/opd-ai/playback/media"
	"github.com/opd-ai/playback/render"
)

// Player is the playback controller: a small state machine over a decoder,
// an optional audio sink and an optional render backend.
//
// The host drives it by calling Tick once per display interval from a
// single goroutine; all other methods must be called from that same
// goroutine or otherwise serialized by the host. The internal mutex makes
// accidental misuse fail safe, but the contract is single-threaded and
// non-blocking: no Player method waits on decode or I/O.
type Player struct {
	mu sync.Mutex

	sessionID string
	log       *logrus.Entry

	decoder media.Decoder
	sink    audio.Sink
	backend render.Backend
	diag    DiagnosticSink

	clock     *referenceClock
	pump      *framePump
	pool      *render.TexturePool
	converter *render.Converter

	state     PlaybackState
	geometry  media.Geometry
	presented render.Texture
}

type options struct {
	sink         audio.Sink
	backend      render.Backend
	timeProvider TimeProvider
	diag         DiagnosticSink
	logger       *logrus.Logger
}

// Option configures optional Player collaborators.
type Option func(*options)

// WithAudioSink attaches an audio sink. Its reported position becomes the
// reference playback clock.
func WithAudioSink(sink audio.Sink) Option {
	return func(o *options) { o.sink = sink }
}

// WithRenderBackend attaches the backend frames are composed through.
// Without one the player still decodes and keeps clocks, but presents
// nothing.
func WithRenderBackend(backend render.Backend) Option {
	return func(o *options) { o.backend = backend }
}

// WithTimeProvider injects the wall-clock source, for deterministic tests.
func WithTimeProvider(tp TimeProvider) Option {
	return func(o *options) { o.timeProvider = tp }
}

// WithDiagnosticSink attaches a receiver for skip, loop and compose-failure
// events.
func WithDiagnosticSink(diag DiagnosticSink) Option {
	return func(o *options) { o.diag = diag }
}

// WithLogger overrides the package-default logrus logger.
func WithLogger(logger *logrus.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// New creates a player over the given decoder.
//
// Construction fails with ErrDecoderNotInitialized when the decoder could
// not open its source; the returned player must not be used in that case.
// A render backend whose conversion program fails to build is reported to
// the diagnostic sink and logged, and the player runs without presenting.
func New(decoder media.Decoder, opts ...Option) (*Player, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	if decoder == nil {
		return nil, ErrNilDecoder
	}
	if !decoder.IsInitialized() {
		return nil, ErrDecoderNotInitialized
	}

	logger := o.logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	diag := o.diag
	if diag == nil {
		diag = nopDiagnosticSink{}
	}

	sessionID := uuid.NewString()
	log := logger.WithFields(logrus.Fields{
		"session_id": sessionID,
	})

	p := &Player{
		sessionID: sessionID,
		log:       log,
		decoder:   decoder,
		sink:      o.sink,
		backend:   o.backend,
		diag:      diag,
		state:     StateStopped,
	}
	p.clock = newReferenceClock(o.sink, o.timeProvider)
	p.pump = newFramePump(decoder, o.sink, p.clock, diag, log)

	if o.backend != nil {
		p.pool = render.NewTexturePool(o.backend)
		converter, err := render.NewConverter(o.backend)
		if err != nil {
			// The pipeline stays alive; Tick simply cannot compose and the
			// presented image stays empty.
			log.WithFields(logrus.Fields{
				"function": "New",
				"error":    err.Error(),
			}).Error("Color converter unusable")
			diag.ComposeFailed(err)
		}
		p.converter = converter
	}

	log.WithFields(logrus.Fields{
		"function":  "New",
		"has_audio": decoder.HasAudio(),
		"has_sink":  o.sink != nil,
		"width":     decoder.FrameWidth(),
		"height":    decoder.FrameHeight(),
	}).Info("Player created")

	return p, nil
}

// SessionID returns the identifier attached to this session's diagnostics.
func (p *Player) SessionID() string {
	return p.sessionID
}

// Play transitions to Playing from any state. It snapshots the stream
// geometry, starts the decoder and starts the reference clock at pts 0.
func (p *Player) Play() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.decoder.IsInitialized() {
		return
	}

	p.decoder.Start()
	p.geometry = media.Geometry{
		Width:      p.decoder.FrameWidth(),
		Height:     p.decoder.FrameHeight(),
		FrameRate:  p.decoder.FramesPerSecond(),
		Duration:   p.decoder.Duration(),
		FrameCount: p.decoder.NumberOfFrames(),
	}
	p.clock.rebase(0)
	p.state = StatePlaying

	p.log.WithFields(logrus.Fields{
		"function":   "Play",
		"width":      p.geometry.Width,
		"height":     p.geometry.Height,
		"duration":   p.geometry.Duration,
		"frame_rate": p.geometry.FrameRate,
	}).Info("Playback started")
}

// Pause transitions Playing to Paused, freezing the reference clock.
func (p *Player) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.decoder.IsInitialized() || p.state != StatePlaying {
		return
	}

	p.decoder.Pause()
	if p.sink != nil {
		p.sink.Pause()
	}
	p.clock.stop()
	p.state = StatePaused

	p.log.WithFields(logrus.Fields{
		"function": "Pause",
		"position": p.decoder.VideoClock(),
	}).Info("Playback paused")
}

// Resume transitions Paused to Playing, rebasing the wall clock at the
// decoder's current position so playback continues without a jump.
func (p *Player) Resume() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.decoder.IsInitialized() || p.state != StatePaused {
		return
	}

	p.decoder.Resume()
	if p.sink != nil {
		p.sink.Play()
	}
	p.clock.rebase(p.decoder.VideoClock())
	p.state = StatePlaying

	p.log.WithFields(logrus.Fields{
		"function": "Resume",
		"position": p.decoder.VideoClock(),
	}).Info("Playback resumed")
}

// Stop transitions to Stopped from any state.
func (p *Player) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.decoder.IsInitialized() {
		return
	}

	p.decoder.Stop()
	if p.sink != nil {
		p.sink.Stop()
	}
	p.clock.stop()
	p.state = StateStopped

	p.log.WithFields(logrus.Fields{
		"function": "Stop",
	}).Info("Playback stopped")
}

// SeekToTime repositions playback to the given time in seconds. Valid in
// any state and does not change it. The presented image is cleared so the
// next tick must decode before anything is shown; a stale pre-seek frame
// is never displayed.
func (p *Player) SeekToTime(seconds float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.decoder.IsInitialized() {
		return nil
	}
	if seconds < 0 || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return fmt.Errorf("%w: %f", ErrInvalidSeekTime, seconds)
	}

	if p.sink != nil {
		p.sink.ClearBuffers()
	}
	if err := p.decoder.SeekToTime(seconds); err != nil {
		p.log.WithFields(logrus.Fields{
			"function": "SeekToTime",
			"seconds":  seconds,
			"error":    err.Error(),
		}).Error("Decoder seek failed")
		return fmt.Errorf("%w: %v", ErrSeekFailed, err)
	}
	p.clock.rebase(seconds)
	if p.sink != nil {
		p.sink.Play()
	}
	p.presented = nil

	p.log.WithFields(logrus.Fields{
		"function": "SeekToTime",
		"seconds":  seconds,
	}).Info("Seek complete")
	return nil
}

// SetLoop forwards the loop flag to the decoder.
func (p *Player) SetLoop(loop bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.decoder.IsInitialized() {
		return
	}
	p.decoder.SetLoop(loop)
}

// Tick runs one iteration of the playback pipeline: reference clock, frame
// pump, plane upload and compose. It is a no-op unless state is Playing.
//
// When no new frame arrives the previously presented image is kept
// unchanged. Upload or compose failures likewise keep the previous image
// and surface through the diagnostic sink, never through a panic or a
// blocked tick.
func (p *Player) Tick() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != StatePlaying || !p.decoder.IsInitialized() {
		return
	}

	frame, ok := p.pump.advance()
	if !ok {
		return
	}
	if p.backend == nil || p.converter == nil {
		return
	}

	if err := p.present(frame); err != nil {
		p.log.WithFields(logrus.Fields{
			"function": "Tick",
			"pts":      frame.PTS,
			"error":    err.Error(),
		}).Warn("Frame dropped")
		p.diag.ComposeFailed(err)
	}
}

// present uploads the frame's planes and composes the output image.
// Caller must hold p.mu.
func (p *Player) present(frame *media.VideoFrame) error {
	geom := render.PlaneGeometry{
		Width:   int(frame.Width),
		Height:  int(frame.Height),
		YStride: frame.YStride,
		UStride: frame.UStride,
		VStride: frame.VStride,
	}
	if err := p.pool.Ensure(geom); err != nil {
		return err
	}
	if err := p.pool.Upload(frame); err != nil {
		return err
	}
	tex, err := p.converter.Compose(p.pool, int(frame.Width), int(frame.Height))
	if err != nil {
		return err
	}
	p.presented = tex
	p.geometry.Width = frame.Width
	p.geometry.Height = frame.Height
	return nil
}

// Texture returns the last composed frame, or nil when nothing has been
// presented since construction or the last seek.
func (p *Player) Texture() render.Texture {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.presented
}

// CheckNewFrame reports whether a decoded video frame newer than the
// audibly reached position exists. Without an audio sink there is no
// authoritative audio clock to compare against and the result is always
// false.
func (p *Player) CheckNewFrame() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.sink == nil || !p.decoder.IsInitialized() {
		return false
	}
	return p.decoder.VideoClock() < p.sink.CurrentPts()
}

// State returns the current playback state.
func (p *Player) State() PlaybackState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// CurrentTime returns the decoder's video clock in seconds.
func (p *Player) CurrentTime() float64 {
	return p.decoder.VideoClock()
}

// Framerate returns the nominal video frame rate.
func (p *Player) Framerate() float64 {
	return p.decoder.FramesPerSecond()
}

// NumFrames returns the total video frame count, when known.
func (p *Player) NumFrames() uint64 {
	return p.decoder.NumberOfFrames()
}

// Duration returns the stream duration in seconds.
func (p *Player) Duration() float64 {
	return p.decoder.Duration()
}

// IsPlaying reports whether the decoder is actively producing frames.
func (p *Player) IsPlaying() bool {
	return p.decoder.IsPlaying()
}

// IsDone reports whether the stream has been fully consumed.
func (p *Player) IsDone() bool {
	return p.decoder.IsDone()
}

// Release stops playback and frees the render resources the player owns.
func (p *Player) Release() {
	p.Stop()

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.pool != nil {
		p.pool.Release()
	}
	if p.converter != nil {
		p.converter.Release()
	}
	p.presented = nil

	p.log.WithFields(logrus.Fields{
		"function": "Release",
	}).Info("Player released")
}
