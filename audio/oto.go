package audio

import (
	"fmt"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
	"github.com/sirupsen/logrus"

	"github.com/opd-ai/playback/media"
)

// DefaultMaxBuffered is the backlog bound an OtoSink enforces through
// HasBufferSpace. Half a second keeps seek latency low while riding out
// scheduling hiccups.
const DefaultMaxBuffered = 500 * time.Millisecond

// OtoSink plays PCM frames through the system audio device using
// ebitengine/oto.
//
// The sink keeps a bounded backlog: HasBufferSpace turns false once the
// queued-but-unplayed audio exceeds the configured bound, which is how the
// playback core's fill loop terminates each tick. CurrentPts is derived
// from the sample frames actually consumed by the device minus what still
// sits in the device buffer, so it is latency-compensated.
type OtoSink struct {
	mu sync.Mutex

	format      media.AudioFormat
	frameBytes  int64 // bytes per interleaved sample frame
	maxBuffered time.Duration

	queue  *pcmQueue
	ctx    *oto.Context
	player *oto.Player

	basePts      float64
	baseSet      bool
	queuedFrames int64
}

// NewOtoSink opens the system audio device for the given PCM format.
//
// The device context is created eagerly so that configuration problems
// surface at construction rather than on the first queued frame.
func NewOtoSink(format media.AudioFormat) (*OtoSink, error) {
	logrus.WithFields(logrus.Fields{
		"function":    "NewOtoSink",
		"sample_rate": format.SampleRate,
		"channels":    format.Channels,
	}).Info("Opening audio device")

	if format.SampleRate == 0 || format.Channels == 0 {
		return nil, fmt.Errorf("invalid audio format: %d Hz, %d channels",
			format.SampleRate, format.Channels)
	}

	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   int(format.SampleRate),
		ChannelCount: int(format.Channels),
		Format:       oto.FormatSignedInt16LE,
		BufferSize:   100 * time.Millisecond,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open audio device: %w", err)
	}
	<-ready

	queue := &pcmQueue{}
	sink := &OtoSink{
		format:      format,
		frameBytes:  2 * int64(format.Channels),
		maxBuffered: DefaultMaxBuffered,
		queue:       queue,
		ctx:         ctx,
		player:      ctx.NewPlayer(queue),
	}

	logrus.WithFields(logrus.Fields{
		"function":     "NewOtoSink",
		"max_buffered": sink.maxBuffered,
	}).Info("Audio device opened")

	return sink, nil
}

// HasBufferSpace reports whether the unplayed backlog is below the bound.
func (s *OtoSink) HasBufferSpace() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.backlog() < s.maxBuffered
}

// backlog returns the audible length of queued-but-unplayed audio.
// Caller must hold s.mu.
func (s *OtoSink) backlog() time.Duration {
	pending := s.queue.Pending() + int64(s.player.BufferedSize())
	frames := pending / s.frameBytes
	return time.Duration(frames) * time.Second / time.Duration(s.format.SampleRate)
}

// QueueFrame appends a decoded PCM frame to the playback queue.
//
// The first frame after construction or ClearBuffers anchors the position
// accounting at that frame's PTS.
func (s *OtoSink) QueueFrame(frame *media.AudioFrame) error {
	if frame == nil || len(frame.PCM) == 0 {
		return nil
	}
	if frame.Format != s.format {
		return fmt.Errorf("audio format changed mid-stream: sink %d/%d, frame %d/%d",
			s.format.SampleRate, s.format.Channels,
			frame.Format.SampleRate, frame.Format.Channels)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.baseSet {
		s.basePts = frame.PTS
		s.baseSet = true
	}

	raw := make([]byte, len(frame.PCM)*2)
	for i, sample := range frame.PCM {
		raw[2*i] = byte(sample)
		raw[2*i+1] = byte(sample >> 8)
	}
	s.queue.Write(raw)
	s.queuedFrames += int64(frame.SampleCount())
	return nil
}

// FlushBuffers is a no-op for oto: the device pulls from the queue
// continuously, so queued audio is already in flight.
func (s *OtoSink) FlushBuffers() {}

// CurrentPts returns the latency-compensated playback position in seconds.
func (s *OtoSink) CurrentPts() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.baseSet {
		return s.basePts
	}
	played := s.queue.Delivered()/s.frameBytes - int64(s.player.BufferedSize())/s.frameBytes
	if played < 0 {
		played = 0
	}
	return s.basePts + float64(played)/float64(s.format.SampleRate)
}

// ClearBuffers drops all queued and device-buffered audio. The position is
// re-anchored by the next queued frame.
func (s *OtoSink) ClearBuffers() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.player.Reset()
	s.queue.Reset()
	s.queuedFrames = 0
	s.baseSet = false

	logrus.WithFields(logrus.Fields{
		"function": "OtoSink.ClearBuffers",
		"base_pts": s.basePts,
	}).Debug("Audio buffers cleared")
}

// Play starts or resumes audible output.
func (s *OtoSink) Play() {
	if !s.player.IsPlaying() {
		s.player.Play()
	}
}

// Pause suspends audible output; queued audio is kept.
func (s *OtoSink) Pause() {
	s.player.Pause()
}

// Stop halts output and drops queued audio.
func (s *OtoSink) Stop() {
	logrus.WithFields(logrus.Fields{
		"function": "OtoSink.Stop",
	}).Debug("Stopping audio sink")
	s.player.Pause()
	s.ClearBuffers()
}

// Close releases the device player. The oto context itself cannot be torn
// down; this matches the library's process-lifetime context model.
func (s *OtoSink) Close() error {
	return s.player.Close()
}
