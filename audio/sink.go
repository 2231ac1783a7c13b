package audio

import (
	"github.com/sirupsen/logrus"

	"github.com/opd-ai/playback/media"
)

// Sink is the contract between the playback core and an audio output.
//
// The core feeds it decoded frames while HasBufferSpace reports capacity,
// flushes once per tick, and reads CurrentPts as the reference clock. The
// core never blocks on a sink; every method must return promptly.
type Sink interface {
	// HasBufferSpace reports whether the sink can accept another frame
	// without growing its backlog beyond its configured bound.
	HasBufferSpace() bool

	// QueueFrame hands a decoded PCM frame to the sink. The sink copies
	// what it needs; the frame is not retained.
	QueueFrame(frame *media.AudioFrame) error

	// FlushBuffers submits any partially filled device buffer so playback
	// latency stays bounded.
	FlushBuffers()

	// CurrentPts returns the presentation timestamp, in seconds, that the
	// sink has audibly reached. The value is latency-compensated.
	CurrentPts() float64

	// ClearBuffers drops all queued audio. Used on seek.
	ClearBuffers()

	// Play starts or resumes audible output.
	Play()

	// Pause suspends audible output without dropping queued audio.
	Pause()

	// Stop halts output and drops queued audio.
	Stop()
}

// NullSink is a Sink that discards all audio.
//
// It advances its reported position to the end of whatever it is handed, so
// a pipeline wired to a NullSink still sees a usable audio clock. A queued
// frame whose PTS lies before the current position means the stream moved
// (seek or loop wrap); the position snaps to it instead of holding the old
// epoch. Useful for tests and for hosts that want audio-clock pacing
// without output.
type NullSink struct {
	pts      float64
	anchored bool
	playing  bool
}

// NewNullSink creates a sink that discards all audio.
func NewNullSink() *NullSink {
	return &NullSink{}
}

// HasBufferSpace always reports capacity; discarded audio needs no room.
func (s *NullSink) HasBufferSpace() bool {
	return true
}

// QueueFrame discards the frame and advances the reported position past
// it. A frame starting before the current position re-anchors the clock at
// that frame; decoders emit audio in order, so a backward PTS is a seek or
// a loop wrap, never jitter.
func (s *NullSink) QueueFrame(frame *media.AudioFrame) error {
	if frame == nil {
		return nil
	}
	end := frame.PTS + frame.Duration()
	if !s.anchored || frame.PTS < s.pts {
		s.pts = end
		s.anchored = true
		return nil
	}
	if end > s.pts {
		s.pts = end
	}
	return nil
}

// FlushBuffers is a no-op.
func (s *NullSink) FlushBuffers() {}

// CurrentPts returns the end of the last discarded frame.
func (s *NullSink) CurrentPts() float64 {
	return s.pts
}

// ClearBuffers drops the position anchor; the next queued frame
// re-establishes it at that frame's PTS.
func (s *NullSink) ClearBuffers() {
	s.anchored = false
}

// Play marks the sink as playing.
func (s *NullSink) Play() {
	s.playing = true
}

// Pause marks the sink as paused.
func (s *NullSink) Pause() {
	s.playing = false
}

// Stop marks the sink as stopped.
func (s *NullSink) Stop() {
	logrus.WithFields(logrus.Fields{
		"function": "NullSink.Stop",
		"pts":      s.pts,
	}).Debug("Null audio sink stopped")
	s.playing = false
}
