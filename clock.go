package playback

import (
	"time"

	"github.com/opd-ai/playback/audio"
)

// referenceClock computes the reference presentation timestamp for each
// tick.
//
// When an audio sink is attached its reported position is authoritative:
// audio hardware pacing is the wall clock users actually perceive. Without
// a sink the clock falls back to elapsed wall time since the last start or
// rebase, offset by the pts handed to that call.
type referenceClock struct {
	timeProvider TimeProvider
	sink         audio.Sink

	basePts   float64
	wallStart time.Time
	running   bool
}

func newReferenceClock(sink audio.Sink, tp TimeProvider) *referenceClock {
	return &referenceClock{
		timeProvider: getTimeProvider(tp),
		sink:         sink,
	}
}

// currentReferencePts returns the reference position in seconds.
func (c *referenceClock) currentReferencePts() float64 {
	if c.sink != nil {
		return c.sink.CurrentPts()
	}
	if !c.running {
		return c.basePts
	}
	return c.basePts + c.timeProvider.Now().Sub(c.wallStart).Seconds()
}

// rebase resets the wall-clock origin so elapsed-time computation continues
// seamlessly from atPts. Used on play, seek, resume and loop wrap. The
// audio-mode reference is unaffected; callers that move the stream (seek,
// loop wrap) clear the sink's buffers so the next queued frame re-anchors
// its reported position.
func (c *referenceClock) rebase(atPts float64) {
	c.basePts = atPts
	c.wallStart = c.timeProvider.Now()
	c.running = true
}

// start begins wall-clock advancement from the current base.
func (c *referenceClock) start() {
	c.wallStart = c.timeProvider.Now()
	c.running = true
}

// stop freezes the clock at its current value. A later start or rebase
// resumes advancement from the frozen position.
func (c *referenceClock) stop() {
	if c.running {
		c.basePts = c.basePts + c.timeProvider.Now().Sub(c.wallStart).Seconds()
		c.running = false
	}
}
