package playback

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opd-ai/playback/audio"
	"github.com/opd-ai/playback/media"
)

func testLogEntry() *logrus.Entry {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return logrus.NewEntry(log)
}

func newTestPump(dec media.Decoder, sink audio.Sink) (*framePump, *referenceClock, *recordingDiag, *fakeTimeProvider) {
	tp := newFakeTime()
	diag := &recordingDiag{}
	clock := newReferenceClock(sink, tp)
	pump := newFramePump(dec, sink, clock, diag, testLogEntry())
	return pump, clock, diag, tp
}

func TestPumpNoFrameAvailable(t *testing.T) {
	dec := newScriptedDecoder()
	pump, clock, _, _ := newTestPump(dec, nil)
	clock.rebase(1.0)

	frame, ok := pump.advance()
	assert.False(t, ok)
	assert.Nil(t, frame)
}

func TestPumpAdmitsFirstFrameWithHalfFrameSlack(t *testing.T) {
	// fps 10, so the admission slack is 50ms. A frame due 40ms from now
	// must be shown this tick rather than one tick late.
	dec := newScriptedDecoder(0.04)
	pump, _, _, _ := newTestPump(dec, nil)

	frame, ok := pump.advance()
	require.True(t, ok)
	assert.InDelta(t, 0.04, frame.PTS, 1e-9)
}

func TestPumpSlackNotAppliedBeyondHalfFrame(t *testing.T) {
	// The decoder clock already sits past the slack window, so nothing is
	// admitted this tick.
	dec := newScriptedDecoder(0.2)
	dec.clock = 0.06
	pump, _, _, _ := newTestPump(dec, nil)

	_, ok := pump.advance()
	assert.False(t, ok)
	assert.Zero(t, dec.videoDecodeCalls)
}

func TestPumpSkipsBacklogKeepsNewest(t *testing.T) {
	dec := newScriptedDecoder(0.1, 0.2, 0.3)
	pump, clock, diag, _ := newTestPump(dec, nil)
	clock.rebase(0.35)

	frame, ok := pump.advance()
	require.True(t, ok)
	assert.InDelta(t, 0.3, frame.PTS, 1e-9)

	// The two superseded candidates are reported with their own clocks.
	require.Len(t, diag.skipped, 2)
	assert.InDelta(t, 0.1, diag.skipped[0], 1e-9)
	assert.InDelta(t, 0.2, diag.skipped[1], 1e-9)
}

func TestPumpCatchUpIterationCap(t *testing.T) {
	dec := &greedyDecoder{step: 1e-6}
	dec.fps = 10
	dec.width = 32
	dec.height = 16
	pump, clock, _, _ := newTestPump(dec, nil)
	clock.rebase(1000.0)

	_, ok := pump.advance()
	assert.True(t, ok)
	assert.Equal(t, maxCatchUpIterations, dec.videoDecodeCalls,
		"the catch-up loop must give up after the iteration cap")
}

func TestPumpLoopWrapRebasesClock(t *testing.T) {
	dec := newScriptedDecoder(9.8, 9.9, 0.1, 0.2)
	dec.clock = 9.7
	pump, clock, diag, _ := newTestPump(dec, nil)
	clock.rebase(20.0)

	frame, ok := pump.advance()
	require.True(t, ok)

	// The wrap terminates the loop immediately; only three decodes happen
	// even though the reference is far ahead.
	assert.Equal(t, 3, dec.videoDecodeCalls)
	assert.InDelta(t, 0.1, frame.PTS, 1e-9)

	require.Len(t, diag.wrapped, 1)
	assert.InDelta(t, 0.1, diag.wrapped[0], 1e-9)
	assert.InDelta(t, 0.1, clock.currentReferencePts(), 1e-9,
		"the reference clock must restart from the wrapped position")
}

func TestPumpLoopWrapClearsSinkBacklog(t *testing.T) {
	// With a sink attached its position is the reference, so the wrap must
	// flush the sink's pre-wrap backlog; rebasing the wall clock alone
	// would leave the reference pinned at the old epoch.
	dec := newScriptedDecoder(0.4, 0.0)
	dec.clock = 0.3
	sink := &recordingSink{capacity: 0, pts: 0.6}
	pump, _, diag, _ := newTestPump(dec, sink)

	frame, ok := pump.advance()
	require.True(t, ok)
	assert.InDelta(t, 0.0, frame.PTS, 1e-9)

	assert.Equal(t, 1, sink.clears)
	require.Len(t, diag.wrapped, 1)
	assert.InDelta(t, 0.0, diag.wrapped[0], 1e-9)
}

func TestPumpReferenceSampledAfterAudioPump(t *testing.T) {
	// Audio queued this tick moves the sink's position before the video
	// catch-up runs, so a freshly re-anchored sink is effective
	// immediately instead of one tick late.
	dec := newScriptedDecoder(0.1)
	dec.clock = 0.05
	dec.hasAudio = true
	dec.audioFrames = 3
	sink := &anchoringSink{}
	pump, _, _, _ := newTestPump(dec, sink)

	frame, ok := pump.advance()
	require.True(t, ok)
	assert.InDelta(t, 0.1, frame.PTS, 1e-9)
}

// anchoringSink reports pts 0 until audio arrives, then a position that
// admits the test's video frame without slack.
type anchoringSink struct {
	recordingSink
}

func (s *anchoringSink) HasBufferSpace() bool { return s.queued < 3 }

func (s *anchoringSink) QueueFrame(frame *media.AudioFrame) error {
	s.queued++
	s.pts = 0.2
	return nil
}

func TestPumpFillsAudioSink(t *testing.T) {
	dec := newScriptedDecoder()
	dec.hasAudio = true
	dec.audioFrames = 100
	sink := &recordingSink{capacity: 8}
	pump, _, _, _ := newTestPump(dec, sink)

	pump.advance()

	assert.Equal(t, 8, sink.queued, "the sink is filled until it reports no space")
	assert.Equal(t, 1, sink.flushes)
	assert.Equal(t, 92, dec.audioFrames)
}

func TestPumpDrainsAudioWithoutSink(t *testing.T) {
	dec := newScriptedDecoder()
	dec.hasAudio = true
	dec.audioFrames = 10000
	pump, _, _, _ := newTestPump(dec, nil)

	pump.advance()

	assert.Equal(t, 10000-maxAudioDrainPerTick, dec.audioFrames,
		"the sink-less drain is capped per tick")
}

func TestPumpFrameReusedAcrossTicks(t *testing.T) {
	dec := newScriptedDecoder(0.0, 1.0)
	pump, clock, _, _ := newTestPump(dec, nil)

	first, ok := pump.advance()
	require.True(t, ok)
	clock.rebase(1.0)
	second, ok := pump.advance()
	require.True(t, ok)

	assert.Same(t, first, second, "the pump owns one frame buffer and reuses it")
	assert.InDelta(t, 1.0, second.PTS, 1e-9)
}
