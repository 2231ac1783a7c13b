package playback

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opd-ai/playback/audio"
	"github.com/opd-ai/playback/media/synth"
	"github.com/opd-ai/playback/render"
)

// These tests run the whole pipeline against the synthetic decoder and the
// software backend, with time driven manually.

func TestSyntheticPlaybackPresentsAtFrameRate(t *testing.T) {
	tp := newFakeTime()
	dec := synth.New(synth.Config{Width: 64, Height: 32, FrameRate: 10, Duration: 1})
	player, err := New(dec,
		WithLogger(quietLogger()),
		WithTimeProvider(tp),
		WithRenderBackend(render.NewSoftwareBackend()),
	)
	require.NoError(t, err)
	defer player.Release()

	player.Play()

	// Tick at 50Hz for one second of simulated time. The 10fps stream
	// yields exactly one new frame per 100ms; the other ticks hold.
	presented := map[float64]bool{}
	for i := 0; i < 50; i++ {
		player.Tick()
		if player.Texture() != nil {
			presented[player.CurrentTime()] = true
		}
		tp.Advance(20 * time.Millisecond)
	}

	assert.Len(t, presented, 10, "each source frame is presented exactly once")
	assert.True(t, player.IsDone() || player.CurrentTime() >= 0.9)
}

func TestSyntheticLoopWrapsSeamlessly(t *testing.T) {
	tp := newFakeTime()
	diag := &recordingDiag{}
	dec := synth.New(synth.Config{Width: 32, Height: 16, FrameRate: 10, Duration: 0.5})
	player, err := New(dec,
		WithLogger(quietLogger()),
		WithTimeProvider(tp),
		WithRenderBackend(render.NewSoftwareBackend()),
		WithDiagnosticSink(diag),
	)
	require.NoError(t, err)
	defer player.Release()

	player.SetLoop(true)
	player.Play()

	// Simulate 1.2s: the half-second stream wraps twice.
	for i := 0; i < 60; i++ {
		player.Tick()
		tp.Advance(20 * time.Millisecond)
	}

	assert.GreaterOrEqual(t, len(diag.wrapped), 2)
	for _, clock := range diag.wrapped {
		assert.InDelta(t, 0.0, clock, 1e-9)
	}
	assert.False(t, player.IsDone(), "a looping stream never finishes")
	assert.NotNil(t, player.Texture())
}

func TestLoopingWithAudioSinkFollowsWrap(t *testing.T) {
	diag := &recordingDiag{}
	dec := synth.New(synth.Config{
		Width: 32, Height: 16, FrameRate: 10, Duration: 0.5, Audio: true,
	})
	sink := audio.NewNullSink()
	player, err := New(dec,
		WithLogger(quietLogger()),
		WithAudioSink(sink),
		WithRenderBackend(render.NewSoftwareBackend()),
		WithDiagnosticSink(diag),
	)
	require.NoError(t, err)
	defer player.Release()

	player.SetLoop(true)
	player.Play()

	// Drive many ticks across several loop traversals. The audio position
	// is the reference clock here, so each wrap must pull it back down;
	// a reference pinned at the pre-wrap position would re-wrap on every
	// single tick and skip the whole stream each time.
	maxClockAfterWrap := 0.0
	for i := 0; i < 40; i++ {
		player.Tick()
		if len(diag.wrapped) > 0 && player.CurrentTime() > maxClockAfterWrap {
			maxClockAfterWrap = player.CurrentTime()
		}
	}

	assert.GreaterOrEqual(t, len(diag.wrapped), 2, "the stream loops more than once")
	assert.LessOrEqual(t, len(diag.wrapped), 15,
		"wraps happen once per traversal, not once per tick")
	for _, clock := range diag.wrapped {
		assert.InDelta(t, 0.0, clock, 1e-9)
	}
	assert.GreaterOrEqual(t, maxClockAfterWrap, 0.3,
		"video advances through the epochs that follow a wrap")
	assert.Less(t, len(diag.skipped), 80)
	assert.Less(t, sink.CurrentPts(), 1.0,
		"the audio reference follows the wrap instead of accumulating")
}

func TestSyntheticAudioClockDrivesPresentation(t *testing.T) {
	dec := synth.New(synth.Config{
		Width: 32, Height: 16, FrameRate: 10, Duration: 1, Audio: true,
	})
	sink := audio.NewNullSink()
	player, err := New(dec,
		WithLogger(quietLogger()),
		WithAudioSink(sink),
		WithRenderBackend(render.NewSoftwareBackend()),
	)
	require.NoError(t, err)
	defer player.Release()

	player.Play()

	// The null sink advances past every frame it swallows, so the audio
	// clock races ahead and pulls video decode with it.
	for i := 0; i < 20 && !player.IsDone(); i++ {
		player.Tick()
	}

	assert.NotNil(t, player.Texture())
	assert.Greater(t, sink.CurrentPts(), 0.0)
	assert.Greater(t, player.CurrentTime(), 0.0)
}
