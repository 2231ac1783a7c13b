package audio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opd-ai/playback/media"
)

func TestQueueReadDrainsWrites(t *testing.T) {
	q := &pcmQueue{}
	q.Write([]byte{1, 2, 3, 4})

	out := make([]byte, 4)
	n, err := q.Read(out)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, []byte{1, 2, 3, 4}, out)
	assert.EqualValues(t, 0, q.Pending())
	assert.EqualValues(t, 4, q.Delivered())
}

func TestQueueUnderrunPadsSilence(t *testing.T) {
	q := &pcmQueue{}
	q.Write([]byte{9, 9})

	out := []byte{7, 7, 7, 7, 7, 7}
	n, err := q.Read(out)
	require.NoError(t, err)

	// The device always gets a full buffer; the missing tail is silence.
	assert.Equal(t, 6, n)
	assert.Equal(t, []byte{9, 9, 0, 0, 0, 0}, out)

	// Silence is padding, not audio: it must not advance the position.
	assert.EqualValues(t, 2, q.Delivered())
}

func TestQueuePartialRead(t *testing.T) {
	q := &pcmQueue{}
	q.Write([]byte{1, 2, 3, 4, 5, 6})

	out := make([]byte, 4)
	_, err := q.Read(out)
	require.NoError(t, err)
	assert.EqualValues(t, 2, q.Pending())

	_, err = q.Read(out)
	require.NoError(t, err)
	assert.Equal(t, []byte{5, 6, 0, 0}, out)
	assert.EqualValues(t, 6, q.Delivered())
}

func TestQueueReset(t *testing.T) {
	q := &pcmQueue{}
	q.Write(make([]byte, 100))
	q.Read(make([]byte, 40))

	q.Reset()
	assert.EqualValues(t, 0, q.Pending())
	assert.EqualValues(t, 0, q.Delivered())
}

func TestNullSinkAdvancesPastDiscardedAudio(t *testing.T) {
	sink := NewNullSink()
	assert.True(t, sink.HasBufferSpace())
	assert.Equal(t, 0.0, sink.CurrentPts())

	frame := &media.AudioFrame{
		PCM:    make([]int16, 960), // 20ms mono at 48kHz
		Format: media.AudioFormat{SampleRate: 48000, Channels: 1},
		PTS:    1.0,
	}
	require.NoError(t, sink.QueueFrame(frame))
	assert.InDelta(t, 1.02, sink.CurrentPts(), 1e-9)

	// Still reports space; a null sink never backpressures.
	assert.True(t, sink.HasBufferSpace())
}

func TestNullSinkSnapsBackwardOnRegression(t *testing.T) {
	sink := NewNullSink()
	late := &media.AudioFrame{
		PCM:    make([]int16, 480),
		Format: media.AudioFormat{SampleRate: 48000, Channels: 1},
		PTS:    2.0,
	}
	wrapped := &media.AudioFrame{
		PCM:    make([]int16, 480),
		Format: media.AudioFormat{SampleRate: 48000, Channels: 1},
		PTS:    0.0,
	}
	require.NoError(t, sink.QueueFrame(late))
	assert.InDelta(t, 2.01, sink.CurrentPts(), 1e-9)

	// A backward PTS means the stream looped or was seeked; the reported
	// position must follow it down instead of holding the old epoch.
	require.NoError(t, sink.QueueFrame(wrapped))
	assert.InDelta(t, 0.01, sink.CurrentPts(), 1e-9)
}

func TestNullSinkClearBuffersReanchors(t *testing.T) {
	sink := NewNullSink()
	format := media.AudioFormat{SampleRate: 48000, Channels: 1}
	require.NoError(t, sink.QueueFrame(&media.AudioFrame{
		PCM: make([]int16, 480), Format: format, PTS: 5.0,
	}))
	assert.InDelta(t, 5.01, sink.CurrentPts(), 1e-9)

	// Backward seek path: buffers cleared, then post-seek audio arrives.
	sink.ClearBuffers()
	require.NoError(t, sink.QueueFrame(&media.AudioFrame{
		PCM: make([]int16, 480), Format: format, PTS: 1.0,
	}))
	assert.InDelta(t, 1.01, sink.CurrentPts(), 1e-9)
}

func TestNullSinkNilFrame(t *testing.T) {
	sink := NewNullSink()
	assert.NoError(t, sink.QueueFrame(nil))
	assert.Equal(t, 0.0, sink.CurrentPts())
}
