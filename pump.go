package playback

import (
	"github.com/sirupsen/logrus"

	"github.com/opd-ai/playback/audio"
	"github.com/opd-ai/playback/media"
)

const (
	// maxCatchUpIterations caps the per-tick video catch-up loop. A stalled
	// or far-behind stream gives up catching up this tick and tries again
	// on the next one, so a tick's decode cost stays bounded.
	maxCatchUpIterations = 100

	// maxAudioDrainPerTick caps the sink-less audio drain loop for the
	// same reason.
	maxAudioDrainPerTick = 256
)

// framePump drives the decoder each tick: it keeps the audio sink fed and
// runs the video catch-up loop that selects at most one displayable frame.
type framePump struct {
	decoder media.Decoder
	sink    audio.Sink
	clock   *referenceClock
	diag    DiagnosticSink
	log     *logrus.Entry

	frame media.VideoFrame
}

func newFramePump(decoder media.Decoder, sink audio.Sink, clock *referenceClock, diag DiagnosticSink, log *logrus.Entry) *framePump {
	return &framePump{
		decoder: decoder,
		sink:    sink,
		clock:   clock,
		diag:    diag,
		log:     log,
	}
}

// advance performs one tick of decode work and returns the video frame to
// present, if any. The returned frame is owned by the pump and valid only
// until the next advance call.
//
// The reference position is sampled after the audio pump so that a sink
// re-anchored by post-wrap or post-seek audio is effective on this tick,
// not the next one.
func (p *framePump) advance() (*media.VideoFrame, bool) {
	p.pumpAudio()
	return p.pumpVideo(p.clock.currentReferencePts())
}

// pumpAudio keeps the sink's buffers topped up. Without a sink, decoded
// audio is drained and discarded so the demuxer's internal audio queue
// cannot grow unbounded and desynchronize video decode order.
func (p *framePump) pumpAudio() {
	if p.sink != nil {
		for p.sink.HasBufferSpace() {
			var frame media.AudioFrame
			if !p.decoder.DecodeAudioFrame(&frame) {
				break
			}
			if err := p.sink.QueueFrame(&frame); err != nil {
				p.log.WithFields(logrus.Fields{
					"function": "framePump.pumpAudio",
					"error":    err.Error(),
				}).Warn("Audio sink rejected frame")
				break
			}
		}
		p.sink.FlushBuffers()
		return
	}

	if p.decoder.HasAudio() {
		var frame media.AudioFrame
		for i := 0; i < maxAudioDrainPerTick; i++ {
			if !p.decoder.DecodeAudioFrame(&frame) {
				break
			}
		}
	}
}

// pumpVideo runs the catch-up loop: decode frames until the decoder's video
// clock reaches the reference, keeping only the most recent candidate.
//
// The first frame is admitted with half a frame duration of slack so a
// frame that is about to come due is shown now rather than one tick late.
// A backward jump of the decoder clock means the source looped; the
// reference clock is rebased to the new position and the loop ends, so the
// wrap is never mistaken for a huge backlog.
func (p *framePump) pumpVideo(referencePts float64) (*media.VideoFrame, bool) {
	obtained := false
	lastClock := p.decoder.VideoClock()

	var halfFrame float64
	if fps := p.decoder.FramesPerSecond(); fps > 0 {
		halfFrame = 0.5 / fps
	}

	for count := 0; count < maxCatchUpIterations; count++ {
		slack := halfFrame
		if obtained {
			slack = 0
		}
		if p.decoder.VideoClock() >= referencePts+slack {
			break
		}
		if !p.decoder.DecodeVideoFrame(&p.frame) {
			// Not an error: decode is exactly caught up or the source is
			// stalled. Try again next tick.
			break
		}
		if obtained {
			// The previous candidate never reaches the screen; only the
			// most recent frame survives the tick.
			p.log.WithFields(logrus.Fields{
				"function": "framePump.pumpVideo",
				"clock":    lastClock,
			}).Debug("Skipped video frame")
			p.diag.FrameSkipped(lastClock)
		}
		obtained = true
		if p.decoder.VideoClock() < lastClock {
			// The source looped: treat as a fresh playback epoch. The sink
			// must drop its pre-wrap backlog, otherwise its reported
			// position stays pinned at the old epoch and every following
			// tick re-wraps.
			p.clock.rebase(p.decoder.VideoClock())
			if p.sink != nil {
				p.sink.ClearBuffers()
			}
			p.diag.LoopWrapped(p.decoder.VideoClock())
			p.log.WithFields(logrus.Fields{
				"function": "framePump.pumpVideo",
				"clock":    p.decoder.VideoClock(),
			}).Debug("Source looped, reference clock rebased")
			break
		}
		lastClock = p.decoder.VideoClock()
	}

	if !obtained {
		return nil, false
	}
	return &p.frame, true
}
