package media

// Decoder is the contract between the playback core and the demux/decode
// machinery. The core treats it as opaque: it never sees containers,
// packets, or codec state, only decoded frames and clocks.
//
// All methods are synchronous and non-blocking. The Decode methods return
// false when no frame is ready at this instant; that is not an error, it
// means decode is caught up or the source is stalled, and the caller should
// try again on a later tick.
type Decoder interface {
	// IsInitialized reports whether the decoder opened its source
	// successfully. Every other method must be safe to call (as a no-op or
	// zero return) when this is false.
	IsInitialized() bool

	// HasAudio reports whether the source carries an audio track.
	HasAudio() bool

	// AudioFormat returns the PCM format of the decoded audio track.
	// The result is meaningful only when HasAudio is true.
	AudioFormat() AudioFormat

	// Start begins decoding from the current position.
	Start()

	// Stop halts decoding and releases transient decode state.
	Stop()

	// Pause suspends decoding without losing position.
	Pause()

	// Resume continues decoding after a Pause.
	Resume()

	// SeekToTime repositions the stream to the given time in seconds.
	SeekToTime(seconds float64) error

	// SetLoop controls whether the stream restarts from the beginning
	// when it reaches the end.
	SetLoop(loop bool)

	// DecodeAudioFrame fills out with the next decoded audio frame and
	// returns true, or returns false when none is ready.
	DecodeAudioFrame(out *AudioFrame) bool

	// DecodeVideoFrame fills out with the next decoded video frame and
	// returns true, or returns false when none is ready.
	DecodeVideoFrame(out *VideoFrame) bool

	// VideoClock returns the presentation timestamp, in seconds, of the
	// most recently decoded video frame.
	VideoClock() float64

	// FramesPerSecond returns the nominal video frame rate.
	FramesPerSecond() float64

	// FrameWidth returns the video frame width in pixels.
	FrameWidth() uint16

	// FrameHeight returns the video frame height in pixels.
	FrameHeight() uint16

	// Duration returns the stream duration in seconds.
	Duration() float64

	// NumberOfFrames returns the total video frame count, when known.
	NumberOfFrames() uint64

	// IsPlaying reports whether the decoder is actively producing frames.
	IsPlaying() bool

	// IsDone reports whether the stream has been fully consumed.
	IsDone() bool
}
