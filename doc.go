// Package playback implements an audio/video synchronization and
// frame-presentation core.
//
// A Player reconciles two independently advancing, unreliable clocks
// (decoded audio delivery and decoded video delivery) under a
// single-threaded, non-blocking, call-once-per-tick contract. Each Tick it
// selects a reference clock (the audio sink's reported position when one
// is attached, elapsed wall time otherwise), pumps the decoder with a
// bounded catch-up loop that keeps at most one pending video frame,
// detects loop wraps, uploads the winning frame's YUV planes into a
// bounded texture set, and composes the presented RGB image.
//
// # Collaborators
//
// The heavy machinery lives behind three capability interfaces:
//
//   - media.Decoder: demuxing and codec work
//   - audio.Sink: audio device output and buffering
//   - render.Backend: image allocation, upload and the conversion pass
//
// The core never blocks on any of them: decode calls return "no frame
// ready" instead of stalling, and per-tick work is bounded by a hard
// iteration cap.
//
// # Usage
//
//	player, err := playback.New(decoder,
//	    playback.WithAudioSink(sink),
//	    playback.WithRenderBackend(render.NewSoftwareBackend()),
//	)
//	if err != nil {
//	    return err
//	}
//	defer player.Release()
//
//	player.Play()
//	for !player.IsDone() {
//	    player.Tick()
//	    tex := player.Texture() // last composed frame, held across empty ticks
//	    _ = tex
//	}
//
// # Threading
//
// The host serializes all calls into the core; Tick and the transition
// methods must not race. Collaborators encapsulate their own internal
// concurrency and expose only synchronous, non-blocking operations.
package playback
