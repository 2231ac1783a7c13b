// Package audio provides the audio sink contract consumed by the playback
// core, together with two implementations: a NullSink that swallows frames
// and a hardware-backed OtoSink built on ebitengine/oto.
//
// A Sink accepts decoded PCM frames, plays them with its own internal
// buffering, and reports the presentation timestamp it has audibly reached.
// That reported position is the authoritative playback clock whenever a
// sink is attached, because audio hardware pacing is the wall clock users
// actually perceive.
//
// All Sink methods are synchronous and non-blocking; device callbacks and
// buffer refills are the implementation's own concern.
package audio
