// Package media defines the frame types and the decoder contract shared by
// the playback core and its collaborator implementations.
//
// This package is a leaf: it depends on nothing else in the module so that
// decoder implementations, audio sinks, and the playback core can all agree
// on frame layout without import cycles.
//
// # Frame Layout
//
// Video frames are planar 4:2:0 limited-range YUV. The luma plane holds one
// byte per pixel; each chroma plane has half the width and half the height
// of the luma plane. Strides may exceed the logical width when a decoder
// pads scan lines; consumers must honor the stride and crop to Width.
//
// Audio frames carry interleaved signed 16-bit PCM samples together with
// their format so a sink can detect mid-stream configuration changes.
//
// # Decoder Contract
//
// Decoder is the boundary to the demux/decode machinery. Every method is
// synchronous and non-blocking: DecodeVideoFrame and DecodeAudioFrame
// return false when no frame is ready right now, never stalling the caller.
// Implementations own whatever internal concurrency they need.
package media
