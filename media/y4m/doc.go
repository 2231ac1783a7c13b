// Package y4m implements a file-backed media.Decoder for YUV4MPEG2 video
// with an optional PCM WAV or Ogg Opus audio sidecar.
//
// YUV4MPEG2 stores uncompressed planar frames behind a one-line text
// header, which makes it the simplest on-disk format that exercises the
// full playback pipeline: real plane data, real strides, exact seeking,
// and looping. Audio sidecars are decoded on demand; Opus packets are
// decoded with the pure Go pion/opus decoder.
//
// Only 4:2:0 chroma subsampling is supported, matching the presentation
// pipeline's assumption.
package y4m
