package playback

import "errors"

// Sentinel errors for playback operations.
// These errors enable reliable error classification using errors.Is().

// Construction errors.
var (
	// ErrDecoderNotInitialized indicates the decoder failed to open its
	// source; the player cannot be constructed.
	ErrDecoderNotInitialized = errors.New("decoder is not initialized")

	// ErrNilDecoder indicates no decoder was supplied.
	ErrNilDecoder = errors.New("decoder cannot be nil")
)

// Seek errors.
var (
	// ErrSeekFailed indicates the decoder rejected the seek target.
	ErrSeekFailed = errors.New("seek failed")

	// ErrInvalidSeekTime indicates a negative or non-finite seek target.
	ErrInvalidSeekTime = errors.New("invalid seek time")
)

