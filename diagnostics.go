package playback

// DiagnosticSink receives playback health events at well-defined points.
// It replaces a hidden logging side-channel with an injectable capability:
// hosts that care about skip storms or compose failures attach a sink, all
// others pay nothing.
//
// Implementations must be cheap and non-blocking; they are invoked from
// inside the tick path.
type DiagnosticSink interface {
	// FrameSkipped is called when the catch-up loop discards a decoded
	// frame without presenting it. clock is the discarded frame's
	// presentation timestamp in seconds.
	FrameSkipped(clock float64)

	// LoopWrapped is called when the source looped back to the beginning
	// and the reference clock was rebased. clock is the new (low)
	// presentation timestamp.
	LoopWrapped(clock float64)

	// ComposeFailed is called when a decoded frame could not be uploaded
	// or composed. The previously presented image is retained.
	ComposeFailed(err error)
}

// nopDiagnosticSink is used when the host does not attach a sink.
type nopDiagnosticSink struct{}

func (nopDiagnosticSink) FrameSkipped(float64) {}
func (nopDiagnosticSink) LoopWrapped(float64)  {}
func (nopDiagnosticSink) ComposeFailed(error)  {}
