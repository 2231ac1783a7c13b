package playback

// PlaybackState represents the current state of the playback session.
type PlaybackState uint32

const (
	// StateStopped indicates playback has not started or has been stopped.
	// This is the initial state after construction.
	StateStopped PlaybackState = iota
	// StatePlaying indicates the pipeline runs on every tick.
	StatePlaying
	// StatePaused indicates playback is suspended but position is kept.
	StatePaused
)

// String returns a human-readable state name for logging.
func (s PlaybackState) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	default:
		return "unknown"
	}
}
