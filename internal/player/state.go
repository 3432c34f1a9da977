package player

// Phase is the canonical playback phase.
//
// The main path is Idle -> Loading -> Ready -> Playing <-> Paused -> Ended.
// Buffering is transient, entered from Playing or Paused and always
// returning to the phase it was entered from. Seeking is transient and
// exits to Playing when playback was active before the seek, otherwise
// to Paused. Unavailable is terminal for the current source: adapter
// initialization failed and controls are disabled.
type Phase string

// Playback phases.
const (
	PhaseIdle        Phase = "idle"
	PhaseLoading     Phase = "loading"
	PhaseReady       Phase = "ready"
	PhasePlaying     Phase = "playing"
	PhasePaused      Phase = "paused"
	PhaseBuffering   Phase = "buffering"
	PhaseSeeking     Phase = "seeking"
	PhaseEnded       Phase = "ended"
	PhaseUnavailable Phase = "unavailable"
)

// State is the canonical, backend-independent playback snapshot.
// Owned exclusively by the Controller; adapters request transitions
// through events and never write state directly.
type State struct {
	Phase           Phase   `json:"phase"`
	PositionSeconds float64 `json:"position_seconds"`
	// DurationSeconds is zero until the adapter signals metadata-ready
	// with a known duration.
	DurationSeconds float64 `json:"duration_seconds"`
	Volume          float64 `json:"volume"`
	Muted           bool    `json:"muted"`
	PlaybackRate    float64 `json:"playback_rate"`
	Fullscreen      bool    `json:"fullscreen"`
}

// DurationKnown reports whether a progress percentage is computable yet.
func (s State) DurationKnown() bool {
	return s.DurationSeconds > 0
}

// Fraction returns watched fraction in [0,1], or 0 while the duration
// is unknown.
func (s State) Fraction() float64 {
	if !s.DurationKnown() {
		return 0
	}
	f := s.PositionSeconds / s.DurationSeconds
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

// PlaybackRates are the only rate multipliers the controller accepts.
var PlaybackRates = []float64{0.5, 0.75, 1, 1.25, 1.5, 2}

// ValidRate reports whether rate is one of the enumerated multipliers.
func ValidRate(rate float64) bool {
	for _, r := range PlaybackRates {
		if r == rate {
			return true
		}
	}
	return false
}
