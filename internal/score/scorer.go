package score

import (
	"time"

	"git.lost.host/meutraa/eotf/internal/game"
)

// Scorer folds judgments into a running score
type Scorer interface {
	Apply(j game.Judgment)
	Warn(w Warning)
	Activate(at time.Duration) bool
	Snapshot() State
}

type Warning string

const (
	// WarnClockDegraded is raised when no audio position is available
	WarnClockDegraded Warning = "clock degraded to wall time"
	// WarnDiscardedInput is raised when an ambiguous strum was dropped
	WarnDiscardedInput Warning = "ambiguous input discarded"
)

// Rules are the tunable scoring constants of a session
type Rules struct {
	NoteValue     int64   // Points for a hit note
	SustainValue  float64 // Points per second of a completed sustain
	ComboStep     int     // Hits per multiplier step
	MaxMultiplier int

	OverstrumBreaksCombo bool

	FailStreak int // Consecutive breaks that fail the song, 0 disables

	HealthStart float64
	HealthGain  float64 // Per hit or completion
	HealthLoss  float64 // Per break, 0 disables health

	StarGain  float64 // Per star power note hit
	StarLoss  float64 // Per break while star power is inactive
	StarDrain float64 // Meter per second while active
}

func DefaultRules() Rules {
	return Rules{
		NoteValue:            50,
		SustainValue:         25,
		ComboStep:            10,
		MaxMultiplier:        4,
		OverstrumBreaksCombo: true,
		HealthStart:          0.5,
		HealthGain:           0.01,
		HealthLoss:           0.04,
		StarGain:             0.125,
		StarLoss:             0,
		StarDrain:            0.125,
	}
}

// State is the score of a session at one instant
type State struct {
	TotalScore   int64
	CurrentCombo int
	MaxCombo     int
	MissCount    int
	Multiplier   int

	Health     float64
	StarMeter  float64
	StarActive bool

	IsFailed bool
	FailedAt time.Duration

	// Tallies keep counting after a fail
	Hits       int
	Missed     int
	Completed  int
	Broken     int
	Overstrums int

	// Hit offset statistics
	MeanOffset  time.Duration
	StdevOffset time.Duration

	ClockDegraded bool
	Warnings      []Warning
}

// Judged is the count of notes with a final judgment
func (s State) Judged() int {
	return s.Hits + s.Missed
}
