package game

import (
	"strings"
	"time"
)

// Lane is the fret a note is played on
type Lane uint8

const (
	LaneGreen Lane = iota
	LaneRed
	LaneYellow
	LaneBlue
	LaneOrange
	LaneOpen // Strum with no fret held
)

// FretLanes is the number of fret keys, the open lane is not a fret
const FretLanes = 5

var laneNames = [...]string{"green", "red", "yellow", "blue", "orange", "open"}

func (l Lane) String() string {
	if int(l) < len(laneNames) {
		return laneNames[l]
	}
	return "invalid"
}

func (l Lane) Valid() bool {
	return l <= LaneOpen
}

// LaneMask is a set of held fret lanes, bit n is lane n
type LaneMask uint8

func MaskOf(lanes ...Lane) LaneMask {
	var m LaneMask
	for _, l := range lanes {
		m = m.With(l)
	}
	return m
}

func (m LaneMask) Has(l Lane) bool {
	return l < FretLanes && m&(1<<l) != 0
}

func (m LaneMask) With(l Lane) LaneMask {
	if l >= FretLanes {
		return m
	}
	return m | 1<<l
}

func (m LaneMask) Without(l Lane) LaneMask {
	if l >= FretLanes {
		return m
	}
	return m &^ (1 << l)
}

// Highest returns the highest held lane, ok is false for an empty mask
func (m LaneMask) Highest() (Lane, bool) {
	for l := Lane(FretLanes); l > 0; l-- {
		if m.Has(l - 1) {
			return l - 1, true
		}
	}
	return 0, false
}

func (m LaneMask) String() string {
	var b strings.Builder
	for l := Lane(0); l < FretLanes; l++ {
		if m.Has(l) {
			b.WriteByte('#')
		} else {
			b.WriteByte('.')
		}
	}
	return b.String()
}

type Note struct {
	ID       int           // Position in the chart, stable for the life of the chart
	Lane     Lane          // The fret lane
	Time     time.Duration // The time the note should be hit
	Duration time.Duration // How long the note should be held, 0 for a tap
	IsChord  bool          // Shares its time with notes on other lanes
	Special  bool          // Star power note
}

// End is the time a sustained note should be released
func (n *Note) End() time.Duration {
	return n.Time + n.Duration
}

func (n *Note) Sustained() bool {
	return n.Duration > 0
}

// NoteState is the judged state of a note within one session
type NoteState uint8

const (
	Pending NoteState = iota
	Hit
	HeldActive
	HeldBroken
	HeldComplete
	Missed
)

var stateNames = [...]string{"pending", "hit", "held", "broken", "complete", "missed"}

func (s NoteState) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "invalid"
}

// Resolved reports whether no further judgment of the note can happen
func (s NoteState) Resolved() bool {
	return s == Missed || s == HeldBroken || s == HeldComplete
}
