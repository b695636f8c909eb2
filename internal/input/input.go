package input

import (
	"time"

	"git.lost.host/meutraa/eotf/internal/game"
)

// Control is a logical key, physical keys are mapped onto these
type Control uint8

const (
	Fret0 Control = iota
	Fret1
	Fret2
	Fret3
	Fret4
	Strum
	StarPower
	Pause
	Quit
	NumControls
)

var controlNames = [...]string{"fret0", "fret1", "fret2", "fret3", "fret4", "strum", "starpower", "pause", "quit"}

func (c Control) String() string {
	if c < NumControls {
		return controlNames[c]
	}
	return "invalid"
}

func (c Control) IsFret() bool {
	return c <= Fret4
}

func (c Control) Lane() game.Lane {
	return game.Lane(c)
}

// FretControl is the control of a fret lane
func FretControl(l game.Lane) Control {
	return Control(l)
}

// Keys is the level state of every control
type Keys [NumControls]bool

// Edge is a single key transition with the wall instant it happened
type Edge struct {
	Control Control
	Pressed bool
	Wall    time.Time
}

// Source reports key state at the moment it is polled
type Source interface {
	Poll() (Keys, error)
}

// EdgeSource also captures transitions as they happen, which gives
// events the time of the physical action instead of the poll
type EdgeSource interface {
	Source
	// Drain returns the buffered edges that happened no later than until
	Drain(until time.Time) ([]Edge, error)
}

// Command is a non judged control action
type Command struct {
	Control Control
	Time    time.Duration
}
