package game

import "time"

type InputKind uint8

const (
	FretDown InputKind = iota
	FretUp
	Strum
)

var inputNames = [...]string{"down", "up", "strum"}

func (k InputKind) String() string {
	if int(k) < len(inputNames) {
		return inputNames[k]
	}
	return "invalid"
}

type InputEvent struct {
	Seq  uint64 // Strictly increasing across a session
	Kind InputKind
	Lane Lane          // The fret of a FretDown or FretUp
	Mask LaneMask      // Frets held after this event
	Time time.Duration // Clock time of the physical action
}
