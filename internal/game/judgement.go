package game

import (
	"time"
)

type JudgmentKind uint8

const (
	KindHit JudgmentKind = iota
	KindMissed
	KindHeldComplete
	KindHeldBroken
	KindOverstrum
)

var kindNames = [...]string{"hit", "missed", "complete", "broken", "overstrum"}

func (k JudgmentKind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "invalid"
}

// Breaks reports whether the judgment resets the combo
func (k JudgmentKind) Breaks() bool {
	return k == KindMissed || k == KindHeldBroken || k == KindOverstrum
}

// NoNote is the note id of judgments that are not about a note
const NoNote = -1

type Judgment struct {
	NoteID int
	Kind   JudgmentKind
	Lane   Lane
	Time   time.Duration // Clock time the judgment applies to
	Offset time.Duration // Strum time minus note time, for hits
}

// Window holds the timing tolerances of one difficulty
type Window struct {
	Hit                 time.Duration // Symmetric tolerance around a note time
	SustainReleaseGrace time.Duration // How early a sustain may be released and still complete
}

// WindowForTempo derives tolerances from the song tempo
// A hit is allowed within 1/3.5 of a beat, a release within half a beat of the end
func WindowForTempo(bpm float64) Window {
	if bpm <= 0 {
		bpm = 120
	}
	beat := float64(time.Minute) / bpm
	return Window{
		Hit:                 time.Duration(beat / 3.5),
		SustainReleaseGrace: time.Duration(beat / 2),
	}
}
