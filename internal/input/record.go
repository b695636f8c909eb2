package input

import (
	"time"

	"git.lost.host/meutraa/eotf/internal/game"
)

// Record is a logical key transition on the game clock, kept for replays
type Record struct {
	Control Control
	Pressed bool
	Time    time.Duration
}

// Records converts delivered events back into key transitions
func Records(events []game.InputEvent) []Record {
	records := make([]Record, 0, len(events))
	for _, e := range events {
		switch e.Kind {
		case game.FretDown:
			records = append(records, Record{Control: FretControl(e.Lane), Pressed: true, Time: e.Time})
		case game.FretUp:
			records = append(records, Record{Control: FretControl(e.Lane), Pressed: false, Time: e.Time})
		case game.Strum:
			records = append(records, Record{Control: Strum, Pressed: true, Time: e.Time})
		}
	}
	return records
}

// Rebuild turns ordered records into the events a live sampler would have delivered
func Rebuild(records []Record) []game.InputEvent {
	s := &Sampler{}
	for _, r := range records {
		if r.Control == Strum && r.Pressed && s.keys[Strum] {
			s.apply(Strum, false, r.Time)
		}
		s.apply(r.Control, r.Pressed, r.Time)
	}
	out := make([]game.InputEvent, len(s.events))
	copy(out, s.events)
	return out
}
