package input

import (
	"fmt"
	"time"

	"github.com/eiannone/keyboard"
)

// TerminalSource reads key presses from the terminal. Terminals never
// report releases, so a fret stays held for Latch after its last press or
// autorepeat, and the pick releases right after each press.
type TerminalSource struct {
	Latch time.Duration

	runes   map[rune]Control
	special map[keyboard.Key]Control
	presses chan Edge
	pending []Edge
	state   Keys
	seen    [NumControls]time.Time
}

// DefaultRunes plays the frets on the home row
var DefaultRunes = map[rune]Control{
	'a': Fret0,
	's': Fret1,
	'd': Fret2,
	'f': Fret3,
	'g': Fret4,
	'*': StarPower,
}

var DefaultSpecial = map[keyboard.Key]Control{
	keyboard.KeyEnter: Strum,
	keyboard.KeySpace: Strum,
	keyboard.KeyTab:   StarPower,
	keyboard.KeyEsc:   Pause,
	keyboard.KeyCtrlC: Quit,
}

// OpenTerminal puts the terminal into raw mode and starts reading keys
func OpenTerminal(runes map[rune]Control, latch time.Duration) (*TerminalSource, error) {
	keys, err := keyboard.GetKeys(128)
	if nil != err {
		return nil, fmt.Errorf("unable to open keyboard: %w", err)
	}
	if runes == nil {
		runes = DefaultRunes
	}
	s := &TerminalSource{
		Latch:   latch,
		runes:   runes,
		special: DefaultSpecial,
		presses: make(chan Edge, 128),
	}
	go func() {
		for key := range keys {
			if nil != key.Err {
				continue
			}
			c, ok := s.special[key.Key]
			if !ok && key.Key == 0 {
				c, ok = s.runes[key.Rune]
			}
			if !ok {
				continue
			}
			s.presses <- Edge{Control: c, Pressed: true, Wall: time.Now()}
		}
		close(s.presses)
	}()
	return s, nil
}

func (s *TerminalSource) Drain(until time.Time) ([]Edge, error) {
	for done := false; !done; {
		select {
		case e, ok := <-s.presses:
			if !ok {
				done = true
				break
			}
			s.pending = append(s.pending, e)
		default:
			done = true
		}
	}

	out := []Edge{}
	keep := s.pending[:0]
	for _, e := range s.pending {
		if e.Wall.After(until) {
			keep = append(keep, e)
			continue
		}
		out = s.release(out, e.Wall)
		if s.state[e.Control] && !e.Control.IsFret() {
			// A press of a held pick is a new pick
			out = append(out, Edge{Control: e.Control, Pressed: false, Wall: e.Wall})
		}
		s.state[e.Control] = true
		s.seen[e.Control] = e.Wall
		out = append(out, e)
	}
	s.pending = keep
	return s.release(out, until), nil
}

// release lets go of every latched key whose latch ran out by now
func (s *TerminalSource) release(out []Edge, now time.Time) []Edge {
	for c := Control(0); c < NumControls; c++ {
		if !s.state[c] {
			continue
		}
		latch := s.Latch
		if !c.IsFret() {
			latch = time.Nanosecond
		}
		end := s.seen[c].Add(latch)
		if !end.After(now) {
			s.state[c] = false
			out = append(out, Edge{Control: c, Pressed: false, Wall: end})
		}
	}
	return out
}

func (s *TerminalSource) Poll() (Keys, error) {
	return s.state, nil
}

func (s *TerminalSource) Close() error {
	return keyboard.Close()
}
