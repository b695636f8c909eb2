package input

import (
	"sort"
	"time"

	"git.lost.host/meutraa/eotf/internal/game"
	"git.lost.host/meutraa/eotf/internal/logger"
)

// Stamper maps a wall instant onto the game clock
type Stamper interface {
	At(wall time.Time) time.Duration
}

// Sampler turns raw key state into ordered, timestamped game events
type Sampler struct {
	source  Source
	stamper Stamper

	keys Keys
	mask game.LaneMask
	seq  uint64
	last time.Duration // Time of the last delivered event

	events   []game.InputEvent
	commands []Command
	failures int
}

func NewSampler(source Source, stamper Stamper) *Sampler {
	return &Sampler{source: source, stamper: stamper}
}

// Poll gathers the input of one tick. Level sources are stamped with the
// tick time, which is the latency floor for hosts that only report state.
// The returned slices are reused by the next call.
func (s *Sampler) Poll(clk game.ClockState) ([]game.InputEvent, []Command) {
	s.events = s.events[:0]
	s.commands = s.commands[:0]

	if es, ok := s.source.(EdgeSource); ok {
		edges, err := es.Drain(clk.Sampled)
		if nil != err {
			s.fail(err, clk.Time)
			return s.events, s.commands
		}
		s.failures = 0
		sort.SliceStable(edges, func(i, j int) bool {
			return edges[i].Wall.Before(edges[j].Wall)
		})
		for _, e := range edges {
			s.apply(e.Control, e.Pressed, s.stamper.At(e.Wall))
		}
		return s.events, s.commands
	}

	keys, err := s.source.Poll()
	if nil != err {
		s.fail(err, clk.Time)
		return s.events, s.commands
	}
	s.failures = 0
	s.set(keys, clk.Time)
	return s.events, s.commands
}

// fail treats the tick as no keys held, a bad sample must never stop a song
func (s *Sampler) fail(err error, at time.Duration) {
	s.failures++
	if s.failures == 1 {
		logger.Warn("input poll failed, releasing all keys", logger.Err(err))
	}
	s.set(Keys{}, at)
}

func (s *Sampler) set(keys Keys, at time.Duration) {
	for c := Control(0); c < NumControls; c++ {
		if keys[c] != s.keys[c] {
			s.apply(c, keys[c], at)
		}
	}
}

func (s *Sampler) apply(c Control, pressed bool, at time.Duration) {
	if c >= NumControls || s.keys[c] == pressed {
		// Repeats and releases of keys that were never down carry nothing
		return
	}
	s.keys[c] = pressed
	if at < s.last {
		at = s.last
	}

	switch {
	case c.IsFret():
		kind := game.FretUp
		if pressed {
			kind = game.FretDown
			s.mask = s.mask.With(c.Lane())
		} else {
			s.mask = s.mask.Without(c.Lane())
		}
		s.emit(game.InputEvent{Kind: kind, Lane: c.Lane(), Time: at})
	case c == Strum:
		if pressed {
			s.emit(game.InputEvent{Kind: game.Strum, Time: at})
		}
	default:
		if pressed {
			s.commands = append(s.commands, Command{Control: c, Time: at})
		}
	}
}

func (s *Sampler) emit(e game.InputEvent) {
	s.seq++
	e.Seq = s.seq
	e.Mask = s.mask
	s.last = e.Time
	s.events = append(s.events, e)
}

// Held returns the frets currently down
func (s *Sampler) Held() game.LaneMask {
	return s.mask
}
