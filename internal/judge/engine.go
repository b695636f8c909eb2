package judge

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"git.lost.host/meutraa/eotf/internal/game"
	"git.lost.host/meutraa/eotf/internal/logger"
)

type Options struct {
	Window game.Window

	// Strict panics on internal invariant violations instead of
	// discarding the ambiguous input, for tests
	Strict bool
}

// Engine judges one session of one chart. The chart is only read, note
// state lives here so a chart can back any number of sessions.
type Engine struct {
	chart  *game.Chart
	window game.Window
	strict bool

	states []game.NoteState
	hitAt  []time.Duration

	cursor int           // Every note before the cursor is no longer pending
	held   game.LaneMask // Frets down after the last processed event
	holds  []int         // Sustains being held, by note id

	queue  []game.InputEvent
	queued uint64        // Highest sequence number accepted
	now    time.Duration // Latest instant judged

	out       []game.Judgment
	discarded int
}

var ErrWindow = errors.New("hit window must be positive")

// New validates the chart before any note can be judged
func New(chart *game.Chart, opts Options) (*Engine, error) {
	if err := chart.Validate(); nil != err {
		return nil, err
	}
	if opts.Window.Hit <= 0 {
		return nil, ErrWindow
	}
	if opts.Window.SustainReleaseGrace < 0 {
		opts.Window.SustainReleaseGrace = 0
	}
	return &Engine{
		chart:  chart,
		window: opts.Window,
		strict: opts.Strict,
		states: make([]game.NoteState, len(chart.Notes)),
		hitAt:  make([]time.Duration, len(chart.Notes)),
		now:    math.MinInt64,
	}, nil
}

// Tick judges the buffered input and the clock of one frame. Events are
// accepted once by sequence number, so repeating a snapshot judges nothing
// twice. While the clock is paused events wait for the next running tick.
// The returned slice is reused by the next call.
func (e *Engine) Tick(clk game.ClockState, inputs []game.InputEvent) []game.Judgment {
	e.out = e.out[:0]
	for _, ev := range inputs {
		if ev.Seq <= e.queued {
			continue
		}
		e.queued = ev.Seq
		e.queue = append(e.queue, ev)
	}
	if !clk.Judging() {
		return e.out
	}

	n := 0
	for _, ev := range e.queue {
		if ev.Time > clk.Time {
			break
		}
		e.input(ev)
		n++
	}
	e.queue = append(e.queue[:0], e.queue[n:]...)

	e.advance(clk.Time)
	return e.out
}

func (e *Engine) input(ev game.InputEvent) {
	at := ev.Time
	if at < e.now {
		// Never judge behind an instant that is already settled
		at = e.now
	}
	e.advance(at)

	switch ev.Kind {
	case game.Strum:
		e.held = ev.Mask
		e.strum(at)
	case game.FretDown:
		e.held = ev.Mask
	case game.FretUp:
		e.held = ev.Mask
		e.release(ev.Lane, at)
	}
}

// strum commits the earliest pending chord within the window, or overstrums
func (e *Engine) strum(at time.Duration) {
	var group []game.Note
	for _, n := range e.chart.NotesInWindow(at-e.window.Hit, at+e.window.Hit) {
		if e.states[n.ID] == game.Pending {
			group = e.chart.Group(n.ID)
			break
		}
	}
	if group == nil || !matches(group, e.held) {
		e.emit(game.Judgment{NoteID: game.NoNote, Kind: game.KindOverstrum, Time: at})
		return
	}

	for _, n := range group {
		if e.states[n.ID] != game.Pending {
			e.violation(fmt.Sprintf("note %d of a strummed chord is already %v", n.ID, e.states[n.ID]))
			return
		}
	}
	for _, n := range group {
		e.states[n.ID] = game.Hit
		e.hitAt[n.ID] = at
		e.emit(game.Judgment{NoteID: n.ID, Kind: game.KindHit, Lane: n.Lane, Time: at, Offset: at - n.Time})
		if n.Sustained() {
			e.holds = append(e.holds, n.ID)
		}
	}
}

// matches requires every lane of the chord held. Lower frets may also be
// held, a fret above the highest required one fails the chord.
func matches(group []game.Note, held game.LaneMask) bool {
	var required game.LaneMask
	for _, n := range group {
		if n.Lane == game.LaneOpen {
			return held == 0
		}
		required = required.With(n.Lane)
	}
	if held&required != required {
		return false
	}
	top, _ := required.Highest()
	extra, ok := (held &^ required).Highest()
	return !ok || extra < top
}

// release settles every held sustain that needed the released lane
func (e *Engine) release(lane game.Lane, at time.Duration) {
	if len(e.holds) == 0 {
		return
	}
	keep := e.holds[:0]
	var settled []int
	for _, id := range e.holds {
		if e.requires(id).Has(lane) {
			settled = append(settled, id)
		} else {
			keep = append(keep, id)
		}
	}
	e.holds = keep

	for _, id := range settled {
		n := &e.chart.Notes[id]
		if at >= n.End()-e.window.SustainReleaseGrace {
			e.settle(id, game.HeldComplete, at)
		} else {
			e.settle(id, game.HeldBroken, at)
		}
	}
}

// requires is the lanes of a sustain's chord that are still being held
func (e *Engine) requires(id int) game.LaneMask {
	t := e.chart.Notes[id].Time
	var m game.LaneMask
	for _, other := range e.holds {
		if e.chart.Notes[other].Time == t {
			m = m.With(e.chart.Notes[other].Lane)
		}
	}
	return m
}

func (e *Engine) settle(id int, state game.NoteState, at time.Duration) {
	n := &e.chart.Notes[id]
	e.states[id] = state
	kind := game.KindHeldComplete
	if state == game.HeldBroken {
		kind = game.KindHeldBroken
	}
	e.emit(game.Judgment{NoteID: id, Kind: kind, Lane: n.Lane, Time: at})
}

// advance settles everything that is decided by time alone up to t,
// sustains held to their end and notes whose window has closed
func (e *Engine) advance(t time.Duration) {
	start := len(e.out)

	keep := e.holds[:0]
	for _, id := range e.holds {
		n := &e.chart.Notes[id]
		if n.End() <= t {
			end := n.End()
			if end < e.hitAt[id] {
				end = e.hitAt[id]
			}
			e.settle(id, game.HeldComplete, end)
			continue
		}
		if e.states[id] == game.Hit && t > e.hitAt[id] {
			e.states[id] = game.HeldActive
		}
		keep = append(keep, id)
	}
	e.holds = keep

	for e.cursor < len(e.chart.Notes) {
		n := &e.chart.Notes[e.cursor]
		if e.states[n.ID] == game.Pending {
			if n.Time+e.window.Hit >= t {
				break
			}
			e.states[n.ID] = game.Missed
			e.emit(game.Judgment{NoteID: n.ID, Kind: game.KindMissed, Lane: n.Lane, Time: n.Time + e.window.Hit})
		}
		e.cursor++
	}

	// Completions and misses interleave in time
	settled := e.out[start:]
	sort.SliceStable(settled, func(i, j int) bool {
		return settled[i].Time < settled[j].Time
	})

	if t > e.now {
		e.now = t
	}
}

func (e *Engine) emit(j game.Judgment) {
	e.out = append(e.out, j)
}

func (e *Engine) violation(msg string) {
	if e.strict {
		panic("judge: " + msg)
	}
	e.discarded++
	logger.Error("discarding ambiguous strum", logger.String("reason", msg))
}

// State returns the judged state of a note
func (e *Engine) State(id int) game.NoteState {
	return e.states[id]
}

// Held returns the frets down after the last judged event
func (e *Engine) Held() game.LaneMask {
	return e.held
}

// Done reports whether every note has been judged to the end
func (e *Engine) Done() bool {
	return e.cursor == len(e.chart.Notes) && len(e.holds) == 0
}

// Pending is the count of notes not yet judged
func (e *Engine) Pending() int {
	c := 0
	for _, s := range e.states {
		if s == game.Pending {
			c++
		}
	}
	return c
}

// Discarded is the count of inputs dropped by invariant checks
func (e *Engine) Discarded() int {
	return e.discarded
}

func (e *Engine) Window() game.Window {
	return e.window
}
