package session

import (
	"errors"
	"math"
	"sort"
	"time"

	"git.lost.host/meutraa/eotf/internal/clock"
	"git.lost.host/meutraa/eotf/internal/game"
	"git.lost.host/meutraa/eotf/internal/input"
	"git.lost.host/meutraa/eotf/internal/judge"
	"git.lost.host/meutraa/eotf/internal/logger"
	"git.lost.host/meutraa/eotf/internal/score"
	"github.com/google/uuid"
)

type Options struct {
	Window game.Window // Derived from the chart tempo when zero
	Rules  score.Rules
	LeadIn time.Duration // Clock time at start, negative to scroll notes in
	Offset time.Duration // Audio output latency
	Strict bool

	Now    func() time.Time
	Track  clock.Track // nil plays on wall time only
	Source input.Source
}

var ErrNoSource = errors.New("session needs an input source")

// Frame is everything one tick produced
type Frame struct {
	Clock     game.ClockState
	Events    []game.InputEvent
	Judgments []game.Judgment
	Score     score.State
	Quit      bool
	Done      bool // Every note is judged
}

// Session plays one chart once
type Session struct {
	ID string

	chart   *game.Chart
	window  game.Window
	track   clock.Track
	leadIn  time.Duration
	clock   *clock.Clock
	sampler *input.Sampler
	engine  *judge.Engine
	scorer  *score.Aggregator

	listeners  []func(game.Judgment)
	records    []input.Record
	judgments  []game.Judgment
	started    time.Time
	capability clock.Capability
	discarded  int
}

func window(chart *game.Chart, w game.Window) game.Window {
	if w.Hit <= 0 {
		return game.WindowForTempo(chart.BPM())
	}
	return w
}

// New validates the chart, any violation is a *game.ChartValidationError
func New(chart *game.Chart, opts Options) (*Session, error) {
	if opts.Source == nil {
		return nil, ErrNoSource
	}
	w := window(chart, opts.Window)
	engine, err := judge.New(chart, judge.Options{Window: w, Strict: opts.Strict})
	if nil != err {
		return nil, err
	}
	clk := clock.New(clock.Options{Now: opts.Now, Offset: opts.Offset})
	return &Session{
		ID:      uuid.New().String(),
		chart:   chart,
		window:  w,
		track:   opts.Track,
		leadIn:  opts.LeadIn,
		clock:   clk,
		sampler: input.NewSampler(opts.Source, clk),
		engine:  engine,
		scorer:  score.NewAggregator(chart, opts.Rules),
	}, nil
}

// Subscribe registers a read only listener of every judgment, in order
func (s *Session) Subscribe(fn func(game.Judgment)) {
	s.listeners = append(s.listeners, fn)
}

// Start opens the audio and arms the clock. A degraded clock is not an
// error, it is recorded as a warning on the score.
func (s *Session) Start() clock.Capability {
	s.capability = s.clock.Start(s.track, s.leadIn)
	if s.capability.Degraded {
		s.scorer.Warn(score.WarnClockDegraded)
	}
	s.clock.Guard()
	s.started = s.clock.State().Sampled
	logger.Info("session started",
		logger.String("id", s.ID),
		logger.String("chart", s.chart.Name),
		logger.String("difficulty", s.chart.Difficulty.Name),
		logger.Duration("window", s.window.Hit),
		logger.Bool("degraded", s.capability.Degraded),
	)
	return s.capability
}

// Tick runs one frame: clock, input, judgment and score, in that order.
// The slices of the frame are reused by the next tick.
func (s *Session) Tick() Frame {
	clk := s.clock.Tick()
	// A track can also fail when playback starts after the lead in
	if clk.Degraded {
		s.scorer.Warn(score.WarnClockDegraded)
	}
	events, commands := s.sampler.Poll(clk)
	s.records = append(s.records, input.Records(events)...)

	judgments := s.engine.Tick(clk, events)
	if d := s.engine.Discarded(); d > s.discarded {
		s.discarded = d
		s.scorer.Warn(score.WarnDiscardedInput)
	}

	f := Frame{Clock: clk, Events: events, Judgments: judgments}
	next := 0
	for _, c := range commands {
		switch c.Control {
		case input.StarPower:
			if !clk.Judging() {
				continue
			}
			next = s.apply(judgments, next, c.Time)
			s.records = append(s.records, input.Record{Control: input.StarPower, Pressed: true, Time: c.Time})
			s.scorer.Activate(c.Time)
		case input.Pause:
			if clk.Paused {
				s.clock.Resume()
			} else {
				s.clock.Pause()
			}
			logger.Debug("pause", logger.Bool("paused", !clk.Paused), logger.Duration("at", clk.Time))
		case input.Quit:
			f.Quit = true
		}
	}
	s.apply(judgments, next, math.MaxInt64)

	f.Score = s.scorer.Snapshot()
	f.Done = s.engine.Done()
	return f
}

// apply scores judgments from next on up to and including the instant,
// returning the index of the first one left
func (s *Session) apply(judgments []game.Judgment, next int, until time.Duration) int {
	for ; next < len(judgments); next++ {
		j := judgments[next]
		if j.Time > until {
			break
		}
		s.judge(j)
	}
	return next
}

func (s *Session) judge(j game.Judgment) {
	s.scorer.Apply(j)
	s.judgments = append(s.judgments, j)
	for _, fn := range s.listeners {
		fn(j)
	}
}

// Pause and Resume are for hosts with their own pause control
func (s *Session) Pause() {
	s.clock.Pause()
}

func (s *Session) Resume() {
	s.clock.Resume()
}

func (s *Session) Chart() *game.Chart {
	return s.chart
}

func (s *Session) Window() game.Window {
	return s.window
}

func (s *Session) State(id int) game.NoteState {
	return s.engine.State(id)
}

// Held is the frets down as last judged
func (s *Session) Held() game.LaneMask {
	return s.engine.Held()
}

func (s *Session) Score() score.State {
	return s.scorer.Snapshot()
}

// Result is the outcome of a session, ready to be stored
type Result struct {
	ID        string
	Chart     *game.Chart
	Started   time.Time
	Degraded  bool
	Score     score.State
	Judgments []game.Judgment
	Records   []input.Record
}

func (s *Session) Result() Result {
	records := make([]input.Record, len(s.records))
	copy(records, s.records)
	sortRecords(records)
	judgments := make([]game.Judgment, len(s.judgments))
	copy(judgments, s.judgments)
	return Result{
		ID:        s.ID,
		Chart:     s.chart,
		Started:   s.started,
		Degraded:  s.capability.Degraded || s.clock.State().Degraded,
		Score:     s.scorer.Snapshot(),
		Judgments: judgments,
		Records:   records,
	}
}

// History is the stored form of the result
func (r Result) History() score.History {
	return score.History{
		ID:         r.ID,
		Sum:        r.Chart.Sum,
		Difficulty: r.Chart.Difficulty.Name,
		Played:     r.Started,
		Score:      r.Score,
		Records:    r.Records,
	}
}

// sortRecords orders by time, star power after the keys of the same
// instant since it applies after the judgments of that instant
func sortRecords(records []input.Record) {
	sort.SliceStable(records, func(i, j int) bool {
		if records[i].Time != records[j].Time {
			return records[i].Time < records[j].Time
		}
		return records[i].Control != input.StarPower && records[j].Control == input.StarPower
	})
}
