package session

import (
	"time"

	"git.lost.host/meutraa/eotf/internal/game"
	"git.lost.host/meutraa/eotf/internal/input"
	"git.lost.host/meutraa/eotf/internal/judge"
	"git.lost.host/meutraa/eotf/internal/score"
)

// Replay judges recorded input against the chart without a clock or a
// device, each event at its own time. The score matches the live session
// that recorded it.
func Replay(chart *game.Chart, opts Options, records []input.Record) (score.State, []game.Judgment, error) {
	w := window(chart, opts.Window)
	engine, err := judge.New(chart, judge.Options{Window: w, Strict: opts.Strict})
	if nil != err {
		return score.State{}, nil, err
	}
	scorer := score.NewAggregator(chart, opts.Rules)
	judged := []game.Judgment{}
	run := func(at time.Duration, events []game.InputEvent) {
		for _, j := range engine.Tick(game.ClockState{Time: at, Playing: true}, events) {
			scorer.Apply(j)
			judged = append(judged, j)
		}
	}

	events := input.Rebuild(records)
	next := 0
	for _, r := range records {
		if r.Control != input.StarPower || !r.Pressed {
			continue
		}
		end := next
		for end < len(events) && events[end].Time <= r.Time {
			end++
		}
		run(r.Time, events[next:end])
		next = end
		scorer.Activate(r.Time)
	}

	end := chart.Length() + w.Hit + time.Nanosecond
	if len(events) > 0 && events[len(events)-1].Time > end {
		end = events[len(events)-1].Time
	}
	run(end, events[next:])
	return scorer.Snapshot(), judged, nil
}
