package score

import (
	"math"
	"time"

	"git.lost.host/meutraa/eotf/internal/game"
	"git.lost.host/meutraa/eotf/internal/logger"
)

type chordKey struct {
	first int // Lowest note id of the chord
	kind  game.JudgmentKind
}

// Aggregator is the default Scorer. It only reads the chart, to look up
// the value of judged notes.
type Aggregator struct {
	chart *game.Chart
	rules Rules
	state State

	streak int           // Consecutive breaks
	at     time.Duration // Time of the last applied judgment
	chords map[chordKey]bool

	sumOfOffset   float64
	sumOfSquares  float64
	offsetSamples int
}

func NewAggregator(chart *game.Chart, rules Rules) *Aggregator {
	if rules.ComboStep <= 0 {
		rules.ComboStep = 10
	}
	if rules.MaxMultiplier <= 0 {
		rules.MaxMultiplier = 1
	}
	a := &Aggregator{chart: chart, rules: rules, at: math.MinInt64, chords: map[chordKey]bool{}}
	a.state.Health = rules.HealthStart
	a.state.Multiplier = 1
	return a
}

// multiplier grows by one every ComboStep hits, doubled by star power
func (a *Aggregator) multiplier() int {
	m := a.state.CurrentCombo/a.rules.ComboStep + 1
	if m > a.rules.MaxMultiplier {
		m = a.rules.MaxMultiplier
	}
	if a.state.StarActive {
		m *= 2
	}
	return m
}

// drain runs star power down to the given instant
func (a *Aggregator) drain(t time.Duration) {
	if t <= a.at {
		return
	}
	// Never active before the first judgment
	if a.state.StarActive {
		a.state.StarMeter -= a.rules.StarDrain * (t - a.at).Seconds()
		if a.state.StarMeter <= 0 {
			a.state.StarMeter = 0
			a.state.StarActive = false
		}
	}
	a.at = t
}

func (a *Aggregator) Apply(j game.Judgment) {
	a.drain(j.Time)

	switch j.Kind {
	case game.KindHit:
		a.state.Hits++
		a.record(j.Offset)
		if a.state.IsFailed {
			return
		}
		n := &a.chart.Notes[j.NoteID]
		a.state.TotalScore += a.rules.NoteValue * int64(a.multiplier())
		if n.Special {
			a.gainStar()
		}
		// A chord counts once, on its last note
		if group := a.chart.Group(j.NoteID); group[len(group)-1].ID == j.NoteID {
			a.gain()
		}
	case game.KindHeldComplete:
		a.state.Completed++
		if a.state.IsFailed {
			return
		}
		n := &a.chart.Notes[j.NoteID]
		a.state.TotalScore += int64(math.Round(a.rules.SustainValue * n.Duration.Seconds() * float64(a.multiplier())))
		if a.once(j) {
			a.gain()
		}
	case game.KindMissed:
		a.state.Missed++
		if a.once(j) {
			a.lose(j)
		}
	case game.KindHeldBroken:
		a.state.Broken++
		if a.once(j) {
			a.lose(j)
		}
	case game.KindOverstrum:
		a.state.Overstrums++
		if a.rules.OverstrumBreaksCombo {
			a.lose(j)
		}
	}
	a.state.Multiplier = a.multiplier()
}

// once reports whether the judgment is the first of its kind for the
// chord of its note, so that a chord moves the combo and health once
func (a *Aggregator) once(j game.Judgment) bool {
	group := a.chart.Group(j.NoteID)
	if len(group) == 1 {
		return true
	}
	k := chordKey{first: group[0].ID, kind: j.Kind}
	if a.chords[k] {
		return false
	}
	a.chords[k] = true
	return true
}

func (a *Aggregator) gain() {
	a.streak = 0
	a.state.CurrentCombo++
	if a.state.CurrentCombo > a.state.MaxCombo {
		a.state.MaxCombo = a.state.CurrentCombo
	}
	if a.rules.HealthLoss > 0 {
		a.state.Health = math.Min(1, a.state.Health+a.rules.HealthGain)
	}
}

func (a *Aggregator) gainStar() {
	a.state.StarMeter = math.Min(1, a.state.StarMeter+a.rules.StarGain)
}

func (a *Aggregator) lose(j game.Judgment) {
	if a.state.IsFailed {
		return
	}
	a.state.CurrentCombo = 0
	a.state.MissCount++
	a.streak++
	if !a.state.StarActive && a.rules.StarLoss > 0 {
		a.state.StarMeter = math.Max(0, a.state.StarMeter-a.rules.StarLoss)
	}

	failed := a.rules.FailStreak > 0 && a.streak >= a.rules.FailStreak
	if a.rules.HealthLoss > 0 {
		a.state.Health = math.Max(0, a.state.Health-a.rules.HealthLoss)
		failed = failed || a.state.Health <= 0
	}
	if failed {
		a.state.IsFailed = true
		a.state.FailedAt = j.Time
		a.state.StarActive = false
		logger.Info("song failed",
			logger.Duration("at", j.Time),
			logger.Int("misses", a.state.MissCount),
		)
	}
}

// record folds a hit offset into the running mean and deviation
func (a *Aggregator) record(offset time.Duration) {
	a.offsetSamples++
	a.sumOfOffset += float64(offset)
	a.sumOfSquares += float64(offset) * float64(offset)

	n := float64(a.offsetSamples)
	mean := a.sumOfOffset / n
	a.state.MeanOffset = time.Duration(math.Round(mean))
	if a.offsetSamples > 1 {
		variance := (a.sumOfSquares - n*mean*mean) / (n - 1)
		a.state.StdevOffset = time.Duration(math.Round(math.Sqrt(math.Max(0, variance))))
	}
}

// Activate starts star power, it needs a half full meter
func (a *Aggregator) Activate(at time.Duration) bool {
	a.drain(at)
	if a.state.IsFailed || a.state.StarActive || a.state.StarMeter < 0.5 {
		return false
	}
	a.state.StarActive = true
	a.state.Multiplier = a.multiplier()
	logger.Debug("star power", logger.Duration("at", at))
	return true
}

// Warn records a non fatal condition, each warning once
func (a *Aggregator) Warn(w Warning) {
	if w == WarnClockDegraded {
		a.state.ClockDegraded = true
	}
	for _, seen := range a.state.Warnings {
		if seen == w {
			return
		}
	}
	a.state.Warnings = append(a.state.Warnings, w)
}

// Snapshot returns a copy safe to keep past later judgments
func (a *Aggregator) Snapshot() State {
	s := a.state
	s.Warnings = append([]Warning(nil), a.state.Warnings...)
	return s
}
