package parser

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"time"

	"git.lost.host/meutraa/eotf/internal/game"
)

// JSONParser reads the native chart format, times are in seconds
type JSONParser struct{}

const jsonVersion = 1

type jsonChart struct {
	Version      int              `json:"version"`
	Name         string           `json:"name"`
	Tempos       []jsonTempo      `json:"tempos"`
	Meters       []jsonMeter      `json:"meters"`
	Difficulties []jsonDifficulty `json:"difficulties"`
}

type jsonTempo struct {
	Time float64 `json:"time"`
	BPM  float64 `json:"bpm"`
}

type jsonMeter struct {
	Time        float64 `json:"time"`
	Numerator   uint8   `json:"numerator"`
	Denominator uint8   `json:"denominator"`
}

type jsonDifficulty struct {
	Difficulty string     `json:"difficulty"`
	Notes      []jsonNote `json:"notes"`
}

type jsonNote struct {
	Lane     int     `json:"lane"`
	Time     float64 `json:"time"`
	Duration float64 `json:"duration"`
	Special  bool    `json:"special"`
}

func seconds(s float64) (time.Duration, bool) {
	if math.IsNaN(s) || math.IsInf(s, 0) || math.Abs(s) > math.MaxInt64/float64(time.Second) {
		return 0, false
	}
	return time.Duration(math.Round(s * float64(time.Second))), true
}

func (p *JSONParser) Parse(name string, r io.Reader) ([]*game.Chart, error) {
	var raw jsonChart
	if err := json.NewDecoder(r).Decode(&raw); nil != err {
		return nil, &game.ParseError{Source: name, Err: err}
	}
	if raw.Version != jsonVersion {
		return nil, &game.UnsupportedFormatError{Source: name, Format: fmt.Sprintf("json version %d", raw.Version)}
	}
	title := raw.Name
	if title == "" {
		title = chartName(name)
	}

	tempos := make([]game.Tempo, 0, len(raw.Tempos))
	for i, t := range raw.Tempos {
		at, ok := seconds(t.Time)
		if !ok || at < 0 || t.BPM <= 0 {
			return nil, &game.ParseError{Source: name, Detail: fmt.Sprintf("tempo %d is malformed", i)}
		}
		tempos = append(tempos, game.Tempo{Time: at, BPM: t.BPM})
	}
	meters := make([]game.Meter, 0, len(raw.Meters))
	for i, m := range raw.Meters {
		at, ok := seconds(m.Time)
		if !ok || at < 0 || m.Numerator == 0 || m.Denominator == 0 {
			return nil, &game.ParseError{Source: name, Detail: fmt.Sprintf("meter %d is malformed", i)}
		}
		meters = append(meters, game.Meter{Time: at, Numerator: m.Numerator, Denominator: m.Denominator})
	}

	charts := []*game.Chart{}
	seen := map[int]bool{}
	for _, d := range raw.Difficulties {
		difficulty, ok := game.DifficultyByName(d.Difficulty)
		if !ok {
			return nil, &game.ParseError{Source: name, Detail: fmt.Sprintf("unknown difficulty %q", d.Difficulty)}
		}
		if seen[difficulty.ID] {
			return nil, &game.ParseError{Source: name, Detail: fmt.Sprintf("difficulty %q given twice", d.Difficulty)}
		}
		seen[difficulty.ID] = true

		notes := make([]game.Note, 0, len(d.Notes))
		for i, n := range d.Notes {
			// Range check before narrowing, lane 256 would wrap to green
			if n.Lane < 0 || n.Lane > int(game.LaneOpen) {
				return nil, &game.ParseError{Source: name, Detail: fmt.Sprintf("%v note %d has lane %d", difficulty.Name, i, n.Lane)}
			}
			lane := game.Lane(n.Lane)
			at, ok := seconds(n.Time)
			if !ok || at < 0 {
				return nil, &game.ParseError{Source: name, Detail: fmt.Sprintf("%v note %d has a malformed time", difficulty.Name, i)}
			}
			length, ok := seconds(n.Duration)
			if !ok || length < 0 {
				return nil, &game.ParseError{Source: name, Detail: fmt.Sprintf("%v note %d has a malformed duration", difficulty.Name, i)}
			}
			notes = append(notes, game.Note{Lane: lane, Time: at, Duration: length, Special: n.Special})
		}

		chart, err := game.NewChart(title, difficulty, notes, tempos, meters)
		if nil != err {
			return nil, err
		}
		charts = append(charts, chart)
	}
	return charts, nil
}
