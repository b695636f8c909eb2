package testdata

import (
	"strings"

	"git.lost.host/meutraa/eotf/internal/game"
	"git.lost.host/meutraa/eotf/internal/parser"
)

// A short song: a tap, a chord, a sustain and a last tap, at 120 bpm
const data = `{
  "version": 1,
  "name": "Testdata",
  "tempos": [{"time": 0, "bpm": 120}],
  "meters": [{"time": 0, "numerator": 4, "denominator": 4}],
  "difficulties": [
    {"difficulty": "amazing", "notes": [
      {"lane": 0, "time": 1.0},
      {"lane": 0, "time": 1.5},
      {"lane": 1, "time": 1.5},
      {"lane": 2, "time": 2.0, "duration": 1.0, "special": true},
      {"lane": 3, "time": 3.5}
    ]},
    {"difficulty": "easy", "notes": [
      {"lane": 0, "time": 1.0},
      {"lane": 5, "time": 2.0}
    ]}
  ]
}`

// GetChart returns the amazing chart of the test song
func GetChart() (*game.Chart, error) {
	charts, err := GetCharts()
	if nil != err {
		return nil, err
	}
	for _, c := range charts {
		if c.Difficulty.ID == game.AmazingDifficulty {
			return c, nil
		}
	}
	return charts[0], nil
}

func GetCharts() ([]*game.Chart, error) {
	p := parser.DefaultParser{}
	return p.Parse("testdata.json", strings.NewReader(data))
}
