package parser

import (
	"errors"
	"strings"
	"testing"
	"time"

	"git.lost.host/meutraa/eotf/internal/game"
)

const jsonSong = `
{
  "version": 1,
  "name": "Bang Bang",
  "tempos": [{"time": 0, "bpm": 140}],
  "difficulties": [
    {"difficulty": "easy", "notes": [
      {"lane": 0, "time": 2.0},
      {"lane": 1, "time": 2.5, "duration": 1.25, "special": true},
      {"lane": 5, "time": 4.0}
    ]},
    {"difficulty": "expert", "notes": [
      {"lane": 0, "time": 1.0},
      {"lane": 2, "time": 1.0}
    ]}
  ]
}`

func TestJSONParse(t *testing.T) {
	p := DefaultParser{}
	charts, err := p.Parse("bang.json", strings.NewReader(jsonSong))
	if nil != err {
		t.Fatal(err)
	}
	if len(charts) != 2 {
		t.Fatal("charts", charts)
	}
	easy := charts[0]
	if easy.Difficulty.ID != game.EasyDifficulty || easy.Name != "Bang Bang" {
		t.Fatal("unexpected first chart", easy.Difficulty, easy.Name)
	}
	if easy.Notes[1].Duration != 1250*time.Millisecond || !easy.Notes[1].Special {
		t.Log(easy.Notes[1])
		t.Fail()
	}
	if easy.Notes[2].Lane != game.LaneOpen || easy.HoldCount != 1 || easy.StarCount != 1 {
		t.Log(easy.Notes[2], easy.HoldCount, easy.StarCount)
		t.Fail()
	}
	if easy.BPM() != 140 {
		t.Fail()
	}
	if !charts[1].Notes[0].IsChord {
		t.Fail()
	}
}

func TestLoadErrors(t *testing.T) {
	tests := map[string]func(error) bool{
		`{"version": 2, "difficulties": []}`: func(err error) bool {
			var e *game.UnsupportedFormatError
			return errors.As(err, &e)
		},
		`{"difficulties": []}`: func(err error) bool {
			var e *game.UnsupportedFormatError
			return errors.As(err, &e)
		},
		`#NOTES: dance-single`: func(err error) bool {
			var e *game.UnsupportedFormatError
			return errors.As(err, &e)
		},
		``: func(err error) bool {
			var e *game.UnsupportedFormatError
			return errors.As(err, &e)
		},
		`{"version": 1, "difficulties": [{"difficulty": "easy", "notes": [{"lane": 7, "time": 1}]}]}`: func(err error) bool {
			var e *game.ParseError
			return errors.As(err, &e)
		},
		`{"version": 1, "difficulties": [{"difficulty": "easy", "notes": [{"lane": "red", "time": 1}]}]}`: func(err error) bool {
			var e *game.ParseError
			return errors.As(err, &e)
		},
		`{"version": 1, "difficulties": [{"difficulty": "easy", "notes": [{"lane": 256, "time": 1}]}]}`: func(err error) bool {
			var e *game.ParseError
			return errors.As(err, &e)
		},
		`{"version": 1, "difficulties": [{"difficulty": "easy", "notes": [{"lane": 261, "time": 1}]}]}`: func(err error) bool {
			var e *game.ParseError
			return errors.As(err, &e)
		},
		`{"version": 1, "difficulties": [{"difficulty": "easy", "notes": [{"lane": -1, "time": 1}]}]}`: func(err error) bool {
			var e *game.ParseError
			return errors.As(err, &e)
		},
		`{"version": 1, "difficulties": [{"difficulty": "easy", "notes": [{"lane": 0, "time": -1}]}]}`: func(err error) bool {
			var e *game.ParseError
			return errors.As(err, &e)
		},
		`{"version": 1, "difficulties": [{"difficulty": "easy", "notes": [{"lane": 0, "time": 1, "duration": -0.5}]}]}`: func(err error) bool {
			var e *game.ParseError
			return errors.As(err, &e)
		},
		`{"version": 1, "difficulties": [{"difficulty": "impossible", "notes": []}]}`: func(err error) bool {
			var e *game.ParseError
			return errors.As(err, &e)
		},
		`{"version": 1, "difficulties": [{"difficulty": "easy", "notes": [{"lane": 0, "time": 2}, {"lane": 0, "time": 1}]}]}`: func(err error) bool {
			var e *game.ChartValidationError
			return errors.As(err, &e)
		},
		`{"version": 1, "difficulties": [{"difficulty": "easy", "notes": [{"lane": 0, "time": 1, "duration": 2}, {"lane": 0, "time": 2}]}]}`: func(err error) bool {
			var e *game.ChartValidationError
			return errors.As(err, &e)
		},
	}

	p := DefaultParser{}
	for in, check := range tests {
		_, err := p.Parse("song.chart", strings.NewReader(in))
		if !check(err) {
			t.Errorf("%v: unexpected error %v", in, err)
		}
	}
}
