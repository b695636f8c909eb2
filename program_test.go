package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"git.lost.host/meutraa/eotf/internal/config"
	"git.lost.host/meutraa/eotf/internal/input"
	"git.lost.host/meutraa/eotf/internal/score"
	"git.lost.host/meutraa/eotf/internal/testdata"
)

func TestReplayLastSession(t *testing.T) {
	chart, err := testdata.GetChart()
	if nil != err {
		t.Fatal(err)
	}
	store, err := score.OpenStore(filepath.Join(t.TempDir(), "scores.db"))
	if nil != err {
		t.Fatal(err)
	}
	p := &Program{Config: config.Default(), chart: chart, store: store}
	defer p.Close()

	var out bytes.Buffer
	if err := p.Replay(&out); nil == err {
		t.Fatal("expected an error without stored sessions")
	}

	// Only the first note is hit, everything else is missed
	h := score.History{
		ID:         "last",
		Sum:        chart.Sum,
		Difficulty: chart.Difficulty.Name,
		Played:     time.Unix(5000, 0),
		Score:      score.State{TotalScore: 999},
		Records: []input.Record{
			{Control: input.Fret0, Pressed: true, Time: 990 * time.Millisecond},
			{Control: input.Strum, Pressed: true, Time: time.Second},
			{Control: input.Fret0, Pressed: false, Time: 1100 * time.Millisecond},
		},
	}
	if err := store.Save(chart, h); nil != err {
		t.Fatal(err)
	}

	out.Reset()
	if err := p.Replay(&out); nil != err {
		t.Fatal(err)
	}
	for _, want := range []string{"Replay of last", "Score: 50", "Stored score was 999"} {
		if !strings.Contains(out.String(), want) {
			t.Log(out.String())
			t.Errorf("missing %q", want)
		}
	}
}
