package game

import (
	"errors"
	"math/rand"
	"testing"
	"time"
)

func randomChart(t *testing.T, r *rand.Rand, count int) *Chart {
	notes := []Note{}
	at := time.Duration(0)
	for len(notes) < count {
		at += time.Duration(r.Intn(400)+1) * time.Millisecond
		size := 1
		if r.Intn(4) == 0 {
			size = 2 + r.Intn(2)
		}
		lane := Lane(r.Intn(FretLanes - size + 1))
		for i := 0; i < size; i++ {
			notes = append(notes, Note{Lane: lane + Lane(i), Time: at})
		}
	}
	c, err := NewChart("random", Difficulties[AmazingDifficulty], notes, nil, nil)
	if nil != err {
		t.Fatal("unable to build chart", err)
	}
	return c
}

func linearWindow(c *Chart, t0, t1 time.Duration) []Note {
	out := []Note{}
	for _, n := range c.Notes {
		if n.Time >= t0 && n.Time <= t1 {
			out = append(out, n)
		}
	}
	return out
}

func TestNotesInWindowMatchesScan(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for _, count := range []int{0, 1, 2, 17, 300} {
		c := randomChart(t, r, count)
		length := c.Length() + time.Second
		windows := [][2]time.Duration{
			{0, 0},
			{-time.Second, length},
			{length, length + time.Second},
			{time.Second, 0},
		}
		for i := 0; i < 200; i++ {
			t0 := time.Duration(r.Int63n(int64(length)+1)) - 100*time.Millisecond
			t1 := t0 + time.Duration(r.Int63n(int64(time.Second)))
			windows = append(windows, [2]time.Duration{t0, t1})
		}
		// Exact note times probe the inclusive bounds
		for _, n := range c.Notes {
			windows = append(windows, [2]time.Duration{n.Time, n.Time})
		}

		for _, w := range windows {
			got := c.NotesInWindow(w[0], w[1])
			want := linearWindow(c, w[0], w[1])
			if len(got) != len(want) {
				t.Fatalf("window %v-%v: got %v notes, want %v", w[0], w[1], len(got), len(want))
			}
			for j := range got {
				if got[j].ID != want[j].ID {
					t.Fatalf("window %v-%v: note %v is %v, want %v", w[0], w[1], j, got[j].ID, want[j].ID)
				}
			}
		}
	}
}

func TestNotesInWindowSharesChart(t *testing.T) {
	c, err := NewChart("", Difficulties[EasyDifficulty], []Note{
		{Lane: LaneGreen, Time: time.Second},
		{Lane: LaneRed, Time: 2 * time.Second},
	}, nil, nil)
	if nil != err {
		t.Fatal(err)
	}
	w := c.NotesInWindow(0, time.Second)
	if len(w) != 1 || &w[0] != &c.Notes[0] {
		t.Fatal("expected the window to reference chart storage")
	}
	if cap(w) != len(w) {
		t.Fatal("window capacity allows appends into the chart")
	}
}

func TestChordFlags(t *testing.T) {
	c, err := NewChart("", Difficulties[EasyDifficulty], []Note{
		{Lane: LaneGreen, Time: time.Second},
		{Lane: LaneYellow, Time: time.Second},
		{Lane: LaneRed, Time: 2 * time.Second},
	}, nil, nil)
	if nil != err {
		t.Fatal(err)
	}
	if !c.Notes[0].IsChord || !c.Notes[1].IsChord || c.Notes[2].IsChord {
		t.Log(c.Notes)
		t.Fail()
	}
	if c.NoteCount != 2 {
		t.Log("note count", c.NoteCount)
		t.Fail()
	}
	if g := c.Group(1); len(g) != 2 || g[0].ID != 0 {
		t.Log("group", g)
		t.Fail()
	}
}

func TestValidate(t *testing.T) {
	s := time.Second
	tests := map[string][]Note{
		"out of order":  {{Lane: LaneGreen, Time: 2 * s}, {Lane: LaneRed, Time: s}},
		"overlap":       {{Lane: LaneGreen, Time: s, Duration: s}, {Lane: LaneGreen, Time: s + s/2}},
		"duplicate":     {{Lane: LaneGreen, Time: s}, {Lane: LaneGreen, Time: s}},
		"chord order":   {{Lane: LaneRed, Time: s}, {Lane: LaneGreen, Time: s}},
		"open in chord": {{Lane: LaneGreen, Time: s}, {Lane: LaneOpen, Time: s}},
		"negative time": {{Lane: LaneGreen, Time: -s}},
		"negative hold": {{Lane: LaneGreen, Time: s, Duration: -s}},
		"bad lane":      {{Lane: Lane(9), Time: s}},
	}
	for name, notes := range tests {
		_, err := NewChart(name, Difficulties[EasyDifficulty], notes, nil, nil)
		var verr *ChartValidationError
		if !errors.As(err, &verr) {
			t.Errorf("%v: expected a validation error, got %v", name, err)
		}
	}

	// Touching sustains are fine
	_, err := NewChart("", Difficulties[EasyDifficulty], []Note{
		{Lane: LaneGreen, Time: s, Duration: s},
		{Lane: LaneGreen, Time: 2 * s},
	}, nil, nil)
	if nil != err {
		t.Error("unexpected error", err)
	}
}

func TestMaskHighest(t *testing.T) {
	if _, ok := LaneMask(0).Highest(); ok {
		t.Fail()
	}
	if l, ok := MaskOf(LaneGreen, LaneBlue).Highest(); !ok || l != LaneBlue {
		t.Fail()
	}
	if MaskOf(LaneOpen) != 0 {
		t.Fail()
	}
}

func TestWindowForTempo(t *testing.T) {
	w := WindowForTempo(120)
	// 500ms beat
	beat := float64(500 * time.Millisecond)
	if w.Hit != time.Duration(beat/3.5) || w.SustainReleaseGrace != 250*time.Millisecond {
		t.Log(w)
		t.Fail()
	}
}
