package score

import (
	"path/filepath"
	"testing"
	"time"

	"git.lost.host/meutraa/eotf/internal/input"
)

func TestStoreRoundTrip(t *testing.T) {
	s, err := OpenStore(filepath.Join(t.TempDir(), "scores.db"))
	if nil != err {
		t.Fatal(err)
	}
	defer s.Close()

	c := taps(t, 3)
	other := taps(t, 4)
	played := time.Unix(1600000000, 0)

	records := []input.Record{
		{Control: input.Fret0, Pressed: true, Time: 50 * ms},
		{Control: input.Strum, Pressed: true, Time: 100 * ms},
		{Control: input.Fret0, Pressed: false, Time: 120 * ms},
	}
	sessions := []History{
		{ID: "a", Played: played, Score: State{TotalScore: 150, MaxCombo: 3}, Records: records},
		{ID: "b", Played: played.Add(time.Hour), Score: State{TotalScore: 900, IsFailed: true}},
		{ID: "c", Played: played.Add(2 * time.Hour), Score: State{TotalScore: 100}},
	}
	for _, h := range sessions {
		if err := s.Save(c, h); nil != err {
			t.Fatal(err)
		}
	}

	histories, err := s.Load(c)
	if nil != err {
		t.Fatal(err)
	}
	if len(histories) != 3 || histories[0].ID != "a" || histories[2].ID != "c" {
		t.Fatal("unexpected histories", histories)
	}
	h := histories[0]
	if h.Sum != c.Sum || h.Score.MaxCombo != 3 || !h.Played.Equal(played) {
		t.Fatal("unexpected history", h)
	}
	if len(h.Records) != len(records) {
		t.Fatal("records", h.Records)
	}
	for i := range records {
		if h.Records[i] != records[i] {
			t.Errorf("record %v: got %v, want %v", i, h.Records[i], records[i])
		}
	}

	best, err := s.Best(c)
	if nil != err || best != 150 {
		t.Fatal("best should skip failed sessions", best, err)
	}
	best, err = s.Best(other)
	if nil != err || best != 0 {
		t.Fatal("expected no best for an unplayed chart", best, err)
	}
	if hs, _ := s.Load(other); len(hs) != 0 {
		t.Fatal("histories leaked across charts", hs)
	}
}
