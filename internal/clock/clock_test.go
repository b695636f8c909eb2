package clock

import (
	"errors"
	"testing"
	"time"
)

type fakeWall struct {
	t time.Time
}

func (w *fakeWall) now() time.Time {
	return w.t
}

func (w *fakeWall) advance(d time.Duration) {
	w.t = w.t.Add(d)
}

type fakeTrack struct {
	openErr error
	playErr error
	playing bool
	paused  bool
	pos     time.Duration
	ok      bool
	seeked  time.Duration
}

func (f *fakeTrack) Open() error { return f.openErr }

func (f *fakeTrack) Play() error {
	if nil != f.playErr {
		return f.playErr
	}
	f.playing = true
	return nil
}

func (f *fakeTrack) Pause()  { f.paused = true }
func (f *fakeTrack) Resume() { f.paused = false }

func (f *fakeTrack) Seek(d time.Duration) error {
	f.seeked = d
	return nil
}

func (f *fakeTrack) PlaybackPosition() (time.Duration, bool) {
	return f.pos, f.ok
}

func newClock() (*Clock, *fakeWall) {
	w := &fakeWall{t: time.Unix(1000, 0)}
	return New(Options{Now: w.now}), w
}

func TestLeadIn(t *testing.T) {
	c, w := newClock()
	track := &fakeTrack{}
	if capability := c.Start(track, -time.Second); capability.Degraded {
		t.Fatal("unexpected downgrade", capability.Reason)
	}
	if s := c.Tick(); s.Time != -time.Second {
		t.Fatal("expected the lead in, got", s.Time)
	}
	w.advance(600 * time.Millisecond)
	if s := c.Tick(); s.Time != -400*time.Millisecond || track.playing {
		t.Fatal("unexpected pre roll state", s.Time, track.playing)
	}
	w.advance(500 * time.Millisecond)
	if s := c.Tick(); s.Time != 100*time.Millisecond || !track.playing {
		t.Fatal("expected playback to start", s.Time, track.playing)
	}
}

func TestExtrapolateAndResync(t *testing.T) {
	c, w := newClock()
	track := &fakeTrack{}
	c.Start(track, 0)

	track.pos, track.ok = time.Second, true
	if s := c.Tick(); s.Time != time.Second || s.Stale {
		t.Fatal("expected the device position", s)
	}

	// No report, extrapolate from the last one
	track.ok = false
	w.advance(10 * time.Millisecond)
	if s := c.Tick(); s.Time != time.Second+10*time.Millisecond || !s.Stale {
		t.Fatal("expected extrapolation", s)
	}

	// An unchanged report is stale too
	track.ok = true
	w.advance(10 * time.Millisecond)
	if s := c.Tick(); s.Time != time.Second+20*time.Millisecond || !s.Stale {
		t.Fatal("expected extrapolation on a repeated report", s)
	}

	// A fresh report ahead of the extrapolation wins
	track.pos = time.Second + 40*time.Millisecond
	w.advance(10 * time.Millisecond)
	if s := c.Tick(); s.Time != time.Second+40*time.Millisecond || s.Stale {
		t.Fatal("expected resync", s)
	}

	// A report behind the clock never moves it backwards
	track.pos = time.Second + 35*time.Millisecond
	w.advance(time.Millisecond)
	if s := c.Tick(); s.Time != time.Second+40*time.Millisecond {
		t.Fatal("clock went backwards", s)
	}
}

func TestOffset(t *testing.T) {
	w := &fakeWall{t: time.Unix(1000, 0)}
	c := New(Options{Now: w.now, Offset: 30 * time.Millisecond})
	track := &fakeTrack{pos: time.Second, ok: true}
	c.Start(track, 0)
	if s := c.Tick(); s.Time != 970*time.Millisecond {
		t.Fatal("offset not applied", s.Time)
	}
}

func TestPauseFreezes(t *testing.T) {
	c, w := newClock()
	track := &fakeTrack{}
	c.Start(track, 0)

	w.advance(100 * time.Millisecond)
	c.Tick()
	c.Pause()
	if !track.paused {
		t.Fatal("track not paused")
	}
	w.advance(5 * time.Second)
	s := c.Tick()
	if s.Time != 100*time.Millisecond || !s.Paused || s.Judging() {
		t.Fatal("clock moved while paused", s)
	}

	c.Resume()
	w.advance(50 * time.Millisecond)
	if s := c.Tick(); s.Time != 150*time.Millisecond || s.Paused {
		t.Fatal("pause time was counted", s)
	}
}

func TestDegraded(t *testing.T) {
	c, w := newClock()
	capability := c.Start(&fakeTrack{openErr: errors.New("no device")}, 0)
	if !capability.Degraded || capability.Reason == nil {
		t.Fatal("expected a downgrade")
	}
	w.advance(time.Second)
	s := c.Tick()
	if !s.Degraded || s.Time != time.Second {
		t.Fatal("expected wall clock time", s)
	}

	c, w = newClock()
	if capability := c.Start(nil, 0); !capability.Degraded {
		t.Fatal("expected a downgrade without a track")
	}

	// Failing playback degrades at the start of audio
	c, w = newClock()
	c.Start(&fakeTrack{playErr: errors.New("busy")}, -10*time.Millisecond)
	w.advance(20 * time.Millisecond)
	if s := c.Tick(); !s.Degraded || s.Time != 10*time.Millisecond {
		t.Fatal("expected a downgrade at playback", s)
	}
}

func TestAt(t *testing.T) {
	c, w := newClock()
	c.Start(nil, 0)
	w.advance(time.Second)
	c.Tick()
	if at := c.At(w.t.Add(-30 * time.Millisecond)); at != 970*time.Millisecond {
		t.Fatal("unexpected mapping", at)
	}
	if at := c.At(w.t.Add(30 * time.Millisecond)); at != time.Second {
		t.Fatal("future instants map to the tick", at)
	}
}

func TestSeekGuard(t *testing.T) {
	c, _ := newClock()
	if err := c.Seek(time.Second); !errors.Is(err, ErrNotStarted) {
		t.Fatal("expected not started", err)
	}
	track := &fakeTrack{}
	c.Start(track, -time.Second)
	if err := c.Seek(2 * time.Second); nil != err {
		t.Fatal(err)
	}
	if track.seeked != 2*time.Second || !track.playing || c.State().Time != 2*time.Second {
		t.Fatal("seek not applied", track.seeked, track.playing)
	}
	c.Guard()
	if err := c.Seek(0); !errors.Is(err, ErrSeekGuarded) {
		t.Fatal("expected the guard", err)
	}
}
