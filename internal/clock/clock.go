package clock

import (
	"errors"
	"time"

	"git.lost.host/meutraa/eotf/internal/game"
	"git.lost.host/meutraa/eotf/internal/logger"
)

// Track is a playing audio stream the clock follows
type Track interface {
	Open() error
	Play() error
	Pause()
	Resume()
	Seek(d time.Duration) error

	// PlaybackPosition returns the audible position, ok is false when
	// the device cannot report this cycle
	PlaybackPosition() (time.Duration, bool)
}

// ErrSeekGuarded is returned when seeking during a judged session
var ErrSeekGuarded = errors.New("seek is not allowed during a judged session")

// ErrNotStarted is returned by calls that need a started clock
var ErrNotStarted = errors.New("clock has not been started")

// Capability is reported by Start, a degraded clock still runs on wall time
type Capability struct {
	Degraded bool
	Reason   error
}

type Options struct {
	Now    func() time.Time // Wall clock, time.Now when nil
	Offset time.Duration    // Audio latency, subtracted from device positions
}

type Clock struct {
	now    func() time.Time
	offset time.Duration
	track  Track

	state   game.ClockState
	started bool
	audio   bool // The track is playing, as opposed to the lead in
	guarded bool
	wall    time.Time // Wall instant of the last tick

	reported   bool
	report     time.Duration // Last device position, offset applied
	reportWall time.Time
}

func New(opts Options) *Clock {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Clock{now: now, offset: opts.Offset}
}

// Start resets the clock to the lead in and arms playback, which begins
// when the clock passes zero. A negative lead in lets notes scroll in first.
func (c *Clock) Start(track Track, leadIn time.Duration) Capability {
	c.track = track
	c.started = true
	c.audio = false
	c.reported = false
	c.wall = c.now()
	c.state = game.ClockState{
		Time:    leadIn,
		Playing: true,
		Sampled: c.wall,
	}

	var capability Capability
	if track == nil {
		capability = c.degrade(errors.New("no audio track"))
	} else if err := track.Open(); nil != err {
		capability = c.degrade(err)
	}
	if c.state.Time >= 0 {
		c.play()
	}
	return capability
}

func (c *Clock) degrade(reason error) Capability {
	if !c.state.Degraded {
		logger.Warn("audio clock degraded to wall clock", logger.Err(reason))
	}
	c.state.Degraded = true
	c.track = nil
	return Capability{Degraded: true, Reason: reason}
}

func (c *Clock) play() {
	c.audio = true
	if c.track == nil {
		return
	}
	if err := c.track.Play(); nil != err {
		c.degrade(err)
	}
}

// Tick samples the playback position once and returns the snapshot for this frame
func (c *Clock) Tick() game.ClockState {
	now := c.now()
	if !c.started || c.state.Paused {
		c.wall = now
		c.state.Sampled = now
		return c.state
	}

	elapsed := now.Sub(c.wall)
	t := c.state.Time + elapsed
	stale := false

	switch {
	case !c.audio:
		// Lead in runs on wall time, playback starts at zero
		if t >= 0 {
			c.play()
		}
	case c.track == nil:
		// Degraded, wall time only
	default:
		pos, ok := c.track.PlaybackPosition()
		pos -= c.offset
		// An unchanged position is a device that has not reported since
		if ok && !(c.reported && pos == c.report) {
			c.reported = true
			c.report = pos
			c.reportWall = now
			t = pos
		} else if c.reported {
			t = c.report + now.Sub(c.reportWall)
			stale = true
		} else {
			stale = true
		}
	}

	if t < c.state.Time {
		t = c.state.Time
	}

	c.wall = now
	c.state.Time = t
	c.state.Stale = stale
	c.state.Sampled = now
	return c.state
}

// State returns the snapshot of the last tick without sampling
func (c *Clock) State() game.ClockState {
	return c.state
}

// At maps a wall instant to the clock domain of the last tick
// Instants after the last tick map to the tick time
func (c *Clock) At(wall time.Time) time.Duration {
	if !c.started || c.state.Paused || !wall.Before(c.wall) {
		return c.state.Time
	}
	return c.state.Time - c.wall.Sub(wall)
}

// Pause freezes the clock, nothing is judged until Resume
func (c *Clock) Pause() {
	if !c.started || c.state.Paused {
		return
	}
	c.state.Paused = true
	if c.audio && c.track != nil {
		c.track.Pause()
	}
}

func (c *Clock) Resume() {
	if !c.started || !c.state.Paused {
		return
	}
	now := c.now()
	c.state.Paused = false
	c.wall = now
	c.reported = false
	if c.audio && c.track != nil {
		c.track.Resume()
	}
}

// Guard forbids Seek, called when judging begins
func (c *Clock) Guard() {
	c.guarded = true
}

// Seek moves playback for practice and editing
func (c *Clock) Seek(t time.Duration) error {
	if c.guarded {
		return ErrSeekGuarded
	}
	if !c.started {
		return ErrNotStarted
	}
	if c.track != nil {
		target := t + c.offset
		if target < 0 {
			target = 0
		}
		if err := c.track.Seek(target); nil != err {
			return err
		}
	}
	c.state.Time = t
	c.wall = c.now()
	c.reported = false
	if t >= 0 && !c.audio {
		c.play()
	}
	return nil
}
