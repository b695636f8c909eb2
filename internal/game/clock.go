package game

import "time"

// ClockState is a snapshot of the audio clock, taken once per tick
type ClockState struct {
	Time     time.Duration // Chart time, negative during the lead in
	Playing  bool
	Paused   bool
	Degraded bool      // Wall clock only, no audio position available
	Stale    bool      // Time was extrapolated this tick
	Sampled  time.Time // Wall instant the snapshot was taken
}

// Judging reports whether notes may be judged against this snapshot
func (s ClockState) Judging() bool {
	return s.Playing && !s.Paused
}
