package game

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"sort"
	"time"
)

type Chart struct {
	Name       string
	Difficulty Difficulty
	Notes      []Note
	Tempos     []Tempo
	Meters     []Meter

	NoteCount int // Chords count once
	HoldCount int
	StarCount int
	Sum       string // Content hash of the notes
}

// NewChart assigns ids and chord flags, then validates the notes
// The slice is kept, callers must not modify it afterwards
func NewChart(name string, difficulty Difficulty, notes []Note, tempos []Tempo, meters []Meter) (*Chart, error) {
	c := &Chart{
		Name:       name,
		Difficulty: difficulty,
		Notes:      notes,
		Tempos:     tempos,
		Meters:     meters,
	}
	for i := range c.Notes {
		c.Notes[i].ID = i
		c.Notes[i].IsChord = false
	}
	for i := 0; i < len(c.Notes); {
		j := i + 1
		for j < len(c.Notes) && c.Notes[j].Time == c.Notes[i].Time {
			j++
		}
		if j-i > 1 {
			for k := i; k < j; k++ {
				c.Notes[k].IsChord = true
			}
		}

		c.NoteCount++
		i = j
	}
	for i := range c.Notes {
		n := &c.Notes[i]
		if n.Sustained() {
			c.HoldCount++
		}
		if n.Special {
			c.StarCount++
		}
	}
	if err := c.Validate(); nil != err {
		return nil, err
	}
	c.Sum = c.hash()
	return c, nil
}

// Validate checks ordering and overlap of the notes
func (c *Chart) Validate() error {
	// The end time of the last note seen in each lane, open included
	var last [LaneOpen + 1]time.Duration
	var seen [LaneOpen + 1]bool

	for i := range c.Notes {
		n := &c.Notes[i]
		if n.ID != i {
			return &ChartValidationError{NoteID: i, Reason: "note id does not match its position"}
		}
		if !n.Lane.Valid() {
			return &ChartValidationError{NoteID: i, Reason: "unknown lane"}
		}
		if n.Time < 0 {
			return &ChartValidationError{NoteID: i, Reason: "negative start time"}
		}
		if n.Duration < 0 {
			return &ChartValidationError{NoteID: i, Reason: "negative duration"}
		}
		if i > 0 {
			p := &c.Notes[i-1]
			if n.Time < p.Time {
				return &ChartValidationError{NoteID: i, Reason: "notes are not in time order"}
			}
			if n.Time == p.Time {
				if n.Lane <= p.Lane {
					return &ChartValidationError{NoteID: i, Reason: "chord lanes are not in ascending order"}
				}
				if n.Lane == LaneOpen || p.Lane == LaneOpen {
					return &ChartValidationError{NoteID: i, Reason: "open note inside a chord"}
				}
			}
		}
		if seen[n.Lane] && n.Time < last[n.Lane] {
			return &ChartValidationError{NoteID: i, Reason: "overlaps the previous note in lane " + n.Lane.String()}
		}
		seen[n.Lane] = true
		last[n.Lane] = n.End()
		if !n.Sustained() {
			// A tap still occupies its instant
			last[n.Lane] = n.Time + 1
		}
	}
	return nil
}

// NotesInWindow returns the notes starting within [t0, t1]
// The result shares memory with the chart and must not be modified
func (c *Chart) NotesInWindow(t0, t1 time.Duration) []Note {
	if t1 < t0 {
		return nil
	}
	start := sort.Search(len(c.Notes), func(i int) bool {
		return c.Notes[i].Time >= t0
	})
	end := start + sort.Search(len(c.Notes)-start, func(i int) bool {
		return c.Notes[start+i].Time > t1
	})
	return c.Notes[start:end:end]
}

// Group returns the notes sharing the time of the note with the given id
func (c *Chart) Group(id int) []Note {
	t := c.Notes[id].Time
	start, end := id, id+1
	for start > 0 && c.Notes[start-1].Time == t {
		start--
	}
	for end < len(c.Notes) && c.Notes[end].Time == t {
		end++
	}
	return c.Notes[start:end:end]
}

// Length is the time the last note ends
func (c *Chart) Length() time.Duration {
	var l time.Duration
	for i := range c.Notes {
		if e := c.Notes[i].End(); e > l {
			l = e
		}
	}
	return l
}

// BPM returns the tempo in effect at the start of the chart
func (c *Chart) BPM() float64 {
	if len(c.Tempos) == 0 {
		return 120
	}
	return c.Tempos[0].BPM
}

func (c *Chart) hash() string {
	h := sha256.New()
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, uint64(c.Difficulty.ID))
	h.Write(buf)
	for i := range c.Notes {
		n := &c.Notes[i]
		h.Write([]byte{byte(n.Lane)})
		binary.LittleEndian.PutUint64(buf, uint64(n.Time))
		h.Write(buf)
		binary.LittleEndian.PutUint64(buf, uint64(n.Duration))
		h.Write(buf)
	}
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}
