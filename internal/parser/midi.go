package parser

import (
	"fmt"
	"io"
	"sort"
	"time"

	"git.lost.host/meutraa/eotf/internal/game"
	"git.lost.host/meutraa/eotf/internal/logger"
	"gitlab.com/gomidi/midi/v2/smf"
)

// MidiParser reads the notes.mid layout, one pitch bank of five keys per difficulty
type MidiParser struct{}

type bankKey struct {
	difficulty int
	lane       game.Lane
}

var noteMap = map[uint8]bankKey{
	0x60: {game.AmazingDifficulty, game.LaneGreen},
	0x61: {game.AmazingDifficulty, game.LaneRed},
	0x62: {game.AmazingDifficulty, game.LaneYellow},
	0x63: {game.AmazingDifficulty, game.LaneBlue},
	0x64: {game.AmazingDifficulty, game.LaneOrange},
	0x54: {game.MediumDifficulty, game.LaneGreen},
	0x55: {game.MediumDifficulty, game.LaneRed},
	0x56: {game.MediumDifficulty, game.LaneYellow},
	0x57: {game.MediumDifficulty, game.LaneBlue},
	0x58: {game.MediumDifficulty, game.LaneOrange},
	0x48: {game.EasyDifficulty, game.LaneGreen},
	0x49: {game.EasyDifficulty, game.LaneRed},
	0x4a: {game.EasyDifficulty, game.LaneYellow},
	0x4b: {game.EasyDifficulty, game.LaneBlue},
	0x4c: {game.EasyDifficulty, game.LaneOrange},
	0x3c: {game.SupaeasyDifficulty, game.LaneGreen},
	0x3d: {game.SupaeasyDifficulty, game.LaneRed},
	0x3e: {game.SupaeasyDifficulty, game.LaneYellow},
	0x3f: {game.SupaeasyDifficulty, game.LaneBlue},
	0x40: {game.SupaeasyDifficulty, game.LaneOrange},
}

// specialVelocity marks a star power note
const specialVelocity = 127

type heldKey struct {
	track   int
	channel uint8
	key     uint8
}

type held struct {
	tick     int64
	velocity uint8
}

func (p *MidiParser) Parse(name string, r io.Reader) (charts []*game.Chart, err error) {
	// The decoder panics on some truncated files
	defer func() {
		if rec := recover(); rec != nil {
			charts, err = nil, &game.ParseError{Source: name, Detail: fmt.Sprint(rec)}
		}
	}()

	s, err := smf.ReadFrom(r)
	if nil != err {
		return nil, &game.ParseError{Source: name, Err: err}
	}
	ticks, ok := s.TimeFormat.(smf.MetricTicks)
	if !ok {
		return nil, &game.UnsupportedFormatError{Source: name, Format: "smpte midi"}
	}
	resolution := int64(ticks)
	at := func(tick int64) time.Duration {
		return time.Duration(s.TimeAt(tick)) * time.Microsecond
	}

	notes := map[int][]game.Note{}
	tempos := []game.Tempo{}
	meters := []game.Meter{}

	for ti, track := range s.Tracks {
		open := map[heldKey]held{}
		var tick int64
		for _, ev := range track {
			tick += int64(ev.Delta)

			var bpm float64
			var num, denom uint8
			var channel, key, velocity uint8
			switch {
			case ev.Message.GetMetaTempo(&bpm):
				tempos = append(tempos, game.Tempo{Time: at(tick), BPM: bpm})
				continue
			case ev.Message.GetMetaMeter(&num, &denom):
				meters = append(meters, game.Meter{Time: at(tick), Numerator: num, Denominator: denom})
				continue
			}

			// Only the first two tracks carry the guitar part
			if ti > 1 {
				continue
			}

			off := false
			switch {
			case ev.Message.GetNoteOn(&channel, &key, &velocity):
				off = velocity == 0
			case ev.Message.GetNoteOff(&channel, &key, &velocity):
				off = true
			default:
				continue
			}

			hk := heldKey{track: ti, channel: channel, key: key}
			if !off {
				if _, ok := open[hk]; ok {
					return nil, &game.ParseError{Source: name, Detail: fmt.Sprintf("note 0x%x at tick %d started twice", key, tick)}
				}
				open[hk] = held{tick: tick, velocity: velocity}
				continue
			}

			start, ok := open[hk]
			if !ok {
				logger.Debug("midi note ended without start", logger.Int("key", int(key)), logger.Int("tick", int(tick)))
				continue
			}
			delete(open, hk)

			bank, ok := noteMap[key]
			if !ok {
				continue
			}
			note := game.Note{
				Lane:    bank.lane,
				Time:    at(start.tick),
				Special: start.velocity == specialVelocity,
			}
			// Anything shorter than half a beat is a tap
			if tick-start.tick >= resolution/2 {
				note.Duration = at(tick) - note.Time
			}
			notes[bank.difficulty] = append(notes[bank.difficulty], note)
		}

		for hk, h := range open {
			if _, ok := noteMap[hk.key]; ok {
				return nil, &game.ParseError{Source: name, Detail: fmt.Sprintf("note 0x%x at tick %d never ends", hk.key, h.tick)}
			}
		}
	}

	sort.SliceStable(tempos, func(i, j int) bool { return tempos[i].Time < tempos[j].Time })
	sort.SliceStable(meters, func(i, j int) bool { return meters[i].Time < meters[j].Time })

	// Easiest first, Supaeasy has the highest id
	ids := make([]int, 0, len(notes))
	for id := range notes {
		ids = append(ids, id)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(ids)))

	for _, id := range ids {
		ns := notes[id]
		sort.SliceStable(ns, func(i, j int) bool {
			if ns[i].Time != ns[j].Time {
				return ns[i].Time < ns[j].Time
			}
			return ns[i].Lane < ns[j].Lane
		})
		chart, err := game.NewChart(chartName(name), game.Difficulties[id], ns, tempos, meters)
		if nil != err {
			return nil, err
		}
		charts = append(charts, chart)
	}
	return charts, nil
}
