package score

import (
	"testing"
	"time"

	"git.lost.host/meutraa/eotf/internal/input"
)

type compactTest struct {
	records []input.Record
	compact []InputsCompact
}

var compactTests = []compactTest{
	{[]input.Record{}, []InputsCompact{}},
	{
		[]input.Record{
			{Control: input.Fret0, Pressed: true, Time: 100},
			{Control: input.Strum, Pressed: true, Time: 150},
			{Control: input.Fret0, Pressed: false, Time: 200},
		},
		[]InputsCompact{
			{Control: input.Fret0, Presses: []time.Duration{100}, Releases: []time.Duration{200}},
			{Control: input.Fret1, Presses: []time.Duration{}, Releases: []time.Duration{}},
			{Control: input.Fret2, Presses: []time.Duration{}, Releases: []time.Duration{}},
			{Control: input.Fret3, Presses: []time.Duration{}, Releases: []time.Duration{}},
			{Control: input.Fret4, Presses: []time.Duration{}, Releases: []time.Duration{}},
			{Control: input.Strum, Presses: []time.Duration{150}, Releases: []time.Duration{}},
		},
	},
	{
		[]input.Record{
			{Control: input.Fret1, Pressed: true, Time: 1},
			{Control: input.Fret1, Pressed: false, Time: 2},
			{Control: input.Fret1, Pressed: true, Time: 2},
		},
		[]InputsCompact{
			{Control: input.Fret0, Presses: []time.Duration{}, Releases: []time.Duration{}},
			{Control: input.Fret1, Presses: []time.Duration{1, 2}, Releases: []time.Duration{2}},
		},
	},
}

func TestCompactInputs(t *testing.T) {
	equal := func(p, q []InputsCompact) bool {
		if len(p) != len(q) {
			return false
		}
		for i := 0; i < len(p); i++ {
			pi, qi := p[i], q[i]
			if pi.Control != qi.Control {
				return false
			}
			if len(pi.Presses) != len(qi.Presses) || len(pi.Releases) != len(qi.Releases) {
				return false
			}
			for j := 0; j < len(pi.Presses); j++ {
				if pi.Presses[j] != qi.Presses[j] {
					return false
				}
			}
			for j := 0; j < len(pi.Releases); j++ {
				if pi.Releases[j] != qi.Releases[j] {
					return false
				}
			}
		}
		return true
	}

	for _, test := range compactTests {
		out := compactInputs(test.records)
		if !equal(out, test.compact) {
			t.Log("out     ", out)
			t.Log("expected", test.compact)
			t.Fail()
		}
	}
}

func TestUncompactInputs(t *testing.T) {
	for _, test := range compactTests {
		out := uncompactInputs(test.compact)
		if len(out) != len(test.records) {
			t.Log("out     ", out)
			t.Log("expected", test.records)
			t.Fail()
			continue
		}
		for i := range out {
			if out[i] != test.records[i] {
				t.Log("out     ", out)
				t.Log("expected", test.records)
				t.Fail()
				break
			}
		}
	}
}
