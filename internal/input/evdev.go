//go:build linux

package input

import (
	"encoding/binary"
	"os"
	"sync"
	"syscall"
	"time"

	"git.lost.host/meutraa/eotf/internal/logger"
)

// Linux input event codes, see include/uapi/linux/input-event-codes.h
const (
	evKey = 0x01

	KeyEnter      = 28
	KeyRightShift = 54
	KeySpace      = 57
	KeyF1         = 59
	KeyF2         = 60
	KeyF3         = 61
	KeyF4         = 62
	KeyF5         = 63
	KeyEsc        = 1
	KeyQ          = 16
	KeyBackspace  = 14
)

type keyEvent struct {
	Time  syscall.Timeval
	Type  uint16
	Code  uint16
	Value int32
}

// DefaultEvdevKeys maps F1-F5 to the frets and Enter or Right Shift to the pick
var DefaultEvdevKeys = map[uint16]Control{
	KeyF1:         Fret0,
	KeyF2:         Fret1,
	KeyF3:         Fret2,
	KeyF4:         Fret3,
	KeyF5:         Fret4,
	KeyEnter:      Strum,
	KeyRightShift: Strum,
	KeySpace:      StarPower,
	KeyEsc:        Pause,
	KeyQ:          Quit,
}

// EvdevSource reads a keyboard device node, kernel timestamps become edge times
type EvdevSource struct {
	file    *os.File
	keys    map[uint16]Control
	edges   chan Edge
	pending []Edge
	state   Keys

	mu  sync.Mutex
	err error
}

func OpenEvdev(device string, keys map[uint16]Control) (*EvdevSource, error) {
	file, err := os.Open(device)
	if nil != err {
		return nil, err
	}
	if keys == nil {
		keys = DefaultEvdevKeys
	}
	s := &EvdevSource{
		file:  file,
		keys:  keys,
		edges: make(chan Edge, 256),
	}
	go s.read()
	return s, nil
}

func (s *EvdevSource) read() {
	var ev keyEvent
	for {
		if err := binary.Read(s.file, binary.LittleEndian, &ev); nil != err {
			logger.Warn("unable to read keyboard input", logger.Err(err))
			s.mu.Lock()
			s.err = err
			s.mu.Unlock()
			close(s.edges)
			return
		}
		// Value 2 is autorepeat
		if ev.Type != evKey || ev.Value > 1 {
			continue
		}
		c, ok := s.keys[ev.Code]
		if !ok {
			continue
		}
		s.edges <- Edge{
			Control: c,
			Pressed: ev.Value == 1,
			Wall:    time.Unix(int64(ev.Time.Sec), int64(ev.Time.Usec)*1000),
		}
	}
}

func (s *EvdevSource) Drain(until time.Time) ([]Edge, error) {
	closed := false
	for !closed {
		select {
		case e, ok := <-s.edges:
			if !ok {
				closed = true
				break
			}
			s.pending = append(s.pending, e)
		default:
			closed = true
		}
	}

	out := []Edge{}
	keep := s.pending[:0]
	for _, e := range s.pending {
		if e.Wall.After(until) {
			keep = append(keep, e)
			continue
		}
		s.state[e.Control] = e.Pressed
		out = append(out, e)
	}
	s.pending = keep

	s.mu.Lock()
	err := s.err
	s.mu.Unlock()
	if nil != err && len(out) == 0 {
		return nil, err
	}
	return out, nil
}

func (s *EvdevSource) Poll() (Keys, error) {
	return s.state, nil
}

func (s *EvdevSource) Close() error {
	return s.file.Close()
}
