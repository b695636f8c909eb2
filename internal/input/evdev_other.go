//go:build !linux

package input

import (
	"errors"
	"time"
)

var DefaultEvdevKeys = map[uint16]Control{}

var errNoEvdev = errors.New("evdev devices are only available on linux")

type EvdevSource struct{}

func OpenEvdev(device string, keys map[uint16]Control) (*EvdevSource, error) {
	return nil, errNoEvdev
}

func (s *EvdevSource) Drain(until time.Time) ([]Edge, error) {
	return nil, errNoEvdev
}

func (s *EvdevSource) Poll() (Keys, error) {
	return Keys{}, errNoEvdev
}

func (s *EvdevSource) Close() error {
	return nil
}
