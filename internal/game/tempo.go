package game

import (
	"time"
)

// Tempo and Meter markers are carried for display, judgment only uses note times

type Tempo struct {
	Time time.Duration
	BPM  float64
}

type Meter struct {
	Time        time.Duration
	Numerator   uint8
	Denominator uint8
}
