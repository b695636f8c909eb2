package game

import (
	"fmt"
)

// ParseError is returned when a chart has malformed timing or lane fields
type ParseError struct {
	Source string
	Detail string
	Err    error
}

func (e *ParseError) Error() string {
	msg := "unable to parse chart"
	if e.Source != "" {
		msg += " " + e.Source
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if nil != e.Err {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// UnsupportedFormatError is returned for an unknown chart encoding or version
type UnsupportedFormatError struct {
	Source string
	Format string
}

func (e *UnsupportedFormatError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("unsupported chart format %q", e.Format)
	}
	return fmt.Sprintf("unsupported chart format %q in %v", e.Format, e.Source)
}

// ChartValidationError is returned when decoded notes break the chart invariants
type ChartValidationError struct {
	NoteID int
	Reason string
}

func (e *ChartValidationError) Error() string {
	return fmt.Sprintf("invalid chart at note %d: %v", e.NoteID, e.Reason)
}
