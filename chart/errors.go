package chart

import (
	"errors"
	"fmt"
)

var (
	ErrOddLength        = errors.New("grid value has odd length")
	ErrBadToken         = errors.New("invalid token")
	ErrBadValue         = errors.New("invalid value")
	ErrUndeclaredTempo  = errors.New("undeclared tempo id")
	ErrUndeclaredStop   = errors.New("undeclared stop id")
	ErrLongNoteDisabled = errors.New("long note lane used without #LNTYPE 1")
)

// FormatError reports a chart line that was recognized but could not be
// read. Line is 1-based; zero when the chart was fed line by line without
// numbering.
type FormatError struct {
	Line      int
	Directive string
	Err       error
}

func (e *FormatError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s: %v", e.Line, e.Directive, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Directive, e.Err)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

// LoadError means the chart file itself could not be read, as opposed to a
// readable file that holds a malformed chart.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("loading %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}
