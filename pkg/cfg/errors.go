package cfg

import (
	"errors"
	"fmt"
)

// ErrInvalidGraph is wrapped by every invariant violation: the input graph
// is cyclic, a head does not dominate its tail, or a cut is degenerate.
var ErrInvalidGraph = errors.New("invalid input graph")

// Sentinel causes carried by ParseError.
var (
	ErrMalformedRecord = errors.New("malformed record")
	ErrUnknownLabel    = errors.New("unknown label")
	ErrUnknownBlock    = errors.New("unknown block variable")
)

// InvariantError reports a violation of the acyclicity or dominance contract.
type InvariantError struct {
	Msg string
}

func (e *InvariantError) Error() string {
	return ErrInvalidGraph.Error() + ": " + e.Msg
}

func (e *InvariantError) Unwrap() error {
	return ErrInvalidGraph
}

func invariantf(format string, args ...any) error {
	return &InvariantError{Msg: fmt.Sprintf(format, args...)}
}

// ParseError reports malformed textual input together with the offending
// fragment.
type ParseError struct {
	Source   string // "cfg", "matching", "cuts" or "labels"
	Line     int    // 1-based line for line-oriented inputs, 0 otherwise
	Fragment string
	Err      error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("parse %s line %d: %v: %q", e.Source, e.Line, e.Err, e.Fragment)
	}
	return fmt.Sprintf("parse %s: %v: %q", e.Source, e.Err, e.Fragment)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
