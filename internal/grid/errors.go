package grid

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedHeader is matched by every *MalformedHeaderError.
	ErrMalformedHeader = errors.New("grid: malformed header")
	// ErrMalformedBody is matched by every *MalformedBodyError.
	ErrMalformedBody = errors.New("grid: malformed body")
)

// MalformedHeaderError reports a header line or value that doesn't follow the
// six line `key value` layout.
type MalformedHeaderError struct {
	Line   int // 1-based line number, 0 if not tied to a line
	Key    string
	Reason string
	Err    error
}

func (e *MalformedHeaderError) Error() string {
	msg := "grid: malformed header"
	if e.Line > 0 {
		msg += fmt.Sprintf(" (line %d)", e.Line)
	}
	if e.Key != "" {
		msg += fmt.Sprintf(" %s", e.Key)
	}
	msg += ": " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *MalformedHeaderError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrMalformedHeader) match.
func (e *MalformedHeaderError) Is(target error) bool { return target == ErrMalformedHeader }

// MalformedBodyError reports a body that doesn't match the shape declared in
// the header, or a cell that isn't numeric.
type MalformedBodyError struct {
	Row    int // 0-based data row, -1 if not tied to a row
	Reason string
	Err    error
}

func (e *MalformedBodyError) Error() string {
	msg := "grid: malformed body"
	if e.Row >= 0 {
		msg += fmt.Sprintf(" (row %d)", e.Row)
	}
	msg += ": " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *MalformedBodyError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrMalformedBody) match.
func (e *MalformedBodyError) Is(target error) bool { return target == ErrMalformedBody }
