package analytics

import (
	"errors"
	"fmt"
)

// ErrInputShape is matched by every malformed-input error of the analytics stages.
var ErrInputShape = errors.New("input shape error")

// MissingColumnError reports a required field absent from a stage input row.
type MissingColumnError struct {
	Stage  string
	Column string
	Row    int
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("%s: missing column %q at row %d", e.Stage, e.Column, e.Row)
}

func (e *MissingColumnError) Is(target error) bool {
	return target == ErrInputShape
}

func missing(stage, column string, row int) error {
	return &MissingColumnError{Stage: stage, Column: column, Row: row}
}
