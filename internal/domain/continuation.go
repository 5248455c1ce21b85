package domain

import (
	"fmt"
	"time"
)

// Canonical section names recognized by the continuation parser.
const (
	SectionStatus   = "STATUS"
	SectionPosition = "POSITION"
	SectionProblem  = "PROBLEM"
	SectionTried    = "TRIED"
	SectionNext     = "NEXT"
	SectionTodo     = "TODO"
	SectionContext  = "CONTEXT"
)

// Position points into the code base where work stopped. Absent fields stay
// at their zero value; Line is 0 when no line number was present.
type Position struct {
	File     string `json:"file,omitempty"`
	Line     int    `json:"line,omitempty"`
	Function string `json:"function,omitempty"`
	Raw      string `json:"raw,omitempty"`
}

// IsZero reports whether no position information was extracted
func (p Position) IsZero() bool {
	return p.File == "" && p.Line == 0 && p.Function == "" && p.Raw == ""
}

// Continuation is the canonical record parsed from a continuation note.
// It is immutable after creation; RawSections preserves the original section
// bodies for lossless redisplay.
type Continuation struct {
	ID          string
	ProjectName string
	Status      string
	Position    Position
	Problem     string
	Tried       []string
	Next        []string
	Todo        []string
	Context     string
	RawSections map[string]string
	CreatedAt   time.Time
}

// ValidateContinuation validates a Continuation instance
func ValidateContinuation(c *Continuation) error {
	if c == nil {
		return fmt.Errorf("continuation cannot be nil")
	}

	if c.ID == "" {
		return fmt.Errorf("continuation ID is required")
	}

	if c.ProjectName == "" {
		return fmt.Errorf("continuation ProjectName is required")
	}

	if c.Status == "" {
		return fmt.Errorf("continuation Status is required")
	}

	return nil
}
