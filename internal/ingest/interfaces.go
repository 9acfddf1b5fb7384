package ingest

import (
	"context"
	"fmt"
)

// ValueSource yields leaf cell values keyed by composite lattice name
// ("label1,label2,...").
type ValueSource interface {
	Values(ctx context.Context) (map[string]float64, error)
}

// ValueFormatError reports an unparsable record in a value source.
type ValueFormatError struct {
	Source string
	Record string // line number, row name or JSONPath match index
	Err    error
}

func (e *ValueFormatError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Source, e.Record, e.Err)
}

func (e *ValueFormatError) Unwrap() error { return e.Err }
