package lattice

import (
	"errors"
	"fmt"
)

var (
	ErrNoHierarchies = errors.New("lattice needs at least one hierarchy")
	ErrInvalidLabel  = errors.New("hierarchy label contains the name separator")
	ErrNodeNotFound  = errors.New("lattice node not found")
)

// MissingValueError reports a leaf cell with no entry in the value map.
// A missing value is never read as zero: zero is a legitimate observation.
type MissingValueError struct {
	Name string
}

func (e *MissingValueError) Error() string {
	return fmt.Sprintf("no value for leaf cell %q", e.Name)
}

// InvalidValueError reports a leaf value the lattice cannot hold: NaN, or a
// non-positive value under the log transform.
type InvalidValueError struct {
	Name   string
	Value  float64
	Reason string
}

func (e *InvalidValueError) Error() string {
	return fmt.Sprintf("leaf cell %q: invalid value %g: %s", e.Name, e.Value, e.Reason)
}
