package cascade

import (
	"bufio"
	"io"
	"math"
	"strconv"

	"github.com/agentic-research/cascade/internal/lattice"
)

// SMAPE is the symmetric absolute percentage error of reconstructing o as r.
// Two exact zeros agree perfectly.
func SMAPE(o, r float64) float64 {
	if o == 0 && r == 0 {
		return 0
	}
	return math.Abs(o-r) / (math.Abs(o) + math.Abs(r))
}

// ErrorStats aggregates per-leaf SMAPE.
type ErrorStats struct {
	Leaves int
	Sum    float64
	Worst  float64
}

// Mean is the average per-leaf error.
func (s ErrorStats) Mean() float64 {
	if s.Leaves == 0 {
		return 0
	}
	return s.Sum / float64(s.Leaves)
}

// Evaluate compares every leaf's observed value with its reconstruction.
// When w is non-nil the per-leaf errors are streamed to it as "e1,e2,...,"
// in leaf order.
func Evaluate(l *lattice.Lattice, rec *Reconstruction, w io.Writer) (ErrorStats, error) {
	var bw *bufio.Writer
	if w != nil {
		bw = bufio.NewWriter(w)
	}

	var stats ErrorStats
	for _, n := range l.Leaves() {
		e := SMAPE(n.Observed, rec.Values[n.LeafIndex])
		if bw != nil {
			if _, err := bw.WriteString(strconv.FormatFloat(e, 'g', -1, 64) + ","); err != nil {
				return stats, err
			}
		}
		stats.Leaves++
		stats.Sum += e
		if e > stats.Worst {
			stats.Worst = e
		}
	}

	if bw != nil {
		if err := bw.Flush(); err != nil {
			return stats, err
		}
	}
	return stats, nil
}
