package cascade

import (
	"math"

	"github.com/RoaringBitmap/roaring"
)

// Summary is the final representative set at budget K.
type Summary struct {
	Budget          int
	Weight          float64
	Representatives []Representative
}

// Representative is one chosen node.
type Representative struct {
	ID     int
	Name   string
	Value  float64 // aggregated value (log scale when the lattice is log-transformed)
	Weight float64
	Leaves int     // leaf cells it stands for
	Share  float64 // per-leaf estimate in the observed scale
}

// Reconstruction approximates every leaf cell from a summary.
type Reconstruction struct {
	// Values holds one estimate per leaf, indexed by lattice.Node.LeafIndex,
	// in the observed (untransformed) scale.
	Values []float64
	// Covered marks the leaves that some representative stands for.
	Covered *roaring.Bitmap
}

// Reconstruct spreads each representative's value uniformly over the leaves it
// covers. Representatives cover disjoint leaf sets. A leaf covered by no
// representative gets a zero share, which the log transform maps to 1.
func (e *Engine) Reconstruct() (*Reconstruction, error) {
	if e.final == nil {
		return nil, ErrNotSummarized
	}

	shares := make([]float64, e.lat.LeafCount())
	covered := roaring.New()
	for _, r := range e.final.Representatives {
		share := e.lat.Node(r.ID).Value / float64(r.Leaves)
		cov := e.lat.Coverage(r.ID)
		it := cov.Iterator()
		for it.HasNext() {
			shares[it.Next()] = share
		}
		covered.Or(cov)
	}

	if e.lat.Config().TakeLog {
		for i, s := range shares {
			shares[i] = math.Exp(s)
		}
	}
	return &Reconstruction{Values: shares, Covered: covered}, nil
}

// Final returns the summary from the last Summarize call.
func (e *Engine) Final() (*Summary, error) {
	if e.final == nil {
		return nil, ErrNotSummarized
	}
	return e.final, nil
}
