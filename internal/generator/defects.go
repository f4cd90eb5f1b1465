package generator

import (
	"errors"
	"fmt"
)

// ErrInvalidParams is returned for parameters that cannot produce a run.
var ErrInvalidParams = errors.New("invalid generator params")

// Defect is one corruption class. Apply mutates the record in place and
// reports whether the record is kept; returning false drops it.
type Defect[T any] struct {
	Name  string
	Rate  float64
	Apply func(rng *Rand, rec *T) bool
}

type band[T any] struct {
	threshold float64
	defect    Defect[T]
}

// DefectTable evaluates mutually exclusive defects against a single
// uniform draw per record, in declaration order.
type DefectTable[T any] struct {
	bands []band[T]
}

func NewDefectTable[T any](defects ...Defect[T]) (DefectTable[T], error) {
	var (
		bands      = make([]band[T], 0, len(defects))
		cumulative float64
	)
	for _, d := range defects {
		if d.Rate < 0 || d.Rate > 1 {
			return DefectTable[T]{}, fmt.Errorf("%w: defect %s rate %v out of [0,1]", ErrInvalidParams, d.Name, d.Rate)
		}
		if d.Apply == nil {
			return DefectTable[T]{}, fmt.Errorf("%w: defect %s has no transform", ErrInvalidParams, d.Name)
		}
		cumulative += d.Rate
		bands = append(bands, band[T]{threshold: cumulative, defect: d})
	}
	// Tolerate float accumulation error on tables that sum to exactly 1.
	if cumulative > 1+1e-9 {
		return DefectTable[T]{}, fmt.Errorf("%w: defect rates sum to %v", ErrInvalidParams, cumulative)
	}
	return DefectTable[T]{bands: bands}, nil
}

// Apply draws once and applies the first band the draw falls under.
// It returns the applied defect name ("" when the record is untouched)
// and whether the record survives.
func (t DefectTable[T]) Apply(rng *Rand, rec *T) (string, bool) {
	roll := rng.Float64()
	for _, b := range t.bands {
		if roll < b.threshold {
			return b.defect.Name, b.defect.Apply(rng, rec)
		}
	}
	return "", true
}

// Names lists defect names in evaluation order.
func (t DefectTable[T]) Names() []string {
	names := make([]string, len(t.bands))
	for i, b := range t.bands {
		names[i] = b.defect.Name
	}
	return names
}
