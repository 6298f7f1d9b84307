package model

import (
	"math"

	"github.com/skillsenselab/vbdiar/errors"
)

// Extractor holds the low-rank speaker subspace basis. Basis is flat
// row-major Rank x Width; Width must equal K*D of the UBM it is paired
// with, laid out component-major (row r, component c, dim d at
// r*Width + c*D + d). Read-only after construction.
type Extractor struct {
	Rank  int
	Width int
	Basis []float64
}

// NewExtractor validates the subspace dimensions and basis values.
func NewExtractor(rank, width int, basis []float64) (*Extractor, error) {
	if rank < 1 {
		return nil, errors.ModelFormatf("extractor rank must be positive, got %d", rank)
	}
	if width < 1 {
		return nil, errors.ModelFormatf("extractor basis width must be positive, got %d", width)
	}
	if len(basis) != rank*width {
		return nil, errors.ModelFormatf("extractor basis has %d values, want %d x %d = %d",
			len(basis), rank, width, rank*width)
	}
	for i, v := range basis {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, errors.ModelFormatf("extractor basis value at row %d col %d is %g", i/width, i%width, v)
		}
	}
	return &Extractor{
		Rank:  rank,
		Width: width,
		Basis: append([]float64(nil), basis...),
	}, nil
}

// Row returns basis row r (length Width). Read-only.
func (e *Extractor) Row(r int) []float64 {
	return e.Basis[r*e.Width : (r+1)*e.Width]
}
