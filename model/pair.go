package model

import (
	"github.com/skillsenselab/vbdiar/errors"
)

// Pair couples a UBM with a compatible extractor and precomputes, per
// mixture component, the projected precision Vt*diag(invVars_c)*V that
// the engine needs on every statistic accumulation and emission score.
// Like its parts, a Pair is read-only and shared across recordings.
type Pair struct {
	UBM       *UBM
	Extractor *Extractor

	projPrec []float64 // K x TriLen, packed lower-triangular per component
}

// NewPair verifies the extractor matches the UBM layout and precomputes
// the per-component projected precisions.
func NewPair(u *UBM, e *Extractor) (*Pair, error) {
	if u == nil || e == nil {
		return nil, errors.ModelFormat("pair requires both a ubm and an extractor")
	}
	if e.Width != u.K*u.D {
		return nil, errors.ModelFormatf("extractor basis width %d does not match ubm layout %d components x %d dims = %d",
			e.Width, u.K, u.D, u.K*u.D)
	}

	r := e.Rank
	tri := r * (r + 1) / 2
	pp := make([]float64, u.K*tri)
	for c := 0; c < u.K; c++ {
		base := c * u.D
		out := pp[c*tri : (c+1)*tri]
		for i := 0; i < r; i++ {
			vi := e.Basis[i*e.Width+base : i*e.Width+base+u.D]
			for j := 0; j <= i; j++ {
				vj := e.Basis[j*e.Width+base : j*e.Width+base+u.D]
				s := 0.0
				for d := 0; d < u.D; d++ {
					s += vi[d] * u.InvVars[base+d] * vj[d]
				}
				out[i*(i+1)/2+j] = s
			}
		}
	}
	return &Pair{UBM: u, Extractor: e, projPrec: pp}, nil
}

// TriLen returns the packed lower-triangle length Rank*(Rank+1)/2.
func (p *Pair) TriLen() int {
	r := p.Extractor.Rank
	return r * (r + 1) / 2
}

// ProjectedPrecision returns component c's Vt*diag(invVars_c)*V packed
// as a row-major lower triangle: element (i,j) with j <= i sits at
// i*(i+1)/2 + j. Read-only.
func (p *Pair) ProjectedPrecision(c int) []float64 {
	tri := p.TriLen()
	return p.projPrec[c*tri : (c+1)*tri]
}

// CheckFeatureDim rejects features whose dimensionality does not match
// the UBM. The mismatch is an input problem, not a model problem.
func (p *Pair) CheckFeatureDim(dim int) error {
	if dim != p.UBM.D {
		return errors.InputShape("feature dimension", p.UBM.D, dim)
	}
	return nil
}
