package vb

import (
	"gonum.org/v1/gonum/mat"

	"github.com/skillsenselab/vbdiar/errors"
	"github.com/skillsenselab/vbdiar/model"
	"github.com/skillsenselab/vbdiar/sparse"
)

// factorPosteriors holds the per-slot speaker factor distributions: a
// mean vector and a packed symmetric covariance per slot, plus the
// Gaussian-prior KL term the objective needs. A slot that accumulated
// no statistics sits at the prior (zero mean, identity covariance) and
// contributes nothing to the KL term.
type factorPosteriors struct {
	rank int
	mean []float64 // slots x rank
	cov  []float64 // slots x tri, packed lower-triangular
	kl   float64
}

func (fp *factorPosteriors) meanOf(s int) []float64 {
	return fp.mean[s*fp.rank : (s+1)*fp.rank]
}

func (fp *factorPosteriors) covOf(s int) []float64 {
	tri := fp.rank * (fp.rank + 1) / 2
	return fp.cov[s*tri : (s+1)*tri]
}

// estimateFactors runs the M-step: accumulate zeroth- and first-order
// statistics per speaker slot from the responsibility matrix, then
// solve each slot's Gaussian posterior with a Cholesky factorization of
// the precision I + sum_c N_sc * VtiEV_c.
func estimateFactors(pair *model.Pair, st *tickStats, q *sparse.Matrix) (*factorPosteriors, error) {
	K := pair.UBM.K
	R := st.rank
	tri := st.tri
	S := q.Speakers()

	occ := make([]float64, S*K)   // N_sc
	first := make([]float64, S*R) // sum_t q_ts * projStats_t
	marginal := make([]float64, S)
	for t := 0; t < st.ticks; t++ {
		w := st.weight[t]
		q.IterRow(t, func(c, s int, mass float64) {
			occ[s*K+c] += w * mass
		})
		q.SpeakerMarginal(t, marginal)
		ps := st.projStats[t*R : (t+1)*R]
		for s := 0; s < S; s++ {
			if marginal[s] == 0 {
				continue
			}
			for r := 0; r < R; r++ {
				first[s*R+r] += marginal[s] * ps[r]
			}
		}
	}

	fp := &factorPosteriors{
		rank: R,
		mean: make([]float64, S*R),
		cov:  make([]float64, S*tri),
	}

	prec := mat.NewSymDense(R, nil)
	var chol mat.Cholesky
	var covSym mat.SymDense
	a := mat.NewVecDense(R, nil)
	f := mat.NewVecDense(R, nil)

	for s := 0; s < S; s++ {
		active := false
		for c := 0; c < K; c++ {
			if occ[s*K+c] != 0 {
				active = true
				break
			}
		}
		if !active {
			// Prior posterior: zero mean, identity covariance.
			cov := fp.covOf(s)
			for r := 0; r < R; r++ {
				cov[r*(r+1)/2+r] = 1
			}
			continue
		}

		for i := 0; i < R; i++ {
			for j := 0; j <= i; j++ {
				v := 0.0
				if i == j {
					v = 1
				}
				prec.SetSym(i, j, v)
			}
		}
		for c := 0; c < K; c++ {
			n := occ[s*K+c]
			if n == 0 {
				continue
			}
			cp := pair.ProjectedPrecision(c)
			idx := 0
			for i := 0; i < R; i++ {
				for j := 0; j <= i; j++ {
					prec.SetSym(i, j, prec.At(i, j)+n*cp[idx])
					idx++
				}
			}
		}

		if ok := chol.Factorize(prec); !ok {
			return nil, errors.ModelFormatf("speaker %d factor precision is not positive definite", s)
		}
		if err := chol.InverseTo(&covSym); err != nil {
			return nil, errors.Internal(err)
		}
		for r := 0; r < R; r++ {
			f.SetVec(r, first[s*R+r])
		}
		if err := chol.SolveVecTo(a, f); err != nil {
			return nil, errors.Internal(err)
		}

		mean := fp.meanOf(s)
		cov := fp.covOf(s)
		normSq := 0.0
		trace := 0.0
		idx := 0
		for i := 0; i < R; i++ {
			mean[i] = a.AtVec(i)
			normSq += mean[i] * mean[i]
			for j := 0; j <= i; j++ {
				cov[idx] = covSym.At(i, j)
				idx++
			}
			trace += covSym.At(i, i)
		}
		// KL(q(y_s) || N(0, I)) up to sign: logdet(cov) is the negated
		// log determinant of the precision.
		fp.kl += 0.5 * (-chol.LogDet() - trace - normSq + float64(R))
	}
	return fp, nil
}

// emissionScores fills out (ticks x slots) with the per-tick speaker
// emission log-scores under the current factor posteriors.
func emissionScores(st *tickStats, fp *factorPosteriors, out []float64) {
	R := st.rank
	tri := st.tri
	S := len(fp.mean) / R

	// Per slot, the packed second moment cov + mean*mean^T drives the
	// quadratic correction term.
	moment := make([]float64, S*tri)
	for s := 0; s < S; s++ {
		mean := fp.meanOf(s)
		cov := fp.covOf(s)
		m := moment[s*tri : (s+1)*tri]
		idx := 0
		for i := 0; i < R; i++ {
			for j := 0; j <= i; j++ {
				m[idx] = cov[idx] + mean[i]*mean[j]
				idx++
			}
		}
	}

	for t := 0; t < st.ticks; t++ {
		ps := st.projStats[t*R : (t+1)*R]
		pp := st.projPrec[t*tri : (t+1)*tri]
		for s := 0; s < S; s++ {
			mean := fp.meanOf(s)
			lin := 0.0
			for r := 0; r < R; r++ {
				lin += ps[r] * mean[r]
			}
			out[t*S+s] = st.logNorm[t] + lin - 0.5*triDot(moment[s*tri:(s+1)*tri], pp, R)
		}
	}
}
