package vb

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/skillsenselab/vbdiar/frames"
	"github.com/skillsenselab/vbdiar/model"
)

// tickStats holds everything about a recording that stays fixed across
// iterations: per-tick UBM occupation, log normalizers, and the
// first-order statistics already projected into factor space. Computed
// once before the loop; the iteration path never touches the features
// again.
type tickStats struct {
	ticks int
	rank  int
	tri   int

	// logNorm is the summed per-frame UBM log normalizer per tick,
	// already scaled by LLScale.
	logNorm []float64
	// weight is the total zeroth-order mass per tick (StatScale folded
	// in). Rows of the responsibility matrix stay normalized; this
	// vector restores the absolute scale during accumulation.
	weight []float64
	// comps / compMass are the per-tick component occupation, sparse
	// and normalized to unit mass. comps is strictly increasing.
	comps    [][]int
	compMass [][]float64
	// projStats is ticks x rank: sum over frames and components of
	// occupation times Vt*invVar*(x - mean).
	projStats []float64
	// projPrec is ticks x tri: the occupation-weighted sum of the
	// per-component projected precisions, packed lower-triangular.
	projPrec []float64
}

// computeStats scores every masked frame against the UBM, prunes and
// scales the component posteriors, and aggregates them into ticks of
// cfg.Downsample frames.
func computeStats(pair *model.Pair, feats *frames.Features, mask []int, cfg Config) *tickStats {
	u := pair.UBM
	ext := pair.Extractor
	K, D, R := u.K, u.D, ext.Rank
	tri := pair.TriLen()

	ticks := frames.NumTicks(len(mask), cfg.Downsample)
	st := &tickStats{
		ticks:     ticks,
		rank:      R,
		tri:       tri,
		logNorm:   make([]float64, ticks),
		weight:    make([]float64, ticks),
		comps:     make([][]int, ticks),
		compMass:  make([][]float64, ticks),
		projStats: make([]float64, ticks*R),
		projPrec:  make([]float64, ticks*tri),
	}

	logConsts := u.LogConsts()
	meansInvVars := u.MeansInvVars()

	lls := make([]float64, K)
	post := make([]float64, K)
	nn := make([]float64, K)

	for ti := 0; ti < ticks; ti++ {
		lo := ti * cfg.Downsample
		hi := lo + cfg.Downsample
		if hi > len(mask) {
			hi = len(mask)
		}
		for i := range nn {
			nn[i] = 0
		}

		for f := lo; f < hi; f++ {
			x := feats.Row(mask[f])

			for c := 0; c < K; c++ {
				acc := 0.0
				base := c * D
				for d := 0; d < D; d++ {
					acc += x[d] * (meansInvVars[base+d] - 0.5*u.InvVars[base+d]*x[d])
				}
				lls[c] = cfg.LLScale * (logConsts[c] + acc)
			}
			g := floats.LogSumExp(lls)
			st.logNorm[ti] += g

			// Component posterior, pruned. A frame whose posterior is
			// everywhere below the threshold keeps its best component
			// so no speech frame vanishes from the statistics.
			best, bestV := 0, math.Inf(-1)
			kept := false
			for c := 0; c < K; c++ {
				p := math.Exp(lls[c] - g)
				if lls[c] > bestV {
					best, bestV = c, lls[c]
				}
				if p < cfg.SparsityThr {
					p = 0
				} else {
					kept = true
				}
				post[c] = p
			}
			if !kept {
				post[best] = 1
			}

			ps := st.projStats[ti*R : (ti+1)*R]
			for c := 0; c < K; c++ {
				if post[c] == 0 {
					continue
				}
				w := post[c] * cfg.StatScale
				nn[c] += w

				base := c * D
				for r := 0; r < R; r++ {
					row := ext.Row(r)[base : base+D]
					acc := 0.0
					for d := 0; d < D; d++ {
						acc += row[d] * (u.InvVars[base+d]*x[d] - meansInvVars[base+d])
					}
					ps[r] += w * acc
				}
			}
		}

		// Compress the tick occupation and fold in the projected
		// precisions, which only depend on per-tick totals.
		total := 0.0
		for _, v := range nn {
			total += v
		}
		st.weight[ti] = total
		pp := st.projPrec[ti*tri : (ti+1)*tri]
		for c := 0; c < K; c++ {
			if nn[c] == 0 {
				continue
			}
			st.comps[ti] = append(st.comps[ti], c)
			st.compMass[ti] = append(st.compMass[ti], nn[c]/total)
			cp := pair.ProjectedPrecision(c)
			for i := range pp {
				pp[i] += nn[c] * cp[i]
			}
		}
	}
	return st
}

// triDot is the Frobenius inner product of two packed symmetric
// matrices: diagonal terms once, off-diagonal terms twice.
func triDot(a, b []float64, rank int) float64 {
	sum := 0.0
	i := 0
	for r := 0; r < rank; r++ {
		for c := 0; c < r; c++ {
			sum += 2 * a[i] * b[i]
			i++
		}
		sum += a[i] * b[i]
		i++
	}
	return sum
}
