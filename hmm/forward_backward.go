package hmm

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/skillsenselab/vbdiar/errors"
)

// Posterior is the outcome of a smoothing pass.
type Posterior struct {
	// Marginals is T x S row-major; every row sums to 1.
	Marginals []float64
	// TotalLL is the total data log-likelihood under the chain model.
	TotalLL float64
	// Degenerate counts ticks recovered by the uniform fallback.
	Degenerate int
}

// ForwardBackward smooths T x S emission log-scores over the topology.
// Chain states of one speaker share that speaker's emission score. The
// emissions slice is not modified.
func ForwardBackward(emissions []float64, ticks int, topo *Topology) (*Posterior, error) {
	S := topo.Speakers
	md := topo.MinDur
	if ticks < 1 {
		return nil, errors.InputShape("ticks", 1, ticks)
	}
	if len(emissions) != ticks*S {
		return nil, errors.InputShape("emissions", ticks*S, len(emissions))
	}

	lls, degenerate, nDegenerate := scrubEmissions(emissions, ticks, topo)

	M := topo.States()
	negInf := math.Inf(-1)
	fw := make([]float64, ticks*M)
	bw := make([]float64, ticks*M)
	scratch := make([]float64, S)

	// Forward pass. Paths enter a chain at its start, advance one state
	// per tick, and may only linger on the final state.
	for i := range fw[:M] {
		fw[i] = negInf
	}
	for s := 0; s < S; s++ {
		fw[s*md] = topo.logPriors[s] + lls[s]
	}
	for t := 1; t < ticks; t++ {
		prev := fw[(t-1)*M : t*M]
		cur := fw[t*M : (t+1)*M]
		for s := 0; s < S; s++ {
			scratch[s] = prev[s*md+md-1]
		}
		exit := floats.LogSumExp(scratch) + topo.logExit
		for s := 0; s < S; s++ {
			e := lls[t*S+s]
			enter := exit + topo.logPriors[s]
			if md == 1 {
				cur[s*md] = e + logAddExp(enter, prev[s*md]+topo.logLoop)
				continue
			}
			cur[s*md] = e + enter
			for k := 1; k < md-1; k++ {
				cur[s*md+k] = e + prev[s*md+k-1]
			}
			cur[s*md+md-1] = e + logAddExp(prev[s*md+md-2], prev[s*md+md-1]+topo.logLoop)
		}
	}

	tll := floats.LogSumExp(fw[(ticks-1)*M : ticks*M])

	// Backward pass.
	for t := ticks - 2; t >= 0; t-- {
		next := bw[(t+1)*M : (t+2)*M]
		cur := bw[t*M : (t+1)*M]
		for s := 0; s < S; s++ {
			scratch[s] = topo.logPriors[s] + lls[(t+1)*S+s] + next[s*md]
		}
		entry := floats.LogSumExp(scratch) + topo.logExit
		for s := 0; s < S; s++ {
			e := lls[(t+1)*S+s]
			for k := 0; k < md-1; k++ {
				cur[s*md+k] = e + next[s*md+k+1]
			}
			cur[s*md+md-1] = logAddExp(topo.logLoop+e+next[s*md+md-1], entry)
		}
	}

	p := &Posterior{
		Marginals:  make([]float64, ticks*S),
		TotalLL:    tll,
		Degenerate: nDegenerate,
	}

	// A sequence with no surviving path degrades to transitions only.
	if math.IsInf(tll, 0) || math.IsNaN(tll) {
		p.TotalLL = 0
		p.Degenerate = ticks
		for t := 0; t < ticks; t++ {
			p.uniformRow(t, topo)
		}
		return p, nil
	}

	kscratch := make([]float64, md)
	for t := 0; t < ticks; t++ {
		if degenerate[t] {
			p.uniformRow(t, topo)
			continue
		}
		row := p.Marginals[t*S : (t+1)*S]
		for s := 0; s < S; s++ {
			for k := 0; k < md; k++ {
				kscratch[k] = fw[t*M+s*md+k] + bw[t*M+s*md+k]
			}
			row[s] = math.Exp(floats.LogSumExp(kscratch) - tll)
		}
		sum := 0.0
		for _, v := range row {
			sum += v
		}
		if sum <= 0 || math.IsNaN(sum) || math.IsInf(sum, 0) {
			p.uniformRow(t, topo)
			p.Degenerate++
			continue
		}
		for i := range row {
			row[i] /= sum
		}
	}
	return p, nil
}

func (p *Posterior) uniformRow(t int, topo *Topology) {
	row := p.Marginals[t*topo.Speakers : (t+1)*topo.Speakers]
	for i := range row {
		row[i] = 0
	}
	u := 1 / float64(len(topo.active))
	for _, s := range topo.active {
		row[s] = u
	}
}

// HardLabels returns the per-tick argmax slot.
func (p *Posterior) HardLabels(speakers int) []int {
	ticks := len(p.Marginals) / speakers
	labels := make([]int, ticks)
	for t := 0; t < ticks; t++ {
		row := p.Marginals[t*speakers : (t+1)*speakers]
		best := 0
		for s := 1; s < speakers; s++ {
			if row[s] > row[best] {
				best = s
			}
		}
		labels[t] = best
	}
	return labels
}

// scrubEmissions copies the scores with NaN treated as impossible. A
// tick with no finite score on any reachable slot cannot be attributed
// at all; it gets neutral emissions so the recursions stay finite and
// is flagged for the uniform fallback.
func scrubEmissions(emissions []float64, ticks int, topo *Topology) ([]float64, []bool, int) {
	S := topo.Speakers
	lls := make([]float64, len(emissions))
	copy(lls, emissions)
	degenerate := make([]bool, ticks)
	n := 0
	for t := 0; t < ticks; t++ {
		row := lls[t*S : (t+1)*S]
		usable := false
		for i, v := range row {
			if math.IsNaN(v) {
				row[i] = math.Inf(-1)
			}
		}
		for _, s := range topo.active {
			if !math.IsInf(row[s], -1) {
				usable = true
				break
			}
		}
		if !usable {
			for i := range row {
				row[i] = 0
			}
			degenerate[t] = true
			n++
		}
	}
	return lls, degenerate, n
}

func logAddExp(a, b float64) float64 {
	if math.IsInf(a, -1) {
		return b
	}
	if math.IsInf(b, -1) {
		return a
	}
	if a < b {
		a, b = b, a
	}
	return a + math.Log1p(math.Exp(b-a))
}
