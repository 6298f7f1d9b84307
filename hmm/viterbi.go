package hmm

import (
	"math"

	"github.com/skillsenselab/vbdiar/errors"
)

// Viterbi decodes the single best state path for T x S emission
// log-scores over the topology and returns one speaker label per tick.
// A path leaves a speaker's chain only from its final state and prefers
// to end on one, so every decoded run lasts at least MinDur ticks when
// the sequence is long enough to complete a chain. The emissions slice
// is not modified.
func Viterbi(emissions []float64, ticks int, topo *Topology) ([]int, error) {
	S := topo.Speakers
	md := topo.MinDur
	if ticks < 1 {
		return nil, errors.InputShape("ticks", 1, ticks)
	}
	if len(emissions) != ticks*S {
		return nil, errors.InputShape("emissions", ticks*S, len(emissions))
	}

	lls, _, _ := scrubEmissions(emissions, ticks, topo)

	M := topo.States()
	negInf := math.Inf(-1)
	delta := make([]float64, ticks*M)
	back := make([]int32, ticks*M)

	for i := range delta[:M] {
		delta[i] = negInf
		back[i] = -1
	}
	for s := 0; s < S; s++ {
		delta[s*md] = topo.logPriors[s] + lls[s]
	}

	for t := 1; t < ticks; t++ {
		prev := delta[(t-1)*M : t*M]
		cur := delta[t*M : (t+1)*M]
		bp := back[t*M : (t+1)*M]

		bestExit := negInf
		exitState := int32(-1)
		for s := 0; s < S; s++ {
			if v := prev[s*md+md-1]; v > bestExit {
				bestExit = v
				exitState = int32(s*md + md - 1)
			}
		}
		enterBase := bestExit + topo.logExit

		for s := 0; s < S; s++ {
			e := lls[t*S+s]
			enter := enterBase + topo.logPriors[s]
			if md == 1 {
				if stay := prev[s] + topo.logLoop; stay >= enter {
					cur[s] = e + stay
					bp[s] = int32(s)
				} else {
					cur[s] = e + enter
					bp[s] = exitState
				}
				continue
			}
			cur[s*md] = e + enter
			bp[s*md] = exitState
			for k := 1; k < md-1; k++ {
				cur[s*md+k] = e + prev[s*md+k-1]
				bp[s*md+k] = int32(s*md + k - 1)
			}
			last := s*md + md - 1
			if stay := prev[last] + topo.logLoop; stay >= prev[last-1] {
				cur[last] = e + stay
				bp[last] = int32(last)
			} else {
				cur[last] = e + prev[last-1]
				bp[last] = int32(last - 1)
			}
		}
	}

	// Prefer paths that finish a chain; a sequence shorter than MinDur
	// has none, so ending mid-chain is allowed as a fallback.
	final := delta[(ticks-1)*M : ticks*M]
	best := negInf
	bestState := -1
	for s := 0; s < S; s++ {
		if v := final[s*md+md-1]; v > best {
			best = v
			bestState = s*md + md - 1
		}
	}
	if math.IsInf(best, -1) {
		for m := 0; m < M; m++ {
			if v := final[m]; v > best {
				best = v
				bestState = m
			}
		}
	}
	if bestState < 0 || math.IsInf(best, -1) {
		return argmaxLabels(lls, ticks, topo), nil
	}

	labels := make([]int, ticks)
	state := int32(bestState)
	for t := ticks - 1; t >= 0; t-- {
		labels[t] = int(state) / md
		state = back[t*M+int(state)]
	}
	return labels, nil
}

// argmaxLabels is the last-resort decode for inputs admitting no path:
// the per-tick best active slot, with no duration guarantee.
func argmaxLabels(lls []float64, ticks int, topo *Topology) []int {
	S := topo.Speakers
	labels := make([]int, ticks)
	for t := 0; t < ticks; t++ {
		best := topo.active[0]
		for _, s := range topo.active {
			if lls[t*S+s] > lls[t*S+best] {
				best = s
			}
		}
		labels[t] = best
	}
	return labels
}
