package hmm

import (
	"math"

	"github.com/skillsenselab/vbdiar/errors"
)

// Topology is the minimum-duration chain layout over speaker slots.
// Priors weigh both the initial distribution and the exit transitions;
// slots with zero prior are unreachable and stay inactive.
type Topology struct {
	Speakers int
	MinDur   int
	LoopProb float64
	Priors   []float64

	logLoop   float64
	logExit   float64
	logPriors []float64
	active    []int
}

// NewTopology validates and precomputes the chain layout. Priors are
// renormalized; at least one slot must carry mass.
func NewTopology(speakers, minDur int, loopProb float64, priors []float64) (*Topology, error) {
	if speakers < 1 {
		return nil, errors.InvalidInput("speakers", "must be at least 1")
	}
	if minDur < 1 {
		return nil, errors.InvalidInput("min_dur", "must be at least 1")
	}
	if loopProb <= 0 || loopProb >= 1 {
		return nil, errors.InvalidInput("loop_prob", "must lie strictly between 0 and 1")
	}
	if len(priors) != speakers {
		return nil, errors.InputShape("priors", speakers, len(priors))
	}

	sum := 0.0
	for _, p := range priors {
		if p < 0 || math.IsNaN(p) || math.IsInf(p, 0) {
			return nil, errors.InvalidInput("priors", "must be finite and non-negative")
		}
		sum += p
	}
	if sum <= 0 {
		return nil, errors.InvalidInput("priors", "must have positive total mass")
	}

	t := &Topology{
		Speakers:  speakers,
		MinDur:    minDur,
		LoopProb:  loopProb,
		Priors:    make([]float64, speakers),
		logLoop:   math.Log(loopProb),
		logExit:   math.Log(1 - loopProb),
		logPriors: make([]float64, speakers),
	}
	for s, p := range priors {
		t.Priors[s] = p / sum
		t.logPriors[s] = math.Log(t.Priors[s]) // log(0) = -Inf for empty slots
		if t.Priors[s] > 0 {
			t.active = append(t.active, s)
		}
	}
	return t, nil
}

// Active returns the slots with nonzero prior.
func (t *Topology) Active() []int { return t.active }

// States returns the total chain state count.
func (t *Topology) States() int { return t.Speakers * t.MinDur }
