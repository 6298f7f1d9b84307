package vb

import (
	"time"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distmv"

	"github.com/skillsenselab/vbdiar/errors"
	"github.com/skillsenselab/vbdiar/sparse"
)

// initResponsibilities builds the initial responsibility matrix and the
// initial speaker priors.
//
// With hard initialization each tick's speaker mass is the fraction of
// its frames carrying each label; slots absent from the labeling start
// and stay at zero. Without it every tick draws its speaker
// distribution from Dirichlet(AlphaQInit) so all slots participate.
func initResponsibilities(st *tickStats, labels []int, cfg Config) (*sparse.Matrix, []float64, error) {
	q, err := sparse.New(st.ticks, cfg.MaxSpeakers)
	if err != nil {
		return nil, nil, errors.InvalidInput("max_speakers", err.Error())
	}

	speakerMass := make([]float64, cfg.MaxSpeakers)
	var draw func(t int)
	if cfg.Initialize {
		draw = func(t int) {
			for i := range speakerMass {
				speakerMass[i] = 0
			}
			lo := t * cfg.Downsample
			hi := lo + cfg.Downsample
			if hi > len(labels) {
				hi = len(labels)
			}
			unit := 1 / float64(hi-lo)
			for f := lo; f < hi; f++ {
				speakerMass[labels[f]] += unit
			}
		}
	} else {
		seed := cfg.Seed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		alpha := make([]float64, cfg.MaxSpeakers)
		for i := range alpha {
			alpha[i] = cfg.AlphaQInit
		}
		dir := distmv.NewDirichlet(alpha, rand.NewSource(uint64(seed)))
		draw = func(t int) {
			dir.Rand(speakerMass)
		}
	}

	priors := make([]float64, cfg.MaxSpeakers)
	marginal := make([]float64, cfg.MaxSpeakers)
	for t := 0; t < st.ticks; t++ {
		draw(t)
		setRow(q, t, st, speakerMass, cfg.SparsityThr)
		q.SpeakerMarginal(t, marginal)
		for s, v := range marginal {
			priors[s] += v
		}
	}

	total := 0.0
	for _, v := range priors {
		total += v
	}
	if total <= 0 {
		return nil, nil, errors.InvalidInput("labeling", "initialization left every speaker slot empty")
	}
	for s := range priors {
		priors[s] /= total
	}
	return q, priors, nil
}

// setRow writes one responsibility row as the pruned, renormalized
// product of the tick's component occupation and a speaker
// distribution. If pruning would empty the row it is rebuilt unpruned;
// a processed tick must keep some mass somewhere.
func setRow(q *sparse.Matrix, t int, st *tickStats, speakerMass []float64, thr float64) {
	if q.SetRowProduct(t, st.comps[t], st.compMass[t], speakerMass, thr) == 0 {
		q.SetRowProduct(t, st.comps[t], st.compMass[t], speakerMass, 0)
	}
}
