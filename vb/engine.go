package vb

import (
	"context"

	"github.com/skillsenselab/vbdiar/errors"
	"github.com/skillsenselab/vbdiar/frames"
	"github.com/skillsenselab/vbdiar/hmm"
	"github.com/skillsenselab/vbdiar/logger"
	"github.com/skillsenselab/vbdiar/model"
)

// TerminationReason says how a run left the iteration loop.
type TerminationReason string

const (
	// ReasonConverged means the objective improvement fell below Epsilon.
	ReasonConverged TerminationReason = "converged"
	// ReasonIterationLimit means MaxIters cycles completed first. This
	// is a normal outcome for expensive recordings, not an error.
	ReasonIterationLimit TerminationReason = "iteration-limit"
)

// activePriorThr is the prior mass above which a slot counts as an
// active speaker in the diagnostics.
const activePriorThr = 1e-3

// Diagnostics reports how a run terminated.
type Diagnostics struct {
	// Iterations is the number of completed E/M cycles.
	Iterations int `json:"iterations"`
	// Reason is the terminal state of the loop.
	Reason TerminationReason `json:"reason"`
	// Objectives holds the per-iteration objective values in order.
	Objectives []float64 `json:"objectives"`
	// FinalObjective is the last entry of Objectives.
	FinalObjective float64 `json:"final_objective"`
	// DegenerateTicks counts ticks recovered by the uniform emission
	// fallback, summed over iterations.
	DegenerateTicks int `json:"degenerate_ticks"`
	// SpeakerPriors are the learned per-slot priors after the last
	// smoothing pass.
	SpeakerPriors []float64 `json:"speaker_priors"`
	// ActiveSpeakers counts slots whose learned prior stayed above a
	// reporting threshold.
	ActiveSpeakers int `json:"active_speakers"`
}

// IterationEvent is delivered to the progress callback after every
// completed E/M cycle.
type IterationEvent struct {
	Iteration       int     `json:"iteration"`
	Objective       float64 `json:"objective"`
	Improvement     float64 `json:"improvement"`
	DegenerateTicks int     `json:"degenerate_ticks"`
}

// Result is a finished run. TickLabels holds one hard speaker slot per
// processed tick; Mask maps processed frames back onto the raw
// timeline for export.
type Result struct {
	TickLabels  []int
	Mask        []int
	Diagnostics Diagnostics
}

// Engine runs VB-HMM resegmentation against one model pair. An Engine
// is immutable after construction and safe to share across
// concurrently processed recordings.
type Engine struct {
	cfg      Config
	pair     *model.Pair
	log      *logger.Logger
	progress func(IterationEvent)
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(l *logger.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// WithProgress registers a callback invoked after each completed
// iteration. The callback runs on the iterating goroutine and must not
// block.
func WithProgress(fn func(IterationEvent)) Option {
	return func(e *Engine) { e.progress = fn }
}

// New validates the configuration and builds an engine around a loaded
// model pair.
func New(cfg Config, pair *model.Pair, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if pair == nil {
		return nil, errors.InvalidInput("model", "engine requires a loaded model pair")
	}
	e := &Engine{cfg: cfg, pair: pair}
	for _, opt := range opts {
		opt(e)
	}
	if e.log == nil {
		e.log = logger.Get("vb")
	}
	return e, nil
}

// Config returns a copy of the engine configuration.
func (e *Engine) Config() Config { return e.cfg }

// Resegment refines a per-frame labeling for one recording. labels
// must have one entry per feature frame using the frames package
// conventions (speaker slot, LabelSilence, or LabelOverlap); only
// single-speaker frames are processed.
//
// Cancellation is observed at the top of every iteration; a cancelled
// run returns the context error and exposes no partial state.
func (e *Engine) Resegment(ctx context.Context, feats *frames.Features, labels []int) (*Result, error) {
	if err := e.pair.CheckFeatureDim(feats.Dim()); err != nil {
		return nil, err
	}
	if len(labels) != feats.Len() {
		return nil, errors.InputShape("labels", feats.Len(), len(labels))
	}

	mask := frames.SpeechMask(labels)
	if len(mask) == 0 {
		return nil, errors.InvalidInput("labeling", "recording has no single-speaker speech frames")
	}
	masked := frames.MaskedLabels(labels, mask)
	distinct := 0
	for _, l := range masked {
		if l >= distinct {
			distinct = l + 1
		}
	}
	if distinct > e.cfg.MaxSpeakers {
		return nil, errors.InvalidInput("labeling",
			"initial labeling has more speakers than max_speakers allows")
	}

	st := computeStats(e.pair, feats, mask, e.cfg)
	q, priors, err := initResponsibilities(st, masked, e.cfg)
	if err != nil {
		return nil, err
	}
	factors, err := estimateFactors(e.pair, st, q)
	if err != nil {
		return nil, err
	}

	S := e.cfg.MaxSpeakers
	emis := make([]float64, st.ticks*S)
	objectives := make([]float64, 0, e.cfg.MaxIters)
	reason := ReasonIterationLimit
	iterations := 0
	degenerate := 0

	for n := 1; n <= e.cfg.MaxIters; n++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		// E-step: score, smooth, rebuild responsibilities.
		emissionScores(st, factors, emis)
		topo, err := hmm.NewTopology(S, e.cfg.MinDur, e.cfg.LoopProb, priors)
		if err != nil {
			return nil, err
		}
		post, err := hmm.ForwardBackward(emis, st.ticks, topo)
		if err != nil {
			return nil, err
		}
		if post.Degenerate > 0 {
			degenerate += post.Degenerate
			e.log.Warn("emission underflow recovered with uniform fallback", logger.Fields(
				"code", string(errors.ErrCodeNumericDegeneracy),
				"iteration", n,
				"ticks", post.Degenerate,
			))
		}
		for t := 0; t < st.ticks; t++ {
			setRow(q, t, st, post.Marginals[t*S:(t+1)*S], e.cfg.SparsityThr)
		}
		for s := range priors {
			priors[s] = 0
		}
		for t := 0; t < st.ticks; t++ {
			for s := 0; s < S; s++ {
				priors[s] += post.Marginals[t*S+s]
			}
		}
		for s := range priors {
			priors[s] /= float64(st.ticks)
		}

		// Objective pairs the factor KL used by this E-step with the
		// smoothing pass's total data log-likelihood.
		obj := factors.kl + post.TotalLL
		objectives = append(objectives, obj)

		// M-step completes the cycle.
		factors, err = estimateFactors(e.pair, st, q)
		if err != nil {
			return nil, err
		}
		iterations = n

		improvement := 0.0
		if n >= 2 {
			improvement = obj - objectives[n-2]
		}
		if e.progress != nil {
			e.progress(IterationEvent{
				Iteration:       n,
				Objective:       obj,
				Improvement:     improvement,
				DegenerateTicks: post.Degenerate,
			})
		}
		if n >= 2 && improvement < e.cfg.Epsilon {
			reason = ReasonConverged
			break
		}
	}

	// Final hard labeling is a best-path decode over the chain
	// topology, scored with the final factor posteriors. Smoothed
	// marginals alone would let the per-tick argmax cut runs shorter
	// than MinDur.
	emissionScores(st, factors, emis)
	topo, err := hmm.NewTopology(S, e.cfg.MinDur, e.cfg.LoopProb, priors)
	if err != nil {
		return nil, err
	}
	ticks, err := hmm.Viterbi(emis, st.ticks, topo)
	if err != nil {
		return nil, err
	}

	active := 0
	for _, p := range priors {
		if p > activePriorThr {
			active++
		}
	}

	return &Result{
		TickLabels: ticks,
		Mask:       mask,
		Diagnostics: Diagnostics{
			Iterations:      iterations,
			Reason:          reason,
			Objectives:      objectives,
			FinalObjective:  objectives[len(objectives)-1],
			DegenerateTicks: degenerate,
			SpeakerPriors:   priors,
			ActiveSpeakers:  active,
		},
	}, nil
}
