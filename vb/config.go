package vb

import (
	"github.com/skillsenselab/vbdiar/validation"
)

// Config carries every knob of the resegmentation engine. Instances are
// copied into the engine at construction and never read again from the
// caller's copy; there is no ambient configuration.
type Config struct {
	// MaxSpeakers is the number of speaker slots, an upper bound on the
	// speakers a recording may resolve to.
	MaxSpeakers int `json:"max_speakers" mapstructure:"max_speakers" validate:"gte=1,lte=256"`

	// MaxIters bounds the number of E/M cycles per recording.
	MaxIters int `json:"max_iters" mapstructure:"max_iters" validate:"gte=1"`

	// Downsample is the tick width: one processed tick covers this many
	// raw frames.
	Downsample int `json:"downsample" mapstructure:"downsample" validate:"gte=1"`

	// AlphaQInit is the Dirichlet concentration used to draw random
	// initial responsibilities when Initialize is false.
	AlphaQInit float64 `json:"alpha_q_init" mapstructure:"alpha_q_init" validate:"gt=0"`

	// SparsityThr prunes responsibility masses below it to exactly zero.
	SparsityThr float64 `json:"sparsity_thr" mapstructure:"sparsity_thr" validate:"gte=0"`

	// Epsilon stops the loop once the objective improves by less.
	Epsilon float64 `json:"epsilon" mapstructure:"epsilon" validate:"gt=0"`

	// MinDur is the minimum speaker turn length in ticks, imposed by
	// the smoothing topology.
	MinDur int `json:"min_dur" mapstructure:"min_dur" validate:"gte=1"`

	// LoopProb is the probability of staying with the current speaker
	// between ticks.
	LoopProb float64 `json:"loop_prob" mapstructure:"loop_prob" validate:"gt=0,lt=1"`

	// StatScale scales the zeroth-order statistics collected from the UBM.
	StatScale float64 `json:"stat_scale" mapstructure:"stat_scale" validate:"gt=0"`

	// LLScale scales UBM log-likelihoods; values below 1 flatten the
	// component posteriors.
	LLScale float64 `json:"ll_scale" mapstructure:"ll_scale" validate:"gt=0"`

	// Initialize seeds responsibilities from the supplied labeling when
	// true, from Dirichlet(AlphaQInit) draws when false.
	Initialize bool `json:"initialize" mapstructure:"initialize"`

	// Seed drives random initialization; zero draws a seed from the
	// clock. Hard initialization ignores it.
	Seed int64 `json:"seed" mapstructure:"seed"`
}

// DefaultConfig returns the engine defaults. They match the reference
// recipe this engine was validated against.
func DefaultConfig() Config {
	return Config{
		MaxSpeakers: 10,
		MaxIters:    10,
		Downsample:  25,
		AlphaQInit:  100.0,
		SparsityThr: 0.001,
		Epsilon:     1e-6,
		MinDur:      1,
		LoopProb:    0.9,
		StatScale:   0.2,
		LLScale:     1.0,
		Initialize:  true,
	}
}

// Validate checks the configuration ranges.
func (c Config) Validate() error {
	return validation.Validate(&c)
}
