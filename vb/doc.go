// Package vb implements the variational Bayes resegmentation engine:
// the iterative refinement of per-frame speaker assignments against a
// pretrained UBM and speaker-subspace extractor.
//
// A run starts from features and an initial hard frame labeling,
// downsamples the masked speech frames into ticks, and alternates an
// E-step (speaker emission scores from the current factor posteriors,
// HMM smoothing, responsibility rebuild) with an M-step (sufficient
// statistics, speaker factor re-estimation) until the objective stops
// improving or the iteration budget runs out. Hitting the budget is a
// normal outcome reported in the diagnostics, not an error.
//
// All configuration enters through the immutable Config passed to New;
// the engine reads no ambient state. A single Engine is safe for
// concurrent use across recordings: per-recording state lives on the
// run, and the model pair is shared read-only.
//
// Speaker slots that receive no mass from the initial labeling keep a
// zero prior and can never be entered by the smoothing pass, so with
// hard initialization the effective speaker count is bounded by the
// labeling's distinct speakers. Random initialization (Initialize
// false) populates every slot instead.
package vb
