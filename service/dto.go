package service

import (
	"github.com/skillsenselab/vbdiar/errors"
	"github.com/skillsenselab/vbdiar/segments"
	"github.com/skillsenselab/vbdiar/validation"
	"github.com/skillsenselab/vbdiar/vb"
)

// FeaturesDTO carries an inline feature matrix: Data is flat row-major
// with Dim values per frame.
type FeaturesDTO struct {
	Dim        int       `json:"dim"`
	FrameShift float64   `json:"frame_shift"`
	Data       []float64 `json:"data"`
}

// ResegmentRequest is the body of POST /v1/resegment. Features come
// either inline or as an artifact path; the reference labeling comes
// either as inline segments or as RTTM text.
type ResegmentRequest struct {
	RecordingID  string             `json:"recording_id"`
	Features     *FeaturesDTO       `json:"features,omitempty"`
	FeaturesPath string             `json:"features_path,omitempty"`
	Segments     []segments.Segment `json:"segments,omitempty"`
	RTTM         string             `json:"rttm,omitempty"`
	Engine       *EngineOverrides   `json:"engine,omitempty"`
}

// Validate reports field-level problems with the request shape.
// Semantic problems (dimension mismatches, malformed RTTM) surface
// later as typed engine errors.
func (r *ResegmentRequest) Validate() *errors.AppError {
	v := validation.New()
	v.Required("recording_id", r.RecordingID)
	v.MaxLength("recording_id", r.RecordingID, 256)
	if r.Features == nil && r.FeaturesPath == "" {
		v.AddError("features", "either features or features_path is required")
	}
	if r.Features != nil && r.FeaturesPath != "" {
		v.AddError("features", "features and features_path are mutually exclusive")
	}
	if r.Features != nil {
		v.Min("features.dim", r.Features.Dim, 1)
		v.Custom(r.Features.FrameShift > 0, "features.frame_shift", "must be positive")
		v.Custom(len(r.Features.Data) > 0, "features.data", "is required")
	}
	if len(r.Segments) == 0 && r.RTTM == "" {
		v.AddError("segments", "either segments or rttm is required")
	}
	if len(r.Segments) > 0 && r.RTTM != "" {
		v.AddError("segments", "segments and rttm are mutually exclusive")
	}
	for _, s := range r.Segments {
		if s.Speaker == "" {
			v.AddError("segments", "every segment needs a speaker name")
			break
		}
		if s.End < s.Start || s.Start < 0 {
			v.AddError("segments", "segment times must satisfy 0 <= start <= end")
			break
		}
	}
	return v.Validate()
}

// ResegmentResponse is the body of a successful POST /v1/resegment.
type ResegmentResponse struct {
	RecordingID string             `json:"recording_id"`
	Segments    []segments.Segment `json:"segments"`
	Diagnostics *vb.Diagnostics    `json:"diagnostics"`
}

// JobRecording names one recording of an asynchronous job by its
// storage artifacts.
type JobRecording struct {
	RecordingID  string `json:"recording_id"`
	FeaturesPath string `json:"features_path"`
	LabelsPath   string `json:"labels_path"`
}

// JobRequest is the body of POST /v1/jobs.
type JobRequest struct {
	Recordings []JobRecording   `json:"recordings"`
	Engine     *EngineOverrides `json:"engine,omitempty"`
}

// Validate reports field-level problems with the job request.
func (r *JobRequest) Validate() *errors.AppError {
	v := validation.New()
	if len(r.Recordings) == 0 {
		v.AddError("recordings", "at least one recording is required")
	}
	seen := make(map[string]bool, len(r.Recordings))
	for _, rec := range r.Recordings {
		if rec.RecordingID == "" {
			v.AddError("recordings", "every recording needs a recording_id")
			break
		}
		if rec.FeaturesPath == "" || rec.LabelsPath == "" {
			v.AddError("recordings", "every recording needs features_path and labels_path")
			break
		}
		if seen[rec.RecordingID] {
			v.AddError("recordings", "recording IDs must be unique within a job")
			break
		}
		seen[rec.RecordingID] = true
	}
	return v.Validate()
}

// EngineOverrides carries the per-request engine knobs. Nil fields keep
// the service defaults.
type EngineOverrides struct {
	MaxSpeakers *int     `json:"max_speakers,omitempty"`
	MaxIters    *int     `json:"max_iters,omitempty"`
	Downsample  *int     `json:"downsample,omitempty"`
	AlphaQInit  *float64 `json:"alpha_q_init,omitempty"`
	SparsityThr *float64 `json:"sparsity_thr,omitempty"`
	Epsilon     *float64 `json:"epsilon,omitempty"`
	MinDur      *int     `json:"min_dur,omitempty"`
	LoopProb    *float64 `json:"loop_prob,omitempty"`
	StatScale   *float64 `json:"stat_scale,omitempty"`
	LLScale     *float64 `json:"ll_scale,omitempty"`
	Initialize  *bool    `json:"initialize,omitempty"`
	Seed        *int64   `json:"seed,omitempty"`
}

// Apply overlays the set fields onto cfg and validates the result.
func (o *EngineOverrides) Apply(cfg vb.Config) (vb.Config, error) {
	if o == nil {
		return cfg, nil
	}
	if o.MaxSpeakers != nil {
		cfg.MaxSpeakers = *o.MaxSpeakers
	}
	if o.MaxIters != nil {
		cfg.MaxIters = *o.MaxIters
	}
	if o.Downsample != nil {
		cfg.Downsample = *o.Downsample
	}
	if o.AlphaQInit != nil {
		cfg.AlphaQInit = *o.AlphaQInit
	}
	if o.SparsityThr != nil {
		cfg.SparsityThr = *o.SparsityThr
	}
	if o.Epsilon != nil {
		cfg.Epsilon = *o.Epsilon
	}
	if o.MinDur != nil {
		cfg.MinDur = *o.MinDur
	}
	if o.LoopProb != nil {
		cfg.LoopProb = *o.LoopProb
	}
	if o.StatScale != nil {
		cfg.StatScale = *o.StatScale
	}
	if o.LLScale != nil {
		cfg.LLScale = *o.LLScale
	}
	if o.Initialize != nil {
		cfg.Initialize = *o.Initialize
	}
	if o.Seed != nil {
		cfg.Seed = *o.Seed
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}
