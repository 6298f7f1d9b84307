package vb

import (
	"context"
	"math"
	"math/rand"
	"testing"

	"github.com/skillsenselab/vbdiar/errors"
	"github.com/skillsenselab/vbdiar/frames"
	"github.com/skillsenselab/vbdiar/model"
)

// testPair builds a tiny one-dimensional model: two UBM components at
// -1 and +1, and a rank-1 subspace that shifts both component means
// together. Speaker identity then reduces to a scalar offset, which
// keeps the synthetic recordings easy to reason about.
func testPair(t *testing.T) *model.Pair {
	t.Helper()
	u, err := model.NewUBM(
		[]float64{0.5, 0.5},
		[]float64{-1, 1},
		[]float64{1, 1},
		2, 1,
	)
	if err != nil {
		t.Fatalf("NewUBM failed: %v", err)
	}
	e, err := model.NewExtractor(1, 2, []float64{0.6, 0.6})
	if err != nil {
		t.Fatalf("NewExtractor failed: %v", err)
	}
	pair, err := model.NewPair(u, e)
	if err != nil {
		t.Fatalf("NewPair failed: %v", err)
	}
	return pair
}

// synthFeatures emits n frames for a speaker sitting at the given
// subspace offset, alternating between the two shifted component modes
// with a little noise.
func synthFeatures(rng *rand.Rand, n int, offset float64) []float64 {
	data := make([]float64, n)
	for i := range data {
		center := -1 + offset
		if i%2 == 1 {
			center = 1 + offset
		}
		data[i] = center + 0.2*rng.NormFloat64()
	}
	return data
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.MaxSpeakers = 4
	cfg.Downsample = 5
	return cfg
}

func constLabels(n, slot int) []int {
	labels := make([]int, n)
	for i := range labels {
		labels[i] = slot
	}
	return labels
}

// --- engine construction tests ---

func TestNewRejectsNilPair(t *testing.T) {
	if _, err := New(DefaultConfig(), nil); err == nil {
		t.Fatal("expected error for nil model pair")
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxIters = 0
	if _, err := New(cfg, testPair(t)); err == nil {
		t.Fatal("expected error for invalid config")
	}
}

// --- resegmentation tests ---

func TestResegmentSingleSpeakerConverges(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	pair := testPair(t)
	feats, err := frames.NewFeatures(synthFeatures(rng, 400, -0.6), 1, 0.01)
	if err != nil {
		t.Fatalf("NewFeatures failed: %v", err)
	}

	eng, err := New(testConfig(), pair)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	res, err := eng.Resegment(context.Background(), feats, constLabels(400, 0))
	if err != nil {
		t.Fatalf("Resegment failed: %v", err)
	}

	if res.Diagnostics.Reason != ReasonConverged {
		t.Errorf("single-speaker run should converge, got %q", res.Diagnostics.Reason)
	}
	if res.Diagnostics.Iterations != 2 {
		t.Errorf("expected convergence at the first measurable delta (iteration 2), got %d",
			res.Diagnostics.Iterations)
	}
	for i, l := range res.TickLabels {
		if l != 0 {
			t.Fatalf("tick %d labeled %d, want 0", i, l)
		}
	}
	if len(res.Mask) != 400 {
		t.Errorf("full-coverage labeling should process all frames, got %d", len(res.Mask))
	}
	if p := res.Diagnostics.SpeakerPriors[0]; math.Abs(p-1) > 1e-6 {
		t.Errorf("single speaker should own the prior mass, got %g", p)
	}
	if res.Diagnostics.ActiveSpeakers != 1 {
		t.Errorf("expected 1 active speaker, got %d", res.Diagnostics.ActiveSpeakers)
	}
}

func TestResegmentIterationLimit(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	pair := testPair(t)
	feats, err := frames.NewFeatures(synthFeatures(rng, 200, 0.6), 1, 0.01)
	if err != nil {
		t.Fatalf("NewFeatures failed: %v", err)
	}

	cfg := testConfig()
	cfg.MaxIters = 1
	eng, err := New(cfg, pair)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	res, err := eng.Resegment(context.Background(), feats, constLabels(200, 0))
	if err != nil {
		t.Fatalf("Resegment failed: %v", err)
	}

	if res.Diagnostics.Reason != ReasonIterationLimit {
		t.Errorf("max_iters=1 must end with the iteration limit, got %q", res.Diagnostics.Reason)
	}
	if res.Diagnostics.Iterations != 1 {
		t.Errorf("expected exactly one E/M cycle, got %d", res.Diagnostics.Iterations)
	}
	if len(res.Diagnostics.Objectives) != 1 {
		t.Errorf("expected one objective value, got %d", len(res.Diagnostics.Objectives))
	}
	if res.Diagnostics.FinalObjective != res.Diagnostics.Objectives[0] {
		t.Error("final objective should mirror the last iteration")
	}
}

func twoSpeakerRecording(t *testing.T, perSpeaker int) (*frames.Features, []int) {
	t.Helper()
	rng := rand.New(rand.NewSource(23))
	data := append(
		synthFeatures(rng, perSpeaker, -0.6),
		synthFeatures(rng, perSpeaker, 0.6)...,
	)
	feats, err := frames.NewFeatures(data, 1, 0.01)
	if err != nil {
		t.Fatalf("NewFeatures failed: %v", err)
	}
	labels := make([]int, 2*perSpeaker)
	for i := perSpeaker; i < 2*perSpeaker; i++ {
		labels[i] = 1
	}
	return feats, labels
}

func TestResegmentObjectiveNonDecreasing(t *testing.T) {
	feats, labels := twoSpeakerRecording(t, 400)
	cfg := testConfig()
	cfg.MaxIters = 8
	eng, err := New(cfg, testPair(t))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	res, err := eng.Resegment(context.Background(), feats, labels)
	if err != nil {
		t.Fatalf("Resegment failed: %v", err)
	}

	obj := res.Diagnostics.Objectives
	if len(obj) < 2 {
		t.Fatalf("expected at least two iterations, got %d", len(obj))
	}
	for i := 1; i < len(obj); i++ {
		tol := 1e-6 * (1 + math.Abs(obj[i-1]))
		if obj[i] < obj[i-1]-tol {
			t.Errorf("objective decreased at iteration %d: %g -> %g", i+1, obj[i-1], obj[i])
		}
	}
}

func TestResegmentKeepsSeparatedSpeakers(t *testing.T) {
	feats, labels := twoSpeakerRecording(t, 400)
	eng, err := New(testConfig(), testPair(t))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	res, err := eng.Resegment(context.Background(), feats, labels)
	if err != nil {
		t.Fatalf("Resegment failed: %v", err)
	}

	half := len(res.TickLabels) / 2
	for i, l := range res.TickLabels {
		want := 0
		if i >= half {
			want = 1
		}
		if l != want {
			t.Fatalf("tick %d labeled %d, want %d", i, l, want)
		}
	}
	if res.Diagnostics.ActiveSpeakers != 2 {
		t.Errorf("expected 2 active speakers, got %d", res.Diagnostics.ActiveSpeakers)
	}
}

func TestResegmentMasksSilenceAndOverlap(t *testing.T) {
	rng := rand.New(rand.NewSource(31))
	pair := testPair(t)
	feats, err := frames.NewFeatures(synthFeatures(rng, 300, -0.6), 1, 0.01)
	if err != nil {
		t.Fatalf("NewFeatures failed: %v", err)
	}
	labels := constLabels(300, 0)
	for i := 0; i < 40; i++ {
		labels[i] = frames.LabelSilence
	}
	for i := 100; i < 110; i++ {
		labels[i] = frames.LabelOverlap
	}

	eng, err := New(testConfig(), pair)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	res, err := eng.Resegment(context.Background(), feats, labels)
	if err != nil {
		t.Fatalf("Resegment failed: %v", err)
	}
	if len(res.Mask) != 250 {
		t.Errorf("expected 250 processed frames, got %d", len(res.Mask))
	}
	if res.Mask[0] != 40 {
		t.Errorf("mask should start after the silence run, got %d", res.Mask[0])
	}
}

func TestResegmentProgressEvents(t *testing.T) {
	feats, labels := twoSpeakerRecording(t, 200)
	cfg := testConfig()
	cfg.MaxIters = 3
	cfg.Epsilon = 1e-12 // keep iterating

	var events []IterationEvent
	eng, err := New(cfg, testPair(t), WithProgress(func(ev IterationEvent) {
		events = append(events, ev)
	}))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	res, err := eng.Resegment(context.Background(), feats, labels)
	if err != nil {
		t.Fatalf("Resegment failed: %v", err)
	}

	if len(events) != res.Diagnostics.Iterations {
		t.Fatalf("expected %d progress events, got %d", res.Diagnostics.Iterations, len(events))
	}
	for i, ev := range events {
		if ev.Iteration != i+1 {
			t.Errorf("event %d reports iteration %d", i, ev.Iteration)
		}
		if ev.Objective != res.Diagnostics.Objectives[i] {
			t.Errorf("event %d objective %g does not match diagnostics %g",
				i, ev.Objective, res.Diagnostics.Objectives[i])
		}
	}
}

func TestResegmentCancelled(t *testing.T) {
	feats, labels := twoSpeakerRecording(t, 200)
	eng, err := New(testConfig(), testPair(t))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := eng.Resegment(ctx, feats, labels); err != context.Canceled {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestResegmentRandomInitIsSeeded(t *testing.T) {
	feats, labels := twoSpeakerRecording(t, 200)
	cfg := testConfig()
	cfg.Initialize = false
	cfg.Seed = 42

	run := func() []int {
		eng, err := New(cfg, testPair(t))
		if err != nil {
			t.Fatalf("New failed: %v", err)
		}
		res, err := eng.Resegment(context.Background(), feats, labels)
		if err != nil {
			t.Fatalf("Resegment failed: %v", err)
		}
		return res.TickLabels
	}

	first, second := run(), run()
	if len(first) != len(second) {
		t.Fatalf("runs disagree on tick count: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("seeded runs diverged at tick %d: %d vs %d", i, first[i], second[i])
		}
	}
}

func TestResegmentMinDurBindsTickLabels(t *testing.T) {
	feats, labels := twoSpeakerRecording(t, 200)
	cfg := testConfig()
	cfg.MinDur = 4
	eng, err := New(cfg, testPair(t))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	res, err := eng.Resegment(context.Background(), feats, labels)
	if err != nil {
		t.Fatalf("Resegment failed: %v", err)
	}

	run := 0
	for i, l := range res.TickLabels {
		run++
		if i == len(res.TickLabels)-1 || res.TickLabels[i+1] != l {
			if run < cfg.MinDur {
				t.Fatalf("speaker %d holds only %d ticks ending at %d, want at least %d",
					l, run, i, cfg.MinDur)
			}
			run = 0
		}
	}
}

// --- input rejection tests ---

func TestResegmentRejections(t *testing.T) {
	pair := testPair(t)
	eng, err := New(testConfig(), pair)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	good, err := frames.NewFeatures(make([]float64, 100), 1, 0.01)
	if err != nil {
		t.Fatalf("NewFeatures failed: %v", err)
	}
	wideFeats, err := frames.NewFeatures(make([]float64, 200), 2, 0.01)
	if err != nil {
		t.Fatalf("NewFeatures failed: %v", err)
	}

	crowded := make([]int, 100)
	for i := range crowded {
		crowded[i] = i % 5 // five distinct slots against MaxSpeakers=4
	}

	tests := []struct {
		name   string
		feats  *frames.Features
		labels []int
		code   errors.ErrorCode
	}{
		{"feature dim mismatch", wideFeats, constLabels(100, 0), errors.ErrCodeInputShape},
		{"label length mismatch", good, constLabels(99, 0), errors.ErrCodeInputShape},
		{"no speech", good, constLabels(100, frames.LabelSilence), errors.ErrCodeInvalidInput},
		{"too many speakers", good, crowded, errors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := eng.Resegment(context.Background(), tt.feats, tt.labels)
			if err == nil {
				t.Fatal("expected an error")
			}
			appErr, ok := errors.AsAppError(err)
			if !ok {
				t.Fatalf("expected AppError, got %T", err)
			}
			if appErr.Code != tt.code {
				t.Errorf("expected %s, got %s", tt.code, appErr.Code)
			}
		})
	}
}
