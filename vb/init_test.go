package vb

import (
	"math"
	"math/rand"
	"testing"

	"github.com/skillsenselab/vbdiar/frames"
)

// --- initialization tests ---

func initFixture(t *testing.T, nFrames int, cfg Config) *tickStats {
	t.Helper()
	rng := rand.New(rand.NewSource(3))
	feats, err := frames.NewFeatures(synthFeatures(rng, nFrames, 0), 1, 0.01)
	if err != nil {
		t.Fatalf("NewFeatures failed: %v", err)
	}
	mask := make([]int, nFrames)
	for i := range mask {
		mask[i] = i
	}
	return computeStats(testPair(t), feats, mask, cfg)
}

func TestComputeStatsTickLayout(t *testing.T) {
	cfg := testConfig()
	cfg.Downsample = 4
	st := initFixture(t, 10, cfg)

	if st.ticks != 3 {
		t.Fatalf("10 frames at downsample 4 should give 3 ticks, got %d", st.ticks)
	}
	// Component occupation is normalized per tick; the absolute scale
	// lives in the weight vector.
	for ti := 0; ti < st.ticks; ti++ {
		sum := 0.0
		for _, m := range st.compMass[ti] {
			sum += m
		}
		if math.Abs(sum-1) > 1e-9 {
			t.Errorf("tick %d component mass sums to %g, want 1", ti, sum)
		}
		if st.weight[ti] <= 0 {
			t.Errorf("tick %d has non-positive weight %g", ti, st.weight[ti])
		}
	}
	// A full tick of StatScale-weighted posteriors carries ds*statScale
	// mass; the truncated final tick carries half a tick.
	if want := 4 * cfg.StatScale; math.Abs(st.weight[0]-want) > 1e-9 {
		t.Errorf("full tick weight = %g, want %g", st.weight[0], want)
	}
	if want := 2 * cfg.StatScale; math.Abs(st.weight[2]-want) > 1e-9 {
		t.Errorf("truncated tick weight = %g, want %g", st.weight[2], want)
	}
}

func TestInitHardLabels(t *testing.T) {
	cfg := testConfig()
	cfg.Downsample = 2
	st := initFixture(t, 4, cfg)

	// Tick 0 is all speaker 0; tick 1 splits between 0 and 1.
	q, priors, err := initResponsibilities(st, []int{0, 0, 0, 1}, cfg)
	if err != nil {
		t.Fatalf("initResponsibilities failed: %v", err)
	}

	marginal := make([]float64, cfg.MaxSpeakers)
	q.SpeakerMarginal(0, marginal)
	if math.Abs(marginal[0]-1) > 1e-9 {
		t.Errorf("tick 0 should put all mass on speaker 0, got %v", marginal)
	}
	q.SpeakerMarginal(1, marginal)
	if math.Abs(marginal[0]-0.5) > 1e-9 || math.Abs(marginal[1]-0.5) > 1e-9 {
		t.Errorf("tick 1 should split mass evenly, got %v", marginal)
	}

	// Slots the labeling never used start empty and the priors reflect
	// only the seen speakers.
	for s := 2; s < cfg.MaxSpeakers; s++ {
		if marginal[s] != 0 {
			t.Errorf("unseen slot %d has mass %g", s, marginal[s])
		}
		if priors[s] != 0 {
			t.Errorf("unseen slot %d has prior %g", s, priors[s])
		}
	}
	sum := 0.0
	for _, p := range priors {
		sum += p
	}
	if math.Abs(sum-1) > 1e-9 {
		t.Errorf("priors sum to %g, want 1", sum)
	}
}

func TestInitRowsAreNormalized(t *testing.T) {
	cfg := testConfig()
	st := initFixture(t, 40, cfg)
	q, _, err := initResponsibilities(st, constLabels(40, 0), cfg)
	if err != nil {
		t.Fatalf("initResponsibilities failed: %v", err)
	}
	for ti := 0; ti < q.Rows(); ti++ {
		if s := q.RowSum(ti); math.Abs(s-1) > 1e-6 {
			t.Errorf("row %d sums to %g, want 1", ti, s)
		}
	}
}

func TestInitRandomFillsAllSlots(t *testing.T) {
	cfg := testConfig()
	cfg.Initialize = false
	cfg.Seed = 9
	st := initFixture(t, 100, cfg)
	_, priors, err := initResponsibilities(st, constLabels(100, 0), cfg)
	if err != nil {
		t.Fatalf("initResponsibilities failed: %v", err)
	}
	for s, p := range priors {
		if p <= 0 {
			t.Errorf("random init left slot %d empty", s)
		}
	}
}

func TestSetRowNeverLeavesRowEmpty(t *testing.T) {
	cfg := testConfig()
	st := initFixture(t, 10, cfg)
	q, _, err := initResponsibilities(st, constLabels(10, 0), cfg)
	if err != nil {
		t.Fatalf("initResponsibilities failed: %v", err)
	}

	// A speaker distribution spread so thin that every product falls
	// below the threshold must fall back to the unpruned rebuild.
	thin := make([]float64, cfg.MaxSpeakers)
	for i := range thin {
		thin[i] = 1 / float64(cfg.MaxSpeakers)
	}
	setRow(q, 0, st, thin, 0.9)
	if q.RowNNZ(0) == 0 {
		t.Fatal("row left empty after aggressive pruning")
	}
	if s := q.RowSum(0); math.Abs(s-1) > 1e-6 {
		t.Errorf("row sums to %g after fallback, want 1", s)
	}
}
