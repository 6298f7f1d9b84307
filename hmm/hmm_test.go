package hmm

import (
	"math"
	"testing"

	"github.com/skillsenselab/vbdiar/errors"
)

// --- topology tests ---

func TestNewTopology(t *testing.T) {
	topo, err := NewTopology(3, 2, 0.9, []float64{2, 2, 0})
	if err != nil {
		t.Fatalf("NewTopology failed: %v", err)
	}
	if topo.States() != 6 {
		t.Errorf("expected 6 chain states, got %d", topo.States())
	}
	if topo.Priors[0] != 0.5 || topo.Priors[1] != 0.5 || topo.Priors[2] != 0 {
		t.Errorf("expected renormalized priors [0.5 0.5 0], got %v", topo.Priors)
	}
	active := topo.Active()
	if len(active) != 2 || active[0] != 0 || active[1] != 1 {
		t.Errorf("expected active slots [0 1], got %v", active)
	}
	if !math.IsInf(topo.logPriors[2], -1) {
		t.Errorf("expected -Inf log prior for empty slot, got %v", topo.logPriors[2])
	}
}

func TestNewTopologyRejects(t *testing.T) {
	uniform := []float64{0.5, 0.5}
	tests := []struct {
		name     string
		speakers int
		minDur   int
		loopProb float64
		priors   []float64
	}{
		{"zero speakers", 0, 1, 0.9, nil},
		{"zero min dur", 2, 0, 0.9, uniform},
		{"loop prob zero", 2, 1, 0, uniform},
		{"loop prob one", 2, 1, 1, uniform},
		{"loop prob negative", 2, 1, -0.1, uniform},
		{"priors length mismatch", 2, 1, 0.9, []float64{1}},
		{"negative prior", 2, 1, 0.9, []float64{0.5, -0.5}},
		{"nan prior", 2, 1, 0.9, []float64{0.5, math.NaN()}},
		{"all-zero priors", 2, 1, 0.9, []float64{0, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewTopology(tt.speakers, tt.minDur, tt.loopProb, tt.priors); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

// --- forward-backward tests ---

func mustTopology(t *testing.T, speakers, minDur int, loopProb float64, priors []float64) *Topology {
	t.Helper()
	topo, err := NewTopology(speakers, minDur, loopProb, priors)
	if err != nil {
		t.Fatalf("NewTopology failed: %v", err)
	}
	return topo
}

func checkRowsSumToOne(t *testing.T, p *Posterior, speakers int) {
	t.Helper()
	ticks := len(p.Marginals) / speakers
	for tick := 0; tick < ticks; tick++ {
		sum := 0.0
		for s := 0; s < speakers; s++ {
			sum += p.Marginals[tick*speakers+s]
		}
		if math.Abs(sum-1) > 1e-9 {
			t.Fatalf("tick %d: marginals sum to %v, want 1", tick, sum)
		}
	}
}

func TestForwardBackwardUniform(t *testing.T) {
	topo := mustTopology(t, 2, 1, 0.9, []float64{0.5, 0.5})
	p, err := ForwardBackward(make([]float64, 4), 2, topo)
	if err != nil {
		t.Fatalf("ForwardBackward failed: %v", err)
	}
	// Unit emission likelihoods leave only transition mass, which sums
	// to one over all paths.
	if math.Abs(p.TotalLL) > 1e-12 {
		t.Errorf("expected zero total log-likelihood, got %v", p.TotalLL)
	}
	for i, m := range p.Marginals {
		if math.Abs(m-0.5) > 1e-12 {
			t.Errorf("marginal %d: expected 0.5, got %v", i, m)
		}
	}
	if p.Degenerate != 0 {
		t.Errorf("expected no degenerate ticks, got %d", p.Degenerate)
	}
}

func TestForwardBackwardSingleSpeaker(t *testing.T) {
	topo := mustTopology(t, 1, 1, 0.9, []float64{1})
	emissions := []float64{-3.5, -1.25, -7.0, -2.5}
	p, err := ForwardBackward(emissions, 4, topo)
	if err != nil {
		t.Fatalf("ForwardBackward failed: %v", err)
	}
	want := -3.5 - 1.25 - 7.0 - 2.5
	if math.Abs(p.TotalLL-want) > 1e-9 {
		t.Errorf("expected total log-likelihood %v, got %v", want, p.TotalLL)
	}
	for i, m := range p.Marginals {
		if math.Abs(m-1) > 1e-9 {
			t.Errorf("marginal %d: expected 1, got %v", i, m)
		}
	}
}

func TestForwardBackwardMinDurSuppression(t *testing.T) {
	const ticks = 13
	emissions := make([]float64, ticks*2)
	for tick := 0; tick < ticks; tick++ {
		emissions[tick*2+1] = -10
	}
	// A single tick strongly favoring the second speaker.
	emissions[6*2] = -10
	emissions[6*2+1] = 0

	relaxed := mustTopology(t, 2, 1, 0.9, []float64{0.5, 0.5})
	p1, err := ForwardBackward(emissions, ticks, relaxed)
	if err != nil {
		t.Fatalf("ForwardBackward failed: %v", err)
	}
	labels1 := p1.HardLabels(2)
	if labels1[6] != 1 {
		t.Errorf("min dur 1: expected the outlier tick to flip, got label %d", labels1[6])
	}
	if labels1[5] != 0 || labels1[7] != 0 {
		t.Errorf("min dur 1: expected neighbors to stay, got %d and %d", labels1[5], labels1[7])
	}

	strict := mustTopology(t, 2, 3, 0.9, []float64{0.5, 0.5})
	p3, err := ForwardBackward(emissions, ticks, strict)
	if err != nil {
		t.Fatalf("ForwardBackward failed: %v", err)
	}
	for tick, label := range p3.HardLabels(2) {
		if label != 0 {
			t.Errorf("min dur 3: expected the single-tick run to be suppressed, tick %d got label %d", tick, label)
		}
	}
	checkRowsSumToOne(t, p1, 2)
	checkRowsSumToOne(t, p3, 2)
}

func TestForwardBackwardLoopProbSmoothing(t *testing.T) {
	const ticks = 40
	emissions := make([]float64, ticks*2)
	for tick := 0; tick < ticks; tick++ {
		for s := 0; s < 2; s++ {
			emissions[tick*2+s] = 2 * math.Sin(1.7*float64(tick)+2.1*float64(s))
		}
	}

	switches := func(loopProb float64) int {
		topo := mustTopology(t, 2, 1, loopProb, []float64{0.5, 0.5})
		p, err := ForwardBackward(emissions, ticks, topo)
		if err != nil {
			t.Fatalf("ForwardBackward failed: %v", err)
		}
		labels := p.HardLabels(2)
		n := 0
		for i := 1; i < len(labels); i++ {
			if labels[i] != labels[i-1] {
				n++
			}
		}
		return n
	}

	loose := switches(0.5)
	sticky := switches(0.99)
	if loose < 1 {
		t.Errorf("expected the oscillating scores to flip labels at loop prob 0.5, got %d switches", loose)
	}
	if sticky > loose {
		t.Errorf("expected stickier loop prob to reduce switches: 0.99 gave %d, 0.5 gave %d", sticky, loose)
	}
}

func TestForwardBackwardShortSequence(t *testing.T) {
	topo := mustTopology(t, 2, 5, 0.9, []float64{0.5, 0.5})
	p, err := ForwardBackward(make([]float64, 4), 2, topo)
	if err != nil {
		t.Fatalf("ForwardBackward failed: %v", err)
	}
	if math.Abs(p.TotalLL) > 1e-12 {
		t.Errorf("expected zero total log-likelihood, got %v", p.TotalLL)
	}
	for i, m := range p.Marginals {
		if math.Abs(m-0.5) > 1e-12 {
			t.Errorf("marginal %d: expected 0.5, got %v", i, m)
		}
	}
}

func TestForwardBackwardDegenerateTick(t *testing.T) {
	topo := mustTopology(t, 2, 1, 0.9, []float64{0.5, 0.5})
	negInf := math.Inf(-1)
	emissions := []float64{
		0, -2,
		negInf, math.NaN(),
		-1, 0,
	}
	p, err := ForwardBackward(emissions, 3, topo)
	if err != nil {
		t.Fatalf("ForwardBackward failed: %v", err)
	}
	if p.Degenerate != 1 {
		t.Errorf("expected 1 degenerate tick, got %d", p.Degenerate)
	}
	if p.Marginals[2] != 0.5 || p.Marginals[3] != 0.5 {
		t.Errorf("expected uniform fallback on the degenerate tick, got %v", p.Marginals[2:4])
	}
	if math.IsInf(p.TotalLL, 0) || math.IsNaN(p.TotalLL) {
		t.Errorf("expected finite total log-likelihood, got %v", p.TotalLL)
	}
	checkRowsSumToOne(t, p, 2)
}

func TestForwardBackwardFallbackSkipsEmptySlots(t *testing.T) {
	topo := mustTopology(t, 3, 1, 0.9, []float64{0.6, 0.4, 0})
	negInf := math.Inf(-1)
	emissions := []float64{
		0, -1, negInf,
		negInf, negInf, negInf,
	}
	p, err := ForwardBackward(emissions, 2, topo)
	if err != nil {
		t.Fatalf("ForwardBackward failed: %v", err)
	}
	got := p.Marginals[3:6]
	if got[0] != 0.5 || got[1] != 0.5 || got[2] != 0 {
		t.Errorf("expected fallback [0.5 0.5 0] over active slots, got %v", got)
	}
}

func TestForwardBackwardRejectsBadShapes(t *testing.T) {
	topo := mustTopology(t, 2, 1, 0.9, []float64{0.5, 0.5})
	if _, err := ForwardBackward(make([]float64, 4), 0, topo); err == nil {
		t.Error("expected an error for zero ticks")
	}
	_, err := ForwardBackward(make([]float64, 5), 2, topo)
	if err == nil {
		t.Fatal("expected an error for a mismatched emission length")
	}
	appErr, ok := errors.AsAppError(err)
	if !ok || appErr.Code != errors.ErrCodeInputShape {
		t.Errorf("expected INPUT_SHAPE, got %v", err)
	}
}

func TestHardLabels(t *testing.T) {
	p := &Posterior{Marginals: []float64{0.9, 0.1, 0.3, 0.7, 0.5, 0.5}}
	labels := p.HardLabels(2)
	want := []int{0, 1, 0}
	for i := range want {
		if labels[i] != want[i] {
			t.Errorf("tick %d: expected label %d, got %d", i, want[i], labels[i])
		}
	}
}
