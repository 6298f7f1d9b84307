package batch

import (
	"context"
	"math/rand"
	"sync"
	"testing"

	"github.com/skillsenselab/vbdiar/frames"
	"github.com/skillsenselab/vbdiar/model"
	"github.com/skillsenselab/vbdiar/segments"
	"github.com/skillsenselab/vbdiar/vb"
)

// --- fixtures ---

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

func testFeatures(t *testing.T, seed int64, n int, offset float64) *frames.Features {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	data := make([]float64, n)
	for i := range data {
		center := -1 + offset
		if i%2 == 1 {
			center = 1 + offset
		}
		data[i] = center + 0.2*rng.NormFloat64()
	}
	feats, err := frames.NewFeatures(data, 1, 0.01)
	if err != nil {
		t.Fatalf("NewFeatures failed: %v", err)
	}
	return feats
}

func testConfig() vb.Config {
	cfg := vb.DefaultConfig()
	cfg.MaxSpeakers = 4
	cfg.Downsample = 5
	return cfg
}

func fullTurn(speaker string, n int) []segments.Segment {
	return []segments.Segment{{Speaker: speaker, Start: 0, End: float64(n-1) * 0.01}}
}

// --- runner tests ---

func TestNewRunnerRejects(t *testing.T) {
	if _, err := NewRunner(nil, testConfig()); err == nil {
		t.Error("expected error for nil model pair")
	}
	bad := testConfig()
	bad.MaxIters = 0
	if _, err := NewRunner(testPair(t), bad); err == nil {
		t.Error("expected error for invalid config")
	}
}

func TestRunIsolatesFailuresAndKeepsOrder(t *testing.T) {
	runner, err := NewRunner(testPair(t), testConfig(), WithWorkers(2))
	if err != nil {
		t.Fatalf("NewRunner failed: %v", err)
	}

	tasks := []Task{
		{RecordingID: "rec-a", Features: testFeatures(t, 1, 200, -0.6), Turns: fullTurn("A", 200)},
		{RecordingID: "rec-broken", Features: nil, Turns: fullTurn("A", 200)},
		{RecordingID: "rec-b", Features: testFeatures(t, 2, 200, 0.6), Turns: fullTurn("B", 200)},
	}
	outcomes, err := runner.Run(context.Background(), "", tasks)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(outcomes) != 3 {
		t.Fatalf("expected 3 outcomes, got %d", len(outcomes))
	}
	for i, want := range []string{"rec-a", "rec-broken", "rec-b"} {
		if outcomes[i].RecordingID != want {
			t.Errorf("outcome %d is %q, want %q", i, outcomes[i].RecordingID, want)
		}
	}
	if outcomes[1].Err == nil {
		t.Error("broken task should carry an error")
	}
	if outcomes[1].Segments != nil {
		t.Error("failed outcome must not carry segments")
	}
	for _, i := range []int{0, 2} {
		o := outcomes[i]
		if o.Err != nil {
			t.Errorf("%s should succeed, got %v", o.RecordingID, o.Err)
			continue
		}
		if len(o.Segments) == 0 {
			t.Errorf("%s produced no segments", o.RecordingID)
		}
		if o.Diagnostics == nil {
			t.Errorf("%s has no diagnostics", o.RecordingID)
		}
	}
	// A full-coverage single-speaker labeling must come back verbatim.
	if got := outcomes[0].Segments; len(got) == 1 {
		if got[0].Speaker != "A" || got[0].Start != 0 || got[0].End != 2.0 {
			t.Errorf("unexpected segment %+v", got[0])
		}
	} else {
		t.Errorf("expected one merged segment, got %d", len(got))
	}
}

func TestRunPublishesEvents(t *testing.T) {
	var mu sync.Mutex
	var events []Event
	runner, err := NewRunner(testPair(t), testConfig(),
		WithWorkers(2),
		WithSink(SinkFunc(func(ev Event) {
			mu.Lock()
			events = append(events, ev)
			mu.Unlock()
		})),
	)
	if err != nil {
		t.Fatalf("NewRunner failed: %v", err)
	}

	tasks := []Task{
		{RecordingID: "rec-a", Features: testFeatures(t, 3, 200, -0.6), Turns: fullTurn("A", 200)},
		{RecordingID: "rec-broken", Features: nil},
	}
	if _, err := runner.Run(context.Background(), "run-1", tasks); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	started := map[string]bool{}
	finished := map[string]string{}
	iterations := 0
	for _, ev := range events {
		if ev.RunID != "run-1" {
			t.Fatalf("event carries run %q, want run-1", ev.RunID)
		}
		switch ev.Kind {
		case EventTaskStarted:
			started[ev.RecordingID] = true
		case EventTaskFinished:
			finished[ev.RecordingID] = ev.Status
		case EventIteration:
			iterations++
			if ev.Iteration == nil {
				t.Error("iteration event without payload")
			}
		}
	}
	if !started["rec-a"] || !started["rec-broken"] {
		t.Errorf("missing task-started events: %v", started)
	}
	if finished["rec-a"] != "ok" {
		t.Errorf("rec-a finished %q, want ok", finished["rec-a"])
	}
	if finished["rec-broken"] != "failed" {
		t.Errorf("rec-broken finished %q, want failed", finished["rec-broken"])
	}
	if iterations == 0 {
		t.Error("expected iteration events from the successful task")
	}
}

func TestRunTaskConfigOverride(t *testing.T) {
	runner, err := NewRunner(testPair(t), testConfig())
	if err != nil {
		t.Fatalf("NewRunner failed: %v", err)
	}

	override := testConfig()
	override.MaxIters = 1
	tasks := []Task{{
		RecordingID: "rec-a",
		Features:    testFeatures(t, 4, 200, -0.6),
		Turns:       fullTurn("A", 200),
		Config:      &override,
	}}
	outcomes, err := runner.Run(context.Background(), "", tasks)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if outcomes[0].Err != nil {
		t.Fatalf("task failed: %v", outcomes[0].Err)
	}
	if outcomes[0].Diagnostics.Reason != vb.ReasonIterationLimit {
		t.Errorf("override should cap iterations, got reason %q", outcomes[0].Diagnostics.Reason)
	}
	if outcomes[0].Diagnostics.Iterations != 1 {
		t.Errorf("expected 1 iteration, got %d", outcomes[0].Diagnostics.Iterations)
	}
}

func TestRunCancelled(t *testing.T) {
	runner, err := NewRunner(testPair(t), testConfig())
	if err != nil {
		t.Fatalf("NewRunner failed: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	tasks := []Task{{RecordingID: "rec-a", Features: testFeatures(t, 5, 200, -0.6), Turns: fullTurn("A", 200)}}
	outcomes, err := runner.Run(ctx, "", tasks)
	if err == nil {
		t.Fatal("expected an error from a cancelled run")
	}
	if len(outcomes) != 1 {
		t.Fatalf("expected outcome slots for every task, got %d", len(outcomes))
	}
}
