package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
)

// --- core tests ---

func TestFromSliceCollect(t *testing.T) {
	got, err := Collect(context.Background(), FromSlice([]string{"rec-1", "rec-2", "rec-3"}))
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	want := []string{"rec-1", "rec-2", "rec-3"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("value %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestCollectEmpty(t *testing.T) {
	got, err := Collect(context.Background(), FromSlice([]int(nil)))
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no values, got %v", got)
	}
}

// --- map tests ---

func TestMapTransformsInOrder(t *testing.T) {
	src := FromSlice([]int{1, 2, 3})
	labeled := Map(src, func(_ context.Context, n int) (string, error) {
		return fmt.Sprintf("rec-%d", n), nil
	})
	got, err := Collect(context.Background(), labeled)
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	want := []string{"rec-1", "rec-2", "rec-3"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("value %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestMapStopsOnError(t *testing.T) {
	boom := errors.New("bad frame count")
	calls := 0
	p := Map(FromSlice([]int{1, 2, 3}), func(_ context.Context, n int) (int, error) {
		calls++
		if n == 2 {
			return 0, boom
		}
		return n, nil
	})
	got, err := Collect(context.Background(), p)
	if !errors.Is(err, boom) {
		t.Fatalf("expected the mapping error, got %v", err)
	}
	if calls != 2 {
		t.Errorf("expected mapping to stop after the failure, got %d calls", calls)
	}
	if len(got) != 1 || got[0] != 1 {
		t.Errorf("expected the values before the failure, got %v", got)
	}
}

// --- tap tests ---

func TestTapSeesEveryValue(t *testing.T) {
	var seen []int
	p := Tap(FromSlice([]int{4, 5, 6}), func(_ context.Context, n int) error {
		seen = append(seen, n)
		return nil
	})
	got, err := Collect(context.Background(), p)
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	if len(got) != 3 || got[0] != 4 || got[2] != 6 {
		t.Errorf("tap altered the stream: %v", got)
	}
	if len(seen) != 3 {
		t.Errorf("tap saw %d values, want 3", len(seen))
	}
}

func TestTapErrorStopsStream(t *testing.T) {
	boom := errors.New("sink closed")
	p := Tap(FromSlice([]int{1, 2}), func(_ context.Context, _ int) error {
		return boom
	})
	if _, err := Collect(context.Background(), p); !errors.Is(err, boom) {
		t.Fatalf("expected the tap error, got %v", err)
	}
}

// --- parallel tests ---

func TestParallelProcessesAll(t *testing.T) {
	in := make([]int, 40)
	for i := range in {
		in[i] = i
	}
	p := Parallel(FromSlice(in), 4, func(_ context.Context, n int) (int, error) {
		return n * 10, nil
	})
	got, err := Collect(context.Background(), p)
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	if len(got) != len(in) {
		t.Fatalf("got %d values, want %d", len(got), len(in))
	}
	sort.Ints(got)
	for i, v := range got {
		if v != i*10 {
			t.Fatalf("sorted value %d = %d, want %d", i, v, i*10)
		}
	}
}

func TestParallelBoundsConcurrency(t *testing.T) {
	const workers = 3
	var mu sync.Mutex
	running, peak := 0, 0
	gate := make(chan struct{})

	p := Parallel(FromSlice(make([]int, 12)), workers, func(_ context.Context, n int) (int, error) {
		mu.Lock()
		running++
		if running > peak {
			peak = running
		}
		release := running == workers
		mu.Unlock()
		if release {
			select {
			case <-gate:
			default:
				close(gate)
			}
		}
		<-gate
		mu.Lock()
		running--
		mu.Unlock()
		return n, nil
	})
	if _, err := Collect(context.Background(), p); err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	if peak != workers {
		t.Errorf("peak concurrency %d, want %d", peak, workers)
	}
}

func TestParallelPropagatesError(t *testing.T) {
	boom := errors.New("recording failed")
	var calls atomic.Int32
	p := Parallel(FromSlice([]int{0, 1, 2, 3, 4, 5}), 2, func(_ context.Context, n int) (int, error) {
		calls.Add(1)
		if n == 3 {
			return 0, boom
		}
		return n, nil
	})
	if _, err := Collect(context.Background(), p); !errors.Is(err, boom) {
		t.Fatalf("expected the worker error, got %v", err)
	}
	if calls.Load() > 6 {
		t.Errorf("workers kept running past the input: %d calls", calls.Load())
	}
}

func TestParallelHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	started := make(chan struct{}, 1)
	p := Parallel(FromSlice(make([]int, 100)), 2, func(ctx context.Context, n int) (int, error) {
		select {
		case started <- struct{}{}:
		default:
		}
		<-ctx.Done()
		return 0, ctx.Err()
	})

	done := make(chan error, 1)
	go func() {
		_, err := Collect(ctx, p)
		done <- err
	}()
	<-started
	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
