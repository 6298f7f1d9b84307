package pipeline

import "context"

// Iterator pulls one value at a time from a stage. Next reports
// (zero, false, nil) once the stream is exhausted.
type Iterator[T any] interface {
	Next(ctx context.Context) (T, bool, error)
	// Close releases whatever the iterator holds open.
	Close() error
}

// Pipeline is a lazy chain of stages. Nothing runs until Collect pulls
// values through it, so each stage exerts backpressure on the one
// before it.
type Pipeline[T any] struct {
	open func(ctx context.Context) Iterator[T]
}

// item carries one value or error between goroutines.
type item[T any] struct {
	val T
	ok  bool
	err error
}

// chanIter adapts a channel of items into an Iterator. Concurrent
// stages hand their output over through it.
type chanIter[T any] struct {
	ch      <-chan item[T]
	onClose func() error
}

func (it *chanIter[T]) Next(ctx context.Context) (T, bool, error) {
	var zero T
	select {
	case r, open := <-it.ch:
		if !open {
			return zero, false, nil
		}
		return r.val, r.ok, r.err
	case <-ctx.Done():
		return zero, false, ctx.Err()
	}
}

func (it *chanIter[T]) Close() error {
	if it.onClose != nil {
		return it.onClose()
	}
	return nil
}

// FromSlice stages a fixed batch, such as the recordings of one job.
func FromSlice[T any](items []T) *Pipeline[T] {
	return &Pipeline[T]{
		open: func(context.Context) Iterator[T] {
			return &sliceSource[T]{items: items}
		},
	}
}

// Collect drains the pipeline into a slice. The partial result is
// returned alongside the first error.
func Collect[T any](ctx context.Context, p *Pipeline[T]) ([]T, error) {
	it := p.open(ctx)
	defer it.Close()

	var out []T
	for {
		val, ok, err := it.Next(ctx)
		if err != nil {
			return out, err
		}
		if !ok {
			return out, nil
		}
		out = append(out, val)
	}
}

type sliceSource[T any] struct {
	items []T
	pos   int
}

func (s *sliceSource[T]) Next(context.Context) (T, bool, error) {
	if s.pos == len(s.items) {
		var zero T
		return zero, false, nil
	}
	v := s.items[s.pos]
	s.pos++
	return v, true, nil
}

func (s *sliceSource[T]) Close() error { return nil }
