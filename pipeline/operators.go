package pipeline

import "context"

// Map transforms each value in order. An fn error ends the stream.
func Map[I, O any](p *Pipeline[I], fn func(context.Context, I) (O, error)) *Pipeline[O] {
	return &Pipeline[O]{
		open: func(ctx context.Context) Iterator[O] {
			return &mapStage[I, O]{in: p.open(ctx), fn: fn}
		},
	}
}

// Tap runs fn on each value and passes it through unchanged. Suited to
// counters and progress reporting along the chain.
func Tap[T any](p *Pipeline[T], fn func(context.Context, T) error) *Pipeline[T] {
	return &Pipeline[T]{
		open: func(ctx context.Context) Iterator[T] {
			return &tapStage[T]{in: p.open(ctx), fn: fn}
		},
	}
}

type mapStage[I, O any] struct {
	in Iterator[I]
	fn func(context.Context, I) (O, error)
}

func (m *mapStage[I, O]) Next(ctx context.Context) (O, bool, error) {
	var zero O
	v, ok, err := m.in.Next(ctx)
	if err != nil || !ok {
		return zero, false, err
	}
	out, err := m.fn(ctx, v)
	if err != nil {
		return zero, false, err
	}
	return out, true, nil
}

func (m *mapStage[I, O]) Close() error { return m.in.Close() }

type tapStage[T any] struct {
	in Iterator[T]
	fn func(context.Context, T) error
}

func (t *tapStage[T]) Next(ctx context.Context) (T, bool, error) {
	v, ok, err := t.in.Next(ctx)
	if err != nil || !ok {
		return v, ok, err
	}
	if err := t.fn(ctx, v); err != nil {
		var zero T
		return zero, false, err
	}
	return v, true, nil
}

func (t *tapStage[T]) Close() error { return t.in.Close() }
