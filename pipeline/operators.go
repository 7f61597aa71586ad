package pipeline

import "context"

// Filter keeps only values that satisfy keep.
func Filter[T any](p *Pipeline[T], keep func(T) bool) *Pipeline[T] {
	return through(p, func(_ context.Context, v T) (T, bool, error) {
		return v, keep(v), nil
	})
}

// Tap calls fn for each value and passes the value on unchanged. An error from
// fn ends the stream.
func Tap[T any](p *Pipeline[T], fn func(context.Context, T) error) *Pipeline[T] {
	return through(p, func(ctx context.Context, v T) (T, bool, error) {
		if err := fn(ctx, v); err != nil {
			return v, false, err
		}
		return v, true, nil
	})
}

// Reduce folds every value into acc and yields the final accumulator once.
// An empty stream yields init.
func Reduce[T, R any](p *Pipeline[T], init R, fn func(R, T) R) *Pipeline[R] {
	return &Pipeline[R]{
		create: func(ctx context.Context) Iterator[R] {
			source := p.create(ctx)
			acc, done := init, false
			return &iterFunc[R]{
				next: func(ctx context.Context) (R, bool, error) {
					var zero R
					if done {
						return zero, false, nil
					}
					for {
						v, ok, err := source.Next(ctx)
						if err != nil {
							done = true
							return zero, false, err
						}
						if !ok {
							done = true
							return acc, true, nil
						}
						acc = fn(acc, v)
					}
				},
				close: source.Close,
			}
		},
	}
}

// stepFunc maps one input value. emit false drops the value; an error ends
// the stream.
type stepFunc[I, O any] func(ctx context.Context, v I) (out O, emit bool, err error)

// through builds a single-goroutine stage from step.
func through[I, O any](p *Pipeline[I], step stepFunc[I, O]) *Pipeline[O] {
	return &Pipeline[O]{
		create: func(ctx context.Context) Iterator[O] {
			return &stageIter[I, O]{source: p.create(ctx), step: step}
		},
	}
}

type stageIter[I, O any] struct {
	source Iterator[I]
	step   stepFunc[I, O]
	done   bool
}

func (it *stageIter[I, O]) Next(ctx context.Context) (O, bool, error) {
	var zero O
	for !it.done {
		v, ok, err := it.source.Next(ctx)
		if err != nil || !ok {
			it.done = true
			return zero, false, err
		}
		out, emit, err := it.step(ctx, v)
		if err != nil {
			it.done = true
			return zero, false, err
		}
		if emit {
			return out, true, nil
		}
	}
	return zero, false, nil
}

func (it *stageIter[I, O]) Close() error { return it.source.Close() }
