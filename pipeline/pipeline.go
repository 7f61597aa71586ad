package pipeline

import "context"

// Iterator is a pull-based stream. Next returns (zero, false, nil) once the
// stream is exhausted. After Next returns an error the stream is finished.
type Iterator[T any] interface {
	Next(ctx context.Context) (T, bool, error)
	Close() error
}

// Pipeline is a lazy stream description. Nothing runs until it is pulled
// through Collect or Iter; every pull builds a fresh chain of iterators.
type Pipeline[T any] struct {
	create func(ctx context.Context) Iterator[T]
}

// From wraps an existing iterator. The pipeline can be pulled once.
func From[T any](iter Iterator[T]) *Pipeline[T] {
	return &Pipeline[T]{
		create: func(context.Context) Iterator[T] { return iter },
	}
}

// FromSlice streams items in order.
func FromSlice[T any](items []T) *Pipeline[T] {
	return &Pipeline[T]{
		create: func(context.Context) Iterator[T] {
			i := 0
			return &iterFunc[T]{next: func(context.Context) (T, bool, error) {
				if i >= len(items) {
					var zero T
					return zero, false, nil
				}
				i++
				return items[i-1], true, nil
			}}
		},
	}
}

// Iter starts the pipeline and returns its iterator. The caller must Close it.
func (p *Pipeline[T]) Iter(ctx context.Context) Iterator[T] {
	return p.create(ctx)
}

// Collect pulls every value. On error it returns the values received so far.
func Collect[T any](ctx context.Context, p *Pipeline[T]) ([]T, error) {
	it := p.create(ctx)
	defer it.Close()
	var out []T
	for {
		v, ok, err := it.Next(ctx)
		if err != nil {
			return out, err
		}
		if !ok {
			return out, nil
		}
		out = append(out, v)
	}
}

// iterFunc adapts a pair of functions to Iterator. close may be nil.
type iterFunc[T any] struct {
	next  func(ctx context.Context) (T, bool, error)
	close func() error
}

func (it *iterFunc[T]) Next(ctx context.Context) (T, bool, error) { return it.next(ctx) }

func (it *iterFunc[T]) Close() error {
	if it.close == nil {
		return nil
	}
	return it.close()
}

// result carries one value or the terminal error across a channel.
type result[T any] struct {
	val T
	err error
}

// channelIter drains the output channel of a concurrent stage.
type channelIter[T any] struct {
	ch     <-chan result[T]
	stop   func() error
	failed bool
}

func (it *channelIter[T]) Next(ctx context.Context) (T, bool, error) {
	var zero T
	if it.failed {
		return zero, false, nil
	}
	select {
	case r, open := <-it.ch:
		if !open {
			// A stage stopped by cancellation closes its channel early.
			if err := ctx.Err(); err != nil {
				it.failed = true
				return zero, false, err
			}
			return zero, false, nil
		}
		if r.err != nil {
			it.failed = true
			return zero, false, r.err
		}
		return r.val, true, nil
	case <-ctx.Done():
		it.failed = true
		return zero, false, ctx.Err()
	}
}

func (it *channelIter[T]) Close() error { return it.stop() }
