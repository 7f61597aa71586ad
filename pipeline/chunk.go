package pipeline

import (
	"context"
	"time"
)

// Chunk collects up to size values or waits timeout (whichever comes first),
// then emits them as a slice.
//
// size=0 means collect until timeout. timeout=0 means collect until size.
// Both zero defaults to size=1.
func Chunk[T any](p *Pipeline[T], size int, timeout time.Duration) *Pipeline[[]T] {
	if size <= 0 && timeout <= 0 {
		size = 1
	}
	return &Pipeline[[]T]{
		create: func(ctx context.Context) Iterator[[]T] {
			return &chunkIter[T]{
				source:  p.create(ctx),
				size:    size,
				timeout: timeout,
			}
		},
	}
}

type chunkIter[T any] struct {
	source  Iterator[T]
	size    int
	timeout time.Duration
	done    bool
	pending error
}

func (it *chunkIter[T]) Next(ctx context.Context) (result []T, ok bool, err error) {
	if it.pending != nil {
		err, it.pending = it.pending, nil
		it.done = true
		return nil, false, err
	}
	if it.done {
		return nil, false, nil
	}

	var chunk []T
	var timer <-chan time.Time
	if it.timeout > 0 {
		t := time.NewTimer(it.timeout)
		defer t.Stop()
		timer = t.C
	}

	for {
		if it.size > 0 && len(chunk) >= it.size {
			return chunk, true, nil
		}

		val, ok, err := it.source.Next(ctx)
		if err != nil {
			if len(chunk) > 0 {
				// Emit the partial chunk; the error surfaces on the next call.
				it.pending = err
				return chunk, true, nil
			}
			it.done = true
			return nil, false, err
		}
		if !ok {
			it.done = true
			if len(chunk) > 0 {
				return chunk, true, nil
			}
			return nil, false, nil
		}

		chunk = append(chunk, val)

		if timer != nil {
			select {
			case <-timer:
				return chunk, true, nil
			default:
			}
		}
	}
}

func (it *chunkIter[T]) Close() error { return it.source.Close() }

// Sequenced tags every value with its zero-based position, producing a
// stream Run accepts.
func Sequenced[T any](p *Pipeline[T]) *Pipeline[Batch[T]] {
	return &Pipeline[Batch[T]]{
		create: func(ctx context.Context) Iterator[Batch[T]] {
			var seq int64
			return &stageIter[T, Batch[T]]{
				source: p.create(ctx),
				step: func(_ context.Context, v T) (Batch[T], bool, error) {
					b := Batch[T]{Seq: seq, Data: v}
					seq++
					return b, true, nil
				},
			}
		},
	}
}
