package pipeline

import (
	"context"
	"sync"
)

// Buffer reads up to size values ahead of the consumer on its own goroutine.
// A source error is delivered after the values read before it.
func Buffer[T any](p *Pipeline[T], size int) *Pipeline[T] {
	size = max(size, 1)
	return &Pipeline[T]{
		create: func(ctx context.Context) Iterator[T] {
			source := p.create(ctx)
			bctx, cancel := context.WithCancel(ctx)
			out := make(chan result[T], size)
			go func() {
				defer close(out)
				if err := pump(bctx, source, func(v T) bool { return send(bctx, out, result[T]{val: v}) }); err != nil {
					send(bctx, out, result[T]{err: err})
				}
			}()
			return &channelIter[T]{ch: out, stop: stopper(cancel, source)}
		},
	}
}

// Parallel applies fn with n workers. Output order is not preserved; use Run
// when it matters. The first error, from the source or any worker, stops
// every worker and is the last thing the consumer receives.
func Parallel[I, O any](p *Pipeline[I], n int, fn func(context.Context, I) (O, error)) *Pipeline[O] {
	n = max(n, 1)
	return &Pipeline[O]{
		create: func(ctx context.Context) Iterator[O] {
			source := p.create(ctx)
			wctx, cancel := context.WithCancel(ctx)
			in := make(chan I, n)
			out := make(chan result[O], n)

			var (
				once     sync.Once
				firstErr error
				closed   = make(chan struct{})
				closing  sync.Once
			)
			fail := func(err error) {
				once.Do(func() {
					firstErr = err
					cancel()
				})
			}

			go func() {
				defer close(in)
				if err := pump(wctx, source, func(v I) bool { return send(wctx, in, v) }); err != nil {
					fail(err)
				}
			}()

			var wg sync.WaitGroup
			for range n {
				wg.Add(1)
				go func() {
					defer wg.Done()
					for v := range in {
						if wctx.Err() != nil {
							continue
						}
						o, err := fn(wctx, v)
						if err != nil {
							fail(err)
							continue
						}
						send(wctx, out, result[O]{val: o})
					}
				}()
			}

			go func() {
				wg.Wait()
				if firstErr != nil {
					select {
					case out <- result[O]{err: firstErr}:
					case <-closed:
					case <-ctx.Done():
					}
				}
				close(out)
			}()

			stop := stopper(cancel, source)
			return &channelIter[O]{ch: out, stop: func() error {
				closing.Do(func() { close(closed) })
				return stop()
			}}
		},
	}
}

// pump pulls source until it is exhausted, emit refuses a value or ctx ends.
// It returns the source error, if any.
func pump[T any](ctx context.Context, source Iterator[T], emit func(T) bool) error {
	for {
		v, ok, err := source.Next(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		if !ok || !emit(v) {
			return nil
		}
	}
}

// send delivers v unless ctx ends first.
func send[T any](ctx context.Context, ch chan T, v T) bool {
	select {
	case ch <- v:
		return true
	case <-ctx.Done():
		return false
	}
}

func stopper[T any](cancel context.CancelFunc, source Iterator[T]) func() error {
	return func() error {
		cancel()
		return source.Close()
	}
}
