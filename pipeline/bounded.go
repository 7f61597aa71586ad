package pipeline

import (
	"context"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kbukum/varconv/errors"
	"github.com/kbukum/varconv/logger"
)

// Batch is a chunk of stream data tagged with its read-order sequence number.
// Sequence numbers start at 0 and are gap-free for the lifetime of one run.
type Batch[T any] struct {
	Seq  int64
	Data T
}

// TransformFunc turns one input batch into one output payload. It must be
// safe for concurrent use on different batches.
type TransformFunc[I, O any] func(ctx context.Context, b Batch[I]) (O, error)

// Sink persists payloads. Run guarantees at most one concurrent Write and
// calls Close once the writer role has finished; Close must be idempotent.
type Sink[T any] interface {
	Write(ctx context.Context, b Batch[T]) error
	Close() error
}

// Result describes a finished run.
type Result struct {
	// Batches is the number of batches pulled from the stream.
	Batches int64
	// Written is the number of payloads delivered to the sink.
	Written int64
	// Discarded is the number of batches dropped because the run failed.
	Discarded int64
	// PeakInFlight is the highest number of batches/payloads held at once.
	PeakInFlight int
	// Elapsed is the wall-clock duration of the run.
	Elapsed time.Duration
}

const noSeq = int64(math.MaxInt64)

type outcome[O any] struct {
	seq     int64
	payload O
}

// Run drives src through fn into sink with cfg.Parallelism workers.
//
// One reader goroutine pulls batches, a fixed pool of workers transforms them
// and one writer goroutine delivers payloads to the sink. At most
// cfg.QueueCapacity batches/payloads exist between the reader and the sink at
// any time; when the budget is used up the reader blocks before pulling the
// next batch. With cfg.PreserveOrder the sink sees strictly ascending sequence
// numbers.
//
// The first fatal error wins. A stream error stops reading and lets already
// dispatched batches finish; a transform or sink error cancels the remaining
// work. In both cases payloads below the failing sequence number are still
// flushed when ordering allows, then the sink is closed. Shutdown is bounded by
// cfg.ShutdownTimeout.
//
// src and sink are closed on every return path except a shutdown timeout with
// a role still blocked inside them.
func Run[I, O any](ctx context.Context, cfg Config, src Iterator[Batch[I]], fn TransformFunc[I, O], sink Sink[O], opts ...RunOption) (Result, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		_ = src.Close()
		_ = sink.Close()
		return Result{}, err
	}

	o := resolveRunOptions(opts)
	r := &run[I, O]{
		cfg:     cfg,
		src:     src,
		fn:      fn,
		sink:    sink,
		log:     o.logger.WithComponent("pipeline"),
		obs:     o.observer,
		slots:   make(chan struct{}, cfg.QueueCapacity),
		work:    make(chan Batch[I], cfg.QueueCapacity),
		results: make(chan outcome[O], cfg.QueueCapacity),
	}
	r.failSeq.Store(noSeq)
	return r.execute(ctx)
}

type run[I, O any] struct {
	cfg  Config
	src  Iterator[Batch[I]]
	fn   TransformFunc[I, O]
	sink Sink[O]
	log  *logger.Logger
	obs  Observer

	// slots is the capacity budget: one token per batch between read and
	// write/discard.
	slots   chan struct{}
	work    chan Batch[I]
	results chan outcome[O]

	cancel   context.CancelFunc
	errMu    sync.Mutex
	firstErr error
	// failSeq is the lowest sequence number that must not reach the sink.
	failSeq atomic.Int64
	eof     atomic.Bool

	inFlight  atomic.Int64
	peak      atomic.Int64
	batches   atomic.Int64
	written   atomic.Int64
	discarded atomic.Int64
}

func (r *run[I, O]) execute(parent context.Context) (Result, error) {
	start := time.Now()
	ctx, cancel := context.WithCancel(parent)
	r.cancel = cancel
	defer cancel()

	r.log.Debug("run started", logger.Fields(
		"parallelism", r.cfg.Parallelism,
		"queue_capacity", r.cfg.QueueCapacity,
		"preserve_order", r.cfg.PreserveOrder,
	))

	var producers sync.WaitGroup
	producers.Add(1)
	go func() {
		defer producers.Done()
		r.read(ctx)
	}()
	for range r.cfg.Parallelism {
		producers.Add(1)
		go func() {
			defer producers.Done()
			r.transform(ctx)
		}()
	}
	go func() {
		producers.Wait()
		close(r.results)
	}()

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		// The writer flushes validly completed payloads even after cancellation.
		r.write(context.WithoutCancel(parent))
	}()

	select {
	case <-writerDone:
	case <-ctx.Done():
		timer := time.NewTimer(r.cfg.ShutdownTimeout)
		defer timer.Stop()
		select {
		case <-writerDone:
		case <-timer.C:
			cause := r.err()
			if cause == nil && parent.Err() != nil {
				cause = errors.Canceled(parent.Err())
			}
			res := r.result(start)
			err := errors.ShutdownTimeout(r.cfg.ShutdownTimeout.String(), cause)
			r.log.Error("shutdown grace period exceeded", logger.Fields(
				logger.FieldCode, string(errors.ErrCodeShutdownTimeout),
				"in_flight", r.inFlight.Load(),
			))
			return res, err
		}
	}

	if r.cutShort(parent) {
		r.fail(errors.Canceled(parent.Err()), noSeq, false)
	}

	if err := r.sink.Close(); err != nil {
		r.fail(errors.New(errors.ErrCodeOutputResource, errors.StageWrite, "sink close failed").WithCause(err), noSeq, false)
	}

	res := r.result(start)
	if err := r.err(); err != nil {
		fields := logger.Fields(
			logger.FieldCode, string(errors.CodeOf(err)),
			logger.FieldSeq, errors.SeqOf(err),
			"written", res.Written,
			"discarded", res.Discarded,
		)
		r.log.Warn("run failed", logger.MergeWithError(fields, err))
		return res, err
	}

	r.log.Debug("run finished", logger.Fields(
		"batches", res.Batches,
		"peak_in_flight", res.PeakInFlight,
		logger.FieldDuration, res.Elapsed.Milliseconds(),
	))
	return res, nil
}

// read is the reader role. It owns src and closes it on exit.
func (r *run[I, O]) read(ctx context.Context) {
	defer close(r.work)
	defer func() {
		if err := r.src.Close(); err != nil {
			r.log.Warn("stream close failed", logger.MergeWithError(nil, err))
		}
	}()

	var expected int64
	for {
		// Take a slot before pulling so a full pipeline stops the read.
		select {
		case r.slots <- struct{}{}:
		case <-ctx.Done():
			return
		}

		b, ok, err := r.src.Next(ctx)
		if err != nil {
			<-r.slots
			if ctx.Err() != nil {
				return
			}
			r.fail(readError(expected, err), expected, false)
			return
		}
		if !ok {
			<-r.slots
			r.eof.Store(true)
			return
		}
		if b.Seq != expected {
			<-r.slots
			r.fail(errors.DecodeBoundary(b.Seq, fmt.Sprintf("sequence gap: expected batch %d", expected)), expected, false)
			return
		}
		expected++

		r.batches.Add(1)
		r.track(1)
		r.obs.BatchRead(b.Seq)

		select {
		case r.work <- b:
		case <-ctx.Done():
			r.discard()
			return
		}
	}
}

// transform is the worker role. A worker is free whenever it is blocked receiving.
func (r *run[I, O]) transform(ctx context.Context) {
	for b := range r.work {
		if ctx.Err() != nil {
			r.discard()
			continue
		}

		started := time.Now()
		payload, err := r.fn(ctx, b)
		r.obs.BatchTransformed(b.Seq, time.Since(started), err)
		if err != nil {
			r.discard()
			if ctx.Err() != nil {
				// Abandoned because the run is already stopping.
				continue
			}
			r.fail(transformError(b.Seq, err), b.Seq, true)
			continue
		}

		// Never blocks: results has one buffer slot per capacity token.
		r.results <- outcome[O]{seq: b.Seq, payload: payload}
	}
}

// write is the single sink-writer role. The reorder buffer is local to it.
func (r *run[I, O]) write(ctx context.Context) {
	var (
		pending    = make(map[int64]O)
		next       int64
		sinkFailed bool
	)

	emit := func(seq int64, payload O) {
		if sinkFailed || seq >= r.failSeq.Load() {
			r.discard()
			return
		}
		if err := r.sink.Write(ctx, Batch[O]{Seq: seq, Data: payload}); err != nil {
			sinkFailed = true
			r.discard()
			r.fail(sinkError(seq, err), seq, true)
			return
		}
		r.written.Add(1)
		r.obs.BatchWritten(seq)
		r.release()
	}

	for o := range r.results {
		if !r.cfg.PreserveOrder {
			emit(o.seq, o.payload)
			continue
		}
		pending[o.seq] = o.payload
		for {
			payload, ok := pending[next]
			if !ok {
				break
			}
			delete(pending, next)
			emit(next, payload)
			next++
		}
	}

	// Anything left sits behind a gap left by a failed or abandoned batch.
	for range pending {
		r.discard()
	}
}

// fail records err if it is the first fatal error. seq lowers the flush limit;
// stop cancels the remaining work.
func (r *run[I, O]) fail(err error, seq int64, stop bool) {
	r.errMu.Lock()
	if r.firstErr == nil {
		r.firstErr = err
	}
	r.errMu.Unlock()
	for {
		cur := r.failSeq.Load()
		if seq >= cur || r.failSeq.CompareAndSwap(cur, seq) {
			break
		}
	}
	if stop {
		r.cancel()
	}
}

// cutShort reports whether a parent cancellation left part of the stream
// unread or unwritten. A cancellation after the last write is not a failure.
func (r *run[I, O]) cutShort(parent context.Context) bool {
	if parent.Err() == nil {
		return false
	}
	return !r.eof.Load() || r.written.Load() != r.batches.Load()
}

func (r *run[I, O]) err() error {
	r.errMu.Lock()
	defer r.errMu.Unlock()
	return r.firstErr
}

func (r *run[I, O]) track(delta int64) {
	n := r.inFlight.Add(delta)
	for {
		p := r.peak.Load()
		if n <= p || r.peak.CompareAndSwap(p, n) {
			break
		}
	}
	r.obs.InFlight(int(n))
}

// release returns the slot of a batch that reached the sink.
func (r *run[I, O]) release() {
	r.track(-1)
	<-r.slots
}

// discard returns the slot of a batch that will never reach the sink.
func (r *run[I, O]) discard() {
	r.discarded.Add(1)
	r.release()
}

func (r *run[I, O]) result(start time.Time) Result {
	return Result{
		Batches:      r.batches.Load(),
		Written:      r.written.Load(),
		Discarded:    r.discarded.Load(),
		PeakInFlight: int(r.peak.Load()),
		Elapsed:      time.Since(start),
	}
}

func readError(seq int64, err error) error {
	if appErr, ok := errors.As(err); ok {
		return appErr
	}
	return errors.New(errors.ErrCodeInputResource, errors.StageRead, "stream read failed").WithSeq(seq).WithCause(err)
}

func transformError(seq int64, err error) error {
	if appErr, ok := errors.As(err); ok {
		if appErr.Seq < 0 {
			appErr.Seq = seq
		}
		return appErr
	}
	return errors.Transform(seq, err)
}

func sinkError(seq int64, err error) error {
	if appErr, ok := errors.As(err); ok {
		return appErr
	}
	return errors.New(errors.ErrCodeOutputResource, errors.StageWrite, "sink write failed").WithSeq(seq).WithCause(err)
}
