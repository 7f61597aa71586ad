// Package pipeline provides pull-based stream operators and a bounded
// parallel batch runner.
//
// # Operators
//
// Pipelines are lazy. No work happens until values are pulled via Collect
// or Iter, and each stage pulls from the previous one on demand.
//
//   - Filter, Tap, Reduce: single-goroutine stages
//   - Chunk: group values into slices by size or timeout
//   - Buffer: read ahead into a bounded channel
//   - Parallel: concurrent map with a worker pool (order NOT preserved)
//   - Sequenced: number values so Run can consume them
//
// The region index loader is built from them:
//
//	features := pipeline.Filter(pipeline.From(src), keep)
//	added := pipeline.Parallel(pipeline.Chunk(features, 500, 0), 4, store.Add)
//	total, err := pipeline.Collect(ctx, pipeline.Reduce(added, int64(0), sum))
//
// # Bounded runs
//
// Run drives one reader, Config.Parallelism transform workers and one
// writer. At most Config.QueueCapacity batches are held between reader and
// sink, payloads reach the sink in sequence order when PreserveOrder is set,
// and the first failure stops the run:
//
//	res, err := pipeline.Run(ctx, cfg, blocks, transform, sink,
//	    pipeline.WithLogger(log),
//	    pipeline.WithObserver(metrics),
//	)
package pipeline
