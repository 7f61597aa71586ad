package index

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	"github.com/kbukum/varconv/errors"
	"github.com/kbukum/varconv/logger"
	"github.com/kbukum/varconv/pipeline"
	"github.com/kbukum/varconv/validation"
)

const (
	DefaultBatchSize = 500
	DefaultWorkers   = 4
)

// LoadOptions configures one index load.
type LoadOptions struct {
	Input    string
	Format   string
	LoadType string
	// Chromosomes restricts the load to the listed chromosomes. Empty loads all.
	Chromosomes []string
	// BatchSize is the number of features written per round trip.
	BatchSize int
	// Workers is the number of concurrent writers.
	Workers      int
	MaxLineBytes int
	RunID        string
	Logger       *logger.Logger
}

func (o *LoadOptions) applyDefaults() {
	if o.BatchSize == 0 {
		o.BatchSize = DefaultBatchSize
	}
	if o.Workers == 0 {
		o.Workers = DefaultWorkers
	}
	if o.Logger == nil {
		o.Logger = logger.Nop()
	}
}

// Validate checks the options and reports every problem at once.
func (o *LoadOptions) Validate() error {
	v := validation.New().
		Required("input", o.Input).
		Min("batch_size", o.BatchSize, 1).
		Min("workers", o.Workers, 1)
	if _, err := ParseFormat(o.Format); err != nil {
		v.Merge("type", err)
	}
	if _, err := ParseLoadType(o.LoadType); err != nil {
		v.Merge("load_type", err)
	}
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

// Manifest records the outcome of the last load of one input.
type Manifest struct {
	Input    string    `json:"input"`
	Format   Format    `json:"format"`
	LoadType LoadType  `json:"load_type"`
	Read     int64     `json:"read"`
	Added    int64     `json:"added"`
	RunID    string    `json:"run_id,omitempty"`
	LoadedAt time.Time `json:"loaded_at"`
}

// LoadResult summarizes a load.
type LoadResult struct {
	Input  string
	Format Format
	// Read is the number of features parsed from the input.
	Read int64
	// Skipped is the number of features outside the chromosome filter.
	Skipped int64
	// Added is the number of regions new to the store.
	Added   int64
	Elapsed time.Duration
}

// Load streams the features of opts.Input into store. With LoadOverwrite the
// namespace is cleared first.
func Load(ctx context.Context, store *Store, opts LoadOptions) (LoadResult, error) {
	start := time.Now()
	opts.applyDefaults()
	if err := opts.Validate(); err != nil {
		return LoadResult{Input: opts.Input}, err
	}
	format, _ := ParseFormat(opts.Format)
	loadType, _ := ParseLoadType(opts.LoadType)
	res := LoadResult{Input: opts.Input, Format: format}
	log := opts.Logger.WithComponent("index")

	src, err := Open(opts.Input, format, opts.MaxLineBytes)
	if err != nil {
		return res, err
	}
	if loadType == LoadOverwrite {
		if err := store.Reset(ctx); err != nil {
			_ = src.Close()
			return res, err
		}
		log.Info("namespace cleared", logger.Fields("database", store.Database()))
	}

	keep := chromosomeFilter(opts.Chromosomes)
	var read, skipped atomic.Int64

	features := pipeline.Tap(pipeline.From(src), func(context.Context, Feature) error {
		read.Add(1)
		return nil
	})
	selected := pipeline.Filter(features, func(f Feature) bool {
		if keep(f.Chrom) {
			return true
		}
		skipped.Add(1)
		return false
	})
	// Parsing runs ahead of the store by up to one batch.
	batches := pipeline.Chunk(pipeline.Buffer(selected, opts.BatchSize), opts.BatchSize, 0)
	added := pipeline.Parallel(batches, opts.Workers, store.Add)
	total := pipeline.Reduce(added, int64(0), func(acc, n int64) int64 { return acc + n })

	sums, err := pipeline.Collect(ctx, total)
	res.Read, res.Skipped = read.Load(), skipped.Load()
	res.Elapsed = time.Since(start)
	if err != nil {
		if ctx.Err() != nil {
			return res, errors.Canceled(ctx.Err())
		}
		return res, err
	}
	if len(sums) == 1 {
		res.Added = sums[0]
	}

	m := Manifest{
		Input:    opts.Input,
		Format:   format,
		LoadType: loadType,
		Read:     res.Read,
		Added:    res.Added,
		RunID:    opts.RunID,
		LoadedAt: time.Now().UTC(),
	}
	if err := store.SaveManifest(ctx, m); err != nil {
		return res, err
	}

	log.Info("index loaded", logger.Fields(
		logger.FieldInput, opts.Input,
		"database", store.Database(),
		"format", string(format),
		"read", res.Read,
		"skipped", res.Skipped,
		"added", res.Added,
		logger.FieldDuration, res.Elapsed.Milliseconds(),
	))
	return res, nil
}

func chromosomeFilter(chroms []string) func(string) bool {
	if len(chroms) == 0 {
		return func(string) bool { return true }
	}
	set := make(map[string]struct{}, len(chroms))
	for _, c := range chroms {
		if c = strings.TrimSpace(c); c != "" {
			set[c] = struct{}{}
		}
	}
	return func(c string) bool {
		_, ok := set[c]
		return ok
	}
}
