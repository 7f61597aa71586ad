package app

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"github.com/kbukum/varconv/bootstrap"
	"github.com/kbukum/varconv/errors"
	"github.com/kbukum/varconv/index"
	"github.com/kbukum/varconv/logger"
	"github.com/kbukum/varconv/observability"
)

func errDatabaseRequired() error {
	return errors.Configuration("database", "index database is required")
}

// IndexRequest describes one "variant index" load.
type IndexRequest struct {
	Input       string
	Type        string
	LoadType    string
	Database    string
	Chromosomes []string
	RunID       string
}

// IndexReport is the outcome of an index command.
type IndexReport struct {
	index.LoadResult
	RunID    string
	Database string
}

// Index runs "variant index": loads features into the redis region index.
func Index(ctx context.Context, cfg *Config, req IndexRequest, opts ...bootstrap.Option) (IndexReport, error) {
	report := IndexReport{RunID: req.RunID, Database: req.Database}
	if report.RunID == "" {
		report.RunID = NewRunID()
	}
	if report.Database == "" {
		report.Database = cfg.Index.Database
	}
	if report.Database == "" {
		return report, errDatabaseRequired()
	}

	a, err := newApp(cfg, opts...)
	if err != nil {
		return report, err
	}
	rc, err := registerIndexStore(a)
	if err != nil {
		return report, err
	}

	log := a.Logger.WithRunID(report.RunID)
	err = a.RunTask(ctx, func(ctx context.Context) error {
		ctx, span := observability.StartSpan(ctx, observability.SpanIndex,
			attribute.String(observability.AttrRunID, report.RunID),
			attribute.String(observability.AttrInput, req.Input),
			attribute.String("varconv.database", report.Database),
		)
		metrics, err := observability.NewPipelineMetrics(ctx, observability.Meter(), CommandIndex)
		if err != nil {
			log.Warn("index metrics disabled", logger.MergeWithError(nil, err))
			metrics = nil
		}

		res, err := index.Load(ctx, index.NewStore(rc.Client(), report.Database), index.LoadOptions{
			Input:        req.Input,
			Format:       req.Type,
			LoadType:     req.LoadType,
			Chromosomes:  req.Chromosomes,
			BatchSize:    cfg.Index.BatchSize,
			Workers:      cfg.Index.Workers,
			MaxLineBytes: cfg.Pipeline.MaxLineBytes,
			RunID:        report.RunID,
			Logger:       log,
		})
		report.LoadResult = res
		if metrics != nil {
			if err != nil {
				metrics.RecordError(err)
			} else {
				metrics.RecordTotals(res.Added, 0)
			}
		}
		span.SetAttributes(attribute.Int64(observability.AttrRecords, res.Read))
		observability.EndSpan(span, err)
		return err
	})
	return report, err
}

// QueryRequest selects the indexed regions overlapping Region
// ("chr1:100-200" or a bare chromosome).
type QueryRequest struct {
	Database string
	Region   string
}

// Query runs "variant query" against the region index.
func Query(ctx context.Context, cfg *Config, req QueryRequest, opts ...bootstrap.Option) ([]index.Feature, error) {
	chrom, start, end, err := index.ParseRegion(req.Region)
	if err != nil {
		return nil, err
	}
	database := req.Database
	if database == "" {
		database = cfg.Index.Database
	}
	if database == "" {
		return nil, errDatabaseRequired()
	}

	a, err := newApp(cfg, opts...)
	if err != nil {
		return nil, err
	}
	rc, err := registerIndexStore(a)
	if err != nil {
		return nil, err
	}

	var features []index.Feature
	err = a.RunTask(ctx, func(ctx context.Context) error {
		var err error
		features, err = index.NewStore(rc.Client(), database).Query(ctx, chrom, start, end)
		return err
	})
	return features, err
}
