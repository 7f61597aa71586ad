package app

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"github.com/kbukum/varconv/bootstrap"
	"github.com/kbukum/varconv/logger"
	"github.com/kbukum/varconv/observability"
	"github.com/kbukum/varconv/pipeline"
	"github.com/kbukum/varconv/storage"
	"github.com/kbukum/varconv/variant"
	"github.com/kbukum/varconv/version"
)

// ConvertRequest names the files of one conversion.
type ConvertRequest struct {
	Input  string
	Output string
	// RunID tags logs, spans and container metadata. Generated when empty.
	RunID string
}

// ConvertReport is the outcome of a conversion command.
type ConvertReport struct {
	variant.ConvertResult
	RunID     string
	Published []storage.Published
}

// Convert runs "variant convert": VCF to Avro, then publishes the output and
// its .meta file when storage is enabled and the output is a file.
func Convert(ctx context.Context, cfg *Config, req ConvertRequest, opts ...bootstrap.Option) (ConvertReport, error) {
	report := ConvertReport{RunID: req.RunID}
	if report.RunID == "" {
		report.RunID = NewRunID()
	}

	a, err := newApp(cfg, opts...)
	if err != nil {
		return report, err
	}

	var store *storage.Component
	if cfg.Storage.Enabled && !variant.IsStdout(req.Output) {
		store = storage.NewComponent(cfg.Storage, a.Logger)
		if err := a.RegisterComponent(store); err != nil {
			return report, err
		}
	}

	log := a.Logger.WithRunID(report.RunID)
	err = a.RunTask(ctx, func(ctx context.Context) error {
		ctx, span := observability.StartSpan(ctx, observability.SpanConvert,
			attribute.String(observability.AttrRunID, report.RunID),
			attribute.String(observability.AttrInput, req.Input),
			attribute.String(observability.AttrOutput, req.Output),
			attribute.String(observability.AttrCodec, cfg.Compression),
		)

		metrics, err := observability.NewPipelineMetrics(ctx, observability.Meter(), CommandConvert)
		var observer pipeline.Observer
		if err != nil {
			log.Warn("pipeline metrics disabled", logger.MergeWithError(nil, err))
		} else {
			observer = metrics
		}

		res, err := variant.Convert(ctx, variant.Options{
			Input:          req.Input,
			Output:         req.Output,
			Codec:          cfg.Compression,
			Pipeline:       cfg.Pipeline.Run(),
			BatchSizeBytes: cfg.Pipeline.BatchSize,
			MaxLineBytes:   cfg.Pipeline.MaxLineBytes,
			RunID:          report.RunID,
			Version:        version.GetShortVersion(),
			Logger:         log,
			Observer:       observer,
		})
		report.ConvertResult = res
		if err != nil {
			if metrics != nil {
				metrics.RecordError(err)
			}
			observability.EndSpan(span, err)
			return err
		}
		if metrics != nil {
			metrics.RecordTotals(res.Records, res.BytesRead)
		}
		span.SetAttributes(
			attribute.Int64(observability.AttrBatches, res.Pipeline.Batches),
			attribute.Int64(observability.AttrRecords, res.Records),
		)
		observability.EndSpan(span, nil)

		if store == nil {
			return nil
		}
		report.Published, err = publish(ctx, store, cfg.Storage, log, res)
		if err != nil && metrics != nil {
			metrics.RecordError(err)
		}
		return err
	})
	return report, err
}

func publish(ctx context.Context, store *storage.Component, cfg storage.Config, log *logger.Logger, res variant.ConvertResult) ([]storage.Published, error) {
	files := []string{res.Output}
	if res.MetadataPath != "" {
		files = append(files, res.MetadataPath)
	}

	ctx, span := observability.StartSpan(ctx, observability.SpanPublish,
		attribute.String(observability.AttrOutput, res.Output),
	)
	published, err := storage.NewPublisher(store.Storage(), cfg, log).Publish(ctx, files...)
	observability.EndSpan(span, err)
	return published, err
}
