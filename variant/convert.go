package variant

import (
	"context"
	"time"

	"github.com/kbukum/varconv/container"
	"github.com/kbukum/varconv/errors"
	"github.com/kbukum/varconv/logger"
	"github.com/kbukum/varconv/pipeline"
	"github.com/kbukum/varconv/validation"
)

// Container header metadata keys added by Convert.
const (
	MetaRunID      = "varconv.run_id"
	MetaVersion    = "varconv.version"
	MetaFileFormat = "varconv.fileformat"
)

// Options configures a conversion.
type Options struct {
	Input  string
	Output string
	Codec  string

	Pipeline       pipeline.Config
	BatchSizeBytes int
	MaxLineBytes   int

	RunID    string
	Version  string
	Logger   *logger.Logger
	Observer pipeline.Observer
}

func (o *Options) applyDefaults() {
	o.Pipeline.ApplyDefaults()
	if o.BatchSizeBytes == 0 {
		o.BatchSizeBytes = DefaultBatchSizeBytes
	}
	if o.MaxLineBytes == 0 {
		o.MaxLineBytes = DefaultMaxLineBytes
	}
	if o.Logger == nil {
		o.Logger = logger.Nop()
	}
	if o.Observer == nil {
		o.Observer = pipeline.NopObserver{}
	}
}

// Validate checks every option and reports all problems at once.
func (o *Options) Validate() error {
	v := validation.New().
		Required("input", o.Input).
		Min("batch_size", o.BatchSizeBytes, 1).
		Min("max_line_bytes", o.MaxLineBytes, 1).
		Merge("pipeline", o.Pipeline.Validate())
	if _, err := container.CanonicalCodec(o.Codec); err != nil {
		v.Merge("codec", err)
	}
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

// ConvertResult summarizes a successful conversion.
type ConvertResult struct {
	Pipeline     pipeline.Result
	Input        string
	Output       string
	MetadataPath string
	Records      int64
	BytesRead    int64
	// MetadataErr is set when the side file could not be written. The
	// conversion itself still succeeded.
	MetadataErr error
	Elapsed     time.Duration
}

// Convert runs one VCF to Avro conversion. Configuration, the input and the
// output directory are checked before any goroutine starts.
func Convert(ctx context.Context, opts Options) (ConvertResult, error) {
	start := time.Now()
	opts.applyDefaults()
	res := ConvertResult{Input: opts.Input, Output: opts.Output}

	if err := opts.Validate(); err != nil {
		return res, err
	}
	codec, err := container.ResolveCodec(opts.Codec)
	if err != nil {
		return res, err
	}

	log := opts.Logger.WithComponent("convert")

	// Checked first so stdin is not consumed for a run that cannot write.
	if err := CheckOutputDir(opts.Output); err != nil {
		return res, err
	}
	reader, err := Open(opts.Input, ReaderOptions{
		BatchSizeBytes: opts.BatchSizeBytes,
		MaxLineBytes:   opts.MaxLineBytes,
		Logger:         opts.Logger,
	})
	if err != nil {
		return res, err
	}

	header := reader.Header()
	meta := map[string][]byte{
		MetaFileFormat: []byte(header.FileFormat),
	}
	if opts.RunID != "" {
		meta[MetaRunID] = []byte(opts.RunID)
	}
	if opts.Version != "" {
		meta[MetaVersion] = []byte(opts.Version)
	}

	sink, err := CreateSink(opts.Output, VariantSchema, codec, meta, opts.Logger)
	if err != nil {
		_ = reader.Close()
		return res, err
	}

	log.Info("conversion started", logger.Fields(
		logger.FieldInput, opts.Input,
		logger.FieldOutput, sink.target,
		logger.FieldCodec, codec.Name(),
		"parallelism", opts.Pipeline.Parallelism,
		"samples", len(header.Samples),
	))

	tr := NewTransformer(header, codec)
	pres, err := pipeline.Run(ctx, opts.Pipeline, reader, tr.Transform, sink,
		pipeline.WithLogger(opts.Logger),
		pipeline.WithObserver(opts.Observer),
	)
	res.Pipeline = pres
	res.Elapsed = time.Since(start)
	if err != nil {
		// Roles may still be running after a shutdown timeout.
		if !errors.IsCode(err, errors.ErrCodeShutdownTimeout) {
			res.Records = sink.Records()
			res.BytesRead = reader.BytesRead()
		}
		return res, err
	}
	res.Records = sink.Records()
	res.BytesRead = reader.BytesRead()

	if !IsStdout(opts.Output) {
		mw := NewMetadataWriter(MetadataPath(opts.Output), codec.Name(), meta)
		if err := mw.Write(ctx, NewRunMetadata(opts.Output)); err != nil {
			log.Warn("metadata side file not written", logger.MergeWithError(
				logger.Fields(logger.FieldCode, string(errors.CodeOf(err)), "path", mw.Path()), err))
			res.MetadataErr = err
		} else {
			res.MetadataPath = mw.Path()
		}
	}

	res.Elapsed = time.Since(start)
	log.Info("conversion finished", logger.Fields(
		"batches", pres.Batches,
		"records", res.Records,
		"bytes_read", res.BytesRead,
		logger.FieldDuration, res.Elapsed.Milliseconds(),
	))
	return res, nil
}
