package main

import (
	stderrors "errors"
	"fmt"
	"io"

	"github.com/spf13/pflag"

	"github.com/kbukum/varconv/app"
	"github.com/kbukum/varconv/config"
	"github.com/kbukum/varconv/errors"
)

// commonFlags are accepted by every variant subcommand.
type commonFlags struct {
	conf     string
	envFile  string
	logLevel string
	verbose  bool
}

func (c *commonFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&c.conf, "conf", "", "Configuration file (default: ./varconv.yml if present)")
	fs.StringVar(&c.envFile, "env-file", "", "Environment file (default: ./.env if present)")
	fs.StringVar(&c.logLevel, "log-level", "info", "Log level: trace, debug, info, warn, error")
	fs.BoolVarP(&c.verbose, "verbose", "v", false, "Debug logging (same as --log-level debug)")
}

// load reads the configuration, then applies the flags the user set.
func (c *commonFlags) load(fs *pflag.FlagSet) (*app.Config, error) {
	cfg := app.DefaultConfig()
	var opts []config.LoaderOption
	if c.conf != "" {
		opts = append(opts, config.WithConfigFile(c.conf))
	}
	if c.envFile != "" {
		opts = append(opts, config.WithEnvFile(c.envFile))
	}
	if err := config.LoadConfig(&cfg, opts...); err != nil {
		return nil, err
	}
	if fs.Changed("log-level") {
		cfg.Logging.Level = c.logLevel
	}
	if c.verbose {
		cfg.Logging.Level = "debug"
	}
	return &cfg, nil
}

func newFlagSet(name string, stderr io.Writer) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.SortFlags = false
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: varconv %s [flags]\n\nFlags:\n", name)
		fs.PrintDefaults()
	}
	return fs
}

// parse wraps pflag errors as CONFIGURATION so they map to the usage exit code.
func parse(fs *pflag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if stderrors.Is(err, pflag.ErrHelp) {
			return err
		}
		return errors.Configuration("flags", err.Error()).WithCause(err)
	}
	if fs.NArg() > 0 {
		return errors.Configuration("flags", fmt.Sprintf("unexpected arguments %v", fs.Args()))
	}
	return nil
}

type convertFlags struct {
	commonFlags
	input         string
	output        string
	compression   string
	threads       int
	batchSize     int
	queueCapacity int
	preserveOrder bool
	toAvro        bool
	fromAvro      bool
}

func (f *convertFlags) register(fs *pflag.FlagSet) {
	fs.StringVarP(&f.input, "input", "i", "", "Input VCF file, or - for stdin")
	fs.StringVarP(&f.output, "output", "o", "", "Output Avro file; empty, - or STDOUT writes to stdout")
	fs.StringVarP(&f.compression, "compression", "c", "", "Avro codec: null, deflate, snappy, zstandard")
	fs.IntVarP(&f.threads, "threads", "t", 0, "Transform workers (default 1)")
	fs.IntVar(&f.batchSize, "batch-size", 0, "Approximate batch size in bytes (default 1 MiB)")
	fs.IntVar(&f.queueCapacity, "queue-capacity", 0, "Batches held between reader and writer (default threads+1)")
	fs.BoolVar(&f.preserveOrder, "preserve-order", true, "Write records in input order")
	fs.BoolVar(&f.toAvro, "to-avro", true, "Convert VCF to Avro")
	fs.BoolVar(&f.fromAvro, "from-avro", false, "Convert Avro to VCF (not supported)")
	f.commonFlags.register(fs)
}

func (f *convertFlags) apply(fs *pflag.FlagSet, cfg *app.Config) error {
	if f.fromAvro || !f.toAvro {
		return errors.Configuration("from-avro", "only --to-avro conversion is supported")
	}
	if fs.Changed("compression") {
		cfg.Compression = f.compression
	}
	if fs.Changed("threads") {
		cfg.Pipeline.Threads = f.threads
	}
	if fs.Changed("batch-size") {
		cfg.Pipeline.BatchSize = f.batchSize
	}
	if fs.Changed("queue-capacity") {
		cfg.Pipeline.QueueCapacity = f.queueCapacity
	}
	if fs.Changed("preserve-order") {
		cfg.Pipeline.PreserveOrder = f.preserveOrder
	}
	return nil
}

type indexFlags struct {
	commonFlags
	typ         string
	input       string
	database    string
	credentials string
	loadType    string
	chromosomes []string
}

func (f *indexFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.typ, "type", "", "Input type: vcf, bed, gff, avro")
	fs.StringVarP(&f.input, "input", "i", "", "Input file")
	fs.StringVar(&f.database, "database", "", "Index namespace")
	fs.StringVar(&f.credentials, "credentials", "", "Index store password")
	fs.StringVar(&f.loadType, "load-type", "append", "append or overwrite")
	fs.StringSliceVar(&f.chromosomes, "chromosomes", nil, "Only load these chromosomes (comma separated)")
	f.commonFlags.register(fs)
}

func (f *indexFlags) apply(fs *pflag.FlagSet, cfg *app.Config) {
	if fs.Changed("credentials") {
		cfg.Index.Redis.Password = f.credentials
	}
	if fs.Changed("database") {
		cfg.Index.Database = f.database
	}
}

type queryFlags struct {
	commonFlags
	database    string
	credentials string
	region      string
}

func (f *queryFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.database, "database", "", "Index namespace")
	fs.StringVar(&f.credentials, "credentials", "", "Index store password")
	fs.StringVarP(&f.region, "region", "r", "", "Region, e.g. chr1:100-200 or chr1")
	f.commonFlags.register(fs)
}

func (f *queryFlags) apply(fs *pflag.FlagSet, cfg *app.Config) {
	if fs.Changed("credentials") {
		cfg.Index.Redis.Password = f.credentials
	}
	if fs.Changed("database") {
		cfg.Index.Database = f.database
	}
}
