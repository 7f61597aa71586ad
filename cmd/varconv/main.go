// Command varconv converts VCF files to Avro object container files and
// loads genomic features into a region index.
//
//	varconv variant convert --input in.vcf --output out.avro --threads 4 --compression snappy
//	varconv variant index --type bed --input genes.bed --database genes
//	varconv variant query --database genes --region chr1:100-200
//	varconv version --json
package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"

	"github.com/kbukum/varconv/app"
	"github.com/kbukum/varconv/errors"
	"github.com/kbukum/varconv/version"
)

const usage = `Usage: varconv <command> [flags]

Commands:
  variant convert   Convert a VCF file to an Avro object container file
  variant index     Load VCF, BED, GFF or Avro features into the region index
  variant query     List indexed regions overlapping a region
  version           Print build information

Run "varconv <command> --help" for command flags.
`

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

// run executes one command and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	err := dispatch(ctx, args, stdout, stderr)
	switch {
	case err == nil:
		return 0
	case stderrors.Is(err, pflag.ErrHelp):
		return 0
	}
	fmt.Fprintf(stderr, "varconv: %v\n", err)
	return errors.ExitCode(err)
}

func dispatch(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return errors.Configuration("command", "no command given")
	}
	switch args[0] {
	case "version":
		return runVersion(args[1:], stdout, stderr)
	case "help", "-h", "--help":
		fmt.Fprint(stdout, usage)
		return nil
	case "variant":
	default:
		fmt.Fprint(stderr, usage)
		return errors.Configuration("command", fmt.Sprintf("unknown command %q", args[0]))
	}

	if len(args) < 2 {
		fmt.Fprint(stderr, usage)
		return errors.Configuration("command", "variant needs a subcommand: convert, index or query")
	}
	switch args[1] {
	case app.CommandConvert:
		return runConvert(ctx, args[2:], stderr)
	case app.CommandIndex:
		return runIndex(ctx, args[2:], stderr)
	case app.CommandQuery:
		return runQuery(ctx, args[2:], stdout, stderr)
	default:
		fmt.Fprint(stderr, usage)
		return errors.Configuration("command", fmt.Sprintf("unknown variant subcommand %q", args[1]))
	}
}

func runVersion(args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("version", stderr)
	asJSON := fs.Bool("json", false, "Print build information as JSON")
	if err := parse(fs, args); err != nil {
		return err
	}
	return version.GetVersionInfo().Write(stdout, *asJSON)
}

func runConvert(ctx context.Context, args []string, stderr io.Writer) error {
	var f convertFlags
	fs := newFlagSet("variant convert", stderr)
	f.register(fs)
	if err := parse(fs, args); err != nil {
		return err
	}
	cfg, err := f.load(fs)
	if err != nil {
		return err
	}
	if err := f.apply(fs, cfg); err != nil {
		return err
	}
	_, err = app.Convert(ctx, cfg, app.ConvertRequest{Input: f.input, Output: f.output})
	return err
}

func runIndex(ctx context.Context, args []string, stderr io.Writer) error {
	var f indexFlags
	fs := newFlagSet("variant index", stderr)
	f.register(fs)
	if err := parse(fs, args); err != nil {
		return err
	}
	cfg, err := f.load(fs)
	if err != nil {
		return err
	}
	f.apply(fs, cfg)
	_, err = app.Index(ctx, cfg, app.IndexRequest{
		Input:       f.input,
		Type:        f.typ,
		LoadType:    f.loadType,
		Database:    cfg.Index.Database,
		Chromosomes: f.chromosomes,
	})
	return err
}

func runQuery(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	var f queryFlags
	fs := newFlagSet("variant query", stderr)
	f.register(fs)
	if err := parse(fs, args); err != nil {
		return err
	}
	cfg, err := f.load(fs)
	if err != nil {
		return err
	}
	f.apply(fs, cfg)
	features, err := app.Query(ctx, cfg, app.QueryRequest{Database: cfg.Index.Database, Region: f.region})
	if err != nil {
		return err
	}
	for _, ft := range features {
		fmt.Fprintf(stdout, "%s\t%d\t%d\t%s\t%s\n", ft.Chrom, ft.Start, ft.End, ft.Kind, ft.Name)
	}
	return nil
}
