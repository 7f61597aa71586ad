package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/spf13/pflag"

	"github.com/kbukum/varconv/app"
)

const sampleVCF = "##fileformat=VCFv4.2\n" +
	"#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\n" +
	"chr1\t100\trs1\tA\tG\t50\tPASS\tDP=3\n" +
	"chr1\t200\trs2\tC\tT\t60\tPASS\tDP=4\n"

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// quietConfig keeps command logs out of the test output.
func quietConfig(t *testing.T, dir, extra string) string {
	t.Helper()
	return writeFile(t, dir, "varconv.yml", "environment: development\nlogging:\n  level: error\n"+extra)
}

func execute(args ...string) (int, string, string) {
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRun_Usage(t *testing.T) {
	tests := []struct {
		name string
		args []string
		code int
	}{
		{"no command", nil, 2},
		{"unknown command", []string{"simulate"}, 2},
		{"variant without subcommand", []string{"variant"}, 2},
		{"unknown subcommand", []string{"variant", "fromavro"}, 2},
		{"help", []string{"help"}, 0},
		{"command help", []string{"variant", "convert", "--help"}, 0},
		{"unknown flag", []string{"variant", "convert", "--nope"}, 2},
		{"positional argument", []string{"variant", "convert", "extra"}, 2},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			code, _, stderr := execute(tc.args...)
			if code != tc.code {
				t.Errorf("exit code %d, want %d (stderr: %s)", code, tc.code, stderr)
			}
		})
	}
}

func TestRun_Version(t *testing.T) {
	code, out, _ := execute("version")
	if code != 0 || !strings.HasPrefix(out, "varconv ") {
		t.Errorf("unexpected version output %q (code %d)", out, code)
	}

	code, out, _ = execute("version", "--json")
	if code != 0 {
		t.Fatalf("exit code %d", code)
	}
	var info map[string]any
	if err := json.Unmarshal([]byte(out), &info); err != nil {
		t.Fatalf("version --json is not JSON: %v\n%s", err, out)
	}
}

func TestRun_Convert(t *testing.T) {
	dir := t.TempDir()
	conf := quietConfig(t, dir, "")
	input := writeFile(t, dir, "in.vcf", sampleVCF)
	output := filepath.Join(dir, "out.avro")

	code, _, stderr := execute("variant", "convert", "--conf", conf,
		"-i", input, "-o", output, "--threads", "2", "--compression", "deflate")
	if code != 0 {
		t.Fatalf("exit code %d: %s", code, stderr)
	}
	for _, p := range []string{output, output + ".meta"} {
		if _, err := os.Stat(p); err != nil {
			t.Errorf("expected %s: %v", p, err)
		}
	}
}

func TestRun_ConvertErrors(t *testing.T) {
	dir := t.TempDir()
	conf := quietConfig(t, dir, "")
	input := writeFile(t, dir, "in.vcf", sampleVCF)

	tests := []struct {
		name string
		args []string
		code int
	}{
		{"from avro", []string{"--from-avro", "-i", input, "-o", filepath.Join(dir, "a.avro")}, 2},
		{"bad codec", []string{"-c", "lz4", "-i", input, "-o", filepath.Join(dir, "b.avro")}, 2},
		{"missing input", []string{"-i", filepath.Join(dir, "none.vcf"), "-o", filepath.Join(dir, "c.avro")}, 3},
		{"missing output dir", []string{"-i", input, "-o", filepath.Join(dir, "x", "d.avro")}, 6},
		{"missing conf", []string{"--conf", filepath.Join(dir, "none.yml"), "-i", input}, 2},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			args := append([]string{"variant", "convert"}, tc.args...)
			if tc.name != "missing conf" {
				args = append(args, "--conf", conf)
			}
			code, _, stderr := execute(args...)
			if code != tc.code {
				t.Errorf("exit code %d, want %d (stderr: %s)", code, tc.code, stderr)
			}
		})
	}
}

func TestRun_IndexAndQuery(t *testing.T) {
	mini := miniredis.RunT(t)
	dir := t.TempDir()
	conf := quietConfig(t, dir, fmt.Sprintf("index:\n  redis:\n    addr: %s\n", mini.Addr()))
	bed := writeFile(t, dir, "genes.bed", "chr1\t99\t200\tA\nchr2\t0\t10\tB\n")

	code, _, stderr := execute("variant", "index", "--conf", conf,
		"--type", "BED", "-i", bed, "--database", "genes", "--load-type", "overwrite", "--chromosomes", "chr1")
	if code != 0 {
		t.Fatalf("index exit code %d: %s", code, stderr)
	}

	code, out, stderr := execute("variant", "query", "--conf", conf, "--database", "genes", "-r", "chr1:150-160")
	if code != 0 {
		t.Fatalf("query exit code %d: %s", code, stderr)
	}
	if out != "chr1\t100\t200\tregion\tA\n" {
		t.Errorf("unexpected query output %q", out)
	}

	code, out, _ = execute("variant", "query", "--conf", conf, "--database", "genes", "-r", "chr2")
	if code != 0 || out != "" {
		t.Errorf("chr2 was filtered out, got %q (code %d)", out, code)
	}
}

func TestConvertFlags_Apply(t *testing.T) {
	var f convertFlags
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	f.register(fs)
	if err := fs.Parse([]string{"-t", "4", "--preserve-order=false", "--batch-size", "4096"}); err != nil {
		t.Fatal(err)
	}

	cfg := app.DefaultConfig()
	cfg.Compression = "snappy"
	if err := f.apply(fs, &cfg); err != nil {
		t.Fatal(err)
	}
	if cfg.Pipeline.Threads != 4 || cfg.Pipeline.PreserveOrder || cfg.Pipeline.BatchSize != 4096 {
		t.Errorf("flags not applied: %+v", cfg.Pipeline)
	}
	if cfg.Compression != "snappy" {
		t.Errorf("unset flag must keep the configured codec, got %q", cfg.Compression)
	}
}
