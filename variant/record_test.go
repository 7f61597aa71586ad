package variant

import (
	"strings"
	"testing"
)

var sampleHeader = Header{
	FileFormat: "VCFv4.2",
	Columns:    strings.Split("#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\tFORMAT\tNA001", "\t"),
	Samples:    []string{"NA001"},
}

func TestParseRecord(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		header  Header
		typ     string
		start   int64
		end     int64
		quality *float64
		check   func(t *testing.T, r Record)
	}{
		{
			name: "snv with sample", header: sampleHeader,
			line: "chr1\t100\trs1;rs2\tA\tG\t30\tPASS\tDP=10;DB\tGT:DP\t0/1:12",
			typ:  TypeSNV, start: 100, end: 100, quality: ptr(30),
			check: func(t *testing.T, r Record) {
				if len(r.IDs) != 2 || r.IDs[1] != "rs2" {
					t.Errorf("unexpected ids %v", r.IDs)
				}
				if r.Info["DP"] != "10" {
					t.Errorf("expected DP=10, got %q", r.Info["DP"])
				}
				if v, ok := r.Info["DB"]; !ok || v != "" {
					t.Errorf("expected DB flag, got %q %v", v, ok)
				}
				if strings.Join(r.Format, ":") != "GT:DP" || strings.Join(r.Samples[0], ":") != "0/1:12" {
					t.Errorf("unexpected format/samples %v %v", r.Format, r.Samples)
				}
			},
		},
		{
			name: "mnv", header: Header{},
			line: "chr2\t10\t.\tAC\tGT\t.\t.\t.",
			typ:  TypeMNV, start: 10, end: 11,
			check: func(t *testing.T, r Record) {
				if len(r.IDs) != 0 || len(r.Info) != 0 || len(r.Samples) != 0 {
					t.Errorf("expected empty ids/info/samples, got %v %v %v", r.IDs, r.Info, r.Samples)
				}
			},
		},
		{
			name: "insertion", header: Header{},
			line: "chr2\t10\t.\tA\tATT\t12.5\tq10\t.",
			typ:  TypeIndel, start: 10, end: 10, quality: ptr(12.5),
		},
		{
			name: "deletion with multiple alternates", header: Header{},
			line: "chr2\t10\t.\tATG\tA,AT\t.\tPASS\t.",
			typ:  TypeIndel, start: 10, end: 12,
			check: func(t *testing.T, r Record) {
				if len(r.Alternates) != 2 {
					t.Errorf("expected 2 alternates, got %v", r.Alternates)
				}
			},
		},
		{
			name: "symbolic structural variant with END", header: Header{},
			line: "chrX\t500\tsv1\tN\t<DEL>\t.\tPASS\tSVTYPE=DEL;END=900",
			typ:  TypeSV, start: 500, end: 900,
		},
		{
			name: "breakend", header: Header{},
			line: "chr3\t7\tbnd\tG\tG]chr5:100]\t.\tPASS\t.",
			typ:  TypeSV, start: 7, end: 7,
		},
		{
			name: "reference block", header: Header{},
			line: "chr1\t1000\t.\tT\t.\t.\tPASS\tEND=1030",
			typ:  TypeNoVariation, start: 1000, end: 1030,
		},
		{
			name: "carriage return stripped", header: Header{},
			line: "chr1\t5\t.\tC\tT\t.\tPASS\t.\r",
			typ:  TypeSNV, start: 5, end: 5,
			check: func(t *testing.T, r Record) {
				if r.Filter != "PASS" {
					t.Errorf("expected PASS, got %q", r.Filter)
				}
			},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r, err := ParseRecord([]byte(tc.line), &tc.header)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if r.Type != tc.typ {
				t.Errorf("expected type %s, got %s", tc.typ, r.Type)
			}
			if r.Start != tc.start || r.End != tc.end {
				t.Errorf("expected [%d,%d], got [%d,%d]", tc.start, tc.end, r.Start, r.End)
			}
			switch {
			case tc.quality == nil && r.Quality != nil:
				t.Errorf("expected no quality, got %v", *r.Quality)
			case tc.quality != nil && (r.Quality == nil || *r.Quality != *tc.quality):
				t.Errorf("expected quality %v, got %v", *tc.quality, r.Quality)
			}
			if tc.check != nil {
				tc.check(t, r)
			}
		})
	}
}

func TestParseRecord_Errors(t *testing.T) {
	tests := []struct {
		name   string
		line   string
		header Header
		want   string
	}{
		{"too few columns", "chr1\t1\t.\tA", Header{}, "columns"},
		{"sample count mismatch", "chr1\t1\t.\tA\tG\t.\t.\t.\tGT", sampleHeader, "columns"},
		{"non-numeric POS", "chr1\tx\t.\tA\tG\t.\t.\t.", Header{}, "POS"},
		{"negative POS", "chr1\t-4\t.\tA\tG\t.\t.\t.", Header{}, "POS"},
		{"missing CHROM", ".\t1\t.\tA\tG\t.\t.\t.", Header{}, "CHROM"},
		{"missing REF", "chr1\t1\t.\t.\tG\t.\t.\t.", Header{}, "REF"},
		{"bad QUAL", "chr1\t1\t.\tA\tG\thigh\t.\t.", Header{}, "QUAL"},
		{"END before POS", "chr1\t10\t.\tA\t<DEL>\t.\t.\tEND=5", Header{}, "END"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseRecord([]byte(tc.line), &tc.header)
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("expected %q in %q", tc.want, err.Error())
			}
		})
	}
}

func ptr(v float64) *float64 { return &v }
