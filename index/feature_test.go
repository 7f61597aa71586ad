package index

import (
	"testing"

	"github.com/kbukum/varconv/errors"
)

func TestMember(t *testing.T) {
	f := Feature{Chrom: "chr1", Start: 10, End: 20, Kind: "gene", Name: "odd|name"}
	got, err := parseMember("chr1", f.member())
	if err != nil {
		t.Fatal(err)
	}
	if got != f {
		t.Errorf("expected %+v, got %+v", f, got)
	}

	for _, bad := range []string{"10-20|gene", "1020|gene|x", "a-20|gene|x", "10-b|gene|x"} {
		if _, err := parseMember("chr1", bad); err == nil {
			t.Errorf("expected error for %q", bad)
		}
	}
}

func TestOverlaps(t *testing.T) {
	f := Feature{Start: 100, End: 200}
	tests := []struct {
		start, end int64
		want       bool
	}{
		{1, 99, false},
		{1, 100, true},
		{150, 160, true},
		{200, 300, true},
		{201, 300, false},
	}
	for _, tc := range tests {
		if got := f.Overlaps(tc.start, tc.end); got != tc.want {
			t.Errorf("Overlaps(%d, %d) = %v, want %v", tc.start, tc.end, got, tc.want)
		}
	}
}

func TestParseFormatAndLoadType(t *testing.T) {
	for in, want := range map[string]Format{"VCF": FormatVCF, "bed": FormatBED, "GFF3": FormatGFF, "gtf": FormatGFF, " avro ": FormatAvro} {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Errorf("ParseFormat(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseFormat("sam"); !errors.IsCode(err, errors.ErrCodeConfiguration) {
		t.Errorf("expected CONFIGURATION, got %v", err)
	}

	for in, want := range map[string]LoadType{"": LoadAppend, "Append": LoadAppend, "OVERWRITE": LoadOverwrite} {
		got, err := ParseLoadType(in)
		if err != nil || got != want {
			t.Errorf("ParseLoadType(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseLoadType("merge"); !errors.IsCode(err, errors.ErrCodeConfiguration) {
		t.Errorf("expected CONFIGURATION, got %v", err)
	}
}

func TestParseRegion(t *testing.T) {
	tests := []struct {
		in         string
		chrom      string
		start, end int64
		wantErr    bool
	}{
		{in: "chr1:100-200", chrom: "chr1", start: 100, end: 200},
		{in: "chr1:1,000-2,000", chrom: "chr1", start: 1000, end: 2000},
		{in: "chrX", chrom: "chrX", start: 1, end: 1<<53 - 1},
		{in: "chr1:200-100", wantErr: true},
		{in: "chr1:0-10", wantErr: true},
		{in: "chr1:abc", wantErr: true},
		{in: ":1-2", wantErr: true},
	}
	for _, tc := range tests {
		chrom, start, end, err := ParseRegion(tc.in)
		if tc.wantErr {
			if !errors.IsCode(err, errors.ErrCodeConfiguration) {
				t.Errorf("ParseRegion(%q): expected CONFIGURATION, got %v", tc.in, err)
			}
			continue
		}
		if err != nil || chrom != tc.chrom || start != tc.start || end != tc.end {
			t.Errorf("ParseRegion(%q) = %s:%d-%d, %v", tc.in, chrom, start, end, err)
		}
	}
}
