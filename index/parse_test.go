package index

import (
	"testing"

	"github.com/kbukum/varconv/variant"
)

func TestLineParsers(t *testing.T) {
	tests := []struct {
		name  string
		parse lineParser
		line  string
		skip  bool
		want  Feature
	}{
		{"bed comment", parseBED, "# comment", true, Feature{}},
		{"bed track", parseBED, "track name=genes", true, Feature{}},
		{"bed browser", parseBED, "browser position chr1:1-100", true, Feature{}},
		{"bed minimal", parseBED, "chr1\t99\t200", false, Feature{Chrom: "chr1", Start: 100, End: 200, Kind: "region"}},
		{"bed named", parseBED, "chr2\t0\t10\tBRCA2\t0\t+", false, Feature{Chrom: "chr2", Start: 1, End: 10, Kind: "region", Name: "BRCA2"}},
		{"bed spaces", parseBED, "chr3 5 6 x", false, Feature{Chrom: "chr3", Start: 6, End: 6, Kind: "region", Name: "x"}},
		{"bed zero length", parseBED, "chr3\t5\t5", false, Feature{Chrom: "chr3", Start: 6, End: 6, Kind: "region"}},
		{"gff directive", parseGFF, "##gff-version 3", true, Feature{}},
		{"gff3 gene", parseGFF, "chr1\tensembl\tgene\t1000\t2000\t.\t+\t.\tID=gene1;Name=ABC", false, Feature{Chrom: "chr1", Start: 1000, End: 2000, Kind: "gene", Name: "gene1"}},
		{"gff3 name only", parseGFF, "chr1\tsrc\texon\t5\t9\t.\t-\t.\tParent=t1;Name=ex1", false, Feature{Chrom: "chr1", Start: 5, End: 9, Kind: "exon", Name: "ex1"}},
		{"gtf", parseGFF, "chr7\thavana\tCDS\t10\t20\t.\t+\t0\tgene_id \"G7\"; transcript_id \"T7\";", false, Feature{Chrom: "chr7", Start: 10, End: 20, Kind: "CDS", Name: "G7"}},
		{"vcf header", parseVCF, "#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO", true, Feature{}},
		{"vcf snv with samples", parseVCF, "chr1\t100\trs1\tA\tG\t.\tPASS\t.\tGT\t0/1\t1/1", false, Feature{Chrom: "chr1", Start: 100, End: 100, Kind: variant.TypeSNV, Name: "rs1"}},
		{"vcf deletion", parseVCF, "chr1\t100\t.\tACGT\tA\t.\tPASS\t.", false, Feature{Chrom: "chr1", Start: 100, End: 103, Kind: variant.TypeIndel}},
		{"vcf sv end", parseVCF, "chr1\t100\tsv\tN\t<DEL>\t.\tPASS\tEND=5000", false, Feature{Chrom: "chr1", Start: 100, End: 5000, Kind: variant.TypeSV, Name: "sv"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, skip, err := tc.parse(tc.line)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if skip != tc.skip {
				t.Fatalf("expected skip=%v, got %v", tc.skip, skip)
			}
			if got != tc.want {
				t.Errorf("expected %+v, got %+v", tc.want, got)
			}
		})
	}
}

func TestLineParsers_Errors(t *testing.T) {
	tests := []struct {
		name  string
		parse lineParser
		line  string
	}{
		{"bed two columns", parseBED, "chr1\t5"},
		{"bed negative start", parseBED, "chr1\t-1\t5"},
		{"bed end before start", parseBED, "chr1\t10\t5"},
		{"gff short", parseGFF, "chr1\tsrc\tgene\t1\t2"},
		{"gff zero start", parseGFF, "chr1\tsrc\tgene\t0\t2\t.\t+\t.\tID=a"},
		{"gff end before start", parseGFF, "chr1\tsrc\tgene\t5\t2\t.\t+\t.\tID=a"},
		{"vcf short", parseVCF, "chr1\t5\t.\tA"},
		{"vcf bad pos", parseVCF, "chr1\tfive\t.\tA\tG\t.\t.\t."},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, _, err := tc.parse(tc.line); err == nil {
				t.Fatal("expected an error")
			}
		})
	}
}
