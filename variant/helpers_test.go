package variant

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const testHeader = "##fileformat=VCFv4.2\n" +
	"##INFO=<ID=END,Number=1,Type=Integer,Description=\"End position\">\n" +
	"#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\tFORMAT\tNA001\tNA002\n"

// dataLine returns a valid two-sample record at position pos.
func dataLine(pos int) string {
	return fmt.Sprintf("chr1\t%d\trs%d\tA\tG\t%d.5\tPASS\tDP=10;AF=0.5\tGT:DP\t0/1:12\t1/1:8", pos, pos, pos%60)
}

// vcf builds a file body with the test header and n records.
func vcf(n int) string {
	var b strings.Builder
	b.WriteString(testHeader)
	for i := range n {
		b.WriteString(dataLine(100 + i))
		b.WriteByte('\n')
	}
	return b.String()
}

func writeInput(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "in.vcf")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write input: %v", err)
	}
	return path
}

type closeCounter struct{ n int }

func (c *closeCounter) Close() error {
	c.n++
	return nil
}
