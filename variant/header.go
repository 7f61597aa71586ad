package variant

import (
	"bytes"
	"slices"
	"strings"
)

// Fixed VCF columns preceding the per-sample columns.
var fixedColumns = []string{"#CHROM", "POS", "ID", "REF", "ALT", "QUAL", "FILTER", "INFO"}

const formatColumn = "FORMAT"

// Header is the parsed VCF header. It is immutable once the reader returns it
// and is shared by value between workers.
type Header struct {
	// FileFormat is the ##fileformat value, e.g. "VCFv4.2".
	FileFormat string
	// Meta holds every ## line without the leading "##", in file order.
	Meta []string
	// Columns is the #CHROM line split on tabs.
	Columns []string
	// Samples lists the sample column names, possibly empty.
	Samples []string
}

// HasSamples reports whether records carry FORMAT and sample columns.
func (h Header) HasSamples() bool { return len(h.Samples) > 0 }

// ExpectedColumns is the number of tab-separated fields a data line must have
// when the header declares samples.
func (h Header) ExpectedColumns() int {
	if !h.HasSamples() {
		return len(fixedColumns)
	}
	return len(fixedColumns) + 1 + len(h.Samples)
}

// Clone returns a deep copy.
func (h Header) Clone() Header {
	return Header{
		FileFormat: h.FileFormat,
		Meta:       slices.Clone(h.Meta),
		Columns:    slices.Clone(h.Columns),
		Samples:    slices.Clone(h.Samples),
	}
}

// headerBuilder accumulates header lines until the #CHROM line.
type headerBuilder struct {
	h    Header
	done bool
}

// add consumes one header line. It returns false when line is not part of
// the header.
func (b *headerBuilder) add(line []byte) (bool, string) {
	switch {
	case bytes.HasPrefix(line, []byte("##")):
		meta := string(line[2:])
		if v, ok := strings.CutPrefix(meta, "fileformat="); ok {
			b.h.FileFormat = v
		}
		b.h.Meta = append(b.h.Meta, meta)
		return true, ""
	case bytes.HasPrefix(line, []byte("#CHROM")):
		cols := strings.Split(string(line), "\t")
		if len(cols) < len(fixedColumns) {
			return true, "column header has fewer than 8 columns"
		}
		for i, want := range fixedColumns {
			if cols[i] != want {
				return true, "unexpected column header " + cols[i] + ", want " + want
			}
		}
		if len(cols) > len(fixedColumns) {
			if cols[len(fixedColumns)] != formatColumn {
				return true, "column 9 must be FORMAT"
			}
			b.h.Samples = cols[len(fixedColumns)+1:]
		}
		b.h.Columns = cols
		b.done = true
		return true, ""
	default:
		return false, ""
	}
}
