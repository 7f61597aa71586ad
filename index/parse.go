package index

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kbukum/varconv/variant"
)

// lineParser turns one text line into a Feature. skip is true for lines that
// carry no feature, such as comments and track lines.
type lineParser func(line string) (f Feature, skip bool, err error)

func parserFor(format Format) lineParser {
	switch format {
	case FormatBED:
		return parseBED
	case FormatGFF:
		return parseGFF
	default:
		return parseVCF
	}
}

// parseBED reads chrom, 0-based start, exclusive end and an optional name.
func parseBED(line string) (Feature, bool, error) {
	if line == "" || line[0] == '#' || strings.HasPrefix(line, "track") || strings.HasPrefix(line, "browser") {
		return Feature{}, true, nil
	}
	cols := strings.Split(line, "\t")
	if len(cols) < 3 {
		cols = strings.Fields(line)
	}
	if len(cols) < 3 {
		return Feature{}, false, fmt.Errorf("expected at least 3 columns, got %d", len(cols))
	}
	start, err := strconv.ParseInt(cols[1], 10, 64)
	if err != nil || start < 0 {
		return Feature{}, false, fmt.Errorf("invalid start %q", cols[1])
	}
	end, err := strconv.ParseInt(cols[2], 10, 64)
	if err != nil || end < start {
		return Feature{}, false, fmt.Errorf("invalid end %q", cols[2])
	}
	f := Feature{Chrom: cols[0], Start: start + 1, End: max(end, start+1), Kind: "region"}
	if len(cols) > 3 {
		f.Name = cols[3]
	}
	return f, false, nil
}

// parseGFF reads GFF3 and GTF lines. The name comes from the ID, Name or
// gene_id attribute, in that order.
func parseGFF(line string) (Feature, bool, error) {
	if line == "" || line[0] == '#' {
		return Feature{}, true, nil
	}
	cols := strings.Split(line, "\t")
	if len(cols) != 9 {
		return Feature{}, false, fmt.Errorf("expected 9 columns, got %d", len(cols))
	}
	start, err := strconv.ParseInt(cols[3], 10, 64)
	if err != nil || start < 1 {
		return Feature{}, false, fmt.Errorf("invalid start %q", cols[3])
	}
	end, err := strconv.ParseInt(cols[4], 10, 64)
	if err != nil || end < start {
		return Feature{}, false, fmt.Errorf("invalid end %q", cols[4])
	}
	return Feature{Chrom: cols[0], Start: start, End: end, Kind: cols[2], Name: gffName(cols[8])}, false, nil
}

func gffName(attrs string) string {
	values := make(map[string]string)
	for kv := range strings.SplitSeq(attrs, ";") {
		kv = strings.TrimSpace(kv)
		if kv == "" {
			continue
		}
		// GFF3 uses key=value, GTF uses key "value".
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			k, v, _ = strings.Cut(kv, " ")
		}
		values[k] = strings.Trim(v, `"`)
	}
	for _, key := range []string{"ID", "Name", "gene_id"} {
		if v := values[key]; v != "" {
			return v
		}
	}
	return ""
}

// parseVCF indexes a variant by its reference span. Sample columns are ignored.
func parseVCF(line string) (Feature, bool, error) {
	if line == "" || line[0] == '#' {
		return Feature{}, true, nil
	}
	cols := strings.SplitN(line, "\t", 9)
	if len(cols) < 8 {
		return Feature{}, false, fmt.Errorf("expected at least 8 columns, got %d", len(cols))
	}
	rec, err := variant.ParseRecord([]byte(strings.Join(cols[:8], "\t")), &variant.Header{})
	if err != nil {
		return Feature{}, false, err
	}
	return featureOf(rec), false, nil
}

func featureOf(rec variant.Record) Feature {
	f := Feature{Chrom: rec.Chromosome, Start: rec.Start, End: rec.End, Kind: rec.Type}
	if len(rec.IDs) > 0 {
		f.Name = rec.IDs[0]
	}
	return f
}
