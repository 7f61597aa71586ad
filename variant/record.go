package variant

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/hamba/avro/v2"
)

// Variant types derived from REF and the first ALT allele.
const (
	TypeSNV         = "SNV"
	TypeMNV         = "MNV"
	TypeIndel       = "INDEL"
	TypeSV          = "SV"
	TypeNoVariation = "NO_VARIATION"
)

// VariantSchema is the Avro schema of a converted record.
var VariantSchema = avro.MustParse(`{
	"type": "record",
	"name": "Variant",
	"namespace": "varconv.avro",
	"fields": [
		{"name": "chromosome", "type": "string"},
		{"name": "start", "type": "long"},
		{"name": "end", "type": "long"},
		{"name": "ids", "type": {"type": "array", "items": "string"}},
		{"name": "reference", "type": "string"},
		{"name": "alternates", "type": {"type": "array", "items": "string"}},
		{"name": "type", "type": "string"},
		{"name": "quality", "type": ["null", "double"], "default": null},
		{"name": "filter", "type": "string"},
		{"name": "info", "type": {"type": "map", "values": "string"}},
		{"name": "format", "type": {"type": "array", "items": "string"}},
		{"name": "samples", "type": {"type": "array", "items": {"type": "array", "items": "string"}}}
	]
}`)

// Record is one VCF data line in typed form.
type Record struct {
	Chromosome string            `avro:"chromosome"`
	Start      int64             `avro:"start"`
	End        int64             `avro:"end"`
	IDs        []string          `avro:"ids"`
	Reference  string            `avro:"reference"`
	Alternates []string          `avro:"alternates"`
	Type       string            `avro:"type"`
	Quality    *float64          `avro:"quality"`
	Filter     string            `avro:"filter"`
	Info       map[string]string `avro:"info"`
	Format     []string          `avro:"format"`
	Samples    [][]string        `avro:"samples"`
}

// ParseRecord decodes one tab-separated data line against h.
func ParseRecord(line []byte, h *Header) (Record, error) {
	line = bytes.TrimSuffix(line, []byte("\r"))
	cols := strings.Split(string(line), "\t")

	if h.HasSamples() {
		if len(cols) != h.ExpectedColumns() {
			return Record{}, fmt.Errorf("expected %d columns, got %d", h.ExpectedColumns(), len(cols))
		}
	} else if len(cols) != len(fixedColumns) && len(cols) != len(fixedColumns)+1 {
		return Record{}, fmt.Errorf("expected %d columns, got %d", len(fixedColumns), len(cols))
	}

	pos, err := strconv.ParseInt(cols[1], 10, 64)
	if err != nil || pos < 0 {
		return Record{}, fmt.Errorf("invalid POS %q", cols[1])
	}
	if cols[0] == "" || cols[0] == "." {
		return Record{}, fmt.Errorf("missing CHROM")
	}
	if cols[3] == "" || cols[3] == "." {
		return Record{}, fmt.Errorf("missing REF")
	}

	rec := Record{
		Chromosome: cols[0],
		Start:      pos,
		End:        pos + int64(len(cols[3])) - 1,
		IDs:        splitList(cols[2], ";"),
		Reference:  cols[3],
		Alternates: splitList(cols[4], ","),
		Filter:     cols[6],
		Info:       parseInfo(cols[7]),
		Format:     []string{},
		Samples:    [][]string{},
	}

	if cols[5] != "." {
		q, err := strconv.ParseFloat(cols[5], 64)
		if err != nil {
			return Record{}, fmt.Errorf("invalid QUAL %q", cols[5])
		}
		rec.Quality = &q
	}

	if end, ok := rec.Info["END"]; ok {
		v, err := strconv.ParseInt(end, 10, 64)
		if err != nil || v < pos {
			return Record{}, fmt.Errorf("invalid INFO END %q", end)
		}
		rec.End = v
	}

	if len(cols) > len(fixedColumns) {
		rec.Format = splitList(cols[len(fixedColumns)], ":")
		for _, s := range cols[len(fixedColumns)+1:] {
			rec.Samples = append(rec.Samples, strings.Split(s, ":"))
		}
	}

	rec.Type = classify(rec.Reference, rec.Alternates)
	return rec, nil
}

func splitList(s, sep string) []string {
	if s == "" || s == "." {
		return []string{}
	}
	return strings.Split(s, sep)
}

// parseInfo splits k=v;flag pairs. Flags map to an empty value.
func parseInfo(s string) map[string]string {
	info := make(map[string]string)
	if s == "" || s == "." {
		return info
	}
	for kv := range strings.SplitSeq(s, ";") {
		if kv == "" {
			continue
		}
		k, v, _ := strings.Cut(kv, "=")
		info[k] = v
	}
	return info
}

func classify(ref string, alts []string) string {
	if len(alts) == 0 {
		return TypeNoVariation
	}
	alt := alts[0]
	switch {
	case strings.HasPrefix(alt, "<") || strings.ContainsAny(alt, "[]"):
		return TypeSV
	case alt == "*":
		return TypeIndel
	case len(ref) == 1 && len(alt) == 1:
		return TypeSNV
	case len(ref) == len(alt):
		return TypeMNV
	default:
		return TypeIndel
	}
}
