package index

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kbukum/varconv/errors"
)

// Feature is one indexed region with 1-based inclusive coordinates.
type Feature struct {
	Chrom string `json:"chrom"`
	Start int64  `json:"start"`
	End   int64  `json:"end"`
	Kind  string `json:"kind"`
	Name  string `json:"name,omitempty"`
}

// Overlaps reports whether f intersects [start, end].
func (f Feature) Overlaps(start, end int64) bool {
	return f.Start <= end && f.End >= start
}

func (f Feature) member() string {
	return fmt.Sprintf("%d-%d|%s|%s", f.Start, f.End, f.Kind, f.Name)
}

// parseMember is the inverse of member. The name is last so it may contain '|'.
func parseMember(chrom, m string) (Feature, error) {
	parts := strings.SplitN(m, "|", 3)
	if len(parts) != 3 {
		return Feature{}, fmt.Errorf("malformed region member %q", m)
	}
	s, e, ok := strings.Cut(parts[0], "-")
	if !ok {
		return Feature{}, fmt.Errorf("malformed region member %q", m)
	}
	start, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return Feature{}, fmt.Errorf("malformed region start %q", m)
	}
	end, err := strconv.ParseInt(e, 10, 64)
	if err != nil {
		return Feature{}, fmt.Errorf("malformed region end %q", m)
	}
	return Feature{Chrom: chrom, Start: start, End: end, Kind: parts[1], Name: parts[2]}, nil
}

// Format is an input file type accepted by Load.
type Format string

const (
	FormatVCF  Format = "vcf"
	FormatBED  Format = "bed"
	FormatGFF  Format = "gff"
	FormatAvro Format = "avro"
)

var formatAliases = map[string]Format{
	"vcf":  FormatVCF,
	"bed":  FormatBED,
	"gff":  FormatGFF,
	"gff3": FormatGFF,
	"gtf":  FormatGFF,
	"avro": FormatAvro,
}

// ParseFormat resolves a case-insensitive format name.
func ParseFormat(s string) (Format, error) {
	f, ok := formatAliases[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return "", errors.Configuration("type", fmt.Sprintf("unknown input type %q (supported: vcf, bed, gff, avro)", s))
	}
	return f, nil
}

// LoadType selects how a load treats existing data in the namespace.
type LoadType string

const (
	LoadAppend    LoadType = "append"
	LoadOverwrite LoadType = "overwrite"
)

// ParseLoadType resolves a case-insensitive load type. Empty means append.
func ParseLoadType(s string) (LoadType, error) {
	switch LoadType(strings.ToLower(strings.TrimSpace(s))) {
	case "", LoadAppend:
		return LoadAppend, nil
	case LoadOverwrite:
		return LoadOverwrite, nil
	default:
		return "", errors.Configuration("load_type", fmt.Sprintf("unknown load type %q (supported: append, overwrite)", s))
	}
}

// ParseRegion parses "chr1:100-200" or a bare "chr1". A bare chromosome
// covers every position.
func ParseRegion(s string) (chrom string, start, end int64, err error) {
	chrom, span, ok := strings.Cut(strings.TrimSpace(s), ":")
	if chrom == "" {
		return "", 0, 0, errors.Configuration("region", fmt.Sprintf("invalid region %q", s))
	}
	if !ok {
		return chrom, 1, 1<<53 - 1, nil
	}
	a, b, ok := strings.Cut(strings.ReplaceAll(span, ",", ""), "-")
	start, err1 := strconv.ParseInt(a, 10, 64)
	end, err2 := strconv.ParseInt(b, 10, 64)
	if !ok || err1 != nil || err2 != nil || start < 1 || end < start {
		return "", 0, 0, errors.Configuration("region", fmt.Sprintf("invalid region %q", s))
	}
	return chrom, start, end, nil
}
