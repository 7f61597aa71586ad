package variant

import (
	"context"
	"os"

	"github.com/hamba/avro/v2"

	"github.com/kbukum/varconv/container"
	"github.com/kbukum/varconv/errors"
)

// MetadataSuffix is appended to the output path to name the side file.
const MetadataSuffix = ".meta"

// Defaults recorded in every metadata side file.
var defaultMetadata = map[string]string{
	"FILTER_DEFAULT": "PASS",
	"QUAL_DEFAULT":   "",
	"INFO_DEFAULT":   "END,BLOCKAVG_min30p3a",
	"FORMAT_DEFAULT": "GT:GQX:DP:DPF",
}

// MetadataSchema is the Avro schema of the side file record.
var MetadataSchema = avro.MustParse(`{
	"type": "record",
	"name": "VariantFileMetadata",
	"namespace": "varconv.avro",
	"fields": [
		{"name": "fileId", "type": "string"},
		{"name": "studyId", "type": "string"},
		{"name": "metadata", "type": {"type": "map", "values": "string"}}
	]
}`)

// RunMetadata describes the defaults used by a conversion.
type RunMetadata struct {
	FileID   string            `avro:"fileId"`
	StudyID  string            `avro:"studyId"`
	Metadata map[string]string `avro:"metadata"`
}

// NewRunMetadata returns the metadata record for output.
func NewRunMetadata(output string) RunMetadata {
	md := make(map[string]string, len(defaultMetadata))
	for k, v := range defaultMetadata {
		md[k] = v
	}
	return RunMetadata{FileID: output, StudyID: output, Metadata: md}
}

// MetadataPath returns the side file path for output.
func MetadataPath(output string) string { return output + MetadataSuffix }

// MetadataWriter writes the side file of one conversion.
type MetadataWriter struct {
	path  string
	codec string
	extra map[string][]byte
}

// NewMetadataWriter writes to path with the given codec name. extra is added
// to the container header.
func NewMetadataWriter(path, codec string, extra map[string][]byte) *MetadataWriter {
	return &MetadataWriter{path: path, codec: codec, extra: extra}
}

// Path returns the side file path.
func (w *MetadataWriter) Path() string { return w.path }

// Write creates the side file holding md. Failures are METADATA_WRITE errors.
func (w *MetadataWriter) Write(ctx context.Context, md RunMetadata) (err error) {
	if err := ctx.Err(); err != nil {
		return errors.MetadataWrite(w.path, err)
	}
	f, err := os.Create(w.path)
	if err != nil {
		return errors.MetadataWrite(w.path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = errors.MetadataWrite(w.path, cerr)
		}
	}()

	if err := container.WriteRecords(f, MetadataSchema, w.codec, w.extra, md); err != nil {
		return errors.MetadataWrite(w.path, err)
	}
	return nil
}
