package variant

import (
	"bytes"
	"context"

	"github.com/hamba/avro/v2"

	"github.com/kbukum/varconv/container"
	"github.com/kbukum/varconv/errors"
	"github.com/kbukum/varconv/pipeline"
)

// cancelCheckEvery is how many lines a worker parses between context checks.
const cancelCheckEvery = 4096

// Transformer decodes TextBlocks into Variant records and encodes them into
// one compressed Avro block. It holds only immutable state and is safe for
// concurrent use.
type Transformer struct {
	header Header
	schema avro.Schema
	codec  container.Codec
}

// NewTransformer returns a Transformer for files with header h.
func NewTransformer(h Header, codec container.Codec) *Transformer {
	return &Transformer{header: h.Clone(), schema: VariantSchema, codec: codec}
}

// Transform implements pipeline.TransformFunc.
func (t *Transformer) Transform(ctx context.Context, b pipeline.Batch[TextBlock]) (container.Block, error) {
	builder := container.NewBlockBuilder(t.schema, t.codec)
	data := b.Data.Data
	lineNo := b.Data.FirstLine

	for n := 0; len(data) > 0; n++ {
		if n%cancelCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return container.Block{}, err
			}
		}

		var line []byte
		if i := bytes.IndexByte(data, '\n'); i >= 0 {
			line, data = data[:i], data[i+1:]
		} else {
			line, data = data, nil
		}
		current := lineNo
		lineNo++
		if len(line) == 0 {
			continue
		}

		rec, err := ParseRecord(line, &t.header)
		if err != nil {
			return container.Block{}, errors.Transform(b.Seq, err).WithDetail("line", current)
		}
		if err := builder.Append(&rec); err != nil {
			return container.Block{}, errors.Transform(b.Seq, err).WithDetail("line", current)
		}
	}

	blk, err := builder.Finish()
	if err != nil {
		return container.Block{}, errors.Transform(b.Seq, err)
	}
	return blk, nil
}
