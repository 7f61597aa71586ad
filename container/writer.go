package container

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/hamba/avro/v2"
)

// Header metadata keys reserved by the Avro object container format.
const (
	MetaSchema = "avro.schema"
	MetaCodec  = "avro.codec"
)

var magic = [4]byte{'O', 'b', 'j', 1}

var headerSchema = avro.MustParse(`{
	"type": "record",
	"name": "org.apache.avro.file.Header",
	"fields": [
		{"name": "magic", "type": {"type": "fixed", "name": "Magic", "size": 4}},
		{"name": "meta", "type": {"type": "map", "values": "bytes"}},
		{"name": "sync", "type": {"type": "fixed", "name": "Sync", "size": 16}}
	]
}`)

type header struct {
	Magic [4]byte           `avro:"magic"`
	Meta  map[string][]byte `avro:"meta"`
	Sync  [16]byte          `avro:"sync"`
}

// Block is a run of serialized records compressed with the file's codec.
type Block struct {
	Count int64
	Data  []byte
}

// Writer frames blocks into an object container file. It is not safe for
// concurrent use.
type Writer struct {
	w       io.Writer
	codec   Codec
	sync    [16]byte
	scratch []byte
	blocks  int64
	records int64
}

// NewWriter writes the file header for schema and codec to w. Extra metadata
// entries are added to the header; reserved avro.* keys are ignored.
func NewWriter(w io.Writer, schema avro.Schema, codec Codec, meta map[string][]byte) (*Writer, error) {
	h := header{
		Magic: magic,
		Meta: map[string][]byte{
			MetaSchema: []byte(schema.String()),
			MetaCodec:  []byte(codec.Name()),
		},
		Sync: uuid.New(),
	}
	for k, v := range meta {
		if k == MetaSchema || k == MetaCodec {
			continue
		}
		h.Meta[k] = v
	}

	buf, err := avro.Marshal(headerSchema, h)
	if err != nil {
		return nil, fmt.Errorf("encode container header: %w", err)
	}
	if _, err := w.Write(buf); err != nil {
		return nil, err
	}
	return &Writer{w: w, codec: codec, sync: h.Sync, scratch: make([]byte, 0, 2*binary.MaxVarintLen64)}, nil
}

// WriteBlock appends one block followed by the sync marker. Empty blocks are
// skipped.
func (w *Writer) WriteBlock(b Block) error {
	if b.Count == 0 {
		return nil
	}
	// Avro longs are zig-zag varints, the same encoding as binary.AppendVarint.
	prefix := binary.AppendVarint(w.scratch[:0], b.Count)
	prefix = binary.AppendVarint(prefix, int64(len(b.Data)))
	if _, err := w.w.Write(prefix); err != nil {
		return err
	}
	if _, err := w.w.Write(b.Data); err != nil {
		return err
	}
	if _, err := w.w.Write(w.sync[:]); err != nil {
		return err
	}
	w.blocks++
	w.records += b.Count
	return nil
}

// Codec returns the codec named in the header.
func (w *Writer) Codec() Codec { return w.codec }

// Blocks returns the number of blocks written.
func (w *Writer) Blocks() int64 { return w.blocks }

// Records returns the number of records written.
func (w *Writer) Records() int64 { return w.records }

// BlockBuilder serializes records into a single Block.
type BlockBuilder struct {
	schema avro.Schema
	codec  Codec
	buf    bytes.Buffer
	enc    *avro.Encoder
	count  int64
}

// NewBlockBuilder returns a builder for records of schema.
func NewBlockBuilder(schema avro.Schema, codec Codec) *BlockBuilder {
	b := &BlockBuilder{schema: schema, codec: codec}
	b.enc = avro.NewEncoderForSchema(schema, &b.buf)
	return b
}

// Append serializes v, which must match the builder's schema.
func (b *BlockBuilder) Append(v any) error {
	if err := b.enc.Encode(v); err != nil {
		return err
	}
	b.count++
	return nil
}

// Len returns the number of records appended so far.
func (b *BlockBuilder) Len() int64 { return b.count }

// Finish compresses the appended records into a Block.
func (b *BlockBuilder) Finish() (Block, error) {
	if b.count == 0 {
		return Block{}, nil
	}
	data, err := b.codec.Encode(b.buf.Bytes())
	if err != nil {
		return Block{}, fmt.Errorf("%s compress: %w", b.codec.Name(), err)
	}
	if b.codec.Name() == CodecNull {
		data = bytes.Clone(data)
	}
	return Block{Count: b.count, Data: data}, nil
}
