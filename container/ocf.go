package container

import (
	"io"

	"github.com/hamba/avro/v2"
	"github.com/hamba/avro/v2/ocf"
)

// WriteRecords writes a complete container file holding records, encoded in
// one pass. Use it for small side files; bulk data goes through Writer.
func WriteRecords(w io.Writer, schema avro.Schema, codec string, meta map[string][]byte, records ...any) error {
	name, err := CanonicalCodec(codec)
	if err != nil {
		return err
	}
	enc, err := ocf.NewEncoder(schema.String(), w,
		ocf.WithCodec(ocf.CodecName(name)),
		ocf.WithMetadata(meta),
	)
	if err != nil {
		return err
	}
	for _, r := range records {
		if err := enc.Encode(r); err != nil {
			return err
		}
	}
	return enc.Close()
}

// Reader pulls typed records from a container file one at a time.
type Reader[T any] struct {
	dec *ocf.Decoder
}

// NewReader reads the container header from r.
func NewReader[T any](r io.Reader) (*Reader[T], error) {
	dec, err := ocf.NewDecoder(r)
	if err != nil {
		return nil, err
	}
	return &Reader[T]{dec: dec}, nil
}

// Next returns the next record, or false at the end of the file.
func (r *Reader[T]) Next() (T, bool, error) {
	var v T
	if !r.dec.HasNext() {
		return v, false, r.dec.Error()
	}
	if err := r.dec.Decode(&v); err != nil {
		return v, false, err
	}
	return v, true, nil
}

// Metadata returns the header metadata.
func (r *Reader[T]) Metadata() map[string][]byte { return r.dec.Metadata() }

// Decode reads every record of a container file, calling fn for each. It
// returns the header metadata.
func Decode[T any](r io.Reader, fn func(T) error) (map[string][]byte, error) {
	rd, err := NewReader[T](r)
	if err != nil {
		return nil, err
	}
	for {
		v, ok, err := rd.Next()
		if err != nil {
			return rd.Metadata(), err
		}
		if !ok {
			return rd.Metadata(), nil
		}
		if err := fn(v); err != nil {
			return rd.Metadata(), err
		}
	}
}
