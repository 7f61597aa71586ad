package container

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zstd"

	"github.com/kbukum/varconv/errors"
)

// Codec names as written to the avro.codec header entry.
const (
	CodecNull      = "null"
	CodecDeflate   = "deflate"
	CodecSnappy    = "snappy"
	CodecZstandard = "zstandard"
)

// Codec compresses and decompresses block data. Implementations are safe for
// concurrent use.
type Codec interface {
	Name() string
	Encode(src []byte) ([]byte, error)
	Decode(src []byte) ([]byte, error)
}

var codecAliases = map[string]string{
	"":          CodecNull,
	"none":      CodecNull,
	"null":      CodecNull,
	"deflate":   CodecDeflate,
	"snappy":    CodecSnappy,
	"zstandard": CodecZstandard,
	"zstd":      CodecZstandard,
}

// CodecNames lists the accepted codec names and aliases.
func CodecNames() []string {
	names := make([]string, 0, len(codecAliases))
	for k := range codecAliases {
		if k != "" {
			names = append(names, k)
		}
	}
	sort.Strings(names)
	return names
}

// CanonicalCodec maps a user-supplied codec name to its header name.
func CanonicalCodec(name string) (string, error) {
	canonical, ok := codecAliases[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return "", errors.Configuration("codec",
			fmt.Sprintf("unknown codec %q (supported: %s)", name, strings.Join(CodecNames(), ", ")))
	}
	return canonical, nil
}

// ResolveCodec returns the codec for name. Unknown names are CONFIGURATION errors.
func ResolveCodec(name string) (Codec, error) {
	canonical, err := CanonicalCodec(name)
	if err != nil {
		return nil, err
	}
	switch canonical {
	case CodecDeflate:
		return newDeflateCodec(flate.DefaultCompression), nil
	case CodecSnappy:
		return snappyCodec{}, nil
	case CodecZstandard:
		return newZstdCodec()
	default:
		return nullCodec{}, nil
	}
}

type nullCodec struct{}

func (nullCodec) Name() string                      { return CodecNull }
func (nullCodec) Encode(src []byte) ([]byte, error) { return src, nil }
func (nullCodec) Decode(src []byte) ([]byte, error) { return src, nil }

// deflateCodec writes raw RFC 1951 streams, without zlib framing.
type deflateCodec struct {
	writers sync.Pool
}

func newDeflateCodec(level int) *deflateCodec {
	c := &deflateCodec{}
	c.writers.New = func() any {
		w, _ := flate.NewWriter(nil, level)
		return w
	}
	return c
}

func (c *deflateCodec) Name() string { return CodecDeflate }

func (c *deflateCodec) Encode(src []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := c.writers.Get().(*flate.Writer)
	defer c.writers.Put(w)
	w.Reset(&buf)
	if _, err := w.Write(src); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (c *deflateCodec) Decode(src []byte) ([]byte, error) {
	r := flate.NewReader(bytes.NewReader(src))
	defer r.Close()
	return io.ReadAll(r)
}

// snappyCodec appends the big-endian CRC32 of the uncompressed data.
type snappyCodec struct{}

func (snappyCodec) Name() string { return CodecSnappy }

func (snappyCodec) Encode(src []byte) ([]byte, error) {
	dst := snappy.Encode(nil, src)
	return binary.BigEndian.AppendUint32(dst, crc32.ChecksumIEEE(src)), nil
}

func (snappyCodec) Decode(src []byte) ([]byte, error) {
	if len(src) < 4 {
		return nil, fmt.Errorf("snappy block too short: %d bytes", len(src))
	}
	body, sum := src[:len(src)-4], binary.BigEndian.Uint32(src[len(src)-4:])
	dst, err := snappy.Decode(nil, body)
	if err != nil {
		return nil, err
	}
	if crc32.ChecksumIEEE(dst) != sum {
		return nil, fmt.Errorf("snappy block checksum mismatch")
	}
	return dst, nil
}

type zstdCodec struct {
	enc *zstd.Encoder
	dec *zstd.Decoder
}

func newZstdCodec() (*zstdCodec, error) {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, errors.Internal("cannot create zstandard encoder").WithCause(err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, errors.Internal("cannot create zstandard decoder").WithCause(err)
	}
	return &zstdCodec{enc: enc, dec: dec}, nil
}

func (c *zstdCodec) Name() string { return CodecZstandard }

func (c *zstdCodec) Encode(src []byte) ([]byte, error) {
	return c.enc.EncodeAll(src, nil), nil
}

func (c *zstdCodec) Decode(src []byte) ([]byte, error) {
	return c.dec.DecodeAll(src, nil)
}
