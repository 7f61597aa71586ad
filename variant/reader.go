package variant

import (
	"bufio"
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/kbukum/varconv/errors"
	"github.com/kbukum/varconv/logger"
	"github.com/kbukum/varconv/pipeline"
)

const (
	DefaultBatchSizeBytes = 1 << 20
	DefaultMaxLineBytes   = 64 << 20

	stdinName = "-"
)

// TextBlock is a run of whole VCF data lines, each terminated by '\n'.
type TextBlock struct {
	// FirstLine is the 1-based input line number of the first line in Data.
	FirstLine int64
	Data      []byte
}

// ReaderOptions tunes a BlockReader.
type ReaderOptions struct {
	// BatchSizeBytes is the size at which a block is cut. A block always ends
	// on a line boundary, so it can exceed this by up to one line.
	BatchSizeBytes int
	// MaxLineBytes is the longest accepted line.
	MaxLineBytes int
	Logger       *logger.Logger
}

func (o *ReaderOptions) applyDefaults() {
	if o.BatchSizeBytes <= 0 {
		o.BatchSizeBytes = DefaultBatchSizeBytes
	}
	if o.MaxLineBytes <= 0 {
		o.MaxLineBytes = DefaultMaxLineBytes
	}
	if o.Logger == nil {
		o.Logger = logger.Nop()
	}
}

// BlockReader is the record stream of a conversion. It parses the header on
// open and then yields TextBlocks numbered from 0. It is not safe for
// concurrent use.
type BlockReader struct {
	name   string
	closer io.Closer
	sc     *bufio.Scanner
	opts   ReaderOptions
	log    *logger.Logger
	header Header

	seq     int64
	line    int64
	bytes   int64
	pending []byte
	done    bool
	err     error

	closeOnce sync.Once
	closeErr  error
}

var _ pipeline.Iterator[pipeline.Batch[TextBlock]] = (*BlockReader)(nil)

// Open opens path ("-" for stdin) and parses the VCF header. A missing or
// unreadable file is an INPUT_RESOURCE error; a missing #CHROM line is a
// DECODE_BOUNDARY error at seq 0.
func Open(path string, opts ReaderOptions) (*BlockReader, error) {
	if path == stdinName {
		return NewBlockReader(os.Stdin, stdinName, nil, opts)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.InputResource(path, err)
	}
	r, err := NewBlockReader(f, path, f, opts)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return r, nil
}

// NewBlockReader reads from src. closer, when non-nil, is closed by Close.
func NewBlockReader(src io.Reader, name string, closer io.Closer, opts ReaderOptions) (*BlockReader, error) {
	opts.applyDefaults()
	sc := bufio.NewScanner(src)
	// The scanner limit is the larger of max and the initial capacity.
	sc.Buffer(make([]byte, 0, min(64*1024, opts.MaxLineBytes)), opts.MaxLineBytes)

	r := &BlockReader{
		name:   name,
		closer: closer,
		sc:     sc,
		opts:   opts,
		log:    opts.Logger.WithComponent("reader"),
	}
	if err := r.readHeader(); err != nil {
		return nil, err
	}
	r.log.Debug("header parsed", logger.Fields(
		logger.FieldInput, name,
		"fileformat", r.header.FileFormat,
		"samples", len(r.header.Samples),
	))
	return r, nil
}

// Header returns the parsed header.
func (r *BlockReader) Header() Header { return r.header }

// Name returns the input path, "-" for stdin.
func (r *BlockReader) Name() string { return r.name }

// BytesRead returns the number of input bytes consumed so far.
func (r *BlockReader) BytesRead() int64 { return r.bytes }

func (r *BlockReader) readHeader() error {
	var b headerBuilder
	for !b.done {
		line, ok, err := r.scan()
		if err != nil {
			return err
		}
		if !ok {
			return errors.DecodeBoundary(0, "missing #CHROM header line").WithDetail("line", r.line)
		}
		if len(line) == 0 {
			continue
		}
		consumed, reason := b.add(line)
		if reason != "" {
			return errors.DecodeBoundary(0, reason).WithDetail("line", r.line)
		}
		if !consumed {
			if line[0] == '#' {
				return errors.DecodeBoundary(0, "malformed header line").WithDetail("line", r.line)
			}
			return errors.DecodeBoundary(0, "missing #CHROM header line").WithDetail("line", r.line)
		}
	}
	r.header = b.h
	return nil
}

// scan returns the next raw line. The slice is only valid until the next call.
func (r *BlockReader) scan() ([]byte, bool, error) {
	if !r.sc.Scan() {
		err := r.sc.Err()
		if err == nil {
			return nil, false, nil
		}
		if stderrors.Is(err, bufio.ErrTooLong) {
			return nil, false, errors.DecodeBoundary(r.seq,
				fmt.Sprintf("line exceeds maximum length of %d bytes", r.opts.MaxLineBytes)).
				WithDetail("line", r.line+1)
		}
		return nil, false, errors.InputResource(r.name, err)
	}
	r.line++
	line := r.sc.Bytes()
	r.bytes += int64(len(line)) + 1
	return line, true, nil
}

// Next returns the next block. After the end of input it keeps returning
// (zero, false, nil); after a boundary error it keeps returning that error.
func (r *BlockReader) Next(ctx context.Context) (pipeline.Batch[TextBlock], bool, error) {
	var zero pipeline.Batch[TextBlock]
	if r.err != nil {
		return zero, false, r.err
	}
	if r.done {
		return zero, false, nil
	}
	if err := ctx.Err(); err != nil {
		return zero, false, err
	}

	buf := make([]byte, 0, r.opts.BatchSizeBytes+r.opts.BatchSizeBytes/8)
	var first int64
	for len(buf) < r.opts.BatchSizeBytes {
		line, ok, err := r.scan()
		if err != nil {
			r.err = err
			return zero, false, err
		}
		if !ok {
			r.done = true
			break
		}
		if len(line) == 0 {
			if first != 0 {
				// Kept so line numbers inside the block stay exact.
				buf = append(buf, '\n')
			}
			continue
		}
		if line[0] == '#' {
			r.err = errors.DecodeBoundary(r.seq, "header line after data lines").WithDetail("line", r.line)
			return zero, false, r.err
		}
		if bytes.IndexByte(line, 0) >= 0 {
			r.err = errors.DecodeBoundary(r.seq, "NUL byte in line").WithDetail("line", r.line)
			return zero, false, r.err
		}
		if first == 0 {
			first = r.line
		}
		buf = append(buf, line...)
		buf = append(buf, '\n')
	}

	if len(buf) == 0 {
		return zero, false, nil
	}
	b := pipeline.Batch[TextBlock]{Seq: r.seq, Data: TextBlock{FirstLine: first, Data: buf}}
	r.seq++
	return b, true, nil
}

// Close releases the input. Stdin is never closed. Safe to call repeatedly.
func (r *BlockReader) Close() error {
	r.closeOnce.Do(func() {
		if r.closer != nil {
			r.closeErr = r.closer.Close()
		}
		r.log.Debug("input closed", logger.Fields(
			logger.FieldInput, r.name,
			"lines", r.line,
			"batches", r.seq,
		))
	})
	return r.closeErr
}
