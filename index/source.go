package index

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/kbukum/varconv/container"
	"github.com/kbukum/varconv/errors"
	"github.com/kbukum/varconv/pipeline"
	"github.com/kbukum/varconv/variant"
)

const defaultMaxLineBytes = 64 << 20

// gffFastaMarker ends the feature section of a GFF3 file.
const gffFastaMarker = "##FASTA"

// Open returns a Feature stream over path. Parse failures are
// DECODE_BOUNDARY errors carrying the line number.
func Open(path string, format Format, maxLineBytes int) (pipeline.Iterator[Feature], error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.InputResource(path, err)
	}
	if format == FormatAvro {
		r, err := container.NewReader[variant.Record](bufio.NewReader(f))
		if err != nil {
			_ = f.Close()
			return nil, errors.New(errors.ErrCodeDecodeBoundary, errors.StageIndex, "invalid avro container").
				WithDetail("path", path).WithCause(err)
		}
		return &avroSource{path: path, closer: f, r: r}, nil
	}
	return newLineSource(f, path, f, format, maxLineBytes), nil
}

type lineSource struct {
	path   string
	format Format
	sc     *bufio.Scanner
	parse  lineParser
	line   int64
	done   bool

	closer    io.Closer
	closeOnce sync.Once
}

func newLineSource(r io.Reader, path string, closer io.Closer, format Format, maxLineBytes int) *lineSource {
	if maxLineBytes <= 0 {
		maxLineBytes = defaultMaxLineBytes
	}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, min(64*1024, maxLineBytes)), maxLineBytes)
	return &lineSource{path: path, format: format, sc: sc, parse: parserFor(format), closer: closer}
}

func (s *lineSource) Next(ctx context.Context) (Feature, bool, error) {
	for !s.done {
		if err := ctx.Err(); err != nil {
			return Feature{}, false, err
		}
		if !s.sc.Scan() {
			s.done = true
			if err := s.sc.Err(); err != nil {
				if err == bufio.ErrTooLong {
					return Feature{}, false, s.boundary(s.line+1, "line exceeds maximum length", nil)
				}
				return Feature{}, false, errors.InputResource(s.path, err)
			}
			break
		}
		s.line++
		line := s.sc.Text()
		if s.format == FormatGFF && line == gffFastaMarker {
			s.done = true
			break
		}
		f, skip, err := s.parse(line)
		if err != nil {
			s.done = true
			return Feature{}, false, s.boundary(s.line, fmt.Sprintf("invalid %s line", s.format), err)
		}
		if !skip {
			return f, true, nil
		}
	}
	return Feature{}, false, nil
}

func (s *lineSource) boundary(line int64, reason string, cause error) error {
	e := errors.New(errors.ErrCodeDecodeBoundary, errors.StageIndex, reason).
		WithDetail("path", s.path).
		WithDetail("line", line)
	if cause != nil {
		e.WithCause(cause)
	}
	return e
}

func (s *lineSource) Close() error {
	var err error
	s.closeOnce.Do(func() {
		if s.closer != nil {
			err = s.closer.Close()
		}
	})
	return err
}

type avroSource struct {
	path   string
	r      *container.Reader[variant.Record]
	n      int64
	done   bool
	closer io.Closer
	once   sync.Once
}

func (s *avroSource) Next(ctx context.Context) (Feature, bool, error) {
	if s.done {
		return Feature{}, false, nil
	}
	if err := ctx.Err(); err != nil {
		return Feature{}, false, err
	}
	rec, ok, err := s.r.Next()
	if err != nil {
		s.done = true
		return Feature{}, false, errors.New(errors.ErrCodeDecodeBoundary, errors.StageIndex, "invalid avro record").
			WithDetail("path", s.path).
			WithDetail("record", s.n).
			WithCause(err)
	}
	if !ok {
		s.done = true
		return Feature{}, false, nil
	}
	s.n++
	return featureOf(rec), true, nil
}

func (s *avroSource) Close() error {
	var err error
	s.once.Do(func() { err = s.closer.Close() })
	return err
}
