package variant

import (
	"bufio"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/hamba/avro/v2"

	"github.com/kbukum/varconv/container"
	"github.com/kbukum/varconv/errors"
	"github.com/kbukum/varconv/logger"
	"github.com/kbukum/varconv/pipeline"
)

const sinkBufferSize = 1 << 20

// IsStdout reports whether an output path selects standard output.
func IsStdout(path string) bool {
	return path == "" || path == "-" || strings.EqualFold(path, "STDOUT")
}

// CheckOutputDir verifies that the parent directory of a file output exists.
func CheckOutputDir(path string) error {
	if IsStdout(path) {
		return nil
	}
	dir := filepath.Dir(path)
	info, err := os.Stat(dir)
	if err != nil {
		return errors.OutputResource(path, err).WithDetail("reason", "output directory does not exist")
	}
	if !info.IsDir() {
		return errors.OutputResource(path, nil).WithDetail("reason", dir+" is not a directory")
	}
	return nil
}

// BlockSink writes container blocks to a file or stdout. It is the single
// consumer of a conversion run and is not safe for concurrent use.
type BlockSink struct {
	target string
	file   *os.File
	bw     *bufio.Writer
	cw     *container.Writer
	log    *logger.Logger

	closeOnce sync.Once
	closeErr  error
}

var _ pipeline.Sink[container.Block] = (*BlockSink)(nil)

// CreateSink creates the output and writes the container header.
func CreateSink(path string, schema avro.Schema, codec container.Codec, meta map[string][]byte, log *logger.Logger) (*BlockSink, error) {
	if log == nil {
		log = logger.Nop()
	}
	s := &BlockSink{target: path, log: log.WithComponent("sink")}

	var out io.Writer = os.Stdout
	if IsStdout(path) {
		s.target = "stdout"
	} else {
		f, err := os.Create(path)
		if err != nil {
			return nil, errors.OutputResource(path, err)
		}
		s.file = f
		out = f
	}
	s.bw = bufio.NewWriterSize(out, sinkBufferSize)

	cw, err := container.NewWriter(s.bw, schema, codec, meta)
	if err != nil {
		_ = s.release()
		return nil, errors.OutputResource(s.target, err)
	}
	s.cw = cw
	return s, nil
}

// Write appends one block.
func (s *BlockSink) Write(_ context.Context, b pipeline.Batch[container.Block]) error {
	if err := s.cw.WriteBlock(b.Data); err != nil {
		return errors.OutputResource(s.target, err).WithSeq(b.Seq)
	}
	return nil
}

// Records returns the number of records written.
func (s *BlockSink) Records() int64 { return s.cw.Records() }

// Close flushes buffered data and closes the file. Stdout is flushed but
// left open. Safe to call repeatedly.
func (s *BlockSink) Close() error {
	s.closeOnce.Do(func() {
		if err := s.bw.Flush(); err != nil {
			s.closeErr = errors.OutputResource(s.target, err)
		}
		if err := s.release(); err != nil && s.closeErr == nil {
			s.closeErr = errors.OutputResource(s.target, err)
		}
		s.log.Debug("output closed", logger.Fields(
			logger.FieldOutput, s.target,
			"blocks", s.cw.Blocks(),
			"records", s.cw.Records(),
		))
	})
	return s.closeErr
}

func (s *BlockSink) release() error {
	if s.file == nil {
		return nil
	}
	return s.file.Close()
}
