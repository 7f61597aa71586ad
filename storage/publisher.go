package storage

import (
	"context"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/kbukum/varconv/errors"
	"github.com/kbukum/varconv/logger"
	"github.com/kbukum/varconv/resilience"
)

// Published describes one uploaded file.
type Published struct {
	Local string
	Key   string
	URL   string
	Size  int64
}

// Publisher uploads finished local files under a key prefix.
type Publisher struct {
	store  Storage
	prefix string
	retry  resilience.RetryConfig
	log    *logger.Logger
}

// NewPublisher creates a Publisher that retries uploads according to cfg.Retry.
func NewPublisher(store Storage, cfg Config, log *logger.Logger) *Publisher {
	cfg.ApplyDefaults()
	if log == nil {
		log = logger.Nop()
	}
	l := log.WithComponent("publisher")

	retry := resilience.DefaultRetryConfig()
	retry.MaxAttempts = cfg.Retry.MaxAttempts
	retry.InitialBackoff = cfg.Retry.InitialBackoff
	retry.MaxBackoff = cfg.Retry.MaxBackoff
	retry.OnRetry = func(attempt int, err error, backoff time.Duration) {
		l.Warn("upload failed, retrying", logger.MergeWithError(logger.Fields(
			"attempt", attempt,
			"backoff_ms", backoff.Milliseconds(),
		), err))
	}

	return &Publisher{store: store, prefix: cfg.Prefix, retry: retry, log: l}
}

// Key returns the object key a local file is published under.
func (p *Publisher) Key(local string) string {
	return path.Join(p.prefix, filepath.Base(local))
}

// Publish uploads files in order and stops at the first failure. Local files
// are never removed.
func (p *Publisher) Publish(ctx context.Context, files ...string) ([]Published, error) {
	out := make([]Published, 0, len(files))
	for _, local := range files {
		pub, err := p.publish(ctx, local)
		if err != nil {
			return out, err
		}
		out = append(out, pub)
	}
	return out, nil
}

func (p *Publisher) publish(ctx context.Context, local string) (Published, error) {
	key := p.Key(local)
	info, err := os.Stat(local)
	if err != nil {
		return Published{}, publishError(local, key, err)
	}

	start := time.Now()
	err = resilience.RetryFunc(ctx, p.retry, func() error {
		f, err := os.Open(local)
		if err != nil {
			return errors.New(errors.ErrCodeInputResource, errors.StagePublish, "cannot open file to publish").WithCause(err)
		}
		defer f.Close() //nolint:errcheck // read-only
		return p.store.Upload(ctx, key, f)
	})
	if err != nil {
		if ctx.Err() != nil {
			return Published{}, errors.Canceled(ctx.Err())
		}
		return Published{}, publishError(local, key, err)
	}

	url, err := p.store.URL(ctx, key)
	if err != nil {
		return Published{}, publishError(local, key, err)
	}

	p.log.Info("file published", logger.Fields(
		"file", local,
		"key", key,
		"size", info.Size(),
		logger.FieldDuration, time.Since(start).Milliseconds(),
	))
	return Published{Local: local, Key: key, URL: url, Size: info.Size()}, nil
}

func publishError(local, key string, cause error) *errors.AppError {
	return errors.New(errors.ErrCodeOutputResource, errors.StagePublish, "publish failed").
		WithDetail("file", local).
		WithDetail("key", key).
		WithCause(cause)
}
