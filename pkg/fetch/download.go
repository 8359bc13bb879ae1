package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/cenkalti/backoff/v4"
	log "github.com/sirupsen/logrus"
)

const (
	// DefaultMaxRetries is the number of extra attempts after the first one.
	DefaultMaxRetries = 3
	// DefaultMaxBytes caps the in-memory body of a single download.
	DefaultMaxBytes int64 = 64 << 20

	defaultTimeout = 60 * time.Second
)

// Options tune a download. The zero value retries DefaultMaxRetries times.
type Options struct {
	// MaxRetries is the number of retries after the first attempt. Zero means
	// DefaultMaxRetries. Retries happen immediately, without backoff delay.
	MaxRetries int
	// NoRetry limits the download to a single attempt.
	NoRetry bool
	// MaxBytes limits the response size. Zero means DefaultMaxBytes.
	MaxBytes int64
	// Client performs the requests. Nil means a client with a 60s timeout.
	Client *http.Client
	// OnRetry is called after a failed attempt that will be retried.
	OnRetry func(attempt int, err error)
}

// DefaultOptions returns options with DefaultMaxRetries.
func DefaultOptions() Options {
	return Options{MaxRetries: DefaultMaxRetries}
}

func (o Options) client() *http.Client {
	if o.Client != nil {
		return o.Client
	}
	return &http.Client{Timeout: defaultTimeout}
}

func (o Options) maxBytes() int64 {
	if o.MaxBytes <= 0 {
		return DefaultMaxBytes
	}
	return o.MaxBytes
}

func (o Options) retries() int {
	switch {
	case o.NoRetry || o.MaxRetries < 0:
		return 0
	case o.MaxRetries == 0:
		return DefaultMaxRetries
	}
	return o.MaxRetries
}

func (o Options) policy(ctx context.Context) backoff.BackOff {
	retries := o.retries()
	return backoff.WithContext(backoff.WithMaxRetries(&backoff.ZeroBackOff{}, uint64(retries)), ctx)
}

// Download fetches url into destPath and returns the absolute path of the
// written file. Attempts run sequentially; after the last one fails the
// returned *DownloadError wraps that attempt's error.
func Download(ctx context.Context, destPath, url string, opts Options) (string, error) {
	abs, err := filepath.Abs(destPath)
	if err != nil {
		return "", fmt.Errorf("fetch: resolve %s: %w", destPath, err)
	}

	log.Debugf("starting download from %s", url)

	client := opts.client()
	var (
		data     []byte
		attempts int
	)
	operation := func() error {
		attempts++
		body, err := downloadOnce(ctx, client, url, opts.maxBytes())
		if err != nil {
			return err
		}
		data = body
		return nil
	}
	notify := func(err error, _ time.Duration) {
		if opts.OnRetry == nil {
			log.Warnf("download attempt %d of %s failed, retrying: %v", attempts, url, err)
			return
		}
		log.Debugf("download attempt %d of %s failed, retrying: %v", attempts, url, err)
		opts.OnRetry(attempts, err)
	}

	if err := backoff.RetryNotify(operation, opts.policy(ctx), notify); err != nil {
		return "", &DownloadError{URL: url, Attempts: attempts, Err: err}
	}

	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return "", fmt.Errorf("fetch: create directory for %s: %w", abs, err)
	}
	if err := os.WriteFile(abs, data, 0o644); err != nil {
		return "", fmt.Errorf("fetch: write %s: %w", abs, err)
	}

	log.Infof("downloaded %d bytes to %s", len(data), abs)
	return abs, nil
}

func downloadOnce(ctx context.Context, client *http.Client, url string, limit int64) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("failed to create HTTP request: %w", err))
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to perform HTTP request: %w", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			log.Warnf("error closing response body: %v", cerr)
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Code: resp.StatusCode}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("response body exceeds %d bytes", limit)
	}
	if len(data) == 0 {
		return nil, ErrEmptyBody
	}
	return data, nil
}
