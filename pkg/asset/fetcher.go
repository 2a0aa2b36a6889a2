package asset

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"syscall"
	"time"

	"github.com/aretw0/vibecam/internal/logging"
	"github.com/aretw0/vibecam/pkg/domain"
	"github.com/avast/retry-go/v4"
)

const (
	DefaultAttempts    = 3
	DefaultTimeout     = 120 * time.Second
	DefaultChunkSize   = 8192
	DefaultBackoffUnit = 2 * time.Second
)

// Timer schedules the wait between attempts. It matches retry.Timer so tests
// can skip real sleeping.
type Timer interface {
	After(time.Duration) <-chan time.Time
}

// Fetcher downloads generated images with a bounded retry loop.
type Fetcher struct {
	client      *http.Client
	attempts    int
	timeout     time.Duration
	chunkSize   int
	backoffUnit time.Duration
	timer       Timer
	logger      *slog.Logger
	hooks       domain.LifecycleHooks
}

// Option configures the Fetcher.
type Option func(*Fetcher)

// WithHTTPClient sets the client used for downloads. Its Timeout should be
// zero; per-attempt deadlines come from WithTimeout.
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) {
		if c != nil {
			f.client = c
		}
	}
}

// WithAttempts sets the maximum number of tries, including the first.
func WithAttempts(n int) Option {
	return func(f *Fetcher) {
		if n > 0 {
			f.attempts = n
		}
	}
}

// WithTimeout bounds each individual attempt.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		if d > 0 {
			f.timeout = d
		}
	}
}

// WithChunkSize sets the read size used while streaming the body.
func WithChunkSize(n int) Option {
	return func(f *Fetcher) {
		if n > 0 {
			f.chunkSize = n
		}
	}
}

// WithBackoffUnit sets the linear backoff step: attempt k waits k × unit.
func WithBackoffUnit(d time.Duration) Option {
	return func(f *Fetcher) {
		if d >= 0 {
			f.backoffUnit = d
		}
	}
}

// WithTimer replaces the wall-clock timer used between attempts.
func WithTimer(t Timer) Option {
	return func(f *Fetcher) {
		if t != nil {
			f.timer = t
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(f *Fetcher) {
		if logger != nil {
			f.logger = logger
		}
	}
}

func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(f *Fetcher) {
		f.hooks = hooks
	}
}

// NewFetcher creates a fetcher with the default policy: 3 attempts, 120s per
// attempt, 8 KiB reads and a 2s × attempt backoff.
func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		client:      &http.Client{},
		attempts:    DefaultAttempts,
		timeout:     DefaultTimeout,
		chunkSize:   DefaultChunkSize,
		backoffUnit: DefaultBackoffUnit,
		logger:      logging.NewNop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch retrieves the bytes behind reference.
//
// data: references are decoded locally. http(s) references are downloaded,
// retrying only timeouts and connection failures. Any failure is returned as
// a *FetchFailure.
func (f *Fetcher) Fetch(ctx context.Context, reference string) ([]byte, error) {
	if IsDataURI(reference) {
		data, err := DecodeDataURI(reference)
		if err != nil {
			return nil, &FetchFailure{Reference: reference, Attempts: 1, Err: err}
		}
		return data, nil
	}

	u, err := url.Parse(reference)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, &FetchFailure{Reference: reference, Err: ErrUnsupportedReference}
	}

	attempt := 0
	data, err := retry.DoWithData(
		func() ([]byte, error) {
			attempt++
			data, err := f.download(ctx, reference)
			f.observe(ctx, reference, attempt, err)
			return data, err
		},
		retry.Context(ctx),
		retry.Attempts(uint(f.attempts)),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return ctx.Err() == nil && Retryable(err)
		}),
		retry.DelayType(func(_ uint, _ error, _ *retry.Config) time.Duration {
			return time.Duration(attempt) * f.backoffUnit
		}),
		retry.WithTimer(f.timerOrDefault()),
	)
	if err != nil {
		f.logger.Warn("Asset fetch failed", "attempts", attempt, "err", err)
		return nil, &FetchFailure{Reference: reference, Attempts: attempt, Err: err}
	}
	return data, nil
}

func (f *Fetcher) observe(ctx context.Context, reference string, attempt int, err error) {
	var wait time.Duration
	if err != nil && attempt < f.attempts && Retryable(err) && ctx.Err() == nil {
		wait = time.Duration(attempt) * f.backoffUnit
		f.logger.Info("Asset fetch attempt failed, retrying",
			"attempt", attempt,
			"max_attempts", f.attempts,
			"wait", wait,
			"err", err,
		)
	}
	if f.hooks.OnFetchAttempt != nil {
		f.hooks.OnFetchAttempt(ctx, &domain.FetchEvent{
			EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventFetchAttempt},
			Reference: shorten(reference),
			Attempt:   attempt,
			Wait:      wait,
			Err:       err,
		})
	}
}

// download performs one bounded attempt and streams the body in chunks.
func (f *Fetcher) download(ctx context.Context, reference string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reference, nil)
	if err != nil {
		return nil, retry.Unrecoverable(err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Status: resp.Status}
	}

	var buf bytes.Buffer
	if resp.ContentLength > 0 {
		buf.Grow(int(resp.ContentLength))
	}
	chunk := make([]byte, f.chunkSize)
	for {
		n, err := resp.Body.Read(chunk)
		buf.Write(chunk[:n])
		if errors.Is(err, io.EOF) {
			return buf.Bytes(), nil
		}
		if err != nil {
			return nil, fmt.Errorf("reading body: %w", err)
		}
	}
}

func (f *Fetcher) timerOrDefault() Timer {
	if f.timer != nil {
		return f.timer
	}
	return wallTimer{}
}

type wallTimer struct{}

func (wallTimer) After(d time.Duration) <-chan time.Time {
	return time.After(d)
}

// Retryable reports whether err is a timeout or a connection-level failure.
// HTTP status errors and everything else are final.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	var status *StatusError
	if errors.As(err, &status) {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	return errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EPIPE) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, io.EOF)
}
