package httpclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/Checker-Finance/basedata-adapter/internal/rate"
)

const maxBodyBytes = 8 << 20

// ErrBodyTooLarge is returned for responses larger than the body limit.
var ErrBodyTooLarge = errors.New("response body exceeds limit")

// Backoff computes exponential retry delays: Base * 2^attempt, capped at Max.
type Backoff struct {
	Base time.Duration
	Max  time.Duration
}

// Delay returns the sleep before retry number attempt (0-based).
func (b Backoff) Delay(attempt int) time.Duration {
	base := b.Base
	if base <= 0 {
		base = 100 * time.Millisecond
	}
	if attempt > 30 {
		attempt = 30
	}
	d := base << uint(attempt)
	if b.Max > 0 && (d > b.Max || d <= 0) {
		return b.Max
	}
	return d
}

// StatusError is a non-retryable HTTP status returned by the remote side.
type StatusError struct {
	Status int
	URL    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s", e.Status, e.URL)
}

// Response is a fully read document response.
type Response struct {
	Status   int
	Body     []byte
	FinalURL *url.URL // after redirects
}

// Executor performs rate-limited GETs with bounded retries on transient faults.
type Executor struct {
	logger   *zap.Logger
	rateMgr  *rate.Manager
	http     *http.Client
	retryMax int
	backoff  Backoff
	tag      string
	maxBody  int64
}

// New creates an Executor. retryMax is the number of retries after the
// first attempt; rateMgr may be nil.
func New(logger *zap.Logger, rateMgr *rate.Manager, httpClient *http.Client, retryMax int, backoff Backoff, tag string) *Executor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if retryMax < 0 {
		retryMax = 0
	}
	return &Executor{
		logger:   logger,
		rateMgr:  rateMgr,
		http:     httpClient,
		retryMax: retryMax,
		backoff:  backoff,
		tag:      tag,
		maxBody:  maxBodyBytes,
	}
}

// Get fetches rawURL, following redirects, and returns the body with the
// final URL. Transport errors, timeouts, 429 and 5xx are retried; other 4xx
// fail immediately with *StatusError. Context cancellation stops at once.
func (e *Executor) Get(ctx context.Context, rawURL string, header http.Header) (*Response, error) {
	var lastErr error
	for attempt := 0; attempt <= e.retryMax; attempt++ {
		if attempt > 0 {
			if err := sleep(ctx, e.backoff.Delay(attempt-1)); err != nil {
				return nil, err
			}
		}

		resp, retry, err := e.once(ctx, rawURL, header, attempt)
		if err == nil {
			return resp, nil
		}
		if !retry {
			return nil, err
		}
		lastErr = err
	}
	return nil, fmt.Errorf("%s request failed after %d attempts: %w", e.tag, e.retryMax+1, lastErr)
}

func (e *Executor) once(ctx context.Context, rawURL string, header http.Header, attempt int) (*Response, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, false, fmt.Errorf("build request: %w", err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	if e.rateMgr != nil {
		if err := e.rateMgr.Wait(ctx, req.URL.Host); err != nil {
			return nil, false, fmt.Errorf("rate limit wait: %w", err)
		}
	}

	start := time.Now()
	resp, err := e.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, false, ctxErr
		}
		e.logger.Warn(e.tag+".http_failed",
			zap.String("url", rawURL),
			zap.Int("attempt", attempt),
			zap.Error(err))
		return nil, true, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, e.maxBody+1))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, false, ctxErr
		}
		e.logger.Warn(e.tag+".read_failed",
			zap.String("url", rawURL),
			zap.Int("attempt", attempt),
			zap.Error(err))
		return nil, true, fmt.Errorf("read body: %w", err)
	}
	elapsed := time.Since(start)

	switch {
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		e.logger.Warn(e.tag+".transient_status",
			zap.Int("status", resp.StatusCode),
			zap.String("url", rawURL),
			zap.Int("attempt", attempt),
			zap.Duration("latency", elapsed))
		return nil, true, &StatusError{Status: resp.StatusCode, URL: rawURL}
	case resp.StatusCode >= 400:
		return nil, false, &StatusError{Status: resp.StatusCode, URL: rawURL}
	}

	if int64(len(body)) > e.maxBody {
		e.logger.Warn(e.tag+".body_too_large",
			zap.String("url", rawURL),
			zap.Int64("limit", e.maxBody))
		return nil, false, fmt.Errorf("%w: limit %d bytes from %s", ErrBodyTooLarge, e.maxBody, rawURL)
	}

	e.logger.Debug(e.tag+".http_success",
		zap.String("url", rawURL),
		zap.String("final_url", resp.Request.URL.String()),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", elapsed))

	return &Response{Status: resp.StatusCode, Body: body, FinalURL: resp.Request.URL}, false, nil
}

// StatusOf extracts the HTTP status from err, or 0 when none is known.
func StatusOf(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Status
	}
	return 0
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
