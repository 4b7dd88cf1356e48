package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"
)

const (
	defaultRatePerSec = 2
	defaultTimeout    = 60 * time.Second

	maxRetries    = 3
	baseRetryWait = 500 * time.Millisecond
)

// Client es el HTTP client de los proveedores con rate limiting y retries.
type Client struct {
	http       *http.Client
	limiter    *rate.Limiter
	maxRetries uint64
	retryWait  time.Duration
}

// ClientOptions parametriza NewClient. Los ceros toman los valores por defecto.
type ClientOptions struct {
	RequestsPerSecond float64
	Timeout           time.Duration
	MaxRetries        int
	RetryWait         time.Duration
}

// NewClient crea un Client con un limiter compartido por todas las peticiones.
func NewClient(opts ClientOptions) *Client {
	if opts.RequestsPerSecond <= 0 {
		opts.RequestsPerSecond = defaultRatePerSec
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = maxRetries
	}
	if opts.RetryWait <= 0 {
		opts.RetryWait = baseRetryWait
	}
	return &Client{
		http:       &http.Client{Timeout: opts.Timeout},
		limiter:    rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1),
		maxRetries: uint64(opts.MaxRetries),
		retryWait:  opts.RetryWait,
	}
}

// StatusError es una respuesta HTTP no exitosa.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("http %d: %s", e.StatusCode, e.Body)
}

// postJSON hace un POST JSON con rate limiting y retries.
func (c *Client) postJSON(ctx context.Context, url string, headers map[string]string, body, out any) error {
	b, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal body: %w", err)
	}

	return c.retry(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		for k, v := range headers {
			req.Header.Set(k, v)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 300 {
			msg, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
			return classify(&StatusError{StatusCode: resp.StatusCode, Body: string(msg)})
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return backoff.Permanent(fmt.Errorf("decode response: %w", err))
		}
		return nil
	})
}

// retry ejecuta op con backoff exponencial, esperando al limiter en cada intento.
// Los errores permanentes (4xx salvo 429) cortan los reintentos.
func (c *Client) retry(ctx context.Context, op func() error) error {
	attempt := 0
	wrapped := func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(fmt.Errorf("rate limiter: %w", err))
		}
		attempt++
		err := op()
		if err != nil {
			var perm *backoff.PermanentError
			if !errors.As(err, &perm) {
				slog.Debug("provider request failed, retrying", "attempt", attempt, "err", err)
			}
		}
		return err
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.retryWait
	b.MaxElapsedTime = 0
	return backoff.Retry(wrapped, backoff.WithContext(backoff.WithMaxRetries(b, c.maxRetries), ctx))
}

// classify marca como permanentes los errores que no mejoran reintentando.
func classify(err *StatusError) error {
	if err.StatusCode == http.StatusTooManyRequests || err.StatusCode >= 500 {
		if err.StatusCode == http.StatusTooManyRequests {
			slog.Warn("rate limited by provider", "status", err.StatusCode)
		}
		return err
	}
	return backoff.Permanent(err)
}
