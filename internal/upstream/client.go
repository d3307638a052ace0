package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const maxBodyBytes = 4 << 20

// Options agrupa lo que comparten todos los clientes de servicios externos.
type Options struct {
	Timeout    time.Duration
	Limiter    *rate.Limiter
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// NewLimiter crea el limitador compartido de llamadas salientes; rps <= 0 lo desactiva.
func NewLimiter(rps float64) *rate.Limiter {
	if rps <= 0 {
		return nil
	}
	burst := int(rps)
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(rps), burst)
}

type baseClient struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	logger  *zap.Logger
}

func newBaseClient(baseURL string, opts Options) baseClient {
	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return baseClient{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		http:    hc,
		limiter: opts.Limiter,
		logger:  logger,
	}
}

func (b baseClient) postJSON(ctx context.Context, op, path string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%s: marshal request: %w", op, err)
	}
	return b.send(ctx, op, http.MethodPost, path, bytes.NewReader(body), "application/json")
}

func (b baseClient) get(ctx context.Context, op, path string) ([]byte, error) {
	return b.send(ctx, op, http.MethodGet, path, nil, "")
}

func (b baseClient) send(ctx context.Context, op, method, path string, body io.Reader, contentType string) ([]byte, error) {
	if b.baseURL == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrNotConfigured)
	}
	if b.limiter != nil {
		if err := b.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%s: rate limit wait: %w", op, err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, b.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("%s: create request: %w", op, err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := b.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: do request: %w", op, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%s: read response: %w", op, err)
	}

	b.logger.Debug("upstream call",
		zap.String("op", op),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, newHTTPError(op, resp, respBody)
	}
	return respBody, nil
}
