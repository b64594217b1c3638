package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/HabariMedia/newsroom-go/internal/domain/entities/content"
	"github.com/HabariMedia/newsroom-go/internal/infrastructure/observability/logging"
)

// Client talks to the news backend. Every call is bounded by the
// configured timeout; idempotent reads additionally go through the shared
// retry policy. The current CSRF token is attached to all state-changing
// requests and is rotated by the session service.
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	readRetry  RetryPolicy
	logger     *logging.ChanneledLogger

	csrfMu    sync.RWMutex
	csrfToken string
}

// NewClient creates a backend client.
func NewClient(baseURL string, timeout time.Duration, readRetry RetryPolicy, logger *logging.ChanneledLogger) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{},
		timeout:    timeout,
		readRetry:  readRetry,
		logger:     logger,
	}
}

// SetCSRFToken replaces the token attached to state-changing requests.
// The previous token is invalid the moment a new one is issued.
func (c *Client) SetCSRFToken(token string) {
	c.csrfMu.Lock()
	c.csrfToken = token
	c.csrfMu.Unlock()
}

func (c *Client) currentCSRF() string {
	c.csrfMu.RLock()
	defer c.csrfMu.RUnlock()
	return c.csrfToken
}

// VerifySession calls the verify endpoint. Idempotent; retried.
func (c *Client) VerifySession(ctx context.Context) (*VerifyResponse, error) {
	var out VerifyResponse
	err := c.readRetry.Do(ctx, func(ctx context.Context) (int, error) {
		return c.do(ctx, http.MethodPost, "/verify", nil, &out, false)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Login posts credentials. Mutating; never retried automatically. A 401
// with a parseable body is an expected failure, returned as a response
// rather than an error.
func (c *Client) Login(ctx context.Context, identifier, password string) (*LoginResponse, error) {
	var out LoginResponse
	status, err := c.do(ctx, http.MethodPost, "/login", LoginRequest{
		Identifier: identifier,
		Password:   password,
	}, &out, true)

	if err == nil && status == http.StatusUnauthorized && out.Error != "" {
		return &out, nil
	}
	if err != nil {
		return nil, err
	}
	if status < 200 || status >= 300 {
		return nil, &StatusError{Code: status}
	}
	return &out, nil
}

// Logout is best-effort: any response is accepted and decode failures are
// ignored.
func (c *Client) Logout(ctx context.Context) error {
	status, err := c.do(ctx, http.MethodPost, "/logout", struct{}{}, nil, true)
	if err != nil {
		return err
	}
	if status < 200 || status >= 300 {
		return &StatusError{Code: status}
	}
	return nil
}

// DetectLocation asks the backend for a server-side geo guess. Idempotent;
// retried.
func (c *Client) DetectLocation(ctx context.Context) (*GeoDetectResponse, error) {
	var out GeoDetectResponse
	err := c.readRetry.Do(ctx, func(ctx context.Context) (int, error) {
		return c.do(ctx, http.MethodGet, "/geo/current", nil, &out, false)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// TrackGeo flushes a geo session snapshot. Mutating; never retried — the
// tracker's persist cycle is the resubmission loop.
func (c *Client) TrackGeo(ctx context.Context, req GeoTrackRequest) error {
	var out GeoTrackResponse
	status, err := c.do(ctx, http.MethodPost, "/geo/track", req, &out, true)
	if err != nil {
		return err
	}
	if status < 200 || status >= 300 {
		return &StatusError{Code: status}
	}
	if !out.Success {
		return errors.New("geo track rejected by backend")
	}
	return nil
}

// FetchCategories loads category reference data. Idempotent; retried.
func (c *Client) FetchCategories(ctx context.Context) ([]content.Category, error) {
	var out []content.Category
	err := c.readRetry.Do(ctx, func(ctx context.Context) (int, error) {
		return c.do(ctx, http.MethodGet, "/categories", nil, &out, false)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// FetchContent loads one page of articles. Idempotent; retried.
func (c *Client) FetchContent(ctx context.Context, page, limit int) ([]content.Article, error) {
	var out []content.Article
	path := "/content?" + url.Values{
		"page":  []string{strconv.Itoa(page)},
		"limit": []string{strconv.Itoa(limit)},
	}.Encode()

	err := c.readRetry.Do(ctx, func(ctx context.Context) (int, error) {
		return c.do(ctx, http.MethodGet, path, nil, &out, false)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// do performs one HTTP attempt. It returns the observed status code (0 on
// transport failure) so the retry policy can apply its predicate, and
// decodes 2xx bodies into out when out is non-nil.
func (c *Client) do(ctx context.Context, method, path string, body, out any, mutating bool) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if mutating {
		if token := c.currentCSRF(); token != "" {
			req.Header.Set("X-CSRF-Token", token)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			c.logger.Backend().Warn("Backend call timed out", "method", method, "path", path, "timeout", c.timeout)
			return 0, ErrTimeout
		}
		return 0, fmt.Errorf("backend request failed: %w", err)
	}
	defer resp.Body.Close()

	if out != nil && resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("failed to decode backend response: %w", err)
		}
		return resp.StatusCode, nil
	}

	// Expected-failure bodies (e.g. 401 login) still decode when possible.
	if out != nil {
		raw, readErr := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
		if readErr == nil && len(raw) > 0 {
			_ = json.Unmarshal(raw, out)
		}
	}

	return resp.StatusCode, nil
}
