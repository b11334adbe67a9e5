// Package ocr turns receipt documents into raw text: images through an
// OCR.space compatible HTTP API, PDFs and text dumps locally.
package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/ecoreceipt/backend/internal/domain"
)

// Client defaults
const (
	DefaultBaseURL           = "https://api.ocr.space"
	DefaultLanguage          = "eng"
	DefaultTimeout           = 30 * time.Second
	DefaultRequestsPerMinute = 60
	DefaultMaxRetries        = 3
	defaultBurst             = 5
)

// ClientConfig holds configuration for the OCR client
type ClientConfig struct {
	BaseURL           string
	APIKey            string
	Language          string
	Timeout           time.Duration
	RequestsPerMinute int
	MaxRetries        int
}

// Client handles communication with an OCR.space compatible API
type Client struct {
	httpClient  *http.Client
	apiKey      string
	baseURL     string
	language    string
	maxRetries  int
	rateLimiter *rate.Limiter
	backoff     func(attempt int) time.Duration
}

// NewClient creates a new OCR API client
func NewClient(config ClientConfig) *Client {
	baseURL := strings.TrimRight(config.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	language := config.Language
	if language == "" {
		language = DefaultLanguage
	}
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	perMinute := config.RequestsPerMinute
	if perMinute <= 0 {
		perMinute = DefaultRequestsPerMinute
	}
	maxRetries := config.MaxRetries
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}

	// rate.Limit is requests per second
	limiter := rate.NewLimiter(rate.Limit(float64(perMinute)/60), defaultBurst)

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		apiKey:      config.APIKey,
		baseURL:     baseURL,
		language:    language,
		maxRetries:  maxRetries,
		rateLimiter: limiter,
		backoff: func(attempt int) time.Duration {
			return time.Duration(attempt*500) * time.Millisecond
		},
	}
}

// ExtractText sends an image to the OCR API and returns the recognized text
func (c *Client) ExtractText(ctx context.Context, doc domain.Document) (string, error) {
	resp, err := c.Recognize(ctx, doc)
	if err != nil {
		return "", err
	}
	return ParsedText(resp)
}

// Recognize uploads doc and returns the raw API response.
// Transport errors, 429 and 5xx responses are retried; other 4xx responses are not.
func (c *Client) Recognize(ctx context.Context, doc domain.Document) (*ParseResponse, error) {
	slog.Debug("OCR request", "document", doc.Name, "bytes", len(doc.Data))

	body, contentType, err := c.encodeForm(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	var lastErr error
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		if attempt > 1 {
			if err := c.wait(ctx, c.backoff(attempt-1)); err != nil {
				return nil, err
			}
		}

		// Wait for rate limiter
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter error: %w", err)
		}

		resp, err := c.doRequest(ctx, body, contentType)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			slog.Warn("OCR request error", "attempt", attempt, "error", err)
			lastErr = err
			continue
		}

		payload, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			slog.Warn("OCR API error",
				"attempt", attempt,
				"status", resp.StatusCode,
				"body", truncate(string(payload), 200))
			lastErr = fmt.Errorf("%w: status %d", domain.ErrOCRFailure, resp.StatusCode)
			if !retryable(resp.StatusCode) {
				return nil, lastErr
			}
			continue
		}

		var parsed ParseResponse
		if err := json.Unmarshal(payload, &parsed); err != nil {
			return nil, fmt.Errorf("%w: failed to decode response: %v", domain.ErrOCRFailure, err)
		}

		slog.Debug("OCR response", "document", doc.Name, "results", len(parsed.ParsedResults))
		return &parsed, nil
	}

	slog.Error("All OCR retries failed", "document", doc.Name, "attempts", c.maxRetries)
	return nil, lastErr
}

// doRequest executes a multipart POST with proper headers
func (c *Client) doRequest(ctx context.Context, body []byte, contentType string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/parse/image", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("User-Agent", "EcoReceipt/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrOCRFailure, err)
	}
	return resp, nil
}

// encodeForm builds the multipart body once so retries resend the same bytes
func (c *Client) encodeForm(doc domain.Document) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fields := [][2]string{
		{"language", c.language},
		{"OCREngine", "2"},
		{"scale", "true"},
		{"isTable", "true"},
	}
	for _, f := range fields {
		if err := w.WriteField(f[0], f[1]); err != nil {
			return nil, "", err
		}
	}

	name := doc.Name
	if name == "" {
		name = "receipt"
	}
	part, err := w.CreateFormFile("file", name)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(doc.Data); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}

	return buf.Bytes(), w.FormDataContentType(), nil
}

func (c *Client) wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func retryable(status int) bool {
	return status == http.StatusTooManyRequests || status >= http.StatusInternalServerError
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
