package deepface

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Config holds the configuration for the DeepFace client
type Config struct {
	BaseURL  string
	Timeout  time.Duration
	Model    string
	Detector string
	// RetryCount is the number of retries after the first attempt
	RetryCount int
	// BackoffBase doubles on every retry up to BackoffMax
	BackoffBase time.Duration
	BackoffMax  time.Duration
	// FaceSize is the edge of the square crop produced by Analyze
	FaceSize int
}

func DefaultConfig() Config {
	return Config{
		BaseURL:     "http://localhost:5005",
		Timeout:     30 * time.Second,
		Model:       "Facenet512",
		Detector:    "retinaface",
		RetryCount:  3,
		BackoffBase: time.Second,
		BackoffMax:  30 * time.Second,
		FaceSize:    160,
	}
}

// backoff returns the wait before retry n (1-based)
func (c Config) backoff(n int) time.Duration {
	base, ceiling := c.BackoffBase, c.BackoffMax
	if base <= 0 {
		base = time.Second
	}
	if ceiling <= 0 {
		ceiling = 30 * time.Second
	}

	d := base
	for i := 1; i < n; i++ {
		d *= 2
		if d >= ceiling {
			return ceiling
		}
	}
	return min(d, ceiling)
}

// Client talks JSON to a DeepFace server
type Client struct {
	httpClient *http.Client
	config     Config
	baseURL    string
}

func NewClient(config Config) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: config.Timeout},
		config:     config,
		baseURL:    strings.TrimRight(config.BaseURL, "/"),
	}
}

// StatusError is returned when DeepFace answers with a 4xx or 5xx status.
// Detail carries the server's "error" field when the body has one.
type StatusError struct {
	StatusCode int
	Detail     string
}

func (e *StatusError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("deepface returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("deepface returned status %d: %s", e.StatusCode, e.Detail)
}

// Temporary reports whether retrying the same request may succeed
func (e *StatusError) Temporary() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

// Represent calls POST /represent and returns one embedding per detected face.
// With detection enforced DeepFace answers 400 when no face is found.
func (c *Client) Represent(ctx context.Context, imageBase64 string, enforceDetection bool) (*RepresentResponse, error) {
	req := RepresentRequest{
		Img:              "data:image/jpeg;base64," + imageBase64,
		Model:            c.config.Model,
		Detector:         c.config.Detector,
		EnforceDetection: enforceDetection,
	}

	var resp RepresentResponse
	if err := c.post(ctx, "/represent", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// post sends body and decodes the answer into out, retrying transport
// failures and temporary statuses
func (c *Client) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= c.config.RetryCount; attempt++ {
		if attempt > 0 {
			timer := time.NewTimer(c.config.backoff(attempt))
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}

		lastErr = c.send(ctx, path, payload, out)
		if lastErr == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !retryable(lastErr) {
			return lastErr
		}
	}

	return fmt.Errorf("%w: %v", ErrDeepFaceUnavailable, lastErr)
}

func retryable(err error) bool {
	if errors.Is(err, ErrInvalidResponse) {
		return false
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Temporary()
	}
	return true
}

func (c *Client) send(ctx context.Context, path string, payload []byte, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return &StatusError{StatusCode: resp.StatusCode, Detail: errorDetail(raw)}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return nil
}

// errorDetail extracts {"error": "..."} and falls back to the trimmed body
func errorDetail(raw []byte) string {
	var body ErrorBody
	if err := json.Unmarshal(raw, &body); err == nil && body.Error != "" {
		return body.Error
	}

	s := strings.TrimSpace(string(raw))
	if len(s) > 256 {
		s = s[:256]
	}
	return s
}
