// Package restore talks to the mural restoration service.
package restore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/example/muralmend/internal/annotation"
	"github.com/example/muralmend/internal/progress"
)

// RequestIDHeader carries the per-submission identifier.
const RequestIDHeader = "X-Request-ID"

// ProcessRequest is the body of POST /process.
type ProcessRequest struct {
	Image      string            `json:"image"`
	Rectangles []annotation.Rect `json:"rectangles"`
}

// ProcessResponse is the body returned by POST /process.
type ProcessResponse struct {
	Success bool    `json:"success"`
	Result  string  `json:"result,omitempty"`
	Message string  `json:"message"`
	Time    float64 `json:"time"`
}

// Result is a decoded successful submission.
type Result struct {
	Image     image.Image
	Message   string
	Elapsed   time.Duration
	RequestID string
}

// ProcessError reports a failed submission. Err holds the transport or
// decoding cause when there is one.
type ProcessError struct {
	Status  int
	Message string
	Err     error
}

func (e *ProcessError) Error() string {
	switch {
	case e.Err != nil && e.Message != "":
		return fmt.Sprintf("processing failed: %s: %v", e.Message, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("processing failed: %v", e.Err)
	case e.Status != 0:
		return fmt.Sprintf("processing failed (HTTP %d): %s", e.Status, e.Message)
	}
	return "processing failed: " + e.Message
}

func (e *ProcessError) Unwrap() error { return e.Err }

// Client is a restoration service client.
type Client struct {
	baseURL       string
	httpClient    *http.Client
	statusTimeout time.Duration
	log           *slog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(h *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = h }
}

// WithClientLogger sets the client logger.
func WithClientLogger(l *slog.Logger) ClientOption {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// NewClient returns a client for the service at serverURL.
func NewClient(serverURL string, opts ...ClientOption) *Client {
	if serverURL == "" {
		serverURL = "http://127.0.0.1:5000"
	}
	c := &Client{
		baseURL:       strings.TrimSuffix(serverURL, "/"),
		httpClient:    &http.Client{Timeout: 10 * time.Minute},
		statusTimeout: 5 * time.Second,
		log:           slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// BaseURL returns the service root.
func (c *Client) BaseURL() string { return c.baseURL }

// Status queries GET /status. It satisfies progress.StatusSource.
func (c *Client) Status(ctx context.Context) (progress.Status, error) {
	ctx, cancel := context.WithTimeout(ctx, c.statusTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/status", nil)
	if err != nil {
		return progress.Status{}, fmt.Errorf("create status request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return progress.Status{}, fmt.Errorf("status request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return progress.Status{}, fmt.Errorf("status returned HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	var st progress.Status
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		return progress.Status{}, fmt.Errorf("decode status: %w", err)
	}
	return st, nil
}

// Process submits img and rects to POST /process and decodes the restored
// image. Every failure is returned as a *ProcessError.
func (c *Client) Process(ctx context.Context, img image.Image, rects []annotation.Rect) (*Result, error) {
	id := uuid.NewString()
	log := c.log.With("request", id)

	dataURL, err := EncodeDataURL(img)
	if err != nil {
		return nil, &ProcessError{Message: "encode image", Err: err}
	}
	if rects == nil {
		rects = []annotation.Rect{}
	}
	body, err := json.Marshal(ProcessRequest{Image: dataURL, Rectangles: rects})
	if err != nil {
		return nil, &ProcessError{Message: "encode request", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/process", bytes.NewReader(body))
	if err != nil {
		return nil, &ProcessError{Message: "create request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(RequestIDHeader, id)

	log.Info("submitting", "regions", len(rects), "bytes", len(body))
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &ProcessError{Message: "send request", Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ProcessError{Status: resp.StatusCode, Message: "read response", Err: err}
	}
	var pr ProcessResponse
	if err := json.Unmarshal(raw, &pr); err != nil {
		if resp.StatusCode != http.StatusOK {
			return nil, &ProcessError{Status: resp.StatusCode, Message: strings.TrimSpace(string(raw))}
		}
		return nil, &ProcessError{Status: resp.StatusCode, Message: "decode response", Err: err}
	}
	if resp.StatusCode != http.StatusOK || !pr.Success {
		msg := pr.Message
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		log.Warn("processing rejected", "status", resp.StatusCode, "message", msg)
		return nil, &ProcessError{Status: resp.StatusCode, Message: msg}
	}

	out, _, err := DecodeDataURL(pr.Result)
	if err != nil {
		return nil, &ProcessError{Status: resp.StatusCode, Message: "decode result", Err: err}
	}
	elapsed := time.Duration(pr.Time * float64(time.Second))
	if elapsed <= 0 {
		elapsed = time.Since(start)
	}
	log.Info("restored", "elapsed", elapsed, "message", pr.Message)
	return &Result{Image: out, Message: pr.Message, Elapsed: elapsed, RequestID: id}, nil
}

// IsProcessError reports whether err is a submission failure.
func IsProcessError(err error) bool {
	var pe *ProcessError
	return errors.As(err, &pe)
}
