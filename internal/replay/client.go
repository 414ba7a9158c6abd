package replay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/okian/posecom/internal/adapters/export"
	"github.com/okian/posecom/internal/domain/types"
)

// Client talks to a running posecom server.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a client with a per-request timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// StatusError is a non-2xx response.
type StatusError struct {
	Status int
	Code   string
	Msg    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("status %d %s: %s", e.Status, e.Code, e.Msg)
}

func (e *StatusError) Unwrap() error { return ErrRequest }

func (c *Client) do(ctx context.Context, method, path string, body, out any) (int, error) {
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("failed to marshal request body: %w", err)
		}
		r = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, r)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %s: %v", ErrRequest, method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= http.StatusBadRequest {
		var e apiError
		_ = json.NewDecoder(resp.Body).Decode(&e)
		return resp.StatusCode, &StatusError{Status: resp.StatusCode, Code: e.Code, Msg: e.Message}
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("decode %s %s: %w", method, path, err)
		}
	}
	return resp.StatusCode, nil
}

// Health checks /healthz.
func (c *Client) Health(ctx context.Context) error {
	var out struct {
		Status string `json:"status"`
	}
	if _, err := c.do(ctx, http.MethodGet, "/healthz", nil, &out); err != nil {
		return fmt.Errorf("%w: %v", ErrUnhealthy, err)
	}
	if out.Status != "ok" {
		return fmt.Errorf("%w: status %q", ErrUnhealthy, out.Status)
	}
	return nil
}

// CreateSession opens a session.
func (c *Client) CreateSession(ctx context.Context, req types.CreateSessionRequest) (types.Session, error) {
	var s types.Session
	_, err := c.do(ctx, http.MethodPost, "/sessions", req, &s)
	return s, err
}

// Session reads a session.
func (c *Client) Session(ctx context.Context, id string) (types.Session, error) {
	var s types.Session
	_, err := c.do(ctx, http.MethodGet, "/sessions/"+id, nil, &s)
	return s, err
}

// DeleteSession removes a session.
func (c *Client) DeleteSession(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, "/sessions/"+id, nil, nil)
	return err
}

// Submit posts a detection.
func (c *Client) Submit(ctx context.Context, id string, req types.DetectionRequest) (types.DetectionAck, error) {
	var ack types.DetectionAck
	_, err := c.do(ctx, http.MethodPost, "/sessions/"+id+"/detections", req, &ack)
	return ack, err
}

// Summary reads the per-frame summary of a session.
func (c *Client) Summary(ctx context.Context, id string) ([]export.FrameSummary, error) {
	var out []export.FrameSummary
	_, err := c.do(ctx, http.MethodGet, "/sessions/"+id+"/summary", nil, &out)
	return out, err
}

// Export streams a session export into w.
func (c *Client) Export(ctx context.Context, id string, f export.Format, w io.Writer) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/sessions/"+id+"/export?format="+string(f), http.NoBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: export: %v", ErrRequest, err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		var e apiError
		_ = json.NewDecoder(resp.Body).Decode(&e)
		return &StatusError{Status: resp.StatusCode, Code: e.Code, Msg: e.Message}
	}
	_, err = io.Copy(w, resp.Body)
	return err
}
