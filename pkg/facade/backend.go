package facade

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultTimeout bounds one backend call; it exceeds the orchestrator deadline.
const DefaultTimeout = 120 * time.Second

// Backend posts JSON to the transcript backend.
type Backend struct {
	baseURL string
	client  *http.Client
}

// NewBackend creates a backend client. A nil client gets DefaultTimeout.
func NewBackend(baseURL string, client *http.Client) *Backend {
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}
	return &Backend{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
	}
}

// Response is a backend reply: the HTTP status and the decoded JSON object.
type Response struct {
	Status int
	Body   map[string]any
}

// Success reports the backend's success flag.
func (r *Response) Success() bool {
	ok, _ := r.Body["success"].(bool)
	return ok
}

// Post sends payload to path. Any HTTP status is returned as a Response; an
// error means the backend could not be reached or answered non-JSON.
func (b *Backend) Post(ctx context.Context, path string, payload any) (*Response, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return b.do(req)
}

// Get fetches path.
func (b *Backend) Get(ctx context.Context, path string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	return b.do(req)
}

func (b *Backend) do(req *http.Request) (*Response, error) {
	resp, err := b.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read backend response: %w", err)
	}

	out := &Response{Status: resp.StatusCode, Body: map[string]any{}}
	if err := json.Unmarshal(raw, &out.Body); err != nil {
		return nil, fmt.Errorf("backend returned status %d with non-JSON body: %s", resp.StatusCode, truncate(string(raw), 200))
	}
	if out.Body == nil {
		out.Body = map[string]any{}
	}
	return out, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
