// Package client is a small HTTP client for the mentoring API, used by the
// terminal chat and by scripts.
package client

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

	"leetmentor/ingest"
	"leetmentor/llm"
	"leetmentor/rag"
)

// Client talks to one mentoring API server.
type Client struct {
	baseURL string
	prefix  string
	http    *http.Client
}

// New creates a client for the given base URL, e.g. "http://localhost:8080".
func New(baseURL, apiPrefix string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		prefix:  apiPrefix,
		// No overall timeout: streams are bounded by the caller's context.
		http: &http.Client{},
	}
}

// Ask sends a buffered chat request.
func (c *Client) Ask(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	body, err := c.post(ctx, "/chat", req)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	var resp llm.ChatResponse
	if err := json.NewDecoder(body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &resp, nil
}

// AskStream sends a streaming chat request and hands each event to emit in
// order. It returns when the stream ends, emit fails, or the server closes
// the connection.
func (c *Client) AskStream(ctx context.Context, req llm.ChatRequest, emit rag.EmitFunc) error {
	body, err := c.post(ctx, "/chat/stream", req)
	if err != nil {
		return err
	}
	defer body.Close()

	dec := json.NewDecoder(body)
	for {
		var event rag.Event
		if err := dec.Decode(&event); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("decode event: %w", err)
		}
		if err := emit(event); err != nil {
			return err
		}
		if event.Type == rag.EventError {
			return fmt.Errorf("server error: %s", event.Error)
		}
	}
}

// IngestDocument indexes one problem's reference material and returns the
// number of chunks written.
func (c *Client) IngestDocument(ctx context.Context, doc ingest.Document) (int, error) {
	body, err := c.post(ctx, "/documents", doc)
	if err != nil {
		return 0, err
	}
	defer body.Close()

	var resp struct {
		Success       bool `json:"success"`
		ChunksIndexed int  `json:"chunks_indexed"`
	}
	if err := json.NewDecoder(body).Decode(&resp); err != nil {
		return 0, fmt.Errorf("decode response: %w", err)
	}
	return resp.ChunksIndexed, nil
}

// Health checks the API health endpoint.
func (c *Client) Health(ctx context.Context) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/healthz", nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check: status %d", resp.StatusCode)
	}
	return nil
}

// post sends a JSON POST under the API prefix and returns the response
// body. Non-2xx responses are converted to errors carrying the server's
// detail message.
func (c *Client) post(ctx context.Context, path string, payload any) (io.ReadCloser, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	url := c.baseURL + c.prefix + path
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		detail := readDetail(resp.Body)
		return nil, fmt.Errorf("request %s: status %d: %s", path, resp.StatusCode, detail)
	}
	return resp.Body, nil
}

// readDetail extracts the error envelope's detail field, falling back to
// the raw body.
func readDetail(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, 4096))
	if err != nil {
		return "unknown error"
	}
	var envelope struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(data, &envelope) == nil && envelope.Detail != "" {
		return envelope.Detail
	}
	return strings.TrimSpace(string(data))
}

// WaitReady polls the health endpoint until it responds or the context
// ends.
func (c *Client) WaitReady(ctx context.Context) error {
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()
	for {
		if err := c.Health(ctx); err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
