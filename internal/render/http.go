package render

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// maxResponseBytes caps how much of a render response is read.
const maxResponseBytes = 4 << 20

// HTTP renders by POSTing Params as JSON to an endpoint. A 2xx response
// body is returned verbatim as the render output.
type HTTP struct {
	endpoint string
	client   *http.Client
}

// NewHTTP creates an HTTP renderer. A nil client uses one with a 10s
// timeout.
func NewHTTP(endpoint string, client *http.Client) *HTTP {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &HTTP{endpoint: endpoint, client: client}
}

// Render implements Renderer.
func (h *HTTP) Render(ctx context.Context, address string, p Params) (string, error) {
	body, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("render %s: encode params: %w", address, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("render %s: %w", address, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Target-Address", address)

	resp, err := h.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("render %s: %w", address, err)
	}
	defer resp.Body.Close()

	out, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("render %s: read response: %w", address, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("render %s: endpoint returned %s", address, resp.Status)
	}
	return string(out), nil
}
