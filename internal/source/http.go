package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultHTTPTimeout bounds one http source request.
const DefaultHTTPTimeout = 10 * time.Second

// HTTPLoader fetches records from a JSON endpoint.
type HTTPLoader struct {
	client *http.Client
}

// NewHTTPLoader creates an http loader. A nil client gets a default one with
// DefaultHTTPTimeout.
func NewHTTPLoader(client *http.Client) *HTTPLoader {
	if client == nil {
		client = &http.Client{Timeout: DefaultHTTPTimeout}
	}
	return &HTTPLoader{client: client}
}

func (l *HTTPLoader) Load(ctx context.Context, d Descriptor) (Result, error) {
	if d.URL == "" {
		return Result{}, errors.New("http source needs a url")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.URL, nil)
	if err != nil {
		return Result{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range d.Headers {
		req.Header.Set(k, v)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Result{}, fmt.Errorf("unexpected status %s: %s", resp.Status, body)
	}

	var v any
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		return Result{}, fmt.Errorf("decode response: %w", err)
	}
	data, err := recordsFromJSON(v)
	if err != nil {
		return Result{}, err
	}
	return Result{Data: data}, nil
}
