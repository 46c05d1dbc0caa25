package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/specialistvlad/fraudgrid/internal/model"
)

// DefaultRemoteTimeout bounds one call to a remote analyst.
const DefaultRemoteTimeout = 30 * time.Second

// Remote posts records to an external analysis service.
type Remote struct {
	URL     string
	Headers map[string]string
	Client  *http.Client
}

// NewRemote creates a remote analyst for url.
func NewRemote(url string, headers map[string]string) *Remote {
	return &Remote{URL: url, Headers: headers, Client: &http.Client{Timeout: DefaultRemoteTimeout}}
}

type remoteRequest struct {
	Records []model.Record `json:"records"`
}

func (r *Remote) Analyze(ctx context.Context, records []model.Record) (any, error) {
	if r.URL == "" {
		return nil, errors.New("remote analyst has no url")
	}
	body, err := json.Marshal(remoteRequest{Records: records})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.URL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range r.Headers {
		req.Header.Set(k, v)
	}

	client := r.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	return Decode(resp.Body)
}

// Response is the only shape a remote analyst may answer with. Exactly one of
// the fields must be set.
type Response struct {
	Data      map[string]any `json:"data,omitempty"`
	Narrative *string        `json:"narrative,omitempty"`
}

// Decode parses a remote analyst response. Anything that does not match
// Response is a ComputationError.
func Decode(r io.Reader) (any, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()

	var resp Response
	if err := dec.Decode(&resp); err != nil {
		return nil, model.ComputationError{Stage: "analyze", Message: "malformed analyst response: " + err.Error()}
	}
	switch {
	case resp.Data != nil && resp.Narrative == nil:
		return map[string]any{"data": resp.Data}, nil
	case resp.Narrative != nil && resp.Data == nil:
		return map[string]any{"narrative": *resp.Narrative}, nil
	}
	return nil, model.ComputationError{Stage: "analyze", Message: "analyst response must carry exactly one of data or narrative"}
}

// New builds the analyst for kind. An empty kind means stats.
func New(kind, url string, headers map[string]string) (Analyst, error) {
	switch kind {
	case "", KindStats:
		return Stats{}, nil
	case KindRemote:
		if url == "" {
			return nil, errors.New("remote analyst needs a url")
		}
		return NewRemote(url, headers), nil
	}
	return nil, fmt.Errorf("unknown analyst kind %q", kind)
}
