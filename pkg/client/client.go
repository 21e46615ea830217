// Package client is the fluxlord SDK: a thin HTTP client for the solve
// daemon. It satisfies the engine's Remote interface, so a dispatcher can
// hand large or integer problems to a daemon through it.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rmax-ai/fluxlord/pkg/analysis"
	"github.com/rmax-ai/fluxlord/pkg/model"
)

// Remote solves carry network and heavier solver latency, so the client
// timeout is deliberately longer than any in-process budget.
const (
	defaultEndpoint = "http://127.0.0.1:8990"
	solveTimeout    = 120 * time.Second
	probeTimeout    = 5 * time.Second
)

// Client talks to a fluxlord daemon.
type Client struct {
	endpoint string
	http     *http.Client
}

// NewClient creates a client. endpoint defaults to "http://127.0.0.1:8990"
// if empty.
func NewClient(endpoint string) *Client {
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	return &Client{
		endpoint: endpoint,
		http: &http.Client{
			Timeout: solveTimeout,
		},
	}
}

// Solve posts one analysis request to /solve/<method> and decodes the
// Solution. Transport and non-2xx failures come back as errors; solver
// outcomes (infeasible, timeout, ...) come back inside the Solution.
func (c *Client) Solve(ctx context.Context, method analysis.Method, m *model.Model, opts analysis.Options) (analysis.Solution, error) {
	if !method.Valid() {
		return analysis.Solution{}, fmt.Errorf("invalid method %q", method.String())
	}
	body, err := json.Marshal(SolveRequest{Model: m, Options: opts})
	if err != nil {
		return analysis.Solution{}, fmt.Errorf("failed to marshal solve request: %w", err)
	}

	url := c.endpoint + "/solve/" + method.String()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return analysis.Solution{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return analysis.Solution{}, fmt.Errorf("daemon unreachable: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusBadRequest:
		return analysis.Solution{}, &analysis.UsageError{Msg: errorBody(resp.Body)}
	case resp.StatusCode != http.StatusOK:
		return analysis.Solution{}, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, errorBody(resp.Body))
	}

	var sol analysis.Solution
	if err := json.NewDecoder(resp.Body).Decode(&sol); err != nil {
		return analysis.Solution{}, fmt.Errorf("failed to decode solution: %w", err)
	}
	return sol, nil
}

// Health probes the daemon. It satisfies the engine's Remote interface.
func (c *Client) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	_, err := c.Ping(ctx)
	return err
}

// Ping fetches the daemon's status document.
func (c *Client) Ping(ctx context.Context) (Status, error) {
	var status Status
	if err := c.getJSON(ctx, "/health", &status); err != nil {
		return Status{}, err
	}
	return status, nil
}

// ModelInfo asks the daemon to summarize a model.
func (c *Client) ModelInfo(ctx context.Context, m *model.Model) (model.Info, error) {
	body, err := json.Marshal(m)
	if err != nil {
		return model.Info{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/model/info", bytes.NewReader(body))
	if err != nil {
		return model.Info{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return model.Info{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return model.Info{}, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, errorBody(resp.Body))
	}

	var info model.Info
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return model.Info{}, err
	}
	return info, nil
}

// UploadModel stores a model in the daemon's model store and returns its
// digest. Later solves can reference the digest instead of resending the
// model.
func (c *Client) UploadModel(ctx context.Context, m *model.Model) (string, error) {
	body, err := json.Marshal(m)
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/models", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("unexpected status %d: %s", resp.StatusCode, errorBody(resp.Body))
	}

	var upload struct {
		Digest string `json:"digest"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&upload); err != nil {
		return "", err
	}
	return upload.Digest, nil
}

// Models lists the digests stored in the daemon's model store.
func (c *Client) Models(ctx context.Context) ([]string, error) {
	var digests []string
	if err := c.getJSON(ctx, "/models", &digests); err != nil {
		return nil, err
	}
	return digests, nil
}

// Runs fetches the daemon's recent solve archive.
func (c *Client) Runs(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 50
	}
	var runs []Run
	if err := c.getJSON(ctx, fmt.Sprintf("/v1/runs?limit=%d", limit), &runs); err != nil {
		return nil, err
	}
	return runs, nil
}

// PruneRuns deletes archived runs older than the given age and reports
// how many were removed.
func (c *Client) PruneRuns(ctx context.Context, olderThan time.Duration) (int64, error) {
	url := fmt.Sprintf("%s/v1/runs?older_than=%s", c.endpoint, olderThan)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, url, nil)
	if err != nil {
		return 0, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, errorBody(resp.Body))
	}
	var out struct {
		Pruned int64 `json:"pruned"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, err
	}
	return out.Pruned, nil
}

// RunStats aggregates the daemon's archive by solver status.
func (c *Client) RunStats(ctx context.Context) (map[string]int, error) {
	var counts map[string]int
	if err := c.getJSON(ctx, "/v1/runs/stats", &counts); err != nil {
		return nil, err
	}
	return counts, nil
}

// DeleteModel removes a stored model by digest.
func (c *Client) DeleteModel(ctx context.Context, digest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.endpoint+"/models/"+digest, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, errorBody(resp.Body))
	}
	return nil
}

// WaitReady pings until the daemon answers or the attempts are exhausted,
// backing off between probes.
func (c *Client) WaitReady(ctx context.Context, attempts int, backoff BackoffStrategy) error {
	if backoff == nil {
		backoff = DefaultBackoff()
	}
	var lastErr error
	for i := 0; i < attempts; i++ {
		if _, lastErr = c.Ping(ctx); lastErr == nil {
			return nil
		}
		select {
		case <-time.After(backoff.Next(i)):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return fmt.Errorf("daemon not ready after %d attempts: %w", attempts, lastErr)
}

func (c *Client) getJSON(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+path, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, errorBody(resp.Body))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// errorBody extracts a short error message from a failed response.
func errorBody(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, 512))
	if err != nil || len(data) == 0 {
		return "no body"
	}
	var wrapped struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(data, &wrapped) == nil && wrapped.Error != "" {
		return wrapped.Error
	}
	return string(data)
}
