// Package docintel talks to the external document analysis service: submit a
// document URL, poll the returned operation until it settles, and map the
// nested result payload onto domain entities. All transport failures are
// converted to the typed errors below; callers never see raw HTTP errors.
package docintel

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

var (
	// ErrSubmission: the analyze request was rejected or returned no
	// operation locator. Terminal, not retried.
	ErrSubmission = errors.New("analysis submission failed")
	// ErrAnalysis: the service reported the job as failed, or a poll
	// request itself was rejected. Terminal.
	ErrAnalysis = errors.New("analysis job failed")
	// ErrTimeout: the job was still running when the poll budget ran out.
	ErrTimeout = errors.New("analysis polling timed out")
	// ErrParse: the result payload is structurally unusable (distinct from
	// tolerated missing fields, which get defaults).
	ErrParse = errors.New("unusable analysis result")
)

const (
	defaultModelID      = "prebuilt-receipt"
	defaultAPIVersion   = "2024-11-30"
	defaultPollInterval = 2 * time.Second
	defaultMaxPolls     = 10

	authHeader = "Ocp-Apim-Subscription-Key"
)

// Client submits documents to the analysis service and polls for results.
// The zero interval/attempt fields fall back to the service defaults; tests
// inject short intervals.
type Client struct {
	endpoint     string
	apiKey       string
	modelID      string
	apiVersion   string
	pollInterval time.Duration
	maxPolls     int
	httpClient   *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithPolling overrides the poll interval and attempt budget.
func WithPolling(interval time.Duration, maxAttempts int) Option {
	return func(c *Client) {
		c.pollInterval = interval
		c.maxPolls = maxAttempts
	}
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithModel overrides the document model and API version.
func WithModel(modelID, apiVersion string) Option {
	return func(c *Client) {
		c.modelID = modelID
		c.apiVersion = apiVersion
	}
}

func NewClient(endpoint, apiKey string, opts ...Option) *Client {
	c := &Client{
		endpoint:     endpoint,
		apiKey:       apiKey,
		modelID:      defaultModelID,
		apiVersion:   defaultAPIVersion,
		pollInterval: defaultPollInterval,
		maxPolls:     defaultMaxPolls,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type scanRequest struct {
	URLSource string `json:"urlSource"`
}

// Submit sends the document URL for analysis and returns the operation
// locator from the response metadata. Any failure here is ErrSubmission.
func (c *Client) Submit(ctx context.Context, documentURL string) (string, error) {
	body, err := json.Marshal(scanRequest{URLSource: documentURL})
	if err != nil {
		return "", fmt.Errorf("%w: marshal request: %v", ErrSubmission, err)
	}

	url := fmt.Sprintf("%s/documentintelligence/documentModels/%s:analyze?api-version=%s",
		c.endpoint, c.modelID, c.apiVersion)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: build request: %v", ErrSubmission, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(authHeader, c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSubmission, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("%w: status %d: %s", ErrSubmission, resp.StatusCode, snippet)
	}

	// The locator lives in the response metadata, not the body.
	operationLocation := resp.Header.Get("Operation-Location")
	if operationLocation == "" {
		return "", fmt.Errorf("%w: missing Operation-Location header", ErrSubmission)
	}

	slog.InfoContext(ctx, "Analysis job submitted", "operation_location", operationLocation)
	return operationLocation, nil
}

// Poll fetches the job status at a fixed interval until it succeeds, fails,
// or the attempt budget is exhausted. A job that never leaves running is
// ErrTimeout after maxPolls attempts.
func (c *Client) Poll(ctx context.Context, operationLocation string) (*AnalyzeResult, error) {
	for attempt := 1; attempt <= c.maxPolls; attempt++ {
		result, err := c.fetch(ctx, operationLocation)
		if err != nil {
			return nil, err
		}

		switch result.Status {
		case StatusSucceeded:
			slog.InfoContext(ctx, "Analysis job succeeded", "attempts", attempt)
			if result.AnalyzeResult == nil {
				return nil, fmt.Errorf("%w: succeeded without analyzeResult", ErrParse)
			}
			return result.AnalyzeResult, nil
		case StatusFailed:
			return nil, fmt.Errorf("%w: service reported failure", ErrAnalysis)
		case StatusRunning, StatusNotStarted:
			// keep polling
		default:
			return nil, fmt.Errorf("%w: unknown status %q", ErrAnalysis, result.Status)
		}

		if attempt == c.maxPolls {
			break
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %v", ErrTimeout, ctx.Err())
		case <-time.After(c.pollInterval):
		}
	}

	return nil, fmt.Errorf("%w: still running after %d attempts", ErrTimeout, c.maxPolls)
}

func (c *Client) fetch(ctx context.Context, operationLocation string) (*ScanResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, operationLocation, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build poll request: %v", ErrAnalysis, err)
	}
	req.Header.Set(authHeader, c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAnalysis, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: poll status %d: %s", ErrAnalysis, resp.StatusCode, snippet)
	}

	var result ScanResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("%w: decode poll response: %v", ErrAnalysis, err)
	}
	return &result, nil
}
