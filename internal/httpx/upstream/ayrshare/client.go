package ayrshare

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

const (
	defaultBaseURL = "https://api.ayrshare.com/api"
	defaultTimeout = 30 * time.Second
)

// Client is an Ayrshare social posting API client
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// ClientOption is a function that configures the Client
type ClientOption func(*Client)

// WithBaseURL sets a custom base URL
func WithBaseURL(url string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(url, "/")
	}
}

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// New creates a new Ayrshare client
func New(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: defaultBaseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// APIError represents a non-2xx answer from Ayrshare
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("ayrshare API error (status %d): %s", e.StatusCode, e.Message)
}

// Temporary reports whether the request may succeed if repeated
func (e *APIError) Temporary() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

// PostInput is the body of POST /post
type PostInput struct {
	Post      string   `json:"post"`
	Platforms []string `json:"platforms"`
	MediaURLs []string `json:"mediaUrls,omitempty"`
	IsVideo   bool     `json:"isVideo,omitempty"`
}

// PlatformPost is the per-platform part of a post response
type PlatformPost struct {
	Platform string `json:"platform"`
	Status   string `json:"status"`
	ID       string `json:"id,omitempty"`
	PostURL  string `json:"postUrl,omitempty"`
}

// PostOutput is the response of POST /post
type PostOutput struct {
	Status  string         `json:"status"`
	ID      string         `json:"id"`
	PostIDs []PlatformPost `json:"postIds,omitempty"`
	Errors  []PostError    `json:"errors,omitempty"`
}

// PostError is a platform-level error inside an otherwise answered request
type PostError struct {
	Platform string `json:"platform"`
	Code     int    `json:"code"`
	Message  string `json:"message"`
}

// Post publishes a post to the given platforms
func (c *Client) Post(ctx context.Context, in PostInput) (*PostOutput, error) {
	body, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("encoding post: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/post", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	var out PostOutput
	if err := c.do(req, &out); err != nil {
		return nil, err
	}

	if out.Status == "error" {
		msg := "post rejected"
		if len(out.Errors) > 0 {
			msg = out.Errors[0].Message
		}
		return nil, &APIError{StatusCode: http.StatusBadRequest, Message: msg}
	}

	return &out, nil
}

// do executes an HTTP request and decodes the response
func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errResp struct {
			Message string `json:"message"`
		}
		msg := strings.TrimSpace(string(body))
		if err := json.Unmarshal(body, &errResp); err == nil && errResp.Message != "" {
			msg = errResp.Message
		}
		return &APIError{StatusCode: resp.StatusCode, Message: msg}
	}

	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}

	return nil
}
