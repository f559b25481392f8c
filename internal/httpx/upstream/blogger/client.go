package blogger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultBaseURL = "https://www.googleapis.com/blogger/v3"
	defaultTimeout = 30 * time.Second
)

// Client is a Blogger v3 API client bound to one blog
type Client struct {
	baseURL    string
	blogID     string
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

// WithHTTPClient sets a custom HTTP client, e.g. one carrying OAuth credentials
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// New creates a new Blogger client
func New(blogID, apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: defaultBaseURL,
		blogID:  blogID,
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

// APIError represents a Google API error
type APIError struct {
	StatusCode int    `json:"code"`
	Message    string `json:"message"`
	Status     string `json:"status"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("blogger API error (status %d): %s", e.StatusCode, e.Message)
}

// Temporary reports whether the request may succeed if repeated
func (e *APIError) Temporary() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

type blogRef struct {
	ID string `json:"id"`
}

type insertRequest struct {
	Kind    string  `json:"kind"`
	Blog    blogRef `json:"blog"`
	Title   string  `json:"title"`
	Content string  `json:"content"`
}

// Post is a published blog post
type Post struct {
	ID        string `json:"id"`
	URL       string `json:"url"`
	Title     string `json:"title"`
	Published string `json:"published"`
}

// InsertPost publishes a post with HTML content
func (c *Client) InsertPost(ctx context.Context, title, html string) (*Post, error) {
	body, err := json.Marshal(insertRequest{
		Kind:    "blogger#post",
		Blog:    blogRef{ID: c.blogID},
		Title:   title,
		Content: html,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding post: %w", err)
	}

	endpoint := fmt.Sprintf("%s/blogs/%s/posts/", c.baseURL, url.PathEscape(c.blogID))
	if c.apiKey != "" {
		endpoint += "?key=" + url.QueryEscape(c.apiKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error APIError `json:"error"`
		}
		if err := json.Unmarshal(raw, &errResp); err != nil || errResp.Error.Message == "" {
			return nil, &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(raw))}
		}
		errResp.Error.StatusCode = resp.StatusCode
		return nil, &errResp.Error
	}

	var out Post
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	return &out, nil
}
