// Package client is a typed Go client for the shopsearch HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
)

// Client calls the shopsearch API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// New creates a client for the API at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: http.DefaultClient,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// SearchOptions toggles the full-text sub-clauses.
type SearchOptions struct {
	FuzzyMatching  bool `json:"fuzzyMatching,omitempty"`
	AutoComplete   bool `json:"autoComplete,omitempty"`
	PhraseMatching bool `json:"phraseMatching,omitempty"`
}

// SearchRequest is a text search request. Type is one of basic, fulltext,
// vector, semantic or concept.
type SearchRequest struct {
	Type    string        `json:"type"`
	Query   string        `json:"query"`
	Options SearchOptions `json:"options"`
}

// Result is a single product hit. Score is nil for unscored basic hits.
type Result struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Price       float64  `json:"price"`
	Image       string   `json:"image"`
	Score       *float64 `json:"score"`
}

// SearchResponse is the unified search envelope.
type SearchResponse struct {
	Results          []Result `json:"results"`
	SearchTime       string   `json:"searchTime"`
	ImageDescription string   `json:"imageDescription"`
}

// HealthResponse is the health endpoint payload.
type HealthResponse struct {
	Status        string   `json:"status"`
	Database      string   `json:"database"`
	ModelProvider string   `json:"model_provider"`
	SearchTypes   []string `json:"search_types"`
}

// APIError is a non-2xx API response.
type APIError struct {
	StatusCode int
	Message    string `json:"error"`
	Details    string `json:"details"`
}

func (e *APIError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("shopsearch: %s: %s (status %d)", e.Message, e.Details, e.StatusCode)
	}
	return fmt.Sprintf("shopsearch: %s (status %d)", e.Message, e.StatusCode)
}

// Search runs a text search.
func (c *Client) Search(ctx context.Context, req *SearchRequest) (*SearchResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("shopsearch: encode request: %w", err)
	}

	var resp SearchResponse
	if err := c.do(ctx, http.MethodPost, "/api/search", "application/json", bytes.NewReader(body), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SearchImage runs an image search by uploading the image bytes.
func (c *Client) SearchImage(ctx context.Context, image []byte) (*SearchResponse, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("type", "image"); err != nil {
		return nil, fmt.Errorf("shopsearch: build form: %w", err)
	}
	fw, err := mw.CreateFormFile("image", "image")
	if err != nil {
		return nil, fmt.Errorf("shopsearch: build form: %w", err)
	}
	if _, err := fw.Write(image); err != nil {
		return nil, fmt.Errorf("shopsearch: build form: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("shopsearch: build form: %w", err)
	}

	var resp SearchResponse
	if err := c.do(ctx, http.MethodPost, "/api/search", mw.FormDataContentType(), &buf, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Products lists the catalog.
func (c *Client) Products(ctx context.Context) ([]Result, error) {
	var products []Result
	if err := c.do(ctx, http.MethodGet, "/api/products", "", nil, &products); err != nil {
		return nil, err
	}
	return products, nil
}

// Product fetches a single product by id.
func (c *Client) Product(ctx context.Context, id string) (*Result, error) {
	var product Result
	if err := c.do(ctx, http.MethodGet, "/api/products/"+id, "", nil, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

// Categories lists the distinct product categories.
func (c *Client) Categories(ctx context.Context) ([]string, error) {
	var payload struct {
		Categories []string `json:"categories"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/categories", "", nil, &payload); err != nil {
		return nil, err
	}
	return payload.Categories, nil
}

// Health fetches the service health report.
func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	var resp HealthResponse
	if err := c.do(ctx, http.MethodGet, "/health", "", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) do(ctx context.Context, method, path, contentType string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("shopsearch: build request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("shopsearch: %s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: "request failed"}
		_ = json.NewDecoder(resp.Body).Decode(apiErr)
		return apiErr
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("shopsearch: decode response: %w", err)
		}
	}
	return nil
}
