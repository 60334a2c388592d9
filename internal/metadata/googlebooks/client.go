// Package googlebooks queries the Google Books volumes API by ISBN.
package googlebooks

import (
	"context"
	"encoding/json/v2"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/readnest/readnest/internal/metadata"
	"github.com/readnest/readnest/internal/ratelimit"
)

const (
	// DefaultBaseURL is the public API root.
	DefaultBaseURL = "https://www.googleapis.com/books/v1"

	// Unauthenticated quota is generous but shared per IP.
	defaultRPS     = 2.0
	defaultBurst   = 4
	defaultTimeout = 10 * time.Second

	providerName = "googlebooks"
)

// ErrServer reports a 5xx from the API.
var ErrServer = errors.New("googlebooks: server error")

// Config configures a Client.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Client is a rate-limited Google Books client.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	limiter *ratelimit.KeyedRateLimiter
	logger  *slog.Logger
}

// New creates a Google Books client.
func New(cfg Config, logger *slog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		http:    &http.Client{Timeout: cfg.Timeout},
		limiter: ratelimit.New(defaultRPS, defaultBurst),
		logger:  logger,
	}
}

// Close releases resources held by the client.
func (c *Client) Close() {
	c.limiter.Stop()
}

// Name identifies the provider.
func (c *Client) Name() string { return providerName }

// LookupISBN returns the first volume's title and thumbnail.
func (c *Client) LookupISBN(ctx context.Context, isbn string) (*metadata.Match, error) {
	query := url.Values{}
	query.Set("q", "isbn:"+isbn)
	if c.apiKey != "" {
		query.Set("key", c.apiKey)
	}

	body, err := c.doRequest(ctx, "/volumes", query)
	if err != nil {
		return nil, err
	}

	var resp volumesResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	if len(resp.Items) == 0 {
		return nil, nil
	}

	info := resp.Items[0].VolumeInfo
	return &metadata.Match{
		ISBN:     isbn,
		Title:    info.Title,
		CoverURL: info.ImageLinks.Thumbnail,
		Source:   providerName,
	}, nil
}

// doRequest executes a GET with rate limiting and returns the body of a 200.
func (c *Client) doRequest(ctx context.Context, path string, query url.Values) ([]byte, error) {
	if err := c.limiter.Wait(ctx, providerName); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	reqURL := c.baseURL + path + "?" + query.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	c.logger.Debug("google books request", "path", path, "q", query.Get("q"))

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		return body, nil
	case resp.StatusCode >= 500:
		return nil, ErrServer
	default:
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
}

type volumesResponse struct {
	TotalItems int      `json:"totalItems"`
	Items      []volume `json:"items"`
}

type volume struct {
	ID         string     `json:"id"`
	VolumeInfo volumeInfo `json:"volumeInfo"`
}

type volumeInfo struct {
	Title      string     `json:"title"`
	Subtitle   string     `json:"subtitle"`
	Authors    []string   `json:"authors"`
	ImageLinks imageLinks `json:"imageLinks"`
}

type imageLinks struct {
	SmallThumbnail string `json:"smallThumbnail"`
	Thumbnail      string `json:"thumbnail"`
}
