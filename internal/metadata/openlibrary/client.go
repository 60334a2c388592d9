// Package openlibrary queries the Open Library books API by ISBN.
package openlibrary

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
	// DefaultBaseURL is the public site root.
	DefaultBaseURL = "https://openlibrary.org"

	defaultRPS     = 1.0
	defaultBurst   = 3
	defaultTimeout = 10 * time.Second

	providerName = "openlibrary"
)

// ErrServer reports a 5xx from the API.
var ErrServer = errors.New("openlibrary: server error")

// Config configures a Client.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client is a rate-limited Open Library client.
type Client struct {
	baseURL string
	http    *http.Client
	limiter *ratelimit.KeyedRateLimiter
	logger  *slog.Logger
}

// New creates an Open Library client.
func New(cfg Config, logger *slog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
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

// LookupISBN reads the ISBN:<isbn> entry of the books API.
func (c *Client) LookupISBN(ctx context.Context, isbn string) (*metadata.Match, error) {
	key := "ISBN:" + isbn

	query := url.Values{}
	query.Set("bibkeys", key)
	query.Set("jscmd", "data")
	query.Set("format", "json")

	if err := c.limiter.Wait(ctx, providerName); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/books?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	c.logger.Debug("open library request", "bibkeys", key)

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
	case resp.StatusCode >= 500:
		return nil, ErrServer
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var entries map[string]bookData
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}

	entry, ok := entries[key]
	if !ok {
		return nil, nil
	}

	return &metadata.Match{
		ISBN:     isbn,
		Title:    entry.Title,
		CoverURL: selectCoverURL(entry.Cover),
		Source:   providerName,
	}, nil
}

// selectCoverURL picks the first non-empty cover, preferring medium.
func selectCoverURL(cover map[string]string) string {
	for _, size := range []string{"medium", "large", "small"} {
		if u := cover[size]; u != "" {
			return u
		}
	}
	return ""
}

type bookData struct {
	Title    string            `json:"title"`
	Subtitle string            `json:"subtitle"`
	URL      string            `json:"url"`
	Cover    map[string]string `json:"cover"`
}
