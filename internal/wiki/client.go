// Package wiki talks to the MediaWiki search API and turns hits into an
// ordered list of article pages for the capture pipeline.
package wiki

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	defaultAPI  = "https://en.wikipedia.org/w/api.php"
	defaultBase = "https://en.wikipedia.org/wiki/"
	userAgent   = "wikisplice/1.0 (github.com/reedalexschultz/wikisplice)"
)

// Page is one search hit: an article title and its canonical URL.
type Page struct {
	Title string
	URL   string
}

// Client is a minimal MediaWiki search client. The zero value is not
// usable; construct with NewClient.
type Client struct {
	api  string
	base string
	http *http.Client
}

// Option customizes a Client.
type Option func(*Client)

// WithEndpoint points the client at a different MediaWiki instance.
func WithEndpoint(api, base string) Option {
	return func(c *Client) {
		c.api = api
		c.base = base
	}
}

// WithHTTPClient swaps the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

func NewClient(opts ...Option) *Client {
	c := &Client{
		api:  defaultAPI,
		base: defaultBase,
		http: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type searchResponse struct {
	Query struct {
		Search []struct {
			Title string `json:"title"`
		} `json:"search"`
	} `json:"query"`
}

// SearchBatch returns up to limit pages for the given srsearch query,
// starting at offset. An empty result means the index is exhausted.
func (c *Client) SearchBatch(ctx context.Context, query string, limit, offset int) ([]Page, error) {
	if limit < 1 {
		limit = 1
	}
	if limit > 50 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	params := url.Values{}
	params.Set("action", "query")
	params.Set("list", "search")
	params.Set("srnamespace", "0") // main content
	params.Set("srsearch", query)
	params.Set("srlimit", strconv.Itoa(limit))
	params.Set("sroffset", strconv.Itoa(offset))
	params.Set("format", "json")
	params.Set("utf8", "1")
	params.Set("origin", "*")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.api+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build search request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search request: unexpected status %s", resp.Status)
	}

	var body searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	pages := make([]Page, 0, len(body.Query.Search))
	for _, hit := range body.Query.Search {
		if hit.Title == "" {
			continue
		}
		pages = append(pages, Page{
			Title: hit.Title,
			URL:   c.base + url.PathEscape(strings.ReplaceAll(hit.Title, " ", "_")),
		})
	}
	return pages, nil
}
