// Package tmdb provides a minimal client for The Movie Database multi
// search, the metadata source behind classification.
package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"curator/internal/media"
)

// Searcher defines the TMDB operations used by curation.
type Searcher interface {
	Search(ctx context.Context, query string) ([]media.Record, error)
}

type searchResult struct {
	ID                  int64    `json:"id"`
	Title               string   `json:"title"`
	Name                string   `json:"name"`
	Overview            string   `json:"overview"`
	ReleaseDate         string   `json:"release_date"`
	FirstAirDate        string   `json:"first_air_date"`
	MediaType           string   `json:"media_type"`
	GenreIDs            []int    `json:"genre_ids"`
	OriginalLanguage    string   `json:"original_language"`
	OriginCountry       []string `json:"origin_country"`
	Popularity          float64  `json:"popularity"`
	VoteAverage         float64  `json:"vote_average"`
	ProductionCountries []struct {
		ISO string `json:"iso_3166_1"`
	} `json:"production_countries"`
}

type searchResponse struct {
	Page         int            `json:"page"`
	Results      []searchResult `json:"results"`
	TotalResults int            `json:"total_results"`
}

// Client provides access to the TMDB API. Requests are spaced out and
// retried so batch classification stays inside TMDB's rate limits.
type Client struct {
	apiKey     string
	baseURL    string
	language   string
	httpClient *http.Client

	attempts   int
	retryDelay time.Duration
	minSpacing time.Duration

	mu       sync.Mutex
	lastCall time.Time
}

var _ Searcher = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithRetry overrides the attempt count and base retry delay.
func WithRetry(attempts int, delay time.Duration) Option {
	return func(c *Client) {
		if attempts > 0 {
			c.attempts = attempts
		}
		c.retryDelay = delay
	}
}

// WithRequestSpacing overrides the minimum gap between requests.
func WithRequestSpacing(spacing time.Duration) Option {
	return func(c *Client) {
		c.minSpacing = spacing
	}
}

// New creates a TMDB client.
func New(apiKey, baseURL, language string, opts ...Option) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("tmdb api key required")
	}
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("tmdb base url required")
	}
	client := &Client{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		language:   strings.TrimSpace(language),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		attempts:   3,
		retryDelay: time.Second,
		minSpacing: 250 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Search performs a TMDB multi search and returns results in TMDB's order.
// Person results are dropped. An empty result list is not an error.
func (c *Client) Search(ctx context.Context, query string) ([]media.Record, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.New("query must not be empty")
	}
	endpoint, err := url.Parse(c.baseURL + "/search/multi")
	if err != nil {
		return nil, fmt.Errorf("parse tmdb url: %w", err)
	}
	params := url.Values{}
	params.Set("query", query)
	params.Set("api_key", c.apiKey)
	if c.language != "" {
		params.Set("language", c.language)
	}
	endpoint.RawQuery = params.Encode()

	var lastErr error
	for attempt := 1; attempt <= c.attempts; attempt++ {
		if attempt > 1 {
			sleep := time.Duration(attempt-1) * c.retryDelay
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(sleep):
			}
		}
		payload, err := c.doSearch(ctx, endpoint.String())
		if err == nil {
			return toRecords(payload.Results), nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		lastErr = err
	}
	return nil, fmt.Errorf("tmdb search failed after %d attempts: %w", c.attempts, lastErr)
}

func (c *Client) doSearch(ctx context.Context, endpoint string) (*searchResponse, error) {
	if err := c.waitSpacing(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return nil, fmt.Errorf("execute request (latency=%v): %w", latency, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tmdb search returned %d (latency=%v)", resp.StatusCode, latency)
	}

	var payload searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode tmdb response: %w", err)
	}
	return &payload, nil
}

// waitSpacing enforces the minimum gap since the previous request.
func (c *Client) waitSpacing(ctx context.Context) error {
	c.mu.Lock()
	now := time.Now()
	wait := c.minSpacing - now.Sub(c.lastCall)
	if wait < 0 {
		wait = 0
	}
	c.lastCall = now.Add(wait)
	c.mu.Unlock()

	if wait == 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(wait):
		return nil
	}
}

func toRecords(results []searchResult) []media.Record {
	records := make([]media.Record, 0, len(results))
	for _, result := range results {
		kind, ok := kindForMediaType(result.MediaType)
		if !ok {
			continue
		}
		rec := media.Record{
			ID:               result.ID,
			Kind:             kind,
			Title:            result.Title,
			ReleaseDate:      result.ReleaseDate,
			Overview:         result.Overview,
			GenreIDs:         result.GenreIDs,
			OriginalLanguage: result.OriginalLanguage,
			OriginCountries:  result.OriginCountry,
			Popularity:       result.Popularity,
			VoteAverage:      result.VoteAverage,
		}
		if kind == media.KindTV {
			rec.Title = result.Name
			rec.ReleaseDate = result.FirstAirDate
		}
		for _, country := range result.ProductionCountries {
			rec.ProductionCountries = append(rec.ProductionCountries, country.ISO)
		}
		records = append(records, rec)
	}
	return records
}

func kindForMediaType(mediaType string) (media.Kind, bool) {
	switch mediaType {
	case "movie":
		return media.KindMovie, true
	case "tv":
		return media.KindTV, true
	default:
		return "", false
	}
}
