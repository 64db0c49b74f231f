// Reelmap - Streaming Catalogue Sync and Country Coverage Planning
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmap

package enrich

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/tomtom215/reelmap/internal/config"
	"github.com/tomtom215/reelmap/internal/logging"
	"github.com/tomtom215/reelmap/internal/metrics"
	"github.com/tomtom215/reelmap/internal/sync"
)

// breakerName labels the TMDB breaker in logs and metrics.
const breakerName = "tmdb-api"

const (
	maxBodySize      = 4 << 20
	maxErrorBodySize = 512
)

// Client queries the TMDB v3 API. It is safe for concurrent use; the rate
// limiter and breaker are shared by every worker.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *sync.Breaker
	retry      sync.RetryPolicy

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewClient creates a TMDB client. Retry and breaker settings come from the
// fetch section so both upstreams are handled alike.
func NewClient(ec config.EnrichConfig, fc config.FetchConfig) *Client {
	perMinute := ec.RequestsPerMinute
	if perMinute <= 0 {
		perMinute = 240
	}
	burst := max(ec.Burst, 1)

	retry := sync.RetryPolicyFromConfig(fc)
	return &Client{
		baseURL:    strings.TrimRight(ec.BaseURL, "/"),
		apiKey:     ec.APIKey,
		httpClient: &http.Client{Timeout: ec.Timeout},
		limiter:    rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), burst),
		breaker:    sync.NewBreaker(breakerName, fc, retry.Transient),
		retry:      retry,
		now:        time.Now,
		sleep:      sleepCtx,
	}
}

// searchResult is one entry of /search/movie.
type searchResult struct {
	ID            int64  `json:"id"`
	Title         string `json:"title"`
	OriginalTitle string `json:"original_title"`
	ReleaseDate   string `json:"release_date"`
}

type searchResponse struct {
	Results []searchResult `json:"results"`
}

// movieDetails is /movie/{id} with credits and external_ids appended.
type movieDetails struct {
	ID            int64   `json:"id"`
	Title         string  `json:"title"`
	OriginalTitle string  `json:"original_title"`
	ReleaseDate   string  `json:"release_date"`
	Runtime       int     `json:"runtime"`
	VoteAverage   float64 `json:"vote_average"`
	VoteCount     int     `json:"vote_count"`
	Credits       struct {
		Crew []struct {
			Name string `json:"name"`
			Job  string `json:"job"`
		} `json:"crew"`
	} `json:"credits"`
	ExternalIDs struct {
		IMDbID string `json:"imdb_id"`
	} `json:"external_ids"`
}

func (d *movieDetails) directors() []string {
	var out []string
	for _, p := range d.Credits.Crew {
		if p.Job == "Director" {
			out = append(out, p.Name)
		}
	}
	return out
}

// releaseYear returns the year of a TMDB "YYYY-MM-DD" date, or 0.
func releaseYear(date string) int {
	y, _, _ := strings.Cut(date, "-")
	n, err := strconv.Atoi(y)
	if err != nil {
		return 0
	}
	return n
}

// Ping checks the API key against /configuration.
func (c *Client) Ping(ctx context.Context) error {
	var discard json.RawMessage
	return c.get(ctx, "/configuration", url.Values{}, &discard)
}

// search runs /search/movie for query. A non-zero year restricts results to
// that primary release year.
func (c *Client) search(ctx context.Context, query string, year int) ([]searchResult, error) {
	q := url.Values{}
	q.Set("query", query)
	q.Set("include_adult", "true")
	q.Set("language", "en-US")
	q.Set("page", "1")
	if year > 0 {
		q.Set("year", strconv.Itoa(year))
	}
	var resp searchResponse
	if err := c.get(ctx, "/search/movie", q, &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

// details fetches one movie with credits and external IDs.
func (c *Client) details(ctx context.Context, id int64) (*movieDetails, error) {
	q := url.Values{}
	q.Set("append_to_response", "credits,external_ids")
	var d movieDetails
	if err := c.get(ctx, "/movie/"+strconv.FormatInt(id, 10), q, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// get performs a GET with the client's retry policy and decodes the body
// into v.
func (c *Client) get(ctx context.Context, path string, q url.Values, v any) error {
	q.Set("api_key", c.apiKey)
	maxAttempts := max(c.retry.MaxAttempts, 1)

	for attempt := 1; ; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		body, err := c.breaker.Execute(func() ([]byte, error) {
			return c.do(ctx, path, q)
		})
		if err == nil {
			if err := json.Unmarshal(body, v); err != nil {
				return fmt.Errorf("decode %s: %w", path, err)
			}
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if !c.retry.Transient(err) {
			return fmt.Errorf("%s: %w", path, err)
		}
		if attempt >= maxAttempts {
			return fmt.Errorf("%s failed after %d attempts: %w", path, attempt, err)
		}

		delay := c.retry.DelayFor(attempt, err, c.now())
		metrics.RecordRetry("tmdb")
		logging.Ctx(ctx).Debug().
			Err(err).
			Str("path", path).
			Dur("retry_delay", delay).
			Int("attempt", attempt).
			Msg("TMDB request failed, retrying")

		if err := c.sleep(ctx, delay); err != nil {
			return err
		}
	}
}

// do performs one request. Errors never carry the query string, which holds
// the API key.
func (c *Client) do(ctx context.Context, path string, q url.Values) ([]byte, error) {
	endpoint := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+q.Encode(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		var ue *url.Error
		if errors.As(err, &ue) {
			return nil, &url.Error{Op: ue.Op, URL: endpoint, Err: ue.Err}
		}
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		return nil, &sync.StatusError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(snippet)),
			RetryAfter: resp.Header.Get("Retry-After"),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, &url.Error{Op: "Read", URL: endpoint, Err: err}
	}
	return body, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
