// Reelmap - Streaming Catalogue Sync and Country Coverage Planning
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmap

package sync

import (
	"compress/gzip"
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
	"github.com/tomtom215/reelmap/internal/models"
)

// maxErrorBodySize limits how much of an error response is kept for reporting.
const maxErrorBodySize = 4 * 1024

// PageCache stores raw listing pages keyed by country and page number.
type PageCache interface {
	GetPage(country string, page int) ([]byte, bool)
	PutPage(country string, page int, body []byte) error
}

// Page is one decoded listing page.
type Page struct {
	Films []models.Film

	// NextPage is 0 when the listing is exhausted.
	NextPage int

	// Skipped counts non-film entries (series episodes) that were dropped.
	Skipped int
	Cached  bool
}

// Client talks to the catalogue provider's browse endpoint.
//
// A single Client is shared by every fetch worker so the rate limiter and
// circuit breaker see the combined request stream. All methods are safe for
// concurrent use.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *Breaker
	retry      RetryPolicy
	cache      PageCache

	pageSize   int
	sortOrder  string
	playable   bool
	skipSeries bool

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// ClientOption adjusts a Client at construction.
type ClientOption func(*Client)

// WithRetryPolicy replaces the policy derived from FetchConfig. The circuit
// breaker classifies failures with the same policy.
func WithRetryPolicy(p RetryPolicy) ClientOption {
	return func(c *Client) { c.retry = p }
}

// NewClient creates a provider client. cache may be nil.
func NewClient(pc config.ProviderConfig, fc config.FetchConfig, cache PageCache, opts ...ClientOption) *Client {
	perMinute := pc.RequestsPerMinute
	if perMinute <= 0 {
		perMinute = 60
	}
	burst := pc.Burst
	if burst < 1 {
		burst = 1
	}

	c := &Client{
		baseURL:   strings.TrimRight(pc.BaseURL, "/"),
		userAgent: pc.UserAgent,
		httpClient: &http.Client{
			Timeout: pc.Timeout,
		},
		limiter:    rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), burst),
		retry:      RetryPolicyFromConfig(fc),
		cache:      cache,
		pageSize:   fc.PageSize,
		sortOrder:  fc.SortOrder,
		playable:   fc.Playable,
		skipSeries: fc.SkipSeries,
		now:        time.Now,
		sleep:      sleepCtx,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.breaker = NewBreaker(breakerName, fc, c.retry.Transient)
	return c
}

// BreakerState reports the provider circuit breaker state.
func (c *Client) BreakerState() string {
	return c.breaker.State()
}

// FetchPage returns one listing page for a country, retrying transient
// failures per the client's RetryPolicy.
func (c *Client) FetchPage(ctx context.Context, country string, page int) (*Page, error) {
	if c.cache != nil {
		if body, ok := c.cache.GetPage(country, page); ok {
			metrics.RecordPageCache(true)
			p, err := c.decodePage(body)
			if err == nil {
				p.Cached = true
				return p, nil
			}
			logging.Ctx(ctx).Warn().Err(err).Str("country", country).Int("page", page).Msg("Discarding undecodable cached page")
		} else {
			metrics.RecordPageCache(false)
		}
	}

	body, err := c.fetchWithRetry(ctx, country, page)
	if err != nil {
		return nil, err
	}

	p, err := c.decodePage(body)
	if err != nil {
		return nil, fmt.Errorf("decode page %d: %w", page, err)
	}

	if c.cache != nil {
		if err := c.cache.PutPage(country, page, body); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Str("country", country).Int("page", page).Msg("Failed to cache page")
		}
	}
	return p, nil
}

// fetchWithRetry performs a page request with backoff. On HTTP 429 the
// provider's Retry-After takes precedence over the backoff schedule.
func (c *Client) fetchWithRetry(ctx context.Context, country string, page int) ([]byte, error) {
	maxAttempts := c.retry.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	for attempt := 1; ; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		body, err := c.breaker.Execute(func() ([]byte, error) {
			return c.doRequest(ctx, country, page)
		})
		if err == nil {
			return body, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if !c.retry.Transient(err) {
			return nil, err
		}
		if attempt >= maxAttempts {
			return nil, fmt.Errorf("page %d failed after %d attempts: %w", page, attempt, err)
		}

		delay := c.retry.DelayFor(attempt, err, c.now())
		metrics.RecordRetry(retryReason(err))
		logging.Ctx(ctx).Warn().
			Err(err).
			Str("country", country).
			Int("page", page).
			Dur("retry_delay", delay).
			Int("attempt", attempt).
			Int("max_attempts", maxAttempts).
			Msg("Page request failed, retrying")

		if err := c.sleep(ctx, delay); err != nil {
			return nil, err
		}
	}
}

// doRequest performs a single HTTP request and returns the decompressed body.
func (c *Client) doRequest(ctx context.Context, country string, page int) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.pageURL(page), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	c.setHeaders(req, country)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.RecordPageRequest(0, time.Since(start), err)
		return nil, &transportError{err: fmt.Errorf("execute request: %w", err)}
	}
	defer resp.Body.Close()
	metrics.RecordPageRequest(resp.StatusCode, time.Since(start), nil)

	reader, err := responseReader(resp)
	if err != nil {
		return nil, &transportError{err: err}
	}
	defer reader.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(reader, maxErrorBodySize))
		return nil, &StatusError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(snippet)),
			RetryAfter: resp.Header.Get("Retry-After"),
		}
	}

	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, &transportError{err: fmt.Errorf("read body: %w", err)}
	}
	return body, nil
}

func (c *Client) pageURL(page int) string {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	if c.sortOrder != "" {
		q.Set("sort", c.sortOrder)
	}
	if c.playable {
		q.Set("playable", "true")
	}
	if c.pageSize > 0 {
		q.Set("per_page", strconv.Itoa(c.pageSize))
	}
	return c.baseURL + "/browse/films?" + q.Encode()
}

func (c *Client) setHeaders(req *http.Request, country string) {
	req.Header.Set("Client-Country", country)
	req.Header.Set("Client", "web")
	req.Header.Set("Accept-Language", "en")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Encoding", "gzip")
	req.Header.Set("Origin", "https://mubi.com")
	req.Header.Set("Referer", "https://mubi.com")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
}

// responseReader undoes gzip encoding. Setting Accept-Encoding ourselves
// disables the transport's transparent decompression. Closing the returned
// reader leaves resp.Body open; the caller still owns it.
func responseReader(resp *http.Response) (io.ReadCloser, error) {
	if !strings.EqualFold(resp.Header.Get("Content-Encoding"), "gzip") {
		return io.NopCloser(resp.Body), nil
	}
	gz, err := gzip.NewReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("open gzip body: %w", err)
	}
	return gz, nil
}

func retryReason(err error) string {
	if errors.Is(err, ErrCircuitOpen) {
		return "circuit_open"
	}
	var se *StatusError
	if errors.As(err, &se) {
		if se.StatusCode == http.StatusTooManyRequests {
			return "rate_limited"
		}
		return "server_error"
	}
	return "network"
}

// sleepCtx waits for d or until ctx is done.
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

// browseResponse is the provider's listing payload.
type browseResponse struct {
	Films []apiFilm `json:"films"`
	Meta  struct {
		CurrentPage int  `json:"current_page"`
		NextPage    *int `json:"next_page"`
		TotalPages  int  `json:"total_pages"`
		TotalCount  int  `json:"total_count"`
	} `json:"meta"`
}

type apiFilm struct {
	ID              int64           `json:"id"`
	Title           string          `json:"title"`
	OriginalTitle   string          `json:"original_title"`
	Year            *int            `json:"year"`
	Duration        *int            `json:"duration"`
	Genres          []string        `json:"genres"`
	Directors       []apiDirector   `json:"directors"`
	ShortSynopsis   string          `json:"short_synopsis"`
	AverageRating   *float64        `json:"average_rating_out_of_ten"`
	NumberOfRatings *int            `json:"number_of_ratings"`
	Series          json.RawMessage `json:"series"`
}

type apiDirector struct {
	Name string `json:"name"`
}

func (c *Client) decodePage(body []byte) (*Page, error) {
	var resp browseResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, err
	}

	p := &Page{Films: make([]models.Film, 0, len(resp.Films))}
	for i := range resp.Films {
		af := &resp.Films[i]
		if c.skipSeries && af.isSeries() {
			p.Skipped++
			continue
		}
		if af.ID <= 0 {
			p.Skipped++
			continue
		}
		p.Films = append(p.Films, af.toFilm())
	}
	if resp.Meta.NextPage != nil && *resp.Meta.NextPage > 0 {
		p.NextPage = *resp.Meta.NextPage
	}
	return p, nil
}

func (af *apiFilm) isSeries() bool {
	raw := strings.TrimSpace(string(af.Series))
	return raw != "" && raw != "null"
}

// toFilm maps a provider record to a catalogue film. Countries stay empty;
// only the merger assigns them.
func (af *apiFilm) toFilm() models.Film {
	f := models.Film{
		MubiID:        af.ID,
		Title:         af.Title,
		OriginalTitle: af.OriginalTitle,
		Year:          af.Year,
		Duration:      af.Duration,
		Genres:        af.Genres,
		ShortSynopsis: af.ShortSynopsis,
	}
	if f.Genres == nil {
		f.Genres = []string{}
	}
	f.Directors = make([]string, 0, len(af.Directors))
	for _, d := range af.Directors {
		if name := strings.TrimSpace(d.Name); name != "" {
			f.Directors = append(f.Directors, name)
		}
	}
	if af.AverageRating != nil && af.NumberOfRatings != nil && *af.NumberOfRatings > 0 {
		f.Ratings = []models.Rating{{
			Source:       models.RatingSourceMubi,
			ScoreOverTen: *af.AverageRating,
			Voters:       *af.NumberOfRatings,
		}}
	}
	return f
}
