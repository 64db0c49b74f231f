// Reelmap - Streaming Catalogue Sync and Country Coverage Planning
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmap

package sync

import (
	"errors"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/tomtom215/reelmap/internal/config"
)

// DefaultRetryAfterCap bounds how long a provider's Retry-After may park a
// worker. It only guards against absurd values; MaxDelay does not apply.
const DefaultRetryAfterCap = 15 * time.Minute

// RetryPolicy bounds retries of a single page request.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Multiplier  float64
	MaxDelay    time.Duration

	// RetryAfterCap limits a 429's Retry-After. Zero means DefaultRetryAfterCap.
	RetryAfterCap time.Duration

	// Retryable decides which HTTP statuses are retried. Nil means 429 and
	// 500/502/503/504.
	Retryable func(status int) bool
}

// DefaultRetryPolicy returns 8 attempts with 1s, 2s, 4s ... backoff capped at 60s.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:   8,
		BaseDelay:     time.Second,
		Multiplier:    2,
		MaxDelay:      time.Minute,
		RetryAfterCap: DefaultRetryAfterCap,
		Retryable:     retryableStatus,
	}
}

// RetryPolicyFromConfig builds a policy from fetch settings.
func RetryPolicyFromConfig(cfg config.FetchConfig) RetryPolicy {
	return RetryPolicy{
		MaxAttempts:   cfg.MaxAttempts,
		BaseDelay:     cfg.BaseDelay,
		Multiplier:    cfg.Multiplier,
		MaxDelay:      cfg.MaxDelay,
		RetryAfterCap: cfg.RetryAfterCap,
		Retryable:     retryableStatus,
	}
}

// Backoff returns the delay before retry number attempt (1-based).
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	mult := p.Multiplier
	if mult < 1 {
		mult = 1
	}
	d := float64(p.BaseDelay) * math.Pow(mult, float64(attempt-1))
	if p.MaxDelay > 0 && d > float64(p.MaxDelay) {
		return p.MaxDelay
	}
	return time.Duration(d)
}

func (p RetryPolicy) retryable(status int) bool {
	if p.Retryable == nil {
		return retryableStatus(status)
	}
	return p.Retryable(status)
}

// Transient classifies an error from an upstream request. Statuses go through
// the policy's Retryable; circuit rejections and transport failures are
// always transient.
func (p RetryPolicy) Transient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrCircuitOpen) {
		return true
	}
	var se *StatusError
	if errors.As(err, &se) {
		return p.retryable(se.StatusCode)
	}
	var ne net.Error
	if errors.As(err, &ne) {
		return true
	}
	var te *transportError
	return errors.As(err, &te)
}

// DelayFor picks the wait before the next attempt. A Retry-After header on
// a 429 replaces the backoff schedule in full, up to RetryAfterCap.
func (p RetryPolicy) DelayFor(attempt int, err error, now time.Time) time.Duration {
	backoff := p.Backoff(attempt)
	var se *StatusError
	if !errors.As(err, &se) || se.StatusCode != http.StatusTooManyRequests {
		return backoff
	}
	wait, ok := parseRetryAfter(se.RetryAfter, now)
	if !ok {
		return backoff
	}
	limit := p.RetryAfterCap
	if limit <= 0 {
		limit = DefaultRetryAfterCap
	}
	return min(wait, limit)
}

// parseRetryAfter accepts delta-seconds or an HTTP-date (RFC 9110).
func parseRetryAfter(value string, now time.Time) (time.Duration, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	if secs, err := strconv.Atoi(value); err == nil {
		if secs < 0 {
			return 0, false
		}
		return time.Duration(secs) * time.Second, true
	}
	if at, err := http.ParseTime(value); err == nil {
		wait := at.Sub(now)
		if wait < 0 {
			wait = 0
		}
		return wait, true
	}
	return 0, false
}
