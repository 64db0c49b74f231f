// Reelmap - Streaming Catalogue Sync and Country Coverage Planning
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmap

package sync

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNoFilms is returned when a run fetched zero films across all
	// countries. Nothing is written.
	ErrNoFilms = errors.New("no films fetched from any country")

	// ErrCircuitOpen is returned when the provider circuit breaker rejects a
	// request. It is transient.
	ErrCircuitOpen = errors.New("provider circuit breaker is open")

	// ErrMaxPages is returned when a country's listing exceeds the page limit.
	ErrMaxPages = errors.New("page limit reached")

	// ErrRunInProgress is returned when a sync is triggered while another
	// one is running.
	ErrRunInProgress = errors.New("a sync run is already in progress")
)

// StatusError is an unexpected HTTP status from the provider.
type StatusError struct {
	StatusCode int
	Body       string

	// RetryAfter is the raw Retry-After header, if any.
	RetryAfter string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("provider returned HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("provider returned HTTP %d: %s", e.StatusCode, e.Body)
}

// CountryError attributes a fetch failure to a country.
type CountryError struct {
	Country string
	Err     error
}

func (e *CountryError) Error() string {
	return fmt.Sprintf("%s: %v", e.Country, e.Err)
}

func (e *CountryError) Unwrap() error {
	return e.Err
}

// retryableStatus lists the statuses retried with backoff.
func retryableStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// transportError wraps failures below HTTP (DNS, connection reset, body read).
type transportError struct {
	err error
}

func (e *transportError) Error() string {
	return e.err.Error()
}

func (e *transportError) Unwrap() error {
	return e.err
}
