// Reelmap - Streaming Catalogue Sync and Country Coverage Planning
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmap

package sync

import (
	"context"
	"errors"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/reelmap/internal/config"
	"github.com/tomtom215/reelmap/internal/logging"
	"github.com/tomtom215/reelmap/internal/metrics"
)

// breakerName labels the provider breaker in logs and metrics.
const breakerName = "catalogue-api"

// Breaker guards upstream requests with a circuit breaker shared by every
// worker of one client.
//
// The breaker uses real time for its interval and timeout. Tests exercise it
// through failure counts, not elapsed time.
type Breaker struct {
	cb   *gobreaker.CircuitBreaker[[]byte]
	name string
}

// NewBreaker creates a breaker labelled name:
//   - Max 3 concurrent requests in half-open state
//   - Counts reset every BreakerInterval while closed
//   - BreakerTimeout before attempting recovery
//   - Opens at BreakerFailureRatio with at least BreakerMinRequests requests
//
// transient decides which errors count against provider health.
func NewBreaker(name string, cfg config.FetchConfig, transient func(error) bool) *Breaker {
	metrics.CircuitBreakerState.WithLabelValues(name).Set(0) // 0 = closed

	minRequests := cfg.BreakerMinRequests
	ratio := cfg.BreakerFailureRatio
	if ratio <= 0 {
		ratio = 0.6
	}

	cb := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    cfg.BreakerInterval,
		Timeout:     cfg.BreakerTimeout,

		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < minRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			shouldTrip := failureRatio >= ratio
			if shouldTrip {
				logging.Warn().Uint32("failures", counts.TotalFailures).Float64("failure_rate", failureRatio*100).Msg("[CIRCUIT BREAKER] Opening circuit")
			}
			return shouldTrip
		},

		// Permanent errors (404, malformed request) and cancellation say
		// nothing about provider health.
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			if errors.Is(err, context.Canceled) {
				return true
			}
			return !transient(err)
		},

		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().Stringer("from", from).Stringer("to", to).Msg("[CIRCUIT BREAKER] State transition")

			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
		},
	})

	return &Breaker{cb: cb, name: name}
}

// Execute runs fn through the breaker. Rejections become ErrCircuitOpen.
func (b *Breaker) Execute(fn func() ([]byte, error)) ([]byte, error) {
	body, err := b.cb.Execute(fn)
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.CircuitBreakerRequests.WithLabelValues(b.name, "rejected").Inc()
			return nil, ErrCircuitOpen
		}
		metrics.CircuitBreakerRequests.WithLabelValues(b.name, "failure").Inc()
		return nil, err
	}
	metrics.CircuitBreakerRequests.WithLabelValues(b.name, "success").Inc()
	return body, nil
}

// State returns the breaker state for status reporting.
func (b *Breaker) State() string {
	return b.cb.State().String()
}

// stateToFloat maps a state to the gauge value: 0 closed, 1 half-open, 2 open.
func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
