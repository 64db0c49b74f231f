// Reelmap - Streaming Catalogue Sync and Country Coverage Planning
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmap

package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/tomtom215/reelmap/internal/validation"
)

// validLogLevels contains the accepted log levels
var validLogLevels = map[string]bool{
	"trace": true,
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// validLogFormats contains the accepted log formats
var validLogFormats = map[string]bool{
	"json":    true,
	"console": true,
}

// Validate checks struct tags first, then the cross-field rules tags cannot express.
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(c); err != nil {
		return err
	}

	if err := c.validateProvider(); err != nil {
		return err
	}

	if err := c.validateFetch(); err != nil {
		return err
	}

	if err := c.validateCache(); err != nil {
		return err
	}

	if err := c.validateServer(); err != nil {
		return err
	}

	return c.validateLogging()
}

// validateProvider checks the upstream base URL. Listing paths are appended
// to it, so a version prefix such as /v4 is fine but a query or fragment is not.
func (c *Config) validateProvider() error {
	if err := validateBaseURL(c.Provider.BaseURL); err != nil {
		return fmt.Errorf("provider.base_url %q: %w", c.Provider.BaseURL, err)
	}
	return nil
}

func validateBaseURL(raw string) error {
	u, err := url.Parse(raw)
	switch {
	case err != nil:
		return err
	case u.Scheme != "http" && u.Scheme != "https":
		return fmt.Errorf("scheme must be http or https, got %q", u.Scheme)
	case u.Host == "":
		return errors.New("host is required")
	case u.RawQuery != "" || u.Fragment != "" || strings.HasSuffix(raw, "?"):
		return errors.New("must not carry a query or fragment")
	}
	return nil
}

// validateFetch validates retry bounds
func (c *Config) validateFetch() error {
	if c.Fetch.MaxDelay < c.Fetch.BaseDelay {
		return fmt.Errorf("fetch.max_delay (%s) must not be below fetch.base_delay (%s)", c.Fetch.MaxDelay, c.Fetch.BaseDelay)
	}
	if c.Fetch.RetryAfterCap > 0 && c.Fetch.RetryAfterCap < c.Fetch.MaxDelay {
		return fmt.Errorf("fetch.retry_after_cap (%s) must not be below fetch.max_delay (%s)", c.Fetch.RetryAfterCap, c.Fetch.MaxDelay)
	}
	return nil
}

// validateCache requires a directory when the page cache is enabled
func (c *Config) validateCache() error {
	if c.Cache.Enabled && c.Cache.Dir == "" {
		return fmt.Errorf("cache.dir is required when cache.enabled=true")
	}
	return nil
}

// validateServer validates serve-mode settings
func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}
	if c.Server.RateLimitReqs > 0 && c.Server.RateLimitWindow <= 0 {
		return fmt.Errorf("server.rate_limit_window must be positive when server.rate_limit_reqs is set")
	}
	return nil
}

// validateLogging validates logging configuration
func (c *Config) validateLogging() error {
	if err := c.validateLogLevel(); err != nil {
		return err
	}
	return c.validateLogFormat()
}

// validateLogLevel validates the log level configuration
func (c *Config) validateLogLevel() error {
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: trace, debug, info, warn, error")
	}
	return nil
}

// validateLogFormat validates the log format configuration
func (c *Config) validateLogFormat() error {
	if c.Logging.Format == "" {
		return nil
	}
	if !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be one of: json, console")
	}
	return nil
}
