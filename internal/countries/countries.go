// Reelmap - Streaming Catalogue Sync and Country Coverage Planning
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmap

// Package countries holds the table of countries Reelmap syncs, with the VPN
// tier used by the coverage optimizer and the critical flag used by the
// integrity validator.
package countries

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// UnknownTier is the VPN tier assigned to codes missing from the table.
const UnknownTier = 4

//go:embed countries.yaml
var defaultTableYAML []byte

// Country is one row of the table.
type Country struct {
	Code     string `yaml:"code"`
	Name     string `yaml:"name"`
	VPNTier  int    `yaml:"vpn_tier"`
	Critical bool   `yaml:"critical"`
}

// Table is an immutable lookup over a list of countries.
type Table struct {
	byCode map[string]Country
	codes  []string
}

var (
	defaultOnce  sync.Once
	defaultTable *Table
)

// Default returns the embedded country table.
func Default() *Table {
	defaultOnce.Do(func() {
		t, err := Parse(defaultTableYAML)
		if err != nil {
			panic(fmt.Sprintf("countries: embedded table is invalid: %v", err))
		}
		defaultTable = t
	})
	return defaultTable
}

// Parse reads a table from YAML of the form {countries: [{code, name, vpn_tier, critical}]}.
func Parse(data []byte) (*Table, error) {
	var doc struct {
		Countries []Country `yaml:"countries"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse country table: %w", err)
	}

	t := &Table{byCode: make(map[string]Country, len(doc.Countries))}
	for i, c := range doc.Countries {
		code, ok := Normalize(c.Code)
		if !ok {
			return nil, fmt.Errorf("country table row %d: invalid code %q", i, c.Code)
		}
		if _, dup := t.byCode[code]; dup {
			return nil, fmt.Errorf("country table row %d: duplicate code %s", i, code)
		}
		if c.VPNTier <= 0 {
			c.VPNTier = UnknownTier
		}
		c.Code = code
		t.byCode[code] = c
		t.codes = append(t.codes, code)
	}
	sort.Strings(t.codes)
	return t, nil
}

// Lookup returns the row for code.
func (t *Table) Lookup(code string) (Country, bool) {
	c, ok := t.byCode[strings.ToUpper(code)]
	return c, ok
}

// Codes returns every code in the table, sorted.
func (t *Table) Codes() []string {
	return append([]string(nil), t.codes...)
}

// Tier returns the VPN tier of code, or UnknownTier.
func (t *Table) Tier(code string) int {
	if c, ok := t.Lookup(code); ok {
		return c.VPNTier
	}
	return UnknownTier
}

// Critical returns the codes flagged critical, sorted.
func (t *Table) Critical() []string {
	var out []string
	for _, code := range t.codes {
		if t.byCode[code].Critical {
			out = append(out, code)
		}
	}
	return out
}

// Len returns the number of countries in the table.
func (t *Table) Len() int {
	return len(t.codes)
}

// Normalize trims and upper-cases code and reports whether the result is a
// two-letter ASCII code.
func Normalize(code string) (string, bool) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) != 2 {
		return "", false
	}
	for i := 0; i < len(code); i++ {
		if code[i] < 'A' || code[i] > 'Z' {
			return "", false
		}
	}
	return code, true
}

// NormalizeAll normalizes codes, dropping duplicates. Codes that fail
// normalization are returned separately in input order.
func NormalizeAll(codes []string) (valid, invalid []string) {
	seen := make(map[string]struct{}, len(codes))
	for _, raw := range codes {
		code, ok := Normalize(raw)
		if !ok {
			invalid = append(invalid, raw)
			continue
		}
		if _, dup := seen[code]; dup {
			continue
		}
		seen[code] = struct{}{}
		valid = append(valid, code)
	}
	return valid, invalid
}
