// Reelmap - Streaming Catalogue Sync and Country Coverage Planning
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmap

// Package catalogue merges per-country listings into the canonical film
// catalogue and persists the catalogue, cluster and coverage-index files.
package catalogue

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/reelmap/internal/countries"
	"github.com/tomtom215/reelmap/internal/logging"
	"github.com/tomtom215/reelmap/internal/models"
)

// ErrNotFound is returned when a file to load does not exist.
var ErrNotFound = errors.New("file not found")

// Load reads a catalogue file. A missing file yields ErrNotFound.
func Load(path string) (*models.Catalogue, error) {
	var cat models.Catalogue
	if err := readJSON(path, &cat); err != nil {
		return nil, err
	}
	if cat.Items == nil {
		cat.Items = []models.Film{}
	}
	return &cat, nil
}

// Save writes a catalogue atomically. meta.total_count is refreshed from the items.
func Save(path string, cat *models.Catalogue) error {
	cat.Meta.TotalCount = len(cat.Items)
	if cat.Meta.Version == 0 {
		cat.Meta.Version = models.CatalogueVersion
	}
	return writeJSON(path, cat)
}

// LoadClusters reads a cluster file. A missing file yields ErrNotFound.
func LoadClusters(path string) ([]models.Cluster, error) {
	var clusters []models.Cluster
	if err := readJSON(path, &clusters); err != nil {
		return nil, err
	}
	return clusters, nil
}

// SaveClusters writes a cluster file atomically.
func SaveClusters(path string, clusters []models.Cluster) error {
	if clusters == nil {
		clusters = []models.Cluster{}
	}
	return writeJSON(path, clusters)
}

// CoverageIndex is the compact film -> countries file read by the playback
// plugin's optimizer. Codes are lower-case.
type CoverageIndex struct {
	GeneratedAt time.Time           `json:"generated_at"`
	Films       map[string][]string `json:"films"`
}

// BuildCoverageIndex derives the coverage index from a catalogue.
func BuildCoverageIndex(cat *models.Catalogue) CoverageIndex {
	idx := CoverageIndex{
		GeneratedAt: cat.Meta.GeneratedAt,
		Films:       make(map[string][]string, len(cat.Items)),
	}
	for i := range cat.Items {
		film := &cat.Items[i]
		codes := make([]string, 0, len(film.Countries))
		for _, c := range film.Countries {
			codes = append(codes, strings.ToLower(c))
		}
		idx.Films[strconv.FormatInt(film.MubiID, 10)] = codes
	}
	return idx
}

// SaveCoverageIndex writes the coverage index for cat atomically.
func SaveCoverageIndex(path string, cat *models.Catalogue) error {
	return writeJSON(path, BuildCoverageIndex(cat))
}

// LoadCoverageIndex reads a coverage index and returns it as films with
// upper-case country sets, skipping unparsable IDs and codes.
func LoadCoverageIndex(path string) ([]models.Film, error) {
	var idx CoverageIndex
	if err := readJSON(path, &idx); err != nil {
		return nil, err
	}

	films := make([]models.Film, 0, len(idx.Films))
	for key, codes := range idx.Films {
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			logging.Warn().Str("film_id", key).Msg("Skipping unparsable film ID in coverage index")
			continue
		}
		valid, _ := countries.NormalizeAll(codes)
		films = append(films, models.Film{MubiID: id, Countries: models.SortedSet(valid)})
	}
	models.SortFilms(films)
	return films, nil
}

func readJSON(path string, v interface{}) error {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%s: %w", path, ErrNotFound)
		}
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	if err := json.NewDecoder(f).Decode(v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return nil
}

// writeJSON encodes v to a temporary file next to path and renames it into
// place, so readers never observe a partially written file.
func writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file for %s: %w", path, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) //nolint:errcheck // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", tmpName, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("failed to chmod %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}

// Backup copies the file at path into dir as <name>-<timestamp><ext> and then
// deletes the oldest backups so that at most keep remain. A missing source
// file is not an error. It returns the backup path, or "" if nothing was copied.
func Backup(path, dir string, keep int, now time.Time) (string, error) {
	src, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("failed to open %s for backup: %w", path, err)
	}
	defer src.Close()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create backup directory %s: %w", dir, err)
	}

	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(filepath.Base(path), ext)
	dest := filepath.Join(dir, fmt.Sprintf("%s-%s%s", stem, now.UTC().Format("20060102T150405Z"), ext))

	dst, err := os.Create(dest)
	if err != nil {
		return "", fmt.Errorf("failed to create backup %s: %w", dest, err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return "", fmt.Errorf("failed to copy backup %s: %w", dest, err)
	}
	if err := dst.Close(); err != nil {
		return "", fmt.Errorf("failed to close backup %s: %w", dest, err)
	}

	if keep > 0 {
		if err := pruneBackups(dir, stem+"-", ext, keep); err != nil {
			return dest, err
		}
	}
	return dest, nil
}

// pruneBackups keeps the newest keep files matching prefix*ext. The
// timestamp format sorts lexically in chronological order.
func pruneBackups(dir, prefix, ext string, keep int) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to list backups in %s: %w", dir, err)
	}

	var names []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, ext) {
			continue
		}
		names = append(names, name)
	}
	if len(names) <= keep {
		return nil
	}

	sort.Sort(sort.Reverse(sort.StringSlice(names)))
	for _, name := range names[keep:] {
		if err := os.Remove(filepath.Join(dir, name)); err != nil {
			return fmt.Errorf("failed to delete old backup %s: %w", name, err)
		}
		logging.Debug().Str("backup", name).Msg("Deleted old catalogue backup")
	}
	return nil
}
