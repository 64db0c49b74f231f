// Reelmap - Streaming Catalogue Sync and Country Coverage Planning
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmap

package cache

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/tomtom215/reelmap/internal/logging"
)

// pageKeyPrefix prefixes every stored listing page.
const pageKeyPrefix = "page:"

// headerSize is the stored-at timestamp written before each page body.
const headerSize = 8

// PageStore is a persistent cache of raw provider listing pages, keyed by
// country and page number. Entries older than the TTL are misses; badger's
// own TTL removes them from disk later.
type PageStore struct {
	db  *badger.DB
	ttl time.Duration
	now func() time.Time
}

// OpenPageStore opens (or creates) a page store in dir. An empty dir keeps
// the store in memory.
func OpenPageStore(dir string, ttl time.Duration) (*PageStore, error) {
	if ttl <= 0 {
		return nil, fmt.Errorf("page cache TTL must be positive, got %v", ttl)
	}

	opts := badger.DefaultOptions(dir)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	// Reduce logging verbosity
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open page cache: %w", err)
	}

	logging.Info().Str("dir", dir).Dur("ttl", ttl).Msg("Page cache opened")
	return &PageStore{db: db, ttl: ttl, now: time.Now}, nil
}

func pageKey(country string, page int) []byte {
	return []byte(pageKeyPrefix + country + ":" + strconv.Itoa(page))
}

// GetPage returns a cached body if it is younger than the TTL.
func (s *PageStore) GetPage(country string, page int) ([]byte, bool) {
	var body []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(pageKey(country, page))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			if len(val) < headerSize {
				return errors.New("truncated cache entry")
			}
			storedAt := time.Unix(0, int64(binary.BigEndian.Uint64(val[:headerSize])))
			if s.now().Sub(storedAt) >= s.ttl {
				return badger.ErrKeyNotFound
			}
			body = append([]byte(nil), val[headerSize:]...)
			return nil
		})
	})
	if err != nil {
		if !errors.Is(err, badger.ErrKeyNotFound) {
			logging.Warn().Err(err).Str("country", country).Int("page", page).Msg("Page cache read failed")
		}
		return nil, false
	}
	return body, true
}

// PutPage stores body for country and page.
func (s *PageStore) PutPage(country string, page int, body []byte) error {
	val := make([]byte, headerSize+len(body))
	binary.BigEndian.PutUint64(val[:headerSize], uint64(s.now().UnixNano()))
	copy(val[headerSize:], body)

	return s.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry(pageKey(country, page), val).WithTTL(s.ttl)
		if err := txn.SetEntry(e); err != nil {
			return fmt.Errorf("set page: %w", err)
		}
		return nil
	})
}

// Purge removes every cached page.
func (s *PageStore) Purge() error {
	return s.db.DropPrefix([]byte(pageKeyPrefix))
}

// Count returns the number of cached pages, expired ones included.
func (s *PageStore) Count() (int, error) {
	n := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(pageKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			n++
		}
		return nil
	})
	return n, err
}

// GC reclaims value-log space. Nothing to rewrite is not an error.
func (s *PageStore) GC() error {
	err := s.db.RunValueLogGC(0.5)
	if err == nil || errors.Is(err, badger.ErrNoRewrite) || errors.Is(err, badger.ErrGCInMemoryMode) {
		return nil
	}
	return err
}

// Close flushes and closes the store.
func (s *PageStore) Close() error {
	return s.db.Close()
}
