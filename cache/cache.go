// Copyright 2024
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package cache

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/thobiast/magicformulabr/data"
)

const (
	DefaultMaxAge = 24 * time.Hour
	DefaultName   = "fundamentus.json"

	formatVersion = 1

	// snapshots stamped further than this in the future are rejected
	maxClockSkew = time.Minute
)

var (
	ErrCacheMissing    = errors.New("cache file does not exist")
	ErrCacheCorrupt    = errors.New("cache file is corrupt")
	ErrDataUnavailable = errors.New("data unavailable")
	ErrEmptyFetch      = errors.New("fetch returned no records")
)

// Fetcher retrieves a fresh set of company records
type Fetcher interface {
	Fetch(ctx context.Context) ([]*data.CompanyRecord, error)
}

// Cache keeps the last successfully fetched snapshot in a single JSON file
type Cache struct {
	path       string
	maxAge     time.Duration
	allowStale bool
	now        func() time.Time
}

type Option func(*Cache)

// WithMaxAge sets how long a stored snapshot stays fresh
func WithMaxAge(maxAge time.Duration) Option {
	return func(cache *Cache) {
		cache.maxAge = maxAge
	}
}

// WithAllowStale makes Get return an expired snapshot, flagged as stale, when a
// refresh fails
func WithAllowStale(allow bool) Option {
	return func(cache *Cache) {
		cache.allowStale = allow
	}
}

func WithClock(now func() time.Time) Option {
	return func(cache *Cache) {
		cache.now = now
	}
}

func New(path string, opts ...Option) *Cache {
	cache := &Cache{
		path:   path,
		maxAge: DefaultMaxAge,
		now:    time.Now,
	}

	for _, opt := range opts {
		opt(cache)
	}

	return cache
}

// DefaultPath returns the cache file location inside the user cache directory
func DefaultPath() (string, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "magicformula", DefaultName), nil
}

func (cache *Cache) Path() string {
	return cache.path
}

func (cache *Cache) MaxAge() time.Duration {
	return cache.maxAge
}

// Result is the snapshot returned by Get and where it came from
type Result struct {
	Snapshot  *data.Snapshot
	FromCache bool

	// Stale is set when a refresh failed and an expired snapshot was returned
	Stale    bool
	FetchErr error
}

type cacheFile struct {
	Version   int                   `json:"version"`
	ID        string                `json:"id"`
	Timestamp int64                 `json:"timestamp"`
	Records   []*data.CompanyRecord `json:"records"`
}

// Load reads the stored snapshot. It returns ErrCacheMissing when no file
// exists and ErrCacheCorrupt when the file cannot be read or decoded, holds no
// records, or is stamped in the future.
func (cache *Cache) Load() (*data.Snapshot, error) {
	contents, err := os.ReadFile(cache.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrCacheMissing
		}
		return nil, fmt.Errorf("%w: %w", ErrCacheCorrupt, err)
	}

	var stored cacheFile
	if err := json.Unmarshal(contents, &stored); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCacheCorrupt, err)
	}

	if stored.Version != formatVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrCacheCorrupt, stored.Version)
	}

	if stored.Timestamp <= 0 {
		return nil, fmt.Errorf("%w: missing timestamp", ErrCacheCorrupt)
	}

	if len(stored.Records) == 0 {
		return nil, fmt.Errorf("%w: no records", ErrCacheCorrupt)
	}

	snapshot := &data.Snapshot{
		Timestamp: stored.Timestamp,
		Records:   stored.Records,
	}

	if err := snapshot.ID.UnmarshalText([]byte(stored.ID)); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCacheCorrupt, err)
	}

	if err := snapshot.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCacheCorrupt, err)
	}

	if fetchedAt := snapshot.FetchedAt(); fetchedAt.After(cache.now().Add(maxClockSkew)) {
		return nil, fmt.Errorf("%w: timestamp %s is in the future", ErrCacheCorrupt, fetchedAt.UTC().Format(time.RFC3339))
	}

	return snapshot, nil
}

// Store replaces the cache file with snapshot. The new contents are written to
// a temporary file in the same directory and renamed over the old file so a
// reader never sees a partial write.
func (cache *Cache) Store(snapshot *data.Snapshot) error {
	contents, err := json.Marshal(&cacheFile{
		Version:   formatVersion,
		ID:        snapshot.ID.String(),
		Timestamp: snapshot.Timestamp,
		Records:   snapshot.Records,
	})
	if err != nil {
		return err
	}

	dir := filepath.Dir(cache.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(cache.path)+"-*.tmp")
	if err != nil {
		return err
	}

	tmpName := tmp.Name()
	defer func() {
		// no-op once the rename succeeded
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(contents); err != nil {
		tmp.Close()
		return err
	}

	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}

	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Chmod(tmpName, 0o644); err != nil {
		return err
	}

	return os.Rename(tmpName, cache.path)
}

// Clear removes the cache file; a missing file is not an error
func (cache *Cache) Clear() error {
	err := os.Remove(cache.path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// IsFresh reports whether snapshot is younger than the maximum age
func (cache *Cache) IsFresh(snapshot *data.Snapshot) bool {
	return snapshot.Age(cache.now()) < cache.maxAge
}

// Get returns the stored snapshot while it is fresh. Otherwise, or when force
// is set, it fetches new records from source and stores them.
//
// An unreadable cache is treated as missing. When the fetch fails Get falls
// back to the stored snapshot only if it is still fresh or stale data was
// allowed; in every other case it returns ErrDataUnavailable.
func (cache *Cache) Get(ctx context.Context, source Fetcher, force bool) (*Result, error) {
	logger := zerolog.Ctx(ctx)

	cached, err := cache.Load()
	switch {
	case err == nil:
		logger.Debug().Str("FileName", cache.path).Dur("Age", cached.Age(cache.now())).Msg("loaded cache")
	case errors.Is(err, ErrCacheMissing):
		logger.Debug().Str("FileName", cache.path).Msg("cache file does not exist")
	default:
		logger.Warn().Err(err).Str("FileName", cache.path).Msg("ignoring unreadable cache file")
	}

	if cached != nil && !force && cache.IsFresh(cached) {
		logger.Debug().Msg("using cached data")
		return &Result{Snapshot: cached, FromCache: true}, nil
	}

	logger.Debug().Bool("Force", force).Msg("downloading new data")

	snapshot, fetchErr := cache.fetch(ctx, source)
	if fetchErr != nil {
		return cache.fallback(ctx, cached, fetchErr)
	}

	if err := cache.Store(snapshot); err != nil {
		logger.Error().Err(err).Str("FileName", cache.path).Msg("could not save cache file")
	}

	return &Result{Snapshot: snapshot}, nil
}

func (cache *Cache) fetch(ctx context.Context, source Fetcher) (*data.Snapshot, error) {
	records, err := source.Fetch(ctx)
	if err != nil {
		return nil, err
	}

	if len(records) == 0 {
		return nil, ErrEmptyFetch
	}

	snapshot := data.NewSnapshot(records, cache.now())
	if err := snapshot.Validate(); err != nil {
		return nil, err
	}

	return snapshot, nil
}

func (cache *Cache) fallback(ctx context.Context, cached *data.Snapshot, fetchErr error) (*Result, error) {
	logger := zerolog.Ctx(ctx)

	if cached == nil {
		return nil, fmt.Errorf("%w: no usable cache and fetch failed: %w", ErrDataUnavailable, fetchErr)
	}

	age := cached.Age(cache.now())
	fresh := cache.IsFresh(cached)
	if !fresh && !cache.allowStale {
		return nil, fmt.Errorf("%w: cached data expired %s ago and fetch failed: %w",
			ErrDataUnavailable, (age - cache.maxAge).Round(time.Second), fetchErr)
	}

	logger.Warn().Err(fetchErr).Dur("Age", age).Bool("Stale", !fresh).Msg("fetch failed, using cached data")

	return &Result{
		Snapshot:  cached,
		FromCache: true,
		Stale:     !fresh,
		FetchErr:  fetchErr,
	}, nil
}
