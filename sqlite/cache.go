package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/fwojciec/deepcrawl"
)

// Ensure CacheService implements deepcrawl.PageCache at compile time.
var _ deepcrawl.PageCache = (*CacheService)(nil)

// CacheService stores crawled pages keyed by URL.
type CacheService struct {
	db *DB
}

// NewCacheService creates a new CacheService backed by db.
func NewCacheService(db *DB) *CacheService {
	return &CacheService{db: db}
}

// Get returns the cached page for a URL.
// Returns ENOTFOUND if the URL has not been cached.
func (s *CacheService) Get(ctx context.Context, url string) (*deepcrawl.CachedPage, error) {
	var page deepcrawl.CachedPage
	var fetchedAt string

	err := s.db.QueryRowContext(ctx, `
		SELECT url, title, markdown, content_hash, fetched_at
		FROM pages
		WHERE url = ?`,
		url,
	).Scan(&page.URL, &page.Title, &page.Markdown, &page.ContentHash, &fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, deepcrawl.Errorf(deepcrawl.ENOTFOUND, "page not cached: %s", url)
	}
	if err != nil {
		return nil, err
	}

	if t, err := time.Parse(time.RFC3339, fetchedAt); err == nil {
		page.FetchedAt = t
	}

	return &page, nil
}

// Put stores a page, replacing any previous entry for the URL.
func (s *CacheService) Put(ctx context.Context, page *deepcrawl.CachedPage) error {
	if page.URL == "" {
		return deepcrawl.Errorf(deepcrawl.EINVALID, "cached page URL required")
	}

	fetchedAt := page.FetchedAt
	if fetchedAt.IsZero() {
		fetchedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO pages (url, title, markdown, content_hash, fetched_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (url) DO UPDATE SET
			title = excluded.title,
			markdown = excluded.markdown,
			content_hash = excluded.content_hash,
			fetched_at = excluded.fetched_at`,
		page.URL, page.Title, page.Markdown, page.ContentHash,
		fetchedAt.Format(time.RFC3339),
	)
	return err
}
