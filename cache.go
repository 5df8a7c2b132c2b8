package deepcrawl

import (
	"context"
	"time"
)

// CachedPage is a previously crawled page stored in the page cache.
type CachedPage struct {
	URL         string
	Title       string
	Markdown    string
	ContentHash string
	FetchedAt   time.Time
}

// PageCache stores crawled pages keyed by URL.
type PageCache interface {
	// Get returns the cached page for a URL.
	// Returns ENOTFOUND if the URL has not been cached.
	Get(ctx context.Context, url string) (*CachedPage, error)

	// Put stores a page, replacing any previous entry for the URL.
	Put(ctx context.Context, page *CachedPage) error
}
