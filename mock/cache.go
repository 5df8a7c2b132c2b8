package mock

import (
	"context"

	"github.com/fwojciec/deepcrawl"
)

var _ deepcrawl.PageCache = (*PageCache)(nil)

// PageCache is a mock implementation of deepcrawl.PageCache.
type PageCache struct {
	GetFn func(ctx context.Context, url string) (*deepcrawl.CachedPage, error)
	PutFn func(ctx context.Context, page *deepcrawl.CachedPage) error
}

func (c *PageCache) Get(ctx context.Context, url string) (*deepcrawl.CachedPage, error) {
	return c.GetFn(ctx, url)
}

func (c *PageCache) Put(ctx context.Context, page *deepcrawl.CachedPage) error {
	return c.PutFn(ctx, page)
}
