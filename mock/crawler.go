package mock

import (
	"context"

	"github.com/fwojciec/deepcrawl"
)

var _ deepcrawl.Crawler = (*Crawler)(nil)

// Crawler is a mock implementation of deepcrawl.Crawler.
type Crawler struct {
	RunFn   func(ctx context.Context, targetURL string, cfg deepcrawl.RunConfig) ([]*deepcrawl.PageResult, error)
	CloseFn func() error
}

func (c *Crawler) Run(ctx context.Context, targetURL string, cfg deepcrawl.RunConfig) ([]*deepcrawl.PageResult, error) {
	return c.RunFn(ctx, targetURL, cfg)
}

func (c *Crawler) Close() error {
	if c.CloseFn != nil {
		return c.CloseFn()
	}
	return nil
}
