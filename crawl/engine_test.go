package crawl_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/fwojciec/deepcrawl"
	"github.com/fwojciec/deepcrawl/crawl"
	"github.com/fwojciec/deepcrawl/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Ensure Engine implements deepcrawl.Crawler.
var _ deepcrawl.Crawler = (*crawl.Engine)(nil)

// newTestEngine builds an Engine whose collaborators serve pages from the
// given link graph. Fetched HTML embeds the URL so assertions can trace
// which page produced which markdown.
func newTestEngine(links map[string][]deepcrawl.DiscoveredLink) *crawl.Engine {
	return &crawl.Engine{
		Fetcher: &mock.Fetcher{
			FetchFn: func(ctx context.Context, url string) (string, error) {
				return "<html>" + url + "</html>", nil
			},
		},
		Extractor: &mock.Extractor{
			ExtractFn: func(html string) (*deepcrawl.ExtractResult, error) {
				return &deepcrawl.ExtractResult{Title: "Page", ContentHTML: html}, nil
			},
		},
		Converter: &mock.Converter{
			ConvertFn: func(html string) (string, error) {
				return "# " + html, nil
			},
		},
		Links: &mock.LinkExtractor{
			ExtractLinksFn: func(html string, baseURL string) ([]deepcrawl.DiscoveredLink, error) {
				return links[baseURL], nil
			},
		},
		RetryDelays: []time.Duration{},
	}
}

func resultURLs(results []*deepcrawl.PageResult) []string {
	urls := make([]string, 0, len(results))
	for _, r := range results {
		urls = append(urls, r.URL)
	}
	return urls
}

func TestEngine_Run_FollowsLinks(t *testing.T) {
	t.Parallel()

	engine := newTestEngine(map[string][]deepcrawl.DiscoveredLink{
		"https://example.com/docs": {
			{URL: "https://example.com/docs/a", Priority: deepcrawl.PriorityNavigation},
			{URL: "https://example.com/docs/b", Priority: deepcrawl.PriorityContent},
		},
		"https://example.com/docs/a": {
			{URL: "https://example.com/docs/a/deep", Priority: deepcrawl.PriorityContent},
		},
	})

	results, err := engine.Run(context.Background(), "https://example.com/docs", deepcrawl.RunConfig{
		MaxDepth:    3,
		MaxPages:    30,
		Concurrency: 1,
	})

	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		"https://example.com/docs",
		"https://example.com/docs/a",
		"https://example.com/docs/b",
		"https://example.com/docs/a/deep",
	}, resultURLs(results))

	for _, r := range results {
		assert.True(t, r.Success)
		assert.Equal(t, "# <html>"+r.URL+"</html>", r.Markdown)
	}
}

func TestEngine_Run_RespectsMaxDepth(t *testing.T) {
	t.Parallel()

	engine := newTestEngine(map[string][]deepcrawl.DiscoveredLink{
		"https://example.com/docs": {
			{URL: "https://example.com/docs/a", Priority: deepcrawl.PriorityNavigation},
		},
		"https://example.com/docs/a": {
			{URL: "https://example.com/docs/a/deep", Priority: deepcrawl.PriorityContent},
		},
	})

	results, err := engine.Run(context.Background(), "https://example.com/docs", deepcrawl.RunConfig{
		MaxDepth:    1,
		MaxPages:    30,
		Concurrency: 1,
	})

	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		"https://example.com/docs",
		"https://example.com/docs/a",
	}, resultURLs(results))
}

func TestEngine_Run_RespectsMaxPages(t *testing.T) {
	t.Parallel()

	engine := newTestEngine(map[string][]deepcrawl.DiscoveredLink{
		"https://example.com/docs": {
			{URL: "https://example.com/docs/a", Priority: deepcrawl.PriorityNavigation},
			{URL: "https://example.com/docs/b", Priority: deepcrawl.PriorityContent},
			{URL: "https://example.com/docs/c", Priority: deepcrawl.PriorityContent},
		},
	})

	results, err := engine.Run(context.Background(), "https://example.com/docs", deepcrawl.RunConfig{
		MaxDepth:    3,
		MaxPages:    2,
		Concurrency: 1,
	})

	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestEngine_Run_ScopesToHostAndPath(t *testing.T) {
	t.Parallel()

	engine := newTestEngine(map[string][]deepcrawl.DiscoveredLink{
		"https://example.com/docs": {
			{URL: "https://other.com/docs/page", Priority: deepcrawl.PriorityNavigation},
			{URL: "https://example.com/blog/post", Priority: deepcrawl.PriorityNavigation},
			{URL: "https://example.com/docs/in-scope", Priority: deepcrawl.PriorityContent},
		},
	})

	results, err := engine.Run(context.Background(), "https://example.com/docs", deepcrawl.RunConfig{
		MaxDepth:    3,
		MaxPages:    30,
		Concurrency: 1,
	})

	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		"https://example.com/docs",
		"https://example.com/docs/in-scope",
	}, resultURLs(results))
}

func TestEngine_Run_FailedPagesDoNotAbort(t *testing.T) {
	t.Parallel()

	engine := newTestEngine(map[string][]deepcrawl.DiscoveredLink{
		"https://example.com/docs": {
			{URL: "https://example.com/docs/broken", Priority: deepcrawl.PriorityNavigation},
			{URL: "https://example.com/docs/ok", Priority: deepcrawl.PriorityContent},
		},
	})
	engine.Fetcher = &mock.Fetcher{
		FetchFn: func(ctx context.Context, url string) (string, error) {
			if url == "https://example.com/docs/broken" {
				return "", errors.New("connection reset")
			}
			return "<html>" + url + "</html>", nil
		},
	}

	results, err := engine.Run(context.Background(), "https://example.com/docs", deepcrawl.RunConfig{
		MaxDepth:    1,
		MaxPages:    30,
		Concurrency: 1,
	})

	require.NoError(t, err)
	require.Len(t, results, 3)

	byURL := make(map[string]*deepcrawl.PageResult)
	for _, r := range results {
		byURL[r.URL] = r
	}

	broken := byURL["https://example.com/docs/broken"]
	require.NotNil(t, broken)
	assert.False(t, broken.Success)
	assert.NotEmpty(t, broken.ErrorMessage)
	assert.Empty(t, broken.Markdown)

	ok := byURL["https://example.com/docs/ok"]
	require.NotNil(t, ok)
	assert.True(t, ok.Success)
}

func TestEngine_Run_SuppressesDuplicateContent(t *testing.T) {
	t.Parallel()

	// Every URL serves the same content, so every page converts to the
	// same markdown and the same content hash.
	sameContentFetcher := &mock.Fetcher{
		FetchFn: func(ctx context.Context, url string) (string, error) {
			return "<html>mirrored body</html>", nil
		},
	}

	t.Run("link crawl emits the first copy only", func(t *testing.T) {
		t.Parallel()

		engine := newTestEngine(map[string][]deepcrawl.DiscoveredLink{
			"https://example.com/docs": {
				{URL: "https://example.com/docs/mirror", Priority: deepcrawl.PriorityNavigation},
			},
		})
		engine.Fetcher = sameContentFetcher

		results, err := engine.Run(context.Background(), "https://example.com/docs", deepcrawl.RunConfig{
			MaxDepth:    1,
			MaxPages:    30,
			Concurrency: 1,
		})

		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "https://example.com/docs", results[0].URL)
	})

	t.Run("sitemap crawl emits the first copy only", func(t *testing.T) {
		t.Parallel()

		engine := newTestEngine(nil)
		engine.Fetcher = sameContentFetcher
		engine.Sitemaps = &mock.SitemapService{
			DiscoverURLsFn: func(ctx context.Context, baseURL string) ([]string, error) {
				return []string{
					"https://example.com/docs",
					"https://example.com/docs/mirror",
				}, nil
			},
		}

		results, err := engine.Run(context.Background(), "https://example.com/docs", deepcrawl.RunConfig{
			MaxPages:    30,
			UseSitemap:  true,
			Concurrency: 1,
		})

		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "https://example.com/docs", results[0].URL)
	})

	t.Run("distinct content is kept", func(t *testing.T) {
		t.Parallel()

		engine := newTestEngine(map[string][]deepcrawl.DiscoveredLink{
			"https://example.com/docs": {
				{URL: "https://example.com/docs/other", Priority: deepcrawl.PriorityNavigation},
			},
		})

		results, err := engine.Run(context.Background(), "https://example.com/docs", deepcrawl.RunConfig{
			MaxDepth:    1,
			MaxPages:    30,
			Concurrency: 1,
		})

		require.NoError(t, err)
		assert.Len(t, results, 2)
	})
}

func TestEngine_Run_InvalidURL(t *testing.T) {
	t.Parallel()

	engine := newTestEngine(nil)

	_, err := engine.Run(context.Background(), "not a url", deepcrawl.RunConfig{})

	require.Error(t, err)
	assert.Equal(t, deepcrawl.EINVALID, deepcrawl.ErrorCode(err))
}

func TestEngine_Run_PruneFailure(t *testing.T) {
	t.Parallel()

	engine := newTestEngine(nil)
	engine.Pruner = &mock.Pruner{
		PruneFn: func(html string) (string, error) {
			return "", errors.New("unparseable html")
		},
	}

	results, err := engine.Run(context.Background(), "https://example.com/docs", deepcrawl.RunConfig{
		MaxPages:    1,
		Concurrency: 1,
	})

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.False(t, results[0].Success)
	assert.Equal(t, "unparseable html", results[0].ErrorMessage)
}

func TestEngine_Run_UsesFallbackExtractor(t *testing.T) {
	t.Parallel()

	engine := newTestEngine(nil)
	engine.Extractor = &mock.Extractor{
		ExtractFn: func(html string) (*deepcrawl.ExtractResult, error) {
			return nil, errors.New("no content found")
		},
	}
	engine.FallbackExtractor = &mock.Extractor{
		ExtractFn: func(html string) (*deepcrawl.ExtractResult, error) {
			return &deepcrawl.ExtractResult{Title: "Fallback", ContentHTML: html}, nil
		},
	}

	results, err := engine.Run(context.Background(), "https://example.com/docs", deepcrawl.RunConfig{
		MaxDepth:    0,
		MaxPages:    1,
		Concurrency: 1,
	})

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.True(t, results[0].Success)
}

func TestEngine_Run_Cache(t *testing.T) {
	t.Parallel()

	t.Run("cache hit skips fetching", func(t *testing.T) {
		t.Parallel()

		fetched := false
		engine := newTestEngine(nil)
		engine.Fetcher = &mock.Fetcher{
			FetchFn: func(ctx context.Context, url string) (string, error) {
				fetched = true
				return "<html></html>", nil
			},
		}
		engine.Cache = &mock.PageCache{
			GetFn: func(ctx context.Context, url string) (*deepcrawl.CachedPage, error) {
				return &deepcrawl.CachedPage{
					URL:      url,
					Title:    "Cached",
					Markdown: "# cached markdown",
				}, nil
			},
		}

		results, err := engine.Run(context.Background(), "https://example.com/docs", deepcrawl.RunConfig{
			MaxPages:    1,
			CacheMode:   deepcrawl.CacheEnabled,
			Concurrency: 1,
		})

		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.True(t, results[0].Success)
		assert.Equal(t, "# cached markdown", results[0].Markdown)
		assert.False(t, fetched)
	})

	t.Run("cache miss stores the fetched page", func(t *testing.T) {
		t.Parallel()

		var mu sync.Mutex
		var stored []*deepcrawl.CachedPage
		engine := newTestEngine(nil)
		engine.Cache = &mock.PageCache{
			GetFn: func(ctx context.Context, url string) (*deepcrawl.CachedPage, error) {
				return nil, deepcrawl.Errorf(deepcrawl.ENOTFOUND, "not cached")
			},
			PutFn: func(ctx context.Context, page *deepcrawl.CachedPage) error {
				mu.Lock()
				stored = append(stored, page)
				mu.Unlock()
				return nil
			},
		}

		_, err := engine.Run(context.Background(), "https://example.com/docs", deepcrawl.RunConfig{
			MaxPages:    1,
			CacheMode:   deepcrawl.CacheEnabled,
			Concurrency: 1,
		})

		require.NoError(t, err)
		require.Len(t, stored, 1)
		assert.Equal(t, "https://example.com/docs", stored[0].URL)
		assert.NotEmpty(t, stored[0].ContentHash)
	})

	t.Run("bypass skips lookup but still stores", func(t *testing.T) {
		t.Parallel()

		lookedUp := false
		var mu sync.Mutex
		var stored []*deepcrawl.CachedPage
		engine := newTestEngine(nil)
		engine.Cache = &mock.PageCache{
			GetFn: func(ctx context.Context, url string) (*deepcrawl.CachedPage, error) {
				lookedUp = true
				return nil, deepcrawl.Errorf(deepcrawl.ENOTFOUND, "not cached")
			},
			PutFn: func(ctx context.Context, page *deepcrawl.CachedPage) error {
				mu.Lock()
				stored = append(stored, page)
				mu.Unlock()
				return nil
			},
		}

		_, err := engine.Run(context.Background(), "https://example.com/docs", deepcrawl.RunConfig{
			MaxPages:    1,
			CacheMode:   deepcrawl.CacheBypass,
			Concurrency: 1,
		})

		require.NoError(t, err)
		assert.False(t, lookedUp)
		assert.Len(t, stored, 1)
	})
}

func TestEngine_Run_Sitemap(t *testing.T) {
	t.Parallel()

	t.Run("crawls sitemap URLs in order", func(t *testing.T) {
		t.Parallel()

		engine := newTestEngine(nil)
		engine.Sitemaps = &mock.SitemapService{
			DiscoverURLsFn: func(ctx context.Context, baseURL string) ([]string, error) {
				return []string{
					"https://example.com/docs/one",
					"https://example.com/docs/two",
					"https://example.com/docs/three",
				}, nil
			},
		}

		results, err := engine.Run(context.Background(), "https://example.com/docs", deepcrawl.RunConfig{
			MaxPages:    30,
			UseSitemap:  true,
			Concurrency: 2,
		})

		require.NoError(t, err)
		assert.Equal(t, []string{
			"https://example.com/docs/one",
			"https://example.com/docs/two",
			"https://example.com/docs/three",
		}, resultURLs(results))
	})

	t.Run("truncates sitemap URLs to page limit", func(t *testing.T) {
		t.Parallel()

		engine := newTestEngine(nil)
		engine.Sitemaps = &mock.SitemapService{
			DiscoverURLsFn: func(ctx context.Context, baseURL string) ([]string, error) {
				return []string{
					"https://example.com/docs/one",
					"https://example.com/docs/two",
					"https://example.com/docs/three",
				}, nil
			},
		}

		results, err := engine.Run(context.Background(), "https://example.com/docs", deepcrawl.RunConfig{
			MaxPages:    2,
			UseSitemap:  true,
			Concurrency: 1,
		})

		require.NoError(t, err)
		assert.Len(t, results, 2)
	})

	t.Run("falls back to link crawl when sitemap is empty", func(t *testing.T) {
		t.Parallel()

		engine := newTestEngine(nil)
		engine.Sitemaps = &mock.SitemapService{
			DiscoverURLsFn: func(ctx context.Context, baseURL string) ([]string, error) {
				return nil, nil
			},
		}

		results, err := engine.Run(context.Background(), "https://example.com/docs", deepcrawl.RunConfig{
			MaxPages:    30,
			UseSitemap:  true,
			Concurrency: 1,
		})

		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "https://example.com/docs", results[0].URL)
	})
}

func TestEngine_Close(t *testing.T) {
	t.Parallel()

	closed := false
	engine := &crawl.Engine{
		Fetcher: &mock.Fetcher{
			CloseFn: func() error {
				closed = true
				return nil
			},
		},
	}

	require.NoError(t, engine.Close())
	assert.True(t, closed)
}
