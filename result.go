package deepcrawl

import (
	"context"
	"time"
)

// Crawl strategy labels reported in result metadata.
const (
	StrategyBFS     = "bfs"
	StrategySitemap = "sitemap"
)

// PageResult is the per-page outcome of a crawl. Failed pages carry an
// ErrorMessage and no markdown; successful pages carry the converted
// markdown body and, once the orchestrator has processed them, an
// attached Metadata record.
type PageResult struct {
	URL          string
	Depth        int
	Success      bool
	Markdown     string
	ErrorMessage string
	Metadata     *CrawlMetadata
}

// CrawlMetadata describes how a successful result was produced. It is
// attached by the orchestrator before formatting.
type CrawlMetadata struct {
	Source    string
	Timestamp time.Time
	PageCount int
	Strategy  string
}

// CacheMode controls how the crawler uses its page cache.
type CacheMode int

// Cache modes. CacheBypass skips lookups but still stores fetched pages
// so a later run with CacheEnabled can reuse them.
const (
	CacheBypass CacheMode = iota
	CacheEnabled
)

// BrowserConfig holds browser-level settings. It is constructed once
// from validated CLI input and passed by value; nothing mutates it after
// construction.
type BrowserConfig struct {
	Headless  bool
	Cookies   []Cookie
	Headers   map[string]string
	UserAgent string
}

// RunConfig holds per-run crawl settings. Like BrowserConfig it is
// immutable after construction.
type RunConfig struct {
	MaxDepth         int
	MaxPages         int
	WordThreshold    int
	IncludeImages    bool
	ExcludeSelectors []string
	CacheMode        CacheMode
	Screenshot       bool
	ScreenshotDir    string
	JSCode           string
	WaitFor          string
	PageTimeout      time.Duration
	UseSitemap       bool
	Concurrency      int
}

// Crawler is the crawling collaborator: it fetches, renders, extracts
// and converts pages starting from a target URL, returning one result
// per page. Per-page failures are reported as unsuccessful results and
// never abort the run.
type Crawler interface {
	// Run crawls the target URL according to cfg.
	Run(ctx context.Context, targetURL string, cfg RunConfig) ([]*PageResult, error)

	// Close releases crawling resources (browser, cache).
	Close() error
}
