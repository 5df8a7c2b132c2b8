// Package crawl provides the crawl engine that walks a documentation site
// and produces markdown page results. It coordinates fetching, pruning,
// content extraction, markdown conversion, caching and link discovery.
package crawl

import (
	"context"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/fwojciec/deepcrawl"
	"golang.org/x/sync/errgroup"
)

// Frontier configuration for link-following crawls.
const (
	// frontierExpectedURLs is the expected number of URLs for Bloom filter sizing.
	frontierExpectedURLs = 10000
	// frontierFalsePositiveRate is the acceptable false positive rate for deduplication.
	frontierFalsePositiveRate = 0.01
	// maxCrawlURLs limits the number of URLs processed to prevent runaway crawls.
	maxCrawlURLs = 1000
	// defaultConcurrency is the worker count when the config does not set one.
	defaultConcurrency = 10
)

// Compile-time interface verification.
var _ deepcrawl.Crawler = (*Engine)(nil)

// Engine crawls documentation sites breadth-first, or flat from a sitemap,
// and returns one PageResult per processed URL. Per-page failures never
// abort the run. Optional collaborators (cache, rate limiter, sitemap
// service, fallback extractor) may be nil.
type Engine struct {
	Fetcher           deepcrawl.Fetcher
	Pruner            deepcrawl.Pruner
	Extractor         deepcrawl.Extractor
	FallbackExtractor deepcrawl.Extractor
	Converter         deepcrawl.Converter
	Links             deepcrawl.LinkExtractor
	Sitemaps          deepcrawl.SitemapService
	Cache             deepcrawl.PageCache
	RateLimiter       *DomainLimiter
	RetryDelays       []time.Duration
	Logger            *slog.Logger
}

// pageOutcome holds the outcome of processing a single URL.
type pageOutcome struct {
	link       deepcrawl.DiscoveredLink
	title      string
	markdown   string
	hash       string
	discovered []deepcrawl.DiscoveredLink
	fromCache  bool
	err        error
}

// Run crawls the target URL according to cfg and returns one result per
// processed page.
func (e *Engine) Run(ctx context.Context, targetURL string, cfg deepcrawl.RunConfig) ([]*deepcrawl.PageResult, error) {
	parsed, err := url.Parse(targetURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, deepcrawl.Errorf(deepcrawl.EINVALID, "invalid target URL %q", targetURL)
	}

	if cfg.UseSitemap && e.Sitemaps != nil {
		urls, err := e.Sitemaps.DiscoverURLs(ctx, targetURL)
		if err != nil {
			e.logger().Warn("sitemap discovery failed, falling back to link crawl", "url", targetURL, "err", err)
		} else if len(urls) > 0 {
			return e.sitemapCrawl(ctx, urls, cfg)
		} else {
			e.logger().Info("sitemap empty, falling back to link crawl", "url", targetURL)
		}
	}

	return e.linkCrawl(ctx, targetURL, parsed, cfg)
}

// Close releases crawling resources.
func (e *Engine) Close() error {
	if e.Fetcher == nil {
		return nil
	}
	return e.Fetcher.Close()
}

// pageLimit returns the maximum number of pages to process for a run.
func pageLimit(cfg deepcrawl.RunConfig) int {
	if cfg.MaxPages > 0 && cfg.MaxPages < maxCrawlURLs {
		return cfg.MaxPages
	}
	return maxCrawlURLs
}

func concurrency(cfg deepcrawl.RunConfig) int {
	if cfg.Concurrency > 0 {
		return cfg.Concurrency
	}
	return defaultConcurrency
}

func (e *Engine) logger() *slog.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return slog.New(slog.DiscardHandler)
}

func (e *Engine) retryDelays() []time.Duration {
	if e.RetryDelays != nil {
		return e.RetryDelays
	}
	return DefaultRetryDelays()
}

// sitemapCrawl processes a flat list of sitemap URLs concurrently,
// preserving sitemap order in the results.
func (e *Engine) sitemapCrawl(ctx context.Context, urls []string, cfg deepcrawl.RunConfig) ([]*deepcrawl.PageResult, error) {
	limit := pageLimit(cfg)
	if len(urls) > limit {
		urls = urls[:limit]
	}

	outcomes := make([]pageOutcome, len(urls))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency(cfg))
	for i, u := range urls {
		g.Go(func() error {
			outcome := e.processPage(gctx, deepcrawl.DiscoveredLink{URL: u}, cfg, false)
			outcomes[i] = outcome
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	seenHashes := make(map[string]bool)
	results := make([]*deepcrawl.PageResult, 0, len(outcomes))
	for _, outcome := range outcomes {
		if e.duplicate(outcome, seenHashes) {
			continue
		}
		results = append(results, outcome.pageResult())
	}
	return results, nil
}

// duplicate reports whether a successful outcome repeats content already
// collected this run, comparing xxhash content hashes. Mirrored and
// aliased pages convert to identical markdown; only the first copy is
// emitted.
func (e *Engine) duplicate(outcome pageOutcome, seen map[string]bool) bool {
	if outcome.err != nil || outcome.hash == "" {
		return false
	}
	if seen[outcome.hash] {
		e.logger().Debug("duplicate content suppressed", "url", outcome.link.URL)
		return true
	}
	seen[outcome.hash] = true
	return false
}

// linkCrawl walks the site breadth-first from the target URL using a
// priority frontier with a concurrent worker pool. Discovered links are
// admitted only when they stay on the target host, under the target path,
// and within the configured depth.
func (e *Engine) linkCrawl(ctx context.Context, targetURL string, parsed *url.URL, cfg deepcrawl.RunConfig) ([]*deepcrawl.PageResult, error) {
	pathPrefix := parsed.Path

	frontier := NewFrontier(frontierExpectedURLs, frontierFalsePositiveRate)
	frontier.Push(deepcrawl.DiscoveredLink{
		URL:      targetURL,
		Depth:    0,
		Priority: deepcrawl.PriorityTOC,
	})

	workers := concurrency(cfg)
	limit := pageLimit(cfg)

	workCh := make(chan deepcrawl.DiscoveredLink, workers)
	resultCh := make(chan pageOutcome)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for link := range workCh {
				outcome := e.processPage(ctx, link, cfg, true)
				select {
				case resultCh <- outcome:
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	var results []*deepcrawl.PageResult
	seenHashes := make(map[string]bool)
	handleResult := func(outcome pageOutcome) {
		for _, link := range outcome.discovered {
			if !e.admit(link, parsed, pathPrefix, cfg) {
				continue
			}
			frontier.Push(link)
		}
		if e.duplicate(outcome, seenHashes) {
			return
		}
		results = append(results, outcome.pageResult())
	}

	dispatched := 0
	pending := 0
	var next *deepcrawl.DiscoveredLink
	if link, ok := frontier.Pop(); ok {
		next = &link
	}

coordinator:
	for {
		// Done when nothing is in flight and nothing more can be
		// dispatched, either because the frontier is empty or the page
		// limit is reached.
		if pending == 0 && (next == nil || dispatched >= limit) {
			break
		}
		if ctx.Err() != nil {
			break
		}

		if next != nil && dispatched < limit {
			select {
			case <-ctx.Done():
				break coordinator
			case workCh <- *next:
				dispatched++
				pending++
				next = nil
			case outcome := <-resultCh:
				pending--
				handleResult(outcome)
			}
		} else {
			select {
			case <-ctx.Done():
				break coordinator
			case outcome, ok := <-resultCh:
				if !ok {
					break coordinator
				}
				pending--
				handleResult(outcome)
			}
		}

		if next == nil && dispatched < limit {
			if link, ok := frontier.Pop(); ok {
				next = &link
			}
		}
	}

	close(workCh)

	// Drain remaining in-flight results with a timeout.
	drainTimeout := time.After(5 * time.Second)
drain:
	for {
		select {
		case outcome, ok := <-resultCh:
			if !ok {
				break drain
			}
			handleResult(outcome)
		case <-drainTimeout:
			break drain
		}
	}

	if err := ctx.Err(); err != nil {
		return results, err
	}
	return results, nil
}

// admit reports whether a discovered link belongs in the crawl scope.
func (e *Engine) admit(link deepcrawl.DiscoveredLink, source *url.URL, pathPrefix string, cfg deepcrawl.RunConfig) bool {
	if cfg.MaxDepth >= 0 && link.Depth > cfg.MaxDepth {
		return false
	}
	parsed, err := url.Parse(link.URL)
	if err != nil {
		return false
	}
	if parsed.Host != source.Host {
		return false
	}
	return strings.HasPrefix(parsed.Path, pathPrefix)
}

// processPage runs the full per-page pipeline: cache lookup, rate limiting,
// fetch with retry, link discovery, pruning, extraction, conversion and
// cache storage. When followLinks is false, link discovery is skipped.
func (e *Engine) processPage(ctx context.Context, link deepcrawl.DiscoveredLink, cfg deepcrawl.RunConfig, followLinks bool) pageOutcome {
	outcome := pageOutcome{link: link}

	if cfg.CacheMode == deepcrawl.CacheEnabled && e.Cache != nil {
		if page, err := e.Cache.Get(ctx, link.URL); err == nil {
			outcome.title = page.Title
			outcome.markdown = page.Markdown
			outcome.hash = page.ContentHash
			outcome.fromCache = true
			e.logger().Debug("cache hit", "url", link.URL)
			return outcome
		}
	}

	parsed, err := url.Parse(link.URL)
	if err != nil {
		outcome.err = err
		return outcome
	}
	if e.RateLimiter != nil {
		if err := e.RateLimiter.Wait(ctx, parsed.Host); err != nil {
			outcome.err = err
			return outcome
		}
	}

	html, err := FetchWithRetry(ctx, link.URL, e.Fetcher.Fetch, e.Logger, e.retryDelays())
	if err != nil {
		outcome.err = err
		return outcome
	}

	// Links come from the raw HTML: pruning strips the navigation
	// elements they live in.
	if followLinks && e.Links != nil {
		if links, err := e.Links.ExtractLinks(html, link.URL); err == nil {
			for i := range links {
				links[i].Depth = link.Depth + 1
			}
			outcome.discovered = links
		}
	}

	if e.Pruner != nil {
		pruned, err := e.Pruner.Prune(html)
		if err != nil {
			outcome.err = err
			return outcome
		}
		html = pruned
	}

	extracted, err := e.Extractor.Extract(html)
	if err != nil && e.FallbackExtractor != nil {
		e.logger().Debug("primary extraction failed, trying fallback", "url", link.URL, "err", err)
		extracted, err = e.FallbackExtractor.Extract(html)
	}
	if err != nil {
		outcome.err = err
		return outcome
	}

	markdown, err := e.Converter.Convert(extracted.ContentHTML)
	if err != nil {
		outcome.err = err
		return outcome
	}

	outcome.title = extracted.Title
	outcome.markdown = markdown
	outcome.hash = ComputeHash(markdown)

	// Store regardless of cache mode so later runs can reuse the page.
	if e.Cache != nil {
		err := e.Cache.Put(ctx, &deepcrawl.CachedPage{
			URL:         link.URL,
			Title:       outcome.title,
			Markdown:    outcome.markdown,
			ContentHash: outcome.hash,
		})
		if err != nil {
			e.logger().Warn("cache store failed", "url", link.URL, "err", err)
		}
	}

	return outcome
}

// pageResult converts an internal outcome into the public result shape.
func (o pageOutcome) pageResult() *deepcrawl.PageResult {
	result := &deepcrawl.PageResult{
		URL:   o.link.URL,
		Depth: o.link.Depth,
	}
	if o.err != nil {
		result.ErrorMessage = o.err.Error()
		return result
	}
	result.Success = true
	result.Markdown = o.markdown
	return result
}
