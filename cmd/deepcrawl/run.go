package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync/atomic"
	"time"

	"github.com/fwojciec/deepcrawl"
	"github.com/fwojciec/deepcrawl/crawl"
)

// CrawlCmd runs a single crawl: it drives the crawler, filters and
// formats the results, writes the output file and prints a summary.
type CrawlCmd struct {
	URL             string
	Output          string
	Format          deepcrawl.Format
	Sections        []string
	ExcludeSections []string
	IncludeMetadata bool
	Quiet           bool
	Strategy        string
	Config          deepcrawl.RunConfig
}

// Run executes the crawl command.
func (c *CrawlCmd) Run(deps *Dependencies) error {
	start := time.Now()

	results, err := deps.Crawler.Run(deps.Ctx, c.URL, c.Config)
	if err != nil {
		return err
	}

	var pages []*deepcrawl.PageResult
	failed := 0
	timestamp := time.Now()
	filtering := len(c.Sections) > 0 || len(c.ExcludeSections) > 0
	for _, result := range results {
		if !result.Success {
			failed++
			// Error level so quiet mode still reports the failure.
			deps.Logger.Error("page failed", "url", result.URL, "err", result.ErrorMessage)
			continue
		}
		if filtering {
			result.Markdown = deepcrawl.FilterSections(result.Markdown, c.Sections, c.ExcludeSections)
		}
		result.Metadata = &deepcrawl.CrawlMetadata{
			Source:    result.URL,
			Timestamp: timestamp,
			PageCount: 1,
			Strategy:  c.Strategy,
		}
		pages = append(pages, result)
	}

	// An all-failure crawl still produces the output file, matching the
	// empty-result contract: the file is the artifact, the warnings are
	// the diagnosis.
	if len(pages) == 0 {
		deps.Logger.Warn("no pages could be crawled", "url", c.URL)
	}

	doc := deepcrawl.FormatResults(pages, c.IncludeMetadata)

	outPath := c.Output
	if outPath == "" {
		outPath = deepcrawl.OutputFilename(c.URL, c.Format)
	}
	if err := os.WriteFile(outPath, []byte(doc), 0o644); err != nil {
		return fmt.Errorf("writing output file: %w", err)
	}

	if c.Quiet {
		return nil
	}

	tokens := 0
	if deps.TokenCounter != nil {
		if n, err := deps.TokenCounter.CountTokens(deps.Ctx, doc); err == nil {
			tokens = n
		}
	}

	elapsed := time.Since(start).Round(100 * time.Millisecond)
	fmt.Fprintf(deps.Stdout, "Crawled %d pages (%d failed) in %s\n", len(pages), failed, elapsed)
	fmt.Fprintf(deps.Stdout, "Wrote %s (%s, %d words, %s)\n",
		outPath,
		crawl.FormatBytes(len(doc)),
		deepcrawl.WordCount(doc),
		crawl.FormatTokens(tokens),
	)

	return nil
}

// progressFetcher prints a numbered progress line for every page fetch.
type progressFetcher struct {
	next deepcrawl.Fetcher
	w    io.Writer
	n    atomic.Int64
}

func newProgressFetcher(next deepcrawl.Fetcher, w io.Writer) *progressFetcher {
	return &progressFetcher{next: next, w: w}
}

func (p *progressFetcher) Fetch(ctx context.Context, url string) (string, error) {
	fmt.Fprintf(p.w, "[%d] %s\n", p.n.Add(1), crawl.TruncateURL(url, 80))
	return p.next.Fetch(ctx, url)
}

func (p *progressFetcher) Close() error {
	return p.next.Close()
}
