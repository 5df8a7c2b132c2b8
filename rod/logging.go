package rod

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/fwojciec/deepcrawl"
)

// Ensure LoggingFetcher implements deepcrawl.Fetcher.
var _ deepcrawl.Fetcher = (*LoggingFetcher)(nil)

// LoggingFetcher wraps a Fetcher with per-page fetch logging. Fetches are
// numbered across the crawl so verbose output doubles as a progress trace
// alongside rendered size and timing.
type LoggingFetcher struct {
	next   deepcrawl.Fetcher
	logger *slog.Logger
	seq    atomic.Int64
}

// NewLoggingFetcher creates a new LoggingFetcher.
func NewLoggingFetcher(next deepcrawl.Fetcher, logger *slog.Logger) *LoggingFetcher {
	return &LoggingFetcher{next: next, logger: logger}
}

// Fetch delegates to the wrapped fetcher and logs the fetch ordinal, URL,
// rendered HTML size and duration. Failures log the error in the same line
// so a crawl trace stays one line per page.
func (f *LoggingFetcher) Fetch(ctx context.Context, url string) (string, error) {
	page := f.seq.Add(1)
	begin := time.Now()

	html, err := f.next.Fetch(ctx, url)

	f.logger.Info("page fetch",
		"page", page,
		"url", url,
		"bytes", len(html),
		"duration", time.Since(begin),
		"err", err,
	)
	return html, err
}

// Close delegates to the wrapped fetcher.
func (f *LoggingFetcher) Close() error {
	return f.next.Close()
}
