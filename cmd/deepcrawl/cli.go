package main

import (
	"context"
	"io"
	"log/slog"

	"github.com/fwojciec/deepcrawl"
)

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx    context.Context
	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger

	Crawler      deepcrawl.Crawler
	TokenCounter deepcrawl.TokenCounter
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	URL    string `arg:"" required:"" help:"Documentation URL to crawl"`
	Output string `short:"o" help:"Output file path (default: derived from the domain)"`

	MaxDepth int `default:"3" help:"Maximum link depth to follow from the target URL"`
	MaxPages int `default:"30" help:"Maximum number of pages to crawl"`

	Sections        string `help:"Comma-separated keywords; keep only markdown sections whose headers match"`
	ExcludeSections string `help:"Comma-separated keywords; drop markdown sections whose headers match"`

	WordThreshold          int    `default:"200" help:"Minimum words for a prose block to be kept"`
	IncludeImages          bool   `help:"Keep image elements in the crawled content"`
	CustomExcludeSelectors string `help:"Comma-separated CSS selectors to strip before extraction"`

	AuthHeader string `help:"Auth header in 'Name: value' form sent with every request"`
	Cookies    string `help:"Cookie string ('a=b; c=d') or path to a JSON cookie file"`
	UserAgent  string `help:"Override the browser User-Agent"`

	JSCode        string `help:"JavaScript to run on each page after load"`
	WaitFor       string `help:"CSS selector to wait for before capturing each page"`
	Screenshot    bool   `help:"Save a PNG screenshot of each crawled page"`
	ScreenshotDir string `default:"screenshots" help:"Directory for page screenshots"`
	Timeout       int    `default:"30" help:"Per-page timeout in seconds"`

	Sitemap     bool   `help:"Discover pages from the site's sitemap instead of following links"`
	Cache       bool   `help:"Reuse previously crawled pages from the local page cache"`
	CachePath   string `help:"Page cache database path (default: ~/.deepcrawl/cache.db)"`
	Format      string `default:"markdown" enum:"markdown,json,xml" help:"Output format"`
	Concurrency int    `short:"c" default:"10" help:"Concurrent fetch limit"`

	Verbose         bool `short:"v" help:"Verbose logging"`
	Quiet           bool `short:"q" help:"Suppress progress and summary output"`
	NoProgress      bool `help:"Disable per-page progress output"`
	IncludeMetadata bool `help:"Prefix each page with a crawl report header"`
}
