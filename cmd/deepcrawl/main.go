package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/fwojciec/deepcrawl"
	"github.com/fwojciec/deepcrawl/crawl"
	"github.com/fwojciec/deepcrawl/goquery"
	"github.com/fwojciec/deepcrawl/htmltomarkdown"
	dchttp "github.com/fwojciec/deepcrawl/http"
	"github.com/fwojciec/deepcrawl/readability"
	"github.com/fwojciec/deepcrawl/rod"
	"github.com/fwojciec/deepcrawl/sqlite"
	"github.com/fwojciec/deepcrawl/tiktoken"
	"github.com/fwojciec/deepcrawl/trafilatura"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := NewMain()

	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	// Injectable collaborators for end-to-end testing. When nil, Run
	// wires the real implementations.
	Crawler      deepcrawl.Crawler
	TokenCounter deepcrawl.TokenCounter
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{}
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("deepcrawl"),
		kong.Description("Crawl documentation sites into a single LLM-ready markdown file"),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	// Handle no arguments
	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no arguments provided")
	}

	// Handle help flags
	if len(args) == 1 && (args[0] == "--help" || args[0] == "-h" || args[0] == "help") {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	_, err = parser.Parse(args)
	if err != nil {
		return err
	}

	// Flag conflicts are checked before anything else runs.
	if cli.Quiet && cli.Verbose {
		return deepcrawl.Errorf(deepcrawl.ECONFLICT, "--quiet and --verbose are mutually exclusive")
	}

	logger := newLogger(stderr, cli)

	browserCfg, runCfg := buildConfigs(cli, stderr)

	crawler := m.Crawler
	if crawler == nil {
		built, cleanup, err := buildCrawler(cli, browserCfg, runCfg, logger, stderr)
		if err != nil {
			return err
		}
		defer cleanup()
		crawler = built
	}

	tokenCounter := m.TokenCounter
	if tokenCounter == nil {
		if tc, err := tiktoken.NewTokenCounter(tiktoken.DefaultEncoding); err == nil {
			tokenCounter = tc
		} else {
			logger.Warn("token counting unavailable", "err", err)
		}
	}

	deps := &Dependencies{
		Ctx:          ctx,
		Stdout:       stdout,
		Stderr:       stderr,
		Logger:       logger,
		Crawler:      crawler,
		TokenCounter: tokenCounter,
	}

	strategy := deepcrawl.StrategyBFS
	if cli.Sitemap {
		strategy = deepcrawl.StrategySitemap
	}

	cmd := &CrawlCmd{
		URL:             cli.URL,
		Output:          cli.Output,
		Format:          deepcrawl.Format(cli.Format),
		Sections:        deepcrawl.ParseSectionList(cli.Sections),
		ExcludeSections: deepcrawl.ParseSectionList(cli.ExcludeSections),
		IncludeMetadata: cli.IncludeMetadata,
		Quiet:           cli.Quiet,
		Strategy:        strategy,
		Config:          runCfg,
	}

	return cmd.Run(deps)
}

// newLogger builds the run logger: debug when verbose, errors only when
// quiet, info otherwise.
func newLogger(stderr io.Writer, cli *CLI) *slog.Logger {
	level := slog.LevelInfo
	switch {
	case cli.Verbose:
		level = slog.LevelDebug
	case cli.Quiet:
		level = slog.LevelError
	}
	return slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))
}

// buildConfigs converts validated CLI input into the immutable browser and
// run configurations. Cookie and auth header parse warnings go to stderr;
// they never fail the run.
func buildConfigs(cli *CLI, stderr io.Writer) (deepcrawl.BrowserConfig, deepcrawl.RunConfig) {
	browserCfg := deepcrawl.BrowserConfig{
		Headless:  true,
		UserAgent: cli.UserAgent,
	}

	if cli.Cookies != "" {
		result := deepcrawl.ParseCookies(cli.Cookies)
		if result.Warning != "" {
			fmt.Fprintln(stderr, "warning: "+result.Warning)
		}
		browserCfg.Cookies = result.Cookies
	}
	if cli.AuthHeader != "" {
		result := deepcrawl.ParseAuthHeader(cli.AuthHeader)
		if result.Warning != "" {
			fmt.Fprintln(stderr, "warning: "+result.Warning)
		}
		browserCfg.Headers = result.Headers
	}

	cacheMode := deepcrawl.CacheBypass
	if cli.Cache {
		cacheMode = deepcrawl.CacheEnabled
	}

	runCfg := deepcrawl.RunConfig{
		MaxDepth:         cli.MaxDepth,
		MaxPages:         cli.MaxPages,
		WordThreshold:    cli.WordThreshold,
		IncludeImages:    cli.IncludeImages,
		ExcludeSelectors: parseSelectorList(cli.CustomExcludeSelectors),
		CacheMode:        cacheMode,
		Screenshot:       cli.Screenshot,
		ScreenshotDir:    cli.ScreenshotDir,
		JSCode:           cli.JSCode,
		WaitFor:          cli.WaitFor,
		PageTimeout:      time.Duration(cli.Timeout) * time.Second,
		UseSitemap:       cli.Sitemap,
		Concurrency:      cli.Concurrency,
	}

	return browserCfg, runCfg
}

// buildCrawler wires the real crawl engine from the configs. The returned
// cleanup closes the browser and the cache database.
func buildCrawler(cli *CLI, browserCfg deepcrawl.BrowserConfig, runCfg deepcrawl.RunConfig, logger *slog.Logger, stderr io.Writer) (deepcrawl.Crawler, func(), error) {
	fetchOpts := []rod.Option{
		rod.WithFetchTimeout(runCfg.PageTimeout),
	}
	if browserCfg.UserAgent != "" {
		fetchOpts = append(fetchOpts, rod.WithUserAgent(browserCfg.UserAgent))
	}
	if len(browserCfg.Cookies) > 0 {
		fetchOpts = append(fetchOpts, rod.WithCookies(browserCfg.Cookies))
	}
	if len(browserCfg.Headers) > 0 {
		fetchOpts = append(fetchOpts, rod.WithHeaders(browserCfg.Headers))
	}
	if runCfg.JSCode != "" {
		fetchOpts = append(fetchOpts, rod.WithJSCode(runCfg.JSCode))
	}
	if runCfg.WaitFor != "" {
		fetchOpts = append(fetchOpts, rod.WithWaitFor(runCfg.WaitFor))
	}
	if runCfg.Screenshot {
		fetchOpts = append(fetchOpts, rod.WithScreenshotDir(runCfg.ScreenshotDir))
	}

	rodFetcher, err := rod.NewFetcher(fetchOpts...)
	if err != nil {
		fmt.Fprintln(stderr, "Hint: Chrome or Chromium must be installed")
		return nil, nil, err
	}

	var fetcher deepcrawl.Fetcher = rodFetcher
	if cli.Verbose {
		fetcher = rod.NewLoggingFetcher(fetcher, logger)
	}
	if !cli.Quiet && !cli.NoProgress {
		fetcher = newProgressFetcher(fetcher, stderr)
	}

	var cache deepcrawl.PageCache
	db := sqlite.NewDB(cachePath(cli))
	if err := db.Open(); err != nil {
		logger.Warn("page cache unavailable", "err", err)
		db = nil
	} else {
		cache = sqlite.NewCacheService(db)
	}

	engine := &crawl.Engine{
		Fetcher: fetcher,
		Pruner: goquery.NewPruner(
			goquery.WithImages(runCfg.IncludeImages),
			goquery.WithExcludeSelectors(runCfg.ExcludeSelectors),
		),
		Extractor:         trafilatura.NewExtractor(),
		FallbackExtractor: readability.NewExtractor(),
		Converter: htmltomarkdown.NewGenerator(
			htmltomarkdown.WithWordThreshold(runCfg.WordThreshold),
		),
		Links:       goquery.NewLinkExtractor(),
		Sitemaps:    dchttp.NewSitemapService(nil),
		Cache:       cache,
		RateLimiter: crawl.NewDomainLimiter(1.0),
		Logger:      logger,
	}

	cleanup := func() {
		_ = engine.Close()
		if db != nil {
			_ = db.Close()
		}
	}
	return engine, cleanup, nil
}

// cachePath resolves the page cache location.
func cachePath(cli *CLI) string {
	if cli.CachePath != "" {
		return cli.CachePath
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "deepcrawl-cache.db"
	}
	dir := filepath.Join(home, ".deepcrawl")
	_ = os.MkdirAll(dir, 0o755)
	return filepath.Join(dir, "cache.db")
}

// parseSelectorList splits a comma-separated CSS selector list, dropping
// empty entries.
func parseSelectorList(csv string) []string {
	if csv == "" {
		return nil
	}
	var selectors []string
	for _, s := range strings.Split(csv, ",") {
		if s = strings.TrimSpace(s); s != "" {
			selectors = append(selectors, s)
		}
	}
	return selectors
}
