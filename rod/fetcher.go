package rod

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fwojciec/deepcrawl"
	"github.com/go-rod/rod/lib/proto"
	"github.com/google/uuid"
)

// Ensure Fetcher implements deepcrawl.Fetcher at compile time.
var _ deepcrawl.Fetcher = (*Fetcher)(nil)

// Fetcher retrieves rendered HTML from URLs using Chrome browser automation.
// Pages are created from a managed browser that is recycled periodically to
// keep memory in check. Fetcher is safe for concurrent use by multiple
// goroutines.
type Fetcher struct {
	manager       *BrowserManager
	timeout       time.Duration
	userAgent     string
	cookies       []deepcrawl.Cookie
	headers       map[string]string
	jsCode        string
	waitFor       string
	screenshotDir string
	headless      bool
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithFetchTimeout sets the maximum duration for a single page fetch,
// including navigation, load and any wait-for selector. Zero means no limit.
func WithFetchTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.timeout = d
	}
}

// WithUserAgent overrides the browser's User-Agent header for all pages.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		f.userAgent = ua
	}
}

// WithCookies installs session cookies on every page before navigation.
// Cookies without a domain are scoped to the fetched URL.
func WithCookies(cookies []deepcrawl.Cookie) Option {
	return func(f *Fetcher) {
		f.cookies = cookies
	}
}

// WithHeaders adds extra HTTP headers to every request the page makes.
func WithHeaders(headers map[string]string) Option {
	return func(f *Fetcher) {
		f.headers = headers
	}
}

// WithJSCode runs the given JavaScript on each page after it loads,
// before the HTML is captured. Useful for dismissing overlays or
// expanding collapsed sections.
func WithJSCode(js string) Option {
	return func(f *Fetcher) {
		f.jsCode = js
	}
}

// WithWaitFor blocks the fetch until an element matching the CSS selector
// appears on the page. Pages that render content asynchronously need this
// to avoid capturing an empty shell.
func WithWaitFor(selector string) Option {
	return func(f *Fetcher) {
		f.waitFor = selector
	}
}

// WithScreenshotDir enables full-page screenshots, saved as PNG files in dir.
// The directory is created if it does not exist.
func WithScreenshotDir(dir string) Option {
	return func(f *Fetcher) {
		f.screenshotDir = dir
	}
}

// WithHeadful launches a visible browser window instead of headless Chrome.
func WithHeadful() Option {
	return func(f *Fetcher) {
		f.headless = false
	}
}

// NewFetcher creates a new Fetcher backed by a managed headless Chrome
// browser. Close must be called when the Fetcher is no longer needed.
//
// Returns EUNAVAILABLE if Chrome/Chromium cannot be found or launched.
func NewFetcher(opts ...Option) (*Fetcher, error) {
	f := &Fetcher{headless: true}
	for _, opt := range opts {
		opt(f)
	}

	mgrOpts := []ManagerOption{}
	if !f.headless {
		mgrOpts = append(mgrOpts, WithVisibleBrowser())
	}
	manager, err := NewBrowserManager(mgrOpts...)
	if err != nil {
		return nil, deepcrawl.Errorf(deepcrawl.EUNAVAILABLE, "browser unavailable: %v", err)
	}
	f.manager = manager

	if f.screenshotDir != "" {
		if err := os.MkdirAll(f.screenshotDir, 0o755); err != nil {
			manager.Close()
			return nil, fmt.Errorf("creating screenshot directory: %w", err)
		}
	}

	return f, nil
}

// Fetch navigates to the URL and returns the rendered HTML.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	// Check context before starting
	if err := ctx.Err(); err != nil {
		return "", err
	}

	browser := f.manager.Browser()
	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return "", err
	}
	defer page.Close()

	// Set context for all subsequent operations
	page = page.Context(ctx)
	if f.timeout > 0 {
		page = page.Timeout(f.timeout)
	}

	if f.userAgent != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: f.userAgent}); err != nil {
			return "", err
		}
	}
	if len(f.headers) > 0 {
		pairs := make([]string, 0, len(f.headers)*2)
		for k, v := range f.headers {
			pairs = append(pairs, k, v)
		}
		if _, err := page.SetExtraHeaders(pairs); err != nil {
			return "", err
		}
	}
	if len(f.cookies) > 0 {
		if err := page.SetCookies(cookieParams(f.cookies, url)); err != nil {
			return "", err
		}
	}

	if err := page.Navigate(url); err != nil {
		return "", err
	}

	if err := page.WaitLoad(); err != nil {
		return "", err
	}

	if f.waitFor != "" {
		if _, err := page.Element(f.waitFor); err != nil {
			return "", err
		}
	}

	if f.jsCode != "" {
		if _, err := page.Eval("() => { " + f.jsCode + " }"); err != nil {
			return "", err
		}
	}

	if f.screenshotDir != "" {
		if err := f.screenshot(page); err != nil {
			return "", err
		}
	}

	html, err := page.HTML()
	if err != nil {
		return "", err
	}

	f.manager.IncrementPageCount()
	return html, nil
}

// screenshot captures a full-page PNG and writes it under the screenshot
// directory with a unique filename.
func (f *Fetcher) screenshot(page screenshotter) error {
	data, err := page.Screenshot(true, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
	if err != nil {
		return err
	}
	name := uuid.NewString() + ".png"
	return os.WriteFile(filepath.Join(f.screenshotDir, name), data, 0o644)
}

// screenshotter is the subset of rod.Page used for screenshot capture.
type screenshotter interface {
	Screenshot(fullPage bool, req *proto.PageCaptureScreenshot) ([]byte, error)
}

// Close releases browser resources.
func (f *Fetcher) Close() error {
	return f.manager.Close()
}

// LauncherPID returns the process ID of the browser launcher.
// This method exists for testing purposes to verify proper cleanup.
func (f *Fetcher) LauncherPID() int {
	return f.manager.LauncherPID()
}

// cookieParams converts domain cookies into CDP cookie parameters.
// Cookies that carry no explicit domain are keyed to the page URL.
func cookieParams(cookies []deepcrawl.Cookie, pageURL string) []*proto.NetworkCookieParam {
	params := make([]*proto.NetworkCookieParam, 0, len(cookies))
	for _, c := range cookies {
		p := &proto.NetworkCookieParam{
			Name:   c.Name,
			Value:  c.Value,
			Domain: c.Domain,
			Path:   c.Path,
		}
		if p.Domain == "" {
			p.URL = pageURL
		}
		if p.Path == "" {
			p.Path = "/"
		}
		params = append(params, p)
	}
	return params
}
