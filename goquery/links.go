// Package goquery provides DOM-level helpers for the crawl engine:
// same-site link extraction and pre-extraction pruning of unwanted
// elements.
package goquery

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/deepcrawl"
)

// Ensure LinkExtractor implements deepcrawl.LinkExtractor at compile time.
var _ deepcrawl.LinkExtractor = (*LinkExtractor)(nil)

// LinkExtractor extracts same-site links using universal CSS selectors
// that work across documentation frameworks. Common HTML patterns and
// class names identify navigation, TOC, content, and footer areas.
type LinkExtractor struct{}

// NewLinkExtractor creates a new LinkExtractor.
func NewLinkExtractor() *LinkExtractor {
	return &LinkExtractor{}
}

// ExtractLinks parses HTML and returns discovered links with priority.
// Links are deduplicated by URL, keeping the highest priority version.
// External links (different host than baseURL) and non-HTTP schemes
// (javascript:, mailto:) are filtered out.
//
// Priority order (highest to lowest):
//   - TOC: .toc, .sidebar, .table-of-contents, aside
//   - Navigation: nav, [role="navigation"], .nav, .menu, .navbar
//   - Content: main, article, .content, .doc-content
//   - Footer: footer, .footer
func (e *LinkExtractor) ExtractLinks(html string, baseURL string) ([]deepcrawl.DiscoveredLink, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, deepcrawl.Errorf(deepcrawl.EINVALID, "invalid base URL: %v", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, deepcrawl.Errorf(deepcrawl.EINVALID, "failed to parse HTML: %v", err)
	}

	// Track seen URLs with their index in the result slice for O(1) updates.
	seen := make(map[string]int)
	var links []deepcrawl.DiscoveredLink

	extract := func(selector string, priority deepcrawl.LinkPriority, source string) {
		doc.Find(selector).Each(func(_ int, sel *goquery.Selection) {
			href, exists := sel.Attr("href")
			if !exists || href == "" {
				return
			}

			if isNonHTTPLink(href) {
				return
			}

			resolved := resolveURL(base, href)
			if resolved == "" {
				return
			}

			// Exact host match; subdomains are treated as external.
			if !isSameHost(base, resolved) {
				return
			}

			link := deepcrawl.DiscoveredLink{
				URL:      resolved,
				Priority: priority,
				Text:     strings.TrimSpace(sel.Text()),
				Source:   source,
			}

			if idx, ok := seen[resolved]; ok {
				if priority > links[idx].Priority {
					links[idx] = link
				}
			} else {
				seen[resolved] = len(links)
				links = append(links, link)
			}
		})
	}

	extract(".toc a[href], .table-of-contents a[href], .sidebar a[href], aside a[href]", deepcrawl.PriorityTOC, "toc")
	extract("nav a[href], [role=\"navigation\"] a[href], .nav a[href], .menu a[href], .navbar a[href]", deepcrawl.PriorityNavigation, "nav")
	extract("main a[href], article a[href], .content a[href], .doc-content a[href]", deepcrawl.PriorityContent, "content")
	extract("footer a[href], .footer a[href]", deepcrawl.PriorityFooter, "footer")

	return links, nil
}

// isNonHTTPLink reports whether href uses a scheme that cannot be crawled.
func isNonHTTPLink(href string) bool {
	lower := strings.ToLower(href)
	for _, prefix := range []string{"javascript:", "mailto:", "tel:", "data:", "ftp:"} {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return false
}

// resolveURL resolves a relative URL against a base URL.
func resolveURL(base *url.URL, href string) string {
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return base.ResolveReference(ref).String()
}

// isSameHost checks if the resolved URL has the same host as the base URL.
func isSameHost(base *url.URL, resolved string) bool {
	u, err := url.Parse(resolved)
	if err != nil {
		return false
	}
	return u.Host == base.Host
}
