package deepcrawl

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

// Format selects the output file extension.
type Format string

// Supported output formats.
const (
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
	FormatXML      Format = "xml"
)

// Extension returns the file extension for the format.
func (f Format) Extension() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatXML:
		return "xml"
	default:
		return "md"
	}
}

var nonWordRe = regexp.MustCompile(`[^\w-]`)

// OutputFilename derives an output file name from the target URL:
// the host with "www." removed, dots replaced by hyphens and any
// remaining non-word characters stripped, prefixed with "docs-" unless
// the host already contains "docs", plus the format extension.
//
// Example: https://docs.stripe.com -> docs-stripe-com.md
func OutputFilename(rawURL string, format Format) string {
	domain := rawURL
	if parsed, err := url.Parse(rawURL); err == nil && parsed.Host != "" {
		domain = parsed.Host
	}

	domain = strings.ReplaceAll(domain, "www.", "")
	domain = strings.ReplaceAll(domain, ".", "-")
	domain = nonWordRe.ReplaceAllString(domain, "")

	if !strings.Contains(domain, "docs") {
		domain = "docs-" + domain
	}

	return domain + "." + format.Extension()
}

// metadataTimestamp is the timestamp layout used in crawl report headers.
const metadataTimestamp = "2006-01-02 15:04:05"

// FormatResults concatenates crawl results into a single document.
// When includeMetadata is set, each result's markdown is prefixed with a
// fixed-format report header and a separator line. Results are joined
// with a blank line between them, in input order.
func FormatResults(results []*PageResult, includeMetadata bool) string {
	parts := make([]string, 0, len(results))
	for _, result := range results {
		parts = append(parts, formatResult(result, includeMetadata))
	}
	return strings.Join(parts, "\n\n")
}

func formatResult(result *PageResult, includeMetadata bool) string {
	if !includeMetadata {
		return result.Markdown
	}

	var b strings.Builder
	b.WriteString("# Documentation Crawl Report\n\n")
	b.WriteString("**Source:** " + metadataField(result, func(m *CrawlMetadata) string { return m.Source }) + "\n")
	b.WriteString("**Crawled:** " + metadataField(result, func(m *CrawlMetadata) string {
		if m.Timestamp.IsZero() {
			return ""
		}
		return m.Timestamp.Format(metadataTimestamp)
	}) + "\n")
	b.WriteString("**Pages:** " + metadataField(result, func(m *CrawlMetadata) string {
		if m.PageCount == 0 {
			return ""
		}
		return strconv.Itoa(m.PageCount)
	}) + "\n")
	b.WriteString("**Strategy:** " + metadataField(result, func(m *CrawlMetadata) string { return m.Strategy }) + "\n\n")
	b.WriteString("---\n\n")
	b.WriteString(result.Markdown)
	return b.String()
}

// metadataField extracts a header field, falling back to "Unknown" when
// the metadata record or the field is missing.
func metadataField(result *PageResult, get func(*CrawlMetadata) string) string {
	if result.Metadata == nil {
		return "Unknown"
	}
	if v := get(result.Metadata); v != "" {
		return v
	}
	return "Unknown"
}

// WordCount returns the number of whitespace-delimited words in s.
func WordCount(s string) int {
	return len(strings.Fields(s))
}
