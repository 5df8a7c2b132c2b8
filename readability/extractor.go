// Package readability extracts main page content using go-readability.
// It serves as the fallback extractor when trafilatura yields nothing.
package readability

import (
	"strings"

	"github.com/fwojciec/deepcrawl"
	readability "github.com/go-shiori/go-readability"
)

// Ensure Extractor implements deepcrawl.Extractor at compile time.
var _ deepcrawl.Extractor = (*Extractor)(nil)

// Extractor wraps go-readability to extract main content from HTML.
type Extractor struct{}

// NewExtractor creates a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract processes raw HTML and returns the main content.
func (e *Extractor) Extract(rawHTML string) (*deepcrawl.ExtractResult, error) {
	if rawHTML == "" {
		return nil, deepcrawl.Errorf(deepcrawl.EINVALID, "empty HTML input")
	}

	article, err := readability.FromReader(strings.NewReader(rawHTML), nil)
	if err != nil {
		return nil, err
	}

	return &deepcrawl.ExtractResult{
		Title:       article.Title,
		ContentHTML: article.Content,
	}, nil
}
