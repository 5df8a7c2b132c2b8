package mock

import "github.com/fwojciec/deepcrawl"

var _ deepcrawl.LinkExtractor = (*LinkExtractor)(nil)

// LinkExtractor is a mock implementation of deepcrawl.LinkExtractor.
type LinkExtractor struct {
	ExtractLinksFn func(html string, baseURL string) ([]deepcrawl.DiscoveredLink, error)
}

func (e *LinkExtractor) ExtractLinks(html string, baseURL string) ([]deepcrawl.DiscoveredLink, error) {
	return e.ExtractLinksFn(html, baseURL)
}
