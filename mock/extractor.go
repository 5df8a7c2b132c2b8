package mock

import "github.com/fwojciec/deepcrawl"

var _ deepcrawl.Extractor = (*Extractor)(nil)

// Extractor is a mock implementation of deepcrawl.Extractor.
type Extractor struct {
	ExtractFn func(html string) (*deepcrawl.ExtractResult, error)
}

func (e *Extractor) Extract(html string) (*deepcrawl.ExtractResult, error) {
	return e.ExtractFn(html)
}
