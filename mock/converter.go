package mock

import "github.com/fwojciec/deepcrawl"

var _ deepcrawl.Converter = (*Converter)(nil)

// Converter is a mock implementation of deepcrawl.Converter.
type Converter struct {
	ConvertFn func(html string) (string, error)
}

func (c *Converter) Convert(html string) (string, error) {
	return c.ConvertFn(html)
}
