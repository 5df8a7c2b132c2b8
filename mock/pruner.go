package mock

import "github.com/fwojciec/deepcrawl"

var _ deepcrawl.Pruner = (*Pruner)(nil)

// Pruner is a mock implementation of deepcrawl.Pruner.
type Pruner struct {
	PruneFn func(html string) (string, error)
}

func (p *Pruner) Prune(html string) (string, error) {
	return p.PruneFn(html)
}
