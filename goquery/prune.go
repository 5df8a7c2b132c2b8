package goquery

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/deepcrawl"
)

// defaultExcludeSelectors are removed from every page before content
// extraction. They cover elements that never belong in LLM context.
var defaultExcludeSelectors = []string{
	"script",
	"style",
	"noscript",
	"iframe",
	"form",
	".advertisement",
	".cookie-banner",
}

// imageSelectors are removed unless image content is requested.
var imageSelectors = []string{"img", "picture", "figure", "svg"}

// Ensure Pruner implements deepcrawl.Pruner at compile time.
var _ deepcrawl.Pruner = (*Pruner)(nil)

// Pruner removes unwanted elements from HTML before extraction.
type Pruner struct {
	selectors []string
}

// PrunerOption configures a Pruner.
type PrunerOption func(*prunerConfig)

type prunerConfig struct {
	extraSelectors []string
	includeImages  bool
}

// WithExcludeSelectors adds user-supplied CSS selectors to remove.
func WithExcludeSelectors(selectors []string) PrunerOption {
	return func(c *prunerConfig) {
		c.extraSelectors = selectors
	}
}

// WithImages keeps image elements in the pruned output.
func WithImages(include bool) PrunerOption {
	return func(c *prunerConfig) {
		c.includeImages = include
	}
}

// NewPruner creates a Pruner with the default exclusions plus any
// configured extras.
func NewPruner(opts ...PrunerOption) *Pruner {
	cfg := &prunerConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	selectors := make([]string, 0, len(defaultExcludeSelectors)+len(imageSelectors)+len(cfg.extraSelectors))
	selectors = append(selectors, defaultExcludeSelectors...)
	if !cfg.includeImages {
		selectors = append(selectors, imageSelectors...)
	}
	selectors = append(selectors, cfg.extraSelectors...)

	return &Pruner{selectors: selectors}
}

// Prune removes all configured selectors from the HTML and returns the
// remaining document. Invalid input HTML is returned unchanged with an
// EINVALID error.
func (p *Pruner) Prune(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return html, deepcrawl.Errorf(deepcrawl.EINVALID, "failed to parse HTML: %v", err)
	}

	for _, selector := range p.selectors {
		doc.Find(selector).Remove()
	}

	pruned, err := doc.Html()
	if err != nil {
		return html, err
	}
	return pruned, nil
}
