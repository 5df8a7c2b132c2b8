// Package htmltomarkdown converts extracted HTML into markdown and
// applies the word-count pruning filter during generation.
package htmltomarkdown

import (
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/fwojciec/deepcrawl"
)

// Ensure Generator implements deepcrawl.Converter at compile time.
var _ deepcrawl.Converter = (*Generator)(nil)

// Generator wraps html-to-markdown to convert HTML to Markdown.
// A non-zero word threshold prunes prose blocks below the threshold;
// headers, code fences, lists, tables and quotes are always kept so the
// document structure survives pruning.
type Generator struct {
	conv     *converter.Converter
	minWords int
}

// Option configures a Generator.
type Option func(*Generator)

// WithWordThreshold sets the minimum word count for a prose block to be
// kept. Zero disables pruning.
func WithWordThreshold(n int) Option {
	return func(g *Generator) {
		g.minWords = n
	}
}

// NewGenerator creates a new Generator.
func NewGenerator(opts ...Option) *Generator {
	conv := converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(),
			table.NewTablePlugin(),
		),
	)
	g := &Generator{conv: conv}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Convert transforms HTML content into Markdown, applying the pruning
// filter when a word threshold is configured.
func (g *Generator) Convert(html string) (string, error) {
	if strings.TrimSpace(html) == "" {
		return "", deepcrawl.Errorf(deepcrawl.EINVALID, "empty HTML input")
	}

	markdown, err := g.conv.ConvertString(html)
	if err != nil {
		return "", err
	}

	if g.minWords > 0 {
		markdown = pruneBlocks(markdown, g.minWords)
	}

	return markdown, nil
}

// pruneBlocks drops blank-line separated prose blocks with fewer than
// minWords words. Structural blocks always pass.
func pruneBlocks(markdown string, minWords int) string {
	blocks := strings.Split(markdown, "\n\n")
	kept := make([]string, 0, len(blocks))

	for _, block := range blocks {
		trimmed := strings.TrimSpace(block)
		if trimmed == "" {
			continue
		}
		if isStructuralBlock(trimmed) || deepcrawl.WordCount(trimmed) >= minWords {
			kept = append(kept, block)
		}
	}

	return strings.Join(kept, "\n\n")
}

// isStructuralBlock reports whether a block carries document structure
// rather than prose: headers, code fences, lists, tables, quotes.
func isStructuralBlock(block string) bool {
	switch {
	case strings.HasPrefix(block, "#"):
		return true
	case strings.HasPrefix(block, "```"):
		return true
	case strings.HasPrefix(block, "- "), strings.HasPrefix(block, "* "), strings.HasPrefix(block, "+ "):
		return true
	case strings.HasPrefix(block, "|"):
		return true
	case strings.HasPrefix(block, ">"):
		return true
	}
	// Ordered lists: "1. item"
	if i := strings.IndexByte(block, '.'); i > 0 && i < 4 {
		allDigits := true
		for _, r := range block[:i] {
			if r < '0' || r > '9' {
				allDigits = false
				break
			}
		}
		if allDigits && len(block) > i+1 && block[i+1] == ' ' {
			return true
		}
	}
	return false
}
