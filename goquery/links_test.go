package goquery_test

import (
	"testing"

	"github.com/fwojciec/deepcrawl"
	"github.com/fwojciec/deepcrawl/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinkExtractor_ExtractLinks(t *testing.T) {
	t.Parallel()

	e := goquery.NewLinkExtractor()

	t.Run("extracts nav links with navigation priority", func(t *testing.T) {
		t.Parallel()

		html := `<html><body><nav><a href="/docs/intro">Intro</a></nav></body></html>`

		links, err := e.ExtractLinks(html, "https://docs.example.com/")

		require.NoError(t, err)
		require.Len(t, links, 1)
		assert.Equal(t, "https://docs.example.com/docs/intro", links[0].URL)
		assert.Equal(t, deepcrawl.PriorityNavigation, links[0].Priority)
		assert.Equal(t, "Intro", links[0].Text)
	})

	t.Run("resolves relative URLs against base", func(t *testing.T) {
		t.Parallel()

		html := `<html><body><main><a href="guide">Guide</a></main></body></html>`

		links, err := e.ExtractLinks(html, "https://docs.example.com/api/")

		require.NoError(t, err)
		require.Len(t, links, 1)
		assert.Equal(t, "https://docs.example.com/api/guide", links[0].URL)
	})

	t.Run("filters external and non-http links", func(t *testing.T) {
		t.Parallel()

		html := `<html><body><nav>
			<a href="https://other.example.org/page">External</a>
			<a href="mailto:docs@example.com">Mail</a>
			<a href="javascript:void(0)">JS</a>
			<a href="/keep">Keep</a>
		</nav></body></html>`

		links, err := e.ExtractLinks(html, "https://docs.example.com/")

		require.NoError(t, err)
		require.Len(t, links, 1)
		assert.Equal(t, "https://docs.example.com/keep", links[0].URL)
	})

	t.Run("deduplicates keeping highest priority", func(t *testing.T) {
		t.Parallel()

		html := `<html><body>
			<footer><a href="/page">Footer copy</a></footer>
			<nav><a href="/page">Nav copy</a></nav>
		</body></html>`

		links, err := e.ExtractLinks(html, "https://docs.example.com/")

		require.NoError(t, err)
		require.Len(t, links, 1)
		assert.Equal(t, deepcrawl.PriorityNavigation, links[0].Priority)
	})

	t.Run("invalid base URL returns EINVALID", func(t *testing.T) {
		t.Parallel()

		_, err := e.ExtractLinks("<html></html>", "://bad")

		require.Error(t, err)
		assert.Equal(t, deepcrawl.EINVALID, deepcrawl.ErrorCode(err))
	})
}
