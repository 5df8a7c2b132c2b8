package deepcrawl

import "context"

// TokenCounter counts tokens in text for a fixed tokenization scheme.
type TokenCounter interface {
	CountTokens(ctx context.Context, text string) (int, error)
}
