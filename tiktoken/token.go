// Package tiktoken counts tokens using OpenAI's tiktoken BPE encodings.
package tiktoken

import (
	"context"

	"github.com/fwojciec/deepcrawl"
	"github.com/pkoukk/tiktoken-go"
)

// DefaultEncoding is the encoding used for output-size reporting.
const DefaultEncoding = "cl100k_base"

var _ deepcrawl.TokenCounter = (*TokenCounter)(nil)

// TokenCounter counts tokens using a tiktoken encoding.
type TokenCounter struct {
	enc *tiktoken.Tiktoken
}

// NewTokenCounter creates a new TokenCounter for the given encoding name.
// Use DefaultEncoding unless a specific model encoding is required.
func NewTokenCounter(encoding string) (*TokenCounter, error) {
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, err
	}
	return &TokenCounter{enc: enc}, nil
}

// CountTokens counts the number of tokens in the given text.
func (tc *TokenCounter) CountTokens(ctx context.Context, text string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if text == "" {
		return 0, nil
	}
	return len(tc.enc.Encode(text, nil, nil)), nil
}
