package prompt

import (
	"github.com/pkoukk/tiktoken-go"
)

const fallbackEncoding = "cl100k_base"

// Budget counts tokens so prompts stay inside a model's context window.
type Budget struct {
	enc       *tiktoken.Tiktoken
	MaxTokens int
}

// NewBudget builds a budget for the given model. Unknown models fall back to
// the cl100k_base encoding.
func NewBudget(model string, maxTokens int) (*Budget, error) {
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		enc, err = tiktoken.GetEncoding(fallbackEncoding)
		if err != nil {
			return nil, err
		}
	}
	return &Budget{enc: enc, MaxTokens: maxTokens}, nil
}

// Count returns the token count of text.
func (b *Budget) Count(text string) int {
	return len(b.enc.Encode(text, nil, nil))
}

// Fits reports whether text stays within the budget.
func (b *Budget) Fits(text string) bool {
	return b.Count(text) <= b.MaxTokens
}

// Truncate cuts text to at most maxTokens tokens, decoding back through the
// encoder so the cut lands on a token boundary.
func (b *Budget) Truncate(text string, maxTokens int) string {
	tokens := b.enc.Encode(text, nil, nil)
	if len(tokens) <= maxTokens {
		return text
	}
	return b.enc.Decode(tokens[:maxTokens])
}
