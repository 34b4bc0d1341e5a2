package model

import (
	"sync"
	"unicode/utf8"

	"github.com/koenighotze/search-assistant/internal/logger"
	"github.com/pkoukk/tiktoken-go"
)

const tokenEncoding = "cl100k_base"

// minNewTokens is the generation budget left for prompts that already use up
// the max length.
const minNewTokens = 64

var loadEncoding = sync.OnceValues(func() (*tiktoken.Tiktoken, error) {
	enc, err := tiktoken.GetEncoding(tokenEncoding)
	if err != nil {
		logger.Log.Warn("Cannot load token encoding, estimating token counts",
			"encoding", tokenEncoding,
			"error", err)
	}
	return enc, err
})

// newTokenCounter counts with the cl100k_base encoding. The served model uses
// its own tokenizer, so the count is an estimate either way.
func newTokenCounter() TokenCounter {
	enc, err := loadEncoding()
	if err != nil {
		return estimateTokens
	}
	return func(_, text string) int {
		return len(enc.Encode(text, nil, nil))
	}
}

// estimateTokens assumes four characters per token.
func estimateTokens(_, text string) int {
	return (utf8.RuneCountInString(text) + 3) / 4
}
