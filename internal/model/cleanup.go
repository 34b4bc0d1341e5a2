package model

import (
	"regexp"
	"strings"
)

var (
	thinkRe = regexp.MustCompile(`(?s)<think>.*?</think>`)
	// chat-template markers such as <|im_end|> or <|endoftext|>, and the
	// sentencepiece <s> </s> pair
	specialTokenRe = regexp.MustCompile(`<\|[^<>|]*\|>|</?s>`)
)

// cleanupAnswer keeps only what the model generated after prompt.
func cleanupAnswer(prompt, rawResponse string) string {
	text := strings.TrimPrefix(rawResponse, prompt)
	text = thinkRe.ReplaceAllString(text, "")
	text = specialTokenRe.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}
