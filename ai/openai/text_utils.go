package openai

import (
	"regexp"
	"strings"
)

// Reasoning models served through Ollama inline their scratchpad.
var thinkBlock = regexp.MustCompile(`(?s)<think>.*?</think>`)

// cleanResponse removes reasoning blocks and trims surrounding whitespace.
func cleanResponse(s string) string {
	s = thinkBlock.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}
