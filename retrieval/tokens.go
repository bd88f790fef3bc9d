package retrieval

import (
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"
	tiktoken_loader "github.com/pkoukk/tiktoken-go-loader"
)

func init() {
	tiktoken.SetBpeLoader(tiktoken_loader.NewOfflineLoader())
}

const encodingName = "cl100k_base"

var (
	encoding     *tiktoken.Tiktoken
	encodingErr  error
	encodingOnce sync.Once
)

// tokenizer returns the shared cl100k_base encoding.
func tokenizer() (*tiktoken.Tiktoken, error) {
	encodingOnce.Do(func() {
		encoding, encodingErr = tiktoken.GetEncoding(encodingName)
	})
	return encoding, encodingErr
}

// CountTokens returns the number of cl100k_base tokens in text.
func CountTokens(text string) (int, error) {
	if text == "" {
		return 0, nil
	}
	enc, err := tokenizer()
	if err != nil {
		return 0, err
	}
	return len(enc.Encode(text, nil, nil)), nil
}

// truncateTokens cuts text to at most limit tokens. A rune split by the cut
// is dropped.
func truncateTokens(text string, limit int) (string, bool, error) {
	enc, err := tokenizer()
	if err != nil {
		return "", false, err
	}
	tokens := enc.Encode(text, nil, nil)
	if len(tokens) <= limit {
		return text, false, nil
	}
	return strings.ToValidUTF8(enc.Decode(tokens[:limit]), ""), true, nil
}
