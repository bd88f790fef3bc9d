package retrieval

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// FallbackTokenCap bounds the generation budget when answering from raw
// file text.
const FallbackTokenCap = 2048

// fallbackLimit returns how many leading bytes of a file of size bytes to
// read: large files contribute a smaller share.
func fallbackLimit(size int64) int64 {
	switch {
	case size > 50000:
		return 15000
	case size > 20000:
		return 10000
	}
	return size
}

// ReadFallback reads a bounded prefix of the raw file at path as substitute
// context. Invalid UTF-8, including a rune cut by the bound, is dropped.
func ReadFallback(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", err
	}
	data, err := io.ReadAll(io.LimitReader(f, fallbackLimit(info.Size())))
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return strings.TrimSpace(strings.ToValidUTF8(string(data), "")), nil
}

// FallbackTokens caps a plan's budget for fallback answers.
func FallbackTokens(budget int) int {
	return min(budget, FallbackTokenCap)
}
