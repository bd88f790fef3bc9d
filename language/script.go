package language

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// latinRun matches five or more consecutive Latin words.
var latinRun = regexp.MustCompile(`\b[A-Za-z]+(?:\s+[A-Za-z]+){4,}\b`)

// Composition counts script usage in a text.
type Composition struct {
	// Content is the number of letters and digits.
	Content int
	// Hangul is the number of Hangul characters.
	Hangul int
	// Han is the number of CJK ideographs.
	Han int
	// LatinRuns is the length of all five-plus-word Latin runs joined by
	// single spaces.
	LatinRuns int
}

// Analyze counts scripts in the NFC form of text.
func Analyze(text string) Composition {
	text = norm.NFC.String(text)

	var c Composition
	for _, r := range text {
		if !unicode.IsLetter(r) && !unicode.IsNumber(r) {
			continue
		}
		c.Content++
		switch {
		case unicode.Is(unicode.Hangul, r):
			c.Hangul++
		case unicode.Is(unicode.Han, r):
			c.Han++
		}
	}

	runs := latinRun.FindAllString(text, -1)
	if len(runs) > 0 {
		c.LatinRuns = len(strings.Join(runs, " "))
	}
	return c
}

// ratio returns n / Content, or zero for empty text.
func (c Composition) ratio(n int) float64 {
	if c.Content == 0 {
		return 0
	}
	return float64(n) / float64(c.Content)
}

// HasHangul reports whether text contains any Hangul.
func HasHangul(text string) bool {
	for _, r := range text {
		if unicode.Is(unicode.Hangul, r) {
			return true
		}
	}
	return false
}
