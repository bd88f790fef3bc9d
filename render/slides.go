package render

import (
	"context"
	"regexp"
	"strconv"
	"strings"
)

// Slide is one parsed presentation slide.
type Slide struct {
	Number int
	Title  string
	Points []string
}

var (
	slideMarker = regexp.MustCompile(`^\[\s*(?:슬라이드|[Ss]lide)\s*(\d+)\s*\]`)
	titleField  = regexp.MustCompile(`^(?:\*\*)?(?:제목|[Tt]itle)(?:\*\*)?\s*[:：](?:\*\*)?\s*(.*)$`)
	pointsField = regexp.MustCompile(`^(?:\*\*)?(?:핵심\s*포인트|주요\s*내용|[Kk]ey\s*[Pp]oints)(?:\*\*)?\s*[:：](?:\*\*)?\s*(.*)$`)
	bulletLine  = regexp.MustCompile(`^\s*[-*•]\s+(.*)$`)
)

// DefaultDeckTitle titles a deck whose text has no recognizable slides.
const DefaultDeckTitle = "발표 자료"

// ParseSlides reads the "[슬라이드 N] / 제목: / 핵심 포인트:" schema (or its
// English form). Text without slide markers is split on markdown headings,
// and text without either becomes a single slide.
func ParseSlides(text string) []Slide {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")

	var slides []Slide
	var cur *Slide
	flush := func() {
		if cur != nil && (cur.Title != "" || len(cur.Points) > 0) {
			if cur.Title == "" {
				cur.Title = "슬라이드 " + strconv.Itoa(cur.Number)
			}
			slides = append(slides, *cur)
		}
		cur = nil
	}

	for _, line := range lines {
		trimmed := strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(line), "#"))
		marker := strings.Trim(trimmed, "*")
		if m := slideMarker.FindStringSubmatch(marker); m != nil {
			flush()
			n, _ := strconv.Atoi(m[1])
			cur = &Slide{Number: n}
			if rest := strings.TrimSpace(marker[len(m[0]):]); rest != "" {
				cur.Title = strings.TrimSpace(strings.TrimLeft(rest, "-:："))
			}
			continue
		}
		if cur == nil || trimmed == "" {
			continue
		}
		if m := titleField.FindStringSubmatch(trimmed); m != nil {
			cur.Title = strings.Trim(m[1], "* ")
			continue
		}
		if m := pointsField.FindStringSubmatch(trimmed); m != nil {
			if p := strings.Trim(m[1], "* "); p != "" {
				cur.Points = append(cur.Points, p)
			}
			continue
		}
		cur.Points = append(cur.Points, stripBullet(trimmed))
	}
	flush()

	if len(slides) > 0 {
		return slides
	}
	return slidesFromHeadings(text)
}

func stripBullet(s string) string {
	if m := bulletLine.FindStringSubmatch(s); m != nil {
		return strings.TrimSpace(m[1])
	}
	return s
}

// slidesFromHeadings makes one slide per markdown heading.
func slidesFromHeadings(text string) []Slide {
	var slides []Slide
	var cur *Slide
	for _, b := range parseMarkdown(text) {
		if b.kind == blockHeading {
			if cur != nil {
				slides = append(slides, *cur)
			}
			cur = &Slide{Number: len(slides) + 1, Title: b.text}
			continue
		}
		if cur == nil {
			cur = &Slide{Number: 1, Title: DefaultDeckTitle}
		}
		cur.Points = append(cur.Points, b.text)
	}
	if cur != nil {
		slides = append(slides, *cur)
	}
	return slides
}

// SlideRenderer writes presentations as Marp markdown decks.
type SlideRenderer struct {
	// Theme is the Marp theme name.
	Theme string
}

// NewSlideRenderer creates a renderer with the default Marp theme.
func NewSlideRenderer() *SlideRenderer {
	return &SlideRenderer{Theme: "default"}
}

func (r *SlideRenderer) Extension() string {
	return ".md"
}

// Render parses text into slides and writes the deck.
func (r *SlideRenderer) Render(ctx context.Context, text, outputPath string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", renderErr(outputPath, err)
	}
	slides := ParseSlides(text)
	if len(slides) == 0 {
		return "", renderErr(outputPath, errNoSlides)
	}
	if err := writeFile(outputPath, []byte(r.Deck(slides))); err != nil {
		return "", renderErr(outputPath, err)
	}
	return outputPath, nil
}

// Deck renders slides as Marp markdown.
func (r *SlideRenderer) Deck(slides []Slide) string {
	var sb strings.Builder
	sb.WriteString("---\nmarp: true\npaginate: true\n")
	if r.Theme != "" {
		sb.WriteString("theme: " + r.Theme + "\n")
	}
	sb.WriteString("---\n")
	for i, s := range slides {
		if i > 0 {
			sb.WriteString("\n---\n")
		}
		sb.WriteString("\n# " + s.Title + "\n")
		if len(s.Points) > 0 {
			sb.WriteString("\n")
		}
		for _, p := range s.Points {
			sb.WriteString("- " + p + "\n")
		}
	}
	return sb.String()
}
