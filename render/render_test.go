package render

import (
	"archive/zip"
	"context"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/flowmate/core"
	"github.com/poiesic/flowmate/extract"
)

const reportText = `# 2025년 복지 제도 보고서

## 목차
1. 개요
2. 주요 내용

## 개요
본 보고서는 **복지 제도**의 변경 사항을 정리합니다.

---

- 식대 지원 확대
- 건강검진 <종합> & 추가
`

func readPart(t *testing.T, path, part string) string {
	t.Helper()
	zr, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer zr.Close()
	for _, f := range zr.File {
		if f.Name == part {
			rc, err := f.Open()
			require.NoError(t, err)
			defer rc.Close()
			data, err := io.ReadAll(rc)
			require.NoError(t, err)
			return string(data)
		}
	}
	t.Fatalf("part %s not found", part)
	return ""
}

func TestOutputPath(t *testing.T) {
	p := OutputPath("/out", core.TaskReport, ".docx")

	assert.Equal(t, "/out", filepath.Dir(p))
	assert.Regexp(t, regexp.MustCompile(`^report_[0-9a-f-]{36}\.docx$`), filepath.Base(p))
	assert.NotEqual(t, p, OutputPath("/out", core.TaskReport, ".docx"))
}

func TestDocxRenderer_Render(t *testing.T) {
	out := filepath.Join(t.TempDir(), "nested", "report.docx")
	r := NewDocxRenderer()

	got, err := r.Render(context.Background(), reportText, out)
	require.NoError(t, err)
	assert.Equal(t, out, got)
	assert.Equal(t, ".docx", r.Extension())

	doc := readPart(t, out, "word/document.xml")
	assert.Contains(t, doc, "2025년 복지 제도 보고서")
	assert.Contains(t, doc, "건강검진 &lt;종합&gt; &amp; 추가")
	assert.Contains(t, doc, `<w:b/>`)
	assert.NotContains(t, doc, "**")
	assert.NotContains(t, doc, "---")

	ctypes := readPart(t, out, "[Content_Types].xml")
	assert.Contains(t, ctypes, "/word/document.xml")
}

func TestDocxRenderer_ReadableByExtractor(t *testing.T) {
	out := filepath.Join(t.TempDir(), "report.docx")
	_, err := NewDocxRenderer().Render(context.Background(), reportText, out)
	require.NoError(t, err)

	text, err := (&extract.DocxExtractor{}).Extract(context.Background(), out)
	require.NoError(t, err)
	assert.Contains(t, text, "2025년 복지 제도 보고서")
	assert.Contains(t, text, "본 보고서는 복지 제도의 변경 사항을 정리합니다.")
	assert.Contains(t, text, "• 식대 지원 확대")
}

func TestDocxRenderer_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewDocxRenderer().Render(ctx, reportText, filepath.Join(t.TempDir(), "r.docx"))
	assert.ErrorIs(t, err, core.ErrRenderFailure)
}

func TestDocxRenderer_UnwritablePath(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	_, err := NewDocxRenderer().Render(context.Background(), reportText, filepath.Join(blocker, "r.docx"))
	assert.ErrorIs(t, err, core.ErrRenderFailure)
}

func TestParseMarkdown(t *testing.T) {
	blocks := parseMarkdown("## 제목\n\n- 항목\n- **굵게** 끝\n\n2) 둘째\n\n본문 첫 줄\n둘째 줄\n\n***\n\n• 점 항목")

	assert.Equal(t, []block{
		{kind: blockHeading, level: 2, text: "제목", spans: []span{{text: "제목"}}},
		{kind: blockBullet, text: "항목", spans: []span{{text: "항목"}}},
		{kind: blockBullet, text: "굵게 끝", spans: []span{{text: "굵게", bold: true}, {text: " 끝"}}},
		{kind: blockNumbered, text: "2) 둘째", spans: []span{{text: "2) 둘째"}}},
		{kind: blockParagraph, text: "본문 첫 줄", spans: []span{{text: "본문 첫 줄"}}},
		{kind: blockParagraph, text: "둘째 줄", spans: []span{{text: "둘째 줄"}}},
		{kind: blockBullet, text: "점 항목", spans: []span{{text: "점 항목"}}},
	}, blocks)
}

func TestParseMarkdown_InlineMarkup(t *testing.T) {
	blocks := parseMarkdown("앞 **굵게** 뒤와 `코드` 그리고 [링크](http://example.com) <b>끝</b>")

	require.Len(t, blocks, 1)
	assert.Equal(t, []span{
		{text: "앞 "},
		{text: "굵게", bold: true},
		{text: " 뒤와 코드 그리고 링크 끝"},
	}, blocks[0].spans)
}

func TestParseMarkdown_CodeBlockAndOrderedStart(t *testing.T) {
	blocks := parseMarkdown("3. 셋\n4. 넷\n\n```\nx := 1\n```")

	var texts []string
	for _, b := range blocks {
		texts = append(texts, b.text)
	}
	assert.Equal(t, []string{"3. 셋", "4. 넷", "x := 1"}, texts)
	assert.Equal(t, blockNumbered, blocks[1].kind)
}

func TestParseSlides_KoreanSchema(t *testing.T) {
	text := `[슬라이드 1]
제목: 신입사원 온보딩
핵심 포인트:
- 회사 소개
- 일정 안내

[슬라이드 2]
제목: 복리후생
핵심 포인트:
• 식대 지원
* 건강검진

**[슬라이드 3]**
**제목:** 마무리
핵심 포인트: 질의응답`

	assert.Equal(t, []Slide{
		{Number: 1, Title: "신입사원 온보딩", Points: []string{"회사 소개", "일정 안내"}},
		{Number: 2, Title: "복리후생", Points: []string{"식대 지원", "건강검진"}},
		{Number: 3, Title: "마무리", Points: []string{"질의응답"}},
	}, ParseSlides(text))
}

func TestParseSlides_EnglishSchema(t *testing.T) {
	text := "## [Slide 1] Welcome\nKey points:\n- Agenda\n[Slide 2]\nTitle: Next steps\n- Follow up"

	assert.Equal(t, []Slide{
		{Number: 1, Title: "Welcome", Points: []string{"Agenda"}},
		{Number: 2, Title: "Next steps", Points: []string{"Follow up"}},
	}, ParseSlides(text))
}

func TestParseSlides_HeadingFallback(t *testing.T) {
	text := "서론 문장\n# 첫 장\n- 내용 A\n# 둘째 장\n내용 B"

	assert.Equal(t, []Slide{
		{Number: 1, Title: DefaultDeckTitle, Points: []string{"서론 문장"}},
		{Number: 2, Title: "첫 장", Points: []string{"내용 A"}},
		{Number: 3, Title: "둘째 장", Points: []string{"내용 B"}},
	}, ParseSlides(text))
}

func TestParseSlides_Empty(t *testing.T) {
	assert.Empty(t, ParseSlides("  \n\n"))
}

func TestSlideRenderer_Render(t *testing.T) {
	out := filepath.Join(t.TempDir(), "deck.md")
	r := NewSlideRenderer()

	_, err := r.Render(context.Background(), "[슬라이드 1]\n제목: 표지\n\n[슬라이드 2]\n제목: 본문\n핵심 포인트:\n- 하나\n- 둘", out)
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "---\nmarp: true\npaginate: true\ntheme: default\n---\n"+
		"\n# 표지\n"+
		"\n---\n"+
		"\n# 본문\n\n- 하나\n- 둘\n", string(data))
	assert.Equal(t, ".md", r.Extension())
}

func TestSlideRenderer_NoSlides(t *testing.T) {
	_, err := NewSlideRenderer().Render(context.Background(), "   ", filepath.Join(t.TempDir(), "d.md"))
	assert.ErrorIs(t, err, core.ErrRenderFailure)
}
