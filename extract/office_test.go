package extract

import (
	"archive/zip"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/flowmate/ai/mock"
)

const (
	nsDecl = `xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main" ` +
		`xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" ` +
		`xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main" ` +
		`xmlns:pic="http://schemas.openxmlformats.org/drawingml/2006/picture" ` +
		`xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships"`
	pngBytes = "\x89PNG"
)

func rels(target string) string {
	return `<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
		`<Relationship Id="rId2" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/image" Target="` + target + `"/>` +
		`</Relationships>`
}

func writeZip(t *testing.T, name string, parts map[string]string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	f, err := os.Create(p)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	for partName, body := range parts {
		w, err := zw.Create(partName)
		require.NoError(t, err)
		_, err = w.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
	return p
}

func testAnalyzer(v *mock.MockVision) *imageAnalyzer {
	return &imageAnalyzer{vision: v, maxWorkers: 2, logger: slog.Default()}
}

func docxParts() map[string]string {
	return map[string]string{
		"word/document.xml": `<w:document ` + nsDecl + `><w:body>` +
			`<w:p><w:pPr><w:tabs><w:tab w:val="left"/></w:tabs></w:pPr><w:r><w:t>첫 번째 문단</w:t></w:r></w:p>` +
			`<w:p><w:r><w:t xml:space="preserve">두 번째 </w:t></w:r><w:r><w:t>문단</w:t></w:r></w:p>` +
			`<w:tbl>` +
			`<w:tr><w:tc><w:p><w:r><w:t>이름</w:t></w:r></w:p></w:tc><w:tc><w:p><w:r><w:t>값</w:t></w:r></w:p></w:tc></w:tr>` +
			`<w:tr><w:tc><w:p><w:r><w:t>A</w:t></w:r></w:p></w:tc><w:tc><w:p><w:r><w:t>1</w:t></w:r></w:p></w:tc></w:tr>` +
			`</w:tbl>` +
			`<w:p><w:r><w:drawing><pic:pic><pic:blipFill><a:blip r:embed="rId2"/></pic:blipFill></pic:pic></w:drawing></w:r></w:p>` +
			`<w:p><w:r><w:t>마지막</w:t></w:r></w:p>` +
			`</w:body></w:document>`,
		"word/_rels/document.xml.rels": rels("media/image1.png"),
		"word/media/image1.png":        pngBytes,
	}
}

func TestDocxExtractor(t *testing.T) {
	p := writeZip(t, "guide.docx", docxParts())
	vision := mock.NewMockVision()

	text, err := (&DocxExtractor{images: testAnalyzer(vision)}).Extract(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t,
		"[텍스트]\n첫 번째 문단\n두 번째 문단\n\n"+
			"[표]\n이름 | 값\nA | 1\n\n"+
			"[이미지 1 분석 결과]\n이미지 설명 (image/png, 4 바이트)\n\n"+
			"[텍스트]\n마지막",
		text)
	assert.Equal(t, 1, vision.CallCount())
}

func TestDocxExtractor_WithoutVisionSkipsImages(t *testing.T) {
	p := writeZip(t, "guide.docx", docxParts())

	text, err := (&DocxExtractor{}).Extract(context.Background(), p)
	require.NoError(t, err)
	assert.NotContains(t, text, "[이미지")
	assert.Contains(t, text, "마지막")
}

func TestDocxExtractor_ImageFailureKeepsDocument(t *testing.T) {
	p := writeZip(t, "guide.docx", docxParts())
	vision := mock.NewMockVision()
	vision.AnalyzeFunc = func(context.Context, string, []byte) (string, error) {
		return "", errors.New("model offline")
	}

	text, err := (&DocxExtractor{images: testAnalyzer(vision)}).Extract(context.Background(), p)
	require.NoError(t, err)
	assert.Contains(t, text, "[이미지 분석 실패: model offline]")
}

func TestDocxExtractor_NotAZip(t *testing.T) {
	p := writeFile(t, "fake.docx", "plain text")

	_, err := (&DocxExtractor{}).Extract(context.Background(), p)
	assert.Error(t, err)
}

func slideXML(body string) string {
	return `<p:sld ` + nsDecl + `><p:cSld><p:spTree>` + body + `</p:spTree></p:cSld></p:sld>`
}

func shape(lines ...string) string {
	out := `<p:sp><p:txBody>`
	for _, l := range lines {
		out += `<a:p><a:r><a:t>` + l + `</a:t></a:r></a:p>`
	}
	return out + `</p:txBody></p:sp>`
}

func TestPptxExtractor_OrdersSlidesNumerically(t *testing.T) {
	p := writeZip(t, "deck.pptx", map[string]string{
		"ppt/slides/slide1.xml":  slideXML(shape("회사 소개")),
		"ppt/slides/slide2.xml":  slideXML(shape("조직도", "팀 구성") + `<p:pic><p:blipFill><a:blip r:embed="rId2"/></p:blipFill></p:pic>`),
		"ppt/slides/slide10.xml": slideXML(shape("마무리")),
		"ppt/slides/_rels/slide2.xml.rels": rels("../media/image1.png"),
		"ppt/media/image1.png":             pngBytes,
	})

	text, err := (&PptxExtractor{images: testAnalyzer(mock.NewMockVision())}).Extract(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t,
		"## 슬라이드 1\n회사 소개\n\n"+
			"## 슬라이드 2\n조직도\n팀 구성\n[이미지 1 분석 결과]\n이미지 설명 (image/png, 4 바이트)\n\n"+
			"## 슬라이드 3\n마무리",
		text)
}

func TestImageAnalyzer_PreservesOrder(t *testing.T) {
	vision := mock.NewMockVision()
	vision.AnalyzeFunc = func(_ context.Context, _ string, data []byte) (string, error) {
		return string(data), nil
	}
	a := &imageAnalyzer{vision: vision, maxWorkers: 3, logger: slog.Default()}

	var images []embeddedImage
	want := []string{"a", "b", "c", "d", "e", "f", "g"}
	for _, s := range want {
		images = append(images, embeddedImage{name: s, mime: "image/png", data: []byte(s)})
	}

	got, err := a.analyze(context.Background(), images)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
