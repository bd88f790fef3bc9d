package render

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"strconv"
	"strings"
	"time"
)

const (
	contentTypesXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
<Default Extension="xml" ContentType="application/xml"/>
<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
</Types>`

	packageRelsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>
</Relationships>`

	documentHead = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`
	documentTail = `<w:sectPr><w:pgSz w:w="11906" w:h="16838"/><w:pgMar w:top="1440" w:right="1440" w:bottom="1440" w:left="1440"/></w:sectPr></w:body></w:document>`
)

// headingSizes are half-point font sizes per heading level.
var headingSizes = map[int]int{1: 36, 2: 30, 3: 26}

// DocxRenderer writes reports as Word documents.
type DocxRenderer struct {
	// FontFamily is applied to every run. Empty uses the viewer default.
	FontFamily string
}

// NewDocxRenderer creates a renderer using a Korean-capable font.
func NewDocxRenderer() *DocxRenderer {
	return &DocxRenderer{FontFamily: "Malgun Gothic"}
}

func (r *DocxRenderer) Extension() string {
	return ".docx"
}

// Render converts markdown-style text to a .docx file.
func (r *DocxRenderer) Render(ctx context.Context, text, outputPath string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", renderErr(outputPath, err)
	}
	data, err := r.build(text)
	if err != nil {
		return "", renderErr(outputPath, err)
	}
	if err := writeFile(outputPath, data); err != nil {
		return "", renderErr(outputPath, err)
	}
	return outputPath, nil
}

func (r *DocxRenderer) build(text string) ([]byte, error) {
	var body strings.Builder
	body.WriteString(documentHead)
	for _, b := range parseMarkdown(text) {
		r.writeBlock(&body, b)
	}
	body.WriteString(documentTail)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	parts := []struct{ name, body string }{
		{"[Content_Types].xml", contentTypesXML},
		{"_rels/.rels", packageRelsXML},
		{"word/document.xml", body.String()},
	}
	for _, p := range parts {
		w, err := zw.CreateHeader(&zip.FileHeader{Name: p.name, Method: zip.Deflate, Modified: time.Now()})
		if err != nil {
			return nil, err
		}
		if _, err := w.Write([]byte(p.body)); err != nil {
			return nil, err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (r *DocxRenderer) writeBlock(sb *strings.Builder, b block) {
	sb.WriteString("<w:p>")
	size := 0
	spans := b.spans
	switch b.kind {
	case blockHeading:
		size = headingSizes[min(b.level, 3)]
		sb.WriteString(`<w:pPr><w:spacing w:before="240" w:after="120"/></w:pPr>`)
	case blockBullet:
		sb.WriteString(`<w:pPr><w:ind w:left="720" w:hanging="360"/></w:pPr>`)
		spans = append([]span{{text: "• "}}, spans...)
	case blockNumbered:
		sb.WriteString(`<w:pPr><w:ind w:left="720" w:hanging="360"/></w:pPr>`)
	}
	for _, s := range spans {
		r.writeRun(sb, s.text, s.bold || b.kind == blockHeading, size)
	}
	sb.WriteString("</w:p>")
}

func (r *DocxRenderer) writeRun(sb *strings.Builder, text string, bold bool, size int) {
	sb.WriteString("<w:r>")
	if bold || size > 0 || r.FontFamily != "" {
		sb.WriteString("<w:rPr>")
		if r.FontFamily != "" {
			font := escape(r.FontFamily)
			sb.WriteString(`<w:rFonts w:ascii="` + font + `" w:hAnsi="` + font + `" w:eastAsia="` + font + `"/>`)
		}
		if bold {
			sb.WriteString("<w:b/>")
		}
		if size > 0 {
			sb.WriteString(`<w:sz w:val="` + strconv.Itoa(size) + `"/>`)
		}
		sb.WriteString("</w:rPr>")
	}
	sb.WriteString(`<w:t xml:space="preserve">`)
	sb.WriteString(escape(text))
	sb.WriteString("</w:t></w:r>")
}

func escape(s string) string {
	var buf bytes.Buffer
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.String()
}
