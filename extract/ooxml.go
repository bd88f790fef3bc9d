package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
)

// maxPartBytes caps a single decompressed package part.
const maxPartBytes = 64 << 20

var errPartTooLarge = errors.New("package part exceeds size limit")

// ooxmlPackage is an opened Office Open XML zip container.
type ooxmlPackage struct {
	zr    *zip.ReadCloser
	parts map[string]*zip.File
}

func openPackage(p string) (*ooxmlPackage, error) {
	zr, err := zip.OpenReader(p)
	if err != nil {
		return nil, fmt.Errorf("open package: %w", err)
	}
	pkg := &ooxmlPackage{zr: zr, parts: make(map[string]*zip.File, len(zr.File))}
	for _, f := range zr.File {
		pkg.parts[f.Name] = f
	}
	return pkg, nil
}

func (p *ooxmlPackage) Close() error {
	return p.zr.Close()
}

func (p *ooxmlPackage) has(name string) bool {
	_, ok := p.parts[name]
	return ok
}

func (p *ooxmlPackage) read(name string) ([]byte, error) {
	f, ok := p.parts[name]
	if !ok {
		return nil, fmt.Errorf("missing part %s", name)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open part %s: %w", name, err)
	}
	defer rc.Close()
	data, err := io.ReadAll(io.LimitReader(rc, maxPartBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read part %s: %w", name, err)
	}
	if len(data) > maxPartBytes {
		return nil, fmt.Errorf("%s: %w", name, errPartTooLarge)
	}
	return data, nil
}

// relationships maps relationship IDs of one part to package part names.
type relationships map[string]string

type relsXML struct {
	Rels []struct {
		ID         string `xml:"Id,attr"`
		Target     string `xml:"Target,attr"`
		TargetMode string `xml:"TargetMode,attr"`
	} `xml:"Relationship"`
}

// readRels loads the relationships of part. A part without a rels file has
// no relationships.
func (p *ooxmlPackage) readRels(part string) (relationships, error) {
	relsName := path.Join(path.Dir(part), "_rels", path.Base(part)+".rels")
	rels := relationships{}
	if !p.has(relsName) {
		return rels, nil
	}
	data, err := p.read(relsName)
	if err != nil {
		return nil, err
	}
	var doc relsXML
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", relsName, err)
	}
	for _, r := range doc.Rels {
		if strings.EqualFold(r.TargetMode, "External") {
			continue
		}
		rels[r.ID] = resolveTarget(part, r.Target)
	}
	return rels, nil
}

func resolveTarget(part, target string) string {
	if strings.HasPrefix(target, "/") {
		return strings.TrimPrefix(target, "/")
	}
	return path.Join(path.Dir(part), target)
}

// loadImages reads the raster images named by parts, skipping formats the
// vision model cannot take.
func (p *ooxmlPackage) loadImages(parts []string) ([]embeddedImage, error) {
	images := make([]embeddedImage, 0, len(parts))
	for _, name := range parts {
		mime := mimeForImage(name)
		if mime == "" || !p.has(name) {
			continue
		}
		data, err := p.read(name)
		if err != nil {
			return nil, err
		}
		images = append(images, embeddedImage{name: name, mime: mime, data: data})
	}
	return images, nil
}

type flowKind int

const (
	flowParagraph flowKind = iota
	flowTable
	flowImage
)

// flowItem is one element of a document body in reading order.
type flowItem struct {
	kind flowKind
	text string
}

// walkFlow tokenizes a WordprocessingML or DrawingML part into paragraphs,
// tables and image references. Element matching is by local name, which
// is shared between w: and a: vocabularies. Image items carry the
// relationship ID of the embedded picture.
func walkFlow(data []byte) ([]flowItem, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))

	var (
		items      []flowItem
		para       strings.Builder
		cell       strings.Builder
		row        []string
		rows       []string
		inText     bool
		runDepth   int
		tableDepth int
	)

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "r":
				runDepth++
			case "t":
				inText = true
			case "tab":
				if runDepth > 0 {
					para.WriteByte('\t')
				}
			case "br", "cr":
				if runDepth > 0 {
					para.WriteByte('\n')
				}
			case "tbl":
				tableDepth++
				if tableDepth == 1 {
					rows = nil
				}
			case "tr":
				if tableDepth == 1 {
					row = nil
				}
			case "tc":
				if tableDepth == 1 {
					cell.Reset()
				}
			case "blip":
				for _, a := range t.Attr {
					if a.Name.Local == "embed" && a.Value != "" && tableDepth == 0 {
						items = append(items, flowItem{kind: flowImage, text: a.Value})
					}
				}
			}
		case xml.CharData:
			if inText {
				para.Write(t)
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "r":
				runDepth--
			case "t":
				inText = false
			case "p":
				text := strings.TrimSpace(para.String())
				para.Reset()
				if text == "" {
					continue
				}
				if tableDepth > 0 {
					if cell.Len() > 0 {
						cell.WriteByte(' ')
					}
					cell.WriteString(text)
				} else {
					items = append(items, flowItem{kind: flowParagraph, text: text})
				}
			case "tc":
				if tableDepth == 1 {
					row = append(row, strings.TrimSpace(cell.String()))
				}
			case "tr":
				if tableDepth == 1 && hasContent(row) {
					rows = append(rows, strings.Join(row, " | "))
				}
			case "tbl":
				tableDepth--
				if tableDepth == 0 && len(rows) > 0 {
					items = append(items, flowItem{kind: flowTable, text: strings.Join(rows, "\n")})
				}
			}
		}
	}
	return items, nil
}

func hasContent(cells []string) bool {
	for _, c := range cells {
		if c != "" {
			return true
		}
	}
	return false
}

// collectImageParts resolves the image items of flows against rels,
// returning unique part names in first-seen order.
func collectImageParts(items []flowItem, rels relationships, seen map[string]bool) []string {
	var parts []string
	for _, it := range items {
		if it.kind != flowImage {
			continue
		}
		target, ok := rels[it.text]
		if !ok || seen[target] || mimeForImage(target) == "" {
			continue
		}
		seen[target] = true
		parts = append(parts, target)
	}
	return parts
}
