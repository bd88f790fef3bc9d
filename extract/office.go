package extract

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// describeImages loads and analyzes parts, returning descriptions keyed by
// part name.
func describeImages(ctx context.Context, pkg *ooxmlPackage, analyzer *imageAnalyzer, parts []string) (map[string]string, error) {
	images, err := pkg.loadImages(parts)
	if err != nil {
		return nil, err
	}
	results, err := analyzer.analyze(ctx, images)
	if err != nil {
		return nil, err
	}
	described := make(map[string]string, len(results))
	for i, desc := range results {
		described[images[i].name] = desc
	}
	return described, nil
}

// DocxExtractor reads Word documents: paragraphs, tables and embedded
// pictures in reading order.
type DocxExtractor struct {
	images *imageAnalyzer
}

func (e *DocxExtractor) Extract(ctx context.Context, p string) (string, error) {
	pkg, err := openPackage(p)
	if err != nil {
		return "", err
	}
	defer pkg.Close()

	const body = "word/document.xml"
	data, err := pkg.read(body)
	if err != nil {
		return "", err
	}
	items, err := walkFlow(data)
	if err != nil {
		return "", fmt.Errorf("%s: %w", body, err)
	}
	rels, err := pkg.readRels(body)
	if err != nil {
		return "", err
	}
	described, err := describeImages(ctx, pkg, e.images, collectImageParts(items, rels, map[string]bool{}))
	if err != nil {
		return "", err
	}

	var (
		blocks  []string
		paras   []string
		imageNo int
		emitted = map[string]bool{}
	)
	flush := func() {
		if len(paras) > 0 {
			blocks = append(blocks, "[텍스트]\n"+strings.Join(paras, "\n"))
			paras = nil
		}
	}
	for _, it := range items {
		switch it.kind {
		case flowParagraph:
			paras = append(paras, it.text)
		case flowTable:
			flush()
			blocks = append(blocks, "[표]\n"+it.text)
		case flowImage:
			target := rels[it.text]
			desc, ok := described[target]
			if !ok || emitted[target] {
				continue
			}
			emitted[target] = true
			flush()
			imageNo++
			blocks = append(blocks, imageBlock(imageNo, desc))
		}
	}
	flush()
	return strings.Join(blocks, "\n\n"), nil
}

// PptxExtractor reads PowerPoint decks slide by slide.
type PptxExtractor struct {
	images *imageAnalyzer
}

type slidePart struct {
	number int
	name   string
	items  []flowItem
	rels   relationships
}

func (e *PptxExtractor) Extract(ctx context.Context, p string) (string, error) {
	pkg, err := openPackage(p)
	if err != nil {
		return "", err
	}
	defer pkg.Close()

	var slides []slidePart
	for name := range pkg.parts {
		rest, ok := strings.CutPrefix(name, "ppt/slides/slide")
		if !ok {
			continue
		}
		num, err := strconv.Atoi(strings.TrimSuffix(rest, ".xml"))
		if err != nil || !strings.HasSuffix(rest, ".xml") {
			continue
		}
		slides = append(slides, slidePart{number: num, name: name})
	}
	slices.SortFunc(slides, func(a, b slidePart) int { return a.number - b.number })

	seen := map[string]bool{}
	var imageParts []string
	for i := range slides {
		data, err := pkg.read(slides[i].name)
		if err != nil {
			return "", err
		}
		if slides[i].items, err = walkFlow(data); err != nil {
			return "", fmt.Errorf("%s: %w", slides[i].name, err)
		}
		if slides[i].rels, err = pkg.readRels(slides[i].name); err != nil {
			return "", err
		}
		imageParts = append(imageParts, collectImageParts(slides[i].items, slides[i].rels, seen)...)
	}

	described, err := describeImages(ctx, pkg, e.images, imageParts)
	if err != nil {
		return "", err
	}

	var (
		out     []string
		imageNo int
		emitted = map[string]bool{}
	)
	for i, s := range slides {
		var lines []string
		for _, it := range s.items {
			switch it.kind {
			case flowParagraph:
				lines = append(lines, it.text)
			case flowTable:
				lines = append(lines, "[표]\n"+it.text)
			case flowImage:
				target := s.rels[it.text]
				desc, ok := described[target]
				if !ok || emitted[target] {
					continue
				}
				emitted[target] = true
				imageNo++
				lines = append(lines, imageBlock(imageNo, desc))
			}
		}
		out = append(out, fmt.Sprintf("## 슬라이드 %d\n%s", i+1, strings.Join(lines, "\n")))
	}
	return strings.Join(out, "\n\n"), nil
}
