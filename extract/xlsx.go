package extract

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/xuri/excelize/v2"
)

// XlsxExtractor reads Excel workbooks sheet by sheet, followed by the
// analysis of pictures anchored in them.
type XlsxExtractor struct {
	images *imageAnalyzer
}

func (e *XlsxExtractor) Extract(ctx context.Context, p string) (string, error) {
	f, err := excelize.OpenFile(p)
	if err != nil {
		return "", fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	var out []string
	var images []embeddedImage
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return "", fmt.Errorf("read sheet %s: %w", sheet, err)
		}
		var lines []string
		for _, row := range rows {
			var cells []string
			for _, v := range row {
				if v = strings.TrimSpace(v); v != "" {
					cells = append(cells, v)
				}
			}
			if len(cells) > 0 {
				lines = append(lines, strings.Join(cells, " | "))
			}
		}
		out = append(out, fmt.Sprintf("# 시트: %s\n[표 또는 셀 텍스트]\n%s", sheet, strings.Join(lines, "\n")))

		if e.images == nil || e.images.vision == nil {
			continue
		}
		pics, err := sheetPictures(f, sheet)
		if err != nil {
			return "", err
		}
		images = append(images, pics...)
	}

	described, err := e.images.analyze(ctx, images)
	if err != nil {
		return "", err
	}
	for i, desc := range described {
		out = append(out, imageBlock(i+1, desc))
	}
	return strings.Join(out, "\n\n"), nil
}

// sheetPictures returns the raster pictures of a sheet ordered by their
// anchor cell, row first.
func sheetPictures(f *excelize.File, sheet string) ([]embeddedImage, error) {
	cells, err := f.GetPictureCells(sheet)
	if err != nil {
		return nil, fmt.Errorf("list pictures in %s: %w", sheet, err)
	}
	type anchor struct {
		cell     string
		col, row int
	}
	anchors := make([]anchor, 0, len(cells))
	for _, cell := range cells {
		col, row, err := excelize.CellNameToCoordinates(cell)
		if err != nil {
			continue
		}
		anchors = append(anchors, anchor{cell, col, row})
	}
	slices.SortFunc(anchors, func(a, b anchor) int {
		return cmp.Or(cmp.Compare(a.row, b.row), cmp.Compare(a.col, b.col))
	})

	var images []embeddedImage
	for _, a := range anchors {
		pics, err := f.GetPictures(sheet, a.cell)
		if err != nil {
			return nil, fmt.Errorf("read pictures at %s!%s: %w", sheet, a.cell, err)
		}
		for i, pic := range pics {
			mime := mimeForImage(pic.Extension)
			if mime == "" {
				continue
			}
			images = append(images, embeddedImage{
				name: fmt.Sprintf("%s!%s#%d", sheet, a.cell, i),
				mime: mime,
				data: pic.File,
			})
		}
	}
	return images, nil
}
