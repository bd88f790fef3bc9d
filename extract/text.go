package extract

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/transform"
)

// TextExtractor reads plain text files.
type TextExtractor struct{}

// Extract returns the file body under a text-file heading.
func (TextExtractor) Extract(ctx context.Context, path string) (string, error) {
	data, err := readDecoded(ctx, path)
	if err != nil {
		return "", err
	}
	return "# 텍스트 파일\n\n[본문 내용]\n\n" + strings.TrimSpace(data), nil
}

// CSVExtractor renders CSV files as a pipe-delimited table.
type CSVExtractor struct{}

// Extract returns the header row, a separator row and every data row.
func (CSVExtractor) Extract(ctx context.Context, path string) (string, error) {
	data, err := readDecoded(ctx, path)
	if err != nil {
		return "", err
	}

	r := csv.NewReader(strings.NewReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	records, err := r.ReadAll()
	if err != nil {
		return "", fmt.Errorf("parse csv: %w", err)
	}

	var sb strings.Builder
	sb.WriteString("# CSV 파일\n[표 형식 데이터]\n")
	if len(records) == 0 {
		return sb.String(), nil
	}
	sb.WriteString(strings.Join(records[0], " | "))
	sb.WriteByte('\n')
	sep := make([]string, len(records[0]))
	for i := range sep {
		sep[i] = "---"
	}
	sb.WriteString(strings.Join(sep, " | "))
	sb.WriteByte('\n')
	for _, row := range records[1:] {
		sb.WriteString(strings.Join(row, " | "))
		sb.WriteByte('\n')
	}
	return strings.TrimRight(sb.String(), "\n"), nil
}

// readDecoded reads a file as UTF-8, falling back to EUC-KR (CP949) for
// legacy Korean text.
func readDecoded(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	data = bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})
	if utf8.Valid(data) {
		return string(data), nil
	}
	decoded, _, err := transform.Bytes(korean.EUCKR.NewDecoder(), data)
	if err != nil {
		return "", fmt.Errorf("decode %s: %w", path, err)
	}
	return string(decoded), nil
}
