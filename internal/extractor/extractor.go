// Package extractor converts uploaded document bytes into plain text and
// delimited tables ready for chunking.
package extractor

import (
	"bytes"
	"fmt"
	"log"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/xuri/excelize/v2"

	"github.com/crestline-ai/reglens/internal/domain"
)

// Extractor dispatches on the file extension. Unknown extensions are treated
// as UTF-8 text.
type Extractor struct{}

func New() *Extractor {
	return &Extractor{}
}

// Parse returns the document's plain text plus any extracted tables. Format
// specific failures degrade to a plain text decode of the raw bytes rather
// than failing the ingestion.
func (e *Extractor) Parse(data []byte, filename string) (string, []domain.ExtractedTable, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		text, err := extractPDF(data)
		if err != nil {
			log.Printf("pdf extraction failed, falling back to plain text: file=%s err=%v", filename, err)
			return plainText(data), nil, nil
		}
		return text, nil, nil
	case ".xlsx", ".xlsm":
		tables, err := extractWorkbook(data)
		if err != nil {
			log.Printf("workbook extraction failed, falling back to plain text: file=%s err=%v", filename, err)
			return plainText(data), nil, nil
		}
		return "", tables, nil
	case ".csv":
		return "", []domain.ExtractedTable{{
			ID:        "csv/0",
			Title:     strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename)),
			Delimited: plainText(data),
		}}, nil
	default:
		return plainText(data), nil, nil
	}
}

func extractPDF(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to open pdf: %w", err)
	}

	var buf bytes.Buffer
	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("failed to read pdf text: %w", err)
	}
	if _, err := buf.ReadFrom(plain); err != nil {
		return "", fmt.Errorf("failed to buffer pdf text: %w", err)
	}
	return buf.String(), nil
}

func extractWorkbook(data []byte) ([]domain.ExtractedTable, error) {
	book, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer book.Close()

	var tables []domain.ExtractedTable
	for i, sheet := range book.GetSheetList() {
		rows, err := book.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
		}

		lines := make([]string, 0, len(rows))
		for _, row := range rows {
			if rowEmpty(row) {
				continue
			}
			lines = append(lines, strings.Join(row, ","))
		}
		if len(lines) == 0 {
			continue
		}

		tables = append(tables, domain.ExtractedTable{
			ID:        fmt.Sprintf("sheet/%d", i),
			Title:     sheet,
			Delimited: strings.Join(lines, "\n"),
		})
	}
	return tables, nil
}

func rowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// plainText decodes raw bytes as UTF-8, replacing invalid sequences.
func plainText(data []byte) string {
	return strings.ToValidUTF8(string(data), "�")
}
