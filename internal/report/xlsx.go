package report

import (
	"bytes"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"stratadoc/internal/domain"
)

const sheetName = "Documents"

var headers = []string{
	"Document ID", "Original Name", "File Type", "Status",
	"Pages", "Words", "Diagrams", "Attempts", "Uploaded", "Completed",
}

// BuildProcessingReport renders an XLSX workbook summarizing a user's
// document processing history.
func BuildProcessingReport(docs []domain.Document) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("creating sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("removing default sheet: %w", err)
	}

	for col, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(sheetName, cell, h); err != nil {
			return nil, fmt.Errorf("writing header %q: %w", h, err)
		}
	}

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err == nil {
		last, _ := excelize.CoordinatesToCellName(len(headers), 1)
		_ = f.SetCellStyle(sheetName, "A1", last, headerStyle)
	}

	for i, doc := range docs {
		row := i + 2
		values := []any{
			doc.ID.String(),
			doc.OriginalName,
			string(doc.FileType),
			string(doc.ProcessingStatus),
			doc.TotalPages,
			doc.TotalWords,
			doc.TotalDiagrams,
			doc.ProcessAttempts,
			doc.CreatedAt.Format(time.RFC3339),
			formatTimePtr(doc.CompletedAt),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			if err := f.SetCellValue(sheetName, cell, v); err != nil {
				return nil, fmt.Errorf("writing row %d: %w", row, err)
			}
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("serializing workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func formatTimePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}
