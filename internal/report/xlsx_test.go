package report_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"stratadoc/internal/domain"
	"stratadoc/internal/report"
)

func TestBuildProcessingReport(t *testing.T) {
	completed := time.Date(2026, 8, 20, 10, 30, 0, 0, time.UTC)
	docs := []domain.Document{
		{
			ID:               uuid.New(),
			OriginalName:     "contract.pdf",
			FileType:         domain.FileTypePDF,
			ProcessingStatus: domain.StatusBasicComplete,
			TotalPages:       14,
			TotalWords:       5200,
			TotalDiagrams:    2,
			ProcessAttempts:  1,
			CreatedAt:        completed.Add(-time.Hour),
			CompletedAt:      &completed,
		},
		{
			ID:               uuid.New(),
			OriginalName:     "scan.pdf",
			FileType:         domain.FileTypePDF,
			ProcessingStatus: domain.StatusFailed,
			ProcessAttempts:  3,
			CreatedAt:        completed,
		},
	}

	data, err := report.BuildProcessingReport(docs)
	require.NoError(t, err)
	require.NotEmpty(t, data)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows("Documents")
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, "Document ID", rows[0][0])
	assert.Equal(t, "Completed", rows[0][9])

	assert.Equal(t, docs[0].ID.String(), rows[1][0])
	assert.Equal(t, "contract.pdf", rows[1][1])
	assert.Equal(t, "basic_complete", rows[1][3])
	assert.Equal(t, "14", rows[1][4])
	assert.Equal(t, completed.Format(time.RFC3339), rows[1][9])

	assert.Equal(t, "failed", rows[2][3])
	// No completion timestamp for the failed document.
	assert.True(t, len(rows[2]) < 10 || rows[2][9] == "")
}

func TestBuildProcessingReport_Empty(t *testing.T) {
	data, err := report.BuildProcessingReport(nil)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows("Documents")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Len(t, rows[0], 10)
}
