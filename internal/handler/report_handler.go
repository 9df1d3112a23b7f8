package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"stratadoc/internal/report"
	"stratadoc/internal/service"
)

// ReportHandler serves XLSX processing reports.
type ReportHandler struct {
	docService service.DocumentService
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(docService service.DocumentService) *ReportHandler {
	return &ReportHandler{docService: docService}
}

// reportMaxDocuments bounds a single report export.
const reportMaxDocuments = 1000

// ProcessingReport handles GET /api/v1/reports/processing.
func (h *ReportHandler) ProcessingReport(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	docs, _, err := h.docService.List(c.Request.Context(), userID, 0, reportMaxDocuments)
	if err != nil {
		HandleError(c, err)
		return
	}

	data, err := report.BuildProcessingReport(docs)
	if err != nil {
		HandleError(c, err)
		return
	}

	filename := fmt.Sprintf("processing_report_%s.xlsx", time.Now().Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}
