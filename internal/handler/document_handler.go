package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"stratadoc/internal/service"
)

// DocumentHandler handles document intake and query endpoints.
type DocumentHandler struct {
	docService service.DocumentService
}

// NewDocumentHandler creates a new DocumentHandler.
func NewDocumentHandler(docService service.DocumentService) *DocumentHandler {
	return &DocumentHandler{docService: docService}
}

// Upload handles POST /api/v1/documents.
func (h *DocumentHandler) Upload(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "MISSING_FILE", "multipart field 'file' is required")
		return
	}
	defer func() { _ = file.Close() }()

	doc, err := h.docService.Upload(c.Request.Context(), service.DocumentUploadInput{
		UserID: userID,
		File:   file,
		Header: header,
	})
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondCreated(c, doc)
}

// List handles GET /api/v1/documents.
func (h *DocumentHandler) List(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	offset, limit := pagination(c)

	docs, total, err := h.docService.List(c.Request.Context(), userID, offset, limit)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondPaginated(c, docs, PagMeta{Total: total, Offset: offset, Limit: limit})
}

// Get handles GET /api/v1/documents/:id.
func (h *DocumentHandler) Get(c *gin.Context) {
	userID, docID, ok := h.requestIDs(c)
	if !ok {
		return
	}

	doc, err := h.docService.GetByID(c.Request.Context(), userID, docID)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, doc)
}

// Pages handles GET /api/v1/documents/:id/pages.
func (h *DocumentHandler) Pages(c *gin.Context) {
	userID, docID, ok := h.requestIDs(c)
	if !ok {
		return
	}

	pages, err := h.docService.GetPages(c.Request.Context(), userID, docID)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, pages)
}

// Diagrams handles GET /api/v1/documents/:id/diagrams.
func (h *DocumentHandler) Diagrams(c *gin.Context) {
	userID, docID, ok := h.requestIDs(c)
	if !ok {
		return
	}

	diagrams, err := h.docService.GetDiagrams(c.Request.Context(), userID, docID)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, diagrams)
}

// Contract handles GET /api/v1/documents/:id/contract.
func (h *DocumentHandler) Contract(c *gin.Context) {
	userID, docID, ok := h.requestIDs(c)
	if !ok {
		return
	}

	contract, err := h.docService.GetContract(c.Request.Context(), userID, docID)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, contract)
}

// DownloadURL handles GET /api/v1/documents/:id/download.
func (h *DocumentHandler) DownloadURL(c *gin.Context) {
	userID, docID, ok := h.requestIDs(c)
	if !ok {
		return
	}

	url, err := h.docService.GetDownloadURL(c.Request.Context(), userID, docID)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, gin.H{"url": url})
}

// Reprocess handles POST /api/v1/documents/:id/reprocess.
func (h *DocumentHandler) Reprocess(c *gin.Context) {
	userID, docID, ok := h.requestIDs(c)
	if !ok {
		return
	}

	if err := h.docService.Reprocess(c.Request.Context(), userID, docID); err != nil {
		HandleError(c, err)
		return
	}
	RespondAccepted(c, gin.H{"document_id": docID, "status": "queued"})
}

func (h *DocumentHandler) requestIDs(c *gin.Context) (userID, docID uuid.UUID, ok bool) {
	userID, ok = currentUser(c)
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	docID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "document id must be a valid UUID")
		return uuid.Nil, uuid.Nil, false
	}
	return userID, docID, true
}

func pagination(c *gin.Context) (offset, limit int) {
	offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return offset, limit
}
