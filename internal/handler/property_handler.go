package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"stratadoc/internal/propertydata"
)

// PropertyHandler exposes the property data providers.
type PropertyHandler struct {
	properties *propertydata.Service
}

// NewPropertyHandler creates a new PropertyHandler.
func NewPropertyHandler(properties *propertydata.Service) *PropertyHandler {
	return &PropertyHandler{properties: properties}
}

// Suggest handles GET /api/v1/properties/suggest?q=...
func (h *PropertyHandler) Suggest(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		RespondError(c, http.StatusBadRequest, "MISSING_QUERY", "query parameter 'q' is required")
		return
	}

	suggestions, err := h.properties.SuggestProperties(c.Request.Context(), query)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, suggestions)
}

// Valuation handles GET /api/v1/properties/:id/valuation.
func (h *PropertyHandler) Valuation(c *gin.Context) {
	propertyID := c.Param("id")
	if propertyID == "" {
		RespondError(c, http.StatusBadRequest, "MISSING_ID", "property id is required")
		return
	}

	valuation, err := h.properties.GetValuation(c.Request.Context(), propertyID)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, valuation)
}
