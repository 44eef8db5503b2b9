package handler

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/belegpilot/extraction-service/internal/service"
)

// CostHandler handles HTTP requests for spend reporting
type CostHandler struct {
	extractionService service.ExtractionService
	logger            *slog.Logger
}

// NewCostHandler creates a new cost handler
func NewCostHandler(extractionService service.ExtractionService, logger *slog.Logger) *CostHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &CostHandler{
		extractionService: extractionService,
		logger:            logger,
	}
}

// GetCosts handles the GET /v1/costs endpoint
// @Summary Get current spend against the configured budgets
// @Description Report rolling daily and monthly model spend plus request counts
// @Tags costs
// @Produce json
// @Success 200 {object} domain.CostSummary "Current spend summary"
// @Failure 500 {object} model.ErrorResponse "Internal server error"
// @Security ApiKeyAuth
// @Router /v1/costs [get]
func (h *CostHandler) GetCosts(c *gin.Context) {
	summary, err := h.extractionService.GetCostSummary(c.Request.Context())
	if err != nil {
		h.logger.Error("failed to get cost summary", "error", err)
		respondInternalServerError(c, ErrInternalServer)
		return
	}

	respondOK(c, summary)
}
