package handler

import (
	"errors"
	"io"
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/belegpilot/extraction-service/internal/domain"
	"github.com/belegpilot/extraction-service/internal/middleware"
	"github.com/belegpilot/extraction-service/internal/model"
	"github.com/belegpilot/extraction-service/internal/preprocess"
	"github.com/belegpilot/extraction-service/internal/service"
)

// ExtractionHandler handles HTTP requests for extraction operations
type ExtractionHandler struct {
	extractionService service.ExtractionService
	maxUploadBytes    int64
	logger            *slog.Logger
}

// NewExtractionHandler creates a new extraction handler
func NewExtractionHandler(extractionService service.ExtractionService, maxUploadMB int, logger *slog.Logger) *ExtractionHandler {
	if maxUploadMB <= 0 {
		maxUploadMB = 10
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ExtractionHandler{
		extractionService: extractionService,
		maxUploadBytes:    int64(maxUploadMB) * 1024 * 1024,
		logger:            logger,
	}
}

// Extract handles the POST /v1/extract endpoint
// @Summary Extract structured data from a receipt or invoice
// @Description Upload a receipt image or PDF and extract structured data using a vision model with OCR fallback
// @Tags extraction
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Receipt image (JPEG, PNG) or PDF"
// @Param force_ocr formData bool false "Skip the vision model and use OCR only"
// @Param model_override formData string false "Use a specific model instead of tier selection"
// @Success 200 {object} domain.ExtractionResult "Extraction result"
// @Failure 400 {object} model.ErrorResponse "Unsupported file type"
// @Failure 413 {object} model.ErrorResponse "File too large"
// @Failure 500 {object} model.ErrorResponse "Internal server error"
// @Security ApiKeyAuth
// @Router /v1/extract [post]
func (h *ExtractionHandler) Extract(c *gin.Context) {
	file, header, err := getFormFile(c, "file")
	if err != nil {
		respondBadRequest(c, err.Error(), newErrorDetail("file", "Receipt file is required"))
		return
	}
	defer file.Close()

	if header.Size > h.maxUploadBytes {
		respondPayloadTooLarge(c, ErrFileTooLarge)
		return
	}

	contentType := resolveContentType(header)
	if !allowedContentTypes[contentType] {
		respondBadRequest(c, ErrUnsupportedType,
			newErrorDetail("file", "Supported types are JPEG, PNG and PDF"))
		return
	}

	fileBytes, err := io.ReadAll(io.LimitReader(file, h.maxUploadBytes+1))
	if err != nil {
		h.logger.Error("failed to read upload", "error", err)
		respondInternalServerError(c, ErrFileProcessing)
		return
	}
	if int64(len(fileBytes)) > h.maxUploadBytes {
		respondPayloadTooLarge(c, ErrFileTooLarge)
		return
	}

	req := domain.ExtractionRequest{
		ForceOCR:      getFormBool(c, "force_ocr"),
		ModelOverride: c.PostForm("model_override"),
	}

	result, err := h.extractionService.Extract(
		c.Request.Context(), fileBytes, contentType, req,
		middleware.KeyPrefixFromContext(c),
	)
	if err != nil {
		var preprocessErr *preprocess.PreprocessError
		switch {
		case errors.Is(err, preprocess.ErrUnsupportedFormat):
			respondBadRequest(c, ErrUnsupportedType)
		case errors.As(err, &preprocessErr):
			h.logger.Warn("preprocessing failed", "error", err, "content_type", contentType)
			respondBadRequest(c, ErrFileProcessing)
		default:
			h.logger.Error("extraction failed", "error", err, "file_size", len(fileBytes))
			respondInternalServerError(c, ErrFileProcessing)
		}
		return
	}

	respondOK(c, result)
}

// GetResult handles the GET /v1/results/:id endpoint
// @Summary Get a stored extraction result
// @Description Fetch a previously stored extraction result by its ID, optionally converting the total to another currency
// @Tags extraction
// @Produce json
// @Param id path string true "Extraction ID"
// @Param convert_to query string false "Convert the total amount to this ISO currency code"
// @Success 200 {object} domain.ExtractionResult "Stored extraction result"
// @Failure 400 {object} model.ErrorResponse "Invalid ID"
// @Failure 404 {object} model.ErrorResponse "Result not found"
// @Failure 500 {object} model.ErrorResponse "Internal server error"
// @Security ApiKeyAuth
// @Router /v1/results/{id} [get]
func (h *ExtractionHandler) GetResult(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondBadRequest(c, ErrInvalidID)
		return
	}

	result, err := h.extractionService.GetResultByID(c.Request.Context(), id, c.Query("convert_to"))
	if err != nil {
		if errors.Is(err, domain.ErrResultNotFound) {
			respondNotFound(c, ErrResourceNotFound)
			return
		}
		h.logger.Error("failed to get result", "error", err, "id", id)
		respondInternalServerError(c, ErrInternalServer)
		return
	}

	respondOK(c, result)
}

// ListResults handles the GET /v1/results endpoint
// @Summary List stored extraction results
// @Description Get a paginated list of stored extraction results, newest first
// @Tags extraction
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Success 200 {object} model.ExtractionListResponse "Page of results"
// @Failure 400 {object} model.ErrorResponse "Invalid query parameters"
// @Failure 500 {object} model.ErrorResponse "Internal server error"
// @Security ApiKeyAuth
// @Router /v1/results [get]
func (h *ExtractionHandler) ListResults(c *gin.Context) {
	page, err := getQueryInt(c, "page", 1)
	if err != nil {
		respondBadRequest(c, err.Error())
		return
	}
	limit, err := getQueryInt(c, "limit", 20)
	if err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	results, total, err := h.extractionService.ListResults(c.Request.Context(), page, limit)
	if err != nil {
		h.logger.Error("failed to list results", "error", err)
		respondInternalServerError(c, ErrInternalServer)
		return
	}

	totalPages := 0
	if limit > 0 {
		totalPages = (total + limit - 1) / limit
	}

	respondOK(c, model.ExtractionListResponse{
		Data: results,
		Pagination: model.PaginationResponse{
			TotalItems:  total,
			TotalPages:  totalPages,
			CurrentPage: page,
			Limit:       limit,
		},
	})
}
