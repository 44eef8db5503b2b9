package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/belegpilot/extraction-service/internal/model"
)

// Common error messages
const (
	ErrInvalidInput     = "Invalid input format"
	ErrInvalidID        = "Invalid ID provided"
	ErrResourceNotFound = "Resource not found"
	ErrInternalServer   = "Internal server error"
	ErrFileUpload       = "Failed to upload file"
	ErrFileProcessing   = "Failed to process file"
	ErrUnsupportedType  = "Unsupported file type"
	ErrFileTooLarge     = "File exceeds the maximum upload size"
)

// respondWithError sends a standardized error response
func respondWithError(c *gin.Context, statusCode int, message string, details ...model.ErrorDetail) {
	response := model.ErrorResponse{
		Status:  http.StatusText(statusCode),
		Message: message,
		Details: details,
	}
	c.JSON(statusCode, response)
}

// respondBadRequest sends a 400 Bad Request response
func respondBadRequest(c *gin.Context, message string, details ...model.ErrorDetail) {
	respondWithError(c, http.StatusBadRequest, message, details...)
}

// respondNotFound sends a 404 Not Found response
func respondNotFound(c *gin.Context, message string) {
	respondWithError(c, http.StatusNotFound, message)
}

// respondPayloadTooLarge sends a 413 Request Entity Too Large response
func respondPayloadTooLarge(c *gin.Context, message string) {
	respondWithError(c, http.StatusRequestEntityTooLarge, message)
}

// respondInternalServerError sends a 500 Internal Server Error response
func respondInternalServerError(c *gin.Context, message string) {
	respondWithError(c, http.StatusInternalServerError, message)
}

// respondOK sends a 200 OK response with data
func respondOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

// newErrorDetail creates a field-level error detail
func newErrorDetail(field, message string) model.ErrorDetail {
	return model.ErrorDetail{Field: field, Message: message}
}
