package model

import "github.com/belegpilot/extraction-service/internal/domain"

// ExtractionListResponse represents a paginated list of extraction results
type ExtractionListResponse struct {
	Data       []domain.ExtractionResult `json:"data"`
	Pagination PaginationResponse        `json:"pagination"`
}

// PaginationResponse represents pagination metadata
type PaginationResponse struct {
	TotalItems  int `json:"totalItems"`
	TotalPages  int `json:"totalPages"`
	CurrentPage int `json:"currentPage"`
	Limit       int `json:"limit"`
}

// ModelInfo describes one configured model and its pricing
type ModelInfo struct {
	Name            string  `json:"name"`
	Role            string  `json:"role"` // "default", "fallback" or "priced"
	InputPerMTokUSD float64 `json:"input_per_mtok_usd"`
	OutputPerMTok   float64 `json:"output_per_mtok_usd"`
}

// ModelsResponse lists the models the service can route to
type ModelsResponse struct {
	Models []ModelInfo `json:"models"`
}

// HealthResponse is the readiness report for the service dependencies
type HealthResponse struct {
	Status     string            `json:"status"`
	Components map[string]string `json:"components"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Status  string        `json:"status"`
	Message string        `json:"message"`
	Details []ErrorDetail `json:"details,omitempty"`
}

// ErrorDetail represents detailed error information
type ErrorDetail struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}
