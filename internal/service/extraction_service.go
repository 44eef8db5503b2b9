package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/belegpilot/extraction-service/internal/currency"
	"github.com/belegpilot/extraction-service/internal/domain"
	"github.com/belegpilot/extraction-service/internal/imageutil"
	"github.com/belegpilot/extraction-service/internal/pipeline"
	"github.com/belegpilot/extraction-service/internal/repository"
	"github.com/belegpilot/extraction-service/internal/storage"
)

// ExtractionServiceError represents an error in the extraction service
type ExtractionServiceError struct {
	Op  string
	Err error
}

func (e *ExtractionServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return e.Op
}

func (e *ExtractionServiceError) Unwrap() error {
	return e.Err
}

// ExtractionService defines the business logic around receipt extraction
type ExtractionService interface {
	Extract(ctx context.Context, fileBytes []byte, contentType string, req domain.ExtractionRequest, keyPrefix string) (*domain.ExtractionResult, error)
	GetResultByID(ctx context.Context, id uuid.UUID, convertTo string) (*domain.ExtractionResult, error)
	ListResults(ctx context.Context, page, limit int) ([]domain.ExtractionResult, int, error)
	GetCostSummary(ctx context.Context) (*domain.CostSummary, error)
}

// ExtractionServiceImpl implements the ExtractionService interface
type ExtractionServiceImpl struct {
	pipeline    *pipeline.Pipeline
	extractions repository.ExtractionRepository
	costs       repository.CostRepository
	archiver    *storage.S3Archiver
	converter   *currency.Client
	workerPool  chan struct{}
	logger      *slog.Logger
}

// NewExtractionService creates a new ExtractionService. archiver may be nil
// when image archiving is not configured.
func NewExtractionService(
	p *pipeline.Pipeline,
	extractions repository.ExtractionRepository,
	costs repository.CostRepository,
	archiver *storage.S3Archiver,
	converter *currency.Client,
	maxWorkers int,
	logger *slog.Logger,
) ExtractionService {
	if maxWorkers <= 0 {
		maxWorkers = 5
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ExtractionServiceImpl{
		pipeline:    p,
		extractions: extractions,
		costs:       costs,
		archiver:    archiver,
		converter:   converter,
		workerPool:  make(chan struct{}, maxWorkers),
		logger:      logger,
	}
}

// Extract runs the extraction pipeline under the worker pool so the number
// of concurrent preprocessing and model calls stays bounded.
func (s *ExtractionServiceImpl) Extract(ctx context.Context, fileBytes []byte, contentType string, req domain.ExtractionRequest, keyPrefix string) (*domain.ExtractionResult, error) {
	select {
	case s.workerPool <- struct{}{}:
		defer func() {
			<-s.workerPool
		}()
	case <-ctx.Done():
		return nil, &ExtractionServiceError{
			Op:  "acquire_worker",
			Err: ctx.Err(),
		}
	}

	result, err := s.pipeline.Run(ctx, fileBytes, contentType, req, keyPrefix)
	if err != nil {
		return nil, err
	}

	s.archive(fileBytes, contentType, result)

	return result, nil
}

// archive stores a thumbnail of the original upload for low-confidence
// results so they can be reviewed manually. Failures are logged only.
func (s *ExtractionServiceImpl) archive(fileBytes []byte, contentType string, result *domain.ExtractionResult) {
	if s.archiver == nil || result.Status == domain.StatusSuccess {
		return
	}
	if !strings.HasPrefix(contentType, "image/") {
		return
	}

	thumb, err := imageutil.Thumbnail(fileBytes, imageutil.DefaultMaxDimension, imageutil.DefaultQuality)
	if err != nil {
		s.logger.Warn("failed to build archive thumbnail", "error", err, "extraction_id", result.ID)
		return
	}

	key := fmt.Sprintf("review/%s.jpg", result.ID)
	if _, err := s.archiver.ArchiveImage(thumb, key); err != nil {
		s.logger.Warn("failed to archive image", "error", err, "extraction_id", result.ID)
	}
}

// GetResultByID fetches a stored result. When convertTo names a currency
// and the stored result has a different one, the total is converted and
// reported alongside the original.
func (s *ExtractionServiceImpl) GetResultByID(ctx context.Context, id uuid.UUID, convertTo string) (*domain.ExtractionResult, error) {
	result, err := s.extractions.GetResultByID(ctx, id)
	if err != nil {
		return nil, &ExtractionServiceError{Op: "get_result", Err: err}
	}

	if convertTo != "" && s.converter != nil {
		s.convertTotal(ctx, result, strings.ToUpper(convertTo))
	}

	return result, nil
}

func (s *ExtractionServiceImpl) convertTotal(ctx context.Context, result *domain.ExtractionResult, convertTo string) {
	data := &result.Data
	if data.TotalAmount == nil || data.Currency == nil || *data.Currency == convertTo {
		return
	}

	converted, err := s.converter.Convert(ctx, *data.TotalAmount, *data.Currency, convertTo)
	if err != nil {
		s.logger.Warn("currency conversion failed",
			"error", err, "from", *data.Currency, "to", convertTo)
		return
	}

	data.ConvertedAmount = &converted
	data.ConvertedCurrency = &convertTo
}

// ListResults returns a page of stored results plus the total count
func (s *ExtractionServiceImpl) ListResults(ctx context.Context, page, limit int) ([]domain.ExtractionResult, int, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	results, total, err := s.extractions.ListResults(ctx, page, limit)
	if err != nil {
		return nil, 0, &ExtractionServiceError{Op: "list_results", Err: err}
	}
	return results, total, nil
}

// GetCostSummary reports rolling spend against the configured limits
func (s *ExtractionServiceImpl) GetCostSummary(ctx context.Context) (*domain.CostSummary, error) {
	summary, err := s.costs.GetCostSummary(ctx)
	if err != nil {
		return nil, &ExtractionServiceError{Op: "get_cost_summary", Err: err}
	}
	return summary, nil
}
