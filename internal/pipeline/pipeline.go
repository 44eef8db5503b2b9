package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/belegpilot/extraction-service/internal/budget"
	"github.com/belegpilot/extraction-service/internal/categorizer"
	"github.com/belegpilot/extraction-service/internal/domain"
	"github.com/belegpilot/extraction-service/internal/extractor"
	"github.com/belegpilot/extraction-service/internal/validator"
)

// ocrFallbackThreshold is the VLM confidence below which the OCR path runs
// as a second opinion.
const ocrFallbackThreshold = 0.5

// Preprocessor normalizes an uploaded file into a base64 JPEG
type Preprocessor interface {
	Preprocess(fileBytes []byte, contentType string) ([]byte, string, error)
}

// BudgetGate decides whether and with which model a VLM call may proceed
type BudgetGate interface {
	Check(ctx context.Context, modelOverride string) (budget.Decision, error)
}

// VLMExtractor is the primary, vision-model extraction path
type VLMExtractor interface {
	Extract(ctx context.Context, imageBase64, model string) (*domain.ReceiptData, *extractor.VLMMetadata, error)
}

// OCRExtractor is the fallback text-recognition path
type OCRExtractor interface {
	Extract(ctx context.Context, jpegBytes []byte) (*domain.ReceiptData, string, error)
}

// ResultStore persists finished extractions. Persistence is best effort;
// a storage failure never fails the extraction itself.
type ResultStore interface {
	SaveResult(ctx context.Context, result *domain.ExtractionResult, rawResponse *string, keyPrefix string) error
}

// Pipeline runs the full extraction flow for one uploaded document:
// preprocessing, budget-gated VLM extraction, confidence validation, OCR
// fallback, merging and categorization.
type Pipeline struct {
	preprocessor Preprocessor
	gate         BudgetGate
	vlm          VLMExtractor
	ocr          OCRExtractor
	validator    *validator.Validator
	store        ResultStore
	logger       *slog.Logger
}

// NewPipeline wires the extraction pipeline from its stages
func NewPipeline(
	preprocessor Preprocessor,
	gate BudgetGate,
	vlm VLMExtractor,
	ocr OCRExtractor,
	v *validator.Validator,
	store ResultStore,
	logger *slog.Logger,
) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		preprocessor: preprocessor,
		gate:         gate,
		vlm:          vlm,
		ocr:          ocr,
		validator:    v,
		store:        store,
		logger:       logger,
	}
}

// Run executes the pipeline for one file. keyPrefix identifies the caller
// for the persisted record. A budget-gate refusal is not an error: the
// pipeline continues on the OCR-only path and returns a normal result.
func (p *Pipeline) Run(ctx context.Context, fileBytes []byte, contentType string, req domain.ExtractionRequest, keyPrefix string) (*domain.ExtractionResult, error) {
	started := time.Now()
	id := uuid.New()
	logger := p.logger.With("extraction_id", id)

	jpegBytes, imageBase64, err := p.preprocessor.Preprocess(fileBytes, contentType)
	if err != nil {
		return nil, err
	}

	var (
		vlmData     *domain.ReceiptData
		vlmMeta     *extractor.VLMMetadata
		rawResponse *string
		modelUsed   *string
		costUSD     float64
	)

	if !req.ForceOCR {
		decision, err := p.gate.Check(ctx, req.ModelOverride)
		if err != nil {
			return nil, err
		}
		if decision.Refused {
			// no model call is made; the OCR path still produces a result
			logger.Warn("budget exhausted, degrading to ocr only", "scope", decision.Scope)
		} else {
			vlmData, vlmMeta, err = p.vlm.Extract(ctx, imageBase64, decision.Model)
			if err != nil {
				// VLM failure is not fatal, the OCR path still runs
				logger.Error("vlm extraction failed, falling back to ocr", "error", err)
				vlmData = nil
			}
			if vlmMeta != nil {
				modelUsed = &vlmMeta.Model
				costUSD = vlmMeta.CostUSD
				if vlmMeta.RawResponse != "" {
					raw := vlmMeta.RawResponse
					rawResponse = &raw
				}
			}
		}
	}

	method := domain.MethodVLM
	data := vlmData
	parsedCleanly := vlmData != nil

	confidence := 0.0
	var fieldScores domain.FieldScores
	if data != nil {
		confidence, fieldScores = p.validator.ValidateAndScore(data, parsedCleanly)
	}

	needsOCR := req.ForceOCR || data == nil || confidence < ocrFallbackThreshold
	if needsOCR {
		ocrData, _, ocrErr := p.ocr.Extract(ctx, jpegBytes)
		switch {
		case ocrErr != nil:
			logger.Error("ocr extraction failed", "error", ocrErr)
			if data == nil {
				// both paths failed
				result := p.buildResult(id, nil, 0, nil, domain.MethodOCR, modelUsed, costUSD, started)
				p.persist(ctx, result, rawResponse, keyPrefix, logger)
				return result, nil
			}
		case data == nil:
			data = ocrData
			method = domain.MethodOCR
		default:
			data = mergeResults(data, ocrData)
			method = domain.MethodHybrid
		}

		if data != nil {
			confidence, fieldScores = p.validator.ValidateAndScore(data, parsedCleanly)
		}
	}

	if data != nil {
		data.Category = categorizer.Categorize(data)
	}

	result := p.buildResult(id, data, confidence, fieldScores, method, modelUsed, costUSD, started)
	p.persist(ctx, result, rawResponse, keyPrefix, logger)

	logger.Info("extraction finished",
		"status", result.Status,
		"method", result.ExtractionMethod,
		"confidence", result.ConfidenceScore,
		"cost_usd", result.CostUSD,
		"processing_time_ms", result.ProcessingTimeMs,
	)

	return result, nil
}

func (p *Pipeline) buildResult(
	id uuid.UUID,
	data *domain.ReceiptData,
	confidence float64,
	fieldScores domain.FieldScores,
	method string,
	modelUsed *string,
	costUSD float64,
	started time.Time,
) *domain.ExtractionResult {
	result := &domain.ExtractionResult{
		ID:               id,
		Status:           domain.StatusForConfidence(confidence),
		ConfidenceScore:  confidence,
		FieldScores:      fieldScores,
		ExtractionMethod: method,
		ModelUsed:        modelUsed,
		ProcessingTimeMs: time.Since(started).Milliseconds(),
		CostUSD:          costUSD,
		CreatedAt:        time.Now().UTC(),
	}
	if data != nil {
		result.Data = *data
	} else {
		result.Status = domain.StatusFailed
		result.Data = domain.ReceiptData{Category: domain.CategoryOther}
	}
	return result
}

// persist is best effort: a database outage must not lose the response
// the caller is waiting for.
func (p *Pipeline) persist(ctx context.Context, result *domain.ExtractionResult, rawResponse *string, keyPrefix string, logger *slog.Logger) {
	if p.store == nil {
		return
	}
	if err := p.store.SaveResult(ctx, result, rawResponse, keyPrefix); err != nil {
		logger.Error("failed to persist extraction result", "error", err)
	}
}

// mergeResults combines the two extraction paths field by field. The VLM
// result wins wherever it has a value; OCR only fills gaps.
func mergeResults(vlm, ocr *domain.ReceiptData) *domain.ReceiptData {
	if vlm == nil {
		return ocr
	}
	if ocr == nil {
		return vlm
	}

	merged := *vlm
	if merged.Vendor == nil {
		merged.Vendor = ocr.Vendor
	}
	if merged.Date == nil {
		merged.Date = ocr.Date
	}
	if merged.TotalAmount == nil {
		merged.TotalAmount = ocr.TotalAmount
	}
	if merged.Currency == nil {
		merged.Currency = ocr.Currency
	}
	if merged.TaxAmount == nil {
		merged.TaxAmount = ocr.TaxAmount
	}
	if merged.TaxRate == nil {
		merged.TaxRate = ocr.TaxRate
	}
	if len(merged.LineItems) == 0 {
		merged.LineItems = ocr.LineItems
	}
	if merged.PaymentMethod == nil {
		merged.PaymentMethod = ocr.PaymentMethod
	}
	if merged.ReceiptNumber == nil {
		merged.ReceiptNumber = ocr.ReceiptNumber
	}
	return &merged
}
