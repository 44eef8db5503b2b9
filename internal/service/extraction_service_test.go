package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/belegpilot/extraction-service/internal/budget"
	"github.com/belegpilot/extraction-service/internal/domain"
	"github.com/belegpilot/extraction-service/internal/extractor"
	"github.com/belegpilot/extraction-service/internal/pipeline"
	"github.com/belegpilot/extraction-service/internal/validator"
)

// blockingPreprocessor holds every call until release is closed, so tests
// can fill the worker pool deterministically.
type blockingPreprocessor struct {
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func (b *blockingPreprocessor) Preprocess(fileBytes []byte, contentType string) ([]byte, string, error) {
	b.once.Do(func() { close(b.started) })
	<-b.release
	return []byte("jpeg"), "base64", nil
}

type allowGate struct{}

func (allowGate) Check(ctx context.Context, modelOverride string) (budget.Decision, error) {
	return budget.Proceed("m"), nil
}

type nilVLM struct{}

func (nilVLM) Extract(ctx context.Context, imageBase64, model string) (*domain.ReceiptData, *extractor.VLMMetadata, error) {
	return nil, nil, errors.New("not under test")
}

type nilOCR struct{}

func (nilOCR) Extract(ctx context.Context, jpegBytes []byte) (*domain.ReceiptData, string, error) {
	return nil, "", errors.New("not under test")
}

func TestExtractWorkerPoolRespectsContext(t *testing.T) {
	pre := &blockingPreprocessor{
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	p := pipeline.NewPipeline(pre, allowGate{}, nilVLM{}, nilOCR{}, validator.NewValidator(nil), nil, nil)

	svc := NewExtractionService(p, nil, nil, nil, nil, 1, nil)

	// occupy the single worker
	done := make(chan struct{})
	go func() {
		defer close(done)
		svc.Extract(context.Background(), []byte("f"), "image/jpeg", domain.ExtractionRequest{}, "")
	}()

	select {
	case <-pre.started:
	case <-time.After(2 * time.Second):
		t.Fatal("first extraction never started")
	}

	// a second caller whose context expires while waiting must get an error
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := svc.Extract(ctx, []byte("f"), "image/jpeg", domain.ExtractionRequest{}, "")
	require.Error(t, err)

	var svcErr *ExtractionServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, "acquire_worker", svcErr.Op)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(pre.release)
	<-done
}
