package preprocess

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"log/slog"
)

// ErrUnsupportedFormat is returned for uploads that are not JPEG, PNG or PDF
var ErrUnsupportedFormat = errors.New("unsupported file format")

// PreprocessError wraps a failure in a specific preprocessing step
type PreprocessError struct {
	Op  string // step that caused the error
	Err error  // original error
}

func (e *PreprocessError) Error() string {
	if e.Err == nil {
		return "preprocess error: " + e.Op
	}
	return "preprocess error: " + e.Op + ": " + e.Err.Error()
}

func (e *PreprocessError) Unwrap() error {
	return e.Err
}

const (
	// MaxDimension caps the longer image edge before extraction
	MaxDimension = 2048

	jpegQuality = 85

	// rotations below this angle degrade more than they correct
	minSkewDegrees = 0.5
)

// Preprocessor normalizes receipt uploads into a canonical grayscale JPEG
// ready for VLM prompting and OCR. The pipeline is deterministic for
// identical input bytes; a failing step fails the whole call rather than
// returning a partially processed image.
type Preprocessor struct {
	logger *slog.Logger
}

// NewPreprocessor creates a new image preprocessor
func NewPreprocessor(logger *slog.Logger) *Preprocessor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Preprocessor{logger: logger}
}

// Preprocess runs the normalization pipeline and returns the processed JPEG
// bytes together with their base64 transport encoding.
func (p *Preprocessor) Preprocess(fileBytes []byte, contentType string) ([]byte, string, error) {
	img, err := p.decode(fileBytes, contentType)
	if err != nil {
		return nil, "", err
	}

	img = downscale(img, MaxDimension)
	gray := toGrayscale(img)
	gray = denoise(gray)
	gray = enhanceContrast(gray)

	gray, angle := deskew(gray)
	if angle != 0 {
		p.logger.Debug("image deskewed", "angle_degrees", angle)
	}

	jpegBytes, err := encodeJPEG(gray)
	if err != nil {
		return nil, "", &PreprocessError{Op: "encode_jpeg", Err: err}
	}

	p.logger.Info("image preprocessed",
		"content_type", contentType,
		"original_size", len(fileBytes),
		"processed_size", len(jpegBytes),
	)

	return jpegBytes, base64.StdEncoding.EncodeToString(jpegBytes), nil
}

// decode turns the upload into an in-memory image, taking the first page of PDFs
func (p *Preprocessor) decode(fileBytes []byte, contentType string) (image.Image, error) {
	switch contentType {
	case "image/jpeg", "image/png":
		img, _, err := image.Decode(bytes.NewReader(fileBytes))
		if err != nil {
			return nil, &PreprocessError{Op: "decode_image", Err: err}
		}
		return img, nil
	case "application/pdf":
		img, err := pdfFirstPage(fileBytes)
		if err != nil {
			return nil, &PreprocessError{Op: "decode_pdf", Err: err}
		}
		return img, nil
	default:
		return nil, &PreprocessError{
			Op:  "check_content_type",
			Err: fmt.Errorf("%w: %s", ErrUnsupportedFormat, contentType),
		}
	}
}

func encodeJPEG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
