package preprocess

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// syntheticReceipt renders a light background with dark horizontal bars,
// which is close enough to printed text for the geometry filters.
func syntheticReceipt(width, height int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			c := color.RGBA{R: 235, G: 235, B: 230, A: 255}
			if y%20 < 4 && x > width/10 && x < width*9/10 {
				c = color.RGBA{R: 20, G: 20, B: 25, A: 255}
			}
			img.Set(x, y, c)
		}
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestPreprocessProducesGrayscaleJPEG(t *testing.T) {
	p := NewPreprocessor(nil)

	jpegBytes, encoded, err := p.Preprocess(encodePNG(t, syntheticReceipt(400, 600)), "image/png")
	require.NoError(t, err)
	require.NotEmpty(t, jpegBytes)

	decoded, err := base64.StdEncoding.DecodeString(encoded)
	require.NoError(t, err)
	assert.Equal(t, jpegBytes, decoded)

	img, err := jpeg.Decode(bytes.NewReader(jpegBytes))
	require.NoError(t, err)
	assert.Equal(t, 400, img.Bounds().Dx())
	assert.Equal(t, 600, img.Bounds().Dy())
}

func TestPreprocessDownscalesLargeImages(t *testing.T) {
	p := NewPreprocessor(nil)

	jpegBytes, _, err := p.Preprocess(encodePNG(t, syntheticReceipt(3000, 1500)), "image/png")
	require.NoError(t, err)

	img, err := jpeg.Decode(bytes.NewReader(jpegBytes))
	require.NoError(t, err)
	assert.LessOrEqual(t, img.Bounds().Dx(), MaxDimension)
	assert.LessOrEqual(t, img.Bounds().Dy(), MaxDimension)
	assert.Greater(t, img.Bounds().Dx(), MaxDimension-2)
	// aspect ratio is preserved
	ratio := float64(img.Bounds().Dx()) / float64(img.Bounds().Dy())
	assert.InDelta(t, 2.0, ratio, 0.01)
}

func TestPreprocessRejectsUnsupportedType(t *testing.T) {
	p := NewPreprocessor(nil)

	_, _, err := p.Preprocess([]byte("GIF89a"), "image/gif")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestPreprocessRejectsCorruptImage(t *testing.T) {
	p := NewPreprocessor(nil)

	_, _, err := p.Preprocess([]byte("not a png"), "image/png")
	assert.Error(t, err)
}

func TestDownscaleKeepsSmallImagesUntouched(t *testing.T) {
	img := syntheticReceipt(100, 150)
	out := downscale(img, MaxDimension)
	assert.Equal(t, img.Bounds(), out.Bounds())
}
