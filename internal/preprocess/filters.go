package preprocess

import (
	"image"
	"image/color"
	"math"
)

// downscale shrinks img so its longer edge is at most maxDim, preserving the
// aspect ratio. Shrinking uses pixel-area averaging, which avoids the
// aliasing that kernel interpolators produce on large reductions. Images
// already within bounds are returned unchanged.
func downscale(img image.Image, maxDim int) image.Image {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	longer := w
	if h > longer {
		longer = h
	}
	if longer <= maxDim {
		return img
	}

	scale := float64(maxDim) / float64(longer)
	newW := int(float64(w) * scale)
	newH := int(float64(h) * scale)
	if newW < 1 {
		newW = 1
	}
	if newH < 1 {
		newH = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	xRatio := float64(w) / float64(newW)
	yRatio := float64(h) / float64(newH)

	for dy := 0; dy < newH; dy++ {
		srcY0 := int(float64(dy) * yRatio)
		srcY1 := int(float64(dy+1) * yRatio)
		if srcY1 <= srcY0 {
			srcY1 = srcY0 + 1
		}
		if srcY1 > h {
			srcY1 = h
		}
		for dx := 0; dx < newW; dx++ {
			srcX0 := int(float64(dx) * xRatio)
			srcX1 := int(float64(dx+1) * xRatio)
			if srcX1 <= srcX0 {
				srcX1 = srcX0 + 1
			}
			if srcX1 > w {
				srcX1 = w
			}

			var sumR, sumG, sumB uint64
			count := uint64((srcY1 - srcY0) * (srcX1 - srcX0))
			for sy := srcY0; sy < srcY1; sy++ {
				for sx := srcX0; sx < srcX1; sx++ {
					r, g, b, _ := img.At(bounds.Min.X+sx, bounds.Min.Y+sy).RGBA()
					sumR += uint64(r >> 8)
					sumG += uint64(g >> 8)
					sumB += uint64(b >> 8)
				}
			}
			dst.SetRGBA(dx, dy, color.RGBA{
				R: uint8(sumR / count),
				G: uint8(sumG / count),
				B: uint8(sumB / count),
				A: 255,
			})
		}
	}

	return dst
}

// toGrayscale converts the image to 8-bit grayscale
func toGrayscale(img image.Image) *image.Gray {
	if gray, ok := img.(*image.Gray); ok {
		return gray
	}

	bounds := img.Bounds()
	gray := image.NewGray(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			gray.Set(x-bounds.Min.X, y-bounds.Min.Y, color.GrayModel.Convert(img.At(x, y)))
		}
	}
	return gray
}

// Non-local-means parameters. The 7x7 search window keeps the filter
// tractable on 2048px scans while still averaging across repeated texture.
const (
	nlmStrength    = 10.0
	nlmPatchRadius = 1
	nlmSearchRad   = 3
)

// denoise applies a non-local-means filter with the configured strength
func denoise(img *image.Gray) *image.Gray {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	dst := image.NewGray(bounds)

	// precomputed weight lookup keyed by squared patch distance
	hh := nlmStrength * nlmStrength
	patchSize := (2*nlmPatchRadius + 1) * (2*nlmPatchRadius + 1)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var weightSum, valueSum float64

			for sy := y - nlmSearchRad; sy <= y+nlmSearchRad; sy++ {
				for sx := x - nlmSearchRad; sx <= x+nlmSearchRad; sx++ {
					dist := patchDistanceSq(img, x, y, sx, sy, w, h)
					weight := math.Exp(-dist / (hh * float64(patchSize)))
					weightSum += weight
					valueSum += weight * float64(grayAtClamped(img, sx, sy, w, h))
				}
			}

			dst.SetGray(x, y, color.Gray{Y: uint8(valueSum/weightSum + 0.5)})
		}
	}

	return dst
}

// patchDistanceSq is the summed squared difference between the patches
// centered at (x,y) and (sx,sy)
func patchDistanceSq(img *image.Gray, x, y, sx, sy, w, h int) float64 {
	var dist float64
	for py := -nlmPatchRadius; py <= nlmPatchRadius; py++ {
		for px := -nlmPatchRadius; px <= nlmPatchRadius; px++ {
			a := float64(grayAtClamped(img, x+px, y+py, w, h))
			b := float64(grayAtClamped(img, sx+px, sy+py, w, h))
			d := a - b
			dist += d * d
		}
	}
	return dist
}

// grayAtClamped reads a pixel with edge-replicate border handling
func grayAtClamped(img *image.Gray, x, y, w, h int) uint8 {
	if x < 0 {
		x = 0
	} else if x >= w {
		x = w - 1
	}
	if y < 0 {
		y = 0
	} else if y >= h {
		y = h - 1
	}
	return img.GrayAt(x, y).Y
}

// CLAHE parameters matching the extraction-tuned defaults
const (
	claheTileGrid  = 8
	claheClipLimit = 2.0
)

// enhanceContrast applies contrast-limited adaptive histogram equalization
// over an 8x8 tile grid, interpolating bilinearly between tile mappings to
// avoid visible tile seams.
func enhanceContrast(img *image.Gray) *image.Gray {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w < claheTileGrid || h < claheTileGrid {
		return img
	}

	tileW := (w + claheTileGrid - 1) / claheTileGrid
	tileH := (h + claheTileGrid - 1) / claheTileGrid

	// per-tile clipped equalization mappings
	mappings := make([][][256]uint8, claheTileGrid)
	for ty := 0; ty < claheTileGrid; ty++ {
		mappings[ty] = make([][256]uint8, claheTileGrid)
		for tx := 0; tx < claheTileGrid; tx++ {
			mappings[ty][tx] = tileMapping(img, tx*tileW, ty*tileH, tileW, tileH, w, h)
		}
	}

	dst := image.NewGray(bounds)
	for y := 0; y < h; y++ {
		// tile-space coordinate of the pixel relative to tile centers
		fy := (float64(y) - float64(tileH)/2) / float64(tileH)
		ty0 := int(math.Floor(fy))
		wy := fy - float64(ty0)
		ty1 := ty0 + 1
		ty0 = clampInt(ty0, 0, claheTileGrid-1)
		ty1 = clampInt(ty1, 0, claheTileGrid-1)

		for x := 0; x < w; x++ {
			fx := (float64(x) - float64(tileW)/2) / float64(tileW)
			tx0 := int(math.Floor(fx))
			wx := fx - float64(tx0)
			tx1 := tx0 + 1
			tx0 = clampInt(tx0, 0, claheTileGrid-1)
			tx1 = clampInt(tx1, 0, claheTileGrid-1)

			v := img.GrayAt(x, y).Y
			top := (1-wx)*float64(mappings[ty0][tx0][v]) + wx*float64(mappings[ty0][tx1][v])
			bottom := (1-wx)*float64(mappings[ty1][tx0][v]) + wx*float64(mappings[ty1][tx1][v])
			dst.SetGray(x, y, color.Gray{Y: uint8((1-wy)*top + wy*bottom + 0.5)})
		}
	}

	return dst
}

// tileMapping builds the clipped-histogram equalization LUT for one tile
func tileMapping(img *image.Gray, x0, y0, tileW, tileH, w, h int) [256]uint8 {
	var hist [256]int
	count := 0
	for y := y0; y < y0+tileH && y < h; y++ {
		for x := x0; x < x0+tileW && x < w; x++ {
			hist[img.GrayAt(x, y).Y]++
			count++
		}
	}

	var lut [256]uint8
	if count == 0 {
		for i := range lut {
			lut[i] = uint8(i)
		}
		return lut
	}

	// clip the histogram and redistribute the excess uniformly
	clip := int(claheClipLimit * float64(count) / 256)
	if clip < 1 {
		clip = 1
	}
	excess := 0
	for i := 0; i < 256; i++ {
		if hist[i] > clip {
			excess += hist[i] - clip
			hist[i] = clip
		}
	}
	share := excess / 256
	remainder := excess % 256
	for i := 0; i < 256; i++ {
		hist[i] += share
		if i < remainder {
			hist[i]++
		}
	}

	cdf := 0
	for i := 0; i < 256; i++ {
		cdf += hist[i]
		lut[i] = uint8(float64(cdf)*255/float64(count) + 0.5)
	}
	return lut
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
