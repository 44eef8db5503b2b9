package preprocess

import (
	"image"
	"image/color"
	"math"
	"sort"
)

// deskew estimates the dominant text angle from the foreground pixels and
// rotates the image by the complement. Returns the applied angle in degrees;
// 0 means the image was already straight enough and no rotation happened.
func deskew(img *image.Gray) (*image.Gray, float64) {
	angle := estimateSkew(img)
	if math.Abs(angle) < minSkewDegrees {
		return img, 0
	}
	return rotate(img, angle), angle
}

// estimateSkew fits a minimum-area rectangle around the foreground (dark)
// pixels and derives the rotation needed to straighten it.
func estimateSkew(img *image.Gray) float64 {
	points := foregroundPoints(img)
	if len(points) < 100 {
		return 0
	}

	hull := convexHull(points)
	if len(hull) < 3 {
		return 0
	}

	angle := minAreaRectAngle(hull)

	// normalize to the rotation that straightens the text, mirroring the
	// (-90, 0] angle convention of min-area rectangle fitting
	if angle < -45 {
		return -(90 + angle)
	}
	return -angle
}

// foregroundPoints samples dark pixels, which carry the text orientation on
// a light receipt background. The stride bounds hull input on large scans.
func foregroundPoints(img *image.Gray) []image.Point {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	// threshold at the mean intensity
	var sum uint64
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			sum += uint64(img.GrayAt(x, y).Y)
		}
	}
	threshold := uint8(sum / uint64(w*h))

	stride := 1
	if w*h > 1_000_000 {
		stride = 2
	}

	points := make([]image.Point, 0, 4096)
	for y := 0; y < h; y += stride {
		for x := 0; x < w; x += stride {
			if img.GrayAt(x, y).Y < threshold {
				points = append(points, image.Point{X: x, Y: y})
			}
		}
	}
	return points
}

// convexHull computes the hull via Andrew's monotone chain
func convexHull(points []image.Point) []image.Point {
	if len(points) < 3 {
		return points
	}

	sort.Slice(points, func(i, j int) bool {
		if points[i].X != points[j].X {
			return points[i].X < points[j].X
		}
		return points[i].Y < points[j].Y
	})

	cross := func(o, a, b image.Point) int {
		return (a.X-o.X)*(b.Y-o.Y) - (a.Y-o.Y)*(b.X-o.X)
	}

	hull := make([]image.Point, 0, 2*len(points))
	for _, p := range points {
		for len(hull) >= 2 && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	lower := len(hull) + 1
	for i := len(points) - 2; i >= 0; i-- {
		p := points[i]
		for len(hull) >= lower && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	return hull[:len(hull)-1]
}

// minAreaRectAngle walks the hull edges and returns the orientation of the
// edge whose aligned bounding box has the smallest area, in (-90, 0] degrees.
func minAreaRectAngle(hull []image.Point) float64 {
	bestArea := math.Inf(1)
	bestAngle := 0.0

	for i := 0; i < len(hull); i++ {
		p0 := hull[i]
		p1 := hull[(i+1)%len(hull)]
		ex := float64(p1.X - p0.X)
		ey := float64(p1.Y - p0.Y)
		length := math.Hypot(ex, ey)
		if length == 0 {
			continue
		}
		ex /= length
		ey /= length

		minU, maxU := math.Inf(1), math.Inf(-1)
		minV, maxV := math.Inf(1), math.Inf(-1)
		for _, p := range hull {
			u := ex*float64(p.X) + ey*float64(p.Y)
			v := -ey*float64(p.X) + ex*float64(p.Y)
			minU = math.Min(minU, u)
			maxU = math.Max(maxU, u)
			minV = math.Min(minV, v)
			maxV = math.Max(maxV, v)
		}

		area := (maxU - minU) * (maxV - minV)
		if area < bestArea {
			bestArea = area
			bestAngle = math.Atan2(ey, ex) * 180 / math.Pi
		}
	}

	// fold the edge orientation into (-90, 0]
	for bestAngle > 0 {
		bestAngle -= 90
	}
	for bestAngle <= -90 {
		bestAngle += 90
	}
	return bestAngle
}

// rotate rotates the image by angle degrees around its center using cubic
// interpolation, replicating edge pixels for samples outside the frame.
func rotate(img *image.Gray, angleDegrees float64) *image.Gray {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	dst := image.NewGray(bounds)

	theta := angleDegrees * math.Pi / 180
	sin, cos := math.Sin(theta), math.Cos(theta)
	cx, cy := float64(w)/2, float64(h)/2

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			// inverse mapping into the source image
			dx := float64(x) - cx
			dy := float64(y) - cy
			srcX := cos*dx + sin*dy + cx
			srcY := -sin*dx + cos*dy + cy
			dst.SetGray(x, y, color.Gray{Y: sampleBicubic(img, srcX, srcY, w, h)})
		}
	}

	return dst
}

// sampleBicubic interpolates a subpixel sample with a Catmull-Rom kernel
func sampleBicubic(img *image.Gray, fx, fy float64, w, h int) uint8 {
	x0 := int(math.Floor(fx))
	y0 := int(math.Floor(fy))
	tx := fx - float64(x0)
	ty := fy - float64(y0)

	var col [4]float64
	for m := -1; m <= 2; m++ {
		var row [4]float64
		for n := -1; n <= 2; n++ {
			row[n+1] = float64(grayAtClamped(img, x0+n, y0+m, w, h))
		}
		col[m+1] = cubicHermite(row[0], row[1], row[2], row[3], tx)
	}

	v := cubicHermite(col[0], col[1], col[2], col[3], ty)
	if v < 0 {
		v = 0
	} else if v > 255 {
		v = 255
	}
	return uint8(v + 0.5)
}

// cubicHermite evaluates the Catmull-Rom spline through four samples
func cubicHermite(p0, p1, p2, p3, t float64) float64 {
	a := -0.5*p0 + 1.5*p1 - 1.5*p2 + 0.5*p3
	b := p0 - 2.5*p1 + 2*p2 - 0.5*p3
	c := -0.5*p0 + 0.5*p2
	return ((a*t+b)*t+c)*t + p1
}
