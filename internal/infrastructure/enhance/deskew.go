package enhance

import (
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
)

// Rotation is only applied inside this window: below it the skew is
// negligible, above it the "skew" is more likely a sideways photo that
// rotation would mangle.
const (
	minSkewDegrees = 0.5
	maxSkewDegrees = 15.0
)

// deskew estimates the dominant text-line angle with a projection profile
// search and counter-rotates when the angle falls in the correctable
// window.
func deskew(img *image.NRGBA) (*image.NRGBA, bool) {
	ink := inkPoints(img)
	if len(ink) < 50 {
		return nil, false
	}

	coarse := bestAngle(ink, -maxSkewDegrees, maxSkewDegrees, 1.0)
	fine := bestAngle(ink, coarse-1.0, coarse+1.0, 0.1)

	if !correctableSkew(fine) {
		return nil, false
	}
	return imaging.Rotate(img, fine, color.White), true
}

// correctableSkew is true strictly between the window bounds; both 0.5°
// and 15° exactly are left alone.
func correctableSkew(angle float64) bool {
	abs := math.Abs(angle)
	return abs > minSkewDegrees && abs < maxSkewDegrees
}

// inkPoints samples dark pixels, the text mass the profile search aligns.
// Sampling keeps the search cheap on large photos.
func inkPoints(img *image.NRGBA) []point {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	step := 1
	if width*height > 2_000_000 {
		step = 3
	}

	var points []point
	for y := 0; y < height; y += step {
		for x := 0; x < width; x += step {
			if luminance(img.NRGBAAt(bounds.Min.X+x, bounds.Min.Y+y)) < 96 {
				points = append(points, point{float64(x), float64(y)})
			}
		}
	}
	return points
}

// bestAngle returns the angle in [from, to] whose horizontal projection of
// the ink is the most concentrated, measured by row-histogram variance.
func bestAngle(ink []point, from, to, step float64) float64 {
	best, bestScore := 0.0, math.Inf(-1)
	for angle := from; angle <= to+1e-9; angle += step {
		if score := projectionVariance(ink, angle); score > bestScore {
			best, bestScore = angle, score
		}
	}
	return best
}

func projectionVariance(ink []point, degrees float64) float64 {
	rad := degrees * math.Pi / 180
	sin, cos := math.Sin(rad), math.Cos(rad)

	rows := make(map[int]int)
	for _, p := range ink {
		projected := int(p.y*cos - p.x*sin)
		rows[projected]++
	}

	var sum, sumSq float64
	for _, count := range rows {
		sum += float64(count)
		sumSq += float64(count) * float64(count)
	}
	n := float64(len(rows))
	if n == 0 {
		return 0
	}
	mean := sum / n
	return sumSq/n - mean*mean
}
