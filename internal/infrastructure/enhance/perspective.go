package enhance

import (
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
)

// minQuadAreaRatio is the share of the frame the detected sheet must cover
// before a warp is attempted; smaller quads are likely not the document.
const minQuadAreaRatio = 0.20

// minWarpSide rejects degenerate targets.
const minWarpSide = 100

type point struct {
	x, y float64
}

// correctPerspective looks for the bright sheet inside the frame and, when
// it covers enough of it, warps its corner quad onto an axis-aligned
// rectangle. Returns ok=false when no plausible sheet is found.
func correctPerspective(img *image.NRGBA) (*image.NRGBA, bool) {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width < minWarpSide || height < minWarpSide {
		return nil, false
	}

	mask, count := sheetMask(img)
	if float64(count) < minQuadAreaRatio*float64(width*height) {
		return nil, false
	}

	corners, ok := cornerQuad(mask, width, height)
	if !ok {
		return nil, false
	}
	if quadArea(corners) < minQuadAreaRatio*float64(width*height) {
		return nil, false
	}

	targetW := int(math.Max(distance(corners[0], corners[1]), distance(corners[3], corners[2])))
	targetH := int(math.Max(distance(corners[0], corners[3]), distance(corners[1], corners[2])))
	if targetW < minWarpSide || targetH < minWarpSide {
		return nil, false
	}

	h, ok := homography(corners, targetW, targetH)
	if !ok {
		return nil, false
	}
	return warp(img, h, targetW, targetH), true
}

// sheetMask marks pixels brighter than the frame's mean luminance; on a
// photographed document that is the paper against the background.
func sheetMask(img *image.NRGBA) ([]bool, int) {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	var sum float64
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			sum += luminance(img.NRGBAAt(bounds.Min.X+x, bounds.Min.Y+y))
		}
	}
	mean := sum / float64(width*height)

	mask := make([]bool, width*height)
	count := 0
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if luminance(img.NRGBAAt(bounds.Min.X+x, bounds.Min.Y+y)) > mean {
				mask[y*width+x] = true
				count++
			}
		}
	}
	return mask, count
}

// cornerQuad orders the mask's extreme points the standard way: the
// top-left corner minimizes x+y, bottom-right maximizes it, top-right
// maximizes x-y and bottom-left minimizes it.
func cornerQuad(mask []bool, width, height int) ([4]point, bool) {
	var corners [4]point
	minSum, maxSum := math.Inf(1), math.Inf(-1)
	minDiff, maxDiff := math.Inf(1), math.Inf(-1)
	found := false

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if !mask[y*width+x] {
				continue
			}
			found = true
			fx, fy := float64(x), float64(y)
			if fx+fy < minSum {
				minSum = fx + fy
				corners[0] = point{fx, fy}
			}
			if fx-fy > maxDiff {
				maxDiff = fx - fy
				corners[1] = point{fx, fy}
			}
			if fx+fy > maxSum {
				maxSum = fx + fy
				corners[2] = point{fx, fy}
			}
			if fx-fy < minDiff {
				minDiff = fx - fy
				corners[3] = point{fx, fy}
			}
		}
	}
	return corners, found
}

func quadArea(c [4]point) float64 {
	area := 0.0
	for i := 0; i < 4; i++ {
		j := (i + 1) % 4
		area += c[i].x*c[j].y - c[j].x*c[i].y
	}
	return math.Abs(area) / 2
}

func distance(a, b point) float64 {
	return math.Hypot(a.x-b.x, a.y-b.y)
}

// homography solves the 8-parameter projective transform mapping the unit
// target rectangle corners onto the source quad, so warp can sample the
// source per destination pixel.
func homography(src [4]point, targetW, targetH int) ([9]float64, bool) {
	dst := [4]point{
		{0, 0},
		{float64(targetW - 1), 0},
		{float64(targetW - 1), float64(targetH - 1)},
		{0, float64(targetH - 1)},
	}

	// Build the linear system A*h = b for h = (h0..h7), h8 = 1, mapping
	// dst -> src.
	var a [8][8]float64
	var b [8]float64
	for i := 0; i < 4; i++ {
		dx, dy := dst[i].x, dst[i].y
		sx, sy := src[i].x, src[i].y
		a[2*i] = [8]float64{dx, dy, 1, 0, 0, 0, -dx * sx, -dy * sx}
		b[2*i] = sx
		a[2*i+1] = [8]float64{0, 0, 0, dx, dy, 1, -dx * sy, -dy * sy}
		b[2*i+1] = sy
	}

	h, ok := solve8(a, b)
	if !ok {
		return [9]float64{}, false
	}
	return [9]float64{h[0], h[1], h[2], h[3], h[4], h[5], h[6], h[7], 1}, true
}

// solve8 runs Gaussian elimination with partial pivoting on an 8x8 system.
func solve8(a [8][8]float64, b [8]float64) ([8]float64, bool) {
	const eps = 1e-10
	for col := 0; col < 8; col++ {
		pivot := col
		for row := col + 1; row < 8; row++ {
			if math.Abs(a[row][col]) > math.Abs(a[pivot][col]) {
				pivot = row
			}
		}
		if math.Abs(a[pivot][col]) < eps {
			return [8]float64{}, false
		}
		a[col], a[pivot] = a[pivot], a[col]
		b[col], b[pivot] = b[pivot], b[col]

		for row := col + 1; row < 8; row++ {
			factor := a[row][col] / a[col][col]
			for k := col; k < 8; k++ {
				a[row][k] -= factor * a[col][k]
			}
			b[row] -= factor * b[col]
		}
	}

	var x [8]float64
	for row := 7; row >= 0; row-- {
		sum := b[row]
		for k := row + 1; k < 8; k++ {
			sum -= a[row][k] * x[k]
		}
		x[row] = sum / a[row][row]
	}
	return x, true
}

func warp(img *image.NRGBA, h [9]float64, targetW, targetH int) *image.NRGBA {
	bounds := img.Bounds()
	out := imaging.New(targetW, targetH, color.White)

	for y := 0; y < targetH; y++ {
		for x := 0; x < targetW; x++ {
			fx, fy := float64(x), float64(y)
			w := h[6]*fx + h[7]*fy + h[8]
			if w == 0 {
				continue
			}
			sx := (h[0]*fx + h[1]*fy + h[2]) / w
			sy := (h[3]*fx + h[4]*fy + h[5]) / w
			px, py := int(math.Round(sx)), int(math.Round(sy))
			if px < 0 || py < 0 || px >= bounds.Dx() || py >= bounds.Dy() {
				continue
			}
			out.SetNRGBA(x, y, img.NRGBAAt(bounds.Min.X+px, bounds.Min.Y+py))
		}
	}
	return out
}

func luminance(c color.NRGBA) float64 {
	return 0.299*float64(c.R) + 0.587*float64(c.G) + 0.114*float64(c.B)
}
