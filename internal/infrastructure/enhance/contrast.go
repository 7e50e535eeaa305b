package enhance

import (
	"image"

	"github.com/disintegration/imaging"
)

// equalizeLuminance stretches the luminance histogram without touching
// hue, so stamps and colored letterheads keep their color while text
// contrast improves.
func equalizeLuminance(img *image.NRGBA) *image.NRGBA {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	total := width * height
	if total == 0 {
		return img
	}

	var histogram [256]int
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			histogram[int(luminance(img.NRGBAAt(bounds.Min.X+x, bounds.Min.Y+y)))]++
		}
	}

	var lookup [256]float64
	cumulative := 0
	for i := 0; i < 256; i++ {
		cumulative += histogram[i]
		lookup[i] = 255 * float64(cumulative) / float64(total)
	}

	out := imaging.Clone(img)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			c := out.NRGBAAt(x, y)
			oldY := luminance(c)
			if oldY <= 0 {
				continue
			}
			ratio := lookup[int(oldY)] / oldY
			c.R = scaleChannel(c.R, ratio)
			c.G = scaleChannel(c.G, ratio)
			c.B = scaleChannel(c.B, ratio)
			out.SetNRGBA(x, y, c)
		}
	}
	return out
}

func scaleChannel(v uint8, ratio float64) uint8 {
	scaled := float64(v) * ratio
	if scaled > 255 {
		return 255
	}
	if scaled < 0 {
		return 0
	}
	return uint8(scaled)
}
