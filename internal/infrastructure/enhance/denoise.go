package enhance

import (
	"image"

	"github.com/disintegration/imaging"
)

// denoise applies a conservative gaussian pass. The sigma is deliberately
// small: sensor grain hurts recognition more than the slight softening
// does, but anything stronger starts eating thin strokes.
func denoise(img *image.NRGBA) *image.NRGBA {
	return imaging.Blur(img, 0.6)
}
