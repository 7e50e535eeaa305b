package enhance

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
)

// Enhancer runs the deterministic correction chain on photographed
// documents: perspective correction, deskew, luminance contrast and a mild
// denoise. Every stage is best-effort; when a stage cannot improve the
// image it leaves it untouched, and when the whole chain fails the source
// path is returned unchanged. The returned path, when different from the
// input, is a temporary file owned by the caller.
type Enhancer struct {
	tempDir string
}

func New() *Enhancer {
	return &Enhancer{tempDir: os.TempDir()}
}

func (e *Enhancer) Enhance(ctx context.Context, imagePath string) string {
	if ctx.Err() != nil {
		return imagePath
	}

	img, err := imaging.Open(imagePath, imaging.AutoOrientation(true))
	if err != nil {
		slog.Warn("enhance_open_failed", "path", imagePath, "error", err)
		return imagePath
	}

	out := imaging.Clone(img)
	if warped, ok := correctPerspective(out); ok {
		out = warped
	}
	if rotated, ok := deskew(out); ok {
		out = rotated
	}
	out = equalizeLuminance(out)
	out = denoise(out)

	dst := filepath.Join(e.tempDir, "docpilot-enhanced-"+uuid.NewString()+".png")
	if err := imaging.Save(out, dst); err != nil {
		slog.Warn("enhance_save_failed", "path", dst, "error", err)
		return imagePath
	}
	return dst
}
