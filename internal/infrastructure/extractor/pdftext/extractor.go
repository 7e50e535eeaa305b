package pdftext

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/ledongthuc/pdf"
	pdfcpuAPI "github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/mguerin/docpilot/internal/core/domain"
)

// Extractor reads the native text layer of PDF documents and, for scanned
// PDFs that carry no usable text, extracts the first page's embedded image
// so the document can re-enter the pipeline as a photo.
type Extractor struct {
	tempDir string
}

func New() *Extractor {
	return &Extractor{tempDir: os.TempDir()}
}

func (e *Extractor) ExtractText(ctx context.Context, path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", domain.WrapError(domain.ErrUnreadableSource, "open pdf", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return "", domain.WrapError(domain.ErrUnreadableSource, "stat pdf", err)
	}

	reader, err := pdf.NewReader(file, info.Size())
	if err != nil {
		return "", domain.WrapError(domain.ErrUnreadableSource, "parse pdf", err)
	}

	var text strings.Builder
	for pageIndex := 1; pageIndex <= reader.NumPage(); pageIndex++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		page := reader.Page(pageIndex)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil || pageText == "" {
			continue
		}
		text.WriteString(pageText)
		text.WriteString("\n")
	}
	return text.String(), nil
}

// RasterizeFirstPage pulls the largest embedded image off page one. Scanned
// PDFs are typically one full-page scan per page, so that image is the page.
func (e *Extractor) RasterizeFirstPage(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return "", domain.WrapError(domain.ErrUnreadableSource, "read pdf", err)
	}

	conf := model.NewDefaultConfiguration()
	conf.Cmd = model.EXTRACTIMAGES
	pdfCtx, err := pdfcpuAPI.ReadValidateAndOptimize(bytes.NewReader(content), conf)
	if err != nil {
		return "", domain.WrapError(domain.ErrUnreadableSource, "validate pdf", err)
	}

	images, err := pdfcpu.ExtractPageImages(pdfCtx, 1, false)
	if err != nil {
		return "", domain.WrapError(domain.ErrUnreadableSource, "extract page images", err)
	}

	var best []byte
	var bestType string
	for _, img := range images {
		if img.Reader == nil {
			continue
		}
		data, readErr := io.ReadAll(img.Reader)
		if readErr != nil || len(data) == 0 {
			continue
		}
		if len(data) > len(best) {
			best = data
			bestType = img.FileType
		}
	}
	if len(best) == 0 {
		return "", domain.WrapError(domain.ErrUnreadableSource, "extract page images", fmt.Errorf("no embedded image on first page"))
	}

	ext := strings.ToLower(strings.TrimPrefix(bestType, "."))
	if ext == "" {
		ext = "png"
	}
	dst := filepath.Join(e.tempDir, "docpilot-page-"+uuid.NewString()+"."+ext)
	if err := os.WriteFile(dst, best, 0o644); err != nil {
		return "", fmt.Errorf("write page image: %w", err)
	}
	return dst, nil
}
