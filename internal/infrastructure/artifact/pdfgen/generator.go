package pdfgen

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	_ "image/jpeg"
	_ "image/png"

	"github.com/go-pdf/fpdf"
	"github.com/google/uuid"

	"github.com/mguerin/docpilot/internal/core/domain"
	"github.com/mguerin/docpilot/internal/core/ports"
)

const (
	pageShortMM = 210.0
	pageLongMM  = 297.0
)

// Generator produces the searchable PDF for a processed document. With a
// source image it reproduces the page visually and hides a spatially
// aligned text layer behind it, so viewers select and search text at the
// position it appears on the scan. Without an image it typesets the
// transcript with the record as a header.
type Generator struct {
	recognizer ports.TextRecognizer
	outputDir  string
}

func New(recognizer ports.TextRecognizer, outputDir string) *Generator {
	return &Generator{recognizer: recognizer, outputDir: outputDir}
}

func (g *Generator) Generate(ctx context.Context, transcript string, record domain.InterpretedRecord, sourceImagePath string) (string, error) {
	if err := os.MkdirAll(g.outputDir, 0o755); err != nil {
		return "", fmt.Errorf("create artifact dir: %w", err)
	}

	var doc *fpdf.Fpdf
	var err error
	if sourceImagePath != "" {
		doc, err = g.imageBackedPage(ctx, transcript, sourceImagePath)
	} else {
		doc, err = typesetPage(transcript, record)
	}
	if err != nil {
		return "", err
	}

	dst := filepath.Join(g.outputDir, "searchable-"+uuid.NewString()+".pdf")
	if err := doc.OutputFileAndClose(dst); err != nil {
		return "", fmt.Errorf("write artifact: %w", err)
	}
	return dst, nil
}

func (g *Generator) imageBackedPage(ctx context.Context, transcript, imagePath string) (*fpdf.Fpdf, error) {
	pxW, pxH, err := imageSize(imagePath)
	if err != nil {
		return nil, fmt.Errorf("read source image: %w", err)
	}

	orientation := "P"
	pageW, pageH := pageShortMM, pageLongMM
	if pxW > pxH {
		orientation = "L"
		pageW, pageH = pageLongMM, pageShortMM
	}

	doc := fpdf.New(orientation, "mm", "A4", "")
	doc.SetMargins(0, 0, 0)
	doc.SetAutoPageBreak(false, 0)
	doc.AddPage()
	doc.ImageOptions(imagePath, 0, 0, pageW, pageH, false, fpdf.ImageOptions{ReadDpi: false}, 0, "")

	words := g.wordLayer(ctx, imagePath)
	tr := doc.UnicodeTranslatorFromDescriptor("")

	doc.SetFont("Helvetica", "", 10)
	doc.SetAlpha(0, "Normal")
	if len(words) > 0 {
		scaleX := pageW / float64(pxW)
		scaleY := pageH / float64(pxH)
		for _, word := range words {
			heightMM := float64(word.Y2-word.Y1) * scaleY
			if heightMM <= 0 {
				continue
			}
			doc.SetFontSize(heightMM * 72 / 25.4)
			doc.Text(float64(word.X1)*scaleX, float64(word.Y2)*scaleY, tr(word.Text))
		}
	} else if strings.TrimSpace(transcript) != "" {
		// No word geometry; hide the whole transcript behind the image so
		// the document stays searchable even without alignment.
		doc.SetFontSize(8)
		doc.SetXY(0, 0)
		doc.MultiCell(pageW, 3.5, tr(transcript), "", "L", false)
	}
	doc.SetAlpha(1, "Normal")

	if doc.Err() {
		return nil, fmt.Errorf("compose artifact: %s", doc.Error())
	}
	return doc, nil
}

func (g *Generator) wordLayer(ctx context.Context, imagePath string) []domain.RecognizedWord {
	if g.recognizer == nil {
		return nil
	}
	words, err := g.recognizer.RecognizeWords(ctx, imagePath)
	if err != nil {
		slog.Warn("word_layer_unavailable", "path", imagePath, "error", err)
		return nil
	}
	return words
}

func typesetPage(transcript string, record domain.InterpretedRecord) (*fpdf.Fpdf, error) {
	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetMargins(20, 20, 20)
	doc.SetAutoPageBreak(true, 20)
	doc.AddPage()
	tr := doc.UnicodeTranslatorFromDescriptor("")

	doc.SetFont("Helvetica", "B", 14)
	title := record.Summary
	if strings.TrimSpace(title) == "" {
		title = string(record.Category)
	}
	doc.MultiCell(0, 7, tr(title), "", "L", false)
	doc.Ln(2)

	doc.SetFont("Helvetica", "", 10)
	for _, line := range headerLines(record) {
		doc.MultiCell(0, 5, tr(line), "", "L", false)
	}
	doc.Ln(4)

	doc.SetFont("Helvetica", "", 11)
	for _, paragraph := range strings.Split(transcript, "\n") {
		paragraph = strings.TrimRight(paragraph, " \t")
		if paragraph == "" {
			doc.Ln(3)
			continue
		}
		doc.MultiCell(0, 5.5, tr(paragraph), "", "L", false)
	}

	if doc.Err() {
		return nil, fmt.Errorf("compose artifact: %s", doc.Error())
	}
	return doc, nil
}

func headerLines(record domain.InterpretedRecord) []string {
	var lines []string
	if !record.Category.IsSentinel() {
		lines = append(lines, "Catégorie : "+string(record.Category))
	}
	if record.Date != "" {
		lines = append(lines, "Date : "+record.Date)
	}
	if record.Amount != "" {
		lines = append(lines, "Montant : "+record.Amount)
	}
	if record.Issuer != "" {
		lines = append(lines, "Émetteur : "+record.Issuer)
	}
	return lines
}

func imageSize(path string) (int, int, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, 0, err
	}
	defer file.Close()

	config, _, err := image.DecodeConfig(file)
	if err != nil {
		return 0, 0, err
	}
	if config.Width <= 0 || config.Height <= 0 {
		return 0, 0, fmt.Errorf("degenerate image dimensions %dx%d", config.Width, config.Height)
	}
	return config.Width, config.Height, nil
}
