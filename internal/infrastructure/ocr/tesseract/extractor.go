package tesseract

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"github.com/mguerin/docpilot/internal/core/domain"
)

// retryThreshold is the 0-100 confidence below which alternate page
// segmentation modes are attempted.
const retryThreshold = 50.0

// defaultMode is full automatic page segmentation; retryModes are the
// alternates worth trying on administrative documents: single column,
// single uniform block, sparse text.
var (
	defaultMode = gosseract.PSM_AUTO
	retryModes  = []gosseract.PageSegMode{
		gosseract.PSM_SINGLE_COLUMN,
		gosseract.PSM_SINGLE_BLOCK,
		gosseract.PSM_SPARSE_TEXT,
	}
)

type passResult struct {
	text       string
	confidence float64
}

// passFunc runs one recognition pass with a given segmentation mode.
// Swappable in tests; production uses tesseractPass.
type passFunc func(ctx context.Context, imagePath string, mode gosseract.PageSegMode, language string) (passResult, error)

// Extractor recognizes text on document images through Tesseract. When the
// first pass comes back with low confidence it greedily retries alternate
// segmentation modes and keeps the best-scoring result.
type Extractor struct {
	language string
	pass     passFunc
}

func New(language string) *Extractor {
	if strings.TrimSpace(language) == "" {
		language = "fra+eng"
	}
	return &Extractor{language: language, pass: tesseractPass}
}

func (e *Extractor) Recognize(ctx context.Context, imagePath string) (domain.ExtractionResult, error) {
	best, err := e.pass(ctx, imagePath, defaultMode, e.language)
	if err != nil {
		return domain.ExtractionResult{}, domain.WrapError(domain.ErrUnreadableSource, "recognize", err)
	}

	if best.confidence < retryThreshold {
		for _, mode := range retryModes {
			if ctx.Err() != nil {
				break
			}
			candidate, passErr := e.pass(ctx, imagePath, mode, e.language)
			if passErr != nil {
				slog.Debug("segmentation_retry_failed", "mode", int(mode), "error", passErr)
				continue
			}
			if candidate.confidence > best.confidence {
				best = candidate
			}
		}
	}

	return domain.ExtractionResult{Text: best.text, Confidence: best.confidence}, nil
}

func (e *Extractor) RecognizeWords(ctx context.Context, imagePath string) ([]domain.RecognizedWord, error) {
	type result struct {
		words []domain.RecognizedWord
		err   error
	}
	resultCh := make(chan result, 1)
	go func() {
		words, err := recognizeWords(imagePath, e.language)
		resultCh <- result{words, err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-resultCh:
		if res.err != nil {
			return nil, domain.WrapError(domain.ErrUnreadableSource, "recognize words", res.err)
		}
		return res.words, nil
	}
}

// tesseractPass runs one blocking recognition pass in a goroutine so the
// caller's context still governs cancellation.
func tesseractPass(ctx context.Context, imagePath string, mode gosseract.PageSegMode, language string) (passResult, error) {
	type result struct {
		pass passResult
		err  error
	}
	resultCh := make(chan result, 1)
	go func() {
		pass, err := runPass(imagePath, mode, language)
		resultCh <- result{pass, err}
	}()

	select {
	case <-ctx.Done():
		return passResult{}, ctx.Err()
	case res := <-resultCh:
		return res.pass, res.err
	}
}

func runPass(imagePath string, mode gosseract.PageSegMode, language string) (passResult, error) {
	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(strings.Split(language, "+")...); err != nil {
		return passResult{}, fmt.Errorf("set language: %w", err)
	}
	if err := client.SetPageSegMode(mode); err != nil {
		return passResult{}, fmt.Errorf("set segmentation mode: %w", err)
	}
	if err := client.SetImage(imagePath); err != nil {
		return passResult{}, fmt.Errorf("set image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return passResult{}, fmt.Errorf("extract text: %w", err)
	}
	text = strings.TrimSpace(text)

	return passResult{text: text, confidence: passConfidence(client, text)}, nil
}

// passConfidence prefers the engine's mean word confidence and falls back
// to the text-quality heuristic when no word boxes are available.
func passConfidence(client *gosseract.Client, text string) float64 {
	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil || len(boxes) == 0 {
		return domain.TextQuality(text) * 100
	}
	total := 0.0
	for _, box := range boxes {
		total += box.Confidence
	}
	return total / float64(len(boxes))
}

func recognizeWords(imagePath, language string) ([]domain.RecognizedWord, error) {
	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(strings.Split(language, "+")...); err != nil {
		return nil, fmt.Errorf("set language: %w", err)
	}
	if err := client.SetImage(imagePath); err != nil {
		return nil, fmt.Errorf("set image: %w", err)
	}
	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return nil, fmt.Errorf("get word boxes: %w", err)
	}

	words := make([]domain.RecognizedWord, 0, len(boxes))
	for _, box := range boxes {
		word := strings.TrimSpace(box.Word)
		if word == "" {
			continue
		}
		words = append(words, domain.RecognizedWord{
			Text:       word,
			Confidence: box.Confidence,
			X1:         box.Box.Min.X,
			Y1:         box.Box.Min.Y,
			X2:         box.Box.Max.X,
			Y2:         box.Box.Max.Y,
		})
	}
	return words, nil
}
