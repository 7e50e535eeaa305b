package usecase

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/mguerin/docpilot/internal/core/domain"
	"github.com/mguerin/docpilot/internal/core/ports"
)

// OCRCorrector is voice B's pre-step: it submits recognition output to a
// reasoning service for correction of recognition-typical errors. It is a
// strict passthrough when correction is disabled, or when the confidence
// meets the threshold and no vision context is available. Any failure
// falls back to the uncorrected input.
type OCRCorrector struct {
	text   ports.TextReasoner
	vision ports.VisionReasoner
}

func NewOCRCorrector(text ports.TextReasoner, vision ports.VisionReasoner) *OCRCorrector {
	return &OCRCorrector{text: text, vision: vision}
}

// CorrectionContext carries the optional disambiguation inputs for a
// fusion-style correction: the source image and voice A's partial record.
type CorrectionContext struct {
	ImagePath    string
	VisionRecord *domain.InterpretedRecord
}

func (c *OCRCorrector) Correct(ctx context.Context, text string, confidence float64, settings domain.PipelineSettings, cctx CorrectionContext) string {
	if !settings.CorrectionEnabled || strings.TrimSpace(text) == "" {
		return text
	}
	hasContext := settings.FusionEnabled && cctx.ImagePath != "" && cctx.VisionRecord != nil && !cctx.VisionRecord.Category.IsSentinel()
	if confidence >= settings.CorrectionThreshold && !hasContext {
		return text
	}

	if hasContext {
		if corrected, ok := c.correctWithVision(ctx, text, confidence, cctx); ok {
			return corrected
		}
		// fall through to text-only correction
	}

	corrected, err := c.text.Complete(ctx, correctionSystemPrompt(confidence), text)
	if err != nil {
		slog.Warn("ocr_correction_failed", "error", err)
		return text
	}
	if strings.TrimSpace(corrected) == "" {
		return text
	}
	return corrected
}

func (c *OCRCorrector) correctWithVision(ctx context.Context, text string, confidence float64, cctx CorrectionContext) (string, bool) {
	visionContext, err := json.Marshal(cctx.VisionRecord)
	if err != nil {
		return "", false
	}
	prompt := fusionPrompt(confidence, string(visionContext), text)
	corrected, err := c.vision.CompleteVision(ctx, cctx.ImagePath, prompt)
	if err != nil {
		slog.Warn("fusion_correction_failed", "error", err)
		return "", false
	}
	if strings.TrimSpace(corrected) == "" {
		return "", false
	}
	return corrected, true
}
