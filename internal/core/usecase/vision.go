package usecase

import (
	"context"
	"log/slog"

	"github.com/mguerin/docpilot/internal/core/domain"
	"github.com/mguerin/docpilot/internal/core/ports"
)

// VisionInterpreter is voice A: the raw image goes straight to the
// multimodal service, which returns the structured record plus the
// transcript it read off the document.
type VisionInterpreter struct {
	reasoner ports.VisionReasoner
}

func NewVisionInterpreter(reasoner ports.VisionReasoner) *VisionInterpreter {
	return &VisionInterpreter{reasoner: reasoner}
}

func (v *VisionInterpreter) Interpret(ctx context.Context, imagePath string) domain.VisionInterpretation {
	raw, err := v.reasoner.CompleteVision(ctx, imagePath, visionPrompt)
	if err != nil {
		slog.Warn("vision_transport_failure", "error", err)
		return domain.VisionInterpretation{Record: transportFailureRecord(err)}
	}

	record, transcript, err := decodeRecord(raw)
	if err != nil {
		slog.Warn("vision_malformed_response", "error", err)
		return domain.VisionInterpretation{Record: parseFailureRecord("Analyse vision impossible (JSON invalide)")}
	}
	return domain.VisionInterpretation{Record: record, Transcript: transcript}
}
