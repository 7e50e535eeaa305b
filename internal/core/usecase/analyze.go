package usecase

import (
	"context"
	"log/slog"

	"github.com/mguerin/docpilot/internal/core/domain"
	"github.com/mguerin/docpilot/internal/core/ports"
)

// analysisInputLimit bounds the text submitted to the reasoning service.
const analysisInputLimit = 4000

// DocumentAnalyzer is voice B: corrected text in, structured record out.
// It never fails past its boundary; malformed output degrades to "Other",
// transport failure to "Error".
type DocumentAnalyzer struct {
	reasoner ports.TextReasoner
}

func NewDocumentAnalyzer(reasoner ports.TextReasoner) *DocumentAnalyzer {
	return &DocumentAnalyzer{reasoner: reasoner}
}

func (a *DocumentAnalyzer) Analyze(ctx context.Context, text string) domain.InterpretedRecord {
	raw, err := a.reasoner.Complete(ctx, analysisSystemPrompt, truncate(text, analysisInputLimit))
	if err != nil {
		slog.Warn("analysis_transport_failure", "error", err)
		return transportFailureRecord(err)
	}

	record, _, err := decodeRecord(raw)
	if err != nil {
		slog.Warn("analysis_malformed_response", "error", err)
		return parseFailureRecord("Analyse impossible (JSON invalide)")
	}
	return record
}
