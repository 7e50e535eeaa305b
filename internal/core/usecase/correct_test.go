package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/mguerin/docpilot/internal/core/domain"
)

func correctionSettings() domain.PipelineSettings {
	s := domain.DefaultPipelineSettings()
	s.FusionEnabled = false
	return s
}

func TestCorrectPassthroughWhenDisabled(t *testing.T) {
	reasoner := &textReasonerFake{response: "corrigé"}
	corrector := NewOCRCorrector(reasoner, &visionReasonerFake{})
	settings := correctionSettings()
	settings.CorrectionEnabled = false

	out := corrector.Correct(context.Background(), "brut", 10, settings, CorrectionContext{})
	if out != "brut" || reasoner.calls != 0 {
		t.Fatalf("expected passthrough, got %q (%d calls)", out, reasoner.calls)
	}
}

func TestCorrectPassthroughAboveThreshold(t *testing.T) {
	reasoner := &textReasonerFake{response: "corrigé"}
	corrector := NewOCRCorrector(reasoner, &visionReasonerFake{})

	out := corrector.Correct(context.Background(), "brut", 92, correctionSettings(), CorrectionContext{})
	if out != "brut" || reasoner.calls != 0 {
		t.Fatalf("expected passthrough above threshold, got %q (%d calls)", out, reasoner.calls)
	}
}

func TestCorrectBelowThreshold(t *testing.T) {
	reasoner := &textReasonerFake{response: "Facture du 15 mars"}
	corrector := NewOCRCorrector(reasoner, &visionReasonerFake{})

	out := corrector.Correct(context.Background(), "Fac1ure du l5 rnars", 40, correctionSettings(), CorrectionContext{})
	if out != "Facture du 15 mars" {
		t.Fatalf("out = %q", out)
	}
	if !strings.Contains(reasoner.lastSystem, "40%") {
		t.Fatalf("system prompt should carry confidence, got %q", reasoner.lastSystem)
	}
}

func TestCorrectFallsBackOnFailure(t *testing.T) {
	corrector := NewOCRCorrector(&textReasonerFake{err: errors.New("down")}, &visionReasonerFake{})

	out := corrector.Correct(context.Background(), "brut", 40, correctionSettings(), CorrectionContext{})
	if out != "brut" {
		t.Fatalf("expected uncorrected fallback, got %q", out)
	}
}

func TestCorrectFallsBackOnEmptyResponse(t *testing.T) {
	corrector := NewOCRCorrector(&textReasonerFake{response: "  \n"}, &visionReasonerFake{})

	out := corrector.Correct(context.Background(), "brut", 40, correctionSettings(), CorrectionContext{})
	if out != "brut" {
		t.Fatalf("expected uncorrected fallback, got %q", out)
	}
}

func TestCorrectUsesVisionContextEvenAboveThreshold(t *testing.T) {
	vision := &visionReasonerFake{response: "texte consolidé"}
	corrector := NewOCRCorrector(&textReasonerFake{}, vision)
	settings := domain.DefaultPipelineSettings()
	record := domain.InterpretedRecord{Category: domain.CategoryFacture, Issuer: "EDF"}

	out := corrector.Correct(context.Background(), "brut", 95, settings, CorrectionContext{
		ImagePath:    "/tmp/doc.png",
		VisionRecord: &record,
	})
	if out != "texte consolidé" {
		t.Fatalf("out = %q", out)
	}
	if vision.lastImage != "/tmp/doc.png" {
		t.Fatalf("vision image = %q", vision.lastImage)
	}
	if !strings.Contains(vision.lastPrompt, "EDF") {
		t.Fatalf("fusion prompt should embed voice A record, got %q", vision.lastPrompt)
	}
}

func TestCorrectIgnoresSentinelVisionContext(t *testing.T) {
	vision := &visionReasonerFake{response: "consolidé"}
	corrector := NewOCRCorrector(&textReasonerFake{}, vision)
	record := domain.InterpretedRecord{Category: domain.CategoryError}

	out := corrector.Correct(context.Background(), "brut", 95, domain.DefaultPipelineSettings(), CorrectionContext{
		ImagePath:    "/tmp/doc.png",
		VisionRecord: &record,
	})
	if out != "brut" || vision.calls != 0 {
		t.Fatalf("sentinel context must not trigger fusion: %q (%d calls)", out, vision.calls)
	}
}

func TestCorrectVisionFailureFallsBackToText(t *testing.T) {
	text := &textReasonerFake{response: "corrigé par texte"}
	corrector := NewOCRCorrector(text, &visionReasonerFake{err: errors.New("vision down")})
	record := domain.InterpretedRecord{Category: domain.CategoryContrat}

	out := corrector.Correct(context.Background(), "brut", 40, domain.DefaultPipelineSettings(), CorrectionContext{
		ImagePath:    "/tmp/doc.png",
		VisionRecord: &record,
	})
	if out != "corrigé par texte" {
		t.Fatalf("out = %q", out)
	}
}
