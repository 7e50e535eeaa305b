package usecase

import (
	"testing"

	"github.com/mguerin/docpilot/internal/core/domain"
)

func TestMergeVoicesFieldPrecedence(t *testing.T) {
	voiceA := domain.VisionInterpretation{
		Record: domain.InterpretedRecord{
			Category: domain.CategoryCourrier,
			Summary:  "Courrier administratif",
			Date:     "2024-02-01",
			Issuer:   "Mairie",
		},
		Transcript: "transcription vision",
	}
	voiceB := domain.InterpretedRecord{
		Category: domain.CategoryFacture,
		Summary:  "Facture d'électricité",
		Amount:   "89,50 €",
	}

	merged, transcript := MergeVoices(voiceA, voiceB)
	if merged.Category != domain.CategoryFacture {
		t.Fatalf("category = %s", merged.Category)
	}
	if merged.Summary != "Facture d'électricité" {
		t.Fatalf("summary = %s", merged.Summary)
	}
	if merged.Date != "2024-02-01" {
		t.Fatalf("voice A date must survive empty voice B date, got %s", merged.Date)
	}
	if merged.Amount != "89,50 €" || merged.Issuer != "Mairie" {
		t.Fatalf("unexpected merge: %+v", merged)
	}
	if transcript != "transcription vision" {
		t.Fatalf("transcript = %q", transcript)
	}
}

func TestMergeVoicesSentinelVoiceBKeepsVoiceA(t *testing.T) {
	voiceA := domain.VisionInterpretation{
		Record: domain.InterpretedRecord{
			Category: domain.CategoryContrat,
			Summary:  "Contrat de bail",
		},
		Transcript: "bail",
	}
	voiceB := domain.InterpretedRecord{
		Category: domain.CategoryError,
		Summary:  "connection refused",
	}

	merged, _ := MergeVoices(voiceA, voiceB)
	if merged.Category != domain.CategoryContrat {
		t.Fatalf("category = %s", merged.Category)
	}
	if merged.Summary != "Contrat de bail" {
		t.Fatalf("sentinel summary must not overwrite, got %q", merged.Summary)
	}
}

func TestMergeVoicesBothSentinel(t *testing.T) {
	voiceA := domain.VisionInterpretation{
		Record: domain.InterpretedRecord{Category: domain.CategoryError, Summary: "timeout"},
	}
	voiceB := domain.InterpretedRecord{Category: domain.CategoryOther, Summary: "illisible"}

	merged, transcript := MergeVoices(voiceA, voiceB)
	if merged.Category != domain.CategoryError {
		t.Fatalf("category = %s", merged.Category)
	}
	if transcript != "" {
		t.Fatalf("transcript = %q", transcript)
	}
}
