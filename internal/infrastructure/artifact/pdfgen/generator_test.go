package pdfgen

import (
	"context"
	"errors"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/ledongthuc/pdf"

	"github.com/mguerin/docpilot/internal/core/domain"
)

type wordsFake struct {
	words []domain.RecognizedWord
	err   error
	calls int
}

func (f *wordsFake) Recognize(context.Context, string) (domain.ExtractionResult, error) {
	return domain.ExtractionResult{}, nil
}

func (f *wordsFake) RecognizeWords(context.Context, string) ([]domain.RecognizedWord, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.words, nil
}

func extractText(t *testing.T, path string) string {
	t.Helper()
	file, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer file.Close()
	info, err := file.Stat()
	if err != nil {
		t.Fatal(err)
	}
	reader, err := pdf.NewReader(file, info.Size())
	if err != nil {
		t.Fatalf("artifact not parsable: %v", err)
	}
	var out strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err == nil {
			out.WriteString(text)
		}
	}
	return out.String()
}

func testImage(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scan.png")
	if err := imaging.Save(imaging.New(800, 1000, color.White), path); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestGenerateImageBackedArtifact(t *testing.T) {
	recognizer := &wordsFake{words: []domain.RecognizedWord{
		{Text: "Facture", Confidence: 90, X1: 100, Y1: 50, X2: 220, Y2: 80},
		{Text: "89,50", Confidence: 85, X1: 500, Y1: 700, X2: 580, Y2: 730},
	}}
	generator := New(recognizer, t.TempDir())

	path, err := generator.Generate(context.Background(), "Facture 89,50", domain.InterpretedRecord{}, testImage(t))
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if recognizer.calls != 1 {
		t.Fatalf("expected one word layer pass, got %d", recognizer.calls)
	}

	text := extractText(t, path)
	if !strings.Contains(text, "Facture") || !strings.Contains(text, "89,50") {
		t.Fatalf("hidden text layer missing, extracted %q", text)
	}
}

func TestGenerateImageBackedFallsBackToTranscriptBlock(t *testing.T) {
	recognizer := &wordsFake{err: errors.New("no boxes")}
	generator := New(recognizer, t.TempDir())

	path, err := generator.Generate(context.Background(), "Contenu du document", domain.InterpretedRecord{}, testImage(t))
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if !strings.Contains(extractText(t, path), "Contenu du document") {
		t.Fatal("transcript block missing from artifact")
	}
}

func TestGenerateTypesetArtifact(t *testing.T) {
	generator := New(nil, t.TempDir())
	record := domain.InterpretedRecord{
		Category: domain.CategoryFacture,
		Summary:  "Facture d'eau",
		Date:     "2024-06-01",
		Amount:   "45,00 EUR",
		Issuer:   "Veolia",
	}

	path, err := generator.Generate(context.Background(), "Ligne un\n\nLigne deux", record, "")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	text := extractText(t, path)
	for _, want := range []string{"Facture d'eau", "2024-06-01", "45,00 EUR", "Veolia", "Ligne un", "Ligne deux"} {
		if !strings.Contains(text, want) {
			t.Fatalf("typeset artifact missing %q, extracted %q", want, text)
		}
	}
}

func TestGenerateUnreadableImage(t *testing.T) {
	generator := New(&wordsFake{}, t.TempDir())

	_, err := generator.Generate(context.Background(), "texte", domain.InterpretedRecord{}, filepath.Join(t.TempDir(), "absent.png"))
	if err == nil {
		t.Fatal("expected error for unreadable source image")
	}
}
