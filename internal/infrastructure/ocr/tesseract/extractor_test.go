package tesseract

import (
	"context"
	"errors"
	"testing"

	"github.com/otiai10/gosseract/v2"

	"github.com/mguerin/docpilot/internal/core/domain"
)

func TestRecognizeConfidentFirstPass(t *testing.T) {
	calls := 0
	extractor := New("fra")
	extractor.pass = func(_ context.Context, _ string, mode gosseract.PageSegMode, _ string) (passResult, error) {
		calls++
		if mode != defaultMode {
			t.Fatalf("unexpected mode %d on first pass", mode)
		}
		return passResult{text: "texte lisible", confidence: 85}, nil
	}

	out, err := extractor.Recognize(context.Background(), "doc.png")
	if err != nil {
		t.Fatalf("Recognize() error = %v", err)
	}
	if calls != 1 {
		t.Fatalf("confident pass must not retry, got %d calls", calls)
	}
	if out.Text != "texte lisible" || out.Confidence != 85 {
		t.Fatalf("unexpected result: %+v", out)
	}
}

func TestRecognizeRetriesSegmentationModes(t *testing.T) {
	scores := map[gosseract.PageSegMode]float64{
		defaultMode:                 20,
		gosseract.PSM_SINGLE_COLUMN: 35,
		gosseract.PSM_SINGLE_BLOCK:  72,
		gosseract.PSM_SPARSE_TEXT:   10,
	}
	var tried []gosseract.PageSegMode
	extractor := New("fra")
	extractor.pass = func(_ context.Context, _ string, mode gosseract.PageSegMode, _ string) (passResult, error) {
		tried = append(tried, mode)
		return passResult{text: "t", confidence: scores[mode]}, nil
	}

	out, err := extractor.Recognize(context.Background(), "doc.png")
	if err != nil {
		t.Fatalf("Recognize() error = %v", err)
	}
	if out.Confidence != 72 {
		t.Fatalf("confidence = %v, want best retry", out.Confidence)
	}
	// Every alternate mode is scanned; the best result wins even when a
	// later mode scores worse.
	if len(tried) != 1+len(retryModes) {
		t.Fatalf("tried modes = %v, want all of them", tried)
	}
}

func TestRecognizeKeepsBestWhenAllLow(t *testing.T) {
	confidences := []float64{30, 12, 41, 8}
	i := 0
	extractor := New("fra")
	extractor.pass = func(context.Context, string, gosseract.PageSegMode, string) (passResult, error) {
		c := confidences[i]
		i++
		return passResult{text: "t", confidence: c}, nil
	}

	out, err := extractor.Recognize(context.Background(), "doc.png")
	if err != nil {
		t.Fatalf("Recognize() error = %v", err)
	}
	if out.Confidence != 41 {
		t.Fatalf("confidence = %v, want greedy best", out.Confidence)
	}
	if i != len(confidences) {
		t.Fatalf("expected all modes tried, got %d", i)
	}
}

func TestRecognizeRetrySkipsFailedPasses(t *testing.T) {
	i := 0
	extractor := New("fra")
	extractor.pass = func(context.Context, string, gosseract.PageSegMode, string) (passResult, error) {
		i++
		if i == 2 {
			return passResult{}, errors.New("engine hiccup")
		}
		return passResult{text: "t", confidence: 30}, nil
	}

	if _, err := extractor.Recognize(context.Background(), "doc.png"); err != nil {
		t.Fatalf("retry failure must not fail recognition: %v", err)
	}
}

func TestRecognizeFirstPassFailure(t *testing.T) {
	extractor := New("fra")
	extractor.pass = func(context.Context, string, gosseract.PageSegMode, string) (passResult, error) {
		return passResult{}, errors.New("cannot open image")
	}

	_, err := extractor.Recognize(context.Background(), "doc.png")
	if !domain.IsKind(err, domain.ErrUnreadableSource) {
		t.Fatalf("err = %v, want unreadable source", err)
	}
}
