package ports

import (
	"context"
	"io"

	"github.com/mguerin/docpilot/internal/core/domain"
)

// DocumentRepository persists and reads document state.
type DocumentRepository interface {
	Create(ctx context.Context, doc *domain.Document) error
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus, errMessage string) error
	SaveOutcome(ctx context.Context, id string, outcome *domain.PipelineOutcome) error
}

// ObjectStorage stores source documents and generated artifacts.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Path(key string) string
}

// MessageQueue publishes/consumes ingestion events.
type MessageQueue interface {
	PublishDocumentIngested(ctx context.Context, documentID string) error
	SubscribeDocumentIngested(ctx context.Context, handler func(context.Context, string) error) error
}

// SettingsStore reads the external key/value configuration. The pipeline
// takes one snapshot per run and never re-reads mid-run.
type SettingsStore interface {
	LoadPipelineSettings(ctx context.Context) (domain.PipelineSettings, error)
}

// RuleSource lists the user-defined classification override rules.
type RuleSource interface {
	ListEnabledRules(ctx context.Context) ([]domain.ClassificationRule, error)
}

// ImageEnhancer runs the deterministic correction pipeline on a photographed
// document. It returns the path of the enhanced copy, or the input path
// unchanged on any internal failure; it never fails the caller.
type ImageEnhancer interface {
	Enhance(ctx context.Context, imagePath string) string
}

// TextRecognizer is the recognition backend boundary.
type TextRecognizer interface {
	// Recognize extracts text and a 0-100 confidence from an image,
	// retrying alternate segmentation strategies when confidence is low.
	Recognize(ctx context.Context, imagePath string) (domain.ExtractionResult, error)
	// RecognizeWords returns per-word text, confidence and bounding boxes
	// for building a spatially aligned text layer.
	RecognizeWords(ctx context.Context, imagePath string) ([]domain.RecognizedWord, error)
}

// TextReasoner is a chat-style text reasoning service.
type TextReasoner interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// VisionReasoner is a chat-style multimodal reasoning service; the user
// payload embeds an image alongside instruction text.
type VisionReasoner interface {
	CompleteVision(ctx context.Context, imagePath, prompt string) (string, error)
}

// NativeTextExtractor handles documents that may carry extractable text
// without recognition (native PDFs).
type NativeTextExtractor interface {
	ExtractText(ctx context.Context, path string) (string, error)
	// RasterizeFirstPage extracts the first page of a scanned document as
	// an image file and returns its path. The caller owns the file.
	RasterizeFirstPage(ctx context.Context, path string) (string, error)
}

// ArtifactGenerator produces the searchable reproduction of a processed
// document. An empty path with a nil error means generation was skipped or
// failed non-fatally.
type ArtifactGenerator interface {
	Generate(ctx context.Context, transcript string, record domain.InterpretedRecord, sourceImagePath string) (string, error)
}
