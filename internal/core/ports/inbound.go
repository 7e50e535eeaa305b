package ports

import (
	"context"
	"io"

	"github.com/mguerin/docpilot/internal/core/domain"
)

// DocumentIngestor accepts a new source document: it stores the payload,
// records the metadata and emits the ingestion event.
type DocumentIngestor interface {
	Upload(ctx context.Context, filename, mimeType string, body io.Reader) (*domain.Document, error)
}

// DocumentPipeline is the inbound contract for processing one source file
// into a structured outcome. Degradable failures are absorbed into sentinel
// records; a non-nil error means the source itself could not be handled.
type DocumentPipeline interface {
	ProcessDocument(ctx context.Context, sourcePath string) (*domain.PipelineOutcome, error)
}

// DocumentProcessor is the inbound contract for asynchronous processing of
// a stored document by id. The outcome is returned alongside persistence so
// callers can observe what was produced.
type DocumentProcessor interface {
	ProcessByID(ctx context.Context, documentID string) (*domain.PipelineOutcome, error)
}
