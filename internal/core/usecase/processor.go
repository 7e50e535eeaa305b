package usecase

import (
	"context"
	"log/slog"

	"github.com/mguerin/docpilot/internal/core/domain"
	"github.com/mguerin/docpilot/internal/core/ports"
)

// DocumentProcessor drives one persisted document through the pipeline:
// status transitions, storage resolution and outcome persistence. It is
// the unit of work the queue worker executes per message.
type DocumentProcessor struct {
	repo     ports.DocumentRepository
	storage  ports.ObjectStorage
	pipeline ports.DocumentPipeline
}

func NewDocumentProcessor(repo ports.DocumentRepository, storage ports.ObjectStorage, pipeline ports.DocumentPipeline) *DocumentProcessor {
	return &DocumentProcessor{repo: repo, storage: storage, pipeline: pipeline}
}

func (p *DocumentProcessor) ProcessByID(ctx context.Context, documentID string) (*domain.PipelineOutcome, error) {
	doc, err := p.repo.GetByID(ctx, documentID)
	if err != nil {
		return nil, domain.WrapError(domain.ErrDocumentNotFound, "load document", err)
	}

	if err := p.repo.UpdateStatus(ctx, documentID, domain.StatusProcessing, ""); err != nil {
		return nil, domain.WrapError(domain.ErrTemporary, "mark processing", err)
	}

	outcome, err := p.pipeline.ProcessDocument(ctx, p.storage.Path(doc.StoragePath))
	if err != nil {
		p.markFailed(ctx, documentID, err)
		return nil, err
	}

	if err := p.repo.SaveOutcome(ctx, documentID, outcome); err != nil {
		p.markFailed(ctx, documentID, err)
		return nil, domain.WrapError(domain.ErrTemporary, "save outcome", err)
	}

	if err := p.repo.UpdateStatus(ctx, documentID, domain.StatusReady, ""); err != nil {
		return nil, domain.WrapError(domain.ErrTemporary, "mark ready", err)
	}

	slog.Info("document_processed",
		"document_id", documentID,
		"category", outcome.Record.Category,
		"ocr_confidence", outcome.OCRConfidence,
	)
	return outcome, nil
}

func (p *DocumentProcessor) markFailed(ctx context.Context, documentID string, cause error) {
	if err := p.repo.UpdateStatus(ctx, documentID, domain.StatusFailed, cause.Error()); err != nil {
		slog.Error("status_update_failed",
			"document_id", documentID,
			"status", domain.StatusFailed,
			"error", err,
			"cause", cause,
		)
	}
}
