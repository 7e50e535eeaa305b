package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mguerin/docpilot/internal/core/domain"
	"github.com/mguerin/docpilot/internal/core/ports"
)

// sniffLen matches the window http.DetectContentType inspects.
const sniffLen = 512

// ingestableContent accepts images and PDFs. Unknown binary payloads pass
// through (the sniffer has no signature for every image flavor, TIFF among
// them); clear text or web content is rejected.
func ingestableContent(contentType string) bool {
	switch {
	case strings.HasPrefix(contentType, "image/"),
		contentType == "application/pdf",
		contentType == "application/octet-stream":
		return true
	}
	return false
}

// DocumentIngestor stores an uploaded document, records its metadata and
// hands it to the asynchronous pipeline through the queue.
type DocumentIngestor struct {
	repo    ports.DocumentRepository
	storage ports.ObjectStorage
	queue   ports.MessageQueue
}

func NewDocumentIngestor(
	repo ports.DocumentRepository,
	storage ports.ObjectStorage,
	queue ports.MessageQueue,
) *DocumentIngestor {
	return &DocumentIngestor{
		repo:    repo,
		storage: storage,
		queue:   queue,
	}
}

func (uc *DocumentIngestor) Upload(
	ctx context.Context,
	filename, mimeType string,
	body io.Reader,
) (*domain.Document, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext != ".pdf" && !imageExtensions[ext] {
		return nil, domain.WrapError(domain.ErrInvalidInput, "ingest document",
			fmt.Errorf("unsupported file type %q", ext))
	}

	// Sniff the payload: the extension alone says nothing about what was
	// actually uploaded.
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(body, head)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if detected := http.DetectContentType(head[:n]); !ingestableContent(detected) {
		return nil, domain.WrapError(domain.ErrInvalidInput, "ingest document",
			fmt.Errorf("content sniffed as %q", detected))
	}

	id := uuid.NewString()
	storageKey := fmt.Sprintf("%s_%s", id, sanitizeFilename(filename))
	now := time.Now().UTC()

	if err := uc.storage.Save(ctx, storageKey, io.MultiReader(bytes.NewReader(head[:n]), body)); err != nil {
		return nil, fmt.Errorf("save to object storage: %w", err)
	}

	doc := &domain.Document{
		ID:          id,
		Filename:    filename,
		MimeType:    mimeType,
		StoragePath: storageKey,
		Status:      domain.StatusUploaded,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := uc.repo.Create(ctx, doc); err != nil {
		return nil, fmt.Errorf("create document metadata: %w", err)
	}

	if err := uc.queue.PublishDocumentIngested(ctx, doc.ID); err != nil {
		return nil, fmt.Errorf("publish ingestion event: %w", err)
	}

	return doc, nil
}

func sanitizeFilename(name string) string {
	base := filepath.Base(name)
	base = strings.ReplaceAll(base, " ", "_")
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	if base == "" {
		return "document.bin"
	}
	return base
}
