package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/mguerin/docpilot/internal/core/domain"
)

type DocumentRepository struct {
	db *sql.DB
}

func NewDocumentRepository(db *sql.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *DocumentRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026083001)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS documents (
	id TEXT PRIMARY KEY,
	filename TEXT NOT NULL,
	mime_type TEXT NOT NULL,
	storage_path TEXT NOT NULL,
	content TEXT,
	category TEXT,
	summary TEXT,
	doc_date TEXT,
	amount TEXT,
	issuer TEXT,
	pipeline_sources JSONB NOT NULL DEFAULT '[]'::jsonb,
	ocr_confidence DOUBLE PRECISION NOT NULL DEFAULT 0,
	artifact_key TEXT,
	status TEXT NOT NULL,
	error_message TEXT,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_documents_status ON documents(status);
CREATE INDEX IF NOT EXISTS idx_documents_category ON documents(category);
CREATE INDEX IF NOT EXISTS idx_documents_created_at ON documents(created_at DESC);

CREATE TABLE IF NOT EXISTS app_settings (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS classification_rules (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	target_category TEXT NOT NULL,
	priority INTEGER NOT NULL DEFAULT 0,
	enabled BOOLEAN NOT NULL DEFAULT TRUE,
	conditions JSONB NOT NULL DEFAULT '[]'::jsonb,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_rules_enabled_priority ON classification_rules(enabled, priority DESC);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (r *DocumentRepository) Create(ctx context.Context, doc *domain.Document) error {
	sourcesJSON, err := json.Marshal(sourcesOrEmpty(doc.Sources))
	if err != nil {
		return fmt.Errorf("marshal pipeline sources: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO documents (
	id, filename, mime_type, storage_path, content, category, summary, doc_date, amount, issuer,
	pipeline_sources, ocr_confidence, artifact_key, status, error_message, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
`,
		doc.ID, doc.Filename, doc.MimeType, doc.StoragePath, doc.Content, string(doc.Category),
		doc.Summary, doc.DocDate, doc.Amount, doc.Issuer, sourcesJSON, 0.0, doc.ArtifactKey,
		string(doc.Status), doc.Error, doc.CreatedAt, doc.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

func (r *DocumentRepository) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, filename, mime_type, storage_path, content, category, summary, doc_date, amount, issuer,
	pipeline_sources, artifact_key, status, error_message, created_at, updated_at
FROM documents
WHERE id = $1
`, id)

	var doc domain.Document
	var sourcesRaw []byte
	var category, status string

	err := row.Scan(
		&doc.ID, &doc.Filename, &doc.MimeType, &doc.StoragePath, &doc.Content, &category,
		&doc.Summary, &doc.DocDate, &doc.Amount, &doc.Issuer, &sourcesRaw, &doc.ArtifactKey,
		&status, &doc.Error, &doc.CreatedAt, &doc.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrDocumentNotFound, "get document", err)
		}
		return nil, fmt.Errorf("scan document: %w", err)
	}

	if err := json.Unmarshal(sourcesRaw, &doc.Sources); err != nil {
		return nil, fmt.Errorf("unmarshal pipeline sources: %w", err)
	}
	doc.Category = domain.Category(category)
	doc.Status = domain.DocumentStatus(status)
	return &doc, nil
}

func (r *DocumentRepository) UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus, errMessage string) error {
	result, err := r.db.ExecContext(ctx, `
UPDATE documents
SET status = $2, error_message = $3, updated_at = $4
WHERE id = $1
`, id, string(status), errMessage, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update document status: %w", err)
	}
	return requireRow(result, id)
}

func (r *DocumentRepository) SaveOutcome(ctx context.Context, id string, outcome *domain.PipelineOutcome) error {
	sourcesJSON, err := json.Marshal(sourcesOrEmpty(outcome.Sources))
	if err != nil {
		return fmt.Errorf("marshal pipeline sources: %w", err)
	}

	result, err := r.db.ExecContext(ctx, `
UPDATE documents
SET content = $2, category = $3, summary = $4, doc_date = $5, amount = $6, issuer = $7,
	pipeline_sources = $8, ocr_confidence = $9, artifact_key = $10, updated_at = $11
WHERE id = $1
`,
		id, outcome.Transcript, string(outcome.Record.Category), outcome.Record.Summary,
		outcome.Record.Date, outcome.Record.Amount, outcome.Record.Issuer, sourcesJSON,
		outcome.OCRConfidence, outcome.ArtifactPath, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("save outcome: %w", err)
	}
	return requireRow(result, id)
}

func requireRow(result sql.Result, id string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return domain.WrapError(domain.ErrDocumentNotFound, "update document", fmt.Errorf("id %s", id))
	}
	return nil
}

func sourcesOrEmpty(sources []domain.Source) []domain.Source {
	if sources == nil {
		return []domain.Source{}
	}
	return sources
}
