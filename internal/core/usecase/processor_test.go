package usecase

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/mguerin/docpilot/internal/core/domain"
)

type statusCall struct {
	status domain.DocumentStatus
	errMsg string
}

type repoFake struct {
	doc         *domain.Document
	getErr      error
	saveErr     error
	statusErr   error
	statusCalls []statusCall
	outcomeID   string
	outcome     *domain.PipelineOutcome
}

func (f *repoFake) Create(context.Context, *domain.Document) error { return nil }

func (f *repoFake) GetByID(context.Context, string) (*domain.Document, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	copyDoc := *f.doc
	return &copyDoc, nil
}

func (f *repoFake) UpdateStatus(_ context.Context, _ string, status domain.DocumentStatus, errMessage string) error {
	f.statusCalls = append(f.statusCalls, statusCall{status: status, errMsg: errMessage})
	return f.statusErr
}

func (f *repoFake) SaveOutcome(_ context.Context, id string, outcome *domain.PipelineOutcome) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.outcomeID = id
	f.outcome = outcome
	return nil
}

type storageFake struct{ root string }

func (f *storageFake) Save(context.Context, string, io.Reader) error       { return nil }
func (f *storageFake) Open(context.Context, string) (io.ReadCloser, error) { return nil, nil }
func (f *storageFake) Path(key string) string                              { return f.root + "/" + key }

type pipelineFake struct {
	outcome  *domain.PipelineOutcome
	err      error
	lastPath string
}

func (f *pipelineFake) ProcessDocument(_ context.Context, sourcePath string) (*domain.PipelineOutcome, error) {
	f.lastPath = sourcePath
	if f.err != nil {
		return nil, f.err
	}
	return f.outcome, nil
}

func TestProcessByIDSuccess(t *testing.T) {
	repo := &repoFake{doc: &domain.Document{ID: "doc-1", StoragePath: "uploads/doc-1.png"}}
	pipeline := &pipelineFake{outcome: &domain.PipelineOutcome{
		Transcript: "texte",
		Record:     domain.InterpretedRecord{Category: domain.CategoryFacture},
	}}
	proc := NewDocumentProcessor(repo, &storageFake{root: "/data"}, pipeline)

	outcome, err := proc.ProcessByID(context.Background(), "doc-1")
	if err != nil {
		t.Fatalf("ProcessByID() error = %v", err)
	}
	if outcome == nil || outcome.Record.Category != domain.CategoryFacture {
		t.Fatalf("outcome = %+v, want the pipeline result surfaced", outcome)
	}
	if pipeline.lastPath != "/data/uploads/doc-1.png" {
		t.Fatalf("pipeline path = %q", pipeline.lastPath)
	}
	if len(repo.statusCalls) != 2 ||
		repo.statusCalls[0].status != domain.StatusProcessing ||
		repo.statusCalls[1].status != domain.StatusReady {
		t.Fatalf("unexpected status sequence: %+v", repo.statusCalls)
	}
	if repo.outcomeID != "doc-1" {
		t.Fatalf("outcome saved for %q", repo.outcomeID)
	}
}

func TestProcessByIDUnknownDocument(t *testing.T) {
	repo := &repoFake{getErr: errors.New("no rows")}
	proc := NewDocumentProcessor(repo, &storageFake{}, &pipelineFake{})

	_, err := proc.ProcessByID(context.Background(), "missing")
	if !domain.IsKind(err, domain.ErrDocumentNotFound) {
		t.Fatalf("err = %v, want document not found", err)
	}
	if len(repo.statusCalls) != 0 {
		t.Fatalf("no status updates expected, got %+v", repo.statusCalls)
	}
}

func TestProcessByIDMarksFailedOnPipelineError(t *testing.T) {
	repo := &repoFake{doc: &domain.Document{ID: "doc-1"}}
	proc := NewDocumentProcessor(repo, &storageFake{}, &pipelineFake{err: errors.New("unreadable")})

	if _, err := proc.ProcessByID(context.Background(), "doc-1"); err == nil {
		t.Fatal("expected error")
	}
	if len(repo.statusCalls) != 2 || repo.statusCalls[1].status != domain.StatusFailed {
		t.Fatalf("unexpected status sequence: %+v", repo.statusCalls)
	}
	if repo.statusCalls[1].errMsg == "" {
		t.Fatal("failed status should carry the cause")
	}
}

func TestProcessByIDMarksFailedOnSaveError(t *testing.T) {
	repo := &repoFake{doc: &domain.Document{ID: "doc-1"}, saveErr: errors.New("db down")}
	proc := NewDocumentProcessor(repo, &storageFake{}, &pipelineFake{outcome: &domain.PipelineOutcome{}})

	_, err := proc.ProcessByID(context.Background(), "doc-1")
	if !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("err = %v, want temporary", err)
	}
	if repo.statusCalls[len(repo.statusCalls)-1].status != domain.StatusFailed {
		t.Fatalf("unexpected status sequence: %+v", repo.statusCalls)
	}
}
