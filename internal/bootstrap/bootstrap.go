package bootstrap

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/mguerin/docpilot/internal/config"
	"github.com/mguerin/docpilot/internal/core/ports"
	"github.com/mguerin/docpilot/internal/core/usecase"
	"github.com/mguerin/docpilot/internal/infrastructure/artifact/pdfgen"
	"github.com/mguerin/docpilot/internal/infrastructure/enhance"
	"github.com/mguerin/docpilot/internal/infrastructure/extractor/pdftext"
	"github.com/mguerin/docpilot/internal/infrastructure/llm/openaicompat"
	"github.com/mguerin/docpilot/internal/infrastructure/ocr/tesseract"
	"github.com/mguerin/docpilot/internal/infrastructure/queue/nats"
	"github.com/mguerin/docpilot/internal/infrastructure/repository/postgres"
	"github.com/mguerin/docpilot/internal/infrastructure/resilience"
	"github.com/mguerin/docpilot/internal/infrastructure/rules/yamlfile"
	"github.com/mguerin/docpilot/internal/infrastructure/storage/localfs"
)

type App struct {
	Config config.Config

	Queue     ports.MessageQueue
	Repo      ports.DocumentRepository
	Storage   ports.ObjectStorage
	Pipeline  ports.DocumentPipeline
	IngestUC  ports.DocumentIngestor
	ProcessUC ports.DocumentProcessor

	closeFn func()
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	repo := postgres.NewDocumentRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	settings := postgres.NewSettingsRepository(db)

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		Executor: resilience.NewExecutor("nats", resilience.DefaultPolicy(), nats.ClassifyError),
	})
	if err != nil {
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	// LLM endpoint settings stored in the database win over environment
	// defaults.
	if snapshot, err := settings.LoadPipelineSettings(ctx); err == nil {
		if snapshot.LLMBaseURL != "" {
			cfg.LLMBaseURL = snapshot.LLMBaseURL
		}
		if snapshot.LLMAPIKey != "" {
			cfg.LLMAPIKey = snapshot.LLMAPIKey
		}
		if snapshot.LLMModel != "" {
			cfg.LLMModel = snapshot.LLMModel
		}
	}

	llmClient := openaicompat.New(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModel, cfg.LLMVisionModel)
	reasoner := openaicompat.NewResilient(llmClient, resilience.DefaultPolicy())

	recognizer := tesseract.New(cfg.OCRLanguages)
	enhancer := enhance.New()
	pdfText := pdftext.New()
	artifacts := pdfgen.New(recognizer, filepath.Join(cfg.StoragePath, cfg.ArtifactSubdir))

	var rules ports.RuleSource = postgres.NewRulesRepository(db)
	if cfg.RulesFile != "" {
		rules = yamlfile.New(cfg.RulesFile)
	}

	pipeline := usecase.NewPipeline(
		settings,
		rules,
		enhancer,
		recognizer,
		pdfText,
		usecase.NewVisionInterpreter(reasoner),
		usecase.NewDocumentAnalyzer(reasoner),
		usecase.NewOCRCorrector(reasoner, reasoner),
		artifacts,
	)
	ingestUC := usecase.NewDocumentIngestor(repo, storage, queue)
	processUC := usecase.NewDocumentProcessor(repo, storage, pipeline)

	return &App{
		Config:  cfg,
		Queue:   queue,
		Repo:    repo,
		Storage: storage,

		Pipeline:  pipeline,
		IngestUC:  ingestUC,
		ProcessUC: processUC,

		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
