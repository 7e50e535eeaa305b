package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"mime"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/mguerin/docpilot/internal/bootstrap"
	"github.com/mguerin/docpilot/internal/config"
	"github.com/mguerin/docpilot/internal/core/domain"
	"github.com/mguerin/docpilot/internal/core/usecase"
	"github.com/mguerin/docpilot/internal/infrastructure/artifact/pdfgen"
	"github.com/mguerin/docpilot/internal/infrastructure/enhance"
	"github.com/mguerin/docpilot/internal/infrastructure/extractor/pdftext"
	"github.com/mguerin/docpilot/internal/infrastructure/llm/openaicompat"
	"github.com/mguerin/docpilot/internal/infrastructure/ocr/tesseract"
	"github.com/mguerin/docpilot/internal/infrastructure/resilience"
	"github.com/mguerin/docpilot/internal/infrastructure/rules/yamlfile"
	"github.com/mguerin/docpilot/internal/observability/logging"
)

// staticSettings serves one fixed settings snapshot; the CLI has no
// settings database to read from.
type staticSettings struct {
	settings domain.PipelineSettings
}

func (s staticSettings) LoadPipelineSettings(context.Context) (domain.PipelineSettings, error) {
	return s.settings, nil
}

func main() {
	var (
		filePath  = flag.String("file", "", "document to process (image or PDF)")
		rulesPath = flag.String("rules", "", "optional YAML classification rules file")
		outDir    = flag.String("out", "./artifacts", "directory for generated searchable PDFs")
		noVision  = flag.Bool("no-vision", false, "disable the vision voice")
		ingest    = flag.Bool("ingest", false, "upload the file and enqueue it for a worker instead of processing locally")
	)
	flag.Parse()

	cfg := config.Load()
	slog.SetDefault(logging.NewJSONLogger("docpilot", cfg.LogLevel))

	if *filePath == "" {
		fmt.Fprintln(os.Stderr, "usage: docpilot -file <document> [-rules <file>] [-out <dir>] [-ingest]")
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *ingest {
		ingestDocument(ctx, cfg, *filePath)
		return
	}

	settings := domain.DefaultPipelineSettings()
	if *noVision {
		settings.VisionEnabled = false
		settings.FusionEnabled = false
	}

	llmClient := openaicompat.New(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModel, cfg.LLMVisionModel)
	reasoner := openaicompat.NewResilient(llmClient, resilience.DefaultPolicy())
	recognizer := tesseract.New(cfg.OCRLanguages)

	pipeline := usecase.NewPipeline(
		staticSettings{settings: settings},
		yamlfile.New(*rulesPath),
		enhance.New(),
		recognizer,
		pdftext.New(),
		usecase.NewVisionInterpreter(reasoner),
		usecase.NewDocumentAnalyzer(reasoner),
		usecase.NewOCRCorrector(reasoner, reasoner),
		pdfgen.New(recognizer, *outDir),
	)

	outcome, err := pipeline.ProcessDocument(ctx, *filePath)
	if err != nil {
		slog.Error("processing failed", "file", *filePath, "error", err)
		os.Exit(1)
	}

	printJSON(outcome)
}

// ingestDocument uses the full application wiring: the file lands in object
// storage, a metadata row is created and a worker picks it up from the queue.
func ingestDocument(ctx context.Context, cfg config.Config, path string) {
	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		slog.Error("bootstrap failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	file, err := os.Open(path)
	if err != nil {
		slog.Error("open file failed", "file", path, "error", err)
		os.Exit(1)
	}
	defer file.Close()

	mimeType := mime.TypeByExtension(filepath.Ext(path))
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	doc, err := app.IngestUC.Upload(ctx, filepath.Base(path), mimeType, file)
	if err != nil {
		slog.Error("ingest failed", "file", path, "error", err)
		os.Exit(1)
	}
	printJSON(doc)
}

func printJSON(v any) {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		slog.Error("encode output failed", "error", err)
		os.Exit(1)
	}
}
