package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/mguerin/docpilot/internal/core/domain"
	"github.com/mguerin/docpilot/internal/core/ports"
)

// nativeTextThreshold separates a genuinely digital PDF from a scanned one
// masquerading as text: below this many characters the first page is
// rasterized and re-enters the pipeline as an image.
const nativeTextThreshold = 50

// Pipeline orchestrates one document run: type dispatch, enhancement,
// single- or dual-voice extraction, fusion, rule overrides and artifact
// generation. Internal step failures degrade the outcome instead of
// aborting it; the terminal state is always a returned outcome unless the
// source file itself cannot be handled.
type Pipeline struct {
	settings  ports.SettingsStore
	rules     ports.RuleSource
	enhancer  ports.ImageEnhancer
	recognize ports.TextRecognizer
	pdfText   ports.NativeTextExtractor
	vision    *VisionInterpreter
	analyzer  *DocumentAnalyzer
	corrector *OCRCorrector
	artifacts ports.ArtifactGenerator
	engine    *RuleEngine
}

func NewPipeline(
	settings ports.SettingsStore,
	rules ports.RuleSource,
	enhancer ports.ImageEnhancer,
	recognizer ports.TextRecognizer,
	pdfText ports.NativeTextExtractor,
	vision *VisionInterpreter,
	analyzer *DocumentAnalyzer,
	corrector *OCRCorrector,
	artifacts ports.ArtifactGenerator,
) *Pipeline {
	return &Pipeline{
		settings:  settings,
		rules:     rules,
		enhancer:  enhancer,
		recognize: recognizer,
		pdfText:   pdfText,
		vision:    vision,
		analyzer:  analyzer,
		corrector: corrector,
		artifacts: artifacts,
		engine:    NewRuleEngine(),
	}
}

var imageExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true,
	".bmp": true, ".tiff": true, ".tif": true, ".webp": true,
}

func (p *Pipeline) ProcessDocument(ctx context.Context, sourcePath string) (*domain.PipelineOutcome, error) {
	if _, err := os.Stat(sourcePath); err != nil {
		return nil, domain.WrapError(domain.ErrUnreadableSource, "stat source", err)
	}

	settings := p.loadSettings(ctx)
	ext := strings.ToLower(filepath.Ext(sourcePath))

	switch {
	case ext == ".pdf":
		return p.processPDF(ctx, sourcePath, settings), nil
	case imageExtensions[ext]:
		return p.processImage(ctx, sourcePath, settings), nil
	default:
		return nil, domain.WrapError(domain.ErrInvalidInput, "dispatch source", fmt.Errorf("unsupported extension %q", ext))
	}
}

// loadSettings takes the once-per-run configuration snapshot. A store
// failure degrades to documented defaults rather than failing the run.
func (p *Pipeline) loadSettings(ctx context.Context) domain.PipelineSettings {
	settings, err := p.settings.LoadPipelineSettings(ctx)
	if err != nil {
		slog.Warn("settings_snapshot_failed", "error", err)
		return domain.DefaultPipelineSettings()
	}
	return settings
}

func (p *Pipeline) processPDF(ctx context.Context, sourcePath string, settings domain.PipelineSettings) *domain.PipelineOutcome {
	text, err := p.pdfText.ExtractText(ctx, sourcePath)
	if err != nil {
		slog.Warn("native_text_extraction_failed", "path", sourcePath, "error", err)
		text = ""
	}

	if len(strings.TrimSpace(text)) < nativeTextThreshold {
		// Scanned document masquerading as a text document.
		pagePath, rasterErr := p.pdfText.RasterizeFirstPage(ctx, sourcePath)
		if rasterErr == nil {
			defer removeTransient(pagePath)
			slog.Info("pdf_rasterized", "path", sourcePath)
			return p.processImage(ctx, pagePath, settings)
		}
		slog.Warn("pdf_rasterization_failed", "path", sourcePath, "error", rasterErr)
		// Continue with whatever text we have; analysis degrades on its own.
	}

	confidence := domain.TextQuality(text) * 100
	corrected := p.corrector.Correct(ctx, text, confidence, settings, CorrectionContext{})
	record := p.analyzer.Analyze(ctx, corrected)
	record = p.applyRules(ctx, record, corrected)

	// The artifact reproduces the final metadata, so rules run first.
	artifactPath := p.generateArtifact(ctx, corrected, record, "")
	return &domain.PipelineOutcome{
		Transcript:    corrected,
		Record:        record,
		Sources:       []domain.Source{domain.SourceOCRLLM},
		OCRConfidence: confidence,
		ArtifactPath:  artifactPath,
	}
}

func (p *Pipeline) processImage(ctx context.Context, imagePath string, settings domain.PipelineSettings) *domain.PipelineOutcome {
	enhanced := p.enhancer.Enhance(ctx, imagePath)
	if enhanced != imagePath {
		defer removeTransient(enhanced)
	}

	var outcome *domain.PipelineOutcome
	if settings.VisionEnabled {
		outcome = p.dualVoice(ctx, enhanced, settings)
	} else {
		outcome = p.singleVoice(ctx, enhanced, settings)
	}

	outcome.Record = p.applyRules(ctx, outcome.Record, outcome.Transcript)

	// Reproduce the original image, not the enhanced working copy; the
	// artifact carries the post-rule metadata.
	outcome.ArtifactPath = p.generateArtifact(ctx, outcome.Transcript, outcome.Record, imagePath)
	return outcome
}

func (p *Pipeline) singleVoice(ctx context.Context, imagePath string, settings domain.PipelineSettings) *domain.PipelineOutcome {
	extraction := p.recognizeText(ctx, imagePath)
	corrected := p.corrector.Correct(ctx, extraction.Text, extraction.Confidence, settings, CorrectionContext{})
	record := p.analyzer.Analyze(ctx, corrected)

	return &domain.PipelineOutcome{
		Transcript:    corrected,
		Record:        record,
		Sources:       []domain.Source{domain.SourceOCRLLM},
		OCRConfidence: extraction.Confidence,
	}
}

// dualVoice runs the vision path and the recognition path as two
// concurrent units of work joined before the merge, bounding wall-clock
// latency to roughly the slower of the two.
func (p *Pipeline) dualVoice(ctx context.Context, imagePath string, settings domain.PipelineSettings) *domain.PipelineOutcome {
	var (
		wg     sync.WaitGroup
		voiceA domain.VisionInterpretation
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		voiceA = p.vision.Interpret(ctx, imagePath)
	}()

	extraction := p.recognizeText(ctx, imagePath)

	correctionCtx := CorrectionContext{}
	if settings.FusionEnabled {
		// Fusion correction needs voice A's partial record as context.
		wg.Wait()
		correctionCtx = CorrectionContext{ImagePath: imagePath, VisionRecord: &voiceA.Record}
	}
	corrected := p.corrector.Correct(ctx, extraction.Text, extraction.Confidence, settings, correctionCtx)
	voiceB := p.analyzer.Analyze(ctx, corrected)

	wg.Wait()
	merged, transcript := MergeVoices(voiceA, voiceB)
	if strings.TrimSpace(transcript) == "" {
		// Degraded vision path: keep the document searchable anyway.
		transcript = corrected
	}

	return &domain.PipelineOutcome{
		Transcript:    transcript,
		Record:        merged,
		Sources:       []domain.Source{domain.SourceVision, domain.SourceOCRLLM},
		OCRConfidence: extraction.Confidence,
	}
}

func (p *Pipeline) recognizeText(ctx context.Context, imagePath string) domain.ExtractionResult {
	extraction, err := p.recognize.Recognize(ctx, imagePath)
	if err != nil {
		slog.Warn("recognition_failed", "path", imagePath, "error", err)
		return domain.ExtractionResult{}
	}
	return extraction
}

func (p *Pipeline) applyRules(ctx context.Context, record domain.InterpretedRecord, transcript string) domain.InterpretedRecord {
	rules, err := p.rules.ListEnabledRules(ctx)
	if err != nil {
		slog.Warn("rule_listing_failed", "error", err)
		return record
	}
	return p.engine.Apply(record, transcript, rules)
}

func (p *Pipeline) generateArtifact(ctx context.Context, transcript string, record domain.InterpretedRecord, sourceImagePath string) string {
	if p.artifacts == nil || strings.TrimSpace(transcript) == "" {
		return ""
	}
	path, err := p.artifacts.Generate(ctx, transcript, record, sourceImagePath)
	if err != nil {
		slog.Warn("artifact_generation_failed", "error", err)
		return ""
	}
	return path
}

func removeTransient(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		slog.Warn("transient_cleanup_failed", "path", path, "error", err)
	}
}
