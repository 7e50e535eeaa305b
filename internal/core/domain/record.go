package domain

import "time"

// Category is the closed classification vocabulary. Anything outside the
// eight document classes is one of the two sentinels.
type Category string

const (
	CategoryFacture   Category = "Facture"
	CategoryImpots    Category = "Impôts"
	CategorySante     Category = "Santé"
	CategoryBanque    Category = "Banque"
	CategoryContrat   Category = "Contrat"
	CategoryAssurance Category = "Assurance"
	CategoryTravail   Category = "Travail"
	CategoryCourrier  Category = "Courrier"

	// CategoryOther marks an interpretation that completed but could not be
	// classified (including malformed reasoning-service output).
	CategoryOther Category = "Other"
	// CategoryError marks an interpretation that failed at transport level.
	CategoryError Category = "Error"
)

var documentCategories = map[Category]struct{}{
	CategoryFacture:   {},
	CategoryImpots:    {},
	CategorySante:     {},
	CategoryBanque:    {},
	CategoryContrat:   {},
	CategoryAssurance: {},
	CategoryTravail:   {},
	CategoryCourrier:  {},
}

// IsSentinel reports whether the category signals degraded interpretation
// rather than a real document class.
func (c Category) IsSentinel() bool {
	return c == CategoryOther || c == CategoryError || c == ""
}

// NormalizeCategory coerces a reasoning-service category string into the
// closed vocabulary. Unknown values collapse to CategoryOther so that no
// free-form string ever occupies the category field.
func NormalizeCategory(raw string) Category {
	c := Category(raw)
	if _, ok := documentCategories[c]; ok {
		return c
	}
	switch c {
	case CategoryOther, CategoryError:
		return c
	}
	// Legacy French sentinel spellings from older payloads.
	switch raw {
	case "Autre":
		return CategoryOther
	case "Erreur":
		return CategoryError
	}
	return CategoryOther
}

// InterpretedRecord is the structured result of one interpretation voice,
// and after fusion, of a whole pipeline run. Field names are part of the
// external JSON contract.
type InterpretedRecord struct {
	Category Category `json:"category"`
	Summary  string   `json:"summary"`
	Date     string   `json:"date,omitempty"`
	Amount   string   `json:"amount,omitempty"`
	Issuer   string   `json:"issuer,omitempty"`
}

// VisionInterpretation is voice A's output: the structured record plus the
// image-grounded transcript the multimodal service read off the document.
type VisionInterpretation struct {
	Record     InterpretedRecord
	Transcript string
}

// ExtractionResult is what the recognition backend produced for one image.
// Confidence is on a 0-100 scale, either the backend's native mean word
// confidence or the heuristic text-quality score.
type ExtractionResult struct {
	Text       string
	Confidence float64
}

// RecognizedWord is a single recognized token with its position on the
// source image, used to align the searchable artifact's text layer.
type RecognizedWord struct {
	Text       string
	Confidence float64
	X1, Y1     int
	X2, Y2     int
}

// Pipeline source identifiers recorded on a merged outcome.
const (
	SourceVision Source = "vision"
	SourceOCRLLM Source = "ocr+llm"
)

type Source string

// PipelineOutcome is the unit the orchestrator returns and the caller
// persists: the final transcript, the canonical record, which voices
// contributed, and the generated artifact if any.
type PipelineOutcome struct {
	Transcript    string            `json:"transcript"`
	Record        InterpretedRecord `json:"record"`
	Sources       []Source          `json:"pipeline_sources,omitempty"`
	OCRConfidence float64           `json:"ocr_confidence,omitempty"`
	ArtifactPath  string            `json:"artifact_path,omitempty"`
}

// PipelineSettings is the immutable per-run snapshot of the external
// configuration store. It is taken once at the start of a run and threaded
// through every component; nothing re-reads the store mid-run.
type PipelineSettings struct {
	VisionEnabled       bool
	CorrectionEnabled   bool
	CorrectionThreshold float64 // 0-100, correction fires below this
	FusionEnabled       bool    // correction may use image + voice A context

	LLMBaseURL string
	LLMAPIKey  string
	LLMModel   string
}

// DefaultPipelineSettings returns the documented defaults applied when the
// settings store has no value for a key.
func DefaultPipelineSettings() PipelineSettings {
	return PipelineSettings{
		VisionEnabled:       true,
		CorrectionEnabled:   true,
		CorrectionThreshold: 80,
		FusionEnabled:       true,
	}
}

type DocumentStatus string

const (
	StatusUploaded   DocumentStatus = "uploaded"
	StatusProcessing DocumentStatus = "processing"
	StatusReady      DocumentStatus = "ready"
	StatusFailed     DocumentStatus = "failed"
)

// Document is the persisted metadata/state of a source file moving through
// the pipeline. The source file itself is owned by object storage.
type Document struct {
	ID          string         `json:"id"`
	Filename    string         `json:"filename"`
	MimeType    string         `json:"mime_type"`
	StoragePath string         `json:"storage_path"`
	Content     string         `json:"content,omitempty"`
	Category    Category       `json:"category,omitempty"`
	Summary     string         `json:"summary,omitempty"`
	DocDate     string         `json:"doc_date,omitempty"`
	Amount      string         `json:"amount,omitempty"`
	Issuer      string         `json:"issuer,omitempty"`
	Sources     []Source       `json:"pipeline_sources,omitempty"`
	ArtifactKey string         `json:"artifact_key,omitempty"`
	Status      DocumentStatus `json:"status"`
	Error       string         `json:"error,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}
