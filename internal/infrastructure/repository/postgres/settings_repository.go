package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/mguerin/docpilot/internal/core/domain"
)

// Settings keys as stored in app_settings.
const (
	settingVisionEnabled       = "pipeline.vision_enabled"
	settingCorrectionEnabled   = "pipeline.correction_enabled"
	settingCorrectionThreshold = "pipeline.correction_threshold"
	settingFusionEnabled       = "pipeline.fusion_enabled"
	settingLLMBaseURL          = "llm.base_url"
	settingLLMAPIKey           = "llm.api_key"
	settingLLMModel            = "llm.model"
)

// SettingsRepository materializes the per-run settings snapshot from the
// app_settings key/value table. Missing keys keep their documented
// defaults; unparsable values do too.
type SettingsRepository struct {
	db *sql.DB
}

func NewSettingsRepository(db *sql.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

func (r *SettingsRepository) LoadPipelineSettings(ctx context.Context) (domain.PipelineSettings, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT key, value FROM app_settings`)
	if err != nil {
		return domain.PipelineSettings{}, fmt.Errorf("query settings: %w", err)
	}
	defer rows.Close()

	values := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return domain.PipelineSettings{}, fmt.Errorf("scan setting: %w", err)
		}
		values[key] = value
	}
	if err := rows.Err(); err != nil {
		return domain.PipelineSettings{}, fmt.Errorf("iterate settings: %w", err)
	}

	settings := domain.DefaultPipelineSettings()
	settings.VisionEnabled = boolSetting(values, settingVisionEnabled, settings.VisionEnabled)
	settings.CorrectionEnabled = boolSetting(values, settingCorrectionEnabled, settings.CorrectionEnabled)
	settings.CorrectionThreshold = floatSetting(values, settingCorrectionThreshold, settings.CorrectionThreshold)
	settings.FusionEnabled = boolSetting(values, settingFusionEnabled, settings.FusionEnabled)
	settings.LLMBaseURL = stringSetting(values, settingLLMBaseURL, settings.LLMBaseURL)
	settings.LLMAPIKey = stringSetting(values, settingLLMAPIKey, settings.LLMAPIKey)
	settings.LLMModel = stringSetting(values, settingLLMModel, settings.LLMModel)
	return settings, nil
}

func boolSetting(values map[string]string, key string, fallback bool) bool {
	raw, ok := values[key]
	if !ok {
		return fallback
	}
	parsed, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return fallback
	}
	return parsed
}

func floatSetting(values map[string]string, key string, fallback float64) float64 {
	raw, ok := values[key]
	if !ok {
		return fallback
	}
	parsed, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || parsed < 0 || parsed > 100 {
		return fallback
	}
	return parsed
}

func stringSetting(values map[string]string, key, fallback string) string {
	if raw, ok := values[key]; ok && strings.TrimSpace(raw) != "" {
		return strings.TrimSpace(raw)
	}
	return fallback
}
