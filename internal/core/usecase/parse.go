package usecase

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mguerin/docpilot/internal/core/domain"
)

// recordPayload mirrors the reasoning-service output contract. Date, amount
// and issuer arrive as JSON null when absent.
type recordPayload struct {
	Category string  `json:"category"`
	Summary  string  `json:"summary"`
	Date     *string `json:"date"`
	Amount   *string `json:"amount"`
	Issuer   *string `json:"issuer"`
	OCRText  string  `json:"ocr_text"`
}

// decodeRecord parses a reasoning-service response into a typed record.
// It tolerates markdown fences and surrounding prose; a failure here is a
// parse failure, never a fault the caller propagates.
func decodeRecord(raw string) (domain.InterpretedRecord, string, error) {
	var payload recordPayload
	if err := json.Unmarshal([]byte(extractJSONObject(raw)), &payload); err != nil {
		return domain.InterpretedRecord{}, "", fmt.Errorf("parse record json: %w", err)
	}
	record := domain.InterpretedRecord{
		Category: domain.NormalizeCategory(strings.TrimSpace(payload.Category)),
		Summary:  strings.TrimSpace(payload.Summary),
		Date:     deref(payload.Date),
		Amount:   deref(payload.Amount),
		Issuer:   deref(payload.Issuer),
	}
	return record, payload.OCRText, nil
}

// parseFailureRecord is the sentinel for well-transported but malformed
// reasoning output.
func parseFailureRecord(detail string) domain.InterpretedRecord {
	return domain.InterpretedRecord{
		Category: domain.CategoryOther,
		Summary:  detail,
	}
}

// transportFailureRecord is the sentinel for a reasoning call that could
// not complete; the error detail is truncated into the summary.
func transportFailureRecord(err error) domain.InterpretedRecord {
	return domain.InterpretedRecord{
		Category: domain.CategoryError,
		Summary:  truncate(err.Error(), 100),
	}
}

// extractJSONObject strips markdown fences and surrounding prose, keeping
// the outermost JSON object.
func extractJSONObject(raw string) string {
	raw = stripFences(raw)
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		return raw[start : end+1]
	}
	return raw
}

func stripFences(raw string) string {
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, "```") {
		return raw
	}
	raw = strings.TrimPrefix(raw, "```")
	if idx := strings.LastIndex(raw, "```"); idx >= 0 {
		raw = raw[:idx]
	}
	raw = strings.TrimPrefix(strings.TrimSpace(raw), "json")
	return strings.TrimSpace(raw)
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}
