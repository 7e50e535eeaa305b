package usecase

import "github.com/mguerin/docpilot/internal/core/domain"

// MergeVoices reconciles the two interpretation voices into one canonical
// record. The base is voice A (direct image reasoning, the safer fallback);
// each field is overwritten by voice B only when voice B carries a usable
// value, because the recognition+text path is typically the more literal
// one for dates and amounts once corrected. The transcript is always voice
// A's image-grounded one.
func MergeVoices(voiceA domain.VisionInterpretation, voiceB domain.InterpretedRecord) (domain.InterpretedRecord, string) {
	merged := voiceA.Record

	if !voiceB.Category.IsSentinel() {
		merged.Category = voiceB.Category
	}
	if voiceB.Summary != "" && !voiceB.Category.IsSentinel() {
		merged.Summary = voiceB.Summary
	}
	if voiceB.Date != "" {
		merged.Date = voiceB.Date
	}
	if voiceB.Amount != "" {
		merged.Amount = voiceB.Amount
	}
	if voiceB.Issuer != "" {
		merged.Issuer = voiceB.Issuer
	}

	return merged, voiceA.Transcript
}
