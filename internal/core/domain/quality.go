package domain

import "strings"

// TextQuality scores recognized text on [0,1] when the recognition backend
// exposes no native confidence signal. The score combines a noise-character
// ratio (weight 0.6) and a short-line ratio (weight 0.4); the constants are
// empirical and kept for behavioral compatibility across backends.
func TextQuality(text string) float64 {
	trimmed := strings.TrimSpace(text)
	if len(trimmed) < 10 {
		return 0.0
	}
	if len(strings.Fields(text)) < 3 {
		return 0.1
	}

	total := 0
	valid := 0
	for _, r := range text {
		total++
		if isValidTextRune(r) {
			valid++
		}
	}
	noiseRatio := 1 - float64(valid)/float64(max(total, 1))

	lines := 0
	shortLines := 0
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lines++
		if len([]rune(line)) < 3 {
			shortLines++
		}
	}
	shortRatio := float64(shortLines) / float64(max(lines, 1))

	score := 1.0 - noiseRatio*0.6 - shortRatio*0.4
	return clamp01(score)
}

func isValidTextRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case r >= 0x00C0 && r <= 0x017F: // accented latin
		return true
	}
	return strings.ContainsRune(" .,;:!?\n€$%-", r)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
