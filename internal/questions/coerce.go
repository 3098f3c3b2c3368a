package questions

import (
	"strings"

	"intervai/internal/models"
)

// Source tags where a generated value came from, so call sites can tell AI
// output apart from defaults instead of silently mixing both.
type Source string

const (
	SourceAI       Source = "ai"
	SourceFallback Source = "fallback"
	// SourceExisting marks a bank that was persisted by an earlier call;
	// its rows may have come from either path.
	SourceExisting Source = "existing"
)

// CoerceQuestionType maps a freeform provider category string onto the fixed
// enum. Unmatched values fall back to BEHAVIORAL.
func CoerceQuestionType(raw string) (string, Source) {
	normalized := strings.ToUpper(strings.TrimSpace(raw))
	normalized = strings.ReplaceAll(normalized, "-", "_")
	normalized = strings.ReplaceAll(normalized, " ", "_")
	if models.ValidQuestionTypes[normalized] {
		return normalized, SourceAI
	}
	return models.TypeBehavioral, SourceFallback
}

// CoerceDifficulty maps a freeform difficulty string onto the fixed enum.
// Unmatched values fall back to MEDIUM.
func CoerceDifficulty(raw string) (string, Source) {
	normalized := strings.ToUpper(strings.TrimSpace(raw))
	if models.ValidDifficulties[normalized] {
		return normalized, SourceAI
	}
	return models.DifficultyMedium, SourceFallback
}
