package questions

import (
	"testing"

	"intervai/internal/models"
)

func TestCoerceQuestionType(t *testing.T) {
	tests := []struct {
		raw    string
		want   string
		source Source
	}{
		{"behavioral", models.TypeBehavioral, SourceAI},
		{"  Technical ", models.TypeTechnical, SourceAI},
		{"resume-based", models.TypeResumeBased, SourceAI},
		{"Resume Based", models.TypeResumeBased, SourceAI},
		{"SITUATIONAL", models.TypeSituational, SourceAI},
		{"brain teaser", models.TypeBehavioral, SourceFallback},
		{"", models.TypeBehavioral, SourceFallback},
	}
	for _, tc := range tests {
		got, source := CoerceQuestionType(tc.raw)
		if got != tc.want || source != tc.source {
			t.Errorf("CoerceQuestionType(%q) = %s/%s, want %s/%s", tc.raw, got, source, tc.want, tc.source)
		}
	}
}

func TestCoerceDifficulty(t *testing.T) {
	tests := []struct {
		raw    string
		want   string
		source Source
	}{
		{"easy", models.DifficultyEasy, SourceAI},
		{" HARD ", models.DifficultyHard, SourceAI},
		{"Medium", models.DifficultyMedium, SourceAI},
		{"extreme", models.DifficultyMedium, SourceFallback},
		{"", models.DifficultyMedium, SourceFallback},
	}
	for _, tc := range tests {
		got, source := CoerceDifficulty(tc.raw)
		if got != tc.want || source != tc.source {
			t.Errorf("CoerceDifficulty(%q) = %s/%s, want %s/%s", tc.raw, got, source, tc.want, tc.source)
		}
	}
}
