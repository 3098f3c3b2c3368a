package evaluation

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"intervai/internal/llm"
	"intervai/internal/models"
)

func TestGenerateReportRequiresFinishedSession(t *testing.T) {
	f := newFixture(t)
	sessionID := f.seedSession(t, models.SessionInProgress)

	_, err := f.evaluator.GenerateReport(context.Background(), "owner", sessionID)
	if !errors.Is(err, models.ErrSessionNotActive) {
		t.Fatalf("expected ErrSessionNotActive, got %v", err)
	}
	if f.provider.calls != 0 {
		t.Fatalf("status rejection still made %d AI calls", f.provider.calls)
	}
}

func TestGenerateReportOwnership(t *testing.T) {
	f := newFixture(t)
	sessionID := f.seedSession(t, models.SessionEvaluated)

	_, err := f.evaluator.GenerateReport(context.Background(), "intruder", sessionID)
	if !errors.Is(err, models.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if f.provider.calls != 0 {
		t.Fatalf("ownership rejection still made %d AI calls", f.provider.calls)
	}
}

func TestGenerateReportNormalizes(t *testing.T) {
	f := newFixture(t)
	sessionID := f.seedSession(t, models.SessionEvaluated)
	f.provider.generateContentFn = func(context.Context, string, *llm.GenerateOptions) (string, error) {
		return `{
			"dimensions": {"accuracy": 120, "fluency": -5, "logicalThinking": 80},
			"strengths": ["Direct communication"],
			"detailedAnalysis": [
				{"feedback": "Good opener.", "score": 75},
				{"feedback": "Phantom answer.", "score": 60}
			]
		}`, nil
	}

	report, err := f.evaluator.GenerateReport(context.Background(), "owner", sessionID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if report.Dimensions["accuracy"] != 100 {
		t.Errorf("accuracy not clamped: %v", report.Dimensions["accuracy"])
	}
	if report.Dimensions["fluency"] != 0 {
		t.Errorf("fluency not clamped: %v", report.Dimensions["fluency"])
	}
	for _, dim := range []string{"professionalKnowledge", "communication", "confidence"} {
		if report.Dimensions[dim] != 50 {
			t.Errorf("missing dimension %s should default to 50, got %v", dim, report.Dimensions[dim])
		}
	}

	// Weighted overall from dimensions when the model omitted one:
	// 100*.25 + 0*.15 + 80*.20 + 50*.25 + 50*.10 + 50*.05 = 61.
	if math.Abs(report.OverallScore-61) > 1e-9 {
		t.Errorf("expected weighted overall 61, got %v", report.OverallScore)
	}

	// Two analysis entries, one user message: truncate to the shorter.
	if len(report.DetailedAnalysis) != 1 {
		t.Fatalf("expected 1 detailed entry, got %d", len(report.DetailedAnalysis))
	}
	if report.DetailedAnalysis[0].Answer != "I am a backend engineer." {
		t.Errorf("entry not mapped to the user message: %q", report.DetailedAnalysis[0].Answer)
	}

	if len(report.Improvements) == 0 || len(report.Suggestions) == 0 {
		t.Errorf("missing arrays should get placeholders")
	}
}

func TestGenerateReportDegradesToDefault(t *testing.T) {
	f := newFixture(t)
	sessionID := f.seedSession(t, models.SessionCompleted)
	f.provider.generateContentFn = func(context.Context, string, *llm.GenerateOptions) (string, error) {
		return "", errors.New("provider down")
	}

	report, err := f.evaluator.GenerateReport(context.Background(), "owner", sessionID)
	if err != nil {
		t.Fatalf("report must degrade, not fail: %v", err)
	}
	if report.OverallScore != 65 {
		t.Errorf("expected default score 65, got %v", report.OverallScore)
	}
	for dim, score := range report.Dimensions {
		if score != 65 {
			t.Errorf("default dimension %s = %v, want 65", dim, score)
		}
	}
}

func TestReportMarkdownRendering(t *testing.T) {
	f := newFixture(t)
	sessionID := f.seedSession(t, models.SessionEvaluated)
	f.provider.generateContentFn = func(context.Context, string, *llm.GenerateOptions) (string, error) {
		return `{
			"overallScore": 85,
			"dimensions": {"accuracy": 90, "fluency": 70, "logicalThinking": 55, "professionalKnowledge": 85, "communication": 75, "confidence": 80},
			"strengths": ["Clear structure"],
			"improvements": ["More metrics"],
			"suggestions": ["Practice aloud"]
		}`, nil
	}

	report, err := f.evaluator.GenerateReport(context.Background(), "owner", sessionID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	md := report.Markdown
	for _, want := range []string{
		"# Interview Performance Report",
		"**Overall Score: 85/100** 🟢 Strong",
		"| Accuracy | 90 | 🟢 Excellent |",
		"| Fluency | 70 | 🟡 Solid |",
		"| Logical Thinking | 55 | 🔴 Needs Work |",
		"## Full Transcript",
		"**Interviewer:** Tell me about yourself.",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q", want)
		}
	}
}

func TestScoreTiers(t *testing.T) {
	tests := []struct {
		score float64
		emoji string
		label string
	}{
		{95, "🟢", "Excellent"},
		{85, "🟢", "Strong"},
		{75, "🟡", "Solid"},
		{65, "🟡", "Developing"},
		{40, "🔴", "Needs Work"},
	}
	for _, tc := range tests {
		if got := scoreEmoji(tc.score); got != tc.emoji {
			t.Errorf("scoreEmoji(%v) = %s, want %s", tc.score, got, tc.emoji)
		}
		if got := scoreLabel(tc.score); got != tc.label {
			t.Errorf("scoreLabel(%v) = %s, want %s", tc.score, got, tc.label)
		}
	}
}
