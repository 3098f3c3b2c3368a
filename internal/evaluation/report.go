package evaluation

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"intervai/internal/llm"
	"intervai/internal/models"
	"intervai/internal/utils"
)

// Dimension weights for the fallback overall score. They sum to 1.0.
var dimensionWeights = map[string]float64{
	"accuracy":              0.25,
	"fluency":               0.15,
	"logicalThinking":       0.20,
	"professionalKnowledge": 0.25,
	"communication":         0.10,
	"confidence":            0.05,
}

// DetailedAnalysisEntry is per-answer feedback aligned positionally with the
// candidate's answers.
type DetailedAnalysisEntry struct {
	Question string  `json:"question"`
	Answer   string  `json:"answer"`
	Feedback string  `json:"feedback"`
	Score    float64 `json:"score"`
}

// InterviewReport is the structured performance analysis of one session.
type InterviewReport struct {
	SessionID        string                  `json:"sessionId"`
	OverallScore     float64                 `json:"overallScore"`
	Dimensions       map[string]float64      `json:"dimensions"`
	Strengths        []string                `json:"strengths"`
	Improvements     []string                `json:"improvements"`
	Suggestions      []string                `json:"suggestions"`
	DetailedAnalysis []DetailedAnalysisEntry `json:"detailedAnalysis"`
	Markdown         string                  `json:"markdown"`
}

// rawReport is the shape requested from the model. Pointer fields
// distinguish omitted values from zero scores.
type rawReport struct {
	OverallScore *float64            `json:"overallScore"`
	Dimensions   map[string]*float64 `json:"dimensions"`
	Strengths    []string            `json:"strengths"`
	Improvements []string            `json:"improvements"`
	Suggestions  []string            `json:"suggestions"`
	Detailed     []struct {
		Feedback string  `json:"feedback"`
		Score    float64 `json:"score"`
	} `json:"detailedAnalysis"`
}

// GenerateReport builds the full performance report for a finished session.
// The status gate runs before any AI call; an AI failure afterwards degrades
// to a static default analysis rather than an error.
func (e *Evaluator) GenerateReport(ctx context.Context, userID, sessionID string) (*InterviewReport, error) {
	session, err := e.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.UserID != userID {
		return nil, models.ErrForbidden
	}
	if session.Status != models.SessionCompleted && session.Status != models.SessionEvaluated {
		return nil, models.ErrSessionNotActive
	}

	transcript, err := e.sessions.ListMessages(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	userMessages := filterUserMessages(transcript)

	raw, aiErr := e.requestReport(ctx, session)
	var report *InterviewReport
	if aiErr != nil {
		e.logger.Warn("report generation degraded to default analysis",
			zap.String("sessionId", sessionID), zap.Error(aiErr))
		report = defaultReport(sessionID)
	} else {
		report = normalizeReport(sessionID, raw)
	}

	attachDetailedAnalysis(report, raw, userMessages)
	report.Markdown = renderMarkdown(report, transcript)
	return report, nil
}

func (e *Evaluator) requestReport(ctx context.Context, session *models.InterviewSession) (*rawReport, error) {
	opt, err := e.optimizations.GetByID(ctx, session.OptimizationID)
	if err != nil {
		return nil, err
	}
	job, _ := opt.Job.Data()
	resume, _ := opt.Resume.Data()

	transcript, err := e.sessions.ListMessages(ctx, session.ID)
	if err != nil {
		return nil, err
	}

	prompt, err := e.prompts.BuildPrompt("report", "default", map[string]string{
		"JobTitle":      job.Title,
		"Company":       job.Company,
		"Requirements":  requirementsSummary(job),
		"CandidateName": candidateName(resume),
		"Transcript":    renderTranscript(transcript),
	})
	if err != nil {
		return nil, err
	}

	text, err := e.provider.GenerateContent(ctx, prompt, &llm.GenerateOptions{
		Temperature: 0.3,
		MaxTokens:   4096,
	})
	if err != nil {
		return nil, err
	}

	obj, ok := utils.ExtractJSONObject(text)
	if !ok {
		return nil, fmt.Errorf("no JSON object in report response")
	}
	var raw rawReport
	if err := json.Unmarshal([]byte(obj), &raw); err != nil {
		return nil, fmt.Errorf("failed to parse report response: %w", err)
	}
	return &raw, nil
}

// normalizeReport clamps every numeric field to [0,100], fills missing
// dimensions with 50, recomputes the weighted overall if the model omitted
// one, and substitutes placeholders for missing arrays.
func normalizeReport(sessionID string, raw *rawReport) *InterviewReport {
	dims := make(map[string]float64, len(dimensionWeights))
	for name := range dimensionWeights {
		if v, ok := raw.Dimensions[name]; ok && v != nil {
			dims[name] = clamp(*v)
		} else {
			dims[name] = 50
		}
	}

	var overall float64
	if raw.OverallScore != nil {
		overall = clamp(*raw.OverallScore)
	} else {
		for name, weight := range dimensionWeights {
			overall += dims[name] * weight
		}
		overall = clamp(overall)
	}

	return &InterviewReport{
		SessionID:    sessionID,
		OverallScore: overall,
		Dimensions:   dims,
		Strengths:    orPlaceholder(raw.Strengths, []string{"Engaged with every question asked"}),
		Improvements: orPlaceholder(raw.Improvements, []string{"Add more concrete examples to your answers"}),
		Suggestions:  orPlaceholder(raw.Suggestions, []string{"Practice structuring answers with situation, action, and result"}),
	}
}

func defaultReport(sessionID string) *InterviewReport {
	dims := make(map[string]float64, len(dimensionWeights))
	for name := range dimensionWeights {
		dims[name] = 65
	}
	return &InterviewReport{
		SessionID:    sessionID,
		OverallScore: 65,
		Dimensions:   dims,
		Strengths:    []string{"Completed the full interview session"},
		Improvements: []string{"Detailed analysis was unavailable for this session"},
		Suggestions:  []string{"Try another practice session for fresh feedback"},
	}
}

// attachDetailedAnalysis maps model feedback onto the candidate's answers
// positionally, truncated to whichever list is shorter.
func attachDetailedAnalysis(report *InterviewReport, raw *rawReport, userMessages []models.InterviewMessage) {
	if raw == nil {
		return
	}
	n := len(raw.Detailed)
	if len(userMessages) < n {
		n = len(userMessages)
	}
	for i := 0; i < n; i++ {
		report.DetailedAnalysis = append(report.DetailedAnalysis, DetailedAnalysisEntry{
			Question: fmt.Sprintf("Question %d", i+1),
			Answer:   userMessages[i].Content,
			Feedback: raw.Detailed[i].Feedback,
			Score:    clamp(raw.Detailed[i].Score),
		})
	}
}

func filterUserMessages(messages []models.InterviewMessage) []models.InterviewMessage {
	var out []models.InterviewMessage
	for _, m := range messages {
		if m.Role == models.RoleUser {
			out = append(out, m)
		}
	}
	return out
}

func orPlaceholder(values, placeholder []string) []string {
	if len(values) > 0 {
		return values
	}
	return placeholder
}

func scoreEmoji(score float64) string {
	switch {
	case score >= 80:
		return "🟢"
	case score >= 60:
		return "🟡"
	default:
		return "🔴"
	}
}

func scoreLabel(score float64) string {
	switch {
	case score >= 90:
		return "Excellent"
	case score >= 80:
		return "Strong"
	case score >= 70:
		return "Solid"
	case score >= 60:
		return "Developing"
	default:
		return "Needs Work"
	}
}

var dimensionTitles = []struct{ key, title string }{
	{"accuracy", "Accuracy"},
	{"fluency", "Fluency"},
	{"logicalThinking", "Logical Thinking"},
	{"professionalKnowledge", "Professional Knowledge"},
	{"communication", "Communication"},
	{"confidence", "Confidence"},
}

func renderMarkdown(report *InterviewReport, transcript []models.InterviewMessage) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "# Interview Performance Report\n\n")
	fmt.Fprintf(&sb, "**Overall Score: %.0f/100** %s %s\n\n",
		report.OverallScore, scoreEmoji(report.OverallScore), scoreLabel(report.OverallScore))

	sb.WriteString("## Score Breakdown\n\n")
	sb.WriteString("| Dimension | Score | Rating |\n|---|---|---|\n")
	for _, d := range dimensionTitles {
		score := report.Dimensions[d.key]
		fmt.Fprintf(&sb, "| %s | %.0f | %s %s |\n", d.title, score, scoreEmoji(score), scoreLabel(score))
	}
	sb.WriteString("\n")

	writeList := func(title string, items []string) {
		fmt.Fprintf(&sb, "## %s\n\n", title)
		for _, item := range items {
			fmt.Fprintf(&sb, "- %s\n", item)
		}
		sb.WriteString("\n")
	}
	writeList("Strengths", report.Strengths)
	writeList("Areas for Improvement", report.Improvements)
	writeList("Suggestions", report.Suggestions)

	if len(report.DetailedAnalysis) > 0 {
		sb.WriteString("## Question-by-Question Analysis\n\n")
		for _, entry := range report.DetailedAnalysis {
			fmt.Fprintf(&sb, "### %s %s (%.0f/100)\n\n", scoreEmoji(entry.Score), entry.Question, entry.Score)
			fmt.Fprintf(&sb, "> %s\n\n%s\n\n", entry.Answer, entry.Feedback)
		}
	}

	if len(transcript) > 0 {
		sb.WriteString("## Full Transcript\n\n")
		for _, m := range transcript {
			label := "**You:**"
			if m.Role == models.RoleAssistant {
				label = "**Interviewer:**"
			}
			fmt.Fprintf(&sb, "%s %s\n\n", label, m.Content)
		}
	}

	return sb.String()
}
