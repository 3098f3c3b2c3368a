package evaluation

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"intervai/internal/llm"
	"intervai/internal/models"
	"intervai/internal/prompts"
	"intervai/internal/repositories"
	"intervai/internal/utils"
)

// Evaluator scores completed sessions. It runs only behind the queue
// workers; nothing on the request path calls it directly.
type Evaluator struct {
	sessions      *repositories.SessionRepository
	optimizations *repositories.OptimizationRepository
	provider      llm.Provider
	prompts       prompts.PromptProvider
	logger        *zap.Logger
}

func NewEvaluator(
	sessions *repositories.SessionRepository,
	optimizations *repositories.OptimizationRepository,
	provider llm.Provider,
	promptProvider prompts.PromptProvider,
	logger *zap.Logger,
) *Evaluator {
	return &Evaluator{
		sessions:      sessions,
		optimizations: optimizations,
		provider:      provider,
		prompts:       promptProvider,
		logger:        logger,
	}
}

type evaluationResult struct {
	Score    float64 `json:"score"`
	Feedback string  `json:"feedback"`
}

// EvaluateSession scores one session and flips it to EVALUATED. Re-delivery
// of an already evaluated session is a no-op, so at-least-once queue
// semantics are safe. A returned error means the queue should retry.
func (e *Evaluator) EvaluateSession(ctx context.Context, sessionID string) error {
	session, err := e.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return err
	}
	if session.Status == models.SessionEvaluated {
		e.logger.Debug("session already evaluated, skipping",
			zap.String("sessionId", sessionID))
		return nil
	}

	prompt, err := e.buildPrompt(ctx, session)
	if err != nil {
		return err
	}

	raw, err := e.provider.GenerateContent(ctx, prompt, &llm.GenerateOptions{
		Temperature: 0.3,
		MaxTokens:   2048,
	})
	if err != nil {
		return fmt.Errorf("evaluation generation failed: %w", err)
	}

	result := parseEvaluation(raw)
	score := clamp(result.Score)
	session.Score = &score
	session.Feedback = &result.Feedback
	session.Status = models.SessionEvaluated
	if err := e.sessions.Save(ctx, session); err != nil {
		return err
	}

	e.logger.Info("session evaluated",
		zap.String("sessionId", sessionID), zap.Float64("score", score))
	return nil
}

// parseEvaluation extracts the first JSON object from the raw model output.
// Anything unparseable becomes {70, raw} so a sloppy model response still
// yields usable feedback.
func parseEvaluation(raw string) evaluationResult {
	var result evaluationResult
	obj, ok := utils.ExtractJSONObject(raw)
	if ok {
		if err := json.Unmarshal([]byte(obj), &result); err == nil && result.Feedback != "" {
			return result
		}
	}
	return evaluationResult{Score: 70, Feedback: strings.TrimSpace(raw)}
}

func (e *Evaluator) buildPrompt(ctx context.Context, session *models.InterviewSession) (string, error) {
	opt, err := e.optimizations.GetByID(ctx, session.OptimizationID)
	if err != nil {
		return "", err
	}
	job, _ := opt.Job.Data()
	resume, _ := opt.Resume.Data()

	transcript, err := e.sessions.ListMessages(ctx, session.ID)
	if err != nil {
		return "", err
	}

	return e.prompts.BuildPrompt("evaluation", "default", map[string]string{
		"JobTitle":      job.Title,
		"Company":       job.Company,
		"Requirements":  requirementsSummary(job),
		"CandidateName": candidateName(resume),
		"Transcript":    renderTranscript(transcript),
	})
}

func requirementsSummary(job models.JobData) string {
	req := strings.Join(job.RequiredSkills, ", ")
	if req == "" {
		req = job.Description
	}
	if len(req) > 500 {
		cut := 500
		for cut > 0 && !utf8.RuneStart(req[cut]) {
			cut--
		}
		req = req[:cut]
	}
	return req
}

func candidateName(resume models.ResumeData) string {
	if resume.Name != "" {
		return resume.Name
	}
	return "the candidate"
}

func renderTranscript(messages []models.InterviewMessage) string {
	var sb strings.Builder
	for _, m := range messages {
		label := "Candidate"
		if m.Role == models.RoleAssistant {
			label = "Interviewer"
		}
		fmt.Fprintf(&sb, "%s: %s\n", label, m.Content)
	}
	return sb.String()
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
