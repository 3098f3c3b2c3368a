package questions

import (
	"context"

	"go.uber.org/zap"

	"intervai/internal/llm"
	"intervai/internal/models"
	"intervai/internal/repositories"
)

// Generator produces the fixed question bank for an optimization, preferring
// AI generation and falling back to the deterministic rule templates.
type Generator struct {
	provider      llm.Provider
	optimizations *repositories.OptimizationRepository
	questions     *repositories.QuestionRepository
	logger        *zap.Logger
}

func NewGenerator(provider llm.Provider, optimizations *repositories.OptimizationRepository, questions *repositories.QuestionRepository, logger *zap.Logger) *Generator {
	return &Generator{
		provider:      provider,
		optimizations: optimizations,
		questions:     questions,
		logger:        logger,
	}
}

// Generate builds and persists the question bank for an optimization. The
// persisted order becomes the session question sequence. Generation is
// idempotent: an existing bank is returned as-is instead of appending a
// second set.
func (g *Generator) Generate(ctx context.Context, optimizationID, userID string, count int) ([]models.InterviewQuestion, Source, error) {
	opt, err := g.optimizations.GetByID(ctx, optimizationID)
	if err != nil {
		return nil, SourceFallback, err
	}
	if opt.UserID != userID {
		return nil, SourceFallback, models.ErrForbidden
	}

	existing, err := g.questions.ListByOptimization(ctx, optimizationID)
	if err != nil {
		return nil, SourceFallback, err
	}
	if len(existing) > 0 {
		return existing, SourceExisting, nil
	}

	count = models.ClampQuestionCount(count)

	resumeData, err := opt.Resume.Data()
	if err != nil {
		g.logger.Warn("Failed to parse resume data, templates will use defaults",
			zap.String("optimizationId", optimizationID), zap.Error(err))
	}
	jobData, err := opt.Job.Data()
	if err != nil {
		g.logger.Warn("Failed to parse job data, templates will use defaults",
			zap.String("optimizationId", optimizationID), zap.Error(err))
	}

	generated, source := g.generateWithAI(ctx, opt, resumeData, jobData, count)
	for i := range generated {
		generated[i].OptimizationID = optimizationID
	}

	if err := g.questions.CreateBatch(ctx, generated); err != nil {
		if source == SourceFallback {
			return nil, SourceFallback, err
		}
		// Retry persistence with the rule-based set before surfacing failure.
		g.logger.Error("Failed to persist AI-generated questions, retrying with rule-based set",
			zap.String("optimizationId", optimizationID), zap.Error(err))
		generated = RuleBased(resumeData, jobData, count)
		for i := range generated {
			generated[i].OptimizationID = optimizationID
		}
		if err := g.questions.CreateBatch(ctx, generated); err != nil {
			return nil, SourceFallback, err
		}
		source = SourceFallback
	}

	return generated, source, nil
}

// GetQuestions returns the existing question bank after an ownership check.
func (g *Generator) GetQuestions(ctx context.Context, optimizationID, userID string) ([]models.InterviewQuestion, error) {
	opt, err := g.optimizations.GetByID(ctx, optimizationID)
	if err != nil {
		return nil, err
	}
	if opt.UserID != userID {
		return nil, models.ErrForbidden
	}
	return g.questions.ListByOptimization(ctx, optimizationID)
}

func (g *Generator) generateWithAI(ctx context.Context, opt *models.Optimization, resumeData models.ResumeData, jobData models.JobData, count int) ([]models.InterviewQuestion, Source) {
	raw, err := g.provider.GenerateInterviewQuestions(ctx, opt.Resume.ParsedData, opt.Job.ParsedData, count)
	if err != nil {
		g.logger.Warn("AI question generation failed, falling back to rule templates",
			zap.String("optimizationId", opt.ID), zap.Error(err))
		return RuleBased(resumeData, jobData, count), SourceFallback
	}
	usable := raw[:0]
	for _, q := range raw {
		if q.Question != "" {
			usable = append(usable, q)
		}
	}
	raw = usable
	if len(raw) < count {
		g.logger.Warn("AI returned short question set, falling back to rule templates",
			zap.String("optimizationId", opt.ID),
			zap.Int("got", len(raw)), zap.Int("want", count))
		return RuleBased(resumeData, jobData, count), SourceFallback
	}

	out := make([]models.InterviewQuestion, 0, count)
	for _, q := range raw[:count] {
		questionType, _ := CoerceQuestionType(q.QuestionType)
		difficulty, _ := CoerceDifficulty(q.Difficulty)

		suggested := q.SuggestedAnswer
		if suggested == "" {
			suggested = "Structure your answer around a concrete example: the context, the actions you took, and the outcome."
		}
		tips := models.StringList(q.Tips)
		if len(tips) == 0 {
			tips = models.StringList{
				"Answer with a specific example rather than generalities",
				"Keep the response under two minutes",
				"Close with the outcome or what you learned",
			}
		}

		out = append(out, models.InterviewQuestion{
			QuestionType:    questionType,
			Question:        q.Question,
			SuggestedAnswer: suggested,
			Tips:            tips,
			Difficulty:      difficulty,
		})
	}
	return out, SourceAI
}
