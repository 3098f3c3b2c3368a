package questions

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"intervai/internal/llm"
	"intervai/internal/models"
	"intervai/internal/prompts"
	"intervai/internal/repositories"
)

// GuideGenerator produces a Markdown preparation guide for an optimization
// ahead of any session. Like question generation it never hard-fails on the
// AI path: a provider error degrades to a static template.
type GuideGenerator struct {
	provider      llm.Provider
	optimizations *repositories.OptimizationRepository
	prompts       prompts.PromptProvider
	logger        *zap.Logger
}

func NewGuideGenerator(provider llm.Provider, optimizations *repositories.OptimizationRepository, promptProvider prompts.PromptProvider, logger *zap.Logger) *GuideGenerator {
	return &GuideGenerator{
		provider:      provider,
		optimizations: optimizations,
		prompts:       promptProvider,
		logger:        logger,
	}
}

// Generate returns the guide Markdown after the usual ownership check.
func (g *GuideGenerator) Generate(ctx context.Context, optimizationID, userID string) (string, error) {
	opt, err := g.optimizations.GetByID(ctx, optimizationID)
	if err != nil {
		return "", err
	}
	if opt.UserID != userID {
		return "", models.ErrForbidden
	}

	resume, err := opt.Resume.Data()
	if err != nil {
		g.logger.Warn("Failed to parse resume data for guide",
			zap.String("optimizationId", optimizationID), zap.Error(err))
	}
	job, err := opt.Job.Data()
	if err != nil {
		g.logger.Warn("Failed to parse job data for guide",
			zap.String("optimizationId", optimizationID), zap.Error(err))
	}

	resumeJSON, _ := json.Marshal(resume)
	requirements := strings.Join(job.RequiredSkills, ", ")
	if requirements == "" {
		requirements = job.Description
	}

	prompt, err := g.prompts.BuildPrompt("guide", "default", map[string]string{
		"JobTitle":     job.Title,
		"Company":      job.Company,
		"Requirements": requirements,
		"Resume":       string(resumeJSON),
	})
	if err != nil {
		return staticGuide(resume, job), nil
	}

	text, err := g.provider.GenerateContent(ctx, prompt, &llm.GenerateOptions{
		Temperature: 0.7,
		MaxTokens:   2048,
	})
	if err != nil {
		g.logger.Warn("AI guide generation failed, using static guide",
			zap.String("optimizationId", optimizationID), zap.Error(err))
		return staticGuide(resume, job), nil
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return staticGuide(resume, job), nil
	}
	return text, nil
}

func staticGuide(resume models.ResumeData, job models.JobData) string {
	title := job.Title
	if title == "" {
		title = "this role"
	}
	company := job.Company
	if company == "" {
		company = "the company"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "# Preparing for %s at %s\n\n", title, company)
	sb.WriteString("## Likely Interview Themes\n\n")
	if len(job.RequiredSkills) > 0 {
		for _, skill := range job.RequiredSkills {
			fmt.Fprintf(&sb, "- Expect questions probing your experience with %s\n", skill)
		}
	} else {
		sb.WriteString("- Review the role description and prepare examples for each responsibility\n")
	}
	sb.WriteString("\n## Positioning Your Experience\n\n")
	if len(resume.Experience) > 0 {
		exp := resume.Experience[0]
		fmt.Fprintf(&sb, "Lead with your time as %s at %s and connect it directly to what %s needs.\n", exp.Position, exp.Company, company)
	} else {
		sb.WriteString("Pick your two strongest projects and rehearse describing their impact in under two minutes each.\n")
	}
	sb.WriteString("\n## Questions to Ask\n\n")
	sb.WriteString("- What does success look like in the first six months?\n")
	sb.WriteString("- How does the team handle technical disagreements?\n")
	sb.WriteString("- What is the biggest challenge facing the team right now?\n")
	return sb.String()
}
