package session

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"intervai/internal/llm"
	"intervai/internal/models"
	"intervai/internal/prompts"
	"intervai/internal/queue"
	"intervai/internal/quota"
	"intervai/internal/repositories"
	"intervai/internal/voice"
)

// Orchestrator owns the session lifecycle: start, structured answer loop,
// free-form chat, and completion. Evaluation itself happens asynchronously
// behind the queue; End only publishes the trigger.
type Orchestrator struct {
	sessions      *repositories.SessionRepository
	questions     *repositories.QuestionRepository
	optimizations *repositories.OptimizationRepository
	quota         quota.Service
	publisher     queue.Publisher
	voices        voice.Client
	provider      llm.Provider
	prompts       prompts.PromptProvider
	logger        *zap.Logger
}

func NewOrchestrator(
	sessions *repositories.SessionRepository,
	questions *repositories.QuestionRepository,
	optimizations *repositories.OptimizationRepository,
	quotaSvc quota.Service,
	publisher queue.Publisher,
	voices voice.Client,
	provider llm.Provider,
	promptProvider prompts.PromptProvider,
	logger *zap.Logger,
) *Orchestrator {
	return &Orchestrator{
		sessions:      sessions,
		questions:     questions,
		optimizations: optimizations,
		quota:         quotaSvc,
		publisher:     publisher,
		voices:        voices,
		provider:      provider,
		prompts:       promptProvider,
		logger:        logger,
	}
}

// Start creates a new IN_PROGRESS session after the quota check, voice
// validation and ownership check all pass, in that order. The first question
// of the pre-generated bank is returned, or nil when no bank exists yet.
func (o *Orchestrator) Start(ctx context.Context, userID string, req *models.StartSessionRequest) (*models.StartSessionResponse, error) {
	if err := o.quota.Check(ctx, userID); err != nil {
		return nil, err
	}

	if req.VoiceID != nil {
		if err := o.validateVoice(ctx, userID, *req.VoiceID); err != nil {
			return nil, err
		}
	}

	opt, err := o.optimizations.GetByID(ctx, req.OptimizationID)
	if err != nil {
		return nil, err
	}
	if opt.UserID != userID {
		return nil, models.ErrForbidden
	}

	now := time.Now().UTC()
	session := &models.InterviewSession{
		ID:             uuid.New().String(),
		UserID:         userID,
		OptimizationID: req.OptimizationID,
		VoiceID:        req.VoiceID,
		Status:         models.SessionInProgress,
		StartTime:      now,
	}
	if err := o.sessions.Create(ctx, session); err != nil {
		return nil, err
	}

	if err := o.quota.Increment(ctx, userID); err != nil {
		// The session exists; losing one quota tick is preferable to
		// failing the start after the row is committed.
		o.logger.Warn("failed to increment interview quota",
			zap.String("userId", userID), zap.Error(err))
	}

	var first *models.InterviewQuestion
	bank, err := o.questions.ListByOptimization(ctx, req.OptimizationID)
	if err != nil {
		return nil, err
	}
	if len(bank) > 0 {
		first = &bank[0]
	}

	o.logger.Info("interview session started",
		zap.String("sessionId", session.ID),
		zap.String("userId", userID),
		zap.Int("questionBank", len(bank)))

	return &models.StartSessionResponse{Session: session, FirstQuestion: first}, nil
}

func (o *Orchestrator) validateVoice(ctx context.Context, userID, voiceID string) error {
	voices, err := o.voices.ListVoices(ctx, userID)
	if err != nil {
		return err
	}
	for _, v := range voices {
		if v.ID == voiceID {
			return nil
		}
	}
	return models.ErrInvalidVoice
}

// SubmitAnswer appends one answer and advances the structured loop. The
// append and the resulting answered count happen in one repository
// transaction, so concurrent submissions cannot observe the same cursor.
// Exhausting the bank reports completion but does not change the session
// status; only End does that.
func (o *Orchestrator) SubmitAnswer(ctx context.Context, userID, sessionID string, req *models.SubmitAnswerRequest) (*models.AnswerResponse, error) {
	session, err := o.loadOwnedSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status != models.SessionInProgress {
		return nil, models.ErrSessionNotActive
	}

	msg := &models.InterviewMessage{
		SessionID: sessionID,
		Role:      models.RoleUser,
		Content:   req.Content,
		AudioURL:  req.AudioURL,
	}
	answered, err := o.sessions.AppendAnswer(ctx, sessionID, msg)
	if err != nil {
		return nil, err
	}

	bank, err := o.questions.ListByOptimization(ctx, session.OptimizationID)
	if err != nil {
		return nil, err
	}
	if answered >= len(bank) {
		return &models.AnswerResponse{IsCompleted: true}, nil
	}
	return &models.AnswerResponse{NextQuestion: &bank[answered]}, nil
}

// GetState returns a read-only snapshot of session progress. CurrentQuestion
// is nil once the bank is exhausted or the session has left IN_PROGRESS.
func (o *Orchestrator) GetState(ctx context.Context, userID, sessionID string) (*models.SessionStateResponse, error) {
	session, err := o.loadOwnedSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}

	answered, err := o.sessions.CountUserMessages(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	bank, err := o.questions.ListByOptimization(ctx, session.OptimizationID)
	if err != nil {
		return nil, err
	}

	var current *models.InterviewQuestion
	if session.Status == models.SessionInProgress && answered < len(bank) {
		current = &bank[answered]
	}

	return &models.SessionStateResponse{
		Session:         session,
		CurrentQuestion: current,
		Progress:        answered,
		Total:           len(bank),
	}, nil
}

// End marks the session COMPLETED and enqueues it for evaluation. Ending is
// idempotent in effect but not in timestamp: calling End again refreshes
// EndTime and re-enqueues, which the evaluator tolerates.
func (o *Orchestrator) End(ctx context.Context, userID, sessionID string) (*models.InterviewSession, error) {
	session, err := o.loadOwnedSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	session.Status = models.SessionCompleted
	session.EndTime = &now
	if err := o.sessions.Save(ctx, session); err != nil {
		return nil, err
	}

	msg := queue.EvaluationMessage{
		SessionID: sessionID,
		RequestID: uuid.New().String(),
	}
	if err := o.publisher.Publish(ctx, msg); err != nil {
		// The sweeper picks up completed-but-unevaluated sessions, so a
		// failed enqueue must not fail the request.
		o.logger.Error("failed to enqueue evaluation",
			zap.String("sessionId", sessionID), zap.Error(err))
	}

	o.logger.Info("interview session ended",
		zap.String("sessionId", sessionID), zap.String("userId", userID))
	return session, nil
}

// Chat sends one free-form message to the interviewer persona and persists
// both turns of the exchange.
func (o *Orchestrator) Chat(ctx context.Context, userID, sessionID string, req *models.ChatRequest) (*models.ChatResponse, error) {
	session, err := o.loadOwnedSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status != models.SessionInProgress {
		return nil, models.ErrSessionNotActive
	}

	systemContext, err := o.buildInterviewerContext(ctx, session)
	if err != nil {
		return nil, err
	}

	transcript, err := o.sessions.ListMessages(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	history := make([]llm.Message, 0, len(transcript))
	for _, m := range transcript {
		role := "user"
		if m.Role == models.RoleAssistant {
			role = "assistant"
		}
		history = append(history, llm.Message{Role: role, Content: m.Content})
	}

	reply, err := o.provider.ChatWithInterviewer(ctx, systemContext, req.Message, history)
	if err != nil {
		return nil, err
	}
	reply = strings.TrimSpace(reply)

	userMsg := &models.InterviewMessage{
		SessionID: sessionID,
		Role:      models.RoleUser,
		Content:   req.Message,
	}
	if err := o.sessions.AppendMessage(ctx, userMsg); err != nil {
		return nil, err
	}
	assistantMsg := &models.InterviewMessage{
		SessionID: sessionID,
		Role:      models.RoleAssistant,
		Content:   reply,
	}
	if err := o.sessions.AppendMessage(ctx, assistantMsg); err != nil {
		return nil, err
	}

	return &models.ChatResponse{Content: reply}, nil
}

func (o *Orchestrator) buildInterviewerContext(ctx context.Context, session *models.InterviewSession) (string, error) {
	opt, err := o.optimizations.GetByID(ctx, session.OptimizationID)
	if err != nil {
		return "", err
	}

	job, err := opt.Job.Data()
	if err != nil {
		o.logger.Warn("unparseable job data, using raw text",
			zap.String("optimizationId", opt.ID), zap.Error(err))
	}
	resume, err := opt.Resume.Data()
	if err != nil {
		o.logger.Warn("unparseable resume data, using raw text",
			zap.String("optimizationId", opt.ID), zap.Error(err))
	}

	requirements := strings.Join(job.RequiredSkills, ", ")
	if requirements == "" {
		requirements = job.Description
	}
	candidate := resume.Name
	if candidate == "" {
		candidate = "the candidate"
	}
	resumeSummary, _ := json.Marshal(resume)

	return o.prompts.BuildPrompt("interviewer", "default", map[string]string{
		"JobTitle":      job.Title,
		"Company":       job.Company,
		"Requirements":  requirements,
		"CandidateName": candidate,
		"Resume":        string(resumeSummary),
	})
}

func (o *Orchestrator) loadOwnedSession(ctx context.Context, userID, sessionID string) (*models.InterviewSession, error) {
	session, err := o.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.UserID != userID {
		return nil, models.ErrForbidden
	}
	return session, nil
}
