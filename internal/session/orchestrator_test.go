package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"intervai/internal/llm"
	"intervai/internal/models"
	"intervai/internal/queue"
	"intervai/internal/repositories"
	"intervai/internal/voice"
)

type mockProvider struct {
	chatFn func(ctx context.Context, systemContext, message string, history []llm.Message) (string, error)
}

func (m *mockProvider) GenerateContent(context.Context, string, *llm.GenerateOptions) (string, error) {
	return "mock content", nil
}

func (m *mockProvider) GenerateInterviewQuestions(context.Context, string, string, int) ([]llm.RawQuestion, error) {
	return nil, errors.New("not configured")
}

func (m *mockProvider) ChatWithInterviewer(ctx context.Context, systemContext, message string, history []llm.Message) (string, error) {
	if m.chatFn == nil {
		return "Tell me more about that.", nil
	}
	return m.chatFn(ctx, systemContext, message, history)
}

func (m *mockProvider) TranscribeAudio(context.Context, []byte, string) (string, error) {
	return "mock transcript", nil
}

func (m *mockProvider) GetProviderName() string { return "mock" }

type mockQuota struct {
	checkErr   error
	increments int
}

func (m *mockQuota) Check(context.Context, string) error { return m.checkErr }

func (m *mockQuota) Increment(context.Context, string) error {
	m.increments++
	return nil
}

type mockPublisher struct {
	published []queue.EvaluationMessage
	err       error
}

func (m *mockPublisher) Publish(_ context.Context, msg queue.EvaluationMessage) error {
	if m.err != nil {
		return m.err
	}
	m.published = append(m.published, msg)
	return nil
}

type mockVoices struct {
	voices []voice.Voice
	err    error
}

func (m *mockVoices) ListVoices(context.Context, string) ([]voice.Voice, error) {
	return m.voices, m.err
}

func (m *mockVoices) Synthesize(context.Context, string, string) ([]byte, error) {
	return []byte("audio"), nil
}

type mockPrompts struct{}

func (mockPrompts) BuildPrompt(mode, variant string, data map[string]string) (string, error) {
	return "system context", nil
}

type fixture struct {
	db           *gorm.DB
	orchestrator *Orchestrator
	quota        *mockQuota
	publisher    *mockPublisher
	voices       *mockVoices
	provider     *mockProvider
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dsn := fmt.Sprintf("file:%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := db.AutoMigrate(
		&models.Resume{}, &models.Job{}, &models.Optimization{},
		&models.InterviewQuestion{}, &models.InterviewSession{}, &models.InterviewMessage{},
	); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	f := &fixture{
		db:        db,
		quota:     &mockQuota{},
		publisher: &mockPublisher{},
		voices:    &mockVoices{},
		provider:  &mockProvider{},
	}
	f.orchestrator = NewOrchestrator(
		&repositories.SessionRepository{DB: db},
		&repositories.QuestionRepository{DB: db},
		&repositories.OptimizationRepository{DB: db},
		f.quota, f.publisher, f.voices, f.provider, mockPrompts{},
		zap.NewNop(),
	)
	return f
}

func (f *fixture) seedOptimization(t *testing.T, userID string) {
	t.Helper()
	resumeData, _ := json.Marshal(models.ResumeData{Name: "Sam"})
	jobData, _ := json.Marshal(models.JobData{Title: "Backend Developer", Company: "Globex"})
	if err := f.db.Create(&models.Resume{ID: "res-1", UserID: userID, ParsedData: string(resumeData)}).Error; err != nil {
		t.Fatalf("seed resume: %v", err)
	}
	if err := f.db.Create(&models.Job{ID: "job-1", UserID: userID, ParsedData: string(jobData)}).Error; err != nil {
		t.Fatalf("seed job: %v", err)
	}
	if err := f.db.Create(&models.Optimization{ID: "opt-1", UserID: userID, ResumeID: "res-1", JobID: "job-1"}).Error; err != nil {
		t.Fatalf("seed optimization: %v", err)
	}
}

func (f *fixture) seedQuestions(t *testing.T, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		q := models.InterviewQuestion{
			ID:             fmt.Sprintf("q-%02d", i),
			OptimizationID: "opt-1",
			Position:       i,
			QuestionType:   models.TypeBehavioral,
			Question:       fmt.Sprintf("Question %d?", i),
			CreatedAt:      time.Now().Add(time.Duration(i) * time.Millisecond),
		}
		if err := f.db.Create(&q).Error; err != nil {
			t.Fatalf("seed question: %v", err)
		}
	}
}

func TestStartSession(t *testing.T) {
	f := newFixture(t)
	f.seedOptimization(t, "owner")
	f.seedQuestions(t, 10)

	resp, err := f.orchestrator.Start(context.Background(), "owner", &models.StartSessionRequest{OptimizationID: "opt-1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Session.Status != models.SessionInProgress {
		t.Errorf("expected IN_PROGRESS, got %s", resp.Session.Status)
	}
	if resp.FirstQuestion == nil || resp.FirstQuestion.ID != "q-00" {
		t.Errorf("expected first question of the bank, got %+v", resp.FirstQuestion)
	}
	if f.quota.increments != 1 {
		t.Errorf("expected one quota increment, got %d", f.quota.increments)
	}
}

func TestStartSessionWithoutBank(t *testing.T) {
	f := newFixture(t)
	f.seedOptimization(t, "owner")

	resp, err := f.orchestrator.Start(context.Background(), "owner", &models.StartSessionRequest{OptimizationID: "opt-1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.FirstQuestion != nil {
		t.Errorf("expected nil first question with an empty bank")
	}
}

func TestStartSessionQuotaExceeded(t *testing.T) {
	f := newFixture(t)
	f.seedOptimization(t, "owner")
	f.quota.checkErr = models.ErrQuotaExceeded

	_, err := f.orchestrator.Start(context.Background(), "owner", &models.StartSessionRequest{OptimizationID: "opt-1"})
	if !errors.Is(err, models.ErrQuotaExceeded) {
		t.Fatalf("expected ErrQuotaExceeded, got %v", err)
	}

	var count int64
	f.db.Model(&models.InterviewSession{}).Count(&count)
	if count != 0 {
		t.Fatalf("quota-rejected start persisted a session")
	}
}

func TestStartSessionForeignOptimization(t *testing.T) {
	f := newFixture(t)
	f.seedOptimization(t, "owner")

	_, err := f.orchestrator.Start(context.Background(), "intruder", &models.StartSessionRequest{OptimizationID: "opt-1"})
	if !errors.Is(err, models.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	var count int64
	f.db.Model(&models.InterviewSession{}).Count(&count)
	if count != 0 {
		t.Fatalf("rejected start persisted a session")
	}
}

func TestStartSessionInvalidVoice(t *testing.T) {
	f := newFixture(t)
	f.seedOptimization(t, "owner")
	f.voices.voices = []voice.Voice{{ID: "v-1", Name: "Alloy"}}

	voiceID := "v-unknown"
	_, err := f.orchestrator.Start(context.Background(), "owner", &models.StartSessionRequest{
		OptimizationID: "opt-1",
		VoiceID:        &voiceID,
	})
	if !errors.Is(err, models.ErrInvalidVoice) {
		t.Fatalf("expected ErrInvalidVoice, got %v", err)
	}
}

func startSession(t *testing.T, f *fixture) string {
	t.Helper()
	resp, err := f.orchestrator.Start(context.Background(), "owner", &models.StartSessionRequest{OptimizationID: "opt-1"})
	if err != nil {
		t.Fatalf("start session: %v", err)
	}
	return resp.Session.ID
}

func TestSubmitAnswerBoundary(t *testing.T) {
	f := newFixture(t)
	f.seedOptimization(t, "owner")
	f.seedQuestions(t, 10)
	sessionID := startSession(t, f)

	// Answer the first eight questions.
	for i := 0; i < 8; i++ {
		resp, err := f.orchestrator.SubmitAnswer(context.Background(), "owner", sessionID, &models.SubmitAnswerRequest{Content: "answer"})
		if err != nil {
			t.Fatalf("answer %d: %v", i, err)
		}
		if resp.IsCompleted {
			t.Fatalf("completed after %d answers", i+1)
		}
	}

	// Second-to-last answer returns the final question.
	resp, err := f.orchestrator.SubmitAnswer(context.Background(), "owner", sessionID, &models.SubmitAnswerRequest{Content: "answer"})
	if err != nil {
		t.Fatalf("ninth answer: %v", err)
	}
	if resp.IsCompleted || resp.NextQuestion == nil || resp.NextQuestion.ID != "q-09" {
		t.Fatalf("expected last question, got %+v", resp)
	}

	// Final answer reports completion but leaves the session IN_PROGRESS.
	resp, err = f.orchestrator.SubmitAnswer(context.Background(), "owner", sessionID, &models.SubmitAnswerRequest{Content: "answer"})
	if err != nil {
		t.Fatalf("final answer: %v", err)
	}
	if !resp.IsCompleted || resp.NextQuestion != nil {
		t.Fatalf("expected completion, got %+v", resp)
	}

	var session models.InterviewSession
	f.db.First(&session, "id = ?", sessionID)
	if session.Status != models.SessionInProgress {
		t.Fatalf("answer exhaustion changed status to %s", session.Status)
	}
}

func TestSubmitAnswerRejectsForeignSession(t *testing.T) {
	f := newFixture(t)
	f.seedOptimization(t, "owner")
	f.seedQuestions(t, 10)
	sessionID := startSession(t, f)

	_, err := f.orchestrator.SubmitAnswer(context.Background(), "intruder", sessionID, &models.SubmitAnswerRequest{Content: "answer"})
	if !errors.Is(err, models.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	var count int64
	f.db.Model(&models.InterviewMessage{}).Count(&count)
	if count != 0 {
		t.Fatalf("rejected answer persisted a message")
	}
}

func TestSubmitAnswerRequiresActiveSession(t *testing.T) {
	f := newFixture(t)
	f.seedOptimization(t, "owner")
	f.seedQuestions(t, 10)
	sessionID := startSession(t, f)

	if _, err := f.orchestrator.End(context.Background(), "owner", sessionID); err != nil {
		t.Fatalf("end session: %v", err)
	}
	_, err := f.orchestrator.SubmitAnswer(context.Background(), "owner", sessionID, &models.SubmitAnswerRequest{Content: "answer"})
	if !errors.Is(err, models.ErrSessionNotActive) {
		t.Fatalf("expected ErrSessionNotActive, got %v", err)
	}
}

func TestGetStateProgress(t *testing.T) {
	f := newFixture(t)
	f.seedOptimization(t, "owner")
	f.seedQuestions(t, 10)
	sessionID := startSession(t, f)

	for i := 0; i < 3; i++ {
		if _, err := f.orchestrator.SubmitAnswer(context.Background(), "owner", sessionID, &models.SubmitAnswerRequest{Content: "answer"}); err != nil {
			t.Fatalf("answer %d: %v", i, err)
		}
	}

	state, err := f.orchestrator.GetState(context.Background(), "owner", sessionID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if state.Progress != 3 || state.Total != 10 {
		t.Errorf("expected 3/10, got %d/%d", state.Progress, state.Total)
	}
	if state.CurrentQuestion == nil || state.CurrentQuestion.ID != "q-03" {
		t.Errorf("expected q-03 as current question, got %+v", state.CurrentQuestion)
	}
}

func TestEndSessionPublishesAndRefreshesEndTime(t *testing.T) {
	f := newFixture(t)
	f.seedOptimization(t, "owner")
	f.seedQuestions(t, 10)
	sessionID := startSession(t, f)

	first, err := f.orchestrator.End(context.Background(), "owner", sessionID)
	if err != nil {
		t.Fatalf("first end: %v", err)
	}
	if first.Status != models.SessionCompleted || first.EndTime == nil {
		t.Fatalf("expected COMPLETED with end time, got %+v", first)
	}
	if len(f.publisher.published) != 1 || f.publisher.published[0].SessionID != sessionID {
		t.Fatalf("expected one evaluation message, got %+v", f.publisher.published)
	}

	time.Sleep(5 * time.Millisecond)
	second, err := f.orchestrator.End(context.Background(), "owner", sessionID)
	if err != nil {
		t.Fatalf("second end: %v", err)
	}
	if !second.EndTime.After(*first.EndTime) {
		t.Errorf("repeated end did not refresh endTime: %v vs %v", first.EndTime, second.EndTime)
	}
	if len(f.publisher.published) != 2 {
		t.Errorf("expected re-enqueue on repeated end, got %d messages", len(f.publisher.published))
	}
}

func TestEndSessionSurvivesEnqueueFailure(t *testing.T) {
	f := newFixture(t)
	f.seedOptimization(t, "owner")
	sessionID := startSession(t, f)
	f.publisher.err = errors.New("redis down")

	session, err := f.orchestrator.End(context.Background(), "owner", sessionID)
	if err != nil {
		t.Fatalf("end must not fail on enqueue error: %v", err)
	}
	if session.Status != models.SessionCompleted {
		t.Fatalf("expected COMPLETED despite enqueue failure, got %s", session.Status)
	}
}

func TestChatPersistsBothTurns(t *testing.T) {
	f := newFixture(t)
	f.seedOptimization(t, "owner")
	sessionID := startSession(t, f)
	f.provider.chatFn = func(_ context.Context, _, message string, _ []llm.Message) (string, error) {
		return "Interesting, why " + message + "?", nil
	}

	resp, err := f.orchestrator.Chat(context.Background(), "owner", sessionID, &models.ChatRequest{Message: "hello"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Content != "Interesting, why hello?" {
		t.Errorf("unexpected reply: %q", resp.Content)
	}

	var messages []models.InterviewMessage
	f.db.Order("created_at ASC, id ASC").Find(&messages, "session_id = ?", sessionID)
	if len(messages) != 2 {
		t.Fatalf("expected 2 transcript turns, got %d", len(messages))
	}
	if messages[0].Role != models.RoleUser || messages[1].Role != models.RoleAssistant {
		t.Errorf("unexpected roles: %s, %s", messages[0].Role, messages[1].Role)
	}
}
