package gateway

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"intervai/internal/llm"
	"intervai/internal/models"
	"intervai/internal/queue"
	"intervai/internal/repositories"
	"intervai/internal/session"
	"intervai/internal/voice"
)

type mockProvider struct {
	transcribeFn    func(ctx context.Context, audio []byte, mimeType string) (string, error)
	transcribeCalls int
}

func (m *mockProvider) GenerateContent(context.Context, string, *llm.GenerateOptions) (string, error) {
	return "mock content", nil
}

func (m *mockProvider) GenerateInterviewQuestions(context.Context, string, string, int) ([]llm.RawQuestion, error) {
	return nil, errors.New("not configured")
}

func (m *mockProvider) ChatWithInterviewer(context.Context, string, string, []llm.Message) (string, error) {
	return "mock reply", nil
}

func (m *mockProvider) TranscribeAudio(ctx context.Context, audio []byte, mimeType string) (string, error) {
	m.transcribeCalls++
	if m.transcribeFn == nil {
		return "I built the payments system.", nil
	}
	return m.transcribeFn(ctx, audio, mimeType)
}

func (m *mockProvider) GetProviderName() string { return "mock" }

type mockQuota struct{}

func (mockQuota) Check(context.Context, string) error     { return nil }
func (mockQuota) Increment(context.Context, string) error { return nil }

type mockPublisher struct{}

func (mockPublisher) Publish(context.Context, queue.EvaluationMessage) error { return nil }

type mockVoices struct{}

func (mockVoices) ListVoices(context.Context, string) ([]voice.Voice, error) {
	return []voice.Voice{{ID: "alloy", Name: "Alloy"}}, nil
}

func (mockVoices) Synthesize(context.Context, string, string) ([]byte, error) {
	return []byte("audio"), nil
}

type mockPrompts struct{}

func (mockPrompts) BuildPrompt(mode, variant string, data map[string]string) (string, error) {
	return "prompt for " + mode, nil
}

type mockObjects struct {
	keys []string
}

func (m *mockObjects) Put(_ context.Context, key string, _ []byte, _ string) (string, error) {
	m.keys = append(m.keys, key)
	return "/audio/" + key, nil
}

type gatewayFixture struct {
	handler  *Handler
	provider *mockProvider
	objects  *mockObjects
}

func newGatewayFixture(t *testing.T) *gatewayFixture {
	t.Helper()
	dsn := fmt.Sprintf("file:gateway_%d?mode=memory&cache=shared", time.Now().UnixNano())
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

	sessionRepo := &repositories.SessionRepository{DB: db}
	questionRepo := &repositories.QuestionRepository{DB: db}
	optimizationRepo := &repositories.OptimizationRepository{DB: db}
	ctx := context.Background()

	if err := db.Create(&models.Resume{ID: "res-1", UserID: "owner"}).Error; err != nil {
		t.Fatalf("seed resume: %v", err)
	}
	if err := db.Create(&models.Job{ID: "job-1", UserID: "owner"}).Error; err != nil {
		t.Fatalf("seed job: %v", err)
	}
	if err := db.Create(&models.Optimization{ID: "opt-1", UserID: "owner", ResumeID: "res-1", JobID: "job-1"}).Error; err != nil {
		t.Fatalf("seed optimization: %v", err)
	}

	bank := make([]models.InterviewQuestion, 2)
	for i := range bank {
		bank[i] = models.InterviewQuestion{
			OptimizationID: "opt-1",
			QuestionType:   models.TypeBehavioral,
			Question:       fmt.Sprintf("bank question %d", i),
			Difficulty:     models.DifficultyMedium,
		}
	}
	if err := questionRepo.CreateBatch(ctx, bank); err != nil {
		t.Fatalf("seed questions: %v", err)
	}

	if err := db.Create(&models.InterviewSession{
		ID: "sess-1", UserID: "owner", OptimizationID: "opt-1",
		Status: models.SessionInProgress, StartTime: time.Now().UTC(),
	}).Error; err != nil {
		t.Fatalf("seed session: %v", err)
	}

	provider := &mockProvider{}
	orchestrator := session.NewOrchestrator(
		sessionRepo, questionRepo, optimizationRepo,
		mockQuota{}, mockPublisher{}, mockVoices{},
		provider, mockPrompts{}, zap.NewNop(),
	)
	objects := &mockObjects{}
	handler := NewHandler(
		"secret", NewMemoryStore(), NewHub(),
		orchestrator, provider, objects, mockVoices{}, zap.NewNop(),
	)
	return &gatewayFixture{handler: handler, provider: provider, objects: objects}
}

// connect registers a client in the state store the way InterviewWS does
// after a successful handshake, with frames captured instead of written.
func (f *gatewayFixture) connect(t *testing.T, connID, userID string) (*Client, *[]WSFrame) {
	t.Helper()
	client := NewClient(connID, nil)
	frames := &[]WSFrame{}
	client.SetSendHook(func(frame WSFrame) {
		*frames = append(*frames, frame)
	})
	if err := f.handler.store.Set(context.Background(), connID, ConnState{UserID: userID}); err != nil {
		t.Fatalf("store connection state: %v", err)
	}
	return client, frames
}

func frameTypes(frames []WSFrame) []string {
	out := make([]string, 0, len(frames))
	for _, f := range frames {
		out = append(out, f.Type)
	}
	return out
}

func TestHandleJoinRejectsForeignSession(t *testing.T) {
	f := newGatewayFixture(t)
	client, frames := f.connect(t, "conn-1", "intruder")
	ctx := context.Background()

	f.handler.handleFrame(ctx, client, WSFrame{
		Type: "join_interview",
		Data: map[string]any{"sessionId": "sess-1"},
	})

	if len(*frames) != 1 || (*frames)[0].Type != "error" {
		t.Fatalf("expected an error frame, got %v", frameTypes(*frames))
	}
	state, err := f.handler.store.Get(ctx, "conn-1")
	if err != nil {
		t.Fatalf("state lookup: %v", err)
	}
	if state.SessionID != "" {
		t.Fatalf("rejected join must not bind the session, got %q", state.SessionID)
	}
}

func TestHandleJoinOwner(t *testing.T) {
	f := newGatewayFixture(t)
	client, frames := f.connect(t, "conn-1", "owner")
	ctx := context.Background()

	f.handler.handleFrame(ctx, client, WSFrame{
		Type: "join_interview",
		Data: map[string]any{"sessionId": "sess-1"},
	})

	if len(*frames) != 1 || (*frames)[0].Type != "joined_interview" {
		t.Fatalf("expected joined_interview, got %v", frameTypes(*frames))
	}
	state, _ := f.handler.store.Get(ctx, "conn-1")
	if state.SessionID != "sess-1" || state.ChunkCount != 0 {
		t.Fatalf("unexpected state after join: %+v", state)
	}
}

func TestAudioChunkRequiresJoin(t *testing.T) {
	f := newGatewayFixture(t)
	client, frames := f.connect(t, "conn-1", "owner")

	f.handler.handleAudioChunk(context.Background(), client, []byte("chunk"))

	if len(*frames) != 1 || (*frames)[0].Type != "error" {
		t.Fatalf("expected an error frame, got %v", frameTypes(*frames))
	}
	if f.provider.transcribeCalls != 0 {
		t.Fatalf("unjoined chunk must not transcribe, got %d calls", f.provider.transcribeCalls)
	}
}

func TestPartialTranscriptionEveryFifthChunk(t *testing.T) {
	f := newGatewayFixture(t)
	client, frames := f.connect(t, "conn-1", "owner")
	ctx := context.Background()
	f.handler.handleJoin(ctx, client, "sess-1")
	*frames = nil

	for i := 0; i < 9; i++ {
		f.handler.handleAudioChunk(ctx, client, []byte("chunk"))
	}
	if f.provider.transcribeCalls != 1 {
		t.Fatalf("expected 1 partial transcription after 9 chunks, got %d", f.provider.transcribeCalls)
	}
	if len(*frames) != 1 || (*frames)[0].Type != "transcription_partial" {
		t.Fatalf("expected one transcription_partial, got %v", frameTypes(*frames))
	}

	f.handler.handleAudioChunk(ctx, client, []byte("chunk"))
	if f.provider.transcribeCalls != 2 {
		t.Fatalf("expected a second partial at chunk 10, got %d calls", f.provider.transcribeCalls)
	}
}

func TestPartialTranscriptionFailureIsSwallowed(t *testing.T) {
	f := newGatewayFixture(t)
	client, frames := f.connect(t, "conn-1", "owner")
	ctx := context.Background()
	f.handler.handleJoin(ctx, client, "sess-1")
	*frames = nil

	f.provider.transcribeFn = func(context.Context, []byte, string) (string, error) {
		return "", errors.New("provider down")
	}
	for i := 0; i < 5; i++ {
		f.handler.handleAudioChunk(ctx, client, []byte("chunk"))
	}

	if len(*frames) != 0 {
		t.Fatalf("a failed partial must emit nothing, got %v", frameTypes(*frames))
	}
}

func TestEndAudioAdvancesAndCompletes(t *testing.T) {
	f := newGatewayFixture(t)
	client, frames := f.connect(t, "conn-1", "owner")
	ctx := context.Background()
	f.handler.handleJoin(ctx, client, "sess-1")
	*frames = nil

	// First answer of a two-question bank.
	f.handler.handleAudioChunk(ctx, client, []byte("chunk"))
	f.handler.handleFrame(ctx, client, WSFrame{Type: "end_audio"})

	got := frameTypes(*frames)
	if len(got) != 2 || got[0] != "transcription" || got[1] != "ai_response" {
		t.Fatalf("expected transcription then ai_response, got %v", got)
	}
	next, ok := (*frames)[1].Data.(*models.InterviewQuestion)
	if !ok || next.Question != "bank question 1" {
		t.Fatalf("unexpected next question payload: %+v", (*frames)[1].Data)
	}
	if len(f.objects.keys) != 1 || !strings.HasPrefix(f.objects.keys[0], "sessions/sess-1/") {
		t.Fatalf("audio not stored under the session prefix: %v", f.objects.keys)
	}

	// Last answer completes the structured loop.
	*frames = nil
	f.handler.handleAudioChunk(ctx, client, []byte("chunk"))
	f.handler.handleFrame(ctx, client, WSFrame{Type: "end_audio"})

	got = frameTypes(*frames)
	if len(got) != 2 || got[0] != "transcription" || got[1] != "interview_completed" {
		t.Fatalf("expected transcription then interview_completed, got %v", got)
	}
}

func TestEndAudioWithEmptyBuffer(t *testing.T) {
	f := newGatewayFixture(t)
	client, frames := f.connect(t, "conn-1", "owner")
	ctx := context.Background()
	f.handler.handleJoin(ctx, client, "sess-1")
	*frames = nil

	f.handler.handleEndAudio(ctx, client)

	if len(*frames) != 1 || (*frames)[0].Type != "error" {
		t.Fatalf("expected an error frame for an empty buffer, got %v", frameTypes(*frames))
	}
}

func TestEndAudioBroadcastsToRoom(t *testing.T) {
	f := newGatewayFixture(t)
	speaker, speakerFrames := f.connect(t, "conn-1", "owner")
	observer, observerFrames := f.connect(t, "conn-2", "owner")
	ctx := context.Background()
	f.handler.handleJoin(ctx, speaker, "sess-1")
	f.handler.handleJoin(ctx, observer, "sess-1")
	*speakerFrames = nil
	*observerFrames = nil

	f.handler.handleAudioChunk(ctx, speaker, []byte("chunk"))
	f.handler.handleFrame(ctx, speaker, WSFrame{Type: "end_audio"})

	got := frameTypes(*observerFrames)
	if len(got) != 2 || got[0] != "transcription" || got[1] != "ai_response" {
		t.Fatalf("observer should follow the exchange, got %v", got)
	}
	if len(*speakerFrames) != 2 {
		t.Fatalf("speaker must not receive duplicate broadcast frames, got %v", frameTypes(*speakerFrames))
	}
}

func TestHandleFramePingAndUnknown(t *testing.T) {
	f := newGatewayFixture(t)
	client, frames := f.connect(t, "conn-1", "owner")
	ctx := context.Background()

	f.handler.handleFrame(ctx, client, WSFrame{Type: "ping"})
	f.handler.handleFrame(ctx, client, WSFrame{Type: "bogus"})

	got := frameTypes(*frames)
	if len(got) != 2 || got[0] != "pong" || got[1] != "error" {
		t.Fatalf("expected pong then error, got %v", got)
	}
}
