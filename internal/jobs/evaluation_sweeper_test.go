package jobs

import (
	"context"
	"fmt"
	"testing"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"intervai/internal/models"
	"intervai/internal/queue"
	"intervai/internal/repositories"
)

type mockPublisher struct {
	published []queue.EvaluationMessage
}

func (m *mockPublisher) Publish(_ context.Context, msg queue.EvaluationMessage) error {
	m.published = append(m.published, msg)
	return nil
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&models.InterviewSession{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return db
}

func seedSession(t *testing.T, db *gorm.DB, id, status string, endedAgo time.Duration, score *float64) {
	t.Helper()
	end := time.Now().UTC().Add(-endedAgo)
	session := models.InterviewSession{
		ID: id, UserID: "owner", OptimizationID: "opt-1",
		Status: status, Score: score,
		StartTime: end.Add(-time.Hour), EndTime: &end,
	}
	if err := db.Create(&session).Error; err != nil {
		t.Fatalf("seed session %s: %v", id, err)
	}
}

func TestSweepRequeuesStuckSessions(t *testing.T) {
	db := newTestDB(t)
	publisher := &mockPublisher{}
	sweeper := NewEvaluationSweeper(
		&repositories.SessionRepository{DB: db},
		publisher, "*/10 * * * *", 15*time.Minute, zap.NewNop(),
	)

	score := 80.0
	seedSession(t, db, "stuck-1", models.SessionCompleted, time.Hour, nil)
	seedSession(t, db, "recent", models.SessionCompleted, time.Minute, nil)
	seedSession(t, db, "scored", models.SessionEvaluated, time.Hour, &score)
	seedSession(t, db, "active", models.SessionInProgress, 0, nil)

	if err := sweeper.Sweep(context.Background()); err != nil {
		t.Fatalf("sweep: %v", err)
	}

	if len(publisher.published) != 1 {
		t.Fatalf("expected 1 re-enqueued session, got %d", len(publisher.published))
	}
	if publisher.published[0].SessionID != "stuck-1" {
		t.Errorf("wrong session re-enqueued: %s", publisher.published[0].SessionID)
	}
	if publisher.published[0].RequestID == "" {
		t.Errorf("re-enqueued message missing request id")
	}
}

func TestSweepNoStuckSessions(t *testing.T) {
	db := newTestDB(t)
	publisher := &mockPublisher{}
	sweeper := NewEvaluationSweeper(
		&repositories.SessionRepository{DB: db},
		publisher, "*/10 * * * *", 15*time.Minute, zap.NewNop(),
	)

	if err := sweeper.Sweep(context.Background()); err != nil {
		t.Fatalf("sweep on empty db: %v", err)
	}
	if len(publisher.published) != 0 {
		t.Errorf("nothing should be published, got %d", len(publisher.published))
	}
}
