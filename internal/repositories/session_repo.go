package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"intervai/internal/models"
)

type SessionRepository struct {
	DB *gorm.DB
}

// Create persists a new session, assigning an ID if none is set.
func (r *SessionRepository) Create(ctx context.Context, session *models.InterviewSession) error {
	if session.ID == "" {
		session.ID = uuid.New().String()
	}
	return r.DB.WithContext(ctx).Create(session).Error
}

// GetByID retrieves a session.
func (r *SessionRepository) GetByID(ctx context.Context, id string) (*models.InterviewSession, error) {
	var session models.InterviewSession
	err := r.DB.WithContext(ctx).Where("id = ?", id).First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, err
	}
	return &session, nil
}

// Save writes back a mutated session.
func (r *SessionRepository) Save(ctx context.Context, session *models.InterviewSession) error {
	return r.DB.WithContext(ctx).Save(session).Error
}

// AppendMessage appends one transcript turn.
func (r *SessionRepository) AppendMessage(ctx context.Context, msg *models.InterviewMessage) error {
	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	return r.DB.WithContext(ctx).Create(msg).Error
}

// ListMessages returns the transcript in timestamp order.
func (r *SessionRepository) ListMessages(ctx context.Context, sessionID string) ([]models.InterviewMessage, error) {
	var messages []models.InterviewMessage
	err := r.DB.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at ASC, id ASC").
		Find(&messages).Error
	return messages, err
}

// CountUserMessages returns the answered-count progress cursor.
func (r *SessionRepository) CountUserMessages(ctx context.Context, sessionID string) (int, error) {
	var count int64
	err := r.DB.WithContext(ctx).
		Model(&models.InterviewMessage{}).
		Where("session_id = ? AND role = ?", sessionID, models.RoleUser).
		Count(&count).Error
	return int(count), err
}

// AppendAnswer appends a USER message and returns the resulting answered
// count in one transaction. The session row is locked for the duration on
// backends that support it, so two concurrent submissions cannot both read a
// stale count and hand out the same next question.
func (r *SessionRepository) AppendAnswer(ctx context.Context, sessionID string, msg *models.InterviewMessage) (int, error) {
	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}

	var answered int64
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		locked := tx
		if tx.Dialector.Name() == "postgres" {
			locked = tx.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		var session models.InterviewSession
		if err := locked.Where("id = ?", sessionID).First(&session).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.ErrNotFound
			}
			return err
		}

		if err := tx.Create(msg).Error; err != nil {
			return err
		}

		return tx.Model(&models.InterviewMessage{}).
			Where("session_id = ? AND role = ?", sessionID, models.RoleUser).
			Count(&answered).Error
	})
	if err != nil {
		return 0, err
	}
	return int(answered), nil
}

// ListUnevaluated returns sessions completed before cutoff that still have no
// score. The cron sweeper re-enqueues these in case a queue message was lost.
func (r *SessionRepository) ListUnevaluated(ctx context.Context, cutoff time.Time) ([]models.InterviewSession, error) {
	var sessions []models.InterviewSession
	err := r.DB.WithContext(ctx).
		Where("status = ? AND score IS NULL AND end_time < ?", models.SessionCompleted, cutoff).
		Find(&sessions).Error
	return sessions, err
}
