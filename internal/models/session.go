package models

import (
	"time"
)

// InterviewSession represents one rehearsal run against a generated
// question bank. Score and Feedback stay nil until the background
// evaluation has run.
type InterviewSession struct {
	ID             string     `gorm:"primaryKey" json:"id"`
	UserID         string     `gorm:"not null;index" json:"userId"`
	OptimizationID string     `gorm:"not null;index" json:"optimizationId"`
	VoiceID        *string    `json:"voiceId,omitempty"`
	Status         string     `gorm:"not null;default:IN_PROGRESS;index" json:"status"`
	Score          *float64   `json:"score,omitempty"`
	Feedback       *string    `gorm:"type:text" json:"feedback,omitempty"`
	StartTime      time.Time  `gorm:"not null" json:"startTime"`
	EndTime        *time.Time `json:"endTime,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// InterviewMessage is one turn of a session transcript. Rows are append-only;
// ordering by created_at (id as tiebreak) defines the transcript and the
// answer-count progress cursor.
type InterviewMessage struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	SessionID string    `gorm:"not null;index" json:"sessionId"`
	Role      string    `gorm:"not null" json:"role"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	AudioURL  *string   `json:"audioUrl,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
