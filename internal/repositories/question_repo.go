package repositories

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"intervai/internal/models"
)

type QuestionRepository struct {
	DB *gorm.DB
}

// CreateBatch persists a question set in generation order. Each row gets an
// explicit position so the session sequence does not depend on timestamp
// precision or ID ordering.
func (r *QuestionRepository) CreateBatch(ctx context.Context, questions []models.InterviewQuestion) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range questions {
			if questions[i].ID == "" {
				questions[i].ID = uuid.New().String()
			}
			questions[i].Position = i
			if err := tx.Create(&questions[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// ListByOptimization returns the question bank in its fixed sequence.
func (r *QuestionRepository) ListByOptimization(ctx context.Context, optimizationID string) ([]models.InterviewQuestion, error) {
	var questions []models.InterviewQuestion
	err := r.DB.WithContext(ctx).
		Where("optimization_id = ?", optimizationID).
		Order("position ASC").
		Find(&questions).Error
	return questions, err
}

// CountByOptimization returns the question bank size.
func (r *QuestionRepository) CountByOptimization(ctx context.Context, optimizationID string) (int, error) {
	var count int64
	err := r.DB.WithContext(ctx).
		Model(&models.InterviewQuestion{}).
		Where("optimization_id = ?", optimizationID).
		Count(&count).Error
	return int(count), err
}
