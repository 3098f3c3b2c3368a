package repositories

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"intervai/internal/models"
)

type OptimizationRepository struct {
	DB *gorm.DB
}

// GetByID retrieves an optimization together with its resume and job payloads.
func (r *OptimizationRepository) GetByID(ctx context.Context, id string) (*models.Optimization, error) {
	var opt models.Optimization
	err := r.DB.WithContext(ctx).
		Preload("Resume").
		Preload("Job").
		Where("id = ?", id).
		First(&opt).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, err
	}
	return &opt, nil
}
