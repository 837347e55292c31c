package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/lingoforge/authoring-service/internal/models"
	"github.com/lingoforge/authoring-service/internal/repositories"
	"gorm.io/gorm"
)

type SubmissionAuditPostgreSQL struct {
	db *gorm.DB
}

func NewSubmissionAuditPostgreSQL(db *gorm.DB) repositories.SubmissionAuditRepository {
	return &SubmissionAuditPostgreSQL{db: db}
}

func (r *SubmissionAuditPostgreSQL) Create(ctx context.Context, audit *models.SubmissionAudit) error {
	if err := r.db.WithContext(ctx).Create(audit).Error; err != nil {
		return fmt.Errorf("failed to create submission audit: %w", err)
	}
	return nil
}

func (r *SubmissionAuditPostgreSQL) GetByID(ctx context.Context, id uint) (*models.SubmissionAudit, error) {
	var audit models.SubmissionAudit
	err := r.db.WithContext(ctx).First(&audit, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("submission audit %d not found", id)
		}
		return nil, fmt.Errorf("failed to get submission audit: %w", err)
	}
	return &audit, nil
}

func (r *SubmissionAuditPostgreSQL) List(ctx context.Context, filters repositories.ListAuditFilters) ([]*models.SubmissionAudit, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.SubmissionAudit{})

	if filters.LessonID != "" {
		query = query.Where("lesson_id = ?", filters.LessonID)
	}
	if filters.SessionID != "" {
		query = query.Where("session_id = ?", filters.SessionID)
	}
	if filters.Status != "" {
		query = query.Where("status = ?", filters.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count submission audits: %w", err)
	}

	limit := filters.Limit
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	var audits []*models.SubmissionAudit
	err := query.Order("created_at DESC").
		Limit(limit).
		Offset(filters.Offset).
		Find(&audits).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list submission audits: %w", err)
	}
	return audits, total, nil
}

func (r *SubmissionAuditPostgreSQL) CountByLesson(ctx context.Context, lessonID string, status models.SubmissionStatus) (int64, error) {
	query := r.db.WithContext(ctx).Model(&models.SubmissionAudit{}).Where("lesson_id = ?", lessonID)
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count submission audits for lesson %s: %w", lessonID, err)
	}
	return count, nil
}
