package repositories

import (
	"context"

	"github.com/lingoforge/authoring-service/internal/models"
)

type ListAuditFilters struct {
	LessonID  string
	SessionID string
	Status    models.SubmissionStatus
	Limit     int
	Offset    int
}

// SubmissionAuditRepository records one row per submission attempt so a
// partially failed pipeline run can be traced after the session is gone.
type SubmissionAuditRepository interface {
	Create(ctx context.Context, audit *models.SubmissionAudit) error
	GetByID(ctx context.Context, id uint) (*models.SubmissionAudit, error)
	List(ctx context.Context, filters ListAuditFilters) ([]*models.SubmissionAudit, int64, error)
	CountByLesson(ctx context.Context, lessonID string, status models.SubmissionStatus) (int64, error)
}
