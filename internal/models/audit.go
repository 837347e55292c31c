package models

import (
	"time"

	"gorm.io/datatypes"
)

type SubmissionStatus string

const (
	SubmissionCreated         SubmissionStatus = "created"
	SubmissionUpdated         SubmissionStatus = "updated"
	SubmissionPartiallyFailed SubmissionStatus = "partially_failed"
	SubmissionRejected        SubmissionStatus = "rejected"
	SubmissionFailed          SubmissionStatus = "failed"
)

// SubmissionAudit is one row per submit attempt: what was sent, what came
// back, and which media items did not make it.
type SubmissionAudit struct {
	ID        uint   `json:"id" gorm:"primaryKey"`
	SessionID string `json:"session_id" gorm:"not null;size:36;index"`

	// Target information
	LessonID   string `json:"lesson_id" gorm:"not null;size:36;index"`
	CourseID   string `json:"course_id" gorm:"size:36;index"`
	QuestionID string `json:"question_id" gorm:"size:36;index"`

	QuestionType QuestionType     `json:"question_type" gorm:"not null;size:32"`
	Position     int              `json:"position" gorm:"not null"`
	Status       SubmissionStatus `json:"status" gorm:"not null;size:32;index"`

	// Per-item upload outcomes and the finalize patch, if any
	FailedMedia datatypes.JSON `json:"failed_media" gorm:"type:jsonb"`
	Patched     bool           `json:"patched" gorm:"default:false"`
	Error       string         `json:"error" gorm:"type:text"`

	CreatedAt time.Time `json:"created_at" gorm:"index"`
}

func (SubmissionAudit) TableName() string {
	return "submission_audits"
}
