package events

import (
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/lingoforge/authoring-service/internal/models"
)

// EventType represents different types of authoring events
type EventType string

const (
	// Question lifecycle
	EventQuestionCreated EventType = "question.created"
	EventQuestionUpdated EventType = "question.updated"

	// Media pipeline
	EventMediaUploadFailed    EventType = "media.upload_failed"
	EventFinalizePatchFailed  EventType = "question.finalize_failed"

	// Bulk authoring
	EventQuestionsImported EventType = "lesson.questions_imported"
	EventQuestionsExported EventType = "lesson.questions_exported"
)

// AuthoringEvent is the base event structure for all authoring events
type AuthoringEvent struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Source    string                 `json:"source"`
	Version   string                 `json:"version"`
	Data      interface{}            `json:"data"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

type QuestionCreatedEvent struct {
	QuestionID   string              `json:"question_id"`
	LessonID     string              `json:"lesson_id"`
	CourseID     string              `json:"course_id,omitempty"`
	QuestionType models.QuestionType `json:"question_type"`
	Position     int                 `json:"position"`
	MediaCount   int                 `json:"media_count"`
}

type QuestionUpdatedEvent struct {
	QuestionID   string              `json:"question_id"`
	LessonID     string              `json:"lesson_id"`
	QuestionType models.QuestionType `json:"question_type"`
}

type MediaUploadFailedEvent struct {
	QuestionID string `json:"question_id"`
	LessonID   string `json:"lesson_id"`
	Item       string `json:"item"` // image, audio, pair:<i>, option:<i>
	Filename   string `json:"filename"`
	Reason     string `json:"reason"`
}

type FinalizePatchFailedEvent struct {
	QuestionID    string   `json:"question_id"`
	LessonID      string   `json:"lesson_id"`
	ResolvedPaths []string `json:"resolved_paths"`
	Reason        string   `json:"reason"`
}

type QuestionsImportedEvent struct {
	LessonID     string `json:"lesson_id"`
	TotalRows    int    `json:"total_rows"`
	SuccessCount int    `json:"success_count"`
	ErrorCount   int    `json:"error_count"`
}

type QuestionsExportedEvent struct {
	LessonID      string `json:"lesson_id"`
	QuestionCount int    `json:"question_count"`
	Format        string `json:"format"`
}

// Event factory functions

func newEvent(eventType EventType, data interface{}) *AuthoringEvent {
	return &AuthoringEvent{
		ID:        watermill.NewUUID(),
		Type:      eventType,
		Timestamp: time.Now(),
		Source:    "authoring-service",
		Version:   "1.0",
		Data:      data,
	}
}

func NewQuestionCreatedEvent(questionID, lessonID, courseID string, questionType models.QuestionType, position, mediaCount int) *AuthoringEvent {
	return newEvent(EventQuestionCreated, QuestionCreatedEvent{
		QuestionID:   questionID,
		LessonID:     lessonID,
		CourseID:     courseID,
		QuestionType: questionType,
		Position:     position,
		MediaCount:   mediaCount,
	})
}

func NewQuestionUpdatedEvent(questionID, lessonID string, questionType models.QuestionType) *AuthoringEvent {
	return newEvent(EventQuestionUpdated, QuestionUpdatedEvent{
		QuestionID:   questionID,
		LessonID:     lessonID,
		QuestionType: questionType,
	})
}

func NewMediaUploadFailedEvent(questionID, lessonID, item, filename, reason string) *AuthoringEvent {
	return newEvent(EventMediaUploadFailed, MediaUploadFailedEvent{
		QuestionID: questionID,
		LessonID:   lessonID,
		Item:       item,
		Filename:   filename,
		Reason:     reason,
	})
}

func NewFinalizePatchFailedEvent(questionID, lessonID string, resolvedPaths []string, reason string) *AuthoringEvent {
	return newEvent(EventFinalizePatchFailed, FinalizePatchFailedEvent{
		QuestionID:    questionID,
		LessonID:      lessonID,
		ResolvedPaths: resolvedPaths,
		Reason:        reason,
	})
}

func NewQuestionsImportedEvent(lessonID string, totalRows, successCount, errorCount int) *AuthoringEvent {
	return newEvent(EventQuestionsImported, QuestionsImportedEvent{
		LessonID:     lessonID,
		TotalRows:    totalRows,
		SuccessCount: successCount,
		ErrorCount:   errorCount,
	})
}

func NewQuestionsExportedEvent(lessonID string, questionCount int, format string) *AuthoringEvent {
	return newEvent(EventQuestionsExported, QuestionsExportedEvent{
		LessonID:      lessonID,
		QuestionCount: questionCount,
		Format:        format,
	})
}
