package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/lingoforge/authoring-service/internal/clients"
	"github.com/lingoforge/authoring-service/internal/models"
)

// DraftService manages authoring sessions and every edit applied to a draft
// before it is submitted. Edits are local only; nothing here talks to the
// question API except session start, which resolves lesson context.
type DraftService interface {
	// StartSession opens a fresh draft for a lesson. When QuestionID is set
	// the existing question is loaded into the draft for editing.
	StartSession(ctx context.Context, req *StartSessionRequest) (*AuthoringSession, error)
	GetSession(ctx context.Context, sessionID string) (*AuthoringSession, error)
	AbandonSession(ctx context.Context, sessionID string) error

	SetQuestionType(ctx context.Context, sessionID string, questionType models.QuestionType) (*AuthoringSession, error)
	UpdateFields(ctx context.Context, sessionID string, req *UpdateFieldsRequest) (*AuthoringSession, error)

	AttachImage(ctx context.Context, sessionID string, file *models.PendingFile) (*AuthoringSession, error)
	AttachAudio(ctx context.Context, sessionID string, file *models.PendingFile) (*AuthoringSession, error)
	AttachOptionImage(ctx context.Context, sessionID string, index int, file *models.PendingFile) (*AuthoringSession, error)

	AddPair(ctx context.Context, sessionID string) (*AuthoringSession, error)
	RemovePair(ctx context.Context, sessionID string, index int) (*AuthoringSession, error)
	UpdatePair(ctx context.Context, sessionID string, index int, req *UpdatePairRequest) (*AuthoringSession, error)
	AttachPairMedia(ctx context.Context, sessionID string, index int, file *models.PendingFile) (*AuthoringSession, error)
	SetLeftMediaType(ctx context.Context, sessionID string, leftType models.LeftMediaType) (*AuthoringSession, error)
}

type StartSessionRequest struct {
	LessonID   string `json:"lesson_id" validate:"required"`
	QuestionID string `json:"question_id"`
}

// UpdateFieldsRequest carries partial edits; nil pointers leave the field
// untouched. Options replaces a single slot, not the whole list.
type UpdateFieldsRequest struct {
	QuestionText *string  `json:"question_text"`
	Explanation  *string  `json:"explanation"`
	Answer       *string  `json:"answer"`
	Tags         []string `json:"tags"`
	OptionIndex  *int     `json:"option_index"`
	OptionValue  *string  `json:"option_value"`
}

type UpdatePairRequest struct {
	Left         *string `json:"left"`
	Right        *string `json:"right"`
	CorrectRight *string `json:"correct_right"`
}

type draftService struct {
	store       *sessionStore
	questionAPI clients.QuestionAPI
	logger      *slog.Logger
}

func NewDraftService(questionAPI clients.QuestionAPI, logger *slog.Logger) DraftService {
	return &draftService{
		store:       newSessionStore(),
		questionAPI: questionAPI,
		logger:      logger,
	}
}

func (s *draftService) StartSession(ctx context.Context, req *StartSessionRequest) (*AuthoringSession, error) {
	if strings.TrimSpace(req.LessonID) == "" {
		return nil, fmt.Errorf("%w: lesson_id is required", ErrBadRequest)
	}

	lesson, err := s.questionAPI.GetLesson(ctx, req.LessonID)
	if err != nil {
		if clients.IsNotFound(err) {
			return nil, fmt.Errorf("%w: lesson %s", ErrNotFound, req.LessonID)
		}
		return nil, fmt.Errorf("failed to load lesson %s: %w", req.LessonID, err)
	}

	session := newAuthoringSession(req.LessonID)
	session.LessonTitle = lesson.Title
	session.CourseID = lesson.CourseID

	if course, err := s.questionAPI.GetCourse(ctx, lesson.CourseID); err == nil {
		session.CourseTitle = course.Title
	} else {
		s.logger.Warn("Course lookup failed, continuing without title",
			"course_id", lesson.CourseID, "error", err)
	}

	var draft *models.QuestionDraft

	if req.QuestionID != "" {
		question, err := s.questionAPI.GetQuestion(ctx, req.QuestionID)
		if err != nil {
			if clients.IsNotFound(err) {
				return nil, fmt.Errorf("%w: question %s", ErrQuestionNotFound, req.QuestionID)
			}
			return nil, fmt.Errorf("failed to load question %s: %w", req.QuestionID, err)
		}
		draft = models.NewQuestionDraft(req.LessonID, question.Position)
		draft.LoadQuestion(question)
		session.QuestionID = req.QuestionID
		session.EditMode = true
	} else {
		existing, err := s.questionAPI.ListQuestions(ctx, req.LessonID)
		if err != nil {
			return nil, fmt.Errorf("failed to count questions for lesson %s: %w", req.LessonID, err)
		}
		draft = models.NewQuestionDraft(req.LessonID, len(existing)+1)
	}

	session.Draft = draft
	s.store.add(session)

	s.logger.Info("Authoring session started",
		"session_id", session.ID,
		"lesson_id", session.LessonID,
		"question_id", session.QuestionID,
		"position", draft.Position)

	return session, nil
}

func (s *draftService) GetSession(_ context.Context, sessionID string) (*AuthoringSession, error) {
	return s.store.get(sessionID)
}

func (s *draftService) AbandonSession(_ context.Context, sessionID string) error {
	session, err := s.store.get(sessionID)
	if err != nil {
		return err
	}
	if session.isSubmitting() {
		return ErrSubmissionInFlight
	}
	s.store.remove(sessionID)
	s.logger.Info("Authoring session abandoned", "session_id", sessionID)
	return nil
}

func (s *draftService) SetQuestionType(_ context.Context, sessionID string, questionType models.QuestionType) (*AuthoringSession, error) {
	return s.mutate(sessionID, func(d *models.QuestionDraft) error {
		d.SetQuestionType(questionType)
		return nil
	})
}

func (s *draftService) UpdateFields(_ context.Context, sessionID string, req *UpdateFieldsRequest) (*AuthoringSession, error) {
	return s.mutate(sessionID, func(d *models.QuestionDraft) error {
		if req.QuestionText != nil {
			d.Text = *req.QuestionText
		}
		if req.Explanation != nil {
			d.Explanation = *req.Explanation
		}
		if req.Tags != nil {
			d.Tags = req.Tags
		}
		if req.Answer != nil {
			if err := d.SetAnswer(*req.Answer); err != nil {
				return err
			}
		}
		if req.OptionIndex != nil {
			value := ""
			if req.OptionValue != nil {
				value = *req.OptionValue
			}
			if err := d.SetOption(*req.OptionIndex, value); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *draftService) AttachImage(_ context.Context, sessionID string, file *models.PendingFile) (*AuthoringSession, error) {
	return s.mutate(sessionID, func(d *models.QuestionDraft) error {
		d.AttachImage(file)
		return nil
	})
}

func (s *draftService) AttachAudio(_ context.Context, sessionID string, file *models.PendingFile) (*AuthoringSession, error) {
	return s.mutate(sessionID, func(d *models.QuestionDraft) error {
		d.AttachAudio(file)
		return nil
	})
}

func (s *draftService) AttachOptionImage(_ context.Context, sessionID string, index int, file *models.PendingFile) (*AuthoringSession, error) {
	return s.mutate(sessionID, func(d *models.QuestionDraft) error {
		return d.AttachOptionImage(index, file)
	})
}

func (s *draftService) AddPair(_ context.Context, sessionID string) (*AuthoringSession, error) {
	return s.mutate(sessionID, func(d *models.QuestionDraft) error {
		return d.AddPair()
	})
}

func (s *draftService) RemovePair(_ context.Context, sessionID string, index int) (*AuthoringSession, error) {
	return s.mutate(sessionID, func(d *models.QuestionDraft) error {
		return d.RemovePair(index)
	})
}

func (s *draftService) UpdatePair(_ context.Context, sessionID string, index int, req *UpdatePairRequest) (*AuthoringSession, error) {
	return s.mutate(sessionID, func(d *models.QuestionDraft) error {
		if req.Left != nil {
			if err := d.SetPairLeft(index, *req.Left); err != nil {
				return err
			}
		}
		if req.Right != nil {
			if err := d.SetPairRight(index, *req.Right); err != nil {
				return err
			}
		}
		if req.CorrectRight != nil {
			if err := d.SetCorrectRight(index, *req.CorrectRight); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *draftService) AttachPairMedia(_ context.Context, sessionID string, index int, file *models.PendingFile) (*AuthoringSession, error) {
	return s.mutate(sessionID, func(d *models.QuestionDraft) error {
		return d.AttachPairMedia(index, file)
	})
}

func (s *draftService) SetLeftMediaType(_ context.Context, sessionID string, leftType models.LeftMediaType) (*AuthoringSession, error) {
	return s.mutate(sessionID, func(d *models.QuestionDraft) error {
		d.SetLeftMediaType(leftType)
		return nil
	})
}

// mutate applies fn to the session's draft under the session lock.
func (s *draftService) mutate(sessionID string, fn func(*models.QuestionDraft) error) (*AuthoringSession, error) {
	session, err := s.store.get(sessionID)
	if err != nil {
		return nil, err
	}
	if err := session.withLock(func() error { return fn(session.Draft) }); err != nil {
		return nil, err
	}
	return session, nil
}
