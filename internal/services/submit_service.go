package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/lingoforge/authoring-service/internal/clients"
	"github.com/lingoforge/authoring-service/internal/events"
	"github.com/lingoforge/authoring-service/internal/models"
	"github.com/lingoforge/authoring-service/internal/repositories"
	"github.com/lingoforge/authoring-service/internal/validator"
)

// SubmitService runs the submission pipeline for a session's draft:
// validate, create or update the base question, upload pending media one by
// one, then patch the question once if anything resolved. Media failures are
// collected, never fatal, once the base question exists.
type SubmitService interface {
	Submit(ctx context.Context, sessionID string) (*SubmitResult, error)
}

type FailedMediaItem struct {
	Item     string `json:"item"`
	Filename string `json:"filename"`
	Reason   string `json:"reason"`
}

type SubmitResult struct {
	Status       models.SubmissionStatus `json:"status"`
	QuestionID   string                  `json:"question_id"`
	Position     int                     `json:"position"`
	Patched      bool                    `json:"patched"`
	FailedMedia  []FailedMediaItem       `json:"failed_media,omitempty"`
	NextPosition int                     `json:"next_position,omitempty"`
}

type submitService struct {
	drafts      DraftService
	questionAPI clients.QuestionAPI
	media       clients.MediaService
	storage     clients.StorageTransfer
	auditRepo   repositories.SubmissionAuditRepository
	publisher   events.EventPublisher
	validator   *validator.Validator
	logger      *slog.Logger
}

func NewSubmitService(
	drafts DraftService,
	questionAPI clients.QuestionAPI,
	media clients.MediaService,
	storage clients.StorageTransfer,
	auditRepo repositories.SubmissionAuditRepository,
	publisher events.EventPublisher,
	v *validator.Validator,
	logger *slog.Logger,
) SubmitService {
	return &submitService{
		drafts:      drafts,
		questionAPI: questionAPI,
		media:       media,
		storage:     storage,
		auditRepo:   auditRepo,
		publisher:   publisher,
		validator:   v,
		logger:      logger,
	}
}

// pendingUpload names one queued file and knows how to write its resolved
// object path back into the draft.
type pendingUpload struct {
	item    string
	file    *models.PendingFile
	resolve func(objectPath string)
}

func (s *submitService) Submit(ctx context.Context, sessionID string) (*SubmitResult, error) {
	session, err := s.drafts.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := session.beginSubmit(); err != nil {
		return nil, err
	}
	defer session.endSubmit()

	draft := session.Draft
	editMode := session.EditMode

	// Local gate first. A rejected draft produces zero network calls; the
	// question cap surfaces here as the "question_limit" rule.
	if verrs := s.validator.Draft().ValidateForSubmit(draft); len(verrs) > 0 {
		s.recordAudit(ctx, session, "", models.SubmissionRejected, nil, false, verrs.Error())
		return nil, verrs
	}

	// Base create or update with whatever media is already resolved. A session
	// already bound to a question (edit mode, or a create whose finalize patch
	// failed last time) goes through update, never a second create.
	payload := draft.BuildPayload()

	var question *models.Question
	if session.QuestionID != "" {
		question, err = s.questionAPI.UpdateQuestion(ctx, session.QuestionID, payload)
	} else {
		question, err = s.questionAPI.CreateQuestion(ctx, payload)
	}
	if err != nil {
		s.logger.Error("Base question submit failed",
			"session_id", session.ID,
			"lesson_id", draft.LessonID,
			"edit", editMode,
			"error", err)
		s.recordAudit(ctx, session, session.QuestionID, models.SubmissionFailed, nil, false, err.Error())
		return nil, &CreateError{LessonID: draft.LessonID, Err: err}
	}

	questionID := question.ID
	session.QuestionID = questionID

	// Best-effort sequential uploads. One failure never aborts the rest.
	uploads := s.collectPendingUploads(draft)
	var failed []FailedMediaItem
	resolvedCount := 0
	for _, up := range uploads {
		objectPath, err := s.uploadOne(ctx, session, questionID, up)
		if err != nil {
			s.logger.Warn("Media upload failed",
				"session_id", session.ID,
				"question_id", questionID,
				"item", up.item,
				"filename", up.file.Name,
				"error", err)
			failed = append(failed, FailedMediaItem{
				Item:     up.item,
				Filename: up.file.Name,
				Reason:   err.Error(),
			})
			s.publishEvent(ctx, events.NewMediaUploadFailedEvent(
				questionID, draft.LessonID, up.item, up.file.Name, err.Error()))
			continue
		}
		up.resolve(objectPath)
		resolvedCount++
	}

	// One finalize patch carries every resolved path. Skipped when nothing new
	// resolved in this run.
	patched := false
	if resolvedCount > 0 {
		finalPayload := draft.BuildPayload()
		if _, err := s.questionAPI.UpdateQuestion(ctx, questionID, finalPayload); err != nil {
			s.logger.Error("Finalize patch failed",
				"session_id", session.ID,
				"question_id", questionID,
				"resolved", resolvedCount,
				"error", err)
			s.publishEvent(ctx, events.NewFinalizePatchFailedEvent(
				questionID, draft.LessonID, resolvedObjectPaths(draft), err.Error()))
			s.recordAudit(ctx, session, questionID, models.SubmissionPartiallyFailed, failed, false,
				fmt.Sprintf("finalize patch failed: %v", err))
			return nil, fmt.Errorf("%w: question %s: %v", ErrFinalizeFailed, questionID, err)
		}
		patched = true
	}

	status := models.SubmissionCreated
	if editMode {
		status = models.SubmissionUpdated
	}
	if len(failed) > 0 {
		status = models.SubmissionPartiallyFailed
	}
	s.recordAudit(ctx, session, questionID, status, failed, patched, "")

	if editMode {
		s.publishEvent(ctx, events.NewQuestionUpdatedEvent(questionID, draft.LessonID, draft.Type))
	} else {
		s.publishEvent(ctx, events.NewQuestionCreatedEvent(
			questionID, draft.LessonID, session.CourseID, draft.Type, draft.Position, resolvedCount))
	}

	result := &SubmitResult{
		Status:      status,
		QuestionID:  questionID,
		Position:    draft.Position,
		Patched:     patched,
		FailedMedia: failed,
	}

	// Create mode keeps the session alive for the next question: the draft
	// resets and the position counter advances. Edit mode ends the session.
	if editMode {
		session.endSubmit()
		if err := s.drafts.AbandonSession(ctx, session.ID); err != nil {
			s.logger.Warn("Failed to close edit session", "session_id", session.ID, "error", err)
		}
	} else {
		// The binding set after base create is released: the next question in
		// this session must create its own record.
		session.QuestionID = ""
		nextPosition := draft.Position + 1
		draft.Reset()
		draft.Position = nextPosition
		result.NextPosition = nextPosition
	}

	s.logger.Info("Submission pipeline finished",
		"session_id", session.ID,
		"question_id", questionID,
		"status", status,
		"uploads", len(uploads),
		"failed", len(failed),
		"patched", patched)

	return result, nil
}

// collectPendingUploads walks the draft in a fixed order: question image,
// question audio, listen option images, then matching pair media.
func (s *submitService) collectPendingUploads(draft *models.QuestionDraft) []pendingUpload {
	var uploads []pendingUpload

	if draft.Type != models.ListenAndMatch && draft.Image.IsPending() {
		uploads = append(uploads, pendingUpload{
			item: "image",
			file: draft.Image.File,
			resolve: func(path string) {
				draft.Image = models.UploadedMedia(path)
			},
		})
	}
	if draft.Audio.IsPending() {
		uploads = append(uploads, pendingUpload{
			item: "audio",
			file: draft.Audio.File,
			resolve: func(path string) {
				draft.Audio = models.UploadedMedia(path)
			},
		})
	}

	if draft.Type == models.ListenAndMatch {
		for i := range draft.OptionImages {
			if !draft.OptionImages[i].IsPending() {
				continue
			}
			i := i
			uploads = append(uploads, pendingUpload{
				item: fmt.Sprintf("option_image_%d", i),
				file: draft.OptionImages[i].File,
				resolve: func(path string) {
					draft.OptionImages[i] = models.UploadedMedia(path)
				},
			})
		}
	}

	if draft.Type == models.MatchingPairs && draft.LeftType != models.LeftText {
		for i := range draft.PairMedia {
			if !draft.PairMedia[i].IsPending() {
				continue
			}
			i := i
			uploads = append(uploads, pendingUpload{
				item: fmt.Sprintf("pair_%d", i),
				file: draft.PairMedia[i].File,
				resolve: func(path string) {
					draft.ResolvePairMedia(i, path)
				},
			})
		}
	}

	return uploads
}

func (s *submitService) uploadOne(ctx context.Context, session *AuthoringSession, questionID string, up pendingUpload) (string, error) {
	auth, err := s.media.UploadAuthorization(ctx, clients.UploadAuthRequest{
		Filename:   up.file.Name,
		MimeType:   up.file.MimeType,
		CourseID:   session.CourseID,
		LessonID:   session.LessonID,
		QuestionID: questionID,
	})
	if err != nil {
		return "", NewMediaUploadError(up.item, up.file.Name, err)
	}
	if err := s.storage.Put(ctx, auth.URL, up.file.MimeType, up.file.Data); err != nil {
		return "", NewMediaUploadError(up.item, up.file.Name, err)
	}
	return auth.ObjectName, nil
}

func resolvedObjectPaths(draft *models.QuestionDraft) []string {
	var paths []string
	if draft.Image.IsUploaded() {
		paths = append(paths, draft.Image.ObjectPath)
	}
	if draft.Audio.IsUploaded() {
		paths = append(paths, draft.Audio.ObjectPath)
	}
	for _, ref := range draft.OptionImages {
		if ref.IsUploaded() {
			paths = append(paths, ref.ObjectPath)
		}
	}
	for _, ref := range draft.PairMedia {
		if ref.IsUploaded() {
			paths = append(paths, ref.ObjectPath)
		}
	}
	return paths
}

func (s *submitService) recordAudit(ctx context.Context, session *AuthoringSession, questionID string, status models.SubmissionStatus, failed []FailedMediaItem, patched bool, errMsg string) {
	audit := &models.SubmissionAudit{
		SessionID:    session.ID,
		LessonID:     session.LessonID,
		CourseID:     session.CourseID,
		QuestionID:   questionID,
		QuestionType: session.Draft.Type,
		Position:     session.Draft.Position,
		Status:       status,
		Patched:      patched,
		Error:        errMsg,
	}
	if len(failed) > 0 {
		if data, err := json.Marshal(failed); err == nil {
			audit.FailedMedia = data
		}
	}
	if err := s.auditRepo.Create(ctx, audit); err != nil {
		s.logger.Error("Failed to record submission audit",
			"session_id", session.ID, "status", status, "error", err)
	}
}

func (s *submitService) publishEvent(ctx context.Context, event *events.AuthoringEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishAuthoringEvent(ctx, event); err != nil {
		s.logger.Error("Failed to publish authoring event", "event_type", event.Type, "error", err)
	}
}
