package services

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/lingoforge/authoring-service/internal/clients"
	"github.com/lingoforge/authoring-service/internal/events"
	"github.com/lingoforge/authoring-service/internal/models"
	"github.com/lingoforge/authoring-service/internal/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type submitFixture struct {
	api       *MockQuestionAPI
	media     *MockMediaService
	storage   *MockStorageTransfer
	auditRepo *MockSubmissionAuditRepository
	publisher *events.MockEventPublisher
	drafts    DraftService
	submit    SubmitService
}

func newSubmitFixture(t *testing.T, existingQuestions int) (*submitFixture, *AuthoringSession) {
	t.Helper()

	api := &MockQuestionAPI{}
	api.On("GetLesson", mock.Anything, "lesson-1").Return(testLesson(), nil)
	api.On("GetCourse", mock.Anything, "course-1").Return(&clients.Course{ID: "course-1", Title: "Spanish A1"}, nil)

	existing := make([]*models.Question, existingQuestions)
	for i := range existing {
		existing[i] = &models.Question{}
	}
	api.On("ListQuestions", mock.Anything, "lesson-1").Return(existing, nil)

	media := &MockMediaService{}
	storage := &MockStorageTransfer{}
	auditRepo := &MockSubmissionAuditRepository{}
	publisher := events.NewMockEventPublisher(slog.Default())

	drafts := NewDraftService(api, slog.Default())
	submit := NewSubmitService(drafts, api, media, storage, auditRepo, publisher, validator.New(), slog.Default())

	session, err := drafts.StartSession(context.Background(), &StartSessionRequest{LessonID: "lesson-1"})
	require.NoError(t, err)

	return &submitFixture{
		api:       api,
		media:     media,
		storage:   storage,
		auditRepo: auditRepo,
		publisher: publisher,
		drafts:    drafts,
		submit:    submit,
	}, session
}

func TestSubmitService_LessonCapRejectsLocally(t *testing.T) {
	f, session := newSubmitFixture(t, models.MaxQuestionsPerLesson)
	require.Equal(t, models.MaxQuestionsPerLesson+1, session.Draft.Position)

	session.Draft.Text = "¿Cómo se dice dog?"
	session.Draft.Options = []string{"perro", "gato", "pez", "vaca"}
	session.Draft.Answer = "perro"
	f.auditRepo.On("Create", mock.Anything, mock.MatchedBy(func(a *models.SubmissionAudit) bool {
		return a.Status == models.SubmissionRejected
	})).Return(nil)

	_, err := f.submit.Submit(context.Background(), session.ID)

	var verrs ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, "question_limit", verrs[0].Rule)

	// The rejection happens before any network traffic.
	f.api.AssertNotCalled(t, "CreateQuestion", mock.Anything, mock.Anything)
	f.api.AssertNotCalled(t, "UpdateQuestion", mock.Anything, mock.Anything, mock.Anything)
	f.media.AssertNotCalled(t, "UploadAuthorization", mock.Anything, mock.Anything)
}

func TestSubmitService_ValidationRejectsBeforeNetwork(t *testing.T) {
	f, session := newSubmitFixture(t, 0)
	// Empty draft: no text, no answer.
	f.auditRepo.On("Create", mock.Anything, mock.Anything).Return(nil)

	_, err := f.submit.Submit(context.Background(), session.ID)

	var verrs ValidationErrors
	require.ErrorAs(t, err, &verrs)
	f.api.AssertNotCalled(t, "CreateQuestion", mock.Anything, mock.Anything)
}

func TestSubmitService_CreateWithoutMedia(t *testing.T) {
	f, session := newSubmitFixture(t, 2)

	session.Draft.Text = "Is 'gato' a cat?"
	session.Draft.SetQuestionType(models.TrueFalse)
	require.NoError(t, session.Draft.SetAnswer("True"))

	f.api.On("CreateQuestion", mock.Anything, mock.MatchedBy(func(p *models.QuestionPayload) bool {
		return p.QuestionType == models.TrueFalse && p.Position == 3
	})).Return(&models.Question{ID: "q-new", LessonID: "lesson-1", Position: 3}, nil)
	f.auditRepo.On("Create", mock.Anything, mock.MatchedBy(func(a *models.SubmissionAudit) bool {
		return a.Status == models.SubmissionCreated && a.QuestionID == "q-new"
	})).Return(nil)

	result, err := f.submit.Submit(context.Background(), session.ID)
	require.NoError(t, err)

	assert.Equal(t, models.SubmissionCreated, result.Status)
	assert.Equal(t, "q-new", result.QuestionID)
	assert.False(t, result.Patched)
	assert.Equal(t, 4, result.NextPosition)

	// No media resolved, so no finalize patch.
	f.api.AssertNotCalled(t, "UpdateQuestion", mock.Anything, mock.Anything, mock.Anything)

	// Counter advanced and the draft reset for the next question.
	assert.Equal(t, 4, session.Draft.Position)
	assert.Empty(t, session.Draft.Text)

	published := f.publisher.GetPublishedEvents()
	require.Len(t, published, 1)
	assert.Equal(t, events.EventQuestionCreated, published[0].Type)
}

func TestSubmitService_UploadsThenFinalizes(t *testing.T) {
	f, session := newSubmitFixture(t, 0)

	session.Draft.Text = "¿Qué animal es?"
	session.Draft.Options = []string{"perro", "gato", "pez", "vaca"}
	session.Draft.Answer = "perro"
	session.Draft.AttachImage(&models.PendingFile{Name: "dog.png", MimeType: "image/png", Data: []byte{1, 2}})

	f.api.On("CreateQuestion", mock.Anything, mock.MatchedBy(func(p *models.QuestionPayload) bool {
		// The base create goes out before the image has an object path.
		return p.ImageURL == ""
	})).Return(&models.Question{ID: "q-1", LessonID: "lesson-1"}, nil)

	f.media.On("UploadAuthorization", mock.Anything, mock.MatchedBy(func(req clients.UploadAuthRequest) bool {
		return req.Filename == "dog.png" && req.QuestionID == "q-1" && req.LessonID == "lesson-1"
	})).Return(&clients.UploadAuthorization{URL: "https://storage/put", ObjectName: "uploads/dog.png"}, nil)
	f.storage.On("Put", mock.Anything, "https://storage/put", "image/png", []byte{1, 2}).Return(nil)

	f.api.On("UpdateQuestion", mock.Anything, "q-1", mock.MatchedBy(func(p *models.QuestionPayload) bool {
		return p.ImageURL == "uploads/dog.png"
	})).Return(&models.Question{ID: "q-1"}, nil)

	f.auditRepo.On("Create", mock.Anything, mock.MatchedBy(func(a *models.SubmissionAudit) bool {
		return a.Status == models.SubmissionCreated && a.Patched
	})).Return(nil)

	result, err := f.submit.Submit(context.Background(), session.ID)
	require.NoError(t, err)

	assert.True(t, result.Patched)
	assert.Empty(t, result.FailedMedia)
	f.api.AssertExpectations(t)
	f.media.AssertExpectations(t)
	f.storage.AssertExpectations(t)
}

func TestSubmitService_PartialMediaFailure(t *testing.T) {
	f, session := newSubmitFixture(t, 0)

	d := session.Draft
	d.Text = "Match the sounds"
	d.SetQuestionType(models.MatchingPairs)
	d.SetLeftMediaType(models.LeftAudio)
	require.NoError(t, d.AddPair())
	require.NoError(t, d.AttachPairMedia(0, &models.PendingFile{Name: "dog.mp3", MimeType: "audio/mpeg", Data: []byte{1}}))
	require.NoError(t, d.SetPairRight(0, "dog"))
	require.NoError(t, d.SetCorrectRight(0, "dog"))
	require.NoError(t, d.AddPair())
	require.NoError(t, d.AttachPairMedia(1, &models.PendingFile{Name: "cat.mp3", MimeType: "audio/mpeg", Data: []byte{2}}))
	require.NoError(t, d.SetPairRight(1, "cat"))
	require.NoError(t, d.SetCorrectRight(1, "cat"))

	f.api.On("CreateQuestion", mock.Anything, mock.Anything).
		Return(&models.Question{ID: "q-1", LessonID: "lesson-1"}, nil)

	f.media.On("UploadAuthorization", mock.Anything, mock.MatchedBy(func(req clients.UploadAuthRequest) bool {
		return req.Filename == "dog.mp3"
	})).Return(nil, errors.New("storage unavailable"))
	f.media.On("UploadAuthorization", mock.Anything, mock.MatchedBy(func(req clients.UploadAuthRequest) bool {
		return req.Filename == "cat.mp3"
	})).Return(&clients.UploadAuthorization{URL: "https://storage/cat", ObjectName: "uploads/cat.mp3"}, nil)
	f.storage.On("Put", mock.Anything, "https://storage/cat", "audio/mpeg", []byte{2}).Return(nil)

	// The single patch still goes out carrying the one resolved path.
	f.api.On("UpdateQuestion", mock.Anything, "q-1", mock.MatchedBy(func(p *models.QuestionPayload) bool {
		return len(p.Pairs) == 2 && p.Pairs[1].Left == "uploads/cat.mp3" && p.Pairs[0].Left == "dog.mp3"
	})).Return(&models.Question{ID: "q-1"}, nil)

	f.auditRepo.On("Create", mock.Anything, mock.MatchedBy(func(a *models.SubmissionAudit) bool {
		return a.Status == models.SubmissionPartiallyFailed
	})).Return(nil)

	result, err := f.submit.Submit(context.Background(), session.ID)
	require.NoError(t, err)

	assert.Equal(t, models.SubmissionPartiallyFailed, result.Status)
	require.Len(t, result.FailedMedia, 1)
	assert.Equal(t, "pair_0", result.FailedMedia[0].Item)
	assert.Equal(t, "dog.mp3", result.FailedMedia[0].Filename)
	assert.True(t, result.Patched)

	// One upload-failed event plus the created event.
	published := f.publisher.GetPublishedEvents()
	require.Len(t, published, 2)
	assert.Equal(t, events.EventMediaUploadFailed, published[0].Type)
	assert.Equal(t, events.EventQuestionCreated, published[1].Type)
}

func TestSubmitService_FatalCreateFailure(t *testing.T) {
	f, session := newSubmitFixture(t, 0)

	session.Draft.Text = "Is 'gato' a cat?"
	session.Draft.SetQuestionType(models.TrueFalse)
	require.NoError(t, session.Draft.SetAnswer("True"))

	f.api.On("CreateQuestion", mock.Anything, mock.Anything).
		Return(nil, &clients.APIError{StatusCode: 500, Body: "boom"})
	f.auditRepo.On("Create", mock.Anything, mock.MatchedBy(func(a *models.SubmissionAudit) bool {
		return a.Status == models.SubmissionFailed
	})).Return(nil)

	_, err := f.submit.Submit(context.Background(), session.ID)

	assert.True(t, IsFatalCreate(err))
	f.media.AssertNotCalled(t, "UploadAuthorization", mock.Anything, mock.Anything)

	// The draft survives a fatal create for retry.
	assert.Equal(t, "Is 'gato' a cat?", session.Draft.Text)
}

func TestSubmitService_FinalizePatchFailure(t *testing.T) {
	f, session := newSubmitFixture(t, 0)

	session.Draft.Text = "¿Qué animal es?"
	session.Draft.Options = []string{"perro", "gato", "pez", "vaca"}
	session.Draft.Answer = "perro"
	session.Draft.AttachImage(&models.PendingFile{Name: "dog.png", MimeType: "image/png", Data: []byte{1}})

	f.api.On("CreateQuestion", mock.Anything, mock.Anything).
		Return(&models.Question{ID: "q-1", LessonID: "lesson-1"}, nil)
	f.media.On("UploadAuthorization", mock.Anything, mock.Anything).
		Return(&clients.UploadAuthorization{URL: "https://storage/put", ObjectName: "uploads/dog.png"}, nil)
	f.storage.On("Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	f.api.On("UpdateQuestion", mock.Anything, "q-1", mock.Anything).
		Return(nil, &clients.APIError{StatusCode: 502, Body: "bad gateway"})
	f.auditRepo.On("Create", mock.Anything, mock.MatchedBy(func(a *models.SubmissionAudit) bool {
		return a.Status == models.SubmissionPartiallyFailed && !a.Patched
	})).Return(nil)

	_, err := f.submit.Submit(context.Background(), session.ID)
	assert.ErrorIs(t, err, ErrFinalizeFailed)

	published := f.publisher.GetPublishedEvents()
	require.Len(t, published, 1)
	assert.Equal(t, events.EventFinalizePatchFailed, published[0].Type)
}

func TestSubmitService_RetryAfterFinalizeFailureUpdatesInPlace(t *testing.T) {
	f, session := newSubmitFixture(t, 0)

	session.Draft.Text = "¿Qué animal es?"
	session.Draft.Options = []string{"perro", "gato", "pez", "vaca"}
	session.Draft.Answer = "perro"
	session.Draft.AttachImage(&models.PendingFile{Name: "dog.png", MimeType: "image/png", Data: []byte{1}})

	f.api.On("CreateQuestion", mock.Anything, mock.Anything).
		Return(&models.Question{ID: "q-1", LessonID: "lesson-1"}, nil)
	f.media.On("UploadAuthorization", mock.Anything, mock.Anything).
		Return(&clients.UploadAuthorization{URL: "https://storage/put", ObjectName: "uploads/dog.png"}, nil)
	f.storage.On("Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	f.api.On("UpdateQuestion", mock.Anything, "q-1", mock.Anything).
		Return(nil, &clients.APIError{StatusCode: 502, Body: "bad gateway"}).Once()
	f.auditRepo.On("Create", mock.Anything, mock.Anything).Return(nil)

	_, err := f.submit.Submit(context.Background(), session.ID)
	require.ErrorIs(t, err, ErrFinalizeFailed)

	// The retry resubmits through update: the base call carries the already
	// resolved path and no second record is created.
	f.api.On("UpdateQuestion", mock.Anything, "q-1", mock.MatchedBy(func(p *models.QuestionPayload) bool {
		return p.ImageURL == "uploads/dog.png"
	})).Return(&models.Question{ID: "q-1", LessonID: "lesson-1"}, nil)

	result, err := f.submit.Submit(context.Background(), session.ID)
	require.NoError(t, err)

	assert.Equal(t, models.SubmissionCreated, result.Status)
	assert.Equal(t, "q-1", result.QuestionID)
	f.api.AssertNumberOfCalls(t, "CreateQuestion", 1)
	f.media.AssertNumberOfCalls(t, "UploadAuthorization", 1)

	// The binding is released once the question lands, so the next question
	// in this session creates its own record.
	assert.Empty(t, session.QuestionID)
	assert.Equal(t, 2, session.Draft.Position)
}

func TestSubmitService_EditModeUpdatesAndClosesSession(t *testing.T) {
	api := &MockQuestionAPI{}
	api.On("GetLesson", mock.Anything, "lesson-1").Return(testLesson(), nil)
	api.On("GetCourse", mock.Anything, "course-1").Return(&clients.Course{ID: "course-1"}, nil)
	api.On("GetQuestion", mock.Anything, "q-7").Return(&models.Question{
		ID:           "q-7",
		LessonID:     "lesson-1",
		Position:     2,
		QuestionType: models.TrueFalse,
		QuestionText: "El gato es grande",
		Answer:       "False",
	}, nil)

	auditRepo := &MockSubmissionAuditRepository{}
	publisher := events.NewMockEventPublisher(slog.Default())
	drafts := NewDraftService(api, slog.Default())
	submit := NewSubmitService(drafts, api, &MockMediaService{}, &MockStorageTransfer{},
		auditRepo, publisher, validator.New(), slog.Default())

	ctx := context.Background()
	session, err := drafts.StartSession(ctx, &StartSessionRequest{LessonID: "lesson-1", QuestionID: "q-7"})
	require.NoError(t, err)

	api.On("UpdateQuestion", mock.Anything, "q-7", mock.MatchedBy(func(p *models.QuestionPayload) bool {
		return p.Position == 2 && p.QuestionType == models.TrueFalse
	})).Return(&models.Question{ID: "q-7"}, nil)
	auditRepo.On("Create", mock.Anything, mock.MatchedBy(func(a *models.SubmissionAudit) bool {
		return a.Status == models.SubmissionUpdated
	})).Return(nil)

	result, err := submit.Submit(ctx, session.ID)
	require.NoError(t, err)

	assert.Equal(t, models.SubmissionUpdated, result.Status)
	api.AssertNotCalled(t, "CreateQuestion", mock.Anything, mock.Anything)

	// Edit sessions end at submit.
	_, err = drafts.GetSession(ctx, session.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSubmitService_RejectsConcurrentSubmit(t *testing.T) {
	f, session := newSubmitFixture(t, 0)

	require.NoError(t, session.beginSubmit())
	defer session.endSubmit()

	_, err := f.submit.Submit(context.Background(), session.ID)
	assert.ErrorIs(t, err, ErrSubmissionInFlight)
}
