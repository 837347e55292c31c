package services

import (
	"context"

	"github.com/lingoforge/authoring-service/internal/clients"
	"github.com/lingoforge/authoring-service/internal/models"
	"github.com/lingoforge/authoring-service/internal/repositories"
	"github.com/stretchr/testify/mock"
)

// MockQuestionAPI is a mock implementation of clients.QuestionAPI
type MockQuestionAPI struct {
	mock.Mock
}

func (m *MockQuestionAPI) CreateQuestion(ctx context.Context, payload *models.QuestionPayload) (*models.Question, error) {
	args := m.Called(ctx, payload)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Question), args.Error(1)
}

func (m *MockQuestionAPI) UpdateQuestion(ctx context.Context, id string, payload *models.QuestionPayload) (*models.Question, error) {
	args := m.Called(ctx, id, payload)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Question), args.Error(1)
}

func (m *MockQuestionAPI) GetQuestion(ctx context.Context, id string) (*models.Question, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Question), args.Error(1)
}

func (m *MockQuestionAPI) ListQuestions(ctx context.Context, lessonID string) ([]*models.Question, error) {
	args := m.Called(ctx, lessonID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Question), args.Error(1)
}

func (m *MockQuestionAPI) GetLesson(ctx context.Context, id string) (*clients.Lesson, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*clients.Lesson), args.Error(1)
}

func (m *MockQuestionAPI) GetCourse(ctx context.Context, id string) (*clients.Course, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*clients.Course), args.Error(1)
}

// MockMediaService is a mock implementation of clients.MediaService
type MockMediaService struct {
	mock.Mock
}

func (m *MockMediaService) UploadAuthorization(ctx context.Context, req clients.UploadAuthRequest) (*clients.UploadAuthorization, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*clients.UploadAuthorization), args.Error(1)
}

func (m *MockMediaService) SignedReadURL(ctx context.Context, objectPath string) (string, error) {
	args := m.Called(ctx, objectPath)
	return args.String(0), args.Error(1)
}

// MockStorageTransfer is a mock implementation of clients.StorageTransfer
type MockStorageTransfer struct {
	mock.Mock
}

func (m *MockStorageTransfer) Put(ctx context.Context, uploadURL, mimeType string, data []byte) error {
	args := m.Called(ctx, uploadURL, mimeType, data)
	return args.Error(0)
}

// MockSubmissionAuditRepository is a mock implementation of repositories.SubmissionAuditRepository
type MockSubmissionAuditRepository struct {
	mock.Mock
}

func (m *MockSubmissionAuditRepository) Create(ctx context.Context, audit *models.SubmissionAudit) error {
	args := m.Called(ctx, audit)
	return args.Error(0)
}

func (m *MockSubmissionAuditRepository) GetByID(ctx context.Context, id uint) (*models.SubmissionAudit, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SubmissionAudit), args.Error(1)
}

func (m *MockSubmissionAuditRepository) List(ctx context.Context, filters repositories.ListAuditFilters) ([]*models.SubmissionAudit, int64, error) {
	args := m.Called(ctx, filters)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*models.SubmissionAudit), args.Get(1).(int64), args.Error(2)
}

func (m *MockSubmissionAuditRepository) CountByLesson(ctx context.Context, lessonID string, status models.SubmissionStatus) (int64, error) {
	args := m.Called(ctx, lessonID, status)
	return args.Get(0).(int64), args.Error(1)
}
