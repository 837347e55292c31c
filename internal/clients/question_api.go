package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/lingoforge/authoring-service/internal/models"
)

// Lesson is the slice of the lesson record the authoring engine depends on.
type Lesson struct {
	ID           string `json:"id"`
	CourseID     string `json:"course_id"`
	Unit         int    `json:"unit"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	Difficulty   string `json:"difficulty"`
	XPReward     int    `json:"xp_reward"`
	CrownsReward int    `json:"crowns_reward"`
}

type Course struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// QuestionAPI is the course/lesson/question backend. Everything behind it is
// an external collaborator; the engine only depends on this surface.
type QuestionAPI interface {
	CreateQuestion(ctx context.Context, payload *models.QuestionPayload) (*models.Question, error)
	UpdateQuestion(ctx context.Context, id string, payload *models.QuestionPayload) (*models.Question, error)
	GetQuestion(ctx context.Context, id string) (*models.Question, error)
	ListQuestions(ctx context.Context, lessonID string) ([]*models.Question, error)
	GetLesson(ctx context.Context, id string) (*Lesson, error)
	GetCourse(ctx context.Context, id string) (*Course, error)
}

// TokenSource supplies the bearer token for outgoing requests. Token issuance
// and refresh belong to the auth collaborator, not to this service.
type TokenSource func() string

// APIError is any non-2xx answer from the question API.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("question api returned status %d: %s", e.StatusCode, e.Body)
}

// IsNotFound reports whether err is a 404 from the question API.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

type questionAPIClient struct {
	baseURL string
	client  *http.Client
	token   TokenSource
}

func NewQuestionAPIClient(baseURL string, token TokenSource) QuestionAPI {
	return &questionAPIClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 15 * time.Second},
		token:   token,
	}
}

func (c *questionAPIClient) CreateQuestion(ctx context.Context, payload *models.QuestionPayload) (*models.Question, error) {
	var question models.Question
	if err := c.do(ctx, http.MethodPost, "/questions", payload, &question); err != nil {
		return nil, fmt.Errorf("failed to create question: %w", err)
	}
	return &question, nil
}

func (c *questionAPIClient) UpdateQuestion(ctx context.Context, id string, payload *models.QuestionPayload) (*models.Question, error) {
	var question models.Question
	if err := c.do(ctx, http.MethodPut, "/questions/"+url.PathEscape(id), payload, &question); err != nil {
		return nil, fmt.Errorf("failed to update question %s: %w", id, err)
	}
	return &question, nil
}

func (c *questionAPIClient) GetQuestion(ctx context.Context, id string) (*models.Question, error) {
	var question models.Question
	if err := c.do(ctx, http.MethodGet, "/questions/"+url.PathEscape(id), nil, &question); err != nil {
		return nil, fmt.Errorf("failed to get question %s: %w", id, err)
	}
	return &question, nil
}

func (c *questionAPIClient) ListQuestions(ctx context.Context, lessonID string) ([]*models.Question, error) {
	var questions []*models.Question
	path := "/questions?lesson_id=" + url.QueryEscape(lessonID)
	if err := c.do(ctx, http.MethodGet, path, nil, &questions); err != nil {
		return nil, fmt.Errorf("failed to list questions for lesson %s: %w", lessonID, err)
	}
	return questions, nil
}

func (c *questionAPIClient) GetLesson(ctx context.Context, id string) (*Lesson, error) {
	var lesson Lesson
	if err := c.do(ctx, http.MethodGet, "/lessons/detail/"+url.PathEscape(id), nil, &lesson); err != nil {
		return nil, fmt.Errorf("failed to get lesson %s: %w", id, err)
	}
	return &lesson, nil
}

func (c *questionAPIClient) GetCourse(ctx context.Context, id string) (*Course, error) {
	var course Course
	if err := c.do(ctx, http.MethodGet, "/courses/"+url.PathEscape(id), nil, &course); err != nil {
		return nil, fmt.Errorf("failed to get course %s: %w", id, err)
	}
	return &course, nil
}

func (c *questionAPIClient) do(ctx context.Context, method, path string, body, dest any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != nil {
		if token := c.token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{StatusCode: resp.StatusCode, Body: string(data)}
	}
	if dest == nil {
		return nil
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
