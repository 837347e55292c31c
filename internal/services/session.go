package services

import (
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/lingoforge/authoring-service/internal/models"
)

// AuthoringSession owns exactly one QuestionDraft. All mutation goes through
// the session lock, and the submitting flag keeps a second submission from
// starting while the pipeline is in flight.
type AuthoringSession struct {
	ID          string `json:"id"`
	LessonID    string `json:"lesson_id"`
	CourseID    string `json:"course_id"`
	LessonTitle string `json:"lesson_title"`
	CourseTitle string `json:"course_title"`

	// QuestionID binds the session to an existing record: set at start in
	// edit mode, or right after a successful base create so a retry never
	// posts a second record. EditMode marks sessions opened on an existing
	// question; those close at submit instead of advancing the counter.
	QuestionID string `json:"question_id,omitempty"`
	EditMode   bool   `json:"edit_mode,omitempty"`

	CreatedAt time.Time `json:"created_at"`

	Draft *models.QuestionDraft `json:"draft"`

	mu         sync.Mutex
	submitting bool
}

func newAuthoringSession(lessonID string) *AuthoringSession {
	return &AuthoringSession{
		ID:        watermill.NewUUID(),
		LessonID:  lessonID,
		CreatedAt: time.Now(),
	}
}

// withLock runs fn while holding the session lock, rejecting the mutation
// when a submission is in flight.
func (s *AuthoringSession) withLock(fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.submitting {
		return ErrSubmissionInFlight
	}
	return fn()
}

// beginSubmit marks the session busy; exactly one submission may hold this.
func (s *AuthoringSession) beginSubmit() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.submitting {
		return ErrSubmissionInFlight
	}
	s.submitting = true
	return nil
}

func (s *AuthoringSession) endSubmit() {
	s.mu.Lock()
	s.submitting = false
	s.mu.Unlock()
}

func (s *AuthoringSession) isSubmitting() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.submitting
}

// sessionStore keeps live authoring sessions in memory. Sessions die with the
// process on purpose: a draft is never persisted anywhere before submit.
type sessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*AuthoringSession
}

func newSessionStore() *sessionStore {
	return &sessionStore{sessions: make(map[string]*AuthoringSession)}
}

func (st *sessionStore) add(session *AuthoringSession) {
	st.mu.Lock()
	st.sessions[session.ID] = session
	st.mu.Unlock()
}

func (st *sessionStore) get(id string) (*AuthoringSession, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	session, ok := st.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

func (st *sessionStore) remove(id string) {
	st.mu.Lock()
	delete(st.sessions, id)
	st.mu.Unlock()
}
