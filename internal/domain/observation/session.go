// Package observation holds the class observation and feedback session records.
package observation

import (
	"context"
	"database/sql"
	"time"
)

type Kind string

const (
	KindClassObservation Kind = "CLASS_OBSERVATION"
	KindFeedback         Kind = "FEEDBACK"
)

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusCompleted Status = "COMPLETED"
)

// Session is one observation or feedback session a coach runs with a teacher.
type Session struct {
	ID         string
	Kind       Kind
	TeacherID  string
	CoachID    string
	SchoolID   string
	Status     Status
	Notes      sql.NullString
	Competence sql.NullString
	ParentID   sql.NullString // feedback sessions point at the observation they follow
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type Repository interface {
	Create(ctx context.Context, s *Session) error
	GetByID(ctx context.Context, id string) (*Session, error)
	Update(ctx context.Context, s *Session) error
	ListPendingByCoach(ctx context.Context, coachID string) ([]*Session, error)
	// ListPendingCreatedBefore feeds the reminder job.
	ListPendingCreatedBefore(ctx context.Context, before time.Time) ([]*Session, error)
}
