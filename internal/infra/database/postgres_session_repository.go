package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"coach_digital_bot/internal/domain/observation"
)

const sessionColumns = `id, kind, teacher_id, coach_id, school_id, status, notes, competence, parent_id, created_at, updated_at`

type PostgresSessionRepository struct {
	db *sql.DB
}

func NewPostgresSessionRepository(db *sql.DB) *PostgresSessionRepository {
	return &PostgresSessionRepository{db: db}
}

func scanSession(row interface{ Scan(...interface{}) error }) (*observation.Session, error) {
	s := &observation.Session{}
	err := row.Scan(&s.ID, &s.Kind, &s.TeacherID, &s.CoachID, &s.SchoolID, &s.Status, &s.Notes, &s.Competence, &s.ParentID, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}

func (r *PostgresSessionRepository) Create(ctx context.Context, s *observation.Session) error {
	query := `INSERT INTO sessions (id, kind, teacher_id, coach_id, school_id, status, notes, competence, parent_id)
               VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
               RETURNING created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query, s.ID, s.Kind, s.TeacherID, s.CoachID, s.SchoolID, s.Status, s.Notes, s.Competence, s.ParentID).
		Scan(&s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("error creating session: %w", err)
	}
	return nil
}

func (r *PostgresSessionRepository) GetByID(ctx context.Context, id string) (*observation.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE id = $1`
	s, err := scanSession(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("error getting session by ID: %w", err)
	}
	return s, nil
}

func (r *PostgresSessionRepository) Update(ctx context.Context, s *observation.Session) error {
	query := `UPDATE sessions
               SET status = $1, notes = $2, competence = $3, updated_at = NOW()
               WHERE id = $4
               RETURNING updated_at`
	err := r.db.QueryRowContext(ctx, query, s.Status, s.Notes, s.Competence, s.ID).Scan(&s.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return ErrSessionNotFound
		}
		return fmt.Errorf("error updating session: %w", err)
	}
	return nil
}

func (r *PostgresSessionRepository) list(ctx context.Context, what, query string, args ...interface{}) ([]*observation.Session, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing %s sessions: %w", what, err)
	}
	defer rows.Close()

	sessions := make([]*observation.Session, 0)
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning %s session: %w", what, err)
		}
		sessions = append(sessions, s)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s sessions: %w", what, err)
	}
	return sessions, nil
}

func (r *PostgresSessionRepository) ListPendingByCoach(ctx context.Context, coachID string) ([]*observation.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions
               WHERE coach_id = $1 AND status = $2
               ORDER BY created_at DESC`
	return r.list(ctx, "pending", query, coachID, observation.StatusPending)
}

func (r *PostgresSessionRepository) ListPendingCreatedBefore(ctx context.Context, before time.Time) ([]*observation.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions
               WHERE status = $1 AND created_at < $2
               ORDER BY coach_id, created_at`
	return r.list(ctx, "overdue", query, observation.StatusPending, before)
}
