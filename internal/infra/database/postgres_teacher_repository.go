package database

import (
	"context"
	"database/sql"
	"fmt"

	"coach_digital_bot/internal/domain/observation"
	"coach_digital_bot/internal/domain/teacher"
)

type PostgresTeacherRepository struct {
	db *sql.DB
}

func NewPostgresTeacherRepository(db *sql.DB) *PostgresTeacherRepository {
	return &PostgresTeacherRepository{db: db}
}

func (r *PostgresTeacherRepository) GetByID(ctx context.Context, id string) (*teacher.Teacher, error) {
	query := `SELECT id, nin, pin, name, surname, subject, birthdate, emis_number, image_id, school_id, _status, created_at, updated_at
               FROM teachers WHERE id = $1`
	t := &teacher.Teacher{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&t.ID, &t.Nin, &t.Pin, &t.Name, &t.Surname, &t.Subject, &t.Birthdate,
		&t.EmisNumber, &t.ImageID, &t.SchoolID, &t.Status, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrTeacherNotFound
		}
		return nil, fmt.Errorf("error getting teacher by ID: %w", err)
	}
	return t, nil
}

// ListItems aggregates session counters per teacher. Deleted teachers are skipped.
func (r *PostgresTeacherRepository) ListItems(ctx context.Context, schoolID string) ([]teacher.Item, error) {
	query := `SELECT t.id, COALESCE(i.value, ''), t.name || ' ' || t.surname,
                      MAX(s.created_at),
                      COUNT(s.id) FILTER (WHERE s.kind = $2),
                      COUNT(s.id) FILTER (WHERE s.kind = $3)
               FROM teachers t
               LEFT JOIN images i ON i.id = t.image_id
               LEFT JOIN sessions s ON s.teacher_id = t.id
               WHERE t.school_id = $1 AND t._status <> $4
               GROUP BY t.id, i.value, t.name, t.surname
               ORDER BY t.name, t.surname`

	rows, err := r.db.QueryContext(ctx, query, schoolID, observation.KindClassObservation, observation.KindFeedback, teacher.StatusDeleted)
	if err != nil {
		return nil, fmt.Errorf("error listing teachers: %w", err)
	}
	defer rows.Close()

	items := make([]teacher.Item, 0)
	for rows.Next() {
		var it teacher.Item
		if err := rows.Scan(&it.ID, &it.Image, &it.Name, &it.LastSessionDate, &it.SessionsCount, &it.FeedbacksCount); err != nil {
			return nil, fmt.Errorf("error scanning teacher item: %w", err)
		}
		items = append(items, it)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating teachers: %w", err)
	}
	return items, nil
}
