package database

import (
	"context"
	"database/sql"
	"fmt"

	"coach_digital_bot/internal/domain/coach"
)

const coachColumns = `id, school_id, name, surname, pin, nin, image_id, username, password_hash, created_at, updated_at`

type PostgresCoachRepository struct {
	db *sql.DB
}

func NewPostgresCoachRepository(db *sql.DB) *PostgresCoachRepository {
	return &PostgresCoachRepository{db: db}
}

func scanCoach(row interface{ Scan(...interface{}) error }) (*coach.Coach, error) {
	c := &coach.Coach{}
	err := row.Scan(&c.ID, &c.SchoolID, &c.Name, &c.Surname, &c.Pin, &c.Nin, &c.ImageID, &c.Username, &c.PasswordHash, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func (r *PostgresCoachRepository) Create(ctx context.Context, c *coach.Coach) error {
	txn, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction for coach create: %w", err)
	}
	defer txn.Rollback() // no-op once committed

	query := `INSERT INTO coaches (id, school_id, name, surname, pin, nin, image_id, username, password_hash)
               VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
               RETURNING created_at, updated_at`
	err = txn.QueryRowContext(ctx, query, c.ID, c.SchoolID, c.Name, c.Surname, c.Pin, c.Nin, c.ImageID, c.Username, c.PasswordHash).
		Scan(&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err, "coaches_username_key") {
			return ErrDuplicateCoach
		}
		return fmt.Errorf("error creating coach: %w", err)
	}

	link := `INSERT INTO coach_schools (coach_id, school_id) VALUES ($1, $2)
               ON CONFLICT (coach_id, school_id) DO NOTHING`
	if _, err := txn.ExecContext(ctx, link, c.ID, c.SchoolID); err != nil {
		return fmt.Errorf("error linking new coach to school: %w", err)
	}

	return txn.Commit()
}

func (r *PostgresCoachRepository) GetByID(ctx context.Context, id string) (*coach.Coach, error) {
	query := `SELECT ` + coachColumns + ` FROM coaches WHERE id = $1`
	c, err := scanCoach(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrCoachNotFound
		}
		return nil, fmt.Errorf("error getting coach by ID: %w", err)
	}
	return c, nil
}

func (r *PostgresCoachRepository) GetByUsername(ctx context.Context, username string) (*coach.Coach, error) {
	query := `SELECT ` + coachColumns + ` FROM coaches WHERE username = $1`
	c, err := scanCoach(r.db.QueryRowContext(ctx, query, username))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrCoachNotFound
		}
		return nil, fmt.Errorf("error getting coach by username: %w", err)
	}
	return c, nil
}

// ListBySchool returns coaches registered at the school or linked to it.
func (r *PostgresCoachRepository) ListBySchool(ctx context.Context, schoolID string) ([]*coach.Coach, error) {
	query := `SELECT ` + coachColumns + ` FROM coaches
               WHERE school_id = $1
                  OR id IN (SELECT coach_id FROM coach_schools WHERE school_id = $1)
               ORDER BY name, surname`

	rows, err := r.db.QueryContext(ctx, query, schoolID)
	if err != nil {
		return nil, fmt.Errorf("error listing coaches by school: %w", err)
	}
	defer rows.Close()

	coaches := make([]*coach.Coach, 0)
	for rows.Next() {
		c, err := scanCoach(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning coach: %w", err)
		}
		coaches = append(coaches, c)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating coaches: %w", err)
	}
	return coaches, nil
}

func (r *PostgresCoachRepository) CreateCoachSchool(ctx context.Context, link *coach.CoachSchool) error {
	query := `INSERT INTO coach_schools (coach_id, school_id)
               VALUES ($1, $2)
               ON CONFLICT (coach_id, school_id) DO UPDATE SET coach_id = EXCLUDED.coach_id
               RETURNING created_at`

	if err := r.db.QueryRowContext(ctx, query, link.CoachID, link.SchoolID).Scan(&link.CreatedAt); err != nil {
		return fmt.Errorf("error linking coach to school: %w", err)
	}
	return nil
}
