package database

import (
	"context"
	"database/sql"
	"fmt"

	"coach_digital_bot/internal/domain/school"
)

type PostgresSchoolRepository struct {
	db *sql.DB
}

func NewPostgresSchoolRepository(db *sql.DB) *PostgresSchoolRepository {
	return &PostgresSchoolRepository{db: db}
}

func (r *PostgresSchoolRepository) GetByID(ctx context.Context, id string) (*school.School, error) {
	query := `SELECT id, name, emis_number, district, created_at, updated_at FROM schools WHERE id = $1`
	s := &school.School{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&s.ID, &s.Name, &s.EmisNumber, &s.District, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrSchoolNotFound
		}
		return nil, fmt.Errorf("error getting school by ID: %w", err)
	}
	return s, nil
}

func (r *PostgresSchoolRepository) FindItems(ctx context.Context, query string, limit int) ([]school.Item, error) {
	q := `SELECT id, name, COALESCE(district, '') FROM schools
           WHERE $1 = '' OR name ILIKE '%' || $1 || '%' OR emis_number ILIKE '%' || $1 || '%'
           ORDER BY name
           LIMIT $2`

	rows, err := r.db.QueryContext(ctx, q, query, limit)
	if err != nil {
		return nil, fmt.Errorf("error searching schools: %w", err)
	}
	defer rows.Close()

	items := make([]school.Item, 0)
	for rows.Next() {
		var it school.Item
		if err := rows.Scan(&it.ID, &it.Name, &it.District); err != nil {
			return nil, fmt.Errorf("error scanning school item: %w", err)
		}
		items = append(items, it)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating school items: %w", err)
	}
	return items, nil
}

// Upsert inserts the school or refreshes its descriptive fields.
func (r *PostgresSchoolRepository) Upsert(ctx context.Context, s *school.School) error {
	query := `INSERT INTO schools (id, name, emis_number, district)
               VALUES ($1, $2, $3, $4)
               ON CONFLICT (id) DO UPDATE
               SET name = EXCLUDED.name,
                   emis_number = COALESCE(EXCLUDED.emis_number, schools.emis_number),
                   district = COALESCE(EXCLUDED.district, schools.district),
                   updated_at = NOW()
               RETURNING created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query, s.ID, s.Name, s.EmisNumber, s.District).Scan(&s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("error upserting school: %w", err)
	}
	return nil
}
