package database

import (
	"context"
	"database/sql"
	"fmt"

	"coach_digital_bot/internal/domain/image"
)

type PostgresImageRepository struct {
	db *sql.DB
}

func NewPostgresImageRepository(db *sql.DB) *PostgresImageRepository {
	return &PostgresImageRepository{db: db}
}

func (r *PostgresImageRepository) Create(ctx context.Context, img *image.Image) error {
	query := `INSERT INTO images (id, name, value) VALUES ($1, $2, $3) RETURNING created_at`
	if err := r.db.QueryRowContext(ctx, query, img.ID, img.Name, img.Value).Scan(&img.CreatedAt); err != nil {
		return fmt.Errorf("error creating image: %w", err)
	}
	return nil
}

func (r *PostgresImageRepository) GetByID(ctx context.Context, id string) (*image.Image, error) {
	query := `SELECT id, name, value, created_at FROM images WHERE id = $1`
	img := &image.Image{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&img.ID, &img.Name, &img.Value, &img.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrImageNotFound
		}
		return nil, fmt.Errorf("error getting image by ID: %w", err)
	}
	return img, nil
}
