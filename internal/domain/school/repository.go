package school

import "context"

type Repository interface {
	GetByID(ctx context.Context, id string) (*School, error)
	// FindItems returns schools whose name or EMIS number contains query, ordered by name.
	FindItems(ctx context.Context, query string, limit int) ([]Item, error)
	Upsert(ctx context.Context, s *School) error
}
