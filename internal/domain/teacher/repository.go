package teacher

import (
	"context"
)

// Repository defines the operations for persisting and retrieving Teacher entities.
type Repository interface {
	GetByID(ctx context.Context, id string) (*Teacher, error)
	// ListItems returns non-deleted teachers of a school with their session counters.
	ListItems(ctx context.Context, schoolID string) ([]Item, error)
}
