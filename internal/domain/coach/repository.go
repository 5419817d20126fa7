package coach

import "context"

// Repository defines the operations for persisting and retrieving Coach entities.
type Repository interface {
	// Create stores the coach and links it to coach.SchoolID in one transaction.
	Create(ctx context.Context, coach *Coach) error
	GetByID(ctx context.Context, id string) (*Coach, error)
	GetByUsername(ctx context.Context, username string) (*Coach, error)
	ListBySchool(ctx context.Context, schoolID string) ([]*Coach, error)
	// CreateCoachSchool is idempotent: linking an existing pair returns the stored link.
	CreateCoachSchool(ctx context.Context, link *CoachSchool) error
}
