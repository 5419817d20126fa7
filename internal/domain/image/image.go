package image

import (
	"context"
	"time"
)

// Image is a stored picture, referenced from coaches and teachers by ID.
type Image struct {
	ID        string
	Name      string
	Value     string // base64 content
	CreatedAt time.Time
}

type Repository interface {
	Create(ctx context.Context, img *Image) error
	GetByID(ctx context.Context, id string) (*Image, error)
}
