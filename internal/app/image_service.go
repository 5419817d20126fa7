package app

import (
	"context"
	"encoding/base64"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"coach_digital_bot/internal/domain/image"
)

// MaxImageBytes caps decoded profile pictures.
const MaxImageBytes = 5 << 20

type ImageService struct {
	imageRepo image.Repository
	logger    *logrus.Entry
}

func NewImageService(ir image.Repository, logger *logrus.Entry) *ImageService {
	return &ImageService{imageRepo: ir, logger: logger.WithField("service", "image")}
}

// SaveNewImage stores base64 content under name and returns the new image id.
func (s *ImageService) SaveNewImage(ctx context.Context, name, value string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", NewValidationError(ErrInvalidInput, FieldError{Field: "image_name", Error: requiredText})
	}
	decoded, err := base64.StdEncoding.DecodeString(value)
	if err != nil || len(decoded) == 0 {
		return "", NewValidationError(ErrInvalidInput, FieldError{Field: "image_value", Error: "image content is not valid base64"})
	}
	if len(decoded) > MaxImageBytes {
		return "", NewValidationError(ErrInvalidInput, FieldError{Field: "image_value", Error: "image is too large"})
	}

	img := &image.Image{ID: uuid.New().String(), Name: name, Value: value}
	if err := s.imageRepo.Create(ctx, img); err != nil {
		s.logger.WithError(err).WithField("image_name", name).Error("Failed to save image")
		return "", unavailable("image.saveNewImage", err)
	}
	s.logger.WithFields(logrus.Fields{"image_id": img.ID, "bytes": len(decoded)}).Info("Image saved")
	return img.ID, nil
}

func (s *ImageService) Get(ctx context.Context, id string) (*image.Image, error) {
	img, err := s.imageRepo.GetByID(ctx, id)
	if err != nil {
		return nil, unavailable("image.get", err)
	}
	return img, nil
}
