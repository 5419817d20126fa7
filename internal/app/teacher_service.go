package app

import (
	"context"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"coach_digital_bot/internal/domain/image"
	"coach_digital_bot/internal/domain/school"
	"coach_digital_bot/internal/domain/teacher"
	idb "coach_digital_bot/internal/infra/database"
)

type TeacherService struct {
	teacherRepo teacher.Repository
	imageRepo   image.Repository
	logger      *logrus.Entry
}

func NewTeacherService(tr teacher.Repository, ir image.Repository, logger *logrus.Entry) *TeacherService {
	return &TeacherService{teacherRepo: tr, imageRepo: ir, logger: logger.WithField("service", "teacher")}
}

// ListItems returns the teachers of the current school for the home screen.
func (s *TeacherService) ListItems(ctx context.Context, sch *school.School) ([]teacher.Item, error) {
	if sch == nil {
		return nil, ErrNoSchoolSelected
	}
	items, err := s.teacherRepo.ListItems(ctx, sch.ID)
	if err != nil {
		s.logger.WithError(err).WithField("school_id", sch.ID).Error("Failed to list teachers")
		return nil, unavailable("teacher.listItems", err)
	}
	return items, nil
}

func (s *TeacherService) Get(ctx context.Context, id string) (*teacher.Teacher, error) {
	t, err := s.teacherRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, idb.ErrTeacherNotFound) {
			return nil, ErrTeacherNotFound
		}
		return nil, unavailable("teacher.get", err)
	}
	if t.IsDeleted() {
		return nil, ErrTeacherNotFound
	}
	return t, nil
}

func (s *TeacherService) image(ctx context.Context, t *teacher.Teacher) *image.Image {
	if !t.ImageID.Valid {
		return nil
	}
	img, err := s.imageRepo.GetByID(ctx, t.ImageID.String)
	if err != nil {
		// a missing picture does not block the screen
		s.logger.WithError(err).WithField("image_id", t.ImageID.String).Warn("Teacher image not loaded")
		return nil
	}
	return img
}

func (s *TeacherService) Details(ctx context.Context, id string) (teacher.Details, error) {
	t, err := s.Get(ctx, id)
	if err != nil {
		return teacher.Details{}, err
	}
	var value string
	if img := s.image(ctx, t); img != nil {
		value = img.Value
	}
	return t.Details(value), nil
}

func (s *TeacherService) ToEdit(ctx context.Context, id string) (teacher.ToEdit, error) {
	t, err := s.Get(ctx, id)
	if err != nil {
		return teacher.ToEdit{}, err
	}
	var name, value string
	if img := s.image(ctx, t); img != nil {
		name, value = img.Name, img.Value
	}
	return t.ToEdit(name, value), nil
}
