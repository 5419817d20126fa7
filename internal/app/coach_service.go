package app

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"coach_digital_bot/internal/domain/coach"
	"coach_digital_bot/internal/domain/school"
	idb "coach_digital_bot/internal/infra/database"
)

type CoachService struct {
	coachRepo coach.Repository
	validator *Validator
	logger    *logrus.Entry
}

func NewCoachService(cr coach.Repository, v *Validator, logger *logrus.Entry) *CoachService {
	return &CoachService{
		coachRepo: cr,
		validator: v,
		logger:    logger.WithField("service", "coach"),
	}
}

const (
	MinPasswordLength = 6
	MaxPasswordLength = 72 // bcrypt ignores anything longer
)

// HashPassword checks a password typed on the account form and hashes it.
func HashPassword(pwd string) ([]byte, error) {
	if n := len(pwd); n < MinPasswordLength || n > MaxPasswordLength {
		return nil, NewValidationError(ErrInvalidInput, FieldError{
			Field: "password",
			Error: fmt.Sprintf("password must be %d to %d characters long", MinPasswordLength, MaxPasswordLength),
		})
	}
	hash, err := coach.HashPassword(pwd)
	if err != nil {
		return nil, errors.Wrap(err, "hash password")
	}
	return hash, nil
}

// Validate cleans and checks the account creation form.
func (s *CoachService) Validate(values *coach.NewCoach) error {
	values.Name = strings.TrimSpace(values.Name)
	values.Surname = strings.TrimSpace(values.Surname)
	values.Pin = strings.TrimSpace(values.Pin)
	values.Nin = strings.ToUpper(strings.TrimSpace(values.Nin))
	values.Username = strings.ToLower(strings.TrimSpace(values.Username))

	var fields []FieldError
	if err := s.validator.Struct(values); err != nil {
		var ve *ValidationError
		if !errors.As(err, &ve) {
			return err
		}
		fields = append(fields, ve.Fields...)
	}
	switch {
	case values.Username != "" && len(values.PasswordHash) == 0:
		fields = append(fields, FieldError{Field: "password", Error: "a password is needed to log in with a username"})
	case values.Username == "" && len(values.PasswordHash) > 0:
		fields = append(fields, FieldError{Field: "username", Error: "a username is needed to log in with a password"})
	}
	if len(fields) > 0 {
		return NewValidationError(ErrInvalidInput, fields...)
	}
	return nil
}

// Create stores a new coach attached to sch. The repository links the two in
// the same transaction, so a failed call leaves nothing behind.
func (s *CoachService) Create(ctx context.Context, sch *school.School, values coach.NewCoach) (*coach.Coach, error) {
	if sch == nil {
		return nil, ErrNoSchoolSelected
	}
	if err := s.Validate(&values); err != nil {
		return nil, err
	}

	c := &coach.Coach{
		ID:           uuid.New().String(),
		SchoolID:     sch.ID,
		Name:         values.Name,
		Surname:      values.Surname,
		Pin:          values.Pin,
		Nin:          values.Nin,
		PasswordHash: values.PasswordHash,
	}
	if values.ImageID != "" {
		c.ImageID = sql.NullString{String: values.ImageID, Valid: true}
	}
	if values.Username != "" {
		c.Username = sql.NullString{String: values.Username, Valid: true}
	}
	if err := s.coachRepo.Create(ctx, c); err != nil {
		if errors.Is(err, idb.ErrDuplicateCoach) {
			return nil, NewValidationError(ErrInvalidInput, FieldError{Field: "username", Error: "this username is already taken"})
		}
		s.logger.WithError(err).Error("Failed to create coach")
		return nil, unavailable("coach.create", err)
	}

	s.logger.WithFields(logrus.Fields{
		"coach_id":  c.ID,
		"school_id": sch.ID,
		"has_image": c.ImageID.Valid,
		"can_login": c.Username.Valid,
	}).Info("Coach created")
	return c, nil
}

// CreateCoachSchool links a coach to a school. Linking twice is not an error.
func (s *CoachService) CreateCoachSchool(ctx context.Context, c *coach.Coach, sch *school.School) error {
	if c == nil {
		return ErrNoCoachSelected
	}
	if sch == nil {
		return ErrNoSchoolSelected
	}
	link := &coach.CoachSchool{CoachID: c.ID, SchoolID: sch.ID}
	if err := s.coachRepo.CreateCoachSchool(ctx, link); err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{"coach_id": c.ID, "school_id": sch.ID}).Error("Failed to link coach to school")
		return unavailable("coach.createCoachSchool", err)
	}
	return nil
}

func (s *CoachService) GetByID(ctx context.Context, id string) (*coach.Coach, error) {
	c, err := s.coachRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, idb.ErrCoachNotFound) {
			return nil, ErrCoachNotFound
		}
		return nil, unavailable("coach.get", err)
	}
	return c, nil
}

// ListBySchool feeds the account selection screen.
func (s *CoachService) ListBySchool(ctx context.Context, sch *school.School) ([]*coach.Coach, error) {
	if sch == nil {
		return nil, ErrNoSchoolSelected
	}
	coaches, err := s.coachRepo.ListBySchool(ctx, sch.ID)
	if err != nil {
		return nil, unavailable("coach.listBySchool", err)
	}
	return coaches, nil
}
