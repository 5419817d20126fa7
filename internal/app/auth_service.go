package app

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"coach_digital_bot/internal/domain/coach"
	idb "coach_digital_bot/internal/infra/database"
)

type AuthService struct {
	coachRepo coach.Repository
	validator *Validator
	logger    *logrus.Entry
}

func NewAuthService(cr coach.Repository, v *Validator, logger *logrus.Entry) *AuthService {
	return &AuthService{coachRepo: cr, validator: v, logger: logger.WithField("service", "auth")}
}

// Authenticate checks the credentials and returns the matching coach.
// Unknown users and wrong passwords both yield *AuthenticationError.
func (s *AuthService) Authenticate(ctx context.Context, form coach.LoginForm) (*coach.Coach, error) {
	form.Username = strings.ToLower(strings.TrimSpace(form.Username))
	if err := s.validator.Struct(form); err != nil {
		return nil, err
	}

	c, err := s.coachRepo.GetByUsername(ctx, form.Username)
	if err != nil {
		if errors.Is(err, idb.ErrCoachNotFound) {
			s.logger.WithField("username", form.Username).Warn("Login attempt for unknown user")
			return nil, &AuthenticationError{Username: form.Username}
		}
		return nil, unavailable("auth.login", err)
	}
	if len(c.PasswordHash) == 0 || c.CheckPassword(form.Password) != nil {
		s.logger.WithField("coach_id", c.ID).Warn("Login attempt with wrong password")
		return nil, &AuthenticationError{Username: form.Username}
	}
	s.logger.WithField("coach_id", c.ID).Info("Coach logged in")
	return c, nil
}
