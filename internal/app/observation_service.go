package app

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"coach_digital_bot/internal/domain/coach"
	"coach_digital_bot/internal/domain/observation"
	"coach_digital_bot/internal/domain/school"
	idb "coach_digital_bot/internal/infra/database"
)

// Competences offered on the feedback "choose competence" screen.
var Competences = []string{
	"Lesson planning",
	"Classroom management",
	"Learner engagement",
	"Assessment for learning",
	"Use of teaching aids",
}

type ObservationService struct {
	sessionRepo observation.Repository
	now         func() time.Time
	logger      *logrus.Entry
}

func NewObservationService(sr observation.Repository, logger *logrus.Entry) *ObservationService {
	return &ObservationService{sessionRepo: sr, now: time.Now, logger: logger.WithField("service", "observation")}
}

// Start creates a pending session with a caller-chosen id. For feedback
// sessions parentID is the observation the feedback follows.
func (s *ObservationService) Start(ctx context.Context, kind observation.Kind, id, teacherID, parentID string, c *coach.Coach, sch *school.School) (*observation.Session, error) {
	if c == nil {
		return nil, ErrNoCoachSelected
	}
	if sch == nil {
		return nil, ErrNoSchoolSelected
	}
	if kind == observation.KindFeedback {
		parent, err := s.Get(ctx, parentID)
		if err != nil {
			return nil, err
		}
		teacherID = parent.TeacherID
	}
	sess := &observation.Session{
		ID:        id,
		Kind:      kind,
		TeacherID: teacherID,
		CoachID:   c.ID,
		SchoolID:  sch.ID,
		Status:    observation.StatusPending,
	}
	if parentID != "" {
		sess.ParentID = sql.NullString{String: parentID, Valid: true}
	}
	if err := s.sessionRepo.Create(ctx, sess); err != nil {
		s.logger.WithError(err).WithField("session_id", id).Error("Failed to create session")
		return nil, unavailable("observation.start", err)
	}
	s.logger.WithFields(logrus.Fields{
		"session_id": sess.ID,
		"kind":       kind,
		"teacher_id": teacherID,
		"coach_id":   c.ID,
	}).Info("Session started")
	return sess, nil
}

func (s *ObservationService) Get(ctx context.Context, id string) (*observation.Session, error) {
	sess, err := s.sessionRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, idb.ErrSessionNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, unavailable("observation.get", err)
	}
	return sess, nil
}

// Complete marks a session as completed. Completing twice is a no-op.
func (s *ObservationService) Complete(ctx context.Context, id string) error {
	sess, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if sess.Status == observation.StatusCompleted {
		return nil
	}
	sess.Status = observation.StatusCompleted
	if err := s.sessionRepo.Update(ctx, sess); err != nil {
		return unavailable("observation.complete", err)
	}
	s.logger.WithField("session_id", id).Info("Session completed")
	return nil
}

// SaveNotes stores the free text typed on a form step.
func (s *ObservationService) SaveNotes(ctx context.Context, id, notes string) error {
	notes = strings.TrimSpace(notes)
	if notes == "" {
		return NewValidationError(ErrInvalidInput, FieldError{Field: "notes", Error: requiredText})
	}
	sess, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if sess.Notes.Valid && sess.Notes.String != "" {
		notes = sess.Notes.String + "\n" + notes
	}
	sess.Notes = sql.NullString{String: notes, Valid: true}
	if err := s.sessionRepo.Update(ctx, sess); err != nil {
		return unavailable("observation.saveNotes", err)
	}
	return nil
}

func (s *ObservationService) ChooseCompetence(ctx context.Context, id, competence string) error {
	known := false
	for _, c := range Competences {
		if c == competence {
			known = true
			break
		}
	}
	if !known {
		return NewValidationError(ErrInvalidInput, FieldError{Field: "competence", Error: "unknown competence"})
	}
	sess, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	sess.Competence = sql.NullString{String: competence, Valid: true}
	if err := s.sessionRepo.Update(ctx, sess); err != nil {
		return unavailable("observation.chooseCompetence", err)
	}
	return nil
}

// ListPending feeds the pending sessions screen.
func (s *ObservationService) ListPending(ctx context.Context, c *coach.Coach) ([]*observation.Session, error) {
	if c == nil {
		return nil, ErrNoCoachSelected
	}
	sessions, err := s.sessionRepo.ListPendingByCoach(ctx, c.ID)
	if err != nil {
		return nil, unavailable("observation.listPending", err)
	}
	return sessions, nil
}

// DueForReminder lists sessions left pending for longer than age.
func (s *ObservationService) DueForReminder(ctx context.Context, age time.Duration) ([]*observation.Session, error) {
	sessions, err := s.sessionRepo.ListPendingCreatedBefore(ctx, s.now().Add(-age))
	if err != nil {
		return nil, unavailable("observation.dueForReminder", err)
	}
	return sessions, nil
}
