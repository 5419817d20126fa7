package app

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"coach_digital_bot/internal/domain/observation"
	"coach_digital_bot/internal/domain/telegram"
)

// ChatDirectory finds the chats a coach is currently selected in.
type ChatDirectory interface {
	ChatsOfCoach(ctx context.Context, coachID string) ([]int64, error)
}

// ReminderService nudges coaches about sessions they left pending.
type ReminderService struct {
	sessions *ObservationService
	chats    ChatDirectory
	client   telegram.Messenger
	after    time.Duration
	logger   *logrus.Entry
}

func NewReminderService(sessions *ObservationService, chats ChatDirectory, client telegram.Messenger, after time.Duration, logger *logrus.Entry) *ReminderService {
	return &ReminderService{
		sessions: sessions,
		chats:    chats,
		client:   client,
		after:    after,
		logger:   logger.WithField("service", "reminder"),
	}
}

// SendPendingReminders sends one message per coach chat and returns how many went out.
func (s *ReminderService) SendPendingReminders(ctx context.Context) (int, error) {
	due, err := s.sessions.DueForReminder(ctx, s.after)
	if err != nil {
		return 0, err
	}
	if len(due) == 0 {
		s.logger.Debug("No pending sessions to remind about")
		return 0, nil
	}

	byCoach := make(map[string][]*observation.Session)
	for _, sess := range due {
		byCoach[sess.CoachID] = append(byCoach[sess.CoachID], sess)
	}
	coachIDs := make([]string, 0, len(byCoach))
	for id := range byCoach {
		coachIDs = append(coachIDs, id)
	}
	sort.Strings(coachIDs)

	sent := 0
	for _, coachID := range coachIDs {
		chatIDs, err := s.chats.ChatsOfCoach(ctx, coachID)
		if err != nil {
			s.logger.WithError(err).WithField("coach_id", coachID).Error("Failed to find coach chats")
			continue
		}
		text := reminderText(byCoach[coachID])
		for _, chatID := range chatIDs {
			if err := s.client.Push(ctx, chatID, text, nil); err != nil {
				s.logger.WithError(err).WithFields(logrus.Fields{"coach_id": coachID, "chat_id": chatID}).Warn("Failed to send reminder")
				continue
			}
			sent++
		}
	}
	s.logger.WithFields(logrus.Fields{"due": len(due), "sent": sent}).Info("Pending session reminders sent")
	return sent, nil
}

func reminderText(sessions []*observation.Session) string {
	var observations, feedbacks int
	for _, s := range sessions {
		if s.Kind == observation.KindFeedback {
			feedbacks++
		} else {
			observations++
		}
	}
	return fmt.Sprintf(
		"<b>Pending sessions</b>\nYou have %d class observation(s) and %d feedback session(s) waiting to be completed.\nOpen /home and choose \"Pending sessions\".",
		observations, feedbacks,
	)
}
