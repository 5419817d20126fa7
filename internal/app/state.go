package app

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/pkg/errors"

	"coach_digital_bot/internal/domain/coach"
	"coach_digital_bot/internal/identity"
	"coach_digital_bot/internal/route"
	"coach_digital_bot/internal/workflow"
)

var ErrStateNotFound = errors.New("chat state not found")

// CoachForm is the account creation form as typed so far. It survives failed
// submissions so nothing has to be re-entered.
type CoachForm struct {
	Values     coach.NewCoach `json:"values"`
	ImageName  string         `json:"image_name,omitempty"`
	ImageValue string         `json:"image_value,omitempty"`
}

// HasImage reports a picture that has not been stored yet.
func (f *CoachForm) HasImage() bool { return f != nil && f.ImageValue != "" }

// ChatState is everything kept between two updates of one chat.
type ChatState struct {
	ChatID    int64             `json:"chat_id"`
	Identity  identity.Snapshot `json:"identity"`
	Machine   workflow.Machine  `json:"machine"`
	Draft     *CoachForm        `json:"draft,omitempty"`
	UpdatedAt time.Time         `json:"updated_at"`
}

func newChatState(chatID int64) *ChatState {
	return &ChatState{
		ChatID:  chatID,
		Machine: workflow.Machine{State: workflow.Unauthenticated, Route: route.Main},
	}
}

// Clone returns a deep copy.
func (s *ChatState) Clone() *ChatState {
	if s == nil {
		return nil
	}
	out := *s
	if s.Machine.Params != nil {
		out.Machine.Params = make(route.Params, len(s.Machine.Params))
		for k, v := range s.Machine.Params {
			out.Machine.Params[k] = v
		}
	}
	if s.Identity.Coach != nil {
		c := *s.Identity.Coach
		out.Identity.Coach = &c
	}
	if s.Identity.School != nil {
		sch := *s.Identity.School
		out.Identity.School = &sch
	}
	if s.Draft != nil {
		d := *s.Draft
		out.Draft = &d
	}
	return &out
}

// StateStore persists chat states between updates.
type StateStore interface {
	Load(ctx context.Context, chatID int64) (*ChatState, error)
	Save(ctx context.Context, s *ChatState) error
	Delete(ctx context.Context, chatID int64) error
	// DeleteIdle drops states not updated since before and reports how many went.
	DeleteIdle(ctx context.Context, before time.Time) (int, error)
}

// MemoryStateStore keeps states in process memory. They are lost on restart.
type MemoryStateStore struct {
	mu     sync.RWMutex
	states map[int64]*ChatState
}

func NewMemoryStateStore() *MemoryStateStore {
	return &MemoryStateStore{states: make(map[int64]*ChatState)}
}

func (m *MemoryStateStore) Load(_ context.Context, chatID int64) (*ChatState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.states[chatID]
	if !ok {
		return nil, ErrStateNotFound
	}
	return s.Clone(), nil
}

func (m *MemoryStateStore) Save(_ context.Context, s *ChatState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[s.ChatID] = s.Clone()
	return nil
}

func (m *MemoryStateStore) Delete(_ context.Context, chatID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.states, chatID)
	return nil
}

func (m *MemoryStateStore) DeleteIdle(_ context.Context, before time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, s := range m.states {
		if s.UpdatedAt.Before(before) {
			delete(m.states, id)
			n++
		}
	}
	return n, nil
}

func (m *MemoryStateStore) ChatsOfCoach(_ context.Context, coachID string) ([]int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var ids []int64
	for id, s := range m.states {
		if s.Identity.Coach != nil && s.Identity.Coach.ID == coachID {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// ChatIDs lists the stored chats in ascending order.
func (m *MemoryStateStore) ChatIDs() []int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]int64, 0, len(m.states))
	for id := range m.states {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
