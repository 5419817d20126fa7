// Package identity tracks who is using the bot in a chat and which school is active.
package identity

import (
	"sync"

	"coach_digital_bot/internal/domain/coach"
	"coach_digital_bot/internal/domain/school"
)

// Context is the active (coach, school) pair of one chat. The two halves are
// independent: selecting a school never touches the coach and vice versa.
// Writes are last-write-wins.
type Context struct {
	mu     sync.RWMutex
	coach  *coach.Coach
	school *school.School
}

// Snapshot is the serialisable form of a Context.
type Snapshot struct {
	Coach  *coach.Coach   `json:"coach,omitempty"`
	School *school.School `json:"school,omitempty"`
}

func New() *Context { return &Context{} }

// FromSnapshot rebuilds a Context, e.g. after loading it from a store.
func FromSnapshot(s Snapshot) *Context {
	c := &Context{}
	c.Restore(s)
	return c
}

func (c *Context) Coach() *coach.Coach {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.coach
}

func (c *Context) School() *school.School {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.school
}

func (c *Context) HasCoach() bool { return c.Coach() != nil }

func (c *Context) HasSchool() bool { return c.School() != nil }

func (c *Context) SelectSchool(s *school.School) {
	if s == nil {
		return
	}
	cp := *s
	c.mu.Lock()
	c.school = &cp
	c.mu.Unlock()
}

// SelectCoach sets the current coach; nil clears it.
func (c *Context) SelectCoach(co *coach.Coach) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if co == nil {
		c.coach = nil
		return
	}
	cp := *co
	c.coach = &cp
}

// Clear drops both halves at a logout boundary.
func (c *Context) Clear() {
	c.mu.Lock()
	c.coach, c.school = nil, nil
	c.mu.Unlock()
}

func (c *Context) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var s Snapshot
	if c.coach != nil {
		cp := *c.coach
		cp.PasswordHash = nil
		s.Coach = &cp
	}
	if c.school != nil {
		cp := *c.school
		s.School = &cp
	}
	return s
}

func (c *Context) Restore(s Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.coach, c.school = s.Coach, s.School
}
