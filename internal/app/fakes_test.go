package app

import (
	"context"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"coach_digital_bot/internal/domain/coach"
	"coach_digital_bot/internal/domain/image"
	"coach_digital_bot/internal/domain/observation"
	"coach_digital_bot/internal/domain/school"
	"coach_digital_bot/internal/domain/teacher"
	idb "coach_digital_bot/internal/infra/database"
)

func testLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

// callLog records repository calls in the order they were issued.
type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (l *callLog) add(call string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, call)
}

func (l *callLog) all() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.calls...)
}

func (l *callLog) count(call string) int {
	n := 0
	for _, c := range l.all() {
		if c == call {
			n++
		}
	}
	return n
}

type fakeCoachRepo struct {
	log       *callLog
	coaches   map[string]*coach.Coach
	links     map[string]bool
	createErr error
	linkErr   error
}

// Create behaves like the transactional store: on any failure nothing is kept.
func (r *fakeCoachRepo) Create(_ context.Context, c *coach.Coach) error {
	r.log.add("coach.create")
	if r.createErr != nil {
		return r.createErr
	}
	if c.Username.Valid {
		for _, other := range r.coaches {
			if other.Username == c.Username {
				return idb.ErrDuplicateCoach
			}
		}
	}
	r.log.add("coach.link")
	if r.linkErr != nil {
		return r.linkErr
	}
	c.CreatedAt = time.Now()
	cp := *c
	r.coaches[c.ID] = &cp
	r.links[c.ID+"/"+c.SchoolID] = true
	return nil
}

func (r *fakeCoachRepo) GetByID(_ context.Context, id string) (*coach.Coach, error) {
	r.log.add("coach.get")
	c, ok := r.coaches[id]
	if !ok {
		return nil, idb.ErrCoachNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *fakeCoachRepo) GetByUsername(_ context.Context, username string) (*coach.Coach, error) {
	for _, c := range r.coaches {
		if c.Username.Valid && c.Username.String == username {
			cp := *c
			return &cp, nil
		}
	}
	return nil, idb.ErrCoachNotFound
}

func (r *fakeCoachRepo) ListBySchool(_ context.Context, schoolID string) ([]*coach.Coach, error) {
	var out []*coach.Coach
	for _, c := range r.coaches {
		if c.SchoolID == schoolID || r.links[c.ID+"/"+schoolID] {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeCoachRepo) CreateCoachSchool(_ context.Context, link *coach.CoachSchool) error {
	r.log.add("coach.link")
	if r.linkErr != nil {
		return r.linkErr
	}
	r.links[link.CoachID+"/"+link.SchoolID] = true
	return nil
}

type fakeSchoolRepo struct {
	log       *callLog
	schools   map[string]*school.School
	getErr    error
	upsertErr error
	queries   []string
	mu        sync.Mutex
}

func (r *fakeSchoolRepo) GetByID(_ context.Context, id string) (*school.School, error) {
	r.log.add("school.get")
	if r.getErr != nil {
		return nil, r.getErr
	}
	s, ok := r.schools[id]
	if !ok {
		return nil, idb.ErrSchoolNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *fakeSchoolRepo) FindItems(_ context.Context, query string, limit int) ([]school.Item, error) {
	r.mu.Lock()
	r.queries = append(r.queries, query)
	r.mu.Unlock()
	var out []school.Item
	for _, s := range r.schools {
		if strings.Contains(strings.ToLower(s.Name), strings.ToLower(query)) {
			out = append(out, school.Item{ID: s.ID, Name: s.Name, District: s.District.String})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeSchoolRepo) Upsert(_ context.Context, s *school.School) error {
	r.log.add("school.upsert")
	if r.upsertErr != nil {
		return r.upsertErr
	}
	cp := *s
	r.schools[s.ID] = &cp
	return nil
}

func (r *fakeSchoolRepo) searches() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.queries...)
}

type fakeImageRepo struct {
	log     *callLog
	images  map[string]*image.Image
	started chan struct{}
	release chan struct{}
}

func (r *fakeImageRepo) Create(_ context.Context, img *image.Image) error {
	r.log.add("image.create")
	if r.started != nil {
		r.started <- struct{}{}
		<-r.release
	}
	cp := *img
	r.images[img.ID] = &cp
	return nil
}

func (r *fakeImageRepo) GetByID(_ context.Context, id string) (*image.Image, error) {
	img, ok := r.images[id]
	if !ok {
		return nil, idb.ErrImageNotFound
	}
	cp := *img
	return &cp, nil
}

type fakeTeacherRepo struct {
	teachers map[string]*teacher.Teacher
	items    []teacher.Item
}

func (r *fakeTeacherRepo) GetByID(_ context.Context, id string) (*teacher.Teacher, error) {
	t, ok := r.teachers[id]
	if !ok {
		return nil, idb.ErrTeacherNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *fakeTeacherRepo) ListItems(_ context.Context, schoolID string) ([]teacher.Item, error) {
	return r.items, nil
}

type fakeSessionRepo struct {
	log      *callLog
	sessions map[string]*observation.Session
}

func (r *fakeSessionRepo) Create(_ context.Context, s *observation.Session) error {
	r.log.add("session.create")
	s.CreatedAt = time.Now()
	cp := *s
	r.sessions[s.ID] = &cp
	return nil
}

func (r *fakeSessionRepo) GetByID(_ context.Context, id string) (*observation.Session, error) {
	s, ok := r.sessions[id]
	if !ok {
		return nil, idb.ErrSessionNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *fakeSessionRepo) Update(_ context.Context, s *observation.Session) error {
	r.log.add("session.update")
	cp := *s
	r.sessions[s.ID] = &cp
	return nil
}

func (r *fakeSessionRepo) ListPendingByCoach(_ context.Context, coachID string) ([]*observation.Session, error) {
	var out []*observation.Session
	for _, s := range r.sessions {
		if s.CoachID == coachID && s.Status == observation.StatusPending {
			cp := *s
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeSessionRepo) ListPendingCreatedBefore(_ context.Context, before time.Time) ([]*observation.Session, error) {
	var out []*observation.Session
	for _, s := range r.sessions {
		if s.Status == observation.StatusPending && s.CreatedAt.Before(before) {
			cp := *s
			out = append(out, &cp)
		}
	}
	return out, nil
}

type failingStore struct {
	*MemoryStateStore
	loadErr error
}

func (s *failingStore) Load(ctx context.Context, chatID int64) (*ChatState, error) {
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	return s.MemoryStateStore.Load(ctx, chatID)
}

type fixture struct {
	log      *callLog
	coaches  *fakeCoachRepo
	schools  *fakeSchoolRepo
	images   *fakeImageRepo
	teachers *fakeTeacherRepo
	sessions *fakeSessionRepo
	store    *MemoryStateStore
	nav      *Navigator
}

func newFixture() *fixture {
	log := &callLog{}
	f := &fixture{
		log: log,
		coaches: &fakeCoachRepo{
			log:     log,
			coaches: map[string]*coach.Coach{},
			links:   map[string]bool{},
		},
		schools: &fakeSchoolRepo{
			log: log,
			schools: map[string]*school.School{
				"s-1": {ID: "s-1", Name: "Kampala Primary"},
				"s-2": {ID: "s-2", Name: "Gulu High"},
			},
		},
		images:   &fakeImageRepo{log: log, images: map[string]*image.Image{}},
		teachers: &fakeTeacherRepo{teachers: map[string]*teacher.Teacher{"t-1": {ID: "t-1", Name: "Ann", Surname: "Okello", SchoolID: "s-1"}}},
		sessions: &fakeSessionRepo{log: log, sessions: map[string]*observation.Session{}},
		store:    NewMemoryStateStore(),
	}
	f.nav = f.navigator(f.store)
	return f
}

func (f *fixture) navigator(store StateStore) *Navigator {
	logger := testLogger()
	v := NewValidator()
	return NewNavigator(store, NavigatorServices{
		Coaches:  NewCoachService(f.coaches, v, logger),
		Schools:  NewSchoolService(f.schools, v, 10, logger),
		Images:   NewImageService(f.images, logger),
		Auth:     NewAuthService(f.coaches, v, logger),
		Teachers: NewTeacherService(f.teachers, f.images, logger),
		Sessions: NewObservationService(f.sessions, logger),
	}, logger)
}

func (f *fixture) addCoach(id, schoolID string) *coach.Coach {
	c := &coach.Coach{ID: id, SchoolID: schoolID, Name: "Grace", Surname: "Atim"}
	f.coaches.coaches[id] = c
	return c
}
