package app

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"coach_digital_bot/internal/domain/coach"
	"coach_digital_bot/internal/domain/school"
	"coach_digital_bot/internal/identity"
	"coach_digital_bot/internal/route"
	"coach_digital_bot/internal/workflow"
)

// Outcome is the result of one user action: where the chat ended up, the
// effects that ran and the error the user has to see, if any.
type Outcome struct {
	ChatID  int64
	Machine workflow.Machine
	Coach   *coach.Coach
	School  *school.School
	Draft   *CoachForm
	Effects []workflow.Effect
	Err     error
}

func (o *Outcome) Failed() bool { return o.Err != nil }

// Notices returns the notifications raised during the action, in order.
func (o *Outcome) Notices() []workflow.Notice {
	var notices []workflow.Notice
	for _, e := range o.Effects {
		if e.Kind == workflow.EffectNotify {
			notices = append(notices, e.Notice)
		}
	}
	return notices
}

// AskProfile reports whether the "is this still you?" prompt has to be shown.
func (o *Outcome) AskProfile() bool {
	for _, e := range o.Effects {
		if e.Kind == workflow.EffectShowProfileModal {
			return true
		}
	}
	return o.Machine.State == workflow.ConfirmingProfile
}

type NavigatorServices struct {
	Coaches  *CoachService
	Schools  *SchoolService
	Images   *ImageService
	Auth     *AuthService
	Teachers *TeacherService
	Sessions *ObservationService
}

// Navigator runs user actions for a chat: it calls the services, feeds the
// resulting event to workflow.Transition and executes the returned effects.
// Actions of one chat are serialised.
type Navigator struct {
	store    StateStore
	coaches  *CoachService
	schools  *SchoolService
	images   *ImageService
	auth     *AuthService
	teachers *TeacherService
	sessions *ObservationService
	logger   *logrus.Entry

	newID func() string
	now   func() time.Time

	mu         sync.Mutex
	locks      map[int64]*sync.Mutex
	submitting map[int64]bool
}

func NewNavigator(store StateStore, svc NavigatorServices, logger *logrus.Entry) *Navigator {
	return &Navigator{
		store:      store,
		coaches:    svc.Coaches,
		schools:    svc.Schools,
		images:     svc.Images,
		auth:       svc.Auth,
		teachers:   svc.Teachers,
		sessions:   svc.Sessions,
		logger:     logger.WithField("component", "navigator"),
		newID:      func() string { return uuid.New().String() },
		now:        time.Now,
		locks:      make(map[int64]*sync.Mutex),
		submitting: make(map[int64]bool),
	}
}

// action is the working set of one user action.
type action struct {
	ctx      context.Context
	n        *Navigator
	state    *ChatState
	ident    *identity.Context
	fresh    bool
	notified bool
	out      *Outcome

	// chat as it was before the action, restored when the action fails
	beforeMachine workflow.Machine
	beforeIdent   identity.Snapshot
}

func (n *Navigator) chatLock(chatID int64) *sync.Mutex {
	n.mu.Lock()
	defer n.mu.Unlock()
	l, ok := n.locks[chatID]
	if !ok {
		l = &sync.Mutex{}
		n.locks[chatID] = l
	}
	return l
}

func (n *Navigator) load(ctx context.Context, chatID int64) (*ChatState, bool, error) {
	st, err := n.store.Load(ctx, chatID)
	if err != nil {
		if errors.Is(err, ErrStateNotFound) {
			return newChatState(chatID), true, nil
		}
		return nil, false, unavailable("state.load", err)
	}
	return st, false, nil
}

func (n *Navigator) do(ctx context.Context, chatID int64, name string, fn func(a *action) error) *Outcome {
	l := n.chatLock(chatID)
	l.Lock()
	defer l.Unlock()

	log := n.logger.WithFields(logrus.Fields{"chat_id": chatID, "action": name})
	out := &Outcome{ChatID: chatID}

	st, fresh, err := n.load(ctx, chatID)
	if err != nil {
		log.WithError(err).Error("Failed to load chat state")
		out.Err = err
		out.Effects = append(out.Effects, failureNotice(err))
		return out
	}

	a := &action{
		ctx:           ctx,
		n:             n,
		state:         st,
		ident:         identity.FromSnapshot(st.Identity),
		fresh:         fresh,
		out:           out,
		beforeMachine: st.Machine,
	}
	a.beforeIdent = a.ident.Snapshot()
	from := st.Machine

	if err := fn(a); err != nil {
		out.Err = err
		a.rollback()
		if IsServiceUnavailable(err) && !a.notified {
			a.fire(workflow.ServiceFailed(err))
		}
	}

	st.Identity = a.ident.Snapshot()
	st.UpdatedAt = n.now()
	if err := n.store.Save(ctx, st); err != nil {
		log.WithError(err).Error("Failed to save chat state")
		if out.Err == nil {
			out.Err = unavailable("state.save", err)
			out.Effects = append(out.Effects, failureNotice(out.Err))
		}
	}

	out.fill(st)

	entry := log.WithFields(logrus.Fields{
		"from":  from.State,
		"to":    st.Machine.State,
		"route": st.Machine.Route,
	})
	switch {
	case out.Err == nil:
		entry.Debug("Action handled")
	case IsServiceUnavailable(out.Err):
		entry.WithError(out.Err).Error("Action failed")
	default:
		entry.WithError(out.Err).Info("Action rejected")
	}
	return out
}

func (o *Outcome) fill(st *ChatState) {
	o.Machine = st.Machine
	o.Coach = st.Identity.Coach
	o.School = st.Identity.School
	if st.Draft != nil {
		d := *st.Draft
		o.Draft = &d
	}
}

// peek describes the chat as last saved without waiting for a running action.
func (n *Navigator) peek(ctx context.Context, chatID int64, cause error) *Outcome {
	out := &Outcome{ChatID: chatID, Err: cause}
	st, _, err := n.load(ctx, chatID)
	if err != nil {
		n.logger.WithField("chat_id", chatID).WithError(err).Warn("Failed to load chat state")
		return out
	}
	out.fill(st)
	return out
}

func failureNotice(err error) workflow.Effect {
	_, effects := workflow.Transition(workflow.Machine{}, workflow.ServiceFailed(err))
	return effects[0]
}

// fire applies ev. When an effect fails the action is rolled back and a
// failure notice replaces the effects of ev.
func (a *action) fire(ev workflow.Event) error {
	mark := len(a.out.Effects)

	next, effects := workflow.Transition(a.state.Machine, ev)
	for _, eff := range effects {
		if err := a.run(eff); err != nil {
			a.out.Effects = a.out.Effects[:mark]
			a.rollback()
			_, failed := workflow.Transition(a.state.Machine, workflow.ServiceFailed(err))
			a.out.Effects = append(a.out.Effects, failed...)
			a.notified = true
			return err
		}
		a.out.Effects = append(a.out.Effects, eff)
	}
	a.state.Machine = next
	if ev.Kind == workflow.EventServiceFailed {
		a.notified = true
	}
	return nil
}

// rollback puts the machine and the identity context back to where they were
// when the action started, including selections made before any event fired.
// Only the notices raised so far survive.
func (a *action) rollback() {
	a.state.Machine = a.beforeMachine
	a.ident.Restore(a.beforeIdent)
	kept := a.out.Effects[:0]
	for _, e := range a.out.Effects {
		if e.Kind == workflow.EffectNotify {
			kept = append(kept, e)
		}
	}
	a.out.Effects = kept
}

func (a *action) run(eff workflow.Effect) error {
	switch eff.Kind {
	case workflow.EffectCreateCoachSchool:
		return a.n.coaches.CreateCoachSchool(a.ctx, a.ident.Coach(), a.ident.School())
	case workflow.EffectClearCoach:
		a.ident.SelectCoach(nil)
	case workflow.EffectClearIdentity:
		a.ident.Clear()
		a.state.Draft = nil
	case workflow.EffectCreateSession:
		_, err := a.n.sessions.Start(a.ctx, eff.SessionKind, eff.SessionID, eff.TeacherID, eff.ParentID, a.ident.Coach(), a.ident.School())
		return err
	case workflow.EffectCompleteSession:
		return a.n.sessions.Complete(a.ctx, eff.SessionID)
	}
	return nil
}

// expect rejects the action unless the chat is in one of states.
func (a *action) expect(states ...workflow.State) error {
	for _, s := range states {
		if a.state.Machine.State == s {
			return nil
		}
	}
	return errors.Wrapf(ErrWrongScreen, "state %s", a.state.Machine.State)
}

// Current returns the chat's state without changing it.
func (n *Navigator) Current(ctx context.Context, chatID int64) *Outcome {
	return n.do(ctx, chatID, "current", func(a *action) error { return nil })
}

// Start resumes a known chat where its identity allows, or shows the main screen.
func (n *Navigator) Start(ctx context.Context, chatID int64) *Outcome {
	return n.do(ctx, chatID, "start", func(a *action) error {
		if a.fresh || (!a.ident.HasSchool() && !a.ident.HasCoach()) {
			a.state.Machine = workflow.Machine{State: workflow.Unauthenticated, Route: route.Main}
			return nil
		}
		a.state.Machine = workflow.Resume(a.ident.HasCoach(), a.ident.HasSchool())
		return nil
	})
}

func (n *Navigator) OpenLogin(ctx context.Context, chatID int64) *Outcome {
	return n.do(ctx, chatID, "openLogin", func(a *action) error {
		return a.fire(workflow.OpenLogin())
	})
}

// Login authenticates the coach and selects them. The coach's own school is
// selected when none is active yet.
func (n *Navigator) Login(ctx context.Context, chatID int64, username, password string) *Outcome {
	return n.do(ctx, chatID, "login", func(a *action) error {
		if err := a.expect(workflow.Unauthenticated); err != nil {
			return err
		}
		c, err := n.auth.Authenticate(ctx, coach.LoginForm{Username: username, Password: password})
		if err != nil {
			if IsAuthentication(err) || IsValidation(err) {
				a.fire(workflow.LoginFailed(err))
			}
			return err
		}
		if !a.ident.HasSchool() && c.SchoolID != "" {
			sch, err := n.schools.GetByID(ctx, c.SchoolID)
			switch {
			case err == nil:
				a.ident.SelectSchool(sch)
			case errors.Is(err, ErrSchoolNotFound):
				n.logger.WithField("coach_id", c.ID).Warn("Coach school no longer exists")
			default:
				return err
			}
		}
		a.ident.SelectCoach(c)
		return a.fire(workflow.LoginSucceeded(a.ident.HasSchool()))
	})
}

func (n *Navigator) Logout(ctx context.Context, chatID int64) *Outcome {
	return n.do(ctx, chatID, "logout", func(a *action) error {
		return a.fire(workflow.Logout())
	})
}

func (n *Navigator) OpenCreateAccount(ctx context.Context, chatID int64) *Outcome {
	return n.do(ctx, chatID, "openCreateAccount", func(a *action) error {
		if a.state.Draft == nil {
			a.state.Draft = &CoachForm{}
		}
		return a.fire(workflow.OpenCreateAccount(a.ident.HasSchool()))
	})
}

func (n *Navigator) ChangeSchool(ctx context.Context, chatID int64) *Outcome {
	return n.do(ctx, chatID, "changeSchool", func(a *action) error {
		if a.state.Machine.InPipeline() {
			return errors.Wrap(ErrWrongScreen, "finish or leave the session first")
		}
		return a.fire(workflow.ChangeSchool())
	})
}

// SearchSchools runs a school search. It does not touch the chat state.
func (n *Navigator) SearchSchools(ctx context.Context, query string) ([]school.Item, error) {
	return n.schools.FindSchoolItems(ctx, query)
}

// SelectSchool picks a school from the search results.
func (n *Navigator) SelectSchool(ctx context.Context, chatID int64, schoolID string) *Outcome {
	return n.do(ctx, chatID, "selectSchool", func(a *action) error {
		if err := a.expect(workflow.NoSchoolSelected); err != nil {
			return err
		}
		sch, err := n.schools.GetByID(ctx, schoolID)
		if err != nil {
			return err
		}
		a.ident.SelectSchool(sch)
		return a.fire(workflow.SchoolSelected(workflow.SourceSearch, a.ident.HasCoach()))
	})
}

// Scan selects the school encoded in a QR code, leaving the current school
// first when one is active. The payload is checked before anything moves: a
// payload that does not describe a school leaves the chat where it was.
func (n *Navigator) Scan(ctx context.Context, chatID int64, payload string) *Outcome {
	return n.do(ctx, chatID, "scan", func(a *action) error {
		if a.state.Machine.InPipeline() {
			return errors.Wrap(ErrWrongScreen, "finish or leave the session first")
		}
		sch, err := n.schools.ParseScan(payload)
		if err != nil {
			a.fire(workflow.ScanRejected(err))
			return err
		}
		if a.state.Machine.State != workflow.NoSchoolSelected {
			if err := a.fire(workflow.ChangeSchool()); err != nil {
				return err
			}
			if err := a.expect(workflow.NoSchoolSelected); err != nil {
				return err
			}
		}
		if err := n.schools.RegisterScanned(ctx, sch); err != nil {
			return err
		}
		a.ident.SelectSchool(sch)
		return a.fire(workflow.SchoolSelected(workflow.SourceQR, a.ident.HasCoach()))
	})
}

func (n *Navigator) ConfirmProfile(ctx context.Context, chatID int64) *Outcome {
	return n.do(ctx, chatID, "confirmProfile", func(a *action) error {
		if err := a.expect(workflow.ConfirmingProfile); err != nil {
			return err
		}
		return a.fire(workflow.ProfileConfirmed())
	})
}

func (n *Navigator) SwitchProfile(ctx context.Context, chatID int64) *Outcome {
	return n.do(ctx, chatID, "switchProfile", func(a *action) error {
		if err := a.expect(workflow.ConfirmingProfile, workflow.SchoolSelectedNoCoach, workflow.SchoolAndCoachSelected); err != nil {
			return err
		}
		return a.fire(workflow.SwitchProfile())
	})
}

// ListAccounts returns the coaches of the chat's current school.
func (n *Navigator) ListAccounts(ctx context.Context, chatID int64) ([]*coach.Coach, error) {
	st, _, err := n.load(ctx, chatID)
	if err != nil {
		return nil, err
	}
	return n.coaches.ListBySchool(ctx, st.Identity.School)
}

// SelectAccount picks an existing coach on the account selection screen.
func (n *Navigator) SelectAccount(ctx context.Context, chatID int64, coachID string) *Outcome {
	return n.do(ctx, chatID, "selectAccount", func(a *action) error {
		if err := a.expect(workflow.SchoolSelectedNoCoach); err != nil {
			return err
		}
		c, err := n.coaches.GetByID(ctx, coachID)
		if err != nil {
			return err
		}
		a.ident.SelectCoach(c)
		return a.fire(workflow.CoachSelected())
	})
}

// UpdateDraft edits the account creation form kept for the chat.
func (n *Navigator) UpdateDraft(ctx context.Context, chatID int64, edit func(f *CoachForm)) *Outcome {
	return n.do(ctx, chatID, "updateDraft", func(a *action) error {
		if a.state.Machine.Route != route.CreateAccount {
			return errors.Wrap(ErrWrongScreen, "not on the account form")
		}
		if a.state.Draft == nil {
			a.state.Draft = &CoachForm{}
		}
		edit(a.state.Draft)
		return nil
	})
}

// SubmitCoachForm creates the coach from the chat's draft. The picture is
// saved first and its id goes into the new record; the coach is then
// selected and the chat moves on. A submission arriving while another is
// still running for the chat fails with ErrSubmissionInProgress.
func (n *Navigator) SubmitCoachForm(ctx context.Context, chatID int64) *Outcome {
	n.mu.Lock()
	if n.submitting[chatID] {
		n.mu.Unlock()
		return n.peek(ctx, chatID, ErrSubmissionInProgress)
	}
	n.submitting[chatID] = true
	n.mu.Unlock()
	defer func() {
		n.mu.Lock()
		delete(n.submitting, chatID)
		n.mu.Unlock()
	}()

	return n.do(ctx, chatID, "submitCoachForm", func(a *action) error {
		if a.state.Machine.Route != route.CreateAccount {
			return errors.Wrap(ErrWrongScreen, "not on the account form")
		}
		if !a.ident.HasSchool() {
			return ErrNoSchoolSelected
		}
		if a.state.Draft == nil {
			a.state.Draft = &CoachForm{}
		}
		form := a.state.Draft
		values := form.Values
		if err := n.coaches.Validate(&values); err != nil {
			return err
		}
		if form.HasImage() {
			imageID, err := n.images.SaveNewImage(ctx, form.ImageName, form.ImageValue)
			if err != nil {
				return err
			}
			// a retry after a failed create reuses the stored picture
			form.Values.ImageID = imageID
			form.ImageValue = ""
			values.ImageID = imageID
		}
		c, err := n.coaches.Create(ctx, a.ident.School(), values)
		if err != nil {
			return err
		}
		a.state.Draft = nil
		a.ident.SelectCoach(c)
		return a.fire(workflow.CoachCreated())
	})
}

func (n *Navigator) StartObservation(ctx context.Context, chatID int64, teacherID string) *Outcome {
	return n.do(ctx, chatID, "startObservation", func(a *action) error {
		if err := a.expect(workflow.SchoolAndCoachSelected); err != nil {
			return err
		}
		if _, err := n.teachers.Get(ctx, teacherID); err != nil {
			return err
		}
		return a.fire(workflow.StartObservation(teacherID, n.newID()))
	})
}

// StartFeedback opens the feedback pipeline for a finished observation.
func (n *Navigator) StartFeedback(ctx context.Context, chatID int64, observationID string) *Outcome {
	return n.do(ctx, chatID, "startFeedback", func(a *action) error {
		if err := a.expect(workflow.SchoolAndCoachSelected); err != nil {
			return err
		}
		if _, err := n.sessions.Get(ctx, observationID); err != nil {
			return err
		}
		return a.fire(workflow.StartFeedback(observationID, n.newID()))
	})
}

func (n *Navigator) Next(ctx context.Context, chatID int64) *Outcome {
	return n.do(ctx, chatID, "next", func(a *action) error {
		return a.fire(workflow.Next())
	})
}

func (n *Navigator) Back(ctx context.Context, chatID int64) *Outcome {
	return n.do(ctx, chatID, "back", func(a *action) error {
		return a.fire(workflow.Back())
	})
}

// Open jumps to a screen of the home menu.
func (n *Navigator) Open(ctx context.Context, chatID int64, name route.Name, params route.Params) *Outcome {
	return n.do(ctx, chatID, "open", func(a *action) error {
		if err := a.expect(workflow.SchoolAndCoachSelected); err != nil {
			return err
		}
		return a.fire(workflow.Open(name, params))
	})
}

// SaveNotes appends text to the session of the running observation or feedback form.
func (n *Navigator) SaveNotes(ctx context.Context, chatID int64, text string) *Outcome {
	return n.do(ctx, chatID, "saveNotes", func(a *action) error {
		m := a.state.Machine
		if m.Route != route.ObservationForm && m.Route != route.FeedbackForm {
			return errors.Wrap(ErrWrongScreen, "not on a session form")
		}
		return n.sessions.SaveNotes(ctx, m.RecordID(), text)
	})
}

// ChooseCompetence records the competence of the running feedback and moves on.
func (n *Navigator) ChooseCompetence(ctx context.Context, chatID int64, competence string) *Outcome {
	return n.do(ctx, chatID, "chooseCompetence", func(a *action) error {
		m := a.state.Machine
		if m.Route != route.FeedbackChooseCompetence {
			return errors.Wrap(ErrWrongScreen, "not on the competence screen")
		}
		if err := n.sessions.ChooseCompetence(ctx, m.RecordID(), competence); err != nil {
			return err
		}
		return a.fire(workflow.Next())
	})
}
