package workflow

import (
	"strings"

	"coach_digital_bot/internal/route"
)

// openable lists the route groups a coach can jump to from the home menu.
var openable = []string{"home.", "teacher.", "settings.", "session."}

// Transition computes the next machine and the effects to run for e.
// Events that do not apply to the current state leave the machine unchanged
// and produce no effects.
func Transition(m Machine, e Event) (Machine, []Effect) {
	switch e.Kind {
	case EventLogout:
		next := Machine{State: Unauthenticated, Route: route.Login}
		return next, []Effect{{Kind: EffectClearIdentity}, navigate(route.Login, nil)}
	case EventOpenLogin:
		if m.State == Unauthenticated {
			return m, nil
		}
		return Machine{State: Unauthenticated, Route: route.Login}, []Effect{navigate(route.Login, nil)}
	case EventServiceFailed:
		return m, []Effect{notify(NoticeError, MsgServiceFailed, e.Err)}
	}

	switch m.State {
	case Unauthenticated:
		return fromUnauthenticated(m, e)
	case NoSchoolSelected:
		return fromNoSchool(m, e)
	case ConfirmingProfile:
		return fromConfirming(m, e)
	case SchoolSelectedNoCoach:
		return fromSchoolNoCoach(m, e)
	case SchoolAndCoachSelected:
		return fromSchoolAndCoach(m, e)
	case ObservationInProgress, FeedbackInProgress:
		return fromPipeline(m, e)
	}
	return m, nil
}

func fromUnauthenticated(m Machine, e Event) (Machine, []Effect) {
	switch e.Kind {
	case EventLoginSucceeded:
		if e.HasSchool {
			return home(m), []Effect{navigate(route.HomeMain, nil)}
		}
		next := m.with(NoSchoolSelected, route.SchoolSelect)
		return next, []Effect{navigate(route.SchoolSelect, nil)}
	case EventLoginFailed:
		return m, []Effect{notify(NoticeError, MsgLoginFailed, e.Err)}
	case EventOpenCreateAccount:
		return openCreateAccount(m, e)
	case EventChangeSchool:
		return changeSchool(m)
	}
	return m, nil
}

func fromNoSchool(m Machine, e Event) (Machine, []Effect) {
	switch e.Kind {
	case EventSchoolSelected:
		if e.HasCoach {
			next := m.with(ConfirmingProfile, m.Route)
			next.GoToSync = e.Source == SourceQR
			return next, []Effect{{Kind: EffectShowProfileModal}}
		}
		next := m
		next.GoToSync = false
		if e.Source == SourceQR {
			next = next.with(SchoolSelectedNoCoach, route.SyncDetails)
			return next, []Effect{navigate(route.SyncDetails, nil)}
		}
		next = next.with(SchoolSelectedNoCoach, route.SelectAccount)
		return next, []Effect{navigate(route.SelectAccount, nil)}
	case EventScanRejected:
		return m, []Effect{notify(NoticeError, MsgScanMalformed, e.Err)}
	case EventOpenCreateAccount:
		return openCreateAccount(m, e)
	case EventChangeSchool:
		return changeSchool(m)
	}
	return m, nil
}

func fromConfirming(m Machine, e Event) (Machine, []Effect) {
	switch e.Kind {
	case EventProfileConfirmed:
		target := route.HomeMain
		if m.GoToSync {
			target = route.SyncDetails
		}
		next := m.with(SchoolAndCoachSelected, target)
		next.GoToSync = false
		next.Params = nil
		return next, []Effect{{Kind: EffectCreateCoachSchool}, navigate(target, nil)}
	case EventSwitchProfile:
		return switchProfile(m)
	}
	return m, nil
}

func fromSchoolNoCoach(m Machine, e Event) (Machine, []Effect) {
	switch e.Kind {
	case EventCoachCreated:
		next := m.with(SchoolAndCoachSelected, route.AccountCreated)
		return next, []Effect{
			navigate(route.AccountCreated, nil),
			notify(NoticeSuccess, MsgAccountCreated, nil),
		}
	case EventCoachSelected:
		next := home(m)
		return next, []Effect{{Kind: EffectCreateCoachSchool}, navigate(route.HomeMain, nil)}
	case EventOpenCreateAccount:
		return openCreateAccount(m, e)
	case EventBack:
		if m.Route == route.CreateAccount {
			next := m.with(SchoolSelectedNoCoach, route.SelectAccount)
			return next, []Effect{navigate(route.SelectAccount, nil)}
		}
		return changeSchool(m)
	case EventSwitchProfile:
		return switchProfile(m)
	case EventChangeSchool:
		return changeSchool(m)
	}
	return m, nil
}

func fromSchoolAndCoach(m Machine, e Event) (Machine, []Effect) {
	switch e.Kind {
	case EventOpen:
		return open(m, e)
	case EventBack:
		if m.Route == route.HomeMain {
			return m, nil
		}
		next := home(m)
		return next, []Effect{navigate(route.HomeMain, nil)}
	case EventStartObservation:
		if e.TeacherID == "" || e.NewSessionID == "" {
			return m, nil
		}
		next := m.with(ObservationInProgress, ObservationPipeline.First())
		next.Params = route.Params{ParamTeacherID: e.TeacherID, ParamSessionID: e.NewSessionID}
		return next, []Effect{
			{Kind: EffectCreateSession, SessionKind: ObservationPipeline.Kind, SessionID: e.NewSessionID, TeacherID: e.TeacherID},
			navigate(next.Route, next.Params),
		}
	case EventStartFeedback:
		if e.SessionID == "" || e.NewSessionID == "" {
			return m, nil
		}
		next := m.with(FeedbackInProgress, FeedbackPipeline.First())
		next.Params = route.Params{ParamSessionID: e.SessionID, ParamFeedbackID: e.NewSessionID}
		return next, []Effect{
			{Kind: EffectCreateSession, SessionKind: FeedbackPipeline.Kind, SessionID: e.NewSessionID, ParentID: e.SessionID},
			navigate(next.Route, next.Params),
		}
	case EventSwitchProfile:
		return switchProfile(m)
	case EventChangeSchool:
		return changeSchool(m)
	}
	return m, nil
}

func fromPipeline(m Machine, e Event) (Machine, []Effect) {
	p, _ := pipelineFor(m.State)
	switch e.Kind {
	case EventNext:
		if m.Route == p.Last() {
			next := home(m)
			return next, []Effect{navigate(route.HomeMain, nil)}
		}
		target, ok := p.Next(m.Route)
		if !ok {
			return m, nil
		}
		next := m.with(m.State, target)
		var effects []Effect
		if m.Route == p.CompleteFrom {
			effects = append(effects, Effect{Kind: EffectCompleteSession, SessionKind: p.Kind, SessionID: m.RecordID()})
		}
		effects = append(effects, navigate(target, next.Params))
		if target == p.Last() {
			effects = append(effects, notify(NoticeSuccess, MsgSessionComplete, nil))
		}
		return next, effects
	case EventBack:
		if m.Route == p.Last() {
			next := home(m)
			return next, []Effect{navigate(route.HomeMain, nil)}
		}
		target, ok := p.Prev(m.Route)
		if !ok {
			// leaving from the first step keeps the session pending
			next := home(m)
			return next, []Effect{navigate(route.HomeMain, nil)}
		}
		next := m.with(m.State, target)
		return next, []Effect{navigate(target, next.Params)}
	}
	return m, nil
}

// RecordID is the id of the session record the running pipeline writes to.
func (m Machine) RecordID() string {
	if m.State == FeedbackInProgress {
		return m.param(ParamFeedbackID)
	}
	return m.param(ParamSessionID)
}

func home(m Machine) Machine {
	next := m.with(SchoolAndCoachSelected, route.HomeMain)
	next.Params = nil
	next.GoToSync = false
	return next
}

func changeSchool(m Machine) (Machine, []Effect) {
	next := m.with(NoSchoolSelected, route.SchoolSelect)
	next.Params = nil
	next.GoToSync = false
	return next, []Effect{navigate(route.SchoolSelect, nil)}
}

func openCreateAccount(m Machine, e Event) (Machine, []Effect) {
	if !e.HasSchool {
		next, effects := changeSchool(m)
		return next, append(effects, notify(NoticeInfo, MsgSchoolRequired, nil))
	}
	next := m.with(SchoolSelectedNoCoach, route.CreateAccount)
	return next, []Effect{navigate(route.CreateAccount, nil)}
}

// switchProfile always clears the coach and consumes the sync flag.
func switchProfile(m Machine) (Machine, []Effect) {
	target := route.SelectAccount
	if m.GoToSync {
		target = route.SyncDetails
	}
	next := m.with(SchoolSelectedNoCoach, target)
	next.GoToSync = false
	next.Params = nil
	return next, []Effect{{Kind: EffectClearCoach}, navigate(target, nil)}
}

func open(m Machine, e Event) (Machine, []Effect) {
	allowed := false
	for _, prefix := range openable {
		if strings.HasPrefix(string(e.Route), prefix) {
			allowed = true
			break
		}
	}
	if !allowed {
		return m, nil
	}
	if _, err := route.Paths.Build(e.Route, e.Params); err != nil {
		return m, []Effect{notify(NoticeError, MsgInvalidRoute, err)}
	}
	next := m.with(SchoolAndCoachSelected, e.Route)
	next.Params = e.Params
	return next, []Effect{navigate(e.Route, e.Params)}
}
