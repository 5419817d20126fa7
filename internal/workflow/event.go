package workflow

import "coach_digital_bot/internal/route"

type EventKind string

const (
	EventLoginSucceeded    EventKind = "LOGIN_SUCCEEDED"
	EventLoginFailed       EventKind = "LOGIN_FAILED"
	EventOpenCreateAccount EventKind = "OPEN_CREATE_ACCOUNT"
	EventChangeSchool      EventKind = "CHANGE_SCHOOL"
	EventSchoolSelected    EventKind = "SCHOOL_SELECTED"
	EventScanRejected      EventKind = "SCAN_REJECTED"
	EventProfileConfirmed  EventKind = "PROFILE_CONFIRMED"
	EventSwitchProfile     EventKind = "SWITCH_PROFILE"
	EventCoachCreated      EventKind = "COACH_CREATED"
	EventCoachSelected     EventKind = "COACH_SELECTED"
	EventOpen              EventKind = "OPEN"
	EventStartObservation  EventKind = "START_OBSERVATION"
	EventStartFeedback     EventKind = "START_FEEDBACK"
	EventNext              EventKind = "NEXT"
	EventBack              EventKind = "BACK"
	EventOpenLogin         EventKind = "OPEN_LOGIN"
	EventLogout            EventKind = "LOGOUT"
	EventServiceFailed     EventKind = "SERVICE_FAILED"
)

// Source tells how a school was picked.
type Source string

const (
	SourceSearch Source = "search"
	SourceQR     Source = "qr"
)

// Event is an input to Transition. Only the fields relevant to Kind are read.
type Event struct {
	Kind      EventKind
	Source    Source
	HasCoach  bool
	HasSchool bool
	Route     route.Name
	Params    route.Params
	TeacherID string
	SessionID string
	// NewSessionID is allocated by the caller so Transition stays pure.
	NewSessionID string
	Err          error
}

func LoginSucceeded(hasSchool bool) Event {
	return Event{Kind: EventLoginSucceeded, HasSchool: hasSchool}
}

func LoginFailed(err error) Event { return Event{Kind: EventLoginFailed, Err: err} }

func OpenCreateAccount(hasSchool bool) Event {
	return Event{Kind: EventOpenCreateAccount, HasSchool: hasSchool}
}

func ChangeSchool() Event { return Event{Kind: EventChangeSchool} }

func SchoolSelected(src Source, hasCoach bool) Event {
	return Event{Kind: EventSchoolSelected, Source: src, HasCoach: hasCoach}
}

func ScanRejected(err error) Event { return Event{Kind: EventScanRejected, Err: err} }

func ProfileConfirmed() Event { return Event{Kind: EventProfileConfirmed} }

func SwitchProfile() Event { return Event{Kind: EventSwitchProfile} }

func CoachCreated() Event { return Event{Kind: EventCoachCreated} }

func CoachSelected() Event { return Event{Kind: EventCoachSelected} }

func Open(r route.Name, params route.Params) Event {
	return Event{Kind: EventOpen, Route: r, Params: params}
}

func StartObservation(teacherID, newSessionID string) Event {
	return Event{Kind: EventStartObservation, TeacherID: teacherID, NewSessionID: newSessionID}
}

// StartFeedback opens a feedback run for the observation session sessionID.
func StartFeedback(sessionID, newSessionID string) Event {
	return Event{Kind: EventStartFeedback, SessionID: sessionID, NewSessionID: newSessionID}
}

func Next() Event { return Event{Kind: EventNext} }

func Back() Event { return Event{Kind: EventBack} }

// OpenLogin shows the login screen without dropping the identity context;
// a successful login replaces the coach.
func OpenLogin() Event { return Event{Kind: EventOpenLogin} }

func Logout() Event { return Event{Kind: EventLogout} }

func ServiceFailed(err error) Event { return Event{Kind: EventServiceFailed, Err: err} }
