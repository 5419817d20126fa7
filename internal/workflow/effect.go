package workflow

import (
	"coach_digital_bot/internal/domain/observation"
	"coach_digital_bot/internal/route"
)

type EffectKind string

const (
	EffectNavigate          EffectKind = "NAVIGATE"
	EffectShowProfileModal  EffectKind = "SHOW_PROFILE_MODAL"
	EffectCreateCoachSchool EffectKind = "CREATE_COACH_SCHOOL"
	EffectClearCoach        EffectKind = "CLEAR_COACH"
	EffectClearIdentity     EffectKind = "CLEAR_IDENTITY"
	EffectCreateSession     EffectKind = "CREATE_SESSION"
	EffectCompleteSession   EffectKind = "COMPLETE_SESSION"
	EffectNotify            EffectKind = "NOTIFY"
)

type NoticeLevel string

const (
	NoticeSuccess NoticeLevel = "success"
	NoticeInfo    NoticeLevel = "info"
	NoticeError   NoticeLevel = "error"
)

// Message keys carried by notify effects.
const (
	MsgAccountCreated  = "login.createAccount.success"
	MsgLoginFailed     = "login.failed"
	MsgScanMalformed   = "aboutScan.malformed"
	MsgSchoolRequired  = "schoolSelect.required"
	MsgServiceFailed   = "common.serviceUnavailable"
	MsgSessionComplete = "session.completed"
	MsgInvalidRoute    = "common.invalidRoute"
)

type Notice struct {
	Level NoticeLevel
	Key   string
	Err   error
}

// Effect is one side effect the caller runs after a transition.
type Effect struct {
	Kind   EffectKind
	Route  route.Name
	Params route.Params
	Notice Notice
	// CREATE_SESSION / COMPLETE_SESSION
	SessionKind observation.Kind
	SessionID   string
	TeacherID   string
	ParentID    string
}

func navigate(r route.Name, params route.Params) Effect {
	return Effect{Kind: EffectNavigate, Route: r, Params: params}
}

func notify(level NoticeLevel, key string, err error) Effect {
	return Effect{Kind: EffectNotify, Notice: Notice{Level: level, Key: key, Err: err}}
}
