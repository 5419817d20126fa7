// Package workflow decides which screen follows the current one. Transition is
// a pure function: it reads the machine and an event and returns the next
// machine plus the side effects the caller has to run, in order.
package workflow

import "coach_digital_bot/internal/route"

type State string

const (
	Unauthenticated        State = "UNAUTHENTICATED"
	NoSchoolSelected       State = "NO_SCHOOL_SELECTED"
	SchoolSelectedNoCoach  State = "SCHOOL_SELECTED_NO_COACH"
	ConfirmingProfile      State = "CONFIRMING_PROFILE"
	SchoolAndCoachSelected State = "SCHOOL_AND_COACH_SELECTED"
	ObservationInProgress  State = "OBSERVATION_IN_PROGRESS"
	FeedbackInProgress     State = "FEEDBACK_IN_PROGRESS"
)

// Param keys kept in Machine.Params.
const (
	ParamTeacherID  = "teacherId"
	ParamSessionID  = "sessionId"
	ParamFeedbackID = "feedbackId"
	ParamID         = "id"
)

// Machine is the per-chat navigation state.
type Machine struct {
	State  State        `json:"state"`
	Route  route.Name   `json:"route"`
	Params route.Params `json:"params,omitempty"`
	// GoToSync is set by a QR scan that opened the profile prompt and is
	// consumed by the prompt's answer.
	GoToSync bool `json:"go_to_sync,omitempty"`
}

// Resume picks the starting point for a chat from what the identity context holds.
func Resume(hasCoach, hasSchool bool) Machine {
	switch {
	case hasSchool && hasCoach:
		return Machine{State: SchoolAndCoachSelected, Route: route.HomeMain}
	case hasSchool:
		return Machine{State: SchoolSelectedNoCoach, Route: route.SelectAccount}
	default:
		return Machine{State: NoSchoolSelected, Route: route.SchoolSelect}
	}
}

// InPipeline reports whether the machine is inside an observation or feedback run.
func (m Machine) InPipeline() bool {
	return m.State == ObservationInProgress || m.State == FeedbackInProgress
}

func (m Machine) param(key string) string {
	if m.Params == nil {
		return ""
	}
	return m.Params[key]
}

func (m Machine) with(state State, r route.Name) Machine {
	m.State = state
	m.Route = r
	return m
}
