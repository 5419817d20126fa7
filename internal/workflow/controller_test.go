package workflow

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coach_digital_bot/internal/route"
)

func kinds(effects []Effect) []EffectKind {
	out := make([]EffectKind, 0, len(effects))
	for _, e := range effects {
		out = append(out, e.Kind)
	}
	return out
}

func lastNavigation(t *testing.T, effects []Effect) route.Name {
	t.Helper()
	for i := len(effects) - 1; i >= 0; i-- {
		if effects[i].Kind == EffectNavigate {
			return effects[i].Route
		}
	}
	t.Fatalf("no navigation in %v", kinds(effects))
	return ""
}

func TestResume(t *testing.T) {
	tests := []struct {
		name      string
		hasCoach  bool
		hasSchool bool
		want      State
		wantRoute route.Name
	}{
		{name: "fresh device", want: NoSchoolSelected, wantRoute: route.SchoolSelect},
		{name: "coach only", hasCoach: true, want: NoSchoolSelected, wantRoute: route.SchoolSelect},
		{name: "school only", hasSchool: true, want: SchoolSelectedNoCoach, wantRoute: route.SelectAccount},
		{name: "both", hasCoach: true, hasSchool: true, want: SchoolAndCoachSelected, wantRoute: route.HomeMain},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := Resume(tt.hasCoach, tt.hasSchool)
			assert.Equal(t, tt.want, m.State)
			assert.Equal(t, tt.wantRoute, m.Route)
		})
	}
}

func TestTransition_SchoolSelection(t *testing.T) {
	start := Resume(false, false)
	tests := []struct {
		name      string
		event     Event
		wantState State
		wantSync  bool
		wantKinds []EffectKind
		wantRoute route.Name
	}{
		{
			name:      "search without coach goes to account selection",
			event:     SchoolSelected(SourceSearch, false),
			wantState: SchoolSelectedNoCoach,
			wantKinds: []EffectKind{EffectNavigate},
			wantRoute: route.SelectAccount,
		},
		{
			name:      "scan without coach goes to sync details",
			event:     SchoolSelected(SourceQR, false),
			wantState: SchoolSelectedNoCoach,
			wantKinds: []EffectKind{EffectNavigate},
			wantRoute: route.SyncDetails,
		},
		{
			name:      "search with coach asks for confirmation",
			event:     SchoolSelected(SourceSearch, true),
			wantState: ConfirmingProfile,
			wantKinds: []EffectKind{EffectShowProfileModal},
		},
		{
			name:      "scan with coach asks for confirmation and sets the sync flag",
			event:     SchoolSelected(SourceQR, true),
			wantState: ConfirmingProfile,
			wantSync:  true,
			wantKinds: []EffectKind{EffectShowProfileModal},
		},
		{
			name:      "rejected scan keeps state",
			event:     ScanRejected(errors.New("bad json")),
			wantState: NoSchoolSelected,
			wantKinds: []EffectKind{EffectNotify},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, effects := Transition(start, tt.event)
			assert.Equal(t, tt.wantState, next.State)
			assert.Equal(t, tt.wantSync, next.GoToSync)
			assert.Equal(t, tt.wantKinds, kinds(effects))
			if tt.wantRoute != "" {
				assert.Equal(t, tt.wantRoute, lastNavigation(t, effects))
				assert.Equal(t, tt.wantRoute, next.Route)
			}
		})
	}
}

func TestTransition_QRFlagIsOneShot(t *testing.T) {
	m := Resume(true, false)

	m, _ = Transition(m, SchoolSelected(SourceQR, true))
	require.True(t, m.GoToSync)

	m, effects := Transition(m, ProfileConfirmed())
	assert.Equal(t, []EffectKind{EffectCreateCoachSchool, EffectNavigate}, kinds(effects))
	assert.Equal(t, route.SyncDetails, lastNavigation(t, effects))
	assert.False(t, m.GoToSync)
	assert.Equal(t, SchoolAndCoachSelected, m.State)

	// a second, independent selection by search must not inherit the flag
	m, _ = Transition(m, ChangeSchool())
	m, _ = Transition(m, SchoolSelected(SourceSearch, true))
	assert.False(t, m.GoToSync)
	_, effects = Transition(m, ProfileConfirmed())
	assert.Equal(t, route.HomeMain, lastNavigation(t, effects))
}

func TestTransition_SecondScanStartsFresh(t *testing.T) {
	m := Resume(true, false)
	m, _ = Transition(m, SchoolSelected(SourceQR, true))
	m, _ = Transition(m, SwitchProfile())
	require.False(t, m.GoToSync)

	// second scan with no coach left: direct navigation, no flag
	m, _ = Transition(m, ChangeSchool())
	m, effects := Transition(m, SchoolSelected(SourceQR, false))
	assert.False(t, m.GoToSync)
	assert.Equal(t, route.SyncDetails, lastNavigation(t, effects))
}

func TestTransition_SwitchProfileAlwaysClearsCoach(t *testing.T) {
	starts := []Machine{
		{State: ConfirmingProfile, Route: route.SchoolSelect},
		{State: ConfirmingProfile, Route: route.SchoolSelect, GoToSync: true},
		{State: SchoolAndCoachSelected, Route: route.HomeMain},
		{State: SchoolSelectedNoCoach, Route: route.SelectAccount},
	}
	for _, start := range starts {
		t.Run(string(start.State), func(t *testing.T) {
			next, effects := Transition(start, SwitchProfile())
			require.NotEmpty(t, effects)
			assert.Equal(t, EffectClearCoach, effects[0].Kind)
			assert.Equal(t, SchoolSelectedNoCoach, next.State)
			assert.False(t, next.GoToSync)
			want := route.SelectAccount
			if start.GoToSync {
				want = route.SyncDetails
			}
			assert.Equal(t, want, lastNavigation(t, effects))
		})
	}
}

func TestTransition_Login(t *testing.T) {
	m := Machine{State: Unauthenticated, Route: route.Login}

	same, effects := Transition(m, LoginFailed(errors.New("nope")))
	assert.Equal(t, m, same)
	require.Len(t, effects, 1)
	assert.Equal(t, NoticeError, effects[0].Notice.Level)
	assert.Equal(t, MsgLoginFailed, effects[0].Notice.Key)

	next, effects := Transition(m, LoginSucceeded(false))
	assert.Equal(t, NoSchoolSelected, next.State)
	assert.Equal(t, route.SchoolSelect, lastNavigation(t, effects))

	next, effects = Transition(m, LoginSucceeded(true))
	assert.Equal(t, SchoolAndCoachSelected, next.State)
	assert.Equal(t, route.HomeMain, lastNavigation(t, effects))
}

func TestTransition_CreateAccount(t *testing.T) {
	m := Machine{State: Unauthenticated, Route: route.Login}

	next, effects := Transition(m, OpenCreateAccount(false))
	assert.Equal(t, NoSchoolSelected, next.State)
	assert.Equal(t, []EffectKind{EffectNavigate, EffectNotify}, kinds(effects))

	next, _ = Transition(m, OpenCreateAccount(true))
	assert.Equal(t, route.CreateAccount, next.Route)

	next, effects = Transition(next, CoachCreated())
	assert.Equal(t, SchoolAndCoachSelected, next.State)
	assert.Equal(t, []EffectKind{EffectNavigate, EffectNotify}, kinds(effects))
	assert.Equal(t, route.AccountCreated, effects[0].Route)
	assert.Equal(t, MsgAccountCreated, effects[1].Notice.Key)
}

func TestTransition_SelectExistingCoach(t *testing.T) {
	m := Machine{State: SchoolSelectedNoCoach, Route: route.SelectAccount}
	next, effects := Transition(m, CoachSelected())
	assert.Equal(t, SchoolAndCoachSelected, next.State)
	assert.Equal(t, []EffectKind{EffectCreateCoachSchool, EffectNavigate}, kinds(effects))
}

func TestTransition_ObservationPipeline(t *testing.T) {
	m := Machine{State: SchoolAndCoachSelected, Route: route.HomeMain}

	m, effects := Transition(m, StartObservation("t-1", "s-1"))
	require.Equal(t, ObservationInProgress, m.State)
	assert.Equal(t, []EffectKind{EffectCreateSession, EffectNavigate}, kinds(effects))
	assert.Equal(t, "t-1", effects[0].TeacherID)
	path, err := route.Paths.Build(effects[1].Route, effects[1].Params)
	require.NoError(t, err)
	assert.Equal(t, "/classObservation/about/t-1", path)

	want := []route.Name{
		route.ObservationOnboarding,
		route.ObservationSetup,
		route.ObservationForm,
		route.ObservationConfirmation,
		route.ObservationCompleted,
	}
	for _, w := range want {
		m, effects = Transition(m, Next())
		assert.Equal(t, w, m.Route)
		assert.Equal(t, w, lastNavigation(t, effects))
	}
	// the last Next completed the record and announced it
	assert.Equal(t, []EffectKind{EffectCompleteSession, EffectNavigate, EffectNotify}, kinds(effects))
	assert.Equal(t, "s-1", effects[0].SessionID)
	path, err = route.Paths.Build(effects[1].Route, effects[1].Params)
	require.NoError(t, err)
	assert.Equal(t, "/classObservation/completed/s-1", path)

	m, effects = Transition(m, Next())
	assert.Equal(t, SchoolAndCoachSelected, m.State)
	assert.Equal(t, route.HomeMain, lastNavigation(t, effects))
	assert.Nil(t, m.Params)
}

func TestTransition_FeedbackPipeline(t *testing.T) {
	m := Machine{State: SchoolAndCoachSelected, Route: route.HomeMain}
	m, effects := Transition(m, StartFeedback("obs-1", "fb-1"))
	require.Equal(t, FeedbackInProgress, m.State)
	assert.Equal(t, "obs-1", effects[0].ParentID)
	assert.Equal(t, "fb-1", effects[0].SessionID)

	m, _ = Transition(m, Next())
	assert.Equal(t, route.FeedbackChooseCompetence, m.Route)
	m, _ = Transition(m, Next())
	assert.Equal(t, route.FeedbackForm, m.Route)
	m, effects = Transition(m, Next())
	assert.Equal(t, route.FeedbackCompleted, m.Route)
	assert.Equal(t, EffectCompleteSession, effects[0].Kind)
	assert.Equal(t, "fb-1", effects[0].SessionID)
}

func TestTransition_PipelineBack(t *testing.T) {
	m := Machine{State: SchoolAndCoachSelected, Route: route.HomeMain}
	m, _ = Transition(m, StartObservation("t-1", "s-1"))
	m, _ = Transition(m, Next())
	m, effects := Transition(m, Back())
	assert.Equal(t, route.ObservationAbout, m.Route)
	assert.Equal(t, route.ObservationAbout, lastNavigation(t, effects))

	m, _ = Transition(m, Back())
	assert.Equal(t, SchoolAndCoachSelected, m.State)
	assert.Equal(t, route.HomeMain, m.Route)
}

func TestTransition_StartRequiresIDs(t *testing.T) {
	m := Machine{State: SchoolAndCoachSelected, Route: route.HomeMain}
	next, effects := Transition(m, StartObservation("", "s-1"))
	assert.Equal(t, m, next)
	assert.Empty(t, effects)
}

func TestTransition_Open(t *testing.T) {
	m := Machine{State: SchoolAndCoachSelected, Route: route.HomeMain}

	next, effects := Transition(m, Open(route.TeacherDetails, route.Params{"id": "t-1"}))
	assert.Equal(t, route.TeacherDetails, next.Route)
	assert.Equal(t, []EffectKind{EffectNavigate}, kinds(effects))

	next, effects = Transition(m, Open(route.TeacherDetails, nil))
	assert.Equal(t, m, next)
	require.Len(t, effects, 1)
	assert.Equal(t, MsgInvalidRoute, effects[0].Notice.Key)

	next, effects = Transition(m, Open(route.ObservationForm, nil))
	assert.Equal(t, m, next)
	assert.Empty(t, effects)
}

func TestTransition_IgnoresForeignEvents(t *testing.T) {
	tests := []struct {
		name  string
		m     Machine
		event Event
	}{
		{name: "confirm outside modal", m: Machine{State: SchoolAndCoachSelected, Route: route.HomeMain}, event: ProfileConfirmed()},
		{name: "select school while confirming", m: Machine{State: ConfirmingProfile, Route: route.SchoolSelect}, event: SchoolSelected(SourceSearch, true)},
		{name: "next outside pipeline", m: Machine{State: NoSchoolSelected, Route: route.SchoolSelect}, event: Next()},
		{name: "coach created while logged out", m: Machine{State: Unauthenticated, Route: route.Login}, event: CoachCreated()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, effects := Transition(tt.m, tt.event)
			assert.Equal(t, tt.m, next)
			assert.Empty(t, effects)
		})
	}
}

func TestTransition_LogoutFromAnywhere(t *testing.T) {
	for _, s := range []State{NoSchoolSelected, ConfirmingProfile, SchoolAndCoachSelected, ObservationInProgress} {
		next, effects := Transition(Machine{State: s, GoToSync: true}, Logout())
		assert.Equal(t, Unauthenticated, next.State)
		assert.False(t, next.GoToSync)
		assert.Equal(t, []EffectKind{EffectClearIdentity, EffectNavigate}, kinds(effects))
	}
}

func TestTransition_OpenLogin(t *testing.T) {
	m := Machine{State: SchoolAndCoachSelected, Route: route.HomeMain}
	next, effects := Transition(m, OpenLogin())
	assert.Equal(t, Unauthenticated, next.State)
	assert.Equal(t, []EffectKind{EffectNavigate}, kinds(effects))

	again, effects := Transition(next, OpenLogin())
	assert.Equal(t, next, again)
	assert.Empty(t, effects)
}

func TestTransition_ServiceFailedKeepsState(t *testing.T) {
	m := Machine{State: SchoolSelectedNoCoach, Route: route.CreateAccount}
	next, effects := Transition(m, ServiceFailed(errors.New("db down")))
	assert.Equal(t, m, next)
	require.Len(t, effects, 1)
	assert.Equal(t, MsgServiceFailed, effects[0].Notice.Key)
}

func TestTransitionRoutesExist(t *testing.T) {
	for _, p := range []Pipeline{ObservationPipeline, FeedbackPipeline} {
		for _, s := range p.Steps {
			_, ok := route.Paths.Lookup(s)
			assert.True(t, ok, "pipeline step %s missing from route table", s)
		}
	}
	for _, r := range []route.Name{route.Login, route.SchoolSelect, route.SelectAccount, route.SyncDetails, route.CreateAccount, route.AccountCreated, route.HomeMain} {
		_, ok := route.Paths.Lookup(r)
		assert.True(t, ok, "route %s missing from table", r)
	}
}
