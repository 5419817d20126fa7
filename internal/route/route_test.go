package route

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTemplate_Build(t *testing.T) {
	tests := []struct {
		name      string
		route     Name
		params    Params
		want      string
		wantParam string
	}{
		{name: "static", route: HomeMain, want: "/home"},
		{name: "root", route: Main, want: "/"},
		{name: "one param", route: TeacherDetails, params: Params{"id": "t-1"}, want: "/teacher/t-1"},
		{name: "extra params ignored", route: ObservationAbout, params: Params{"teacherId": "t-9", "x": "y"}, want: "/classObservation/about/t-9"},
		{name: "missing param", route: ObservationCompleted, wantParam: "sessionId"},
		{name: "empty param", route: FeedbackAbout, params: Params{"sessionId": ""}, wantParam: "sessionId"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Paths.Build(tt.route, tt.params)
			if tt.wantParam != "" {
				var mpe *MissingParameterError
				require.True(t, errors.As(err, &mpe), "expected MissingParameterError, got %v", err)
				assert.Equal(t, tt.wantParam, mpe.Param)
				assert.Equal(t, tt.route, mpe.Route)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTable_UnknownRoute(t *testing.T) {
	_, err := Paths.Build("nope.nothing", nil)
	assert.Error(t, err)
	assert.Panics(t, func() { Paths.MustLookup("nope") })
}

func TestTable_Resolve(t *testing.T) {
	name, params, ok := Paths.Resolve("/classObservation/completed/s-42")
	require.True(t, ok)
	assert.Equal(t, ObservationCompleted, name)
	assert.Equal(t, "s-42", params["sessionId"])

	name, _, ok = Paths.Resolve("/teacher/form/7")
	require.True(t, ok)
	assert.Equal(t, TeacherForm, name)

	_, _, ok = Paths.Resolve("/does/not/exist")
	assert.False(t, ok)
}

func TestPaths_ConstantsExist(t *testing.T) {
	names := []Name{
		Main, Login, CreateAccount, AccountCreated, SelectAccount, SchoolSelect, SyncDetails,
		SettingsMain, SettingsChangeLanguage,
		HomeMain, HomePendingSessions, HomeNewSession, HomeStats,
		TeacherDetails, TeacherForm,
		ObservationAbout, ObservationOnboarding, ObservationSetup, ObservationForm, ObservationConfirmation, ObservationCompleted,
		SessionDetails, SessionClassObservation, SessionFeedback,
		FeedbackAbout, FeedbackChooseCompetence, FeedbackForm, FeedbackCompleted,
	}
	for _, n := range names {
		_, ok := Paths.Lookup(n)
		assert.True(t, ok, "route %s missing from table", n)
	}
	assert.Len(t, Paths.Names(), len(names))
}

func TestTemplate_Params(t *testing.T) {
	assert.Equal(t, []string{"teacherId"}, Paths.MustLookup(ObservationAbout).Params())
	assert.Empty(t, Paths.MustLookup(HomeMain).Params())
}
