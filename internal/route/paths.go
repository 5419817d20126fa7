package route

// Screen names used by the bot and the workflow controller.
const (
	Main           Name = "main"
	Login          Name = "login"
	CreateAccount  Name = "createAccount"
	AccountCreated Name = "accountCreated"
	SelectAccount  Name = "selectAccount"
	SchoolSelect   Name = "schoolSelect"
	SyncDetails    Name = "syncDetails"

	SettingsMain           Name = "settings.main"
	SettingsChangeLanguage Name = "settings.changeLanguage"

	HomeMain            Name = "home.main"
	HomePendingSessions Name = "home.pendingSessions"
	HomeNewSession      Name = "home.newSession"
	HomeStats           Name = "home.stats"

	TeacherDetails Name = "teacher.details"
	TeacherForm    Name = "teacher.form"

	ObservationAbout        Name = "classObservation.about"
	ObservationOnboarding   Name = "classObservation.onboarding"
	ObservationSetup        Name = "classObservation.setup"
	ObservationForm         Name = "classObservation.form"
	ObservationConfirmation Name = "classObservation.confirmation"
	ObservationCompleted    Name = "classObservation.completed"

	SessionDetails          Name = "session.details"
	SessionClassObservation Name = "session.classObservation"
	SessionFeedback         Name = "session.feedback"

	FeedbackAbout            Name = "feedbackSession.about"
	FeedbackChooseCompetence Name = "feedbackSession.chooseCompetence"
	FeedbackForm             Name = "feedbackSession.form"
	FeedbackCompleted        Name = "feedbackSession.completed"
)

// Paths is the application route table. It is built once and never mutated.
var Paths = newTable(map[string]interface{}{
	"main": "/",

	"login":          "/login",
	"createAccount":  "/createAccount",
	"accountCreated": "/accountCreated",
	"selectAccount":  "/selectAccount",
	"schoolSelect":   "/schoolSelect",
	"syncDetails":    "/syncDetails",

	"settings": map[string]interface{}{
		"main":           "/settings",
		"changeLanguage": "/settings/changeLanguage",
	},

	"home": map[string]interface{}{
		"main":            "/home",
		"pendingSessions": "/pendingSessions",
		"newSession":      "/quickNewSessionScreen",
		"stats":           "/quickStatsScreen",
	},

	"teacher": map[string]interface{}{
		"details": "/teacher/:id",
		"form":    "/teacher/form/:id",
	},

	"classObservation": map[string]interface{}{
		"about":        "/classObservation/about/:teacherId",
		"onboarding":   "/classObservation/onboarding",
		"setup":        "/classObservation/setup",
		"form":         "/classObservation/forms",
		"confirmation": "/classObservation/confirmation",
		"completed":    "/classObservation/completed/:sessionId",
	},

	"session": map[string]interface{}{
		"details":          "/session/details",
		"classObservation": "/session/class-observation",
		"feedback":         "/session/feedback",
	},

	"feedbackSession": map[string]interface{}{
		"about":            "/feedbackSession/about/:sessionId",
		"chooseCompetence": "/feedbackSession/chooseCompetence",
		"form":             "/feedbackSession/form",
		"completed":        "/feedbackSession/completed",
	},
})
