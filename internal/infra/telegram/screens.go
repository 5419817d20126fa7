package telegram

import (
	"context"
	"fmt"
	"html"
	"sort"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"

	"coach_digital_bot/internal/app"
	"coach_digital_bot/internal/domain/coach"
	"coach_digital_bot/internal/domain/observation"
	"coach_digital_bot/internal/domain/school"
	"coach_digital_bot/internal/domain/teacher"
	"coach_digital_bot/internal/route"
	"coach_digital_bot/internal/workflow"
)

// Callback uniques.
const (
	cbNav        = "nav"
	cbLogin      = "login"
	cbSchool     = "school"
	cbPick       = "pick"
	cbCreate     = "create"
	cbProfile    = "profile"
	cbAccount    = "account"
	cbSubmit     = "submit"
	cbNext       = "next"
	cbBack       = "back"
	cbObs        = "obs"
	cbFeedback   = "fb"
	cbCompetence = "competence"
	cbLogout     = "logout"
)

const (
	profileContinue = "continue"
	profileSwitch   = "switch"
)

// view is an outcome plus the lists its screen shows.
type view struct {
	out      *app.Outcome
	accounts []*coach.Coach
	teachers []teacher.Item
	pending  []*observation.Session
	details  *teacher.Details
	edit     *teacher.ToEdit
}

// Screens renders the chat's current route as a message with an inline keyboard.
type Screens struct {
	nav      *app.Navigator
	teachers *app.TeacherService
	sessions *app.ObservationService
	logger   *logrus.Entry
}

func NewScreens(nav *app.Navigator, teachers *app.TeacherService, sessions *app.ObservationService, logger *logrus.Entry) *Screens {
	return &Screens{nav: nav, teachers: teachers, sessions: sessions, logger: logger.WithField("component", "screens")}
}

// Render loads what the route needs and draws it. Load failures degrade to
// an empty list; the screen itself is always drawn.
func (s *Screens) Render(ctx context.Context, out *app.Outcome) (string, *telebot.ReplyMarkup) {
	v := view{out: out}
	log := s.logger.WithFields(logrus.Fields{"chat_id": out.ChatID, "route": out.Machine.Route})
	var err error

	switch out.Machine.Route {
	case route.SelectAccount:
		v.accounts, err = s.nav.ListAccounts(ctx, out.ChatID)
	case route.HomeMain, route.HomeNewSession, route.HomeStats:
		v.teachers, err = s.teachers.ListItems(ctx, out.School)
	case route.HomePendingSessions:
		v.pending, err = s.sessions.ListPending(ctx, out.Coach)
	case route.TeacherDetails:
		var d teacher.Details
		if d, err = s.teachers.Details(ctx, out.Machine.Params[workflow.ParamID]); err == nil {
			v.details = &d
		}
	case route.TeacherForm:
		var e teacher.ToEdit
		if e, err = s.teachers.ToEdit(ctx, out.Machine.Params[workflow.ParamID]); err == nil {
			v.edit = &e
		}
	}
	if err != nil {
		log.WithError(err).Warn("Failed to load screen data")
	}
	text, markup := render(v)
	if n := dropOversized(markup); n > 0 {
		log.WithField("dropped", n).Warn("Buttons with oversized callback data removed")
	}
	return text, markup
}

// Telegram refuses the whole message when a button carries more than 64
// bytes of callback data.
const maxCallbackData = 64

// callbackData is what telebot sends for an inline button.
func callbackData(b telebot.InlineButton) string {
	if b.Unique == "" {
		return b.Data
	}
	if b.Data == "" {
		return "\f" + b.Unique
	}
	return "\f" + b.Unique + "|" + b.Data
}

// dropOversized removes the buttons Telegram would refuse and reports how
// many went. Rows left empty are removed too.
func dropOversized(m *telebot.ReplyMarkup) int {
	if m == nil {
		return 0
	}
	dropped := 0
	rows := m.InlineKeyboard[:0]
	for _, row := range m.InlineKeyboard {
		kept := row[:0]
		for _, b := range row {
			if len(callbackData(b)) > maxCallbackData {
				dropped++
				continue
			}
			kept = append(kept, b)
		}
		if len(kept) > 0 {
			rows = append(rows, kept)
		}
	}
	m.InlineKeyboard = rows
	return dropped
}

func navBtn(m *telebot.ReplyMarkup, text string, name route.Name, params route.Params) telebot.Btn {
	data := []string{string(name)}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		data = append(data, k+"="+params[k])
	}
	return m.Data(text, cbNav, data...)
}

// parseNav reverses navBtn's data.
func parseNav(args []string) (route.Name, route.Params, bool) {
	if len(args) == 0 || args[0] == "" {
		return "", nil, false
	}
	var params route.Params
	for _, kv := range args[1:] {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			return "", nil, false
		}
		if params == nil {
			params = route.Params{}
		}
		params[k] = v
	}
	return route.Name(args[0]), params, true
}

func homeBtn(m *telebot.ReplyMarkup) telebot.Btn {
	return navBtn(m, "🏠 Home", route.HomeMain, nil)
}

func pipelineRow(m *telebot.ReplyMarkup, next string) telebot.Row {
	return m.Row(m.Data("⬅️ Back", cbBack), m.Data(next, cbNext))
}

func schoolName(s *school.School) string {
	if s == nil {
		return "no school"
	}
	return html.EscapeString(s.Name)
}

func coachName(c *coach.Coach) string {
	if c == nil {
		return "nobody"
	}
	return html.EscapeString(c.FullName())
}

func render(v view) (string, *telebot.ReplyMarkup) {
	out := v.out
	m := &telebot.ReplyMarkup{}

	if out.AskProfile() {
		m.Inline(
			m.Row(m.Data("✅ Continue", cbProfile, profileContinue)),
			m.Row(m.Data("🔄 Switch profile", cbProfile, profileSwitch)),
		)
		return fmt.Sprintf("School: <b>%s</b>\nYou are signed in as <b>%s</b>. Is this still you?", schoolName(out.School), coachName(out.Coach)), m
	}

	switch out.Machine.Route {
	case route.Main:
		m.Inline(
			m.Row(m.Data("🔑 Log in", cbLogin)),
			m.Row(m.Data("🏫 Pick my school", cbSchool)),
			m.Row(m.Data("➕ Create account", cbCreate)),
		)
		return "<b>Coach Digital</b>\nObserve classes and record feedback sessions with your teachers.", m

	case route.Login:
		m.Inline(m.Row(m.Data("🏫 Pick my school instead", cbSchool)))
		return "<b>Log in</b>\nSend your username and password separated by a space.", m

	case route.SchoolSelect:
		m.Inline(m.Row(m.Data("➕ Create account", cbCreate)))
		return "<b>Select your school</b>\nType part of the school name or EMIS number to search, or send the text of the school QR code (or /scan followed by it).", m

	case route.SelectAccount:
		var rows []telebot.Row
		for _, c := range v.accounts {
			rows = append(rows, m.Row(m.Data(c.FullName(), cbAccount, c.ID)))
		}
		rows = append(rows,
			m.Row(m.Data("➕ Create new account", cbCreate)),
			m.Row(m.Data("🏫 Change school", cbSchool)),
		)
		m.Inline(rows...)
		text := fmt.Sprintf("<b>%s</b>\nWho are you?", schoolName(out.School))
		if len(v.accounts) == 0 {
			text += "\nNo coach accounts yet for this school."
		}
		return text, m

	case route.SyncDetails:
		if out.Coach != nil {
			m.Inline(m.Row(homeBtn(m)))
		} else {
			m.Inline(
				m.Row(m.Data("👤 Choose existing account", cbProfile, profileSwitch)),
				m.Row(m.Data("➕ Create account", cbCreate)),
			)
		}
		return fmt.Sprintf("<b>School paired</b>\n%s was paired from its QR code. Teachers and sessions of this school are now available.", schoolName(out.School)), m

	case route.CreateAccount:
		m.Inline(m.Row(m.Data("⬅️ Back", cbBack), m.Data("✅ Submit", cbSubmit)))
		return createAccountText(out), m

	case route.AccountCreated:
		m.Inline(m.Row(homeBtn(m)))
		return fmt.Sprintf("<b>Welcome, %s!</b>\nYour account at %s is ready.", coachName(out.Coach), schoolName(out.School)), m

	case route.HomeMain:
		rows := []telebot.Row{
			m.Row(navBtn(m, "🆕 New session", route.HomeNewSession, nil), navBtn(m, "⏳ Pending", route.HomePendingSessions, nil)),
			m.Row(navBtn(m, "📊 Stats", route.HomeStats, nil), navBtn(m, "⚙️ Settings", route.SettingsMain, nil)),
		}
		for _, t := range v.teachers {
			rows = append(rows, m.Row(navBtn(m, "👩‍🏫 "+t.Name, route.TeacherDetails, route.Params{workflow.ParamID: t.ID})))
		}
		rows = append(rows, m.Row(m.Data("🔄 Switch profile", cbProfile, profileSwitch), m.Data("🏫 Change school", cbSchool)))
		m.Inline(rows...)
		return fmt.Sprintf("<b>Home</b>\n%s · %s\n%d teacher(s)", coachName(out.Coach), schoolName(out.School), len(v.teachers)), m

	case route.HomePendingSessions:
		m.Inline(m.Row(homeBtn(m)))
		if len(v.pending) == 0 {
			return "<b>Pending sessions</b>\nNothing pending. 🎉", m
		}
		var b strings.Builder
		b.WriteString("<b>Pending sessions</b>")
		for _, s := range v.pending {
			fmt.Fprintf(&b, "\n• %s started %s", kindLabel(s.Kind), s.CreatedAt.Format("02 Jan 2006"))
		}
		return b.String(), m

	case route.HomeNewSession:
		var rows []telebot.Row
		for _, t := range v.teachers {
			rows = append(rows, m.Row(m.Data("👁 "+t.Name, cbObs, t.ID)))
		}
		rows = append(rows, m.Row(homeBtn(m)))
		m.Inline(rows...)
		return "<b>New session</b>\nWhich teacher's class are you observing?", m

	case route.HomeStats:
		var sessions, feedbacks int
		for _, t := range v.teachers {
			sessions += t.SessionsCount
			feedbacks += t.FeedbacksCount
		}
		m.Inline(m.Row(homeBtn(m)))
		return fmt.Sprintf("<b>Stats</b>\nTeachers: %d\nClass observations: %d\nFeedback sessions: %d", len(v.teachers), sessions, feedbacks), m

	case route.TeacherDetails:
		id := out.Machine.Params[workflow.ParamID]
		m.Inline(
			m.Row(m.Data("👁 Observe a class", cbObs, id)),
			m.Row(navBtn(m, "📝 Profile", route.TeacherForm, route.Params{workflow.ParamID: id}), homeBtn(m)),
		)
		if v.details == nil {
			return "Teacher not found.", m
		}
		text := fmt.Sprintf("<b>%s</b>", html.EscapeString(v.details.Name))
		if v.details.Subject != "" {
			text += "\nSubject: " + html.EscapeString(v.details.Subject)
		}
		return text, m

	case route.TeacherForm:
		m.Inline(m.Row(homeBtn(m)))
		if v.edit == nil {
			return "Teacher not found.", m
		}
		birth := "unknown"
		if v.edit.Birthdate.Valid {
			birth = v.edit.Birthdate.Time.Format("02 Jan 2006")
		}
		return fmt.Sprintf("<b>Teacher profile</b>\nName: %s\nSurname: %s\nSubject: %s\nBirthdate: %s\nPhoto: %s",
			html.EscapeString(v.edit.Name), html.EscapeString(v.edit.Surname), html.EscapeString(v.edit.Subject), birth, photoLabel(v.edit.ImageName)), m

	case route.ObservationAbout:
		m.Inline(pipelineRow(m, "Start ➡️"))
		return "<b>Class observation</b>\nYou will watch a lesson and note what you see. The session stays pending until you confirm it.", m
	case route.ObservationOnboarding:
		m.Inline(pipelineRow(m, "Next ➡️"))
		return "<b>Before the lesson</b>\nIntroduce yourself to the class and sit where you can see both the teacher and the learners.", m
	case route.ObservationSetup:
		m.Inline(pipelineRow(m, "Next ➡️"))
		return "<b>Setup</b>\nNote the subject, the number of learners and the lesson objective.", m
	case route.ObservationForm:
		m.Inline(pipelineRow(m, "Done ➡️"))
		return "<b>Observation notes</b>\nSend your notes as messages. Each message is added to the session.", m
	case route.ObservationConfirmation:
		m.Inline(pipelineRow(m, "✅ Complete"))
		return "<b>Confirm</b>\nComplete the observation? Notes cannot be added afterwards.", m
	case route.ObservationCompleted:
		m.Inline(
			m.Row(m.Data("🗣 Give feedback now", cbFeedback, out.Machine.Params[workflow.ParamSessionID])),
			m.Row(m.Data("🏠 Home", cbNext)),
		)
		return "<b>Observation completed</b>\nPlan a feedback session with the teacher.", m

	case route.FeedbackAbout:
		m.Inline(pipelineRow(m, "Start ➡️"))
		return "<b>Feedback session</b>\nDiscuss the observed lesson with the teacher and agree on one competence to work on.", m
	case route.FeedbackChooseCompetence:
		var rows []telebot.Row
		for i, c := range app.Competences {
			rows = append(rows, m.Row(m.Data(c, cbCompetence, strconv.Itoa(i))))
		}
		rows = append(rows, m.Row(m.Data("⬅️ Back", cbBack)))
		m.Inline(rows...)
		return "<b>Choose a competence</b>\nWhich competence will the teacher focus on?", m
	case route.FeedbackForm:
		m.Inline(pipelineRow(m, "✅ Complete"))
		return "<b>Feedback notes</b>\nSend the agreed actions as messages, then complete the session.", m
	case route.FeedbackCompleted:
		m.Inline(m.Row(m.Data("🏠 Home", cbNext)))
		return "<b>Feedback completed</b>\nWell done!", m

	case route.SessionDetails:
		m.Inline(m.Row(navBtn(m, "Class observation", route.SessionClassObservation, nil), navBtn(m, "Feedback", route.SessionFeedback, nil)), m.Row(homeBtn(m)))
		return "<b>Sessions</b>\nA coaching cycle is a class observation followed by a feedback session.", m
	case route.SessionClassObservation:
		m.Inline(m.Row(navBtn(m, "⬅️ Sessions", route.SessionDetails, nil), homeBtn(m)))
		return "<b>Class observation</b>\nStart one from Home → New session.", m
	case route.SessionFeedback:
		m.Inline(m.Row(navBtn(m, "⬅️ Sessions", route.SessionDetails, nil), homeBtn(m)))
		return "<b>Feedback session</b>\nStart one right after completing an observation.", m

	case route.SettingsMain:
		m.Inline(
			m.Row(navBtn(m, "🌐 Language", route.SettingsChangeLanguage, nil), navBtn(m, "ℹ️ Sessions", route.SessionDetails, nil)),
			m.Row(m.Data("🚪 Log out", cbLogout), homeBtn(m)),
		)
		return fmt.Sprintf("<b>Settings</b>\nSigned in as %s at %s.", coachName(out.Coach), schoolName(out.School)), m
	case route.SettingsChangeLanguage:
		m.Inline(m.Row(navBtn(m, "⬅️ Settings", route.SettingsMain, nil)))
		return "<b>Language</b>\nEnglish is the only language available for now.", m
	}

	m.Inline(m.Row(homeBtn(m)))
	return "Unknown screen.", m
}

func createAccountText(out *app.Outcome) string {
	var form app.CoachForm
	if out.Draft != nil {
		form = *out.Draft
	}
	field := func(v string) string {
		if v == "" {
			return "—"
		}
		return html.EscapeString(v)
	}
	password := "not set"
	if len(form.Values.PasswordHash) > 0 {
		password = "set"
	}
	return fmt.Sprintf("<b>Create account</b> at %s\n"+
		"Send lines like <code>name: Grace</code>. Fields: name, surname, pin, nin. "+
		"Add <code>username</code> and <code>password</code> to be able to /login later. Send a photo for your profile picture.\n\n"+
		"Name: %s\nSurname: %s\nPIN: %s\nNIN: %s\nUsername: %s\nPassword: %s\nPhoto: %s",
		schoolName(out.School), field(form.Values.Name), field(form.Values.Surname), field(form.Values.Pin), field(form.Values.Nin),
		field(form.Values.Username), password, photoLabel(form.ImageName))
}

func photoLabel(name string) string {
	if name == "" {
		return "none"
	}
	return html.EscapeString(name)
}

func kindLabel(k observation.Kind) string {
	if k == observation.KindFeedback {
		return "Feedback session"
	}
	return "Class observation"
}

// searchResults draws the school search answer.
func searchResults(query string, items []school.Item) (string, *telebot.ReplyMarkup) {
	m := &telebot.ReplyMarkup{}
	if len(items) == 0 {
		m.Inline(m.Row(m.Data("➕ Create account", cbCreate)))
		return fmt.Sprintf("No school matches <b>%s</b>. Try another name.", html.EscapeString(query)), m
	}
	rows := make([]telebot.Row, 0, len(items))
	for _, it := range items {
		label := it.Name
		if it.District != "" {
			label += " (" + it.District + ")"
		}
		rows = append(rows, m.Row(m.Data(label, cbPick, it.ID)))
	}
	m.Inline(rows...)
	return fmt.Sprintf("%d school(s) found:", len(items)), m
}
