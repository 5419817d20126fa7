package telegram

import (
	"fmt"
	"html"
	"strings"

	"github.com/pkg/errors"

	"coach_digital_bot/internal/app"
	"coach_digital_bot/internal/domain/school"
	"coach_digital_bot/internal/workflow"
)

var noticeTexts = map[string]string{
	workflow.MsgAccountCreated:  "✅ Your coach account was created.",
	workflow.MsgLoginFailed:     "❌ Wrong username or password.",
	workflow.MsgScanMalformed:   "❌ This QR code does not describe a school. Please scan the school code again.",
	workflow.MsgSchoolRequired:  "ℹ️ Pick your school first, then create the account.",
	workflow.MsgServiceFailed:   "⚠️ The service is unavailable right now. Nothing was lost, please try again.",
	workflow.MsgSessionComplete: "✅ Session completed.",
	workflow.MsgInvalidRoute:    "❌ That screen cannot be opened.",
}

// noticeText returns the user facing text of a notice.
func noticeText(n workflow.Notice) string {
	if text, ok := noticeTexts[n.Key]; ok {
		return text
	}
	return n.Key
}

// errorText maps an action error to a message. The second result is false
// when the error is already covered by a notice raised in the same action.
func errorText(err error, notices []workflow.Notice) (string, bool) {
	for _, n := range notices {
		if n.Level == workflow.NoticeError && n.Err != nil {
			return "", false
		}
	}

	var ve *app.ValidationError
	var mpe *school.MalformedPayloadError
	switch {
	case errors.As(err, &mpe):
		return noticeTexts[workflow.MsgScanMalformed], true
	case errors.As(err, &ve):
		var b strings.Builder
		b.WriteString("❌ Please fix the following:")
		for _, f := range ve.Fields {
			fmt.Fprintf(&b, "\n• <b>%s</b>: %s", html.EscapeString(f.Field), html.EscapeString(f.Error))
		}
		return b.String(), true
	case app.IsAuthentication(err):
		return noticeTexts[workflow.MsgLoginFailed], true
	case app.IsServiceUnavailable(err):
		return noticeTexts[workflow.MsgServiceFailed], true
	case errors.Is(err, app.ErrSubmissionInProgress):
		return "⏳ Your account is still being created, please wait.", true
	case errors.Is(err, app.ErrWrongScreen):
		return "This button is no longer active. Here is where you are now:", true
	case errors.Is(err, app.ErrNoSchoolSelected):
		return "ℹ️ Pick a school first: /school", true
	case errors.Is(err, app.ErrNoCoachSelected):
		return "ℹ️ Choose your coach account first.", true
	case errors.Is(err, app.ErrSchoolNotFound):
		return "❌ That school no longer exists. Search again.", true
	case errors.Is(err, app.ErrCoachNotFound):
		return "❌ That account no longer exists.", true
	case errors.Is(err, app.ErrTeacherNotFound):
		return "❌ Teacher not found.", true
	case errors.Is(err, app.ErrSessionNotFound):
		return "❌ Session not found.", true
	default:
		return "⚠️ Something went wrong: " + html.EscapeString(err.Error()), true
	}
}
