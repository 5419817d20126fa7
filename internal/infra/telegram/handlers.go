package telegram

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"

	"coach_digital_bot/internal/app"
	"coach_digital_bot/internal/domain/school"
	tgclient "coach_digital_bot/internal/domain/telegram"
	"coach_digital_bot/internal/route"
	"coach_digital_bot/internal/workflow"
)

const helpText = "<b>Coach Digital</b>\n\n" +
	"/start - show where you are\n" +
	"/login - log in with username and password\n" +
	"/school - pick or change your school\n" +
	"/scan &lt;qr text&gt; - pair a school from its QR code\n" +
	"/home - back to the home screen\n" +
	"/logout - forget your school and account\n" +
	"/help - this message"

// navigator is the part of app.Navigator the handlers drive.
type navigator interface {
	Current(ctx context.Context, chatID int64) *app.Outcome
	Start(ctx context.Context, chatID int64) *app.Outcome
	OpenLogin(ctx context.Context, chatID int64) *app.Outcome
	Login(ctx context.Context, chatID int64, username, password string) *app.Outcome
	Logout(ctx context.Context, chatID int64) *app.Outcome
	OpenCreateAccount(ctx context.Context, chatID int64) *app.Outcome
	ChangeSchool(ctx context.Context, chatID int64) *app.Outcome
	SearchSchools(ctx context.Context, query string) ([]school.Item, error)
	SelectSchool(ctx context.Context, chatID int64, schoolID string) *app.Outcome
	Scan(ctx context.Context, chatID int64, payload string) *app.Outcome
	ConfirmProfile(ctx context.Context, chatID int64) *app.Outcome
	SwitchProfile(ctx context.Context, chatID int64) *app.Outcome
	SelectAccount(ctx context.Context, chatID int64, coachID string) *app.Outcome
	UpdateDraft(ctx context.Context, chatID int64, edit func(f *app.CoachForm)) *app.Outcome
	SubmitCoachForm(ctx context.Context, chatID int64) *app.Outcome
	StartObservation(ctx context.Context, chatID int64, teacherID string) *app.Outcome
	StartFeedback(ctx context.Context, chatID int64, observationID string) *app.Outcome
	Next(ctx context.Context, chatID int64) *app.Outcome
	Back(ctx context.Context, chatID int64) *app.Outcome
	Open(ctx context.Context, chatID int64, name route.Name, params route.Params) *app.Outcome
	SaveNotes(ctx context.Context, chatID int64, text string) *app.Outcome
	ChooseCompetence(ctx context.Context, chatID int64, competence string) *app.Outcome
}

// Handlers turns Telegram updates into Navigator actions and draws the result.
type Handlers struct {
	ctx       context.Context
	nav       navigator
	screens   *Screens
	client    tgclient.Messenger
	debouncer *app.Debouncer
	logger    *logrus.Entry
}

func NewHandlers(ctx context.Context, nav navigator, screens *Screens, client tgclient.Messenger, debouncer *app.Debouncer, baseLogger *logrus.Entry) *Handlers {
	return &Handlers{
		ctx:       ctx,
		nav:       nav,
		screens:   screens,
		client:    client,
		debouncer: debouncer,
		logger:    baseLogger.WithField("handler_group", "navigation"),
	}
}

// Register binds commands, callbacks, text and photos.
func (h *Handlers) Register(b *telebot.Bot) {
	commands := map[string]func(c telebot.Context) *app.Outcome{
		"/start":  func(c telebot.Context) *app.Outcome { return h.nav.Start(h.ctx, c.Chat().ID) },
		"/login":  func(c telebot.Context) *app.Outcome { return h.nav.OpenLogin(h.ctx, c.Chat().ID) },
		"/logout": func(c telebot.Context) *app.Outcome { return h.nav.Logout(h.ctx, c.Chat().ID) },
		"/school": func(c telebot.Context) *app.Outcome { return h.nav.ChangeSchool(h.ctx, c.Chat().ID) },
		"/home":   func(c telebot.Context) *app.Outcome { return h.nav.Open(h.ctx, c.Chat().ID, route.HomeMain, nil) },
		"/scan":   func(c telebot.Context) *app.Outcome { return h.nav.Scan(h.ctx, c.Chat().ID, c.Message().Payload) },
	}
	for cmd, fn := range commands {
		b.Handle(cmd, func(c telebot.Context) error {
			h.log(c, cmd).Info("Command received")
			return h.reply(c, fn(c))
		})
	}
	b.Handle("/help", func(c telebot.Context) error {
		return c.Send(helpText, telebot.ModeHTML)
	})

	callbacks := map[string]func(chatID int64, args []string) *app.Outcome{
		cbNav:        h.onNav,
		cbLogin:      func(chatID int64, _ []string) *app.Outcome { return h.nav.OpenLogin(h.ctx, chatID) },
		cbSchool:     func(chatID int64, _ []string) *app.Outcome { return h.nav.ChangeSchool(h.ctx, chatID) },
		cbPick:       func(chatID int64, args []string) *app.Outcome { return h.nav.SelectSchool(h.ctx, chatID, args[0]) },
		cbCreate:     func(chatID int64, _ []string) *app.Outcome { return h.nav.OpenCreateAccount(h.ctx, chatID) },
		cbProfile:    h.onProfile,
		cbAccount:    func(chatID int64, args []string) *app.Outcome { return h.nav.SelectAccount(h.ctx, chatID, args[0]) },
		cbSubmit:     func(chatID int64, _ []string) *app.Outcome { return h.nav.SubmitCoachForm(h.ctx, chatID) },
		cbNext:       func(chatID int64, _ []string) *app.Outcome { return h.nav.Next(h.ctx, chatID) },
		cbBack:       func(chatID int64, _ []string) *app.Outcome { return h.nav.Back(h.ctx, chatID) },
		cbObs:        func(chatID int64, args []string) *app.Outcome { return h.nav.StartObservation(h.ctx, chatID, args[0]) },
		cbFeedback:   h.onFeedback,
		cbCompetence: h.onCompetence,
		cbLogout:     func(chatID int64, _ []string) *app.Outcome { return h.nav.Logout(h.ctx, chatID) },
	}
	for unique, fn := range callbacks {
		b.Handle(&telebot.Btn{Unique: unique}, func(c telebot.Context) error {
			logCtx := h.log(c, unique).WithField("data", c.Callback().Data)
			logCtx.Debug("Callback received")
			if err := c.Respond(); err != nil {
				logCtx.WithError(err).Warn("Failed to answer callback")
			}
			return h.reply(c, fn(c.Chat().ID, c.Args()))
		})
	}

	b.Handle(telebot.OnText, h.onText)
	b.Handle(telebot.OnPhoto, h.onPhoto)
}

func (h *Handlers) log(c telebot.Context, handler string) *logrus.Entry {
	fields := logrus.Fields{"handler": handler}
	if c.Chat() != nil {
		fields["chat_id"] = c.Chat().ID
	}
	if c.Sender() != nil {
		fields["sender_id"] = c.Sender().ID
	}
	return h.logger.WithFields(fields)
}

// reply sends the messages of the outcome, then the current screen.
func (h *Handlers) reply(c telebot.Context, out *app.Outcome) error {
	if out.Failed() {
		h.log(c, "reply").WithError(out.Err).Info("Action failed")
	}
	for _, text := range outcomeMessages(out) {
		if err := c.Send(text, telebot.ModeHTML); err != nil {
			return err
		}
	}
	text, markup := h.screens.Render(h.ctx, out)
	return c.Send(text, markup, telebot.ModeHTML)
}

// outcomeMessages lists the notices of the outcome followed by the error
// text, unless a notice already told the user about the error.
func outcomeMessages(out *app.Outcome) []string {
	notices := out.Notices()
	msgs := make([]string, 0, len(notices)+1)
	for _, n := range notices {
		msgs = append(msgs, noticeText(n))
	}
	if out.Failed() {
		if text, ok := errorText(out.Err, notices); ok {
			msgs = append(msgs, text)
		}
	}
	return msgs
}

func (h *Handlers) onNav(chatID int64, args []string) *app.Outcome {
	name, params, ok := parseNav(args)
	if !ok {
		out := h.nav.Current(h.ctx, chatID)
		out.Err = errors.Wrap(app.ErrInvalidInput, "malformed navigation button")
		return out
	}
	return h.nav.Open(h.ctx, chatID, name, params)
}

func (h *Handlers) onProfile(chatID int64, args []string) *app.Outcome {
	if args[0] == profileContinue {
		return h.nav.ConfirmProfile(h.ctx, chatID)
	}
	return h.nav.SwitchProfile(h.ctx, chatID)
}

// onFeedback starts feedback on an observation. From the completion screen
// the observation pipeline is closed first.
func (h *Handlers) onFeedback(chatID int64, args []string) *app.Outcome {
	if cur := h.nav.Current(h.ctx, chatID); cur.Machine.Route == route.ObservationCompleted {
		if out := h.nav.Next(h.ctx, chatID); out.Failed() {
			return out
		}
	}
	return h.nav.StartFeedback(h.ctx, chatID, args[0])
}

func (h *Handlers) onCompetence(chatID int64, args []string) *app.Outcome {
	i, err := strconv.Atoi(args[0])
	if err != nil || i < 0 || i >= len(app.Competences) {
		out := h.nav.Current(h.ctx, chatID)
		out.Err = errors.Wrapf(app.ErrInvalidInput, "competence %q", args[0])
		return out
	}
	return h.nav.ChooseCompetence(h.ctx, chatID, app.Competences[i])
}

type textKind int

const (
	textRedraw textKind = iota
	textLogin
	textScan
	textSearch
	textForm
	textNotes
)

// classifyText decides what a plain message means on the screen the chat is on.
func classifyText(cur *app.Outcome, text string) textKind {
	if cur.AskProfile() {
		return textRedraw
	}
	switch cur.Machine.Route {
	case route.Login:
		return textLogin
	case route.SchoolSelect:
		if looksLikePayload(text) {
			return textScan
		}
		if text == "" {
			return textRedraw
		}
		return textSearch
	case route.CreateAccount:
		return textForm
	case route.ObservationForm, route.FeedbackForm:
		return textNotes
	}
	return textRedraw
}

func (h *Handlers) onText(c telebot.Context) error {
	chatID := c.Chat().ID
	text := strings.TrimSpace(c.Text())
	cur := h.nav.Current(h.ctx, chatID)
	logCtx := h.log(c, "text").WithField("route", cur.Machine.Route)

	switch classifyText(cur, text) {
	case textLogin:
		username, password, ok := parseCredentials(text)
		if !ok {
			return c.Send("Send your username and password separated by a space, e.g. <code>grace s3cret</code>.", telebot.ModeHTML)
		}
		if err := c.Delete(); err != nil {
			logCtx.WithError(err).Debug("Could not delete credentials message")
		}
		return h.reply(c, h.nav.Login(h.ctx, chatID, username, password))

	case textScan:
		return h.reply(c, h.nav.Scan(h.ctx, chatID, text))

	case textSearch:
		h.search(chatID, text)
		return nil

	case textForm:
		values, unknown := parseFormLines(text)
		if len(unknown) > 0 {
			return c.Send(fmt.Sprintf("Unknown field(s): %s. Use name, surname, pin, nin, username and password.", strings.Join(unknown, ", ")))
		}
		if _, ok := values[passwordLabel]; ok {
			if err := c.Delete(); err != nil {
				logCtx.WithError(err).Debug("Could not delete password message")
			}
		}
		edit, err := formEdit(values)
		if err != nil {
			cur.Err = err
			return h.reply(c, cur)
		}
		return h.reply(c, h.nav.UpdateDraft(h.ctx, chatID, edit))

	case textNotes:
		out := h.nav.SaveNotes(h.ctx, chatID, text)
		if out.Failed() {
			return h.reply(c, out)
		}
		return c.Send("📝 Saved. Keep writing or press the button when you are done.")
	}

	logCtx.Debug("Text ignored on this screen")
	return h.reply(c, cur)
}

// search runs the school query once the user stops typing.
func (h *Handlers) search(chatID int64, query string) {
	h.debouncer.Do(strconv.FormatInt(chatID, 10), func() {
		logCtx := h.logger.WithFields(logrus.Fields{"chat_id": chatID, "query": query})
		items, err := h.nav.SearchSchools(h.ctx, query)
		if err != nil {
			logCtx.WithError(err).Error("School search failed")
			if err := h.client.Push(h.ctx, chatID, noticeTexts[workflow.MsgServiceFailed], nil); err != nil {
				logCtx.WithError(err).Error("Failed to send search error")
			}
			return
		}
		text, markup := searchResults(query, items)
		if n := dropOversized(markup); n > 0 {
			logCtx.WithField("dropped", n).Warn("Schools with oversized ids left out of the results")
		}
		if err := h.client.Push(h.ctx, chatID, text, markup); err != nil {
			logCtx.WithError(err).Error("Failed to send search results")
			return
		}
		logCtx.WithField("results", len(items)).Debug("School search answered")
	})
}

func (h *Handlers) onPhoto(c telebot.Context) error {
	chatID := c.Chat().ID
	logCtx := h.log(c, "photo")
	photo := c.Message().Photo
	if photo == nil {
		return nil
	}
	if photo.FileSize > app.MaxImageBytes {
		return c.Send("❌ The picture is too large. Send one under 5 MB.")
	}
	rc, err := c.Bot().File(&photo.File)
	if err != nil {
		logCtx.WithError(err).Error("Failed to download photo")
		return c.Send(noticeTexts[workflow.MsgServiceFailed])
	}
	defer rc.Close()
	raw, err := io.ReadAll(io.LimitReader(rc, app.MaxImageBytes+1))
	if err != nil {
		logCtx.WithError(err).Error("Failed to read photo")
		return c.Send(noticeTexts[workflow.MsgServiceFailed])
	}

	name := photo.UniqueID + ".jpg"
	value := base64.StdEncoding.EncodeToString(raw)
	return h.reply(c, h.nav.UpdateDraft(h.ctx, chatID, func(f *app.CoachForm) {
		f.ImageName = name
		f.ImageValue = value
	}))
}
