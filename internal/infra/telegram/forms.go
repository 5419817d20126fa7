package telegram

import (
	"strings"

	"coach_digital_bot/internal/app"
)

const passwordLabel = "password"

// coachFormFields maps the labels accepted in "label: value" lines to setters.
// The password is not here: it is hashed by formEdit.
var coachFormFields = map[string]func(f *app.CoachForm, v string){
	"name":     func(f *app.CoachForm, v string) { f.Values.Name = v },
	"surname":  func(f *app.CoachForm, v string) { f.Values.Surname = v },
	"pin":      func(f *app.CoachForm, v string) { f.Values.Pin = v },
	"nin":      func(f *app.CoachForm, v string) { f.Values.Nin = v },
	"username": func(f *app.CoachForm, v string) { f.Values.Username = v },
}

// parseFormLines reads "label: value" lines. Unknown labels are returned so
// the user can be told about them.
func parseFormLines(text string) (map[string]string, []string) {
	values := map[string]string{}
	var unknown []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		label, value, ok := strings.Cut(line, ":")
		label = strings.ToLower(strings.TrimSpace(label))
		if !ok {
			unknown = append(unknown, line)
			continue
		}
		if _, known := coachFormFields[label]; !known && label != passwordLabel {
			unknown = append(unknown, label)
			continue
		}
		values[label] = strings.TrimSpace(value)
	}
	return values, unknown
}

// formEdit turns parsed lines into a draft edit. The password is hashed
// here so its clear text never reaches the chat state.
func formEdit(values map[string]string) (func(f *app.CoachForm), error) {
	var hash []byte
	if pwd, ok := values[passwordLabel]; ok {
		h, err := app.HashPassword(pwd)
		if err != nil {
			return nil, err
		}
		hash = h
	}
	return func(f *app.CoachForm) {
		for label, v := range values {
			if set, ok := coachFormFields[label]; ok {
				set(f, v)
			}
		}
		if hash != nil {
			f.Values.PasswordHash = hash
		}
	}, nil
}

// parseCredentials splits "username password". Passwords may contain spaces.
func parseCredentials(text string) (string, string, bool) {
	username, password, ok := strings.Cut(strings.TrimSpace(text), " ")
	password = strings.TrimSpace(password)
	if !ok || username == "" || password == "" {
		return "", "", false
	}
	return username, password, true
}

// looksLikePayload tells QR JSON apart from a search query.
func looksLikePayload(text string) bool {
	return strings.HasPrefix(strings.TrimSpace(text), "{")
}
