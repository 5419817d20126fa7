package telegram

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coach_digital_bot/internal/app"
	"coach_digital_bot/internal/domain/coach"
)

func TestParseFormLines(t *testing.T) {
	values, unknown := parseFormLines("Name: Grace\n  surname :  Akello \n\nage: 31\nhello")

	assert.Equal(t, map[string]string{"name": "Grace", "surname": "Akello"}, values)
	assert.Equal(t, []string{"age", "hello"}, unknown)
}

func TestParseFormLines_ValueWithColon(t *testing.T) {
	values, unknown := parseFormLines("nin: CM:123")

	assert.Empty(t, unknown)
	assert.Equal(t, "CM:123", values["nin"])
}

func TestFormEdit(t *testing.T) {
	f := &app.CoachForm{}
	f.Values.Surname = "Old"

	edit, err := formEdit(map[string]string{"name": "Grace", "pin": "1234", "nin": "cm90", "username": "grace"})
	require.NoError(t, err)
	edit(f)

	assert.Equal(t, "Grace", f.Values.Name)
	assert.Equal(t, "Old", f.Values.Surname)
	assert.Equal(t, "1234", f.Values.Pin)
	assert.Equal(t, "cm90", f.Values.Nin)
	assert.Equal(t, "grace", f.Values.Username)
	assert.Empty(t, f.Values.PasswordHash)
}

func TestFormEdit_HashesPassword(t *testing.T) {
	values, unknown := parseFormLines("username: grace\npassword: s3cret pass")
	require.Empty(t, unknown)

	edit, err := formEdit(values)
	require.NoError(t, err)
	f := &app.CoachForm{}
	edit(f)

	require.NotEmpty(t, f.Values.PasswordHash)
	assert.NotContains(t, string(f.Values.PasswordHash), "s3cret")
	c := coach.Coach{PasswordHash: f.Values.PasswordHash}
	assert.NoError(t, c.CheckPassword("s3cret pass"))
}

func TestFormEdit_ShortPassword(t *testing.T) {
	_, err := formEdit(map[string]string{"password": "abc"})
	require.Error(t, err)
	assert.True(t, app.IsValidation(err))
}

func TestParseCredentials(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		user     string
		password string
		ok       bool
	}{
		{name: "plain", in: "grace secret", user: "grace", password: "secret", ok: true},
		{name: "password with spaces", in: "  grace  my long pass ", user: "grace", password: "my long pass", ok: true},
		{name: "no password", in: "grace", ok: false},
		{name: "empty", in: "   ", ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, password, ok := parseCredentials(tt.in)
			require.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.user, user)
			assert.Equal(t, tt.password, password)
		})
	}
}

func TestLooksLikePayload(t *testing.T) {
	assert.True(t, looksLikePayload(` {"id":"s-1"}`))
	assert.False(t, looksLikePayload("kampala"))
}
