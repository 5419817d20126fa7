package coach

import (
	"database/sql"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Coach is a mentor who observes teachers and records feedback sessions.
type Coach struct {
	ID           string         `json:"id"`
	SchoolID     string         `json:"school_id"`
	Name         string         `json:"name"`
	Surname      string         `json:"surname"`
	Pin          string         `json:"pin,omitempty"`
	Nin          string         `json:"nin,omitempty"`
	ImageID      sql.NullString `json:"image_id"`
	Username     sql.NullString `json:"-"`
	PasswordHash []byte         `json:"-"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// FullName is what the bot shows in the "is that you?" prompt.
func (c *Coach) FullName() string {
	return strings.TrimSpace(c.Name + " " + c.Surname)
}

func (c *Coach) SetPassword(pwd string) error {
	hash, err := HashPassword(pwd)
	if err != nil {
		return err
	}
	c.PasswordHash = hash
	return nil
}

func HashPassword(pwd string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
}

func (c *Coach) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(c.PasswordHash, []byte(pwd))
}

// NewCoach contains the account creation form values. Username and
// PasswordHash are optional but go together: they enable /login.
type NewCoach struct {
	Name         string `json:"name" validate:"required"`
	Surname      string `json:"surname" validate:"required"`
	Pin          string `json:"pin" validate:"omitempty,numeric"`
	Nin          string `json:"nin" validate:"omitempty,alphanum"`
	Username     string `json:"username" validate:"omitempty,alphanum,min=3,max=32"`
	PasswordHash []byte `json:"password_hash,omitempty"`
	ImageID      string `json:"image_id"`
}

// LoginForm holds the credentials typed on the login screen.
type LoginForm struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// CoachSchool links a coach to a school they work in.
type CoachSchool struct {
	CoachID   string
	SchoolID  string
	CreatedAt time.Time
}
