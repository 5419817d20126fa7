package teacher

import (
	"database/sql"
	"strings"
	"time"
)

// Status values of the sync marker kept on every teacher row.
const (
	StatusSynced  = "synced"
	StatusCreated = "created"
	StatusUpdated = "updated"
	StatusDeleted = "deleted"
)

// Teacher is the subject of class observations and feedback sessions.
type Teacher struct {
	ID         string
	Nin        sql.NullString
	Pin        sql.NullString
	Name       string
	Surname    string
	Subject    sql.NullString
	Birthdate  sql.NullTime
	EmisNumber sql.NullString
	ImageID    sql.NullString
	SchoolID   string
	Status     string // soft-delete / sync marker, "_status" in the source data
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (t *Teacher) FullName() string {
	return strings.TrimSpace(t.Name + " " + t.Surname)
}

func (t *Teacher) IsDeleted() bool { return t.Status == StatusDeleted }

// Item is the list-row projection.
type Item struct {
	ID              string
	Image           string
	Name            string
	LastSessionDate sql.NullTime
	SessionsCount   int
	FeedbacksCount  int
}

// Details is the detail-screen projection.
type Details struct {
	ID      string
	Name    string
	Subject string
	Image   string
}

// ToEdit is the edit-form projection.
type ToEdit struct {
	ID         string
	Name       string
	Surname    string
	Subject    string
	Birthdate  sql.NullTime
	ImageID    string
	ImageName  string
	ImageValue string
}

// Details reshapes the record for the detail screen; image is the stored image value.
func (t *Teacher) Details(image string) Details {
	return Details{ID: t.ID, Name: t.FullName(), Subject: t.Subject.String, Image: image}
}

// ToEdit reshapes the record for the edit form.
func (t *Teacher) ToEdit(imageName, imageValue string) ToEdit {
	return ToEdit{
		ID:         t.ID,
		Name:       t.Name,
		Surname:    t.Surname,
		Subject:    t.Subject.String,
		Birthdate:  t.Birthdate,
		ImageID:    t.ImageID.String,
		ImageName:  imageName,
		ImageValue: imageValue,
	}
}
