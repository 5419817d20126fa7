package database

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coach_digital_bot/internal/domain/coach"
	"coach_digital_bot/internal/domain/observation"
	"coach_digital_bot/internal/domain/school"
	"coach_digital_bot/internal/domain/teacher"
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return db, mock
}

func TestCoachRepository_Create(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostgresCoachRepository(db)
	now := time.Now()
	c := &coach.Coach{ID: "c-1", SchoolID: "s-1", Name: "Grace", Surname: "Atim", ImageID: sql.NullString{String: "img-1", Valid: true}}

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO coaches")).
		WithArgs("c-1", "s-1", "Grace", "Atim", "", "", c.ImageID, c.Username, c.PasswordHash).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO coach_schools")).
		WithArgs("c-1", "s-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Create(context.Background(), c))
	assert.Equal(t, now, c.CreatedAt)
}

func TestCoachRepository_CreateRollsBackWhenLinkFails(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostgresCoachRepository(db)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO coaches")).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO coach_schools")).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	err := repo.Create(context.Background(), &coach.Coach{ID: "c-1", SchoolID: "s-1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestCoachRepository_CreateDuplicate(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostgresCoachRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO coaches")).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "coaches_username_key"})
	mock.ExpectRollback()

	err := repo.Create(context.Background(), &coach.Coach{ID: "c-2"})
	assert.ErrorIs(t, err, ErrDuplicateCoach)
}

func TestCoachRepository_GetByIDNotFound(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostgresCoachRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM coaches WHERE id = $1")).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrCoachNotFound)
}

func TestCoachRepository_ListBySchool(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostgresCoachRepository(db)
	now := time.Now()
	cols := []string{"id", "school_id", "name", "surname", "pin", "nin", "image_id", "username", "password_hash", "created_at", "updated_at"}

	mock.ExpectQuery(regexp.QuoteMeta("FROM coach_schools WHERE school_id = $1")).
		WithArgs("s-1").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("c-1", "s-1", "Ann", "B", "", "", nil, nil, nil, now, now).
			AddRow("c-2", "s-9", "Zed", "Y", "77", "", "img-2", "zed", []byte("hash"), now, now))

	coaches, err := repo.ListBySchool(context.Background(), "s-1")
	require.NoError(t, err)
	require.Len(t, coaches, 2)
	assert.False(t, coaches[0].ImageID.Valid)
	assert.Equal(t, "img-2", coaches[1].ImageID.String)
	assert.Equal(t, "zed", coaches[1].Username.String)
}

func TestCoachRepository_CreateCoachSchool(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostgresCoachRepository(db)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("ON CONFLICT (coach_id, school_id)")).
		WithArgs("c-1", "s-1").
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(now))

	link := &coach.CoachSchool{CoachID: "c-1", SchoolID: "s-1"}
	require.NoError(t, repo.CreateCoachSchool(context.Background(), link))
	assert.Equal(t, now, link.CreatedAt)
}

func TestSchoolRepository_FindItems(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostgresSchoolRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM schools")).
		WithArgs("gul", 20).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "district"}).
			AddRow("s-2", "Gulu High", "Gulu").
			AddRow("s-3", "Gulu Primary", ""))

	items, err := repo.FindItems(context.Background(), "gul", 20)
	require.NoError(t, err)
	assert.Equal(t, []school.Item{{ID: "s-2", Name: "Gulu High", District: "Gulu"}, {ID: "s-3", Name: "Gulu Primary"}}, items)
}

func TestSchoolRepository_Upsert(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostgresSchoolRepository(db)
	now := time.Now()
	s := &school.School{ID: "s-9", Name: "Lira Model", District: sql.NullString{String: "Lira", Valid: true}}

	mock.ExpectQuery(regexp.QuoteMeta("ON CONFLICT (id) DO UPDATE")).
		WithArgs("s-9", "Lira Model", s.EmisNumber, s.District).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	require.NoError(t, repo.Upsert(context.Background(), s))
	assert.Equal(t, now, s.UpdatedAt)
}

func TestSchoolRepository_GetByIDError(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostgresSchoolRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM schools WHERE id = $1")).
		WillReturnError(errors.New("conn reset"))

	_, err := repo.GetByID(context.Background(), "s-1")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrSchoolNotFound))
}

func TestTeacherRepository_ListItems(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostgresTeacherRepository(db)
	last := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("FROM teachers t")).
		WithArgs("s-1", observation.KindClassObservation, observation.KindFeedback, teacher.StatusDeleted).
		WillReturnRows(sqlmock.NewRows([]string{"id", "image", "name", "last", "sessions", "feedbacks"}).
			AddRow("t-1", "aGk=", "Ann Okello", last, 3, 1).
			AddRow("t-2", "", "Bob Opio", nil, 0, 0))

	items, err := repo.ListItems(context.Background(), "s-1")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, 3, items[0].SessionsCount)
	assert.Equal(t, 1, items[0].FeedbacksCount)
	assert.True(t, items[0].LastSessionDate.Valid)
	assert.False(t, items[1].LastSessionDate.Valid)
}

func TestSessionRepository_UpdateNotFound(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostgresSessionRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE sessions")).
		WillReturnError(sql.ErrNoRows)

	err := repo.Update(context.Background(), &observation.Session{ID: "gone", Status: observation.StatusCompleted})
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSessionRepository_ListPendingCreatedBefore(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostgresSessionRepository(db)
	before := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	cols := []string{"id", "kind", "teacher_id", "coach_id", "school_id", "status", "notes", "competence", "parent_id", "created_at", "updated_at"}

	mock.ExpectQuery(regexp.QuoteMeta("WHERE status = $1 AND created_at < $2")).
		WithArgs(observation.StatusPending, before).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("obs-1", "CLASS_OBSERVATION", "t-1", "c-1", "s-1", "PENDING", nil, nil, nil, before.Add(-time.Hour), before.Add(-time.Hour)))

	sessions, err := repo.ListPendingCreatedBefore(context.Background(), before)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, observation.KindClassObservation, sessions[0].Kind)
	assert.Equal(t, observation.StatusPending, sessions[0].Status)
}
