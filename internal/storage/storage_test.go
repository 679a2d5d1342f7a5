package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "telegram-schedule-bot/internal/errors"
	"telegram-schedule-bot/internal/models"
)

func newMock(t *testing.T) (*DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return &DB{sqlx.NewDb(db, "sqlmock")}, mock
}

func openSQLite(t *testing.T) *DB {
	t.Helper()
	db, err := New(DriverSQLite, filepath.Join(t.TempDir(), "data", "bot.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

var sessionColumns = []string{"chat_id", "state", "mode", "place_link", "place_name", "query_link", "query_name", "options", "updated_at"}

func TestGetSessionNotFound(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery("SELECT chat_id, state, mode").
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows(sessionColumns))

	_, err := db.Get(context.Background(), 42)
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetSessionDecodesOptions(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery("SELECT chat_id, state, mode").
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows(sessionColumns).AddRow(
			42, "group_select", "group", "/schedule/knt", "КНиИТ", "", "",
			`[{"name":"141","link":"/schedule/knt/do/141"}]`, 1700000000))

	s, err := db.Get(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, models.StateGroupSelect, s.State)
	assert.Equal(t, models.ModeGroup, s.Mode)
	assert.Equal(t, models.Options{{Name: "141", Link: "/schedule/knt/do/141"}}, s.Options)
	assert.Equal(t, int64(1700000000), s.UpdatedAt.Unix())
}

func TestSaveSessionUpserts(t *testing.T) {
	db, mock := newMock(t)
	at := time.Unix(1700000000, 0)
	mock.ExpectExec("INSERT INTO sessions").
		WithArgs(int64(7), "day_select", "teacher", "", "", "/schedule/teacher/1234", "Галаев", `[]`, at.Unix()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := db.Save(context.Background(), &models.Session{
		ChatID:    7,
		State:     models.StateDaySelect,
		Mode:      models.ModeTeacher,
		QueryLink: "/schedule/teacher/1234",
		QueryName: "Галаев",
		UpdatedAt: at,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPruneSessions(t *testing.T) {
	db, mock := newMock(t)
	before := time.Unix(1700000000, 0)
	mock.ExpectExec("DELETE FROM sessions WHERE updated_at").
		WithArgs(before.Unix()).
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := db.PruneSessions(context.Background(), before)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

func TestRecordPlacesRollsBackOnError(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO place").
		WithArgs("/schedule/knt", "КНиИТ", sqlmock.AnyArg()).
		WillReturnError(errors.New("disk I/O error"))
	mock.ExpectRollback()

	err := db.RecordPlaces(context.Background(), models.Options{{Name: "КНиИТ", Link: "/schedule/knt"}})
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordScheduleReplacesEntries(t *testing.T) {
	db, mock := newMock(t)
	week := models.WeekSchedule{"вторник": models.DaySchedule{
		2: {{Name: "Базы данных", Teacher: "Иванов", Type: models.TypeLecture, Week: models.WeekOdd}},
	}}

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM schedule_entry").
		WithArgs("/schedule/knt/do/341").
		WillReturnResult(sqlmock.NewResult(0, 5))
	mock.ExpectExec("INSERT INTO schedule_entry").
		WithArgs(sqlmock.AnyArg(), "/schedule/knt/do/341", "вторник", 2, 0,
			"Базы данных", "Иванов", "", "", int(models.TypeLecture), int(models.WeekOdd), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, db.RecordSchedule(context.Background(), "/schedule/knt/do/341", week))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLiteSessionRoundTrip(t *testing.T) {
	db := openSQLite(t)
	ctx := context.Background()

	s := &models.Session{
		ChatID:    100,
		State:     models.StateFacultySelect,
		Mode:      models.ModeGroup,
		Options:   models.Options{{Name: "КНиИТ", Link: "/schedule/knt"}},
		UpdatedAt: time.Unix(1700000000, 0),
	}
	require.NoError(t, db.Save(ctx, s))

	s.State = models.StateGroupSelect
	s.PlaceLink = "/schedule/knt"
	require.NoError(t, db.Save(ctx, s))

	got, err := db.Get(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, models.StateGroupSelect, got.State)
	assert.Equal(t, "/schedule/knt", got.PlaceLink)
	assert.Equal(t, s.Options, got.Options)

	n, err := db.PruneSessions(ctx, time.Unix(1700000001, 0))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = db.Get(ctx, 100)
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}

func TestSQLiteChats(t *testing.T) {
	db := openSQLite(t)
	ctx := context.Background()

	require.NoError(t, db.UpsertChat(ctx, models.Chat{ChatID: -100, Type: "supergroup", Title: "381 группа", Status: "member"}))
	require.NoError(t, db.UpsertChat(ctx, models.Chat{ChatID: -100, Type: "supergroup", Title: "381 группа", Status: "left"}))
	require.NoError(t, db.UpsertChat(ctx, models.Chat{ChatID: 5, Type: "private", Status: "member"}))

	chats, err := db.ListChats(ctx)
	require.NoError(t, err)
	require.Len(t, chats, 2)
	assert.Equal(t, "left", chats[0].Status)
	assert.Equal(t, int64(5), chats[1].ChatID)
}

func TestSQLiteCatalog(t *testing.T) {
	db := openSQLite(t)
	ctx := context.Background()

	require.NoError(t, db.RecordPlaces(ctx, models.Options{{Name: "КНиИТ", Link: "/schedule/knt"}}))
	require.NoError(t, db.RecordGroups(ctx, "/schedule/knt", models.Options{{Name: "341", Link: "/schedule/knt/do/341"}}))
	require.NoError(t, db.RecordTeachers(ctx, models.Options{{Name: "Галаев С. В.", Link: "/schedule/teacher/1234"}}))

	week := models.WeekSchedule{"понедельник": models.DaySchedule{
		0: {{Name: "Алгебра"}, {Name: "Геометрия"}},
	}}
	require.NoError(t, db.RecordSchedule(ctx, "/schedule/knt/do/341", week))
	require.NoError(t, db.RecordSchedule(ctx, "/schedule/knt/do/341", week))

	var n int
	require.NoError(t, db.GetContext(ctx, &n, `SELECT COUNT(*) FROM schedule_entry WHERE query_link = ?`, "/schedule/knt/do/341"))
	assert.Equal(t, 2, n)

	var place string
	require.NoError(t, db.GetContext(ctx, &place, `SELECT place_link FROM study_group WHERE link = ?`, "/schedule/knt/do/341"))
	assert.Equal(t, "/schedule/knt", place)
}
