package recordstore

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPostgresStoreMock(t *testing.T) (*PostgresStore, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	store := NewPostgresStore(sqlx.NewDb(db, "sqlmock"), PostgresConfig{})
	store.now = func() time.Time { return time.Date(2025, 3, 3, 13, 0, 0, 0, time.UTC) }
	return store, mock, func() { db.Close() }
}

func TestBuildUpdateCombinesSetAndAppend(t *testing.T) {
	now := time.Date(2025, 3, 3, 13, 0, 0, 0, time.UTC)
	query, args, err := buildUpdate("daily_classes", "c1", Patch{
		Set:    map[string]interface{}{"status": "running"},
		Append: map[string][]interface{}{"history": {"Status changed to running"}},
	}, now)
	require.NoError(t, err)
	assert.Equal(t, "UPDATE records SET data = jsonb_set((data || $4::jsonb), ARRAY[$5]::text[], (CASE WHEN jsonb_typeof(data->($5::text)) = 'array' THEN data->($5::text) ELSE '[]'::jsonb END) || $6::jsonb, true), updated_at = $3 WHERE collection = $1 AND id = $2", query)
	require.Len(t, args, 6)
	assert.Equal(t, "daily_classes", args[0])
	assert.Equal(t, "c1", args[1])
	assert.Equal(t, now, args[2])
	assert.JSONEq(t, `{"status":"running"}`, string(args[3].([]byte)))
	assert.Equal(t, "history", args[4])
	assert.JSONEq(t, `["Status changed to running"]`, string(args[5].([]byte)))
}

func TestPostgresStoreGetAll(t *testing.T) {
	store, mock, cleanup := newPostgresStoreMock(t)
	defer cleanup()

	rows := sqlmock.NewRows([]string{"id", "data"}).
		AddRow("h1", []byte(`{"name":"Eid","date":"2025-03-30"}`)).
		AddRow("h2", []byte(`{"name":"Sham El Nessim","date":"2025-04-21"}`))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, data FROM records WHERE collection = $1 ORDER BY created_at ASC, id ASC")).
		WithArgs("publicHolidays").
		WillReturnRows(rows)

	records, err := store.GetAll(context.Background(), "publicHolidays")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "h1", records[0].ID)
	assert.JSONEq(t, `{"id":"h1","name":"Eid","date":"2025-03-30"}`, string(records[0].Data))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreGetNotFound(t *testing.T) {
	store, mock, cleanup := newPostgresStoreMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, data FROM records WHERE collection = $1 AND id = $2")).
		WithArgs("daily_classes", "missing").
		WillReturnError(sql.ErrNoRows)

	_, err := store.Get(context.Background(), "daily_classes", "missing")
	assert.True(t, errors.Is(err, ErrRecordNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreCreate(t *testing.T) {
	store, mock, cleanup := newPostgresStoreMock(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO records (collection, id, data, created_at, updated_at) VALUES ($1, $2, $3, $4, $4)")).
		WithArgs("teachers", "t1", []byte(`{"name":"Amina"}`), store.now().UTC()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	id, err := store.Create(context.Background(), "teachers", map[string]string{"id": "t1", "name": "Amina"})
	require.NoError(t, err)
	assert.Equal(t, "t1", id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreUpdateMissingRow(t *testing.T) {
	store, mock, cleanup := newPostgresStoreMock(t)
	defer cleanup()

	mock.ExpectExec("UPDATE records SET data = \\(data \\|\\| \\$4::jsonb\\)").
		WithArgs("daily_classes", "c1", store.now().UTC(), []byte(`{"isActive":false}`)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.SetField(context.Background(), "daily_classes", "c1", "isActive", false)
	assert.True(t, errors.Is(err, ErrRecordNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStorePermissionDenied(t *testing.T) {
	store, mock, cleanup := newPostgresStoreMock(t)
	defer cleanup()

	mock.ExpectQuery("SELECT id, data FROM records").
		WithArgs("daily_classes").
		WillReturnError(&pq.Error{Code: "42501", Message: "permission denied for table records"})

	_, err := store.GetAll(context.Background(), "daily_classes")
	assert.True(t, errors.Is(err, ErrPermissionDenied))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreRemove(t *testing.T) {
	store, mock, cleanup := newPostgresStoreMock(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM records WHERE collection = $1 AND id = $2")).
		WithArgs("publicHolidays", "h1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM records WHERE collection = $1 AND id = $2")).
		WithArgs("publicHolidays", "h1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, store.Remove(context.Background(), "publicHolidays", "h1"))
	assert.True(t, errors.Is(store.Remove(context.Background(), "publicHolidays", "h1"), ErrRecordNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreSubscribeRequiresDSN(t *testing.T) {
	store, mock, cleanup := newPostgresStoreMock(t)
	defer cleanup()

	mock.ExpectQuery("SELECT id, data FROM records").
		WithArgs("daily_classes").
		WillReturnRows(sqlmock.NewRows([]string{"id", "data"}))

	_, err := store.Subscribe(context.Background(), "daily_classes", func([]Record) {})
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreAppendTreatsNonListAsEmpty(t *testing.T) {
	store, mock, cleanup := newPostgresStoreMock(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta("jsonb_set(data, ARRAY[$4]::text[], (CASE WHEN jsonb_typeof(data->($4::text)) = 'array' THEN data->($4::text) ELSE '[]'::jsonb END) || $5::jsonb, true)")).
		WithArgs("daily_classes", "c1", store.now().UTC(), "history", []byte(`["taken"]`)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := store.Update(context.Background(), "daily_classes", "c1", Patch{
		Append: map[string][]interface{}{"history": {"taken"}},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
