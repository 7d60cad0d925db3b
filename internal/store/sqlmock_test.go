package store

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBackend = errors.New("connection reset by peer")

func newMockStore(t *testing.T, d Dialect) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return New(db, d), mock
}

func TestInsert_BackendFailureIsWrapped(t *testing.T) {
	s, mock := newMockStore(t, SQLite)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "products" ("name") VALUES (?)`)).
		WithArgs("Widget").
		WillReturnError(errBackend)

	_, err := s.Insert(context.Background(), "products", map[string]any{"name": "Widget"})
	assert.ErrorIs(t, err, errBackend)
	assert.ErrorContains(t, err, "insert into products")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsert_PostgresUsesReturning(t *testing.T) {
	s, mock := newMockStore(t, Postgres)

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "products" ("name", "price") VALUES ($1, $2) RETURNING "id"`)).
		WithArgs("Widget", 9.99).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))

	id, err := s.Insert(context.Background(), "products", map[string]any{"name": "Widget", "price": 9.99})
	require.NoError(t, err)
	assert.Equal(t, int64(7), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdate_PostgresPlaceholders(t *testing.T) {
	s, mock := newMockStore(t, Postgres)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "orders" SET "prices" = $1, "status" = $2 WHERE "id" = $3`)).
		WithArgs("1]2", "open", int64(4)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	n, err := s.Update(context.Background(), "orders", int64(4), map[string]any{
		"status": "open",
		"prices": []float64{1, 2},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSelect_BackendFailure(t *testing.T) {
	s, mock := newMockStore(t, SQLite)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "products" WHERE "id" = ? ORDER BY "id" ASC LIMIT 1`)).
		WillReturnError(errBackend)

	_, err := s.Get(context.Background(), "products", 1)
	assert.Error(t, err)
	assert.False(t, IsNotFound(err))
}

func TestTableExists_BackendFailure(t *testing.T) {
	s, mock := newMockStore(t, SQLite)

	mock.ExpectQuery("sqlite_master").WillReturnError(errBackend)

	_, err := s.TableExists(context.Background(), "products")
	assert.ErrorIs(t, err, errBackend)
}

func TestWithTx_CommitFailure(t *testing.T) {
	s, mock := newMockStore(t, SQLite)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "products" WHERE "id" = ?`)).
		WithArgs(1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit().WillReturnError(errBackend)

	err := s.WithTx(context.Background(), func(tx *Store) error {
		_, err := tx.Delete(context.Background(), "products", 1)
		return err
	})
	assert.ErrorIs(t, err, errBackend)
	assert.NoError(t, mock.ExpectationsWereMet())
}
