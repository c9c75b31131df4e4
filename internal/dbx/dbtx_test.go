package dbx

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

func newMock(t *testing.T) (sqlmock.Sqlmock, func() error, TxBeginner) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return mock, mock.ExpectationsWereMet, db
}

func TestWithTx_CommitsOnSuccess(t *testing.T) {
	mock, met, db := newMock(t)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO method_mappings`).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := WithTx(context.Background(), db, nil, func(ctx context.Context, tx DBTX) error {
		_, e := tx.ExecContext(ctx, `INSERT INTO method_mappings(method) VALUES ($1)`, "sales")
		return e
	})
	require.NoError(t, err)
	require.NoError(t, met())
}

func TestWithTx_RollbackOnFnError(t *testing.T) {
	mock, met, db := newMock(t)
	sentinel := errors.New("boom")

	mock.ExpectBegin()
	mock.ExpectRollback()

	err := WithTx(context.Background(), db, nil, func(ctx context.Context, tx DBTX) error {
		return sentinel
	})
	require.ErrorIs(t, err, sentinel)
	require.NoError(t, met())
}

func TestWithTx_CommitErrorIsReturned(t *testing.T) {
	mock, met, db := newMock(t)
	commitErr := errors.New("commit failed")

	mock.ExpectBegin()
	mock.ExpectCommit().WillReturnError(commitErr)

	err := WithTx(context.Background(), db, nil, func(ctx context.Context, tx DBTX) error {
		return nil
	})
	require.ErrorIs(t, err, commitErr)
	require.NoError(t, met())
}

func TestWithTx_RollbackOnPanic(t *testing.T) {
	mock, met, db := newMock(t)

	mock.ExpectBegin()
	mock.ExpectRollback()

	defer func() {
		r := recover()
		require.Equal(t, "kaput", r)
		require.NoError(t, met())
	}()

	_ = WithTx(context.Background(), db, nil, func(ctx context.Context, tx DBTX) error {
		panic("kaput")
	})
}

func TestWithTx_BeginError(t *testing.T) {
	mock, met, db := newMock(t)
	mock.ExpectBegin().WillReturnError(errors.New("conn refused"))

	called := false
	err := WithTx(context.Background(), db, nil, func(ctx context.Context, tx DBTX) error {
		called = true
		return nil
	})
	require.Error(t, err)
	require.False(t, called)
	require.NoError(t, met())
}
