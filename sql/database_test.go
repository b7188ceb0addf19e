package sql

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func testTables(db Executor) error {
	if _, err := db.Exec(`create table testing1 (
		id varchar primary key,
		field int
	)`, nil, nil); err != nil {
		return err
	}
	return nil
}

func testURI(tb testing.TB) string {
	tb.Helper()
	return "file:" + filepath.Join(tb.TempDir(), "state.sql")
}

func TestTransactionIsolation(t *testing.T) {
	db := InMemory(WithMigrations(testTables))

	tx, err := db.Tx(context.TODO())
	require.NoError(t, err)

	key := "dsada"
	_, err = tx.Exec("insert into testing1(id, field) values (?1, ?2)", func(stmt *Statement) {
		stmt.BindText(1, key)
		stmt.BindInt64(2, 20)
	}, nil)
	require.NoError(t, err)

	rows, err := tx.Exec("select 1 from testing1 where id = ?1", func(stmt *Statement) {
		stmt.BindText(1, key)
	}, nil)
	require.NoError(t, err)
	require.Equal(t, rows, 1)

	require.NoError(t, tx.Release())

	rows, err = db.Exec("select 1 from testing1 where id = ?1", func(stmt *Statement) {
		stmt.BindText(1, key)
	}, nil)
	require.NoError(t, err)
	require.Equal(t, rows, 0)
}

func TestWithTxRollback(t *testing.T) {
	db := InMemory(WithMigrations(testTables))
	insert := func(tx *Tx) error {
		_, err := tx.Exec("insert into testing1(id, field) values ('a', 1)", nil, nil)
		return err
	}

	failure := errors.New("test")
	require.ErrorIs(t, db.WithTx(context.Background(), func(tx *Tx) error {
		require.NoError(t, insert(tx))
		return failure
	}), failure)
	rows, err := db.Exec("select 1 from testing1", nil, nil)
	require.NoError(t, err)
	require.Zero(t, rows)

	require.NoError(t, db.WithTx(context.Background(), insert))
	rows, err = db.Exec("select 1 from testing1", nil, nil)
	require.NoError(t, err)
	require.Equal(t, 1, rows)

	require.ErrorIs(t, db.WithTx(context.Background(), insert), ErrObjectExists)
}

func TestMigrationsAppliedOnce(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	uri := testURI(t)

	db, err := Open(uri, WithLogger(zap.New(core)))
	require.NoError(t, err)
	latest, err := LatestVersion()
	require.NoError(t, err)
	current, err := version(db)
	require.NoError(t, err)
	require.Equal(t, latest, current)
	require.NoError(t, db.Close())
	require.Equal(t, 1, logs.FilterMessage("database migrated").Len())

	db, err = Open(uri, WithLogger(zap.New(core)))
	require.NoError(t, err)
	require.NoError(t, db.Close())
	require.Equal(t, 1, logs.FilterMessage("database migrated").Len())
}

func TestQueryKind(t *testing.T) {
	require.Equal(t, "select", queryKind("  SELECT 1"))
	require.Equal(t, "insert", queryKind("insert\ninto x"))
	require.Equal(t, "pragma", queryKind("PRAGMA user_version;"))
}

func TestWithSavepoint(t *testing.T) {
	db := InMemory(WithMigrations(testTables))
	insert := func(tx *Tx, id string) error {
		_, err := tx.Exec("insert into testing1(id, field) values (?1, 1)", func(stmt *Statement) {
			stmt.BindText(1, id)
		}, nil)
		return err
	}

	failure := errors.New("test")
	require.NoError(t, db.WithTx(context.Background(), func(tx *Tx) error {
		require.NoError(t, insert(tx, "a"))
		require.ErrorIs(t, tx.WithSavepoint("step", func() error {
			require.NoError(t, insert(tx, "b"))
			return failure
		}), failure)
		require.NoError(t, tx.WithSavepoint("step", func() error {
			return insert(tx, "c")
		}))
		require.ErrorIs(t, tx.WithSavepoint("step", func() error {
			return insert(tx, "a")
		}), ErrObjectExists)
		return nil
	}))

	var ids []string
	_, err := db.Exec("select id from testing1 order by id", nil, func(stmt *Statement) bool {
		ids = append(ids, stmt.ColumnText(0))
		return true
	})
	require.NoError(t, err)
	require.Equal(t, []string{"a", "c"}, ids)

	require.ErrorIs(t, db.WithTx(context.Background(), func(tx *Tx) error {
		require.NoError(t, tx.WithSavepoint("step", func() error {
			return insert(tx, "d")
		}))
		return failure
	}), failure)
	rows, err := db.Exec("select 1 from testing1 where id = 'd'", nil, nil)
	require.NoError(t, err)
	require.Zero(t, rows)
}
