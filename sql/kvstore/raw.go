package kvstore

import (
	"fmt"

	"github.com/spacemeshos/go-evmbridge/sql"
)

// All returns every record in its encoded form.
func All(db sql.Executor) (map[string][]byte, error) {
	rst := map[string][]byte{}
	if _, err := db.Exec("select id, value from kvstore;", nil, func(stmt *sql.Statement) bool {
		val := make([]byte, stmt.ColumnLen(1))
		stmt.ColumnBytes(1, val)
		rst[stmt.ColumnText(0)] = val
		return true
	}); err != nil {
		return nil, fmt.Errorf("load kvstore: %w", err)
	}
	return rst, nil
}

// SetRaw writes an already encoded record.
func SetRaw(db sql.Executor, key string, value []byte) error {
	if _, err := db.Exec(`
		insert into kvstore (id, value) values (?1, ?2)
		on conflict (id) do
		update set value = ?2;`,
		func(stmt *sql.Statement) {
			stmt.BindText(1, key)
			stmt.BindBytes(2, value)
		}, nil); err != nil {
		return fmt.Errorf("failed to insert %s: %w", key, err)
	}
	return nil
}
