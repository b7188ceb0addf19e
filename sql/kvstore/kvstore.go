// Package kvstore keeps singleton records, rlp encoded, under string keys.
package kvstore

import (
	"fmt"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/spacemeshos/go-evmbridge/sql"
)

func addKeyValue(db sql.Executor, key string, value any) error {
	bytes, err := rlp.EncodeToBytes(value)
	if err != nil {
		return fmt.Errorf("failed encoding %s: %w", key, err)
	}

	if _, err := db.Exec(`
		insert into kvstore (id, value) values (?1, ?2)
		on conflict (id) do
		update set value = ?2;`,
		func(stmt *sql.Statement) {
			stmt.BindText(1, key)
			stmt.BindBytes(2, bytes)
		}, nil); err != nil {
		return fmt.Errorf("failed to insert %s: %w", key, err)
	}
	return nil
}

func getKeyValue(db sql.Executor, key string, value any) error {
	var val []byte
	if rows, err := db.Exec("select value from kvstore where id = ?1;", func(stmt *sql.Statement) {
		stmt.BindText(1, key)
	}, func(stmt *sql.Statement) bool {
		val = make([]byte, stmt.ColumnLen(0))
		stmt.ColumnBytes(0, val)
		return true
	}); err != nil {
		return fmt.Errorf("failed to get %s: %w", key, err)
	} else if rows == 0 {
		return fmt.Errorf("failed to get %s: %w", key, sql.ErrNotFound)
	}

	if err := rlp.DecodeBytes(val, value); err != nil {
		return fmt.Errorf("failed decoding %s: %w", key, err)
	}
	return nil
}
