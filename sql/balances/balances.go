// Package balances stores native account balances held by the bridge.
package balances

import (
	"fmt"

	"github.com/holiman/uint256"

	"github.com/spacemeshos/go-evmbridge/common/types"
	"github.com/spacemeshos/go-evmbridge/sql"
)

func decode(stmt *sql.Statement) types.OpenBalance {
	var (
		rst     types.OpenBalance
		balance [32]byte
	)
	rst.ID = uint64(stmt.ColumnInt64(0))
	rst.Owner = types.Name(stmt.ColumnInt64(1))
	stmt.ColumnBytes(2, balance[:])
	rst.Balance = new(uint256.Int).SetBytes32(balance[:])
	return rst
}

// Open creates a zero balance for owner. Opening twice returns sql.ErrObjectExists.
func Open(db sql.Executor, owner types.Name) (types.OpenBalance, error) {
	var id int64
	if _, err := db.Exec("select coalesce(max(id) + 1, 0) from balances;", nil,
		func(stmt *sql.Statement) bool {
			id = stmt.ColumnInt64(0)
			return false
		}); err != nil {
		return types.OpenBalance{}, fmt.Errorf("next balance id: %w", err)
	}
	var zero [32]byte
	if _, err := db.Exec("insert into balances (id, owner, balance) values (?1, ?2, ?3);",
		func(stmt *sql.Statement) {
			stmt.BindInt64(1, id)
			stmt.BindInt64(2, int64(owner))
			stmt.BindBytes(3, zero[:])
		}, nil); err != nil {
		return types.OpenBalance{}, fmt.Errorf("open %s: %w", owner, err)
	}
	return types.OpenBalance{ID: uint64(id), Owner: owner, Balance: new(uint256.Int)}, nil
}

// Get the balance of owner.
func Get(db sql.Executor, owner types.Name) (types.OpenBalance, error) {
	var rst types.OpenBalance
	rows, err := db.Exec("select id, owner, balance from balances where owner = ?1;",
		func(stmt *sql.Statement) {
			stmt.BindInt64(1, int64(owner))
		}, func(stmt *sql.Statement) bool {
			rst = decode(stmt)
			return false
		})
	if err != nil {
		return types.OpenBalance{}, fmt.Errorf("load %s: %w", owner, err)
	} else if rows == 0 {
		return types.OpenBalance{}, fmt.Errorf("%w: balance of %s", sql.ErrNotFound, owner)
	}
	return rst, nil
}

// Set overwrites the balance of an opened owner.
func Set(db sql.Executor, owner types.Name, balance *uint256.Int) error {
	encoded := balance.Bytes32()
	rows, err := db.Exec("update balances set balance = ?2 where owner = ?1 returning id;",
		func(stmt *sql.Statement) {
			stmt.BindInt64(1, int64(owner))
			stmt.BindBytes(2, encoded[:])
		}, nil)
	if err != nil {
		return fmt.Errorf("update %s: %w", owner, err)
	} else if rows == 0 {
		return fmt.Errorf("%w: balance of %s", sql.ErrNotFound, owner)
	}
	return nil
}

// All returns opened balances ordered by id.
func All(db sql.Executor) ([]types.OpenBalance, error) {
	var rst []types.OpenBalance
	if _, err := db.Exec("select id, owner, balance from balances order by id asc;", nil,
		func(stmt *sql.Statement) bool {
			rst = append(rst, decode(stmt))
			return true
		}); err != nil {
		return nil, fmt.Errorf("load balances: %w", err)
	}
	return rst, nil
}
