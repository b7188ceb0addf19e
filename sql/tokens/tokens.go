// Package tokens stores balances of the native token ledger.
package tokens

import (
	"fmt"

	"github.com/spacemeshos/go-evmbridge/common/types"
	"github.com/spacemeshos/go-evmbridge/sql"
)

// Get returns the balance of owner, zero if the owner never held tokens.
func Get(db sql.Executor, owner types.Name) (uint64, error) {
	var amount uint64
	if _, err := db.Exec("select amount from token_balances where owner = ?1;",
		func(stmt *sql.Statement) {
			stmt.BindInt64(1, int64(owner))
		}, func(stmt *sql.Statement) bool {
			amount = uint64(stmt.ColumnInt64(0))
			return false
		}); err != nil {
		return 0, fmt.Errorf("load token balance %s: %w", owner, err)
	}
	return amount, nil
}

// Set writes the balance of owner.
func Set(db sql.Executor, owner types.Name, amount uint64) error {
	if _, err := db.Exec(`insert into token_balances (owner, amount) values (?1, ?2)
		on conflict (owner) do update set amount = ?2;`,
		func(stmt *sql.Statement) {
			stmt.BindInt64(1, int64(owner))
			stmt.BindInt64(2, int64(amount))
		}, nil); err != nil {
		return fmt.Errorf("set token balance %s: %w", owner, err)
	}
	return nil
}

// Total sums all balances.
func Total(db sql.Executor) (uint64, error) {
	var total uint64
	if _, err := db.Exec("select coalesce(sum(amount), 0) from token_balances;", nil,
		func(stmt *sql.Statement) bool {
			total = uint64(stmt.ColumnInt64(0))
			return false
		}); err != nil {
		return 0, fmt.Errorf("total token supply: %w", err)
	}
	return total, nil
}

// Holding is the token balance of one owner.
type Holding struct {
	Owner  types.Name
	Amount uint64
}

// All returns non-zero balances ordered by owner.
func All(db sql.Executor) ([]Holding, error) {
	var rst []Holding
	if _, err := db.Exec("select owner, amount from token_balances where amount > 0 order by owner asc;", nil,
		func(stmt *sql.Statement) bool {
			rst = append(rst, Holding{
				Owner:  types.Name(stmt.ColumnInt64(0)),
				Amount: uint64(stmt.ColumnInt64(1)),
			})
			return true
		}); err != nil {
		return nil, fmt.Errorf("load token balances: %w", err)
	}
	return rst, nil
}
