// Package links is the reverse index from arbitrary EVM addresses to native accounts.
package links

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/spacemeshos/go-evmbridge/common/types"
	"github.com/spacemeshos/go-evmbridge/sql"
)

// Add links address to owner. An address can be linked only once.
func Add(db sql.Executor, address common.Address, owner types.Name) error {
	if _, err := db.Exec("insert into links (eth_address, owner) values (?1, ?2);",
		func(stmt *sql.Statement) {
			stmt.BindBytes(1, address.Bytes())
			stmt.BindInt64(2, int64(owner))
		}, nil); err != nil {
		return fmt.Errorf("link %v to %s: %w", address, owner, err)
	}
	return nil
}

// Get returns the native account linked to address.
func Get(db sql.Executor, address common.Address) (types.Name, error) {
	var owner types.Name
	rows, err := db.Exec("select owner from links where eth_address = ?1;",
		func(stmt *sql.Statement) {
			stmt.BindBytes(1, address.Bytes())
		}, func(stmt *sql.Statement) bool {
			owner = types.Name(stmt.ColumnInt64(0))
			return false
		})
	if err != nil {
		return 0, fmt.Errorf("load link %v: %w", address, err)
	} else if rows == 0 {
		return 0, fmt.Errorf("%w: link %v", sql.ErrNotFound, address)
	}
	return owner, nil
}

// Link is one entry of the index.
type Link struct {
	Address common.Address
	Owner   types.Name
}

// All returns links ordered by address.
func All(db sql.Executor) ([]Link, error) {
	var rst []Link
	if _, err := db.Exec("select eth_address, owner from links order by eth_address asc;", nil,
		func(stmt *sql.Statement) bool {
			var link Link
			stmt.ColumnBytes(0, link.Address[:])
			link.Owner = types.Name(stmt.ColumnInt64(1))
			rst = append(rst, link)
			return true
		}); err != nil {
		return nil, fmt.Errorf("load links: %w", err)
	}
	return rst, nil
}
