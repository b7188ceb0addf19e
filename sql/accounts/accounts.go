package accounts

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/spacemeshos/go-evmbridge/common/types"
	"github.com/spacemeshos/go-evmbridge/sql"
)

func decode(stmt *sql.Statement) types.Account {
	var (
		account types.Account
		balance [32]byte
	)
	account.ID = uint64(stmt.ColumnInt64(0))
	stmt.ColumnBytes(1, account.Address[:])
	account.Nonce = uint64(stmt.ColumnInt64(2))
	stmt.ColumnBytes(3, balance[:])
	account.Balance = new(uint256.Int).SetBytes32(balance[:])
	return account
}

// Has the account in the database.
func Has(db sql.Executor, address common.Address) (bool, error) {
	rows, err := db.Exec("select 1 from account where eth_address = ?1;",
		func(stmt *sql.Statement) {
			stmt.BindBytes(1, address.Bytes())
		}, nil,
	)
	if err != nil {
		return false, fmt.Errorf("has address %v: %w", address, err)
	}
	return rows > 0, nil
}

// Get account by address.
func Get(db sql.Executor, address common.Address) (types.Account, error) {
	var account types.Account
	rows, err := db.Exec("select id, eth_address, nonce, balance from account where eth_address = ?1;",
		func(stmt *sql.Statement) {
			stmt.BindBytes(1, address.Bytes())
		}, func(stmt *sql.Statement) bool {
			account = decode(stmt)
			return false
		})
	if err != nil {
		return types.Account{}, fmt.Errorf("load %v: %w", address, err)
	} else if rows == 0 {
		return types.Account{}, fmt.Errorf("%w: account %v", sql.ErrNotFound, address)
	}
	return account, nil
}

// GetOrEmpty returns the account or a zero account for an address that was never credited.
func GetOrEmpty(db sql.Executor, address common.Address) (types.Account, bool, error) {
	account, err := Get(db, address)
	switch {
	case err == nil:
		return account, true, nil
	case sql.IsNotFound(err):
		return types.Account{Address: address, Balance: new(uint256.Int)}, false, nil
	default:
		return types.Account{}, false, err
	}
}

// Create inserts an empty account with the next sequence number.
func Create(db sql.Executor, address common.Address) (types.Account, error) {
	var id int64
	if _, err := db.Exec("select coalesce(max(id) + 1, 0) from account;", nil,
		func(stmt *sql.Statement) bool {
			id = stmt.ColumnInt64(0)
			return false
		}); err != nil {
		return types.Account{}, fmt.Errorf("next account id: %w", err)
	}
	var zero [32]byte
	if _, err := db.Exec("insert into account (id, eth_address, nonce, balance) values (?1, ?2, 0, ?3);",
		func(stmt *sql.Statement) {
			stmt.BindInt64(1, id)
			stmt.BindBytes(2, address.Bytes())
			stmt.BindBytes(3, zero[:])
		}, nil); err != nil {
		return types.Account{}, fmt.Errorf("insert account %v: %w", address, err)
	}
	return types.Account{ID: uint64(id), Address: address, Balance: new(uint256.Int)}, nil
}

// Update nonce and balance of an existing account.
func Update(db sql.Executor, account types.Account) error {
	balance := account.Balance.Bytes32()
	rows, err := db.Exec("update account set nonce = ?2, balance = ?3 where eth_address = ?1 returning id;",
		func(stmt *sql.Statement) {
			stmt.BindBytes(1, account.Address.Bytes())
			stmt.BindInt64(2, int64(account.Nonce))
			stmt.BindBytes(3, balance[:])
		}, nil)
	if err != nil {
		return fmt.Errorf("update account %v: %w", account.Address, err)
	} else if rows == 0 {
		return fmt.Errorf("%w: account %v", sql.ErrNotFound, account.Address)
	}
	return nil
}

// Upsert creates the account if needed and writes its nonce and balance.
func Upsert(db sql.Executor, account types.Account) (types.Account, error) {
	exists, err := Has(db, account.Address)
	if err != nil {
		return types.Account{}, err
	}
	if !exists {
		created, err := Create(db, account.Address)
		if err != nil {
			return types.Account{}, err
		}
		account.ID = created.ID
	}
	return account, Update(db, account)
}

// All returns accounts ordered by sequence number.
func All(db sql.Executor) ([]types.Account, error) {
	var rst []types.Account
	if _, err := db.Exec("select id, eth_address, nonce, balance from account order by id asc;", nil,
		func(stmt *sql.Statement) bool {
			rst = append(rst, decode(stmt))
			return true
		}); err != nil {
		return nil, fmt.Errorf("load all accounts: %w", err)
	}
	return rst, nil
}

// TotalBalance sums balances of all accounts.
func TotalBalance(db sql.Executor) (*uint256.Int, error) {
	all, err := All(db)
	if err != nil {
		return nil, err
	}
	total := new(uint256.Int)
	for _, account := range all {
		total.Add(total, account.Balance)
	}
	return total, nil
}
