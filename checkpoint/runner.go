// Package checkpoint exports the bridge state to a json file and restores it into an empty database.
package checkpoint

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/spf13/afero"

	"github.com/spacemeshos/go-evmbridge/sql"
	"github.com/spacemeshos/go-evmbridge/sql/accounts"
	"github.com/spacemeshos/go-evmbridge/sql/balances"
	"github.com/spacemeshos/go-evmbridge/sql/blocks"
	"github.com/spacemeshos/go-evmbridge/sql/kvstore"
	"github.com/spacemeshos/go-evmbridge/sql/links"
	"github.com/spacemeshos/go-evmbridge/sql/tokens"
)

const (
	SchemaVersion = "https://spacemesh.io/evmbridge.checkpoint.schema.json.1.0"

	checkpointDir = "checkpoint"
	schemaFile    = "schema.json"
	dirPerm       = 0o700
)

func checkpointDB(ctx context.Context, db *sql.Database) (*Checkpoint, error) {
	tx, err := db.Tx(ctx)
	if err != nil {
		return nil, fmt.Errorf("create db tx: %w", err)
	}
	defer tx.Release()

	checkpoint := &Checkpoint{
		Version: SchemaVersion,
		Data: InnerData{
			Accounts: []Account{},
			Balances: []Balance{},
			Tokens:   []Token{},
			Links:    []Link{},
			Store:    map[string]hexutil.Bytes{},
		},
	}
	var number uint64
	latest, err := blocks.Latest(tx)
	switch {
	case errors.Is(err, sql.ErrNotFound):
	case err != nil:
		return nil, err
	default:
		header, err := rlp.EncodeToBytes(latest)
		if err != nil {
			return nil, fmt.Errorf("encode block %d: %w", latest.Number, err)
		}
		number = latest.Number
		checkpoint.Data.Block = &Block{Number: latest.Number, Hash: latest.Hash, Header: header}
	}
	checkpoint.Data.CheckpointId = fmt.Sprintf("snapshot-%d", number)

	all, err := accounts.All(tx)
	if err != nil {
		return nil, fmt.Errorf("accounts snapshot: %w", err)
	}
	for _, acct := range all {
		checkpoint.Data.Accounts = append(checkpoint.Data.Accounts, Account{
			ID:      acct.ID,
			Address: acct.Address,
			Nonce:   acct.Nonce,
			Balance: acct.Balance.Dec(),
		})
	}
	open, err := balances.All(tx)
	if err != nil {
		return nil, fmt.Errorf("balances snapshot: %w", err)
	}
	for _, b := range open {
		checkpoint.Data.Balances = append(checkpoint.Data.Balances, Balance{
			ID:      b.ID,
			Owner:   b.Owner,
			Balance: b.Balance.Dec(),
		})
	}
	holdings, err := tokens.All(tx)
	if err != nil {
		return nil, fmt.Errorf("tokens snapshot: %w", err)
	}
	for _, h := range holdings {
		checkpoint.Data.Tokens = append(checkpoint.Data.Tokens, Token{Owner: h.Owner, Amount: h.Amount})
	}
	index, err := links.All(tx)
	if err != nil {
		return nil, fmt.Errorf("links snapshot: %w", err)
	}
	for _, l := range index {
		checkpoint.Data.Links = append(checkpoint.Data.Links, Link{Address: l.Address, Owner: l.Owner})
	}
	store, err := kvstore.All(tx)
	if err != nil {
		return nil, fmt.Errorf("kvstore snapshot: %w", err)
	}
	for key, value := range store {
		checkpoint.Data.Store[key] = value
	}
	return checkpoint, nil
}

// Generate writes a checkpoint of db under dataDir and returns the file name.
func Generate(ctx context.Context, fs afero.Fs, db *sql.Database, dataDir string) (string, error) {
	checkpoint, err := checkpointDB(ctx, db)
	if err != nil {
		return "", err
	}
	var number uint64
	if checkpoint.Data.Block != nil {
		number = checkpoint.Data.Block.Number
	}
	fname := SelfCheckpointFilename(dataDir, number)
	rf, err := NewRecoveryFile(fs, fname)
	if err != nil {
		return "", fmt.Errorf("new recovery file: %w", err)
	}
	if err = json.NewEncoder(rf).Encode(checkpoint); err != nil {
		rf.Discard(fs)
		return "", fmt.Errorf("marshal checkpoint json: %w", err)
	}
	if err = rf.Save(fs); err != nil {
		return "", err
	}
	return fname, nil
}

func SelfCheckpointFilename(dataDir string, number uint64) string {
	return filepath.Join(dataDir, checkpointDir, fmt.Sprintf("snapshot-%d", number))
}
