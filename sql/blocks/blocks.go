package blocks

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"

	"github.com/spacemeshos/go-evmbridge/common/types"
	"github.com/spacemeshos/go-evmbridge/sql"
)

// Hash computes the block hash over its rlp encoding.
func Hash(block *types.Block) (common.Hash, error) {
	encoded, err := rlp.EncodeToBytes(block)
	if err != nil {
		return common.Hash{}, fmt.Errorf("encode block %d: %w", block.Number, err)
	}
	return crypto.Keccak256Hash(encoded), nil
}

// Add stores a block. The hash is computed and assigned.
func Add(db sql.Executor, block *types.Block) error {
	encoded, err := rlp.EncodeToBytes(block)
	if err != nil {
		return fmt.Errorf("encode block %d: %w", block.Number, err)
	}
	block.Hash = crypto.Keccak256Hash(encoded)
	if _, err := db.Exec(`insert into blocks (number, hash, timestamp, header) values (?1, ?2, ?3, ?4);`,
		func(stmt *sql.Statement) {
			stmt.BindInt64(1, int64(block.Number))
			stmt.BindBytes(2, block.Hash.Bytes())
			stmt.BindInt64(3, int64(block.Timestamp))
			stmt.BindBytes(4, encoded)
		}, nil); err != nil {
		return fmt.Errorf("insert block %d: %w", block.Number, err)
	}
	return nil
}

func decode(stmt *sql.Statement) (*types.Block, error) {
	var hash common.Hash
	stmt.ColumnBytes(0, hash[:])
	encoded := make([]byte, stmt.ColumnLen(1))
	stmt.ColumnBytes(1, encoded)
	var block types.Block
	if err := rlp.DecodeBytes(encoded, &block); err != nil {
		return nil, err
	}
	block.Hash = hash
	if block.Version() == 0 {
		block.BaseFeePerGas = nil
	}
	return &block, nil
}

func load(db sql.Executor, query string, enc sql.Encoder) (*types.Block, error) {
	var (
		block  *types.Block
		decErr error
	)
	rows, err := db.Exec(query, enc, func(stmt *sql.Statement) bool {
		block, decErr = decode(stmt)
		return false
	})
	if err != nil {
		return nil, err
	} else if rows == 0 {
		return nil, sql.ErrNotFound
	}
	return block, decErr
}

// Get block by number.
func Get(db sql.Executor, number uint64) (*types.Block, error) {
	block, err := load(db, "select hash, header from blocks where number = ?1;",
		func(stmt *sql.Statement) {
			stmt.BindInt64(1, int64(number))
		})
	if err != nil {
		return nil, fmt.Errorf("get block %d: %w", number, err)
	}
	return block, nil
}

// Latest returns the block with the highest number.
func Latest(db sql.Executor) (*types.Block, error) {
	block, err := load(db, "select hash, header from blocks order by number desc limit 1;", nil)
	if err != nil {
		return nil, fmt.Errorf("latest block: %w", err)
	}
	return block, nil
}
