package checkpoint

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"time"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/spacemeshos/go-evmbridge/common/types"
	"github.com/spacemeshos/go-evmbridge/sql"
	"github.com/spacemeshos/go-evmbridge/sql/accounts"
	"github.com/spacemeshos/go-evmbridge/sql/balances"
	"github.com/spacemeshos/go-evmbridge/sql/blocks"
	"github.com/spacemeshos/go-evmbridge/sql/kvstore"
	"github.com/spacemeshos/go-evmbridge/sql/links"
	"github.com/spacemeshos/go-evmbridge/sql/tokens"
)

const recoveryDir = "recovery"

var (
	// ErrInvalid is returned for files that are not checkpoints of this version.
	ErrInvalid = errors.New("invalid checkpoint")
	// ErrNotEmpty is returned when recovering into a database that already has state.
	ErrNotEmpty = errors.New("database is not empty")
)

type Config struct {
	Uri        string        `mapstructure:"recovery-uri"`
	RetryMax   int           `mapstructure:"retry-max"`
	RetryDelay time.Duration `mapstructure:"retry-delay"`
}

func DefaultConfig() Config {
	return Config{
		RetryMax:   5,
		RetryDelay: time.Second,
	}
}

func RecoveryDir(dataDir string) string {
	return filepath.Join(dataDir, recoveryDir)
}

func RecoveryFilename(dataDir, base string) string {
	return filepath.Join(RecoveryDir(dataDir), base)
}

// CopyToLocalFile copies the checkpoint at uri into the recovery directory.
// uri is a local path, a file:// or an http(s):// url.
func CopyToLocalFile(
	ctx context.Context,
	logger *zap.Logger,
	fs afero.Fs,
	dataDir string,
	cfg Config,
) (string, error) {
	parsed, err := url.Parse(cfg.Uri)
	if err != nil {
		return "", fmt.Errorf("%w: parse recovery URI %v", err, cfg.Uri)
	}
	dst := RecoveryFilename(dataDir, filepath.Base(parsed.Path))
	switch parsed.Scheme {
	case "", "file":
		src := filepath.Join(parsed.Host, parsed.Path)
		if _, err := fs.Stat(src); err != nil {
			return "", fmt.Errorf("stat checkpoint file %v: %w", src, err)
		}
		if src == dst {
			return dst, nil
		}
		if err := CopyFile(fs, src, dst); err != nil {
			return "", err
		}
		logger.Debug("copied file", zap.String("from", src), zap.String("to", dst))
	case "http", "https":
		if err := httpToLocalFile(ctx, newClient(logger, cfg), parsed, fs, dst); err != nil {
			return "", err
		}
		logger.Info("checkpoint data persisted", zap.String("file", dst))
	default:
		return "", fmt.Errorf("uri scheme not supported: %s", cfg.Uri)
	}
	return dst, nil
}

// Recover copies the checkpoint from cfg.Uri and restores it into db.
func Recover(
	ctx context.Context,
	logger *zap.Logger,
	fs afero.Fs,
	db *sql.Database,
	dataDir string,
	cfg Config,
) (*Checkpoint, error) {
	if err := requireEmpty(db); err != nil {
		return nil, err
	}
	logger.Info("recover from uri", zap.String("uri", cfg.Uri))
	file, err := CopyToLocalFile(ctx, logger, fs, dataDir, cfg)
	if err != nil {
		return nil, err
	}
	return RecoverFromFile(ctx, logger, fs, db, file)
}

func requireEmpty(db sql.Executor) error {
	store, err := kvstore.All(db)
	if err != nil {
		return err
	}
	all, err := accounts.All(db)
	if err != nil {
		return err
	}
	holdings, err := tokens.All(db)
	if err != nil {
		return err
	}
	if len(store)+len(all)+len(holdings) > 0 {
		return ErrNotEmpty
	}
	return nil
}

// RecoverFromFile restores the checkpoint in file into an empty db, in one transaction.
func RecoverFromFile(
	ctx context.Context,
	logger *zap.Logger,
	fs afero.Fs,
	db *sql.Database,
	file string,
) (*Checkpoint, error) {
	logger.Info("recovering from checkpoint file", zap.String("file", file))
	checkpoint, err := checkpointData(fs, file)
	if err != nil {
		return nil, err
	}
	logger.Info("recovery data contains",
		zap.String("id", checkpoint.Data.CheckpointId),
		zap.Int("num_accounts", len(checkpoint.Data.Accounts)),
		zap.Int("num_balances", len(checkpoint.Data.Balances)),
		zap.Int("num_tokens", len(checkpoint.Data.Tokens)),
		zap.Int("num_links", len(checkpoint.Data.Links)),
	)
	if err := db.WithTx(ctx, func(tx *sql.Tx) error {
		if err := requireEmpty(tx); err != nil {
			return err
		}
		return restore(tx, &checkpoint.Data)
	}); err != nil {
		return nil, err
	}
	logger.Info("checkpoint restored", zap.String("id", checkpoint.Data.CheckpointId))
	return checkpoint, nil
}

func restore(tx *sql.Tx, data *InnerData) error {
	for i, acct := range data.Accounts {
		balance, err := uint256.FromDecimal(acct.Balance)
		if err != nil {
			return fmt.Errorf("%w: account %v balance: %w", ErrInvalid, acct.Address, err)
		}
		stored, err := accounts.Upsert(tx, types.Account{
			Address: acct.Address,
			Nonce:   acct.Nonce,
			Balance: balance,
		})
		if err != nil {
			return fmt.Errorf("restore account %v: %w", acct.Address, err)
		}
		if stored.ID != acct.ID || acct.ID != uint64(i) {
			return fmt.Errorf("%w: account %v has id %d at position %d", ErrInvalid, acct.Address, acct.ID, i)
		}
	}
	for i, b := range data.Balances {
		balance, err := uint256.FromDecimal(b.Balance)
		if err != nil {
			return fmt.Errorf("%w: balance of %s: %w", ErrInvalid, b.Owner, err)
		}
		opened, err := balances.Open(tx, b.Owner)
		if err != nil {
			return fmt.Errorf("restore balance of %s: %w", b.Owner, err)
		}
		if opened.ID != b.ID || b.ID != uint64(i) {
			return fmt.Errorf("%w: balance of %s has id %d at position %d", ErrInvalid, b.Owner, b.ID, i)
		}
		if err := balances.Set(tx, b.Owner, balance); err != nil {
			return err
		}
	}
	for _, token := range data.Tokens {
		if err := tokens.Set(tx, token.Owner, token.Amount); err != nil {
			return err
		}
	}
	for _, link := range data.Links {
		if err := links.Add(tx, link.Address, link.Owner); err != nil {
			return err
		}
	}
	for key, value := range data.Store {
		if err := kvstore.SetRaw(tx, key, value); err != nil {
			return err
		}
	}
	if _, err := kvstore.GetBridgeConfig(tx); err != nil {
		return fmt.Errorf("%w: bridge config: %w", ErrInvalid, err)
	}
	if data.Block == nil {
		return nil
	}
	var block types.Block
	if err := rlp.DecodeBytes(data.Block.Header, &block); err != nil {
		return fmt.Errorf("%w: decode block %d: %w", ErrInvalid, data.Block.Number, err)
	}
	if block.Number != data.Block.Number {
		return fmt.Errorf("%w: block number %d, header has %d", ErrInvalid, data.Block.Number, block.Number)
	}
	if err := blocks.Add(tx, &block); err != nil {
		return err
	}
	if block.Hash != data.Block.Hash {
		return fmt.Errorf("%w: block %d hash %v, header hashes to %v",
			ErrInvalid, block.Number, data.Block.Hash, block.Hash)
	}
	return nil
}

func checkpointData(fs afero.Fs, file string) (*Checkpoint, error) {
	data, err := afero.ReadFile(fs, file)
	if err != nil {
		return nil, fmt.Errorf("%w: read recovery file %v", err, file)
	}
	if err = ValidateSchema(data); err != nil {
		return nil, err
	}
	var checkpoint Checkpoint
	if err = json.Unmarshal(data, &checkpoint); err != nil {
		return nil, fmt.Errorf("%w: unmarshal checkpoint from %v: %w", ErrInvalid, file, err)
	}
	if checkpoint.Version != SchemaVersion {
		return nil, fmt.Errorf("%w: expected version %v, got %v", ErrInvalid, SchemaVersion, checkpoint.Version)
	}
	return &checkpoint, nil
}
