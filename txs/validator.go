// Package txs validates signed EVM transactions before they are executed by the bridge.
package txs

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/holiman/uint256"
	"go.uber.org/zap"
)

var (
	ErrMalformedTx         = errors.New("malformed transaction")
	ErrChainIDMismatch     = errors.New("chain id mismatch")
	ErrBadSignature        = errors.New("bad signature")
	ErrNonceMismatch       = errors.New("nonce mismatch")
	ErrGasPriceTooLow      = errors.New("gas price too low")
	ErrInsufficientBalance = errors.New("insufficient balance")
)

// DefaultSenderCacheSize is the number of recovered senders kept by a Validator.
const DefaultSenderCacheSize = 4096

// Validated is a transaction that passed every check.
type Validated struct {
	Tx     *ethtypes.Transaction
	Hash   common.Hash
	Sender common.Address
	// Cost is gas limit times gas price plus value, in wei.
	Cost *uint256.Int
}

// Opt for configuring Validator.
type Opt func(*Validator)

// WithLogger sets logger.
func WithLogger(logger *zap.Logger) Opt {
	return func(v *Validator) {
		v.logger = logger
	}
}

// WithSenderCacheSize overwrites DefaultSenderCacheSize.
func WithSenderCacheSize(size int) Opt {
	return func(v *Validator) {
		v.cacheSize = size
	}
}

// Validator checks raw transactions against the chain id and an account state.
type Validator struct {
	logger    *zap.Logger
	chainID   uint64
	cacheSize int
	signer    ethtypes.Signer
	senders   *lru.Cache[common.Hash, common.Address]
}

// NewValidator creates a Validator for chainID.
func NewValidator(chainID uint64, opts ...Opt) (*Validator, error) {
	v := &Validator{
		logger:    zap.NewNop(),
		chainID:   chainID,
		cacheSize: DefaultSenderCacheSize,
		signer:    ethtypes.LatestSignerForChainID(new(uint256.Int).SetUint64(chainID).ToBig()),
	}
	for _, opt := range opts {
		opt(v)
	}
	cache, err := lru.New[common.Hash, common.Address](v.cacheSize)
	if err != nil {
		return nil, fmt.Errorf("create sender cache: %w", err)
	}
	v.senders = cache
	return v, nil
}

// ChainID the validator accepts transactions for.
func (v *Validator) ChainID() uint64 {
	return v.chainID
}

// Decode parses raw bytes as a legacy or typed transaction.
func Decode(raw []byte) (*ethtypes.Transaction, error) {
	var tx ethtypes.Transaction
	if err := tx.UnmarshalBinary(raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedTx, err)
	}
	return &tx, nil
}

// Sender recovers the signer of tx, consulting the cache first.
func (v *Validator) Sender(tx *ethtypes.Transaction) (common.Address, error) {
	hash := tx.Hash()
	if sender, ok := v.senders.Get(hash); ok {
		senderCacheHits.WithLabelValues("hit").Inc()
		return sender, nil
	}
	senderCacheHits.WithLabelValues("miss").Inc()
	sender, err := ethtypes.Sender(v.signer, tx)
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: %s: %w", ErrBadSignature, hash, err)
	}
	v.senders.Add(hash, sender)
	return sender, nil
}

// Validate decodes raw and checks it in the following order: chain id, signature,
// nonce, gas price and balance. The first failure is returned.
func (v *Validator) Validate(raw []byte, state AccountState) (*Validated, error) {
	validated, err := v.validate(raw, state)
	updateMetrics(err)
	if err != nil {
		v.logger.Debug("transaction rejected", zap.Error(err))
		return nil, err
	}
	return validated, nil
}

func (v *Validator) validate(raw []byte, state AccountState) (*Validated, error) {
	tx, err := Decode(raw)
	if err != nil {
		return nil, err
	}
	// unprotected transactions report chain id 0
	if chainID := tx.ChainId(); !chainID.IsUint64() || chainID.Uint64() != v.chainID {
		return nil, fmt.Errorf("%w: got %s, want %d", ErrChainIDMismatch, chainID, v.chainID)
	}
	sender, err := v.Sender(tx)
	if err != nil {
		return nil, err
	}
	account, err := state.Account(sender)
	if err != nil {
		return nil, fmt.Errorf("load account %s: %w", sender, err)
	}
	if tx.Nonce() != account.Nonce {
		return nil, fmt.Errorf("%w: %s has %d, tx %d", ErrNonceMismatch, sender, account.Nonce, tx.Nonce())
	}
	minPrice, err := state.GasPrice()
	if err != nil {
		return nil, fmt.Errorf("load gas price: %w", err)
	}
	price, overflow := uint256.FromBig(tx.GasPrice())
	if overflow {
		return nil, fmt.Errorf("%w: gas price overflows", ErrMalformedTx)
	}
	if price.Lt(uint256.NewInt(minPrice)) {
		return nil, fmt.Errorf("%w: %s below %d", ErrGasPriceTooLow, price, minPrice)
	}
	cost, overflow := uint256.FromBig(tx.Cost())
	if overflow {
		return nil, fmt.Errorf("%w: cost overflows", ErrInsufficientBalance)
	}
	balance := account.Balance
	if balance == nil {
		balance = new(uint256.Int)
	}
	if balance.Lt(cost) {
		return nil, fmt.Errorf("%w: %s has %s, needs %s", ErrInsufficientBalance, sender, balance, cost)
	}
	return &Validated{Tx: tx, Hash: tx.Hash(), Sender: sender, Cost: cost}, nil
}
