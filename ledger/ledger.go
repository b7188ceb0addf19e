// Package ledger moves value between native token balances held by the bridge and EVM accounts.
//
// The bridge holds the whole native supply that backs the EVM side. At any point
// the sum of EVM balances and open balances, in wei, equals the native amount
// owned by the bridge multiplied by the unit scale of the token.
package ledger

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"github.com/spacemeshos/go-evmbridge/address"
	"github.com/spacemeshos/go-evmbridge/common/types"
	"github.com/spacemeshos/go-evmbridge/sql"
	"github.com/spacemeshos/go-evmbridge/sql/accounts"
	"github.com/spacemeshos/go-evmbridge/sql/balances"
	"github.com/spacemeshos/go-evmbridge/sql/kvstore"
	"github.com/spacemeshos/go-evmbridge/sql/links"
)

var (
	ErrInsufficientAmountForFee = errors.New("deposit amount must exceed the ingress fee")
	ErrInsufficientBalance      = errors.New("insufficient balance")
	ErrUnroutableWithdrawal     = errors.New("no native account for withdrawal address")
	ErrDustValue                = errors.New("value is not a multiple of the token minor unit")
	ErrMinerNotOpen             = errors.New("miner balance is not open")
	ErrNotOpen                  = errors.New("balance is not open")
	ErrAlreadyOpen              = errors.New("balance is already open")
	ErrNotInitialized           = errors.New("bridge is not initialized")
	ErrSymbolMismatch           = errors.New("asset symbol mismatch")
)

// TransferRequest is a native token transfer the bridge must send out.
type TransferRequest struct {
	From     types.Name
	To       types.Name
	Quantity types.Asset
	Memo     string
	// Address is the EVM side of the transfer, zero for open balance withdrawals.
	Address common.Address
}

// Fee is the split of a gas charge.
type Fee struct {
	Total       *uint256.Int
	Miner       *uint256.Int
	Accumulator *uint256.Int
}

// Opt for configuring Ledger.
type Opt func(*Ledger)

// WithLogger sets logger.
func WithLogger(logger *zap.Logger) Opt {
	return func(l *Ledger) {
		l.logger = logger
	}
}

// New creates a Ledger for the bridge account.
func New(bridge types.Name, opts ...Opt) *Ledger {
	l := &Ledger{logger: zap.NewNop(), bridge: bridge}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Ledger implements value moves on top of the state tables.
type Ledger struct {
	logger *zap.Logger
	bridge types.Name
}

// Bridge returns the account owning the fee accumulator.
func (l *Ledger) Bridge() types.Name {
	return l.bridge
}

// Config returns the bridge configuration written at init.
func (l *Ledger) Config(db sql.Executor) (kvstore.BridgeConfig, error) {
	cfg, err := kvstore.GetBridgeConfig(db)
	if sql.IsNotFound(err) {
		return kvstore.BridgeConfig{}, ErrNotInitialized
	}
	return cfg, err
}

func (l *Ledger) checkSymbol(cfg kvstore.BridgeConfig, amount types.Asset) error {
	if amount.Symbol != cfg.Symbol {
		return fmt.Errorf("%w: %s, want %s", ErrSymbolMismatch, amount.Symbol, cfg.Symbol)
	}
	return nil
}

// DepositToEvm credits dest with amount minus the ingress fee and returns the credited wei.
// The fee goes to the accumulator.
func (l *Ledger) DepositToEvm(db sql.Executor, amount types.Asset, dest common.Address) (*uint256.Int, error) {
	cfg, err := l.Config(db)
	if err != nil {
		return nil, err
	}
	if err := l.checkSymbol(cfg, amount); err != nil {
		return nil, err
	}
	fee := cfg.IngressBridgeFee()
	if amount.Amount <= fee.Amount {
		return nil, fmt.Errorf("%w: %s, fee %s", ErrInsufficientAmountForFee, amount, fee)
	}
	if err := l.credit(db, l.bridge, fee.Wei()); err != nil {
		return nil, err
	}
	credited := types.Asset{Amount: amount.Amount - fee.Amount, Symbol: amount.Symbol}
	account, _, err := accounts.GetOrEmpty(db, dest)
	if err != nil {
		return nil, err
	}
	account.Balance = new(uint256.Int).Add(account.Balance, credited.Wei())
	if _, err := accounts.Upsert(db, account); err != nil {
		return nil, err
	}
	depositsCount.Inc()
	l.logger.Debug("deposit to evm",
		zap.Stringer("address", dest),
		zap.Stringer("amount", amount),
		zap.Stringer("credited", credited),
	)
	return credited.Wei(), nil
}

// Route returns the native account that receives withdrawals to addr.
func (l *Ledger) Route(db sql.Executor, addr common.Address) (types.Name, error) {
	if name, ok := address.ReverseReserved(addr); ok {
		if name == 0 {
			return 0, fmt.Errorf("%w: %v", ErrUnroutableWithdrawal, addr)
		}
		return name, nil
	}
	name, err := links.Get(db, addr)
	switch {
	case err == nil:
		return name, nil
	case sql.IsNotFound(err):
		return 0, fmt.Errorf("%w: %v", ErrUnroutableWithdrawal, addr)
	default:
		return 0, err
	}
}

// IsWithdrawal is true if value sent to addr leaves the EVM.
func (l *Ledger) IsWithdrawal(db sql.Executor, addr common.Address) (bool, error) {
	if address.IsReserved(addr) {
		return true, nil
	}
	if _, err := links.Get(db, addr); err != nil {
		if sql.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// WithdrawFromEvm debits value from src and returns the native transfer that pays it out to the
// account behind dest.
func (l *Ledger) WithdrawFromEvm(db sql.Executor, src, dest common.Address, value *uint256.Int) (*TransferRequest, error) {
	cfg, err := l.Config(db)
	if err != nil {
		return nil, err
	}
	to, err := l.Route(db, dest)
	if err != nil {
		return nil, err
	}
	units, dust := types.SplitWei(value, cfg.Symbol)
	if !dust.IsZero() {
		return nil, fmt.Errorf("%w: %s wei", ErrDustValue, value)
	}
	if !units.IsUint64() {
		return nil, fmt.Errorf("%w: %s wei overflows", ErrInsufficientBalance, value)
	}
	if err := l.debit(db, src, value); err != nil {
		return nil, err
	}
	withdrawalsCount.Inc()
	req := &TransferRequest{
		From:     l.bridge,
		To:       to,
		Quantity: types.Asset{Amount: units.Uint64(), Symbol: cfg.Symbol},
		Memo:     "withdraw from evm " + address.Checksummed(src),
		Address:  src,
	}
	l.logger.Debug("withdraw from evm",
		zap.Stringer("from", src),
		zap.Stringer("to", to),
		zap.Stringer("quantity", req.Quantity),
	)
	return req, nil
}

// Transfer moves value between two EVM accounts, creating the recipient.
func (l *Ledger) Transfer(db sql.Executor, from, to common.Address, value *uint256.Int) error {
	if err := l.debit(db, from, value); err != nil {
		return err
	}
	account, _, err := accounts.GetOrEmpty(db, to)
	if err != nil {
		return err
	}
	account.Balance = new(uint256.Int).Add(account.Balance, value)
	_, err = accounts.Upsert(db, account)
	return err
}

func (l *Ledger) debit(db sql.Executor, addr common.Address, value *uint256.Int) error {
	account, _, err := accounts.GetOrEmpty(db, addr)
	if err != nil {
		return err
	}
	if account.Balance.Lt(value) {
		return fmt.Errorf("%w: %v has %s wei, needs %s", ErrInsufficientBalance, addr, account.Balance, value)
	}
	account.Balance = new(uint256.Int).Sub(account.Balance, value)
	return accounts.Update(db, account)
}

// ChargeGas debits gasUsed*gasPrice from sender. The miner cut goes to the open balance of miner,
// the rest to the accumulator. A nil miner sends everything to the accumulator.
func (l *Ledger) ChargeGas(db sql.Executor, sender common.Address, miner *types.Name, gasUsed, gasPrice uint64) (Fee, error) {
	cfg, err := l.Config(db)
	if err != nil {
		return Fee{}, err
	}
	total := new(uint256.Int).Mul(uint256.NewInt(gasUsed), uint256.NewInt(gasPrice))
	fee := Fee{Total: total, Miner: new(uint256.Int), Accumulator: new(uint256.Int).Set(total)}
	if miner != nil && *miner != l.bridge {
		if _, err := balances.Get(db, *miner); err != nil {
			if sql.IsNotFound(err) {
				return Fee{}, fmt.Errorf("%w: %s", ErrMinerNotOpen, miner)
			}
			return Fee{}, err
		}
		fee.Miner.Mul(total, uint256.NewInt(cfg.MinerCut))
		fee.Miner.Div(fee.Miner, uint256.NewInt(types.HundredPercent))
		fee.Accumulator.Sub(total, fee.Miner)
	}
	if total.IsZero() {
		return fee, nil
	}
	if err := l.debit(db, sender, total); err != nil {
		return Fee{}, err
	}
	if !fee.Miner.IsZero() {
		if err := l.credit(db, *miner, fee.Miner); err != nil {
			return Fee{}, err
		}
	}
	if err := l.credit(db, l.bridge, fee.Accumulator); err != nil {
		return Fee{}, err
	}
	gasFeesCount.WithLabelValues("miner").Add(weiToFloat(fee.Miner))
	gasFeesCount.WithLabelValues("bridge").Add(weiToFloat(fee.Accumulator))
	return fee, nil
}

func weiToFloat(wei *uint256.Int) float64 {
	f, _ := new(big.Float).SetInt(wei.ToBig()).Float64()
	return f
}

func (l *Ledger) credit(db sql.Executor, owner types.Name, wei *uint256.Int) error {
	balance, err := balances.Get(db, owner)
	if err != nil {
		if sql.IsNotFound(err) {
			return fmt.Errorf("%w: %s", ErrNotOpen, owner)
		}
		return err
	}
	return balances.Set(db, owner, new(uint256.Int).Add(balance.Balance, wei))
}

// Open creates an empty balance for owner.
func (l *Ledger) Open(db sql.Executor, owner types.Name) error {
	if _, err := balances.Open(db, owner); err != nil {
		if errors.Is(err, sql.ErrObjectExists) {
			return fmt.Errorf("%w: %s", ErrAlreadyOpen, owner)
		}
		return err
	}
	return nil
}

// IsOpen is true if owner has an open balance.
func (l *Ledger) IsOpen(db sql.Executor, owner types.Name) (bool, error) {
	if _, err := balances.Get(db, owner); err != nil {
		if sql.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// CreditOpen adds a native deposit to the open balance of owner without charging the ingress fee.
func (l *Ledger) CreditOpen(db sql.Executor, owner types.Name, amount types.Asset) error {
	cfg, err := l.Config(db)
	if err != nil {
		return err
	}
	if err := l.checkSymbol(cfg, amount); err != nil {
		return err
	}
	return l.credit(db, owner, amount.Wei())
}

// Withdraw debits quantity from the open balance of owner and returns the payout.
func (l *Ledger) Withdraw(db sql.Executor, owner types.Name, quantity types.Asset) (*TransferRequest, error) {
	cfg, err := l.Config(db)
	if err != nil {
		return nil, err
	}
	if err := l.checkSymbol(cfg, quantity); err != nil {
		return nil, err
	}
	balance, err := balances.Get(db, owner)
	if err != nil {
		if sql.IsNotFound(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotOpen, owner)
		}
		return nil, err
	}
	wei := quantity.Wei()
	if balance.Balance.Lt(wei) {
		return nil, fmt.Errorf("%w: %s has %s, needs %s", ErrInsufficientBalance,
			owner, types.FormatWei(balance.Balance, cfg.Symbol), quantity)
	}
	if err := balances.Set(db, owner, new(uint256.Int).Sub(balance.Balance, wei)); err != nil {
		return nil, err
	}
	withdrawalsCount.Inc()
	return &TransferRequest{From: l.bridge, To: owner, Quantity: quantity, Memo: "withdraw balance"}, nil
}

// FundFromOpen moves the whole open balance of owner to the reserved address of owner, so that
// the address can pay for a call made on behalf of owner. It returns the moved amount.
func (l *Ledger) FundFromOpen(db sql.Executor, owner types.Name) (*uint256.Int, error) {
	balance, err := balances.Get(db, owner)
	if err != nil {
		if sql.IsNotFound(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotOpen, owner)
		}
		return nil, err
	}
	moved := balance.Balance
	if moved.IsZero() {
		return moved, nil
	}
	if err := balances.Set(db, owner, new(uint256.Int)); err != nil {
		return nil, err
	}
	addr := address.DeriveReserved(owner)
	account, _, err := accounts.GetOrEmpty(db, addr)
	if err != nil {
		return nil, err
	}
	account.Balance = new(uint256.Int).Add(account.Balance, moved)
	if _, err := accounts.Upsert(db, account); err != nil {
		return nil, err
	}
	return moved, nil
}

// SettleToOpen moves everything the reserved address of owner holds above keep back to the open
// balance of owner. It returns the moved amount.
func (l *Ledger) SettleToOpen(db sql.Executor, owner types.Name, keep *uint256.Int) (*uint256.Int, error) {
	addr := address.DeriveReserved(owner)
	account, _, err := accounts.GetOrEmpty(db, addr)
	if err != nil {
		return nil, err
	}
	if !account.Balance.Gt(keep) {
		return new(uint256.Int), nil
	}
	moved := new(uint256.Int).Sub(account.Balance, keep)
	if err := l.debit(db, addr, moved); err != nil {
		return nil, err
	}
	if err := l.credit(db, owner, moved); err != nil {
		return nil, err
	}
	return moved, nil
}

// Supply is the sum of all EVM balances and open balances in wei.
func (l *Ledger) Supply(db sql.Executor) (*uint256.Int, error) {
	total, err := accounts.TotalBalance(db)
	if err != nil {
		return nil, err
	}
	all, err := balances.All(db)
	if err != nil {
		return nil, err
	}
	for _, balance := range all {
		total.Add(total, balance.Balance)
	}
	return total, nil
}
