package bridge

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"github.com/spacemeshos/go-evmbridge/address"
	"github.com/spacemeshos/go-evmbridge/common/types"
	"github.com/spacemeshos/go-evmbridge/evm"
	"github.com/spacemeshos/go-evmbridge/scheduler"
	"github.com/spacemeshos/go-evmbridge/sql"
	"github.com/spacemeshos/go-evmbridge/sql/accounts"
	"github.com/spacemeshos/go-evmbridge/txs"
)

// validationState exposes accounts and the active gas price to the validator.
type validationState struct {
	db       sql.Executor
	gasPrice uint64
}

func (s validationState) Account(addr common.Address) (types.Account, error) {
	account, _, err := accounts.GetOrEmpty(s.db, addr)
	return account, err
}

func (s validationState) GasPrice() (uint64, error) {
	return s.gasPrice, nil
}

// evmState applies executor effects. Value sent to an address that routes to a native
// account is paid out with an inline token transfer.
type evmState struct {
	b *Bridge
	c *scheduler.Context
}

func (s *evmState) Account(addr common.Address) (types.Account, bool, error) {
	return accounts.GetOrEmpty(s.c.DB, addr)
}

func (s *evmState) SetNonce(addr common.Address, nonce uint64) error {
	account, _, err := accounts.GetOrEmpty(s.c.DB, addr)
	if err != nil {
		return err
	}
	account.Nonce = nonce
	_, err = accounts.Upsert(s.c.DB, account)
	return err
}

func (s *evmState) CreateContract(addr common.Address) error {
	account, _, err := accounts.GetOrEmpty(s.c.DB, addr)
	if err != nil {
		return err
	}
	account.Nonce = 1
	_, err = accounts.Upsert(s.c.DB, account)
	return err
}

func (s *evmState) Transfer(from, to common.Address, value *uint256.Int) error {
	withdrawal, err := s.b.ledger.IsWithdrawal(s.c.DB, to)
	if err != nil {
		return err
	}
	if !withdrawal {
		return s.b.ledger.Transfer(s.c.DB, from, to, value)
	}
	req, err := s.b.ledger.WithdrawFromEvm(s.c.DB, from, to, value)
	if err != nil {
		return err
	}
	return s.b.sendTransfer(s.c, req)
}

func (b *Bridge) pushTx(c *scheduler.Context) error {
	req, err := scheduler.Data[PushTx](c)
	if err != nil {
		return err
	}
	if err := c.RequireAuth(req.Miner); err != nil {
		return err
	}
	if req.Record != nil {
		// transaction applied by the bridge itself, recorded for version 0 blocks
		if err := c.RequireAuth(b.account); err != nil {
			return err
		}
		c.SetReturn(*req.Record)
		return nil
	}
	if _, err := b.config(c.DB); err != nil {
		return err
	}
	active, err := b.versioner.Active(c.DB)
	if err != nil {
		return err
	}
	validated, err := b.validator.Validate(req.RLPTx, validationState{db: c.DB, gasPrice: active.GasPrice})
	if err != nil {
		return err
	}
	tx := validated.Tx
	price := new(uint256.Int).SetBytes(tx.GasPrice().Bytes())
	if !price.IsUint64() {
		return fmt.Errorf("%w: gas price %s", txs.ErrMalformedTx, price)
	}
	value := new(uint256.Int).SetBytes(tx.Value().Bytes())
	msg := &evm.Message{
		From:     validated.Sender,
		To:       tx.To(),
		Nonce:    tx.Nonce(),
		Value:    value,
		GasLimit: tx.Gas(),
		GasPrice: price.Uint64(),
		Data:     tx.Data(),
	}
	miner := req.Miner
	record, err := b.apply(c, msg, active, &miner, types.TxPush)
	if err != nil {
		return err
	}
	record.Hash = validated.Hash
	return b.emit(c, record, active.Version)
}

func (b *Bridge) call(c *scheduler.Context) error {
	req, err := scheduler.Data[Call](c)
	if err != nil {
		return err
	}
	if err := c.RequireAuth(req.From); err != nil {
		return err
	}
	from := address.DeriveReserved(req.From)
	open, err := b.ledger.IsOpen(c.DB, req.From)
	if err != nil {
		return err
	}
	if !open {
		return b.applyCall(c, from, req.To, req.Value, req.Data, req.GasLimit, types.TxCall)
	}
	// an account with an open balance pays through its reserved address, whatever is left
	// goes back to the open balance
	before, _, err := accounts.GetOrEmpty(c.DB, from)
	if err != nil {
		return err
	}
	if _, err := b.ledger.FundFromOpen(c.DB, req.From); err != nil {
		return err
	}
	if err := b.applyCall(c, from, req.To, req.Value, req.Data, req.GasLimit, types.TxCall); err != nil {
		return err
	}
	_, err = b.ledger.SettleToOpen(c.DB, req.From, before.Balance)
	return err
}

func (b *Bridge) adminCall(c *scheduler.Context) error {
	if err := c.RequireAuth(b.account); err != nil {
		return err
	}
	req, err := scheduler.Data[AdminCall](c)
	if err != nil {
		return err
	}
	return b.applyCall(c, req.From, req.To, req.Value, req.Data, req.GasLimit, types.TxAdminCall)
}

func (b *Bridge) applyCall(c *scheduler.Context, from common.Address, to *common.Address, value *uint256.Int,
	data []byte, gasLimit uint64, kind types.TxKind,
) error {
	if _, err := b.config(c.DB); err != nil {
		return err
	}
	active, err := b.versioner.Active(c.DB)
	if err != nil {
		return err
	}
	sender, _, err := accounts.GetOrEmpty(c.DB, from)
	if err != nil {
		return err
	}
	if value == nil {
		value = new(uint256.Int)
	}
	cost := new(uint256.Int).Mul(uint256.NewInt(gasLimit), uint256.NewInt(active.GasPrice))
	cost.Add(cost, value)
	if sender.Balance.Lt(cost) {
		return fmt.Errorf("%w: %v has %s, needs %s", txs.ErrInsufficientBalance, from, sender.Balance, cost)
	}
	msg := &evm.Message{
		From:     from,
		To:       to,
		Nonce:    sender.Nonce,
		Value:    value,
		GasLimit: gasLimit,
		GasPrice: active.GasPrice,
		Data:     data,
	}
	record, err := b.apply(c, msg, active, nil, kind)
	if err != nil {
		return err
	}
	record.Hash, err = recordHash(record)
	if err != nil {
		return err
	}
	return b.emit(c, record, active.Version)
}

// apply executes msg and charges gas. The whole fee goes to the accumulator if miner is nil.
func (b *Bridge) apply(c *scheduler.Context, msg *evm.Message, active types.ConsensusParams,
	miner *types.Name, kind types.TxKind,
) (types.TxRecord, error) {
	result, err := b.executor.Execute(&evmState{b: b, c: c}, msg, active.Schedule)
	if err != nil {
		return types.TxRecord{}, err
	}
	if _, err := b.ledger.ChargeGas(c.DB, msg.From, miner, result.GasUsed, msg.GasPrice); err != nil {
		return types.TxRecord{}, err
	}
	to := msg.To
	if result.Created != nil {
		to = result.Created
	}
	evmTxCount.WithLabelValues(kind.String()).Inc()
	b.logger.Debug("evm transaction applied",
		zap.Stringer("kind", kind),
		zap.Stringer("from", msg.From),
		zap.Uint64("nonce", msg.Nonce),
		zap.Uint64("gas_used", result.GasUsed),
	)
	return types.TxRecord{
		Kind:     kind,
		From:     msg.From,
		To:       to,
		Nonce:    msg.Nonce,
		Value:    msg.Value,
		GasUsed:  result.GasUsed,
		GasPrice: msg.GasPrice,
		Sequence: c.Trace.GlobalSequence,
	}, nil
}

// emit makes record visible to block assembly. Starting with version 1 every transaction is
// announced by an evmtx event. Version 0 blocks are built from pushtx actions, so transactions
// that did not come from pushtx are wrapped into one.
func (b *Bridge) emit(c *scheduler.Context, record types.TxRecord, version uint64) error {
	switch {
	case version >= 1:
		return c.SendInline(b.selfAction(ActionEvmTx, EvmTx{Record: record}))
	case c.Action().Name == ActionPushTx && c.Action().Account == b.account:
		c.SetReturn(record)
		return nil
	default:
		return c.SendInline(b.selfAction(ActionPushTx, PushTx{Miner: b.account, Record: &record}))
	}
}

func recordHash(record types.TxRecord) (common.Hash, error) {
	record.Hash = common.Hash{}
	encoded, err := rlp.EncodeToBytes(&record)
	if err != nil {
		return common.Hash{}, fmt.Errorf("encode tx record: %w", err)
	}
	return crypto.Keccak256Hash(encoded), nil
}
