package bridge

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/spacemeshos/go-evmbridge/address"
	"github.com/spacemeshos/go-evmbridge/common/types"
	"github.com/spacemeshos/go-evmbridge/scheduler"
	"github.com/spacemeshos/go-evmbridge/token"
)

// onTransfer observes token transfers involving the bridge. Incoming transfers are routed
// by memo:
//
//   - the bridge account name credits the fee accumulator
//   - a 0x prefixed address deposits to that EVM address
//   - the name of an account with an open balance credits that balance
//   - any other name deposits to the reserved address of the name
func (b *Bridge) onTransfer(c *scheduler.Context) error {
	transfer, err := scheduler.Data[token.Transfer](c)
	if err != nil {
		return err
	}
	if transfer.To != b.account {
		return nil
	}
	if _, err := b.config(c.DB); err != nil {
		return err
	}
	memo := strings.TrimSpace(transfer.Memo)
	if strings.HasPrefix(memo, "0x") || strings.HasPrefix(memo, "0X") {
		dest, err := address.Normalize(memo)
		if err != nil {
			return err
		}
		return b.deposit(c, transfer, dest)
	}
	if memo == "" {
		return fmt.Errorf("%w: empty memo", ErrInvalidAddressFormat)
	}
	name, err := types.ParseName(memo)
	if err != nil {
		return fmt.Errorf("%w: memo %q: %w", ErrInvalidAddressFormat, memo, err)
	}
	open, err := b.ledger.IsOpen(c.DB, name)
	if err != nil {
		return err
	}
	if open {
		b.logger.Debug("credit open balance",
			zap.Stringer("owner", name),
			zap.Stringer("quantity", transfer.Quantity),
		)
		return b.ledger.CreditOpen(c.DB, name, transfer.Quantity)
	}
	return b.deposit(c, transfer, address.DeriveReserved(name))
}

func (b *Bridge) deposit(c *scheduler.Context, transfer token.Transfer, dest common.Address) error {
	credited, err := b.ledger.DepositToEvm(c.DB, transfer.Quantity, dest)
	if err != nil {
		return err
	}
	active, err := b.versioner.Active(c.DB)
	if err != nil {
		return err
	}
	record := types.TxRecord{
		Kind:     types.TxDeposit,
		From:     address.DeriveReserved(b.account),
		To:       &dest,
		Value:    credited,
		Sequence: c.Trace.GlobalSequence,
	}
	record.Hash, err = recordHash(record)
	if err != nil {
		return err
	}
	evmTxCount.WithLabelValues(types.TxDeposit.String()).Inc()
	return b.emit(c, record, active.Version)
}
