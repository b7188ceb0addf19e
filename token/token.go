// Package token is a minimal native fungible token contract. Transfers notify both
// parties, which is how the bridge observes deposits.
package token

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/spacemeshos/go-evmbridge/common/types"
	"github.com/spacemeshos/go-evmbridge/scheduler"
	"github.com/spacemeshos/go-evmbridge/sql"
	"github.com/spacemeshos/go-evmbridge/sql/tokens"
)

var (
	ErrInvalidQuantity = errors.New("invalid quantity")
	ErrOverdrawn       = errors.New("overdrawn balance")
	ErrSelfTransfer    = errors.New("cannot transfer to self")
	ErrMemoTooLong     = errors.New("memo has more than 256 bytes")
)

// MaxMemoLength in bytes.
const MaxMemoLength = 256

var (
	ActionTransfer = types.MustName("transfer")
	ActionIssue    = types.MustName("issue")
)

// Transfer moves Quantity from From to To.
type Transfer struct {
	From     types.Name
	To       types.Name
	Quantity types.Asset
	Memo     string
}

// Issue creates new supply owned by To. Only the token account may issue.
type Issue struct {
	To       types.Name
	Quantity types.Asset
}

// Opt for configuring Contract.
type Opt func(*Contract)

// WithLogger sets logger.
func WithLogger(logger *zap.Logger) Opt {
	return func(c *Contract) {
		c.logger = logger
	}
}

// New creates the token contract deployed at account.
func New(account types.Name, symbol types.Symbol, opts ...Opt) *Contract {
	c := &Contract{logger: zap.NewNop(), account: account, symbol: symbol}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Contract handles token actions.
type Contract struct {
	logger  *zap.Logger
	account types.Name
	symbol  types.Symbol
}

// Account the contract is deployed at.
func (c *Contract) Account() types.Name {
	return c.account
}

// Symbol of the token.
func (c *Contract) Symbol() types.Symbol {
	return c.symbol
}

// Register installs the handlers into s.
func (c *Contract) Register(s *scheduler.Scheduler) {
	s.Register(c.account, c.account, ActionTransfer, c.transfer)
	s.Register(c.account, c.account, ActionIssue, c.issue)
}

// TransferAction builds a transfer authorized by the sender.
func (c *Contract) TransferAction(transfer Transfer) scheduler.Action {
	return scheduler.Action{
		Account:       c.account,
		Name:          ActionTransfer,
		Authorization: []types.Name{transfer.From},
		Data:          transfer,
	}
}

// IssueAction builds an issue authorized by the token account.
func (c *Contract) IssueAction(issue Issue) scheduler.Action {
	return scheduler.Action{
		Account:       c.account,
		Name:          ActionIssue,
		Authorization: []types.Name{c.account},
		Data:          issue,
	}
}

// Balance of owner.
func (c *Contract) Balance(db sql.Executor, owner types.Name) (types.Asset, error) {
	amount, err := tokens.Get(db, owner)
	if err != nil {
		return types.Asset{}, err
	}
	return types.Asset{Amount: amount, Symbol: c.symbol}, nil
}

func (c *Contract) checkQuantity(quantity types.Asset) error {
	if quantity.Symbol != c.symbol {
		return fmt.Errorf("%w: symbol %s, want %s", ErrInvalidQuantity, quantity.Symbol, c.symbol)
	}
	if quantity.Amount == 0 {
		return fmt.Errorf("%w: must be positive", ErrInvalidQuantity)
	}
	return nil
}

func (c *Contract) transfer(ctx *scheduler.Context) error {
	transfer, err := scheduler.Data[Transfer](ctx)
	if err != nil {
		return err
	}
	if err := ctx.RequireAuth(transfer.From); err != nil {
		return err
	}
	if transfer.From == transfer.To {
		return ErrSelfTransfer
	}
	if err := c.checkQuantity(transfer.Quantity); err != nil {
		return err
	}
	if len(transfer.Memo) > MaxMemoLength {
		return ErrMemoTooLong
	}
	from, err := tokens.Get(ctx.DB, transfer.From)
	if err != nil {
		return err
	}
	if from < transfer.Quantity.Amount {
		return fmt.Errorf("%w: %s has %s", ErrOverdrawn, transfer.From,
			types.Asset{Amount: from, Symbol: c.symbol})
	}
	to, err := tokens.Get(ctx.DB, transfer.To)
	if err != nil {
		return err
	}
	if to+transfer.Quantity.Amount < to {
		return fmt.Errorf("%w: balance of %s overflows", ErrInvalidQuantity, transfer.To)
	}
	if err := tokens.Set(ctx.DB, transfer.From, from-transfer.Quantity.Amount); err != nil {
		return err
	}
	if err := tokens.Set(ctx.DB, transfer.To, to+transfer.Quantity.Amount); err != nil {
		return err
	}
	ctx.RequireRecipient(transfer.From)
	ctx.RequireRecipient(transfer.To)
	c.logger.Debug("transfer",
		zap.Stringer("from", transfer.From),
		zap.Stringer("to", transfer.To),
		zap.Stringer("quantity", transfer.Quantity),
		zap.String("memo", transfer.Memo),
	)
	return nil
}

func (c *Contract) issue(ctx *scheduler.Context) error {
	issue, err := scheduler.Data[Issue](ctx)
	if err != nil {
		return err
	}
	if err := ctx.RequireAuth(c.account); err != nil {
		return err
	}
	if err := c.checkQuantity(issue.Quantity); err != nil {
		return err
	}
	balance, err := tokens.Get(ctx.DB, issue.To)
	if err != nil {
		return err
	}
	if balance+issue.Quantity.Amount < balance {
		return fmt.Errorf("%w: balance of %s overflows", ErrInvalidQuantity, issue.To)
	}
	return tokens.Set(ctx.DB, issue.To, balance+issue.Quantity.Amount)
}
