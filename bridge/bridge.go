// Package bridge is the contract connecting the native token ledger with the EVM state.
//
// Every entry point is a scheduler handler running on the bridge account. Value moves
// go through ledger, EVM messages through an evm.Executor and consensus parameters
// through params.
package bridge

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/spacemeshos/go-evmbridge/address"
	"github.com/spacemeshos/go-evmbridge/common/types"
	"github.com/spacemeshos/go-evmbridge/evm"
	"github.com/spacemeshos/go-evmbridge/ledger"
	"github.com/spacemeshos/go-evmbridge/params"
	"github.com/spacemeshos/go-evmbridge/scheduler"
	"github.com/spacemeshos/go-evmbridge/sql"
	"github.com/spacemeshos/go-evmbridge/sql/kvstore"
	"github.com/spacemeshos/go-evmbridge/sql/links"
	"github.com/spacemeshos/go-evmbridge/token"
	"github.com/spacemeshos/go-evmbridge/txs"
)

var (
	ErrAlreadyInitialized = errors.New("bridge already initialized")
	ErrNotInitialized     = ledger.ErrNotInitialized
	ErrInvalidFeeParams   = errors.New("invalid fee params")
	ErrInvalidInit        = errors.New("invalid init params")
	ErrAlreadyLinked      = errors.New("address already linked")
	// ErrInvalidAddressFormat is returned for deposit memos that are neither an address nor a name.
	ErrInvalidAddressFormat = address.ErrInvalidAddressFormat
)

// Opt for configuring Bridge.
type Opt func(*Bridge)

// WithLogger sets logger.
func WithLogger(logger *zap.Logger) Opt {
	return func(b *Bridge) {
		b.logger = logger
	}
}

// WithExecutor overwrites the default intrinsic executor.
func WithExecutor(executor evm.Executor) Opt {
	return func(b *Bridge) {
		b.executor = executor
	}
}

// WithVersioner overwrites the default versioner.
func WithVersioner(versioner *params.Versioner) Opt {
	return func(b *Bridge) {
		b.versioner = versioner
	}
}

// WithValidatorOpts passes opts to the transaction validator.
func WithValidatorOpts(opts ...txs.Opt) Opt {
	return func(b *Bridge) {
		b.validatorOpts = append(b.validatorOpts, opts...)
	}
}

// Bridge implements the bridge contract actions.
type Bridge struct {
	logger        *zap.Logger
	account       types.Name
	chainID       uint64
	token         *token.Contract
	ledger        *ledger.Ledger
	versioner     *params.Versioner
	executor      evm.Executor
	validator     *txs.Validator
	validatorOpts []txs.Opt
}

// New creates the bridge deployed at account. Deposits are accepted only from the token contract.
func New(account types.Name, chainID uint64, tokenContract *token.Contract, opts ...Opt) (*Bridge, error) {
	b := &Bridge{
		logger:  zap.NewNop(),
		account: account,
		chainID: chainID,
		token:   tokenContract,
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.versioner == nil {
		b.versioner = params.New(params.WithLogger(b.logger.Named("params")))
	}
	if b.executor == nil {
		b.executor = evm.New(evm.WithLogger(b.logger.Named("evm")))
	}
	b.ledger = ledger.New(account, ledger.WithLogger(b.logger.Named("ledger")))
	validator, err := txs.NewValidator(chainID, append([]txs.Opt{
		txs.WithLogger(b.logger.Named("txs")),
	}, b.validatorOpts...)...)
	if err != nil {
		return nil, err
	}
	b.validator = validator
	return b, nil
}

// Account of the bridge.
func (b *Bridge) Account() types.Name {
	return b.account
}

// Ledger used by the bridge.
func (b *Bridge) Ledger() *ledger.Ledger {
	return b.ledger
}

// Versioner used by the bridge.
func (b *Bridge) Versioner() *params.Versioner {
	return b.versioner
}

// Token contract the bridge accepts deposits from.
func (b *Bridge) Token() *token.Contract {
	return b.token
}

// Register installs all handlers into s.
func (b *Bridge) Register(s *scheduler.Scheduler) {
	for name, handler := range map[types.Name]scheduler.Handler{
		ActionInit:         b.init,
		ActionPushTx:       b.pushTx,
		ActionCall:         b.call,
		ActionAdminCall:    b.adminCall,
		ActionSetFeeParams: b.setFeeParams,
		ActionSetVersion:   b.setVersion,
		ActionUpdtGasParam: b.updtGasParam,
		ActionOpen:         b.open,
		ActionWithdraw:     b.withdraw,
		ActionLinkAddr:     b.linkAddr,
		ActionOnBlock:      b.onBlock,
		ActionEvmTx:        b.selfEvent,
		ActionConfigChange: b.selfEvent,
	} {
		s.Register(b.account, b.account, name, handler)
	}
	s.Register(b.account, b.token.Account(), token.ActionTransfer, b.onTransfer)
}

// Action builds an action of the bridge authorized by auth.
func (b *Bridge) Action(name types.Name, data any, auth ...types.Name) scheduler.Action {
	return scheduler.Action{
		Account:       b.account,
		Name:          name,
		Authorization: auth,
		Data:          data,
	}
}

func (b *Bridge) selfAction(name types.Name, data any) scheduler.Action {
	return b.Action(name, data, b.account)
}

func (b *Bridge) config(db sql.Executor) (kvstore.BridgeConfig, error) {
	return b.ledger.Config(db)
}

func (b *Bridge) init(c *scheduler.Context) error {
	if err := c.RequireAuth(b.account); err != nil {
		return err
	}
	req, err := scheduler.Data[Init](c)
	if err != nil {
		return err
	}
	if _, err := b.config(c.DB); err == nil {
		return ErrAlreadyInitialized
	} else if !errors.Is(err, ErrNotInitialized) {
		return err
	}
	switch {
	case req.ChainID != b.chainID:
		return fmt.Errorf("%w: chain id %d, configured %d", ErrInvalidInit, req.ChainID, b.chainID)
	case req.TokenContract != b.token.Account():
		return fmt.Errorf("%w: token contract %s, configured %s", ErrInvalidInit, req.TokenContract, b.token.Account())
	case req.FeeParams.IngressBridgeFee.Symbol != b.token.Symbol():
		return fmt.Errorf("%w: fee symbol %s, token %s", ErrInvalidFeeParams,
			req.FeeParams.IngressBridgeFee.Symbol, b.token.Symbol())
	case req.FeeParams.MinerCut > types.HundredPercent:
		return fmt.Errorf("%w: miner cut %d above %d", ErrInvalidFeeParams, req.FeeParams.MinerCut, types.HundredPercent)
	case req.FeeParams.GasPrice == 0:
		return fmt.Errorf("%w: zero gas price", ErrInvalidFeeParams)
	}
	if err := kvstore.SetBridgeConfig(c.DB, kvstore.BridgeConfig{
		ChainID:       req.ChainID,
		TokenContract: req.TokenContract,
		Symbol:        b.token.Symbol(),
		MinerCut:      req.FeeParams.MinerCut,
		IngressFee:    req.FeeParams.IngressBridgeFee.Amount,
	}); err != nil {
		return err
	}
	if err := b.versioner.Init(c.DB, req.FeeParams.GasPrice); err != nil {
		return err
	}
	if err := b.ledger.Open(c.DB, b.account); err != nil {
		return err
	}
	b.logger.Info("bridge initialized",
		zap.Uint64("chain_id", req.ChainID),
		zap.Stringer("token", req.TokenContract),
		zap.Uint64("gas_price", req.FeeParams.GasPrice),
		zap.Uint64("miner_cut", req.FeeParams.MinerCut),
		zap.Stringer("ingress_fee", req.FeeParams.IngressBridgeFee),
	)
	return nil
}

func (b *Bridge) setFeeParams(c *scheduler.Context) error {
	if err := c.RequireAuth(b.account); err != nil {
		return err
	}
	req, err := scheduler.Data[SetFeeParams](c)
	if err != nil {
		return err
	}
	cfg, err := b.config(c.DB)
	if err != nil {
		return err
	}
	if req.GasPrice == nil && req.MinerCut == nil && req.IngressBridgeFee == nil {
		return fmt.Errorf("%w: nothing to update", ErrInvalidFeeParams)
	}
	if req.MinerCut != nil {
		if *req.MinerCut > types.HundredPercent {
			return fmt.Errorf("%w: miner cut %d above %d", ErrInvalidFeeParams, *req.MinerCut, types.HundredPercent)
		}
		cfg.MinerCut = *req.MinerCut
	}
	if req.IngressBridgeFee != nil {
		if req.IngressBridgeFee.Symbol != cfg.Symbol {
			return fmt.Errorf("%w: fee symbol %s, token %s", ErrInvalidFeeParams, req.IngressBridgeFee.Symbol, cfg.Symbol)
		}
		cfg.IngressFee = req.IngressBridgeFee.Amount
	}
	if req.GasPrice != nil {
		if err := b.versioner.ProposeGasPrice(c.DB, *req.GasPrice); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidFeeParams, err)
		}
	}
	return kvstore.SetBridgeConfig(c.DB, cfg)
}

func (b *Bridge) setVersion(c *scheduler.Context) error {
	if err := c.RequireAuth(b.account); err != nil {
		return err
	}
	req, err := scheduler.Data[SetVersion](c)
	if err != nil {
		return err
	}
	return b.versioner.ProposeVersion(c.DB, req.Version)
}

func (b *Bridge) updtGasParam(c *scheduler.Context) error {
	if err := c.RequireAuth(b.account); err != nil {
		return err
	}
	req, err := scheduler.Data[UpdtGasParam](c)
	if err != nil {
		return err
	}
	cfg, err := b.config(c.DB)
	if err != nil {
		return err
	}
	if req.RAMPriceMb.Symbol != cfg.Symbol {
		return fmt.Errorf("%w: ram price symbol %s, token %s", params.ErrInvalidGasParams, req.RAMPriceMb.Symbol, cfg.Symbol)
	}
	schedule, err := b.versioner.ProposeGasSchedule(c.DB, req.RAMPriceMb, req.GasPrice)
	if err != nil {
		return err
	}
	c.SetReturn(schedule)
	return nil
}

func (b *Bridge) open(c *scheduler.Context) error {
	req, err := scheduler.Data[Open](c)
	if err != nil {
		return err
	}
	if err := c.RequireAuth(req.Owner); err != nil {
		return err
	}
	if _, err := b.config(c.DB); err != nil {
		return err
	}
	return b.ledger.Open(c.DB, req.Owner)
}

func (b *Bridge) withdraw(c *scheduler.Context) error {
	req, err := scheduler.Data[Withdraw](c)
	if err != nil {
		return err
	}
	if err := c.RequireAuth(req.Owner); err != nil {
		return err
	}
	transfer, err := b.ledger.Withdraw(c.DB, req.Owner, req.Quantity)
	if err != nil {
		return err
	}
	return b.sendTransfer(c, transfer)
}

func (b *Bridge) linkAddr(c *scheduler.Context) error {
	req, err := scheduler.Data[LinkAddr](c)
	if err != nil {
		return err
	}
	if err := c.RequireAuth(req.Owner); err != nil {
		return err
	}
	if address.IsReserved(req.Address) {
		return fmt.Errorf("%w: %v is reserved", ErrInvalidAddressFormat, req.Address)
	}
	if err := links.Add(c.DB, req.Address, req.Owner); err != nil {
		if errors.Is(err, sql.ErrObjectExists) {
			return fmt.Errorf("%w: %v", ErrAlreadyLinked, req.Address)
		}
		return err
	}
	return nil
}

func (b *Bridge) onBlock(c *scheduler.Context) error {
	if err := c.RequireAuth(b.account); err != nil {
		return err
	}
	req, err := scheduler.Data[OnBlock](c)
	if err != nil {
		return err
	}
	act, err := b.versioner.BeginBlock(c.DB, req.Number, req.Timestamp)
	if err != nil {
		return err
	}
	c.SetReturn(act)
	// version 0 blocks are assembled from pushtx only and carry no config events
	if !act.Any() || act.Params.Version < 1 {
		return nil
	}
	return c.SendInline(b.selfAction(ActionConfigChange, ConfigChange{Activation: act}))
}

// selfEvent handles actions the bridge sends to itself so that they appear in traces.
func (b *Bridge) selfEvent(c *scheduler.Context) error {
	return c.RequireAuth(b.account)
}

func (b *Bridge) sendTransfer(c *scheduler.Context, req *ledger.TransferRequest) error {
	return c.SendInline(b.token.TransferAction(token.Transfer{
		From:     req.From,
		To:       req.To,
		Quantity: req.Quantity,
		Memo:     req.Memo,
	}))
}
