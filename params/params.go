// Package params versions the consensus parameters of the bridge. Changes are proposed by
// governance actions and become active only at a block boundary.
package params

import (
	"errors"
	"fmt"
	"time"

	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"github.com/spacemeshos/go-evmbridge/common/types"
	"github.com/spacemeshos/go-evmbridge/sql"
	"github.com/spacemeshos/go-evmbridge/sql/kvstore"
)

var (
	// ErrInvalidVersion is returned when a version is not above the current one or not supported.
	ErrInvalidVersion = errors.New("invalid version")
	// ErrInvalidGasParams is returned for a zero gas price or an unparsable ram price.
	ErrInvalidGasParams = errors.New("invalid gas params")
	// ErrNotInitialized is returned before Init.
	ErrNotInitialized = errors.New("consensus params not initialized")
)

const (
	// DefaultActivationDelay between accepting a gas price change and activating it.
	DefaultActivationDelay = 180 * time.Second
	// DefaultMaxVersion is the highest version this implementation can produce blocks for.
	DefaultMaxVersion = 1

	bytesPerMB = 1024 * 1024

	accountBytes       = 347
	contractFixedBytes = 606
	storageSlotBytes   = 346
	sstoreBaseGas      = 2900
)

// Pending holds proposed changes that are not active yet.
type Pending struct {
	HasVersion bool
	Version    uint64

	HasSchedule bool
	Schedule    types.GasSchedule

	HasGasPrice bool
	GasPrice    uint64
	// ActivatesAt is a unix timestamp in seconds.
	ActivatesAt uint64

	// Block in which version and schedule were proposed. They activate in any later block.
	ProposedIn uint64
}

// State is the persisted state of the versioner.
type State struct {
	Active  types.ConsensusParams
	Pending Pending

	// Number and timestamp of the block being produced.
	Block     uint64
	BlockTime uint64
}

// Activation describes what BeginBlock switched on.
type Activation struct {
	Version  bool
	GasPrice bool
	Schedule bool
	Params   types.ConsensusParams
}

// Any is true if anything changed.
func (a Activation) Any() bool {
	return a.Version || a.GasPrice || a.Schedule
}

// Opt for configuring Versioner.
type Opt func(*Versioner)

// WithLogger sets logger.
func WithLogger(logger *zap.Logger) Opt {
	return func(v *Versioner) {
		v.logger = logger
	}
}

// WithActivationDelay overwrites DefaultActivationDelay.
func WithActivationDelay(delay time.Duration) Opt {
	return func(v *Versioner) {
		v.delay = delay
	}
}

// WithMaxVersion overwrites DefaultMaxVersion.
func WithMaxVersion(version uint64) Opt {
	return func(v *Versioner) {
		v.maxVersion = version
	}
}

// New creates a Versioner. All state is kept in the database passed to each method.
func New(opts ...Opt) *Versioner {
	v := &Versioner{
		logger:     zap.NewNop(),
		delay:      DefaultActivationDelay,
		maxVersion: DefaultMaxVersion,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Versioner moves consensus parameters from pending to active.
type Versioner struct {
	logger     *zap.Logger
	delay      time.Duration
	maxVersion uint64
}

// Init writes version 0 parameters with the given gas price.
func (v *Versioner) Init(db sql.Executor, gasPrice uint64) error {
	if gasPrice == 0 {
		return fmt.Errorf("%w: zero gas price", ErrInvalidGasParams)
	}
	return v.save(db, &State{Active: types.ConsensusParams{GasPrice: gasPrice}})
}

// State loads the persisted state.
func (v *Versioner) State(db sql.Executor) (*State, error) {
	var state State
	if err := kvstore.GetParamsState(db, &state); err != nil {
		if sql.IsNotFound(err) {
			return nil, ErrNotInitialized
		}
		return nil, err
	}
	return &state, nil
}

// Active returns the parameters authoritative for the current block.
func (v *Versioner) Active(db sql.Executor) (types.ConsensusParams, error) {
	state, err := v.State(db)
	if err != nil {
		return types.ConsensusParams{}, err
	}
	return state.Active, nil
}

func (v *Versioner) save(db sql.Executor, state *State) error {
	if err := kvstore.SetParamsState(db, state); err != nil {
		return fmt.Errorf("save consensus params: %w", err)
	}
	return nil
}

// ProposeVersion schedules a version bump for the next block.
func (v *Versioner) ProposeVersion(db sql.Executor, version uint64) error {
	state, err := v.State(db)
	if err != nil {
		return err
	}
	current := state.Active.Version
	if state.Pending.HasVersion {
		current = max(current, state.Pending.Version)
	}
	if version <= current || version > v.maxVersion {
		return fmt.Errorf("%w: %d (current %d, max %d)", ErrInvalidVersion, version, current, v.maxVersion)
	}
	state.Pending.HasVersion = true
	state.Pending.Version = version
	state.Pending.ProposedIn = state.Block
	v.logger.Info("version proposed", zap.Uint64("version", version), zap.Uint64("block", state.Block))
	return v.save(db, state)
}

// ProposeGasPrice schedules a gas price change to activate after the activation delay,
// measured from the timestamp of the current block.
func (v *Versioner) ProposeGasPrice(db sql.Executor, price uint64) error {
	if price == 0 {
		return fmt.Errorf("%w: zero gas price", ErrInvalidGasParams)
	}
	state, err := v.State(db)
	if err != nil {
		return err
	}
	v.proposeGasPrice(state, price)
	return v.save(db, state)
}

func (v *Versioner) proposeGasPrice(state *State, price uint64) {
	state.Pending.HasGasPrice = true
	state.Pending.GasPrice = price
	state.Pending.ActivatesAt = state.BlockTime + uint64(v.delay/time.Second)
	v.logger.Info("gas price proposed",
		zap.Uint64("gas_price", price),
		zap.Uint64("activates_at", state.Pending.ActivatesAt),
	)
}

// ProposeGasSchedule derives per-operation costs from the price of storage and the new gas price.
// The schedule activates in the next block, the gas price after the activation delay.
func (v *Versioner) ProposeGasSchedule(db sql.Executor, ramPriceMb types.Asset, gasPrice uint64) (types.GasSchedule, error) {
	schedule, err := DeriveSchedule(ramPriceMb, gasPrice)
	if err != nil {
		return types.GasSchedule{}, err
	}
	state, err := v.State(db)
	if err != nil {
		return types.GasSchedule{}, err
	}
	state.Pending.HasSchedule = true
	state.Pending.Schedule = schedule
	state.Pending.ProposedIn = state.Block
	v.proposeGasPrice(state, gasPrice)
	return schedule, v.save(db, state)
}

// DeriveSchedule computes the storage related gas costs for a ram price per megabyte.
func DeriveSchedule(ramPriceMb types.Asset, gasPrice uint64) (types.GasSchedule, error) {
	if gasPrice == 0 {
		return types.GasSchedule{}, fmt.Errorf("%w: zero gas price", ErrInvalidGasParams)
	}
	divisor := new(uint256.Int).Mul(uint256.NewInt(bytesPerMB), uint256.NewInt(gasPrice))
	perByte, rem := new(uint256.Int), new(uint256.Int)
	perByte.DivMod(ramPriceMb.Wei(), divisor, rem)
	if !rem.IsZero() {
		perByte.AddUint64(perByte, 1)
	}
	if !perByte.IsUint64() || perByte.Uint64() > (1<<32) {
		return types.GasSchedule{}, fmt.Errorf("%w: ram price %s too high", ErrInvalidGasParams, ramPriceMb)
	}
	gpb := perByte.Uint64()
	return types.GasSchedule{
		TxNewAccount: accountBytes * gpb,
		NewAccount:   accountBytes * gpb,
		TxCreate:     contractFixedBytes * gpb,
		CodeDeposit:  gpb,
		Sset:         sstoreBaseGas + storageSlotBytes*gpb,
	}, nil
}

// BeginBlock activates every pending change that is due in block number with timestamp
// and records the block as current.
func (v *Versioner) BeginBlock(db sql.Executor, number, timestamp uint64) (Activation, error) {
	state, err := v.State(db)
	if err != nil {
		return Activation{}, err
	}
	var act Activation
	pending := &state.Pending
	if pending.HasVersion && number > pending.ProposedIn {
		state.Active.Version = pending.Version
		pending.HasVersion, pending.Version = false, 0
		act.Version = true
	}
	if pending.HasSchedule && number > pending.ProposedIn {
		state.Active.Schedule = pending.Schedule
		pending.HasSchedule, pending.Schedule = false, types.GasSchedule{}
		act.Schedule = true
	}
	if pending.HasGasPrice && timestamp >= pending.ActivatesAt {
		state.Active.GasPrice = pending.GasPrice
		pending.HasGasPrice, pending.GasPrice, pending.ActivatesAt = false, 0, 0
		act.GasPrice = true
	}
	state.Block = number
	state.BlockTime = timestamp
	act.Params = state.Active
	if act.Any() {
		v.logger.Info("consensus params activated",
			zap.Uint64("block", number),
			zap.Uint64("version", state.Active.Version),
			zap.Uint64("gas_price", state.Active.GasPrice),
			zap.Bool("schedule", act.Schedule),
		)
	}
	versionGauge.Set(float64(state.Active.Version))
	gasPriceGauge.Set(float64(state.Active.GasPrice))
	return act, v.save(db, state)
}

// Stamp fills the version dependent header fields of block.
func Stamp(block *types.Block, act Activation) {
	block.Nonce = types.EncodeNonce(act.Params.Version)
	block.BaseFeePerGas = nil
	if act.Params.Version >= 1 {
		block.BaseFeePerGas = uint256.NewInt(act.Params.GasPrice)
	}
	block.ConsensusParameter = nil
	if act.Schedule {
		schedule := act.Params.Schedule
		block.ConsensusParameter = &schedule
	}
}
