// Package blocks assembles EVM blocks from the traces of native submissions.
//
// A submission contributes the pushtx executions of the bridge, or its evmtx events if it
// emitted any, sorted by global sequence. An evmtx is ordered by the sequence of the execution
// that created it. A configchange event is keyed at zero, may appear once per block and only
// before any transaction.
package blocks

import (
	"cmp"
	"errors"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/spacemeshos/go-evmbridge/bridge"
	"github.com/spacemeshos/go-evmbridge/common/types"
	"github.com/spacemeshos/go-evmbridge/params"
	"github.com/spacemeshos/go-evmbridge/scheduler"
	"github.com/spacemeshos/go-evmbridge/sql"
	"github.com/spacemeshos/go-evmbridge/sql/blocks"
)

var (
	ErrMultipleConfigChange = errors.New("multiple configchange in one block")
	ErrConfigChangeNotFirst = errors.New("configchange can only be the first action")
	// ErrMixedActions is returned when pushtx and evmtx meet in one submission or block,
	// or pushtx follows a configchange.
	ErrMixedActions = errors.New("mixed pushtx and evmtx actions")
	// ErrMalformedTrace is returned for traces the bridge could not have produced.
	ErrMalformedTrace = errors.New("malformed trace")
)

// Opt for configuring Assembler.
type Opt func(*Assembler)

// WithLogger sets logger.
func WithLogger(logger *zap.Logger) Opt {
	return func(a *Assembler) {
		a.logger = logger
	}
}

// Assembler builds blocks for a bridge account.
type Assembler struct {
	logger *zap.Logger
	bridge types.Name
}

// New creates an Assembler reading traces of the bridge deployed at account.
func New(account types.Name, opts ...Opt) *Assembler {
	a := &Assembler{logger: zap.NewNop(), bridge: account}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Activation returns what the onblock execution in trace switched on.
func (a *Assembler) Activation(trace *scheduler.Trace) (params.Activation, error) {
	for _, at := range trace.Executed {
		if a.isBridge(at, bridge.ActionOnBlock) {
			act, ok := at.Return.(params.Activation)
			if !ok {
				return params.Activation{}, fmt.Errorf("%w: onblock returned %T", ErrMalformedTrace, at.Return)
			}
			return act, nil
		}
	}
	return params.Activation{}, fmt.Errorf("%w: no onblock execution", ErrMalformedTrace)
}

func (a *Assembler) isBridge(at *scheduler.ActionTrace, name types.Name) bool {
	return at.Receiver == a.bridge && at.Action.Account == a.bridge && at.Action.Name == name
}

// Start a block on top of parent. A nil parent starts the first block.
func (a *Assembler) Start(parent *types.Block, timestamp uint64, act params.Activation) *Builder {
	block := &types.Block{Number: 1, Timestamp: timestamp}
	if parent != nil {
		block.Number = parent.Number + 1
		block.ParentHash = parent.Hash
	}
	return &Builder{a: a, block: block, activation: act}
}

// Builder collects the transactions of one block.
type Builder struct {
	a           *Assembler
	block       *types.Block
	activation  params.Activation
	config      bool
	kind        types.Name // bridge action the included submissions were built from
	submissions int
}

type entry struct {
	key uint64
	at  *scheduler.ActionTrace
}

// Number of the block being built.
func (b *Builder) Number() uint64 {
	return b.block.Number
}

// Add includes the transactions of a successful submission. On error the builder is unchanged
// and the submission must be discarded.
func (b *Builder) Add(trace *scheduler.Trace) error {
	entries, err := b.collect(trace)
	if err != nil {
		return err
	}
	var (
		config  = b.config
		kind    types.Name
		records []types.TxRecord
	)
	for _, e := range entries {
		name := e.at.Action.Name
		if name == bridge.ActionConfigChange {
			if config {
				return ErrMultipleConfigChange
			}
			if kind != 0 || b.submissions > 0 {
				return ErrConfigChangeNotFirst
			}
			config = true
			continue
		}
		if config && name == bridge.ActionPushTx {
			return fmt.Errorf("%w: pushtx and configchange in one block", ErrMixedActions)
		}
		if kind != 0 && kind != name {
			return fmt.Errorf("%w: %s and %s in one submission", ErrMixedActions, kind, name)
		}
		kind = name
		record, err := recordOf(e.at)
		if err != nil {
			return err
		}
		records = append(records, record)
	}
	if kind != 0 && b.kind != 0 && b.kind != kind {
		return fmt.Errorf("%w: %s and %s in one block", ErrMixedActions, b.kind, kind)
	}
	b.config = config
	if kind == 0 {
		return nil
	}
	b.kind = kind
	b.submissions++
	for _, record := range records {
		b.block.GasUsed += record.GasUsed
	}
	b.block.Transactions = append(b.block.Transactions, records...)
	return nil
}

func (b *Builder) collect(trace *scheduler.Trace) ([]entry, error) {
	search := bridge.ActionPushTx
	for _, at := range trace.Executed {
		if b.a.isBridge(at, bridge.ActionEvmTx) {
			search = bridge.ActionEvmTx
			break
		}
	}
	var entries []entry
	for _, at := range trace.Executed {
		switch {
		case b.a.isBridge(at, bridge.ActionConfigChange):
			entries = append(entries, entry{key: 0, at: at})
		case b.a.isBridge(at, search) && search == bridge.ActionEvmTx:
			parent := trace.Parent(at)
			if parent == nil {
				return nil, fmt.Errorf("%w: evmtx %d without creator", ErrMalformedTrace, at.ActionOrdinal)
			}
			entries = append(entries, entry{key: parent.GlobalSequence, at: at})
		case b.a.isBridge(at, search):
			entries = append(entries, entry{key: at.GlobalSequence, at: at})
		}
	}
	slices.SortStableFunc(entries, func(x, y entry) int {
		return cmp.Compare(x.key, y.key)
	})
	return entries, nil
}

func recordOf(at *scheduler.ActionTrace) (types.TxRecord, error) {
	if at.Action.Name == bridge.ActionEvmTx {
		event, ok := at.Action.Data.(bridge.EvmTx)
		if !ok {
			return types.TxRecord{}, fmt.Errorf("%w: evmtx data %T", ErrMalformedTrace, at.Action.Data)
		}
		return event.Record, nil
	}
	record, ok := at.Return.(types.TxRecord)
	if !ok {
		return types.TxRecord{}, fmt.Errorf("%w: pushtx %d without record", ErrMalformedTrace, at.ActionOrdinal)
	}
	return record, nil
}

// Finish stamps the header with the activated consensus parameters and stores the block.
func (b *Builder) Finish(db sql.Executor) (*types.Block, error) {
	params.Stamp(b.block, b.activation)
	if err := blocks.Add(db, b.block); err != nil {
		return nil, err
	}
	assembledCount.Inc()
	blockTxs.Observe(float64(len(b.block.Transactions)))
	b.a.logger.Debug("block assembled",
		zap.Uint64("number", b.block.Number),
		zap.Stringer("hash", b.block.Hash),
		zap.Int("transactions", len(b.block.Transactions)),
		zap.Uint64("gas_used", b.block.GasUsed),
		zap.Uint64("version", b.block.Version()),
	)
	return b.block, nil
}
