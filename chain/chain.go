// Package chain produces EVM blocks from native submissions and serves the state views read
// by the external RPC.
package chain

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/spacemeshos/go-evmbridge/blocks"
	"github.com/spacemeshos/go-evmbridge/bridge"
	"github.com/spacemeshos/go-evmbridge/common/types"
	"github.com/spacemeshos/go-evmbridge/scheduler"
	"github.com/spacemeshos/go-evmbridge/sql"
	"github.com/spacemeshos/go-evmbridge/sql/accounts"
	"github.com/spacemeshos/go-evmbridge/sql/balances"
	blocksdb "github.com/spacemeshos/go-evmbridge/sql/blocks"
	"github.com/spacemeshos/go-evmbridge/sql/kvstore"
)

// ErrGenesisApplied is returned when genesis runs against a database that already has state.
var ErrGenesisApplied = errors.New("genesis already applied")

// Config for block production.
type Config struct {
	BlockInterval time.Duration `mapstructure:"block-interval"`
	// MaxSubmissions limits how many queued submissions go into one block.
	MaxSubmissions int `mapstructure:"max-submissions"`
}

// DefaultConfig for block production.
func DefaultConfig() Config {
	return Config{
		BlockInterval:  time.Second,
		MaxSubmissions: 1000,
	}
}

// Opt for configuring Chain.
type Opt func(*Chain)

// WithLogger sets logger.
func WithLogger(logger *zap.Logger) Opt {
	return func(c *Chain) {
		c.logger = logger
	}
}

// WithClock sets the clock for block timestamps and the production interval.
func WithClock(clock clockwork.Clock) Opt {
	return func(c *Chain) {
		c.clock = clock
	}
}

// WithConfig sets block production config.
func WithConfig(cfg Config) Opt {
	return func(c *Chain) {
		c.cfg = cfg
	}
}

// WithScheduler overwrites the default scheduler.
func WithScheduler(s *scheduler.Scheduler) Opt {
	return func(c *Chain) {
		c.scheduler = s
	}
}

// Rejection is a submission that was discarded from a block.
type Rejection struct {
	Index  int
	Action scheduler.Action
	Err    error
}

// Result of producing one block.
type Result struct {
	Block    *types.Block
	Applied  []*scheduler.Trace
	Rejected []Rejection
	// Deferred submissions were not applied because the context was canceled.
	Deferred []scheduler.Action
}

// Chain applies submissions block by block. Block production is serialized.
type Chain struct {
	logger    *zap.Logger
	clock     clockwork.Clock
	cfg       Config
	db        *sql.Database
	bridge    *bridge.Bridge
	scheduler *scheduler.Scheduler
	assembler *blocks.Assembler

	mu sync.Mutex

	queueMu sync.Mutex
	queue   []scheduler.Action
}

// New creates a Chain on top of db. The bridge and its token contract are registered in the
// scheduler used for every submission.
func New(db *sql.Database, b *bridge.Bridge, opts ...Opt) (*Chain, error) {
	c := &Chain{
		logger: zap.NewNop(),
		clock:  clockwork.NewRealClock(),
		cfg:    DefaultConfig(),
		db:     db,
		bridge: b,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.scheduler == nil {
		c.scheduler = scheduler.New(scheduler.WithLogger(c.logger.Named("scheduler")))
	}
	b.Token().Register(c.scheduler)
	b.Register(c.scheduler)
	c.assembler = blocks.New(b.Account(), blocks.WithLogger(c.logger.Named("blocks")))
	next, err := kvstore.GetSequence(db)
	if err != nil {
		return nil, fmt.Errorf("load global sequence: %w", err)
	}
	c.scheduler.SetSequence(next)
	return c, nil
}

// Bridge served by the chain.
func (c *Chain) Bridge() *bridge.Bridge {
	return c.bridge
}

// Genesis applies actions atomically before the first block. Any failure aborts genesis.
func (c *Chain) Genesis(ctx context.Context, actions ...scheduler.Action) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.db.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := c.bridge.Ledger().Config(tx); err == nil {
			return ErrGenesisApplied
		} else if !errors.Is(err, bridge.ErrNotInitialized) {
			return err
		}
		for i, act := range actions {
			if _, err := c.scheduler.Execute(ctx, tx, act); err != nil {
				return fmt.Errorf("genesis action %d: %w", i, err)
			}
		}
		return kvstore.SetSequence(tx, c.scheduler.Sequence())
	})
}

// Submit queues act for the next block produced by Run.
func (c *Chain) Submit(act scheduler.Action) {
	c.queueMu.Lock()
	defer c.queueMu.Unlock()
	c.queue = append(c.queue, act)
	queuedGauge.Set(float64(len(c.queue)))
}

func (c *Chain) drain() []scheduler.Action {
	c.queueMu.Lock()
	defer c.queueMu.Unlock()
	n := min(len(c.queue), c.cfg.MaxSubmissions)
	rst := c.queue[:n:n]
	c.queue = c.queue[n:]
	queuedGauge.Set(float64(len(c.queue)))
	return rst
}

// requeue puts deferred submissions back in front of the queue.
func (c *Chain) requeue(deferred []scheduler.Action) {
	if len(deferred) == 0 {
		return
	}
	c.queueMu.Lock()
	defer c.queueMu.Unlock()
	c.queue = append(slices.Clone(deferred), c.queue...)
	queuedGauge.Set(float64(len(c.queue)))
}

// ProduceBlock applies submissions in order on top of the latest block. The block is written in
// one transaction together with every state change it records. Each submission runs in its own
// savepoint: a rejected submission is reported in the result and does not affect the others.
// Once ctx is canceled no further submissions are started, and the block is finished with the
// ones already applied. The rest are returned as deferred.
func (c *Chain) ProduceBlock(ctx context.Context, timestamp uint64, submissions []scheduler.Action) (*Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	start := time.Now()

	parent, err := blocksdb.Latest(c.db)
	if err != nil && !sql.IsNotFound(err) {
		return nil, err
	}
	number := uint64(1)
	if parent != nil {
		number = parent.Number + 1
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var (
		result = &Result{}
		begin  = c.scheduler.Sequence()
	)
	// the pool interrupts a connection when its context is done, the block must still commit
	if err := c.db.WithTx(context.WithoutCancel(ctx), func(tx *sql.Tx) error {
		trace, err := c.scheduler.Execute(ctx, tx, c.bridge.Action(bridge.ActionOnBlock, bridge.OnBlock{
			Number:    number,
			Timestamp: timestamp,
		}, c.bridge.Account()))
		if err != nil {
			return fmt.Errorf("begin block %d: %w", number, err)
		}
		act, err := c.assembler.Activation(trace)
		if err != nil {
			return fmt.Errorf("begin block %d: %w", number, err)
		}
		builder := c.assembler.Start(parent, timestamp, act)
		if err := builder.Add(trace); err != nil {
			return fmt.Errorf("begin block %d: %w", number, err)
		}
		result.Applied = append(result.Applied, trace)

		for i, act := range submissions {
			if ctx.Err() != nil {
				result.Deferred = append(result.Deferred, submissions[i:]...)
				break
			}
			if err := c.apply(ctx, tx, builder, number, i, act, result); err != nil {
				return err
			}
		}

		block, err := builder.Finish(tx)
		if err != nil {
			return fmt.Errorf("finish block %d: %w", number, err)
		}
		result.Block = block
		return kvstore.SetSequence(tx, c.scheduler.Sequence())
	}); err != nil {
		c.scheduler.SetSequence(begin)
		return nil, err
	}
	blockDuration.Observe(time.Since(start).Seconds())
	c.logger.Debug("block produced",
		zap.Uint64("number", number),
		zap.Int("applied", len(result.Applied)-1),
		zap.Int("rejected", len(result.Rejected)),
		zap.Int("deferred", len(result.Deferred)),
		zap.Duration("duration", time.Since(start)),
	)
	return result, nil
}

// apply runs one submission in a savepoint of tx. Only failures of the savepoint itself abort
// the block.
func (c *Chain) apply(ctx context.Context, tx *sql.Tx, builder *blocks.Builder, number uint64, i int,
	act scheduler.Action, result *Result,
) error {
	var (
		trace    *scheduler.Trace
		sequence = c.scheduler.Sequence()
		failure  error
	)
	err := tx.WithSavepoint("submission", func() error {
		trace, failure = c.scheduler.Execute(ctx, tx, act)
		if failure == nil {
			failure = builder.Add(trace)
		}
		return failure
	})
	if err != nil && err != failure {
		return fmt.Errorf("block %d submission %d: %w", number, i, err)
	}
	if failure != nil {
		c.scheduler.SetSequence(sequence)
		if ctx.Err() != nil {
			result.Deferred = append(result.Deferred, act)
			return nil
		}
		submissionsCount.WithLabelValues(rejected).Inc()
		c.logger.Warn("submission rejected",
			zap.Uint64("block", number),
			zap.Int("index", i),
			zap.Stringer("action", &act),
			zap.Error(failure),
		)
		result.Rejected = append(result.Rejected, Rejection{Index: i, Action: act, Err: failure})
		return nil
	}
	submissionsCount.WithLabelValues(applied).Inc()
	result.Applied = append(result.Applied, trace)
	return nil
}

// Run produces a block from the queued submissions on every interval until ctx is canceled.
func (c *Chain) Run(ctx context.Context) error {
	ticker := c.clock.NewTicker(c.cfg.BlockInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.Chan():
			result, err := c.ProduceBlock(ctx, uint64(now.Unix()), c.drain())
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return err
			}
			c.requeue(result.Deferred)
		}
	}
}

// Accounts returns all EVM accounts.
func (c *Chain) Accounts() ([]types.Account, error) {
	return accounts.All(c.db)
}

// Balances returns all open balances.
func (c *Chain) Balances() ([]types.OpenBalance, error) {
	return balances.All(c.db)
}

// Block returns the block with number n.
func (c *Chain) Block(n uint64) (*types.Block, error) {
	return blocksdb.Get(c.db, n)
}

// LatestBlock returns the last produced block.
func (c *Chain) LatestBlock() (*types.Block, error) {
	return blocksdb.Latest(c.db)
}

// Balance of an EVM address in wei. Unknown addresses have zero balance.
func (c *Chain) Balance(addr common.Address) (*uint256.Int, error) {
	account, _, err := accounts.GetOrEmpty(c.db, addr)
	if err != nil {
		return nil, err
	}
	return account.Balance, nil
}

// Nonce of an EVM address.
func (c *Chain) Nonce(addr common.Address) (uint64, error) {
	account, _, err := accounts.GetOrEmpty(c.db, addr)
	if err != nil {
		return 0, err
	}
	return account.Nonce, nil
}

// GasPrice returns the active gas price in wei.
func (c *Chain) GasPrice() (uint64, error) {
	active, err := c.bridge.Versioner().Active(c.db)
	if err != nil {
		return 0, err
	}
	return active.GasPrice, nil
}
