package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	pyroscope "github.com/grafana/pyroscope-go"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spacemeshos/go-evmbridge/bridge"
	"github.com/spacemeshos/go-evmbridge/chain"
	"github.com/spacemeshos/go-evmbridge/checkpoint"
	"github.com/spacemeshos/go-evmbridge/cmd"
	"github.com/spacemeshos/go-evmbridge/config"
	"github.com/spacemeshos/go-evmbridge/log"
	"github.com/spacemeshos/go-evmbridge/metrics"
	"github.com/spacemeshos/go-evmbridge/params"
	"github.com/spacemeshos/go-evmbridge/scheduler"
	"github.com/spacemeshos/go-evmbridge/sql"
	"github.com/spacemeshos/go-evmbridge/token"
	"github.com/spacemeshos/go-evmbridge/txs"
)

const (
	dbFile   = "state.sql"
	lockFile = "LOCK"
)

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Apply genesis if needed and produce blocks",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			conf, err := cmd.LoadConfig(c)
			if err != nil {
				return err
			}
			ctx, cancel := signal.NotifyContext(c.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			n, err := newNode(ctx, conf)
			if err != nil {
				return err
			}
			defer n.close()
			return n.run(ctx)
		},
	}
}

type loggers struct {
	app, bridge, chain, scheduler, blocks, txs, storage, metrics *zap.Logger
}

func newLoggers(conf config.LoggerConfig) (*loggers, error) {
	level, err := zap.ParseAtomicLevel(conf.AppLoggerLevel)
	if err != nil {
		return nil, fmt.Errorf("parse app log level: %w", err)
	}
	root, err := log.New(conf.Encoder, level)
	if err != nil {
		return nil, err
	}
	l := &loggers{app: root.Named("app")}
	for _, c := range []struct {
		dst   **zap.Logger
		name  string
		level string
	}{
		{&l.bridge, "bridge", conf.BridgeLoggerLevel},
		{&l.chain, "chain", conf.ChainLoggerLevel},
		{&l.scheduler, "scheduler", conf.SchedulerLoggerLevel},
		{&l.blocks, "blocks", conf.BlocksLoggerLevel},
		{&l.txs, "txs", conf.TxsLoggerLevel},
		{&l.storage, "storage", conf.StorageLoggerLevel},
		{&l.metrics, "metrics", conf.MetricsLoggerLevel},
	} {
		if *c.dst, err = log.WithLevel(root, c.name, c.level); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// state is the locked data directory and its database.
type state struct {
	lock *flock.Flock
	db   *sql.Database
}

func openState(conf *config.Config, logger *zap.Logger) (*state, error) {
	if err := os.MkdirAll(conf.DataDir, 0o700); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	fl := flock.New(filepath.Join(conf.DataDir, lockFile))
	locked, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("flock %s: %w", fl.Path(), err)
	} else if !locked {
		return nil, fmt.Errorf("only one bridge instance should be running (locking file %s)", fl.Path())
	}
	db, err := sql.Open("file:"+filepath.Join(conf.DataDir, dbFile),
		sql.WithConnections(conf.DBConnections),
		sql.WithLogger(logger),
	)
	if err != nil {
		return nil, errors.Join(err, fl.Unlock())
	}
	return &state{lock: fl, db: db}, nil
}

func (s *state) close() error {
	return errors.Join(s.db.Close(), s.lock.Unlock())
}

type node struct {
	conf    *config.Config
	loggers *loggers
	state   *state
	db      *sql.Database
	chain   *chain.Chain
}

func newNode(ctx context.Context, conf *config.Config) (*node, error) {
	l, err := newLoggers(conf.Logging)
	if err != nil {
		return nil, err
	}
	st, err := openState(conf, l.storage)
	if err != nil {
		return nil, err
	}
	n := &node{conf: conf, loggers: l, state: st, db: st.db}
	// recovery runs before the chain reads the global sequence
	if conf.Recovery.Uri != "" {
		if err := n.recover(ctx); err != nil {
			return nil, errors.Join(err, st.close())
		}
	}
	tok := token.New(conf.Bridge.TokenContract, conf.Bridge.Symbol(), token.WithLogger(l.bridge.Named("token")))
	b, err := bridge.New(conf.Bridge.Account, conf.Bridge.ChainID, tok,
		bridge.WithLogger(l.bridge),
		bridge.WithVersioner(params.New(
			params.WithLogger(l.bridge.Named("params")),
			params.WithActivationDelay(conf.Params.ActivationDelay),
			params.WithMaxVersion(conf.Params.MaxVersion),
		)),
		bridge.WithValidatorOpts(
			txs.WithLogger(l.txs),
			txs.WithSenderCacheSize(conf.Bridge.SenderCacheSize),
		),
	)
	if err != nil {
		return nil, errors.Join(err, st.close())
	}
	c, err := chain.New(st.db, b,
		chain.WithLogger(l.chain),
		chain.WithConfig(conf.Chain),
		chain.WithScheduler(scheduler.New(scheduler.WithLogger(l.scheduler))),
	)
	if err != nil {
		return nil, errors.Join(err, st.close())
	}
	n.chain = c
	return n, nil
}

// recover restores the configured checkpoint. A database that already has state is kept.
func (n *node) recover(ctx context.Context) error {
	logger := n.loggers.app.Named("checkpoint")
	cp, err := checkpoint.Recover(ctx, logger, afero.NewOsFs(), n.db, n.conf.DataDir, n.conf.Recovery)
	switch {
	case errors.Is(err, checkpoint.ErrNotEmpty):
		logger.Info("state exists, checkpoint not applied", zap.String("uri", n.conf.Recovery.Uri))
		return nil
	case err != nil:
		return fmt.Errorf("recover from %s: %w", n.conf.Recovery.Uri, err)
	}
	logger.Info("recovered from checkpoint", zap.String("id", cp.Data.CheckpointId))
	return nil
}

// genesis issues the configured supply, initializes the bridge and opens miner balances.
// It does nothing on a database that already has state.
func (n *node) genesis(ctx context.Context) error {
	b := n.chain.Bridge()
	allocations, err := n.conf.Genesis.Allocations(n.conf.Bridge.Symbol())
	if err != nil {
		return err
	}
	var actions []scheduler.Action
	for _, a := range allocations {
		actions = append(actions, b.Token().IssueAction(token.Issue{To: a.Owner, Quantity: a.Quantity}))
	}
	actions = append(actions, b.Action(bridge.ActionInit, bridge.Init{
		ChainID:       n.conf.Bridge.ChainID,
		TokenContract: n.conf.Bridge.TokenContract,
		FeeParams:     n.conf.Bridge.FeeParams(),
	}, b.Account()))
	for _, miner := range n.conf.Genesis.Miners {
		actions = append(actions, b.Action(bridge.ActionOpen, bridge.Open{Owner: miner}, miner))
	}
	err = n.chain.Genesis(ctx, actions...)
	switch {
	case errors.Is(err, chain.ErrGenesisApplied):
		n.loggers.app.Info("genesis already applied")
		return nil
	case err != nil:
		return fmt.Errorf("apply genesis: %w", err)
	}
	n.loggers.app.Info("genesis applied",
		zap.Int("accounts", len(allocations)),
		zap.Int("miners", len(n.conf.Genesis.Miners)),
	)
	return nil
}

func (n *node) run(ctx context.Context) error {
	if err := n.genesis(ctx); err != nil {
		return err
	}
	n.loggers.app.Info("starting bridge",
		zap.String("version", cmd.Version),
		zap.Stringer("bridge", n.conf.Bridge.Account),
		zap.Uint64("chain_id", n.conf.Bridge.ChainID),
		zap.Duration("block_interval", n.conf.Chain.BlockInterval),
	)
	if n.conf.ProfilerURL != "" {
		profiler, err := pyroscope.Start(pyroscope.Config{
			ApplicationName: n.conf.ProfilerName,
			ServerAddress:   n.conf.ProfilerURL,
		})
		if err != nil {
			return fmt.Errorf("cannot start profiling client: %w", err)
		}
		defer profiler.Stop()
	}
	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		return n.chain.Run(ctx)
	})
	if n.conf.PprofHTTPServerListener != "" {
		srv := &http.Server{
			Addr:              n.conf.PprofHTTPServerListener,
			Handler:           http.DefaultServeMux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		eg.Go(func() error {
			<-ctx.Done()
			return srv.Close()
		})
		eg.Go(func() error {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("cannot start pprof http server: %w", err)
			}
			return nil
		})
	}
	if n.conf.CollectMetrics {
		eg.Go(func() error {
			return metrics.Serve(ctx, n.loggers.metrics, fmt.Sprintf(":%d", n.conf.MetricsPort))
		})
	}
	if n.conf.MetricsPush != "" {
		eg.Go(func() error {
			metrics.Push(ctx, n.loggers.metrics, n.conf.MetricsPush, "evmbridge", n.conf.MetricsPushPeriod)
			return nil
		})
	}
	return eg.Wait()
}

func (n *node) close() {
	if err := n.state.close(); err != nil {
		n.loggers.app.Warn("failed to close state", zap.Error(err))
	}
}
