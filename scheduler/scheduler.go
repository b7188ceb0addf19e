// Package scheduler executes a top-level native action together with every inline action and
// notification it spawns, in the order the native ledger defines.
//
// An action runs on its primary receiver, then synchronously on each notified receiver. The
// inline actions created by all of those executions form the action's child queue, which is
// drained completely before the next sibling of the action starts.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/spacemeshos/go-evmbridge/common/types"
	"github.com/spacemeshos/go-evmbridge/sql"
)

var (
	// ErrOrderingAborted is returned when any action of a submission fails. Nothing of the
	// submission may be persisted.
	ErrOrderingAborted = errors.New("ordering aborted")
	// ErrMissingAuth is returned when an action is not signed by a required account.
	ErrMissingAuth = errors.New("missing authority")
	// ErrUnknownAction is returned when the primary receiver has no handler for an action.
	ErrUnknownAction = errors.New("unknown action")
	// ErrDepthExceeded is returned when inline actions nest deeper than allowed.
	ErrDepthExceeded = errors.New("inline depth exceeded")
	// ErrInvalidPayload is returned when action data has an unexpected type.
	ErrInvalidPayload = errors.New("invalid action payload")
)

const defaultMaxDepth = 4

// Action is a native ledger action addressed to a contract account.
type Action struct {
	Account       types.Name
	Name          types.Name
	Authorization []types.Name
	Data          any
}

func (a *Action) String() string {
	return a.Account.String() + "::" + a.Name.String()
}

// Handler applies an action on the receiver of the context.
type Handler func(*Context) error

type handlerKey struct {
	receiver, code, action types.Name
}

// Opt for configuring Scheduler.
type Opt func(*Scheduler)

// WithLogger sets logger for the scheduler.
func WithLogger(logger *zap.Logger) Opt {
	return func(s *Scheduler) {
		s.logger = logger
	}
}

// WithMaxDepth limits nesting of inline actions.
func WithMaxDepth(depth int) Opt {
	return func(s *Scheduler) {
		s.maxDepth = depth
	}
}

// New creates a Scheduler without handlers.
func New(opts ...Opt) *Scheduler {
	s := &Scheduler{
		logger:   zap.NewNop(),
		handlers: map[handlerKey]Handler{},
		maxDepth: defaultMaxDepth,
		sequence: 1,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Scheduler runs submissions one at a time. It is not safe for concurrent use.
type Scheduler struct {
	logger   *zap.Logger
	handlers map[handlerKey]Handler
	maxDepth int
	sequence uint64
}

// Register installs handler for action of code executed on receiver.
// A handler with receiver different from code observes notifications.
func (s *Scheduler) Register(receiver, code, action types.Name, handler Handler) {
	s.handlers[handlerKey{receiver: receiver, code: code, action: action}] = handler
}

// Sequence returns the global sequence the next execution will get.
func (s *Scheduler) Sequence() uint64 {
	return s.sequence
}

// SetSequence restores the global sequence, e.g. after restart.
func (s *Scheduler) SetSequence(next uint64) {
	s.sequence = next
}

// Execute runs root and everything it spawns against db. On error the returned trace shows
// where execution stopped and the caller must discard all writes made to db.
func (s *Scheduler) Execute(ctx context.Context, db sql.Executor, root Action) (*Trace, error) {
	r := &run{
		Scheduler: s,
		ctx:       ctx,
		db:        db,
		trace:     &Trace{},
		sequence:  s.sequence,
	}
	if err := r.execute(root); err != nil {
		return r.trace, err
	}
	s.sequence = r.sequence
	return r.trace, nil
}

type run struct {
	*Scheduler
	ctx      context.Context
	db       sql.Executor
	trace    *Trace
	sequence uint64
}

func (r *run) newTrace(kind Kind, receiver types.Name, act *Action, creator uint32, depth int) *ActionTrace {
	at := &ActionTrace{
		ActionOrdinal:  uint32(len(r.trace.Actions) + 1),
		CreatorOrdinal: creator,
		Kind:           kind,
		Receiver:       receiver,
		Action:         act,
		Depth:          depth,
	}
	r.trace.Actions = append(r.trace.Actions, at)
	return at
}

// execute drains a stack of sibling queues. The children of an action become the new top of
// the stack, so they run before the remaining siblings of their parent.
func (r *run) execute(root Action) error {
	queues := [][]*ActionTrace{{r.newTrace(KindRoot, root.Account, &root, 0, 0)}}
	for len(queues) > 0 {
		if err := r.ctx.Err(); err != nil {
			return fmt.Errorf("%w: %w", ErrOrderingAborted, err)
		}
		top := len(queues) - 1
		if len(queues[top]) == 0 {
			queues = queues[:top]
			continue
		}
		next := queues[top][0]
		queues[top] = queues[top][1:]
		children, err := r.apply(next)
		if err != nil {
			return err
		}
		if len(children) > 0 {
			queues = append(queues, children)
		}
	}
	return nil
}

// apply executes act on its primary receiver and on every receiver notified along the way.
func (r *run) apply(primary *ActionTrace) ([]*ActionTrace, error) {
	var (
		act       = primary.Action
		receivers = []types.Name{act.Account}
		children  []*ActionTrace
	)
	for i := 0; i < len(receivers); i++ {
		at := primary
		if i > 0 {
			at = r.newTrace(KindNotification, receivers[i], act, primary.CreatorOrdinal, primary.Depth)
		}
		at.GlobalSequence = r.sequence
		r.sequence++
		at.State = StateRunning
		r.trace.Executed = append(r.trace.Executed, at)

		handler, exists := r.handlers[handlerKey{receiver: at.Receiver, code: act.Account, action: act.Name}]
		if !exists {
			if i == 0 {
				at.State = StateFailed
				at.Err = fmt.Errorf("%w: %s", ErrUnknownAction, act)
				return nil, r.abort(at)
			}
			at.State = StateCompleted
			continue
		}
		c := &Context{
			ctx:   r.ctx,
			DB:    r.db,
			Trace: at,
			run:   r,
			notify: func(name types.Name) {
				if !slices.Contains(receivers, name) {
					receivers = append(receivers, name)
				}
			},
			inline: &children,
		}
		if err := handler(c); err != nil {
			at.State = StateFailed
			at.Err = err
			return nil, r.abort(at)
		}
		at.State = StateCompleted
		r.logger.Debug("action executed",
			zap.Stringer("action", act),
			zap.Stringer("receiver", at.Receiver),
			zap.Uint32("ordinal", at.ActionOrdinal),
			zap.Uint64("global_sequence", at.GlobalSequence),
		)
	}
	return children, nil
}

func (r *run) abort(at *ActionTrace) error {
	r.logger.Debug("action failed",
		zap.Stringer("action", at.Action),
		zap.Stringer("receiver", at.Receiver),
		zap.Uint32("ordinal", at.ActionOrdinal),
		zap.Error(at.Err),
	)
	return fmt.Errorf("%w: %s on %s: %w", ErrOrderingAborted, at.Action, at.Receiver, at.Err)
}
