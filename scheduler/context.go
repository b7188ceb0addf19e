package scheduler

import (
	"context"
	"fmt"
	"slices"

	"github.com/spacemeshos/go-evmbridge/common/types"
	"github.com/spacemeshos/go-evmbridge/sql"
)

// Context is passed to a handler for a single execution of an action on one receiver.
type Context struct {
	ctx context.Context
	// DB is the state of the submission. Writes are discarded if the submission fails.
	DB    sql.Executor
	Trace *ActionTrace

	run    *run
	notify func(types.Name)
	inline *[]*ActionTrace
}

// Context returns the context of the submission.
func (c *Context) Context() context.Context {
	return c.ctx
}

// Receiver is the account executing the action.
func (c *Context) Receiver() types.Name {
	return c.Trace.Receiver
}

// Action being executed.
func (c *Context) Action() *Action {
	return c.Trace.Action
}

// IsNotification is true when the receiver observes an action addressed to another account.
func (c *Context) IsNotification() bool {
	return c.Trace.Receiver != c.Trace.Action.Account
}

// HasAuth is true if the action is authorized by account.
func (c *Context) HasAuth(account types.Name) bool {
	return slices.Contains(c.Trace.Action.Authorization, account)
}

// RequireAuth fails with ErrMissingAuth unless the action is authorized by account.
func (c *Context) RequireAuth(account types.Name) error {
	if !c.HasAuth(account) {
		return fmt.Errorf("%w of %s", ErrMissingAuth, account)
	}
	return nil
}

// RequireRecipient schedules a notification of account. It runs right after the current
// receiver, before any inline action. Notifying an account twice has no effect.
func (c *Context) RequireRecipient(account types.Name) {
	c.notify(account)
}

// SendInline schedules act to run after the current action and its notifications.
// The action may be authorized only by the receiver or by accounts that authorized the
// current action.
func (c *Context) SendInline(act Action) error {
	for _, auth := range act.Authorization {
		if auth != c.Trace.Receiver && !c.HasAuth(auth) {
			return fmt.Errorf("%w: inline %s requires %s", ErrMissingAuth, &act, auth)
		}
	}
	depth := c.Trace.Depth + 1
	if depth > c.run.maxDepth {
		return fmt.Errorf("%w: %d", ErrDepthExceeded, depth)
	}
	at := c.run.newTrace(KindInline, act.Account, &act, c.Trace.ActionOrdinal, depth)
	*c.inline = append(*c.inline, at)
	return nil
}

// SetReturn records v as the result of the current execution.
func (c *Context) SetReturn(v any) {
	c.Trace.Return = v
}

// Data returns the payload of the current action as T.
func Data[T any](c *Context) (T, error) {
	data, ok := c.Trace.Action.Data.(T)
	if !ok {
		var empty T
		return empty, fmt.Errorf("%w: %s carries %T", ErrInvalidPayload, c.Trace.Action, c.Trace.Action.Data)
	}
	return data, nil
}
