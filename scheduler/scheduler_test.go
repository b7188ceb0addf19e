package scheduler_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/spacemeshos/go-evmbridge/common/types"
	"github.com/spacemeshos/go-evmbridge/log/logtest"
	"github.com/spacemeshos/go-evmbridge/scheduler"
	"github.com/spacemeshos/go-evmbridge/sql"
)

var (
	evm        = types.MustName("evm")
	defertest  = types.MustName("defertest")
	defertest2 = types.MustName("defertest2")
	miner      = types.MustName("miner")

	pushtx       = types.MustName("pushtx")
	pushtxinline = types.MustName("pushtxinline")
	notifytest   = types.MustName("notifytest")
)

type notifyData struct {
	Recipient types.Name
	RLPTx     string
	RLPTx2    string
}

// newOrderingScheduler registers the contracts of the deferred ordering scenario:
// defertest2::notifytest sends defertest::pushtxinline inline and notifies defertest,
// whose notification handler sends evm::pushtx inline.
func newOrderingScheduler(t *testing.T, applied *[]string) *scheduler.Scheduler {
	s := scheduler.New(scheduler.WithLogger(logtest.New(t)))
	s.Register(evm, evm, pushtx, func(c *scheduler.Context) error {
		tx, err := scheduler.Data[string](c)
		if err != nil {
			return err
		}
		*applied = append(*applied, tx)
		return nil
	})
	s.Register(defertest, defertest, pushtxinline, func(c *scheduler.Context) error {
		tx, err := scheduler.Data[string](c)
		if err != nil {
			return err
		}
		return c.SendInline(scheduler.Action{
			Account: evm, Name: pushtx, Authorization: []types.Name{defertest}, Data: tx,
		})
	})
	s.Register(defertest2, defertest2, notifytest, func(c *scheduler.Context) error {
		data, err := scheduler.Data[notifyData](c)
		if err != nil {
			return err
		}
		if err := c.SendInline(scheduler.Action{
			Account: defertest, Name: pushtxinline, Authorization: []types.Name{defertest2}, Data: data.RLPTx,
		}); err != nil {
			return err
		}
		c.RequireRecipient(data.Recipient)
		return nil
	})
	s.Register(defertest, defertest2, notifytest, func(c *scheduler.Context) error {
		data, err := scheduler.Data[notifyData](c)
		if err != nil {
			return err
		}
		return c.SendInline(scheduler.Action{
			Account: evm, Name: pushtx, Authorization: []types.Name{defertest}, Data: data.RLPTx2,
		})
	})
	return s
}

func TestDeferredOrdering(t *testing.T) {
	var applied []string
	s := newOrderingScheduler(t, &applied)

	trace, err := s.Execute(context.Background(), sql.InMemory(), scheduler.Action{
		Account:       defertest2,
		Name:          notifytest,
		Authorization: []types.Name{defertest2},
		Data:          notifyData{Recipient: defertest, RLPTx: "rlptx1", RLPTx2: "rlptx2"},
	})
	require.NoError(t, err)
	require.Equal(t, []string{"rlptx1", "rlptx2"}, applied)

	pushes := trace.Find(evm, evm, pushtx)
	require.Len(t, pushes, 2)
	first, second := pushes[0], pushes[1]
	require.Equal(t, "rlptx1", first.Action.Data)
	require.Equal(t, "rlptx2", second.Action.Data)
	// rlptx2 was created before rlptx1 but executed after it
	require.Less(t, second.ActionOrdinal, first.ActionOrdinal)
	require.Less(t, first.GlobalSequence, second.GlobalSequence)

	// rlptx1 is sent by pushtxinline, rlptx2 by the notification handler
	require.Equal(t, pushtxinline, trace.Parent(first).Action.Name)
	parent := trace.Parent(second)
	require.Equal(t, scheduler.KindNotification, parent.Kind)
	require.Equal(t, defertest, parent.Receiver)

	names := make([]string, 0, len(trace.Executed))
	for _, at := range trace.Executed {
		require.Equal(t, scheduler.StateCompleted, at.State)
		names = append(names, at.Receiver.String()+":"+at.Action.String())
	}
	require.Equal(t, []string{
		"defertest2:defertest2::notifytest",
		"defertest:defertest2::notifytest",
		"defertest:defertest::pushtxinline",
		"evm:evm::pushtx",
		"evm:evm::pushtx",
	}, names)
	for i := 1; i < len(trace.Executed); i++ {
		require.Equal(t, trace.Executed[i-1].GlobalSequence+1, trace.Executed[i].GlobalSequence)
	}
	require.Equal(t, trace.Executed[len(trace.Executed)-1].GlobalSequence+1, s.Sequence())
}

func TestChildrenDrainBeforeSiblings(t *testing.T) {
	var order []string
	s := scheduler.New()
	root := types.MustName("root")
	leaf := types.MustName("leaf")
	branch := types.MustName("branch")
	s.Register(root, root, root, func(c *scheduler.Context) error {
		for _, data := range []string{"a", "b"} {
			if err := c.SendInline(scheduler.Action{Account: root, Name: branch, Data: data}); err != nil {
				return err
			}
		}
		return nil
	})
	s.Register(root, root, branch, func(c *scheduler.Context) error {
		data, _ := scheduler.Data[string](c)
		order = append(order, data)
		for _, suffix := range []string{"1", "2"} {
			if err := c.SendInline(scheduler.Action{Account: root, Name: leaf, Data: data + suffix}); err != nil {
				return err
			}
		}
		return nil
	})
	s.Register(root, root, leaf, func(c *scheduler.Context) error {
		data, _ := scheduler.Data[string](c)
		order = append(order, data)
		return nil
	})
	_, err := s.Execute(context.Background(), sql.InMemory(), scheduler.Action{Account: root, Name: root})
	require.NoError(t, err)
	require.Equal(t, []string{"a", "a1", "a2", "b", "b1", "b2"}, order)
}

func TestFailureAborts(t *testing.T) {
	var applied []string
	s := newOrderingScheduler(t, &applied)
	failure := errors.New("rejected")
	s.Register(evm, evm, pushtx, func(c *scheduler.Context) error {
		tx, _ := scheduler.Data[string](c)
		if tx == "rlptx2" {
			return failure
		}
		applied = append(applied, tx)
		return nil
	})
	before := s.Sequence()

	trace, err := s.Execute(context.Background(), sql.InMemory(), scheduler.Action{
		Account:       defertest2,
		Name:          notifytest,
		Authorization: []types.Name{defertest2},
		Data:          notifyData{Recipient: defertest, RLPTx: "rlptx1", RLPTx2: "rlptx2"},
	})
	require.ErrorIs(t, err, scheduler.ErrOrderingAborted)
	require.ErrorIs(t, err, failure)
	require.Equal(t, before, s.Sequence())
	require.Equal(t, []string{"rlptx1"}, applied)

	last := trace.Executed[len(trace.Executed)-1]
	require.Equal(t, scheduler.StateFailed, last.State)
	require.ErrorIs(t, last.Err, failure)
}

func TestUnknownAction(t *testing.T) {
	s := scheduler.New()
	_, err := s.Execute(context.Background(), sql.InMemory(), scheduler.Action{Account: evm, Name: pushtx})
	require.ErrorIs(t, err, scheduler.ErrUnknownAction)
	require.ErrorIs(t, err, scheduler.ErrOrderingAborted)
}

func TestNotificationWithoutHandler(t *testing.T) {
	s := scheduler.New()
	s.Register(evm, evm, pushtx, func(c *scheduler.Context) error {
		c.RequireRecipient(miner)
		c.RequireRecipient(miner)
		c.RequireRecipient(evm)
		return nil
	})
	trace, err := s.Execute(context.Background(), sql.InMemory(), scheduler.Action{Account: evm, Name: pushtx})
	require.NoError(t, err)
	require.Len(t, trace.Executed, 2)
	require.Equal(t, miner, trace.Executed[1].Receiver)
	require.Equal(t, scheduler.KindNotification, trace.Executed[1].Kind)
}

func TestAuthorization(t *testing.T) {
	s := scheduler.New()
	s.Register(evm, evm, pushtx, func(c *scheduler.Context) error {
		if err := c.RequireAuth(miner); err != nil {
			return err
		}
		return c.SendInline(scheduler.Action{
			Account: evm, Name: notifytest, Authorization: []types.Name{defertest},
		})
	})
	_, err := s.Execute(context.Background(), sql.InMemory(), scheduler.Action{Account: evm, Name: pushtx})
	require.ErrorIs(t, err, scheduler.ErrMissingAuth)

	_, err = s.Execute(context.Background(), sql.InMemory(), scheduler.Action{
		Account: evm, Name: pushtx, Authorization: []types.Name{miner},
	})
	require.ErrorIs(t, err, scheduler.ErrMissingAuth)
	require.ErrorContains(t, err, "inline")
}

func TestMaxDepth(t *testing.T) {
	s := scheduler.New(scheduler.WithMaxDepth(2))
	s.Register(evm, evm, pushtx, func(c *scheduler.Context) error {
		return c.SendInline(scheduler.Action{Account: evm, Name: pushtx})
	})
	trace, err := s.Execute(context.Background(), sql.InMemory(), scheduler.Action{Account: evm, Name: pushtx})
	require.ErrorIs(t, err, scheduler.ErrDepthExceeded)
	require.Len(t, trace.Executed, 3)
}

func TestInvalidPayload(t *testing.T) {
	var applied []string
	s := newOrderingScheduler(t, &applied)
	_, err := s.Execute(context.Background(), sql.InMemory(), scheduler.Action{Account: evm, Name: pushtx, Data: 1})
	require.ErrorIs(t, err, scheduler.ErrInvalidPayload)
}

func TestCanceled(t *testing.T) {
	var applied []string
	s := newOrderingScheduler(t, &applied)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.Execute(ctx, sql.InMemory(), scheduler.Action{Account: evm, Name: pushtx, Data: "tx"})
	require.ErrorIs(t, err, context.Canceled)
	require.Empty(t, applied)
}
