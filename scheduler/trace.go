package scheduler

import "github.com/spacemeshos/go-evmbridge/common/types"

// State of an action execution.
type State uint8

const (
	StateQueued State = iota
	StateRunning
	StateCompleted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateQueued:
		return "queued"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// Kind tells how an execution was scheduled.
type Kind uint8

const (
	KindRoot Kind = iota
	KindInline
	KindNotification
)

// ActionTrace records one execution of an action on a receiver.
type ActionTrace struct {
	// ActionOrdinal is the 1-based creation order within the submission.
	ActionOrdinal uint32
	// CreatorOrdinal is the ordinal of the execution that created the action, 0 for the root.
	CreatorOrdinal uint32
	Kind           Kind
	Receiver       types.Name
	Action         *Action
	Depth          int
	// GlobalSequence orders executions across submissions. Assigned when execution starts.
	GlobalSequence uint64
	State          State
	Err            error
	// Return is the value a handler reported with SetReturn.
	Return any
}

// Trace of a submission.
type Trace struct {
	// Actions in creation order.
	Actions []*ActionTrace
	// Executed in execution order.
	Executed []*ActionTrace
}

// Find returns executions on receiver of action code::name, in execution order.
func (t *Trace) Find(receiver, code, name types.Name) []*ActionTrace {
	var rst []*ActionTrace
	for _, at := range t.Executed {
		if at.Receiver == receiver && at.Action.Account == code && at.Action.Name == name {
			rst = append(rst, at)
		}
	}
	return rst
}

// Parent returns the execution that created at, nil for the root.
func (t *Trace) Parent(at *ActionTrace) *ActionTrace {
	if at.CreatorOrdinal == 0 || int(at.CreatorOrdinal) > len(t.Actions) {
		return nil
	}
	return t.Actions[at.CreatorOrdinal-1]
}
