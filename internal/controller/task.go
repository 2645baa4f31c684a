package controller

import (
	"context"
	"errors"
	"fmt"

	"github.com/five82/roster/internal/state"
)

// Op names a controller operation.
type Op string

const (
	OpLoad   Op = "load"
	OpAdd    Op = "add"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// Outcome classifies how an operation resolved.
type Outcome int

const (
	// Applied means the directory accepted the call and the snapshot changed.
	Applied Outcome = iota + 1
	// Rejected means a response arrived with a status outside the accepted set.
	Rejected
	// Failed covers transport errors, undecodable bodies and cancellation.
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Applied:
		return "applied"
	case Rejected:
		return "rejected"
	case Failed:
		return "failed"
	default:
		return "pending"
	}
}

// ErrRejected is wrapped into Result.Err for Rejected outcomes.
var ErrRejected = errors.New("directory rejected request")

// Result describes a resolved task. Snapshot is the published state after
// the action was applied and is only set for Applied outcomes.
type Result struct {
	Op        Op
	Outcome   Outcome
	Status    int
	UserID    int
	RequestID string
	Err       error
	Snapshot  state.Snapshot
}

// OK reports whether the operation changed state.
func (r Result) OK() bool {
	return r.Outcome == Applied
}

func (r Result) String() string {
	switch {
	case r.Err != nil:
		return fmt.Sprintf("%s %s: %v", r.Op, r.Outcome, r.Err)
	case r.Status != 0:
		return fmt.Sprintf("%s %s (status %d)", r.Op, r.Outcome, r.Status)
	default:
		return fmt.Sprintf("%s %s", r.Op, r.Outcome)
	}
}

// Task is an in-flight operation. Production callers may drop it; tests and
// the headless CLI wait on it.
type Task struct {
	op     Op
	cancel context.CancelFunc
	done   chan struct{}
	result Result
}

// Op returns the operation this task runs.
func (t *Task) Op() Op {
	return t.op
}

// Done is closed once the task has resolved.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Cancel aborts the in-flight request. A task cancelled before its reply is
// applied resolves as Failed and leaves state untouched.
func (t *Task) Cancel() {
	t.cancel()
}

// Wait blocks until the task resolves or ctx ends. The returned error is
// only ever ctx.Err(); operation failures are reported in Result.
func (t *Task) Wait(ctx context.Context) (Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	select {
	case <-t.done:
		return t.result, nil
	case <-ctx.Done():
		return Result{Op: t.op}, ctx.Err()
	}
}

// Result returns the outcome without blocking. ok is false while pending.
func (t *Task) Result() (Result, bool) {
	select {
	case <-t.done:
		return t.result, true
	default:
		return Result{Op: t.op}, false
	}
}
