package controller

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/five82/roster/internal/directory"
	"github.com/five82/roster/internal/metrics"
	"github.com/five82/roster/internal/state"
)

// Options wire a Controller.
type Options struct {
	Directory directory.Directory
	Store     *state.Store
	Logger    logrus.FieldLogger
	Metrics   *metrics.Collector
	// Context parents every task; cancelling it aborts all in-flight calls.
	Context context.Context
}

// Controller issues directory calls and reconciles the store with their
// outcomes.
type Controller struct {
	dir     directory.Directory
	store   *state.Store
	log     logrus.FieldLogger
	metrics *metrics.Collector
	parent  context.Context
	now     func() time.Time
}

// New validates opts and returns a Controller.
func New(opts Options) (*Controller, error) {
	if opts.Directory == nil {
		return nil, fmt.Errorf("controller requires a directory")
	}
	if opts.Store == nil {
		return nil, fmt.Errorf("controller requires a store")
	}
	logger := opts.Logger
	if logger == nil {
		discard := logrus.New()
		discard.SetOutput(io.Discard)
		logger = discard
	}
	parent := opts.Context
	if parent == nil {
		parent = context.Background()
	}
	return &Controller{
		dir:     opts.Directory,
		store:   opts.Store,
		log:     logger.WithField("component", "controller"),
		metrics: opts.Metrics,
		parent:  parent,
		now:     time.Now,
	}, nil
}

// Snapshot returns the currently published state.
func (c *Controller) Snapshot() state.Snapshot {
	return c.store.Snapshot()
}

// Success policy per operation. These differ on purpose and are kept apart.
func createAccepted(status int) bool { return status == http.StatusCreated }
func deleteAccepted(status int) bool { return status == http.StatusOK }
func updateAccepted(status int) bool { return status != 0 }

// LoadAll fetches the full list once and replaces the snapshot with it. On
// failure the previous snapshot stays published.
func (c *Controller) LoadAll() *Task {
	return c.spawn(OpLoad, logrus.Fields{}, func(ctx context.Context) Result {
		users, err := c.dir.List(ctx)
		if err != nil {
			return Result{Outcome: Failed, Err: err}
		}
		return c.apply(ctx, Result{}, state.ReplaceUsers{Users: users})
	})
}

// AddUser creates a user. Only a 201 reply counts; the appended record takes
// the reply body with its id replaced by the local count plus one.
func (c *Controller) AddUser(name, email string) *Task {
	fields := logrus.Fields{"name": name, "email": email}
	return c.spawn(OpAdd, fields, func(ctx context.Context) Result {
		reply, err := c.dir.Create(ctx, directory.Draft{Name: name, Email: email})
		res := Result{Status: reply.Status, RequestID: reply.RequestID}
		if err != nil {
			res.Outcome, res.Err = Failed, err
			return res
		}
		if !createAccepted(reply.Status) {
			return rejected(res)
		}
		var created directory.User
		if err := reply.Decode(&created); err != nil {
			res.Outcome, res.Err = Failed, err
			return res
		}
		res = c.apply(ctx, res, state.AppendUser{User: created})
		if res.OK() && len(res.Snapshot.Users) > 0 {
			res.UserID = res.Snapshot.Users[len(res.Snapshot.Users)-1].ID
		}
		return res
	})
}

// DeleteUser removes id. Only a 200 reply counts; every local record with
// that id is filtered out, whether or not one exists.
func (c *Controller) DeleteUser(id int) *Task {
	return c.spawn(OpDelete, logrus.Fields{"id": id}, func(ctx context.Context) Result {
		reply, err := c.dir.Delete(ctx, id)
		res := Result{Status: reply.Status, RequestID: reply.RequestID, UserID: id}
		if err != nil {
			res.Outcome, res.Err = Failed, err
			return res
		}
		if !deleteAccepted(reply.Status) {
			return rejected(res)
		}
		return c.apply(ctx, res, state.RemoveUser{ID: id})
	})
}

// UpdateUser replaces name and email of id. Any non-zero status counts; the
// reply body is not read.
func (c *Controller) UpdateUser(id int, name, email string) *Task {
	fields := logrus.Fields{"id": id, "name": name, "email": email}
	return c.spawn(OpUpdate, fields, func(ctx context.Context) Result {
		reply, err := c.dir.Update(ctx, id, directory.Draft{Name: name, Email: email})
		res := Result{Status: reply.Status, RequestID: reply.RequestID, UserID: id}
		if err != nil {
			res.Outcome, res.Err = Failed, err
			return res
		}
		if !updateAccepted(reply.Status) {
			return rejected(res)
		}
		return c.apply(ctx, res, state.EditUser{ID: id, Name: name, Email: email})
	})
}

func rejected(res Result) Result {
	res.Outcome = Rejected
	res.Err = fmt.Errorf("%w: status %d", ErrRejected, res.Status)
	return res
}

// apply publishes action unless the task was cancelled first.
func (c *Controller) apply(ctx context.Context, res Result, action state.Action) Result {
	if err := ctx.Err(); err != nil {
		res.Outcome, res.Err = Failed, err
		return res
	}
	res.Snapshot = c.store.Apply(action)
	res.Outcome = Applied
	return res
}

func (c *Controller) spawn(op Op, fields logrus.Fields, work func(ctx context.Context) Result) *Task {
	ctx, cancel := context.WithCancel(c.parent)
	t := &Task{op: op, cancel: cancel, done: make(chan struct{})}
	start := c.now()

	go func() {
		defer cancel()
		res := work(ctx)
		res.Op = op
		c.report(res, fields, c.now().Sub(start))
		t.result = res
		close(t.done)
	}()
	return t
}

// report logs and counts a resolved task. Failures stop here; nothing is
// returned to fire-and-forget callers.
func (c *Controller) report(res Result, fields logrus.Fields, elapsed time.Duration) {
	entry := c.log.WithFields(fields).WithField("op", string(res.Op))
	if res.RequestID != "" {
		entry = entry.WithField("request_id", res.RequestID)
	}
	if res.Status != 0 {
		entry = entry.WithField("status", res.Status)
	}

	switch res.Outcome {
	case Applied:
		entry.WithFields(logrus.Fields{
			"users":   len(res.Snapshot.Users),
			"version": res.Snapshot.Version,
		}).Infof("%s applied", res.Op)
		c.metrics.ObserveSnapshot(len(res.Snapshot.Users), res.Snapshot.Version)
	case Rejected:
		entry.Warnf("%s rejected by directory", res.Op)
	default:
		if errors.Is(res.Err, context.Canceled) {
			entry.WithError(res.Err).Warnf("%s cancelled", res.Op)
		} else {
			entry.WithError(res.Err).Errorf("%s failed", res.Op)
		}
	}
	c.metrics.ObserveAction(string(res.Op), res.Outcome.String(), res.Status, elapsed)
}
