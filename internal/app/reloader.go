package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/five82/roster/internal/controller"
)

// Loader is the slice of the controller the reloader drives.
type Loader interface {
	LoadAll() *controller.Task
}

// Reloader re-lists the directory on a cron schedule. A reload that is still
// in flight when the next tick fires causes that tick to be skipped.
type Reloader struct {
	cron     *cron.Cron
	schedule string
	loader   Loader
	logger   logrus.FieldLogger

	mu      sync.Mutex
	running bool
}

// NewReloader validates schedule and registers the reload job. Standard five
// field specs and descriptors such as "@every 5m" are accepted.
func NewReloader(schedule string, loader Loader, logger logrus.FieldLogger) (*Reloader, error) {
	log := logger.WithField("component", "reloader")
	cronLog := cron.PrintfLogger(log)
	r := &Reloader{
		cron: cron.New(
			cron.WithLogger(cronLog),
			cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
		),
		schedule: schedule,
		loader:   loader,
		logger:   log,
	}
	if _, err := r.cron.AddFunc(schedule, r.run); err != nil {
		return nil, fmt.Errorf("invalid reload_schedule %q: %w", schedule, err)
	}
	return r, nil
}

// Start begins firing the schedule. Calling it twice is a no-op.
func (r *Reloader) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return
	}
	r.cron.Start()
	r.running = true
	r.logger.WithField("schedule", r.schedule).Info("scheduled reload enabled")
}

// Stop halts the schedule and waits for a running reload to finish.
func (r *Reloader) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.running {
		return
	}
	<-r.cron.Stop().Done()
	r.running = false
}

func (r *Reloader) run() {
	task := r.loader.LoadAll()
	res, err := task.Wait(context.Background())
	if err != nil {
		return
	}
	r.logger.WithField("outcome", res.Outcome.String()).Debug("scheduled reload finished")
}
