package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/markdave123-py/baboon-api/internal/core"
	"github.com/markdave123-py/baboon-api/internal/logging"
	"github.com/markdave123-py/baboon-api/internal/metrics"
	"github.com/markdave123-py/baboon-api/internal/models"
)

type armedTimer struct {
	timer *time.Timer
	info  models.RetentionTimer
}

// RetentionScheduler wipes whole scopes after a delay.
//
// Timers live in process memory only: they are lost on restart and fire on
// a best-effort basis. Arming the same scope several times is fine; each
// timer does its own list+delete and an already empty scope is a no-op.
type RetentionScheduler struct {
	store   core.ObjectClient
	log     logging.Logger
	metrics metrics.Metrics
	timeout time.Duration

	mu      sync.Mutex
	nextID  uint64
	timers  map[uint64]armedTimer
	stopped bool
	running sync.WaitGroup
}

func NewRetentionScheduler(store core.ObjectClient, log logging.Logger, m metrics.Metrics, timeout time.Duration) *RetentionScheduler {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &RetentionScheduler{
		store:   store,
		log:     log.With("component", "retention"),
		metrics: m,
		timeout: timeout,
		timers:  make(map[uint64]armedTimer),
	}
}

// Arm schedules one wipe of scope after delay and returns immediately.
// The listing happens when the timer fires, so everything written to the
// scope up to that point is removed.
func (r *RetentionScheduler) Arm(scope string, delay time.Duration) models.RetentionTimer {
	info := models.RetentionTimer{Scope: scope, FireAt: time.Now().Add(delay)}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped {
		r.log.Warn(context.Background(), "scheduler stopped, cleanup not armed", "scope", scope)
		return info
	}

	r.nextID++
	id := r.nextID
	r.timers[id] = armedTimer{
		info:  info,
		timer: time.AfterFunc(delay, func() { r.fire(id, scope) }),
	}
	return info
}

func (r *RetentionScheduler) fire(id uint64, scope string) {
	r.mu.Lock()
	if _, ok := r.timers[id]; !ok {
		r.mu.Unlock()
		return
	}
	delete(r.timers, id)
	r.running.Add(1)
	r.mu.Unlock()
	defer r.running.Done()

	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	n, err := r.Wipe(ctx, scope)
	if err != nil {
		r.log.Error(ctx, "scope cleanup failed", "scope", scope, "err", err)
		return
	}
	if n > 0 {
		r.log.Info(ctx, "scope cleaned", "scope", scope, "deleted", n)
	}
}

// Wipe lists scope and deletes everything in it, returning how many objects
// were removed. An empty scope is not an error.
func (r *RetentionScheduler) Wipe(ctx context.Context, scope string) (int, error) {
	objs, err := r.store.List(ctx, scope)
	if err != nil {
		r.metrics.IncEviction(scope, "error")
		return 0, err
	}
	if len(objs) == 0 {
		r.metrics.IncEviction(scope, "empty")
		return 0, nil
	}

	keys := make([]string, 0, len(objs))
	for _, o := range objs {
		keys = append(keys, o.Key)
	}
	if err := r.store.DeleteAll(ctx, keys); err != nil {
		r.metrics.IncEviction(scope, "error")
		if core.KindOf(err) != core.KindDeleteFailed {
			err = core.E(core.KindDeleteFailed, "wipe", err)
		}
		return 0, err
	}

	r.metrics.IncEviction(scope, "ok")
	r.metrics.AddEvicted(scope, len(keys))
	return len(keys), nil
}

// Sweep wipes each scope right away. It is meant for startup, to drop what a
// previous process armed but never got to delete.
func (r *RetentionScheduler) Sweep(ctx context.Context, scopes ...string) error {
	var errs []error
	for _, scope := range scopes {
		n, err := r.Wipe(ctx, scope)
		if err != nil {
			r.log.Error(ctx, "startup sweep failed", "scope", scope, "err", err)
			errs = append(errs, fmt.Errorf("sweep %s: %w", scope, err))
			continue
		}
		r.log.Info(ctx, "startup sweep done", "scope", scope, "deleted", n)
	}
	return errors.Join(errs...)
}

// Pending returns the armed timers ordered by fire time.
func (r *RetentionScheduler) Pending() []models.RetentionTimer {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.RetentionTimer, 0, len(r.timers))
	for _, t := range r.timers {
		out = append(out, t.info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FireAt.Before(out[j].FireAt) })
	return out
}

// Stop cancels every pending timer and waits for wipes already running, or
// until ctx is done. Cancelled scopes keep their objects until the next sweep.
func (r *RetentionScheduler) Stop(ctx context.Context) error {
	r.mu.Lock()
	r.stopped = true
	for id, t := range r.timers {
		t.timer.Stop()
		delete(r.timers, id)
	}
	r.mu.Unlock()

	done := make(chan struct{})
	go func() {
		r.running.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
