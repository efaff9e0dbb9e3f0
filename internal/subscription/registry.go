package subscription

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aevon-lab/epcis-repository/internal/core/storage"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

var (
	errAlreadyRegistered = errors.New("subscription already registered")
	errRegistryClosed    = errors.New("registry is shut down")
)

// Timer is the handle of a pending fire.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f to run after d.
type AfterFunc func(d time.Duration, f func()) Timer

func realAfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithClock replaces the wall clock and timer source.
func WithClock(now func() time.Time, afterFunc AfterFunc) RegistryOption {
	return func(r *Registry) {
		r.now = now
		r.afterFunc = afterFunc
	}
}

// Registry owns the live subscriptions and their timers. Every mutation
// happens under mu; fires run on a semaphore-bounded pool and re-arm only
// while the subscription is still registered.
type Registry struct {
	mu     sync.Mutex
	subs   map[string]*Subscription
	closed bool

	executor *Executor
	sem      *semaphore.Weighted
	workers  int
	inFlight sync.WaitGroup

	ctx    context.Context
	cancel context.CancelFunc

	now       func() time.Time
	afterFunc AfterFunc
	metrics   *Metrics
}

// NewRegistry creates a registry running at most workers fires at once.
func NewRegistry(executor *Executor, workers int, metrics *Metrics, opts ...RegistryOption) *Registry {
	if workers <= 0 {
		workers = 8
	}
	ctx, cancel := context.WithCancel(context.Background())
	r := &Registry{
		subs:      make(map[string]*Subscription),
		executor:  executor,
		sem:       semaphore.NewWeighted(int64(workers)),
		workers:   workers,
		ctx:       ctx,
		cancel:    cancel,
		now:       time.Now,
		afterFunc: realAfterFunc,
		metrics:   metrics,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Add registers sub and arms its timer.
func (r *Registry) Add(sub *Subscription) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return errRegistryClosed
	}
	if _, exists := r.subs[sub.ID]; exists {
		return errAlreadyRegistered
	}
	r.subs[sub.ID] = sub
	r.armLocked(sub)
	r.metrics.setActive(len(r.subs))
	return nil
}

// Remove stops and unregisters a subscription. A fire already in progress
// completes but does not re-arm.
func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	sub, ok := r.subs[id]
	if !ok {
		return false
	}
	sub.stopped = true
	if sub.timer != nil {
		sub.timer.Stop()
	}
	delete(r.subs, id)
	r.metrics.setActive(len(r.subs))
	return true
}

// Has reports whether id is registered.
func (r *Registry) Has(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.subs[id]
	return ok
}

// Get returns the live subscription with id.
func (r *Registry) Get(id string) (*Subscription, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sub, ok := r.subs[id]
	return sub, ok
}

// IDs returns the sorted ids of the subscriptions to queryName.
func (r *Registry) IDs(queryName string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make([]string, 0, len(r.subs))
	for id, sub := range r.subs {
		if sub.QueryName == queryName {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of registered subscriptions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.subs)
}

// Load registers and arms every persisted subscription. Rows that cannot be
// decoded are logged and skipped.
func (r *Registry) Load(ctx context.Context, store storage.SubscriptionStore) (int, error) {
	records, err := store.LoadSubscriptions(ctx)
	if err != nil {
		return 0, fmt.Errorf("load subscriptions: %w", err)
	}

	var loaded atomic.Int64
	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for _, rec := range records {
		g.Go(func() error {
			sub, err := fromRecord(rec)
			if err != nil {
				slog.Error("[Registry] Skipping unreadable subscription", "subscription_id", rec.SubscriptionID, "error", err)
				return nil
			}
			if err := r.Add(sub); err != nil {
				slog.Warn("[Registry] Skipping subscription", "subscription_id", rec.SubscriptionID, "error", err)
				return nil
			}
			loaded.Add(1)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return int(loaded.Load()), err
	}

	slog.Info("[Registry] Recovered subscriptions", "loaded", loaded.Load(), "persisted", len(records))
	return int(loaded.Load()), nil
}

// armLocked schedules the next fire. The caller holds mu.
func (r *Registry) armLocked(sub *Subscription) {
	now := r.now()
	from := now
	if sub.nextFire.After(from) {
		from = sub.nextFire
	}

	var next time.Time
	var ok bool
	if sub.nextFire.IsZero() {
		// First arm: a slot falling exactly on now still counts.
		next, ok = sub.Schedule.NextAtOrAfter(now)
	} else {
		next, ok = sub.Schedule.Next(from)
	}
	if !ok {
		slog.Error("[Registry] Schedule has no future fire time", "subscription_id", sub.ID, "schedule", sub.Schedule.String())
		return
	}
	sub.nextFire = next
	sub.timer = r.afterFunc(next.Sub(now), func() { r.fire(sub) })
}

func (r *Registry) fire(sub *Subscription) {
	r.mu.Lock()
	if sub.stopped || r.closed {
		r.mu.Unlock()
		return
	}
	r.inFlight.Add(1)
	r.mu.Unlock()
	defer r.inFlight.Done()

	if err := r.sem.Acquire(r.ctx, 1); err != nil {
		return
	}
	defer r.sem.Release(1)

	defer r.rearm(sub)
	defer func() {
		if p := recover(); p != nil {
			slog.Error("[Registry] Recovered panic in subscription fire", "subscription_id", sub.ID, "panic", p)
		}
	}()

	r.executor.Execute(r.ctx, sub, r.now().UTC())
}

func (r *Registry) rearm(sub *Subscription) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if sub.stopped || r.closed {
		return
	}
	r.armLocked(sub)
}

// Shutdown stops every timer and waits for in-flight fires until ctx expires.
func (r *Registry) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	r.closed = true
	for _, sub := range r.subs {
		if sub.timer != nil {
			sub.timer.Stop()
		}
	}
	r.mu.Unlock()
	defer r.cancel()

	done := make(chan struct{})
	go func() {
		r.inFlight.Wait()
		close(done)
	}()

	select {
	case <-done:
		slog.Info("[Registry] All in-flight fires completed")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for in-flight fires: %w", ctx.Err())
	}
}
