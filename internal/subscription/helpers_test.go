package subscription

import (
	"context"
	"sync"
	"testing"
	"time"

	v1 "github.com/aevon-lab/epcis-repository/internal/api/v1"
	storagemocks "github.com/aevon-lab/epcis-repository/internal/mocks/storage"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

// fakeClock drives registry timers by hand. Fired timers run synchronously
// on the test goroutine.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

type fakeTimer struct {
	clock   *fakeClock
	at      time.Time
	f       func()
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	active := !t.stopped && !t.fired
	t.stopped = true
	return active
}

func newFakeClock(now time.Time) *fakeClock {
	return &fakeClock{now: now}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{clock: c, at: c.now.Add(d), f: f}
	c.timers = append(c.timers, t)
	return t
}

// pending returns the timers that are neither stopped nor fired.
func (c *fakeClock) pending() []*fakeTimer {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []*fakeTimer
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			out = append(out, t)
		}
	}
	return out
}

// fireNext advances the clock to the earliest pending timer and runs it.
func (c *fakeClock) fireNext(t *testing.T) time.Time {
	t.Helper()
	c.mu.Lock()
	var next *fakeTimer
	for _, tm := range c.timers {
		if tm.stopped || tm.fired {
			continue
		}
		if next == nil || tm.at.Before(next.at) {
			next = tm
		}
	}
	require.NotNil(t, next, "no pending timer")
	next.fired = true
	c.now = next.at
	c.mu.Unlock()

	next.f()
	return next.at
}

type pollCall struct {
	queryName string
	params    v1.QueryParams
}

// stubCatalog answers polls through respond and records every call.
type stubCatalog struct {
	mu          sync.Mutex
	calls       []pollCall
	validateErr error
	respond     func(queryName string, params v1.QueryParams) (*v1.QueryResults, error)
}

func (c *stubCatalog) QueryNames() []string {
	return []string{v1.SimpleEventQuery, v1.SimpleMasterDataQuery}
}

func (c *stubCatalog) Subscribable(queryName string) bool {
	return queryName == v1.SimpleEventQuery
}

func (c *stubCatalog) Validate(ctx context.Context, queryName string, params v1.QueryParams) error {
	return c.validateErr
}

func (c *stubCatalog) Poll(ctx context.Context, queryName string, params v1.QueryParams) (*v1.QueryResults, error) {
	c.mu.Lock()
	c.calls = append(c.calls, pollCall{queryName: queryName, params: params})
	respond := c.respond
	c.mu.Unlock()

	if respond != nil {
		return respond(queryName, params)
	}
	return &v1.QueryResults{QueryName: queryName}, nil
}

func (c *stubCatalog) pollCalls() []pollCall {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]pollCall(nil), c.calls...)
}

// recordingDeliverer keeps every report it is handed.
type recordingDeliverer struct {
	mu      sync.Mutex
	reports []*Report
	err     error
	panics  bool
}

func (d *recordingDeliverer) Deliver(ctx context.Context, destination string, report *Report) error {
	if d.panics {
		panic("destination exploded")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.reports = append(d.reports, report)
	return d.err
}

func (d *recordingDeliverer) delivered() []*Report {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]*Report(nil), d.reports...)
}

type testEnv struct {
	clock     *fakeClock
	catalog   *stubCatalog
	store     *storagemocks.SubscriptionStore
	deliverer *recordingDeliverer
	registry  *Registry
	service   *Service
	metrics   *Metrics
}

// 2026-02-11 is a Wednesday.
var testStart = time.Date(2026, 2, 11, 10, 35, 42, 0, time.UTC)

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		clock:     newFakeClock(testStart),
		catalog:   &stubCatalog{},
		store:     storagemocks.NewSubscriptionStore(t),
		deliverer: &recordingDeliverer{},
		metrics:   NewMetrics(prometheus.NewRegistry()),
	}
	executor := NewExecutor(env.catalog, env.store, env.deliverer, env.metrics)
	env.registry = NewRegistry(executor, 2, env.metrics, WithClock(env.clock.Now, env.clock.AfterFunc))

	svc, err := NewService(env.catalog, env.store, env.registry, 10*time.Second)
	require.NoError(t, err)
	svc.now = env.clock.Now
	env.service = svc
	return env
}

func paramTime(t *testing.T, params v1.QueryParams, name string) time.Time {
	t.Helper()
	value, ok := params.Get(name)
	require.True(t, ok, "parameter %s missing", name)
	ts, err := value.Time()
	require.NoError(t, err)
	return ts
}

func scheduledRequest(id string) *v1.SubscribeRequest {
	initial := time.Date(2026, 2, 11, 0, 0, 0, 0, time.UTC)
	return &v1.SubscribeRequest{
		SubscriptionID: id,
		QueryName:      v1.SimpleEventQuery,
		Params: v1.QueryParams{
			{Name: "eventType", Value: v1.ListValue("ObjectEvent")},
		},
		Destination: "http://receiver.example.com/epcis",
		Controls: v1.SubscriptionControls{
			Schedule:          &v1.QuerySchedule{Second: "0", Minute: "0,30"},
			InitialRecordTime: &initial,
		},
	}
}
