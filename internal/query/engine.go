package query

import (
	"context"
	"log/slog"
	"time"

	v1 "github.com/aevon-lab/epcis-repository/internal/api/v1"
	epciserr "github.com/aevon-lab/epcis-repository/internal/core/errors"
	"github.com/aevon-lab/epcis-repository/internal/core/storage"
	"golang.org/x/sync/errgroup"
)

const (
	// StandardVersion is the EPCIS standard version implemented by the query interface.
	StandardVersion = "1.0"

	// VendorVersion identifies this repository implementation.
	VendorVersion = "https://github.com/aevon-lab/epcis-repository/1.0"
)

// VocabularyReader reads master data for SimpleMasterDataQuery.
type VocabularyReader interface {
	QueryVocabulary(ctx context.Context, filter storage.VocabularyFilter) ([]v1.VocabularyElement, error)
}

// Options bounds query execution.
type Options struct {
	// MaxResultRows is a server-side ceiling on every poll; exceeding it fails
	// with QueryTooLarge. Zero disables the ceiling.
	MaxResultRows int

	// StatementTimeout bounds the store calls of one poll. Zero disables it.
	StatementTimeout time.Duration
}

// Engine executes named queries against the event store.
type Engine struct {
	router   *ParameterRouter
	hydrator *ResultHydrator
	vocab    VocabularyReader
	opts     Options
	metrics  *Metrics
}

// NewEngine creates a query engine. metrics may be nil.
func NewEngine(db Querier, interner Interner, vocab VocabularyReader, opts Options, metrics *Metrics) *Engine {
	return &Engine{
		router:   NewParameterRouter(interner),
		hydrator: NewResultHydrator(db),
		vocab:    vocab,
		opts:     opts,
		metrics:  metrics,
	}
}

// QueryNames lists the query names understood by Poll.
func (e *Engine) QueryNames() []string {
	return []string{v1.SimpleEventQuery, v1.SimpleMasterDataQuery}
}

// Subscribable reports whether queryName may back a standing query.
// Master data queries are poll only.
func (e *Engine) Subscribable(queryName string) bool {
	return queryName == v1.SimpleEventQuery
}

// Poll executes one named query.
func (e *Engine) Poll(ctx context.Context, queryName string, params v1.QueryParams) (*v1.QueryResults, error) {
	start := time.Now()
	defer func() {
		e.metrics.ObservePoll(queryName, time.Since(start))
	}()

	var (
		results *v1.QueryResults
		err     error
	)
	switch queryName {
	case v1.SimpleEventQuery:
		results, err = e.pollEvents(ctx, params)
	case v1.SimpleMasterDataQuery:
		results, err = e.pollMasterData(ctx, params)
	default:
		err = epciserr.NoSuchName("unknown query name %q", queryName)
	}

	if err != nil {
		kind := epciserr.KindOf(err)
		e.metrics.IncrementError(queryName, string(kind))
		if kind == epciserr.KindImplementation {
			slog.Error("[Query] Poll failed", "query", queryName, "error", err)
		}
		return nil, err
	}
	return results, nil
}

// Validate checks params for queryName without running the query.
func (e *Engine) Validate(ctx context.Context, queryName string, params v1.QueryParams) error {
	switch queryName {
	case v1.SimpleEventQuery:
		_, err := e.router.Route(ctx, params, e.opts.MaxResultRows)
		return epciserr.AsImplementation(err, "failed to build query")
	case v1.SimpleMasterDataQuery:
		_, err := parseMasterDataParams(params)
		return err
	}
	return epciserr.NoSuchName("unknown query name %q", queryName)
}

func (e *Engine) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.opts.StatementTimeout > 0 {
		return context.WithTimeout(ctx, e.opts.StatementTimeout)
	}
	return context.WithCancel(ctx)
}

// pollEvents runs the per-type statements concurrently and concatenates their
// results in the fixed event type order.
func (e *Engine) pollEvents(ctx context.Context, params v1.QueryParams) (*v1.QueryResults, error) {
	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	plan, err := e.router.Route(ctx, params, e.opts.MaxResultRows)
	if err != nil {
		return nil, epciserr.AsImplementation(err, "failed to build query")
	}

	builders := plan.Builders()
	perType := make([][]v1.Event, len(builders))

	g, gctx := errgroup.WithContext(ctx)
	for i, b := range builders {
		g.Go(func() error {
			events, err := e.hydrator.Fetch(gctx, b)
			if err != nil {
				return err
			}
			perType[i] = events
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, epciserr.Implementation(err, "event query failed")
	}

	// Size check before any side list is loaded.
	ceiling := plan.ceiling(e.opts.MaxResultRows)
	total := 0
	for _, events := range perType {
		total += len(events)
	}
	if ceiling > 0 && total > ceiling {
		return nil, epciserr.QueryTooLarge("query returned more than %d events", ceiling)
	}

	g, gctx = errgroup.WithContext(ctx)
	for i, b := range builders {
		g.Go(func() error {
			return e.hydrator.Hydrate(gctx, b.desc.eventType, perType[i])
		})
	}
	if err := g.Wait(); err != nil {
		return nil, epciserr.Implementation(err, "event hydration failed")
	}

	results := &v1.QueryResults{
		QueryName: v1.SimpleEventQuery,
		Events:    make([]v1.Event, 0, total),
	}
	for i, events := range perType {
		e.metrics.AddEvents(string(builders[i].desc.eventType), len(events))
		results.Events = append(results.Events, events...)
	}
	return results, nil
}
