package subscription

import (
	"context"
	"errors"
	"log/slog"
	"time"

	v1 "github.com/aevon-lab/epcis-repository/internal/api/v1"
	epciserr "github.com/aevon-lab/epcis-repository/internal/core/errors"
	"github.com/aevon-lab/epcis-repository/internal/core/storage"
)

const (
	paramGERecordTime = "GE_recordTime"
	paramLTRecordTime = "LT_recordTime"
)

// QueryRunner executes named queries.
type QueryRunner interface {
	Poll(ctx context.Context, queryName string, params v1.QueryParams) (*v1.QueryResults, error)
}

// Executor runs one fire of a subscription: trigger check, watermarked query,
// delivery and watermark persistence. It never returns an error; every failure
// is delivered, logged or both.
type Executor struct {
	runner    QueryRunner
	store     storage.SubscriptionStore
	deliverer Deliverer
	metrics   *Metrics
}

// NewExecutor creates an executor. metrics may be nil.
func NewExecutor(runner QueryRunner, store storage.SubscriptionStore, deliverer Deliverer, metrics *Metrics) *Executor {
	return &Executor{
		runner:    runner,
		store:     store,
		deliverer: deliverer,
		metrics:   metrics,
	}
}

// Execute runs one fire of sub at now.
func (x *Executor) Execute(ctx context.Context, sub *Subscription, now time.Time) {
	start := time.Now()
	outcome := x.execute(ctx, sub, now)
	x.metrics.recordFire(sub.Kind(), outcome, time.Since(start))

	slog.Debug("[Executor] Fire complete",
		"subscription_id", sub.ID,
		"kind", sub.Kind(),
		"outcome", outcome,
		"duration", time.Since(start),
	)
}

func (x *Executor) execute(ctx context.Context, sub *Subscription, now time.Time) string {
	if sub.Kind() == KindTriggered {
		matched, err := x.checkTrigger(ctx, sub)
		if err != nil {
			slog.Warn("[Executor] Trigger check failed",
				"subscription_id", sub.ID,
				"trigger", sub.Trigger,
				"error", err,
			)
			return outcomeCheckFailed
		}
		if !matched {
			return outcomeNotTriggered
		}
	}
	return x.runAndDeliver(ctx, sub, now)
}

// checkTrigger reports whether any event since the initial record time
// references the trigger EPC.
func (x *Executor) checkTrigger(ctx context.Context, sub *Subscription) (bool, error) {
	params := v1.QueryParams{
		{Name: "MATCH_anyEPC", Value: v1.ListValue(sub.Trigger)},
		{Name: paramGERecordTime, Value: v1.TimeValue(sub.InitialRecordTime)},
		{Name: "orderBy", Value: v1.StringValue("recordTime")},
		{Name: "eventCountLimit", Value: v1.IntValue(1)},
	}
	results, err := x.runner.Poll(ctx, v1.SimpleEventQuery, params)
	if err != nil {
		return false, err
	}
	return results.Len() > 0, nil
}

// watermarkedParams bounds the query to [previous watermark, now).
func watermarkedParams(params v1.QueryParams, from, now time.Time) v1.QueryParams {
	out := params.Without(paramGERecordTime).With(paramGERecordTime, v1.TimeValue(from))
	if _, ok := out.Get(paramLTRecordTime); !ok {
		out = out.With(paramLTRecordTime, v1.TimeValue(now))
	}
	return out
}

func (x *Executor) runAndDeliver(ctx context.Context, sub *Subscription, now time.Time) string {
	// The watermark moves before the query runs.
	from := sub.lastExecuted
	sub.lastExecuted = now

	results, err := x.runner.Poll(ctx, sub.QueryName, watermarkedParams(sub.Params, from, now))

	report := &Report{
		SubscriptionID: sub.ID,
		QueryName:      sub.QueryName,
		ExecutedAt:     now,
	}
	outcome := outcomeDelivered
	switch {
	case err != nil:
		slog.Warn("[Executor] Standing query failed",
			"subscription_id", sub.ID,
			"query", sub.QueryName,
			"kind", epciserr.KindOf(err),
			"error", err,
		)
		_, body := epciserr.Response(err)
		report.Error = &body
		outcome = outcomeError
	case results.Len() == 0 && !sub.ReportIfEmpty:
		outcome = outcomeEmpty
	default:
		results.SubscriptionID = sub.ID
		report.Results = results
	}

	if outcome != outcomeEmpty {
		derr := x.deliverer.Deliver(ctx, sub.Destination, report)
		x.metrics.recordDelivery(derr)
		if derr != nil {
			slog.Error("[Delivery] Failed to deliver report",
				"subscription_id", sub.ID,
				"destination", sub.Destination,
				"error", derr,
			)
		}
	}

	if err := x.store.UpdateLastExecuted(ctx, sub.ID, now); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			slog.Debug("[Executor] Subscription removed during fire", "subscription_id", sub.ID)
		} else {
			slog.Error("[Executor] Failed to persist watermark",
				"subscription_id", sub.ID,
				"last_executed", now,
				"error", err,
			)
		}
	}
	return outcome
}
