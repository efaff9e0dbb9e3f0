package subscription

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"slices"
	"strings"
	"time"

	v1 "github.com/aevon-lab/epcis-repository/internal/api/v1"
	epciserr "github.com/aevon-lab/epcis-repository/internal/core/errors"
	"github.com/aevon-lab/epcis-repository/internal/core/storage"
	"github.com/aevon-lab/epcis-repository/internal/schedule"
)

// Catalog is the query engine as seen by subscribe.
type Catalog interface {
	QueryRunner
	QueryNames() []string
	Subscribable(queryName string) bool
	Validate(ctx context.Context, queryName string, params v1.QueryParams) error
}

// Service implements subscribe, unsubscribe and getSubscriptionIDs.
type Service struct {
	catalog      Catalog
	store        storage.SubscriptionStore
	registry     *Registry
	triggerCheck *schedule.Schedule
	now          func() time.Time
}

// NewService creates the subscription service. Triggered subscriptions are
// checked every triggerCheckInterval.
func NewService(catalog Catalog, store storage.SubscriptionStore, registry *Registry, triggerCheckInterval time.Duration) (*Service, error) {
	check, err := schedule.Every(triggerCheckInterval)
	if err != nil {
		return nil, err
	}
	return &Service{
		catalog:      catalog,
		store:        store,
		registry:     registry,
		triggerCheck: check,
		now:          time.Now,
	}, nil
}

// Subscribe validates req, persists the subscription and arms its timer.
func (s *Service) Subscribe(ctx context.Context, req *v1.SubscribeRequest) error {
	if err := validateDestination(req.Destination); err != nil {
		return err
	}
	if !slices.Contains(s.catalog.QueryNames(), req.QueryName) {
		return epciserr.NoSuchName("unknown query name %q", req.QueryName)
	}
	if !s.catalog.Subscribable(req.QueryName) {
		return epciserr.SubscribeNotPermitted("query %s cannot be subscribed to", req.QueryName)
	}
	if strings.TrimSpace(req.SubscriptionID) == "" {
		return epciserr.Validation("subscriptionID is required")
	}
	if s.registry.Has(req.SubscriptionID) {
		return epciserr.DuplicateSubscription("subscription %s already exists", req.SubscriptionID)
	}

	controls := req.Controls
	hasSchedule, hasTrigger := controls.Schedule != nil, strings.TrimSpace(controls.Trigger) != ""
	if hasSchedule == hasTrigger {
		return epciserr.SubscriptionControls("exactly one of schedule and trigger must be given")
	}

	sched := s.triggerCheck
	if hasSchedule {
		parsed, err := schedule.Parse(*controls.Schedule)
		if err != nil {
			return epciserr.SubscriptionControls("invalid schedule: %v", err)
		}
		sched = parsed
	}

	// The engine owns the recordTime lower bound.
	params := req.Params.Without(paramGERecordTime)
	if err := s.catalog.Validate(ctx, req.QueryName, params); err != nil {
		return epciserr.AsImplementation(err, "failed to validate query")
	}

	initial := s.now().UTC()
	if controls.InitialRecordTime != nil {
		initial = controls.InitialRecordTime.UTC()
	}

	sub := &Subscription{
		ID:                req.SubscriptionID,
		QueryName:         req.QueryName,
		Params:            params,
		Destination:       req.Destination,
		Schedule:          sched,
		Trigger:           strings.TrimSpace(controls.Trigger),
		InitialRecordTime: initial,
		ReportIfEmpty:     controls.ReportIfEmpty,
		lastExecuted:      initial,
	}

	rec, err := sub.toRecord()
	if err != nil {
		return epciserr.Implementation(err, "failed to encode subscription")
	}
	if err := s.store.SaveSubscription(ctx, rec); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return epciserr.DuplicateSubscription("subscription %s already exists", req.SubscriptionID)
		}
		return epciserr.Implementation(err, "failed to persist subscription")
	}

	if err := s.registry.Add(sub); err != nil {
		if derr := s.store.DeleteSubscription(ctx, sub.ID); derr != nil {
			slog.Error("[Subscription] Failed to roll back persisted subscription", "subscription_id", sub.ID, "error", derr)
		}
		if errors.Is(err, errAlreadyRegistered) {
			return epciserr.DuplicateSubscription("subscription %s already exists", sub.ID)
		}
		return epciserr.Implementation(err, "failed to register subscription")
	}

	slog.Info("[Subscription] Subscribed",
		"subscription_id", sub.ID,
		"query", sub.QueryName,
		"kind", sub.Kind(),
		"schedule", sub.Schedule.String(),
		"destination", sub.Destination,
		"initial_record_time", initial,
	)
	return nil
}

// Unsubscribe cancels the subscription and removes it from storage.
func (s *Service) Unsubscribe(ctx context.Context, subscriptionID string) error {
	if !s.registry.Remove(subscriptionID) {
		return epciserr.NoSuchSubscription("subscription %s does not exist", subscriptionID)
	}

	if err := s.store.DeleteSubscription(ctx, subscriptionID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			slog.Warn("[Subscription] Subscription was not persisted", "subscription_id", subscriptionID)
			return nil
		}
		return epciserr.Implementation(err, "failed to delete subscription")
	}

	slog.Info("[Subscription] Unsubscribed", "subscription_id", subscriptionID)
	return nil
}

// SubscriptionIDs lists the active subscriptions to queryName.
func (s *Service) SubscriptionIDs(queryName string) ([]string, error) {
	if !slices.Contains(s.catalog.QueryNames(), queryName) {
		return nil, epciserr.NoSuchName("unknown query name %q", queryName)
	}
	return s.registry.IDs(queryName), nil
}

// Recover re-arms every persisted subscription.
func (s *Service) Recover(ctx context.Context) (int, error) {
	return s.registry.Load(ctx, s.store)
}

func validateDestination(dest string) error {
	if strings.TrimSpace(dest) == "" {
		return epciserr.InvalidURI("destination is required")
	}
	u, err := url.Parse(dest)
	if err != nil {
		return epciserr.InvalidURI("destination %q is not a valid URL: %v", dest, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return epciserr.InvalidURI("destination %q must be an absolute http or https URL", dest)
	}
	return nil
}
