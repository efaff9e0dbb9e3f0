package subscription

import (
	"encoding/json"
	"fmt"
	"time"

	v1 "github.com/aevon-lab/epcis-repository/internal/api/v1"
	"github.com/aevon-lab/epcis-repository/internal/core/storage"
	"github.com/aevon-lab/epcis-repository/internal/schedule"
)

// Kind distinguishes how a subscription is driven.
type Kind string

const (
	KindScheduled Kind = "scheduled"
	KindTriggered Kind = "triggered"
)

// Subscription is a live standing query. The registry lock guards timer,
// nextFire and stopped; lastExecuted is only touched by the fire in progress,
// and fires of one subscription never overlap.
type Subscription struct {
	ID                string
	QueryName         string
	Params            v1.QueryParams
	Destination       string
	Schedule          *schedule.Schedule
	Trigger           string
	InitialRecordTime time.Time
	ReportIfEmpty     bool

	lastExecuted time.Time

	timer    Timer
	nextFire time.Time
	stopped  bool
}

// Kind reports whether the subscription runs on its schedule or on a trigger.
func (s *Subscription) Kind() Kind {
	if s.Trigger != "" {
		return KindTriggered
	}
	return KindScheduled
}

// LastExecuted returns the watermark of the subscription.
func (s *Subscription) LastExecuted() time.Time {
	return s.lastExecuted
}

func (s *Subscription) toRecord() (*storage.SubscriptionRecord, error) {
	params, err := json.Marshal(s.Params)
	if err != nil {
		return nil, fmt.Errorf("encode params: %w", err)
	}
	sched, err := json.Marshal(s.Schedule)
	if err != nil {
		return nil, fmt.Errorf("encode schedule: %w", err)
	}
	return &storage.SubscriptionRecord{
		SubscriptionID:    s.ID,
		QueryName:         s.QueryName,
		Params:            params,
		Destination:       s.Destination,
		Schedule:          sched,
		Trigger:           s.Trigger,
		InitialRecordTime: s.InitialRecordTime,
		ReportIfEmpty:     s.ReportIfEmpty,
		LastExecutedTime:  s.lastExecuted,
	}, nil
}

// fromRecord rebuilds a subscription from its persisted row.
func fromRecord(rec storage.SubscriptionRecord) (*Subscription, error) {
	var params v1.QueryParams
	if err := json.Unmarshal(rec.Params, &params); err != nil {
		return nil, fmt.Errorf("decode params of %s: %w", rec.SubscriptionID, err)
	}
	var sched schedule.Schedule
	if err := json.Unmarshal(rec.Schedule, &sched); err != nil {
		return nil, fmt.Errorf("decode schedule of %s: %w", rec.SubscriptionID, err)
	}
	return &Subscription{
		ID:                rec.SubscriptionID,
		QueryName:         rec.QueryName,
		Params:            params,
		Destination:       rec.Destination,
		Schedule:          &sched,
		Trigger:           rec.Trigger,
		InitialRecordTime: rec.InitialRecordTime.UTC(),
		ReportIfEmpty:     rec.ReportIfEmpty,
		lastExecuted:      rec.LastExecutedTime.UTC(),
	}, nil
}
