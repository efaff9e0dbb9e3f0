package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/aevon-lab/epcis-repository/internal/core/storage"
)

// SaveSubscription inserts rec. A taken subscription id yields storage.ErrDuplicate.
func (a *Adapter) SaveSubscription(ctx context.Context, rec *storage.SubscriptionRecord) error {
	result, err := a.db.ExecContext(ctx, querySaveSubscription,
		rec.SubscriptionID,
		rec.QueryName,
		string(rec.Params),
		rec.Destination,
		string(rec.Schedule),
		rec.Trigger,
		rec.InitialRecordTime.UTC(),
		rec.ReportIfEmpty,
		rec.LastExecutedTime.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to save subscription: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if rows == 0 {
		return storage.ErrDuplicate
	}
	return nil
}

// DeleteSubscription removes one subscription. A missing id yields storage.ErrNotFound.
func (a *Adapter) DeleteSubscription(ctx context.Context, subscriptionID string) error {
	result, err := a.db.ExecContext(ctx, queryDeleteSubscription, subscriptionID)
	if err != nil {
		return fmt.Errorf("failed to delete subscription: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if rows == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// UpdateLastExecuted persists the watermark of one subscription.
func (a *Adapter) UpdateLastExecuted(ctx context.Context, subscriptionID string, lastExecuted time.Time) error {
	result, err := a.db.ExecContext(ctx, queryUpdateLastExecuted, subscriptionID, lastExecuted.UTC())
	if err != nil {
		return fmt.Errorf("failed to update last executed time: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if rows == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// LoadSubscriptions returns every persisted subscription ordered by id.
func (a *Adapter) LoadSubscriptions(ctx context.Context) ([]storage.SubscriptionRecord, error) {
	rows, err := a.db.QueryContext(ctx, queryLoadSubscriptions)
	if err != nil {
		return nil, fmt.Errorf("failed to load subscriptions: %w", err)
	}
	defer rows.Close()

	var records []storage.SubscriptionRecord
	for rows.Next() {
		rec, err := scanSubscriptionRow(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating subscriptions: %w", err)
	}
	return records, nil
}
