package postgres

import (
	"database/sql"
	"fmt"
	"sort"

	v1 "github.com/aevon-lab/epcis-repository/internal/api/v1"
	"github.com/aevon-lab/epcis-repository/internal/core/storage"
	"github.com/shopspring/decimal"
)

type scanner interface {
	Scan(dest ...interface{}) error
}

// extensionColumns splits a typed extension value into the four nullable
// physical columns; exactly one is non-NULL.
func extensionColumns(v v1.ExtensionValue) (sql.NullInt64, decimal.NullDecimal, sql.NullTime, sql.NullString) {
	var (
		i sql.NullInt64
		f decimal.NullDecimal
		t sql.NullTime
		s sql.NullString
	)
	switch v.Kind {
	case v1.ExtensionInt:
		i = sql.NullInt64{Int64: v.Int, Valid: true}
	case v1.ExtensionFloat:
		f = decimal.NullDecimal{Decimal: v.Float, Valid: true}
	case v1.ExtensionTime:
		t = sql.NullTime{Time: v.Time.UTC(), Valid: true}
	default:
		s = sql.NullString{String: v.String, Valid: true}
	}
	return i, f, t, s
}

// eventInsertArgs builds the positional arguments of eventTables.insertEvent.
func eventInsertArgs(event *v1.Event, refs storage.VocabRefs) ([]interface{}, error) {
	args := []interface{}{
		event.EventTime.UTC(),
		event.RecordTime.UTC(),
		nullString(event.EventTimeZoneOffset),
		refs.BizStep,
		refs.Disposition,
		refs.ReadPoint,
		refs.BizLocation,
	}

	switch event.Type {
	case v1.ObjectEventType:
		args = append(args, string(event.Action))
	case v1.AggregationEventType, v1.TransactionEventType:
		args = append(args, string(event.Action), nullString(event.ParentID))
	case v1.QuantityEventType:
		if refs.EPCClass == nil || event.Quantity == nil {
			return nil, fmt.Errorf("quantity event requires epcClass and quantity")
		}
		args = append(args, *refs.EPCClass, *event.Quantity)
	default:
		return nil, fmt.Errorf("unknown event type %q", event.Type)
	}
	return args, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// scanSubscriptionRow scans one row of queryLoadSubscriptions.
func scanSubscriptionRow(row scanner) (storage.SubscriptionRecord, error) {
	var rec storage.SubscriptionRecord
	err := row.Scan(
		&rec.SubscriptionID,
		&rec.QueryName,
		&rec.Params,
		&rec.Destination,
		&rec.Schedule,
		&rec.Trigger,
		&rec.InitialRecordTime,
		&rec.ReportIfEmpty,
		&rec.LastExecutedTime,
	)
	if err != nil {
		return storage.SubscriptionRecord{}, fmt.Errorf("failed to scan subscription row: %w", err)
	}
	rec.InitialRecordTime = rec.InitialRecordTime.UTC()
	rec.LastExecutedTime = rec.LastExecutedTime.UTC()
	return rec, nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
