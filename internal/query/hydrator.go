package query

import (
	"context"
	"database/sql"
	"fmt"

	v1 "github.com/aevon-lab/epcis-repository/internal/api/v1"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// Querier is the read side of the event store connection.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

// ResultHydrator turns statement rows into typed events and loads their EPC,
// business transaction and extension lists, in that order.
type ResultHydrator struct {
	db Querier
}

// NewResultHydrator creates a hydrator reading side tables through db.
func NewResultHydrator(db Querier) *ResultHydrator {
	return &ResultHydrator{db: db}
}

// Fetch runs one builder's statement and scans the event rows without side lists.
func (h *ResultHydrator) Fetch(ctx context.Context, b *EventQueryBuilder) ([]v1.Event, error) {
	query, args := b.Build()
	return h.scanEvents(ctx, b.desc, query, args)
}

// Hydrate loads the EPC, business transaction and extension lists of events,
// which must all be of eventType.
func (h *ResultHydrator) Hydrate(ctx context.Context, eventType v1.EventType, events []v1.Event) error {
	if len(events) == 0 {
		return nil
	}
	desc := descriptors[eventType]

	ids := make([]int64, len(events))
	index := make(map[int64]int, len(events))
	for i := range events {
		ids[i] = events[i].ID
		index[events[i].ID] = i
	}

	if desc.hasEPCs {
		if err := h.loadEPCs(ctx, desc, ids, index, events); err != nil {
			return err
		}
	}
	if err := h.loadBizTransactions(ctx, desc, ids, index, events); err != nil {
		return err
	}
	return h.loadExtensions(ctx, desc, ids, index, events)
}

func (h *ResultHydrator) scanEvents(ctx context.Context, desc *typeDescriptor, query string, args []interface{}) ([]v1.Event, error) {
	rows, err := h.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", desc.eventType, err)
	}
	defer rows.Close()

	var events []v1.Event
	for rows.Next() {
		event, err := scanEvent(rows, desc)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s rows: %w", desc.eventType, err)
	}
	return events, nil
}

func scanEvent(rows *sql.Rows, desc *typeDescriptor) (v1.Event, error) {
	event := v1.Event{Type: desc.eventType}
	var (
		offset, bizStep, disposition, readPoint, loc sql.NullString
		action, parent, epcClass                     sql.NullString
		quantity                                     sql.NullInt64
	)

	dest := []interface{}{
		&event.ID, &event.EventTime, &event.RecordTime, &offset,
		&bizStep, &disposition, &readPoint, &loc,
	}
	switch {
	case desc.quantity:
		dest = append(dest, &epcClass, &quantity)
	case desc.hasParent:
		dest = append(dest, &action, &parent)
	default:
		dest = append(dest, &action)
	}

	if err := rows.Scan(dest...); err != nil {
		return v1.Event{}, fmt.Errorf("failed to scan %s row: %w", desc.eventType, err)
	}

	event.EventTime = event.EventTime.UTC()
	event.RecordTime = event.RecordTime.UTC()
	event.EventTimeZoneOffset = offset.String
	event.BizStep = bizStep.String
	event.Disposition = disposition.String
	event.ReadPoint = readPoint.String
	event.BizLocation = loc.String
	event.Action = v1.Action(action.String)
	event.ParentID = parent.String
	event.EPCClass = epcClass.String
	if quantity.Valid {
		q := quantity.Int64
		event.Quantity = &q
	}
	return event, nil
}

func (h *ResultHydrator) loadEPCs(ctx context.Context, desc *typeDescriptor, ids []int64, index map[int64]int, events []v1.Event) error {
	query := fmt.Sprintf(`SELECT event_id, epc FROM %s WHERE event_id = ANY($1) ORDER BY event_id, seq`, desc.epcTable())
	rows, err := h.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("failed to load epcs: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id  int64
			epc string
		)
		if err := rows.Scan(&id, &epc); err != nil {
			return fmt.Errorf("failed to scan epc: %w", err)
		}
		e := &events[index[id]]
		if desc.epcField == "childEPCs" {
			e.ChildEPCs = append(e.ChildEPCs, epc)
		} else {
			e.EPCList = append(e.EPCList, epc)
		}
	}
	return rows.Err()
}

func (h *ResultHydrator) loadBizTransactions(ctx context.Context, desc *typeDescriptor, ids []int64, index map[int64]int, events []v1.Event) error {
	query := fmt.Sprintf(`SELECT bt.event_id, t.uri, v.uri FROM %s bt `+
		`LEFT JOIN voc_elements t ON t.id = bt.type_id `+
		`JOIN voc_elements v ON v.id = bt.value_id `+
		`WHERE bt.event_id = ANY($1) ORDER BY bt.event_id, bt.seq`, desc.bizTransTable())
	rows, err := h.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("failed to load business transactions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id      int64
			btType  sql.NullString
			btValue string
		)
		if err := rows.Scan(&id, &btType, &btValue); err != nil {
			return fmt.Errorf("failed to scan business transaction: %w", err)
		}
		e := &events[index[id]]
		e.BizTransactionList = append(e.BizTransactionList, v1.BizTransaction{Type: btType.String, Value: btValue})
	}
	return rows.Err()
}

func (h *ResultHydrator) loadExtensions(ctx context.Context, desc *typeDescriptor, ids []int64, index map[int64]int, events []v1.Event) error {
	query := fmt.Sprintf(`SELECT event_id, namespace, local_name, int_value, float_value, time_value, str_value `+
		`FROM %s WHERE event_id = ANY($1) ORDER BY event_id, seq`, desc.extensionTable())
	rows, err := h.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("failed to load extensions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id        int64
			ext       v1.Extension
			intValue  sql.NullInt64
			floatVal  decimal.NullDecimal
			timeValue sql.NullTime
			strValue  sql.NullString
		)
		if err := rows.Scan(&id, &ext.Namespace, &ext.Name, &intValue, &floatVal, &timeValue, &strValue); err != nil {
			return fmt.Errorf("failed to scan extension: %w", err)
		}
		switch {
		case intValue.Valid:
			ext.Value = v1.ExtensionValue{Kind: v1.ExtensionInt, Int: intValue.Int64}
		case floatVal.Valid:
			ext.Value = v1.ExtensionValue{Kind: v1.ExtensionFloat, Float: floatVal.Decimal}
		case timeValue.Valid:
			ext.Value = v1.ExtensionValue{Kind: v1.ExtensionTime, Time: timeValue.Time.UTC()}
		default:
			ext.Value = v1.ExtensionValue{Kind: v1.ExtensionString, String: strValue.String}
		}
		e := &events[index[id]]
		e.Extensions = append(e.Extensions, ext)
	}
	return rows.Err()
}
