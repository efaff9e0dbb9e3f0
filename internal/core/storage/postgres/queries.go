package postgres

import (
	"fmt"

	v1 "github.com/aevon-lab/epcis-repository/internal/api/v1"
)

// SQL statements for capture, vocabulary and subscription storage. Event reads
// are generated by the query engine.

const (
	// queryLookupVocabulary resolves an interned (voc_type, uri) pair.
	queryLookupVocabulary = `SELECT id FROM voc_elements WHERE voc_type = $1 AND uri = $2`

	// queryInsertVocabulary inserts a new element. ON CONFLICT DO NOTHING returns
	// no rows (sql.ErrNoRows) when a concurrent caller won the race.
	queryInsertVocabulary = `
		INSERT INTO voc_elements (voc_type, uri)
		VALUES ($1, $2)
		ON CONFLICT (voc_type, uri) DO NOTHING
		RETURNING id
	`

	queryUpsertVocabularyAttribute = `
		INSERT INTO voc_attributes (voc_id, attr_name, attr_value)
		VALUES ($1, $2, $3)
		ON CONFLICT (voc_id, attr_name) DO UPDATE SET attr_value = EXCLUDED.attr_value
	`

	querySelectVocabularyAttributes = `
		SELECT voc_id, attr_name, attr_value
		FROM voc_attributes
		WHERE voc_id = ANY($1)
		ORDER BY voc_id, attr_name
	`

	querySelectVocabularyAttributesByName = `
		SELECT voc_id, attr_name, attr_value
		FROM voc_attributes
		WHERE voc_id = ANY($1)
		  AND attr_name = ANY($2)
		ORDER BY voc_id, attr_name
	`

	// querySaveSubscription inserts a standing query. ON CONFLICT DO NOTHING
	// affects zero rows for a duplicate subscription id.
	querySaveSubscription = `
		INSERT INTO subscriptions (
			subscription_id, query_name, params, destination, schedule,
			trigger_condition, initial_record_time, report_if_empty, last_executed_time
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (subscription_id) DO NOTHING
	`

	queryDeleteSubscription = `DELETE FROM subscriptions WHERE subscription_id = $1`

	queryUpdateLastExecuted = `
		UPDATE subscriptions
		SET last_executed_time = $2
		WHERE subscription_id = $1
	`

	queryLoadSubscriptions = `
		SELECT
			subscription_id, query_name, params, destination, schedule,
			trigger_condition, initial_record_time, report_if_empty, last_executed_time
		FROM subscriptions
		ORDER BY subscription_id ASC
	`
)

// eventTables holds the insert statements for one event type and its side tables.
type eventTables struct {
	insertEvent     string
	insertEPC       string
	insertBizTrans  string
	insertExtension string
}

const commonInsertColumns = `event_time, record_time, event_time_zone_offset,
			biz_step, disposition, read_point, biz_location`

var eventTablesByType = map[v1.EventType]eventTables{
	v1.ObjectEventType:      newEventTables("event_object", "action", 1),
	v1.AggregationEventType: newEventTables("event_aggregation", "action, parent_id", 2),
	v1.QuantityEventType:    newEventTables("event_quantity", "epc_class, quantity", 2),
	v1.TransactionEventType: newEventTables("event_transaction", "action, parent_id", 2),
}

func newEventTables(table, variantColumns string, variantCount int) eventTables {
	placeholders := "$1, $2, $3, $4, $5, $6, $7"
	for i := 0; i < variantCount; i++ {
		placeholders += fmt.Sprintf(", $%d", 8+i)
	}

	return eventTables{
		insertEvent: fmt.Sprintf(`
		INSERT INTO %s (
			%s,
			%s
		)
		VALUES (%s)
		RETURNING id
	`, table, commonInsertColumns, variantColumns, placeholders),
		insertEPC: fmt.Sprintf(
			`INSERT INTO %s_epcs (event_id, seq, epc) VALUES ($1, $2, $3)`, table),
		insertBizTrans: fmt.Sprintf(
			`INSERT INTO %s_biz_trans (event_id, seq, type_id, value_id) VALUES ($1, $2, $3, $4)`, table),
		insertExtension: fmt.Sprintf(`
		INSERT INTO %s_extensions (
			event_id, seq, namespace, local_name, fieldname,
			int_value, float_value, time_value, str_value
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, table),
	}
}
