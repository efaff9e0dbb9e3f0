package storage

import (
	"context"
	"errors"
	"time"

	v1 "github.com/aevon-lab/epcis-repository/internal/api/v1"
)

var (
	// ErrDuplicate is returned when a row with the same unique key already exists.
	ErrDuplicate = errors.New("already exists")

	// ErrNotFound is returned when the addressed row does not exist.
	ErrNotFound = errors.New("not found")
)

// Vocabulary types referenced by events.
const (
	VocBusinessStep            = "urn:epcglobal:epcis:vtype:BusinessStep"
	VocDisposition             = "urn:epcglobal:epcis:vtype:Disposition"
	VocReadPoint               = "urn:epcglobal:epcis:vtype:ReadPoint"
	VocBusinessLocation        = "urn:epcglobal:epcis:vtype:BusinessLocation"
	VocBusinessTransactionType = "urn:epcglobal:epcis:vtype:BusinessTransactionType"
	VocBusinessTransaction     = "urn:epcglobal:epcis:vtype:BusinessTransaction"
	VocEPCClass                = "urn:epcglobal:epcis:vtype:EPCClass"
)

// BizTransactionRef is an interned bizTransactionList entry. TypeID is nil when
// the transaction has no type.
type BizTransactionRef struct {
	TypeID  *int64
	ValueID int64
}

// VocabRefs carries the interned ids of every vocabulary reference of one event.
type VocabRefs struct {
	BizStep         *int64
	Disposition     *int64
	ReadPoint       *int64
	BizLocation     *int64
	EPCClass        *int64
	BizTransactions []BizTransactionRef
}

// EventStore persists captured events. Reads go through the query engine,
// which issues its own statements against the store's connection.
type EventStore interface {
	// SaveEvent inserts the event and its EPC, business transaction and extension
	// rows in one transaction, returning the store-assigned id.
	SaveEvent(ctx context.Context, event *v1.Event, refs VocabRefs) (int64, error)
}

// VocabularyFilter selects master data for SimpleMasterDataQuery.
type VocabularyFilter struct {
	Types             []string
	URIs              []string
	URIPrefixes       []string // each URI plus descendants after ':', '.' or '/'
	IncludeAttributes bool
	AttributeNames    []string
	Limit             int
}

// VocabularyStore interns and reads vocabulary elements.
type VocabularyStore interface {
	// InternVocabulary returns the id of (vocType, uri), inserting it if absent.
	// Concurrent calls for the same key must return the same id.
	InternVocabulary(ctx context.Context, vocType, uri string) (int64, error)

	// QueryVocabulary returns the elements matching filter, ordered by type then uri.
	QueryVocabulary(ctx context.Context, filter VocabularyFilter) ([]v1.VocabularyElement, error)

	// UpsertVocabularyAttributes sets attributes of an interned element, replacing existing values.
	UpsertVocabularyAttributes(ctx context.Context, vocID int64, attrs map[string]string) error
}

// SubscriptionRecord is the persisted form of a standing query.
type SubscriptionRecord struct {
	SubscriptionID    string
	QueryName         string
	Params            []byte // JSON encoded v1.QueryParams
	Destination       string
	Schedule          []byte // JSON encoded schedule
	Trigger           string
	InitialRecordTime time.Time
	ReportIfEmpty     bool
	LastExecutedTime  time.Time
}

// SubscriptionStore persists subscriptions across restarts.
type SubscriptionStore interface {
	// SaveSubscription inserts a new record. Returns ErrDuplicate if the id is taken.
	SaveSubscription(ctx context.Context, rec *SubscriptionRecord) error

	// DeleteSubscription removes a record. Returns ErrNotFound if it does not exist.
	DeleteSubscription(ctx context.Context, subscriptionID string) error

	// UpdateLastExecuted advances the watermark of one subscription.
	UpdateLastExecuted(ctx context.Context, subscriptionID string, lastExecuted time.Time) error

	// LoadSubscriptions returns every persisted record.
	LoadSubscriptions(ctx context.Context) ([]SubscriptionRecord, error)
}
