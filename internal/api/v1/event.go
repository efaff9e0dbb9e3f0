package v1

import (
	"fmt"
	"regexp"
	"time"
)

// EventType is the discriminator of the four EPCIS event shapes.
type EventType string

const (
	ObjectEventType      EventType = "ObjectEvent"
	AggregationEventType EventType = "AggregationEvent"
	QuantityEventType    EventType = "QuantityEvent"
	TransactionEventType EventType = "TransactionEvent"
)

// EventTypes lists every event type in the fixed order used for query execution
// and result concatenation.
var EventTypes = []EventType{
	ObjectEventType,
	AggregationEventType,
	QuantityEventType,
	TransactionEventType,
}

// ParseEventType maps a type name to its EventType.
func ParseEventType(name string) (EventType, bool) {
	for _, t := range EventTypes {
		if string(t) == name {
			return t, true
		}
	}
	return "", false
}

// Action is the lifecycle verb carried by Object, Aggregation and Transaction events.
type Action string

const (
	ActionAdd     Action = "ADD"
	ActionObserve Action = "OBSERVE"
	ActionDelete  Action = "DELETE"
)

// Valid reports whether a is one of ADD, OBSERVE, DELETE.
func (a Action) Valid() bool {
	switch a {
	case ActionAdd, ActionObserve, ActionDelete:
		return true
	}
	return false
}

// BizTransaction is one (type, value) entry of an event's bizTransactionList.
// Both sides are vocabulary URIs; Type is optional.
type BizTransaction struct {
	Type  string `json:"type,omitempty"`
	Value string `json:"value"`
}

// Header holds the fields shared by every event type.
type Header struct {
	// EventTime is when the event happened at the read point (client clock). Required.
	EventTime time.Time `json:"eventTime"`

	// RecordTime is stamped by the repository at capture. Client-supplied values are ignored.
	RecordTime time.Time `json:"recordTime"`

	// EventTimeZoneOffset is the client's offset in ±HH:MM form.
	EventTimeZoneOffset string `json:"eventTimeZoneOffset,omitempty"`

	BizStep     string `json:"bizStep,omitempty"`
	Disposition string `json:"disposition,omitempty"`
	ReadPoint   string `json:"readPoint,omitempty"`
	BizLocation string `json:"bizLocation,omitempty"`

	BizTransactionList []BizTransaction `json:"bizTransactionList,omitempty"`
	Extensions         []Extension      `json:"extensions,omitempty"`
}

// Event is a tagged variant: Type selects which of the variant fields below are legal.
//
//   - ObjectEvent:      Action, EPCList
//   - AggregationEvent: Action, ParentID, ChildEPCs
//   - TransactionEvent: Action, ParentID, EPCList
//   - QuantityEvent:    EPCClass, Quantity
type Event struct {
	Type EventType `json:"type"`

	// ID is the store-assigned key, unique per event type.
	ID int64 `json:"-"`

	Header

	Action    Action   `json:"action,omitempty"`
	ParentID  string   `json:"parentID,omitempty"`
	EPCList   []string `json:"epcList,omitempty"`
	ChildEPCs []string `json:"childEPCs,omitempty"`
	EPCClass  string   `json:"epcClass,omitempty"`
	Quantity  *int64   `json:"quantity,omitempty"`
}

// EPCs returns the event's EPC list regardless of which JSON field carries it.
func (e *Event) EPCs() []string {
	if e.Type == AggregationEventType {
		return e.ChildEPCs
	}
	return e.EPCList
}

var timeZoneOffsetPattern = regexp.MustCompile(`^[+-]([01][0-9]|2[0-3]):[0-5][0-9]$`)

// Validate checks required fields and rejects fields the event's type does not carry.
func (e *Event) Validate() error {
	if _, ok := ParseEventType(string(e.Type)); !ok {
		return fmt.Errorf("unknown event type %q", e.Type)
	}

	if e.EventTime.IsZero() {
		return fmt.Errorf("eventTime is required")
	}

	if e.EventTimeZoneOffset != "" && !timeZoneOffsetPattern.MatchString(e.EventTimeZoneOffset) {
		return fmt.Errorf("eventTimeZoneOffset %q must be in ±HH:MM form", e.EventTimeZoneOffset)
	}

	for i, bt := range e.BizTransactionList {
		if bt.Value == "" {
			return fmt.Errorf("bizTransactionList[%d]: value is required", i)
		}
	}

	for i, ext := range e.Extensions {
		if ext.Namespace == "" || ext.Name == "" {
			return fmt.Errorf("extensions[%d]: namespace and name are required", i)
		}
	}

	switch e.Type {
	case ObjectEventType:
		if err := e.requireAction(); err != nil {
			return err
		}
		return e.forbid("parentID", e.ParentID != "", "childEPCs", len(e.ChildEPCs) > 0,
			"epcClass", e.EPCClass != "", "quantity", e.Quantity != nil)

	case AggregationEventType:
		if err := e.requireAction(); err != nil {
			return err
		}
		if e.ParentID == "" && e.Action != ActionObserve {
			return fmt.Errorf("parentID is required for AggregationEvent with action %s", e.Action)
		}
		return e.forbid("epcList", len(e.EPCList) > 0,
			"epcClass", e.EPCClass != "", "quantity", e.Quantity != nil)

	case TransactionEventType:
		if err := e.requireAction(); err != nil {
			return err
		}
		if e.ParentID == "" {
			return fmt.Errorf("parentID is required for TransactionEvent")
		}
		return e.forbid("childEPCs", len(e.ChildEPCs) > 0,
			"epcClass", e.EPCClass != "", "quantity", e.Quantity != nil)

	case QuantityEventType:
		if e.EPCClass == "" {
			return fmt.Errorf("epcClass is required for QuantityEvent")
		}
		if e.Quantity == nil {
			return fmt.Errorf("quantity is required for QuantityEvent")
		}
		return e.forbid("action", e.Action != "", "parentID", e.ParentID != "",
			"epcList", len(e.EPCList) > 0, "childEPCs", len(e.ChildEPCs) > 0)
	}

	return nil
}

func (e *Event) requireAction() error {
	if e.Action == "" {
		return fmt.Errorf("action is required for %s", e.Type)
	}
	if !e.Action.Valid() {
		return fmt.Errorf("invalid action %q (must be ADD, OBSERVE or DELETE)", e.Action)
	}
	return nil
}

// forbid takes (fieldName, present) pairs and fails on the first present field.
func (e *Event) forbid(pairs ...interface{}) error {
	for i := 0; i+1 < len(pairs); i += 2 {
		if present, _ := pairs[i+1].(bool); present {
			return fmt.Errorf("field %s is not allowed on %s", pairs[i], e.Type)
		}
	}
	return nil
}
