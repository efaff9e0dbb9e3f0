package query

import (
	v1 "github.com/aevon-lab/epcis-repository/internal/api/v1"
	"github.com/aevon-lab/epcis-repository/internal/core/storage"
)

// vocabField maps an event field that references the vocabulary to its
// column on the event table and the alias of its joined voc_elements row.
type vocabField struct {
	name    string
	vocType string
	column  string
	alias   string
}

var (
	fieldBizStep     = vocabField{"bizStep", storage.VocBusinessStep, "biz_step", "v_bizstep"}
	fieldDisposition = vocabField{"disposition", storage.VocDisposition, "disposition", "v_disposition"}
	fieldReadPoint   = vocabField{"readPoint", storage.VocReadPoint, "read_point", "v_readpoint"}
	fieldBizLocation = vocabField{"bizLocation", storage.VocBusinessLocation, "biz_location", "v_bizlocation"}
	fieldEPCClass    = vocabField{"epcClass", storage.VocEPCClass, "epc_class", "v_epcclass"}
)

// headerVocabFields are carried by every event type, in select order.
var headerVocabFields = []vocabField{fieldBizStep, fieldDisposition, fieldReadPoint, fieldBizLocation}

// attributeFields are the fields HASATTR_ and EQATTR_ may address.
var attributeFields = []vocabField{fieldBizStep, fieldDisposition, fieldReadPoint, fieldBizLocation, fieldEPCClass}

func lookupAttributeField(name string) (vocabField, bool) {
	for _, f := range attributeFields {
		if f.name == name {
			return f, true
		}
	}
	return vocabField{}, false
}

// typeDescriptor is the physical layout of one event type.
type typeDescriptor struct {
	eventType v1.EventType
	table     string

	hasAction bool
	hasParent bool
	hasEPCs   bool

	// epcField is the JSON name of the EPC list ("epcList" or "childEPCs").
	epcField string

	quantity bool
}

func (d *typeDescriptor) epcTable() string       { return d.table + "_epcs" }
func (d *typeDescriptor) bizTransTable() string  { return d.table + "_biz_trans" }
func (d *typeDescriptor) extensionTable() string { return d.table + "_extensions" }

// vocabFields returns every vocabulary-valued field of the type in select order.
func (d *typeDescriptor) vocabFields() []vocabField {
	if d.quantity {
		return append(append([]vocabField{}, headerVocabFields...), fieldEPCClass)
	}
	return headerVocabFields
}

var descriptors = map[v1.EventType]*typeDescriptor{
	v1.ObjectEventType: {
		eventType: v1.ObjectEventType,
		table:     "event_object",
		hasAction: true,
		hasEPCs:   true,
		epcField:  "epcList",
	},
	v1.AggregationEventType: {
		eventType: v1.AggregationEventType,
		table:     "event_aggregation",
		hasAction: true,
		hasParent: true,
		hasEPCs:   true,
		epcField:  "childEPCs",
	},
	v1.QuantityEventType: {
		eventType: v1.QuantityEventType,
		table:     "event_quantity",
		quantity:  true,
	},
	v1.TransactionEventType: {
		eventType: v1.TransactionEventType,
		table:     "event_transaction",
		hasAction: true,
		hasParent: true,
		hasEPCs:   true,
		epcField:  "epcList",
	},
}
