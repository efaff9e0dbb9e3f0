package query

import (
	"context"
	"strings"

	v1 "github.com/aevon-lab/epcis-repository/internal/api/v1"
	epciserr "github.com/aevon-lab/epcis-repository/internal/core/errors"
	"github.com/aevon-lab/epcis-repository/internal/core/storage"
	"github.com/lib/pq"
)

// Interner resolves vocabulary URIs to ids, creating them on first use.
type Interner interface {
	InternOrLookup(ctx context.Context, vocType, uri string) (int64, error)
}

const (
	orderAscending  = "ASC"
	orderDescending = "DESC"
)

var comparators = map[string]string{
	"GT": ">",
	"GE": ">=",
	"EQ": "=",
	"LE": "<=",
	"LT": "<",
}

// Plan is the routed form of one SimpleEventQuery.
type Plan struct {
	builders map[v1.EventType]*EventQueryBuilder
	included map[v1.EventType]bool

	orderBy        string
	orderDirection string

	eventCountLimit int
	maxEventCount   int
	hasCountLimit   bool
	hasMaxCount     bool
}

func newPlan() *Plan {
	p := &Plan{
		builders: make(map[v1.EventType]*EventQueryBuilder, len(v1.EventTypes)),
		included: make(map[v1.EventType]bool, len(v1.EventTypes)),
	}
	for _, t := range v1.EventTypes {
		p.builders[t] = newEventQueryBuilder(descriptors[t])
		p.included[t] = true
	}
	return p
}

// restrict drops every event type for which keep is false.
func (p *Plan) restrict(keep func(d *typeDescriptor) bool) {
	for _, t := range v1.EventTypes {
		if !keep(descriptors[t]) {
			p.included[t] = false
		}
	}
}

// each applies fn to the builders of the still included types.
func (p *Plan) each(fn func(b *EventQueryBuilder)) {
	for _, t := range v1.EventTypes {
		if p.included[t] {
			fn(p.builders[t])
		}
	}
}

// Builders returns the builders of the included types in execution order.
func (p *Plan) Builders() []*EventQueryBuilder {
	var out []*EventQueryBuilder
	for _, t := range v1.EventTypes {
		if p.included[t] {
			out = append(out, p.builders[t])
		}
	}
	return out
}

// ceiling returns the row count above which the poll fails with QueryTooLarge;
// zero means unbounded.
func (p *Plan) ceiling(maxResultRows int) int {
	ceiling := maxResultRows
	if p.hasMaxCount && (ceiling <= 0 || p.maxEventCount < ceiling) {
		ceiling = p.maxEventCount
	}
	return ceiling
}

// ParameterRouter classifies query parameters and applies each one to the
// per-type builders it affects.
type ParameterRouter struct {
	interner Interner
}

// NewParameterRouter creates a router resolving vocabulary filters through interner.
func NewParameterRouter(interner Interner) *ParameterRouter {
	return &ParameterRouter{interner: interner}
}

// Route validates params and produces the per-type statements.
func (r *ParameterRouter) Route(ctx context.Context, params v1.QueryParams, maxResultRows int) (*Plan, error) {
	seen := make(map[string]bool, len(params))
	for _, param := range params {
		if param.Name == "" {
			return nil, epciserr.QueryParameter("parameter name is empty")
		}
		if seen[param.Name] {
			return nil, epciserr.QueryParameter("parameter %s is given more than once", param.Name)
		}
		seen[param.Name] = true
		if param.Value.IsMissing() {
			return nil, epciserr.QueryParameter("parameter %s has no value", param.Name)
		}
	}

	plan := newPlan()
	for _, param := range params {
		if err := r.apply(ctx, plan, param.Name, param.Value); err != nil {
			return nil, err
		}
	}

	if err := r.finish(plan, maxResultRows); err != nil {
		return nil, err
	}
	return plan, nil
}

func (r *ParameterRouter) apply(ctx context.Context, plan *Plan, name string, value v1.ParamValue) error {
	switch name {
	case "eventType":
		return applyEventType(plan, value)
	case "GE_eventTime":
		return applyTime(plan, name, "e.event_time", ">=", value)
	case "LT_eventTime":
		return applyTime(plan, name, "e.event_time", "<", value)
	case "GE_recordTime":
		return applyTime(plan, name, "e.record_time", ">=", value)
	case "LT_recordTime":
		return applyTime(plan, name, "e.record_time", "<", value)
	case "EQ_action":
		return applyAction(plan, value)
	case "EQ_bizStep":
		return r.applyVocabularyEquals(ctx, plan, fieldBizStep, value)
	case "EQ_disposition":
		return r.applyVocabularyEquals(ctx, plan, fieldDisposition, value)
	case "EQ_readPoint":
		return r.applyVocabularyEquals(ctx, plan, fieldReadPoint, value)
	case "EQ_bizLocation":
		return r.applyVocabularyEquals(ctx, plan, fieldBizLocation, value)
	case "WD_readPoint":
		return applyWithDescendants(plan, fieldReadPoint, value)
	case "WD_bizLocation":
		return applyWithDescendants(plan, fieldBizLocation, value)
	case "MATCH_epc":
		return applyMatchEPC(plan, value, false)
	case "MATCH_anyEPC":
		return applyMatchEPC(plan, value, true)
	case "MATCH_parentID":
		return applyMatchParent(plan, value)
	case "MATCH_epcClass":
		return applyMatchClass(plan, value)
	case "orderBy":
		s, err := value.Text()
		if err != nil {
			return epciserr.QueryParameter("orderBy: %v", err)
		}
		plan.orderBy = s
		return nil
	case "orderDirection":
		s, err := value.Text()
		if err != nil {
			return epciserr.QueryParameter("orderDirection: %v", err)
		}
		if s != orderAscending && s != orderDescending {
			return epciserr.QueryParameter("orderDirection must be ASC or DESC, got %q", s)
		}
		plan.orderDirection = s
		return nil
	case "eventCountLimit":
		n, err := positiveInt(name, value)
		if err != nil {
			return err
		}
		plan.eventCountLimit, plan.hasCountLimit = n, true
		return nil
	case "maxEventCount":
		n, err := positiveInt(name, value)
		if err != nil {
			return err
		}
		plan.maxEventCount, plan.hasMaxCount = n, true
		return nil
	}

	switch {
	case strings.HasPrefix(name, "EQ_bizTransaction_"):
		return r.applyBizTransaction(ctx, plan, strings.TrimPrefix(name, "EQ_bizTransaction_"), value)
	case strings.HasPrefix(name, "EXISTS_"):
		return applyExists(plan, strings.TrimPrefix(name, "EXISTS_"))
	case strings.HasPrefix(name, "HASATTR_"):
		return applyHasAttribute(plan, strings.TrimPrefix(name, "HASATTR_"), value)
	case strings.HasPrefix(name, "EQATTR_"):
		return applyEqualsAttribute(plan, strings.TrimPrefix(name, "EQATTR_"), value)
	}

	if op, field, ok := splitComparator(name); ok {
		if field == "quantity" {
			return applyQuantity(plan, op, value)
		}
		if _, _, isExt := v1.SplitExtensionFieldName(field); isExt {
			return applyExtension(plan, name, op, field, value)
		}
	}

	return epciserr.QueryParameter("unknown parameter %s", name)
}

// finish validates the ordering and limit parameters and applies them.
func (r *ParameterRouter) finish(plan *Plan, maxResultRows int) error {
	if plan.hasCountLimit && plan.hasMaxCount {
		return epciserr.QueryParameter("eventCountLimit and maxEventCount are mutually exclusive")
	}
	if plan.hasCountLimit && plan.orderBy == "" {
		return epciserr.QueryParameter("eventCountLimit requires orderBy")
	}

	direction := plan.orderDirection
	if direction == "" {
		direction = orderDescending
	}

	if plan.orderBy != "" {
		if err := applyOrder(plan, plan.orderBy, direction); err != nil {
			return err
		}
	}

	ceiling := plan.ceiling(maxResultRows)
	plan.each(func(b *EventQueryBuilder) {
		limit := 0
		if plan.hasCountLimit {
			limit = plan.eventCountLimit
		}
		if ceiling > 0 && (limit == 0 || limit > ceiling+1) {
			limit = ceiling + 1
		}
		b.limit = limit
	})
	return nil
}

func applyEventType(plan *Plan, value v1.ParamValue) error {
	wanted := make(map[v1.EventType]bool)
	for _, name := range value.Strings() {
		t, ok := v1.ParseEventType(name)
		if !ok {
			return epciserr.QueryParameter("eventType: unknown event type %q", name)
		}
		wanted[t] = true
	}
	plan.restrict(func(d *typeDescriptor) bool { return wanted[d.eventType] })
	return nil
}

func applyTime(plan *Plan, name, column, op string, value v1.ParamValue) error {
	ts, err := value.Time()
	if err != nil {
		return epciserr.QueryParameter("%s: invalid timestamp: %v", name, err)
	}
	plan.each(func(b *EventQueryBuilder) {
		b.addWhere(column + " " + op + " " + b.arg(ts))
	})
	return nil
}

func applyAction(plan *Plan, value v1.ParamValue) error {
	actions := value.Strings()
	for _, a := range actions {
		if !v1.Action(a).Valid() {
			return epciserr.QueryParameter("EQ_action: invalid action %q", a)
		}
	}
	plan.restrict(func(d *typeDescriptor) bool { return d.hasAction })
	plan.each(func(b *EventQueryBuilder) {
		b.addWhere("e.action = ANY(" + b.arg(pq.Array(actions)) + ")")
	})
	return nil
}

func (r *ParameterRouter) applyVocabularyEquals(ctx context.Context, plan *Plan, f vocabField, value v1.ParamValue) error {
	ids, err := r.internAll(ctx, f.vocType, value.Strings())
	if err != nil {
		return err
	}
	plan.each(func(b *EventQueryBuilder) {
		b.addWhere("e." + f.column + " = ANY(" + b.arg(pq.Array(ids)) + ")")
	})
	return nil
}

func applyWithDescendants(plan *Plan, f vocabField, value v1.ParamValue) error {
	var patterns []string
	for _, uri := range value.Strings() {
		patterns = append(patterns, descendantPatterns(uri)...)
	}
	plan.each(func(b *EventQueryBuilder) {
		b.addWhere(f.alias + ".uri LIKE ANY(" + b.arg(pq.Array(patterns)) + ")")
	})
	return nil
}

func (r *ParameterRouter) applyBizTransaction(ctx context.Context, plan *Plan, btType string, value v1.ParamValue) error {
	if btType == "" {
		return epciserr.QueryParameter("EQ_bizTransaction_ requires a transaction type")
	}
	typeID, err := r.intern(ctx, storage.VocBusinessTransactionType, btType)
	if err != nil {
		return err
	}
	valueIDs, err := r.internAll(ctx, storage.VocBusinessTransaction, value.Strings())
	if err != nil {
		return err
	}
	plan.each(func(b *EventQueryBuilder) {
		bt := b.joinBizTransactions()
		b.addHaving("bool_or(" + bt + ".type_id = " + b.arg(typeID) +
			" AND " + bt + ".value_id = ANY(" + b.arg(pq.Array(valueIDs)) + "))")
	})
	return nil
}

func applyMatchEPC(plan *Plan, value v1.ParamValue, matchParent bool) error {
	patterns := mapStrings(value.Strings(), epcPattern)
	plan.restrict(func(d *typeDescriptor) bool { return d.hasEPCs })
	plan.each(func(b *EventQueryBuilder) {
		epc := b.joinEPCs()
		ph := b.arg(pq.Array(patterns))
		cond := "bool_or(" + epc + ".epc LIKE ANY(" + ph + "))"
		if matchParent && b.desc.hasParent {
			cond = "(" + cond + " OR e.parent_id LIKE ANY(" + ph + "))"
		}
		b.addHaving(cond)
	})
	return nil
}

func applyMatchParent(plan *Plan, value v1.ParamValue) error {
	patterns := mapStrings(value.Strings(), epcPattern)
	plan.restrict(func(d *typeDescriptor) bool { return d.hasParent })
	plan.each(func(b *EventQueryBuilder) {
		b.addWhere("e.parent_id LIKE ANY(" + b.arg(pq.Array(patterns)) + ")")
	})
	return nil
}

func applyMatchClass(plan *Plan, value v1.ParamValue) error {
	patterns := mapStrings(value.Strings(), classPattern)
	plan.restrict(func(d *typeDescriptor) bool { return d.quantity })
	plan.each(func(b *EventQueryBuilder) {
		b.addWhere(fieldEPCClass.alias + ".uri LIKE ANY(" + b.arg(pq.Array(patterns)) + ")")
	})
	return nil
}

func applyQuantity(plan *Plan, op string, value v1.ParamValue) error {
	n, err := value.Int()
	if err != nil {
		return epciserr.QueryParameter("quantity: %v", err)
	}
	plan.restrict(func(d *typeDescriptor) bool { return d.quantity })
	plan.each(func(b *EventQueryBuilder) {
		b.addWhere("e.quantity " + op + " " + b.arg(n))
	})
	return nil
}

// extensionColumn returns the physical column holding values of kind and the typed argument.
func extensionColumn(v v1.ExtensionValue) (string, interface{}) {
	switch v.Kind {
	case v1.ExtensionInt:
		return "int_value", v.Int
	case v1.ExtensionFloat:
		return "float_value", v.Float
	case v1.ExtensionTime:
		return "time_value", v.Time
	default:
		return "str_value", v.String
	}
}

func applyExtension(plan *Plan, name, op, field string, value v1.ParamValue) error {
	var values []v1.ExtensionValue
	if op == "=" {
		raws := value.Strings()
		if value.Kind() == v1.KindString {
			// Extension text may itself contain commas; only a JSON list gives alternatives.
			text, _ := value.Text()
			raws = []string{text}
		}
		for _, raw := range raws {
			values = append(values, v1.CoerceExtensionValue(raw))
		}
	} else {
		raw, err := value.Text()
		if err != nil {
			return epciserr.QueryParameter("%s: %v", name, err)
		}
		v := v1.CoerceExtensionValue(raw)
		if v.Kind == v1.ExtensionString {
			return epciserr.QueryParameter("%s: %q is not a number or timestamp", name, raw)
		}
		values = append(values, v)
	}

	plan.each(func(b *EventQueryBuilder) {
		ext := b.joinExtensions()
		fieldPH := b.arg(field)
		terms := make([]string, 0, len(values))
		for _, v := range values {
			column, arg := extensionColumn(v)
			terms = append(terms, ext+"."+column+" "+op+" "+b.arg(arg))
		}
		cond := strings.Join(terms, " OR ")
		if len(terms) > 1 {
			cond = "(" + cond + ")"
		}
		b.addHaving("bool_or(" + ext + ".fieldname = " + fieldPH + " AND " + cond + ")")
	})
	return nil
}

func applyExists(plan *Plan, field string) error {
	switch field {
	case "eventTime", "recordTime":
		return nil
	case "eventTimeZoneOffset":
		plan.each(func(b *EventQueryBuilder) { b.addWhere("e.event_time_zone_offset IS NOT NULL") })
		return nil
	case "action":
		plan.restrict(func(d *typeDescriptor) bool { return d.hasAction })
		return nil
	case "parentID":
		plan.restrict(func(d *typeDescriptor) bool { return d.hasParent })
		plan.each(func(b *EventQueryBuilder) { b.addWhere("e.parent_id IS NOT NULL") })
		return nil
	case "epcList", "childEPCs":
		plan.restrict(func(d *typeDescriptor) bool { return d.hasEPCs && d.epcField == field })
		plan.each(func(b *EventQueryBuilder) {
			b.addHaving("bool_or(" + b.joinEPCs() + ".epc IS NOT NULL)")
		})
		return nil
	case "epcClass", "quantity":
		plan.restrict(func(d *typeDescriptor) bool { return d.quantity })
		return nil
	case "bizTransactionList":
		plan.each(func(b *EventQueryBuilder) {
			b.addHaving("bool_or(" + b.joinBizTransactions() + ".event_id IS NOT NULL)")
		})
		return nil
	}

	for _, f := range headerVocabFields {
		if f.name == field {
			plan.each(func(b *EventQueryBuilder) { b.addWhere("e." + f.column + " IS NOT NULL") })
			return nil
		}
	}

	if _, _, ok := v1.SplitExtensionFieldName(field); ok {
		plan.each(func(b *EventQueryBuilder) {
			ext := b.joinExtensions()
			b.addHaving("bool_or(" + ext + ".fieldname = " + b.arg(field) + ")")
		})
		return nil
	}

	return epciserr.QueryParameter("EXISTS_%s: unknown field", field)
}

// restrictToField drops the types that do not carry f.
func restrictToField(plan *Plan, f vocabField) {
	if f.name == fieldEPCClass.name {
		plan.restrict(func(d *typeDescriptor) bool { return d.quantity })
	}
}

func applyHasAttribute(plan *Plan, field string, value v1.ParamValue) error {
	f, ok := lookupAttributeField(field)
	if !ok {
		return epciserr.QueryParameter("HASATTR_%s: unknown field", field)
	}
	names := value.Strings()
	restrictToField(plan, f)
	plan.each(func(b *EventQueryBuilder) {
		attr := b.joinAttributes(f)
		b.addHaving("bool_or(" + attr + ".attr_name = ANY(" + b.arg(pq.Array(names)) + "))")
	})
	return nil
}

// applyEqualsAttribute handles EQATTR_<field> and EQATTR_<field>_<attrname>.
// Without an attribute name any attribute of the element may match.
func applyEqualsAttribute(plan *Plan, rest string, value v1.ParamValue) error {
	var (
		f        vocabField
		attrName string
		found    bool
	)
	for _, candidate := range attributeFields {
		if rest == candidate.name {
			f, found = candidate, true
			break
		}
		if strings.HasPrefix(rest, candidate.name+"_") && len(rest) > len(candidate.name)+1 {
			f, attrName, found = candidate, rest[len(candidate.name)+1:], true
			break
		}
	}
	if !found {
		return epciserr.QueryParameter("EQATTR_%s: unknown field", rest)
	}

	values := value.Strings()
	restrictToField(plan, f)
	plan.each(func(b *EventQueryBuilder) {
		attr := b.joinAttributes(f)
		cond := attr + ".attr_value = ANY(" + b.arg(pq.Array(values)) + ")"
		if attrName != "" {
			cond = attr + ".attr_name = " + b.arg(attrName) + " AND " + cond
		}
		b.addHaving("bool_or(" + cond + ")")
	})
	return nil
}

func applyOrder(plan *Plan, orderBy, direction string) error {
	switch orderBy {
	case "eventTime":
		plan.each(func(b *EventQueryBuilder) { b.addOrder("e.event_time " + direction) })
		return nil
	case "recordTime":
		plan.each(func(b *EventQueryBuilder) { b.addOrder("e.record_time " + direction) })
		return nil
	case "quantity":
		plan.each(func(b *EventQueryBuilder) {
			if b.desc.quantity {
				b.addOrder("e.quantity " + direction)
			}
		})
		return nil
	}

	if _, _, ok := v1.SplitExtensionFieldName(orderBy); !ok {
		return epciserr.QueryParameter("orderBy: unsupported field %q", orderBy)
	}

	plan.each(func(b *EventQueryBuilder) {
		ext := b.joinExtensions()
		ph := b.arg(orderBy)
		for _, column := range []string{"int_value", "float_value", "time_value", "str_value"} {
			b.addOrder("MAX(CASE WHEN " + ext + ".fieldname = " + ph + " THEN " + ext + "." + column +
				" END) " + direction + " NULLS LAST")
		}
	})
	return nil
}

// splitComparator splits "<cmp>_<field>" for the comparison prefixes.
func splitComparator(name string) (op, field string, ok bool) {
	prefix, field, found := strings.Cut(name, "_")
	if !found || field == "" {
		return "", "", false
	}
	op, ok = comparators[prefix]
	return op, field, ok
}

func positiveInt(name string, value v1.ParamValue) (int, error) {
	n, err := value.Int()
	if err != nil {
		return 0, epciserr.QueryParameter("%s: %v", name, err)
	}
	if n < 1 {
		return 0, epciserr.QueryParameter("%s must be positive, got %d", name, n)
	}
	return int(n), nil
}

func (r *ParameterRouter) intern(ctx context.Context, vocType, uri string) (int64, error) {
	id, err := r.interner.InternOrLookup(ctx, vocType, uri)
	if err != nil {
		return 0, epciserr.Implementation(err, "failed to resolve vocabulary %s", uri)
	}
	return id, nil
}

func (r *ParameterRouter) internAll(ctx context.Context, vocType string, uris []string) ([]int64, error) {
	ids := make([]int64, 0, len(uris))
	for _, uri := range uris {
		id, err := r.intern(ctx, vocType, uri)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func mapStrings(in []string, fn func(string) string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = fn(s)
	}
	return out
}
