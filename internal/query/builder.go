package query

import (
	"fmt"
	"strings"
)

// Aliases of the optional side-table joins.
const (
	epcAlias       = "epc"
	bizTransAlias  = "bt"
	extensionAlias = "ext"
)

// EventQueryBuilder accumulates the joins, predicates, ordering and limit of
// the statement for one event type. Each side table is joined at most once;
// predicates over a side table go to HAVING as bool_or terms so that several
// of them still each require their own matching side row.
type EventQueryBuilder struct {
	desc *typeDescriptor

	args   []interface{}
	joins  []string
	where  []string
	having []string
	order  []string
	limit  int

	joinedEPCs       bool
	joinedBizTrans   bool
	joinedExtensions bool
	joinedAttributes map[string]bool
}

func newEventQueryBuilder(desc *typeDescriptor) *EventQueryBuilder {
	return &EventQueryBuilder{
		desc:             desc,
		joinedAttributes: make(map[string]bool),
	}
}

// arg binds v and returns its placeholder.
func (b *EventQueryBuilder) arg(v interface{}) string {
	b.args = append(b.args, v)
	return fmt.Sprintf("$%d", len(b.args))
}

func (b *EventQueryBuilder) addWhere(cond string)  { b.where = append(b.where, cond) }
func (b *EventQueryBuilder) addHaving(cond string) { b.having = append(b.having, cond) }
func (b *EventQueryBuilder) addOrder(term string)  { b.order = append(b.order, term) }

func (b *EventQueryBuilder) joinEPCs() string {
	if !b.joinedEPCs {
		b.joins = append(b.joins, fmt.Sprintf("LEFT JOIN %s %s ON %s.event_id = e.id",
			b.desc.epcTable(), epcAlias, epcAlias))
		b.joinedEPCs = true
	}
	return epcAlias
}

func (b *EventQueryBuilder) joinBizTransactions() string {
	if !b.joinedBizTrans {
		b.joins = append(b.joins, fmt.Sprintf("LEFT JOIN %s %s ON %s.event_id = e.id",
			b.desc.bizTransTable(), bizTransAlias, bizTransAlias))
		b.joinedBizTrans = true
	}
	return bizTransAlias
}

func (b *EventQueryBuilder) joinExtensions() string {
	if !b.joinedExtensions {
		b.joins = append(b.joins, fmt.Sprintf("LEFT JOIN %s %s ON %s.event_id = e.id",
			b.desc.extensionTable(), extensionAlias, extensionAlias))
		b.joinedExtensions = true
	}
	return extensionAlias
}

// joinAttributes joins the attribute table of the vocabulary element f refers to.
func (b *EventQueryBuilder) joinAttributes(f vocabField) string {
	alias := "attr_" + f.column
	if !b.joinedAttributes[f.name] {
		b.joins = append(b.joins, fmt.Sprintf("LEFT JOIN voc_attributes %s ON %s.voc_id = e.%s",
			alias, alias, f.column))
		b.joinedAttributes[f.name] = true
	}
	return alias
}

// grouped reports whether a one-to-many join requires collapsing rows per event.
func (b *EventQueryBuilder) grouped() bool {
	return len(b.joins) > 0
}

func (b *EventQueryBuilder) selectColumns() []string {
	cols := []string{"e.id", "e.event_time", "e.record_time", "e.event_time_zone_offset"}
	for _, f := range headerVocabFields {
		cols = append(cols, f.alias+".uri")
	}
	switch {
	case b.desc.quantity:
		cols = append(cols, fieldEPCClass.alias+".uri", "e.quantity")
	case b.desc.hasParent:
		cols = append(cols, "e.action", "e.parent_id")
	default:
		cols = append(cols, "e.action")
	}
	return cols
}

func (b *EventQueryBuilder) groupColumns() []string {
	cols := []string{"e.id"}
	for _, f := range b.desc.vocabFields() {
		cols = append(cols, f.alias+".uri")
	}
	return cols
}

// Build renders the statement and its positional arguments.
func (b *EventQueryBuilder) Build() (string, []interface{}) {
	parts := []string{
		"SELECT " + strings.Join(b.selectColumns(), ", "),
		"FROM " + b.desc.table + " e",
	}
	for _, f := range b.desc.vocabFields() {
		parts = append(parts, fmt.Sprintf("LEFT JOIN voc_elements %s ON %s.id = e.%s", f.alias, f.alias, f.column))
	}
	parts = append(parts, b.joins...)

	if len(b.where) > 0 {
		parts = append(parts, "WHERE "+strings.Join(b.where, " AND "))
	}
	if b.grouped() {
		parts = append(parts, "GROUP BY "+strings.Join(b.groupColumns(), ", "))
	}
	if len(b.having) > 0 {
		parts = append(parts, "HAVING "+strings.Join(b.having, " AND "))
	}
	if len(b.order) > 0 {
		parts = append(parts, "ORDER BY "+strings.Join(b.order, ", "))
	}
	if b.limit > 0 {
		parts = append(parts, fmt.Sprintf("LIMIT %d", b.limit))
	}

	return strings.Join(parts, " "), b.args
}

// JoinCount returns how many times table is joined by the rendered statement.
func (b *EventQueryBuilder) JoinCount(table string) int {
	n := 0
	for _, j := range b.joins {
		if strings.HasPrefix(j, "LEFT JOIN "+table+" ") {
			n++
		}
	}
	return n
}

// escapeLike escapes LIKE metacharacters so s matches literally.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// epcPattern turns an EPC match expression into a LIKE pattern. '*' matches any
// run of characters and an idpat URN also matches the instance ids it describes.
func epcPattern(expr string) string {
	p := escapeLike(expr)
	p = strings.Replace(p, ":idpat:", ":id:", 1)
	return strings.ReplaceAll(p, "*", "%")
}

// classPattern is epcPattern for epcClass values, which stay idpat URNs.
func classPattern(expr string) string {
	return strings.ReplaceAll(escapeLike(expr), "*", "%")
}

// descendantSeparators end a parent URI inside a child URI.
var descendantSeparators = []string{":", ".", "/"}

// descendantPatterns match uri itself and every element that continues it
// after a separator. Siblings sharing a textual prefix do not match.
func descendantPatterns(uri string) []string {
	base := escapeLike(uri)
	out := []string{base}
	for _, sep := range descendantSeparators {
		out = append(out, base+sep+"%")
	}
	return out
}
