package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	v1 "github.com/aevon-lab/epcis-repository/internal/api/v1"
	"github.com/aevon-lab/epcis-repository/internal/core/storage"
	"github.com/lib/pq"
)

// InternVocabulary returns the id of (vocType, uri), inserting the element on
// first use. The unique (voc_type, uri) constraint makes concurrent inserts
// collapse to one row; the loser re-reads the winner's id.
func (a *Adapter) InternVocabulary(ctx context.Context, vocType, uri string) (int64, error) {
	id, err := a.lookupVocabulary(ctx, vocType, uri)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, err
	}

	err = a.stmtInsertVocabulary.QueryRowContext(ctx, vocType, uri).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("failed to insert vocabulary element: %w", err)
	}

	// ON CONFLICT DO NOTHING - another caller inserted it between our lookup and insert.
	id, err = a.lookupVocabulary(ctx, vocType, uri)
	if err != nil {
		return 0, fmt.Errorf("failed to re-read vocabulary element after conflict: %w", err)
	}
	return id, nil
}

func (a *Adapter) lookupVocabulary(ctx context.Context, vocType, uri string) (int64, error) {
	var id int64
	err := a.stmtLookupVocabulary.QueryRowContext(ctx, vocType, uri).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, err
	}
	if err != nil {
		return 0, fmt.Errorf("failed to look up vocabulary element: %w", err)
	}
	return id, nil
}

// UpsertVocabularyAttributes sets the given attributes of one element, replacing existing values.
func (a *Adapter) UpsertVocabularyAttributes(ctx context.Context, vocID int64, attrs map[string]string) error {
	if len(attrs) == 0 {
		return nil
	}

	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("upsert attributes: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	for _, name := range sortedKeys(attrs) {
		if _, err := tx.ExecContext(ctx, queryUpsertVocabularyAttribute, vocID, name, attrs[name]); err != nil {
			return fmt.Errorf("upsert attributes: %s: %w", name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("upsert attributes: commit: %w", err)
	}
	return nil
}

// buildVocabularyQuery renders the element selection for filter.
func buildVocabularyQuery(filter storage.VocabularyFilter) (string, []interface{}) {
	var (
		sb    strings.Builder
		args  []interface{}
		conds []string
	)

	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	sb.WriteString("SELECT v.id, v.voc_type, v.uri FROM voc_elements v")

	if len(filter.Types) > 0 {
		conds = append(conds, "v.voc_type = ANY("+arg(pq.Array(filter.Types))+")")
	}

	var nameConds []string
	if len(filter.URIs) > 0 {
		nameConds = append(nameConds, "v.uri = ANY("+arg(pq.Array(filter.URIs))+")")
	}
	if len(filter.URIPrefixes) > 0 {
		var patterns []string
		for _, p := range filter.URIPrefixes {
			base := escapeLike(p)
			patterns = append(patterns, base, base+":%", base+".%", base+"/%")
		}
		nameConds = append(nameConds, "v.uri LIKE ANY("+arg(pq.Array(patterns))+")")
	}
	if len(nameConds) > 0 {
		conds = append(conds, "("+strings.Join(nameConds, " OR ")+")")
	}

	if len(conds) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(conds, " AND "))
	}

	sb.WriteString(" ORDER BY v.voc_type ASC, v.uri ASC")

	if filter.Limit > 0 {
		sb.WriteString(" LIMIT " + arg(filter.Limit))
	}

	return sb.String(), args
}

// QueryVocabulary returns elements matching filter, with attributes when requested.
func (a *Adapter) QueryVocabulary(ctx context.Context, filter storage.VocabularyFilter) ([]v1.VocabularyElement, error) {
	query, args := buildVocabularyQuery(filter)

	rows, err := a.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query vocabulary: %w", err)
	}
	defer rows.Close()

	var (
		elements []v1.VocabularyElement
		ids      []int64
	)
	for rows.Next() {
		var (
			id  int64
			elt v1.VocabularyElement
		)
		if err := rows.Scan(&id, &elt.Type, &elt.URI); err != nil {
			return nil, fmt.Errorf("failed to scan vocabulary row: %w", err)
		}
		elements = append(elements, elt)
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating vocabulary: %w", err)
	}

	if !filter.IncludeAttributes || len(ids) == 0 {
		return elements, nil
	}

	attrs, err := a.loadAttributes(ctx, ids, filter.AttributeNames)
	if err != nil {
		return nil, err
	}
	for i, id := range ids {
		elements[i].Attributes = attrs[id]
	}
	return elements, nil
}

func (a *Adapter) loadAttributes(ctx context.Context, ids []int64, names []string) (map[int64]map[string]string, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if len(names) > 0 {
		rows, err = a.db.QueryContext(ctx, querySelectVocabularyAttributesByName, pq.Array(ids), pq.Array(names))
	} else {
		rows, err = a.db.QueryContext(ctx, querySelectVocabularyAttributes, pq.Array(ids))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query vocabulary attributes: %w", err)
	}
	defer rows.Close()

	out := make(map[int64]map[string]string)
	for rows.Next() {
		var (
			id    int64
			name  string
			value sql.NullString
		)
		if err := rows.Scan(&id, &name, &value); err != nil {
			return nil, fmt.Errorf("failed to scan vocabulary attribute: %w", err)
		}
		if out[id] == nil {
			out[id] = make(map[string]string)
		}
		out[id][name] = value.String
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating vocabulary attributes: %w", err)
	}
	return out, nil
}

// escapeLike escapes LIKE metacharacters so s matches literally.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
