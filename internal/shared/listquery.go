package shared

import (
	"encoding/json"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Reserved filter keys understood by every list endpoint in addition to the
// entity's own scalar fields.
const (
	FilterKeyQ            = "q"
	FilterKeyExclude      = "exclude"
	FilterKeyIsAllowedAll = "is_allowed_all"
	FilterKeyID           = "id"
)

const (
	sortMessage   = `sort must be like [field_name, "ASC" | "DESC"]`
	rangeMessage  = `range must be like [start, end] where start <= end and both are non-negative integers`
	filterMessage = `filter must be a valid object with field names and values`
)

// SortSpec is a validated sort instruction.
type SortSpec struct {
	Field string
	Desc  bool
}

// RangeSpec is a validated range instruction, translated to skip/take.
// Both bounds are inclusive: [0, 9] selects the first ten rows.
type RangeSpec struct {
	Start int
	End   int
}

// Skip returns the number of rows to skip.
func (r RangeSpec) Skip() int { return r.Start }

// Take returns the number of rows to return.
func (r RangeSpec) Take() int { return r.End - r.Start + 1 }

// Filter holds the parsed filter object.
type Filter map[string]any

// ListQuery is the parsed sort/range/filter triple every list operation accepts.
type ListQuery struct {
	Sort   *SortSpec
	Range  *RangeSpec
	Filter Filter
}

// ParseListQuery validates the raw JSON-encoded triple against the entity's
// scalar field names. Malformed input fails with a field-keyed
// InvalidArgument error.
func ParseListQuery(sortRaw, rangeRaw, filterRaw string, fields []string) (ListQuery, error) {
	var q ListQuery

	if sortRaw != "" {
		var parts []json.RawMessage
		if err := json.Unmarshal([]byte(sortRaw), &parts); err != nil || len(parts) != 2 {
			return q, InvalidField("sort", sortMessage)
		}
		var field, order string
		if err := json.Unmarshal(parts[0], &field); err != nil {
			return q, InvalidField("sort", sortMessage)
		}
		if err := json.Unmarshal(parts[1], &order); err != nil {
			return q, InvalidField("sort", sortMessage)
		}
		if !containsField(fields, field) || (order != "ASC" && order != "DESC") {
			return q, InvalidField("sort", sortMessage)
		}
		q.Sort = &SortSpec{Field: field, Desc: order == "DESC"}
	}

	if rangeRaw != "" {
		var bounds []int
		if err := json.Unmarshal([]byte(rangeRaw), &bounds); err != nil || len(bounds) != 2 {
			return q, InvalidField("range", rangeMessage)
		}
		start, end := bounds[0], bounds[1]
		if start < 0 || end < 0 || start > end {
			return q, InvalidField("range", rangeMessage)
		}
		q.Range = &RangeSpec{Start: start, End: end}
	}

	if filterRaw != "" {
		var parsed map[string]any
		if err := json.Unmarshal([]byte(filterRaw), &parsed); err != nil {
			return q, InvalidField("filter", filterMessage)
		}
		for key := range parsed {
			if containsField(fields, key) {
				continue
			}
			switch key {
			case FilterKeyQ, FilterKeyExclude, FilterKeyIsAllowedAll:
				continue
			}
			return q, InvalidField("filter", "invalid field '"+key+"' in filter")
		}
		q.Filter = parsed
	}

	return q, nil
}

func containsField(fields []string, name string) bool {
	for _, f := range fields {
		if f == name {
			return true
		}
	}
	return false
}

// Q returns the free-text contains term, if present.
func (f Filter) Q() (string, bool) {
	s, ok := f[FilterKeyQ].(string)
	return s, ok && s != ""
}

// ExcludeRoot reports whether root-flagged records should be excluded.
func (f Filter) ExcludeRoot() bool {
	v, ok := f[FilterKeyExclude]
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// RestrictToOwned reports whether the filter explicitly demands ownership
// scoping, i.e. is_allowed_all is present and false.
func (f Filter) RestrictToOwned() bool {
	v, ok := f[FilterKeyIsAllowedAll]
	if !ok {
		return false
	}
	b, isBool := v.(bool)
	return isBool && !b
}

// IDs returns the values of the reserved id filter as int64s.
func (f Filter) IDs() []int64 {
	raw, ok := f[FilterKeyID].([]any)
	if !ok {
		return nil
	}
	ids := make([]int64, 0, len(raw))
	for _, v := range raw {
		if n, ok := v.(float64); ok {
			ids = append(ids, int64(n))
		}
	}
	return ids
}

// Scalar returns the filter value for an entity field, skipping reserved keys.
func (f Filter) Scalar(key string) (any, bool) {
	switch key {
	case FilterKeyQ, FilterKeyExclude, FilterKeyIsAllowedAll, FilterKeyID:
		return nil, false
	}
	v, ok := f[key]
	return v, ok
}

// WhereBuilder accumulates SQL conditions with positional arguments.
type WhereBuilder struct {
	conds []string
	args  []any
}

// Bind registers an argument and returns its placeholder.
func (w *WhereBuilder) Bind(arg any) string {
	w.args = append(w.args, arg)
	return "$" + strconv.Itoa(len(w.args))
}

// Add appends a raw condition. Use Bind for its placeholders.
func (w *WhereBuilder) Add(cond string) {
	w.conds = append(w.conds, cond)
}

// AddEq appends an equality condition on column.
func (w *WhereBuilder) AddEq(column string, arg any) {
	w.conds = append(w.conds, column+" = "+w.Bind(arg))
}

// AddContains appends a case-insensitive contains condition on column.
// The needle is lowercased with the same per-rune mapping lower() applies
// to the column, so both sides of the comparison normalize identically.
func (w *WhereBuilder) AddContains(column, needle string) {
	lowered := cases.Lower(language.Und).String(needle)
	w.conds = append(w.conds, "lower("+column+") LIKE "+w.Bind("%"+lowered+"%"))
}

// Clause renders the accumulated conditions as a WHERE clause, or an empty
// string when nothing was added.
func (w *WhereBuilder) Clause() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

// Args returns the bound arguments in placeholder order.
func (w *WhereBuilder) Args() []any {
	return w.args
}

// FilterConfig tells ApplyTo how to translate the reserved filter keys for a
// particular table.
type FilterConfig struct {
	// QColumn is the column matched by the free-text q filter.
	QColumn string
	// RootColumn, when set, is forced false by the exclude filter.
	RootColumn string
	// CallerID is the authenticated staff id, used for ownership scoping.
	CallerID int64
	// IDColumn qualifies the reserved id filter; defaults to "id".
	IDColumn string
	// OwnerColumn qualifies ownership scoping; defaults to "created_by_id".
	OwnerColumn string
	// Fields maps permitted filter keys to column expressions. Keys absent
	// from the map fall back to the key itself.
	Columns map[string]string
}

// ApplyTo translates the parsed filter into SQL conditions. Ownership
// scoping follows the restricted-listing contract: when the caller asks for
// "not allowed all", results shrink to records the caller created, unioned
// with any explicitly requested ids.
func (q ListQuery) ApplyTo(w *WhereBuilder, cfg FilterConfig) {
	f := q.Filter
	if f == nil {
		return
	}

	if term, ok := f.Q(); ok {
		col := cfg.QColumn
		if col == "" {
			col = "name"
		}
		w.AddContains(col, term)
	}

	if f.ExcludeRoot() && cfg.RootColumn != "" {
		w.Add(cfg.RootColumn + " = FALSE")
	}

	idCol := cfg.IDColumn
	if idCol == "" {
		idCol = "id"
	}
	ownerCol := cfg.OwnerColumn
	if ownerCol == "" {
		ownerCol = "created_by_id"
	}
	if f.RestrictToOwned() {
		if ids := f.IDs(); len(ids) > 0 {
			w.Add("(" + ownerCol + " = " + w.Bind(cfg.CallerID) + " OR " + idCol + " = ANY(" + w.Bind(ids) + "))")
		} else {
			w.AddEq(ownerCol, cfg.CallerID)
		}
	} else if ids := f.IDs(); len(ids) > 0 {
		w.Add(idCol + " = ANY(" + w.Bind(ids) + ")")
	}

	for key := range f {
		v, ok := f.Scalar(key)
		if !ok {
			continue
		}
		col := key
		if cfg.Columns != nil {
			if mapped, ok := cfg.Columns[key]; ok {
				col = mapped
			}
		}
		if s, isStr := v.(string); isStr {
			w.AddContains(col, s)
		} else {
			w.AddEq(col, v)
		}
	}
}

// OrderLimit renders the ORDER BY / LIMIT / OFFSET tail for the query.
// Sort fields were validated at parse time against the entity field list, so
// interpolation here is safe.
func (q ListQuery) OrderLimit(defaultOrder string) string {
	return q.OrderLimitWith(nil, defaultOrder)
}

// OrderLimitWith is OrderLimit with a field-to-column mapping for queries
// whose sortable fields need table qualification.
func (q ListQuery) OrderLimitWith(columns map[string]string, defaultOrder string) string {
	var sb strings.Builder
	switch {
	case q.Sort != nil:
		col := q.Sort.Field
		if mapped, ok := columns[col]; ok {
			col = mapped
		}
		dir := " ASC"
		if q.Sort.Desc {
			dir = " DESC"
		}
		sb.WriteString(" ORDER BY " + col + dir)
	case defaultOrder != "":
		sb.WriteString(" ORDER BY " + defaultOrder)
	}
	if q.Range != nil {
		sb.WriteString(" LIMIT " + strconv.Itoa(q.Range.Take()) + " OFFSET " + strconv.Itoa(q.Range.Skip()))
	}
	return sb.String()
}
