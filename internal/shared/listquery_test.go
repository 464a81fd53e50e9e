package shared

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var staffFields = []string{"id", "email", "is_root", "position_id"}

func TestParseListQuerySort(t *testing.T) {
	q, err := ParseListQuery(`["email","DESC"]`, "", "", staffFields)
	require.NoError(t, err)
	require.NotNil(t, q.Sort)
	assert.Equal(t, "email", q.Sort.Field)
	assert.True(t, q.Sort.Desc)
}

func TestParseListQuerySortErrors(t *testing.T) {
	cases := map[string]string{
		"unknown field": `["nope","ASC"]`,
		"bad order":     `["email","UP"]`,
		"not an array":  `{"field":"email"}`,
		"wrong arity":   `["email"]`,
		"numeric field": `[1,"ASC"]`,
		"lowercase asc": `["email","asc"]`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseListQuery(raw, "", "", staffFields)
			require.Error(t, err)
			assert.Equal(t, KindInvalidArgument, KindOf(err))
			assert.Equal(t, map[string][]string{"sort": {sortMessage}}, FieldsOf(err))
		})
	}
}

func TestParseListQueryRange(t *testing.T) {
	q, err := ParseListQuery("", `[20,30]`, "", staffFields)
	require.NoError(t, err)
	require.NotNil(t, q.Range)
	assert.Equal(t, 20, q.Range.Skip())
	assert.Equal(t, 11, q.Range.Take())
}

func TestRangeBoundsAreInclusive(t *testing.T) {
	q, err := ParseListQuery("", `[0,9]`, "", staffFields)
	require.NoError(t, err)
	require.NotNil(t, q.Range)
	assert.Equal(t, 0, q.Range.Skip())
	assert.Equal(t, 10, q.Range.Take())

	q, err = ParseListQuery("", `[5,5]`, "", staffFields)
	require.NoError(t, err)
	assert.Equal(t, 1, q.Range.Take())
}

func TestParseListQueryRangeErrors(t *testing.T) {
	for _, raw := range []string{`[30,20]`, `[-1,5]`, `[1]`, `["a","b"]`, `{}`} {
		_, err := ParseListQuery("", raw, "", staffFields)
		require.Error(t, err, "range %s", raw)
		assert.Equal(t, map[string][]string{"range": {rangeMessage}}, FieldsOf(err))
	}
}

func TestParseListQueryFilterUnknownKey(t *testing.T) {
	_, err := ParseListQuery("", "", `{"secret_field":1}`, staffFields)
	require.Error(t, err)
	assert.Equal(t, map[string][]string{"filter": {"invalid field 'secret_field' in filter"}}, FieldsOf(err))
}

func TestParseListQueryFilterReservedKeys(t *testing.T) {
	q, err := ParseListQuery("", "", `{"q":"ana","exclude":true,"is_allowed_all":false,"id":[1,2]}`, staffFields)
	require.NoError(t, err)

	term, ok := q.Filter.Q()
	assert.True(t, ok)
	assert.Equal(t, "ana", term)
	assert.True(t, q.Filter.ExcludeRoot())
	assert.True(t, q.Filter.RestrictToOwned())
	assert.Equal(t, []int64{1, 2}, q.Filter.IDs())
}

func TestRestrictToOwnedAbsentOrTrue(t *testing.T) {
	q, err := ParseListQuery("", "", `{"q":"x"}`, staffFields)
	require.NoError(t, err)
	assert.False(t, q.Filter.RestrictToOwned())

	q, err = ParseListQuery("", "", `{"is_allowed_all":true}`, staffFields)
	require.NoError(t, err)
	assert.False(t, q.Filter.RestrictToOwned(), "is_allowed_all=true must not scope")
}

func TestApplyToOwnershipScoping(t *testing.T) {
	q, err := ParseListQuery("", "", `{"is_allowed_all":false,"id":[4,5]}`, staffFields)
	require.NoError(t, err)

	var w WhereBuilder
	q.ApplyTo(&w, FilterConfig{CallerID: 7})
	clause := w.Clause()
	assert.Contains(t, clause, "created_by_id = $1 OR id = ANY($2)")
	require.Len(t, w.Args(), 2)
	assert.Equal(t, int64(7), w.Args()[0])
	assert.Equal(t, []int64{4, 5}, w.Args()[1])
}

func TestApplyToOwnershipScopingWithoutIDs(t *testing.T) {
	q, err := ParseListQuery("", "", `{"is_allowed_all":false}`, staffFields)
	require.NoError(t, err)

	var w WhereBuilder
	q.ApplyTo(&w, FilterConfig{CallerID: 7})
	assert.Equal(t, " WHERE created_by_id = $1", w.Clause())
}

func TestApplyToScalarFilters(t *testing.T) {
	q, err := ParseListQuery("", "", `{"email":"Ana","position_id":3}`, staffFields)
	require.NoError(t, err)

	var w WhereBuilder
	q.ApplyTo(&w, FilterConfig{})
	clause := w.Clause()
	assert.Contains(t, clause, "lower(email) LIKE")
	assert.Contains(t, clause, "position_id = ")
	assert.Contains(t, w.Args(), "%ana%")
}

func TestAddContainsMatchesSQLLowercasing(t *testing.T) {
	var w WhereBuilder
	w.AddContains("name", "Straße")

	// Postgres lower() maps runes one at a time, so ß stays ß. The bound
	// needle must do the same or the pattern can never match the column.
	assert.Equal(t, []any{"%straße%"}, w.Args())

	w = WhereBuilder{}
	w.AddContains("name", "İstanbul")
	assert.NotContains(t, w.Args()[0], "İ")
}

func TestApplyToExcludeRoot(t *testing.T) {
	q, err := ParseListQuery("", "", `{"exclude":true}`, staffFields)
	require.NoError(t, err)

	var w WhereBuilder
	q.ApplyTo(&w, FilterConfig{RootColumn: "is_root"})
	assert.Contains(t, w.Clause(), "is_root = FALSE")
}

func TestOrderLimit(t *testing.T) {
	q, err := ParseListQuery(`["id","DESC"]`, `[0,25]`, "", staffFields)
	require.NoError(t, err)
	assert.Equal(t, " ORDER BY id DESC LIMIT 26 OFFSET 0", q.OrderLimit("id"))
}

func TestOrderLimitWithQualifiedColumns(t *testing.T) {
	q, err := ParseListQuery(`["id","ASC"]`, "", "", staffFields)
	require.NoError(t, err)
	got := q.OrderLimitWith(map[string]string{"id": "g.id"}, "g.id")
	assert.Equal(t, " ORDER BY g.id ASC", got)
}

func TestOrderLimitDefault(t *testing.T) {
	q, err := ParseListQuery("", "", "", staffFields)
	require.NoError(t, err)
	assert.Equal(t, " ORDER BY id", q.OrderLimit("id"))
}
