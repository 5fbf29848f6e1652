package report

import (
	"bytes"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognicore/basket/pkg/basket"
	"github.com/cognicore/basket/pkg/basket/rules"
)

func minedGroceries(t *testing.T, opts basket.Options) *basket.Result {
	t.Helper()
	res, err := basket.Mine([][]string{
		{"apple", "milk"},
		{"apple", "bread"},
		{"apple", "milk", "bread"},
		{"milk"},
	}, opts)
	require.NoError(t, err)
	return res
}

func fixedBuilder(at time.Time) *Builder {
	b := New()
	b.now = func() time.Time { return at }
	return b
}

func TestBuild(t *testing.T) {
	opts := basket.DefaultOptions()
	opts.MinSupport = 0.5
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	r := fixedBuilder(at).Build("groceries.txt", minedGroceries(t, opts))

	id, err := ulid.ParseStrict(r.ID)
	require.NoError(t, err)
	assert.Equal(t, ulid.Timestamp(at), id.Time())
	assert.Equal(t, at, r.CreatedAt)
	assert.Equal(t, "groceries.txt", r.Source)
	assert.Equal(t, "lift", r.Params.PivotBy)
	assert.Equal(t, 4, r.Stats.Transactions)

	require.Len(t, r.Rules, 2)
	assert.Equal(t, "apple", r.Rules[0].Antecedents)
	assert.Equal(t, "bread", r.Rules[0].Consequents)
	assert.Len(t, r.FrequentItemsets, 5)
	assert.Equal(t, []string{"apple", "bread"}, r.Pivot.Rows)
}

func TestBuilderIDsAreUniqueAndOrdered(t *testing.T) {
	b := fixedBuilder(time.Now())
	res := minedGroceries(t, basket.DefaultOptions())

	first := b.Build("a", res).ID
	second := b.Build("b", res).ID
	assert.NotEqual(t, first, second)
	assert.Less(t, first, second)
}

func TestTopRulesColumns(t *testing.T) {
	opts := basket.DefaultOptions()
	opts.MinSupport = 0.5

	r := New().Build("", minedGroceries(t, opts))
	assert.Equal(t, []string{"antecedents", "consequents", "support", "confidence", "lift"}, r.TopRulesTable().Columns)

	opts.SortBy = rules.Conviction
	r = New().Build("", minedGroceries(t, opts))
	tbl := r.TopRulesTable()
	assert.Equal(t, []string{"antecedents", "consequents", "support", "confidence", "lift", "conviction"}, tbl.Columns)
	require.NotEmpty(t, tbl.Rows)
	assert.Equal(t, "inf", tbl.Rows[0][5], "bread->apple has confidence 1")
}

func TestEmptyTablesKeepShape(t *testing.T) {
	res, err := basket.Mine(nil, basket.DefaultOptions())
	require.NoError(t, err)
	r := New().Build("", res)

	assert.True(t, r.NoData)
	tables := r.Tables()
	require.Len(t, tables, 4)
	for _, tbl := range tables {
		assert.NotEmpty(t, tbl.Columns, tbl.Name)
		assert.NotNil(t, tbl.Rows, tbl.Name)
		assert.Empty(t, tbl.Rows, tbl.Name)
	}
	assert.Equal(t, []string{TableRules, TableTopRules, TablePivot, TableFrequentItemsets},
		[]string{tables[0].Name, tables[1].Name, tables[2].Name, tables[3].Name})
	assert.Equal(t, []string{"antecedents"}, tables[2].Columns)

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, r))
	assert.Contains(t, buf.String(), `"rules": []`)
	assert.Contains(t, buf.String(), `"frequent_itemsets": []`)
}

func TestRender(t *testing.T) {
	opts := basket.DefaultOptions()
	opts.MinSupport = 0.5
	r := New().Build("", minedGroceries(t, opts))

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, r))
	out := strings.ToLower(buf.String())
	for _, name := range []string{"rules (2)", "top_rules (2)", "pivot_data (2)", "frequent_itemsets (5)"} {
		assert.Contains(t, out, name)
	}
	assert.Contains(t, out, "1.3333")

	buf.Reset()
	require.NoError(t, Render(&buf, r, TableTopRules))
	assert.Contains(t, strings.ToLower(buf.String()), "top_rules")
	assert.NotContains(t, strings.ToLower(buf.String()), "frequent_itemsets")

	assert.Error(t, Render(&buf, r, "nope"))
}

func TestJSONRoundTripKeepsInfinity(t *testing.T) {
	opts := basket.DefaultOptions()
	opts.MinSupport = 0.5
	r := New().Build("src", minedGroceries(t, opts))

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, r))
	assert.Contains(t, buf.String(), `"conviction": "inf"`)

	back, err := Unmarshal(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, r.ID, back.ID)
	assert.True(t, r.CreatedAt.Equal(back.CreatedAt))
	assert.Equal(t, r.Rules, back.Rules)
	assert.Equal(t, r.Pivot, back.Pivot)
	assert.Equal(t, r.FrequentItemsets, back.FrequentItemsets)
}

func TestNumber(t *testing.T) {
	for _, tc := range []struct {
		in   float64
		json string
		str  string
	}{
		{1.5, `1.5`, "1.5000"},
		{math.Inf(1), `"inf"`, "inf"},
		{math.Inf(-1), `"-inf"`, "-inf"},
	} {
		b, err := Number(tc.in).MarshalJSON()
		require.NoError(t, err)
		assert.Equal(t, tc.json, string(b))
		assert.Equal(t, tc.str, Number(tc.in).String())

		var n Number
		require.NoError(t, n.UnmarshalJSON(b))
		assert.Equal(t, tc.in, float64(n))
	}

	var n Number
	require.NoError(t, n.UnmarshalJSON([]byte(`"nan"`)))
	assert.True(t, math.IsNaN(float64(n)))
	assert.Error(t, n.UnmarshalJSON([]byte(`"many"`)))
}

func TestSummarize(t *testing.T) {
	r := New().Build("comments.jsonl", minedGroceries(t, basket.DefaultOptions()))
	s := r.Summarize()
	assert.Equal(t, r.ID, s.ID)
	assert.Equal(t, "comments.jsonl", s.Source)
	assert.Equal(t, 4, s.Transactions)
	assert.Equal(t, len(r.Rules), s.Rules)
}

func TestStopwordCandidatesTable(t *testing.T) {
	r := New().Build("", minedGroceries(t, basket.DefaultOptions()))
	require.Len(t, r.Tables(), 4, "no candidates, no table")

	tbl, ok := r.Table(TableStopwords)
	require.True(t, ok)
	assert.Empty(t, tbl.Rows)

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, r))
	assert.NotContains(t, buf.String(), TableStopwords)

	r.StopwordCandidates = []StopwordRow{{Token: "the", Score: 1, Support: 1, LiftMax: 1}}
	tables := r.Tables()
	require.Len(t, tables, 5)
	assert.Equal(t, TableStopwords, tables[4].Name)
	assert.Equal(t, [][]string{{"the", "1.000", "1.000", "1.000"}}, tables[4].Rows)

	buf.Reset()
	require.NoError(t, WriteJSON(&buf, r))
	back, err := Unmarshal(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, r.StopwordCandidates, back.StopwordCandidates)
}
