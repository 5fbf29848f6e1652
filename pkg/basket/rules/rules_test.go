package rules

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognicore/basket/pkg/basket/apriori"
	"github.com/cognicore/basket/pkg/basket/encoder"
	"github.com/cognicore/basket/pkg/basket/internalerr"
	"github.com/cognicore/basket/pkg/basket/itemset"
)

func mine(t *testing.T, txs [][]string, minSupport float64, maxLen int) (*apriori.Table, *encoder.Matrix) {
	t.Helper()
	m := encoder.Encode(txs)
	tb, err := apriori.Mine(m, apriori.Params{MinSupport: minSupport, MaxLen: maxLen})
	require.NoError(t, err)
	return tb, m
}

func findRule(rs []Rule, ante, cons string) (Rule, bool) {
	for _, r := range rs {
		if r.AntecedentLabel() == ante && r.ConsequentLabel() == cons {
			return r, true
		}
	}
	return Rule{}, false
}

func TestGenerateGroceries(t *testing.T) {
	tb, m := mine(t, [][]string{
		{"apple", "milk"},
		{"apple", "bread"},
		{"apple", "milk", "bread"},
		{"milk"},
	}, 0.5, 2)

	out, err := Generate(tb, m, Confidence, 0)
	require.NoError(t, err)
	require.Len(t, out.Rules, 4)
	assert.Zero(t, out.Rescans)

	r, ok := findRule(out.Rules, "bread", "apple")
	require.True(t, ok)
	assert.Equal(t, 0.5, r.Support)
	assert.Equal(t, 0.5, r.AntecedentSupport)
	assert.Equal(t, 0.75, r.ConsequentSupport)
	assert.Equal(t, 1.0, r.Confidence)
	assert.InDelta(t, 1/0.75, r.Lift, 1e-12)
	assert.InDelta(t, 0.5-0.5*0.75, r.Leverage, 1e-12)
	assert.True(t, math.IsInf(r.Conviction, 1))

	r, ok = findRule(out.Rules, "apple", "milk")
	require.True(t, ok)
	assert.InDelta(t, 2.0/3.0, r.Confidence, 1e-12)
	assert.InDelta(t, (2.0/3.0)/0.75, r.Lift, 1e-12)
	assert.InDelta(t, (1-0.75)/(1-2.0/3.0), r.Conviction, 1e-12)
}

func TestGenerateThresholdFilters(t *testing.T) {
	tb, m := mine(t, [][]string{
		{"apple", "milk"},
		{"apple", "bread"},
		{"apple", "milk", "bread"},
		{"milk"},
	}, 0.5, 2)

	out, err := Generate(tb, m, Lift, 1.0)
	require.NoError(t, err)
	// apple/milk has lift 0.89 both ways; apple/bread has 1.33 both ways.
	require.Len(t, out.Rules, 2)
	for _, r := range out.Rules {
		assert.GreaterOrEqual(t, r.Lift, 1.0)
		assert.True(t, r.Antecedents.Union(r.Consequents).Equal(itemset.New("apple", "bread")))
	}
}

func TestGenerateRepeatedTransaction(t *testing.T) {
	txs := make([][]string, 10)
	for i := range txs {
		txs[i] = []string{"coffee", "sugar"}
	}
	tb, m := mine(t, txs, 0.1, 2)

	out, err := Generate(tb, m, Lift, 1.0)
	require.NoError(t, err)

	// one rule per direction of the single pair
	require.Len(t, out.Rules, 2)
	for _, r := range out.Rules {
		assert.Equal(t, 1.0, r.Confidence)
		assert.Equal(t, 1/r.ConsequentSupport, r.Lift)
	}
	_, ok := findRule(out.Rules, "coffee", "sugar")
	assert.True(t, ok)
	_, ok = findRule(out.Rules, "sugar", "coffee")
	assert.True(t, ok)
}

func TestGenerateNoPairs(t *testing.T) {
	tb, m := mine(t, [][]string{{"a"}, {"b"}}, 0.5, 2)
	out, err := Generate(tb, m, Lift, 1.0)
	require.NoError(t, err)
	assert.Empty(t, out.Rules)
}

func TestGenerateUnknownMetric(t *testing.T) {
	tb, m := mine(t, [][]string{{"a", "b"}}, 0.5, 2)
	_, err := Generate(tb, m, "gain", 1.0)
	require.Error(t, err)

	var pe *internalerr.ParamError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "metric", pe.Param)
	assert.Contains(t, pe.Accepted, Lift)
	assert.Contains(t, pe.Accepted, Conviction)
	assert.Contains(t, pe.Accepted, Leverage)
}

func TestGenerateInvalidThreshold(t *testing.T) {
	tb, m := mine(t, [][]string{{"a", "b"}}, 0.5, 2)

	for _, tc := range []struct {
		metric    string
		threshold float64
	}{
		{Lift, math.NaN()},
		{Lift, -1},
		{Confidence, 1.5},
		{Support, -0.1},
	} {
		_, err := Generate(tb, m, tc.metric, tc.threshold)
		assert.ErrorIs(t, err, internalerr.ErrInvalidParameter, "%s %v", tc.metric, tc.threshold)
	}

	_, err := Generate(tb, m, Leverage, -0.5)
	assert.NoError(t, err)
}

func TestGenerateNeverRescansOrDividesByZero(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	txs := make([][]string, 300)
	for i := range txs {
		for j := 0; j < 1+rng.Intn(5); j++ {
			txs[i] = append(txs[i], string(rune('a'+rng.Intn(9))))
		}
	}
	tb, m := mine(t, txs, 0.03, 3)

	out, err := Generate(tb, m, Support, 0)
	require.NoError(t, err)
	require.NotEmpty(t, out.Rules)
	assert.Zero(t, out.Rescans, "every antecedent and consequent is itself frequent")

	for _, r := range out.Rules {
		assert.Greater(t, r.AntecedentSupport, 0.0)
		assert.Greater(t, r.ConsequentSupport, 0.0)
		assert.False(t, math.IsNaN(r.Confidence))
		assert.False(t, math.IsInf(r.Lift, 0))

		assert.True(t, r.Antecedents.Disjoint(r.Consequents))
		assert.NotEmpty(t, r.Antecedents)
		assert.NotEmpty(t, r.Consequents)
		_, ok := tb.Lookup(r.Antecedents.Union(r.Consequents))
		assert.True(t, ok)

		assert.GreaterOrEqual(t, r.Support, 0.0)
		assert.LessOrEqual(t, r.Support, 1.0)
		assert.GreaterOrEqual(t, r.Confidence, 0.0)
		assert.LessOrEqual(t, r.Confidence, 1.0)
		assert.GreaterOrEqual(t, r.Lift, 0.0)
	}
}

func TestGenerateEnumeratesAllSplits(t *testing.T) {
	tb, m := mine(t, [][]string{{"a", "b", "c"}, {"a", "b", "c"}}, 0.5, 3)
	out, err := Generate(tb, m, Support, 0)
	require.NoError(t, err)
	// three pairs x 2 directions + one triple x 6 splits
	assert.Len(t, out.Rules, 12)
}

type countingSource struct {
	m     *encoder.Matrix
	calls int
}

func (c *countingSource) Support(items []string) int {
	c.calls++
	return c.m.Support(items)
}

func TestGenerateRescansMissingSubset(t *testing.T) {
	// Only the pair was kept, so both sides must be recounted.
	m := encoder.Encode([][]string{{"a", "b"}, {"a"}, {"a", "b"}, {"c"}})
	pairOnly := apriori.NewTable(m.Rows(), []apriori.Frequent{
		{Items: itemset.New("a", "b"), Count: 2, Support: 0.5},
	})
	src := &countingSource{m: m}

	out, err := Generate(pairOnly, src, Support, 0)
	require.NoError(t, err)
	require.Len(t, out.Rules, 2)
	assert.Equal(t, 4, out.Rescans)
	assert.Equal(t, 4, src.calls)

	r, ok := findRule(out.Rules, "a", "b")
	require.True(t, ok)
	assert.Equal(t, 0.75, r.AntecedentSupport)
	assert.Equal(t, 0.5, r.ConsequentSupport)
	assert.InDelta(t, 0.5/0.75, r.Confidence, 1e-12)

	_, err = Generate(pairOnly, nil, Support, 0)
	assert.ErrorIs(t, err, internalerr.ErrNotFound)
}

func TestRuleMetricLookup(t *testing.T) {
	r := Rule{Lift: 2.5, Conviction: math.Inf(1)}
	v, ok := r.Metric(Lift)
	assert.True(t, ok)
	assert.Equal(t, 2.5, v)

	v, ok = r.Metric(Conviction)
	assert.True(t, ok)
	assert.True(t, math.IsInf(v, 1))

	_, ok = r.Metric("gain")
	assert.False(t, ok)
}

func TestComputeMetricsEdgeCases(t *testing.T) {
	var r Rule
	// consequent in every transaction
	r.computeMetrics(0.5, 0.5, 1)
	assert.Equal(t, 1.0, r.Confidence)
	assert.Equal(t, 0.0, r.Certainty)
	assert.Equal(t, 0.0, r.ZhangsMetric)
	assert.True(t, math.IsInf(r.Conviction, 1))
	assert.Equal(t, 0.5, r.Jaccard)
	assert.Equal(t, 0.75, r.Kulczynski)
}
