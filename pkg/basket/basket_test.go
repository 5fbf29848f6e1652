package basket

import (
	"bytes"
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognicore/basket/pkg/basket/ingest"
	"github.com/cognicore/basket/pkg/basket/internalerr"
	"github.com/cognicore/basket/pkg/basket/itemset"
	"github.com/cognicore/basket/pkg/basket/rules"
)

func groceries() [][]string {
	return [][]string{
		{"apple", "milk"},
		{"apple", "bread"},
		{"apple", "milk", "bread"},
		{"milk"},
	}
}

func TestDefaultOptions(t *testing.T) {
	o := DefaultOptions()
	assert.Equal(t, 0.02, o.MinSupport)
	assert.Equal(t, 2, o.MaxLen)
	assert.Equal(t, "lift", o.Metric)
	assert.Equal(t, 1.0, o.MinThreshold)
	assert.Equal(t, 20, o.TopK)
	assert.Equal(t, "lift", o.SortBy)
	assert.False(t, o.Ascending)
	assert.Equal(t, "lift", o.PivotMetric())
	assert.NoError(t, o.Validate())
}

func TestMineGroceries(t *testing.T) {
	opts := DefaultOptions()
	opts.MinSupport = 0.5
	opts.MaxLen = 2

	res, err := Mine(groceries(), opts)
	require.NoError(t, err)
	require.False(t, res.NoData)

	sup := map[string]float64{}
	for _, f := range res.FrequentItemsets.Itemsets() {
		sup[f.Items.Label()] = f.Support
	}
	assert.Equal(t, 0.75, sup["apple"])
	assert.Equal(t, 0.75, sup["milk"])
	assert.Equal(t, 0.5, sup["apple,milk"])
	assert.Equal(t, 0.5, sup["bread"])

	// Only apple<->bread clears lift 1.
	require.Len(t, res.Rules, 2)
	assert.Equal(t, "apple", res.Rules[0].AntecedentLabel(), "lift tie broken by antecedent label")
	assert.Equal(t, "bread", res.Rules[1].AntecedentLabel())
	assert.Equal(t, res.Rules, res.TopRules)

	assert.Equal(t, []string{"apple", "bread"}, res.Pivot.Rows())
	assert.Equal(t, []string{"apple", "bread"}, res.Pivot.Cols())
	assert.InDelta(t, 4.0/3.0, res.Pivot.At("apple", "bread"), 1e-12)
	assert.Equal(t, 0.0, res.Pivot.At("apple", "apple"))

	assert.Equal(t, 4, res.Stats.Transactions)
	assert.Equal(t, 3, res.Stats.Vocabulary)
	assert.Equal(t, []int{3, 2}, res.Stats.LevelSizes)
	assert.Zero(t, res.Stats.Rescans)
}

func TestMineEmptyInput(t *testing.T) {
	for name, txs := range map[string][][]string{
		"nil":       nil,
		"all empty": {{}, {}, {""}},
	} {
		t.Run(name, func(t *testing.T) {
			res, err := Mine(txs, DefaultOptions())
			require.NoError(t, err)
			assert.True(t, res.NoData)
			assert.Equal(t, 0, res.FrequentItemsets.Len())
			assert.Empty(t, res.Rules)
			assert.Empty(t, res.TopRules)
			require.NotNil(t, res.Pivot)
			assert.True(t, res.Pivot.Empty())
		})
	}
}

func TestMineUnknownSortField(t *testing.T) {
	opts := DefaultOptions()
	opts.SortBy = "unknown_field"

	_, err := Mine(groceries(), opts)
	require.Error(t, err)
	assert.True(t, errors.Is(err, internalerr.ErrInvalidParameter))

	var pe *internalerr.ParamError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "sort_by", pe.Param)
	for _, f := range []string{"support", "confidence", "lift"} {
		assert.Contains(t, pe.Accepted, f)
		assert.Contains(t, err.Error(), f)
	}
}

func TestMineInvalidOptionsBeforeEmptyCheck(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Options)
		param  string
	}{
		{"min support", func(o *Options) { o.MinSupport = 0 }, "min_support"},
		{"max len", func(o *Options) { o.MaxLen = 0 }, "max_len"},
		{"metric", func(o *Options) { o.Metric = "gain" }, "metric"},
		{"threshold", func(o *Options) { o.MinThreshold = math.NaN() }, "min_threshold"},
		{"top k", func(o *Options) { o.TopK = -1 }, "top_k"},
		{"pivot by", func(o *Options) { o.PivotBy = "gain" }, "pivot_by"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			tt.mutate(&opts)

			_, err := Mine(nil, opts)
			var pe *internalerr.ParamError
			require.True(t, errors.As(err, &pe), "got %v", err)
			assert.Equal(t, tt.param, pe.Param)
		})
	}
}

func TestMineRepeatedPair(t *testing.T) {
	txs := make([][]string, 25)
	for i := range txs {
		txs[i] = []string{"sugar", "coffee"}
	}
	opts := DefaultOptions()
	opts.MinSupport = 0.1

	res, err := Mine(txs, opts)
	require.NoError(t, err)

	// The pair yields one rule per direction.
	require.Len(t, res.Rules, 2)
	for _, r := range res.Rules {
		assert.Equal(t, 1.0, r.Confidence)
		assert.Equal(t, 1/r.ConsequentSupport, r.Lift)
	}
}

func TestMineTopKBoundAndSubset(t *testing.T) {
	txs := randomBaskets(9, 400)
	opts := DefaultOptions()
	opts.MinSupport = 0.02
	opts.MaxLen = 3
	opts.MinThreshold = 0
	opts.TopK = 7
	opts.SortBy = rules.Confidence

	res, err := Mine(txs, opts)
	require.NoError(t, err)
	require.Greater(t, len(res.Rules), opts.TopK)

	assert.Len(t, res.TopRules, opts.TopK)
	assert.Equal(t, res.Rules[:opts.TopK], res.TopRules)
	for i := 1; i < len(res.Rules); i++ {
		assert.GreaterOrEqual(t, res.Rules[i-1].Confidence, res.Rules[i].Confidence)
	}
	assert.LessOrEqual(t, len(res.Pivot.Rows()), opts.TopK)
}

func TestMineRuleInvariants(t *testing.T) {
	txs := randomBaskets(4, 300)
	opts := DefaultOptions()
	opts.MaxLen = 3
	opts.MinSupport = 0.03
	opts.MinThreshold = 0

	res, err := Mine(txs, opts)
	require.NoError(t, err)
	require.NotEmpty(t, res.Rules)

	for _, r := range res.Rules {
		assert.True(t, r.Antecedents.Disjoint(r.Consequents))
		_, ok := res.FrequentItemsets.Lookup(r.Antecedents.Union(r.Consequents))
		assert.True(t, ok)
		assert.True(t, r.Support >= 0 && r.Support <= 1)
		assert.True(t, r.Confidence >= 0 && r.Confidence <= 1)
		assert.GreaterOrEqual(t, r.Lift, 0.0)
	}

	for _, f := range res.FrequentItemsets.Itemsets() {
		n := f.Items.Len()
		for mask := uint64(1); mask < 1<<uint(n)-1; mask++ {
			sub, _ := f.Items.Split(mask)
			_, ok := res.FrequentItemsets.Lookup(sub)
			assert.True(t, ok, "subset %s of %s", sub.Label(), f.Items.Label())
		}
	}
}

func TestMineIsIdempotent(t *testing.T) {
	txs := randomBaskets(21, 250)
	opts := DefaultOptions()
	opts.MinSupport = 0.03
	opts.MaxLen = 3
	opts.MinThreshold = 0.5

	first, err := Mine(txs, opts)
	require.NoError(t, err)
	second, err := Mine(txs, opts)
	require.NoError(t, err)

	assert.Equal(t, first.FrequentItemsets.Itemsets(), second.FrequentItemsets.Itemsets())
	assert.Equal(t, first.Rules, second.Rules)
	assert.Equal(t, first.TopRules, second.TopRules)
	assert.Equal(t, first.Pivot.Values(), second.Pivot.Values())
}

func TestMineTransactionOrderIrrelevantInsideBaskets(t *testing.T) {
	a, err := Mine([][]string{{"x", "y", "y"}, {"y"}}, DefaultOptions())
	require.NoError(t, err)
	b, err := Mine([][]string{{"y", "x"}, {"y"}}, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, a.FrequentItemsets.Itemsets(), b.FrequentItemsets.Itemsets())
	assert.Equal(t, a.Rules, b.Rules)
}

func TestAnalyzer(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.DebugLevel)

	opts := DefaultOptions()
	opts.MinSupport = 0.3
	a, err := NewAnalyzer(AnalyzerOptions{
		Pipeline: ingest.NewPipeline(ingest.NewTokenizer([]string{"the"})),
		Mining:   opts,
		Logger:   &logger,
	})
	require.NoError(t, err)

	res, err := a.Analyze([]string{
		"The latte with oat milk",
		"oat milk latte again",
		"espresso, no milk",
	})
	require.NoError(t, err)

	f, ok := res.FrequentItemsets.Lookup(itemset.New("latte", "oat"))
	require.True(t, ok)
	assert.InDelta(t, 2.0/3.0, f.Support, 1e-12)
	assert.NotEmpty(t, res.Rules)
	assert.Contains(t, buf.String(), `"component":"basket"`)
	assert.Contains(t, buf.String(), "mined")
}

func TestAnalyzerNoData(t *testing.T) {
	a, err := NewAnalyzer(AnalyzerOptions{Mining: DefaultOptions()})
	require.NoError(t, err)

	res, err := a.Analyze([]string{"", "!!", "a"})
	require.NoError(t, err)
	assert.True(t, res.NoData)
	assert.Equal(t, 3, res.Stats.Transactions)
}

func TestNewAnalyzerRejectsOptions(t *testing.T) {
	opts := DefaultOptions()
	opts.MaxLen = -3
	_, err := NewAnalyzer(AnalyzerOptions{Mining: opts})
	assert.ErrorIs(t, err, internalerr.ErrInvalidParameter)
}

func randomBaskets(seed int64, n int) [][]string {
	rng := rand.New(rand.NewSource(seed))
	items := []string{"bagel", "coffee", "cream", "donut", "juice", "muffin", "sugar", "tea"}
	txs := make([][]string, n)
	for i := range txs {
		k := 1 + rng.Intn(4)
		for j := 0; j < k; j++ {
			txs[i] = append(txs[i], items[rng.Intn(len(items))])
		}
		// correlated pair
		if rng.Float64() < 0.3 {
			txs[i] = append(txs[i], "coffee", "cream")
		}
	}
	return txs
}
