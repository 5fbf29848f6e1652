// Package basket mines association rules from item transactions.
//
// Mine runs the full batch: encode the transactions, mine frequent itemsets
// with Apriori, derive and filter rules, select the top K, and pivot the
// selection into an antecedent × consequent matrix. Every call is pure and
// independent, so concurrent calls need no coordination.
package basket

import (
	"github.com/cognicore/basket/pkg/basket/apriori"
	"github.com/cognicore/basket/pkg/basket/encoder"
	"github.com/cognicore/basket/pkg/basket/internalerr"
	"github.com/cognicore/basket/pkg/basket/pivot"
	"github.com/cognicore/basket/pkg/basket/rank"
	"github.com/cognicore/basket/pkg/basket/rules"
)

// Options configures a mining run.
type Options struct {
	MinSupport   float64 // (0, 1]
	MaxLen       int     // largest itemset size, >= 1
	Metric       string  // rule filter metric
	MinThreshold float64 // keep rules with Metric >= MinThreshold
	TopK         int     // >= 0
	SortBy       string  // ranking metric
	Ascending    bool
	PivotBy      string // pivot cell metric; empty means SortBy
}

// DefaultOptions returns the stock parameters.
func DefaultOptions() Options {
	return Options{
		MinSupport:   0.02,
		MaxLen:       2,
		Metric:       rules.Lift,
		MinThreshold: 1.0,
		TopK:         20,
		SortBy:       rules.Lift,
		Ascending:    false,
	}
}

// PivotMetric returns the metric used for pivot cells.
func (o Options) PivotMetric() string {
	if o.PivotBy == "" {
		return o.SortBy
	}
	return o.PivotBy
}

// Validate checks every parameter. All failures are *internalerr.ParamError
// values wrapping internalerr.ErrInvalidParameter.
func (o Options) Validate() error {
	if err := (apriori.Params{MinSupport: o.MinSupport, MaxLen: o.MaxLen}).Validate(); err != nil {
		return err
	}
	if err := rules.ValidateThreshold(o.Metric, o.MinThreshold); err != nil {
		return err
	}
	if o.TopK < 0 {
		return internalerr.OutOfRange("top_k", o.TopK, "must be >= 0")
	}
	if err := rules.ValidateMetric("sort_by", o.SortBy); err != nil {
		return err
	}
	if o.PivotBy != "" {
		if err := rules.ValidateMetric("pivot_by", o.PivotBy); err != nil {
			return err
		}
	}
	return nil
}

// Stats summarizes a run.
type Stats struct {
	Transactions int
	Vocabulary   int
	LevelSizes   []int // frequent itemsets per size
	Rescans      int   // rule supports recounted from the matrix
}

// Result holds the artifacts of one run. Every artifact is present and
// well formed even when empty.
type Result struct {
	FrequentItemsets *apriori.Table
	Rules            []rules.Rule // every rule meeting the threshold, ordered by SortBy
	TopRules         []rules.Rule
	Pivot            *pivot.Matrix
	Options          Options
	Stats            Stats

	// NoData is set when there were no transactions or every transaction
	// was empty.
	NoData bool
}

// Mine runs the whole pipeline over transactions. Invalid options are
// rejected before any data is looked at; empty input, no frequent itemsets
// and no surviving rules are not errors and produce empty artifacts.
func Mine(transactions [][]string, opts Options) (*Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	m := encoder.Encode(transactions)
	res := &Result{
		Options: opts,
		NoData:  m.Empty(),
		Stats: Stats{
			Transactions: m.Rows(),
			Vocabulary:   m.Cols(),
		},
	}

	table, err := apriori.Mine(m, apriori.Params{MinSupport: opts.MinSupport, MaxLen: opts.MaxLen})
	if err != nil {
		return nil, err
	}
	res.FrequentItemsets = table
	res.Stats.LevelSizes = table.LevelSizes()

	rs, err := rules.Generate(table, m, opts.Metric, opts.MinThreshold)
	if err != nil {
		return nil, err
	}
	res.Stats.Rescans = rs.Rescans
	res.Rules = rank.Sort(rs.Rules, opts.SortBy, opts.Ascending)

	res.TopRules, err = rank.Top(res.Rules, opts.SortBy, opts.Ascending, opts.TopK)
	if err != nil {
		return nil, err
	}

	res.Pivot, err = pivot.Build(res.TopRules, opts.PivotMetric())
	if err != nil {
		return nil, err
	}
	return res, nil
}
