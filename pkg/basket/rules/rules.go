// Package rules derives association rules from frequent itemsets.
package rules

import (
	"fmt"

	"github.com/cognicore/basket/pkg/basket/apriori"
	"github.com/cognicore/basket/pkg/basket/internalerr"
	"github.com/cognicore/basket/pkg/basket/itemset"
)

// Rule is an antecedent => consequent implication with its quality metrics.
// Antecedents and Consequents are disjoint, non-empty, and their union is a
// frequent itemset.
type Rule struct {
	Antecedents itemset.Set
	Consequents itemset.Set

	AntecedentSupport float64
	ConsequentSupport float64
	Support           float64
	Confidence        float64
	Lift              float64
	Leverage          float64
	Conviction        float64 // +Inf when Confidence is 1
	ZhangsMetric      float64
	Jaccard           float64
	Certainty         float64
	Kulczynski        float64
}

// AntecedentLabel renders the antecedents as "a,b".
func (r Rule) AntecedentLabel() string { return r.Antecedents.Label() }

// ConsequentLabel renders the consequents as "a,b".
func (r Rule) ConsequentLabel() string { return r.Consequents.Label() }

// Metric returns the named metric value.
func (r Rule) Metric(name string) (float64, bool) {
	i, ok := metricIndex[name]
	if !ok {
		return 0, false
	}
	return metricDefs[i].get(&r), true
}

// SupportSource counts transactions containing all of items. It is consulted
// only when a support is missing from the frequent-itemset table.
type SupportSource interface {
	Support(items []string) int
}

// Table is the full rule set of a run.
type Table struct {
	Rules   []Rule
	Metric  string
	Min     float64
	Rescans int // supports that had to be recounted from the source
}

// Generate enumerates every rule from itemsets of size >= 2 whose metric
// value is at least minThreshold. src may be nil when the table is known to
// be closed under subsets.
func Generate(t *apriori.Table, src SupportSource, metric string, minThreshold float64) (*Table, error) {
	if err := ValidateThreshold(metric, minThreshold); err != nil {
		return nil, err
	}

	g := generator{table: t, src: src}
	out := &Table{Metric: metric, Min: minThreshold}
	getMetric := metricDefs[metricIndex[metric]].get

	for _, f := range t.Itemsets() {
		n := f.Items.Len()
		if n < 2 {
			continue
		}
		full := uint64(1)<<uint(n) - 1
		for mask := uint64(1); mask < full; mask++ {
			ante, cons := f.Items.Split(mask)

			sA, err := g.support(ante)
			if err != nil {
				return nil, err
			}
			sC, err := g.support(cons)
			if err != nil {
				return nil, err
			}

			r := Rule{Antecedents: ante, Consequents: cons}
			r.computeMetrics(f.Support, sA, sC)
			if getMetric(&r) >= minThreshold {
				out.Rules = append(out.Rules, r)
			}
		}
	}
	out.Rescans = g.rescans
	return out, nil
}

type generator struct {
	table   *apriori.Table
	src     SupportSource
	rescans int
}

func (g *generator) support(items itemset.Set) (float64, error) {
	if f, ok := g.table.Lookup(items); ok {
		return f.Support, nil
	}
	if g.src == nil {
		return 0, fmt.Errorf("rules: support of {%s}: %w", items.Label(), internalerr.ErrNotFound)
	}
	g.rescans++
	return float64(g.src.Support(items)) / float64(g.table.Transactions()), nil
}
