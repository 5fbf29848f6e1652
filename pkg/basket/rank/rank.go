// Package rank orders association rules and selects the top K.
package rank

import (
	"sort"

	"github.com/cognicore/basket/pkg/basket/internalerr"
	"github.com/cognicore/basket/pkg/basket/rules"
)

// Top returns at most topK rules ordered by the sortBy metric. The input is
// not modified.
//
// Ties on sortBy are broken by lift descending, then antecedent label
// ascending, then consequent label ascending, whatever the direction of the
// primary key. topK of 0 yields an empty selection.
func Top(rs []rules.Rule, sortBy string, ascending bool, topK int) ([]rules.Rule, error) {
	if err := rules.ValidateMetric("sort_by", sortBy); err != nil {
		return nil, err
	}
	if topK < 0 {
		return nil, internalerr.OutOfRange("top_k", topK, "must be >= 0")
	}

	sorted := Sort(rs, sortBy, ascending)
	if topK < len(sorted) {
		sorted = sorted[:topK]
	}
	return sorted, nil
}

// Sort returns a sorted copy of rs. sortBy must be a known metric.
func Sort(rs []rules.Rule, sortBy string, ascending bool) []rules.Rule {
	out := make([]rules.Rule, len(rs))
	copy(out, rs)

	keys := make([]sortKey, len(out))
	for i := range out {
		v, _ := out[i].Metric(sortBy)
		keys[i] = sortKey{
			primary: v,
			lift:    out[i].Lift,
			ante:    out[i].AntecedentLabel(),
			cons:    out[i].ConsequentLabel(),
		}
	}

	sort.Stable(byKey{rules: out, keys: keys, ascending: ascending})
	return out
}

type sortKey struct {
	primary float64
	lift    float64
	ante    string
	cons    string
}

type byKey struct {
	rules     []rules.Rule
	keys      []sortKey
	ascending bool
}

func (b byKey) Len() int { return len(b.rules) }

func (b byKey) Swap(i, j int) {
	b.rules[i], b.rules[j] = b.rules[j], b.rules[i]
	b.keys[i], b.keys[j] = b.keys[j], b.keys[i]
}

func (b byKey) Less(i, j int) bool {
	ki, kj := b.keys[i], b.keys[j]
	if ki.primary != kj.primary {
		if b.ascending {
			return ki.primary < kj.primary
		}
		return ki.primary > kj.primary
	}
	if ki.lift != kj.lift {
		return ki.lift > kj.lift
	}
	if ki.ante != kj.ante {
		return ki.ante < kj.ante
	}
	return ki.cons < kj.cons
}
