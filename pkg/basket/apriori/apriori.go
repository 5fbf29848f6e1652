// Package apriori mines frequent itemsets level by level.
//
// Level k candidates are built by joining frequent (k-1)-itemsets that share
// their first k-2 items, then pruned when any (k-1)-subset is not frequent
// (downward closure). Surviving candidates are counted by intersecting the
// transaction bitmaps of the encoded matrix.
//
// Items are handled as column indices of the encoder vocabulary. The
// vocabulary is sorted, so index order is label order and every level comes
// out lexicographically sorted without an extra sort.
package apriori

import (
	"encoding/binary"
	"fmt"
	"sort"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/cognicore/basket/pkg/basket/encoder"
	"github.com/cognicore/basket/pkg/basket/internalerr"
	"github.com/cognicore/basket/pkg/basket/itemset"
)

// MaxItemsetLen bounds Params.MaxLen. Rule enumeration walks every subset of
// an itemset, so the candidate space is exponential in this value.
const MaxItemsetLen = 32

// Params configures a mining run.
type Params struct {
	MinSupport float64 // minimum support ratio, in (0, 1]
	MaxLen     int     // largest itemset size materialized, >= 1
}

// Validate rejects out-of-range parameters.
func (p Params) Validate() error {
	if !(p.MinSupport > 0 && p.MinSupport <= 1) {
		return internalerr.OutOfRange("min_support", p.MinSupport, "must be in (0, 1]")
	}
	if p.MaxLen < 1 || p.MaxLen > MaxItemsetLen {
		return internalerr.OutOfRange("max_len", p.MaxLen, fmt.Sprintf("must be in [1, %d]", MaxItemsetLen))
	}
	return nil
}

// Frequent is an itemset whose support ratio met the threshold.
type Frequent struct {
	Items   itemset.Set
	Count   int     // transactions containing Items
	Support float64 // Count / total transactions
}

// Table holds every frequent itemset of a run.
type Table struct {
	total    int
	itemsets []Frequent
	index    map[string]int
	levels   []int // levels[k-1] = number of frequent k-itemsets
}

// Itemsets returns the frequent itemsets ordered by size, then by label.
func (t *Table) Itemsets() []Frequent {
	return t.itemsets
}

// Len returns the number of frequent itemsets.
func (t *Table) Len() int { return len(t.itemsets) }

// Transactions returns the transaction count supports are relative to.
func (t *Table) Transactions() int { return t.total }

// LevelSizes returns how many itemsets were frequent at each size.
func (t *Table) LevelSizes() []int {
	return append([]int(nil), t.levels...)
}

// Lookup finds the frequent itemset with exactly these items.
func (t *Table) Lookup(items itemset.Set) (Frequent, bool) {
	i, ok := t.index[items.Key()]
	if !ok {
		return Frequent{}, false
	}
	return t.itemsets[i], true
}

// NewTable builds a table from externally supplied itemsets, for example
// ones reloaded from a stored report. The table need not be closed under
// subsets; rule generation falls back to a SupportSource for gaps.
func NewTable(total int, itemsets []Frequent) *Table {
	t := &Table{total: total, index: make(map[string]int, len(itemsets))}
	seen := make(map[string]struct{}, len(itemsets))
	for _, f := range itemsets {
		f.Items = itemset.New(f.Items...)
		key := f.Items.Key()
		if _, dup := seen[key]; dup || f.Items.Len() == 0 {
			continue
		}
		seen[key] = struct{}{}
		t.itemsets = append(t.itemsets, f)
	}
	sort.SliceStable(t.itemsets, func(i, j int) bool {
		return itemset.Less(t.itemsets[i].Items, t.itemsets[j].Items)
	})
	for i, f := range t.itemsets {
		t.index[f.Items.Key()] = i
		for len(t.levels) < f.Items.Len() {
			t.levels = append(t.levels, 0)
		}
		t.levels[f.Items.Len()-1]++
	}
	return t
}

// candidate is an itemset under evaluation, as sorted column indices.
type candidate struct {
	cols  []int
	tids  *roaring.Bitmap
	count int
}

// Mine returns every itemset of size 1..p.MaxLen with support >= p.MinSupport.
// An empty matrix yields an empty table.
func Mine(m *encoder.Matrix, p Params) (*Table, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	t := &Table{
		total: m.Rows(),
		index: make(map[string]int),
	}
	if m.Empty() {
		return t, nil
	}

	level := firstLevel(m, p.MinSupport)
	for k := 1; len(level) > 0; k++ {
		t.addLevel(m, level)
		if k == p.MaxLen {
			break
		}
		level = nextLevel(level, m.Rows(), p.MinSupport)
	}
	return t, nil
}

func frequent(count, total int, minSupport float64) bool {
	return float64(count)/float64(total) >= minSupport
}

func firstLevel(m *encoder.Matrix, minSupport float64) []candidate {
	var level []candidate
	for j := 0; j < m.Cols(); j++ {
		col := m.Column(j)
		count := int(col.GetCardinality())
		if !frequent(count, m.Rows(), minSupport) {
			continue
		}
		level = append(level, candidate{cols: []int{j}, tids: col, count: count})
	}
	return level
}

// nextLevel joins, prunes and counts the candidates one size up from prev.
func nextLevel(prev []candidate, total int, minSupport float64) []candidate {
	known := make(map[string]struct{}, len(prev))
	for _, c := range prev {
		known[colsKey(c.cols)] = struct{}{}
	}

	var next []candidate
	for i := 0; i < len(prev); i++ {
		a := prev[i]
		for j := i + 1; j < len(prev); j++ {
			b := prev[j]
			if !samePrefix(a.cols, b.cols) {
				break // prev is sorted, so prefix groups are contiguous
			}

			cols := make([]int, len(a.cols)+1)
			copy(cols, a.cols)
			cols[len(a.cols)] = b.cols[len(b.cols)-1]

			if !subsetsFrequent(cols, known) {
				continue
			}

			tids := roaring.And(a.tids, b.tids)
			count := int(tids.GetCardinality())
			if !frequent(count, total, minSupport) {
				continue
			}
			next = append(next, candidate{cols: cols, tids: tids, count: count})
		}
	}
	return next
}

func samePrefix(a, b []int) bool {
	for i := 0; i < len(a)-1; i++ {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// subsetsFrequent checks every (k-1)-subset of cols against the previous
// level. The two subsets that dropped one of the last two items are the join
// parents and are skipped.
func subsetsFrequent(cols []int, known map[string]struct{}) bool {
	if len(cols) < 3 {
		return true
	}
	sub := make([]int, 0, len(cols)-1)
	for drop := 0; drop < len(cols)-2; drop++ {
		sub = sub[:0]
		sub = append(sub, cols[:drop]...)
		sub = append(sub, cols[drop+1:]...)
		if _, ok := known[colsKey(sub)]; !ok {
			return false
		}
	}
	return true
}

func colsKey(cols []int) string {
	buf := make([]byte, 4*len(cols))
	for i, c := range cols {
		binary.BigEndian.PutUint32(buf[4*i:], uint32(c))
	}
	return string(buf)
}

func (t *Table) addLevel(m *encoder.Matrix, level []candidate) {
	for _, c := range level {
		items := make(itemset.Set, len(c.cols))
		for i, col := range c.cols {
			items[i] = m.Item(col)
		}
		t.index[items.Key()] = len(t.itemsets)
		t.itemsets = append(t.itemsets, Frequent{
			Items:   items,
			Count:   c.count,
			Support: float64(c.count) / float64(t.total),
		})
	}
	t.levels = append(t.levels, len(level))
}
