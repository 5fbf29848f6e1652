// Package encoder turns item-label transactions into a boolean presence
// matrix over a sorted vocabulary.
//
// The matrix is stored column-wise: every vocabulary item owns a roaring
// bitmap of the transaction ids that contain it. Row access and the dense
// boolean view are derived from the columns.
package encoder

import (
	"sort"

	"github.com/RoaringBitmap/roaring/v2"
)

// Matrix is the encoded form of a transaction collection.
type Matrix struct {
	vocab   []string
	index   map[string]int
	columns []*roaring.Bitmap
	rows    int
}

// Encode builds the presence matrix for txs. Item order and duplicates
// within a transaction do not matter; empty labels are ignored.
func Encode(txs [][]string) *Matrix {
	seen := make(map[string]struct{})
	for _, tx := range txs {
		for _, item := range tx {
			if item == "" {
				continue
			}
			seen[item] = struct{}{}
		}
	}

	vocab := make([]string, 0, len(seen))
	for item := range seen {
		vocab = append(vocab, item)
	}
	sort.Strings(vocab)

	m := &Matrix{
		vocab:   vocab,
		index:   make(map[string]int, len(vocab)),
		columns: make([]*roaring.Bitmap, len(vocab)),
		rows:    len(txs),
	}
	for j, item := range vocab {
		m.index[item] = j
		m.columns[j] = roaring.New()
	}

	for i, tx := range txs {
		for _, item := range tx {
			if j, ok := m.index[item]; ok {
				m.columns[j].Add(uint32(i))
			}
		}
	}
	for _, col := range m.columns {
		col.RunOptimize()
	}
	return m
}

// Empty reports the "no data" outcome: no transactions, or only empty ones.
func (m *Matrix) Empty() bool {
	return m.rows == 0 || len(m.vocab) == 0
}

// Rows returns the number of transactions, empty ones included.
func (m *Matrix) Rows() int { return m.rows }

// Cols returns the vocabulary size.
func (m *Matrix) Cols() int { return len(m.vocab) }

// Vocabulary returns the sorted distinct items. The slice is a copy.
func (m *Matrix) Vocabulary() []string {
	return append([]string(nil), m.vocab...)
}

// Item returns the label of column j.
func (m *Matrix) Item(j int) string { return m.vocab[j] }

// Index returns the column of item.
func (m *Matrix) Index(item string) (int, bool) {
	j, ok := m.index[item]
	return j, ok
}

// At reports whether transaction i contains vocabulary item j.
func (m *Matrix) At(i, j int) bool {
	if i < 0 || i >= m.rows || j < 0 || j >= len(m.columns) {
		return false
	}
	return m.columns[j].Contains(uint32(i))
}

// Dense materializes the transactions × vocabulary boolean matrix.
func (m *Matrix) Dense() [][]bool {
	out := make([][]bool, m.rows)
	for i := range out {
		out[i] = make([]bool, len(m.vocab))
	}
	for j, col := range m.columns {
		it := col.Iterator()
		for it.HasNext() {
			out[it.Next()][j] = true
		}
	}
	return out
}

// Column returns the transaction ids containing item j.
// The bitmap is shared; callers must not modify it.
func (m *Matrix) Column(j int) *roaring.Bitmap {
	return m.columns[j]
}

// Count returns the number of transactions containing every listed column.
// With no columns it returns the total transaction count.
func (m *Matrix) Count(cols ...int) int {
	switch len(cols) {
	case 0:
		return m.rows
	case 1:
		return int(m.columns[cols[0]].GetCardinality())
	case 2:
		return int(m.columns[cols[0]].AndCardinality(m.columns[cols[1]]))
	}
	bms := make([]*roaring.Bitmap, len(cols))
	for k, c := range cols {
		bms[k] = m.columns[c]
	}
	return int(roaring.FastAnd(bms...).GetCardinality())
}

// Support counts the transactions containing all of items. Unknown items
// yield zero. This is the direct re-scan used when a support is not known
// from mining.
func (m *Matrix) Support(items []string) int {
	cols := make([]int, 0, len(items))
	for _, it := range items {
		j, ok := m.index[it]
		if !ok {
			return 0
		}
		cols = append(cols, j)
	}
	return m.Count(cols...)
}
