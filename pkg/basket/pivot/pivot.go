// Package pivot lays rules out as an antecedent × consequent matrix.
package pivot

import (
	"sort"

	"github.com/cognicore/basket/pkg/basket/rules"
)

// Matrix is a dense antecedent × consequent table of one metric.
type Matrix struct {
	Metric string

	rows   []string
	cols   []string
	rowIdx map[string]int
	colIdx map[string]int
	values [][]float64
}

// Build pivots rs on metric. Rows and columns are the distinct antecedent
// and consequent labels, sorted. When several rules share a cell the
// maximum value wins. Absent cells are 0.
func Build(rs []rules.Rule, metric string) (*Matrix, error) {
	if err := rules.ValidateMetric("pivot_by", metric); err != nil {
		return nil, err
	}

	m := &Matrix{
		Metric: metric,
		rowIdx: make(map[string]int),
		colIdx: make(map[string]int),
	}
	for _, r := range rs {
		m.rowIdx[r.AntecedentLabel()] = 0
		m.colIdx[r.ConsequentLabel()] = 0
	}
	m.rows = sortedKeys(m.rowIdx)
	m.cols = sortedKeys(m.colIdx)

	m.values = make([][]float64, len(m.rows))
	filled := make([][]bool, len(m.rows))
	for i := range m.values {
		m.values[i] = make([]float64, len(m.cols))
		filled[i] = make([]bool, len(m.cols))
	}

	for _, r := range rs {
		i := m.rowIdx[r.AntecedentLabel()]
		j := m.colIdx[r.ConsequentLabel()]
		v, _ := r.Metric(metric)
		if !filled[i][j] || v > m.values[i][j] {
			m.values[i][j] = v
			filled[i][j] = true
		}
	}
	return m, nil
}

func sortedKeys(idx map[string]int) []string {
	keys := make([]string, 0, len(idx))
	for k := range idx {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for i, k := range keys {
		idx[k] = i
	}
	return keys
}

// Rows returns the antecedent labels.
func (m *Matrix) Rows() []string { return m.rows }

// Cols returns the consequent labels.
func (m *Matrix) Cols() []string { return m.cols }

// Values returns the cell grid, indexed [row][col].
func (m *Matrix) Values() [][]float64 { return m.values }

// Empty reports whether the matrix has no cells.
func (m *Matrix) Empty() bool { return len(m.rows) == 0 }

// At returns the cell for the given labels, 0 when either is absent.
func (m *Matrix) At(row, col string) float64 {
	i, ok := m.rowIdx[row]
	if !ok {
		return 0
	}
	j, ok := m.colIdx[col]
	if !ok {
		return 0
	}
	return m.values[i][j]
}
