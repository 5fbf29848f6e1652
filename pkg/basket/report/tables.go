package report

import (
	"fmt"
	"strings"

	"github.com/cognicore/basket/pkg/basket/rules"
)

// Table is a named grid with a fixed header, rendered even when it has no
// rows so consumers always see its shape.
type Table struct {
	Name    string
	Columns []string
	Rows    [][]string
}

// Tables returns the four output tables in display order, followed by the
// stopword candidates when the report carries any.
func (r *Report) Tables() []Table {
	ts := []Table{
		r.RulesTable(),
		r.TopRulesTable(),
		r.PivotTable(),
		r.FrequentItemsetsTable(),
	}
	if len(r.StopwordCandidates) > 0 {
		ts = append(ts, r.StopwordsTable())
	}
	return ts
}

// Table returns the named table.
func (r *Report) Table(name string) (Table, bool) {
	if name == TableStopwords {
		return r.StopwordsTable(), true
	}
	for _, t := range r.Tables() {
		if t.Name == name {
			return t, true
		}
	}
	return Table{}, false
}

// RulesTable lists every rule with all metrics.
func (r *Report) RulesTable() Table {
	cols := append([]string{"antecedents", "consequents"}, rules.MetricNames()...)
	t := Table{Name: TableRules, Columns: cols, Rows: [][]string{}}
	for _, row := range r.Rules {
		cells := []string{row.Antecedents, row.Consequents}
		for _, m := range rules.MetricNames() {
			v, _ := row.Metric(m)
			cells = append(cells, v.String())
		}
		t.Rows = append(t.Rows, cells)
	}
	return t
}

// TopRulesTable lists the selection with the core metrics, plus the sort
// field when it is not one of them.
func (r *Report) TopRulesTable() Table {
	metrics := []string{rules.Support, rules.Confidence, rules.Lift}
	switch r.Params.SortBy {
	case rules.Support, rules.Confidence, rules.Lift, "":
	default:
		metrics = append(metrics, r.Params.SortBy)
	}

	t := Table{
		Name:    TableTopRules,
		Columns: append([]string{"antecedents", "consequents"}, metrics...),
		Rows:    [][]string{},
	}
	for _, row := range r.TopRules {
		cells := []string{row.Antecedents, row.Consequents}
		for _, m := range metrics {
			v, _ := row.Metric(m)
			cells = append(cells, v.String())
		}
		t.Rows = append(t.Rows, cells)
	}
	return t
}

// PivotTable renders the matrix with antecedents down the side.
func (r *Report) PivotTable() Table {
	t := Table{
		Name:    TablePivot,
		Columns: append([]string{"antecedents"}, r.Pivot.Cols...),
		Rows:    [][]string{},
	}
	for i, label := range r.Pivot.Rows {
		cells := []string{label}
		for _, v := range r.Pivot.Values[i] {
			cells = append(cells, v.String())
		}
		t.Rows = append(t.Rows, cells)
	}
	return t
}

// FrequentItemsetsTable lists itemsets with their support.
func (r *Report) FrequentItemsetsTable() Table {
	t := Table{
		Name:    TableFrequentItemsets,
		Columns: []string{"itemsets", "support"},
		Rows:    [][]string{},
	}
	for _, f := range r.FrequentItemsets {
		t.Rows = append(t.Rows, []string{strings.Join(f.Items, ","), f.Support.String()})
	}
	return t
}

// StopwordsTable lists suggested stopwords, strongest first.
func (r *Report) StopwordsTable() Table {
	t := Table{
		Name:    TableStopwords,
		Columns: []string{"token", "score", "support", "lift_max"},
		Rows:    [][]string{},
	}
	for _, c := range r.StopwordCandidates {
		t.Rows = append(t.Rows, []string{
			c.Token,
			fmt.Sprintf("%.3f", c.Score),
			fmt.Sprintf("%.3f", c.Support),
			fmt.Sprintf("%.3f", c.LiftMax),
		})
	}
	return t
}
