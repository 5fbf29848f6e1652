// Package report turns a mining result into the four named output tables
// (rules, top_rules, pivot_data, frequent_itemsets) and renders them as
// terminal tables or JSON.
package report

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/cognicore/basket/pkg/basket"
	"github.com/cognicore/basket/pkg/basket/rules"
)

// Table names.
const (
	TableRules            = "rules"
	TableTopRules         = "top_rules"
	TablePivot            = "pivot_data"
	TableFrequentItemsets = "frequent_itemsets"
	TableStopwords        = "stopword_candidates"
)

// Report is a persisted, self-describing mining run.
type Report struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Source    string    `json:"source"`
	Params    Params    `json:"params"`
	NoData    bool      `json:"no_data"`
	Stats     Stats     `json:"stats"`

	Rules            []RuleRow    `json:"rules"`
	TopRules         []RuleRow    `json:"top_rules"`
	Pivot            PivotData    `json:"pivot_data"`
	FrequentItemsets []ItemsetRow `json:"frequent_itemsets"`

	// StopwordCandidates is filled only when suggestions were requested.
	StopwordCandidates []StopwordRow `json:"stopword_candidates,omitempty"`
}

// StopwordRow is a suggested stopword with its evidence.
type StopwordRow struct {
	Token   string  `json:"token"`
	Score   float64 `json:"score"`
	Support float64 `json:"support"`
	LiftMax float64 `json:"lift_max"`
}

// Params records the options of the run.
type Params struct {
	MinSupport   float64 `json:"min_support"`
	MaxLen       int     `json:"max_len"`
	Metric       string  `json:"metric"`
	MinThreshold float64 `json:"min_threshold"`
	TopK         int     `json:"top_k"`
	SortBy       string  `json:"sort_by"`
	Ascending    bool    `json:"ascending"`
	PivotBy      string  `json:"pivot_by"`
}

// Stats mirrors basket.Stats.
type Stats struct {
	Transactions int   `json:"transactions"`
	Vocabulary   int   `json:"vocabulary"`
	LevelSizes   []int `json:"level_sizes"`
	Rescans      int   `json:"rescans"`
}

// RuleRow is one rule with labels joined as "a,b".
type RuleRow struct {
	Antecedents       string `json:"antecedents"`
	Consequents       string `json:"consequents"`
	AntecedentSupport Number `json:"antecedent_support"`
	ConsequentSupport Number `json:"consequent_support"`
	Support           Number `json:"support"`
	Confidence        Number `json:"confidence"`
	Lift              Number `json:"lift"`
	Leverage          Number `json:"leverage"`
	Conviction        Number `json:"conviction"`
	ZhangsMetric      Number `json:"zhangs_metric"`
	Jaccard           Number `json:"jaccard"`
	Certainty         Number `json:"certainty"`
	Kulczynski        Number `json:"kulczynski"`
}

// Metric returns the named metric of the row.
func (r RuleRow) Metric(name string) (Number, bool) {
	switch name {
	case rules.AntecedentSupport:
		return r.AntecedentSupport, true
	case rules.ConsequentSupport:
		return r.ConsequentSupport, true
	case rules.Support:
		return r.Support, true
	case rules.Confidence:
		return r.Confidence, true
	case rules.Lift:
		return r.Lift, true
	case rules.Leverage:
		return r.Leverage, true
	case rules.Conviction:
		return r.Conviction, true
	case rules.ZhangsMetric:
		return r.ZhangsMetric, true
	case rules.Jaccard:
		return r.Jaccard, true
	case rules.Certainty:
		return r.Certainty, true
	case rules.Kulczynski:
		return r.Kulczynski, true
	}
	return 0, false
}

// PivotData is the antecedent × consequent matrix.
type PivotData struct {
	Metric string     `json:"metric"`
	Rows   []string   `json:"rows"`
	Cols   []string   `json:"cols"`
	Values [][]Number `json:"values"`
}

// ItemsetRow is one frequent itemset.
type ItemsetRow struct {
	Items   []string `json:"items"`
	Count   int      `json:"count"`
	Support Number   `json:"support"`
}

// Builder assigns run ids and timestamps.
type Builder struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
	now     func() time.Time
}

// New creates a new report builder
func New() *Builder {
	return &Builder{
		entropy: ulid.Monotonic(rand.Reader, 0),
		now:     time.Now,
	}
}

func (b *Builder) newID(t time.Time) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(t), b.entropy).String()
}

// Build snapshots res. source describes the input, e.g. a file path.
func (b *Builder) Build(source string, res *basket.Result) *Report {
	now := b.now().UTC()
	o := res.Options
	r := &Report{
		ID:        b.newID(now),
		CreatedAt: now,
		Source:    source,
		Params: Params{
			MinSupport:   o.MinSupport,
			MaxLen:       o.MaxLen,
			Metric:       o.Metric,
			MinThreshold: o.MinThreshold,
			TopK:         o.TopK,
			SortBy:       o.SortBy,
			Ascending:    o.Ascending,
			PivotBy:      o.PivotMetric(),
		},
		NoData: res.NoData,
		Stats: Stats{
			Transactions: res.Stats.Transactions,
			Vocabulary:   res.Stats.Vocabulary,
			LevelSizes:   append([]int{}, res.Stats.LevelSizes...),
			Rescans:      res.Stats.Rescans,
		},
		Rules:            ruleRows(res.Rules),
		TopRules:         ruleRows(res.TopRules),
		FrequentItemsets: []ItemsetRow{},
	}

	if res.Pivot != nil {
		r.Pivot = PivotData{
			Metric: res.Pivot.Metric,
			Rows:   append([]string{}, res.Pivot.Rows()...),
			Cols:   append([]string{}, res.Pivot.Cols()...),
			Values: make([][]Number, len(res.Pivot.Values())),
		}
		for i, row := range res.Pivot.Values() {
			r.Pivot.Values[i] = make([]Number, len(row))
			for j, v := range row {
				r.Pivot.Values[i][j] = Number(v)
			}
		}
	}

	if res.FrequentItemsets != nil {
		for _, f := range res.FrequentItemsets.Itemsets() {
			r.FrequentItemsets = append(r.FrequentItemsets, ItemsetRow{
				Items:   append([]string{}, f.Items...),
				Count:   f.Count,
				Support: Number(f.Support),
			})
		}
	}
	return r
}

func ruleRows(rs []rules.Rule) []RuleRow {
	out := make([]RuleRow, len(rs))
	for i, r := range rs {
		out[i] = RuleRow{
			Antecedents:       r.AntecedentLabel(),
			Consequents:       r.ConsequentLabel(),
			AntecedentSupport: Number(r.AntecedentSupport),
			ConsequentSupport: Number(r.ConsequentSupport),
			Support:           Number(r.Support),
			Confidence:        Number(r.Confidence),
			Lift:              Number(r.Lift),
			Leverage:          Number(r.Leverage),
			Conviction:        Number(r.Conviction),
			ZhangsMetric:      Number(r.ZhangsMetric),
			Jaccard:           Number(r.Jaccard),
			Certainty:         Number(r.Certainty),
			Kulczynski:        Number(r.Kulczynski),
		}
	}
	return out
}

// Summary is the listing view of a report.
type Summary struct {
	ID           string    `json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	Source       string    `json:"source"`
	Transactions int       `json:"transactions"`
	Rules        int       `json:"rules"`
}

// Summarize returns the listing view of r.
func (r *Report) Summarize() Summary {
	return Summary{
		ID:           r.ID,
		CreatedAt:    r.CreatedAt,
		Source:       r.Source,
		Transactions: r.Stats.Transactions,
		Rules:        len(r.Rules),
	}
}
