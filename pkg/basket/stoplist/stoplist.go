// Package stoplist suggests stopwords from a mining result: items present
// in a large share of transactions that never take part in a strong rule
// only inflate supports and crowd the rule table.
package stoplist

import (
	"math"
	"sort"

	"github.com/cognicore/basket/pkg/basket"
)

// Manager tracks the current stoplist and evaluates new candidates.
type Manager struct {
	stops map[string]Reason
}

// Reason explains why a token is a stopword
type Reason struct {
	HighSupport bool    // present in many transactions
	LowLift     bool    // no rule involving it beats the lift ceiling
	Support     float64 // support ratio of the single item
	LiftMax     float64 // best lift of any rule involving it, 0 when none
}

// NewManager creates a new stoplist manager
func NewManager(initialStops []string) *Manager {
	stops := make(map[string]Reason, len(initialStops))
	for _, s := range initialStops {
		stops[s] = Reason{}
	}
	return &Manager{stops: stops}
}

// IsStop checks if a token is a stopword
func (m *Manager) IsStop(token string) bool {
	_, ok := m.stops[token]
	return ok
}

// Add adds a token to the stoplist with a reason
func (m *Manager) Add(token string, reason Reason) {
	m.stops[token] = reason
}

// All returns all stopwords, sorted
func (m *Manager) All() []string {
	result := make([]string, 0, len(m.stops))
	for s := range m.stops {
		result = append(result, s)
	}
	sort.Strings(result)
	return result
}

// Stats holds per-item evidence for candidate evaluation
type Stats struct {
	Token   string
	Support float64
	LiftMax float64
	Rules   int // rules the item appears in, on either side
}

// StatsFromResult gathers Stats for every frequent single item of res.
// Lift evidence comes from res.Rules, so a result mined with a low
// threshold gives the most complete picture.
func StatsFromResult(res *basket.Result) []Stats {
	byToken := make(map[string]*Stats)
	var order []string
	for _, f := range res.FrequentItemsets.Itemsets() {
		if f.Items.Len() != 1 {
			continue
		}
		tok := f.Items[0]
		byToken[tok] = &Stats{Token: tok, Support: f.Support}
		order = append(order, tok)
	}

	for _, r := range res.Rules {
		for _, side := range [][]string{r.Antecedents, r.Consequents} {
			for _, tok := range side {
				s, ok := byToken[tok]
				if !ok {
					continue
				}
				s.Rules++
				if r.Lift > s.LiftMax {
					s.LiftMax = r.Lift
				}
			}
		}
	}

	out := make([]Stats, len(order))
	for i, tok := range order {
		out[i] = *byToken[tok]
	}
	return out
}

// Candidate represents a candidate stopword
type Candidate struct {
	Token  string
	Reason Reason
	Score  float64 // in [0, 1], higher is a stronger suggestion
}

// SuggestCandidates suggests tokens that should be stopwords, strongest
// first.
func (m *Manager) SuggestCandidates(stats []Stats, th Thresholds) []Candidate {
	if th.SupportMin <= 0 {
		th.SupportMin = DefaultThresholds().SupportMin
	}
	if th.LiftCeiling <= 0 {
		th.LiftCeiling = DefaultThresholds().LiftCeiling
	}

	var candidates []Candidate
	for _, s := range stats {
		if m.IsStop(s.Token) {
			continue // already a stopword
		}

		reason := Reason{
			HighSupport: s.Support >= th.SupportMin,
			LowLift:     s.LiftMax < th.LiftCeiling,
			Support:     s.Support,
			LiftMax:     s.LiftMax,
		}
		if !reason.HighSupport || !reason.LowLift {
			continue
		}

		// 1 at or below independence, falling to 0 at the ceiling.
		weak := 1.0
		if s.LiftMax > 1 {
			weak = math.Max(0, (th.LiftCeiling-s.LiftMax)/(th.LiftCeiling-1))
		}
		candidates = append(candidates, Candidate{
			Token:  s.Token,
			Reason: reason,
			Score:  (s.Support + weak) / 2,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].Token < candidates[j].Token
	})
	return candidates
}

// Thresholds defines criteria for stopword identification
type Thresholds struct {
	SupportMin  float64 // e.g. 0.3: in at least 30% of transactions
	LiftCeiling float64 // e.g. 1.2: no rule with lift at or above this
}

// DefaultThresholds returns sensible default thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		SupportMin:  0.3,
		LiftCeiling: 1.2,
	}
}
