package rules

import (
	"fmt"
	"math"

	"github.com/cognicore/basket/pkg/basket/internalerr"
)

// Metric names accepted for thresholding, ranking and pivoting.
const (
	AntecedentSupport = "antecedent_support"
	ConsequentSupport = "consequent_support"
	Support           = "support"
	Confidence        = "confidence"
	Lift              = "lift"
	Leverage          = "leverage"
	Conviction        = "conviction"
	ZhangsMetric      = "zhangs_metric"
	Jaccard           = "jaccard"
	Certainty         = "certainty"
	Kulczynski        = "kulczynski"
)

type metricDef struct {
	name     string
	min, max float64
	get      func(r *Rule) float64
}

var metricDefs = []metricDef{
	{Support, 0, 1, func(r *Rule) float64 { return r.Support }},
	{Confidence, 0, 1, func(r *Rule) float64 { return r.Confidence }},
	{Lift, 0, math.Inf(1), func(r *Rule) float64 { return r.Lift }},
	{Conviction, 0, math.Inf(1), func(r *Rule) float64 { return r.Conviction }},
	{Leverage, -1, 1, func(r *Rule) float64 { return r.Leverage }},
	{AntecedentSupport, 0, 1, func(r *Rule) float64 { return r.AntecedentSupport }},
	{ConsequentSupport, 0, 1, func(r *Rule) float64 { return r.ConsequentSupport }},
	{ZhangsMetric, -1, 1, func(r *Rule) float64 { return r.ZhangsMetric }},
	{Jaccard, 0, 1, func(r *Rule) float64 { return r.Jaccard }},
	{Certainty, math.Inf(-1), 1, func(r *Rule) float64 { return r.Certainty }},
	{Kulczynski, 0, 1, func(r *Rule) float64 { return r.Kulczynski }},
}

var metricIndex = func() map[string]int {
	idx := make(map[string]int, len(metricDefs))
	for i, d := range metricDefs {
		idx[d.name] = i
	}
	return idx
}()

// MetricNames lists every metric a rule carries, in display order.
func MetricNames() []string {
	names := make([]string, len(metricDefs))
	for i, d := range metricDefs {
		names[i] = d.name
	}
	return names
}

// IsMetric reports whether name is a known rule metric.
func IsMetric(name string) bool {
	_, ok := metricIndex[name]
	return ok
}

// ValidateMetric rejects unknown metric names. param names the
// configuration field in the error.
func ValidateMetric(param, name string) error {
	if !IsMetric(name) {
		return internalerr.InvalidChoice(param, name, MetricNames())
	}
	return nil
}

// ValidateThreshold rejects NaN and values outside the metric's range.
func ValidateThreshold(metric string, threshold float64) error {
	if err := ValidateMetric("metric", metric); err != nil {
		return err
	}
	d := metricDefs[metricIndex[metric]]
	if !(threshold >= d.min && threshold <= d.max) {
		return internalerr.OutOfRange("min_threshold", threshold,
			fmt.Sprintf("%s thresholds must be in [%g, %g]", metric, d.min, d.max))
	}
	return nil
}

// computeMetrics fills the derived measures from the three supports.
// sA is positive for every rule built from a frequent itemset, because the
// antecedent is a subset of it.
func (r *Rule) computeMetrics(sAC, sA, sC float64) {
	r.Support = sAC
	r.AntecedentSupport = sA
	r.ConsequentSupport = sC

	r.Confidence = sAC / sA
	r.Lift = r.Confidence / sC
	r.Leverage = sAC - sA*sC

	if r.Confidence < 1 {
		r.Conviction = (1 - sC) / (1 - r.Confidence)
	} else {
		r.Conviction = math.Inf(1)
	}

	if denom := math.Max(sAC*(1-sA), sA*(sC-sAC)); denom != 0 {
		r.ZhangsMetric = r.Leverage / denom
	}

	r.Jaccard = sAC / (sA + sC - sAC)

	if sC != 1 {
		r.Certainty = (r.Confidence - sC) / (1 - sC)
	}

	r.Kulczynski = (sAC/sA + sAC/sC) / 2
}
