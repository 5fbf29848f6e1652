package basket

import (
	"github.com/rs/zerolog"

	"github.com/cognicore/basket/pkg/basket/ingest"
)

// Analyzer mines raw texts: each text is turned into one transaction by the
// ingest pipeline, then the transactions are mined with the configured
// options.
type Analyzer struct {
	pipeline *ingest.Pipeline
	opts     Options
	log      zerolog.Logger
}

// AnalyzerOptions configures an Analyzer.
type AnalyzerOptions struct {
	Pipeline *ingest.Pipeline // nil means a default tokenizer with no stopwords
	Mining   Options
	Logger   *zerolog.Logger // nil disables logging
}

// NewAnalyzer validates the mining options and builds an Analyzer.
func NewAnalyzer(o AnalyzerOptions) (*Analyzer, error) {
	if err := o.Mining.Validate(); err != nil {
		return nil, err
	}
	a := &Analyzer{pipeline: o.Pipeline, opts: o.Mining, log: zerolog.Nop()}
	if a.pipeline == nil {
		a.pipeline = ingest.NewPipeline(ingest.NewTokenizer(nil))
	}
	if o.Logger != nil {
		a.log = o.Logger.With().Str("component", "basket").Logger()
	}
	return a, nil
}

// Options returns the mining options in use.
func (a *Analyzer) Options() Options { return a.opts }

// Transactions converts texts to transactions without mining.
func (a *Analyzer) Transactions(texts []string) [][]string {
	return a.pipeline.Transactions(texts)
}

// Analyze tokenizes texts and mines them.
func (a *Analyzer) Analyze(texts []string) (*Result, error) {
	txs := a.pipeline.Transactions(texts)
	a.log.Debug().Int("texts", len(texts)).Msg("tokenized")

	res, err := Mine(txs, a.opts)
	if err != nil {
		return nil, err
	}

	if res.NoData {
		a.log.Warn().Int("texts", len(texts)).Msg("no items extracted, nothing to mine")
		return res, nil
	}
	a.log.Debug().
		Int("transactions", res.Stats.Transactions).
		Int("vocabulary", res.Stats.Vocabulary).
		Ints("levels", res.Stats.LevelSizes).
		Int("rules", len(res.Rules)).
		Int("top_rules", len(res.TopRules)).
		Msg("mined")
	if res.Stats.Rescans > 0 {
		a.log.Warn().Int("rescans", res.Stats.Rescans).Msg("rule supports recounted from transactions")
	}
	return res, nil
}
