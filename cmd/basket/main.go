// Command basket mines association rules from a comment dump or a plain
// text file and prints the rule tables.
//
//	basket -input comments.jsonl -top-k 20 -sort-by lift
//	basket -input comments.jsonl -format json > report.json
//	basket -list
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/cognicore/basket/internal/corpus"
	"github.com/cognicore/basket/internal/logging"
	"github.com/cognicore/basket/pkg/basket"
	"github.com/cognicore/basket/pkg/basket/config"
	"github.com/cognicore/basket/pkg/basket/report"
	"github.com/cognicore/basket/pkg/basket/stoplist"
	"github.com/cognicore/basket/pkg/basket/store"
	"github.com/cognicore/basket/pkg/basket/store/memstore"
	"github.com/cognicore/basket/pkg/basket/store/sqlite"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		logging.Error().Err(err).Msg("basket failed")
		os.Exit(1)
	}
}

type options struct {
	configPath string
	input      string
	format     string
	tables     string
	logLevel   string

	list       bool
	show       string
	remove     string
	noSave     bool
	suggest    bool
	acceptStop bool

	minSupport   float64
	maxLen       int
	metric       string
	minThreshold float64
	topK         int
	sortBy       string
	ascending    bool
	pivotBy      string
}

func parseFlags(args []string, stderr io.Writer) (*options, *flag.FlagSet, error) {
	o := &options{}
	fs := flag.NewFlagSet("basket", flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.StringVar(&o.configPath, "config", "", "config file (default basket.yaml or $BASKET_CONFIG)")
	fs.StringVar(&o.input, "input", "", "JSONL comment dump or plain text file, one text per line")
	fs.StringVar(&o.format, "format", "table", "output format: table or json")
	fs.StringVar(&o.tables, "tables", "", "comma-separated tables to print (rules,top_rules,pivot_data,frequent_itemsets,stopword_candidates)")
	fs.StringVar(&o.logLevel, "log-level", "", "override log.level")

	fs.BoolVar(&o.list, "list", false, "list stored reports")
	fs.StringVar(&o.show, "show", "", "print a stored report by ID")
	fs.StringVar(&o.remove, "delete", "", "delete a stored report by ID")
	fs.BoolVar(&o.noSave, "no-save", false, "do not persist the report even when store.path is set")
	fs.BoolVar(&o.suggest, "suggest-stopwords", false, "print stopword candidates after mining")
	fs.BoolVar(&o.acceptStop, "accept-stopwords", false, "persist the suggested stopwords to the store")

	d := basket.DefaultOptions()
	fs.Float64Var(&o.minSupport, "min-support", d.MinSupport, "minimum itemset support ratio")
	fs.IntVar(&o.maxLen, "max-len", d.MaxLen, "largest itemset size")
	fs.StringVar(&o.metric, "metric", d.Metric, "rule filter metric")
	fs.Float64Var(&o.minThreshold, "min-threshold", d.MinThreshold, "minimum value of -metric")
	fs.IntVar(&o.topK, "top-k", d.TopK, "rules kept in top_rules")
	fs.StringVar(&o.sortBy, "sort-by", d.SortBy, "ranking metric")
	fs.BoolVar(&o.ascending, "ascending", d.Ascending, "rank ascending")
	fs.StringVar(&o.pivotBy, "pivot-by", "", "pivot cell metric (default -sort-by)")

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	return o, fs, nil
}

// applyFlags copies explicitly set mining flags over the loaded config.
func applyFlags(fs *flag.FlagSet, o *options, cfg *config.Config) {
	fs.Visit(func(f *flag.Flag) {
		m := &cfg.Mining
		switch f.Name {
		case "min-support":
			m.MinSupport = o.minSupport
		case "max-len":
			m.MaxLen = o.maxLen
		case "metric":
			m.Metric = o.metric
		case "min-threshold":
			m.MinThreshold = o.minThreshold
		case "top-k":
			m.TopK = o.topK
		case "sort-by":
			m.SortBy = o.sortBy
		case "ascending":
			m.Ascending = o.ascending
		case "pivot-by":
			m.PivotBy = o.pivotBy
		case "log-level":
			cfg.Log.Level = o.logLevel
		}
	})
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	o, fs, err := parseFlags(args, os.Stderr)
	if err != nil {
		return err
	}

	cfg, err := config.Load(o.configPath)
	if err != nil {
		return err
	}
	applyFlags(fs, o, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}
	logging.Init(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})

	st, err := openStore(ctx, cfg.Store.Path)
	if err != nil {
		return err
	}
	if st != nil {
		defer st.Close()
	}

	switch {
	case o.list:
		return listReports(ctx, st, stdout)
	case o.show != "":
		return showReport(ctx, st, o.show, o, stdout)
	case o.remove != "":
		if st == nil {
			return errNoStore
		}
		if err := st.DeleteReport(ctx, o.remove); err != nil {
			return err
		}
		_, err := fmt.Fprintf(stdout, "deleted report %s\n", o.remove)
		return err
	}

	if o.input == "" {
		fs.Usage()
		return errors.New("-input required")
	}
	return analyze(ctx, cfg, st, o, stdout)
}

var errNoStore = errors.New("store.path is not configured")

// memoryPath selects the in-process store, which lives for one invocation.
const memoryPath = ":memory:"

func openStore(ctx context.Context, path string) (store.Store, error) {
	switch path {
	case "":
		return nil, nil
	case memoryPath:
		return memstore.New(), nil
	}
	return sqlite.OpenSQLite(ctx, path)
}

func analyze(ctx context.Context, cfg *config.Config, st store.Store, o *options, stdout io.Writer) error {
	var stored []string
	if st != nil {
		var err error
		stored, err = st.Stopwords(ctx)
		if err != nil {
			return fmt.Errorf("load stored stopwords: %w", err)
		}
		cfg.Ingest.Stopwords = append(cfg.Ingest.Stopwords, stored...)
	}

	components, err := config.NewLoader(cfg.Ingest).Load()
	if err != nil {
		return err
	}

	texts, err := corpus.Load(o.input)
	if err != nil {
		return err
	}

	logger := logging.Logger()
	analyzer, err := basket.NewAnalyzer(basket.AnalyzerOptions{
		Pipeline: components.Pipeline,
		Mining:   cfg.MiningOptions(),
		Logger:   &logger,
	})
	if err != nil {
		return err
	}

	res, err := analyzer.Analyze(texts)
	if err != nil {
		return err
	}

	rep := report.New().Build(o.input, res)
	if o.suggest || o.acceptStop {
		if err := suggestStopwords(ctx, st, stored, res, rep, o.acceptStop); err != nil {
			return err
		}
	}
	logging.Info().
		Str("report", rep.ID).
		Int("transactions", rep.Stats.Transactions).
		Int("itemsets", len(rep.FrequentItemsets)).
		Int("rules", len(rep.Rules)).
		Msg("analysis complete")

	if st != nil && !o.noSave {
		if err := st.SaveReport(ctx, rep); err != nil {
			return err
		}
	}
	return writeReport(stdout, rep, o)
}

func writeReport(w io.Writer, rep *report.Report, o *options) error {
	if strings.EqualFold(o.format, "json") {
		return report.WriteJSON(w, rep)
	}
	if rep.NoData {
		_, err := fmt.Fprintln(w, "no items extracted from the input, nothing to mine")
		return err
	}
	return report.Render(w, rep, splitList(o.tables)...)
}

// suggestStopwords attaches stopword candidates to rep. With accept set the
// candidates join the stored stoplist.
func suggestStopwords(ctx context.Context, st store.Store, stored []string, res *basket.Result, rep *report.Report, accept bool) error {
	mgr := stoplist.NewManager(stored)
	cands := mgr.SuggestCandidates(stoplist.StatsFromResult(res), stoplist.DefaultThresholds())

	rep.StopwordCandidates = make([]report.StopwordRow, 0, len(cands))
	for _, c := range cands {
		rep.StopwordCandidates = append(rep.StopwordCandidates, report.StopwordRow{
			Token:   c.Token,
			Score:   c.Score,
			Support: c.Reason.Support,
			LiftMax: c.Reason.LiftMax,
		})
	}

	if !accept || len(cands) == 0 {
		return nil
	}
	if st == nil {
		return errNoStore
	}
	for _, c := range cands {
		mgr.Add(c.Token, c.Reason)
	}
	if err := st.AddStopwords(ctx, mgr.All()); err != nil {
		return err
	}
	logging.Info().Int("accepted", len(cands)).Int("stoplist", len(mgr.All())).Msg("stopwords accepted")
	return nil
}

func listReports(ctx context.Context, st store.Store, w io.Writer) error {
	if st == nil {
		return errNoStore
	}
	sums, err := st.ListReports(ctx, store.DefaultListLimit)
	if err != nil {
		return err
	}
	tw := newTable(w, "reports", "id", "created", "transactions", "rules", "source")
	for _, s := range sums {
		tw.AppendRow(table.Row{s.ID, s.CreatedAt.Format("2006-01-02 15:04:05"), s.Transactions, s.Rules, s.Source})
	}
	tw.Render()
	return nil
}

func showReport(ctx context.Context, st store.Store, id string, o *options, w io.Writer) error {
	if st == nil {
		return errNoStore
	}
	rep, err := st.GetReport(ctx, id)
	if err != nil {
		return err
	}
	return writeReport(w, rep, o)
}

func newTable(w io.Writer, title string, header ...string) table.Writer {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleLight)
	tw.SetTitle(title)
	row := make(table.Row, len(header))
	for i, h := range header {
		row[i] = h
	}
	tw.AppendHeader(row)
	return tw
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
