// Command fetch-comments downloads every comment of a YouTube video to a
// JSONL file that basket can mine.
//
//	YOUTUBE_API_KEY=... fetch-comments -video dQw4w9WgXcQ -out comments.jsonl
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/cognicore/basket/internal/corpus"
	"github.com/cognicore/basket/internal/logging"
	"github.com/cognicore/basket/internal/youtube"
	"github.com/cognicore/basket/pkg/basket/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		logging.Error().Err(err).Msg("fetch failed")
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("fetch-comments", flag.ContinueOnError)
	var (
		configPath = fs.String("config", "", "config file (default basket.yaml or $BASKET_CONFIG)")
		videoID    = fs.String("video", "", "video ID (required)")
		outPath    = fs.String("out", "comments.jsonl", "output JSONL file, - for stdout")
		maxTotal   = fs.Int("max-total", -1, "stop after this many comments, 0 for all (default fetch.max_total)")
		noReplies  = fs.Bool("no-replies", false, "skip reply threads")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *videoID == "" {
		fs.Usage()
		return errors.New("-video required")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	logging.Init(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})

	f := cfg.Fetch
	if *maxTotal >= 0 {
		f.MaxTotal = *maxTotal
	}
	if *noReplies {
		f.IncludeReplies = false
	}

	logger := logging.Logger()
	client, err := youtube.New(youtube.Config{
		APIKey:            f.APIKey,
		BaseURL:           f.BaseURL,
		IncludeReplies:    f.IncludeReplies,
		MaxTotal:          f.MaxTotal,
		RequestsPerSecond: f.RequestsPerSecond,
		MaxRetries:        f.MaxRetries,
		Timeout:           f.Timeout,
		ReplyWorkers:      f.ReplyWorkers,
		Logger:            &logger,
	})
	if err != nil {
		return err
	}

	w, closeOut, err := openOutput(*outPath)
	if err != nil {
		return err
	}
	n, err := fetch(ctx, client, *videoID, w)
	if cerr := closeOut(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}

	logging.Info().Int("comments", n).Str("out", *outPath).Msg("download complete")
	return nil
}

// fetch streams the comments of videoID to w as JSONL. Comments written
// before a failure are kept.
func fetch(ctx context.Context, client *youtube.Client, videoID string, w io.Writer) (int, error) {
	cw := corpus.NewWriter(w)
	_, err := client.Collect(ctx, videoID, cw.Write)
	if ferr := cw.Flush(); err == nil {
		err = ferr
	}
	return cw.Count(), err
}

func openOutput(path string) (io.Writer, func() error, error) {
	if path == "-" {
		return os.Stdout, func() error { return nil }, nil
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("create output directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("create output file: %w", err)
	}
	return f, f.Close, nil
}
