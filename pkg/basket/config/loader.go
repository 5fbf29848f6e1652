package config

import (
	"fmt"

	"github.com/cognicore/basket/pkg/basket/ingest"
)

// Loader loads the ingest resource files and constructs the text pipeline.
type Loader struct {
	StoplistPath string
	DictPath     string
	Stopwords    []string // merged with the stoplist file
	MinTokenLen  int      // 0 keeps the tokenizer default
	KeepHTML     bool
}

// Components holds the loaded ingest components.
type Components struct {
	Tokenizer *ingest.Tokenizer
	Pipeline  *ingest.Pipeline
}

// NewLoader returns a Loader for the ingest section of cfg.
func NewLoader(cfg IngestConfig) *Loader {
	return &Loader{
		StoplistPath: cfg.StoplistPath,
		DictPath:     cfg.DictPath,
		Stopwords:    cfg.Stopwords,
		MinTokenLen:  cfg.MinTokenLen,
		KeepHTML:     !cfg.StripHTML,
	}
}

// Load reads all configured files and returns initialized components
func (l *Loader) Load() (*Components, error) {
	stops := append([]string(nil), l.Stopwords...)
	if l.StoplistPath != "" {
		stoplist, err := LoadStoplist(l.StoplistPath)
		if err != nil {
			return nil, fmt.Errorf("load stoplist: %w", err)
		}
		stops = append(stops, stoplist.Terms...)
	}

	tok := ingest.NewTokenizer(stops)
	if l.MinTokenLen > 0 {
		tok.SetMinLen(l.MinTokenLen)
	}

	if l.DictPath != "" {
		dict, err := LoadDict(l.DictPath)
		if err != nil {
			return nil, fmt.Errorf("load dictionary: %w", err)
		}
		tok.SetSynonyms(dict.Synonyms())
	}

	p := ingest.NewPipeline(tok)
	p.SetStripHTML(!l.KeepHTML)
	return &Components{Tokenizer: tok, Pipeline: p}, nil
}
