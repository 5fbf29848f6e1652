// Package ingest turns raw short texts into item transactions.
package ingest

import "github.com/cognicore/basket/pkg/basket/itemset"

// Pipeline orchestrates the text → transaction flow:
// HTML stripping → tokenization → per-text deduplication
type Pipeline struct {
	tokenizer *Tokenizer
	stripHTML bool
}

// NewPipeline creates an ingestion pipeline around the tokenizer.
func NewPipeline(tokenizer *Tokenizer) *Pipeline {
	return &Pipeline{tokenizer: tokenizer, stripHTML: true}
}

// SetStripHTML toggles markup removal before tokenizing.
func (p *Pipeline) SetStripHTML(on bool) { p.stripHTML = on }

// Tokenizer returns the pipeline's tokenizer.
func (p *Pipeline) Tokenizer() *Tokenizer { return p.tokenizer }

// Process returns the sorted, distinct items of one text. A text with no
// surviving tokens yields an empty transaction, which still counts toward
// support denominators.
func (p *Pipeline) Process(text string) []string {
	if p.stripHTML {
		text = StripHTML(text)
	}
	return itemset.New(p.tokenizer.Tokenize(text)...)
}

// Transactions processes every text, keeping one transaction per text.
func (p *Pipeline) Transactions(texts []string) [][]string {
	out := make([][]string, len(texts))
	for i, text := range texts {
		out[i] = p.Process(text)
	}
	return out
}
