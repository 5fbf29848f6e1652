// Package store persists mining reports and accepted stopwords outside the
// engine. The engine itself keeps no state between runs.
package store

import (
	"context"

	"github.com/cognicore/basket/pkg/basket/report"
)

// Store is the persistence interface for mining runs.
type Store interface {
	Close() error

	// Reports
	SaveReport(ctx context.Context, r *report.Report) error
	GetReport(ctx context.Context, id string) (*report.Report, error)
	ListReports(ctx context.Context, limit int) ([]report.Summary, error)
	DeleteReport(ctx context.Context, id string) error // ErrNotFound for an unknown id

	// Stopwords accepted from suggestions, merged into later runs.
	AddStopwords(ctx context.Context, tokens []string) error
	Stopwords(ctx context.Context) ([]string, error)
}

// DefaultListLimit applies when ListReports is called with limit <= 0.
const DefaultListLimit = 20
