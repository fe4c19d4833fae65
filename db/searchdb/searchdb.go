package searchdb

import (
	"context"
	"fmt"

	"github.com/meghashyamc/pagesearch/config"
	"github.com/meghashyamc/pagesearch/logger"
)

type DB interface {
	BuildIndex(documents []Document) error
	DeleteDocuments(documentIDs []string) error
	// Search returns at most limit results starting at offset, along with the total
	// number of matches. A limit of 0 only reports the total.
	Search(ctx context.Context, query Query, limit int, offset int) (*Response, error)
	// Suggest returns queryString with misspelled terms replaced by the closest indexed term.
	Suggest(ctx context.Context, queryString string) (string, error)
	// IncludeSpelling reports whether Suggest is supported and enabled.
	IncludeSpelling() bool
	GetDocCount() (uint64, error)
	Close() error
}

// Open returns the backend selected by the search.backend setting.
func Open(logger logger.Logger, cfg *config.Config) (DB, error) {
	switch backend := cfg.GetSearchBackend(); backend {
	case config.BackendBleve:
		return New(logger, cfg)
	case config.BackendAlgolia:
		return NewAlgolia(logger, cfg), nil
	default:
		return nil, fmt.Errorf("unknown search backend %q", backend)
	}
}
