package search

import (
	"maps"

	"github.com/meghashyamc/pagesearch/config"
)

// Config holds the search settings. It is built once at startup and never mutated.
type Config struct {
	// ResultsPerPage is used when a request does not ask for a page size. Zero
	// disables pagination.
	ResultsPerPage int
	// MaxResultsPerPage caps the page size a request can ask for. Zero means no cap.
	MaxResultsPerPage int
	LoadAll           bool
	// Filters restrict every query to documents whose field equals the value.
	Filters map[string]string
	// Fields maps output keys to dotted lookup paths into each result.
	Fields map[string]string
}

func ConfigFrom(cfg *config.Config) Config {
	return Config{
		ResultsPerPage:    max(cfg.GetResultsPerPage(), 0),
		MaxResultsPerPage: max(cfg.GetMaxResultsPerPage(), 0),
		LoadAll:           cfg.GetLoadAll(),
		Filters:           maps.Clone(cfg.GetSearchFilters()),
		Fields:            maps.Clone(cfg.GetPrepareFields()),
	}
}

// perPageFor resolves the page size for a request asking for requested items.
func (c Config) perPageFor(requested int) int {
	perPage := requested
	if perPage <= 0 {
		perPage = c.ResultsPerPage
	}
	if c.MaxResultsPerPage > 0 && perPage > c.MaxResultsPerPage {
		perPage = c.MaxResultsPerPage
	}
	return perPage
}
