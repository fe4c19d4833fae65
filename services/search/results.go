package search

import (
	"context"
	"encoding/json"

	"github.com/cockroachdb/errors"
	"github.com/meghashyamc/pagesearch/db/kvdb"
	"github.com/meghashyamc/pagesearch/db/searchdb"
	"github.com/meghashyamc/pagesearch/logger"
)

// Results is the lazily evaluated result set of one query. Nothing is fetched from
// the backend until Slice or Count is called, and the total reported by the last
// Slice is reused by Count. A Results value serves a single request.
type Results struct {
	logger  logger.Logger
	backend searchdb.DB
	records kvdb.DB
	query   searchdb.Query
	loadAll bool
	total   *int
}

// NewResults returns the results of query. records may be nil when loadAll is false.
func NewResults(logger logger.Logger, backend searchdb.DB, records kvdb.DB, query searchdb.Query, loadAll bool) *Results {
	return &Results{
		logger:  logger,
		backend: backend,
		records: records,
		query:   query,
		loadAll: loadAll && records != nil,
	}
}

// empty reports whether the query matches nothing without asking the backend.
func (r *Results) empty() bool {
	return searchdb.IsEmptyQuery(r.query.Text)
}

func (r *Results) Slice(ctx context.Context, offset int, limit int) ([]searchdb.Result, error) {
	if r.empty() {
		r.setTotal(0)
		return []searchdb.Result{}, nil
	}

	response, err := r.backend.Search(ctx, r.query, limit, offset)
	if err != nil {
		return nil, errors.Wrapf(err, "could not fetch results %d to %d", offset, offset+limit)
	}
	r.setTotal(int(response.Total))

	if r.loadAll {
		if err := r.loadObjects(response.Results); err != nil {
			return nil, err
		}
	}

	return response.Results, nil
}

func (r *Results) Count(ctx context.Context) (int, error) {
	if r.total != nil {
		return *r.total, nil
	}
	if r.empty() {
		r.setTotal(0)
		return 0, nil
	}

	response, err := r.backend.Search(ctx, r.query, 0, 0)
	if err != nil {
		return 0, errors.Wrap(err, "could not count results")
	}
	r.setTotal(int(response.Total))
	return *r.total, nil
}

func (r *Results) setTotal(total int) {
	r.total = &total
}

// loadObjects attaches the stored record of every result. Results without a
// record keep a nil Object.
func (r *Results) loadObjects(results []searchdb.Result) error {
	if len(results) == 0 {
		return nil
	}

	ids := make([]string, len(results))
	for i, result := range results {
		ids[i] = result.ID
	}

	values, err := r.records.GetMany(kvdb.RecordsBucket, ids)
	if err != nil {
		return errors.Wrap(err, "could not load records")
	}

	for i := range results {
		value, ok := values[results[i].ID]
		if !ok {
			r.logger.Warn("no stored record for search result", "id", results[i].ID)
			continue
		}

		var object map[string]any
		if err := json.Unmarshal([]byte(value), &object); err != nil {
			r.logger.Warn("could not decode stored record", "id", results[i].ID, "err", err.Error())
			continue
		}
		results[i].Object = object
	}

	return nil
}
