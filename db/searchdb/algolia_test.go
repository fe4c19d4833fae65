package searchdb

import (
	"context"
	"io"
	"log/slog"
	"testing"

	algoliasearch "github.com/algolia/algoliasearch-client-go/v3/algolia/search"
	"github.com/cockroachdb/errors"
	"github.com/meghashyamc/pagesearch/logger"
	"github.com/stretchr/testify/require"
)

type fakeAlgoliaIndex struct {
	res        algoliasearch.QueryRes
	err        error
	queries    []string
	saved      interface{}
	deletedIDs []string
}

func (f *fakeAlgoliaIndex) Search(query string, opts ...interface{}) (algoliasearch.QueryRes, error) {
	f.queries = append(f.queries, query)
	return f.res, f.err
}

func (f *fakeAlgoliaIndex) SaveObjects(objects interface{}, opts ...interface{}) (algoliasearch.GroupBatchRes, error) {
	f.saved = objects
	return algoliasearch.GroupBatchRes{}, f.err
}

func (f *fakeAlgoliaIndex) DeleteObjects(objectIDs []string, opts ...interface{}) (algoliasearch.BatchRes, error) {
	f.deletedIDs = objectIDs
	return algoliasearch.BatchRes{}, f.err
}

func newTestAlgoliaDB(index *fakeAlgoliaIndex) *AlgoliaDB {
	return newAlgoliaWithIndex(logger.NewWithLevel(io.Discard, slog.LevelDebug), "test-index", func() (AlgoliaIndex, error) {
		return index, nil
	})
}

func TestBuildAlgoliaSearchParams(t *testing.T) {
	var buildParamsTestCases = []struct {
		name          string
		query         Query
		limit         int
		offset        int
		expectedCount int
	}{
		{name: "FirstPage", limit: 20, offset: 0, expectedCount: 1},
		{name: "LaterPage", limit: 20, offset: 40, expectedCount: 2},
		{name: "CountOnly", limit: 0, offset: 0, expectedCount: 1},
		{name: "WithFilters", query: Query{Filters: map[string]string{"type": "recipe"}}, limit: 10, expectedCount: 2},
		{name: "PageAndFilters", query: Query{Filters: map[string]string{"type": "recipe"}}, limit: 10, offset: 10, expectedCount: 3},
	}

	for _, testCase := range buildParamsTestCases {
		t.Run(testCase.name, func(t *testing.T) {
			assert := require.New(t)
			params := buildAlgoliaSearchParams(testCase.query, testCase.limit, testCase.offset)
			assert.Len(params, testCase.expectedCount)
		})
	}
}

func TestAlgoliaFilters(t *testing.T) {
	var filtersTestCases = []struct {
		name     string
		filters  map[string]string
		expected string
	}{
		{name: "None", filters: nil, expected: ""},
		{name: "Single", filters: map[string]string{"type": "recipe"}, expected: `type:"recipe"`},
		{name: "SortedByField", filters: map[string]string{"type": "recipe", "author": "sam"}, expected: `author:"sam" AND type:"recipe"`},
		{name: "QuotesEscaped", filters: map[string]string{"title": `say "hi"`}, expected: `title:"say \"hi\""`},
		{name: "FieldWithSpaces", filters: map[string]string{"my field": "x"}, expected: `"my field":"x"`},
	}

	for _, testCase := range filtersTestCases {
		t.Run(testCase.name, func(t *testing.T) {
			require.Equal(t, testCase.expected, algoliaFilters(testCase.filters))
		})
	}
}

func TestResultFromAlgoliaHit(t *testing.T) {
	assert := require.New(t)

	hit := map[string]interface{}{
		"objectID":         "doc-7",
		"type":             "article",
		"title":            "Search engines",
		"_highlightResult": map[string]interface{}{},
	}

	first := resultFromAlgoliaHit(hit, 4, 0)
	assert.Equal("doc-7", first.ID)
	assert.Equal("article", first.Type)
	assert.Equal(1.0, first.Score)
	assert.Equal(map[string]any{"type": "article", "title": "Search engines"}, first.Fields)

	last := resultFromAlgoliaHit(hit, 4, 3)
	assert.Equal(0.25, last.Score)
}

func TestAlgoliaSearch(t *testing.T) {
	assert := require.New(t)
	index := &fakeAlgoliaIndex{res: algoliasearch.QueryRes{
		NbHits: 42,
		Hits: []map[string]interface{}{
			{"objectID": "a", "type": "article"},
			{"objectID": "b", "type": "recipe"},
		},
	}}
	db := newTestAlgoliaDB(index)

	response, err := db.Search(context.Background(), Query{Text: "  soup  "}, 2, 2)
	assert.NoError(err)
	assert.Equal(uint64(42), response.Total)
	assert.Equal([]string{"a", "b"}, resultIDs(response.Results))
	assert.Equal(1.0, response.MaxScore)
	assert.Equal([]string{"soup"}, index.queries)
}

func TestAlgoliaSearchFailure(t *testing.T) {
	assert := require.New(t)
	db := newTestAlgoliaDB(&fakeAlgoliaIndex{err: errors.New("connection refused")})

	_, err := db.Search(context.Background(), Query{Text: "soup"}, 10, 0)
	assert.ErrorIs(err, ErrBackendUnavailable)

	_, err = db.GetDocCount()
	assert.ErrorIs(err, ErrBackendUnavailable)
}

func TestAlgoliaMissingCredentials(t *testing.T) {
	assert := require.New(t)
	db := newAlgoliaWithIndex(logger.NewWithLevel(io.Discard, slog.LevelDebug), "", func() (AlgoliaIndex, error) {
		return nil, errors.New("algolia app ID is empty")
	})

	_, err := db.Search(context.Background(), Query{Text: "soup"}, 10, 0)
	assert.ErrorIs(err, ErrBackendUnavailable)
	assert.ErrorIs(db.BuildIndex(testDocuments), ErrBackendUnavailable)
}

func TestAlgoliaIndexing(t *testing.T) {
	assert := require.New(t)
	index := &fakeAlgoliaIndex{}
	db := newTestAlgoliaDB(index)

	assert.NoError(db.BuildIndex(testDocuments[:2]))
	objects, ok := index.saved.([]map[string]interface{})
	assert.True(ok)
	assert.Len(objects, 2)
	assert.Equal("doc-01", objects[0]["objectID"])
	assert.Equal("article", objects[0]["type"])

	assert.NoError(db.DeleteDocuments([]string{"doc-01"}))
	assert.Equal([]string{"doc-01"}, index.deletedIDs)
}

func TestAlgoliaHasNoSpelling(t *testing.T) {
	assert := require.New(t)
	db := newTestAlgoliaDB(&fakeAlgoliaIndex{})

	assert.False(db.IncludeSpelling())
	suggestion, err := db.Suggest(context.Background(), "garlik")
	assert.NoError(err)
	assert.Empty(suggestion)
}
