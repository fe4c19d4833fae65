package searchdb

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"
	"github.com/meghashyamc/pagesearch/config"
	"github.com/meghashyamc/pagesearch/logger"
)

const IndexingBatchSize = 100

const (
	indexFieldTitle     = "title"
	indexFieldContent   = "content"
	indexFieldType      = "type"
	indexFieldTags      = "tags"
	indexFieldCreatedAt = "created_at"
)

type BleveDB struct {
	indexPath       string
	logger          logger.Logger
	index           bleve.Index
	includeSpelling bool
}

func New(logger logger.Logger, cfg *config.Config) (*BleveDB, error) {
	indexPath := filepath.Join(cfg.GetStoragePath(), cfg.GetIndexPath())
	return NewWithPath(logger, indexPath, cfg.GetIncludeSpelling())
}

// NewWithPath opens the index at indexPath, creating it if it does not exist.
func NewWithPath(logger logger.Logger, indexPath string, includeSpelling bool) (*BleveDB, error) {
	index, err := bleve.New(indexPath, createIndexMapping())
	if err != nil {
		index, err = bleve.Open(indexPath)
		if err != nil {
			logger.Error("could not open index", "path", indexPath, "err", err.Error())
			return nil, err
		}
	}
	return &BleveDB{indexPath: indexPath, logger: logger, index: index, includeSpelling: includeSpelling}, nil
}

func (b *BleveDB) BuildIndex(documents []Document) error {

	batch := b.index.NewBatch()

	for i, doc := range documents {

		if err := batch.Index(doc.ID, doc); err != nil {
			b.logger.Error("could not index document", "id", doc.ID, "err", err.Error())
			return err
		}

		// Execute batch when it reaches the batch size
		if (i+1)%IndexingBatchSize == 0 {
			if err := b.index.Batch(batch); err != nil {
				return err
			}
			batch = b.index.NewBatch()
		}
	}

	if batch.Size() > 0 {
		if err := b.index.Batch(batch); err != nil {
			b.logger.Error("could not index document", "err", err.Error())
			return err
		}
	}

	return nil
}

func createIndexMapping() mapping.IndexMapping {

	indexMapping := bleve.NewIndexMapping()
	docMapping := bleve.NewDocumentMapping()

	// Type field - not analyzed (exact match, used by filters)
	typeFieldMapping := bleve.NewTextFieldMapping()
	typeFieldMapping.Analyzer = keyword.Name
	docMapping.AddFieldMappingsAt(indexFieldType, typeFieldMapping)

	titleFieldMapping := bleve.NewTextFieldMapping()
	titleFieldMapping.Analyzer = standard.Name
	docMapping.AddFieldMappingsAt(indexFieldTitle, titleFieldMapping)

	// Content field - analyzed for full-text search
	contentFieldMapping := bleve.NewTextFieldMapping()
	contentFieldMapping.Analyzer = standard.Name
	contentFieldMapping.Store = false // full content lives in the record store
	contentFieldMapping.Index = true
	docMapping.AddFieldMappingsAt(indexFieldContent, contentFieldMapping)

	tagsFieldMapping := bleve.NewTextFieldMapping()
	tagsFieldMapping.Analyzer = keyword.Name
	docMapping.AddFieldMappingsAt(indexFieldTags, tagsFieldMapping)

	createdAtFieldMapping := bleve.NewDateTimeFieldMapping()
	docMapping.AddFieldMappingsAt(indexFieldCreatedAt, createdAtFieldMapping)

	indexMapping.AddDocumentMapping("_default", docMapping)
	indexMapping.DefaultAnalyzer = standard.Name

	return indexMapping
}

func (b *BleveDB) Search(ctx context.Context, q Query, limit int, offset int) (*Response, error) {
	start := time.Now()

	searchRequest := bleve.NewSearchRequestOptions(b.buildSearchQuery(q), limit, offset, false)
	searchRequest.Fields = []string{"*"}
	// Ties on score are broken by ID so that consecutive pages never overlap.
	searchRequest.SortBy([]string{"-_score", "_id"})

	searchResult, err := b.index.SearchInContext(ctx, searchRequest)
	if err != nil {
		b.logger.Error("search failed", "err", err.Error())
		return nil, fmt.Errorf("search failed: %w", err)
	}

	results := make([]Result, len(searchResult.Hits))
	for i, hit := range searchResult.Hits {
		result := Result{
			ID:     hit.ID,
			Score:  hit.Score,
			Fields: hit.Fields,
		}
		if result.Fields == nil {
			result.Fields = map[string]any{}
		}
		if docType, ok := hit.Fields[indexFieldType].(string); ok {
			result.Type = docType
		}

		results[i] = result
	}

	return &Response{
		Results:    results,
		Total:      searchResult.Total,
		MaxScore:   searchResult.MaxScore,
		SearchTime: time.Since(start).String(),
	}, nil
}

func (b *BleveDB) buildSearchQuery(q Query) query.Query {

	const (
		boostForContent      = 3.0
		boostForTitle        = 2.0
		boostForPhraseMatch  = 5.0
		boostForPartialMatch = 1.5
	)

	queryString := strings.ToLower(strings.TrimSpace(q.Text))
	phrases, remaining := parseQuotedQuery(queryString)

	var clauses []query.Query

	// Every quoted phrase has to match, in either the title or the content
	for _, phrase := range phrases {
		phraseQuery := bleve.NewDisjunctionQuery()

		contentPhraseQuery := bleve.NewMatchPhraseQuery(phrase)
		contentPhraseQuery.SetField(indexFieldContent)
		contentPhraseQuery.SetBoost(boostForPhraseMatch)
		phraseQuery.AddQuery(contentPhraseQuery)

		titlePhraseQuery := bleve.NewMatchPhraseQuery(phrase)
		titlePhraseQuery.SetField(indexFieldTitle)
		titlePhraseQuery.SetBoost(boostForPhraseMatch)
		phraseQuery.AddQuery(titlePhraseQuery)

		clauses = append(clauses, phraseQuery)
	}

	if remaining != "" {
		disjunctQuery := bleve.NewDisjunctionQuery()

		contentQuery := bleve.NewMatchQuery(remaining)
		contentQuery.SetField(indexFieldContent)
		contentQuery.SetBoost(boostForContent)
		disjunctQuery.AddQuery(contentQuery)

		titleQuery := bleve.NewMatchQuery(remaining)
		titleQuery.SetField(indexFieldTitle)
		titleQuery.SetBoost(boostForTitle)
		disjunctQuery.AddQuery(titleQuery)

		phraseQuery := bleve.NewMatchPhraseQuery(remaining)
		phraseQuery.SetField(indexFieldContent)
		phraseQuery.SetBoost(boostForPhraseMatch)
		disjunctQuery.AddQuery(phraseQuery)

		if len(remaining) > 2 {
			titlePrefixQuery := bleve.NewPrefixQuery(remaining)
			titlePrefixQuery.SetField(indexFieldTitle)
			titlePrefixQuery.SetBoost(boostForPartialMatch)
			disjunctQuery.AddQuery(titlePrefixQuery)

			contentPrefixQuery := bleve.NewPrefixQuery(remaining)
			contentPrefixQuery.SetField(indexFieldContent)
			contentPrefixQuery.SetBoost(boostForPartialMatch)
			disjunctQuery.AddQuery(contentPrefixQuery)
		}

		clauses = append(clauses, disjunctQuery)
	}

	if len(clauses) == 0 {
		// a blank query browses the index, a query of empty quotes matches nothing
		if queryString == "" {
			clauses = append(clauses, bleve.NewMatchAllQuery())
		} else {
			clauses = append(clauses, bleve.NewMatchNoneQuery())
		}
	}

	fields := make([]string, 0, len(q.Filters))
	for field := range q.Filters {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	for _, field := range fields {
		filterQuery := bleve.NewMatchQuery(q.Filters[field])
		filterQuery.SetField(field)
		filterQuery.SetOperator(query.MatchQueryOperatorAnd)
		clauses = append(clauses, filterQuery)
	}

	if len(clauses) == 1 {
		return clauses[0]
	}
	return bleve.NewConjunctionQuery(clauses...)
}

func (b *BleveDB) DeleteDocuments(documentIDs []string) error {
	batch := b.index.NewBatch()

	for i, docID := range documentIDs {
		batch.Delete(docID)

		// Execute batch when it reaches the batch size
		if (i+1)%IndexingBatchSize == 0 {
			if err := b.index.Batch(batch); err != nil {
				return err
			}
			batch = b.index.NewBatch()
		}
	}

	if batch.Size() > 0 {
		if err := b.index.Batch(batch); err != nil {
			b.logger.Error("could not delete documents", "err", err.Error())
			return err
		}
	}

	return nil
}

func (b *BleveDB) IncludeSpelling() bool {
	return b.includeSpelling
}

func (b *BleveDB) GetDocCount() (uint64, error) {
	return b.index.DocCount()
}

func (b *BleveDB) Close() error {

	if b.index != nil {
		if err := b.index.Close(); err != nil {
			b.logger.Error("could not close search index", "err", err.Error())
			return err
		}
	}
	return nil
}
