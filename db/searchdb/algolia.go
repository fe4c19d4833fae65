package searchdb

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/algolia/algoliasearch-client-go/v3/algolia/opt"
	algoliasearch "github.com/algolia/algoliasearch-client-go/v3/algolia/search"
	"github.com/cockroachdb/errors"
	"github.com/meghashyamc/pagesearch/config"
	"github.com/meghashyamc/pagesearch/logger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const algoliaObjectIDField = "objectID"

// ErrBackendUnavailable is returned when the hosted backend cannot be reached or rejects a call.
var ErrBackendUnavailable = errors.New("searchdb: backend unavailable")

// AlgoliaIndex is the subset of the Algolia index client used by AlgoliaDB.
type AlgoliaIndex interface {
	Search(query string, opts ...interface{}) (algoliasearch.QueryRes, error)
	SaveObjects(objects interface{}, opts ...interface{}) (algoliasearch.GroupBatchRes, error)
	DeleteObjects(objectIDs []string, opts ...interface{}) (algoliasearch.BatchRes, error)
}

type AlgoliaDB struct {
	indexName string
	getIndex  func() (AlgoliaIndex, error)
	logger    logger.Logger
	tracer    trace.Tracer
}

func NewAlgolia(logger logger.Logger, cfg *config.Config) *AlgoliaDB {
	appID, apiKey, indexName := cfg.GetAlgoliaAppID(), cfg.GetAlgoliaAPIKey(), cfg.GetAlgoliaIndex()

	// The client is created on first use so that a misconfigured backend only fails searches.
	getIndex := sync.OnceValues(func() (AlgoliaIndex, error) {
		if appID == "" {
			return nil, errors.New("algolia app ID is empty")
		}
		if apiKey == "" {
			return nil, errors.New("algolia API key is empty")
		}
		if indexName == "" {
			return nil, errors.New("algolia index name is empty")
		}
		return algoliasearch.NewClient(appID, apiKey).InitIndex(indexName), nil
	})

	return newAlgoliaWithIndex(logger, indexName, getIndex)
}

func newAlgoliaWithIndex(logger logger.Logger, indexName string, getIndex func() (AlgoliaIndex, error)) *AlgoliaDB {
	return &AlgoliaDB{
		indexName: indexName,
		getIndex:  getIndex,
		logger:    logger,
		tracer:    otel.Tracer("pagesearch-algolia"),
	}
}

func (a *AlgoliaDB) Search(ctx context.Context, q Query, limit int, offset int) (*Response, error) {
	start := time.Now()
	ctx, span := a.tracer.Start(ctx, "algolia.search",
		trace.WithAttributes(
			attribute.String("algolia.index_name", a.indexName),
			attribute.Int("algolia.limit", limit),
			attribute.Int("algolia.offset", offset),
		),
	)
	defer span.End()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	index, err := a.getIndex()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to get Algolia index")
		return nil, errors.WithSecondaryError(ErrBackendUnavailable, errors.Wrap(err, "failed to get Algolia index"))
	}

	res, err := index.Search(strings.TrimSpace(q.Text), buildAlgoliaSearchParams(q, limit, offset)...)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Algolia search failed")
		a.logger.Error("search failed", "backend", config.BackendAlgolia, "err", err.Error())
		return nil, errors.WithSecondaryError(ErrBackendUnavailable, errors.Wrap(err, "Algolia search failed"))
	}

	results := make([]Result, 0, len(res.Hits))
	maxScore := 0.0
	for position, hit := range res.Hits {
		result := resultFromAlgoliaHit(hit, len(res.Hits), position)
		maxScore = max(maxScore, result.Score)
		results = append(results, result)
	}

	span.SetAttributes(attribute.Int("algolia.nb_hits", res.NbHits))
	span.SetStatus(codes.Ok, "search completed")

	return &Response{
		Results:    results,
		Total:      uint64(max(res.NbHits, 0)),
		MaxScore:   maxScore,
		SearchTime: time.Since(start).String(),
	}, nil
}

// buildAlgoliaSearchParams converts a limit/offset window into Algolia's page-based
// pagination. Offsets are expected to be multiples of limit.
func buildAlgoliaSearchParams(q Query, limit int, offset int) []interface{} {
	params := []interface{}{opt.HitsPerPage(limit)}
	if limit > 0 && offset > 0 {
		params = append(params, opt.Page(offset/limit))
	}

	if filters := algoliaFilters(q.Filters); filters != "" {
		params = append(params, opt.Filters(filters))
	}

	return params
}

func algoliaFilters(filters map[string]string) string {
	if len(filters) == 0 {
		return ""
	}

	fields := make([]string, 0, len(filters))
	for field := range filters {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	clauses := make([]string, 0, len(fields))
	for _, field := range fields {
		escaped := strings.ReplaceAll(filters[field], `"`, `\"`)
		clauses = append(clauses, fmt.Sprintf(`%s:"%s"`, escapeAlgoliaField(field), escaped))
	}
	return strings.Join(clauses, " AND ")
}

func escapeAlgoliaField(field string) string {
	if strings.ContainsAny(field, " :-()") {
		return fmt.Sprintf(`"%s"`, field)
	}
	return field
}

// resultFromAlgoliaHit keeps the hit's attributes as stored fields. Algolia does not
// expose relevance scores, so the score is derived from the hit's rank.
func resultFromAlgoliaHit(hit map[string]interface{}, totalHits int, position int) Result {
	result := Result{
		Score:  float64(totalHits-position) / float64(max(totalHits, 1)),
		Fields: make(map[string]any, len(hit)),
	}
	for key, value := range hit {
		switch {
		case key == algoliaObjectIDField:
			if objectID, ok := value.(string); ok {
				result.ID = objectID
			}
		case strings.HasPrefix(key, "_"):
			// _highlightResult, _rankingInfo, ...
		default:
			result.Fields[key] = value
		}
	}
	if docType, ok := result.Fields[indexFieldType].(string); ok {
		result.Type = docType
	}
	return result
}

func (a *AlgoliaDB) BuildIndex(documents []Document) error {
	if len(documents) == 0 {
		return nil
	}

	_, span := a.tracer.Start(context.Background(), "algolia.batch_save_objects",
		trace.WithAttributes(
			attribute.String("algolia.index_name", a.indexName),
			attribute.Int("algolia.object_count", len(documents)),
		),
	)
	defer span.End()

	index, err := a.getIndex()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to get Algolia index")
		return errors.WithSecondaryError(ErrBackendUnavailable, errors.Wrap(err, "failed to get Algolia index"))
	}

	objects := make([]map[string]interface{}, len(documents))
	for i, doc := range documents {
		objects[i] = algoliaObjectFromDocument(doc)
	}

	if _, err := index.SaveObjects(objects); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, fmt.Sprintf("failed to batch save %d objects", len(objects)))
		a.logger.Error("could not index documents", "backend", config.BackendAlgolia, "err", err.Error())
		return errors.Wrapf(err, "failed to batch save objects to Algolia index %s", a.indexName)
	}

	span.SetStatus(codes.Ok, fmt.Sprintf("batch saved %d objects", len(objects)))
	return nil
}

func algoliaObjectFromDocument(doc Document) map[string]interface{} {
	object := map[string]interface{}{
		algoliaObjectIDField: doc.ID,
		indexFieldType:       doc.Type,
		indexFieldTitle:      doc.Title,
		indexFieldContent:    doc.Content,
		indexFieldCreatedAt:  doc.CreatedAt.Format(time.RFC3339),
	}
	if len(doc.Tags) > 0 {
		object[indexFieldTags] = doc.Tags
	}
	if len(doc.Fields) > 0 {
		object["fields"] = doc.Fields
	}
	return object
}

func (a *AlgoliaDB) DeleteDocuments(documentIDs []string) error {
	if len(documentIDs) == 0 {
		return nil
	}

	_, span := a.tracer.Start(context.Background(), "algolia.batch_delete_objects",
		trace.WithAttributes(
			attribute.String("algolia.index_name", a.indexName),
			attribute.Int("algolia.object_count", len(documentIDs)),
		),
	)
	defer span.End()

	index, err := a.getIndex()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to get Algolia index")
		return errors.WithSecondaryError(ErrBackendUnavailable, errors.Wrap(err, "failed to get Algolia index"))
	}

	if _, err := index.DeleteObjects(documentIDs); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, fmt.Sprintf("failed to batch delete %d objects", len(documentIDs)))
		return errors.Wrapf(err, "failed to batch delete objects from Algolia index %s", a.indexName)
	}

	span.SetStatus(codes.Ok, fmt.Sprintf("batch deleted %d objects", len(documentIDs)))
	return nil
}

// Suggest is not supported by Algolia; typo tolerance is applied server side instead.
func (a *AlgoliaDB) Suggest(ctx context.Context, queryString string) (string, error) {
	return "", nil
}

func (a *AlgoliaDB) IncludeSpelling() bool {
	return false
}

func (a *AlgoliaDB) GetDocCount() (uint64, error) {
	response, err := a.Search(context.Background(), Query{}, 0, 0)
	if err != nil {
		return 0, err
	}
	return response.Total, nil
}

func (a *AlgoliaDB) Close() error {
	return nil
}
