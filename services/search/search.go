package search

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/meghashyamc/pagesearch/db/kvdb"
	"github.com/meghashyamc/pagesearch/db/searchdb"
	"github.com/meghashyamc/pagesearch/logger"
	"github.com/meghashyamc/pagesearch/paginator"
	"github.com/meghashyamc/pagesearch/validation"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ErrInvalidQuery is matched by every error returned for a request that fails validation.
var ErrInvalidQuery = errors.New("search: invalid query")

type InvalidQueryError struct {
	Err error
}

func (e *InvalidQueryError) Error() string {
	return e.Err.Error()
}

func (e *InvalidQueryError) Is(target error) bool {
	return target == ErrInvalidQuery
}

func (e *InvalidQueryError) Unwrap() error {
	return e.Err
}

type ListRequest struct {
	Query   string `form:"q" json:"q" validate:"valid_query,max=1000"`
	PerPage int    `form:"per_page" json:"per_page" validate:"min=0"`
	// Page is kept raw so that a non-numeric page is reported as an invalid page
	// rather than an invalid request.
	Page string `form:"page" json:"page"`
}

type Service struct {
	logger    logger.Logger
	backend   searchdb.DB
	records   kvdb.DB
	validator *validation.Validator
	preparer  Preparer
	config    Config
	tracer    trace.Tracer
}

// New returns a search service. records is only read when cfg.LoadAll is set.
func New(logger logger.Logger, backend searchdb.DB, records kvdb.DB, validator *validation.Validator, cfg Config) *Service {
	return &Service{
		logger:    logger,
		backend:   backend,
		records:   records,
		validator: validator,
		preparer:  newPreparer(cfg.Fields),
		config:    cfg,
		tracer:    otel.Tracer("pagesearch-search"),
	}
}

// List runs the request's query and returns the requested page of results.
func (s *Service) List(ctx context.Context, request ListRequest) (*Envelope, error) {
	ctx, span := s.tracer.Start(ctx, "search.list",
		trace.WithAttributes(
			attribute.Int("search.query_length", len(request.Query)),
			attribute.String("search.page", request.Page),
			attribute.Int("search.per_page", request.PerPage),
		),
	)
	defer span.End()

	envelope, err := s.list(ctx, request)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "search failed")
		return nil, err
	}

	span.SetAttributes(attribute.Int("search.num_pages", envelope.NumPages))
	span.SetStatus(codes.Ok, "search completed")
	return envelope, nil
}

func (s *Service) list(ctx context.Context, request ListRequest) (*Envelope, error) {
	if err := s.validator.Validate(request); err != nil {
		return nil, &InvalidQueryError{Err: err}
	}

	number, err := paginator.ParseNumber(request.Page)
	if err != nil {
		return nil, err
	}

	results := NewResults(s.logger, s.backend, s.records, searchdb.Query{
		Text:    request.Query,
		Filters: s.config.Filters,
	}, s.config.LoadAll)

	pages := paginator.New(results, s.config.perPageFor(request.PerPage))
	page, err := pages.Page(ctx, number)
	if err != nil {
		return nil, err
	}

	var suggestion *string
	if s.backend.IncludeSpelling() {
		suggested, err := s.backend.Suggest(ctx, request.Query)
		if err != nil {
			return nil, errors.Wrap(err, "could not suggest spelling")
		}
		suggestion = &suggested
	}

	return BuildEnvelope(page, request.Query, suggestion, pages.Paginated(), s.preparer), nil
}
