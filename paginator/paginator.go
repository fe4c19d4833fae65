// Package paginator splits a lazily evaluated collection into numbered pages.
//
// Pages are 1-based. A collection is always bounded to a single page before its
// total count is read, so backends that compute the total while executing the
// bounded query report it from that same execution.
package paginator

import (
	"context"
	"math"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
)

// Collection is an ordered sequence whose items are only materialized on Slice.
type Collection[T any] interface {
	// Slice returns at most limit items starting at offset (0-based).
	Slice(ctx context.Context, offset int, limit int) ([]T, error)

	// Count returns the total number of items in the collection.
	Count(ctx context.Context) (int, error)
}

type Paginator[T any] struct {
	collection Collection[T]
	perPage    int
}

// New returns a paginator over collection. A perPage of zero or less disables
// pagination: the whole collection is served as page 1.
func New[T any](collection Collection[T], perPage int) *Paginator[T] {
	return &Paginator[T]{collection: collection, perPage: max(perPage, 0)}
}

func (p *Paginator[T]) PerPage() int {
	return p.perPage
}

// Paginated reports whether the collection is split into pages of PerPage items.
func (p *Paginator[T]) Paginated() bool {
	return p.perPage > 0
}

// ParseNumber parses a raw page parameter. An empty value means the first page.
func ParseNumber(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 1, nil
	}

	number, err := strconv.Atoi(raw)
	if err != nil {
		var numErr *strconv.NumError
		if errors.As(err, &numErr) && errors.Is(numErr.Err, strconv.ErrRange) && !strings.HasPrefix(raw, "-") {
			return 0, &PageOutOfRangeError{Number: math.MaxInt}
		}
		return 0, &InvalidPageNumberError{Raw: raw, Reason: "that page number is not an integer"}
	}

	return validateNumber(number)
}

func validateNumber(number int) (int, error) {
	if number < 1 {
		return 0, &InvalidPageNumberError{Raw: strconv.Itoa(number), Reason: "that page number is less than 1"}
	}
	return number, nil
}

// Page returns the requested 1-based page.
func (p *Paginator[T]) Page(ctx context.Context, number int) (*Page[T], error) {
	if _, err := validateNumber(number); err != nil {
		return nil, err
	}

	if !p.Paginated() {
		return p.singlePage(ctx, number)
	}

	if number-1 > (math.MaxInt-p.perPage)/p.perPage {
		return nil, &PageOutOfRangeError{Number: number}
	}
	offset := (number - 1) * p.perPage

	items, err := p.collection.Slice(ctx, offset, p.perPage)
	if err != nil {
		return nil, errors.Wrapf(err, "could not slice collection for page %d", number)
	}

	count, err := p.collection.Count(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "could not count collection")
	}

	numPages := numPagesFor(count, p.perPage)
	if number > numPages {
		return nil, &PageOutOfRangeError{Number: number, NumPages: numPages}
	}

	return &Page[T]{
		Number:   number,
		Items:    items,
		Count:    count,
		PerPage:  p.perPage,
		NumPages: numPages,
	}, nil
}

// singlePage serves the whole collection as page 1. The count has to be known
// before the collection can be bounded here.
func (p *Paginator[T]) singlePage(ctx context.Context, number int) (*Page[T], error) {
	if number > 1 {
		return nil, &PageOutOfRangeError{Number: number, NumPages: 1}
	}

	count, err := p.collection.Count(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "could not count collection")
	}

	var items []T
	if count > 0 {
		items, err = p.collection.Slice(ctx, 0, count)
		if err != nil {
			return nil, errors.Wrap(err, "could not slice collection")
		}
	}

	return &Page[T]{
		Number:   1,
		Items:    items,
		Count:    count,
		PerPage:  count,
		NumPages: 1,
	}, nil
}

// numPagesFor is ceil(count/perPage), except that an empty collection still has
// an (empty) first page.
func numPagesFor(count int, perPage int) int {
	if count == 0 {
		return 1
	}
	return (count + perPage - 1) / perPage
}
