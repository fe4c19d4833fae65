package paginator

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

var (
	// ErrInvalidPage matches every error returned for a page that cannot be served.
	ErrInvalidPage = errors.New("paginator: invalid page")

	// ErrInvalidPageNumber is returned for page numbers that are not integers or are less than 1.
	ErrInvalidPageNumber = errors.New("paginator: invalid page number")

	// ErrPageOutOfRange is returned for page numbers beyond the last page.
	ErrPageOutOfRange = errors.New("paginator: page out of range")
)

type InvalidPageNumberError struct {
	Raw    string
	Reason string
}

type PageOutOfRangeError struct {
	Number   int
	NumPages int
}

func (e *InvalidPageNumberError) Error() string {
	return fmt.Sprintf("invalid page number %q: %s", e.Raw, e.Reason)
}

func (e *InvalidPageNumberError) Is(target error) bool {
	return target == ErrInvalidPageNumber || target == ErrInvalidPage
}

func (e *PageOutOfRangeError) Error() string {
	if e.NumPages == 0 {
		return fmt.Sprintf("page %d contains no results", e.Number)
	}
	return fmt.Sprintf("page %d contains no results, last page is %d", e.Number, e.NumPages)
}

func (e *PageOutOfRangeError) Is(target error) bool {
	return target == ErrPageOutOfRange || target == ErrInvalidPage
}
