package paginator

type Page[T any] struct {
	Number   int
	Items    []T
	Count    int
	PerPage  int
	NumPages int
}

// StartIndex is the 1-based index of the first item on the page, or 0 when the
// collection is empty.
func (p *Page[T]) StartIndex() int {
	if p.Count == 0 {
		return 0
	}
	return (p.Number-1)*p.PerPage + 1
}

// EndIndex is the 1-based index of the last item on the page.
func (p *Page[T]) EndIndex() int {
	if p.Number == p.NumPages {
		return p.Count
	}
	return p.Number * p.PerPage
}

func (p *Page[T]) HasNext() bool {
	return p.Number < p.NumPages
}

func (p *Page[T]) HasPrevious() bool {
	return p.Number > 1
}

// NextPageNumber returns nil on the last page.
func (p *Page[T]) NextPageNumber() *int {
	if !p.HasNext() {
		return nil
	}
	next := p.Number + 1
	return &next
}

// PreviousPageNumber returns nil on the first page.
func (p *Page[T]) PreviousPageNumber() *int {
	if !p.HasPrevious() {
		return nil
	}
	previous := p.Number - 1
	return &previous
}
