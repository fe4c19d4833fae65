package search

import (
	"github.com/meghashyamc/pagesearch/db/searchdb"
	"github.com/meghashyamc/pagesearch/paginator"
)

// Envelope is the serialized form of one page of search results.
type Envelope struct {
	Objects    []any  `json:"objects"`
	Page       int    `json:"page"`
	StartIndex int    `json:"start_index"`
	EndIndex   int    `json:"end_index"`
	NumPages   int    `json:"num_pages"`
	Query      string `json:"query"`
	// Suggestion is null unless the backend supports spelling suggestions.
	Suggestion *string `json:"suggestion"`
	// Pagination is only set when results are split into pages.
	Pagination *Pagination `json:"pagination,omitempty"`
}

type Pagination struct {
	NumPages     int  `json:"num_pages"`
	Count        int  `json:"count"`
	Page         int  `json:"page"`
	StartIndex   int  `json:"start_index"`
	EndIndex     int  `json:"end_index"`
	NextPage     *int `json:"next_page,omitempty"`
	PreviousPage *int `json:"previous_page,omitempty"`
	PerPage      int  `json:"per_page"`
}

// BuildEnvelope serializes page. It has no side effects.
func BuildEnvelope(page *paginator.Page[searchdb.Result], query string, suggestion *string, paginated bool, preparer Preparer) *Envelope {
	if preparer == nil {
		preparer = passthrough
	}

	objects := make([]any, len(page.Items))
	for i, item := range page.Items {
		objects[i] = preparer.Prepare(item)
	}

	envelope := &Envelope{
		Objects:    objects,
		Page:       page.Number,
		StartIndex: page.StartIndex(),
		EndIndex:   page.EndIndex(),
		NumPages:   page.NumPages,
		Query:      query,
	}

	if suggestion != nil {
		s := *suggestion
		envelope.Suggestion = &s
	}

	if paginated {
		envelope.Pagination = &Pagination{
			NumPages:     page.NumPages,
			Count:        page.Count,
			Page:         page.Number,
			StartIndex:   page.StartIndex(),
			EndIndex:     page.EndIndex(),
			NextPage:     page.NextPageNumber(),
			PreviousPage: page.PreviousPageNumber(),
			PerPage:      page.PerPage,
		}
	}

	return envelope
}
