package searchdb

import "time"

type Document struct {
	ID        string         `json:"id" validate:"valid_document_id"`
	Type      string         `json:"type"`
	Title     string         `json:"title"`
	Content   string         `json:"content"`
	Tags      []string       `json:"tags,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	Fields    map[string]any `json:"fields,omitempty"`
}

// Query is what a backend is asked to match. Filters restrict matches to documents
// whose field equals the given value.
type Query struct {
	Text    string
	Filters map[string]string
}

type Result struct {
	ID    string  `json:"id"`
	Type  string  `json:"type"`
	Score float64 `json:"score"`
	// Fields holds the stored fields returned by the backend.
	Fields map[string]any `json:"fields"`
	// Object is the full stored record, only present when records are loaded.
	Object map[string]any `json:"object,omitempty"`
}

type Response struct {
	Results    []Result `json:"results"`
	Total      uint64   `json:"total"`
	MaxScore   float64  `json:"max_score"`
	SearchTime string   `json:"search_time"`
}
