package index

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/meghashyamc/pagesearch/db/searchdb"
	"github.com/segmentio/ksuid"
)

const (
	maxContentSize  = 10 * 1024 * 1024 // 10MB
	maxDocumentFile = 64 * 1024 * 1024
)

// IndexRequest is the body of an indexing request, also used as the format of
// document files.
type IndexRequest struct {
	Documents []searchdb.Document `json:"documents" validate:"required,min=1,max=1000,dive"`
}

// prepareDocument fills in what a client may leave out. Documents without an ID get
// a new one and documents without a creation time are stamped with now.
func prepareDocument(doc searchdb.Document, now time.Time) searchdb.Document {
	if doc.ID == "" {
		doc.ID = ksuid.New().String()
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	doc.Type = strings.TrimSpace(doc.Type)
	doc.Title = strings.TrimSpace(doc.Title)
	doc.Content = truncateContent(doc.Content)
	return doc
}

// truncateContent keeps at most maxContentSize bytes without splitting a rune.
func truncateContent(content string) string {
	if len(content) <= maxContentSize {
		return content
	}
	cut := maxContentSize
	for cut > 0 && !utf8.RuneStart(content[cut]) {
		cut--
	}
	return content[:cut]
}

// ReadDocumentsFile reads an IndexRequest from a JSON file.
func ReadDocumentsFile(path string) ([]searchdb.Document, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return nil, err
	}
	if stat.Size() > maxDocumentFile {
		return nil, fmt.Errorf("%s is larger than %d bytes", path, maxDocumentFile)
	}

	content, err := io.ReadAll(file)
	if err != nil {
		return nil, err
	}

	var request IndexRequest
	if err := json.Unmarshal(content, &request); err != nil {
		return nil, fmt.Errorf("could not decode documents in %s: %w", path, err)
	}

	return request.Documents, nil
}
