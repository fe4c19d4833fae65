package search

import (
	"strings"

	"github.com/meghashyamc/pagesearch/db/searchdb"
)

// Preparer turns a search result into the value serialized in an envelope.
type Preparer interface {
	Prepare(result searchdb.Result) any
}

type PreparerFunc func(result searchdb.Result) any

func (f PreparerFunc) Prepare(result searchdb.Result) any {
	return f(result)
}

// passthrough serializes results as they are.
var passthrough = PreparerFunc(func(result searchdb.Result) any {
	return result
})

// FieldsPreparer maps output keys to dotted lookup paths. A path starting with id,
// type, score, fields or object is resolved against that part of the result. Any
// other path is looked up in the loaded object first and then in the stored fields.
// Paths that resolve to nothing produce null.
type FieldsPreparer map[string]string

func (p FieldsPreparer) Prepare(result searchdb.Result) any {
	prepared := make(map[string]any, len(p))
	for key, path := range p {
		prepared[key] = lookupResult(result, path)
	}
	return prepared
}

func newPreparer(fields map[string]string) Preparer {
	if len(fields) == 0 {
		return passthrough
	}
	return FieldsPreparer(fields)
}

func lookupResult(result searchdb.Result, path string) any {
	head, rest, _ := strings.Cut(path, ".")
	switch head {
	case "id":
		return result.ID
	case "type":
		return result.Type
	case "score":
		return result.Score
	case "fields":
		if rest == "" {
			return result.Fields
		}
		// the index flattens nested document fields into dotted names
		if value, ok := lookup(result.Fields, path); ok {
			return value
		}
		value, _ := lookup(result.Fields, rest)
		return value
	case "object":
		if rest == "" {
			return result.Object
		}
		value, _ := lookup(result.Object, rest)
		return value
	}

	if value, ok := lookup(result.Object, path); ok {
		return value
	}
	value, _ := lookup(result.Fields, path)
	return value
}

// lookup resolves path in m. Keys that contain dots themselves, as the flattened
// field names returned by the index do, take precedence over nested maps.
func lookup(m map[string]any, path string) (any, bool) {
	if m == nil {
		return nil, false
	}
	if value, ok := m[path]; ok {
		return value, true
	}

	head, rest, found := strings.Cut(path, ".")
	if !found {
		return nil, false
	}
	nested, ok := m[head].(map[string]any)
	if !ok {
		return nil, false
	}
	return lookup(nested, rest)
}
