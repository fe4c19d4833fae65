package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

const numOfGolangNotes = 45

func testDocuments() []any {
	documents := []any{
		map[string]any{"id": "tomato-soup", "type": "recipe", "title": "Tomato soup", "content": "Simmer the tomatoes with basil"},
		map[string]any{"id": "garlic-bread", "type": "recipe", "title": "Garlic bread", "content": "Toast the bread with butter"},
	}
	for i := 1; i <= numOfGolangNotes; i++ {
		documents = append(documents, map[string]any{
			"id":      fmt.Sprintf("golang-%02d", i),
			"type":    "article",
			"title":   "Golang note",
			"content": "Notes about golang",
		})
	}
	return documents
}

func seedTestDocuments(assert *require.Assertions, router *gin.Engine) {
	w := makeTestHTTPRequest(router, assert, http.MethodPost, "/index", defaultTestRequestHeaders, map[string]any{"documents": testDocuments()}, nil)
	assert.Equal(http.StatusCreated, w.Code, "indexing should succeed before running search tests")
}

var searchHandlerTestCases = []testCase{
	{
		name:            "NoQuery",
		queryParams:     map[string]string{},
		expectedStatus:  http.StatusOK,
		expectedData:    map[string]any{"page": float64(1), "num_pages": float64(1), "start_index": float64(0), "end_index": float64(0), "query": ""},
		expectedObjects: 0,
	},
	{
		name:           "QueryTooLong",
		queryParams:    map[string]string{"q": strings.Repeat("a", 1001)},
		expectedStatus: http.StatusBadRequest,
	},
	{
		name:           "NegativePerPage",
		queryParams:    map[string]string{"q": "golang", "per_page": "-1"},
		expectedStatus: http.StatusBadRequest,
	},
	{
		name:           "NonNumericPerPage",
		queryParams:    map[string]string{"q": "golang", "per_page": "many"},
		expectedStatus: http.StatusBadRequest,
	},
	{
		name:           "NonNumericPage",
		queryParams:    map[string]string{"q": "golang", "page": "abc"},
		expectedStatus: http.StatusNotFound,
	},
	{
		name:           "PageZero",
		queryParams:    map[string]string{"q": "golang", "page": "0"},
		expectedStatus: http.StatusNotFound,
	},
	{
		name:           "NegativePage",
		queryParams:    map[string]string{"q": "golang", "page": "-1"},
		expectedStatus: http.StatusNotFound,
	},
	{
		name:           "PageOutOfRange",
		queryParams:    map[string]string{"q": "golang", "page": "4"},
		expectedStatus: http.StatusNotFound,
	},
	{
		name:           "FirstPage",
		queryParams:    map[string]string{"q": "golang", "per_page": "20"},
		expectedStatus: http.StatusOK,
		expectedData: map[string]any{
			"page": float64(1), "start_index": float64(1), "end_index": float64(20), "num_pages": float64(3), "query": "golang",
			"pagination": map[string]any{
				"count": float64(45), "per_page": float64(20), "next_page": float64(2), "previous_page": nil,
			},
		},
		expectedObjects: 20,
	},
	{
		name:           "LastPage",
		queryParams:    map[string]string{"q": "golang", "per_page": "20", "page": "3"},
		expectedStatus: http.StatusOK,
		expectedData: map[string]any{
			"page": float64(3), "start_index": float64(41), "end_index": float64(45), "num_pages": float64(3),
			"pagination": map[string]any{"next_page": nil, "previous_page": float64(2)},
		},
		expectedObjects: 5,
	},
	{
		name:           "DefaultPerPage",
		queryParams:    map[string]string{"q": "golang", "page": "2"},
		expectedStatus: http.StatusOK,
		expectedData: map[string]any{
			"start_index": float64(21), "end_index": float64(40),
			"pagination": map[string]any{"per_page": float64(20)},
		},
		expectedObjects: 20,
	},
	{
		name:           "PerPageClamped",
		queryParams:    map[string]string{"q": "golang", "per_page": "500"},
		expectedStatus: http.StatusOK,
		expectedData: map[string]any{
			"num_pages":  float64(1),
			"pagination": map[string]any{"per_page": float64(100)},
		},
		expectedObjects: 45,
	},
	{
		name:            "DeprecatedQueryParam",
		queryParams:     map[string]string{"query": "tomato"},
		expectedStatus:  http.StatusOK,
		expectedData:    map[string]any{"query": "tomato", "suggestion": "tomato"},
		expectedObjects: 1,
	},
	{
		name:            "QueryParamWinsOverDeprecated",
		queryParams:     map[string]string{"q": "garlic", "query": "tomato"},
		expectedStatus:  http.StatusOK,
		expectedData:    map[string]any{"query": "garlic"},
		expectedObjects: 1,
	},
	{
		name:            "Suggestion",
		queryParams:     map[string]string{"q": "garlik"},
		expectedStatus:  http.StatusOK,
		expectedData:    map[string]any{"suggestion": "garlic", "num_pages": float64(1)},
		expectedObjects: 0,
	},
	{
		name:            "QuotedPhrase",
		queryParams:     map[string]string{"q": `"garlic bread"`},
		expectedStatus:  http.StatusOK,
		expectedObjects: 1,
	},
}

func TestHandleSearch(t *testing.T) {
	assert := require.New(t)
	router := setupTestServer(t, assert)
	seedTestDocuments(assert, router)

	for _, testCase := range searchHandlerTestCases {
		t.Run(testCase.name, func(t *testing.T) {
			assert := require.New(t)
			w := makeTestHTTPRequest(router, assert, http.MethodGet, "/search", testCase.requestHeaders, nil, testCase.queryParams)
			assert.Equal(testCase.expectedStatus, w.Code, fmt.Sprintf("response gotten was %s", w.Body.String()))

			data, errors := decodeResponse(assert, w)
			if testCase.expectedStatus != http.StatusOK {
				assert.Nil(data)
				assert.NotEmpty(errors)
				return
			}

			assert.Empty(errors)
			assertContains(assert, testCase.expectedData, data)
			objects, ok := data["objects"].([]any)
			assert.True(ok, "objects should always be a list")
			assert.Len(objects, testCase.expectedObjects)
		})
	}
}

func TestHandleSearchLoadsRecords(t *testing.T) {
	assert := require.New(t)
	router := setupTestServer(t, assert)
	seedTestDocuments(assert, router)

	w := makeTestHTTPRequest(router, assert, http.MethodGet, "/search", nil, nil, map[string]string{"q": "tomato"})
	assert.Equal(http.StatusOK, w.Code)

	data, _ := decodeResponse(assert, w)
	objects := data["objects"].([]any)
	assert.Len(objects, 1)

	result := objects[0].(map[string]any)
	assert.Equal("tomato-soup", result["id"])
	assert.Equal("recipe", result["type"])
	object, ok := result["object"].(map[string]any)
	assert.True(ok, "the stored record should be loaded")
	assert.Equal("Simmer the tomatoes with basil", object["content"])
}

func TestHandleSearchTotalCountHeader(t *testing.T) {
	assert := require.New(t)
	router := setupTestServer(t, assert)
	seedTestDocuments(assert, router)

	w := makeTestHTTPRequest(router, assert, http.MethodGet, "/search", nil, nil, map[string]string{"q": "golang", "per_page": "10"})
	assert.Equal(http.StatusOK, w.Code)
	assert.Equal("45", w.Header().Get(HeaderPaginationTotalCount))

	w = makeTestHTTPRequest(router, assert, http.MethodGet, "/search", nil, nil, map[string]string{"q": "golang", "page": "9"})
	assert.Equal(http.StatusNotFound, w.Code)
	assert.Empty(w.Header().Get(HeaderPaginationTotalCount))
}

func TestHandleSearchIsIdempotent(t *testing.T) {
	assert := require.New(t)
	router := setupTestServer(t, assert)
	seedTestDocuments(assert, router)

	queryParams := map[string]string{"q": "golang", "per_page": "7", "page": "4"}
	first := makeTestHTTPRequest(router, assert, http.MethodGet, "/search", nil, nil, queryParams)
	second := makeTestHTTPRequest(router, assert, http.MethodGet, "/search", nil, nil, queryParams)
	assert.Equal(http.StatusOK, first.Code)
	assert.JSONEq(first.Body.String(), second.Body.String())
}

func TestHandleSearchSuggestionIsNullWithoutSpelling(t *testing.T) {
	assert := require.New(t)
	t.Setenv("INCLUDE_SPELLING", "false")
	router := setupTestServer(t, assert)
	seedTestDocuments(assert, router)

	w := makeTestHTTPRequest(router, assert, http.MethodGet, "/search", nil, nil, map[string]string{"q": "golang", "page": "3"})
	assert.Equal(http.StatusOK, w.Code, fmt.Sprintf("response gotten was %s", w.Body.String()))

	data, _ := decodeResponse(assert, w)
	suggestion, ok := data["suggestion"]
	assert.True(ok, "suggestion is always serialized")
	assert.Nil(suggestion)
}

func TestHandleSearchUnboundParamIsNamed(t *testing.T) {
	assert := require.New(t)
	router := setupTestServer(t, assert)

	w := makeTestHTTPRequest(router, assert, http.MethodGet, "/search", nil, nil, map[string]string{"q": "golang", "per_page": "many"})
	assert.Equal(http.StatusBadRequest, w.Code)

	_, errors := decodeResponse(assert, w)
	assert.Len(errors, 1)
	assert.Contains(errors[0], "per_page")
}
