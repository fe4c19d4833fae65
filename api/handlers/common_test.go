// Common test helpers
package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/meghashyamc/pagesearch/config"
	"github.com/meghashyamc/pagesearch/db/kvdb"
	"github.com/meghashyamc/pagesearch/db/searchdb"
	"github.com/meghashyamc/pagesearch/logger"
	"github.com/meghashyamc/pagesearch/services/search"
	"github.com/meghashyamc/pagesearch/validation"
	"github.com/stretchr/testify/require"
)

var defaultTestRequestHeaders = map[string]string{"Content-Type": "application/json"}

type testCase struct {
	name            string
	requestHeaders  map[string]string
	requestBody     map[string]any
	queryParams     map[string]string
	expectedStatus  int
	expectedData    map[string]any
	expectedObjects int
}

func newTestLogger() logger.Logger {
	return logger.NewWithLevel(os.Stderr, slog.LevelDebug)
}

// setupTestServer serves the handlers from a fresh index and record store under a
// temporary directory, configured from config.test.yaml.
func setupTestServer(t *testing.T, assert *require.Assertions) *gin.Engine {
	t.Helper()

	tempDir := t.TempDir()
	t.Setenv("ENV", "test")
	t.Setenv("STORAGE_PATH", tempDir)
	t.Setenv("KVDB_PATH", filepath.Join(tempDir, "records.db"))

	cfg, err := config.Load()
	assert.NoError(err, "could not load config")

	testLogger := newTestLogger()

	searchDB, err := searchdb.Open(testLogger, cfg)
	assert.NoError(err, "could not create search database")

	kvDB, err := kvdb.New(testLogger, cfg.GetKVDBPath())
	assert.NoError(err, "could not create kv database")

	validator, err := validation.New(testLogger)
	assert.NoError(err, "could not create validator")

	gin.SetMode(gin.TestMode)
	router := gin.New()

	SetupIndex(router, testLogger, searchDB, kvDB, validator)
	SetupSearch(router, testLogger, searchDB, kvDB, validator, search.ConfigFrom(cfg))

	t.Cleanup(func() {
		assert.NoError(searchDB.Close(), "could not close search database")
		assert.NoError(kvDB.Close(), "could not close kv database")
	})

	return router
}

func makeTestHTTPRequest(router *gin.Engine, assert *require.Assertions, method string, endpoint string, headers map[string]string, requestBodyMap map[string]interface{}, queryParams map[string]string) *httptest.ResponseRecorder {

	var err error
	w := httptest.NewRecorder()

	if len(queryParams) > 0 {
		values := url.Values{}
		for key, value := range queryParams {
			values.Set(key, value)
		}
		endpoint = endpoint + "?" + values.Encode()
	}
	var jsonBody []byte
	var req *http.Request
	if requestBodyMap != nil {
		jsonBody, err = json.Marshal(requestBodyMap)
		assert.NoError(err)
	}

	slog.Info("Making test request", "method", method, "endpoint", endpoint, "headers", headers, "body", string(jsonBody))

	if len(jsonBody) > 0 {
		req, err = http.NewRequest(method, endpoint, bytes.NewBuffer(jsonBody))
	} else {
		req, err = http.NewRequest(method, endpoint, nil)
	}
	assert.NoError(err)

	for key, value := range headers {
		req.Header.Set(key, value)
	}
	router.ServeHTTP(w, req)

	return w
}

// decodeResponse unmarshals the {data, errors} wrapper of a response.
func decodeResponse(assert *require.Assertions, w *httptest.ResponseRecorder) (map[string]any, []any) {
	var responseMap map[string]any
	assert.NoError(json.Unmarshal(w.Body.Bytes(), &responseMap), fmt.Sprintf("response gotten was %s", w.Body.String()))

	data, _ := responseMap["data"].(map[string]any)
	errors, _ := responseMap["errors"].([]any)
	return data, errors
}

// assertContains checks every expected key, recursing into nested maps. A nil
// expected value means the key must be absent or null.
func assertContains(assert *require.Assertions, expected map[string]any, actual map[string]any) {
	for key, expectedValue := range expected {
		actualValue := actual[key]
		if expectedMap, ok := expectedValue.(map[string]any); ok {
			actualMap, ok := actualValue.(map[string]any)
			assert.True(ok, fmt.Sprintf("expected %s to be an object, got %v", key, actualValue))
			assertContains(assert, expectedMap, actualMap)
			continue
		}
		assert.Equal(expectedValue, actualValue, fmt.Sprintf("field %s mismatch", key))
	}
}
