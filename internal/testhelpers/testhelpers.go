// Package testhelpers provides reusable testing utilities: HTTP request
// builders and database setup for handler-level tests.
package testhelpers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/statusboardhq/statusboard/internal/database"
)

// SetupTestDB opens an in-memory database, migrates the schema and installs
// it as the package-global handle. The previous handle is restored when the
// test finishes.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}

	err = db.AutoMigrate(
		&database.Incident{},
		&database.Comment{},
		&database.NagiosComment{},
		&database.PollRecord{},
	)
	if err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	previous := database.DB
	database.DB = db
	t.Cleanup(func() { database.DB = previous })

	return db
}

// HTTPTestContext holds components for HTTP handler testing
type HTTPTestContext struct {
	T        *testing.T
	Recorder *httptest.ResponseRecorder
	Request  *http.Request
}

// NewHTTPTestContext creates a new HTTP test context
func NewHTTPTestContext(t *testing.T, method, path string, body io.Reader) *HTTPTestContext {
	t.Helper()
	return &HTTPTestContext{
		T:        t,
		Recorder: httptest.NewRecorder(),
		Request:  httptest.NewRequest(method, path, body),
	}
}

// WithHeader adds a header to the request
func (ctx *HTTPTestContext) WithHeader(key, value string) *HTTPTestContext {
	ctx.Request.Header.Set(key, value)
	return ctx
}

// WithJSONBody sets JSON body on the request
func (ctx *HTTPTestContext) WithJSONBody(v interface{}) *HTTPTestContext {
	ctx.T.Helper()
	body, err := json.Marshal(v)
	if err != nil {
		ctx.T.Fatalf("failed to marshal JSON body: %v", err)
	}
	ctx.Request = httptest.NewRequest(ctx.Request.Method, ctx.Request.URL.String(), bytes.NewReader(body))
	ctx.Request.Header.Set("Content-Type", "application/json")
	return ctx
}

// WithBearerToken adds Authorization Bearer header
func (ctx *HTTPTestContext) WithBearerToken(token string) *HTTPTestContext {
	return ctx.WithHeader("Authorization", "Bearer "+token)
}

// Execute runs the handler and returns the response
func (ctx *HTTPTestContext) Execute(handler http.Handler) *HTTPTestContext {
	handler.ServeHTTP(ctx.Recorder, ctx.Request)
	return ctx
}

// DecodeJSON decodes the recorded response body into dst
func (ctx *HTTPTestContext) DecodeJSON(dst interface{}) {
	ctx.T.Helper()
	if err := json.NewDecoder(ctx.Recorder.Body).Decode(dst); err != nil {
		ctx.T.Fatalf("failed to decode response body: %v", err)
	}
}

// AssertStatus fails the test unless the recorded status matches
func (ctx *HTTPTestContext) AssertStatus(want int) *HTTPTestContext {
	ctx.T.Helper()
	if ctx.Recorder.Code != want {
		ctx.T.Errorf("expected status %d, got %d (body: %s)", want, ctx.Recorder.Code, ctx.Recorder.Body.String())
	}
	return ctx
}
