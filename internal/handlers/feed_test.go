package handlers

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/statusboardhq/statusboard/internal/rss"
	"github.com/statusboardhq/statusboard/internal/testhelpers"
)

func newTestFeedMux(t *testing.T) *http.ServeMux {
	t.Helper()
	db := testhelpers.SetupTestDB(t)

	testhelpers.NewIncidentBuilder().ForHost("db01").Create(t, db)
	ended := time.Now().Add(-10 * time.Minute)
	testhelpers.NewIncidentBuilder().
		ForService("web01", "HTTP").
		WithState("OK").
		Closed(ended).
		Create(t, db)

	mux := http.NewServeMux()
	NewFeedHandler(rss.NewGenerator("Status Page", "https://status.example.com")).SetupRoutes(mux)
	return mux
}

func TestGlobalFeed(t *testing.T) {
	mux := newTestFeedMux(t)

	ctx := testhelpers.NewHTTPTestContext(t, http.MethodGet, "/rss", nil).
		Execute(mux).
		AssertStatus(http.StatusOK)

	if ct := ctx.Recorder.Header().Get("Content-Type"); !strings.Contains(ct, "application/rss+xml") {
		t.Errorf("unexpected content type: %s", ct)
	}

	body := ctx.Recorder.Body.String()
	if !strings.Contains(body, "db01") || !strings.Contains(body, "web01/HTTP") {
		t.Errorf("feed missing incidents: %s", body)
	}
}

func TestHostFeedIsScoped(t *testing.T) {
	mux := newTestFeedMux(t)

	body := testhelpers.NewHTTPTestContext(t, http.MethodGet, "/rss/hosts/db01", nil).
		Execute(mux).
		AssertStatus(http.StatusOK).
		Recorder.Body.String()

	if !strings.Contains(body, "db01") {
		t.Error("host feed missing its incident")
	}
	if strings.Contains(body, "web01/HTTP") {
		t.Error("host feed leaked another entity's incident")
	}
}

func TestServiceFeedIsScoped(t *testing.T) {
	mux := newTestFeedMux(t)

	body := testhelpers.NewHTTPTestContext(t, http.MethodGet, "/rss/hosts/web01/services/HTTP", nil).
		Execute(mux).
		AssertStatus(http.StatusOK).
		Recorder.Body.String()

	if !strings.Contains(body, "web01/HTTP") {
		t.Error("service feed missing its incident")
	}
	if strings.Contains(body, "[ONGOING] db01") {
		t.Error("service feed leaked the host incident")
	}
}
