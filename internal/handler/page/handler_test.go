package page

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/go-chi/chi/v5"
)

func setupRouter(available bool) *chi.Mux {
	assets := fstest.MapFS{
		"index.html":       {Data: []byte("<html>widget</html>")},
		"static/script.js": {Data: []byte("console.log('ok')")},
	}
	r := chi.NewRouter()
	New(assets, []byte("openapi: 3.0.3\n"), func() bool { return available }).RegisterRoutes(r)
	return r
}

func TestIndexServesWidget(t *testing.T) {
	resp := httptest.NewRecorder()
	setupRouter(true).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/", nil))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "widget") {
		t.Fatalf("unexpected body: %s", resp.Body.String())
	}
	if ct := resp.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Fatalf("unexpected content type %q", ct)
	}
}

func TestStaticAssets(t *testing.T) {
	resp := httptest.NewRecorder()
	setupRouter(true).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/static/script.js", nil))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if resp.Body.String() != "console.log('ok')" {
		t.Fatalf("unexpected body: %s", resp.Body.String())
	}
}

func TestHealthReportsAssistant(t *testing.T) {
	resp := httptest.NewRecorder()
	setupRouter(false).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if got := strings.TrimSpace(resp.Body.String()); got != `{"assistant":false,"status":"ok"}` {
		t.Fatalf("unexpected body: %s", got)
	}
}

func TestOpenAPIDocument(t *testing.T) {
	resp := httptest.NewRecorder()
	setupRouter(true).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/openapi.yaml", nil))

	if !strings.HasPrefix(resp.Body.String(), "openapi:") {
		t.Fatalf("unexpected body: %s", resp.Body.String())
	}
}
