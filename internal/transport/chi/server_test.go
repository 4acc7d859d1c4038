package chi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	chirouter "github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/nordveil/shopsearch/internal/domain"
	"github.com/nordveil/shopsearch/internal/domain/search"
	healthuc "github.com/nordveil/shopsearch/internal/usecase/health"
)

type fakeSearcher struct {
	lastReq *search.Request
	resp    *search.Response
	err     error
}

func (f *fakeSearcher) Search(_ context.Context, req *search.Request) (*search.Response, error) {
	f.lastReq = req
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

type fakeCatalog struct {
	products []domain.Product
	err      error
}

func (f *fakeCatalog) Get(_ context.Context, id string) (*domain.Product, error) {
	if f.err != nil {
		return nil, f.err
	}
	for i := range f.products {
		if f.products[i].ID == id {
			return &f.products[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeCatalog) All(context.Context) ([]domain.Product, error) {
	return f.products, f.err
}

func (f *fakeCatalog) Categories(context.Context) ([]string, error) {
	return []string{"Footwear"}, f.err
}

type fakeHealth struct{ report healthuc.Report }

func (f *fakeHealth) Check(context.Context) healthuc.Report { return f.report }

func newTestRouter(s *Server) http.Handler {
	r := chirouter.NewRouter()
	s.Routes(r)
	return r
}

func okResponse() *search.Response {
	return &search.Response{
		Hits: []search.Hit{
			search.NewScored(domain.Product{ID: "p1", Title: "Red Shoes", Price: 59.99}, 0.91),
		},
		SearchTime: "12.34",
	}
}

func postJSON(t *testing.T, h http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestSearchJSONHappyPath(t *testing.T) {
	searcher := &fakeSearcher{resp: okResponse()}
	srv := NewServer(searcher, &fakeCatalog{}, &fakeHealth{}, zap.NewNop(), true)
	h := newTestRouter(srv)

	rec := postJSON(t, h, "/api/search", `{"type":"vector","query":"red shoes"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var resp searchResponseDTO
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Results) != 1 || resp.Results[0].ID != "p1" {
		t.Fatalf("unexpected results: %+v", resp.Results)
	}
	if resp.Results[0].Score == nil || *resp.Results[0].Score != 0.91 {
		t.Error("scored hit must carry its score")
	}
	if resp.SearchTime != "12.34" {
		t.Errorf("searchTime = %q", resp.SearchTime)
	}
}

func TestSearchJSONPassesOptions(t *testing.T) {
	searcher := &fakeSearcher{resp: okResponse()}
	srv := NewServer(searcher, &fakeCatalog{}, &fakeHealth{}, zap.NewNop(), true)
	h := newTestRouter(srv)

	postJSON(t, h, "/api/search",
		`{"type":"fulltext","query":"red","options":{"fuzzyMatching":true,"phraseMatching":true}}`)

	opts := searcher.lastReq.Options
	if !opts.FuzzyMatching || !opts.PhraseMatching || opts.AutoComplete {
		t.Errorf("options = %+v", opts)
	}
	if searcher.lastReq.Type != search.TypeFulltext {
		t.Errorf("type = %q", searcher.lastReq.Type)
	}
}

func TestSearchAtlasAliasAccepted(t *testing.T) {
	searcher := &fakeSearcher{resp: okResponse()}
	srv := NewServer(searcher, &fakeCatalog{}, &fakeHealth{}, zap.NewNop(), true)
	h := newTestRouter(srv)

	rec := postJSON(t, h, "/api/search", `{"type":"atlas","query":"red"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if searcher.lastReq.Type != search.TypeFulltext {
		t.Errorf("alias must map to fulltext, got %q", searcher.lastReq.Type)
	}
}

func TestBasicHitsSerializeWithoutScoreKey(t *testing.T) {
	searcher := &fakeSearcher{resp: &search.Response{
		Hits:       []search.Hit{search.NewUnscored(domain.Product{ID: "p1"})},
		SearchTime: "1.00",
	}}
	srv := NewServer(searcher, &fakeCatalog{}, &fakeHealth{}, zap.NewNop(), true)
	h := newTestRouter(srv)

	rec := postJSON(t, h, "/api/search", `{"type":"basic","query":"red"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), `"score"`) {
		t.Errorf("unscored hit must omit the score key: %s", rec.Body.String())
	}
}

func TestSearchInvalidTypeRejected(t *testing.T) {
	srv := NewServer(&fakeSearcher{}, &fakeCatalog{}, &fakeHealth{}, zap.NewNop(), true)
	h := newTestRouter(srv)

	rec := postJSON(t, h, "/api/search", `{"type":"regex","query":"red"}`)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	var resp errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if resp.Error == "" {
		t.Error("error message must be set")
	}
}

func TestSearchMissingQueryRejected(t *testing.T) {
	srv := NewServer(&fakeSearcher{}, &fakeCatalog{}, &fakeHealth{}, zap.NewNop(), true)
	h := newTestRouter(srv)

	rec := postJSON(t, h, "/api/search", `{"type":"vector"}`)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestSearchMalformedBodyRejected(t *testing.T) {
	srv := NewServer(&fakeSearcher{}, &fakeCatalog{}, &fakeHealth{}, zap.NewNop(), true)
	h := newTestRouter(srv)

	rec := postJSON(t, h, "/api/search", `{"type":`)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func multipartSearch(t *testing.T, fields map[string]string, image []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	if image != nil {
		fw, err := mw.CreateFormFile("image", "photo.jpg")
		if err != nil {
			t.Fatal(err)
		}
		if _, err := fw.Write(image); err != nil {
			t.Fatal(err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/search", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestSearchMultipartImage(t *testing.T) {
	searcher := &fakeSearcher{resp: &search.Response{
		Hits:             []search.Hit{search.NewScored(domain.Product{ID: "p1"}, 0.8)},
		SearchTime:       "20.00",
		ImageDescription: "red leather sneaker",
	}}
	srv := NewServer(searcher, &fakeCatalog{}, &fakeHealth{}, zap.NewNop(), true)
	h := newTestRouter(srv)

	req := multipartSearch(t, map[string]string{"type": "image"}, []byte{0xFF, 0xD8, 0xFF})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if len(searcher.lastReq.Image) != 3 {
		t.Errorf("image bytes not forwarded: %v", searcher.lastReq.Image)
	}

	var resp searchResponseDTO
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.ImageDescription != "red leather sneaker" {
		t.Errorf("imageDescription = %q", resp.ImageDescription)
	}
}

func TestSearchImageWithoutFileRejected(t *testing.T) {
	searcher := &fakeSearcher{}
	srv := NewServer(searcher, &fakeCatalog{}, &fakeHealth{}, zap.NewNop(), true)
	h := newTestRouter(srv)

	req := multipartSearch(t, map[string]string{"type": "image"}, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestSearchModelProviderErrorMapsToBadGateway(t *testing.T) {
	searcher := &fakeSearcher{err: domain.ErrModelProviderError}
	srv := NewServer(searcher, &fakeCatalog{}, &fakeHealth{}, zap.NewNop(), true)
	h := newTestRouter(srv)

	rec := postJSON(t, h, "/api/search", `{"type":"vector","query":"q"}`)

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rec.Code)
	}
}

func TestInternalErrorDetailsRedacted(t *testing.T) {
	searcher := &fakeSearcher{err: errors.New("redis: connection refused at 10.0.0.5")}
	srv := NewServer(searcher, &fakeCatalog{}, &fakeHealth{}, zap.NewNop(), false)
	h := newTestRouter(srv)

	rec := postJSON(t, h, "/api/search", `{"type":"vector","query":"q"}`)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "10.0.0.5") {
		t.Error("internal error details must be redacted")
	}
}

func TestGetProduct(t *testing.T) {
	cat := &fakeCatalog{products: []domain.Product{{ID: "p1", Title: "Red Shoes"}}}
	srv := NewServer(&fakeSearcher{}, cat, &fakeHealth{}, zap.NewNop(), true)
	h := newTestRouter(srv)

	req := httptest.NewRequest(http.MethodGet, "/api/products/p1", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var dto productDTO
	if err := json.Unmarshal(rec.Body.Bytes(), &dto); err != nil {
		t.Fatal(err)
	}
	if dto.Title != "Red Shoes" {
		t.Errorf("title = %q", dto.Title)
	}
}

func TestGetProductNotFound(t *testing.T) {
	srv := NewServer(&fakeSearcher{}, &fakeCatalog{}, &fakeHealth{}, zap.NewNop(), true)
	h := newTestRouter(srv)

	req := httptest.NewRequest(http.MethodGet, "/api/products/missing", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestHealthDegradedReturns503(t *testing.T) {
	fh := &fakeHealth{report: healthuc.Report{Status: "degraded", Database: "disconnected"}}
	srv := NewServer(&fakeSearcher{}, &fakeCatalog{}, fh, zap.NewNop(), true)
	h := newTestRouter(srv)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}

func TestHealthOK(t *testing.T) {
	fh := &fakeHealth{report: healthuc.Report{Status: "ok", Database: "connected", SearchTypes: []string{"basic"}}}
	srv := NewServer(&fakeSearcher{}, &fakeCatalog{}, fh, zap.NewNop(), true)
	h := newTestRouter(srv)

	for _, path := range []string{"/health", "/api/health"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("%s: status = %d", path, rec.Code)
		}

		var body map[string]json.RawMessage
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("%s: decode body: %v", path, err)
		}
		for _, key := range []string{"status", "database", "search_types"} {
			if _, ok := body[key]; !ok {
				t.Errorf("%s: body missing %q key: %s", path, key, rec.Body.String())
			}
		}
	}
}

func TestCORSPreflight(t *testing.T) {
	srv := NewServer(&fakeSearcher{}, &fakeCatalog{}, &fakeHealth{}, zap.NewNop(), true)
	r := chirouter.NewRouter()
	r.Use(CORSMiddleware())
	srv.Routes(r)

	req := httptest.NewRequest(http.MethodOptions, "/api/search", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("missing CORS origin header")
	}
}
