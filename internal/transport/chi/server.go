// Package chi wires the HTTP API: the search endpoint, catalog reads and
// operational endpoints.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/nordveil/shopsearch/internal/domain"
	"github.com/nordveil/shopsearch/internal/domain/search"
	logpkg "github.com/nordveil/shopsearch/internal/logger"
	healthuc "github.com/nordveil/shopsearch/internal/usecase/health"
)

// maxImageBytes bounds uploaded search images.
const maxImageBytes = 10 << 20

// searcher is the search router surface.
type searcher interface {
	Search(ctx context.Context, req *search.Request) (*search.Response, error)
}

// catalogReader is the product read surface.
type catalogReader interface {
	Get(ctx context.Context, id string) (*domain.Product, error)
	All(ctx context.Context) ([]domain.Product, error)
	Categories(ctx context.Context) ([]string, error)
}

// healthChecker is the dependency probe surface.
type healthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

// Server implements the HTTP API.
type Server struct {
	search        searcher
	catalog       catalogReader
	health        healthChecker
	logger        *zap.Logger
	exposeDetails bool
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server. exposeDetails controls whether
// internal error text is echoed to clients; production keeps it off.
func NewServer(searchSvc searcher, catalog catalogReader, health healthChecker, logger *zap.Logger, exposeDetails bool) *Server {
	s := &Server{
		search:        searchSvc,
		catalog:       catalog,
		health:        health,
		logger:        logger,
		exposeDetails: exposeDetails,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidSearchType, http.StatusBadRequest),
		sentinelHandler(domain.ErrMissingQuery, http.StatusBadRequest),
		sentinelHandler(domain.ErrMissingImage, http.StatusBadRequest),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound),
		sentinelHandler(domain.ErrModelProviderError, http.StatusBadGateway),
	}
	return s
}

// Routes mounts the API on the given router.
func (s *Server) Routes(r chi.Router) {
	r.Post("/api/search", s.handleSearch)
	r.Get("/api/data", s.handleData)
	r.Get("/api/products", s.handleListProducts)
	r.Get("/api/products/{id}", s.handleGetProduct)
	r.Get("/api/categories", s.handleCategories)
	r.Get("/health", s.handleHealth)
	r.Get("/api/health", s.handleHealth)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)
}

// handleSearch handles POST /api/search. The endpoint accepts JSON for text
// strategies and multipart/form-data when an image file rides along.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	req, err := s.parseSearchRequest(r)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	resp, err := s.search.Search(r.Context(), req)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, searchResponseToDTO(resp))
}

func (s *Server) parseSearchRequest(r *http.Request) (*search.Request, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		return parseMultipartSearch(r)
	}
	return parseJSONSearch(r)
}

func parseJSONSearch(r *http.Request) (*search.Request, error) {
	var dto searchRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		return nil, errBadRequestBody
	}

	typ, err := search.ParseType(dto.Type)
	if err != nil {
		return nil, err
	}

	return &search.Request{
		Type:  typ,
		Query: strings.TrimSpace(dto.Query),
		Options: search.Options{
			FuzzyMatching:  dto.Options.FuzzyMatching,
			AutoComplete:   dto.Options.AutoComplete,
			PhraseMatching: dto.Options.PhraseMatching,
		},
	}, nil
}

func parseMultipartSearch(r *http.Request) (*search.Request, error) {
	if err := r.ParseMultipartForm(maxImageBytes); err != nil {
		return nil, errBadRequestBody
	}

	typ, err := search.ParseType(r.FormValue("type"))
	if err != nil {
		return nil, err
	}

	req := &search.Request{
		Type:  typ,
		Query: strings.TrimSpace(r.FormValue("query")),
		Options: search.Options{
			FuzzyMatching:  formBool(r, "fuzzyMatching"),
			AutoComplete:   formBool(r, "autoComplete"),
			PhraseMatching: formBool(r, "phraseMatching"),
		},
	}

	file, _, err := r.FormFile("image")
	if err == nil {
		defer func() { _ = file.Close() }()
		image, readErr := io.ReadAll(io.LimitReader(file, maxImageBytes))
		if readErr != nil {
			return nil, errBadRequestBody
		}
		req.Image = image
	}

	return req, nil
}

func formBool(r *http.Request, key string) bool {
	v := r.FormValue(key)
	return v == "true" || v == "1"
}

// handleData handles GET /api/data: the full catalog dump used by the demo
// frontend.
func (s *Server) handleData(w http.ResponseWriter, r *http.Request) {
	products, err := s.catalog.All(r.Context())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, productsToDTO(products))
}

// handleListProducts handles GET /api/products.
func (s *Server) handleListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := s.catalog.All(r.Context())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, productsToDTO(products))
}

// handleGetProduct handles GET /api/products/{id}.
func (s *Server) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	product, err := s.catalog.Get(r.Context(), id)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, productToDTO(product))
}

// handleCategories handles GET /api/categories.
func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.catalog.Categories(r.Context())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"categories": categories})
}

// handleHealth handles GET /health and GET /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	status := http.StatusOK
	if report.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, report)
}

// errBadRequestBody marks an unparseable request body; it maps to 400 like
// the other client errors.
var errBadRequestBody = errors.New("invalid request body")

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logpkg.FromContext(r.Context(), s.logger)

	if errors.Is(err, errBadRequestBody) {
		writeError(w, http.StatusBadRequest, errBadRequestBody.Error(), "")
		return
	}

	for _, h := range s.errorHandlers {
		if h(w, err) {
			log.Warn("request failed", zap.Error(err))
			return
		}
	}

	log.Error("internal error", zap.Error(err))
	details := ""
	if s.exposeDetails {
		details = err.Error()
	}
	writeError(w, http.StatusInternalServerError, "internal error", details)
}

// sentinelHandler returns an errorHandler that matches a single sentinel
// error. Clients only ever see the sentinel text, never wrapped internals.
func sentinelHandler(sentinel error, status int) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, sentinel.Error(), "")
		return true
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message, details string) {
	writeJSON(w, status, errorResponse{Error: message, Details: details})
}
