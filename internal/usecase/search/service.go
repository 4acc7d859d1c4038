// Package search implements the request router: it validates a parsed
// request, dispatches it to the matching retrieval strategy and shapes the
// unified response envelope.
package search

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/nordveil/shopsearch/internal/domain"
	"github.com/nordveil/shopsearch/internal/domain/search"
	"github.com/nordveil/shopsearch/internal/metrics"
)

// Config tunes result set sizes.
type Config struct {
	// Limit caps the hits returned to the client.
	Limit int
	// CandidatePool widens the vector search frontier (EF_RUNTIME).
	CandidatePool int
	// ConceptPool is the per-strategy pool size fetched before the concept
	// merge truncates back down to Limit.
	ConceptPool int
}

// Service routes search requests to retrieval strategies.
type Service struct {
	repo      Repository
	embedder  domain.Embedder
	completer domain.Completer

	limit         int
	candidatePool int
	conceptPool   int

	logger *zap.Logger
}

// NewService creates the search router.
func NewService(repo Repository, embedder domain.Embedder, completer domain.Completer, cfg *Config, logger *zap.Logger) *Service {
	return &Service{
		repo:          repo,
		embedder:      embedder,
		completer:     completer,
		limit:         cfg.Limit,
		candidatePool: cfg.CandidatePool,
		conceptPool:   cfg.ConceptPool,
		logger:        logger,
	}
}

// Search validates the request, runs the strategy it names and returns the
// unified envelope. Scored strategies return hits normalized into [0,1] and
// sorted best-first; basic returns unscored hits in store order.
func (s *Service) Search(ctx context.Context, req *search.Request) (*search.Response, error) {
	if err := req.Validate(); err != nil {
		metrics.SearchRequestsTotal.WithLabelValues(string(req.Type), "invalid").Inc()
		return nil, err
	}

	start := time.Now()

	var (
		hits    []search.Hit
		caption string
		err     error
	)

	switch req.Type {
	case search.TypeBasic:
		hits, err = s.repo.Match(ctx, req.Query, s.limit)
	case search.TypeFulltext:
		hits, err = s.repo.Fulltext(ctx, req.Query, req.Options, s.limit)
	case search.TypeVector:
		hits, err = s.vectorSearch(ctx, req.Query, s.limit)
	case search.TypeSemantic:
		hits, err = s.semanticSearch(ctx, req.Query)
	case search.TypeImage:
		caption, hits, err = s.imageSearch(ctx, req.Image)
	case search.TypeConcept:
		hits, err = s.conceptSearch(ctx, req)
	default:
		err = domain.ErrInvalidSearchType
	}

	if err != nil {
		metrics.SearchRequestsTotal.WithLabelValues(string(req.Type), "error").Inc()
		return nil, err
	}

	// Basic keeps store order and stays unscored; everything else is
	// normalized and ranked.
	if req.Type != search.TypeBasic {
		hits = normalizeHits(hits)
		sortHits(hits)
	}
	if len(hits) > s.limit {
		hits = hits[:s.limit]
	}

	elapsed := float64(time.Since(start).Nanoseconds()) / float64(time.Millisecond)

	metrics.SearchRequestsTotal.WithLabelValues(string(req.Type), "success").Inc()
	s.logger.Debug("search completed",
		zap.String("type", string(req.Type)),
		zap.Int("hits", len(hits)),
		zap.Float64("elapsed_ms", elapsed),
	)

	return &search.Response{
		Hits:             hits,
		SearchTime:       fmt.Sprintf("%.2f", elapsed),
		ImageDescription: caption,
	}, nil
}

// vectorSearch embeds the text and runs nearest-neighbor retrieval.
func (s *Service) vectorSearch(ctx context.Context, text string, k int) ([]search.Hit, error) {
	res, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	return s.repo.KNN(ctx, res.Embedding, k, s.candidatePool)
}

// semanticSearch expands the query through the completion model before the
// vector pipeline. The completer falls back to the original query on model
// failure, so an error here is terminal.
func (s *Service) semanticSearch(ctx context.Context, query string) ([]search.Hit, error) {
	rewritten, err := s.completer.RewriteQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("rewrite query: %w", err)
	}
	return s.vectorSearch(ctx, rewritten, s.limit)
}

// imageSearch captions the image and feeds the caption to the vector
// pipeline. Captioning has no fallback: without it there is nothing to embed.
func (s *Service) imageSearch(ctx context.Context, image []byte) (string, []search.Hit, error) {
	caption, err := s.completer.CaptionImage(ctx, image)
	if err != nil {
		return "", nil, fmt.Errorf("caption image: %w", err)
	}

	hits, err := s.vectorSearch(ctx, caption, s.limit)
	if err != nil {
		return "", nil, err
	}
	return caption, hits, nil
}

// conceptSearch runs the vector and full-text strategies over a wider pool,
// normalizes both score scales into [0,1] and unions them by product id,
// keeping the higher score for duplicates.
func (s *Service) conceptSearch(ctx context.Context, req *search.Request) ([]search.Hit, error) {
	vecHits, err := s.vectorSearch(ctx, req.Query, s.conceptPool)
	if err != nil {
		return nil, err
	}

	textHits, err := s.repo.Fulltext(ctx, req.Query, req.Options, s.conceptPool)
	if err != nil {
		return nil, err
	}

	return mergeByMax(normalizeHits(vecHits), normalizeHits(textHits)), nil
}

func sortHits(hits []search.Hit) {
	sort.SliceStable(hits, func(i, j int) bool {
		si, _ := hits[i].Score()
		sj, _ := hits[j].Score()
		return si > sj
	})
}
