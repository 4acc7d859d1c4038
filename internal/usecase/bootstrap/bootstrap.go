// Package bootstrap prepares the store on startup: it ensures the three
// search indexes exist and seeds the demo catalog when it is empty.
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/nordveil/shopsearch/internal/db"
	"github.com/nordveil/shopsearch/internal/domain"
)

// indexStore is the subset of db.Store bootstrapping needs.
type indexStore interface {
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	IndexExists(ctx context.Context, name string) (bool, error)
}

// catalog is the product repository surface used for seeding.
type catalog interface {
	Count(ctx context.Context) (int, error)
	Insert(ctx context.Context, products []domain.Product) error
}

// Config carries the HNSW parameters for the vector index.
type Config struct {
	EmbeddingDim    int
	HNSWM           int
	HNSWEFConstruct int
}

// Service runs the startup index and seed sequence.
type Service struct {
	store    indexStore
	catalog  catalog
	embedder domain.Embedder
	cfg      Config
	logger   *zap.Logger
}

// NewService creates a bootstrapper.
func NewService(store indexStore, cat catalog, embedder domain.Embedder, cfg Config, logger *zap.Logger) *Service {
	return &Service{
		store:    store,
		catalog:  cat,
		embedder: embedder,
		cfg:      cfg,
		logger:   logger,
	}
}

// Ensure creates the three product indexes if they do not exist yet. The
// routine is idempotent: indexes are addressed strictly by name and existing
// ones are left untouched. A failure on the tag index aborts startup; the
// text and vector indexes degrade to a warning so the service can still come
// up for the strategies that do not need them.
func (s *Service) Ensure(ctx context.Context) error {
	tagIdx := db.NewIndex(domain.TagIndexName).
		Prefix(domain.ProductKeyPrefix).
		Tag("category").
		Numeric("price").
		MustBuild()

	textIdx := db.NewIndex(domain.TextIndexName).
		Prefix(domain.ProductKeyPrefix).
		TextWeighted("title", 3).
		Text("description").
		TextWeighted("category", 2).
		MustBuild()

	vecIdx := db.NewIndex(domain.VectorIndexName).
		Prefix(domain.ProductKeyPrefix).
		VectorHNSW("embedding", s.cfg.EmbeddingDim, db.DistanceCosine, s.cfg.HNSWM, s.cfg.HNSWEFConstruct).
		MustBuild()

	if err := s.ensureIndex(ctx, tagIdx); err != nil {
		return fmt.Errorf("create index %s: %w", tagIdx.Name, err)
	}

	for _, def := range []*db.IndexDefinition{textIdx, vecIdx} {
		if err := s.ensureIndex(ctx, def); err != nil {
			s.logger.Warn("index creation failed, continuing",
				zap.String("index", def.Name),
				zap.Error(err),
			)
		}
	}

	return nil
}

func (s *Service) ensureIndex(ctx context.Context, def *db.IndexDefinition) error {
	exists, err := s.store.IndexExists(ctx, def.Name)
	if err != nil {
		return err
	}
	if exists {
		s.logger.Debug("index already exists", zap.String("index", def.Name))
		return nil
	}

	if err := s.store.CreateIndex(ctx, def); err != nil {
		// Lost a creation race, the index is there either way.
		if errors.Is(err, db.ErrIndexExists) {
			return nil
		}
		return err
	}

	s.logger.Info("index created", zap.String("index", def.Name))
	return nil
}

// Seed loads the demo catalog when the store holds no products. Embeddings
// are computed synchronously; a model failure falls back to a zero vector so
// seeding never blocks startup (the affected product simply never ranks in
// vector results until reseeded).
func (s *Service) Seed(ctx context.Context) error {
	count, err := s.catalog.Count(ctx)
	if err != nil {
		return fmt.Errorf("count products: %w", err)
	}
	if count > 0 {
		s.logger.Debug("catalog already seeded", zap.Int("count", count))
		return nil
	}

	products := seedProducts()
	for i := range products {
		p := &products[i]
		res, err := s.embedder.Embed(ctx, embeddingText(p))
		if err != nil {
			s.logger.Warn("seed embedding failed, storing zero vector",
				zap.String("product", p.ID),
				zap.Error(err),
			)
			p.Embedding = make([]float32, s.cfg.EmbeddingDim)
			continue
		}
		p.Embedding = res.Embedding
	}

	if err := s.catalog.Insert(ctx, products); err != nil {
		return fmt.Errorf("seed catalog: %w", err)
	}

	s.logger.Info("catalog seeded", zap.Int("count", len(products)))
	return nil
}

// embeddingText is the document-side text fed to the embedder. It mirrors
// what the text strategies search over so the two spaces stay comparable.
func embeddingText(p *domain.Product) string {
	return p.Title + ". " + p.Description + " Category: " + p.Category + "."
}
