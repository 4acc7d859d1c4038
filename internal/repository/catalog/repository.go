// Package catalog persists product documents as store hashes under the
// shared product key prefix.
package catalog

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/nordveil/shopsearch/internal/db"
	"github.com/nordveil/shopsearch/internal/domain"
)

// store is the subset of db.Store the repository needs.
type store interface {
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// Repository stores and retrieves products.
type Repository struct {
	store  store
	logger *zap.Logger
}

// NewRepository creates a product repository.
func NewRepository(s store, logger *zap.Logger) *Repository {
	return &Repository{store: s, logger: logger}
}

// Insert writes products as hashes in a single pipelined round trip.
func (r *Repository) Insert(ctx context.Context, products []domain.Product) error {
	if len(products) == 0 {
		return nil
	}

	items := make([]db.HashSetItem, len(products))
	for i := range products {
		p := &products[i]
		items[i] = db.HashSetItem{Key: domain.ProductKey(p.ID), Fields: productToHash(p)}
	}

	if err := r.store.HSetMulti(ctx, items); err != nil {
		return fmt.Errorf("insert products: %w", err)
	}

	r.logger.Debug("products inserted", zap.Int("count", len(products)))
	return nil
}

// Get fetches a single product by id. Embeddings are not returned.
func (r *Repository) Get(ctx context.Context, id string) (*domain.Product, error) {
	fields, err := r.store.HGetAll(ctx, domain.ProductKey(id))
	if err != nil {
		return nil, fmt.Errorf("get product %q: %w", id, err)
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("product %q: %w", id, domain.ErrNotFound)
	}

	p := productFromHash(domain.ProductKey(id), fields)
	return &p, nil
}

// All returns every product in the catalog, sorted by id for stable output.
func (r *Repository) All(ctx context.Context) ([]domain.Product, error) {
	keys, err := r.store.Scan(ctx, domain.ProductKeyPrefix+"*")
	if err != nil {
		return nil, fmt.Errorf("scan products: %w", err)
	}
	if len(keys) == 0 {
		return []domain.Product{}, nil
	}

	hashes, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("fetch products: %w", err)
	}

	products := make([]domain.Product, 0, len(hashes))
	for i, fields := range hashes {
		if len(fields) == 0 {
			continue
		}
		products = append(products, productFromHash(keys[i], fields))
	}

	sort.Slice(products, func(i, j int) bool { return products[i].ID < products[j].ID })
	return products, nil
}

// Count reports the number of stored products.
func (r *Repository) Count(ctx context.Context) (int, error) {
	keys, err := r.store.Scan(ctx, domain.ProductKeyPrefix+"*")
	if err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	return len(keys), nil
}

// Categories returns the distinct product categories, sorted.
func (r *Repository) Categories(ctx context.Context) ([]string, error) {
	products, err := r.All(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(products))
	categories := make([]string, 0, len(products))
	for i := range products {
		c := products[i].Category
		if c == "" {
			continue
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		categories = append(categories, c)
	}

	sort.Strings(categories)
	return categories, nil
}

var _ store = (db.Store)(nil)
