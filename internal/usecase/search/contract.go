package search

import (
	"context"

	"github.com/nordveil/shopsearch/internal/domain/search"
)

// Repository is the retrieval surface the router dispatches to.
type Repository interface {
	// KNN returns the k nearest products to the vector, scored, best first.
	KNN(ctx context.Context, vector []float32, k, candidatePool int) ([]search.Hit, error)
	// Fulltext runs the engine-scored text query for the given options.
	Fulltext(ctx context.Context, query string, opts search.Options, limit int) ([]search.Hit, error)
	// Match runs the unscored substring query in store order.
	Match(ctx context.Context, query string, limit int) ([]search.Hit, error)
}
