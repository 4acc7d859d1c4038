// Package search translates strategy-level retrieval calls into raw index
// queries and maps store entries back to domain hits.
package search

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/nordveil/shopsearch/internal/db"
	"github.com/nordveil/shopsearch/internal/domain"
	domainsearch "github.com/nordveil/shopsearch/internal/domain/search"
)

// returnFields is the projection shared by every search. The embedding is
// deliberately excluded from result payloads.
var returnFields = []string{"title", "description", "category", "price", "image"}

// store is the subset of db.Store the repository needs.
type store interface {
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	SearchText(ctx context.Context, q *db.Query) (*db.SearchResult, error)
	SearchMatch(ctx context.Context, q *db.Query) (*db.SearchResult, error)
}

// Repository runs index-backed retrieval for the search strategies.
type Repository struct {
	store  store
	logger *zap.Logger
}

// NewRepository creates a search repository.
func NewRepository(s store, logger *zap.Logger) *Repository {
	return &Repository{store: s, logger: logger}
}

// KNN returns the k nearest products to the query vector, scored by cosine
// similarity, most similar first.
func (r *Repository) KNN(ctx context.Context, vector []float32, k, candidatePool int) ([]domainsearch.Hit, error) {
	res, err := r.store.SearchKNN(ctx, &db.KNNQuery{
		IndexName:     domain.VectorIndexName,
		Vector:        vector,
		K:             k,
		CandidatePool: candidatePool,
		ReturnFields:  returnFields,
	})
	if err != nil {
		return nil, fmt.Errorf("knn search: %w", err)
	}

	return entriesToHits(res.Entries), nil
}

// Fulltext runs the engine-scored text query built from the request options.
func (r *Repository) Fulltext(ctx context.Context, query string, opts domainsearch.Options, limit int) ([]domainsearch.Hit, error) {
	raw := BuildFulltextQuery(query, opts.FuzzyMatching, opts.AutoComplete, opts.PhraseMatching)

	res, err := r.store.SearchText(ctx, &db.Query{
		IndexName:    domain.TextIndexName,
		Raw:          raw,
		Limit:        limit,
		ReturnFields: returnFields,
	})
	if err != nil {
		return nil, fmt.Errorf("fulltext search: %w", err)
	}

	r.logger.Debug("fulltext search",
		zap.String("query", raw),
		zap.Int("total", res.Total),
	)

	return entriesToHits(res.Entries), nil
}

// Match runs the unscored substring query. Hits keep store order and carry
// no score.
func (r *Repository) Match(ctx context.Context, query string, limit int) ([]domainsearch.Hit, error) {
	res, err := r.store.SearchMatch(ctx, &db.Query{
		IndexName:    domain.TextIndexName,
		Raw:          BuildMatchQuery(query),
		Limit:        limit,
		ReturnFields: returnFields,
	})
	if err != nil {
		return nil, fmt.Errorf("match search: %w", err)
	}

	return entriesToHits(res.Entries), nil
}

func entriesToHits(entries []db.SearchEntry) []domainsearch.Hit {
	hits := make([]domainsearch.Hit, 0, len(entries))
	for i := range entries {
		p := productFromEntry(&entries[i])
		if entries[i].Scored {
			hits = append(hits, domainsearch.NewScored(p, entries[i].Score))
		} else {
			hits = append(hits, domainsearch.NewUnscored(p))
		}
	}
	return hits
}

var _ store = (db.Store)(nil)
