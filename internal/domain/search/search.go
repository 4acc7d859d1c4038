// Package search holds the search request/response model shared between the
// HTTP transport and the search router.
package search

import "github.com/nordveil/shopsearch/internal/domain"

// Type discriminates the query strategy a request is routed to.
type Type string

const (
	// TypeBasic is an unscored case-insensitive substring match.
	TypeBasic Type = "basic"
	// TypeFulltext is engine-native full-text search with optional phrase,
	// fuzzy and autocomplete clauses. Accepted under the legacy alias "atlas".
	TypeFulltext Type = "fulltext"
	// TypeVector embeds the query and runs nearest-neighbor search.
	TypeVector Type = "vector"
	// TypeSemantic rewrites the query via a completion model first, then
	// runs the vector pipeline.
	TypeSemantic Type = "semantic"
	// TypeImage captions an uploaded image, embeds the caption, then runs
	// the vector pipeline.
	TypeImage Type = "image"
	// TypeConcept runs vector and full-text search independently and merges
	// the two result sets.
	TypeConcept Type = "concept"
)

// ParseType maps a wire discriminator to a Type. "atlas" is kept as an alias
// for fulltext for compatibility with older clients.
func ParseType(s string) (Type, error) {
	switch s {
	case "basic":
		return TypeBasic, nil
	case "fulltext", "atlas":
		return TypeFulltext, nil
	case "vector":
		return TypeVector, nil
	case "semantic":
		return TypeSemantic, nil
	case "image":
		return TypeImage, nil
	case "concept":
		return TypeConcept, nil
	default:
		return "", domain.ErrInvalidSearchType
	}
}

// Types lists every supported discriminator, for the health endpoint.
func Types() []string {
	return []string{"basic", "fulltext", "vector", "semantic", "image", "concept"}
}

// Options toggles the independent full-text sub-clauses.
type Options struct {
	FuzzyMatching  bool
	AutoComplete   bool
	PhraseMatching bool
}

// Request is a parsed search request. Exactly one of Query/Image is the
// effective input, determined by Type.
type Request struct {
	Type    Type
	Query   string
	Image   []byte
	Options Options
}

// Validate checks the per-type input contract. It must be called before any
// store or model call is made.
func (r *Request) Validate() error {
	switch r.Type {
	case TypeImage:
		if len(r.Image) == 0 {
			return domain.ErrMissingImage
		}
	case TypeBasic, TypeFulltext, TypeVector, TypeSemantic, TypeConcept:
		if r.Query == "" {
			return domain.ErrMissingQuery
		}
	default:
		return domain.ErrInvalidSearchType
	}
	return nil
}

// Hit is a single search hit. The score is a tagged variant rather than a
// nullable field: basic hits are unscored and serialize without a score key.
type Hit struct {
	product domain.Product
	score   float64
	scored  bool
}

// NewScored creates a hit carrying a normalized relevance score.
func NewScored(p domain.Product, score float64) Hit {
	return Hit{product: p, score: score, scored: true}
}

// NewUnscored creates a hit with no relevance score.
func NewUnscored(p domain.Product) Hit {
	return Hit{product: p}
}

// Product returns the projected document fields.
func (h *Hit) Product() domain.Product { return h.product }

// Score returns the normalized score and whether the hit is scored at all.
func (h *Hit) Score() (float64, bool) { return h.score, h.scored }

// Response is the unified search envelope.
type Response struct {
	Hits []Hit
	// SearchTime is elapsed milliseconds as a decimal string with two
	// fraction digits.
	SearchTime string
	// ImageDescription carries the generated caption for image searches.
	ImageDescription string
}
