package domain

// Store key and index naming. Documents live under a single hash prefix;
// the three FT indexes are addressed strictly by these names.
const (
	// ProductKeyPrefix prefixes every product hash key.
	ProductKeyPrefix = KeyPrefix + "product:"

	// TagIndexName is the ordinary index (TAG category + NUMERIC price).
	TagIndexName = KeyPrefix + "product:tag-idx"
	// TextIndexName is the full-text index over title/description/category.
	TextIndexName = KeyPrefix + "product:text-idx"
	// VectorIndexName is the HNSW cosine index over the embedding field.
	VectorIndexName = KeyPrefix + "product:vec-idx"
)

// ProductKey returns the hash key for a product id.
func ProductKey(id string) string {
	return ProductKeyPrefix + id
}
