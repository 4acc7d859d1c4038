package domain

// KeyPrefix namespaces all keys this service writes to the store.
const KeyPrefix = "shopsearch:"

// Product is a catalog document. The store owns the persisted copy; the
// service only holds transient in-memory copies for the duration of a request.
type Product struct {
	ID          string
	Title       string
	Description string
	Category    string
	Price       float64
	Image       string
	Embedding   []float32
}
