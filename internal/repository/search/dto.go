package search

import (
	"strconv"
	"strings"

	"github.com/nordveil/shopsearch/internal/db"
	"github.com/nordveil/shopsearch/internal/domain"
)

func productFromEntry(e *db.SearchEntry) domain.Product {
	p := domain.Product{
		ID:          strings.TrimPrefix(e.Key, domain.ProductKeyPrefix),
		Title:       e.Fields["title"],
		Description: e.Fields["description"],
		Category:    e.Fields["category"],
		Image:       e.Fields["image"],
	}
	if v, err := strconv.ParseFloat(e.Fields["price"], 64); err == nil {
		p.Price = v
	}
	return p
}
