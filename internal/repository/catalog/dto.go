package catalog

import (
	"encoding/binary"
	"math"
	"strconv"
	"strings"

	"github.com/nordveil/shopsearch/internal/domain"
)

// Hash field names for product documents.
const (
	fieldTitle       = "title"
	fieldDescription = "description"
	fieldCategory    = "category"
	fieldPrice       = "price"
	fieldImage       = "image"
	fieldEmbedding   = "embedding"
)

func productToHash(p *domain.Product) map[string]string {
	fields := map[string]string{
		fieldTitle:       p.Title,
		fieldDescription: p.Description,
		fieldCategory:    p.Category,
		fieldPrice:       strconv.FormatFloat(p.Price, 'f', -1, 64),
		fieldImage:       p.Image,
	}
	if len(p.Embedding) > 0 {
		fields[fieldEmbedding] = vectorToBytes(p.Embedding)
	}
	return fields
}

func productFromHash(key string, fields map[string]string) domain.Product {
	p := domain.Product{
		ID:          strings.TrimPrefix(key, domain.ProductKeyPrefix),
		Title:       fields[fieldTitle],
		Description: fields[fieldDescription],
		Category:    fields[fieldCategory],
		Image:       fields[fieldImage],
	}
	if v, err := strconv.ParseFloat(fields[fieldPrice], 64); err == nil {
		p.Price = v
	}
	return p
}

func vectorToBytes(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}
