package chi

import (
	"github.com/nordveil/shopsearch/internal/domain"
	"github.com/nordveil/shopsearch/internal/domain/search"
)

type searchRequestDTO struct {
	Type    string `json:"type"`
	Query   string `json:"query"`
	Options struct {
		FuzzyMatching  bool `json:"fuzzyMatching"`
		AutoComplete   bool `json:"autoComplete"`
		PhraseMatching bool `json:"phraseMatching"`
	} `json:"options"`
}

type productDTO struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Price       float64 `json:"price"`
	Image       string  `json:"image,omitempty"`
}

// resultDTO is a product hit. Score is a pointer so unscored basic hits
// serialize without the key at all.
type resultDTO struct {
	productDTO
	Score *float64 `json:"score,omitempty"`
}

type searchResponseDTO struct {
	Results          []resultDTO `json:"results"`
	SearchTime       string      `json:"searchTime"`
	ImageDescription string      `json:"imageDescription,omitempty"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func productToDTO(p *domain.Product) productDTO {
	return productDTO{
		ID:          p.ID,
		Title:       p.Title,
		Description: p.Description,
		Category:    p.Category,
		Price:       p.Price,
		Image:       p.Image,
	}
}

func productsToDTO(products []domain.Product) []productDTO {
	out := make([]productDTO, len(products))
	for i := range products {
		out[i] = productToDTO(&products[i])
	}
	return out
}

func searchResponseToDTO(resp *search.Response) searchResponseDTO {
	results := make([]resultDTO, len(resp.Hits))
	for i := range resp.Hits {
		p := resp.Hits[i].Product()
		results[i] = resultDTO{productDTO: productToDTO(&p)}
		if score, ok := resp.Hits[i].Score(); ok {
			s := score
			results[i].Score = &s
		}
	}

	return searchResponseDTO{
		Results:          results,
		SearchTime:       resp.SearchTime,
		ImageDescription: resp.ImageDescription,
	}
}
