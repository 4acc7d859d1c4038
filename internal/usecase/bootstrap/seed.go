package bootstrap

import "github.com/nordveil/shopsearch/internal/domain"

// seedProducts returns the demo catalog. IDs are stable so reseeding a wiped
// store produces the same keys.
func seedProducts() []domain.Product {
	return []domain.Product{
		{
			ID:          "prod-001",
			Title:       "Red Shoes",
			Description: "Lightweight running shoes in bright red with a cushioned sole and breathable mesh upper.",
			Category:    "Footwear",
			Price:       59.99,
			Image:       "/images/red-shoes.jpg",
		},
		{
			ID:          "prod-002",
			Title:       "Trail Hiking Boots",
			Description: "Waterproof leather hiking boots with ankle support and a deep-lug rubber outsole.",
			Category:    "Footwear",
			Price:       129.50,
			Image:       "/images/trail-boots.jpg",
		},
		{
			ID:          "prod-003",
			Title:       "Canvas Sneakers",
			Description: "Classic low-top canvas sneakers in navy blue with a vulcanized white sole.",
			Category:    "Footwear",
			Price:       39.00,
			Image:       "/images/canvas-sneakers.jpg",
		},
		{
			ID:          "prod-004",
			Title:       "Wool Winter Coat",
			Description: "Heavy wool-blend coat in charcoal grey with a quilted lining and storm flap.",
			Category:    "Outerwear",
			Price:       189.00,
			Image:       "/images/wool-coat.jpg",
		},
		{
			ID:          "prod-005",
			Title:       "Packable Rain Jacket",
			Description: "Ultralight waterproof shell jacket that packs into its own pocket, ideal for travel.",
			Category:    "Outerwear",
			Price:       74.95,
			Image:       "/images/rain-jacket.jpg",
		},
		{
			ID:          "prod-006",
			Title:       "Cotton Crew T-Shirt",
			Description: "Soft organic cotton t-shirt with a relaxed fit, available in solid colors.",
			Category:    "Apparel",
			Price:       19.99,
			Image:       "/images/crew-tshirt.jpg",
		},
		{
			ID:          "prod-007",
			Title:       "Slim Denim Jeans",
			Description: "Stretch denim jeans with a slim tapered cut and classic five-pocket styling.",
			Category:    "Apparel",
			Price:       64.00,
			Image:       "/images/denim-jeans.jpg",
		},
		{
			ID:          "prod-008",
			Title:       "Leather Messenger Bag",
			Description: "Full-grain leather messenger bag with a padded laptop sleeve and brass hardware.",
			Category:    "Accessories",
			Price:       149.00,
			Image:       "/images/messenger-bag.jpg",
		},
		{
			ID:          "prod-009",
			Title:       "Polarized Sunglasses",
			Description: "Matte black sunglasses with polarized UV400 lenses and spring hinges.",
			Category:    "Accessories",
			Price:       45.50,
			Image:       "/images/sunglasses.jpg",
		},
		{
			ID:          "prod-010",
			Title:       "Merino Wool Beanie",
			Description: "Warm ribbed beanie knit from fine merino wool, one size fits most.",
			Category:    "Accessories",
			Price:       24.00,
			Image:       "/images/wool-beanie.jpg",
		},
	}
}
