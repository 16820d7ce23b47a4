package domain

import "strconv"

// ProductSnapshot is a read-only view of a catalog product. The basket
// never owns or mutates it, only joins it onto items for display and
// price computation.
type ProductSnapshot struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Price    string `json:"price"`
	ImageURL string `json:"image_url,omitempty"`
	Category string `json:"category,omitempty"`
}

// PriceValue parses the listing price. Sellers type prices as free text,
// so a missing or non-numeric price counts as zero rather than an error.
func (p *ProductSnapshot) PriceValue() float64 {
	if p == nil {
		return 0
	}
	v, err := strconv.ParseFloat(p.Price, 64)
	if err != nil || v < 0 {
		return 0
	}
	return v
}
