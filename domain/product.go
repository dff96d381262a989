package domain

// Product is the owner-scoped catalogue entry read by the pin_product action.
type Product struct {
	ID        int64    `json:"id"`
	OwnerID   int64    `json:"user_id"`
	Title     string   `json:"title"`
	Price     int64    `json:"price"`
	URL       string   `json:"url"`
	Image     *string  `json:"image"`
	Tags      []string `json:"tags"`
	StockInfo *string  `json:"stock_info"`
}

// ProductSnapshot is the projection broadcast with a pin_product event.
type ProductSnapshot struct {
	ID        int64    `json:"id"`
	Title     string   `json:"title"`
	Price     int64    `json:"price"`
	URL       string   `json:"url"`
	Image     *string  `json:"image"`
	Tags      []string `json:"tags"`
	StockInfo *string  `json:"stock_info"`
}

func (p *Product) Snapshot() ProductSnapshot {
	if p == nil {
		return ProductSnapshot{}
	}
	tags := p.Tags
	if tags == nil {
		tags = []string{}
	}
	return ProductSnapshot{
		ID:        p.ID,
		Title:     p.Title,
		Price:     p.Price,
		URL:       p.URL,
		Image:     p.Image,
		Tags:      tags,
		StockInfo: p.StockInfo,
	}
}
