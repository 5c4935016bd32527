package domain

import "time"

// Product represents a catalog item returned by the inventory gateway.
// StockAmount is the aggregate of all stock locations when the gateway
// reports per-location stocks.
type Product struct {
	ExternalID  string  `bson:"externalId,omitempty" json:"externalId,omitempty"`
	SKU         string  `bson:"sku" json:"sku"`
	Title       string  `bson:"title" json:"title"`
	StockAmount int     `bson:"stockAmount" json:"stockAmount"`
	ImageURL    string  `bson:"imageUrl,omitempty" json:"imageUrl,omitempty"`
	Price       float64 `bson:"price,omitempty" json:"price,omitempty"`
}

// Order represents an order looked up on the inventory gateway. Customer
// and ItemImage carry the buyer name and a representative item image when
// the gateway reports them.
type Order struct {
	ID          string    `json:"id"`
	Code        string    `json:"code"`
	Status      string    `json:"status"`
	StatusID    int       `json:"statusId,omitempty"`
	Marketplace string    `json:"marketplace,omitempty"`
	Customer    string    `json:"customer,omitempty"`
	ItemImage   string    `json:"itemImage,omitempty"`
	Total       float64   `json:"total,omitempty"`
	CreatedAt   time.Time `json:"createdAt,omitempty"`
}

// MarketplaceAccount is a marketplace integration configured on the gateway.
type MarketplaceAccount struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	AuthenticationID string `json:"authenticationId"`
}

// OpenOrderCount holds the number of open orders for a marketplace account.
type OpenOrderCount struct {
	AccountName string `json:"accountName"`
	Count       int    `json:"count"`
}
