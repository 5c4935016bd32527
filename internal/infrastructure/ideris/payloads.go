package ideris

import (
	"encoding/json"
	"fmt"

	"github.com/supportops/operations-service/internal/domain"
)

// Ideris API payload types. Numeric IDs are decoded as json.Number because
// the gateway is inconsistent about quoting them.

type orderPayload struct {
	ID                json.Number `json:"id"`
	Code              string      `json:"code"`
	OrderCode         string      `json:"orderCode"`
	StatusID          int         `json:"statusId"`
	Status            string      `json:"status"`
	StatusDescription string      `json:"statusDescription"`
	MarketplaceName   string      `json:"marketplaceName"`
	Total             float64     `json:"total"`
	Customer          *struct {
		Name string `json:"name"`
	} `json:"customer"`
	Items []struct {
		Image string `json:"image"`
	} `json:"items"`
}

func (p *orderPayload) toDomain() *domain.Order {
	code := p.Code
	if code == "" {
		code = p.OrderCode
	}
	status := p.StatusDescription
	if status == "" {
		status = p.Status
	}

	var customer string
	if p.Customer != nil {
		customer = p.Customer.Name
	}
	var itemImage string
	if len(p.Items) > 0 {
		itemImage = p.Items[0].Image
	}

	return &domain.Order{
		ID:          p.ID.String(),
		Code:        code,
		Status:      status,
		StatusID:    p.StatusID,
		Marketplace: p.MarketplaceName,
		Customer:    customer,
		ItemImage:   itemImage,
		Total:       p.Total,
	}
}

type skuStockPayload struct {
	CurrentStock int `json:"currentStock"`
}

type skuPayload struct {
	ID          json.Number       `json:"id"`
	SKU         string            `json:"sku"`
	Title       string            `json:"title"`
	Nome        string            `json:"nome"`
	Thumbnail   string            `json:"thumbnail"`
	Image       string            `json:"image"`
	Price       float64           `json:"price"`
	StockAmount int               `json:"stockAmount"`
	Stocks      []skuStockPayload `json:"stocks"`
}

func (p *skuPayload) toDomain() domain.Product {
	// A stocks array, even an empty one, overrides the direct field.
	stock := p.StockAmount
	if p.Stocks != nil {
		stock = 0
		for i := range p.Stocks {
			stock += p.Stocks[i].CurrentStock
		}
	}

	image := p.Thumbnail
	if image == "" {
		image = p.Image
	}

	// Some catalog entries carry the product name only in Portuguese.
	title := p.Title
	if title == "" {
		title = p.Nome
	}

	return domain.Product{
		ExternalID:  p.ID.String(),
		SKU:         p.SKU,
		Title:       title,
		StockAmount: stock,
		ImageURL:    image,
		Price:       p.Price,
	}
}

type marketplaceAccountPayload struct {
	ID        json.Number `json:"id"`
	Descricao string      `json:"descricao"`
}

func (p *marketplaceAccountPayload) toDomain() domain.MarketplaceAccount {
	name := p.Descricao
	if name == "" {
		name = fmt.Sprintf("Conta %s", p.ID.String())
	}
	return domain.MarketplaceAccount{
		ID:               p.ID.String(),
		Name:             name,
		AuthenticationID: p.ID.String(),
	}
}
