package domain

import (
	"context"
	"errors"
)

// Errors returned by inventory gateway implementations
var (
	ErrOrderNotFound   = errors.New("order not found")
	ErrProductNotFound = errors.New("product not found")
	ErrUnauthorized    = errors.New("gateway authentication failed")
)

// InventoryGateway is the outbound port to the external inventory system.
type InventoryGateway interface {
	// FindOrder looks up an order by its code. It tries a direct lookup
	// first and falls back to a code search when the direct lookup misses.
	FindOrder(ctx context.Context, code string) (*Order, error)

	// SearchSKUs fetches products for the given SKU codes in a single query.
	SearchSKUs(ctx context.Context, skus []string) ([]Product, error)

	// UpdateStock pushes a new absolute stock quantity for a SKU.
	UpdateStock(ctx context.Context, sku string, quantity int) error

	// ListMarketplaceAccounts returns the marketplace integrations
	// configured on the gateway.
	ListMarketplaceAccounts(ctx context.Context) ([]MarketplaceAccount, error)

	// CountOpenOrders returns the number of open orders for a marketplace
	// account identified by its authentication ID.
	CountOpenOrders(ctx context.Context, authenticationID string) (int, error)
}
