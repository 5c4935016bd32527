package application

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/supportops/operations-service/internal/domain"
)

func TestOpenOrdersSummary(t *testing.T) {
	gateway := &fakeGateway{
		listAccountsFn: func(_ context.Context) ([]domain.MarketplaceAccount, error) {
			return []domain.MarketplaceAccount{
				{ID: "1", Name: "Mercado Livre", AuthenticationID: "1"},
				{ID: "2", Name: "Shopee", AuthenticationID: "2"},
				{ID: "3", Name: "Amazon", AuthenticationID: "3"},
			}, nil
		},
		countOpenFn: func(_ context.Context, authenticationID string) (int, error) {
			switch authenticationID {
			case "1":
				return 3, nil
			case "2":
				return 12, nil
			default:
				return 0, nil
			}
		},
	}
	service := NewDashboardService(gateway, testMetrics(), testLogger())

	summary, err := service.OpenOrdersSummary(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 15, summary.Total)
	// Zero-count accounts are omitted, largest counts first.
	require.Len(t, summary.ByAccount, 2)
	assert.Equal(t, "Shopee", summary.ByAccount[0].AccountName)
	assert.Equal(t, 12, summary.ByAccount[0].Count)
	assert.Equal(t, "Mercado Livre", summary.ByAccount[1].AccountName)
	assert.Equal(t, 3, summary.ByAccount[1].Count)
}

func TestOpenOrdersSummaryAccountFailureCountsZero(t *testing.T) {
	gateway := &fakeGateway{
		listAccountsFn: func(_ context.Context) ([]domain.MarketplaceAccount, error) {
			return []domain.MarketplaceAccount{
				{ID: "1", Name: "Mercado Livre", AuthenticationID: "1"},
				{ID: "2", Name: "Shopee", AuthenticationID: "2"},
			}, nil
		},
		countOpenFn: func(_ context.Context, authenticationID string) (int, error) {
			if authenticationID == "1" {
				return 0, errors.New("gateway down")
			}
			return 4, nil
		},
	}
	service := NewDashboardService(gateway, testMetrics(), testLogger())

	summary, err := service.OpenOrdersSummary(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 4, summary.Total)
	require.Len(t, summary.ByAccount, 1)
	assert.Equal(t, "Shopee", summary.ByAccount[0].AccountName)
}

func TestOpenOrdersSummaryListFailure(t *testing.T) {
	gateway := &fakeGateway{
		listAccountsFn: func(_ context.Context) ([]domain.MarketplaceAccount, error) {
			return nil, errors.New("gateway down")
		},
	}
	service := NewDashboardService(gateway, testMetrics(), testLogger())

	_, err := service.OpenOrdersSummary(context.Background())
	assert.Error(t, err)
}
