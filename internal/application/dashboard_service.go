package application

import (
	"context"
	"fmt"
	"sort"

	"github.com/supportops/operations-service/internal/domain"
	"github.com/supportops/operations-service/pkg/logging"
	"github.com/supportops/operations-service/pkg/metrics"
)

// DashboardService aggregates open-order counts across marketplace accounts.
type DashboardService struct {
	gateway domain.InventoryGateway
	metrics *metrics.Metrics
	logger  *logging.Logger
}

// NewDashboardService creates a dashboard service.
func NewDashboardService(gateway domain.InventoryGateway, m *metrics.Metrics, logger *logging.Logger) *DashboardService {
	return &DashboardService{
		gateway: gateway,
		metrics: m,
		logger:  logger.WithComponent("dashboard"),
	}
}

// OpenOrdersSummary counts open orders per marketplace account. Accounts are
// queried one at a time; an account whose count cannot be fetched contributes
// zero instead of failing the whole summary. Accounts with zero open orders
// are omitted from the breakdown, largest counts first.
func (s *DashboardService) OpenOrdersSummary(ctx context.Context) (*OpenOrdersSummaryDTO, error) {
	accounts, err := s.gateway.ListMarketplaceAccounts(ctx)
	if err != nil {
		s.recordOpenOrderRequest(false)
		return nil, fmt.Errorf("failed to list marketplace accounts: %w", err)
	}

	total := 0
	byAccount := make([]domain.OpenOrderCount, 0, len(accounts))
	for _, account := range accounts {
		count, err := s.gateway.CountOpenOrders(ctx, account.AuthenticationID)
		if err != nil {
			s.logger.WithContext(ctx).WithError(err).Warn("open order count failed",
				"account", account.Name, "authenticationId", account.AuthenticationID)
			count = 0
		}
		total += count
		if count > 0 {
			byAccount = append(byAccount, domain.OpenOrderCount{
				AccountName: account.Name,
				Count:       count,
			})
		}
	}

	sort.SliceStable(byAccount, func(i, j int) bool {
		return byAccount[i].Count > byAccount[j].Count
	})

	s.recordOpenOrderRequest(true)
	return &OpenOrdersSummaryDTO{Total: total, ByAccount: byAccount}, nil
}

func (s *DashboardService) recordOpenOrderRequest(success bool) {
	if s.metrics != nil {
		s.metrics.RecordOpenOrderRequest(success)
	}
}
