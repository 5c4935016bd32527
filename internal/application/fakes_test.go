package application

import (
	"context"
	"io"
	"sync"

	"github.com/supportops/operations-service/internal/domain"
	"github.com/supportops/operations-service/pkg/logging"
	"github.com/supportops/operations-service/pkg/metrics"
)

func testLogger() *logging.Logger {
	return logging.New(&logging.Config{
		Level:       logging.LevelError,
		ServiceName: "operations-service-test",
		Output:      io.Discard,
	})
}

func testMetrics() *metrics.Metrics {
	return metrics.New(metrics.DefaultConfig("application-test"))
}

type fakeGateway struct {
	findOrderFn    func(ctx context.Context, code string) (*domain.Order, error)
	searchSKUsFn   func(ctx context.Context, skus []string) ([]domain.Product, error)
	updateStockFn  func(ctx context.Context, sku string, quantity int) error
	listAccountsFn func(ctx context.Context) ([]domain.MarketplaceAccount, error)
	countOpenFn    func(ctx context.Context, authenticationID string) (int, error)
}

func (f *fakeGateway) FindOrder(ctx context.Context, code string) (*domain.Order, error) {
	return f.findOrderFn(ctx, code)
}

func (f *fakeGateway) SearchSKUs(ctx context.Context, skus []string) ([]domain.Product, error) {
	return f.searchSKUsFn(ctx, skus)
}

func (f *fakeGateway) UpdateStock(ctx context.Context, sku string, quantity int) error {
	return f.updateStockFn(ctx, sku, quantity)
}

func (f *fakeGateway) ListMarketplaceAccounts(ctx context.Context) ([]domain.MarketplaceAccount, error) {
	return f.listAccountsFn(ctx)
}

func (f *fakeGateway) CountOpenOrders(ctx context.Context, authenticationID string) (int, error) {
	return f.countOpenFn(ctx, authenticationID)
}

// fakeWorksheetRepo is an in-memory WorksheetRepository. Individual
// operations can be overridden to inject failures.
type fakeWorksheetRepo struct {
	mu       sync.Mutex
	saved    map[string]*domain.Worksheet
	saveFn   func(ctx context.Context, worksheet *domain.Worksheet) error
	deleteFn func(ctx context.Context, id string) error
}

func newFakeWorksheetRepo() *fakeWorksheetRepo {
	return &fakeWorksheetRepo{saved: make(map[string]*domain.Worksheet)}
}

func (f *fakeWorksheetRepo) Save(ctx context.Context, worksheet *domain.Worksheet) error {
	if f.saveFn != nil {
		return f.saveFn(ctx, worksheet)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *worksheet
	f.saved[worksheet.ID] = &copied
	return nil
}

func (f *fakeWorksheetRepo) FindByID(ctx context.Context, id string) (*domain.Worksheet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	worksheet, ok := f.saved[id]
	if !ok {
		return nil, domain.ErrWorksheetNotFound
	}
	copied := *worksheet
	return &copied, nil
}

func (f *fakeWorksheetRepo) FindAll(ctx context.Context) ([]*domain.Worksheet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	worksheets := make([]*domain.Worksheet, 0, len(f.saved))
	for _, worksheet := range f.saved {
		copied := *worksheet
		worksheets = append(worksheets, &copied)
	}
	return worksheets, nil
}

func (f *fakeWorksheetRepo) Delete(ctx context.Context, id string) error {
	if f.deleteFn != nil {
		return f.deleteFn(ctx, id)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.saved, id)
	return nil
}

// fakeNotifier records every notification for assertion.
type fakeNotifier struct {
	mu     sync.Mutex
	events []notification
}

type notification struct {
	eventType string
	subject   string
	message   string
	isError   bool
}

func (f *fakeNotifier) NotifySuccess(ctx context.Context, eventType, subject, message string) {
	f.record(notification{eventType: eventType, subject: subject, message: message})
}

func (f *fakeNotifier) NotifyError(ctx context.Context, eventType, subject, message string) {
	f.record(notification{eventType: eventType, subject: subject, message: message, isError: true})
}

func (f *fakeNotifier) record(n notification) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, n)
}

func (f *fakeNotifier) all() []notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]notification(nil), f.events...)
}
