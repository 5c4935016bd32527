package application

import (
	"context"
	"fmt"
	"sync"

	"github.com/supportops/operations-service/internal/domain"
	"github.com/supportops/operations-service/pkg/logging"
	"github.com/supportops/operations-service/pkg/metrics"
)

// Notifier surfaces operation outcomes to the user-facing notification
// sink. Calls are fire-and-forget; implementations must never block the
// operation they report on.
type Notifier interface {
	NotifySuccess(ctx context.Context, eventType, subject, message string)
	NotifyError(ctx context.Context, eventType, subject, message string)
}

// ReconciliationService drives the stock reconciliation workflow: search a
// SKU list, collect pending edits, and push them to the gateway as a
// strictly sequential bulk update. Worksheets live in memory and are
// snapshotted to the repository so a restarted service can restore them.
type ReconciliationService struct {
	gateway  domain.InventoryGateway
	repo     domain.WorksheetRepository
	notifier Notifier
	metrics  *metrics.Metrics
	logger   *logging.Logger

	mu         sync.Mutex
	worksheets map[string]*domain.Worksheet
}

// NewReconciliationService creates a reconciliation service.
func NewReconciliationService(
	gateway domain.InventoryGateway,
	repo domain.WorksheetRepository,
	notifier Notifier,
	m *metrics.Metrics,
	logger *logging.Logger,
) *ReconciliationService {
	return &ReconciliationService{
		gateway:    gateway,
		repo:       repo,
		notifier:   notifier,
		metrics:    m,
		logger:     logger.WithComponent("reconciliation"),
		worksheets: make(map[string]*domain.Worksheet),
	}
}

// Search parses the raw query, fetches the matching products and replaces
// the worksheet's result set. The worksheet is created on first use and
// the snapshot is rewritten on success.
func (s *ReconciliationService) Search(ctx context.Context, worksheetID string, cmd SearchCommand) (*WorksheetDTO, error) {
	skus := domain.ParseSearchQuery(cmd.Query)
	if len(skus) == 0 {
		return nil, domain.ErrEmptyQuery
	}

	worksheet, err := s.getOrCreate(ctx, worksheetID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := worksheet.BeginSearch(cmd.Query); err != nil {
		return nil, err
	}

	products, err := s.gateway.SearchSKUs(ctx, skus)
	if err != nil {
		worksheet.FailSearch()
		s.recordSkuSearch(false)
		s.notifier.NotifyError(ctx, "stock.search.failed", worksheet.ID, fmt.Sprintf("Busca de %d SKUs falhou", len(skus)))
		return nil, fmt.Errorf("sku search failed: %w", err)
	}

	if err := worksheet.SetResults(products); err != nil {
		return nil, err
	}
	s.recordSkuSearch(true)

	if err := s.repo.Save(ctx, worksheet); err != nil {
		s.logger.WithError(err).WithFields(map[string]interface{}{"worksheetId": worksheet.ID}).
			Warn("failed to persist worksheet snapshot")
	}

	return ToWorksheetDTO(worksheet), nil
}

// Get returns the worksheet, restoring it from its snapshot when it is not
// in memory.
func (s *ReconciliationService) Get(ctx context.Context, worksheetID string) (*WorksheetDTO, error) {
	worksheet, err := s.get(ctx, worksheetID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return ToWorksheetDTO(worksheet), nil
}

// SetPendingEdit records a raw edit value against a displayed SKU. An
// empty value removes the edit. No network call and no snapshot write
// happen here.
func (s *ReconciliationService) SetPendingEdit(ctx context.Context, worksheetID, sku string, cmd PendingEditCommand) (*WorksheetDTO, error) {
	worksheet, err := s.get(ctx, worksheetID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := worksheet.SetPendingEdit(sku, cmd.Value); err != nil {
		return nil, err
	}
	return ToWorksheetDTO(worksheet), nil
}

// BulkUpdate pushes every eligible pending edit to the gateway, one call
// per SKU in display order. A failed SKU keeps its pending edit and its
// old stock; the loop always continues. The snapshot is rewritten once
// after the batch.
func (s *ReconciliationService) BulkUpdate(ctx context.Context, worksheetID string) (*BulkUpdateReportDTO, error) {
	worksheet, err := s.get(ctx, worksheetID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	edits := worksheet.EligibleEdits()
	if len(edits) == 0 {
		return nil, domain.ErrNoEligibleEdits
	}

	if err := worksheet.BeginUpdate(); err != nil {
		return nil, err
	}

	report := &BulkUpdateReportDTO{Attempted: len(edits)}
	for _, edit := range edits {
		if err := s.gateway.UpdateStock(ctx, edit.SKU, edit.Quantity); err != nil {
			report.Failed++
			report.FailedSKUs = append(report.FailedSKUs, edit.SKU)
			s.recordStockUpdate(false)
			s.logger.WithError(err).WithFields(map[string]interface{}{
				"worksheetId": worksheet.ID,
				"sku":         edit.SKU,
			}).Warn("stock update failed")
			continue
		}
		worksheet.ApplyStock(edit.SKU, edit.Quantity)
		report.Succeeded++
		s.recordStockUpdate(true)
	}
	worksheet.FinishUpdate()

	if err := s.repo.Save(ctx, worksheet); err != nil {
		s.logger.WithError(err).WithFields(map[string]interface{}{"worksheetId": worksheet.ID}).
			Warn("failed to persist worksheet snapshot")
	}

	if report.Failed > 0 {
		s.notifier.NotifyError(ctx, "stock.update.completed", worksheet.ID,
			fmt.Sprintf("%d atualizados, %d falharam", report.Succeeded, report.Failed))
	} else {
		s.notifier.NotifySuccess(ctx, "stock.update.completed", worksheet.ID,
			fmt.Sprintf("%d SKUs atualizados", report.Succeeded))
	}

	return report, nil
}

// Clear resets the worksheet and erases its snapshot. Clearing an unknown
// or already empty worksheet succeeds.
func (s *ReconciliationService) Clear(ctx context.Context, worksheetID string) error {
	s.mu.Lock()
	if worksheet, ok := s.worksheets[worksheetID]; ok {
		if worksheet.State == domain.WorksheetStateUpdating {
			s.mu.Unlock()
			return domain.ErrWorksheetBusy
		}
		worksheet.Clear()
	}
	s.mu.Unlock()

	return s.repo.Delete(ctx, worksheetID)
}

// get returns the worksheet from memory or its snapshot.
func (s *ReconciliationService) get(ctx context.Context, worksheetID string) (*domain.Worksheet, error) {
	s.mu.Lock()
	worksheet, ok := s.worksheets[worksheetID]
	s.mu.Unlock()
	if ok {
		return worksheet, nil
	}

	restored, err := s.repo.FindByID(ctx, worksheetID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.worksheets[worksheetID] = restored
	return restored, nil
}

// getOrCreate is get, except a missing worksheet is created under the
// requested ID.
func (s *ReconciliationService) getOrCreate(ctx context.Context, worksheetID string) (*domain.Worksheet, error) {
	worksheet, err := s.get(ctx, worksheetID)
	if err == nil {
		return worksheet, nil
	}
	if err != domain.ErrWorksheetNotFound {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	worksheet = domain.NewWorksheet()
	worksheet.ID = worksheetID
	s.worksheets[worksheetID] = worksheet
	return worksheet, nil
}

func (s *ReconciliationService) recordSkuSearch(success bool) {
	if s.metrics != nil {
		s.metrics.RecordSkuSearch(success)
	}
}

func (s *ReconciliationService) recordStockUpdate(success bool) {
	if s.metrics != nil {
		s.metrics.RecordStockUpdate(success)
	}
}
