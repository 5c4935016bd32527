package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/supportops/operations-service/internal/domain"
)

func newVerificationService(gateway *fakeGateway, notifier *fakeNotifier) *VerificationService {
	return NewVerificationService(gateway, notifier, testMetrics(), testLogger())
}

func createSession(t *testing.T, service *VerificationService, mode string) string {
	t.Helper()
	dto, err := service.CreateSession(context.Background(), CreateSessionCommand{Mode: mode})
	require.NoError(t, err)
	return dto.ID
}

func TestCreateSessionInvalidMode(t *testing.T) {
	service := newVerificationService(&fakeGateway{}, &fakeNotifier{})

	_, err := service.CreateSession(context.Background(), CreateSessionCommand{Mode: "hybrid"})
	assert.ErrorIs(t, err, domain.ErrInvalidMode)
}

func TestSubmitLocalMode(t *testing.T) {
	notifier := &fakeNotifier{}
	service := newVerificationService(&fakeGateway{}, notifier)
	sessionID := createSession(t, service, "local")

	record, err := service.Submit(context.Background(), sessionID, SubmitCodeCommand{Code: " PED-1 "})
	require.NoError(t, err)

	assert.Equal(t, "PED-1", record.Code)
	assert.Equal(t, domain.StatusChecked, record.Status)
	assert.Equal(t, domain.OutcomeSuccess, record.Outcome)

	events := notifier.all()
	require.Len(t, events, 1)
	assert.False(t, events[0].isError)
}

func TestSubmitEmptyCode(t *testing.T) {
	service := newVerificationService(&fakeGateway{}, &fakeNotifier{})
	sessionID := createSession(t, service, "local")

	_, err := service.Submit(context.Background(), sessionID, SubmitCodeCommand{Code: "   "})
	assert.ErrorIs(t, err, domain.ErrEmptyCode)
}

func TestSubmitUnknownSession(t *testing.T) {
	service := newVerificationService(&fakeGateway{}, &fakeNotifier{})

	_, err := service.Submit(context.Background(), "nope", SubmitCodeCommand{Code: "PED-1"})
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestSubmitConcurrentRemoteLookupLogsDuplicate(t *testing.T) {
	// The service lock is released while the gateway lookup runs. A second
	// submission of the same code that lands during that window must leave
	// the slower submission classified as a duplicate, not a second success.
	var service *VerificationService
	var sessionID string
	raced := false
	gateway := &fakeGateway{
		findOrderFn: func(_ context.Context, code string) (*domain.Order, error) {
			if !raced {
				raced = true
				_, err := service.Submit(context.Background(), sessionID, SubmitCodeCommand{Code: code})
				require.NoError(t, err)
			}
			return &domain.Order{Code: code, Status: "Pago"}, nil
		},
	}
	notifier := &fakeNotifier{}
	service = newVerificationService(gateway, notifier)
	sessionID = createSession(t, service, "remote")

	record, err := service.Submit(context.Background(), sessionID, SubmitCodeCommand{Code: "PED-1"})
	require.NoError(t, err)

	assert.Equal(t, domain.StatusDuplicate, record.Status)
	assert.Equal(t, domain.OutcomeError, record.Outcome)

	session, err := service.GetSession(context.Background(), sessionID)
	require.NoError(t, err)
	require.Len(t, session.Records, 2)
}

func TestSubmitDuplicateWinsOverRemoteLookup(t *testing.T) {
	lookups := 0
	gateway := &fakeGateway{
		findOrderFn: func(_ context.Context, code string) (*domain.Order, error) {
			lookups++
			return &domain.Order{Code: code, Status: "Pago"}, nil
		},
	}
	service := newVerificationService(gateway, &fakeNotifier{})
	sessionID := createSession(t, service, "remote")

	first, err := service.Submit(context.Background(), sessionID, SubmitCodeCommand{Code: "PED-1"})
	require.NoError(t, err)
	assert.Equal(t, "Pago", first.Status)

	second, err := service.Submit(context.Background(), sessionID, SubmitCodeCommand{Code: "PED-1"})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDuplicate, second.Status)
	assert.Equal(t, domain.OutcomeError, second.Outcome)

	// The duplicate is decided before any remote call.
	assert.Equal(t, 1, lookups)
}

func TestSubmitRemoteClassification(t *testing.T) {
	tests := []struct {
		name        string
		order       *domain.Order
		err         error
		wantStatus  string
		wantOutcome domain.ScanOutcome
	}{
		{
			name:        "paid order",
			order:       &domain.Order{Status: "Pago", Customer: "Maria Silva", ItemImage: "item.jpg"},
			wantStatus:  "Pago",
			wantOutcome: domain.OutcomeSuccess,
		},
		{
			name:        "cancelled order",
			order:       &domain.Order{Status: "Pedido cancelado"},
			wantStatus:  "Pedido cancelado",
			wantOutcome: domain.OutcomeError,
		},
		{
			name:        "blank status defaults to found",
			order:       &domain.Order{Status: ""},
			wantStatus:  "Encontrado",
			wantOutcome: domain.OutcomeSuccess,
		},
		{
			name:        "lookup failure",
			err:         domain.ErrOrderNotFound,
			wantStatus:  domain.StatusNotFound,
			wantOutcome: domain.OutcomeError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gateway := &fakeGateway{
				findOrderFn: func(_ context.Context, _ string) (*domain.Order, error) {
					return tt.order, tt.err
				},
			}
			service := newVerificationService(gateway, &fakeNotifier{})
			sessionID := createSession(t, service, "remote")

			record, err := service.Submit(context.Background(), sessionID, SubmitCodeCommand{Code: "PED-1"})
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, record.Status)
			assert.Equal(t, tt.wantOutcome, record.Outcome)
			if tt.order != nil {
				assert.Equal(t, tt.order.Customer, record.Customer)
				assert.Equal(t, tt.order.ItemImage, record.ImageURL)
			}
		})
	}
}

func TestSubmitRemoteLookupFailureIsRecordedNotReturned(t *testing.T) {
	gateway := &fakeGateway{
		findOrderFn: func(_ context.Context, _ string) (*domain.Order, error) {
			return nil, errors.New("gateway down")
		},
	}
	service := newVerificationService(gateway, &fakeNotifier{})
	sessionID := createSession(t, service, "remote")

	record, err := service.Submit(context.Background(), sessionID, SubmitCodeCommand{Code: "PED-1"})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusNotFound, record.Status)
	assert.Equal(t, domain.OutcomeError, record.Outcome)
}

func TestScanSourceThrottled(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	service := newVerificationService(&fakeGateway{}, &fakeNotifier{})
	service.now = func() time.Time { return now }
	sessionID := createSession(t, service, "local")

	_, err := service.Submit(context.Background(), sessionID, SubmitCodeCommand{Code: "PED-1", Source: SourceScan})
	require.NoError(t, err)

	// Inside the cooldown window the next scan is dropped.
	now = now.Add(500 * time.Millisecond)
	_, err = service.Submit(context.Background(), sessionID, SubmitCodeCommand{Code: "PED-2", Source: SourceScan})
	assert.ErrorIs(t, err, ErrScanThrottled)

	// Manual submissions ignore the cooldown entirely.
	_, err = service.Submit(context.Background(), sessionID, SubmitCodeCommand{Code: "PED-3", Source: SourceManual})
	require.NoError(t, err)

	// After the cooldown elapses the scanner works again.
	now = now.Add(scanCooldown)
	_, err = service.Submit(context.Background(), sessionID, SubmitCodeCommand{Code: "PED-4", Source: SourceScan})
	require.NoError(t, err)
}

func TestGetSessionNewestFirst(t *testing.T) {
	service := newVerificationService(&fakeGateway{}, &fakeNotifier{})
	sessionID := createSession(t, service, "local")

	_, err := service.Submit(context.Background(), sessionID, SubmitCodeCommand{Code: "PED-1"})
	require.NoError(t, err)
	_, err = service.Submit(context.Background(), sessionID, SubmitCodeCommand{Code: "PED-2"})
	require.NoError(t, err)

	dto, err := service.GetSession(context.Background(), sessionID)
	require.NoError(t, err)
	require.Len(t, dto.Records, 2)
	assert.Equal(t, "PED-2", dto.Records[0].Code)
	assert.Equal(t, "PED-1", dto.Records[1].Code)
	require.NotNil(t, dto.LastResult)
	assert.Equal(t, "PED-2", dto.LastResult.Code)
}

func TestRemoveRecord(t *testing.T) {
	service := newVerificationService(&fakeGateway{}, &fakeNotifier{})
	sessionID := createSession(t, service, "local")

	_, err := service.Submit(context.Background(), sessionID, SubmitCodeCommand{Code: "PED-1"})
	require.NoError(t, err)
	_, err = service.Submit(context.Background(), sessionID, SubmitCodeCommand{Code: "PED-2"})
	require.NoError(t, err)

	require.NoError(t, service.RemoveRecord(context.Background(), sessionID, 0))

	dto, err := service.GetSession(context.Background(), sessionID)
	require.NoError(t, err)
	require.Len(t, dto.Records, 1)
	assert.Equal(t, "PED-1", dto.Records[0].Code)

	assert.ErrorIs(t, service.RemoveRecord(context.Background(), sessionID, 5), domain.ErrRecordOutOfRange)
}

func TestClearSessionKeepsSessionOpen(t *testing.T) {
	service := newVerificationService(&fakeGateway{}, &fakeNotifier{})
	sessionID := createSession(t, service, "local")

	_, err := service.Submit(context.Background(), sessionID, SubmitCodeCommand{Code: "PED-1"})
	require.NoError(t, err)

	require.NoError(t, service.ClearSession(context.Background(), sessionID))
	require.NoError(t, service.ClearSession(context.Background(), sessionID))

	dto, err := service.GetSession(context.Background(), sessionID)
	require.NoError(t, err)
	assert.Empty(t, dto.Records)
	assert.Nil(t, dto.LastResult)

	// The cleared session still accepts new codes.
	_, err = service.Submit(context.Background(), sessionID, SubmitCodeCommand{Code: "PED-1"})
	require.NoError(t, err)
}

func TestReport(t *testing.T) {
	service := newVerificationService(&fakeGateway{}, &fakeNotifier{})
	sessionID := createSession(t, service, "local")

	_, err := service.Submit(context.Background(), sessionID, SubmitCodeCommand{Code: "PED-1"})
	require.NoError(t, err)
	_, err = service.Submit(context.Background(), sessionID, SubmitCodeCommand{Code: "PED-1"})
	require.NoError(t, err)

	report, err := service.Report(context.Background(), sessionID)
	require.NoError(t, err)
	assert.Equal(t, sessionID, report.SessionID)
	assert.Equal(t, "local", report.Mode)
	assert.Equal(t, 2, report.Total)
	require.Len(t, report.Lines, 2)
	assert.Equal(t, 1, report.Lines[0].Number)
	assert.Equal(t, domain.StatusDuplicate, report.Lines[0].Status)

	_, err = service.Report(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}
