package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/supportops/operations-service/internal/domain"
	"github.com/supportops/operations-service/pkg/logging"
	"github.com/supportops/operations-service/pkg/metrics"
)

// ErrScanThrottled is returned when a scan arrives while a previous scan is
// still being classified or inside its cooldown window. Manual submissions
// are never throttled.
var ErrScanThrottled = errors.New("scan ignored: previous scan still settling")

// scanCooldown is how long after a scan classification settles before the
// next scanned code is accepted.
const scanCooldown = 1500 * time.Millisecond

// sessionState pairs a session with its scan re-entrancy guard.
type sessionState struct {
	session       *domain.Session
	scanInFlight  bool
	cooldownUntil time.Time
}

// VerificationService drives the scan/verification workflow. Sessions are
// in-memory working state: a restart starts from an empty log, which
// matches how the operators use it (one session per packing shift).
type VerificationService struct {
	gateway  domain.InventoryGateway
	notifier Notifier
	metrics  *metrics.Metrics
	logger   *logging.Logger
	now      func() time.Time

	mu       sync.Mutex
	sessions map[string]*sessionState
}

// NewVerificationService creates a verification service.
func NewVerificationService(
	gateway domain.InventoryGateway,
	notifier Notifier,
	m *metrics.Metrics,
	logger *logging.Logger,
) *VerificationService {
	return &VerificationService{
		gateway:  gateway,
		notifier: notifier,
		metrics:  m,
		logger:   logger.WithComponent("verification"),
		now:      func() time.Time { return time.Now().UTC() },
		sessions: make(map[string]*sessionState),
	}
}

// CreateSession opens a verification session in the given mode.
func (s *VerificationService) CreateSession(ctx context.Context, cmd CreateSessionCommand) (*SessionDTO, error) {
	session, err := domain.NewSession(domain.VerificationMode(cmd.Mode))
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.sessions[session.ID] = &sessionState{session: session}
	s.mu.Unlock()

	s.logger.WithContext(ctx).Info("verification session opened",
		"sessionId", session.ID, "mode", cmd.Mode)
	return ToSessionDTO(session), nil
}

// GetSession returns a session with its full scan log.
func (s *VerificationService) GetSession(ctx context.Context, sessionID string) (*SessionDTO, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.sessions[sessionID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return ToSessionDTO(state.session), nil
}

// ListSessions returns every open session, most recently updated first.
func (s *VerificationService) ListSessions(ctx context.Context) []*SessionDTO {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessions := make([]*SessionDTO, 0, len(s.sessions))
	for _, state := range s.sessions {
		sessions = append(sessions, ToSessionDTO(state.session))
	}
	return sessions
}

// Submit classifies one code and appends the result to the session log.
// Duplicates are decided first, before any mode branch or remote call. The
// scan source passes a re-entrancy guard; manual submissions never wait.
func (s *VerificationService) Submit(ctx context.Context, sessionID string, cmd SubmitCodeCommand) (*domain.ScanRecord, error) {
	code := strings.TrimSpace(cmd.Code)
	if code == "" {
		return nil, domain.ErrEmptyCode
	}

	s.mu.Lock()
	state, ok := s.sessions[sessionID]
	if !ok {
		s.mu.Unlock()
		return nil, domain.ErrSessionNotFound
	}

	if cmd.Source == SourceScan {
		if state.scanInFlight || s.now().Before(state.cooldownUntil) {
			s.mu.Unlock()
			return nil, ErrScanThrottled
		}
		state.scanInFlight = true
		defer func() {
			s.mu.Lock()
			state.scanInFlight = false
			state.cooldownUntil = s.now().Add(scanCooldown)
			s.mu.Unlock()
		}()
	}

	// Duplicate check wins over everything, including in remote mode.
	if state.session.HasCode(code) {
		record := state.session.Append(domain.ScanRecord{
			Code:    code,
			Status:  domain.StatusDuplicate,
			Outcome: domain.OutcomeError,
		})
		s.mu.Unlock()
		s.recordCodeVerified("duplicate")
		s.notifier.NotifyError(ctx, "verification.code.duplicate", sessionID,
			fmt.Sprintf("Código %s já foi verificado", code))
		return &record, nil
	}

	if state.session.Mode == domain.ModeLocal {
		record := state.session.Append(domain.ScanRecord{
			Code:    code,
			Status:  domain.StatusChecked,
			Outcome: domain.OutcomeSuccess,
		})
		s.mu.Unlock()
		s.recordCodeVerified("success")
		s.notifier.NotifySuccess(ctx, "verification.code.checked", sessionID,
			fmt.Sprintf("Código %s conferido", code))
		return &record, nil
	}
	s.mu.Unlock()

	// Remote mode: the lookup happens outside the lock so a slow gateway
	// never blocks other sessions.
	record := s.classifyRemote(ctx, code)

	s.mu.Lock()
	// A concurrent submission may have logged the same code while the
	// lookup ran.
	if state.session.HasCode(code) {
		stored := state.session.Append(domain.ScanRecord{
			Code:    code,
			Status:  domain.StatusDuplicate,
			Outcome: domain.OutcomeError,
		})
		s.mu.Unlock()
		s.recordCodeVerified("duplicate")
		s.notifier.NotifyError(ctx, "verification.code.duplicate", sessionID,
			fmt.Sprintf("Código %s já foi verificado", code))
		return &stored, nil
	}
	stored := state.session.Append(record)
	s.mu.Unlock()

	s.recordCodeVerified(string(record.Outcome))
	if record.Outcome == domain.OutcomeError {
		s.notifier.NotifyError(ctx, "verification.code.checked", sessionID,
			fmt.Sprintf("Pedido %s: %s", code, record.Status))
	} else {
		s.notifier.NotifySuccess(ctx, "verification.code.checked", sessionID,
			fmt.Sprintf("Pedido %s verificado", code))
	}
	return &stored, nil
}

// classifyRemote looks the code up on the gateway and maps the outcome. A
// lookup failure classifies as an error record, never as a thrown error.
func (s *VerificationService) classifyRemote(ctx context.Context, code string) domain.ScanRecord {
	order, err := s.gateway.FindOrder(ctx, code)
	if err != nil {
		s.logger.WithContext(ctx).WithError(err).Warn("remote order lookup failed", "code", code)
		return domain.ScanRecord{
			Code:    code,
			Status:  domain.StatusNotFound,
			Outcome: domain.OutcomeError,
		}
	}

	status := order.Status
	if status == "" {
		status = "Encontrado"
	}

	return domain.ScanRecord{
		Code:     code,
		Status:   status,
		Outcome:  domain.ClassifyOrderStatus(status),
		Customer: order.Customer,
		ImageURL: order.ItemImage,
	}
}

// RemoveRecord drops one entry from the scan log by its position.
func (s *VerificationService) RemoveRecord(ctx context.Context, sessionID string, index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.sessions[sessionID]
	if !ok {
		return domain.ErrSessionNotFound
	}
	return state.session.RemoveAt(index)
}

// ClearSession wipes the session's scan log. The session itself stays open
// and clearing twice is a no-op.
func (s *VerificationService) ClearSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.sessions[sessionID]
	if !ok {
		return domain.ErrSessionNotFound
	}

	outcome := "success"
	for i := range state.session.Records {
		if state.session.Records[i].Outcome == domain.OutcomeError {
			outcome = "error"
			break
		}
	}
	if len(state.session.Records) > 0 && s.metrics != nil {
		s.metrics.RecordSessionClosed(outcome)
	}

	state.session.Clear()
	return nil
}

// Report returns the printable projection of the session's scan log.
func (s *VerificationService) Report(ctx context.Context, sessionID string) (*SessionReportDTO, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.sessions[sessionID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}

	lines := state.session.Report()
	return &SessionReportDTO{
		SessionID: state.session.ID,
		Mode:      string(state.session.Mode),
		Total:     len(lines),
		Lines:     lines,
	}, nil
}

func (s *VerificationService) recordCodeVerified(outcome string) {
	if s.metrics != nil {
		s.metrics.RecordCodeVerified(outcome)
	}
}
