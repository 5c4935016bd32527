package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Errors for the scan verification domain
var (
	ErrSessionNotFound  = errors.New("verification session not found")
	ErrInvalidMode      = errors.New("invalid verification mode")
	ErrEmptyCode        = errors.New("verification code is required")
	ErrRecordOutOfRange = errors.New("verification record index out of range")
)

// VerificationMode decides how a scanned code is checked
type VerificationMode string

const (
	// ModeLocal marks every non-duplicate code as checked without
	// consulting the gateway.
	ModeLocal VerificationMode = "local"
	// ModeRemote looks the code up on the inventory gateway and records
	// the order's status text.
	ModeRemote VerificationMode = "remote"
)

// IsValid checks if the verification mode is valid
func (m VerificationMode) IsValid() bool {
	return m == ModeLocal || m == ModeRemote
}

// Operator-facing status texts recorded on the scan log
const (
	StatusDuplicate = "DUPLICADO"
	StatusChecked   = "Conferido"
	StatusNotFound  = "Não encontrado / Erro"
)

// ScanOutcome is the closed outcome of a processed scan
type ScanOutcome string

const (
	OutcomeSuccess ScanOutcome = "success"
	OutcomeError   ScanOutcome = "error"
)

// ClassifyOrderStatus maps an order's status text to a scan outcome.
// Status texts containing "cancelado" or "erro" (case-insensitive)
// count as errors; everything else is a success.
func ClassifyOrderStatus(status string) ScanOutcome {
	lower := strings.ToLower(status)
	if strings.Contains(lower, "cancelado") || strings.Contains(lower, "erro") {
		return OutcomeError
	}
	return OutcomeSuccess
}

// ScanRecord is a single entry on a session's scan log. Customer and
// ImageURL are filled only when a remote lookup returned them.
type ScanRecord struct {
	Code     string      `json:"code"`
	Status   string      `json:"status"`
	Outcome  ScanOutcome `json:"outcome"`
	Customer string      `json:"customer,omitempty"`
	ImageURL string      `json:"imageUrl,omitempty"`
	At       time.Time   `json:"at"`
}

// Session is a scan verification working session. Its log is append-only
// and kept newest-first: the most recent scan is always Records[0].
type Session struct {
	ID        string           `json:"id"`
	Mode      VerificationMode `json:"mode"`
	Records   []ScanRecord     `json:"records"`
	CreatedAt time.Time        `json:"createdAt"`
	UpdatedAt time.Time        `json:"updatedAt"`
}

// NewSession creates a new verification session
func NewSession(mode VerificationMode) (*Session, error) {
	if !mode.IsValid() {
		return nil, ErrInvalidMode
	}
	now := time.Now().UTC()
	return &Session{
		ID:        fmt.Sprintf("VS-%s", uuid.New().String()[:8]),
		Mode:      mode,
		Records:   make([]ScanRecord, 0),
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// HasCode reports whether the code was already scanned in this session
func (s *Session) HasCode(code string) bool {
	for i := range s.Records {
		if s.Records[i].Code == code {
			return true
		}
	}
	return false
}

// Append adds a record at the head of the scan log, stamping it with the
// current time.
func (s *Session) Append(record ScanRecord) ScanRecord {
	now := time.Now().UTC()
	record.At = now
	s.Records = append([]ScanRecord{record}, s.Records...)
	s.UpdatedAt = now
	return record
}

// LastResult returns the most recent scan, or nil for an empty log.
func (s *Session) LastResult() *ScanRecord {
	if len(s.Records) == 0 {
		return nil
	}
	return &s.Records[0]
}

// RemoveAt drops the record at the given position in the log
func (s *Session) RemoveAt(index int) error {
	if index < 0 || index >= len(s.Records) {
		return ErrRecordOutOfRange
	}
	s.Records = append(s.Records[:index], s.Records[index+1:]...)
	s.UpdatedAt = time.Now().UTC()
	return nil
}

// Clear wipes the scan log. Clearing an empty session is a no-op.
func (s *Session) Clear() {
	s.Records = make([]ScanRecord, 0)
	s.UpdatedAt = time.Now().UTC()
}

// ReportLine is a numbered entry on a printable session report
type ReportLine struct {
	Number  int         `json:"number"`
	Code    string      `json:"code"`
	Status  string      `json:"status"`
	Outcome ScanOutcome `json:"outcome"`
	At      time.Time   `json:"at"`
}

// Report projects the scan log into numbered lines, newest first.
func (s *Session) Report() []ReportLine {
	lines := make([]ReportLine, 0, len(s.Records))
	for i := range s.Records {
		lines = append(lines, ReportLine{
			Number:  i + 1,
			Code:    s.Records[i].Code,
			Status:  s.Records[i].Status,
			Outcome: s.Records[i].Outcome,
			At:      s.Records[i].At,
		})
	}
	return lines
}
